// elSegment: a high-performance tool for modeling genomic copy-number segments.
// Copyright (c) 2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elsegment/blob/master/LICENSE.txt>.

package allelefraction

import (
	"fmt"
	"math"
)

// DefaultMinorAlleleFractionPriorAlpha is the default concentration
// parameter of the minor-allele-fraction prior.
const DefaultMinorAlleleFractionPriorAlpha = 25.0

// A Prior configures the prior on per-segment minor-allele fractions.
// Alpha >= 1 concentrates prior mass towards a minor-allele fraction
// of 0.5 (balanced alleles); alpha = 1 gives a flat prior.
type Prior struct {
	MinorAlleleFractionPriorAlpha float64
}

// NewPrior returns a prior with the given concentration parameter.
func NewPrior(alpha float64) (*Prior, error) {
	if alpha < 1 {
		return nil, fmt.Errorf("minor-allele-fraction prior alpha must be >= 1: %v", alpha)
	}
	return &Prior{MinorAlleleFractionPriorAlpha: alpha}, nil
}

// logDensity is the unnormalized log prior density for a
// minor-allele fraction in (0, 0.5].
func (prior *Prior) logDensity(minorAlleleFraction float64) float64 {
	return (prior.MinorAlleleFractionPriorAlpha - 1) * math.Log(2*minorAlleleFraction)
}

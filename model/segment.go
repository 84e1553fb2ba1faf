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

// Package model fits and refines the joint copy-ratio and
// allele-fraction model over a segmentation of the genome.
package model

import (
	"fmt"

	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/mcmc"
)

// A ModeledSegment is a genomic segment together with the number of
// copy-ratio and allele-fraction points it contains and the fitted
// posterior summaries for its mean log2 copy ratio and minor-allele
// fraction. Modeled segments are replaced wholesale on every fit or
// merge, never mutated.
type ModeledSegment struct {
	Interval                intervals.Interval
	NumPointsCopyRatio      int
	NumPointsAlleleFraction int
	Log2CopyRatio           mcmc.PosteriorSummary
	MinorAlleleFraction     mcmc.PosteriorSummary
}

// NewModeledSegment returns a modeled segment. A segment must carry
// evidence for at least one modality: at least one of the two point
// counts must be positive.
func NewModeledSegment(interval intervals.Interval, numPointsCopyRatio, numPointsAlleleFraction int,
	log2CopyRatio, minorAlleleFraction mcmc.PosteriorSummary) (ModeledSegment, error) {
	if numPointsCopyRatio <= 0 && numPointsAlleleFraction <= 0 {
		return ModeledSegment{}, fmt.Errorf("segment %v: number of copy-ratio points or number of allele-fraction points must be positive", interval)
	}
	return ModeledSegment{
		Interval:                interval,
		NumPointsCopyRatio:      numPointsCopyRatio,
		NumPointsAlleleFraction: numPointsAlleleFraction,
		Log2CopyRatio:           log2CopyRatio,
		MinorAlleleFraction:     minorAlleleFraction,
	}, nil
}

// A Segmentation is the segment input for a sample: an ordered list
// of non-overlapping genomic intervals, grouped by contig and
// ascending within each contig.
type Segmentation struct {
	SampleName string
	Segments   []intervals.Interval
}

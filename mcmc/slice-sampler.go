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

package mcmc

import (
	"math"

	"github.com/exascience/elsegment/internal"
)

// A LogDensity is an unnormalized log probability density.
type LogDensity func(x float64) float64

// A SliceSampler draws samples from a univariate continuous
// distribution given by an unnormalized log density restricted to
// (Lower, Upper), using slice sampling with stepping out and
// shrinkage (Neal 2003).
type SliceSampler struct {
	Rand       *internal.Rand
	LogDensity LogDensity
	Lower      float64
	Upper      float64
	Width      float64
}

// maximum number of step-out and shrinkage iterations per sample
const maxSliceIterations = 100

// Sample draws a single sample, starting from the current value x.
func (sampler *SliceSampler) Sample(x float64) float64 {
	logSlice := sampler.LogDensity(x) + math.Log(sampler.Rand.Float64())

	// step out around x to bracket the slice
	left := x - sampler.Width*sampler.Rand.Float64()
	right := left + sampler.Width
	if left < sampler.Lower {
		left = sampler.Lower
	}
	if right > sampler.Upper {
		right = sampler.Upper
	}
	for i := 0; sampler.LogDensity(left) > logSlice && left > sampler.Lower && i < maxSliceIterations; i++ {
		left -= sampler.Width
		if left < sampler.Lower {
			left = sampler.Lower
		}
	}
	for i := 0; sampler.LogDensity(right) > logSlice && right < sampler.Upper && i < maxSliceIterations; i++ {
		right += sampler.Width
		if right > sampler.Upper {
			right = sampler.Upper
		}
	}

	// shrink the bracket until a point inside the slice is found
	for i := 0; i < maxSliceIterations; i++ {
		proposal := left + (right-left)*sampler.Rand.Float64()
		if sampler.LogDensity(proposal) > logSlice {
			return proposal
		}
		if proposal < x {
			left = proposal
		} else {
			right = proposal
		}
	}
	// the bracket collapsed without finding a better point
	return x
}

// SampleChain draws a chain of n samples, starting from x.
func (sampler *SliceSampler) SampleChain(x float64, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		x = sampler.Sample(x)
		samples[i] = x
	}
	return samples
}

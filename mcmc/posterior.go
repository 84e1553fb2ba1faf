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

// Package mcmc provides the shared machinery for the Markov-chain
// Monte Carlo model fits: posterior summaries of sample chains, a
// univariate slice sampler, and a writer for global-parameter
// posterior-summary tables.
package mcmc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// A PosteriorSummary describes a one-dimensional marginal posterior
// by its mode, median, and 10th/90th percentiles. Mode and Median are
// NaN when a segment has no usable data for a modality.
type PosteriorSummary struct {
	Mode     float64
	Median   float64
	Decile10 float64
	Decile90 float64
}

// NaNPosteriorSummary returns the summary that signals absence of
// data for a modality in a segment.
func NaNPosteriorSummary() PosteriorSummary {
	nan := math.NaN()
	return PosteriorSummary{Mode: nan, Median: nan, Decile10: nan, Decile90: nan}
}

// IsNaN determines whether the summary signals absence of data.
func (summary PosteriorSummary) IsNaN() bool {
	return math.IsNaN(summary.Median)
}

// Width returns the credible-interval width decile90 - decile10.
func (summary PosteriorSummary) Width() float64 {
	return summary.Decile90 - summary.Decile10
}

// number of evaluation points for the kernel-density mode estimate
const modeGridSize = 512

// Summarize computes a posterior summary for a chain of posterior
// samples. The median and deciles are empirical quantiles; the mode
// is the maximum of a Gaussian kernel density estimate with Silverman
// bandwidth over an evaluation grid spanning the samples.
func Summarize(samples []float64) PosteriorSummary {
	if len(samples) == 0 {
		return NaNPosteriorSummary()
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	return PosteriorSummary{
		Mode:     kdeMode(sorted),
		Median:   stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Decile10: stat.Quantile(0.1, stat.Empirical, sorted, nil),
		Decile90: stat.Quantile(0.9, stat.Empirical, sorted, nil),
	}
}

// kdeMode returns the maximizer of a Gaussian kernel density estimate
// over the sorted samples.
func kdeMode(sorted []float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	min, max := sorted[0], sorted[n-1]
	if min == max {
		return min
	}
	sigma := stat.StdDev(sorted, nil)
	if sigma == 0 {
		return sorted[0]
	}
	// Silverman's rule of thumb
	bandwidth := 1.06 * sigma * math.Pow(float64(n), -0.2)
	kernel := distuv.Normal{Mu: 0, Sigma: bandwidth}
	step := (max - min) / (modeGridSize - 1)
	mode, best := min, math.Inf(-1)
	for i := 0; i < modeGridSize; i++ {
		x := min + float64(i)*step
		var density float64
		for _, sample := range sorted {
			density += kernel.Prob(x - sample)
		}
		if density > best {
			best = density
			mode = x
		}
	}
	return mode
}

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

package copyratio

import (
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/exascience/elsegment/internal"
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/mcmc"
)

// Global parameter names for the copy-ratio model.
const (
	VarianceParameterName           = "variance"
	OutlierProbabilityParameterName = "outlier-probability"
)

const (
	// bounds for per-segment mean log2 copy ratios
	minMean = -10.0
	maxMean = 10.0
	// log2 copy ratios outside a segment's normal component are
	// modeled as uniform draws over [minMean, maxMean]
	outlierDensity = 1.0 / (maxMean - minMean)

	maxVariance           = 10.0
	maxOutlierProbability = 0.1

	initialVariance           = 0.1
	initialOutlierProbability = 0.05

	meanSliceWidth     = 0.1
	varianceSliceWidth = 0.05
	outlierSliceWidth  = 0.01

	// grain size below which segment means are sampled sequentially
	parallelSampleGrainSize = 32
)

// A Modeller fits the copy-ratio model to denoised copy ratios
// partitioned by a segmentation: per-segment mean log2 copy ratios,
// plus a global variance and a global outlier probability. Points are
// emitted by an outlier-tolerant normal likelihood around their
// segment mean.
type Modeller struct {
	segments      []intervals.Interval
	segmentPoints [][]float64

	segmentMeansSummaries []mcmc.PosteriorSummary
	globalParameters      []mcmc.Parameter
}

// NewModeller partitions the given copy ratios by midpoint over the
// given segments and returns an unfitted modeller.
func NewModeller(data *Collection, segments []intervals.Interval) *Modeller {
	detector := data.MidpointDetector()
	segmentPoints := make([][]float64, len(segments))
	for j, segment := range segments {
		overlaps := detector.Overlaps(segment)
		points := make([]float64, len(overlaps))
		for i, index := range overlaps {
			points[i] = data.CopyRatios[index].Log2Ratio
		}
		segmentPoints[j] = points
	}
	return &Modeller{segments: segments, segmentPoints: segmentPoints}
}

type chainState struct {
	means              []float64
	variance           float64
	outlierProbability float64
}

// FitMCMC performs Markov-chain Monte Carlo model fitting with the
// given number of total samples and burn-in samples. The posterior
// summaries are afterwards available from the modeller.
func (modeller *Modeller) FitMCMC(numSamples, numBurnIn int) error {
	if numSamples <= 0 {
		return fmt.Errorf("number of copy-ratio samples must be positive: %v", numSamples)
	}
	if numBurnIn < 0 || numBurnIn >= numSamples {
		return fmt.Errorf("number of copy-ratio burn-in samples must be in [0, %v): %v", numSamples, numBurnIn)
	}
	nSegments := len(modeller.segments)
	state := chainState{
		means:              make([]float64, nSegments),
		variance:           initialVariance,
		outlierProbability: initialOutlierProbability,
	}
	for j, points := range modeller.segmentPoints {
		state.means[j] = initialMean(points)
	}

	meanChains := make([][]float64, nSegments)
	for j := range meanChains {
		meanChains[j] = make([]float64, 0, numSamples)
	}
	varianceChain := make([]float64, 0, numSamples)
	outlierChain := make([]float64, 0, numSamples)

	rnd := internal.NewRand(int64(internal.StringHash(VarianceParameterName)))
	segmentRands := make([]*internal.Rand, nSegments)
	for j := range segmentRands {
		segmentRands[j] = internal.NewRand(rnd.Int63())
	}

	for sample := 0; sample < numSamples; sample++ {
		state.variance = (&mcmc.SliceSampler{
			Rand:       rnd,
			LogDensity: modeller.varianceLogDensity(&state),
			Lower:      math.SmallestNonzeroFloat64,
			Upper:      maxVariance,
			Width:      varianceSliceWidth,
		}).Sample(state.variance)
		state.outlierProbability = (&mcmc.SliceSampler{
			Rand:       rnd,
			LogDensity: modeller.outlierLogDensity(&state),
			Lower:      math.SmallestNonzeroFloat64,
			Upper:      maxOutlierProbability,
			Width:      outlierSliceWidth,
		}).Sample(state.outlierProbability)
		modeller.sampleMeans(&state, segmentRands, 0, nSegments)

		for j := range meanChains {
			meanChains[j] = append(meanChains[j], state.means[j])
		}
		varianceChain = append(varianceChain, state.variance)
		outlierChain = append(outlierChain, state.outlierProbability)
	}

	modeller.segmentMeansSummaries = make([]mcmc.PosteriorSummary, nSegments)
	for j := range meanChains {
		if len(modeller.segmentPoints[j]) == 0 {
			modeller.segmentMeansSummaries[j] = mcmc.NaNPosteriorSummary()
		} else {
			modeller.segmentMeansSummaries[j] = mcmc.Summarize(meanChains[j][numBurnIn:])
		}
	}
	modeller.globalParameters = []mcmc.Parameter{
		{Name: VarianceParameterName, Summary: mcmc.Summarize(varianceChain[numBurnIn:])},
		{Name: OutlierProbabilityParameterName, Summary: mcmc.Summarize(outlierChain[numBurnIn:])},
	}
	return nil
}

// sampleMeans resamples the segment means in [low, high), recursively
// splitting the range in two parallel halves. Each segment mean only
// depends on its own points and the global parameters, so the
// segments can be sampled independently within one sweep.
func (modeller *Modeller) sampleMeans(state *chainState, rands []*internal.Rand, low, high int) {
	if high-low <= parallelSampleGrainSize {
		for j := low; j < high; j++ {
			points := modeller.segmentPoints[j]
			if len(points) == 0 {
				continue
			}
			state.means[j] = (&mcmc.SliceSampler{
				Rand:       rands[j],
				LogDensity: pointsLogLikelihood(points, state.variance, state.outlierProbability),
				Lower:      minMean,
				Upper:      maxMean,
				Width:      meanSliceWidth,
			}).Sample(state.means[j])
		}
		return
	}
	mid := (low + high) / 2
	parallel.Do(
		func() { modeller.sampleMeans(state, rands, low, mid) },
		func() { modeller.sampleMeans(state, rands, mid, high) },
	)
}

// pointsLogLikelihood is the log likelihood of a segment mean given
// the segment's points and the global parameters.
func pointsLogLikelihood(points []float64, variance, outlierProbability float64) mcmc.LogDensity {
	normal := distuv.Normal{Mu: 0, Sigma: math.Sqrt(variance)}
	return func(mean float64) float64 {
		normal.Mu = mean
		var logLikelihood float64
		for _, point := range points {
			logLikelihood += math.Log((1-outlierProbability)*normal.Prob(point) + outlierProbability*outlierDensity)
		}
		return logLikelihood
	}
}

func (modeller *Modeller) varianceLogDensity(state *chainState) mcmc.LogDensity {
	return func(variance float64) float64 {
		var logLikelihood float64
		for j, points := range modeller.segmentPoints {
			logLikelihood += pointsLogLikelihood(points, variance, state.outlierProbability)(state.means[j])
		}
		return logLikelihood
	}
}

func (modeller *Modeller) outlierLogDensity(state *chainState) mcmc.LogDensity {
	return func(outlierProbability float64) float64 {
		var logLikelihood float64
		for j, points := range modeller.segmentPoints {
			logLikelihood += pointsLogLikelihood(points, state.variance, outlierProbability)(state.means[j])
		}
		return logLikelihood
	}
}

func initialMean(points []float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, point := range points {
		sum += point
	}
	return sum / float64(len(points))
}

// SegmentMeansPosteriorSummaries returns one posterior summary per
// segment for the mean log2 copy ratio, in segment order. Segments
// without copy-ratio points receive NaN summaries.
func (modeller *Modeller) SegmentMeansPosteriorSummaries() []mcmc.PosteriorSummary {
	return modeller.segmentMeansSummaries
}

// GlobalParameterPosteriorSummaries returns the posterior summaries
// for the global model parameters.
func (modeller *Modeller) GlobalParameterPosteriorSummaries() []mcmc.Parameter {
	return modeller.globalParameters
}

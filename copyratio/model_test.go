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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elsegment/internal"
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/utils"
)

var chr1 = utils.Intern("chr1")

func simulatedCollection(means []float64, pointsPerSegment int, noise float64) (*Collection, []intervals.Interval) {
	rand := internal.NewRand(42)
	var copyRatios []CopyRatio
	segments := make([]intervals.Interval, len(means))
	var position int32 = 1
	for j, mean := range means {
		start := position
		for i := 0; i < pointsPerSegment; i++ {
			copyRatios = append(copyRatios, CopyRatio{
				Interval:  intervals.Interval{Contig: chr1, Start: position, End: position + 9},
				Log2Ratio: mean + noise*rand.NormFloat64(),
			})
			position += 10
		}
		segments[j] = intervals.Interval{Contig: chr1, Start: start, End: position - 1}
	}
	return NewCollection("sample1", copyRatios), segments
}

func TestFitMCMCValidation(t *testing.T) {
	data, segments := simulatedCollection([]float64{0}, 5, 0.1)
	modeller := NewModeller(data, segments)
	assert.Error(t, modeller.FitMCMC(0, 0))
	assert.Error(t, modeller.FitMCMC(-1, 0))
	assert.Error(t, modeller.FitMCMC(100, -1))
	assert.Error(t, modeller.FitMCMC(100, 100))
}

func TestFitMCMCSummaries(t *testing.T) {
	means := []float64{-1, 0, 1}
	data, segments := simulatedCollection(means, 30, 0.2)
	modeller := NewModeller(data, segments)
	require.NoError(t, modeller.FitMCMC(200, 100))

	summaries := modeller.SegmentMeansPosteriorSummaries()
	require.Len(t, summaries, len(segments))
	for j, summary := range summaries {
		assert.False(t, summary.IsNaN())
		assert.LessOrEqual(t, summary.Decile10, summary.Median)
		assert.LessOrEqual(t, summary.Median, summary.Decile90)
		assert.InDelta(t, means[j], summary.Median, 0.2)
	}

	parameters := modeller.GlobalParameterPosteriorSummaries()
	require.Len(t, parameters, 2)
	assert.Equal(t, VarianceParameterName, parameters[0].Name)
	assert.Equal(t, OutlierProbabilityParameterName, parameters[1].Name)
	assert.Greater(t, parameters[0].Summary.Median, 0.0)
	assert.InDelta(t, 0.04, parameters[0].Summary.Median, 0.04)
	assert.Greater(t, parameters[1].Summary.Median, 0.0)
	assert.Less(t, parameters[1].Summary.Median, maxOutlierProbability)
}

func TestFitMCMCEmptySegment(t *testing.T) {
	data, segments := simulatedCollection([]float64{0.5}, 10, 0.1)
	// append a segment beyond all points
	segments = append(segments, intervals.Interval{Contig: chr1, Start: 100000, End: 100100})
	modeller := NewModeller(data, segments)
	require.NoError(t, modeller.FitMCMC(100, 50))

	summaries := modeller.SegmentMeansPosteriorSummaries()
	require.Len(t, summaries, 2)
	assert.False(t, summaries[0].IsNaN())
	assert.True(t, summaries[1].IsNaN())
}

func TestFitMCMCOutlierTolerance(t *testing.T) {
	data, segments := simulatedCollection([]float64{0}, 50, 0.1)
	// corrupt a few points far away from the segment mean
	data.CopyRatios[0].Log2Ratio = 8
	data.CopyRatios[1].Log2Ratio = -8
	modeller := NewModeller(data, segments)
	require.NoError(t, modeller.FitMCMC(200, 100))

	summary := modeller.SegmentMeansPosteriorSummaries()[0]
	assert.InDelta(t, 0.0, summary.Median, 0.2)
}

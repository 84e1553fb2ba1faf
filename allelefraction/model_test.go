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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/utils"
)

var chr1 = utils.Intern("chr1")

func TestNewPrior(t *testing.T) {
	prior, err := NewPrior(1)
	require.NoError(t, err)
	// alpha 1 gives a flat prior
	assert.Equal(t, 0.0, prior.logDensity(0.1))
	assert.Equal(t, 0.0, prior.logDensity(0.5))

	prior, err = NewPrior(DefaultMinorAlleleFractionPriorAlpha)
	require.NoError(t, err)
	// larger alpha prefers balanced alleles
	assert.Greater(t, prior.logDensity(0.5), prior.logDensity(0.1))

	_, err = NewPrior(0.5)
	assert.Error(t, err)
}

// simulatedCollection draws allelic counts for heterozygous sites at
// the given minor-allele fractions, with a mild reference bias.
func simulatedCollection(minorFractions []float64, sitesPerSegment int, depth int) (*Collection, []intervals.Interval) {
	src := rand.New(rand.NewSource(42))
	biasPrior := gammaBiasPrior(1.1, 0.01)
	biasPrior.Src = src
	var counts []AllelicCount
	segments := make([]intervals.Interval, len(minorFractions))
	var position int32 = 1
	for j, minorFraction := range minorFractions {
		start := position
		for i := 0; i < sitesPerSegment; i++ {
			bias := biasPrior.Rand()
			pAlt := minorFraction / (minorFraction + (1-minorFraction)*bias)
			if src.Float64() < 0.5 {
				pAlt = (1 - minorFraction) / ((1 - minorFraction) + minorFraction*bias)
			}
			binomial := distuv.Binomial{N: float64(depth), P: pAlt, Src: src}
			altCount := int32(binomial.Rand())
			counts = append(counts, AllelicCount{
				Interval: intervals.Interval{Contig: chr1, Start: position, End: position},
				RefCount: int32(depth) - altCount,
				AltCount: altCount,
			})
			position += 100
		}
		segments[j] = intervals.Interval{Contig: chr1, Start: start, End: position - 1}
	}
	return NewCollection("sample1", counts), segments
}

func TestFitMCMCValidation(t *testing.T) {
	data, segments := simulatedCollection([]float64{0.5}, 5, 30)
	prior, err := NewPrior(DefaultMinorAlleleFractionPriorAlpha)
	require.NoError(t, err)
	modeller := NewModeller(data, segments, prior)
	assert.Error(t, modeller.FitMCMC(0, 0))
	assert.Error(t, modeller.FitMCMC(100, -1))
	assert.Error(t, modeller.FitMCMC(100, 100))
}

func TestFitMCMCSummaries(t *testing.T) {
	minorFractions := []float64{0.2, 0.5}
	data, segments := simulatedCollection(minorFractions, 40, 50)
	prior, err := NewPrior(DefaultMinorAlleleFractionPriorAlpha)
	require.NoError(t, err)
	modeller := NewModeller(data, segments, prior)
	require.NoError(t, modeller.FitMCMC(150, 75))

	summaries := modeller.MinorAlleleFractionsPosteriorSummaries()
	require.Len(t, summaries, len(segments))
	for j, summary := range summaries {
		assert.False(t, summary.IsNaN())
		assert.LessOrEqual(t, summary.Decile10, summary.Median)
		assert.LessOrEqual(t, summary.Median, summary.Decile90)
		assert.Greater(t, summary.Median, 0.0)
		assert.LessOrEqual(t, summary.Median, maxMinorFraction)
		assert.InDelta(t, minorFractions[j], summary.Median, 0.1)
	}

	parameters := modeller.GlobalParameterPosteriorSummaries()
	require.Len(t, parameters, 3)
	assert.Equal(t, MeanBiasParameterName, parameters[0].Name)
	assert.Equal(t, BiasVarianceParameterName, parameters[1].Name)
	assert.Equal(t, OutlierProbabilityParameterName, parameters[2].Name)
	assert.InDelta(t, 1.1, parameters[0].Summary.Median, 0.3)
	assert.Greater(t, parameters[1].Summary.Median, 0.0)
	assert.Less(t, parameters[2].Summary.Median, maxOutlierProbability)
}

func TestFitMCMCEmptySegment(t *testing.T) {
	data, segments := simulatedCollection([]float64{0.3}, 10, 30)
	segments = append(segments, intervals.Interval{Contig: chr1, Start: 1000000, End: 1000100})
	prior, err := NewPrior(DefaultMinorAlleleFractionPriorAlpha)
	require.NoError(t, err)
	modeller := NewModeller(data, segments, prior)
	require.NoError(t, modeller.FitMCMC(100, 50))

	summaries := modeller.MinorAlleleFractionsPosteriorSummaries()
	require.Len(t, summaries, 2)
	assert.False(t, summaries[0].IsNaN())
	assert.True(t, summaries[1].IsNaN())
}

func TestSiteLogLikelihood(t *testing.T) {
	// balanced counts are most likely at a balanced minor fraction
	balanced := siteLogLikelihood(25, 25, 0.5, 1, 0.01)
	skewed := siteLogLikelihood(25, 25, 0.1, 1, 0.01)
	assert.Greater(t, balanced, skewed)

	// minor-allele identity is marginalized: swapping ref and alt
	// counts leaves the likelihood unchanged for bias 1
	assert.InDelta(t, siteLogLikelihood(40, 10, 0.2, 1, 0.01), siteLogLikelihood(10, 40, 0.2, 1, 0.01), 1e-12)

	// likelihoods are finite even for extreme counts
	assert.False(t, math.IsInf(siteLogLikelihood(100, 0, 0.5, 1, 0.01), 0))
}

func TestInitialMinorFraction(t *testing.T) {
	assert.Equal(t, maxMinorFraction, initialMinorFraction(nil))
	sites := []*site{{refCount: 70, altCount: 30}}
	assert.InDelta(t, 0.3, initialMinorFraction(sites), 1e-12)
	// folded to the minor allele
	sites = []*site{{refCount: 30, altCount: 70}}
	assert.InDelta(t, 0.3, initialMinorFraction(sites), 1e-12)
	// clamped away from zero
	sites = []*site{{refCount: 100, altCount: 0}}
	assert.Equal(t, minMinorFraction, initialMinorFraction(sites))
}

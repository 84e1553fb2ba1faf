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

	"github.com/exascience/pargo/parallel"
	"github.com/willf/bitset"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/exascience/elsegment/internal"
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/mcmc"
)

// Global parameter names for the allele-fraction model.
const (
	MeanBiasParameterName           = "mean-bias"
	BiasVarianceParameterName       = "bias-variance"
	OutlierProbabilityParameterName = "outlier-probability"
)

const (
	minMinorFraction = 1e-3
	maxMinorFraction = 0.5

	maxBias               = 5.0
	maxBiasVariance       = 0.5
	maxOutlierProbability = 0.1

	initialMeanBias           = 1.0
	initialBiasVariance       = 0.05
	initialOutlierProbability = 0.02

	minorFractionSliceWidth = 0.05
	biasSliceWidth          = 0.1
	meanBiasSliceWidth      = 0.05
	biasVarianceSliceWidth  = 0.02
	outlierSliceWidth       = 0.01

	// grain size below which segment minor fractions are sampled
	// sequentially
	parallelSampleGrainSize = 32
)

type site struct {
	refCount, altCount int32
	// reference bias at this site, resampled in every sweep
	bias float64
}

// A Modeller fits the allele-fraction model to allelic counts
// partitioned by a segmentation: per-segment minor-allele fractions
// in (0, 0.5], with latent per-site reference biases drawn from a
// gamma distribution whose mean and variance are global parameters,
// and a global outlier probability.
type Modeller struct {
	prior            *Prior
	segments         []intervals.Interval
	segmentSites     [][]*site
	sites            []*site
	segmentsWithData *bitset.BitSet

	minorFractionsSummaries []mcmc.PosteriorSummary
	globalParameters        []mcmc.Parameter
}

// NewModeller partitions the given allelic counts over the given
// segments and returns an unfitted modeller.
func NewModeller(data *Collection, segments []intervals.Interval, prior *Prior) *Modeller {
	detector := data.SiteDetector()
	modeller := &Modeller{
		prior:            prior,
		segments:         segments,
		segmentSites:     make([][]*site, len(segments)),
		segmentsWithData: bitset.New(uint(len(segments))),
	}
	for j, segment := range segments {
		overlaps := detector.Overlaps(segment)
		sites := make([]*site, len(overlaps))
		for i, index := range overlaps {
			count := data.AllelicCounts[index]
			sites[i] = &site{refCount: count.RefCount, altCount: count.AltCount, bias: initialMeanBias}
		}
		modeller.segmentSites[j] = sites
		modeller.sites = append(modeller.sites, sites...)
		if len(sites) > 0 {
			modeller.segmentsWithData.Set(uint(j))
		}
	}
	return modeller
}

type chainState struct {
	minorFractions     []float64
	meanBias           float64
	biasVariance       float64
	outlierProbability float64
}

// FitMCMC performs Markov-chain Monte Carlo model fitting with the
// given number of total samples and burn-in samples. The posterior
// summaries are afterwards available from the modeller.
func (modeller *Modeller) FitMCMC(numSamples, numBurnIn int) error {
	if numSamples <= 0 {
		return fmt.Errorf("number of allele-fraction samples must be positive: %v", numSamples)
	}
	if numBurnIn < 0 || numBurnIn >= numSamples {
		return fmt.Errorf("number of allele-fraction burn-in samples must be in [0, %v): %v", numSamples, numBurnIn)
	}
	nSegments := len(modeller.segments)
	state := chainState{
		minorFractions:     make([]float64, nSegments),
		meanBias:           initialMeanBias,
		biasVariance:       initialBiasVariance,
		outlierProbability: initialOutlierProbability,
	}
	for j, sites := range modeller.segmentSites {
		state.minorFractions[j] = initialMinorFraction(sites)
	}

	minorFractionChains := make([][]float64, nSegments)
	for j := range minorFractionChains {
		minorFractionChains[j] = make([]float64, 0, numSamples)
	}
	meanBiasChain := make([]float64, 0, numSamples)
	biasVarianceChain := make([]float64, 0, numSamples)
	outlierChain := make([]float64, 0, numSamples)

	rnd := internal.NewRand(int64(internal.StringHash(MeanBiasParameterName)))
	segmentRands := make([]*internal.Rand, nSegments)
	for j := range segmentRands {
		segmentRands[j] = internal.NewRand(rnd.Int63())
	}

	for sample := 0; sample < numSamples; sample++ {
		modeller.sampleSiteBiases(&state, rnd)
		state.meanBias = (&mcmc.SliceSampler{
			Rand:       rnd,
			LogDensity: modeller.biasHyperparameterLogDensity(state.biasVariance, true),
			Lower:      math.SmallestNonzeroFloat64,
			Upper:      maxBias,
			Width:      meanBiasSliceWidth,
		}).Sample(state.meanBias)
		state.biasVariance = (&mcmc.SliceSampler{
			Rand:       rnd,
			LogDensity: modeller.biasHyperparameterLogDensity(state.meanBias, false),
			Lower:      math.SmallestNonzeroFloat64,
			Upper:      maxBiasVariance,
			Width:      biasVarianceSliceWidth,
		}).Sample(state.biasVariance)
		state.outlierProbability = (&mcmc.SliceSampler{
			Rand:       rnd,
			LogDensity: modeller.outlierLogDensity(&state),
			Lower:      math.SmallestNonzeroFloat64,
			Upper:      maxOutlierProbability,
			Width:      outlierSliceWidth,
		}).Sample(state.outlierProbability)
		modeller.sampleMinorFractions(&state, segmentRands, 0, nSegments)

		for j := range minorFractionChains {
			minorFractionChains[j] = append(minorFractionChains[j], state.minorFractions[j])
		}
		meanBiasChain = append(meanBiasChain, state.meanBias)
		biasVarianceChain = append(biasVarianceChain, state.biasVariance)
		outlierChain = append(outlierChain, state.outlierProbability)
	}

	modeller.minorFractionsSummaries = make([]mcmc.PosteriorSummary, nSegments)
	for j := range minorFractionChains {
		if !modeller.segmentsWithData.Test(uint(j)) {
			modeller.minorFractionsSummaries[j] = mcmc.NaNPosteriorSummary()
		} else {
			modeller.minorFractionsSummaries[j] = mcmc.Summarize(minorFractionChains[j][numBurnIn:])
		}
	}
	modeller.globalParameters = []mcmc.Parameter{
		{Name: MeanBiasParameterName, Summary: mcmc.Summarize(meanBiasChain[numBurnIn:])},
		{Name: BiasVarianceParameterName, Summary: mcmc.Summarize(biasVarianceChain[numBurnIn:])},
		{Name: OutlierProbabilityParameterName, Summary: mcmc.Summarize(outlierChain[numBurnIn:])},
	}
	return nil
}

// sampleSiteBiases resamples the latent per-site reference biases
// against the gamma bias prior and the site likelihoods.
func (modeller *Modeller) sampleSiteBiases(state *chainState, rnd *internal.Rand) {
	biasPrior := gammaBiasPrior(state.meanBias, state.biasVariance)
	for j, sites := range modeller.segmentSites {
		minorFraction := state.minorFractions[j]
		for _, s := range sites {
			s.bias = (&mcmc.SliceSampler{
				Rand: rnd,
				LogDensity: func(bias float64) float64 {
					return biasPrior.LogProb(bias) +
						siteLogLikelihood(s.refCount, s.altCount, minorFraction, bias, state.outlierProbability)
				},
				Lower: math.SmallestNonzeroFloat64,
				Upper: maxBias,
				Width: biasSliceWidth,
			}).Sample(s.bias)
		}
	}
}

// sampleMinorFractions resamples the minor-allele fractions for the
// segments in [low, high), recursively splitting the range in two
// parallel halves.
func (modeller *Modeller) sampleMinorFractions(state *chainState, rands []*internal.Rand, low, high int) {
	if high-low <= parallelSampleGrainSize {
		for j := low; j < high; j++ {
			sites := modeller.segmentSites[j]
			if len(sites) == 0 {
				continue
			}
			state.minorFractions[j] = (&mcmc.SliceSampler{
				Rand:       rands[j],
				LogDensity: modeller.minorFractionLogDensity(sites, state.outlierProbability),
				Lower:      minMinorFraction,
				Upper:      maxMinorFraction,
				Width:      minorFractionSliceWidth,
			}).Sample(state.minorFractions[j])
		}
		return
	}
	mid := (low + high) / 2
	parallel.Do(
		func() { modeller.sampleMinorFractions(state, rands, low, mid) },
		func() { modeller.sampleMinorFractions(state, rands, mid, high) },
	)
}

func (modeller *Modeller) minorFractionLogDensity(sites []*site, outlierProbability float64) mcmc.LogDensity {
	return func(minorFraction float64) float64 {
		logDensity := modeller.prior.logDensity(minorFraction)
		for _, s := range sites {
			logDensity += siteLogLikelihood(s.refCount, s.altCount, minorFraction, s.bias, outlierProbability)
		}
		return logDensity
	}
}

// biasHyperparameterLogDensity is the log density of one gamma
// hyperparameter given the current site biases, holding the other
// hyperparameter fixed.
func (modeller *Modeller) biasHyperparameterLogDensity(fixed float64, fixedIsVariance bool) mcmc.LogDensity {
	return func(x float64) float64 {
		var prior distuv.Gamma
		if fixedIsVariance {
			prior = gammaBiasPrior(x, fixed)
		} else {
			prior = gammaBiasPrior(fixed, x)
		}
		var logDensity float64
		for _, s := range modeller.sites {
			logDensity += prior.LogProb(s.bias)
		}
		return logDensity
	}
}

func (modeller *Modeller) outlierLogDensity(state *chainState) mcmc.LogDensity {
	return func(outlierProbability float64) float64 {
		var logDensity float64
		for j, sites := range modeller.segmentSites {
			minorFraction := state.minorFractions[j]
			for _, s := range sites {
				logDensity += siteLogLikelihood(s.refCount, s.altCount, minorFraction, s.bias, outlierProbability)
			}
		}
		return logDensity
	}
}

// gammaBiasPrior is the gamma distribution with the given mean and
// variance, in shape/rate parameterization.
func gammaBiasPrior(mean, variance float64) distuv.Gamma {
	return distuv.Gamma{Alpha: mean * mean / variance, Beta: mean / variance}
}

// siteLogLikelihood is the log likelihood of one heterozygous site
// given a minor-allele fraction and a reference bias. The identity of
// the minor allele is marginalized out with equal weight, and an
// outlier component spreads mass uniformly over the possible
// alternate read counts.
func siteLogLikelihood(refCount, altCount int32, minorFraction, bias, outlierProbability float64) float64 {
	n := float64(refCount + altCount)
	alt := float64(altCount)
	// probability of an alternate read when the minor allele is the
	// alternate resp. the reference allele
	pAltMinor := minorFraction / (minorFraction + (1-minorFraction)*bias)
	pRefMinor := (1 - minorFraction) / ((1 - minorFraction) + minorFraction*bias)
	binomialAlt := distuv.Binomial{N: n, P: pAltMinor}
	binomialRef := distuv.Binomial{N: n, P: pRefMinor}
	likelihood := (1-outlierProbability)*0.5*(binomialAlt.Prob(alt)+binomialRef.Prob(alt)) +
		outlierProbability/(n+1)
	return math.Log(likelihood)
}

func initialMinorFraction(sites []*site) float64 {
	if len(sites) == 0 {
		return maxMinorFraction
	}
	var refSum, altSum float64
	for _, s := range sites {
		refSum += float64(s.refCount)
		altSum += float64(s.altCount)
	}
	fraction := altSum / (refSum + altSum)
	if fraction > 0.5 {
		fraction = 1 - fraction
	}
	if fraction < minMinorFraction {
		fraction = minMinorFraction
	}
	return fraction
}

// MinorAlleleFractionsPosteriorSummaries returns one posterior
// summary per segment for the minor-allele fraction, in segment
// order. Segments without heterozygous sites receive NaN summaries.
func (modeller *Modeller) MinorAlleleFractionsPosteriorSummaries() []mcmc.PosteriorSummary {
	return modeller.minorFractionsSummaries
}

// GlobalParameterPosteriorSummaries returns the posterior summaries
// for the global model parameters.
func (modeller *Modeller) GlobalParameterPosteriorSummaries() []mcmc.Parameter {
	return modeller.globalParameters
}

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

package model

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/elsegment/allelefraction"
	"github.com/exascience/elsegment/copyratio"
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/mcmc"
)

// stubFit returns fixed summaries for both modalities: one summary per
// segment, with a flat copy ratio so that every adjacent pair on the
// same contig merges.
type stubFit struct {
	summaries []mcmc.PosteriorSummary
	params    []mcmc.Parameter
}

func (fit *stubFit) SegmentMeansPosteriorSummaries() []mcmc.PosteriorSummary {
	return fit.summaries
}

func (fit *stubFit) MinorAlleleFractionsPosteriorSummaries() []mcmc.PosteriorSummary {
	return fit.summaries
}

func (fit *stubFit) GlobalParameterPosteriorSummaries() []mcmc.Parameter {
	return fit.params
}

func flatSummaries(n int) []mcmc.PosteriorSummary {
	summaries := make([]mcmc.PosteriorSummary, n)
	for i := range summaries {
		summaries[i] = summary(0.25, 0.2, 0.3)
	}
	return summaries
}

type engineCounters struct {
	copyRatioFits, alleleFractionFits int
}

func stubEngines(counters *engineCounters) (CopyRatioEngine, AlleleFractionEngine) {
	copyRatioEngine := func(data *copyratio.Collection, segments []intervals.Interval, config SamplerConfig) (CopyRatioFit, error) {
		counters.copyRatioFits++
		return &stubFit{
			summaries: flatSummaries(len(segments)),
			params:    []mcmc.Parameter{{Name: "variance", Summary: summary(0.1, 0.05, 0.15)}},
		}, nil
	}
	alleleFractionEngine := func(data *allelefraction.Collection, segments []intervals.Interval, prior *allelefraction.Prior, config SamplerConfig) (AlleleFractionFit, error) {
		counters.alleleFractionFits++
		return &stubFit{
			summaries: flatSummaries(len(segments)),
			params:    []mcmc.Parameter{{Name: "mean-bias", Summary: summary(1.0, 0.9, 1.1)}},
		}, nil
	}
	return copyRatioEngine, alleleFractionEngine
}

func testInputs() (*Segmentation, *copyratio.Collection, *allelefraction.Collection, *allelefraction.Prior) {
	segmentation := &Segmentation{
		SampleName: "sample1",
		Segments: []intervals.Interval{
			{Contig: chr1, Start: 1, End: 100},
			{Contig: chr1, Start: 101, End: 200},
			{Contig: chr1, Start: 201, End: 300},
			{Contig: chr2, Start: 1, End: 100},
		},
	}
	var copyRatios []copyratio.CopyRatio
	for _, segment := range segmentation.Segments {
		copyRatios = append(copyRatios, copyratio.CopyRatio{
			Interval:  intervals.Interval{Contig: segment.Contig, Start: segment.Start, End: segment.Start + 9},
			Log2Ratio: 0.25,
		})
	}
	var allelicCounts []allelefraction.AllelicCount
	for _, segment := range segmentation.Segments {
		allelicCounts = append(allelicCounts, allelefraction.AllelicCount{
			Interval: intervals.Interval{Contig: segment.Contig, Start: segment.Start + 5, End: segment.Start + 5},
			RefCount: 20,
			AltCount: 10,
		})
	}
	prior, err := allelefraction.NewPrior(allelefraction.DefaultMinorAlleleFractionPriorAlpha)
	if err != nil {
		panic(err)
	}
	return segmentation, copyratio.NewCollection("sample1", copyRatios), allelefraction.NewCollection("sample1", allelicCounts), prior
}

var testConfig = SamplerConfig{NumSamples: 10, NumBurnIn: 5}

func TestNewModellerValidation(t *testing.T) {
	segmentation, copyRatios, allelicCounts, prior := testInputs()
	var counters engineCounters
	copyRatioEngine, alleleFractionEngine := stubEngines(&counters)

	_, err := NewModellerWithEngines(nil, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	assert.Error(t, err)

	mismatched := copyratio.NewCollection("sample2", copyRatios.CopyRatios)
	_, err = NewModellerWithEngines(segmentation, mismatched, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample names from all inputs must match")

	empty := &Segmentation{SampleName: "sample1"}
	_, err = NewModellerWithEngines(empty, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number of segments must be positive")

	unsorted := &Segmentation{
		SampleName: "sample1",
		Segments: []intervals.Interval{
			{Contig: chr1, Start: 101, End: 200},
			{Contig: chr1, Start: 1, End: 100},
		},
	}
	_, err = NewModellerWithEngines(unsorted, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	assert.Error(t, err)
}

func TestNewModellerInitialFit(t *testing.T) {
	segmentation, copyRatios, allelicCounts, prior := testInputs()
	var counters engineCounters
	copyRatioEngine, alleleFractionEngine := stubEngines(&counters)

	modeller, err := NewModellerWithEngines(segmentation, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.NoError(t, err)
	// the constructor performs exactly one fit of each modality
	assert.Equal(t, 1, counters.copyRatioFits)
	assert.Equal(t, 1, counters.alleleFractionFits)
	assert.Equal(t, "sample1", modeller.SampleName())

	segments, err := modeller.ModeledSegments()
	require.NoError(t, err)
	require.Len(t, segments, len(segmentation.Segments))
	for i, segment := range segments {
		assert.Equal(t, segmentation.Segments[i], segment.Interval)
		assert.Equal(t, 1, segment.NumPointsCopyRatio)
		assert.Equal(t, 1, segment.NumPointsAlleleFraction)
	}
	// fetching fresh modeled segments does not trigger another fit
	assert.Equal(t, 1, counters.copyRatioFits)
}

func TestSmoothSegmentsValidation(t *testing.T) {
	segmentation, copyRatios, allelicCounts, prior := testInputs()
	var counters engineCounters
	copyRatioEngine, alleleFractionEngine := stubEngines(&counters)
	modeller, err := NewModellerWithEngines(segmentation, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.NoError(t, err)

	assert.Error(t, modeller.SmoothSegments(-1, 0, 1, 1))
	assert.Error(t, modeller.SmoothSegments(10, -1, 1, 1))
	assert.Error(t, modeller.SmoothSegments(10, 0, -1, 1))
	assert.Error(t, modeller.SmoothSegments(10, 0, 1, -1))
}

func TestSmoothSegmentsNoIterations(t *testing.T) {
	segmentation, copyRatios, allelicCounts, prior := testInputs()
	var counters engineCounters
	copyRatioEngine, alleleFractionEngine := stubEngines(&counters)
	modeller, err := NewModellerWithEngines(segmentation, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.NoError(t, err)

	require.NoError(t, modeller.SmoothSegments(0, 0, 1, 1))
	// no iterations means no merges and no additional fit beyond the
	// one performed by the constructor
	assert.Equal(t, 1, counters.copyRatioFits)
	segments, err := modeller.ModeledSegments()
	require.NoError(t, err)
	assert.Len(t, segments, len(segmentation.Segments))
	assert.Equal(t, 1, counters.copyRatioFits)
}

func TestSmoothSegmentsMergesAndRefits(t *testing.T) {
	segmentation, copyRatios, allelicCounts, prior := testInputs()
	var counters engineCounters
	copyRatioEngine, alleleFractionEngine := stubEngines(&counters)
	modeller, err := NewModellerWithEngines(segmentation, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.NoError(t, err)

	fitsBefore := counters.copyRatioFits
	require.NoError(t, modeller.SmoothSegments(10, 0, 1, 1))
	// with identical summaries everywhere, the three chr1 segments
	// collapse into one; chr2 stays separate
	segments, err := modeller.ModeledSegments()
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, intervals.Interval{Contig: chr1, Start: 1, End: 300}, segments[0].Interval)
	assert.Equal(t, 3, segments[0].NumPointsCopyRatio)
	assert.Equal(t, intervals.Interval{Contig: chr2, Start: 1, End: 100}, segments[1].Interval)
	// with iterationsPerFit 0 the model goes stale while merging, so
	// SmoothSegments ends with exactly one final refit
	assert.Equal(t, fitsBefore+1, counters.copyRatioFits)
	assert.Equal(t, fitsBefore+1, counters.alleleFractionFits)
}

func TestSmoothSegmentsPeriodicRefit(t *testing.T) {
	segmentation, copyRatios, allelicCounts, prior := testInputs()
	var counters engineCounters
	copyRatioEngine, alleleFractionEngine := stubEngines(&counters)
	modeller, err := NewModellerWithEngines(segmentation, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.NoError(t, err)

	fitsBefore := counters.copyRatioFits
	require.NoError(t, modeller.SmoothSegments(10, 1, 1, 1))
	segments, err := modeller.ModeledSegments()
	require.NoError(t, err)
	require.Len(t, segments, 2)
	// with a refit after every iteration the model never goes stale,
	// so no extra final fit is performed: iteration 1 merges the chr1
	// run down to one segment, iteration 2 changes nothing and stops
	// the loop
	assert.Equal(t, fitsBefore+2, counters.copyRatioFits)
}

func TestWriteModelParameterFiles(t *testing.T) {
	segmentation, copyRatios, allelicCounts, prior := testInputs()
	var counters engineCounters
	copyRatioEngine, alleleFractionEngine := stubEngines(&counters)
	modeller, err := NewModellerWithEngines(segmentation, copyRatios, allelicCounts, prior,
		testConfig, testConfig, copyRatioEngine, alleleFractionEngine)
	require.NoError(t, err)

	assert.Error(t, modeller.WriteModelParameterFiles("", ""))

	dir, err := ioutil.TempDir("", "elsegment-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	copyRatioFile := filepath.Join(dir, "sample1.cr.param")
	alleleFractionFile := filepath.Join(dir, "sample1.af.param")
	require.NoError(t, modeller.WriteModelParameterFiles(copyRatioFile, alleleFractionFile))

	contents, err := ioutil.ReadFile(copyRatioFile)
	require.NoError(t, err)
	assert.Equal(t,
		"PARAMETER_NAME\tPOSTERIOR_MODE\tPOSTERIOR_MEDIAN\tPOSTERIOR_10\tPOSTERIOR_90\n"+
			"variance\t0.100000\t0.100000\t0.050000\t0.150000\n",
		string(contents))
	contents, err = ioutil.ReadFile(alleleFractionFile)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "mean-bias")
}

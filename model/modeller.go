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
	"fmt"
	"log"

	"github.com/exascience/elsegment/allelefraction"
	"github.com/exascience/elsegment/copyratio"
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/mcmc"
)

// A CopyRatioFit exposes the posterior summaries of a fitted
// copy-ratio model.
type CopyRatioFit interface {
	SegmentMeansPosteriorSummaries() []mcmc.PosteriorSummary
	GlobalParameterPosteriorSummaries() []mcmc.Parameter
}

// An AlleleFractionFit exposes the posterior summaries of a fitted
// allele-fraction model.
type AlleleFractionFit interface {
	MinorAlleleFractionsPosteriorSummaries() []mcmc.PosteriorSummary
	GlobalParameterPosteriorSummaries() []mcmc.Parameter
}

// A CopyRatioEngine fits the copy-ratio model to the given copy
// ratios partitioned by the given segments. Engines are opaque to the
// modeller; tests inject stubs that return fixed summaries.
type CopyRatioEngine func(data *copyratio.Collection, segments []intervals.Interval, config SamplerConfig) (CopyRatioFit, error)

// An AlleleFractionEngine fits the allele-fraction model to the given
// allelic counts partitioned by the given segments.
type AlleleFractionEngine func(data *allelefraction.Collection, segments []intervals.Interval, prior *allelefraction.Prior, config SamplerConfig) (AlleleFractionFit, error)

// A SamplerConfig fixes the number of total samples and burn-in
// samples for one modality's Markov-chain Monte Carlo fit.
type SamplerConfig struct {
	NumSamples int
	NumBurnIn  int
}

// fitCopyRatioModel is the default copy-ratio engine.
func fitCopyRatioModel(data *copyratio.Collection, segments []intervals.Interval, config SamplerConfig) (CopyRatioFit, error) {
	modeller := copyratio.NewModeller(data, segments)
	if err := modeller.FitMCMC(config.NumSamples, config.NumBurnIn); err != nil {
		return nil, err
	}
	return modeller, nil
}

// fitAlleleFractionModel is the default allele-fraction engine.
func fitAlleleFractionModel(data *allelefraction.Collection, segments []intervals.Interval, prior *allelefraction.Prior, config SamplerConfig) (AlleleFractionFit, error) {
	modeller := allelefraction.NewModeller(data, segments, prior)
	if err := modeller.FitMCMC(config.NumSamples, config.NumBurnIn); err != nil {
		return nil, err
	}
	return modeller, nil
}

// modelState tracks whether the posterior summaries of the modeled
// segments are up to date with the current segmentation. Similar-
// segment merging without a following fit leaves the model stale.
type modelState int

const (
	modelStale modelState = iota
	modelFresh
)

// A Modeller holds the joint segmented model of copy ratios and
// allele fractions for one sample. It fits the two modality models
// over the current segmentation, aggregates their posterior
// summaries into modeled segments, and iteratively merges segments
// that are statistically indistinguishable in both modalities.
//
// A modeller is not safe for concurrent use; there is exactly one
// writer and no concurrent readers during mutation.
type Modeller struct {
	sampleName string

	denoisedCopyRatios        *copyratio.Collection
	copyRatioMidpointDetector *intervals.Detector
	allelicCounts             *allelefraction.Collection
	allelicCountDetector      *intervals.Detector
	prior                     *allelefraction.Prior

	copyRatioConfig      SamplerConfig
	alleleFractionConfig SamplerConfig

	copyRatioEngine      CopyRatioEngine
	alleleFractionEngine AlleleFractionEngine

	currentSegments []intervals.Interval
	modeledSegments []ModeledSegment

	copyRatioFit      CopyRatioFit
	alleleFractionFit AlleleFractionFit

	state modelState
}

// NewModeller validates the inputs, constructs a modeller, and
// performs the initial model fit over the given segmentation.
func NewModeller(segmentation *Segmentation,
	denoisedCopyRatios *copyratio.Collection,
	allelicCounts *allelefraction.Collection,
	prior *allelefraction.Prior,
	copyRatioConfig, alleleFractionConfig SamplerConfig) (*Modeller, error) {
	return newModeller(segmentation, denoisedCopyRatios, allelicCounts, prior,
		copyRatioConfig, alleleFractionConfig, fitCopyRatioModel, fitAlleleFractionModel)
}

// NewModellerWithEngines is NewModeller with the two fitting engines
// replaced. It exists so that the orchestration can be exercised with
// stub engines returning fixed summaries.
func NewModellerWithEngines(segmentation *Segmentation,
	denoisedCopyRatios *copyratio.Collection,
	allelicCounts *allelefraction.Collection,
	prior *allelefraction.Prior,
	copyRatioConfig, alleleFractionConfig SamplerConfig,
	copyRatioEngine CopyRatioEngine,
	alleleFractionEngine AlleleFractionEngine) (*Modeller, error) {
	return newModeller(segmentation, denoisedCopyRatios, allelicCounts, prior,
		copyRatioConfig, alleleFractionConfig, copyRatioEngine, alleleFractionEngine)
}

func newModeller(segmentation *Segmentation,
	denoisedCopyRatios *copyratio.Collection,
	allelicCounts *allelefraction.Collection,
	prior *allelefraction.Prior,
	copyRatioConfig, alleleFractionConfig SamplerConfig,
	copyRatioEngine CopyRatioEngine,
	alleleFractionEngine AlleleFractionEngine) (*Modeller, error) {
	if segmentation == nil || denoisedCopyRatios == nil || allelicCounts == nil || prior == nil {
		return nil, fmt.Errorf("segmentation, copy ratios, allelic counts, and prior must all be provided")
	}
	if segmentation.SampleName != denoisedCopyRatios.SampleName ||
		segmentation.SampleName != allelicCounts.SampleName {
		return nil, fmt.Errorf("sample names from all inputs must match: %v, %v, %v",
			segmentation.SampleName, denoisedCopyRatios.SampleName, allelicCounts.SampleName)
	}
	if len(segmentation.Segments) == 0 {
		return nil, fmt.Errorf("number of segments must be positive")
	}
	if err := intervals.CheckSorted(segmentation.Segments); err != nil {
		return nil, err
	}
	modeller := &Modeller{
		sampleName:                segmentation.SampleName,
		denoisedCopyRatios:        denoisedCopyRatios,
		copyRatioMidpointDetector: denoisedCopyRatios.MidpointDetector(),
		allelicCounts:             allelicCounts,
		allelicCountDetector:      allelicCounts.SiteDetector(),
		prior:                     prior,
		copyRatioConfig:           copyRatioConfig,
		alleleFractionConfig:      alleleFractionConfig,
		copyRatioEngine:           copyRatioEngine,
		alleleFractionEngine:      alleleFractionEngine,
		currentSegments:           segmentation.Segments,
	}
	log.Println("Fitting initial model...")
	if err := modeller.fitModel(); err != nil {
		return nil, err
	}
	return modeller, nil
}

// SampleName returns the sample the model was fit for.
func (modeller *Modeller) SampleName() string {
	return modeller.sampleName
}

// fitModel fits both modality models over the current segmentation
// and rebuilds the modeled segments from the posterior summaries.
// Nothing is updated unless both fits fully succeed: on error, the
// previous modeled segments remain authoritative.
func (modeller *Modeller) fitModel() error {
	log.Println("Fitting copy-ratio model...")
	copyRatioFit, err := modeller.copyRatioEngine(modeller.denoisedCopyRatios, modeller.currentSegments, modeller.copyRatioConfig)
	if err != nil {
		return err
	}
	log.Println("Fitting allele-fraction model...")
	alleleFractionFit, err := modeller.alleleFractionEngine(modeller.allelicCounts, modeller.currentSegments, modeller.prior, modeller.alleleFractionConfig)
	if err != nil {
		return err
	}

	// the summaries are produced and consumed in segment order
	segmentMeans := copyRatioFit.SegmentMeansPosteriorSummaries()
	minorAlleleFractions := alleleFractionFit.MinorAlleleFractionsPosteriorSummaries()
	if len(segmentMeans) != len(modeller.currentSegments) || len(minorAlleleFractions) != len(modeller.currentSegments) {
		return fmt.Errorf("fitted models returned %v and %v posterior summaries for %v segments",
			len(segmentMeans), len(minorAlleleFractions), len(modeller.currentSegments))
	}
	modeledSegments := make([]ModeledSegment, len(modeller.currentSegments))
	for index, segment := range modeller.currentSegments {
		numPointsCopyRatio := modeller.copyRatioMidpointDetector.CountOverlaps(segment)
		numPointsAlleleFraction := modeller.allelicCountDetector.CountOverlaps(segment)
		modeledSegment, err := NewModeledSegment(segment, numPointsCopyRatio, numPointsAlleleFraction,
			segmentMeans[index], minorAlleleFractions[index])
		if err != nil {
			return err
		}
		modeledSegments[index] = modeledSegment
	}

	modeller.modeledSegments = modeledSegments
	modeller.copyRatioFit = copyRatioFit
	modeller.alleleFractionFit = alleleFractionFit
	modeller.state = modelFresh
	return nil
}

// SmoothSegments performs up to maxIterations iterations of similar-
// segment merging over the modeled segments. When iterationsPerFit is
// positive, a full model refit is performed after every such number
// of iterations; otherwise the merged summaries are kept directly
// (posterior modes equal to posterior medians) and the model becomes
// stale. The iterations stop early when an iteration produces no
// merge. On return, the model is always completely fit.
func (modeller *Modeller) SmoothSegments(maxIterations, iterationsPerFit int,
	thresholdCopyRatio, thresholdAlleleFraction float64) error {
	if maxIterations < 0 {
		return fmt.Errorf("maximum number of smoothing iterations must be non-negative: %v", maxIterations)
	}
	if iterationsPerFit < 0 {
		return fmt.Errorf("number of smoothing iterations per fit must be non-negative: %v", iterationsPerFit)
	}
	if thresholdCopyRatio < 0 {
		return fmt.Errorf("copy-ratio credible-interval threshold for smoothing must be non-negative: %v", thresholdCopyRatio)
	}
	if thresholdAlleleFraction < 0 {
		return fmt.Errorf("allele-fraction credible-interval threshold for smoothing must be non-negative: %v", thresholdAlleleFraction)
	}
	log.Printf("Initial number of segments before smoothing: %d", len(modeller.modeledSegments))
	for iteration := 1; iteration <= maxIterations; iteration++ {
		log.Printf("Smoothing iteration: %d", iteration)
		previousNumSegments := len(modeller.modeledSegments)
		refit := iterationsPerFit > 0 && iteration%iterationsPerFit == 0
		if err := modeller.smoothingIteration(thresholdCopyRatio, thresholdAlleleFraction, refit); err != nil {
			return err
		}
		if len(modeller.modeledSegments) == previousNumSegments {
			break
		}
	}
	if modeller.state != modelFresh {
		// make sure the final model is completely fit, so that
		// posterior modes are properly specified
		if err := modeller.fitModel(); err != nil {
			return err
		}
	}
	log.Printf("Final number of segments after smoothing: %d", len(modeller.modeledSegments))
	return nil
}

// smoothingIteration performs one iteration of similar-segment
// merging, optionally followed by a full model refit.
func (modeller *Modeller) smoothingIteration(thresholdCopyRatio, thresholdAlleleFraction float64, refit bool) error {
	log.Println("Number of segments before smoothing iteration:", len(modeller.modeledSegments))
	mergedSegments, err := MergeSimilarSegments(modeller.modeledSegments, thresholdCopyRatio, thresholdAlleleFraction)
	if err != nil {
		return err
	}
	log.Println("Number of segments after smoothing iteration:", len(mergedSegments))
	currentSegments := make([]intervals.Interval, len(mergedSegments))
	for index, segment := range mergedSegments {
		currentSegments[index] = segment.Interval
	}
	modeller.currentSegments = currentSegments
	if refit {
		return modeller.fitModel()
	}
	modeller.modeledSegments = mergedSegments
	modeller.state = modelStale
	return nil
}

// ModeledSegments returns the current modeled segments. When the
// model is stale after merging, a full fit is performed first, so
// that approximated summaries never escape.
func (modeller *Modeller) ModeledSegments() ([]ModeledSegment, error) {
	if err := modeller.ensureModelIsFit(); err != nil {
		return nil, err
	}
	segments := make([]ModeledSegment, len(modeller.modeledSegments))
	copy(segments, modeller.modeledSegments)
	return segments, nil
}

// WriteModelParameterFiles writes the posterior summaries for the
// global model parameters of both modalities, one table per file.
// When the model is stale after merging, a full fit is performed
// first.
func (modeller *Modeller) WriteModelParameterFiles(copyRatioParameterFile, alleleFractionParameterFile string) error {
	if copyRatioParameterFile == "" || alleleFractionParameterFile == "" {
		return fmt.Errorf("parameter file names must be provided")
	}
	if err := modeller.ensureModelIsFit(); err != nil {
		return err
	}
	log.Println("Writing posterior summaries for copy-ratio global parameters to", copyRatioParameterFile)
	if err := mcmc.WriteParameters(copyRatioParameterFile, modeller.copyRatioFit.GlobalParameterPosteriorSummaries()); err != nil {
		return err
	}
	log.Println("Writing posterior summaries for allele-fraction global parameters to", alleleFractionParameterFile)
	return mcmc.WriteParameters(alleleFractionParameterFile, modeller.alleleFractionFit.GlobalParameterPosteriorSummaries())
}

func (modeller *Modeller) ensureModelIsFit() error {
	if modeller.state != modelFresh {
		log.Println("Model was not completely fit; performing model fit now.")
		return modeller.fitModel()
	}
	return nil
}

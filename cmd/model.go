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

package cmd

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/exascience/elsegment/allelefraction"
	"github.com/exascience/elsegment/model"
	"github.com/exascience/elsegment/tables"
)

// ModelHelp is the help string for the elsegment model command.
const ModelHelp = "model parameters:\n" +
	"elsegment model denoised-copy-ratios-file allelic-counts-file segments-file output-prefix\n" +
	"[--number-of-samples-copy-ratio nr]\n" +
	"[--number-of-burn-in-samples-copy-ratio nr]\n" +
	"[--number-of-samples-allele-fraction nr]\n" +
	"[--number-of-burn-in-samples-allele-fraction nr]\n" +
	"[--maximum-number-of-smoothing-iterations nr]\n" +
	"[--number-of-smoothing-iterations-per-fit nr]\n" +
	"[--smoothing-credible-interval-threshold-copy-ratio nr]\n" +
	"[--smoothing-credible-interval-threshold-allele-fraction nr]\n" +
	"[--minor-allele-fraction-prior-alpha nr]\n" +
	"[--nr-of-threads nr]\n" +
	"[--log-path path]\n"

// Model implements the elsegment model command.
func Model() error {
	var (
		numSamplesCopyRatio, numBurnInCopyRatio           int
		numSamplesAlleleFraction, numBurnInAlleleFraction int
		maxSmoothingIterations, smoothingIterationsPerFit int
		smoothingThresholdCopyRatio                       float64
		smoothingThresholdAlleleFraction                  float64
		minorAlleleFractionPriorAlpha                     float64
		nrOfThreads                                       int
		logPath                                           string
	)

	var flags flag.FlagSet

	flags.IntVar(&numSamplesCopyRatio, "number-of-samples-copy-ratio", 100, "total number of MCMC samples for the copy-ratio model")
	flags.IntVar(&numBurnInCopyRatio, "number-of-burn-in-samples-copy-ratio", 50, "number of burn-in samples for the copy-ratio model")
	flags.IntVar(&numSamplesAlleleFraction, "number-of-samples-allele-fraction", 100, "total number of MCMC samples for the allele-fraction model")
	flags.IntVar(&numBurnInAlleleFraction, "number-of-burn-in-samples-allele-fraction", 25, "number of burn-in samples for the allele-fraction model")
	flags.IntVar(&maxSmoothingIterations, "maximum-number-of-smoothing-iterations", 10, "maximum number of similar-segment merging iterations")
	flags.IntVar(&smoothingIterationsPerFit, "number-of-smoothing-iterations-per-fit", 0, "number of merging iterations between model refits; 0 disables refitting between iterations")
	flags.Float64Var(&smoothingThresholdCopyRatio, "smoothing-credible-interval-threshold-copy-ratio", 4.0, "number of copy-ratio credible-interval widths for segment similarity")
	flags.Float64Var(&smoothingThresholdAlleleFraction, "smoothing-credible-interval-threshold-allele-fraction", 2.0, "number of allele-fraction credible-interval widths for segment similarity")
	flags.Float64Var(&minorAlleleFractionPriorAlpha, "minor-allele-fraction-prior-alpha", allelefraction.DefaultMinorAlleleFractionPriorAlpha, "concentration of the minor-allele-fraction prior")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.StringVar(&logPath, "log-path", "", "write log files to this directory")

	if len(os.Args) < 6 {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, ModelHelp)
		os.Exit(1)
	}

	denoisedCopyRatiosFile := getFilename(os.Args[2], ModelHelp)
	allelicCountsFile := getFilename(os.Args[3], ModelHelp)
	segmentsFile := getFilename(os.Args[4], ModelHelp)
	outputPrefix := getFilename(os.Args[5], ModelHelp)

	if err := flags.Parse(os.Args[6:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, ModelHelp)
		os.Exit(x)
	}

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", denoisedCopyRatiosFile) {
		sanityChecksFailed = true
	}
	if !checkExist("", allelicCountsFile) {
		sanityChecksFailed = true
	}
	if !checkExist("", segmentsFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", outputPrefix+modeledSegmentsExtension) {
		sanityChecksFailed = true
	}

	if nrOfThreads < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ModelHelp)
		os.Exit(1)
	}

	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}

	denoisedCopyRatios, err := tables.ReadCopyRatios(denoisedCopyRatiosFile)
	if err != nil {
		return err
	}
	allelicCounts, err := tables.ReadAllelicCounts(allelicCountsFile)
	if err != nil {
		return err
	}
	segmentation, err := tables.ReadSegments(segmentsFile)
	if err != nil {
		return err
	}
	prior, err := allelefraction.NewPrior(minorAlleleFractionPriorAlpha)
	if err != nil {
		return err
	}

	modeller, err := model.NewModeller(segmentation, denoisedCopyRatios, allelicCounts, prior,
		model.SamplerConfig{NumSamples: numSamplesCopyRatio, NumBurnIn: numBurnInCopyRatio},
		model.SamplerConfig{NumSamples: numSamplesAlleleFraction, NumBurnIn: numBurnInAlleleFraction})
	if err != nil {
		return err
	}

	if err := modeller.SmoothSegments(maxSmoothingIterations, smoothingIterationsPerFit,
		smoothingThresholdCopyRatio, smoothingThresholdAlleleFraction); err != nil {
		return err
	}

	modeledSegments, err := modeller.ModeledSegments()
	if err != nil {
		return err
	}
	modeledSegmentsFile := outputPrefix + modeledSegmentsExtension
	log.Println("Writing modeled segments to", modeledSegmentsFile)
	if err := tables.WriteModeledSegments(modeledSegmentsFile, modeller.SampleName(), modeledSegments); err != nil {
		return err
	}
	return modeller.WriteModelParameterFiles(
		outputPrefix+copyRatioParametersExtension,
		outputPrefix+alleleFractionParametersExtension)
}

// Output file extensions of the elsegment model command.
const (
	modeledSegmentsExtension          = ".modeled.seg"
	copyRatioParametersExtension      = ".cr.param"
	alleleFractionParametersExtension = ".af.param"
)

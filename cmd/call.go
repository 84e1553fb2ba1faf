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

	"github.com/exascience/elsegment/caller"
	"github.com/exascience/elsegment/tables"
)

// CallHelp is the help string for the elsegment call command.
const CallHelp = "call parameters:\n" +
	"elsegment call denoised-copy-ratios-file modeled-segments-file output-file\n" +
	"[--log-path path]\n"

// Call implements the elsegment call command. It calls modeled
// segments as amplified, deleted, or copy-number neutral.
func Call() error {
	var logPath string

	var flags flag.FlagSet

	flags.StringVar(&logPath, "log-path", "", "write log files to this directory")

	if len(os.Args) < 5 {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(1)
	}

	denoisedCopyRatiosFile := getFilename(os.Args[2], CallHelp)
	modeledSegmentsFile := getFilename(os.Args[3], CallHelp)
	outputFile := getFilename(os.Args[4], CallHelp)

	if err := flags.Parse(os.Args[5:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(x)
	}

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", denoisedCopyRatiosFile) {
		sanityChecksFailed = true
	}
	if !checkExist("", modeledSegmentsFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", outputFile) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, CallHelp)
		os.Exit(1)
	}

	denoisedCopyRatios, err := tables.ReadCopyRatios(denoisedCopyRatiosFile)
	if err != nil {
		return err
	}
	sampleName, modeledSegments, err := tables.ReadModeledSegments(modeledSegmentsFile)
	if err != nil {
		return err
	}
	if sampleName != denoisedCopyRatios.SampleName {
		return fmt.Errorf("sample names from all inputs must match: %v, %v", denoisedCopyRatios.SampleName, sampleName)
	}

	calledSegments := caller.CallSegments(denoisedCopyRatios, modeledSegments)
	log.Println("Writing called segments to", outputFile)
	return tables.WriteCalledSegments(outputFile, sampleName, calledSegments)
}

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

package tables

import (
	"bufio"
	"fmt"
	"os"

	"github.com/exascience/elsegment/caller"
	"github.com/exascience/elsegment/internal"
	"github.com/exascience/elsegment/model"
)

// Column header lines of the output tables.
const (
	modeledSegmentHeader = "CONTIG\tSTART\tEND\tNUM_POINTS_COPY_RATIO\tNUM_POINTS_ALLELE_FRACTION\t" +
		"LOG2_COPY_RATIO_POSTERIOR_MODE\tLOG2_COPY_RATIO_POSTERIOR_MEDIAN\tLOG2_COPY_RATIO_POSTERIOR_10\tLOG2_COPY_RATIO_POSTERIOR_90\t" +
		"MINOR_ALLELE_FRACTION_POSTERIOR_MODE\tMINOR_ALLELE_FRACTION_POSTERIOR_MEDIAN\tMINOR_ALLELE_FRACTION_POSTERIOR_10\tMINOR_ALLELE_FRACTION_POSTERIOR_90"
	calledSegmentHeader = "CONTIG\tSTART\tEND\tNUM_POINTS_COPY_RATIO\tLOG2_COPY_RATIO_POSTERIOR_MEDIAN\tCALL"
)

// decimal format for posterior summary values in segment tables
const doubleFormat = "%6.6f"

func createTable(filename, sampleName, columnHeader string) (file *os.File, output *bufio.Writer, err error) {
	pathname, err := internal.FullPathname(filename)
	if err != nil {
		return nil, nil, err
	}
	file, err = os.Create(pathname)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create output file %v: %v", filename, err)
	}
	output = bufio.NewWriter(file)
	if _, err = fmt.Fprintln(output, sampleHeaderPrefix+sampleName); err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if _, err = fmt.Fprintln(output, columnHeader); err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return file, output, nil
}

// WriteModeledSegments writes a modeled-segment table.
func WriteModeledSegments(filename, sampleName string, segments []model.ModeledSegment) (err error) {
	file, output, err := createTable(filename, sampleName, modeledSegmentHeader)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	for _, segment := range segments {
		log2CopyRatio := segment.Log2CopyRatio
		minorAlleleFraction := segment.MinorAlleleFraction
		if _, err = fmt.Fprintf(output,
			"%v\t%v\t%v\t%v\t%v\t"+
				doubleFormat+"\t"+doubleFormat+"\t"+doubleFormat+"\t"+doubleFormat+"\t"+
				doubleFormat+"\t"+doubleFormat+"\t"+doubleFormat+"\t"+doubleFormat+"\n",
			*segment.Interval.Contig, segment.Interval.Start, segment.Interval.End,
			segment.NumPointsCopyRatio, segment.NumPointsAlleleFraction,
			log2CopyRatio.Mode, log2CopyRatio.Median, log2CopyRatio.Decile10, log2CopyRatio.Decile90,
			minorAlleleFraction.Mode, minorAlleleFraction.Median, minorAlleleFraction.Decile10, minorAlleleFraction.Decile90); err != nil {
			return err
		}
	}
	return output.Flush()
}

// WriteCalledSegments writes a called-segment table.
func WriteCalledSegments(filename, sampleName string, segments []caller.CalledSegment) (err error) {
	file, output, err := createTable(filename, sampleName, calledSegmentHeader)
	if err != nil {
		return err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	for _, segment := range segments {
		if _, err = fmt.Fprintf(output, "%v\t%v\t%v\t%v\t"+doubleFormat+"\t%v\n",
			*segment.Interval.Contig, segment.Interval.Start, segment.Interval.End,
			segment.NumPointsCopyRatio, segment.Log2CopyRatio.Median, segment.Call); err != nil {
			return err
		}
	}
	return output.Flush()
}

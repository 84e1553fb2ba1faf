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

// Package tables reads and writes the tab-separated tables that
// carry segmentations, denoised copy ratios, allelic counts, and
// modeled segments between tools.
package tables

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/elsegment/allelefraction"
	"github.com/exascience/elsegment/copyratio"
	"github.com/exascience/elsegment/internal"
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/mcmc"
	"github.com/exascience/elsegment/model"
	"github.com/exascience/elsegment/utils"
)

// The sample line that every elsegment table starts with.
const sampleHeaderPrefix = "#sample="

// Column header lines of the input tables.
const (
	copyRatioHeader    = "CONTIG\tSTART\tEND\tLOG2_COPY_RATIO"
	allelicCountHeader = "CONTIG\tPOSITION\tREF_COUNT\tALT_COUNT"
	segmentHeader      = "CONTIG\tSTART\tEND"
)

// openTable opens a table and consumes the sample line and the
// expected column header line.
func openTable(filename, columnHeader string) (file *os.File, input *bufio.Reader, sampleName string, err error) {
	pathname, err := internal.FullPathname(filename)
	if err != nil {
		return nil, nil, "", err
	}
	file, err = os.Open(pathname)
	if err != nil {
		return nil, nil, "", err
	}
	defer func() {
		if err != nil {
			_ = file.Close()
		}
	}()
	input = bufio.NewReader(file)
	sampleLine, err := input.ReadString('\n')
	if err != nil {
		return nil, nil, "", err
	}
	sampleLine = strings.TrimSuffix(sampleLine, "\n")
	if !strings.HasPrefix(sampleLine, sampleHeaderPrefix) {
		return nil, nil, "", fmt.Errorf("%v is not an elsegment table - missing %v line", filename, sampleHeaderPrefix)
	}
	sampleName = sampleLine[len(sampleHeaderPrefix):]
	header, err := input.ReadString('\n')
	if err != nil {
		return nil, nil, "", err
	}
	if strings.TrimSuffix(header, "\n") != columnHeader {
		return nil, nil, "", fmt.Errorf("%v has an invalid column header", filename)
	}
	return file, input, sampleName, nil
}

// ReadCopyRatios loads a denoised copy-ratio table.
func ReadCopyRatios(filename string) (collection *copyratio.Collection, err error) {
	file, input, sampleName, err := openTable(filename, copyRatioHeader)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	var copyRatios []copyratio.CopyRatio
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		batch := make([]copyratio.CopyRatio, 0, len(strs))
		for _, str := range strs {
			fields := strings.Split(str, "\t")
			if len(fields) != 4 {
				p.SetErr(fmt.Errorf("invalid copy-ratio line %v", str))
				return batch
			}
			batch = append(batch, copyratio.CopyRatio{
				Interval: intervals.Interval{
					Contig: utils.Intern(fields[0]),
					Start:  int32(internal.ParseInt(fields[1], 10, 32)),
					End:    int32(internal.ParseInt(fields[2], 10, 32)),
				},
				Log2Ratio: internal.ParseFloat(fields[3], 64),
			})
		}
		return batch
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		copyRatios = append(copyRatios, data.([]copyratio.CopyRatio)...)
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return copyratio.NewCollection(sampleName, copyRatios), nil
}

// ReadAllelicCounts loads an allelic-count table.
func ReadAllelicCounts(filename string) (collection *allelefraction.Collection, err error) {
	file, input, sampleName, err := openTable(filename, allelicCountHeader)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	var allelicCounts []allelefraction.AllelicCount
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		batch := make([]allelefraction.AllelicCount, 0, len(strs))
		for _, str := range strs {
			fields := strings.Split(str, "\t")
			if len(fields) != 4 {
				p.SetErr(fmt.Errorf("invalid allelic-count line %v", str))
				return batch
			}
			position := int32(internal.ParseInt(fields[1], 10, 32))
			batch = append(batch, allelefraction.AllelicCount{
				Interval: intervals.Interval{
					Contig: utils.Intern(fields[0]),
					Start:  position,
					End:    position,
				},
				RefCount: int32(internal.ParseInt(fields[2], 10, 32)),
				AltCount: int32(internal.ParseInt(fields[3], 10, 32)),
			})
		}
		return batch
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		allelicCounts = append(allelicCounts, data.([]allelefraction.AllelicCount)...)
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return allelefraction.NewCollection(sampleName, allelicCounts), nil
}

// parsePosteriorValue parses a posterior summary value. NaN entries
// come out space-padded because of the minimum field width in the
// writer's format.
func parsePosteriorValue(field string) float64 {
	return internal.ParseFloat(strings.TrimSpace(field), 64)
}

// ReadModeledSegments loads a modeled-segment table, as written by
// WriteModeledSegments.
func ReadModeledSegments(filename string) (sampleName string, segments []model.ModeledSegment, err error) {
	file, input, sampleName, err := openTable(filename, modeledSegmentHeader)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		batch := make([]model.ModeledSegment, 0, len(strs))
		for _, str := range strs {
			fields := strings.Split(str, "\t")
			if len(fields) != 13 {
				p.SetErr(fmt.Errorf("invalid modeled-segment line %v", str))
				return batch
			}
			interval := intervals.Interval{
				Contig: utils.Intern(fields[0]),
				Start:  int32(internal.ParseInt(fields[1], 10, 32)),
				End:    int32(internal.ParseInt(fields[2], 10, 32)),
			}
			segment, err := model.NewModeledSegment(interval,
				int(internal.ParseInt(fields[3], 10, 64)),
				int(internal.ParseInt(fields[4], 10, 64)),
				mcmc.PosteriorSummary{
					Mode:     parsePosteriorValue(fields[5]),
					Median:   parsePosteriorValue(fields[6]),
					Decile10: parsePosteriorValue(fields[7]),
					Decile90: parsePosteriorValue(fields[8]),
				},
				mcmc.PosteriorSummary{
					Mode:     parsePosteriorValue(fields[9]),
					Median:   parsePosteriorValue(fields[10]),
					Decile10: parsePosteriorValue(fields[11]),
					Decile90: parsePosteriorValue(fields[12]),
				})
			if err != nil {
				p.SetErr(err)
				return batch
			}
			batch = append(batch, segment)
		}
		return batch
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		segments = append(segments, data.([]model.ModeledSegment)...)
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return "", nil, err
	}
	return sampleName, segments, nil
}

// ReadSegments loads a segmentation table.
func ReadSegments(filename string) (segmentation *model.Segmentation, err error) {
	file, input, sampleName, err := openTable(filename, segmentHeader)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	var segments []intervals.Interval
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(input))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		strs := data.([]string)
		batch := make([]intervals.Interval, 0, len(strs))
		for _, str := range strs {
			fields := strings.Split(str, "\t")
			if len(fields) != 3 {
				p.SetErr(fmt.Errorf("invalid segment line %v", str))
				return batch
			}
			batch = append(batch, intervals.Interval{
				Contig: utils.Intern(fields[0]),
				Start:  int32(internal.ParseInt(fields[1], 10, 32)),
				End:    int32(internal.ParseInt(fields[2], 10, 32)),
			})
		}
		return batch
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		segments = append(segments, data.([]intervals.Interval)...)
		return data
	})))
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	return &model.Segmentation{SampleName: sampleName, Segments: segments}, nil
}

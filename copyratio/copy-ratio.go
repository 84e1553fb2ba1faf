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

// Package copyratio models denoised log2 copy ratios over a
// segmentation of the genome.
package copyratio

import (
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/utils"
)

// A CopyRatio is a denoised log2 copy-ratio value for one genomic
// interval. A copy ratio overlaps a segment when its midpoint falls
// inside the segment.
type CopyRatio struct {
	Interval  intervals.Interval
	Log2Ratio float64
}

// A Collection holds the denoised copy ratios for one sample.
type Collection struct {
	SampleName string
	CopyRatios []CopyRatio
}

// NewCollection returns a collection of copy ratios for a sample.
func NewCollection(sampleName string, copyRatios []CopyRatio) *Collection {
	return &Collection{SampleName: sampleName, CopyRatios: copyRatios}
}

// MidpointDetector returns a detector over the midpoints of the
// copy-ratio intervals, for counting and fetching the copy ratios
// whose midpoints fall inside a segment.
func (collection *Collection) MidpointDetector() *intervals.Detector {
	contigs := make([]utils.Symbol, len(collection.CopyRatios))
	positions := make([]int32, len(collection.CopyRatios))
	for i, copyRatio := range collection.CopyRatios {
		contigs[i] = copyRatio.Interval.Contig
		positions[i] = copyRatio.Interval.Midpoint()
	}
	return intervals.NewDetector(contigs, positions)
}

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

// Package allelefraction models minor-allele fractions at
// heterozygous sites over a segmentation of the genome.
package allelefraction

import (
	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/utils"
)

// An AllelicCount holds the reference and alternate read counts
// observed at one heterozygous site.
type AllelicCount struct {
	Interval intervals.Interval
	RefCount int32
	AltCount int32
}

// A Collection holds the allelic counts for one sample.
type Collection struct {
	SampleName    string
	AllelicCounts []AllelicCount
}

// NewCollection returns a collection of allelic counts for a sample.
func NewCollection(sampleName string, allelicCounts []AllelicCount) *Collection {
	return &Collection{SampleName: sampleName, AllelicCounts: allelicCounts}
}

// SiteDetector returns a detector over the site positions, for
// counting and fetching the allelic counts that overlap a segment.
func (collection *Collection) SiteDetector() *intervals.Detector {
	contigs := make([]utils.Symbol, len(collection.AllelicCounts))
	positions := make([]int32, len(collection.AllelicCounts))
	for i, count := range collection.AllelicCounts {
		contigs[i] = count.Interval.Contig
		positions[i] = count.Interval.Start
	}
	return intervals.NewDetector(contigs, positions)
}

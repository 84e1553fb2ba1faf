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

package intervals

import (
	"sort"

	"github.com/exascience/elsegment/utils"
)

// A Detector indexes a set of genomic point positions so that the
// points overlapping an interval can be counted or enumerated with
// binary searches. The index in the original point slice is retained
// so that callers can map back to their own records.
type Detector struct {
	positions map[utils.Symbol][]point
}

type point struct {
	position int32
	index    int
}

// NewDetector builds a detector for the given positions. The contig
// and position for point i are taken from contigs[i] and positions[i].
// The points do not need to be sorted.
func NewDetector(contigs []utils.Symbol, positions []int32) *Detector {
	detector := &Detector{positions: make(map[utils.Symbol][]point)}
	for i, contig := range contigs {
		detector.positions[contig] = append(detector.positions[contig], point{position: positions[i], index: i})
	}
	for _, points := range detector.positions {
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].position < points[j].position
		})
	}
	return detector
}

func (detector *Detector) overlapRange(interval Interval) (points []point, left, right int) {
	points = detector.positions[interval.Contig]
	n := len(points)
	left = sort.Search(n, func(i int) bool {
		return points[i].position >= interval.Start
	})
	right = sort.Search(n, func(i int) bool {
		return points[i].position > interval.End
	})
	return points, left, right
}

// CountOverlaps returns the number of points that fall inside the
// given interval.
func (detector *Detector) CountOverlaps(interval Interval) int {
	_, left, right := detector.overlapRange(interval)
	return right - left
}

// Overlaps returns the indices of the points that fall inside the
// given interval, in ascending position order.
func (detector *Detector) Overlaps(interval Interval) []int {
	points, left, right := detector.overlapRange(interval)
	indices := make([]int, 0, right-left)
	for i := left; i < right; i++ {
		indices = append(indices, points[i].index)
	}
	return indices
}

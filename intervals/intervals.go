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
	"fmt"

	"github.com/exascience/elsegment/utils"
)

// An Interval is a genomic interval on a single contig, with
// inclusive Start and End positions. Start <= End must hold.
type Interval struct {
	Contig     utils.Symbol
	Start, End int32
}

func (interval Interval) String() string {
	return fmt.Sprintf("%v:%v-%v", *interval.Contig, interval.Start, interval.End)
}

// Overlaps determines whether two intervals overlap. Intervals on
// different contigs never overlap.
func (interval Interval) Overlaps(other Interval) bool {
	return interval.Contig == other.Contig &&
		interval.Start <= other.End && other.Start <= interval.End
}

// Contains determines whether the given position on the given contig
// falls inside the interval.
func (interval Interval) Contains(contig utils.Symbol, position int32) bool {
	return interval.Contig == contig &&
		interval.Start <= position && position <= interval.End
}

// Midpoint returns the midpoint of the interval, rounding down.
func (interval Interval) Midpoint() int32 {
	return interval.Start + (interval.End-interval.Start)/2
}

// Merge merges two intervals on the same contig into one interval
// spanning both. Merging intervals on different contigs is an error.
func Merge(interval1, interval2 Interval) (Interval, error) {
	if interval1.Contig != interval2.Contig {
		return Interval{}, fmt.Errorf("cannot join segments %v and %v on different contigs", interval1, interval2)
	}
	start := interval1.Start
	if interval2.Start < start {
		start = interval2.Start
	}
	end := interval1.End
	if interval2.End > end {
		end = interval2.End
	}
	return Interval{Contig: interval1.Contig, Start: start, End: end}, nil
}

// CheckSorted checks that the given intervals are valid segments:
// every interval has Start <= End, and intervals on the same contig
// appear in ascending order without overlaps. Contigs must be grouped,
// but no order between different contigs is assumed beyond input order.
func CheckSorted(intervals []Interval) error {
	seen := make(map[utils.Symbol]bool)
	for i, interval := range intervals {
		if interval.Start > interval.End {
			return fmt.Errorf("invalid segment %v: start after end", interval)
		}
		if i > 0 && intervals[i-1].Contig == interval.Contig {
			if interval.Start <= intervals[i-1].End {
				return fmt.Errorf("segments %v and %v overlap or are out of order", intervals[i-1], interval)
			}
		} else if seen[interval.Contig] {
			return fmt.Errorf("segments for contig %v are not grouped together", *interval.Contig)
		}
		seen[interval.Contig] = true
	}
	return nil
}

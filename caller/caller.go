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

// Package caller calls modeled segments as amplified, deleted, or
// copy-number neutral.
package caller

import (
	"log"
	"math"

	"github.com/exascience/elsegment/copyratio"
	"github.com/exascience/elsegment/model"
)

// A Call classifies a segment's copy-ratio level.
type Call string

// The possible segment calls.
const (
	Amplified Call = "+"
	Deleted   Call = "-"
	Neutral   Call = "0"
)

// A CalledSegment is a modeled segment together with its call.
type CalledSegment struct {
	model.ModeledSegment
	Call Call
}

const (
	// segments with |median log2 copy ratio| below this cutoff seed
	// the estimate of the copy-neutral noise level
	copyNeutralCutoff = 0.1

	// number of copy-neutral standard deviations beyond which a
	// segment is called amplified or deleted
	callThreshold = 2.0
)

// CallSegments calls each modeled segment as amplified, deleted, or
// copy-number neutral. The noise level is the standard deviation of
// the non-log2 copy ratios of all points in segments whose median
// log2 copy ratio is within the copy-neutral cutoff of zero; a
// segment is called when its non-log2 median deviates from 1 by more
// than two such standard deviations.
func CallSegments(denoisedCopyRatios *copyratio.Collection, segments []model.ModeledSegment) []CalledSegment {
	detector := denoisedCopyRatios.MidpointDetector()

	// collect the non-log2 copy ratios in copy-neutral segments
	var neutralValues []float64
	for _, segment := range segments {
		if math.Abs(segment.Log2CopyRatio.Median) < copyNeutralCutoff {
			for _, index := range detector.Overlaps(segment.Interval) {
				neutralValues = append(neutralValues, math.Exp2(denoisedCopyRatios.CopyRatios[index].Log2Ratio))
			}
		}
	}
	standardDeviation := populationStandardDeviation(neutralValues)
	log.Printf("Copy-neutral standard deviation estimated from %d points: %v", len(neutralValues), standardDeviation)

	calledSegments := make([]CalledSegment, len(segments))
	for i, segment := range segments {
		call := Neutral
		if !segment.Log2CopyRatio.IsNaN() {
			level := math.Exp2(segment.Log2CopyRatio.Median)
			switch {
			case level > 1+callThreshold*standardDeviation:
				call = Amplified
			case level < 1-callThreshold*standardDeviation:
				call = Deleted
			}
		}
		calledSegments[i] = CalledSegment{ModeledSegment: segment, Call: call}
	}
	return calledSegments
}

func populationStandardDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, value := range values {
		sum += value
	}
	mean := sum / float64(len(values))
	var squares float64
	for _, value := range values {
		squares += (value - mean) * (value - mean)
	}
	return math.Sqrt(squares / float64(len(values)))
}

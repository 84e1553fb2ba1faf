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
	"math"

	"github.com/exascience/elsegment/intervals"
	"github.com/exascience/elsegment/mcmc"
)

// MergeSimilarSegments returns a new list of segments with adjacent
// same-contig segments that are similar in both modalities merged.
// The list is traversed once from beginning to end; after a merge,
// the merged segment is compared against its new right neighbor
// before the traversal advances. The input list is not modified.
//
// Two posterior summaries are similar if the difference between
// their medians is less than the threshold times the credible
// interval width of either summary; a summary without data (NaN
// median) is similar to anything.
func MergeSimilarSegments(segments []ModeledSegment, thresholdCopyRatio, thresholdAlleleFraction float64) ([]ModeledSegment, error) {
	merged := make([]ModeledSegment, len(segments))
	copy(merged, segments)
	for index := 0; index < len(merged)-1; index++ {
		segment1 := merged[index]
		segment2 := merged[index+1]
		if segment1.Interval.Contig == segment2.Interval.Contig &&
			similarSegments(segment1, segment2, thresholdCopyRatio, thresholdAlleleFraction) {
			segment, err := mergeSegments(segment1, segment2)
			if err != nil {
				return nil, err
			}
			merged[index] = segment
			merged = append(merged[:index+1], merged[index+2:]...)
			// stay on the merged segment during the next iteration
			index--
		}
	}
	return merged, nil
}

func similarSegments(segment1, segment2 ModeledSegment, thresholdCopyRatio, thresholdAlleleFraction float64) bool {
	return similarSummaries(segment1.Log2CopyRatio, segment2.Log2CopyRatio, thresholdCopyRatio) &&
		similarSummaries(segment1.MinorAlleleFraction, segment2.MinorAlleleFraction, thresholdAlleleFraction)
}

// similarSummaries checks similarity of two posterior summaries to
// within a credible-interval threshold. Either summary's own credible
// interval width can justify the similarity.
func similarSummaries(summary1, summary2 mcmc.PosteriorSummary, threshold float64) bool {
	if summary1.IsNaN() || summary2.IsNaN() {
		return true
	}
	difference := math.Abs(summary1.Median - summary2.Median)
	return difference < threshold*summary1.Width() ||
		difference < threshold*summary2.Width()
}

func mergeSegments(segment1, segment2 ModeledSegment) (ModeledSegment, error) {
	interval, err := intervals.Merge(segment1.Interval, segment2.Interval)
	if err != nil {
		return ModeledSegment{}, err
	}
	return NewModeledSegment(interval,
		segment1.NumPointsCopyRatio+segment2.NumPointsCopyRatio,
		segment1.NumPointsAlleleFraction+segment2.NumPointsAlleleFraction,
		mergeSummaries(segment1.Log2CopyRatio, segment2.Log2CopyRatio),
		mergeSummaries(segment1.MinorAlleleFraction, segment2.MinorAlleleFraction))
}

// mergeSummaries combines two posterior summaries by approximating
// the posteriors as normal distributions with standard deviation half
// the credible interval width and taking the inverse-variance
// weighted combination. When only one summary carries data, that
// summary is kept verbatim. The combination is an approximation; the
// exact summaries are restored by the next full model fit.
func mergeSummaries(summary1, summary2 mcmc.PosteriorSummary) mcmc.PosteriorSummary {
	if summary1.IsNaN() && !summary2.IsNaN() {
		return summary2
	}
	if summary2.IsNaN() {
		return summary1
	}
	standardDeviation1 := summary1.Width() / 2
	standardDeviation2 := summary2.Width() / 2
	variance := 1 / (1/(standardDeviation1*standardDeviation1) + 1/(standardDeviation2*standardDeviation2))
	mean := (summary1.Median/(standardDeviation1*standardDeviation1) +
		summary2.Median/(standardDeviation2*standardDeviation2)) * variance
	standardDeviation := math.Sqrt(variance)
	// the combined mean stands in for the mode until the next fit
	return mcmc.PosteriorSummary{
		Mode:     mean,
		Median:   mean,
		Decile10: mean - standardDeviation,
		Decile90: mean + standardDeviation,
	}
}

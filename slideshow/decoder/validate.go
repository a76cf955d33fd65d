// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package decoder

import (
	"fmt"

	"github.com/slideopt/slideshow/mip/mipmodel"
	"github.com/slideopt/slideshow/slideshow/photo"
	"github.com/slideopt/slideshow/slideshow/slidemodel"
)

// Validate re-checks a solution against the dataset: single use of every photo, weighted
// occupancy of 2 on used slides and 0 elsewhere, used slides forming a prefix, slide tags
// equal to the union of the occupants' tags, and pair scores against the minimum of their
// three transition counts. Under MinEncodingNative the pair score must equal the minimum;
// under MinEncodingUpperBound it must not exceed it. The first violation is returned as an
// *InconsistencyError.
func Validate(ds *photo.Dataset, sc *slidemodel.Schema, r *mipmodel.Response, enc slidemodel.MinEncoding) error {
	if !r.HasSolution() {
		return ErrNoSolution
	}
	val := func(la mipmodel.LinearArgument) int64 { return mipmodel.SolutionIntegerValue(r, la) }
	fail := func(check string, slide int, format string, a ...any) error {
		return &InconsistencyError{Check: check, Slide: slide, Detail: fmt.Sprintf(format, a...)}
	}

	for i := range sc.Assign {
		n := int64(0)
		for s := range sc.Assign[i] {
			n += val(sc.Assign[i][s][0]) + val(sc.Assign[i][s][1])
		}
		if n > 1 {
			return fail("single use", -1, "photo %d is placed %d times", i, n)
		}
	}

	// tags[s][t] is recomputed from the incidence matrix.
	tags := make([][]int64, sc.SMax)
	for s := 0; s < sc.SMax; s++ {
		used := val(sc.Used[s])
		if s > 0 && used > val(sc.Used[s-1]) {
			return fail("prefix usage", s, "slide is used after an unused slide")
		}
		load := int64(0)
		tags[s] = make([]int64, sc.T)
		for i, p := range ds.Photos {
			placed := val(sc.Assign[i][s][0]) + val(sc.Assign[i][s][1])
			load += p.Weight() * placed
			if placed == 0 {
				continue
			}
			for t := 0; t < sc.T; t++ {
				if ds.HasTag(i, t) {
					tags[s][t] = 1
				}
			}
		}
		if load != 2*used {
			return fail("orientation capacity", s, "weighted load %d with used=%d", load, used)
		}
		for t := 0; t < sc.T; t++ {
			if got := val(sc.SlideTag[s][t]); got != tags[s][t] {
				return fail("slide tags", s, "slide_tag[%d] = %d, occupants give %d", t, got, tags[s][t])
			}
		}
	}

	for s := 0; s < sc.NumPairs(); s++ {
		nextUsed := val(sc.Used[s+1])
		var common, left, right int64
		for t := 0; t < sc.T; t++ {
			a, b := tags[s][t], tags[s+1][t]
			common += a * b
			left += a * (1 - b) * nextUsed
			right += (1 - a) * b
		}
		got, limit := val(sc.PairScore[s]), min(common, left, right)
		if got > limit {
			return fail("pair score", s, "pair_score = %d exceeds min(%d, %d, %d)", got, common, left, right)
		}
		if enc == slidemodel.MinEncodingNative && got != limit {
			return fail("pair score", s, "pair_score = %d, want min(%d, %d, %d)", got, common, left, right)
		}
	}
	return nil
}

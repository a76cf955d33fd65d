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

package slidemodel

import (
	"fmt"

	"github.com/slideopt/slideshow/mip/mipmodel"
)

// Schema holds every variable of a slideshow model. Slides are indexed by s in [0, SMax),
// consecutive pairs (s, s+1) by s in [0, NumPairs()).
type Schema struct {
	N, T, SMax int

	// Assign[i][s][p] is 1 when photo i sits at position p of slide s.
	Assign [][][2]mipmodel.BoolVar
	// SlideTag[s][t] is 1 when some photo of slide s carries tag t.
	SlideTag [][]mipmodel.BoolVar
	// Used[s] is 1 when slide s holds a photo.
	Used []mipmodel.BoolVar

	// Common[s][t] is SlideTag[s][t] AND SlideTag[s+1][t].
	Common [][]mipmodel.BoolVar
	// OnlyLeft[s][t] is SlideTag[s][t] AND NOT SlideTag[s+1][t] AND Used[s+1].
	OnlyLeft [][]mipmodel.BoolVar
	// OnlyRight[s][t] is NOT SlideTag[s][t] AND SlideTag[s+1][t].
	OnlyRight [][]mipmodel.BoolVar

	CommonTotal []mipmodel.IntVar
	LeftTotal   []mipmodel.IntVar
	RightTotal  []mipmodel.IntVar
	// PairScore[s] is the interest factor of slides s and s+1.
	PairScore []mipmodel.IntVar
}

// NumPairs returns the number of consecutive slide pairs.
func (sc *Schema) NumPairs() int {
	return max(sc.SMax-1, 0)
}

// NewSchema allocates the variables for `n` photos, `t` tags and `sMax` slides in `b`. It
// posts no constraint. Placement variables come first so that an engine branching in index
// order decides placements before derived quantities.
func NewSchema(b *mipmodel.Builder, n, t, sMax int) *Schema {
	sc := &Schema{N: n, T: t, SMax: sMax}
	pairs := sc.NumPairs()

	sc.Assign = make([][][2]mipmodel.BoolVar, n)
	for i := range sc.Assign {
		sc.Assign[i] = make([][2]mipmodel.BoolVar, sMax)
		for s := 0; s < sMax; s++ {
			for p := 0; p < 2; p++ {
				sc.Assign[i][s][p] = b.NewBoolVar().WithName(fmt.Sprintf("assign_%d_%d_%d", i, s, p))
			}
		}
	}

	sc.SlideTag = boolMatrix(b, "slide_tag", sMax, t)

	sc.Used = make([]mipmodel.BoolVar, sMax)
	for s := range sc.Used {
		sc.Used[s] = b.NewBoolVar().WithName(fmt.Sprintf("used_%d", s))
	}

	sc.Common = boolMatrix(b, "common", pairs, t)
	sc.OnlyLeft = boolMatrix(b, "only_left", pairs, t)
	sc.OnlyRight = boolMatrix(b, "only_right", pairs, t)

	sc.CommonTotal = intVector(b, "common_total", pairs, int64(t))
	sc.LeftTotal = intVector(b, "left_total", pairs, int64(t))
	sc.RightTotal = intVector(b, "right_total", pairs, int64(t))
	sc.PairScore = intVector(b, "pair_score", pairs, int64(t))

	return sc
}

func boolMatrix(b *mipmodel.Builder, name string, rows, cols int) [][]mipmodel.BoolVar {
	m := make([][]mipmodel.BoolVar, rows)
	for r := range m {
		m[r] = make([]mipmodel.BoolVar, cols)
		for c := range m[r] {
			m[r][c] = b.NewBoolVar().WithName(fmt.Sprintf("%s_%d_%d", name, r, c))
		}
	}
	return m
}

func intVector(b *mipmodel.Builder, name string, n int, ub int64) []mipmodel.IntVar {
	v := make([]mipmodel.IntVar, n)
	for k := range v {
		v[k] = b.NewIntVar(0, ub).WithName(fmt.Sprintf("%s_%d", name, k))
	}
	return v
}

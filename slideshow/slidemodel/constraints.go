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
	"github.com/slideopt/slideshow/slideshow/photo"
)

type constraintBuilder struct {
	b  *mipmodel.Builder
	ds *photo.Dataset
	sc *Schema
}

// slideSum returns the number of photos on slide s.
func (cb *constraintBuilder) slideSum(s int) *mipmodel.LinearExpr {
	e := mipmodel.NewLinearExpr()
	for i := range cb.sc.Assign {
		e.AddSum(cb.sc.Assign[i][s][0], cb.sc.Assign[i][s][1])
	}
	return e
}

// tagContribution returns the number of photos carrying tag t at position p of slide s.
func (cb *constraintBuilder) tagContribution(s, p, t int) *mipmodel.LinearExpr {
	e := mipmodel.NewLinearExpr()
	for i := range cb.sc.Assign {
		if cb.ds.HasTag(i, t) {
			e.Add(cb.sc.Assign[i][s][p])
		}
	}
	return e
}

func (cb *constraintBuilder) postSingleUse() {
	for i, slides := range cb.sc.Assign {
		var vars []mipmodel.BoolVar
		for _, pos := range slides {
			vars = append(vars, pos[0], pos[1])
		}
		cb.b.AddAtMostOne(vars...).WithName(fmt.Sprintf("single_use_%d", i))
	}
}

func (cb *constraintBuilder) postMonotoneUsage() {
	for s := 0; s < cb.sc.NumPairs(); s++ {
		cb.b.AddGreaterOrEqual(cb.sc.Used[s], cb.sc.Used[s+1]).WithName(fmt.Sprintf("monotone_usage_%d", s))
	}
}

func (cb *constraintBuilder) postUsageOccupancy() {
	for s, used := range cb.sc.Used {
		cb.b.AddGreaterOrEqual(mipmodel.NewLinearExpr().AddTerm(used, 2), cb.slideSum(s)).
			WithName(fmt.Sprintf("used_if_occupied_%d", s))
		cb.b.AddLessOrEqual(used, cb.slideSum(s)).
			WithName(fmt.Sprintf("occupied_if_used_%d", s))
	}
}

func (cb *constraintBuilder) postSlideTags() {
	for s, row := range cb.sc.SlideTag {
		for t, st := range row {
			left := cb.tagContribution(s, 0, t)
			right := cb.tagContribution(s, 1, t)
			cb.b.AddGreaterOrEqual(st, left).WithName(fmt.Sprintf("slide_tag_left_%d_%d", s, t))
			cb.b.AddGreaterOrEqual(st, right).WithName(fmt.Sprintf("slide_tag_right_%d_%d", s, t))
			cb.b.AddLessOrEqual(st, mipmodel.NewLinearExpr().AddSum(left, right)).
				WithName(fmt.Sprintf("slide_tag_union_%d_%d", s, t))
		}
	}
}

// postOrientationCapacity makes the weighted occupancy of a slide 2 when it is used and 0
// otherwise: one horizontal photo, or two vertical ones.
func (cb *constraintBuilder) postOrientationCapacity() {
	for s, used := range cb.sc.Used {
		load := mipmodel.NewLinearExpr()
		for i, p := range cb.ds.Photos {
			load.AddTerm(cb.sc.Assign[i][s][0], p.Weight()).AddTerm(cb.sc.Assign[i][s][1], p.Weight())
		}
		cb.b.AddEquality(load, mipmodel.NewLinearExpr().AddTerm(used, 2)).
			WithName(fmt.Sprintf("orientation_capacity_%d", s))
	}
}

func (cb *constraintBuilder) postExclusiveSlots() {
	for s := 0; s < cb.sc.SMax; s++ {
		for p := 0; p < 2; p++ {
			vars := make([]mipmodel.BoolVar, 0, cb.sc.N)
			for i := range cb.sc.Assign {
				vars = append(vars, cb.sc.Assign[i][s][p])
			}
			cb.b.AddAtMostOne(vars...).WithName(fmt.Sprintf("exclusive_slot_%d_%d", s, p))
		}
	}
}

// postPairLinearization ties the per-tag helpers of each slide pair to the slide tags.
func (cb *constraintBuilder) postPairLinearization() {
	sc := cb.sc
	for s := 0; s < sc.NumPairs(); s++ {
		nextUsed := sc.Used[s+1]
		for t := 0; t < sc.T; t++ {
			a, b := sc.SlideTag[s][t], sc.SlideTag[s+1][t]
			name := func(kind string) string { return fmt.Sprintf("%s_%d_%d", kind, s, t) }

			common := sc.Common[s][t]
			cb.b.AddLessOrEqual(common, a).WithName(name("common_le_left"))
			cb.b.AddLessOrEqual(common, b).WithName(name("common_le_right"))
			cb.b.AddGreaterOrEqual(common, mipmodel.NewLinearExpr().AddSum(a, b).AddConstant(-1)).
				WithName(name("common_ge"))

			onlyLeft := sc.OnlyLeft[s][t]
			cb.b.AddLessOrEqual(onlyLeft, a).WithName(name("only_left_le_left"))
			cb.b.AddLessOrEqual(onlyLeft, b.Not()).WithName(name("only_left_le_not_right"))
			cb.b.AddLessOrEqual(onlyLeft, nextUsed).WithName(name("only_left_le_used"))
			cb.b.AddGreaterOrEqual(onlyLeft, mipmodel.NewLinearExpr().Add(a).AddTerm(b, -1).Add(nextUsed).AddConstant(-1)).
				WithName(name("only_left_ge"))

			onlyRight := sc.OnlyRight[s][t]
			cb.b.AddLessOrEqual(onlyRight, a.Not()).WithName(name("only_right_le_not_left"))
			cb.b.AddLessOrEqual(onlyRight, b).WithName(name("only_right_le_right"))
			cb.b.AddGreaterOrEqual(onlyRight, mipmodel.NewLinearExpr().Add(b).AddTerm(a, -1)).
				WithName(name("only_right_ge"))
		}
	}
}

func (cb *constraintBuilder) postTotals() {
	sc := cb.sc
	total := func(vars []mipmodel.BoolVar) *mipmodel.LinearExpr {
		e := mipmodel.NewLinearExpr()
		for _, v := range vars {
			e.Add(v)
		}
		return e
	}
	for s := 0; s < sc.NumPairs(); s++ {
		cb.b.AddEquality(sc.CommonTotal[s], total(sc.Common[s])).WithName(fmt.Sprintf("common_total_%d", s))
		cb.b.AddEquality(sc.LeftTotal[s], total(sc.OnlyLeft[s])).WithName(fmt.Sprintf("left_total_%d", s))
		cb.b.AddEquality(sc.RightTotal[s], total(sc.OnlyRight[s])).WithName(fmt.Sprintf("right_total_%d", s))
	}
}

func (cb *constraintBuilder) postPairScores(enc MinEncoding) {
	sc := cb.sc
	for s := 0; s < sc.NumPairs(); s++ {
		score := sc.PairScore[s]
		totals := []mipmodel.IntVar{sc.CommonTotal[s], sc.LeftTotal[s], sc.RightTotal[s]}
		if enc == MinEncodingUpperBound {
			for k, total := range totals {
				cb.b.AddLessOrEqual(score, total).WithName(fmt.Sprintf("pair_score_le_%d_%d", s, k))
			}
			continue
		}
		cb.b.AddMinEquality(score, totals[0], totals[1], totals[2]).WithName(fmt.Sprintf("pair_score_%d", s))
	}
}

func (cb *constraintBuilder) postNonEmpty() {
	if cb.sc.SMax == 0 {
		return
	}
	cb.b.AddEquality(cb.sc.Used[0], mipmodel.NewConstant(1)).WithName("non_empty")
}

func (cb *constraintBuilder) postObjective() {
	obj := mipmodel.NewLinearExpr()
	for _, score := range cb.sc.PairScore {
		obj.Add(score)
	}
	cb.b.Maximize(obj)
}

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

package mipmodel

import (
	"fmt"
	"math"
	"sort"
)

// ClosedInterval stores the closed interval `[start,end]`. If the `Start` is greater
// than the `End`, the interval is considered empty.
type ClosedInterval struct {
	Start int64
	End   int64
}

// saturatedAdd returns `i + delta` clamped to [MinInt64, MaxInt64]. The two extreme values
// stand for unbounded sides and are returned unchanged.
func saturatedAdd(i, delta int64) int64 {
	if i == math.MinInt64 || i == math.MaxInt64 {
		return i
	}

	s := i + delta
	if delta < 0 && s > i {
		return math.MinInt64
	}
	if delta > 0 && s < i {
		return math.MaxInt64
	}

	return s
}

// Offset shifts both bounds of `c` by `delta`. Unbounded sides stay unbounded.
func (c ClosedInterval) Offset(delta int64) ClosedInterval {
	return ClosedInterval{saturatedAdd(c.Start, delta), saturatedAdd(c.End, delta)}
}

// Domain is a sorted list of disjoint, non-adjacent ClosedIntervals. It is the set of values a
// variable may take.
type Domain struct {
	intervals []ClosedInterval
}

// normalize drops empty intervals, sorts the rest and merges those that overlap or touch.
func (d *Domain) normalize() {
	var itvs []ClosedInterval
	for _, v := range d.intervals {
		if v.Start <= v.End {
			itvs = append(itvs, v)
		}
	}
	d.intervals = itvs
	if len(d.intervals) == 0 {
		return
	}
	sort.Slice(d.intervals, func(i, j int) bool {
		if d.intervals[i].Start != d.intervals[j].Start {
			return d.intervals[i].Start < d.intervals[j].Start
		}
		return d.intervals[i].End < d.intervals[j].End
	})
	merged := []ClosedInterval{d.intervals[0]}
	for _, next := range d.intervals[1:] {
		last := &merged[len(merged)-1]
		if saturatedAdd(last.End, 1) >= next.Start {
			if last.End < next.End {
				last.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	d.intervals = merged
}

// NewEmptyDomain creates an empty Domain.
func NewEmptyDomain() Domain {
	return Domain{}
}

// NewSingleDomain creates a new singleton domain `[val]`.
func NewSingleDomain(val int64) Domain {
	return Domain{[]ClosedInterval{{val, val}}}
}

// NewDomain creates a new domain of a single interval `[left,right]`.
// If `left > right`, an empty domain is returned.
func NewDomain(left, right int64) Domain {
	if left > right {
		return NewEmptyDomain()
	}
	return Domain{[]ClosedInterval{{left, right}}}
}

// FromValues creates a new domain from `values`, which need not be sorted or unique.
func FromValues(values []int64) Domain {
	var d Domain
	for _, v := range values {
		d.intervals = append(d.intervals, ClosedInterval{v, v})
	}
	d.normalize()
	return d
}

// FromIntervals creates a domain from the union of `intervals`.
func FromIntervals(intervals []ClosedInterval) Domain {
	itvs := make([]ClosedInterval, len(intervals))
	copy(itvs, intervals)
	d := Domain{itvs}
	d.normalize()
	return d
}

// FromFlatIntervals creates a new domain from a flattened list of interval bounds, as returned
// by FlattenedIntervals. Returns an error if the length of `values` is odd.
func FromFlatIntervals(values []int64) (Domain, error) {
	if len(values) == 0 {
		return NewEmptyDomain(), nil
	}
	if len(values)%2 != 0 {
		return NewEmptyDomain(), fmt.Errorf("len(values)=%v must be a multiple of 2", len(values))
	}
	var intervals []ClosedInterval
	for i := 1; i < len(values); i += 2 {
		intervals = append(intervals, ClosedInterval{values[i-1], values[i]})
	}
	d := Domain{intervals}
	d.normalize()
	return d, nil
}

// FlattenedIntervals returns the flattened list of interval bounds of the domain.
// For example `[0,2][5,5][9,10]` is returned as `[0,2,5,5,9,10]`.
func (d Domain) FlattenedIntervals() []int64 {
	var result []int64
	for _, i := range d.intervals {
		result = append(result, i.Start, i.End)
	}
	return result
}

// Min returns the minimum value of the domain, and false if the domain is empty.
func (d Domain) Min() (int64, bool) {
	if len(d.intervals) == 0 {
		return 0, false
	}
	return d.intervals[0].Start, true
}

// Max returns the maximum value of the domain, and false if the domain is empty.
func (d Domain) Max() (int64, bool) {
	if len(d.intervals) == 0 {
		return 0, false
	}
	return d.intervals[len(d.intervals)-1].End, true
}

// Contains reports whether `v` belongs to the domain.
func (d Domain) Contains(v int64) bool {
	i := sort.Search(len(d.intervals), func(i int) bool { return d.intervals[i].End >= v })
	return i < len(d.intervals) && d.intervals[i].Start <= v
}

// ceil returns the smallest value of the domain that is >= v.
func (d Domain) ceil(v int64) (int64, bool) {
	i := sort.Search(len(d.intervals), func(i int) bool { return d.intervals[i].End >= v })
	if i == len(d.intervals) {
		return 0, false
	}
	if d.intervals[i].Start > v {
		return d.intervals[i].Start, true
	}
	return v, true
}

// floor returns the largest value of the domain that is <= v.
func (d Domain) floor(v int64) (int64, bool) {
	i := sort.Search(len(d.intervals), func(i int) bool { return d.intervals[i].Start > v })
	if i == 0 {
		return 0, false
	}
	if d.intervals[i-1].End < v {
		return d.intervals[i-1].End, true
	}
	return v, true
}

// String returns the domain as `[a,b][c,d]`.
func (d Domain) String() string {
	s := ""
	for _, i := range d.intervals {
		if i.Start == i.End {
			s += fmt.Sprintf("[%d]", i.Start)
			continue
		}
		s += fmt.Sprintf("[%d,%d]", i.Start, i.End)
	}
	return s
}

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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var domainOpts = cmp.AllowUnexported(Domain{}, ClosedInterval{})

func TestDomain_NewSingleDomain(t *testing.T) {
	got := NewSingleDomain(-1)
	want := Domain{[]ClosedInterval{{-1, -1}}}

	if diff := cmp.Diff(want, got, domainOpts); diff != "" {
		t.Errorf("NewSingleDomain(-1) returned with unexpected diff (-want+got);\n%s", diff)
	}
}

func TestDomain_NewDomain(t *testing.T) {
	testCases := []struct {
		left  int64
		right int64
		want  Domain
	}{
		{
			left:  -5,
			right: 10,
			want:  Domain{[]ClosedInterval{{-5, 10}}},
		},
		{
			left:  10,
			right: -1,
			want:  Domain{},
		},
	}

	for _, test := range testCases {
		got := NewDomain(test.left, test.right)
		if diff := cmp.Diff(test.want, got, domainOpts); diff != "" {
			t.Errorf("NewDomain(%v, %v) returned with unexpected diff (-want+got);\n%s", test.left, test.right, diff)
		}
	}
}

func TestDomain_FromValues(t *testing.T) {
	testCases := []struct {
		values []int64
		want   Domain
	}{
		{
			values: []int64{},
			want:   Domain{},
		},
		{
			values: []int64{0, 1, 1, 0},
			want:   Domain{[]ClosedInterval{{0, 1}}},
		},
		{
			values: []int64{2, 0, 7, 6},
			want:   Domain{[]ClosedInterval{{0, 0}, {2, 2}, {6, 7}}},
		},
	}

	for _, test := range testCases {
		got := FromValues(test.values)
		if diff := cmp.Diff(test.want, got, domainOpts); diff != "" {
			t.Errorf("FromValues(%v) returned with unexpected diff (-want+got);\n%s", test.values, diff)
		}
	}
}

func TestDomain_FromIntervals(t *testing.T) {
	testCases := []struct {
		intervals []ClosedInterval
		want      Domain
	}{
		{
			intervals: []ClosedInterval{{0, 1}, {0, 10}, {-4, -2}},
			want:      Domain{[]ClosedInterval{{-4, -2}, {0, 10}}},
		},
		{
			intervals: []ClosedInterval{{0, 3}, {4, 6}},
			want:      Domain{[]ClosedInterval{{0, 6}}},
		},
		{
			intervals: []ClosedInterval{{0, 10}, {11, 5}},
			want:      Domain{[]ClosedInterval{{0, 10}}},
		},
		{
			intervals: []ClosedInterval{{math.MinInt64, 0}, {1, math.MaxInt64}},
			want:      Domain{[]ClosedInterval{{math.MinInt64, math.MaxInt64}}},
		},
	}

	for _, test := range testCases {
		got := FromIntervals(test.intervals)
		if diff := cmp.Diff(test.want, got, domainOpts); diff != "" {
			t.Errorf("FromIntervals(%v) returned with unexpected diff (-want+got);\n%s", test.intervals, diff)
		}
	}
}

func TestDomain_FromFlatIntervals(t *testing.T) {
	got, err := FromFlatIntervals([]int64{5, 8, 0, 2})
	if err != nil {
		t.Fatalf("FromFlatIntervals() returned with unexpected error %v", err)
	}
	want := Domain{[]ClosedInterval{{0, 2}, {5, 8}}}
	if diff := cmp.Diff(want, got, domainOpts); diff != "" {
		t.Errorf("FromFlatIntervals() returned with unexpected diff (-want+got);\n%s", diff)
	}
	if got := got.FlattenedIntervals(); !cmp.Equal(got, []int64{0, 2, 5, 8}) {
		t.Errorf("FlattenedIntervals() = %v, want %v", got, []int64{0, 2, 5, 8})
	}

	if _, err := FromFlatIntervals([]int64{1, 2, 3}); err == nil {
		t.Errorf("FromFlatIntervals() with odd length returned nil error")
	}
}

func TestDomain_MinMax(t *testing.T) {
	d := FromValues([]int64{3, -2, 9})
	if got, ok := d.Min(); !ok || got != -2 {
		t.Errorf("Min() = %v, %v, want -2, true", got, ok)
	}
	if got, ok := d.Max(); !ok || got != 9 {
		t.Errorf("Max() = %v, %v, want 9, true", got, ok)
	}
	if _, ok := NewEmptyDomain().Min(); ok {
		t.Errorf("NewEmptyDomain().Min() returned ok")
	}
	if _, ok := NewEmptyDomain().Max(); ok {
		t.Errorf("NewEmptyDomain().Max() returned ok")
	}
}

func TestDomain_CeilFloor(t *testing.T) {
	d := FromIntervals([]ClosedInterval{{0, 2}, {5, 8}})
	testCases := []struct {
		v         int64
		wantCeil  int64
		ceilOK    bool
		wantFloor int64
		floorOK   bool
	}{
		{v: -1, wantCeil: 0, ceilOK: true, floorOK: false},
		{v: 1, wantCeil: 1, ceilOK: true, wantFloor: 1, floorOK: true},
		{v: 3, wantCeil: 5, ceilOK: true, wantFloor: 2, floorOK: true},
		{v: 9, ceilOK: false, wantFloor: 8, floorOK: true},
	}

	for _, test := range testCases {
		if got, ok := d.ceil(test.v); ok != test.ceilOK || (ok && got != test.wantCeil) {
			t.Errorf("ceil(%v) = %v, %v, want %v, %v", test.v, got, ok, test.wantCeil, test.ceilOK)
		}
		if got, ok := d.floor(test.v); ok != test.floorOK || (ok && got != test.wantFloor) {
			t.Errorf("floor(%v) = %v, %v, want %v, %v", test.v, got, ok, test.wantFloor, test.floorOK)
		}
	}
	if d.Contains(4) {
		t.Errorf("Contains(4) = true, want false")
	}
	if !d.Contains(5) {
		t.Errorf("Contains(5) = false, want true")
	}
}

func TestDomain_String(t *testing.T) {
	d := FromIntervals([]ClosedInterval{{0, 2}, {5, 5}, {9, 10}})
	if got, want := d.String(), "[0,2][5][9,10]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestClosedInterval_Offset(t *testing.T) {
	testCases := []struct {
		itv   ClosedInterval
		delta int64
		want  ClosedInterval
	}{
		{itv: ClosedInterval{0, 4}, delta: -3, want: ClosedInterval{-3, 1}},
		{itv: ClosedInterval{math.MinInt64, 2}, delta: 5, want: ClosedInterval{math.MinInt64, 7}},
		{itv: ClosedInterval{1, math.MaxInt64}, delta: -1, want: ClosedInterval{0, math.MaxInt64}},
		{itv: ClosedInterval{math.MaxInt64 - 1, math.MaxInt64 - 1}, delta: 10, want: ClosedInterval{math.MaxInt64, math.MaxInt64}},
	}

	for _, test := range testCases {
		if got := test.itv.Offset(test.delta); got != test.want {
			t.Errorf("%v.Offset(%v) = %v, want %v", test.itv, test.delta, got, test.want)
		}
	}
}

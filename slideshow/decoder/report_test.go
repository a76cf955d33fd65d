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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/slideopt/slideshow/mip/mipmodel"
)

func TestNewReport(t *testing.T) {
	res := &mipmodel.Response{
		Status:             mipmodel.StatusFeasible,
		Termination:        mipmodel.TerminationCallback,
		ObjectiveValue:     4,
		BestObjectiveBound: 6,
		Solution:           []int64{1},
		WallTime:           1500 * time.Millisecond,
	}
	show := Slideshow{Slides: []Slide{{Photos: []int{2}}, {Photos: []int{0, 1}}}}

	r := NewReport("a_example.txt", res, true, show)
	if _, err := uuid.Parse(r.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", r.RunID, err)
	}
	r.RunID = "run"

	want := &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":           structpb.NewStringValue("run"),
		"dataset":          structpb.NewStringValue("a_example.txt"),
		"status":           structpb.NewStringValue("FEASIBLE"),
		"termination":      structpb.NewStringValue(mipmodel.TerminationCallback.String()),
		"objective":        structpb.NewNumberValue(4),
		"bound":            structpb.NewNumberValue(6),
		"gap":              structpb.NewNumberValue(0.5),
		"stall_terminated": structpb.NewBoolValue(true),
		"wall_time_s":      structpb.NewNumberValue(1.5),
		"num_slides":       structpb.NewNumberValue(2),
		"slides": structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
			structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{structpb.NewNumberValue(2)}}),
			structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{structpb.NewNumberValue(0), structpb.NewNumberValue(1)}}),
		}}),
	}}
	if diff := cmp.Diff(want, r.Struct(), protocmp.Transform()); diff != "" {
		t.Errorf("Struct() returned unexpected diff (-want+got):\n%v", diff)
	}
}

func TestReport_NonFiniteGap(t *testing.T) {
	r := &Report{RunID: "run", Status: mipmodel.StatusFeasible, Objective: 0, Bound: 3, Gap: (&mipmodel.Response{}).RelativeGap()}

	got := r.Struct().GetFields()["gap"]
	if diff := cmp.Diff(structpb.NewNullValue(), got, protocmp.Transform()); diff != "" {
		t.Errorf("gap returned unexpected diff (-want+got):\n%v", diff)
	}
	if _, err := r.MarshalJSON(); err != nil {
		t.Errorf("MarshalJSON() returned with unexpected error %v", err)
	}
}

func TestReport_WriteFile(t *testing.T) {
	r := &Report{
		RunID:   "run",
		Dataset: "b.txt",
		Status:  mipmodel.StatusOptimal,
		Slides:  Slideshow{Slides: []Slide{{Photos: []int{0}}}},
	}
	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() returned with unexpected error %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile() returned with unexpected error %v", err)
	}
	got := &structpb.Struct{}
	if err := protojson.Unmarshal(b, got); err != nil {
		t.Fatalf("protojson.Unmarshal() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(r.Struct(), got, protocmp.Transform()); diff != "" {
		t.Errorf("written report returned unexpected diff (-want+got):\n%v", diff)
	}
}

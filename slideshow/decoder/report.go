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
	"math"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/slideopt/slideshow/mip/mipmodel"
)

// Report summarizes one solve.
type Report struct {
	RunID           string
	Dataset         string
	Status          mipmodel.Status
	Termination     mipmodel.Termination
	Objective       float64
	Bound           float64
	Gap             float64
	StallTerminated bool
	WallTime        time.Duration
	Slides          Slideshow
}

// NewReport returns the report of a solve of `dataset` with a fresh run id.
func NewReport(dataset string, r *mipmodel.Response, stallTerminated bool, show Slideshow) *Report {
	return &Report{
		RunID:           uuid.NewString(),
		Dataset:         dataset,
		Status:          r.Status,
		Termination:     r.Termination,
		Objective:       r.ObjectiveValue,
		Bound:           r.BestObjectiveBound,
		Gap:             r.RelativeGap(),
		StallTerminated: stallTerminated,
		WallTime:        r.WallTime,
		Slides:          show,
	}
}

// number encodes non-finite values as null, which JSON cannot carry as numbers.
func number(v float64) *structpb.Value {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return structpb.NewNullValue()
	}
	return structpb.NewNumberValue(v)
}

// Struct returns the report as a protobuf Struct.
func (r *Report) Struct() *structpb.Struct {
	slides := make([]*structpb.Value, len(r.Slides.Slides))
	for i, slide := range r.Slides.Slides {
		photos := make([]*structpb.Value, len(slide.Photos))
		for j, p := range slide.Photos {
			photos[j] = structpb.NewNumberValue(float64(p))
		}
		slides[i] = structpb.NewListValue(&structpb.ListValue{Values: photos})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":           structpb.NewStringValue(r.RunID),
		"dataset":          structpb.NewStringValue(r.Dataset),
		"status":           structpb.NewStringValue(r.Status.String()),
		"termination":      structpb.NewStringValue(r.Termination.String()),
		"objective":        number(r.Objective),
		"bound":            number(r.Bound),
		"gap":              number(r.Gap),
		"stall_terminated": structpb.NewBoolValue(r.StallTerminated),
		"wall_time_s":      number(r.WallTime.Seconds()),
		"num_slides":       structpb.NewNumberValue(float64(r.Slides.Len())),
		"slides":           structpb.NewListValue(&structpb.ListValue{Values: slides}),
	}}
}

// MarshalJSON implements json.Marshaler.
func (r *Report) MarshalJSON() ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(r.Struct())
}

// WriteFile writes the JSON report to `path`.
func (r *Report) WriteFile(path string) error {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding solve report: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing solve report: %w", err)
	}
	log.Infof("wrote solve report %s to %s", r.RunID, path)
	return nil
}

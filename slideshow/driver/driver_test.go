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

package driver

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/proto"

	"github.com/slideopt/slideshow/mip/mipmodel"
	"github.com/slideopt/slideshow/slideshow/photo"
	"github.com/slideopt/slideshow/slideshow/slidemodel"
)

const chain = `3
H 2 a b
H 2 b c
H 2 c d
`

func mustModel(t *testing.T, input string) *slidemodel.Model {
	t.Helper()
	ds, err := photo.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("photo.Parse() returned with unexpected error %v", err)
	}
	m, err := slidemodel.Build(ds, slidemodel.DefaultOptions())
	if err != nil {
		t.Fatalf("slidemodel.Build() returned with unexpected error %v", err)
	}
	return m
}

func mipProgress(elapsed time.Duration, obj, bound float64) mipmodel.Progress {
	return mipmodel.Progress{
		Phase:         mipmodel.PhaseMIP,
		SolutionCount: 1,
		BestObjective: obj,
		BestBound:     bound,
		Elapsed:       elapsed,
	}
}

func TestStallDetector_Observe(t *testing.T) {
	d := NewStallDetector(DefaultGapEpsilon, 10*time.Second)

	steps := []struct {
		name string
		p    mipmodel.Progress
		want bool
	}{
		{name: "FirstGapIsRecorded", p: mipProgress(0, 10, 20), want: false},
		{name: "WithinThreshold", p: mipProgress(5*time.Second, 10, 20), want: false},
		{name: "AtThreshold", p: mipProgress(10*time.Second, 10, 20), want: false},
		{name: "PastThreshold", p: mipProgress(11*time.Second, 10, 20), want: true},
		{name: "OnlyOnce", p: mipProgress(12*time.Second, 10, 20), want: false},
	}
	for _, step := range steps {
		if got := d.Observe(step.p); got != step.want {
			t.Errorf("%s: Observe() = %v, want %v", step.name, got, step.want)
		}
	}
	if !d.Terminated() {
		t.Errorf("Terminated() = false, want true")
	}
	if got, want := d.LastGap(), 1.0; got != want {
		t.Errorf("LastGap() = %v, want %v", got, want)
	}
}

func TestStallDetector_GapChangeResetsTheClock(t *testing.T) {
	d := NewStallDetector(DefaultGapEpsilon, 10*time.Second)

	seq := []mipmodel.Progress{
		mipProgress(0, 10, 20),
		mipProgress(8*time.Second, 10, 20),
		mipProgress(9*time.Second, 10, 15),
		mipProgress(18*time.Second, 10, 15),
		// A change smaller than epsilon does not count.
		mipProgress(19*time.Second, 10, 15.0000001),
	}
	for i, p := range seq {
		if d.Observe(p) {
			t.Fatalf("Observe(seq[%d]) = true, want false", i)
		}
	}
	if !d.Observe(mipProgress(20*time.Second, 10, 15)) {
		t.Errorf("Observe() after 11s without gap change = false, want true")
	}
}

func TestStallDetector_IgnoredReports(t *testing.T) {
	testCases := []struct {
		name string
		p    mipmodel.Progress
	}{
		{
			name: "NewIncumbentPhase",
			p:    mipmodel.Progress{Phase: mipmodel.PhaseMIPSol, SolutionCount: 1, BestObjective: 10, BestBound: 20, Elapsed: time.Hour},
		},
		{
			name: "NoSolution",
			p:    mipmodel.Progress{Phase: mipmodel.PhaseMIP, BestObjective: math.Inf(-1), BestBound: 20, Elapsed: time.Hour},
		},
		{
			name: "ZeroObjective",
			p:    mipmodel.Progress{Phase: mipmodel.PhaseMIP, SolutionCount: 1, BestBound: 20, Elapsed: time.Hour},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			d := NewStallDetector(DefaultGapEpsilon, time.Second)
			for i := 0; i < 3; i++ {
				if d.Observe(test.p) {
					t.Fatalf("Observe() = true, want false")
				}
			}
			if got := d.LastGap(); !math.IsInf(got, 1) {
				t.Errorf("LastGap() = %v, want +Inf", got)
			}
		})
	}
}

// fakeEngine replays progress reports and returns a canned response.
type fakeEngine struct {
	reports []mipmodel.Progress
	res     *mipmodel.Response
	err     error

	gotParams *mipmodel.Parameters
}

func (f *fakeEngine) Solve(_ *mipmodel.MipModel, params *mipmodel.Parameters, _ <-chan struct{}, cb mipmodel.ProgressCallback) (*mipmodel.Response, error) {
	f.gotParams = params
	for _, p := range f.reports {
		cb(p)
	}
	return f.res, f.err
}

func TestDriver_StallTerminates(t *testing.T) {
	engine := &fakeEngine{
		reports: []mipmodel.Progress{
			mipProgress(0, 40, 60),
			mipProgress(30*time.Minute, 40, 60),
			mipProgress(61*time.Minute, 40, 60),
		},
		res: &mipmodel.Response{
			Status:             mipmodel.StatusFeasible,
			Termination:        mipmodel.TerminationCallback,
			ObjectiveValue:     40,
			BestObjectiveBound: 60,
			Solution:           []int64{0},
			SolutionCount:      1,
		},
	}
	var seen int
	opts := DefaultOptions()
	opts.OnProgress = func(mipmodel.Progress) { seen++ }

	got, err := New(engine, opts).Solve(context.Background(), mustModel(t, chain))
	if err != nil {
		t.Fatalf("Solve() returned with unexpected error %v", err)
	}
	if !got.StallTerminated {
		t.Errorf("StallTerminated = false, want true")
	}
	if got.Gap != 0.5 {
		t.Errorf("Gap = %v, want 0.5", got.Gap)
	}
	if seen != len(engine.reports) {
		t.Errorf("OnProgress called %d times, want %d", seen, len(engine.reports))
	}
	wantParams := &mipmodel.Parameters{
		BestObjectiveStop: proto.Float64(DefaultObjectiveStop),
		LogSearchProgress: proto.Bool(false),
	}
	if diff := cmp.Diff(wantParams, engine.gotParams); diff != "" {
		t.Errorf("engine parameters returned unexpected diff (-want+got):\n%v", diff)
	}
}

func TestDriver_Parameters(t *testing.T) {
	d := New(nil, Options{
		ObjectiveStop:    -1,
		TimeLimit:        90 * time.Second,
		ProgressInterval: 50,
		LogProgress:      true,
	})
	want := &mipmodel.Parameters{
		MaxTimeInSeconds:      proto.Float64(90),
		ProgressIntervalNodes: proto.Int64(50),
		LogSearchProgress:     proto.Bool(true),
	}
	if diff := cmp.Diff(want, d.parameters()); diff != "" {
		t.Errorf("parameters() returned unexpected diff (-want+got):\n%v", diff)
	}
	if _, ok := d.Engine.(LocalEngine); !ok {
		t.Errorf("New(nil, ...).Engine = %T, want LocalEngine", d.Engine)
	}
}

func TestDriver_Outcomes(t *testing.T) {
	testCases := []struct {
		name    string
		res     *mipmodel.Response
		wantErr error
	}{
		{
			name:    "Infeasible",
			res:     &mipmodel.Response{Status: mipmodel.StatusInfeasible},
			wantErr: ErrInfeasible,
		},
		{
			name:    "Unbounded",
			res:     &mipmodel.Response{Status: mipmodel.StatusUnbounded},
			wantErr: ErrUnbounded,
		},
		{
			name:    "Invalid",
			res:     &mipmodel.Response{Status: mipmodel.StatusModelInvalid},
			wantErr: ErrInvalidModel,
		},
		{
			name:    "NoIncumbent",
			res:     &mipmodel.Response{Status: mipmodel.StatusUnknown, Termination: mipmodel.TerminationTimeLimit},
			wantErr: ErrNoIncumbent,
		},
		{
			name:    "FeasibleWithoutSolution",
			res:     &mipmodel.Response{Status: mipmodel.StatusFeasible},
			wantErr: ErrNoIncumbent,
		},
	}

	m := mustModel(t, chain)
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(&fakeEngine{res: test.res}, DefaultOptions()).Solve(context.Background(), m)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("Solve() returned %v, want %v", err, test.wantErr)
			}
			var oe *OutcomeError
			if !errors.As(err, &oe) {
				t.Fatalf("Solve() returned %T, want *OutcomeError", err)
			}
			if oe.Status != test.res.Status {
				t.Errorf("OutcomeError.Status = %v, want %v", oe.Status, test.res.Status)
			}
		})
	}
}

func TestDriver_EngineError(t *testing.T) {
	wantErr := errors.New("engine down")
	_, err := New(&fakeEngine{err: wantErr}, DefaultOptions()).Solve(context.Background(), mustModel(t, chain))
	if !errors.Is(err, wantErr) {
		t.Errorf("Solve() returned %v, want %v", err, wantErr)
	}
}

func TestDriver_ObjectiveStop(t *testing.T) {
	opts := DefaultOptions()
	opts.ObjectiveStop = 1

	got, err := New(LocalEngine{}, opts).Solve(context.Background(), mustModel(t, chain))
	if err != nil {
		t.Fatalf("Solve() returned with unexpected error %v", err)
	}
	if got.Response.Termination != mipmodel.TerminationObjectiveStop {
		t.Errorf("Termination = %v, want %v", got.Response.Termination, mipmodel.TerminationObjectiveStop)
	}
	if got.Response.ObjectiveValue < 1 {
		t.Errorf("ObjectiveValue = %v, want >= 1", got.Response.ObjectiveValue)
	}
	if got.StallTerminated {
		t.Errorf("StallTerminated = true, want false")
	}
}

func TestDriver_SolveToOptimality(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantObj float64
	}{
		{name: "Chain", input: chain, wantObj: 2},
		{name: "DisjointHorizontal", input: "2\nH 1 a\nH 1 b\n", wantObj: 0},
		{name: "FourVertical", input: "4\nV 2 a b\nV 2 a b\nV 2 a b\nV 2 a b\n", wantObj: 0},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got, err := New(nil, DefaultOptions()).Solve(context.Background(), mustModel(t, test.input))
			if err != nil {
				t.Fatalf("Solve() returned with unexpected error %v", err)
			}
			if got.Response.Status != mipmodel.StatusOptimal {
				t.Errorf("Status = %v, want %v", got.Response.Status, mipmodel.StatusOptimal)
			}
			if got.Response.ObjectiveValue != test.wantObj {
				t.Errorf("ObjectiveValue = %v, want %v", got.Response.ObjectiveValue, test.wantObj)
			}
		})
	}
}

func TestDriver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, DefaultOptions()).Solve(ctx, mustModel(t, chain))
	if !errors.Is(err, ErrNoIncumbent) {
		t.Fatalf("Solve() returned %v, want %v", err, ErrNoIncumbent)
	}
	var oe *OutcomeError
	if errors.As(err, &oe) && oe.Termination != mipmodel.TerminationInterrupted {
		t.Errorf("OutcomeError.Termination = %v, want %v", oe.Termination, mipmodel.TerminationInterrupted)
	}
}

func TestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf)
	s.Observe(mipmodel.Progress{Phase: mipmodel.PhaseMIPSol, SolutionCount: 1, BestObjective: 3, BestBound: 5, NodeCount: 12})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() returned with unexpected error %v", err)
	}
	if buf.Len() == 0 {
		t.Errorf("spinner wrote nothing")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("terminal closed") }

func TestSpinner_WriteErrors(t *testing.T) {
	s := NewSpinner(failingWriter{})
	for i := int64(1); i <= 3; i++ {
		s.Observe(mipmodel.Progress{Phase: mipmodel.PhaseMIPSol, SolutionCount: int(i), NodeCount: 10 * i})
	}
	// Rendering errors are logged by Observe and returned by Close; the search is unaffected.
	_ = s.Close()

	res, err := New(nil, Options{ObjectiveStop: -1, StallThreshold: time.Hour, OnProgress: NewSpinner(failingWriter{}).Observe}).
		Solve(context.Background(), mustModel(t, "2\nH 1 a\nH 1 b\n"))
	if err != nil {
		t.Fatalf("Solve() returned with unexpected error %v", err)
	}
	if res.Response.Status != mipmodel.StatusOptimal {
		t.Errorf("Status = %v, want %v", res.Response.Status, mipmodel.StatusOptimal)
	}
}

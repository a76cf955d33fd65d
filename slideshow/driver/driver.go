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

// Package driver solves a slideshow model: it sets the objective stop, watches the search
// progress for a stalled optimality gap and maps the engine outcome to a result or an error.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"google.golang.org/protobuf/proto"

	"github.com/slideopt/slideshow/mip/mipmodel"
	"github.com/slideopt/slideshow/slideshow/slidemodel"
)

const (
	// DefaultGapEpsilon is the smallest gap change that counts as progress.
	DefaultGapEpsilon = 1e-4
	// DefaultStallThreshold is how long the gap may stay flat before the search is stopped.
	DefaultStallThreshold = time.Hour
	// DefaultObjectiveStop stops the search as soon as an incumbent reaches it.
	DefaultObjectiveStop = 82.0
)

var (
	// ErrInfeasible is wrapped by OutcomeError when the model has no solution.
	ErrInfeasible = errors.New("model is infeasible")
	// ErrUnbounded is wrapped by OutcomeError when the objective is unbounded.
	ErrUnbounded = errors.New("model is unbounded")
	// ErrInvalidModel is wrapped by OutcomeError when the engine rejects the model.
	ErrInvalidModel = errors.New("engine rejected the model")
	// ErrNoIncumbent is wrapped by OutcomeError when the search stopped before any solution.
	ErrNoIncumbent = errors.New("search stopped without a solution")
)

// OutcomeError reports a solve that produced no usable solution.
type OutcomeError struct {
	Status      mipmodel.Status
	Termination mipmodel.Termination
	Err         error
}

func (e *OutcomeError) Error() string {
	return fmt.Sprintf("solver outcome %v (%v): %v", e.Status, e.Termination, e.Err)
}

func (e *OutcomeError) Unwrap() error {
	return e.Err
}

// Engine solves a MipModel. Implementations call `cb` synchronously from their search loop
// and stop soon after `interrupt` is closed or Progress.Terminate is called.
type Engine interface {
	Solve(m *mipmodel.MipModel, params *mipmodel.Parameters, interrupt <-chan struct{}, cb mipmodel.ProgressCallback) (*mipmodel.Response, error)
}

// LocalEngine is the in-process branch-and-bound engine of package mipmodel.
type LocalEngine struct{}

// Solve implements Engine.
func (LocalEngine) Solve(m *mipmodel.MipModel, params *mipmodel.Parameters, interrupt <-chan struct{}, cb mipmodel.ProgressCallback) (*mipmodel.Response, error) {
	return mipmodel.SolveMipModelWithCallback(m, params, interrupt, cb)
}

// Options configures a Driver.
type Options struct {
	// ObjectiveStop stops the search once an incumbent reaches it. Negative disables it.
	ObjectiveStop  float64
	GapEpsilon     float64
	StallThreshold time.Duration
	// TimeLimit bounds the solve wall time. Zero means no limit.
	TimeLimit time.Duration
	// ProgressInterval is the number of search nodes between progress reports. Zero keeps
	// the engine default.
	ProgressInterval int64
	LogProgress      bool
	// OnProgress, if set, sees every progress report before stall detection.
	OnProgress mipmodel.ProgressCallback
}

// DefaultOptions returns the stop value, epsilon and threshold of a standard run.
func DefaultOptions() Options {
	return Options{
		ObjectiveStop:  DefaultObjectiveStop,
		GapEpsilon:     DefaultGapEpsilon,
		StallThreshold: DefaultStallThreshold,
	}
}

// Driver runs solves on an Engine.
type Driver struct {
	Engine  Engine
	Options Options
}

// New returns a Driver. A nil engine selects LocalEngine.
func New(engine Engine, opts Options) *Driver {
	if engine == nil {
		engine = LocalEngine{}
	}
	return &Driver{Engine: engine, Options: opts}
}

// Result is a solve that produced a solution.
type Result struct {
	Response *mipmodel.Response
	// StallTerminated is true when the stall detector stopped the search.
	StallTerminated bool
	// Gap is the relative optimality gap of the returned solution.
	Gap float64
}

func (d *Driver) parameters() *mipmodel.Parameters {
	params := &mipmodel.Parameters{
		LogSearchProgress: proto.Bool(d.Options.LogProgress),
	}
	if d.Options.ObjectiveStop >= 0 {
		params.BestObjectiveStop = proto.Float64(d.Options.ObjectiveStop)
	}
	if d.Options.TimeLimit > 0 {
		params.MaxTimeInSeconds = proto.Float64(d.Options.TimeLimit.Seconds())
	}
	if d.Options.ProgressInterval > 0 {
		params.ProgressIntervalNodes = proto.Int64(d.Options.ProgressInterval)
	}
	return params
}

// Solve solves `m`. Cancelling `ctx` interrupts the engine, which then returns its incumbent.
// A solve without a solution returns an *OutcomeError.
func (d *Driver) Solve(ctx context.Context, m *slidemodel.Model) (*Result, error) {
	stall := NewStallDetector(d.Options.GapEpsilon, d.Options.StallThreshold)
	cb := func(p mipmodel.Progress) {
		if d.Options.OnProgress != nil {
			d.Options.OnProgress(p)
		}
		if stall.Observe(p) {
			log.Warningf("optimality gap %.6f unchanged for %v, terminating the search at %v",
				stall.LastGap(), d.Options.StallThreshold, p.Elapsed)
			p.Terminate()
		}
	}

	res, err := d.Engine.Solve(m.Mip, d.parameters(), ctx.Done(), cb)
	if err != nil {
		return nil, fmt.Errorf("solving slideshow model: %w", err)
	}
	log.Infof("solve finished: status=%v termination=%v objective=%v bound=%v solutions=%d wall=%v",
		res.Status, res.Termination, res.ObjectiveValue, res.BestObjectiveBound, res.SolutionCount, res.WallTime)

	outcome := func(err error) error {
		return &OutcomeError{Status: res.Status, Termination: res.Termination, Err: err}
	}
	switch res.Status {
	case mipmodel.StatusOptimal, mipmodel.StatusFeasible:
	case mipmodel.StatusInfeasible:
		return nil, outcome(ErrInfeasible)
	case mipmodel.StatusUnbounded:
		return nil, outcome(ErrUnbounded)
	case mipmodel.StatusModelInvalid:
		return nil, outcome(ErrInvalidModel)
	default:
		return nil, outcome(ErrNoIncumbent)
	}
	if !res.HasSolution() {
		return nil, outcome(ErrNoIncumbent)
	}
	return &Result{Response: res, StallTerminated: stall.Terminated(), Gap: res.RelativeGap()}, nil
}

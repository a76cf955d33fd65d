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
	"sync/atomic"
	"time"
)

const defaultProgressIntervalNodes = 1000

// Parameters configures a solve. Unset fields use the engine defaults; set them with the
// `proto.Float64`-style helpers of google.golang.org/protobuf/proto.
type Parameters struct {
	// MaxTimeInSeconds stops the search after this much wall time. Must be positive.
	MaxTimeInSeconds *float64
	// BestObjectiveStop stops the search as soon as an incumbent reaches this value
	// (>= when maximizing, <= when minimizing).
	BestObjectiveStop *float64
	// ProgressIntervalNodes is the number of search nodes between two PhaseMIP progress
	// reports. Must be positive.
	ProgressIntervalNodes *int64
	// LogSearchProgress logs every progress report at info level.
	LogSearchProgress *bool
}

// GetMaxTime returns the time limit, or 0 when there is none.
func (p *Parameters) GetMaxTime() time.Duration {
	if p == nil || p.MaxTimeInSeconds == nil {
		return 0
	}
	return time.Duration(*p.MaxTimeInSeconds * float64(time.Second))
}

// GetBestObjectiveStop returns the objective stop value and whether it is set.
func (p *Parameters) GetBestObjectiveStop() (float64, bool) {
	if p == nil || p.BestObjectiveStop == nil {
		return 0, false
	}
	return *p.BestObjectiveStop, true
}

// GetProgressIntervalNodes returns the node interval between progress reports.
func (p *Parameters) GetProgressIntervalNodes() int64 {
	if p == nil || p.ProgressIntervalNodes == nil {
		return defaultProgressIntervalNodes
	}
	return *p.ProgressIntervalNodes
}

// GetLogSearchProgress reports whether progress reports are logged.
func (p *Parameters) GetLogSearchProgress() bool {
	return p != nil && p.LogSearchProgress != nil && *p.LogSearchProgress
}

func (p *Parameters) validate() error {
	if p == nil {
		return nil
	}
	if t := p.MaxTimeInSeconds; t != nil && (math.IsNaN(*t) || *t <= 0) {
		return fmt.Errorf("max_time_in_seconds must be positive, got %v", *t)
	}
	if s := p.BestObjectiveStop; s != nil && math.IsNaN(*s) {
		return fmt.Errorf("best_objective_stop is NaN")
	}
	if n := p.ProgressIntervalNodes; n != nil && *n <= 0 {
		return fmt.Errorf("progress_interval_nodes must be positive, got %v", *n)
	}
	return nil
}

// Status is the outcome of a solve.
type Status int

const (
	// StatusUnknown means the search stopped before finding a solution or proving there is none.
	StatusUnknown Status = iota
	// StatusModelInvalid means the model or the parameters failed validation.
	StatusModelInvalid
	// StatusFeasible means a solution was found but not proven optimal.
	StatusFeasible
	// StatusInfeasible means the model has no solution.
	StatusInfeasible
	// StatusOptimal means the returned solution is proven optimal.
	StatusOptimal
	// StatusUnbounded means the objective is unbounded. The in-process engine never returns it
	// since every variable has a finite domain, but other engines may.
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusModelInvalid:
		return "MODEL_INVALID"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusOptimal:
		return "OPTIMAL"
	case StatusUnbounded:
		return "UNBOUNDED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Termination tells why the search stopped.
type Termination int

const (
	// TerminationCompleted means the search space was exhausted.
	TerminationCompleted Termination = iota
	// TerminationObjectiveStop means an incumbent reached BestObjectiveStop.
	TerminationObjectiveStop
	// TerminationCallback means a progress callback called Progress.Terminate.
	TerminationCallback
	// TerminationTimeLimit means MaxTimeInSeconds elapsed.
	TerminationTimeLimit
	// TerminationInterrupted means the interrupt channel was closed.
	TerminationInterrupted
)

func (t Termination) String() string {
	switch t {
	case TerminationCompleted:
		return "COMPLETED"
	case TerminationObjectiveStop:
		return "OBJECTIVE_STOP"
	case TerminationCallback:
		return "CALLBACK"
	case TerminationTimeLimit:
		return "TIME_LIMIT"
	case TerminationInterrupted:
		return "INTERRUPTED"
	}
	return fmt.Sprintf("Termination(%d)", int(t))
}

// Phase tells a progress callback where the search is.
type Phase int

const (
	// PhaseMIP is the periodic report during the branch-and-bound search.
	PhaseMIP Phase = iota
	// PhaseMIPSol is reported each time a new incumbent is found.
	PhaseMIPSol
)

func (p Phase) String() string {
	switch p {
	case PhaseMIP:
		return "MIP"
	case PhaseMIPSol:
		return "MIPSOL"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Progress is passed to a ProgressCallback. Objective values are in the model's own sense.
// Before the first solution BestObjective is -Inf when maximizing and +Inf when minimizing.
type Progress struct {
	Phase         Phase
	SolutionCount int
	BestObjective float64
	BestBound     float64
	Elapsed       time.Duration
	NodeCount     int64

	stop *atomic.Bool
}

// Terminate asks the engine to stop soon and return its incumbent.
func (p Progress) Terminate() {
	if p.stop != nil {
		p.stop.Store(true)
	}
}

// ProgressCallback is called synchronously from the search loop. It must return quickly.
type ProgressCallback func(p Progress)

// Response is the result of a solve.
type Response struct {
	Status      Status
	Termination Termination
	// ObjectiveValue is the objective of Solution. It is 0 when there is no solution.
	ObjectiveValue float64
	// BestObjectiveBound is a proven bound on the optimal objective.
	BestObjectiveBound float64
	// Solution holds one value per model variable, or nil when there is no solution.
	Solution      []int64
	SolutionCount int
	NumBranches   int64
	NumConflicts  int64
	WallTime      time.Duration
}

// HasSolution reports whether the response carries a solution.
func (r *Response) HasSolution() bool {
	return r != nil && r.Solution != nil
}

// RelativeGap returns |objective - bound| / |objective|, 0 when both are equal, and +Inf when
// there is no solution or the objective is 0.
func (r *Response) RelativeGap() float64 {
	if !r.HasSolution() {
		return math.Inf(1)
	}
	diff := math.Abs(r.ObjectiveValue - r.BestObjectiveBound)
	if diff == 0 {
		return 0
	}
	if r.ObjectiveValue == 0 {
		return math.Inf(1)
	}
	return diff / math.Abs(r.ObjectiveValue)
}

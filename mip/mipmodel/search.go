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
	"slices"
	"sync/atomic"
	"time"

	log "github.com/golang/glog"
)

// engine is a depth-first branch-and-bound search over integer bounds. Internally the
// objective is always maximized: score = sense * sum(coeffs[i]*vars[i]).
type engine struct {
	model     *MipModel
	interrupt <-chan struct{}
	cb        ProgressCallback

	lb, ub  []int64
	trail   []trailEntry
	props   []propagator
	watch   [][]int
	queue   []int
	inQueue []bool

	hasObjective bool
	sense        int64
	objCoeff     []int64
	// objCut is the index of the objective cut `score >= best+1` in props, or -1.
	objCut int
	hint   []int64
	hinted []bool

	best      []int64
	bestScore int64
	solutions int
	// open holds, for each branching node on the current path, a bound on its unexplored
	// children. math.MinInt64 once the last child is entered.
	open      []int64
	rootBound int64

	start       time.Time
	maxTime     time.Duration
	stopValue   float64
	hasStop     bool
	interval    int64
	logProgress bool
	terminate   atomic.Bool

	halted      bool
	termination Termination
	stopBound   int64

	nodes, branches, conflicts int64
}

func newEngine(m *MipModel, params *Parameters, interrupt <-chan struct{}, cb ProgressCallback) *engine {
	n := len(m.Variables)
	e := &engine{
		model:       m,
		interrupt:   interrupt,
		cb:          cb,
		lb:          make([]int64, n),
		ub:          make([]int64, n),
		watch:       make([][]int, n),
		objCoeff:    make([]int64, n),
		hint:        make([]int64, n),
		hinted:      make([]bool, n),
		objCut:      -1,
		sense:       1,
		maxTime:     params.GetMaxTime(),
		interval:    params.GetProgressIntervalNodes(),
		logProgress: params.GetLogSearchProgress(),
	}
	e.stopValue, e.hasStop = params.GetBestObjectiveStop()
	for i, v := range m.Variables {
		e.lb[i], _ = v.Domain.Min()
		e.ub[i], _ = v.Domain.Max()
	}

	watchVars := func(p int, vars []VarIndex) {
		for _, v := range vars {
			if w := e.watch[v]; len(w) == 0 || w[len(w)-1] != p {
				e.watch[v] = append(w, p)
			}
		}
	}
	for _, ct := range m.Constraints {
		p := len(e.props)
		if r := ct.Linear; r != nil {
			e.props = append(e.props, propagator{linear: &linearRow{vars: r.Vars, coeffs: r.Coeffs, lo: r.Lb, hi: r.Ub}})
			watchVars(p, r.Vars)
			continue
		}
		e.props = append(e.props, propagator{min: ct.Min})
		watchVars(p, ct.Min.Target.Vars)
		for _, ex := range ct.Min.Exprs {
			watchVars(p, ex.Vars)
		}
	}

	if o := m.Objective; o != nil {
		e.hasObjective = true
		if !o.Maximize {
			e.sense = -1
		}
		cut := &linearRow{lo: math.MinInt64, hi: math.MaxInt64}
		for i, v := range o.Vars {
			c := e.sense * o.Coeffs[i]
			e.objCoeff[v] += c
			cut.vars = append(cut.vars, v)
			cut.coeffs = append(cut.coeffs, c)
		}
		e.objCut = len(e.props)
		e.props = append(e.props, propagator{linear: cut})
		watchVars(e.objCut, cut.vars)
	}

	if h := m.Hint; h != nil {
		for i, v := range h.Vars {
			e.hint[v] = h.Values[i]
			e.hinted[v] = true
		}
	}
	e.inQueue = make([]bool, len(e.props))
	return e
}

func (e *engine) run() *Response {
	e.start = time.Now()
	for p := range e.props {
		e.enqueue(p)
	}
	e.rootBound = e.objectiveBound()
	e.search()
	return e.response()
}

func (e *engine) search() {
	e.nodes++
	if e.shouldStop() {
		return
	}
	if e.nodes%e.interval == 0 {
		e.report(PhaseMIP)
		if e.shouldStop() {
			return
		}
	}
	if e.objCut >= 0 {
		e.enqueue(e.objCut)
	}
	if !e.propagate() {
		e.conflicts++
		return
	}

	v, ok := e.pickVariable()
	if !ok {
		e.onSolution()
		return
	}

	top := len(e.open)
	e.open = append(e.open, e.objectiveBound())
	defer func() { e.open = e.open[:top] }()

	children := e.children(v)
	for k, ch := range children {
		if k == len(children)-1 {
			e.open[top] = math.MinInt64
		}
		mark := len(e.trail)
		e.branches++
		if e.setLb(v, ch.Start) && e.setUb(v, ch.End) {
			e.search()
		} else {
			e.conflicts++
		}
		e.undo(mark)
		if e.halted {
			return
		}
	}
}

// pickVariable returns the first variable, in index order, that is not fixed.
func (e *engine) pickVariable() (VarIndex, bool) {
	for i := range e.lb {
		if e.lb[i] < e.ub[i] {
			return VarIndex(i), true
		}
	}
	return 0, false
}

// children splits the range of `v` into the preferred value first, then the values above it,
// then the values below it.
func (e *engine) children(v VarIndex) []ClosedInterval {
	l, u := e.lb[v], e.ub[v]
	val := u
	switch {
	case e.hinted[v] && e.hint[v] >= l && e.hint[v] <= u && e.model.Variables[v].Domain.Contains(e.hint[v]):
		val = e.hint[v]
	case e.objCoeff[v] < 0:
		val = l
	}
	out := []ClosedInterval{{Start: val, End: val}}
	if val < u {
		out = append(out, ClosedInterval{Start: val + 1, End: u})
	}
	if val > l {
		out = append(out, ClosedInterval{Start: l, End: val - 1})
	}
	return out
}

func (e *engine) score() int64 {
	var s int64
	for v, c := range e.objCoeff {
		s = saturatedAdd(s, mulSat(c, e.lb[v]))
	}
	return s
}

// objectiveBound returns the best score reachable under the current bounds.
func (e *engine) objectiveBound() int64 {
	if e.objCut < 0 {
		return 0
	}
	r := e.props[e.objCut].linear
	_, hi := e.activity(r.vars, r.coeffs)
	return hi
}

// globalBound returns the best score any unexplored part of the search can reach.
func (e *engine) globalBound() int64 {
	b := e.objectiveBound()
	if e.best != nil {
		b = max(b, e.bestScore)
	}
	for _, o := range e.open {
		b = max(b, o)
	}
	return b
}

func (e *engine) onSolution() {
	if !e.satisfied() {
		e.conflicts++
		return
	}
	s := e.score()
	if e.best != nil && s <= e.bestScore {
		return
	}
	e.best = slices.Clone(e.lb)
	e.bestScore = s
	e.solutions++
	if e.objCut >= 0 {
		e.props[e.objCut].linear.lo = saturatedAdd(s, 1)
	}
	e.report(PhaseMIPSol)

	switch {
	case !e.hasObjective:
		e.halt(TerminationCompleted)
	case e.hasStop && e.reachedStop(e.userValue(s)):
		e.halt(TerminationObjectiveStop)
	default:
		e.shouldStop()
	}
}

func (e *engine) reachedStop(obj float64) bool {
	if e.sense > 0 {
		return obj >= e.stopValue
	}
	return obj <= e.stopValue
}

// userValue converts an internal score back to the objective of the model.
func (e *engine) userValue(s int64) float64 {
	if !e.hasObjective {
		return 0
	}
	if saturated(s) {
		return float64(e.sense) * float64(s)
	}
	return float64(e.sense*s + e.model.Objective.Offset)
}

func (e *engine) interrupted() bool {
	select {
	case <-e.interrupt:
		return true
	default:
		return false
	}
}

func (e *engine) shouldStop() bool {
	if e.halted {
		return true
	}
	switch {
	case e.terminate.Load():
		e.halt(TerminationCallback)
	case e.interrupted():
		e.halt(TerminationInterrupted)
	case e.maxTime > 0 && time.Since(e.start) >= e.maxTime:
		e.halt(TerminationTimeLimit)
	}
	return e.halted
}

func (e *engine) halt(t Termination) {
	e.halted = true
	e.termination = t
	e.stopBound = e.globalBound()
}

func (e *engine) report(phase Phase) {
	if e.cb == nil && !e.logProgress {
		return
	}
	p := Progress{
		Phase:         phase,
		SolutionCount: e.solutions,
		BestBound:     e.userValue(e.globalBound()),
		Elapsed:       time.Since(e.start),
		NodeCount:     e.nodes,
		stop:          &e.terminate,
	}
	switch {
	case e.best != nil:
		p.BestObjective = e.userValue(e.bestScore)
	case e.sense > 0:
		p.BestObjective = math.Inf(-1)
	default:
		p.BestObjective = math.Inf(1)
	}
	if e.logProgress {
		log.Infof("#%v nodes=%d solutions=%d obj=%v bound=%v elapsed=%v",
			phase, p.NodeCount, p.SolutionCount, p.BestObjective, p.BestBound, p.Elapsed)
	}
	if e.cb != nil {
		e.cb(p)
	}
}

func (e *engine) response() *Response {
	r := &Response{
		Termination:   e.termination,
		SolutionCount: e.solutions,
		NumBranches:   e.branches,
		NumConflicts:  e.conflicts,
		WallTime:      time.Since(e.start),
	}
	proven := !e.halted || e.termination == TerminationCompleted
	switch {
	case e.best != nil && (proven || e.stopBound <= e.bestScore):
		r.Status = StatusOptimal
		r.Solution = e.best
		r.ObjectiveValue = e.userValue(e.bestScore)
		r.BestObjectiveBound = r.ObjectiveValue
	case e.best != nil:
		r.Status = StatusFeasible
		r.Solution = e.best
		r.ObjectiveValue = e.userValue(e.bestScore)
		r.BestObjectiveBound = e.userValue(e.stopBound)
	case proven:
		r.Status = StatusInfeasible
		r.BestObjectiveBound = e.userValue(e.rootBound)
	default:
		r.Status = StatusUnknown
		r.BestObjectiveBound = e.userValue(e.stopBound)
	}
	return r
}

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
)

func saturated(v int64) bool {
	return v == math.MinInt64 || v == math.MaxInt64
}

func subSat(a, b int64) int64 {
	if b == math.MinInt64 {
		if a < 0 {
			return saturatedAdd(saturatedAdd(a, math.MaxInt64), 1)
		}
		return math.MaxInt64
	}
	return saturatedAdd(a, -b)
}

func mulSat(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	r := a * b
	if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		if (a < 0) != (b < 0) {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return r
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}

// linearRow is the propagator form of lo <= sum(coeffs[i]*vars[i]) <= hi.
type linearRow struct {
	vars   []VarIndex
	coeffs []int64
	lo, hi int64
}

// propagator is either a linear row or a min constraint.
type propagator struct {
	linear *linearRow
	min    *MinConstraint
}

type trailEntry struct {
	v      VarIndex
	lb, ub int64
}

// termRange returns the range of c*x over the current bounds of x.
func (e *engine) termRange(c int64, v VarIndex) (int64, int64) {
	if c > 0 {
		return mulSat(c, e.lb[v]), mulSat(c, e.ub[v])
	}
	return mulSat(c, e.ub[v]), mulSat(c, e.lb[v])
}

// activity returns the range of sum(coeffs[i]*vars[i]) over the current bounds.
func (e *engine) activity(vars []VarIndex, coeffs []int64) (int64, int64) {
	var minAct, maxAct int64
	for i, v := range vars {
		tMin, tMax := e.termRange(coeffs[i], v)
		minAct = saturatedAdd(minAct, tMin)
		maxAct = saturatedAdd(maxAct, tMax)
	}
	return minAct, maxAct
}

func (e *engine) exprRange(ex LinearExpression) (int64, int64) {
	lo, hi := e.activity(ex.Vars, ex.Coeffs)
	return saturatedAdd(lo, ex.Offset), saturatedAdd(hi, ex.Offset)
}

func (e *engine) setLb(v VarIndex, val int64) bool {
	if val <= e.lb[v] {
		return true
	}
	if val > e.ub[v] {
		return false
	}
	nv, ok := e.model.Variables[v].Domain.ceil(val)
	if !ok || nv > e.ub[v] {
		return false
	}
	e.trail = append(e.trail, trailEntry{v: v, lb: e.lb[v], ub: e.ub[v]})
	e.lb[v] = nv
	e.wake(v)
	return true
}

func (e *engine) setUb(v VarIndex, val int64) bool {
	if val >= e.ub[v] {
		return true
	}
	if val < e.lb[v] {
		return false
	}
	nv, ok := e.model.Variables[v].Domain.floor(val)
	if !ok || nv < e.lb[v] {
		return false
	}
	e.trail = append(e.trail, trailEntry{v: v, lb: e.lb[v], ub: e.ub[v]})
	e.ub[v] = nv
	e.wake(v)
	return true
}

// undo restores every bound changed since the trail had length `mark`.
func (e *engine) undo(mark int) {
	for i := len(e.trail) - 1; i >= mark; i-- {
		t := e.trail[i]
		e.lb[t.v], e.ub[t.v] = t.lb, t.ub
	}
	e.trail = e.trail[:mark]
}

func (e *engine) wake(v VarIndex) {
	for _, p := range e.watch[v] {
		e.enqueue(p)
	}
}

func (e *engine) enqueue(p int) {
	if e.inQueue[p] {
		return
	}
	e.inQueue[p] = true
	e.queue = append(e.queue, p)
}

func (e *engine) clearQueue() {
	for _, p := range e.queue {
		e.inQueue[p] = false
	}
	e.queue = e.queue[:0]
}

// propagate runs the queued propagators to a fixpoint. It returns false on conflict, in which
// case the queue is emptied.
func (e *engine) propagate() bool {
	for len(e.queue) > 0 {
		p := e.queue[len(e.queue)-1]
		e.queue = e.queue[:len(e.queue)-1]
		e.inQueue[p] = false

		var ok bool
		if r := e.props[p].linear; r != nil {
			ok = e.propagateLinear(r.vars, r.coeffs, r.lo, r.hi)
		} else {
			ok = e.propagateMin(e.props[p].min)
		}
		if !ok {
			e.clearQueue()
			return false
		}
	}
	return true
}

// propagateLinear tightens the bounds of `vars` so that lo <= sum(coeffs[i]*vars[i]) <= hi
// stays satisfiable. math.MinInt64 and math.MaxInt64 mark unbounded sides.
func (e *engine) propagateLinear(vars []VarIndex, coeffs []int64, lo, hi int64) bool {
	minAct, maxAct := e.activity(vars, coeffs)
	if (lo != math.MinInt64 && maxAct < lo) || (hi != math.MaxInt64 && minAct > hi) {
		return false
	}
	for i, v := range vars {
		c := coeffs[i]
		tMin, tMax := e.termRange(c, v)
		if hi != math.MaxInt64 && !saturated(minAct) && !saturated(tMin) {
			// c*x <= hi - (minimum of the other terms).
			if b := subSat(hi, minAct-tMin); !saturated(b) {
				if !e.boundTermAbove(v, c, b) {
					return false
				}
			}
		}
		if lo != math.MinInt64 && !saturated(maxAct) && !saturated(tMax) {
			// c*x >= lo - (maximum of the other terms).
			if b := subSat(lo, maxAct-tMax); !saturated(b) {
				if !e.boundTermBelow(v, c, b) {
					return false
				}
			}
		}
	}
	return true
}

// boundTermAbove enforces c*x <= b.
func (e *engine) boundTermAbove(v VarIndex, c, b int64) bool {
	if c > 0 {
		return e.setUb(v, floorDiv(b, c))
	}
	return e.setLb(v, ceilDiv(b, c))
}

// boundTermBelow enforces c*x >= b.
func (e *engine) boundTermBelow(v VarIndex, c, b int64) bool {
	if c > 0 {
		return e.setLb(v, ceilDiv(b, c))
	}
	return e.setUb(v, floorDiv(b, c))
}

// propagateMin enforces Target == min(Exprs):
//   - the target lies between the smallest lower bound and the smallest upper bound,
//   - every expression is at least the target,
//   - some expression is at most the target; when only one can be, it must be.
func (e *engine) propagateMin(ct *MinConstraint) bool {
	minLo, minHi := int64(math.MaxInt64), int64(math.MaxInt64)
	for _, ex := range ct.Exprs {
		lo, hi := e.exprRange(ex)
		minLo = min(minLo, lo)
		minHi = min(minHi, hi)
	}
	t := ct.Target
	if !e.propagateLinear(t.Vars, t.Coeffs, subSat(minLo, t.Offset), subSat(minHi, t.Offset)) {
		return false
	}
	tLo, tHi := e.exprRange(t)
	if tLo > tHi {
		return false
	}

	candidates, last := 0, -1
	for i, ex := range ct.Exprs {
		if !e.propagateLinear(ex.Vars, ex.Coeffs, subSat(tLo, ex.Offset), math.MaxInt64) {
			return false
		}
		if lo, _ := e.exprRange(ex); lo <= tHi {
			candidates++
			last = i
		}
	}
	switch candidates {
	case 0:
		return false
	case 1:
		ex := ct.Exprs[last]
		return e.propagateLinear(ex.Vars, ex.Coeffs, math.MinInt64, subSat(tHi, ex.Offset))
	}
	return true
}

func (e *engine) evaluate(ex LinearExpression) int64 {
	v, _ := e.exprRange(ex)
	return v
}

// satisfied checks every model constraint on a complete assignment.
func (e *engine) satisfied() bool {
	for _, ct := range e.model.Constraints {
		if r := ct.Linear; r != nil {
			act, _ := e.activity(r.Vars, r.Coeffs)
			if act < r.Lb || act > r.Ub {
				return false
			}
			continue
		}
		m := int64(math.MaxInt64)
		for _, ex := range ct.Min.Exprs {
			m = min(m, e.evaluate(ex))
		}
		if e.evaluate(ct.Min.Target) != m {
			return false
		}
	}
	return true
}

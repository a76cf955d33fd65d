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

// Package mipmodel offers a builder API for mixed-integer linear models over bounded integer
// variables, and an in-process branch-and-bound engine to solve them.
//
// The `Builder` struct owns a `MipModel` and provides helper methods for adding variables
// and constraints to it.
// The `IntVar` and `BoolVar` structs are references to specific variables in the model.
// The `LinearExpr` struct provides helper methods for creating constraints and the
// objective from expressions with many variables and coefficients.
package mipmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	log "github.com/golang/glog"
)

var (
	// ErrMixedModels holds the error when elements added to a model are different.
	ErrMixedModels = errors.New("elements are not part of the same model")
	// ErrUnsupportedDomain is reported when a constraint domain has holes.
	ErrUnsupportedDomain = errors.New("only convex constraint domains are supported")
	// ErrInvalidModel is returned by Validate for structurally broken models.
	ErrInvalidModel = errors.New("invalid model")
)

type (
	// VarIndex is the index of a variable in the model, if positive. If this value is
	// negative, it represents the negation of a Boolean variable in the position (-1*VarIndex-1).
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model.
	ConstrIndex int32
)

func (v VarIndex) positiveIndex() VarIndex {
	if v >= 0 {
		return v
	}
	return -1*v - 1
}

// Variable is a variable of a MipModel.
type Variable struct {
	Name   string
	Domain Domain
}

// LinearExpression is the flattened form of a LinearExpr: sum(Coeffs[i]*Vars[i]) + Offset.
// All indices are positive.
type LinearExpression struct {
	Vars   []VarIndex
	Coeffs []int64
	Offset int64
}

// LinearConstraint enforces Lb <= sum(Coeffs[i]*Vars[i]) <= Ub. math.MinInt64 and
// math.MaxInt64 mark unbounded sides.
type LinearConstraint struct {
	Vars   []VarIndex
	Coeffs []int64
	Lb, Ub int64
}

// MinConstraint enforces Target == min(Exprs).
type MinConstraint struct {
	Target LinearExpression
	Exprs  []LinearExpression
}

// ConstraintDef is one constraint of a MipModel. Exactly one of Linear and Min is set.
type ConstraintDef struct {
	Name   string
	Linear *LinearConstraint
	Min    *MinConstraint
}

// Objective is the linear objective of a MipModel.
type Objective struct {
	Vars     []VarIndex
	Coeffs   []int64
	Offset   int64
	Maximize bool
}

// PartialAssignment lists preferred values for some variables.
type PartialAssignment struct {
	Vars   []VarIndex
	Values []int64
}

// MipModel is a built model, ready to be solved.
type MipModel struct {
	Name        string
	Variables   []*Variable
	Constraints []*ConstraintDef
	Objective   *Objective
	Hint        *PartialAssignment
}

// LinearArgument provides an interface for BoolVar, IntVar, and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c int64)
	// asLinearExpression returns the LinearArgument in its flattened form.
	asLinearExpression() LinearExpression
	evaluateSolutionValue(r *Response) int64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    int64
}

type varCoeff struct {
	ind   VarIndex
	coeff int64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c int64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c int64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff int64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []int64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

// Len returns the number of terms of the expression, before merging duplicates.
func (l *LinearExpr) Len() int {
	return len(l.varCoeffs)
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c int64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: vc.ind, coeff: vc.coeff * c})
	}
	e.offset += l.offset * c
}

// asLinearExpression merges duplicate variables and drops zero coefficients. Terms are
// sorted by variable index.
func (l *LinearExpr) asLinearExpression() LinearExpression {
	merged := make(map[VarIndex]int64, len(l.varCoeffs))
	for _, vc := range l.varCoeffs {
		merged[vc.ind] += vc.coeff
	}
	out := LinearExpression{Offset: l.offset}
	for ind, c := range merged {
		if c == 0 {
			continue
		}
		out.Vars = append(out.Vars, ind)
		out.Coeffs = append(out.Coeffs, c)
	}
	sort.Sort(termSlices{out.Vars, out.Coeffs})
	return out
}

func (l *LinearExpr) evaluateSolutionValue(r *Response) int64 {
	result := l.offset

	for _, vc := range l.varCoeffs {
		result += r.Solution[vc.ind] * vc.coeff
	}

	return result
}

type termSlices struct {
	vars   []VarIndex
	coeffs []int64
}

func (ts termSlices) Len() int           { return len(ts.vars) }
func (ts termSlices) Less(i, j int) bool { return ts.vars[i] < ts.vars[j] }
func (ts termSlices) Swap(i, j int) {
	ts.vars[i], ts.vars[j] = ts.vars[j], ts.vars[i]
	ts.coeffs[i], ts.coeffs[j] = ts.coeffs[j], ts.coeffs[i]
}

func asLinearExpr(la LinearArgument) *LinearExpr {
	return NewLinearExpr().Add(la)
}

// IntVar is a reference to an integer variable in the model.
type IntVar struct {
	ind VarIndex
	mb  *Builder
}

// Name returns the name of the variable.
func (i IntVar) Name() string {
	return i.mb.model.Variables[i.ind].Name
}

// Domain returns the domain of the variable.
func (i IntVar) Domain() Domain {
	return i.mb.model.Variables[i.ind].Domain
}

// Index returns the index of the variable.
func (i IntVar) Index() VarIndex {
	return i.ind
}

// WithName sets the name of the variable.
func (i IntVar) WithName(s string) IntVar {
	i.mb.model.Variables[i.ind].Name = s
	return i
}

func (i IntVar) addToLinearExpr(e *LinearExpr, c int64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: i.ind, coeff: c})
}

func (i IntVar) asLinearExpression() LinearExpression {
	return LinearExpression{Vars: []VarIndex{i.ind}, Coeffs: []int64{1}}
}

func (i IntVar) evaluateSolutionValue(r *Response) int64 {
	return r.Solution[i.ind]
}

// BoolVar is a reference to a Boolean variable or the negation of a Boolean variable in the
// model.
type BoolVar struct {
	ind VarIndex
	mb  *Builder
}

// Not returns the logical Not of the Boolean variable.
func (b BoolVar) Not() BoolVar {
	return BoolVar{ind: -1*b.ind - 1, mb: b.mb}
}

// Name returns the name of the variable.
func (b BoolVar) Name() string {
	return b.mb.model.Variables[b.ind.positiveIndex()].Name
}

// Domain returns the domain of the variable.
func (b BoolVar) Domain() Domain {
	return b.mb.model.Variables[b.ind.positiveIndex()].Domain
}

// Index returns the index of the variable. If the variable is a negation of another variable v,
// its index is `-1*v.index-1`.
func (b BoolVar) Index() VarIndex {
	return b.ind
}

// WithName sets the name of the variable.
func (b BoolVar) WithName(s string) BoolVar {
	b.mb.model.Variables[b.ind.positiveIndex()].Name = s
	return b
}

func (b BoolVar) addToLinearExpr(e *LinearExpr, c int64) {
	if b.ind < 0 {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: b.ind.positiveIndex(), coeff: -c})
		e.offset += c
	} else {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: b.ind, coeff: c})
	}
}

func (b BoolVar) asLinearExpression() LinearExpression {
	if b.ind < 0 {
		return LinearExpression{Vars: []VarIndex{b.ind.positiveIndex()}, Coeffs: []int64{-1}, Offset: 1}
	}
	return LinearExpression{Vars: []VarIndex{b.ind}, Coeffs: []int64{1}}
}

func (b BoolVar) evaluateSolutionValue(r *Response) int64 {
	if b.ind < 0 {
		return 1 - r.Solution[b.ind.positiveIndex()]
	}
	return r.Solution[b.ind]
}

// Constraint is a reference to a constraint in the model.
type Constraint struct {
	ind ConstrIndex
	mb  *Builder
}

// WithName sets the name of the constraint.
func (c Constraint) WithName(s string) Constraint {
	c.mb.model.Constraints[c.ind].Name = s
	return c
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.mb.model.Constraints[c.ind].Name
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// checkSameModelAndSetErrorf returns true if `mb` and `mb2` point to the same Builder.
// If false, an error with the error message `format` is set on `mb` if `mb.err`
// is nil.
func (mb *Builder) checkSameModelAndSetErrorf(mb2 *Builder, format string, a ...any) bool {
	if mb == mb2 {
		return true
	}
	var args = make([]any, len(a)+1)
	copy(args, a)
	args[len(a)] = ErrMixedModels
	mb.setErrorf(format+": %w", args...)
	return false
}

func (mb *Builder) setErrorf(format string, a ...any) {
	err := fmt.Errorf(format, a...)
	log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
	if mb.err == nil {
		mb.err = err
	}
}

// Builder provides a wrapper for building a MipModel.
type Builder struct {
	model     *MipModel
	constants map[int64]VarIndex
	// The first and only the first error is reported in Model.
	err error
}

// NewMipModelBuilder creates and returns a new MipModel Builder.
func NewMipModelBuilder() *Builder {
	return &Builder{model: &MipModel{}, constants: make(map[int64]VarIndex)}
}

// SetName sets the name of the model.
func (mb *Builder) SetName(name string) {
	mb.model.Name = name
}

// NumVariables returns the number of variables created so far.
func (mb *Builder) NumVariables() int {
	return len(mb.model.Variables)
}

// NumConstraints returns the number of constraints posted so far.
func (mb *Builder) NumConstraints() int {
	return len(mb.model.Constraints)
}

func (mb *Builder) appendVariable(d Domain) VarIndex {
	ind := VarIndex(len(mb.model.Variables))
	mb.model.Variables = append(mb.model.Variables, &Variable{Domain: d})
	return ind
}

// NewIntVar creates a new IntVar with domain `[lb,ub]`.
func (mb *Builder) NewIntVar(lb, ub int64) IntVar {
	return IntVar{mb: mb, ind: mb.appendVariable(NewDomain(lb, ub))}
}

// NewIntVarFromDomain creates a new IntVar with the given domain.
func (mb *Builder) NewIntVarFromDomain(d Domain) IntVar {
	return IntVar{mb: mb, ind: mb.appendVariable(FromIntervals(d.intervals))}
}

// NewBoolVar creates a new BoolVar.
func (mb *Builder) NewBoolVar() BoolVar {
	return BoolVar{mb: mb, ind: mb.appendVariable(NewDomain(0, 1))}
}

// NewConstant creates a constant variable. If this is called multiple times, the same variable will
// always be returned.
func (mb *Builder) NewConstant(v int64) IntVar {
	if i, ok := mb.constants[v]; ok {
		return IntVar{mb: mb, ind: i}
	}

	constVar := mb.NewIntVar(v, v)
	mb.constants[v] = constVar.ind

	return constVar
}

// TrueVar creates an always true Boolean variable. If this is called multiple times, the same
// variable will always be returned.
func (mb *Builder) TrueVar() BoolVar {
	return BoolVar{mb: mb, ind: mb.NewConstant(1).ind}
}

// FalseVar creates an always false Boolean variable. If this is called multiple times, the same
// variable will always be returned.
func (mb *Builder) FalseVar() BoolVar {
	return BoolVar{mb: mb, ind: mb.NewConstant(0).ind}
}

func (mb *Builder) appendConstraint(ct *ConstraintDef) Constraint {
	i := ConstrIndex(len(mb.model.Constraints))
	mb.model.Constraints = append(mb.model.Constraints, ct)

	return Constraint{mb: mb, ind: i}
}

// addLinearConstraint adds `lb <= le <= ub`. The constant offset of `le` is moved to the
// bounds.
func (mb *Builder) addLinearConstraint(le *LinearExpr, lb, ub int64) Constraint {
	expr := le.asLinearExpression()
	itv := ClosedInterval{lb, ub}.Offset(-expr.Offset)

	return mb.appendConstraint(&ConstraintDef{
		Linear: &LinearConstraint{Vars: expr.Vars, Coeffs: expr.Coeffs, Lb: itv.Start, Ub: itv.End},
	})
}

// AddLinearConstraint adds the linear constraint `lb <= expr <= ub`. Use math.MinInt64 and
// math.MaxInt64 for unbounded sides.
func (mb *Builder) AddLinearConstraint(expr LinearArgument, lb, ub int64) Constraint {
	return mb.addLinearConstraint(asLinearExpr(expr), lb, ub)
}

// AddLinearConstraintForDomain adds the linear constraint `expr` in `domain`. Only domains
// made of a single interval are supported; others set an ErrUnsupportedDomain error on the
// builder.
func (mb *Builder) AddLinearConstraintForDomain(expr LinearArgument, domain Domain) Constraint {
	if len(domain.intervals) > 1 {
		mb.setErrorf("domain %v for constraint %v: %w", domain, len(mb.model.Constraints), ErrUnsupportedDomain)
	}
	lb, ok := domain.Min()
	if !ok {
		// An empty domain is an infeasible constraint.
		return mb.addLinearConstraint(asLinearExpr(expr), 1, 0)
	}
	ub, _ := domain.Max()
	return mb.addLinearConstraint(asLinearExpr(expr), lb, ub)
}

// AddEquality adds the linear constraint `lhs == rhs`.
func (mb *Builder) AddEquality(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), 0, 0)
}

// AddLessOrEqual adds the linear constraint `lhs <= rhs`.
func (mb *Builder) AddLessOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), math.MinInt64, 0)
}

// AddLessThan adds the linear constraint `lhs < rhs`.
func (mb *Builder) AddLessThan(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), math.MinInt64, -1)
}

// AddGreaterOrEqual adds the linear constraint `lhs >= rhs`.
func (mb *Builder) AddGreaterOrEqual(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), 0, math.MaxInt64)
}

// AddGreaterThan adds the linear constraint `lhs > rhs`.
func (mb *Builder) AddGreaterThan(lhs LinearArgument, rhs LinearArgument) Constraint {
	return mb.addLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), 1, math.MaxInt64)
}

func (mb *Builder) boolSum(bvs ...BoolVar) *LinearExpr {
	sum := NewLinearExpr()
	for _, b := range bvs {
		mb.checkSameModelAndSetErrorf(b.mb, "BoolVar %v added to Constraint %v", b.Index(), len(mb.model.Constraints))
		sum.Add(b)
	}
	return sum
}

// AddBoolOr adds the constraint that at least one of the literals must be true.
func (mb *Builder) AddBoolOr(bvs ...BoolVar) Constraint {
	return mb.addLinearConstraint(mb.boolSum(bvs...), 1, math.MaxInt64)
}

// AddAtLeastOne adds the constraint that at least one of the literals must be true.
func (mb *Builder) AddAtLeastOne(bvs ...BoolVar) Constraint {
	return mb.AddBoolOr(bvs...)
}

// AddAtMostOne adds the constraint that at most one of the literals must be true.
func (mb *Builder) AddAtMostOne(bvs ...BoolVar) Constraint {
	return mb.addLinearConstraint(mb.boolSum(bvs...), math.MinInt64, 1)
}

// AddExactlyOne adds the constraint that exactly one of the literals must be true.
func (mb *Builder) AddExactlyOne(bvs ...BoolVar) Constraint {
	return mb.addLinearConstraint(mb.boolSum(bvs...), 1, 1)
}

// AddImplication adds the constraint a => b.
func (mb *Builder) AddImplication(a, b BoolVar) Constraint {
	return mb.AddBoolOr(a.Not(), b)
}

// AddMinEquality adds the constraint: target == min(exprs).
func (mb *Builder) AddMinEquality(target LinearArgument, exprs ...LinearArgument) Constraint {
	ct := &MinConstraint{Target: asLinearExpr(target).asLinearExpression()}
	for _, e := range exprs {
		ct.Exprs = append(ct.Exprs, asLinearExpr(e).asLinearExpression())
	}
	return mb.appendConstraint(&ConstraintDef{Min: ct})
}

// AddMaxEquality adds the constraint: target == max(exprs). It is stored as
// -target == min(-exprs).
func (mb *Builder) AddMaxEquality(target LinearArgument, exprs ...LinearArgument) Constraint {
	ct := &MinConstraint{Target: NewLinearExpr().AddTerm(target, -1).asLinearExpression()}
	for _, e := range exprs {
		ct.Exprs = append(ct.Exprs, NewLinearExpr().AddTerm(e, -1).asLinearExpression())
	}
	return mb.appendConstraint(&ConstraintDef{Min: ct})
}

func (mb *Builder) setObjective(obj LinearArgument, maximize bool) {
	o := asLinearExpr(obj).asLinearExpression()
	mb.model.Objective = &Objective{
		Vars:     o.Vars,
		Coeffs:   o.Coeffs,
		Offset:   o.Offset,
		Maximize: maximize,
	}
}

// Minimize adds a linear minimization objective.
func (mb *Builder) Minimize(obj LinearArgument) {
	mb.setObjective(obj, false)
}

// Maximize adds a linear maximization objective.
func (mb *Builder) Maximize(obj LinearArgument) {
	mb.setObjective(obj, true)
}

// Hint is a container for IntVar and BoolVar hints to the model. The engine tries hinted
// values first when branching.
type Hint struct {
	Ints  map[IntVar]int64
	Bools map[BoolVar]bool
}

func (h *Hint) assignment() *PartialAssignment {
	if h == nil {
		return nil
	}

	var vars []VarIndex
	var hints []int64
	for iv, hint := range h.Ints {
		vars = append(vars, iv.ind)
		hints = append(hints, hint)
	}
	for bv, hint := range h.Bools {
		var hintInt int64
		if hint {
			hintInt = 1
		}
		if bv.ind < 0 {
			hintInt = 1 - hintInt
		}
		vars = append(vars, bv.ind.positiveIndex())
		hints = append(hints, hintInt)
	}
	sort.Sort(termSlices{vars, hints})

	return &PartialAssignment{Vars: vars, Values: hints}
}

// SetHint sets the hint on the model.
func (mb *Builder) SetHint(hint *Hint) {
	mb.model.Hint = hint.assignment()
}

// ClearHint clears any hints on the model.
func (mb *Builder) ClearHint() {
	mb.model.Hint = nil
}

// Model returns the built model. The model returned is a pointer to the model in Builder, and
// if modified, future calls to the Builder API can fail or result in an invalid model.
//
// Model returns an error when invalid parameters have been used during model building (e.g.
// passing variables from other builders).
func (mb *Builder) Model() (*MipModel, error) {
	if mb.err != nil {
		return nil, mb.err
	}
	return mb.model, nil
}

// Validate checks that every variable has a non-empty domain and that every constraint and
// the objective only reference existing variables.
func (m *MipModel) Validate() error {
	n := VarIndex(len(m.Variables))
	for i, v := range m.Variables {
		if _, ok := v.Domain.Min(); !ok {
			return fmt.Errorf("variable %d (%q) has an empty domain: %w", i, v.Name, ErrInvalidModel)
		}
	}
	checkVars := func(what string, vars []VarIndex, coeffs []int64) error {
		if len(vars) != len(coeffs) {
			return fmt.Errorf("%s: %d variables and %d coefficients: %w", what, len(vars), len(coeffs), ErrInvalidModel)
		}
		for _, v := range vars {
			if v < 0 || v >= n {
				return fmt.Errorf("%s references variable %d out of %d: %w", what, v, n, ErrInvalidModel)
			}
		}
		return nil
	}
	for i, ct := range m.Constraints {
		what := fmt.Sprintf("constraint %d (%q)", i, ct.Name)
		switch {
		case ct.Linear != nil && ct.Min == nil:
			if err := checkVars(what, ct.Linear.Vars, ct.Linear.Coeffs); err != nil {
				return err
			}
		case ct.Min != nil && ct.Linear == nil:
			if len(ct.Min.Exprs) == 0 {
				return fmt.Errorf("%s: min of no expression: %w", what, ErrInvalidModel)
			}
			if err := checkVars(what, ct.Min.Target.Vars, ct.Min.Target.Coeffs); err != nil {
				return err
			}
			for _, e := range ct.Min.Exprs {
				if err := checkVars(what, e.Vars, e.Coeffs); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%s must hold exactly one constraint kind: %w", what, ErrInvalidModel)
		}
	}
	if m.Objective != nil {
		if err := checkVars("objective", m.Objective.Vars, m.Objective.Coeffs); err != nil {
			return err
		}
	}
	if m.Hint != nil {
		if err := checkVars("hint", m.Hint.Vars, m.Hint.Values); err != nil {
			return err
		}
	}
	return nil
}

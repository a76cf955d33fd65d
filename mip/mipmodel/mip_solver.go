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
	"errors"

	log "github.com/golang/glog"
)

// ErrNilModel is returned when a nil model is passed to a solve function.
var ErrNilModel = errors.New("nil model")

// SolveMipModel solves a model and returns a Response.
func SolveMipModel(input *MipModel) (*Response, error) {
	return SolveMipModelWithParameters(input, nil)
}

// SolveMipModelWithParameters solves a model with the given parameters and returns a
// Response.
func SolveMipModelWithParameters(input *MipModel, params *Parameters) (*Response, error) {
	return SolveMipModelWithCallback(input, params, nil, nil)
}

// SolveMipModelInterruptibleWithParameters solves a model with the given parameters and
// returns a Response. The solve can be interrupted by closing `interrupt`, in which case the
// incumbent found so far is returned.
func SolveMipModelInterruptibleWithParameters(input *MipModel, params *Parameters, interrupt <-chan struct{}) (*Response, error) {
	return SolveMipModelWithCallback(input, params, interrupt, nil)
}

// SolveMipModelWithCallback is the most general solve entry point. `cb`, if not nil, is called
// every ProgressIntervalNodes search nodes with phase PhaseMIP and after each new incumbent
// with phase PhaseMIPSol; it may request termination through Progress.Terminate.
//
// Invalid models and parameters are not errors: they yield a StatusModelInvalid response.
func SolveMipModelWithCallback(input *MipModel, params *Parameters, interrupt <-chan struct{}, cb ProgressCallback) (*Response, error) {
	if input == nil {
		return nil, ErrNilModel
	}
	if err := params.validate(); err != nil {
		log.Warningf("invalid parameters: %v", err)
		return &Response{Status: StatusModelInvalid}, nil
	}
	if err := input.Validate(); err != nil {
		log.Warningf("invalid model %q: %v", input.Name, err)
		return &Response{Status: StatusModelInvalid}, nil
	}

	e := newEngine(input, params, interrupt, cb)
	res := e.run()
	log.V(1).Infof("model %q: status=%v termination=%v objective=%v bound=%v branches=%d conflicts=%d wall=%v",
		input.Name, res.Status, res.Termination, res.ObjectiveValue, res.BestObjectiveBound,
		res.NumBranches, res.NumConflicts, res.WallTime)
	return res, nil
}

// SolutionBooleanValue returns the value of BoolVar `bv` in the response.
func SolutionBooleanValue(r *Response, bv BoolVar) bool {
	return bv.evaluateSolutionValue(r) != 0
}

// SolutionIntegerValue returns the value of LinearArgument `la` in the response.
func SolutionIntegerValue(r *Response, la LinearArgument) int64 {
	return la.evaluateSolutionValue(r)
}

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
	"math"
	"time"

	"github.com/slideopt/slideshow/mip/mipmodel"
)

// StallDetector asks for termination once the relative optimality gap has stayed within
// Epsilon of its last recorded value for longer than Threshold.
//
// A StallDetector serves a single solve; it is not safe for concurrent use.
type StallDetector struct {
	Epsilon   float64
	Threshold time.Duration

	lastGap float64
	// lastGapChange is the elapsed time, in seconds, at which lastGap was recorded.
	lastGapChange float64
	terminated    bool
}

// NewStallDetector returns a detector with no gap recorded yet.
func NewStallDetector(epsilon float64, threshold time.Duration) *StallDetector {
	return &StallDetector{
		Epsilon:       epsilon,
		Threshold:     threshold,
		lastGap:       math.Inf(1),
		lastGapChange: math.Inf(1),
	}
}

// Observe processes one progress report and returns true when the search should be
// terminated. It returns true at most once.
//
// Only PhaseMIP reports with at least one solution and a non-zero best objective are
// considered.
func (d *StallDetector) Observe(p mipmodel.Progress) bool {
	if d.terminated || p.Phase != mipmodel.PhaseMIP || p.SolutionCount == 0 || p.BestObjective == 0 {
		return false
	}
	gap := math.Abs(p.BestObjective-p.BestBound) / p.BestObjective
	elapsed := p.Elapsed.Seconds()

	if math.Abs(gap-d.lastGap) > d.Epsilon {
		d.lastGap = gap
		d.lastGapChange = elapsed
		return false
	}
	if elapsed-d.lastGapChange > d.Threshold.Seconds() {
		d.terminated = true
		return true
	}
	return false
}

// LastGap returns the last recorded gap, +Inf before the first one.
func (d *StallDetector) LastGap() float64 {
	return d.lastGap
}

// Terminated reports whether Observe has asked for termination.
func (d *StallDetector) Terminated() bool {
	return d.terminated
}

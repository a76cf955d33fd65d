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
	"fmt"
	"io"
	"time"

	log "github.com/golang/glog"
	"github.com/schollz/progressbar/v3"

	"github.com/slideopt/slideshow/mip/mipmodel"
)

// Spinner renders search progress on a terminal.
type Spinner struct {
	bar *progressbar.ProgressBar
}

// NewSpinner returns a Spinner writing to `w`.
func NewSpinner(w io.Writer) *Spinner {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Solving"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("nodes"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	return &Spinner{bar: bar}
}

// Observe is a mipmodel.ProgressCallback.
func (s *Spinner) Observe(p mipmodel.Progress) {
	if p.SolutionCount > 0 {
		s.bar.Describe(fmt.Sprintf("Solving: %d solutions, best %g, bound %g", p.SolutionCount, p.BestObjective, p.BestBound))
	}
	if err := s.bar.Set64(p.NodeCount); err != nil {
		log.V(1).Infof("Rendering progress: %v", err)
	}
}

// Close finishes the display.
func (s *Spinner) Close() error {
	return s.bar.Finish()
}

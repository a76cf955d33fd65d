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

// Package decoder turns a solved slideshow model into the ordered slideshow and writes it.
package decoder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/golang/glog"

	"github.com/slideopt/slideshow/mip/mipmodel"
	"github.com/slideopt/slideshow/slideshow/slidemodel"
)

var (
	// ErrModelInconsistency is matched by every *InconsistencyError.
	ErrModelInconsistency = errors.New("solution is inconsistent with the slideshow model")
	// ErrNoSolution is returned when the response carries no solution.
	ErrNoSolution = errors.New("response has no solution")
)

// InconsistencyError reports a solution value that breaks a slideshow property.
type InconsistencyError struct {
	// Check names the violated property.
	Check string
	// Slide is the slide position involved, or -1.
	Slide  int
	Detail string
}

func (e *InconsistencyError) Error() string {
	if e.Slide < 0 {
		return fmt.Sprintf("%v: %s: %s", ErrModelInconsistency, e.Check, e.Detail)
	}
	return fmt.Sprintf("%v: %s on slide %d: %s", ErrModelInconsistency, e.Check, e.Slide, e.Detail)
}

func (e *InconsistencyError) Unwrap() error {
	return ErrModelInconsistency
}

// Slide holds the photo indices shown together, ordered by position then index.
type Slide struct {
	Photos []int
}

func (s Slide) String() string {
	parts := make([]string, len(s.Photos))
	for i, p := range s.Photos {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, " ")
}

// Slideshow is the ordered list of used slides.
type Slideshow struct {
	Slides []Slide
}

// Len returns the number of slides.
func (s Slideshow) Len() int {
	return len(s.Slides)
}

// Decode reads the used slides of `r` in increasing position. It does not modify its inputs.
func Decode(sc *slidemodel.Schema, r *mipmodel.Response) (Slideshow, error) {
	if !r.HasSolution() {
		return Slideshow{}, ErrNoSolution
	}
	var show Slideshow
	for s := 0; s < sc.SMax; s++ {
		if !mipmodel.SolutionBooleanValue(r, sc.Used[s]) {
			continue
		}
		var photos []int
		for p := 0; p < 2; p++ {
			for i := range sc.Assign {
				if mipmodel.SolutionBooleanValue(r, sc.Assign[i][s][p]) {
					photos = append(photos, i)
				}
			}
		}
		if len(photos) == 0 || len(photos) > 2 {
			return Slideshow{}, &InconsistencyError{
				Check:  "occupancy",
				Slide:  s,
				Detail: fmt.Sprintf("used slide holds %d photos", len(photos)),
			}
		}
		show.Slides = append(show.Slides, Slide{Photos: photos})
	}
	log.V(1).Infof("decoded %d slides", show.Len())
	return show, nil
}

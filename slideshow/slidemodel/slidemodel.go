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

// Package slidemodel builds the mixed-integer model of a slideshow: photos are assigned to
// (slide, position) slots, slide tags are derived from their photos, and the objective sums,
// over consecutive slides, the minimum of shared tags, tags only on the left and tags only on
// the right.
//
// All products and minimums are linearized, so the model only holds linear constraints plus,
// with MinEncodingNative, one min constraint per slide pair.
package slidemodel

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/golang/glog"

	"github.com/slideopt/slideshow/mip/mipmodel"
	"github.com/slideopt/slideshow/slideshow/photo"
)

// ErrUnknownMinEncoding is returned by ParseMinEncoding.
var ErrUnknownMinEncoding = errors.New("unknown min encoding")

// MinEncoding selects how pair scores are tied to the per-pair totals.
type MinEncoding int

const (
	// MinEncodingNative posts pair_score == min(totals) as a min constraint.
	MinEncodingNative MinEncoding = iota
	// MinEncodingUpperBound posts pair_score <= total for each total. Maximizing the objective
	// makes the tightest bound binding.
	MinEncodingUpperBound
)

func (e MinEncoding) String() string {
	switch e {
	case MinEncodingNative:
		return "native"
	case MinEncodingUpperBound:
		return "upper-bound"
	}
	return fmt.Sprintf("MinEncoding(%d)", int(e))
}

// ParseMinEncoding parses the String form of a MinEncoding.
func ParseMinEncoding(s string) (MinEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "native", "":
		return MinEncodingNative, nil
	case "upper-bound", "upperbound", "upper_bound":
		return MinEncodingUpperBound, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownMinEncoding)
}

// Options tunes the model.
type Options struct {
	MinEncoding MinEncoding
	// ExclusiveSlots adds, for every (slide, position), the constraint that at most one photo
	// sits there. It is off by default. The optimum does not change: two photos sharing a
	// position of a slide can always be moved to positions 0 and 1 with equal slide tags.
	ExclusiveSlots bool
}

// DefaultOptions returns the native min encoding without the exclusive slot group.
func DefaultOptions() Options {
	return Options{MinEncoding: MinEncodingNative}
}

// Model is a built slideshow model.
type Model struct {
	Dataset *photo.Dataset
	Schema  *Schema
	Options Options
	Mip     *mipmodel.MipModel
}

// Build creates the model of `ds`.
func Build(ds *photo.Dataset, opts Options) (*Model, error) {
	b := mipmodel.NewMipModelBuilder()
	b.SetName("slideshow")

	sc := NewSchema(b, ds.NumPhotos(), ds.NumTags(), ds.MaxSlides())
	cb := &constraintBuilder{b: b, ds: ds, sc: sc}
	cb.postSingleUse()
	cb.postMonotoneUsage()
	cb.postUsageOccupancy()
	cb.postSlideTags()
	cb.postOrientationCapacity()
	if opts.ExclusiveSlots {
		cb.postExclusiveSlots()
	}
	cb.postPairLinearization()
	cb.postTotals()
	cb.postPairScores(opts.MinEncoding)
	cb.postNonEmpty()
	cb.postObjective()

	m, err := b.Model()
	if err != nil {
		return nil, fmt.Errorf("building slideshow model: %w", err)
	}
	log.Infof("slideshow model: %d photos, %d tags, %d slides max, %d variables, %d constraints",
		sc.N, sc.T, sc.SMax, len(m.Variables), len(m.Constraints))
	return &Model{Dataset: ds, Schema: sc, Options: opts, Mip: m}, nil
}

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

// Package photo reads slideshow datasets: a photo count followed by one orientation and tag
// record per photo.
//
// The `Dataset` struct holds the parsed photos, the tag vocabulary in first-encounter order,
// and the photo x tag incidence matrix.
package photo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Orientation is the orientation of a photo.
type Orientation int

const (
	// Horizontal photos fill a slide on their own.
	Horizontal Orientation = iota
	// Vertical photos are shown two per slide.
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "H"
	case Vertical:
		return "V"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Photo is one record of a dataset.
type Photo struct {
	Index       int
	Orientation Orientation
	// Tags are vocabulary indices, without duplicates, in the order they first appear on
	// the record.
	Tags []int
}

// Weight returns the share of a slide the photo takes, out of 2.
func (p Photo) Weight() int64 {
	if p.Orientation == Horizontal {
		return 2
	}
	return 1
}

// Vocabulary maps tag strings to dense indices in first-encounter order.
type Vocabulary struct {
	names []string
	index map[string]int
}

// NewVocabulary creates an empty Vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{index: make(map[string]int)}
}

// Len returns the number of distinct tags.
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// Name returns the tag string of index `t`.
func (v *Vocabulary) Name(t int) string {
	return v.names[t]
}

// Names returns every tag string, by index.
func (v *Vocabulary) Names() []string {
	return append([]string(nil), v.names...)
}

// Lookup returns the index of `name`, and false if it is not in the vocabulary.
func (v *Vocabulary) Lookup(name string) (int, bool) {
	t, ok := v.index[name]
	return t, ok
}

// Add returns the index of `name`, adding it to the vocabulary if needed.
func (v *Vocabulary) Add(name string) int {
	if t, ok := v.index[name]; ok {
		return t
	}
	t := len(v.names)
	v.names = append(v.names, name)
	v.index[name] = t
	return t
}

// Dataset is a parsed dataset. It is immutable after parsing.
type Dataset struct {
	Photos []Photo
	Tags   *Vocabulary

	incidence *mat.Dense
}

// NewDataset builds a Dataset and its incidence matrix from photos whose tags index `tags`.
func NewDataset(photos []Photo, tags *Vocabulary) *Dataset {
	if tags == nil {
		tags = NewVocabulary()
	}
	d := &Dataset{Photos: photos, Tags: tags}
	if len(photos) == 0 || tags.Len() == 0 {
		return d
	}
	d.incidence = mat.NewDense(len(photos), tags.Len(), nil)
	for i, p := range photos {
		for _, t := range p.Tags {
			d.incidence.Set(i, t, 1)
		}
	}
	return d
}

// NumPhotos returns N.
func (d *Dataset) NumPhotos() int {
	return len(d.Photos)
}

// NumTags returns T.
func (d *Dataset) NumTags() int {
	return d.Tags.Len()
}

// Incidence returns the N x T matrix whose (i, t) entry is 1 when photo i carries tag t, and 0
// otherwise. It is nil when the dataset has no photo or no tag. Callers must not modify it.
func (d *Dataset) Incidence() *mat.Dense {
	return d.incidence
}

// HasTag reports whether photo `i` carries tag `t`.
func (d *Dataset) HasTag(i, t int) bool {
	if d.incidence == nil {
		return false
	}
	return d.incidence.At(i, t) == 1
}

// NumHorizontal returns the number of horizontal photos.
func (d *Dataset) NumHorizontal() int {
	n := 0
	for _, p := range d.Photos {
		if p.Orientation == Horizontal {
			n++
		}
	}
	return n
}

// NumVertical returns the number of vertical photos.
func (d *Dataset) NumVertical() int {
	return len(d.Photos) - d.NumHorizontal()
}

// MaxSlides returns the largest number of slides the photos can fill: one per horizontal
// photo plus one per pair of vertical photos.
func (d *Dataset) MaxSlides() int {
	return d.NumHorizontal() + d.NumVertical()/2
}

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

package photo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/golang/glog"
)

var (
	// ErrInvalidCount is reported when the first line is not a non-negative integer.
	ErrInvalidCount = errors.New("photo count is not a non-negative integer")
	// ErrTagCountMismatch is reported when a record's tag count is not an integer or does not
	// match the number of listed tags.
	ErrTagCountMismatch = errors.New("tag count does not match the listed tags")
	// ErrMissingRecord is reported when the input ends before the announced number of records.
	ErrMissingRecord = errors.New("missing photo record")
)

const maxLineBytes = 16 << 20

// ParseError locates a malformed line of a dataset.
type ParseError struct {
	// Line is 1-based.
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadFile parses the dataset stored at `path`.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse reads a dataset. The first line holds the photo count N; each of the next N lines
// holds `<H|V> <tag_count> <tags...>`. Any orientation other than "H" is vertical. Lines after
// the N-th record are ignored.
func Parse(r io.Reader) (*Dataset, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return sc.Text(), true
	}

	first, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Line: 1, Err: ErrInvalidCount}
	}
	n, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || n < 0 {
		return nil, &ParseError{Line: line, Text: first, Err: ErrInvalidCount}
	}

	tags := NewVocabulary()
	photos := make([]Photo, 0, n)
	for i := 0; i < n; i++ {
		text, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, &ParseError{Line: line + 1, Err: fmt.Errorf("record %d of %d: %w", i, n, ErrMissingRecord)}
		}
		p, err := parseRecord(i, text, tags)
		if err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: err}
		}
		photos = append(photos, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	d := NewDataset(photos, tags)
	log.V(1).Infof("parsed %d photos (%d horizontal, %d vertical) with %d distinct tags",
		d.NumPhotos(), d.NumHorizontal(), d.NumVertical(), d.NumTags())
	return d, nil
}

func parseRecord(i int, text string, tags *Vocabulary) (Photo, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Photo{}, ErrMissingRecord
	}
	p := Photo{Index: i, Orientation: Vertical}
	if fields[0] == "H" {
		p.Orientation = Horizontal
	}
	if len(fields) < 2 {
		return Photo{}, ErrTagCountMismatch
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count != len(fields)-2 {
		return Photo{}, ErrTagCountMismatch
	}

	seen := make(map[int]bool, count)
	for _, name := range fields[2:] {
		t := tags.Add(name)
		if !seen[t] {
			seen[t] = true
			p.Tags = append(p.Tags, t)
		}
	}
	return p, nil
}

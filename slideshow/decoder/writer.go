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

package decoder

import (
	"bufio"
	"fmt"
	"io"
	"os"

	log "github.com/golang/glog"
)

// DefaultOutputPath is where the slideshow is written unless configured otherwise.
const DefaultOutputPath = "slideshow.sol"

// WriteTo writes the slide count, then one line per slide with its photo indices.
func (s Slideshow) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	n, err := fmt.Fprintf(bw, "%d\n", s.Len())
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, slide := range s.Slides {
		n, err := fmt.Fprintf(bw, "%s\n", slide)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

// WriteFile writes the slideshow to `path`, replacing any existing file.
func WriteFile(path string, s Slideshow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating slideshow output: %w", err)
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	log.Infof("wrote %d slides to %s", s.Len(), path)
	return nil
}

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

// Package config holds the settings of a slideshow run. Values are layered: defaults, then
// an optional YAML file, then SLIDESHOW_* environment variables (a .env file may provide
// them), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	log "github.com/golang/glog"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/slideopt/slideshow/slideshow/decoder"
	"github.com/slideopt/slideshow/slideshow/driver"
	"github.com/slideopt/slideshow/slideshow/slidemodel"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "SLIDESHOW_"

// ErrInvalidValue is wrapped by every validation and parsing error of this package.
var ErrInvalidValue = errors.New("invalid configuration value")

// Config is the configuration of a run.
type Config struct {
	// Output is the slideshow file.
	Output string `yaml:"output"`
	// Report, if set, receives a JSON solve report.
	Report string `yaml:"report"`
	// ObjectiveStop stops the search once an incumbent reaches it. Negative disables it.
	ObjectiveStop  float64       `yaml:"objective_stop"`
	StallThreshold time.Duration `yaml:"stall_threshold"`
	GapEpsilon     float64       `yaml:"gap_epsilon"`
	// TimeLimit bounds the solve. Zero means no limit.
	TimeLimit        time.Duration `yaml:"time_limit"`
	ProgressInterval int64         `yaml:"progress_interval"`
	MinEncoding      string        `yaml:"min_encoding"`
	ExclusiveSlots   bool          `yaml:"exclusive_slots"`
	ShowProgress     bool          `yaml:"show_progress"`
}

// Default returns the settings of a standard run.
func Default() *Config {
	d := driver.DefaultOptions()
	m := slidemodel.DefaultOptions()
	return &Config{
		Output:         decoder.DefaultOutputPath,
		ObjectiveStop:  d.ObjectiveStop,
		StallThreshold: d.StallThreshold,
		GapEpsilon:     d.GapEpsilon,
		MinEncoding:    m.MinEncoding.String(),
		ExclusiveSlots: m.ExclusiveSlots,
	}
}

// Load returns the defaults overlaid with the YAML file at `path` (skipped when empty) and
// the environment. A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile overlays the YAML file at `path`. Unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, path, err)
	}
	log.V(1).Infof("loaded config %s", path)
	return nil
}

// LoadDotEnv loads the given .env files, or ".env" when none is given, without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", name, err)
		}
		log.V(1).Infof("loaded environment from %s", name)
	}
	return nil
}

// ApplyEnv overlays the SLIDESHOW_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) error {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
		return nil
	}
	parsed := func(key string, parse func(string) error) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		if err := parse(v); err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalidValue, EnvPrefix, key, v, err)
		}
		return nil
	}
	float := func(dst *float64) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.ParseFloat(v, 64)
			return err
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			return err
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.ParseBool(v)
			return err
		}
	}

	return errors.Join(
		str("OUTPUT", &c.Output),
		str("REPORT", &c.Report),
		str("MIN_ENCODING", &c.MinEncoding),
		parsed("OBJECTIVE_STOP", float(&c.ObjectiveStop)),
		parsed("GAP_EPSILON", float(&c.GapEpsilon)),
		parsed("STALL_THRESHOLD", duration(&c.StallThreshold)),
		parsed("TIME_LIMIT", duration(&c.TimeLimit)),
		parsed("PROGRESS_INTERVAL", func(v string) (err error) {
			c.ProgressInterval, err = strconv.ParseInt(v, 10, 64)
			return err
		}),
		parsed("EXCLUSIVE_SLOTS", boolean(&c.ExclusiveSlots)),
		parsed("SHOW_PROGRESS", boolean(&c.ShowProgress)),
	)
}

// Validate checks the ranges of every field.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidValue}, a...)...))
	}
	if c.Output == "" {
		invalid("output path is empty")
	}
	if c.StallThreshold <= 0 {
		invalid("stall threshold %v must be positive", c.StallThreshold)
	}
	if c.GapEpsilon < 0 {
		invalid("gap epsilon %v must not be negative", c.GapEpsilon)
	}
	if c.TimeLimit < 0 {
		invalid("time limit %v must not be negative", c.TimeLimit)
	}
	if c.ProgressInterval < 0 {
		invalid("progress interval %v must not be negative", c.ProgressInterval)
	}
	if _, err := slidemodel.ParseMinEncoding(c.MinEncoding); err != nil {
		invalid("%v", err)
	}
	return errors.Join(errs...)
}

// ModelOptions returns the model options selected by `c`.
func (c *Config) ModelOptions() (slidemodel.Options, error) {
	enc, err := slidemodel.ParseMinEncoding(c.MinEncoding)
	if err != nil {
		return slidemodel.Options{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return slidemodel.Options{MinEncoding: enc, ExclusiveSlots: c.ExclusiveSlots}, nil
}

// DriverOptions returns the driver options selected by `c`.
func (c *Config) DriverOptions() driver.Options {
	return driver.Options{
		ObjectiveStop:    c.ObjectiveStop,
		GapEpsilon:       c.GapEpsilon,
		StallThreshold:   c.StallThreshold,
		TimeLimit:        c.TimeLimit,
		ProgressInterval: c.ProgressInterval,
		LogProgress:      bool(log.V(2)),
	}
}

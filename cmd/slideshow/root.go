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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/slideopt/slideshow/slideshow/config"
	"github.com/slideopt/slideshow/slideshow/decoder"
	"github.com/slideopt/slideshow/slideshow/driver"
	"github.com/slideopt/slideshow/slideshow/photo"
	"github.com/slideopt/slideshow/slideshow/slidemodel"
)

var (
	// ErrMissingArgument means no dataset path was given.
	ErrMissingArgument = errors.New("expected exactly one dataset path")
	// ErrNoSuchFile means the dataset path does not name a regular file.
	ErrNoSuchFile = errors.New("dataset file does not exist")
	// ErrNotTxt means the dataset name does not end in .txt.
	ErrNotTxt = errors.New("dataset file must have a .txt extension")
)

// UsageError reports a bad command line.
type UsageError struct {
	Arg string
	Err error
}

func (e *UsageError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("usage: slideshow <dataset.txt>: %v", e.Err)
	}
	return fmt.Sprintf("usage: slideshow <dataset.txt>: %q: %v", e.Arg, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// checkDataset validates the positional arguments.
func checkDataset(args []string) error {
	if len(args) != 1 {
		return &UsageError{Err: ErrMissingArgument}
	}
	path := args[0]
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &UsageError{Arg: path, Err: ErrNoSuchFile}
	}
	if !strings.HasSuffix(strings.ToLower(path), ".txt") {
		return &UsageError{Arg: path, Err: ErrNotTxt}
	}
	return nil
}

type flagValues struct {
	configPath     string
	output         string
	report         string
	timeLimit      time.Duration
	objectiveStop  float64
	stallThreshold time.Duration
	minEncoding    string
	progress       bool
}

// apply overlays the flags set on the command line.
func (fv *flagValues) apply(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed
	if changed("output") {
		c.Output = fv.output
	}
	if changed("report") {
		c.Report = fv.report
	}
	if changed("objective-stop") {
		c.ObjectiveStop = fv.objectiveStop
	}
	if changed("min-encoding") {
		c.MinEncoding = fv.minEncoding
	}
	if changed("progress") {
		c.ShowProgress = fv.progress
	}
	if changed("time-limit") {
		c.TimeLimit = fv.timeLimit
	}
	if changed("stall-threshold") {
		c.StallThreshold = fv.stallThreshold
	}
}

func newRootCmd() *cobra.Command {
	fv := &flagValues{}
	cmd := &cobra.Command{
		Use:   "slideshow <dataset.txt>",
		Short: "Order a photo collection into the most interesting slideshow",
		Long: `slideshow reads a photo dataset (one photo per line: orientation, tag count, tags),
builds a mixed-integer model of the slideshow and solves it. Horizontal photos form a slide
alone, vertical photos in pairs. The interest factor of two consecutive slides is the
minimum of their common tags, the tags only in the first and the tags only in the second.`,
		Args:          func(_ *cobra.Command, args []string) error { return checkDataset(args) },
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(fv.configPath)
			if err != nil {
				return err
			}
			fv.apply(cmd, c)
			if err := c.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, c, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&fv.configPath, "config", "", "YAML configuration file")
	f.StringVarP(&fv.output, "output", "o", decoder.DefaultOutputPath, "slideshow output file")
	f.StringVar(&fv.report, "report", "", "write a JSON solve report to this file")
	f.DurationVar(&fv.timeLimit, "time-limit", 0, "wall-time limit of the solve, 0 for none")
	f.Float64Var(&fv.objectiveStop, "objective-stop", driver.DefaultObjectiveStop, "stop once an incumbent reaches this objective, negative to disable")
	f.DurationVar(&fv.stallThreshold, "stall-threshold", driver.DefaultStallThreshold, "stop when the optimality gap has not moved for this long")
	f.StringVar(&fv.minEncoding, "min-encoding", slidemodel.MinEncodingNative.String(), "pair score encoding: native or upper-bound")
	f.BoolVar(&fv.progress, "progress", false, "show a progress spinner on stderr")

	// glog reads its flags from the standard flag set.
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	if err := flag.Set("logtostderr", "true"); err != nil {
		log.Warningf("setting -logtostderr: %v", err)
	}
	return cmd
}

// run solves the dataset at `path` and writes the slideshow.
func run(ctx context.Context, c *config.Config, path string, stdout, stderr io.Writer) error {
	ds, err := photo.ReadFile(path)
	if err != nil {
		return err
	}
	modelOpts, err := c.ModelOptions()
	if err != nil {
		return err
	}
	m, err := slidemodel.Build(ds, modelOpts)
	if err != nil {
		return err
	}

	driverOpts := c.DriverOptions()
	if c.ShowProgress {
		spinner := driver.NewSpinner(stderr)
		driverOpts.OnProgress = spinner.Observe
		defer func() {
			if err := spinner.Close(); err != nil {
				log.Warningf("closing progress display: %v", err)
			}
		}()
	}
	res, err := driver.New(nil, driverOpts).Solve(ctx, m)
	if err != nil {
		return err
	}

	show, err := decoder.Decode(m.Schema, res.Response)
	if err != nil {
		return err
	}
	if err := decoder.Validate(ds, m.Schema, res.Response, m.Options.MinEncoding); err != nil {
		return err
	}
	if err := decoder.WriteFile(c.Output, show); err != nil {
		return err
	}
	if c.Report != "" {
		report := decoder.NewReport(filepath.Base(path), res.Response, res.StallTerminated, show)
		if err := report.WriteFile(c.Report); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "%s: %d slides, interest factor %v (%v, %v), written to %s\n",
		filepath.Base(path), show.Len(), res.Response.ObjectiveValue, res.Response.Status, res.Response.Termination, c.Output)
	return nil
}

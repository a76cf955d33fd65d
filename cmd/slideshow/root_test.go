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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const chain = `3
H 2 a b
H 2 b c
H 2 c d
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "photos.csv", chain)

	testCases := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "NoArgument", args: nil, wantErr: ErrMissingArgument},
		{name: "TwoArguments", args: []string{csv, csv}, wantErr: ErrMissingArgument},
		{name: "MissingFile", args: []string{filepath.Join(dir, "missing.txt")}, wantErr: ErrNoSuchFile},
		{name: "Directory", args: []string{dir}, wantErr: ErrNoSuchFile},
		{name: "WrongExtension", args: []string{csv}, wantErr: ErrNotTxt},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := execute(t, test.args...)
			require.ErrorIs(t, err, test.wantErr)
			var ue *UsageError
			require.ErrorAs(t, err, &ue)
		})
	}
}

func TestCheckDataset_CaseInsensitiveExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "PHOTOS.TXT", chain)
	assert.NoError(t, checkDataset([]string{path}))
}

func TestRootCmd_Solve(t *testing.T) {
	dir := t.TempDir()
	dataset := writeFile(t, dir, "chain.txt", chain)
	output := filepath.Join(dir, "out.sol")
	report := filepath.Join(dir, "report.json")

	stdout, err := execute(t, dataset, "--output", output, "--report", report, "--min-encoding", "upper-bound")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 slides")

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "3", lines[0])
	// Photo 1 is the only one sharing a tag with both others.
	assert.Equal(t, "1", lines[2])

	b, err = os.ReadFile(report)
	require.NoError(t, err)
	got := &structpb.Struct{}
	require.NoError(t, protojson.Unmarshal(b, got))
	assert.Equal(t, "chain.txt", got.GetFields()["dataset"].GetStringValue())
	assert.Equal(t, "OPTIMAL", got.GetFields()["status"].GetStringValue())
	assert.Equal(t, 2.0, got.GetFields()["objective"].GetNumberValue())
}

func TestRootCmd_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	dataset := writeFile(t, dir, "pair.txt", "2\nV 1 a\nV 1 b\n")
	output := filepath.Join(dir, "from-config.sol")
	cfg := writeFile(t, dir, "slideshow.yaml", "output: "+output+"\nobjective_stop: -1\n")

	_, err := execute(t, dataset, "--config", cfg)
	require.NoError(t, err)

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0])
	assert.ElementsMatch(t, []string{"0", "1"}, strings.Fields(lines[1]))
}

func TestRootCmd_Progress(t *testing.T) {
	dir := t.TempDir()
	dataset := writeFile(t, dir, "chain.txt", chain)
	output := filepath.Join(dir, "progress.sol")

	stdout, err := execute(t, dataset, "--output", output, "--progress", "--objective-stop", "-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 slides")
	_, err = os.Stat(output)
	assert.NoError(t, err)
}

func TestRootCmd_InvalidFlags(t *testing.T) {
	dir := t.TempDir()
	dataset := writeFile(t, dir, "chain.txt", chain)

	_, err := execute(t, dataset, "--min-encoding", "big-m", "--output", filepath.Join(dir, "x.sol"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "big-m")
}

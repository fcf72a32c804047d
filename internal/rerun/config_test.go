// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rerun_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testkit_file "github.com/codeactual/rerun/internal/cage/testkit/os/file"
	testkit_filepath "github.com/codeactual/rerun/internal/cage/testkit/path/filepath"
	"github.com/codeactual/rerun/internal/rerun"
)

func TestFinalizeConfigDefaults(t *testing.T) {
	cfg := rerun.Config{Command: []string{"echo", "hi"}}

	require.NoError(t, rerun.FinalizeConfig(&cfg))

	require.Exactly(t, 50*time.Millisecond, cfg.GetDebounce())
	require.Exactly(t, rerun.BusyQueue, cfg.GetOnBusy())
	require.Len(t, cfg.Path, 1)
	require.Exactly(t, testkit_filepath.Abs(t, "."), cfg.Path[0])
}

func TestFinalizeConfigRejects(t *testing.T) {
	testkit_file.ResetTestdata(t)
	_, fileAbs := testkit_file.CreateFile(t, "not_a_dir")

	cases := []struct {
		label   string
		cfg     rerun.Config
		errPart string
	}{
		{
			label:   "unparseable debounce",
			cfg:     rerun.Config{Debounce: "soon", Command: []string{"echo"}},
			errPart: "failed to parse Debounce",
		},
		{
			label:   "negative debounce",
			cfg:     rerun.Config{Debounce: "-5ms", Command: []string{"echo"}},
			errPart: "cannot be negative",
		},
		{
			label:   "missing watch root",
			cfg:     rerun.Config{Path: []string{"testdata/dynamic/absent"}, Command: []string{"echo"}},
			errPart: "does not exist",
		},
		{
			label:   "watch root is a file",
			cfg:     rerun.Config{Path: []string{fileAbs}, Command: []string{"echo"}},
			errPart: "is not a directory",
		},
		{
			label:   "unknown busy policy",
			cfg:     rerun.Config{OnBusy: "drop", Command: []string{"echo"}},
			errPart: "must be one of",
		},
		{
			label:   "missing command",
			cfg:     rerun.Config{},
			errPart: "command to execute is required",
		},
		{
			label:   "pipeline in Cmd",
			cfg:     rerun.Config{Cmd: "go build | tee log"},
			errPart: "not supported",
		},
	}

	for _, c := range cases {
		err := rerun.FinalizeConfig(&c.cfg)
		require.Error(t, err, c.label)
		require.Contains(t, err.Error(), c.errPart, c.label)
	}
}

func TestReadConfigFile(t *testing.T) {
	testkit_file.ResetTestdata(t)

	yaml := strings.Join([]string{
		"Debounce: 200ms",
		"OnBusy: restart",
		"SkipIgnoreFiles: true",
		`Cmd: go test ./...`,
		"",
	}, "\n")
	relPath, _ := testkit_file.WriteFile(t, yaml, "config.yml")

	cfg, err := rerun.ReadConfigFile(relPath)
	require.NoError(t, err)
	require.NoError(t, rerun.FinalizeConfig(&cfg))

	require.Exactly(t, 200*time.Millisecond, cfg.GetDebounce())
	require.Exactly(t, rerun.BusyRestart, cfg.GetOnBusy())
	require.True(t, cfg.SkipIgnoreFiles)
	require.Exactly(t, []string{"go", "test", "./..."}, cfg.Command)
}

func TestReadConfigFileMissing(t *testing.T) {
	_, err := rerun.ReadConfigFile("testdata/dynamic/absent.yml")
	require.Error(t, err)
}

func TestCommandOverridesCmd(t *testing.T) {
	// Positional arguments from the CLI win over a config file Cmd string.
	cfg := rerun.Config{Cmd: "make lint", Command: []string{"make", "test"}}

	require.NoError(t, rerun.FinalizeConfig(&cfg))
	require.Exactly(t, []string{"make", "test"}, cfg.Command)
}

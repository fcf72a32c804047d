// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rerun

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	std_viper "github.com/spf13/viper"

	cage_viper "github.com/codeactual/rerun/internal/cage/config/viper"
	cage_file "github.com/codeactual/rerun/internal/cage/os/file"
	cage_shell "github.com/codeactual/rerun/internal/cage/shell"
)

// Config defines one watch-and-rerun session. It is immutable for the process
// lifetime once FinalizeConfig accepts it.
type Config struct {
	// Debounce is a time.Duration compatible string that defines how long to
	// wait after file activity settles before (re)executing the command.
	Debounce string

	// Path holds the watch root directories.
	Path []string

	// SkipIgnoreFiles disables loading of version-control ignore files, so no
	// path is excluded from triggering.
	SkipIgnoreFiles bool

	// OnBusy selects the policy for activity which settles mid-run.
	OnBusy string

	// Cmd holds the command as a single string. It is only read from config
	// files; FinalizeConfig parses it into Command.
	Cmd string

	// Command holds the command and its arguments. The CLI fills it from the
	// positional arguments.
	Command []string

	// debounce is the parsed version of Debounce.
	debounce time.Duration

	// onBusy is the validated version of OnBusy.
	onBusy BusyPolicy
}

// GetDebounce returns the parsed value of Debounce.
func (c Config) GetDebounce() time.Duration {
	return c.debounce
}

// GetOnBusy returns the validated value of OnBusy.
func (c Config) GetOnBusy() BusyPolicy {
	return c.onBusy
}

// ReadConfigFile converts a file to a Config value.
//
// Flag-level values are merged by the CLI afterward, so the file only needs to
// carry the fields the user chose to pin down.
func ReadConfigFile(name string) (c Config, err error) {
	file := std_viper.New()
	if err = cage_viper.ReadInConfig(file, name); err != nil {
		return Config{}, errors.WithStack(err)
	}

	if err = file.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrapf(err, "failed to unmarshal config from file [%s]", name)
	}

	return c, nil
}

// FinalizeConfig validates and finalizes Config fields.
func FinalizeConfig(c *Config) error {
	if c.Debounce == "" {
		c.Debounce = DefaultDebounce
	}
	var debounceErr error
	c.debounce, debounceErr = time.ParseDuration(c.Debounce)
	if debounceErr != nil {
		return errors.Wrapf(debounceErr, "failed to parse Debounce [%s]", c.Debounce)
	}
	if c.debounce < 0 {
		return errors.Errorf("Debounce [%s] cannot be negative", c.Debounce)
	}

	if len(c.Path) == 0 {
		c.Path = []string{DefaultPath}
	}
	for n := range c.Path {
		abs, absErr := filepath.Abs(c.Path[n])
		if absErr != nil {
			return errors.Wrapf(absErr, "failed to get absolute path of watch root [%s]", c.Path[n])
		}

		exists, fi, existsErr := cage_file.Exists(abs)
		if existsErr != nil {
			return errors.Wrapf(existsErr, "failed to verify watch root [%s] exists", abs)
		}
		if !exists {
			return errors.Errorf("watch root [%s] does not exist", abs)
		}
		if !fi.IsDir() {
			return errors.Errorf("watch root [%s] is not a directory", abs)
		}

		c.Path[n] = abs
	}

	if c.OnBusy == "" {
		c.OnBusy = string(BusyQueue)
	}
	switch BusyPolicy(c.OnBusy) {
	case BusyQueue, BusyRestart:
		c.onBusy = BusyPolicy(c.OnBusy)
	default:
		return errors.Errorf("OnBusy [%s] must be one of: %s, %s", c.OnBusy, BusyQueue, BusyRestart)
	}

	if len(c.Command) == 0 && c.Cmd != "" {
		parsed, parseErr := cage_shell.Parse(c.Cmd)
		if parseErr != nil {
			return errors.Wrapf(parseErr, "failed to parse Cmd [%s]", c.Cmd)
		}
		c.Command = parsed
	}
	if len(c.Command) == 0 {
		return errors.New("a command to execute is required")
	}

	return nil
}

// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package shell

import (
	shellwords "github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
)

// Parse returns the argument slice of a single command string.
//
// Pipelines and other shell operators are rejected: callers exec one argv
// directly rather than through a shell.
func Parse(s string) (args []string, err error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true // use os.GetEnv to expand variables

	args, err = parser.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse [%s]", s)
	}

	// Position is -1 when the whole string was consumed. Anything else means
	// the parser stopped at an operator such as "|" or ";".
	if parser.Position != -1 {
		return nil, errors.Errorf("failed to parse [%s]: pipelines/operators are not supported", s)
	}

	return args, nil
}

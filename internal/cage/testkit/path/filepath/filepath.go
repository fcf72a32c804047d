// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package filepath

import (
	std_filepath "path/filepath"
	"testing"

	"github.com/codeactual/rerun/internal/cage/testkit"
)

// Abs returns the absolute version of the path, failing the test on error.
func Abs(t *testing.T, name string) string {
	abs, err := std_filepath.Abs(name)
	testkit.FatalErrf(t, err, "failed to get absolute path of [%s]", name)
	return abs
}

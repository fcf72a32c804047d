// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rerun contains sub-packages which provide the CLI command, the internal API (internal/rerun)
// which supports the CLI, and the internal "standard library" (all other internal/*) which is automatically
// extracted from a private monorepo.
package rerun

// expand godoc content for the base import path
import (
	_ "github.com/codeactual/rerun/cmd/rerun/root"
	_ "github.com/codeactual/rerun/internal/rerun"
)

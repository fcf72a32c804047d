// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rerun provides mechanisms for configuration, file-activity monitoring,
// activity debouncing, and command execution.
package rerun

// BusyPolicy selects what happens when file activity settles while a command
// invocation is still in flight.
type BusyPolicy string

const (
	// BusyQueue records one pending re-run and starts it after the in-flight
	// invocation reaches a terminal outcome.
	BusyQueue BusyPolicy = "queue"

	// BusyRestart cancels the in-flight invocation and re-runs after it exits.
	BusyRestart BusyPolicy = "restart"
)

const (
	// DefaultDebounce is the quiet period applied when none is configured.
	DefaultDebounce = "50ms"

	// DefaultPath is the watch root applied when none is configured.
	DefaultPath = "."

	// IgnoreFileName is the per-directory ignore file loaded by IgnoreMatcher.
	IgnoreFileName = ".gitignore"
)

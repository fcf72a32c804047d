// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package file

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeactual/rerun/internal/cage/testkit"
)

// DynamicDataDir returns the path to the directory which holds fixtures
// created at runtime by tests (versus static checked-in fixtures).
func DynamicDataDir() string {
	return filepath.Join("testdata", "dynamic")
}

// ResetTestdata clears and recreates the dynamic fixture directory.
func ResetTestdata(t *testing.T) {
	dir := DynamicDataDir()
	testkit.FatalErrf(t, os.RemoveAll(dir), "failed to remove dir [%s]", dir)
	testkit.FatalErrf(t, os.MkdirAll(dir, 0755), "failed to create dir [%s]", dir)
}

// CreateFile creates an empty file at the path built from the joined parts,
// relative to the dynamic fixture directory, creating intermediate
// directories as needed. It returns the relative and absolute paths.
func CreateFile(t *testing.T, parts ...string) (relPath, absPath string) {
	relPath = filepath.Join(append([]string{DynamicDataDir()}, parts...)...)

	testkit.FatalErrf(t, os.MkdirAll(filepath.Dir(relPath), 0755), "failed to create dir of [%s]", relPath)

	f, err := os.Create(relPath)
	testkit.FatalErrf(t, err, "failed to create file [%s]", relPath)
	testkit.FatalErrf(t, f.Close(), "failed to close file [%s]", relPath)

	absPath, err = filepath.Abs(relPath)
	testkit.FatalErrf(t, err, "failed to get absolute path of [%s]", relPath)

	return relPath, absPath
}

// CreateDir creates a directory at the path built from the joined parts,
// relative to the dynamic fixture directory. It returns the relative and
// absolute paths.
func CreateDir(t *testing.T, parts ...string) (relPath, absPath string) {
	relPath = filepath.Join(append([]string{DynamicDataDir()}, parts...)...)

	testkit.FatalErrf(t, os.MkdirAll(relPath, 0755), "failed to create dir [%s]", relPath)

	absPath, err := filepath.Abs(relPath)
	testkit.FatalErrf(t, err, "failed to get absolute path of [%s]", relPath)

	return relPath, absPath
}

// WriteFile overwrites the file at the path built from the joined parts,
// relative to the dynamic fixture directory, with the input content.
func WriteFile(t *testing.T, content string, parts ...string) (relPath, absPath string) {
	relPath, absPath = CreateFile(t, parts...)
	testkit.FatalErrf(t, ioutil.WriteFile(relPath, []byte(content), 0644), "failed to write file [%s]", relPath)
	return relPath, absPath
}

// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rerun_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	testkit_file "github.com/codeactual/rerun/internal/cage/testkit/os/file"
	testkit_filepath "github.com/codeactual/rerun/internal/cage/testkit/path/filepath"
	"github.com/codeactual/rerun/internal/rerun"
)

func TestIgnoreSuite(t *testing.T) {
	suite.Run(t, new(IgnoreSuite))
}

type IgnoreSuite struct {
	suite.Suite

	root string
}

func (suite *IgnoreSuite) SetupTest() {
	t := suite.T()

	testkit_file.ResetTestdata(t)

	rootLines := []string{
		"# generated artifacts",
		"build/",
		"*.log",
		"!keep.log",
		"/anchored.txt",
		"",
	}
	_, _ = testkit_file.WriteFile(t, strings.Join(rootLines, "\n"), "proj", rerun.IgnoreFileName)
	_, _ = testkit_file.WriteFile(t, "secret\n", "proj", "sub", rerun.IgnoreFileName)

	suite.root = testkit_filepath.Abs(t, filepath.Join(testkit_file.DynamicDataDir(), "proj"))
}

func (suite *IgnoreSuite) newMatcher(enabled bool) *rerun.IgnoreMatcher {
	m, err := rerun.NewIgnoreMatcher([]string{suite.root}, enabled)
	require.NoError(suite.T(), err)
	return m
}

func (suite *IgnoreSuite) requireIgnored(m *rerun.IgnoreMatcher, expected bool, isDir bool, parts ...string) {
	t := suite.T()

	name := filepath.Join(append([]string{suite.root}, parts...)...)
	actual, err := m.Ignored(name, isDir)
	require.NoError(t, err)
	require.Exactly(t, expected, actual, name)
}

func (suite *IgnoreSuite) TestPatternForms() {
	m := suite.newMatcher(true)

	// dir-only rule, plus descendants of the ignored dir
	suite.requireIgnored(m, true, true, "build")
	suite.requireIgnored(m, true, false, "build", "out.o")
	suite.requireIgnored(m, true, false, "build", "deep", "out.o")
	suite.requireIgnored(m, false, false, "build") // a *file* named build is not covered

	// unanchored rule matches at any depth
	suite.requireIgnored(m, true, false, "app.log")
	suite.requireIgnored(m, true, false, "sub", "nested", "app.log")

	// negation, last match wins
	suite.requireIgnored(m, false, false, "keep.log")
	suite.requireIgnored(m, false, false, "sub", "keep.log")

	// anchored rule applies only at the ignore file's directory
	suite.requireIgnored(m, true, false, "anchored.txt")
	suite.requireIgnored(m, false, false, "sub", "anchored.txt")

	// nested ignore file scopes to its own subtree
	suite.requireIgnored(m, true, false, "sub", "secret")
	suite.requireIgnored(m, true, false, "sub", "deep", "secret")
	suite.requireIgnored(m, false, false, "secret")

	// everything else passes
	suite.requireIgnored(m, false, false, "main.go")
	suite.requireIgnored(m, false, true, "sub")
}

func (suite *IgnoreSuite) TestDisabledMatchesNothing() {
	m := suite.newMatcher(false)

	suite.requireIgnored(m, false, true, "build")
	suite.requireIgnored(m, false, false, "app.log")
	suite.requireIgnored(m, false, false, "sub", "secret")
}

func (suite *IgnoreSuite) TestOutsideRootPasses() {
	t := suite.T()
	m := suite.newMatcher(true)

	ignored, err := m.Ignored(filepath.Join(filepath.Dir(suite.root), "elsewhere", "app.log"), false)
	require.NoError(t, err)

	// Rules are scoped to the tree containing their ignore file. The rule root
	// here is the proj dir itself, so a sibling tree is out of scope.
	require.False(t, ignored)
}

func (suite *IgnoreSuite) TestMalformedPatternIsFatal() {
	t := suite.T()

	_, _ = testkit_file.WriteFile(t, "[\n", "proj", rerun.IgnoreFileName)

	_, err := rerun.NewIgnoreMatcher([]string{suite.root}, true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed pattern")
}

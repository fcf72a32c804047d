// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rerun

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pkg/errors"
)

// ignoreRule is one line of an ignore file, compiled to a doublestar pattern
// anchored at the directory containing the file.
type ignoreRule struct {
	// pattern is relative to root and uses "/" separators.
	pattern string

	// root is the absolute path of the directory containing the ignore file.
	root string

	// negate re-includes matching paths (the "!" prefix).
	negate bool

	// dirOnly restricts the rule to directories (the trailing "/" form).
	dirOnly bool
}

// match reports whether the rule applies to the path, which must be relative
// to rule.root and use "/" separators.
func (r ignoreRule) match(rel string, isDir bool) (bool, error) {
	if r.dirOnly && !isDir {
		return false, nil
	}
	matched, err := doublestar.Match(r.pattern, rel)
	if err != nil {
		return false, errors.Wrapf(err, "failed to match pattern [%s] against [%s]", r.pattern, rel)
	}
	return matched, nil
}

// IgnoreMatcher decides whether a path is excluded from triggering based on
// the version-control ignore files found under the watch roots.
//
// The supported syntax is the common subset: "#" comments, "!" negation with
// last-match-wins, trailing "/" directory rules, "/"-anchored rules, and
// doublestar globs for everything else. A path below an ignored directory is
// itself ignored.
type IgnoreMatcher struct {
	enabled bool
	rules   []ignoreRule
}

// NewIgnoreMatcher walks each root and loads every ignore file it finds.
//
// When enabled is false the matcher is inert and Ignored always returns false.
// A malformed pattern is returned as an error so callers can treat it as
// startup-fatal, before any watch loop begins.
func NewIgnoreMatcher(roots []string, enabled bool) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{enabled: enabled}

	if !enabled {
		return m, nil
	}

	for _, root := range roots {
		walkErr := filepath.Walk(root, func(name string, fi os.FileInfo, err error) error {
			if err != nil {
				return errors.Wrapf(err, "failed to walk [%s]", name)
			}
			if fi.IsDir() || fi.Name() != IgnoreFileName {
				return nil
			}
			return m.loadFile(name)
		})
		if walkErr != nil {
			return nil, errors.Wrapf(walkErr, "failed to load ignore files under [%s]", root)
		}
	}

	return m, nil
}

// loadFile parses one ignore file and appends its rules in order, so that
// later rules (and later files in the walk) win over earlier ones.
func (m *IgnoreMatcher) loadFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrapf(err, "failed to open ignore file [%s]", name)
	}
	defer func() { _ = f.Close() }()

	root, err := filepath.Abs(filepath.Dir(name))
	if err != nil {
		return errors.Wrapf(err, "failed to get absolute path of [%s]", name)
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule := ignoreRule{root: root}

		if strings.HasPrefix(line, "!") {
			rule.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			rule.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}

		if strings.HasPrefix(line, "/") {
			// Anchored to the ignore file's directory.
			rule.pattern = strings.TrimPrefix(line, "/")
		} else if strings.Contains(line, "/") {
			// A separator anywhere else also anchors the rule.
			rule.pattern = line
		} else {
			// No separator: match at any depth below the ignore file's directory.
			rule.pattern = "**/" + line
		}

		// Surface malformed patterns now instead of on the first event.
		if _, matchErr := doublestar.Match(rule.pattern, "probe"); matchErr != nil {
			return errors.Wrapf(matchErr, "ignore file [%s] contains a malformed pattern [%s]", name, line)
		}

		m.rules = append(m.rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "failed to read ignore file [%s]", name)
	}

	return nil
}

// Ignored returns whether the absolute path is excluded from triggering.
//
// The path's ancestor directories (below each rule's root) are also evaluated
// so that files under an ignored directory are excluded.
func (m *IgnoreMatcher) Ignored(name string, isDir bool) (bool, error) {
	if !m.enabled || len(m.rules) == 0 {
		return false, nil
	}

	ignored := false
	for _, rule := range m.rules {
		rel, relErr := filepath.Rel(rule.root, name)
		if relErr != nil || strings.HasPrefix(rel, "..") {
			continue // path is outside this rule's scope
		}
		rel = filepath.ToSlash(rel)

		matched, err := rule.match(rel, isDir)
		if err != nil {
			return false, errors.WithStack(err)
		}

		if !matched && !rule.negate {
			// Also treat a match on any ancestor directory as a match.
			for dir := pathParent(rel); dir != ""; dir = pathParent(dir) {
				dirMatch, dirErr := rule.match(dir, true)
				if dirErr != nil {
					return false, errors.WithStack(dirErr)
				}
				if dirMatch {
					matched = true
					break
				}
			}
		}

		if matched {
			ignored = !rule.negate // last matching rule wins
		}
	}

	return ignored, nil
}

// pathParent returns the parent of a "/"-separated relative path, or "" when
// there is none.
func pathParent(rel string) string {
	i := strings.LastIndex(rel, "/")
	if i <= 0 {
		return ""
	}
	return rel[:i]
}

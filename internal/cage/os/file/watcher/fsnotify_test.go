// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package watcher_test

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	cage_file "github.com/codeactual/rerun/internal/cage/os/file"
	"github.com/codeactual/rerun/internal/cage/os/file/watcher"
	testkit_file "github.com/codeactual/rerun/internal/cage/testkit/os/file"
)

const UnexpectedEventWait = 100 * time.Millisecond

func TestSuite(t *testing.T) {
	suite.Run(t, new(FsnotifySuite))
}

// Subscriber is a fake that only captures events/errors and decrements WaitGroups
// to allow tests to wait until all expected events/errors are collected.
type Subscriber struct {
	Events   []watcher.Event
	EventsWg sync.WaitGroup

	sync.RWMutex

	Errors   []error
	ErrorsWg sync.WaitGroup
}

func (s *Subscriber) Event(event watcher.Event) {
	s.Lock()
	defer s.Unlock()
	s.Events = append(s.Events, event)
	s.EventsWg.Done()
}

func (s *Subscriber) Error(err error) {
	s.Lock()
	defer s.Unlock()
	s.Errors = append(s.Errors, err)
	s.ErrorsWg.Done()
}

// EventAt returns a copy of the nth captured event.
func (s *Subscriber) EventAt(n int) watcher.Event {
	s.RLock()
	defer s.RUnlock()
	return s.Events[n]
}

// EventsLen returns the number of captured events.
func (s *Subscriber) EventsLen() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.Events)
}

type FsnotifySuite struct {
	suite.Suite

	w *watcher.Fsnotify
}

func (s *FsnotifySuite) SetupTest() {
	testkit_file.ResetTestdata(s.T())
	s.w = new(watcher.Fsnotify)
}

func (s *FsnotifySuite) TearDownTest() {
	// allow TestClose to not use s.w for its case and avoid closing an "unopened" watcher here
	// because s.w.AddPath (which starts the internal goroutine) was never called
	if s.w != nil {
		s.w.Close()
	}
}

func (s *FsnotifySuite) TestFileCreate() {
	t := s.T()

	sub := Subscriber{}
	sub.EventsWg.Add(1)

	err := s.w.AddSubscriber(&sub)
	require.NoError(t, err)

	err = s.w.AddPath(testkit_file.DynamicDataDir())
	require.NoError(t, err)

	_, absPath := testkit_file.CreateFile(t, "orig_file")

	sub.EventsWg.Wait()

	require.Exactly(t, watcher.Create, sub.EventAt(0).Op)
	require.Exactly(t, absPath, sub.EventAt(0).Path)

	require.Len(t, sub.Errors, 0)
}

func (s *FsnotifySuite) TestFileWriteViaDirWatch() {
	t := s.T()

	relPath, absPath := testkit_file.CreateFile(t, "orig_file")

	sub := Subscriber{}
	sub.EventsWg.Add(1)

	err := s.w.AddSubscriber(&sub)
	require.NoError(t, err)

	// Only the directory is watched; the write to its child is still observed.
	err = s.w.AddPath(testkit_file.DynamicDataDir())
	require.NoError(t, err)

	err = cage_file.AppendString(relPath, "orig_write")
	require.NoError(t, err)

	sub.EventsWg.Wait()

	require.Exactly(t, watcher.Write, sub.EventAt(0).Op)
	require.Exactly(t, absPath, sub.EventAt(0).Path)

	require.Len(t, sub.Errors, 0)
}

func (s *FsnotifySuite) TestAddTree() {
	t := s.T()

	_, _ = testkit_file.CreateDir(t, "proj", "a", "b")
	_, _ = testkit_file.CreateDir(t, "proj", "skipped")

	sub := Subscriber{}
	sub.EventsWg.Add(1)

	err := s.w.AddSubscriber(&sub)
	require.NoError(t, err)

	err = s.w.AddTree(filepath.Join(testkit_file.DynamicDataDir(), "proj"), func(dir string) bool {
		return strings.HasSuffix(dir, "skipped")
	})
	require.NoError(t, err)

	// Skipped subtrees receive no watch ...
	_, _ = testkit_file.CreateFile(t, "proj", "skipped", "invisible")
	time.Sleep(UnexpectedEventWait)
	require.Exactly(t, 0, sub.EventsLen())

	// ... while nested dirs do.
	_, absPath := testkit_file.CreateFile(t, "proj", "a", "b", "visible")

	sub.EventsWg.Wait()

	require.Exactly(t, watcher.Create, sub.EventAt(0).Op)
	require.Exactly(t, absPath, sub.EventAt(0).Path)

	require.Len(t, sub.Errors, 0)
}

func (s *FsnotifySuite) TestClose() {
	t := s.T()

	w := new(watcher.Fsnotify)
	s.w = nil

	sub := Subscriber{}

	err := w.AddSubscriber(&sub)
	require.NoError(t, err)

	err = w.AddPath(testkit_file.DynamicDataDir())
	require.NoError(t, err)

	err = w.Close()
	require.NoError(t, err)

	_, _ = testkit_file.CreateFile(t, "orig_file")

	// Give some time for a potential event to emit.
	time.Sleep(UnexpectedEventWait)

	require.Exactly(t, 0, sub.EventsLen())
	require.Len(t, sub.Errors, 0)
}

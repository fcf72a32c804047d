// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rerun

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	cage_zap "github.com/codeactual/rerun/internal/cage/log/zap"
	cage_exec "github.com/codeactual/rerun/internal/cage/os/exec"
	cage_file "github.com/codeactual/rerun/internal/cage/os/file"
	"github.com/codeactual/rerun/internal/cage/os/file/watcher"
	cage_time "github.com/codeactual/rerun/internal/cage/time"
)

// Session wires the filesystem monitor through the ignore filter into the
// Debouncer, and feeds triggers into the Runner, until its context ends.
//
// It implements cage/os/file/watcher.Subscriber to receive events/errors from
// the actual monitor, and reacts to whichever suspension source fires first
// (new event, debounce deadline, run exit, shutdown) from a single for-select.
type Session struct {
	// Config is the validated session configuration.
	Config Config

	// Debouncer coalesces event bursts into triggers.
	Debouncer *Debouncer

	// Log receives debug/info-level messages.
	Log *zap.Logger

	// Matcher excludes ignore-rule matches before they reach the Debouncer.
	Matcher *IgnoreMatcher

	// Runner owns the command lifecycle.
	Runner *Runner

	// Watcher is the actual filesystem monitor. Session is a subscriber of
	// events emitted by the monitor.
	Watcher watcher.Watcher

	eventCh chan watcher.Event
	errCh   chan error
}

// NewSession builds a ready-to-run Session from a finalized Config: it loads
// the ignore files, creates the debouncer/runner with real clock and executor,
// and registers the non-ignored directory trees with the monitor.
//
// Every returned error is startup-fatal; none of them can occur once Run has
// entered the watch loop.
func NewSession(log *zap.Logger, cfg Config) (*Session, error) {
	matcher, err := NewIgnoreMatcher(cfg.Path, !cfg.SkipIgnoreFiles)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	clock := cage_time.RealClock{}

	s := &Session{
		Config:    cfg,
		Debouncer: NewDebouncer(clock, cfg.GetDebounce(), log),
		Log:       log,
		Matcher:   matcher,
		Runner:    NewRunner(clock, cage_exec.CommonExecutor{}, cfg.Command, cfg.GetOnBusy(), log),
		Watcher:   new(watcher.Fsnotify),
		eventCh:   make(chan watcher.Event, 64),
		errCh:     make(chan error, 1),
	}

	if err := s.Watcher.AddSubscriber(s); err != nil {
		return nil, errors.Wrap(err, "failed to subscribe to filesystem monitor")
	}

	for _, root := range cfg.Path {
		if err := s.Watcher.AddTree(root, s.skipDir); err != nil {
			return nil, errors.WithStack(err)
		}
		log.Info("added watch root", cage_zap.Tag("session"), zap.String("path", root))
	}

	return s, nil
}

// skipDir keeps ignored subtrees out of the watch so they consume no
// notification resources.
func (s *Session) skipDir(dir string) bool {
	ignored, err := s.Matcher.Ignored(dir, true)
	if err != nil {
		s.Log.Info(
			"failed to evaluate ignore rules for dir, watching it anyway",
			cage_zap.Tag("session"),
			zap.String("path", dir),
			zap.Error(err),
		)
		return false
	}
	return ignored
}

// Event receives activity descriptions from the filesystem monitor.
//
// It implements cage/os/file/watcher.Subscriber. It only forwards into the
// watch loop so the monitor goroutine never blocks on loop work.
func (s *Session) Event(event watcher.Event) {
	s.eventCh <- event
}

// Error receives errors from the filesystem monitor.
//
// It implements cage/os/file/watcher.Subscriber. Watch-source errors are
// fatal for the loop: the core cannot make progress without events.
func (s *Session) Error(err error) {
	select { // Only the first error ends the loop; drop the rest.
	case s.errCh <- err:
	default:
	}
}

// Run executes the watch loop until ctx is canceled or the watch source fails.
//
// The Debouncer's Run goroutine must be started by the caller (see
// cmd/rerun/root for the errgroup wiring). On shutdown the monitor is closed
// and an in-flight command is left to finish.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		if err := s.Watcher.Close(); err != nil {
			s.Log.Info("failed to close filesystem monitor", cage_zap.Tag("session"), zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if s.Runner.Shutdown() {
				s.Log.Info("shutdown with command still running", cage_zap.Tag("session"))
			}
			return nil

		case event := <-s.eventCh:
			s.handleEvent(event)

		case <-s.Debouncer.Triggers():
			s.Runner.Trigger()

		case exit := <-s.Runner.Exits():
			s.Runner.Observe(exit)

		case err := <-s.errCh:
			return errors.Wrap(err, "watch source failed")
		}
	}
}

// handleEvent filters one raw event and feeds survivors to the Debouncer.
func (s *Session) handleEvent(event watcher.Event) {
	isDir := false
	if event.Op == watcher.Create || event.Op == watcher.Write {
		exists, fi, err := cage_file.Exists(event.Path)
		if err != nil {
			s.Log.Info("failed to inspect event path", cage_zap.Tag("session"), zap.String("path", event.Path), zap.Error(err))
			return
		}
		if !exists {
			return // assume it was deleted quickly
		}
		isDir = fi.IsDir()
	}

	ignored, err := s.Matcher.Ignored(event.Path, isDir)
	if err != nil {
		s.Log.Info("failed to evaluate ignore rules", cage_zap.Tag("session"), zap.String("path", event.Path), zap.Error(err))
		return
	}

	s.Log.Debug(
		"watcher event",
		cage_zap.Tag("session"),
		zap.String("op", event.Op.String()),
		zap.String("path", event.Path),
		zap.Bool("ignored", ignored),
	)

	if ignored {
		return
	}

	// Watch new directories so activity at any depth keeps triggering. Files
	// need no watch of their own: the directory watch observes their writes.
	if event.Op == watcher.Create && isDir {
		if err := s.Watcher.AddTree(event.Path, s.skipDir); err != nil {
			s.Log.Info("failed to watch new dir", cage_zap.Tag("session"), zap.String("path", event.Path), zap.Error(err))
		}
	}

	s.Debouncer.Accept()
}

var _ watcher.Subscriber = (*Session)(nil)

// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rerun

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	cage_zap "github.com/codeactual/rerun/internal/cage/log/zap"
	cage_exec "github.com/codeactual/rerun/internal/cage/os/exec"
	cage_time "github.com/codeactual/rerun/internal/cage/time"
)

// RunHandle represents a single in-flight invocation of the user command.
type RunHandle struct {
	// Id identifies the invocation in logs.
	Id string

	// StartTime is when the invocation spawned.
	StartTime time.Time

	handle cage_exec.Handle
	cancel context.CancelFunc
}

// RunExit describes the terminal outcome of one invocation.
type RunExit struct {
	// Id is a copy of the RunHandle.Id whose process exited.
	Id string

	// Result holds the process outcome.
	Result cage_exec.Result

	// RunLen is how long the process ran.
	RunLen time.Duration
}

// Runner executes the configured command exactly once per trigger and defines
// what happens when a trigger fires while an invocation is still in flight.
//
// The single live RunHandle and the boolean pending flag are shared between
// the trigger path and the completion path, so both are guarded by a mutex:
// a racing update could otherwise lose a pending re-run or double-spawn.
type Runner struct {
	// Clock supports start-time mocking for tests.
	Clock cage_time.Clock

	// Command holds the command and its arguments to execute.
	Command []string

	// Executor supports process mocking for tests.
	Executor cage_exec.Executor

	// Log receives debug/info-level messages.
	Log *zap.Logger

	// Policy selects queue-and-rerun-once or kill-and-restart behavior for
	// triggers which fire mid-run.
	Policy BusyPolicy

	// Stderr receives user-facing reports (spawn failures, non-zero exits).
	// It defaults to os.Stderr.
	Stderr io.Writer

	mu      sync.Mutex
	current *RunHandle
	pending bool
	exitCh  chan RunExit
}

// NewRunner returns an idle Runner.
func NewRunner(clock cage_time.Clock, executor cage_exec.Executor, command []string, policy BusyPolicy, log *zap.Logger) *Runner {
	return &Runner{
		Clock:    clock,
		Command:  command,
		Executor: executor,
		Log:      log,
		Policy:   policy,
		Stderr:   os.Stderr,
		exitCh:   make(chan RunExit, 1),
	}
}

// Exits emits one RunExit per finished invocation. The orchestrator must feed
// each value back through Observe.
func (r *Runner) Exits() <-chan RunExit {
	return r.exitCh
}

// Running returns whether an invocation is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Trigger consumes one trigger signal.
//
// If no invocation is running the command spawns immediately. Otherwise one
// pending re-run is recorded; pending state is a boolean, not a counter, so
// any number of triggers during one run collapse into a single re-run. Under
// the restart policy the in-flight invocation is also canceled.
func (r *Runner) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		r.spawn()
		return
	}

	r.pending = true

	if r.Policy == BusyRestart {
		r.Log.Info(
			"canceling run due to new activity",
			cage_zap.Tag("run"),
			zap.String("runId", r.current.Id),
		)
		r.current.cancel()
		return
	}

	r.Log.Info(
		"re-run pending until current run finishes",
		cage_zap.Tag("run"),
		zap.String("runId", r.current.Id),
	)
}

// Observe consumes one RunExit, reports the outcome, and starts the pending
// re-run if one was recorded.
func (r *Runner) Observe(exit RunExit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Log.Info(
		"command finished",
		cage_zap.Tag("run"),
		zap.String("runId", exit.Id),
		zap.Int("code", exit.Result.Code),
		zap.Bool("signaled", exit.Result.Signaled),
		zap.String("runLen", exit.RunLen.String()),
	)

	// Surface the child's outcome without interpreting it: a non-zero exit is
	// the command's business, not a failure of the watch loop.
	if exit.Result.Signaled {
		fmt.Fprintf(r.Stderr, "rerun: command exited without code (signaled) after %s\n", durafmt.Parse(exit.RunLen).String())
	} else if exit.Result.Code != 0 {
		fmt.Fprintf(r.Stderr, "rerun: command exited with code %d after %s\n", exit.Result.Code, durafmt.Parse(exit.RunLen).String())
	}

	if r.current != nil && r.current.Id == exit.Id {
		r.current = nil
	}

	if r.pending {
		r.pending = false
		r.spawn()
	}
}

// Shutdown reports whether a child was left running.
//
// No cancellation is performed: the default policy is to let an in-flight
// invocation finish rather than forward signals to it.
func (r *Runner) Shutdown() (childRunning bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = false
	if r.current == nil {
		return false
	}

	r.Log.Info(
		"leaving command to finish after shutdown",
		cage_zap.Tag("run"),
		zap.String("runId", r.current.Id),
		zap.Int("pid", r.current.handle.Pid()),
	)
	return true
}

// spawn starts one invocation. The caller must hold r.mu.
//
// A spawn failure is recoverable: it is reported and the Runner stays armed
// for the next trigger.
func (r *Runner) spawn() {
	// Per-run cancellation only: session shutdown does not kill the child,
	// so the context derives from Background rather than the session's.
	ctx, cancel := context.WithCancel(context.Background())

	handle, err := r.Executor.Inherit(ctx, r.Command[0], r.Command[1:]...)
	if err != nil {
		cancel()
		err = errors.Wrapf(err, "failed to spawn command [%s]", r.Command[0])
		r.Log.Error("spawn failed", cage_zap.Tag("run"), zap.Error(err))
		fmt.Fprintf(r.Stderr, "rerun: %s\n", err)
		return
	}

	run := &RunHandle{
		Id:        ksuid.New().String(),
		StartTime: r.Clock.Now(),
		handle:    handle,
		cancel:    cancel,
	}
	r.current = run

	r.Log.Info(
		"command started",
		cage_zap.Tag("run"),
		zap.String("runId", run.Id),
		zap.Int("pid", handle.Pid()),
		zap.Strings("command", r.Command),
	)

	go func() {
		res := handle.Wait()
		cancel()
		r.exitCh <- RunExit{
			Id:     run.Id,
			Result: res,
			RunLen: r.Clock.Now().Sub(run.StartTime),
		}
	}()
}

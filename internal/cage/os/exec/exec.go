// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package exec supports os/exec.Cmd mocking and inherited-stream execution.
package exec

import (
	"context"
	"os"
	std_exec "os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// Result describes the terminal outcome of one started process.
type Result struct {
	// Code is the exit code, or -1 if the process was killed by a signal
	// or never reached a normal exit.
	Code int

	// Signaled is true if the process was ended by a signal (including
	// context cancellation, which kills the process).
	Signaled bool

	// Err is non-nil if Wait itself failed or the process did not exit 0.
	Err error
}

// Handle represents one started process.
type Handle interface {
	Pid() int

	// Wait blocks until the process reaches a terminal outcome.
	//
	// It must be called exactly once.
	Wait() Result
}

// Executor starts processes on behalf of callers which need to substitute
// fakes in tests.
type Executor interface {
	// Inherit starts the command with the parent's standard input/output/error
	// streams attached, so the user sees live output, and returns a Handle for
	// observing completion.
	//
	// The process is killed if ctx is canceled before it exits.
	Inherit(ctx context.Context, name string, arg ...string) (Handle, error)
}

type CommonExecutor struct{}

func (e CommonExecutor) Inherit(ctx context.Context, name string, arg ...string) (Handle, error) {
	cmd := std_exec.CommandContext(ctx, name, arg...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start command [%s]", name)
	}

	return &commonHandle{cmd: cmd}, nil
}

var _ Executor = (*CommonExecutor)(nil)

type commonHandle struct {
	cmd *std_exec.Cmd
}

func (h *commonHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *commonHandle) Wait() Result {
	err := h.cmd.Wait()

	res := Result{Code: -1, Err: err}

	if state := h.cmd.ProcessState; state != nil {
		if status, ok := state.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				res.Signaled = true
			} else {
				res.Code = status.ExitStatus()
			}
		} else if state.Success() {
			res.Code = 0
		}
	}

	return res
}

var _ Handle = (*commonHandle)(nil)

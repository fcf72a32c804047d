// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Root command rerun watches directory trees and re-runs a command whenever
// file activity settles, skipping paths matched by version-control ignore files.
//
// Usage:
//
//	rerun [flags] <COMMAND> [ARGS...]
package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cage_zap "github.com/codeactual/rerun/internal/cage/log/zap"
	"github.com/codeactual/rerun/internal/rerun"
)

// Handler defines the command flags and logic.
type Handler struct {
	ConfigPath string
	DebounceMs uint
	OnBusy     string
	Path       []string
	SkipIgnore bool
	Verbose    bool

	Log *zap.Logger
}

// BindFlags binds the flags to Handler fields.
func (h *Handler) BindFlags(flags *pflag.FlagSet) {
	flags.UintVarP(&h.DebounceMs, "debounce", "d", 50, "quiet period in milliseconds after the last change before the command runs")
	flags.StringArrayVarP(&h.Path, "path", "p", []string{rerun.DefaultPath}, "directory tree to watch (repeatable)")
	flags.BoolVar(&h.SkipIgnore, "skip-ignore-files", false, "do not load version-control ignore files")
	flags.StringVar(&h.OnBusy, "on-busy", string(rerun.BusyQueue), "policy when changes settle mid-run: queue or restart")
	flags.StringVarP(&h.ConfigPath, "config", "c", "", "viper-readable config file with defaults for the above")
	flags.BoolVarP(&h.Verbose, "verbose", "v", false, "structured debug logging to stderr")
}

// Run performs the command logic. args holds the user command and its arguments.
func (h *Handler) Run(cmd *cobra.Command, args []string) error {
	var err error

	h.Log, err = cage_zap.NewLogger(h.Verbose)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer func() { _ = h.Log.Sync() }()

	cfg, err := h.buildConfig(cmd.Flags(), args)
	if err != nil {
		return errors.WithStack(err)
	}

	session, err := rerun.NewSession(h.Log, cfg)
	if err != nil {
		return errors.WithStack(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		s, ok := <-sigCh
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "rerun: received signal (%v)\n", s)
		cancel()
	}()

	h.Log.Info(
		"watching",
		cage_zap.Tag("root"),
		zap.Strings("paths", cfg.Path),
		zap.Duration("debounce", cfg.GetDebounce()),
		zap.Strings("command", cfg.Command),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return session.Debouncer.Run(groupCtx) })
	group.Go(func() error { return session.Run(groupCtx) })

	return errors.WithStack(group.Wait())
}

// buildConfig merges, highest precedence first: changed flags, the optional
// config file, built-in defaults (applied by FinalizeConfig).
func (h *Handler) buildConfig(flags *pflag.FlagSet, args []string) (rerun.Config, error) {
	var cfg rerun.Config
	var err error

	if h.ConfigPath != "" {
		cfg, err = rerun.ReadConfigFile(h.ConfigPath)
		if err != nil {
			return rerun.Config{}, errors.WithStack(err)
		}
	}

	if flags.Changed("debounce") || cfg.Debounce == "" {
		cfg.Debounce = fmt.Sprintf("%dms", h.DebounceMs)
	}
	if flags.Changed("path") || len(cfg.Path) == 0 {
		cfg.Path = h.Path
	}
	if flags.Changed("skip-ignore-files") {
		cfg.SkipIgnoreFiles = h.SkipIgnore
	}
	if flags.Changed("on-busy") || cfg.OnBusy == "" {
		cfg.OnBusy = h.OnBusy
	}
	if len(args) > 0 {
		cfg.Command = args
	}

	if err = rerun.FinalizeConfig(&cfg); err != nil {
		return rerun.Config{}, errors.WithStack(err)
	}

	return cfg, nil
}

// NewCommand returns a cobra command instance based on Handler.
func NewCommand() *cobra.Command {
	h := &Handler{}

	cmd := &cobra.Command{
		Use:   "rerun [flags] <COMMAND> [ARGS...]",
		Short: "Re-run a command when watched files settle",
		Example: strings.Join([]string{
			"rerun go test ./...",
			"rerun -d 200 -p src -p docs make build",
			"rerun --on-busy restart npm start",
		}, "\n"),
		RunE: h.Run,
	}

	// The first positional begins the user command; everything after it,
	// flag-shaped or not, belongs to that command.
	cmd.Flags().SetInterspersed(false)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	h.BindFlags(cmd.Flags())

	return cmd
}

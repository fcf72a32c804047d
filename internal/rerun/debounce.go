// Copyright (C) 2020 The rerun Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package rerun

import (
	"context"
	std_time "time"

	"go.uber.org/zap"

	cage_zap "github.com/codeactual/rerun/internal/cage/log/zap"
	cage_time "github.com/codeactual/rerun/internal/cage/time"
)

// Debouncer converts a bursty event stream into infrequent trigger signals.
//
// It owns a single sliding window: every accepted event re-arms the window to
// now + interval regardless of the event's path or kind, and a trigger is
// emitted only when the armed deadline elapses with no intervening event.
// Only the Run goroutine touches the timer, so "last accept wins" holds even
// when Accept is called from multiple goroutines.
type Debouncer struct {
	// Clock supports timer mocking for debounce-sensitive tests.
	Clock cage_time.Clock

	// Interval is the quiet period. Zero means a trigger fires at the next
	// scheduling opportunity after any accepted event.
	Interval std_time.Duration

	// Log receives debug-level messages.
	Log *zap.Logger

	acceptCh  chan struct{}
	triggerCh chan struct{}
}

// NewDebouncer returns an unarmed Debouncer; Run must be started for Accept
// and Triggers to have any effect.
func NewDebouncer(clock cage_time.Clock, interval std_time.Duration, log *zap.Logger) *Debouncer {
	return &Debouncer{
		Clock:     clock,
		Interval:  interval,
		Log:       log,
		acceptCh:  make(chan struct{}, 1),
		triggerCh: make(chan struct{}, 1),
	}
}

// Accept records one qualifying event, re-arming the window.
func (d *Debouncer) Accept() {
	d.acceptCh <- struct{}{}
}

// Triggers emits one value per elapsed quiet period.
//
// The channel has capacity 1 and an undelivered trigger absorbs later ones:
// collapsing is safe because the run controller collapses again through its
// pending flag.
func (d *Debouncer) Triggers() <-chan struct{} {
	return d.triggerCh
}

// Run owns the window timer until ctx is canceled.
//
// It should run in its own goroutine because its for-select blocks.
func (d *Debouncer) Run(ctx context.Context) error {
	var timer cage_time.Timer
	var timerC <-chan std_time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-d.acceptCh:
			if timer == nil {
				timer = d.Clock.NewTimer(d.Interval)
				timerC = timer.C()
				d.Log.Debug("debounce armed", cage_zap.Tag("debounce"), zap.Duration("interval", d.Interval))
			} else {
				// The previous deadline is discarded: no trigger fires for it.
				// Drain a fire that raced the reset so the stale expiration
				// cannot leak through as a premature trigger.
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(d.Interval)
				d.Log.Debug("debounce reset", cage_zap.Tag("debounce"), zap.Duration("interval", d.Interval))
			}

		case <-timerC:
			timer.Stop()
			timer = nil
			timerC = nil

			select { // Only queue if there's room; an undelivered trigger already covers this one.
			case d.triggerCh <- struct{}{}:
				d.Log.Debug("debounce settled, trigger sent", cage_zap.Tag("debounce"))
			default:
				d.Log.Debug("debounce settled, trigger already pending", cage_zap.Tag("debounce"))
			}
		}
	}
}

// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package reconcile runs refresh cycles: fetch, classify, diff, alert, publish.
//
// At most one cycle runs at a time. A trigger that arrives while a cycle is
// in flight is remembered, and however many arrive, exactly one follow-up
// cycle runs once the current one is done.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/dispatch"
	"github.com/walteh/shelfwatch/pkg/notify"
	"github.com/walteh/shelfwatch/pkg/snapshot"
	"github.com/walteh/shelfwatch/pkg/store"
	"github.com/walteh/shelfwatch/pkg/transition"
)

// DefaultPollInterval matches the refresh period of the hosted app.
const DefaultPollInterval = 60 * time.Second

// 🎬 Source is what asked for a refresh.
type Source string

const (
	SourceTimer    Source = "timer"
	SourcePush     Source = "push"
	SourceMutation Source = "mutation"
	SourceManual   Source = "manual"
)

// FetchError is a cycle that could not list items. The previous snapshot and
// the inbox are left untouched.
type FetchError struct {
	Source Source
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("refresh (%s): fetching items: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// 📋 Result describes one finished cycle.
type Result struct {
	Source   Source
	Started  time.Time
	Duration time.Duration

	// Snapshot is the snapshot published by the cycle, nil when Err is set.
	Snapshot    *snapshot.Snapshot
	Transitions []transition.Transition
	Accepted    []notify.Notification
	Rejected    []error
	Delivery    dispatch.Report
	Unread      int

	Err error
}

// Reporter observes the coordinator.
type Reporter interface {
	CycleCompleted(ctx context.Context, r Result)
	TriggerCoalesced(ctx context.Context, s Source)
}

// Reporters fans every event out to each reporter in order.
type Reporters []Reporter

func (rs Reporters) CycleCompleted(ctx context.Context, r Result) {
	for _, rep := range rs {
		rep.CycleCompleted(ctx, r)
	}
}

func (rs Reporters) TriggerCoalesced(ctx context.Context, s Source) {
	for _, rep := range rs {
		rep.TriggerCoalesced(ctx, s)
	}
}

// 🩺 Health is the freshness of the published snapshot.
type Health struct {
	LastAttempt         time.Time
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int
	Cycles              int
}

// Stale reports whether the latest cycle failed, so the published snapshot is
// older than the latest attempt.
func (h Health) Stale() bool {
	return h.ConsecutiveFailures > 0
}

// Options configure a Coordinator.
type Options struct {
	Lister    store.Lister
	Snapshots *snapshot.Store
	Inbox     *notify.Inbox

	// Dispatcher is optional; without it accepted notifications are only kept
	// in the inbox.
	Dispatcher *dispatch.Dispatcher
	Reporter   Reporter

	// Now is the clock used for "today". Defaults to time.Now.
	Now          func() time.Time
	PollInterval time.Duration
}

// 🔁 Coordinator owns the refresh cycle.
type Coordinator struct {
	lister     store.Lister
	snapshots  *snapshot.Store
	inbox      *notify.Inbox
	dispatcher *dispatch.Dispatcher
	reporter   Reporter
	now        func() time.Time
	interval   time.Duration

	mu            sync.Mutex
	idle          *sync.Cond
	running       bool
	pending       bool
	pendingSource Source
	health        Health
}

// New validates opts and creates a Coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Lister == nil {
		return nil, errors.New("lister is required")
	}
	if opts.Snapshots == nil {
		return nil, errors.New("snapshot store is required")
	}
	if opts.Inbox == nil {
		return nil, errors.New("inbox is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Reporter == nil {
		opts.Reporter = Reporters(nil)
	}

	c := &Coordinator{
		lister:     opts.Lister,
		snapshots:  opts.Snapshots,
		inbox:      opts.Inbox,
		dispatcher: opts.Dispatcher,
		reporter:   opts.Reporter,
		now:        opts.Now,
		interval:   opts.PollInterval,
	}
	c.idle = sync.NewCond(&c.mu)
	return c, nil
}

// TriggerRefresh starts a cycle, or records a follow-up if one is running.
// It never blocks on the cycle itself. The cycle does not inherit ctx
// cancellation: a running fetch is never abandoned for a newer trigger.
func (c *Coordinator) TriggerRefresh(ctx context.Context, source Source) {
	c.mu.Lock()
	if c.running {
		c.pending = true
		c.pendingSource = source
		c.mu.Unlock()

		zerolog.Ctx(ctx).Debug().Str("source", string(source)).Msg("refresh coalesced")
		c.report(ctx, func() { c.reporter.TriggerCoalesced(ctx, source) })
		return
	}
	c.running = true
	c.mu.Unlock()

	go c.loop(context.WithoutCancel(ctx), source)
}

// Wait blocks until no cycle is running or pending.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.running {
		c.idle.Wait()
	}
}

// Health returns a copy of the current health.
func (c *Coordinator) Health() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

// Run refreshes on every store change and every poll interval until ctx is
// done, then waits for the running cycle to finish.
func (c *Coordinator) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if sub, ok := c.lister.(store.Subscriber); ok {
		cancel := sub.OnChange(func() {
			c.TriggerRefresh(ctx, SourcePush)
		})
		defer cancel()
	}

	logger.Info().Dur("interval", c.interval).Msg("starting refresh loop")
	c.TriggerRefresh(ctx, SourceTimer)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stopping refresh loop")
			c.Wait()
			return nil
		case <-ticker.C:
			c.TriggerRefresh(ctx, SourceTimer)
		}
	}
}

func (c *Coordinator) loop(ctx context.Context, source Source) {
	for {
		c.cycle(ctx, source)

		c.mu.Lock()
		if !c.pending {
			c.running = false
			c.idle.Broadcast()
			c.mu.Unlock()
			return
		}
		source = c.pendingSource
		c.pending = false
		c.mu.Unlock()
	}
}

func (c *Coordinator) cycle(ctx context.Context, source Source) {
	start := c.now()
	res := Result{Source: source, Started: start}
	logger := zerolog.Ctx(ctx).With().Str("source", string(source)).Logger()

	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.Errorf("refresh panicked: %v", r)
			c.recordFailure(start, res.Err)
			logger.Error().Err(res.Err).Msg("refresh cycle aborted")
		}
		res.Duration = c.now().Sub(start)
		c.report(ctx, func() { c.reporter.CycleCompleted(ctx, res) })
	}()

	records, err := c.lister.ListItems(ctx)
	if err != nil {
		res.Err = &FetchError{Source: source, Err: err}
		failures := c.recordFailure(start, res.Err)
		logger.Warn().Err(err).Int("consecutive_failures", failures).Msg("fetching items failed, keeping previous snapshot")
		return
	}

	next, rejected := snapshot.Build(records, start, start)
	for _, rerr := range rejected {
		logger.Warn().Err(rerr).Msg("skipping item")
	}
	res.Rejected = rejected

	res.Transitions = transition.Diff(c.snapshots.Current(), next)
	res.Accepted = c.inbox.Apply(res.Transitions, start)
	c.snapshots.Replace(next)
	res.Snapshot = next
	res.Unread = c.inbox.UnreadCount()

	c.mu.Lock()
	c.health.LastAttempt = start
	c.health.LastSuccess = start
	c.health.LastError = nil
	c.health.ConsecutiveFailures = 0
	c.health.Cycles++
	c.mu.Unlock()

	logger.Debug().
		Int("items", next.Len()).
		Int("transitions", len(res.Transitions)).
		Int("alerts", len(res.Accepted)).
		Msg("refresh cycle complete")

	res.Delivery = c.dispatcher.Dispatch(ctx, res.Accepted)
}

// report runs a reporter callback. A panicking reporter is logged and never
// takes the cycle loop down with it.
func (c *Coordinator) report(ctx context.Context, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", r).Msg("reporter panicked")
		}
	}()
	fn()
}

func (c *Coordinator) recordFailure(at time.Time, err error) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.health.LastAttempt = at
	c.health.LastError = err
	c.health.ConsecutiveFailures++
	c.health.Cycles++
	return c.health.ConsecutiveFailures
}

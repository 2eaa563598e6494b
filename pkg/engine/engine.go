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

// Package engine assembles the refresh pipeline and exposes it to callers.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/dispatch"
	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/metrics"
	"github.com/walteh/shelfwatch/pkg/notify"
	"github.com/walteh/shelfwatch/pkg/reconcile"
	"github.com/walteh/shelfwatch/pkg/snapshot"
	"github.com/walteh/shelfwatch/pkg/store"
	"github.com/walteh/shelfwatch/pkg/summary"
)

// ErrReadOnly is returned by item mutations when the store takes no writes.
var ErrReadOnly = errors.Base("store is read-only")

// 🔧 Options configure an Engine
type Options struct {
	Lister store.Lister // required

	// Mutator enables AddItem, UpdateItem and DeleteItem.
	Mutator  store.Mutator
	Channels []dispatch.Channel
	Reporter reconcile.Reporter
	Metrics  *metrics.Metrics

	Now          func() time.Time
	PollInterval time.Duration
}

// 🏭 Engine owns the snapshot, the inbox and the coordinator that feeds them.
type Engine struct {
	coord     *reconcile.Coordinator
	snapshots *snapshot.Store
	inbox     *notify.Inbox
	mutator   store.Mutator
	metrics   *metrics.Metrics
}

// New validates opts and wires the pipeline.
func New(opts Options) (*Engine, error) {
	if opts.Lister == nil {
		return nil, errors.New("lister is required")
	}

	dopts := dispatch.Options{Channels: opts.Channels}
	reporters := reconcile.Reporters{}
	if opts.Reporter != nil {
		reporters = append(reporters, opts.Reporter)
	}
	if opts.Metrics != nil {
		dopts.OnResult = opts.Metrics.ObserveDelivery
		reporters = append(reporters, opts.Metrics)
	}

	disp, err := dispatch.New(dopts)
	if err != nil {
		return nil, errors.Errorf("creating dispatcher: %w", err)
	}

	e := &Engine{
		snapshots: &snapshot.Store{},
		inbox:     &notify.Inbox{},
		mutator:   opts.Mutator,
		metrics:   opts.Metrics,
	}

	e.coord, err = reconcile.New(reconcile.Options{
		Lister:       opts.Lister,
		Snapshots:    e.snapshots,
		Inbox:        e.inbox,
		Dispatcher:   disp,
		Reporter:     reporters,
		Now:          opts.Now,
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, errors.Errorf("creating coordinator: %w", err)
	}
	return e, nil
}

// Current returns the live snapshot. It is never nil.
func (e *Engine) Current() *snapshot.Snapshot {
	return e.snapshots.Current()
}

// Notifications returns every notification, oldest first.
func (e *Engine) Notifications() []notify.Notification {
	return e.inbox.List()
}

// Unread returns the unread notifications, oldest first.
func (e *Engine) Unread() []notify.Notification {
	return e.inbox.Unread()
}

// MarkRead flags one notification as read.
func (e *Engine) MarkRead(id string) error {
	if err := e.inbox.MarkRead(id); err != nil {
		return err
	}
	e.syncUnread()
	return nil
}

// MarkAllRead flags every notification as read and returns how many changed.
func (e *Engine) MarkAllRead() int {
	n := e.inbox.MarkAllRead()
	e.syncUnread()
	return n
}

// Dismiss deletes a notification.
func (e *Engine) Dismiss(id string) error {
	if err := e.inbox.Dismiss(id); err != nil {
		return err
	}
	e.syncUnread()
	return nil
}

func (e *Engine) syncUnread() {
	if e.metrics != nil {
		e.metrics.SetUnread(e.inbox.UnreadCount())
	}
}

// TriggerRefresh asks for a refresh without waiting for it.
func (e *Engine) TriggerRefresh(ctx context.Context, source reconcile.Source) {
	e.coord.TriggerRefresh(ctx, source)
}

// Refresh runs a manual refresh and waits for it, and for any follow-up it
// caused, to finish.
func (e *Engine) Refresh(ctx context.Context) reconcile.Health {
	e.coord.TriggerRefresh(ctx, reconcile.SourceManual)
	e.coord.Wait()
	return e.coord.Health()
}

// Wait blocks until no refresh is running.
func (e *Engine) Wait() {
	e.coord.Wait()
}

// Run refreshes on a timer and on store changes until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	return e.coord.Run(ctx)
}

// Health reports the freshness of the live snapshot.
func (e *Engine) Health() reconcile.Health {
	return e.coord.Health()
}

// Summary counts the live snapshot by status.
func (e *Engine) Summary() summary.Summary {
	return summary.Of(e.snapshots.Current(), e.inbox.UnreadCount())
}

// Urgent lists up to limit items needing attention, soonest first.
func (e *Engine) Urgent(limit int) []snapshot.Entry {
	return summary.Urgent(e.snapshots.Current(), limit)
}

// Recent lists up to limit items, newest first.
func (e *Engine) Recent(limit int) []snapshot.Entry {
	return summary.Recent(e.snapshots.Current(), limit)
}

// AddItem creates an item and schedules a refresh. A zero quantity becomes 1
// and a blank location becomes item.DefaultLocation.
func (e *Engine) AddItem(ctx context.Context, rec item.Record) (item.Record, error) {
	if e.mutator == nil {
		return item.Record{}, ErrReadOnly
	}
	rec.ApplyDefaults()
	if err := validate(rec); err != nil {
		return item.Record{}, err
	}

	created, err := e.mutator.CreateItem(ctx, rec)
	if err != nil {
		return item.Record{}, errors.Errorf("creating item: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("item_id", created.ID).Str("name", created.Name).Msg("item added")
	e.coord.TriggerRefresh(ctx, reconcile.SourceMutation)
	return created, nil
}

// UpdateItem replaces an item and schedules a refresh.
func (e *Engine) UpdateItem(ctx context.Context, rec item.Record) (item.Record, error) {
	if e.mutator == nil {
		return item.Record{}, ErrReadOnly
	}
	if strings.TrimSpace(rec.ID) == "" {
		return item.Record{}, errors.New("item id is required")
	}
	if err := validate(rec); err != nil {
		return item.Record{}, err
	}

	updated, err := e.mutator.UpdateItem(ctx, rec)
	if err != nil {
		return item.Record{}, errors.Errorf("updating item: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("item_id", updated.ID).Msg("item updated")
	e.coord.TriggerRefresh(ctx, reconcile.SourceMutation)
	return updated, nil
}

// DeleteItem removes an item and schedules a refresh.
func (e *Engine) DeleteItem(ctx context.Context, id string) error {
	if e.mutator == nil {
		return ErrReadOnly
	}
	if err := e.mutator.DeleteItem(ctx, id); err != nil {
		return errors.Errorf("deleting item: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("item_id", id).Msg("item deleted")
	e.coord.TriggerRefresh(ctx, reconcile.SourceMutation)
	return nil
}

// validate rejects records the classifier could not handle. The id may still
// be empty since the store assigns it.
func validate(rec item.Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		rec.ID = "new"
	}
	_, err := item.Parse(rec)
	return err
}

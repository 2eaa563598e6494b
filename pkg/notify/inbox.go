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

package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/transition"
)

// ErrNotFound is returned for an unknown notification id.
var ErrNotFound = errors.Base("notification not found")

// 📥 Inbox owns the list of alerts for the life of the process.
//
// Each item has at most one open alerting epoch, keyed by the epoch id that
// ID derives. A notification for the open epoch is a replay and is dropped.
// The epoch closes when the item leaves the alerting statuses; entering the
// same epoch again raises a fresh notification under a reissued id, leaving
// the earlier one and its read flag untouched. Background refreshes only ever
// append; read flags change only through MarkRead and MarkAllRead. The zero
// value is ready to use.
type Inbox struct {
	mu    sync.RWMutex
	list  []Notification
	index map[string]int

	// open maps an item id to the epoch id of its current alert.
	open map[string]string
	// reissued counts how often an epoch id was entered again.
	reissued map[string]int
}

// Apply closes the epochs of items that left the alerting statuses and adds
// a notification for every transition into one. It returns the accepted
// notifications in transition order.
func (b *Inbox) Apply(transitions []transition.Transition, at time.Time) []Notification {
	b.mu.Lock()
	for _, tr := range transitions {
		if !tr.To.Alerting() {
			delete(b.open, tr.ItemID)
		}
	}
	b.mu.Unlock()

	return b.Add(ToNotifications(transitions, at)...)
}

// Add appends the notifications that do not replay the open epoch of their
// item and returns the accepted ones, in input order. An accepted
// notification whose id is already held is stored under a reissued id.
func (b *Inbox) Add(ns ...Notification) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index == nil {
		b.index = make(map[string]int)
		b.open = make(map[string]string)
		b.reissued = make(map[string]int)
	}

	var accepted []Notification
	for _, n := range ns {
		epoch := n.ID
		if b.open[n.ItemID] == epoch {
			continue
		}
		for {
			if _, held := b.index[n.ID]; !held {
				break
			}
			b.reissued[epoch]++
			n.ID = reissueID(epoch, b.reissued[epoch])
		}

		b.open[n.ItemID] = epoch
		b.index[n.ID] = len(b.list)
		b.list = append(b.list, n)
		accepted = append(accepted, n)
	}
	return accepted
}

// reissueID derives the id of the nth re-entry into an epoch.
func reissueID(epoch string, n int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s#%d", epoch, n))).String()
}

// List returns a copy of every notification, oldest first.
func (b *Inbox) List() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.list) == 0 {
		return nil
	}
	dup := make([]Notification, len(b.list))
	copy(dup, b.list)
	return dup
}

// Unread returns a copy of the unread notifications, oldest first.
func (b *Inbox) Unread() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Notification
	for _, n := range b.list {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns the number of unread notifications.
func (b *Inbox) UnreadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, n := range b.list {
		if !n.Read {
			count++
		}
	}
	return count
}

// Get returns the notification with the given id.
func (b *Inbox) Get(id string) (Notification, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i, ok := b.index[id]
	if !ok {
		return Notification{}, false
	}
	return b.list[i], true
}

// MarkRead flags one notification as read. Marking twice is not an error.
func (b *Inbox) MarkRead(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[id]
	if !ok {
		return errors.WithDetails(ErrNotFound, "id", id)
	}
	b.list[i].Read = true
	return nil
}

// MarkAllRead flags every notification as read and returns how many changed.
func (b *Inbox) MarkAllRead() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed := 0
	for i := range b.list {
		if !b.list[i].Read {
			b.list[i].Read = true
			changed++
		}
	}
	return changed
}

// Dismiss removes a notification on explicit user request. The epoch stays
// open, so a replay of the same transition does not bring it back.
func (b *Inbox) Dismiss(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[id]
	if !ok {
		return errors.WithDetails(ErrNotFound, "id", id)
	}
	b.list = append(b.list[:i], b.list[i+1:]...)
	delete(b.index, id)
	for j := i; j < len(b.list); j++ {
		b.index[b.list[j].ID] = j
	}
	return nil
}

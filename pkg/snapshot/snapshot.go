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

package snapshot

import (
	"sort"
	"time"

	"github.com/walteh/shelfwatch/pkg/item"
)

// Entry pairs an item with the status it was classified as.
type Entry struct {
	Item   item.Item
	Status item.Status
}

// Snapshot is an immutable view of every known item at one point in time.
// The zero value is an empty snapshot.
type Snapshot struct {
	entries map[string]Entry
	today   time.Time
	takenAt time.Time
}

// New builds a snapshot from already classified entries. The map is copied.
func New(entries map[string]Entry, today, takenAt time.Time) *Snapshot {
	dup := make(map[string]Entry, len(entries))
	for id, e := range entries {
		dup[id] = e
	}
	return &Snapshot{entries: dup, today: item.Day(today), takenAt: takenAt}
}

// Build parses and classifies records against today. Records that cannot be
// classified are left out; their errors are returned next to the snapshot so
// the caller can log them. Duplicate ids keep the last record seen.
func Build(records []item.Record, today, takenAt time.Time) (*Snapshot, []error) {
	var rejected []error
	entries := make(map[string]Entry, len(records))
	for _, rec := range records {
		it, err := item.Parse(rec)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		entries[it.ID] = Entry{Item: it, Status: it.StatusOn(today)}
	}
	return &Snapshot{entries: entries, today: item.Day(today), takenAt: takenAt}, rejected
}

// Get returns the entry for id.
func (s *Snapshot) Get(id string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.entries[id]
	return e, ok
}

// Len returns the number of items.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Today is the calendar day the snapshot was classified against.
func (s *Snapshot) Today() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.today
}

// TakenAt is the wall clock time the snapshot was built.
func (s *Snapshot) TakenAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.takenAt
}

// IDs returns the item ids in ascending order.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns a copy of all entries ordered by expiry date, then id.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	SortByUrgency(out)
	return out
}

// Filter returns the entries with the given status, most urgent first.
func (s *Snapshot) Filter(statuses ...item.Status) []Entry {
	want := make(map[item.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	var out []Entry
	for _, e := range s.Entries() {
		if want[e.Status] {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many items have each status.
func (s *Snapshot) Count() map[item.Status]int {
	counts := map[item.Status]int{}
	if s == nil {
		return counts
	}
	for _, e := range s.entries {
		counts[e.Status]++
	}
	return counts
}

// SortByUrgency orders entries by ascending expiry date, ties broken by id.
func SortByUrgency(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Item, entries[j].Item
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		return a.ID < b.ID
	})
}

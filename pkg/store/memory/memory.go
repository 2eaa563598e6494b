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

// Package memory is an in-process item store with change notifications.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/store"
)

// Store keeps records in memory. Every write notifies the subscribers after
// the lock is released.
type Store struct {
	mu      sync.RWMutex
	records map[string]item.Record
	seq     int64
	now     func() time.Time

	subMu  sync.Mutex
	subs   map[int]func()
	nextID int

	// fail, when set, makes ListItems return an availability error.
	fail error
}

var (
	_ store.Lister     = (*Store)(nil)
	_ store.Subscriber = (*Store)(nil)
	_ store.Mutator    = (*Store)(nil)
)

// New creates a store seeded with records.
func New(records ...item.Record) *Store {
	s := &Store{
		records: make(map[string]item.Record, len(records)),
		subs:    make(map[int]func()),
		now:     time.Now,
	}
	for _, rec := range records {
		s.records[rec.ID] = rec
	}
	return s
}

// ListItems returns every record ordered by id.
func (s *Store) ListItems(ctx context.Context) ([]item.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fail != nil {
		return nil, store.Unavailable("list items", s.fail)
	}

	out := make([]item.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateItem stores a new record. An empty id is assigned from a counter,
// skipping ids already taken.
func (s *Store) CreateItem(ctx context.Context, rec item.Record) (item.Record, error) {
	s.mu.Lock()
	for rec.ID == "" {
		s.seq++
		id := strconv.FormatInt(s.seq, 10)
		if _, taken := s.records[id]; !taken {
			rec.ID = id
		}
	}
	if _, exists := s.records[rec.ID]; exists {
		s.mu.Unlock()
		return item.Record{}, errors.Errorf("item %q already exists", rec.ID)
	}
	now := s.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records[rec.ID] = rec
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("item_id", rec.ID).Msg("created item")
	s.notify()
	return rec, nil
}

// UpdateItem replaces an existing record.
func (s *Store) UpdateItem(ctx context.Context, rec item.Record) (item.Record, error) {
	s.mu.Lock()
	prev, ok := s.records[rec.ID]
	if !ok {
		s.mu.Unlock()
		return item.Record{}, errors.WithDetails(store.ErrNotFound, "id", rec.ID)
	}
	rec.CreatedAt = prev.CreatedAt
	rec.UpdatedAt = s.now()
	s.records[rec.ID] = rec
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("item_id", rec.ID).Msg("updated item")
	s.notify()
	return rec, nil
}

// DeleteItem removes a record.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		return errors.WithDetails(store.ErrNotFound, "id", id)
	}
	delete(s.records, id)
	s.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("item_id", id).Msg("deleted item")
	s.notify()
	return nil
}

// Put upserts records without touching timestamps and notifies once. It is
// meant for seeding and tests.
func (s *Store) Put(records ...item.Record) {
	s.mu.Lock()
	for _, rec := range records {
		s.records[rec.ID] = rec
	}
	s.mu.Unlock()
	s.notify()
}

// SetFailure makes ListItems fail with err until called again with nil.
func (s *Store) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// OnChange registers fn to be called after every write.
func (s *Store) OnChange(fn func()) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

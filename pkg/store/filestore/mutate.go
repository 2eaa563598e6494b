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

package filestore

import (
	"context"
	"os"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/store"
)

// CreateItem appends a record. An empty id gets a random UUID. A missing
// file is created.
func (s *Store) CreateItem(ctx context.Context, rec item.Record) (item.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return item.Record{}, err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	for _, r := range records {
		if r.ID == rec.ID {
			return item.Record{}, errors.Errorf("item %q already exists", rec.ID)
		}
	}

	now := s.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.Write(ctx, append(records, rec)); err != nil {
		return item.Record{}, err
	}
	return rec, nil
}

// UpdateItem replaces the record with the same id in place.
func (s *Store) UpdateItem(ctx context.Context, rec item.Record) (item.Record, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return item.Record{}, err
	}

	i := indexOf(records, rec.ID)
	if i < 0 {
		return item.Record{}, errors.WithDetails(store.ErrNotFound, "id", rec.ID)
	}
	rec.CreatedAt = records[i].CreatedAt
	rec.UpdatedAt = s.now().UTC()
	records[i] = rec

	if err := s.Write(ctx, records); err != nil {
		return item.Record{}, err
	}
	return rec, nil
}

// DeleteItem removes the record with id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}

	i := indexOf(records, id)
	if i < 0 {
		return errors.WithDetails(store.ErrNotFound, "id", id)
	}
	return s.Write(ctx, append(records[:i], records[i+1:]...))
}

// load reads the current records, treating a missing file as empty.
func (s *Store) load(ctx context.Context) ([]item.Record, error) {
	records, err := s.ListItems(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

func indexOf(records []item.Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

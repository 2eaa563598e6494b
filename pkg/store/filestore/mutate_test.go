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
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/store"
)

func TestMutations(t *testing.T) {
	ctx := setupTestLogger(t)

	for _, name := range []string{"inventory.yaml", "inventory.json"} {
		t.Run(name, func(t *testing.T) {
			s, err := New(filepath.Join(t.TempDir(), name))
			require.NoError(t, err)
			created := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return created }

			rec, err := s.CreateItem(ctx, item.Record{Name: "Eggs", ExpiryDate: "2026-10-25", Quantity: 12, StorageLocation: "fridge"})
			require.NoError(t, err, "create should start a missing file")
			_, err = uuid.Parse(rec.ID)
			require.NoError(t, err, "id should be a uuid")
			assert.Equal(t, created, rec.CreatedAt)

			_, err = s.CreateItem(ctx, item.Record{ID: rec.ID, ExpiryDate: "2026-10-25"})
			assert.Error(t, err, "duplicate id should fail")

			updatedAt := created.Add(time.Hour)
			s.now = func() time.Time { return updatedAt }
			rec.Quantity = 6
			updated, err := s.UpdateItem(ctx, rec)
			require.NoError(t, err)
			assert.Equal(t, created, updated.CreatedAt, "created_at should be kept")
			assert.Equal(t, updatedAt, updated.UpdatedAt)

			got, err := s.ListItems(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, 6, got[0].Quantity)

			require.NoError(t, s.DeleteItem(ctx, rec.ID))
			got, err = s.ListItems(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			assert.True(t, errors.Is(s.DeleteItem(ctx, rec.ID), store.ErrNotFound))
			_, err = s.UpdateItem(ctx, rec)
			assert.True(t, errors.Is(err, store.ErrNotFound))
		})
	}
}

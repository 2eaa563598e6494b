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
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/store"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestListItems(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "inventory.yaml", `
items:
  - id: milk
    name: Milk
    expiry_date: 2026-10-20
    quantity: 2
    storage_location: fridge
  - id: rice
    name: Rice
    expiry_date: "2027-03-01"
`)
		s, err := New(path)
		require.NoError(t, err)

		records, err := s.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "2026-10-20", records[0].ExpiryDate)
		assert.Equal(t, 2, records[0].Quantity)
		assert.Equal(t, "rice", records[1].ID)
	})

	t.Run("json", func(t *testing.T) {
		path := writeFile(t, "inventory.json", `{"items":[{"id":"milk","name":"Milk","expiry_date":"2026-10-20","quantity":1,"storage_location":"fridge"}]}`)
		s, err := New(path)
		require.NoError(t, err)

		records, err := s.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "fridge", records[0].StorageLocation)
	})

	t.Run("empty_yaml", func(t *testing.T) {
		s, err := New(writeFile(t, "inventory.yaml", ""))
		require.NoError(t, err)
		records, err := s.ListItems(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("unknown_field_is_rejected", func(t *testing.T) {
		s, err := New(writeFile(t, "inventory.yaml", "items:\n  - id: a\n    colour: red\n"))
		require.NoError(t, err)
		_, err = s.ListItems(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, store.ErrStoreUnavailable))
	})

	t.Run("missing_file_is_unavailable", func(t *testing.T) {
		s, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		_, err = s.ListItems(ctx)
		assert.True(t, errors.Is(err, store.ErrStoreUnavailable))
	})

	t.Run("empty_path", func(t *testing.T) {
		_, err := New("  ")
		assert.Error(t, err)
	})
}

func TestWriteThenList(t *testing.T) {
	ctx := setupTestLogger(t)

	for _, name := range []string{"inventory.yaml", "inventory.json"} {
		t.Run(name, func(t *testing.T) {
			s, err := New(filepath.Join(t.TempDir(), name))
			require.NoError(t, err)

			want := []item.Record{{ID: "a", Name: "Eggs", ExpiryDate: "2026-10-25", Quantity: 12, StorageLocation: "fridge"}}
			require.NoError(t, s.Write(ctx, want))

			got, err := s.ListItems(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestPollNotifiesOnContentChange(t *testing.T) {
	ctx := setupTestLogger(t)
	path := writeFile(t, "inventory.yaml", "items: []\n")

	s, err := New(path)
	require.NoError(t, err)

	calls := 0
	cancel := s.OnChange(func() { calls++ })
	defer cancel()

	assert.False(t, s.Poll(ctx), "first poll records the baseline")
	assert.False(t, s.Poll(ctx), "unchanged content")

	require.NoError(t, os.WriteFile(path, []byte("items:\n  - id: a\n    expiry_date: \"2026-10-20\"\n"), 0o600))
	assert.True(t, s.Poll(ctx))
	assert.Equal(t, 1, calls)

	assert.False(t, s.Poll(ctx))
	assert.Equal(t, 1, calls)
}

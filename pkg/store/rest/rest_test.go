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

package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "valid", opts: Options{URL: "https://example.supabase.co"}},
		{name: "missing_url", opts: Options{}, wantErr: true},
		{name: "bad_scheme", opts: Options{URL: "ftp://example.com"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultTable, c.table)
		})
	}
}

func TestListItems(t *testing.T) {
	ctx := setupTestLogger(t)

	var gotPath, gotSelect, gotKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSelect = r.URL.Query().Get("select")
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"1","name":"Milk","expiry_date":"2026-10-20","quantity":1,"storage_location":"fridge","created_at":"2026-10-01T12:00:00.123456+00:00"},
			{"id":"2","name":"Rice","expiry_date":"2027-03-01","production_date":null,"quantity":3,"storage_location":"pantry"}
		]`))
	}))
	t.Cleanup(server.Close)

	c, err := New(Options{URL: server.URL, APIKey: "anon-key", Table: "items"})
	require.NoError(t, err)

	records, err := c.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Milk", records[0].Name)
	assert.Equal(t, "", records[1].ProductionDate)
	assert.False(t, records[0].CreatedAt.IsZero())

	assert.Equal(t, "/rest/v1/items", gotPath)
	assert.Equal(t, "*", gotSelect)
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "Bearer anon-key", gotAuth)
}

func TestListItemsFailures(t *testing.T) {
	ctx := setupTestLogger(t)

	tests := []struct {
		name            string
		status          int
		wantUnavailable bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantUnavailable: true},
		{name: "forbidden", status: http.StatusForbidden, wantUnavailable: true},
		{name: "server_error", status: http.StatusBadGateway, wantUnavailable: true},
		{name: "bad_request", status: http.StatusBadRequest, wantUnavailable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			t.Cleanup(server.Close)

			c, err := New(Options{URL: server.URL})
			require.NoError(t, err)

			_, err = c.ListItems(ctx)
			require.Error(t, err)
			assert.Equal(t, tt.wantUnavailable, errors.Is(err, store.ErrStoreUnavailable))
		})
	}

	t.Run("connection_refused", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		c, err := New(Options{URL: url})
		require.NoError(t, err)
		_, err = c.ListItems(ctx)
		assert.True(t, errors.Is(err, store.ErrStoreUnavailable))
	})

	t.Run("malformed_body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"a list"`))
		}))
		t.Cleanup(server.Close)

		c, err := New(Options{URL: server.URL})
		require.NoError(t, err)
		_, err = c.ListItems(ctx)
		require.Error(t, err)
		assert.False(t, errors.Is(err, store.ErrStoreUnavailable))
	})
}

func TestMutations(t *testing.T) {
	ctx := setupTestLogger(t)

	type call struct {
		method string
		id     string
		prefer string
		body   item.Record
	}
	var calls []call

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, id: r.URL.Query().Get("id"), prefer: r.Header.Get("Prefer")}
		if r.Body != nil && r.ContentLength > 0 {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		}
		calls = append(calls, c)

		w.Header().Set("Content-Type", "application/json")
		if c.id == "eq.missing" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		rec := c.body
		if rec.ID == "" {
			rec.ID = "42"
		}
		_ = json.NewEncoder(w).Encode([]item.Record{rec})
	}))
	t.Cleanup(server.Close)

	c, err := New(Options{URL: server.URL})
	require.NoError(t, err)

	created, err := c.CreateItem(ctx, item.Record{Name: "Yogurt", ExpiryDate: "2026-10-22"})
	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)

	_, err = c.UpdateItem(ctx, item.Record{ID: "42", Name: "Greek yogurt", ExpiryDate: "2026-10-22"})
	require.NoError(t, err)

	_, err = c.UpdateItem(ctx, item.Record{ID: "missing"})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, c.DeleteItem(ctx, "42"))
	assert.True(t, errors.Is(c.DeleteItem(ctx, "missing"), store.ErrNotFound))

	require.Len(t, calls, 5)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "return=representation", calls[0].prefer)
	assert.Equal(t, http.MethodPatch, calls[1].method)
	assert.Equal(t, "eq.42", calls[1].id)
	assert.Equal(t, http.MethodDelete, calls[3].method)
}

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

// Package rest reads and writes items through a PostgREST-style HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/store"
)

const (
	DefaultTable   = "products"
	requestTimeout = 10 * time.Second
	userAgent      = "shelfwatch/0.1"
)

// Client talks to a table endpoint under {base}/rest/v1/{table}.
type Client struct {
	baseURL *url.URL
	table   string
	apiKey  string
	http    *http.Client
}

var (
	_ store.Lister  = (*Client)(nil)
	_ store.Mutator = (*Client)(nil)
)

// Options configure a Client.
type Options struct {
	URL    string
	APIKey string
	Table  string

	// HTTPClient overrides the default client with a request timeout.
	HTTPClient *http.Client
}

// 🌐 New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	trimmed := strings.TrimSpace(opts.URL)
	if trimmed == "" {
		return nil, errors.New("rest store url is required")
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, errors.Errorf("parsing rest store url %q: %w", opts.URL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("rest store url %q must be http or https", opts.URL)
	}
	base.RawQuery = ""
	base.Fragment = ""

	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = DefaultTable
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: requestTimeout}
	}

	return &Client{baseURL: base, table: table, apiKey: opts.APIKey, http: hc}, nil
}

// ListItems fetches every row ordered by expiry date.
func (c *Client) ListItems(ctx context.Context) ([]item.Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "expiry_date.asc")

	var rows []item.Record
	if err := c.do(ctx, "list items", http.MethodGet, q, nil, &rows); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Trace().Int("rows", len(rows)).Str("table", c.table).Msg("listed items")
	return rows, nil
}

// CreateItem inserts rec and returns the stored row.
func (c *Client) CreateItem(ctx context.Context, rec item.Record) (item.Record, error) {
	var rows []item.Record
	if err := c.do(ctx, "create item", http.MethodPost, nil, toRow(rec), &rows); err != nil {
		return item.Record{}, err
	}
	if len(rows) == 0 {
		return item.Record{}, errors.New("create item: empty response")
	}
	return rows[0], nil
}

// UpdateItem replaces the row with rec.ID.
func (c *Client) UpdateItem(ctx context.Context, rec item.Record) (item.Record, error) {
	var rows []item.Record
	if err := c.do(ctx, "update item", http.MethodPatch, byID(rec.ID), toRow(rec), &rows); err != nil {
		return item.Record{}, err
	}
	if len(rows) == 0 {
		return item.Record{}, errors.WithDetails(store.ErrNotFound, "id", rec.ID)
	}
	return rows[0], nil
}

// DeleteItem removes the row with id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	var rows []item.Record
	if err := c.do(ctx, "delete item", http.MethodDelete, byID(id), nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.WithDetails(store.ErrNotFound, "id", id)
	}
	return nil
}

// row is the writable column set; timestamps are owned by the database.
type row struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	ExpiryDate      string `json:"expiry_date"`
	ProductionDate  string `json:"production_date,omitempty"`
	Quantity        int    `json:"quantity"`
	StorageLocation string `json:"storage_location"`
}

func toRow(rec item.Record) row {
	return row{
		ID:              rec.ID,
		Name:            rec.Name,
		ExpiryDate:      rec.ExpiryDate,
		ProductionDate:  rec.ProductionDate,
		Quantity:        rec.Quantity,
		StorageLocation: rec.StorageLocation,
	}
}

func byID(id string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return q
}

func (c *Client) endpoint(q url.Values) string {
	rel := &url.URL{Path: strings.TrimSuffix(c.baseURL.Path, "/") + "/rest/v1/" + c.table}
	if q != nil {
		rel.RawQuery = q.Encode()
	}
	return c.baseURL.ResolveReference(rel).String()
}

// do performs one request. Transport failures, auth rejections and server
// errors are availability failures; other 4xx responses are hard errors.
func (c *Client) do(ctx context.Context, op, method string, q url.Values, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Errorf("%s: encoding body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(q), reader)
	if err != nil {
		return errors.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return store.Unavailable(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return store.Unavailable(op, errors.Errorf("authentication rejected with status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return store.Unavailable(op, errors.Errorf("server returned status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

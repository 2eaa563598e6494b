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

// Package filestore keeps items in a YAML or JSON inventory file.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/store"
)

// 📄 document is the on-disk layout
type document struct {
	Items []item.Record `json:"items" yaml:"items"`
}

// Store lists and edits the items of one file. A file that cannot be read
// counts as an unavailable store; a file that cannot be decoded is a hard
// error.
type Store struct {
	path string
	now  func() time.Time

	// writeMu serializes read-modify-write mutations.
	writeMu sync.Mutex

	mu       sync.Mutex
	subs     map[int]func()
	nextID   int
	lastHash string
}

var (
	_ store.Lister     = (*Store)(nil)
	_ store.Subscriber = (*Store)(nil)
	_ store.Mutator    = (*Store)(nil)
)

// 🏭 New creates a file store for path
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("inventory file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving inventory path: %w", err)
	}
	return &Store{path: abs, now: time.Now, subs: make(map[int]func())}, nil
}

// Path returns the absolute path of the inventory file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ListItems(ctx context.Context) ([]item.Record, error) {
	zerolog.Ctx(ctx).Trace().Str("path", s.path).Msg("reading inventory file")

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, store.Unavailable("read inventory file", err)
	}

	doc, err := decode(s.path, data)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", filepath.Base(s.path), err)
	}
	return doc.Items, nil
}

func decode(path string, data []byte) (document, error) {
	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return document{}, errors.Errorf("parsing JSON: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return document{}, errors.Errorf("parsing YAML: %w", err)
		}
	default:
		return document{}, errors.Errorf("unsupported inventory format %q", filepath.Ext(path))
	}
	return doc, nil
}

// Write stores records to the file, replacing its content atomically.
func (s *Store) Write(ctx context.Context, records []item.Record) error {
	doc := document{Items: records}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".json":
		data, err = json.MarshalIndent(doc, "", "  ")
	default:
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return errors.Errorf("encoding inventory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return errors.Errorf("renaming temp file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", s.path).Int("items", len(records)).Msg("wrote inventory file")
	return nil
}

// OnChange registers fn to be called when Watch sees the file content change.
func (s *Store) OnChange(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Watch polls the file every interval and notifies subscribers when its
// content hash changes. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	s.Poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll checks the file once and reports whether subscribers were notified.
// The first successful poll only records the baseline.
func (s *Store) Poll(ctx context.Context) bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", s.path).Msg("inventory file not readable")
		return false
	}
	hash := checksum(data)

	s.mu.Lock()
	first := s.lastHash == ""
	changed := !first && hash != s.lastHash
	s.lastHash = hash
	fns := make([]func(), 0, len(s.subs))
	if changed {
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	if changed {
		zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("inventory file changed")
	}
	for _, fn := range fns {
		fn()
	}
	return changed
}

func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

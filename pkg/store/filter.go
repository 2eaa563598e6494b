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

package store

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
)

// LocationFilter narrows a Lister to items whose storage location matches at
// least one glob pattern (doublestar syntax, e.g. "fridge/**").
type LocationFilter struct {
	Lister   Lister
	Patterns []string
}

var _ Lister = (*LocationFilter)(nil)

// NewLocationFilter validates the patterns. With no patterns the lister is
// returned unchanged.
func NewLocationFilter(l Lister, patterns []string) (Lister, error) {
	if len(patterns) == 0 {
		return l, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid location pattern %q", p)
		}
	}
	return &LocationFilter{Lister: l, Patterns: patterns}, nil
}

func (f *LocationFilter) ListItems(ctx context.Context) ([]item.Record, error) {
	records, err := f.Lister.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	kept := records[:0:0]
	for _, rec := range records {
		if f.matches(rec.StorageLocation) {
			kept = append(kept, rec)
		}
	}

	zerolog.Ctx(ctx).Trace().
		Int("listed", len(records)).
		Int("kept", len(kept)).
		Strs("patterns", f.Patterns).
		Msg("filtered items by location")

	return kept, nil
}

func (f *LocationFilter) matches(location string) bool {
	for _, p := range f.Patterns {
		matched, err := doublestar.Match(p, location)
		if err != nil {
			return false
		}
		if matched {
			return true
		}
	}
	return false
}

// OnChange forwards to the wrapped lister when it supports subscriptions.
func (f *LocationFilter) OnChange(fn func()) func() {
	if sub, ok := f.Lister.(Subscriber); ok {
		return sub.OnChange(fn)
	}
	return func() {}
}

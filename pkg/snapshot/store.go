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
	"sync/atomic"
)

var empty = &Snapshot{entries: map[string]Entry{}}

// Store holds the live snapshot. The zero value is ready to use and reports an
// empty snapshot until the first Replace.
//
// Snapshots are never mutated after construction, so swapping the pointer is
// the whole synchronization story: a reader sees either the old or the new
// snapshot in full.
type Store struct {
	live atomic.Pointer[Snapshot]
}

// Replace atomically swaps the live snapshot. A nil snapshot is ignored.
func (s *Store) Replace(next *Snapshot) {
	if next == nil {
		return
	}
	s.live.Store(next)
}

// Current returns the live snapshot. Callers must treat it as read-only.
func (s *Store) Current() *Snapshot {
	if snap := s.live.Load(); snap != nil {
		return snap
	}
	return empty
}

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

// Package summary projects a snapshot into dashboard figures.
package summary

import (
	"sort"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/snapshot"
)

// DefaultLimit is how many entries the urgent and recent lists hold.
const DefaultLimit = 5

// 📊 Summary is the dashboard view of one snapshot.
type Summary struct {
	Total        int
	Active       int
	ExpiringSoon int
	Expired      int
	Unread       int
}

// Of counts the items of snap by status.
func Of(snap *snapshot.Snapshot, unread int) Summary {
	counts := snap.Count()
	return Summary{
		Total:        snap.Len(),
		Active:       counts[item.StatusActive],
		ExpiringSoon: counts[item.StatusExpiringSoon],
		Expired:      counts[item.StatusExpired],
		Unread:       unread,
	}
}

// Percent returns the share of items in status s, 0 for an empty snapshot.
func (s Summary) Percent(status item.Status) float64 {
	if s.Total == 0 {
		return 0
	}
	var n int
	switch status {
	case item.StatusActive:
		n = s.Active
	case item.StatusExpiringSoon:
		n = s.ExpiringSoon
	case item.StatusExpired:
		n = s.Expired
	}
	return float64(n) / float64(s.Total) * 100
}

// Urgent returns up to limit expired or expiring entries, soonest expiry first.
// A limit <= 0 returns all of them.
func Urgent(snap *snapshot.Snapshot, limit int) []snapshot.Entry {
	return truncate(snap.Filter(item.StatusExpired, item.StatusExpiringSoon), limit)
}

// Recent returns up to limit entries, newest CreatedAt first.
func Recent(snap *snapshot.Snapshot, limit int) []snapshot.Entry {
	entries := snap.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Item.CreatedAt.After(entries[j].Item.CreatedAt)
	})
	return truncate(entries, limit)
}

func truncate(entries []snapshot.Entry, limit int) []snapshot.Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

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

// Package transition computes status changes between two snapshots.
package transition

import (
	"fmt"
	"sort"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/snapshot"
)

// Transition is a status change of one item between two snapshots. From is
// item.StatusNone when the item is newly seen; To is item.StatusNone when the
// item disappeared.
type Transition struct {
	ItemID string
	Item   item.Item
	From   item.Status
	To     item.Status
}

// Appeared reports whether the item was absent from the previous snapshot.
func (t Transition) Appeared() bool {
	return t.From == item.StatusNone
}

// Removed reports whether the item is absent from the next snapshot.
func (t Transition) Removed() bool {
	return t.To == item.StatusNone
}

func (t Transition) String() string {
	return fmt.Sprintf("%s: %s -> %s", t.ItemID, t.From, t.To)
}

// Diff returns every status change from previous to next, most urgent first
// (ascending expiry date, ties by item id). Items whose status did not change
// produce nothing, so diffing a snapshot against itself is always empty.
// Either snapshot may be nil.
func Diff(previous, next *snapshot.Snapshot) []Transition {
	var out []Transition

	for _, id := range next.IDs() {
		cur, _ := next.Get(id)
		prev, seen := previous.Get(id)
		if seen && prev.Status == cur.Status {
			continue
		}
		from := item.StatusNone
		if seen {
			from = prev.Status
		}
		out = append(out, Transition{ItemID: id, Item: cur.Item, From: from, To: cur.Status})
	}

	for _, id := range previous.IDs() {
		if _, ok := next.Get(id); ok {
			continue
		}
		prev, _ := previous.Get(id)
		out = append(out, Transition{ItemID: id, Item: prev.Item, From: prev.Status, To: item.StatusNone})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Item.ExpiryDate, out[j].Item.ExpiryDate
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].ItemID < out[j].ItemID
	})

	return out
}

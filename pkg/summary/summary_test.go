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

package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/reconcile"
	"github.com/walteh/shelfwatch/pkg/snapshot"
)

var today = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

func fixture(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	records := []item.Record{
		{ID: "a", Name: "Milk", ExpiryDate: "2026-10-16", CreatedAt: today.Add(-72 * time.Hour)},
		{ID: "b", Name: "Yogurt", ExpiryDate: "2026-10-20", CreatedAt: today.Add(-1 * time.Hour)},
		{ID: "c", Name: "Cheese", ExpiryDate: "2026-10-18", CreatedAt: today.Add(-48 * time.Hour)},
		{ID: "d", Name: "Rice", ExpiryDate: "2027-06-01", CreatedAt: today.Add(-24 * time.Hour)},
	}
	snap, rejected := snapshot.Build(records, today, today)
	require.Empty(t, rejected)
	return snap
}

func ids(entries []snapshot.Entry) []string {
	out := []string{}
	for _, e := range entries {
		out = append(out, e.Item.ID)
	}
	return out
}

func TestOf(t *testing.T) {
	s := Of(fixture(t), 3)
	assert.Equal(t, Summary{Total: 4, Active: 1, ExpiringSoon: 2, Expired: 1, Unread: 3}, s)
	assert.InDelta(t, 50.0, s.Percent(item.StatusExpiringSoon), 0.001)
	assert.InDelta(t, 25.0, s.Percent(item.StatusExpired), 0.001)

	empty := Of(nil, 0)
	assert.Equal(t, Summary{}, empty)
	assert.Equal(t, 0.0, empty.Percent(item.StatusActive))
}

func TestUrgentAndRecent(t *testing.T) {
	snap := fixture(t)

	assert.Equal(t, []string{"a", "c", "b"}, ids(Urgent(snap, 0)))
	assert.Equal(t, []string{"a", "c"}, ids(Urgent(snap, 2)))
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids(Recent(snap, DefaultLimit)))
	assert.Empty(t, Urgent(nil, DefaultLimit))
}

func TestDefaultFormatter(t *testing.T) {
	f := DefaultFormatter{}
	snap := fixture(t)

	assert.Equal(t, "📦 4 items • ✅ 1 active • ⏳ 2 expiring soon • ❌ 1 expired • 🔔 3 unread", f.FormatSummary(Of(snap, 3)))

	tests := []struct {
		id   string
		want string
	}{
		{id: "a", want: "❌ Milk expired 2 days ago (2026-10-16)"},
		{id: "b", want: "⏳ Yogurt expires in 2 days (2026-10-20)"},
		{id: "c", want: "⏳ Cheese expires today (2026-10-18)"},
		{id: "d", want: "✅ Rice expires in 226 days (2027-06-01)"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			e, ok := snap.Get(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.want, f.FormatEntry(e, today))
		})
	}

	assert.Equal(t, "⏳ not refreshed yet", f.FormatHealth(reconcile.Health{}))
	assert.Equal(t, "✅ fresh as of 2026-10-18T00:00:00Z", f.FormatHealth(reconcile.Health{Cycles: 1, LastSuccess: today}))
	assert.Contains(t, f.FormatHealth(reconcile.Health{Cycles: 3, ConsecutiveFailures: 2, LastError: errors.New("down")}), "2 failed refreshes")
}

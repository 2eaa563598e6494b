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
	"fmt"
	"time"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/reconcile"
	"github.com/walteh/shelfwatch/pkg/snapshot"
)

// Formatter defines how dashboard figures are rendered as text
type Formatter interface {
	// FormatSummary formats the status counts
	FormatSummary(s Summary) string

	// FormatEntry formats one item relative to today
	FormatEntry(e snapshot.Entry, today time.Time) string

	// FormatHealth formats the freshness of the data
	FormatHealth(h reconcile.Health) string
}

// DefaultFormatter renders with emojis
type DefaultFormatter struct{}

var _ Formatter = DefaultFormatter{}

// FormatSummary formats the status counts with emojis
func (DefaultFormatter) FormatSummary(s Summary) string {
	return fmt.Sprintf("📦 %d items • ✅ %d active • ⏳ %d expiring soon • ❌ %d expired • 🔔 %d unread",
		s.Total, s.Active, s.ExpiringSoon, s.Expired, s.Unread)
}

// FormatEntry formats an item with its distance to expiry
func (DefaultFormatter) FormatEntry(e snapshot.Entry, today time.Time) string {
	name := e.Item.Name
	if name == "" {
		name = e.Item.ID
	}
	days := item.DaysUntil(e.Item.ExpiryDate, today)
	date := item.FormatDate(e.Item.ExpiryDate)

	switch {
	case days < -1:
		return fmt.Sprintf("❌ %s expired %d days ago (%s)", name, -days, date)
	case days == -1:
		return fmt.Sprintf("❌ %s expired yesterday (%s)", name, date)
	case days == 0:
		return fmt.Sprintf("⏳ %s expires today (%s)", name, date)
	case days == 1:
		return fmt.Sprintf("⏳ %s expires tomorrow (%s)", name, date)
	case e.Status == item.StatusExpiringSoon:
		return fmt.Sprintf("⏳ %s expires in %d days (%s)", name, days, date)
	default:
		return fmt.Sprintf("✅ %s expires in %d days (%s)", name, days, date)
	}
}

// FormatHealth formats the last refresh outcome
func (DefaultFormatter) FormatHealth(h reconcile.Health) string {
	switch {
	case h.Cycles == 0:
		return "⏳ not refreshed yet"
	case h.Stale():
		return fmt.Sprintf("⚠️  stale: %d failed refreshes, last error: %v", h.ConsecutiveFailures, h.LastError)
	default:
		return fmt.Sprintf("✅ fresh as of %s", h.LastSuccess.Format(time.RFC3339))
	}
}

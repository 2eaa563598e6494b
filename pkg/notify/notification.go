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

package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/transition"
)

// 🚦 Severity of a notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// namespace scopes the deterministic notification ids.
var namespace = uuid.MustParse("5c8f2f0e-6a53-4b0e-9d4a-3f1f0c2a7e61")

// 🔔 Notification is an alert about one item entering an alerting status.
type Notification struct {
	ID         string      `json:"id"`
	ItemID     string      `json:"item_id"`
	ItemName   string      `json:"item_name"`
	Severity   Severity    `json:"severity"`
	Status     item.Status `json:"status"`
	ExpiryDate time.Time   `json:"expiry_date"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	Read       bool        `json:"read"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SeverityFor maps a target status to the severity of its alert.
func SeverityFor(s item.Status) Severity {
	switch s {
	case item.StatusExpired:
		return SeverityDanger
	case item.StatusExpiringSoon:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// ID derives the notification id for an item entering a status with a given
// expiry date. The same epoch always yields the same id.
func ID(itemID string, status item.Status, expiry time.Time) string {
	key := fmt.Sprintf("%s|%s|%s", itemID, status, item.FormatDate(expiry))
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// ToNotifications turns transitions into alerts. Only transitions into
// expiring_soon or expired produce a notification; everything else, removals
// included, is dropped. The output is a pure function of its inputs and keeps
// the order of transitions.
func ToNotifications(transitions []transition.Transition, at time.Time) []Notification {
	var out []Notification
	for _, tr := range transitions {
		if !tr.To.Alerting() {
			continue
		}
		out = append(out, build(tr, at))
	}
	return out
}

func build(tr transition.Transition, at time.Time) Notification {
	name := tr.Item.Name
	if name == "" {
		name = tr.ItemID
	}
	n := Notification{
		ID:         ID(tr.ItemID, tr.To, tr.Item.ExpiryDate),
		ItemID:     tr.ItemID,
		ItemName:   name,
		Severity:   SeverityFor(tr.To),
		Status:     tr.To,
		ExpiryDate: tr.Item.ExpiryDate,
		CreatedAt:  at,
	}
	date := item.FormatDate(tr.Item.ExpiryDate)
	switch tr.To {
	case item.StatusExpired:
		n.Title = "Product expired"
		n.Message = fmt.Sprintf("%s expired on %s", name, date)
	default:
		days := item.DaysUntil(tr.Item.ExpiryDate, at)
		n.Title = "Product expiring soon"
		switch days {
		case 0:
			n.Message = fmt.Sprintf("%s expires today (%s)", name, date)
		case 1:
			n.Message = fmt.Sprintf("%s expires tomorrow (%s)", name, date)
		default:
			n.Message = fmt.Sprintf("%s expires in %d days (%s)", name, days, date)
		}
	}
	return n
}

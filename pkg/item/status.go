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

package item

import (
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📊 Status is the lifecycle state of an item, ordered by severity
type Status int

const (
	StatusNone         Status = iota // not present in a snapshot
	StatusActive                     // more than SoonWindowDays left
	StatusExpiringSoon               // 0..SoonWindowDays days left
	StatusExpired                    // expiry date is in the past
)

// SoonWindowDays is the inclusive number of days before expiry during which
// an item is expiring soon.
const SoonWindowDays = 7

// String returns the wire name of the status
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusExpiringSoon:
		return "expiring_soon"
	case StatusExpired:
		return "expired"
	default:
		return "none"
	}
}

// ParseStatus is the inverse of String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "active":
		return StatusActive, nil
	case "expiring_soon":
		return StatusExpiringSoon, nil
	case "expired":
		return StatusExpired, nil
	case "none", "":
		return StatusNone, nil
	}
	return StatusNone, errors.Errorf("unknown status %q", s)
}

// MarshalText lets statuses appear by name in json, yaml and log output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Alerting reports whether entering this status should raise a notification.
func (s Status) Alerting() bool {
	return s == StatusExpiringSoon || s == StatusExpired
}

// 🎯 Classify derives the status of an item expiring on expiry as seen on today.
//
// Both dates are reduced to their calendar day before comparing, so the time of
// day of either argument never changes the result.
func Classify(expiry, today time.Time) Status {
	days := DaysUntil(expiry, today)
	switch {
	case days < 0:
		return StatusExpired
	case days <= SoonWindowDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// DaysUntil returns the number of calendar days from today until expiry.
// Negative values mean the item has expired.
func DaysUntil(expiry, today time.Time) int {
	return int(Day(expiry).Sub(Day(today)).Hours() / 24)
}

// Day truncates t to midnight of its calendar date. The result is expressed in
// UTC so that day arithmetic never crosses a daylight saving shift.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	today := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.Local)

	tests := []struct {
		name   string
		offset int
		want   Status
	}{
		{name: "one_day_past", offset: -1, want: StatusExpired},
		{name: "long_past", offset: -400, want: StatusExpired},
		{name: "today", offset: 0, want: StatusExpiringSoon},
		{name: "tomorrow", offset: 1, want: StatusExpiringSoon},
		{name: "seven_days", offset: 7, want: StatusExpiringSoon},
		{name: "eight_days", offset: 8, want: StatusActive},
		{name: "far_future", offset: 365, want: StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry := today.AddDate(0, 0, tt.offset)
			assert.Equal(t, tt.want, Classify(expiry, today))
		})
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	expiry := time.Date(2026, time.March, 17, 0, 0, 0, 0, time.UTC)

	early := time.Date(2026, time.March, 10, 0, 0, 1, 0, time.UTC)
	late := time.Date(2026, time.March, 10, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, StatusExpiringSoon, Classify(expiry, early))
	assert.Equal(t, StatusExpiringSoon, Classify(expiry, late))
	assert.Equal(t, 7, DaysUntil(expiry, early))
	assert.Equal(t, 7, DaysUntil(expiry, late))
}

func TestClassifyAcrossDaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// 2026-03-08 is a 23 hour day in New York.
	today := time.Date(2026, time.March, 1, 12, 0, 0, 0, loc)
	expiry := time.Date(2026, time.March, 9, 0, 0, 0, 0, loc)

	assert.Equal(t, 8, DaysUntil(expiry, today))
	assert.Equal(t, StatusActive, Classify(expiry, today))
}

func TestClassifyIsDeterministic(t *testing.T) {
	today := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for offset := -30; offset <= 30; offset++ {
		expiry := today.AddDate(0, 0, offset)
		first := Classify(expiry, today)
		for i := 0; i < 3; i++ {
			require.Equal(t, first, Classify(expiry, today), "offset %d", offset)
		}
	}
}

func TestStatusOrdering(t *testing.T) {
	assert.Less(t, StatusActive, StatusExpiringSoon)
	assert.Less(t, StatusExpiringSoon, StatusExpired)
	assert.False(t, StatusActive.Alerting())
	assert.False(t, StatusNone.Alerting())
	assert.True(t, StatusExpiringSoon.Alerting())
	assert.True(t, StatusExpired.Alerting())
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusNone, StatusActive, StatusExpiringSoon, StatusExpired} {
		b, err := s.MarshalText()
		require.NoError(t, err)

		var got Status
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("stale")))
}

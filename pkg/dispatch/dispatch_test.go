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

package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/notify"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

type mockLocal struct {
	mock.Mock
}

func (m *mockLocal) SendLocal(title, body string) {
	m.Called(title, body)
}

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) SendRemote(ctx context.Context, address, subject, body string) error {
	return m.Called(ctx, address, subject, body).Error(0)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func note(id, itemID, expiry string) notify.Notification {
	return notify.Notification{
		ID:         id,
		ItemID:     itemID,
		ExpiryDate: day(expiry),
		Title:      "Product expiring soon",
		Message:    itemID + " expires soon",
	}
}

// recorder is a channel that records the order of delivered item ids.
type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) channel() Channel {
	return ChannelFunc{ChannelName: "recorder", Fn: func(ctx context.Context, n notify.Notification) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ids = append(r.ids, n.ItemID)
		return nil
	}}
}

func TestDispatchOrdersByUrgency(t *testing.T) {
	ctx := setupTestLogger(t)
	rec := &recorder{}

	d, err := New(Options{Channels: []Channel{rec.channel()}})
	require.NoError(t, err)

	report := d.Dispatch(ctx, []notify.Notification{
		note("n1", "yogurt", "2026-10-25"),
		note("n2", "milk", "2026-10-19"),
		note("n3", "cheese", "2026-10-19"),
	})

	assert.Equal(t, 3, report.Delivered)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []string{"cheese", "milk", "yogurt"}, rec.ids)
}

func TestDispatchIsolatesChannelFailures(t *testing.T) {
	ctx := setupTestLogger(t)

	local := &mockLocal{}
	local.On("SendLocal", "Product expiring soon", "milk expires soon").Return().Once()

	failing := ChannelFunc{ChannelName: "flaky", Fn: func(ctx context.Context, n notify.Notification) error {
		return errors.New("smtp down")
	}}
	panicking := ChannelFunc{ChannelName: "broken", Fn: func(ctx context.Context, n notify.Notification) error {
		panic("boom")
	}}

	var mu sync.Mutex
	results := map[string]error{}
	d, err := New(Options{
		Channels: []Channel{LocalChannel{Sender: local}, failing, panicking},
		OnResult: func(channel string, err error) {
			mu.Lock()
			defer mu.Unlock()
			results[channel] = err
		},
	})
	require.NoError(t, err)

	report := d.Dispatch(ctx, []notify.Notification{note("n1", "milk", "2026-10-19")})

	local.AssertExpectations(t)
	assert.Equal(t, 1, report.Delivered)
	require.Len(t, report.Failed, 2)

	byChannel := map[string]*DeliveryError{}
	for _, f := range report.Failed {
		byChannel[f.Channel] = f
		assert.Equal(t, "n1", f.NotificationID)
	}
	assert.Contains(t, byChannel["flaky"].Error(), "smtp down")
	assert.Contains(t, byChannel["broken"].Error(), "panicked")

	assert.NoError(t, results["local"])
	assert.Error(t, results["flaky"])
	assert.Error(t, results["broken"])
}

func TestDispatchWithoutChannels(t *testing.T) {
	ctx := setupTestLogger(t)

	d, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, Report{}, d.Dispatch(ctx, []notify.Notification{note("n1", "milk", "2026-10-19")}))

	var nilDispatcher *Dispatcher
	assert.Equal(t, Report{}, nilDispatcher.Dispatch(ctx, nil))
}

func TestNewRejectsNilChannel(t *testing.T) {
	_, err := New(Options{Channels: []Channel{nil}})
	assert.Error(t, err)
}

func TestRemoteChannel(t *testing.T) {
	ctx := setupTestLogger(t)
	n := note("n1", "milk", "2026-10-19")

	t.Run("every_recipient_is_tried", func(t *testing.T) {
		remote := &mockRemote{}
		remote.On("SendRemote", mock.Anything, "a@example.com", n.Title, n.Message).Return(errors.New("mailbox full")).Once()
		remote.On("SendRemote", mock.Anything, "b@example.com", n.Title, n.Message).Return(nil).Once()

		ch := RemoteChannel{Sender: remote, Recipients: []string{"a@example.com", "b@example.com"}}
		err := ch.Send(ctx, n)

		remote.AssertExpectations(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "a@example.com")
		assert.NotContains(t, err.Error(), "b@example.com")
	})

	t.Run("deliveries_have_a_deadline", func(t *testing.T) {
		remote := &mockRemote{}
		remote.On("SendRemote", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), "a@example.com", n.Title, n.Message).Return(nil).Once()

		ch := RemoteChannel{Sender: remote, Recipients: []string{"a@example.com"}, Timeout: time.Second}
		require.NoError(t, ch.Send(ctx, n))
		remote.AssertExpectations(t)
	})

	t.Run("no_recipients", func(t *testing.T) {
		remote := &mockRemote{}
		ch := RemoteChannel{Sender: remote}
		assert.NoError(t, ch.Send(ctx, n))
		remote.AssertNotCalled(t, "SendRemote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

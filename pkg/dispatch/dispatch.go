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

// Package dispatch delivers accepted notifications to every delivery channel.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/shelfwatch/pkg/notify"
)

// 📬 Channel is one way of delivering a notification.
type Channel interface {
	Name() string
	Send(ctx context.Context, n notify.Notification) error
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc struct {
	ChannelName string
	Fn          func(ctx context.Context, n notify.Notification) error
}

func (c ChannelFunc) Name() string { return c.ChannelName }

func (c ChannelFunc) Send(ctx context.Context, n notify.Notification) error {
	return c.Fn(ctx, n)
}

// DeliveryError is one failed delivery of one notification on one channel.
type DeliveryError struct {
	Channel        string
	NotificationID string
	Err            error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering %s via %s: %v", e.NotificationID, e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Report summarizes one Dispatch call.
type Report struct {
	Delivered int
	Failed    []*DeliveryError
}

// Options configure a Dispatcher.
type Options struct {
	Channels []Channel

	// OnResult, when set, is called once per channel per notification with the
	// delivery error or nil.
	OnResult func(channel string, err error)
}

// Dispatcher fans notifications out to channels. A failing or panicking
// channel never affects the others.
type Dispatcher struct {
	channels []Channel
	onResult func(channel string, err error)
}

// 🏭 New creates a Dispatcher. A nil channel is rejected.
func New(opts Options) (*Dispatcher, error) {
	for i, ch := range opts.Channels {
		if ch == nil {
			return nil, errors.Errorf("channel %d is nil", i)
		}
	}
	return &Dispatcher{channels: opts.Channels, onResult: opts.OnResult}, nil
}

// Channels returns the configured channel names.
func (d *Dispatcher) Channels() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Dispatch delivers notifications most urgent first. Each notification goes
// to all channels concurrently; the next notification starts once every
// channel is done with the current one.
func (d *Dispatcher) Dispatch(ctx context.Context, notifications []notify.Notification) Report {
	var report Report
	if d == nil || len(d.channels) == 0 || len(notifications) == 0 {
		return report
	}

	ordered := make([]notify.Notification, len(notifications))
	copy(ordered, notifications)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ExpiryDate.Equal(ordered[j].ExpiryDate) {
			return ordered[i].ExpiryDate.Before(ordered[j].ExpiryDate)
		}
		return ordered[i].ItemID < ordered[j].ItemID
	})

	logger := zerolog.Ctx(ctx)
	for _, n := range ordered {
		var mu sync.Mutex
		var g errgroup.Group
		for _, ch := range d.channels {
			g.Go(func() error {
				err := safeSend(ctx, ch, n)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					derr := &DeliveryError{Channel: ch.Name(), NotificationID: n.ID, Err: err}
					report.Failed = append(report.Failed, derr)
					logger.Warn().Err(err).Str("channel", ch.Name()).Str("item_id", n.ItemID).Msg("delivery failed")
				} else {
					report.Delivered++
				}
				if d.onResult != nil {
					d.onResult(ch.Name(), err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return report
}

func safeSend(ctx context.Context, ch Channel, n notify.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("channel panicked: %v", r)
		}
	}()
	return ch.Send(ctx, n)
}

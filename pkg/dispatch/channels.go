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
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/notify"
)

// DefaultRemoteTimeout bounds one remote delivery when RemoteChannel.Timeout is zero.
const DefaultRemoteTimeout = 15 * time.Second

// LocalSender shows an alert on this machine. It is best effort.
type LocalSender interface {
	SendLocal(title, body string)
}

// RemoteSender delivers a message to one address.
type RemoteSender interface {
	SendRemote(ctx context.Context, address, subject, body string) error
}

// 🖥️ LocalChannel sends through a LocalSender.
type LocalChannel struct {
	Sender LocalSender
}

func (c LocalChannel) Name() string { return "local" }

func (c LocalChannel) Send(ctx context.Context, n notify.Notification) error {
	c.Sender.SendLocal(n.Title, n.Message)
	return nil
}

// ✉️ RemoteChannel sends one message per recipient. Recipients are tried
// independently; the returned error joins every failed recipient.
type RemoteChannel struct {
	Sender     RemoteSender
	Recipients []string

	// Timeout bounds each delivery. Zero means DefaultRemoteTimeout.
	Timeout time.Duration
}

func (c RemoteChannel) Name() string { return "remote" }

func (c RemoteChannel) Send(ctx context.Context, n notify.Notification) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}

	var errs []error
	for _, to := range c.Recipients {
		if err := c.sendOne(ctx, timeout, to, n); err != nil {
			errs = append(errs, errors.Errorf("recipient %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

func (c RemoteChannel) sendOne(ctx context.Context, timeout time.Duration, to string, n notify.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Sender.SendRemote(ctx, to, n.Title, n.Message)
}

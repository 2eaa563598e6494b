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

// Package mail sends alert emails through a template-based JSON relay.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// Options configure a Relay.
type Options struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	UserID     string

	HTTPClient *http.Client
}

// 📧 Relay posts one message per recipient to the relay endpoint.
type Relay struct {
	opts Options
	http *http.Client
}

type templateParams struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams templateParams `json:"template_params"`
}

// New validates the account identifiers and builds a Relay.
func New(opts Options) (*Relay, error) {
	if opts.ServiceID == "" {
		return nil, errors.New("mail service id is required")
	}
	if opts.TemplateID == "" {
		return nil, errors.New("mail template id is required")
	}
	if opts.UserID == "" {
		return nil, errors.New("mail user id is required")
	}
	if strings.TrimSpace(opts.Endpoint) == "" {
		opts.Endpoint = DefaultEndpoint
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Relay{opts: opts, http: hc}, nil
}

// SendRemote delivers subject and body to address. Any non-2xx answer is an error
// carrying the relay's response text.
func (r *Relay) SendRemote(ctx context.Context, address, subject, body string) error {
	if strings.TrimSpace(address) == "" {
		return errors.New("recipient address is required")
	}

	payload, err := json.Marshal(sendRequest{
		ServiceID:  r.opts.ServiceID,
		TemplateID: r.opts.TemplateID,
		UserID:     r.opts.UserID,
		TemplateParams: templateParams{
			ToEmail: address,
			Subject: subject,
			Message: body,
		},
	})
	if err != nil {
		return errors.Errorf("encoding mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Errorf("creating mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return errors.Errorf("sending mail to %s: %w", address, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("mail relay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	zerolog.Ctx(ctx).Debug().Str("to", address).Str("subject", subject).Msg("mail sent")
	return nil
}

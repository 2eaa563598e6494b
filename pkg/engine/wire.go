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

package engine

import (
	"io"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/config"
	"github.com/walteh/shelfwatch/pkg/console"
	"github.com/walteh/shelfwatch/pkg/dispatch"
	"github.com/walteh/shelfwatch/pkg/mail"
	"github.com/walteh/shelfwatch/pkg/store"
	"github.com/walteh/shelfwatch/pkg/store/filestore"
	"github.com/walteh/shelfwatch/pkg/store/memory"
	"github.com/walteh/shelfwatch/pkg/store/rest"
)

// 🗄️ Backend is an opened item store.
type Backend struct {
	Lister  store.Lister
	Mutator store.Mutator

	// File is set for file stores so the caller can run its watcher.
	File *filestore.Store
}

// OpenStore builds the store named by cfg and applies its location filter.
func OpenStore(cfg config.StoreConfig) (*Backend, error) {
	b := &Backend{}

	switch cfg.Kind {
	case config.StoreMemory:
		m := memory.New()
		b.Lister, b.Mutator = m, m
	case config.StoreFile:
		f, err := filestore.New(cfg.Path)
		if err != nil {
			return nil, errors.Errorf("opening file store: %w", err)
		}
		b.Lister, b.Mutator, b.File = f, f, f
	case config.StoreREST:
		c, err := rest.New(rest.Options{URL: cfg.URL, APIKey: cfg.APIKey, Table: cfg.Table})
		if err != nil {
			return nil, errors.Errorf("opening rest store: %w", err)
		}
		b.Lister, b.Mutator = c, c
	default:
		return nil, errors.Errorf("unknown store kind %q", cfg.Kind)
	}

	if len(cfg.Locations) > 0 {
		filtered, err := store.NewLocationFilter(b.Lister, cfg.Locations)
		if err != nil {
			return nil, errors.Errorf("building location filter: %w", err)
		}
		b.Lister = filtered
	}
	return b, nil
}

// BuildChannels returns the delivery channels enabled in cfg. Local alerts
// are written to w.
func BuildChannels(cfg *config.Config, w io.Writer) ([]dispatch.Channel, error) {
	var channels []dispatch.Channel

	if cfg.LocalEnabled() {
		channels = append(channels, dispatch.LocalChannel{Sender: console.New(w)})
	}

	if cfg.Email.Enabled {
		relay, err := mail.New(mail.Options{
			Endpoint:   cfg.Email.Endpoint,
			ServiceID:  cfg.Email.ServiceID,
			TemplateID: cfg.Email.TemplateID,
			UserID:     cfg.Email.UserID,
		})
		if err != nil {
			return nil, errors.Errorf("creating mail relay: %w", err)
		}
		channels = append(channels, dispatch.RemoteChannel{
			Sender:     relay,
			Recipients: cfg.Email.Recipients,
			Timeout:    cfg.Email.Timeout.Std(),
		})
	}

	return channels, nil
}

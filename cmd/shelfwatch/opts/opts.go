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

package opts

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/shelfwatch/pkg/config"
	"github.com/walteh/shelfwatch/pkg/engine"
	"github.com/walteh/shelfwatch/pkg/log"
	"github.com/walteh/shelfwatch/pkg/metrics"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool

	// Config is loaded by the root command before any subcommand runs.
	Config *config.Config
	Out    io.Writer
}

// Runtime is everything a command needs to drive the pipeline.
type Runtime struct {
	Engine  *engine.Engine
	Backend *engine.Backend
	Logger  *log.Logger
}

// Load reads ConfigFile into Config.
func (o *RootOpts) Load(ctx context.Context) error {
	cfg, err := config.Load(ctx, o.ConfigFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	o.Config = cfg
	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("configuration loaded")
	return nil
}

// NewRuntime opens the configured store and channels and builds an engine.
// m may be nil.
func (o *RootOpts) NewRuntime(ctx context.Context, m *metrics.Metrics) (*Runtime, error) {
	if o.Config == nil {
		return nil, errors.New("config not loaded")
	}

	backend, err := engine.OpenStore(o.Config.Store)
	if err != nil {
		return nil, err
	}

	channels, err := engine.BuildChannels(o.Config, o.Out)
	if err != nil {
		return nil, err
	}

	logger := log.New(o.Out, *zerolog.Ctx(ctx))

	e, err := engine.New(engine.Options{
		Lister:       backend.Lister,
		Mutator:      backend.Mutator,
		Channels:     channels,
		Reporter:     logger,
		Metrics:      m,
		PollInterval: o.Config.PollInterval.Std(),
	})
	if err != nil {
		return nil, errors.Errorf("creating engine: %w", err)
	}

	return &Runtime{Engine: e, Backend: backend, Logger: logger}, nil
}

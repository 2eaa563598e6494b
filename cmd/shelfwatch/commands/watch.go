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

package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/shelfwatch/cmd/shelfwatch/opts"
	"github.com/walteh/shelfwatch/pkg/metrics"
	"github.com/walteh/shelfwatch/pkg/reconcile"
)

// fileWatchInterval is how often a file store is checked for edits.
const fileWatchInterval = 2 * time.Second

// NewWatchCmd creates the watch command
func NewWatchCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the inventory and alert on expiring items",
		Long: `Watch refreshes the inventory on a timer and whenever the store reports
a change. Items that become expiring soon or expired raise one alert per
enabled channel. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), o)
		},
	}

	return cmd
}

func runWatch(ctx context.Context, o *opts.RootOpts) error {
	logger := zerolog.Ctx(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt, err := o.NewRuntime(ctx, metrics.New(reg))
	if err != nil {
		return err
	}

	rt.Logger.Header("watching " + o.Config.String())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.Engine.Run(ctx)
	})

	if rt.Backend.File != nil {
		g.Go(func() error {
			rt.Backend.File.Watch(ctx, fileWatchInterval)
			return nil
		})
	}

	if addr := o.Config.Metrics.Addr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsMux(reg, rt.Engine.Health),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", addr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Errorf("serving metrics: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	h := rt.Engine.Health()
	rt.Logger.Infof("stopped after %d refreshes", h.Cycles)
	return nil
}

// metricsMux serves /metrics and a /healthz check that fails while the
// snapshot is stale.
func metricsMux(reg *prometheus.Registry, health func() reconcile.Health) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h := health()
		if h.Stale() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "stale: %v\n", h.LastError)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok: %d refreshes\n", h.Cycles)
	})
	return mux
}

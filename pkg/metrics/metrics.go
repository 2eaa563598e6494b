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

// Package metrics exposes refresh and delivery counters to Prometheus.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/walteh/shelfwatch/pkg/item"
	"github.com/walteh/shelfwatch/pkg/reconcile"
)

const namespace = "shelfwatch"

// 📈 Metrics records coordinator and dispatcher activity.
type Metrics struct {
	cycles        *prometheus.CounterVec
	coalesced     prometheus.Counter
	rejected      prometheus.Counter
	notifications *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	items         *prometheus.GaugeVec
	unread        prometheus.Gauge
	stale         prometheus.Gauge
	cycleDuration prometheus.Histogram
}

var _ reconcile.Reporter = (*Metrics)(nil)

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by trigger source and outcome",
		}, []string{"source", "outcome"}),
		coalesced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_coalesced_total",
			Help:      "Triggers folded into a pending follow-up cycle",
		}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_rejected_total",
			Help:      "Items skipped because they could not be classified",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications accepted into the inbox by severity",
		}, []string{"severity"}),
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Delivery attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		items: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Items in the published snapshot by status",
		}, []string{"status"}),
		unread: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notifications_unread",
			Help:      "Unread notifications",
		}),
		stale: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_stale",
			Help:      "1 when the latest refresh failed",
		}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh cycles",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		}),
	}
}

func (m *Metrics) CycleCompleted(ctx context.Context, r reconcile.Result) {
	m.cycleDuration.Observe(r.Duration.Seconds())

	if r.Err != nil {
		m.cycles.WithLabelValues(string(r.Source), "error").Inc()
		m.stale.Set(1)
		return
	}
	m.cycles.WithLabelValues(string(r.Source), "ok").Inc()
	m.stale.Set(0)
	m.rejected.Add(float64(len(r.Rejected)))
	m.unread.Set(float64(r.Unread))

	for _, n := range r.Accepted {
		m.notifications.WithLabelValues(string(n.Severity)).Inc()
	}

	counts := r.Snapshot.Count()
	for _, s := range []item.Status{item.StatusActive, item.StatusExpiringSoon, item.StatusExpired} {
		m.items.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}

func (m *Metrics) TriggerCoalesced(ctx context.Context, s reconcile.Source) {
	m.coalesced.Inc()
}

// ObserveDelivery counts one delivery attempt. It matches the dispatcher's
// result hook.
func (m *Metrics) ObserveDelivery(channel string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.deliveries.WithLabelValues(channel, outcome).Inc()
}

// SetUnread updates the unread gauge outside of a refresh, after mark-read.
func (m *Metrics) SetUnread(n int) {
	m.unread.Set(float64(n))
}

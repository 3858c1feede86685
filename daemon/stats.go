/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package daemon

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Snapshot is what we report as status via http
type Snapshot struct {
	Armed          bool     `json:"armed"`
	Failsafe       bool     `json:"failsafe"`
	Errors         string   `json:"errors"`
	TicksProcessed uint64   `json:"ticks_processed"`
	FailsafeEvents uint64   `json:"failsafe_events"`
	Channels       []uint16 `json:"channels"`
}

// Stats collects supervisor state for the monitoring endpoint, exported
// both as a JSON snapshot and as prometheus metrics
type Stats struct {
	mu   sync.Mutex
	snap Snapshot

	registry       *prometheus.Registry
	armed          prometheus.Gauge
	failsafe       prometheus.Gauge
	ticksProcessed prometheus.Counter
	failsafeEvents prometheus.Counter
}

// NewStats returns Stats with its own prometheus registry, so multiple
// daemons in one process (tests) do not collide
func NewStats() *Stats {
	s := &Stats{
		registry: prometheus.NewRegistry(),
		armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flight_armed",
			Help: "1 when motor output is permitted",
		}),
		failsafe: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flight_failsafe",
			Help: "1 while pilot input is judged unreliable",
		}),
		ticksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flight_ticks_processed_total",
			Help: "Supervisor ticks that passed the rate gate",
		}),
		failsafeEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flight_failsafe_events_total",
			Help: "Transitions into failsafe",
		}),
	}
	s.registry.MustRegister(s.armed, s.failsafe, s.ticksProcessed, s.failsafeEvents)
	return s
}

// Update records the supervisor state after one processed tick
func (s *Stats) Update(armed, failsafe bool, errors string, channels []uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if failsafe && !s.snap.Failsafe {
		s.snap.FailsafeEvents++
		s.failsafeEvents.Inc()
	}
	s.snap.Armed = armed
	s.snap.Failsafe = failsafe
	s.snap.Errors = errors
	s.snap.Channels = channels
	s.snap.TicksProcessed++
	s.ticksProcessed.Inc()
	s.armed.Set(boolToFloat(armed))
	s.failsafe.Set(boolToFloat(failsafe))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Snapshot returns a copy of the current status
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Channels = append([]uint16(nil), s.snap.Channels...)
	return snap
}

func (s *Stats) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
		log.Errorf("failed to encode status: %v", err)
	}
}

// Handler serves the JSON snapshot on / and prometheus metrics on /metrics
func (s *Stats) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

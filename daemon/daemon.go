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

// Package daemon is the orchestrator: it owns one supervisor instance,
// drives it from the main loop at the configured tick rate, and serves
// monitoring. The supervisor makes the decisions; the daemon only feeds
// it the clock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openuav/flight/board"
	"github.com/openuav/flight/mode"
	"github.com/openuav/flight/param"
	"github.com/openuav/flight/rc"
	"github.com/openuav/flight/sensors"
	"github.com/openuav/flight/state"
)

// GyroSource returns the latest latched gyro sample, rad/s. The IMU
// driver behind it is out of scope here.
type GyroSource interface {
	ReadGyro() (x, y, z float64)
}

// Daemon ties one supervisor to a board and runs the control loop
type Daemon struct {
	cfg      *Config
	clock    board.Clock
	channels board.ChannelSource
	params   *param.Store
	errors   *state.Manager
	cal      *sensors.Calibrator
	sup      *mode.Supervisor
	stats    *Stats
	gyro     GyroSource
}

// New wires a Daemon to board hardware. gyro may be nil when no IMU is
// available; calibrate-on-arm cannot complete without one.
func New(cfg *Config, clock board.Clock, channels board.ChannelSource, led board.StatusLED, params *param.Store, gyro GyroSource) *Daemon {
	d := &Daemon{
		cfg:      cfg,
		clock:    clock,
		channels: channels,
		params:   params,
		errors:   state.NewManager(),
		cal:      sensors.NewCalibrator(),
		stats:    NewStats(),
		gyro:     gyro,
	}
	input := &rc.Input{}
	input.Init(channels, params)
	d.sup = &mode.Supervisor{}
	d.sup.Init(channels, led, params, input, d.errors, d.cal)
	if gyro == nil && params.GetInt(param.CalibrateGyroOnArm) != 0 {
		log.Warning("calibrate_gyro_on_arm is set but no gyro source is available, arming will never complete")
	}
	return d
}

// Supervisor exposes the daemon's supervisor instance
func (d *Daemon) Supervisor() *mode.Supervisor {
	return d.sup
}

// Stats exposes the daemon's monitoring state
func (d *Daemon) Stats() *Stats {
	return d.stats
}

// Run drives the control loop and the monitoring server until ctx is done
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", d.cfg.MonitoringPort),
		Handler: d.stats.Handler(),
	}
	g.Go(func() error {
		log.Infof("serving monitoring on %s", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return server.Close()
	})
	g.Go(func() error {
		return d.loop(ctx)
	})

	if err := g.Wait(); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (d *Daemon) loop(ctx context.Context) error {
	log.Infof("control loop running every %s", d.cfg.Interval)
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick runs one main-loop iteration: feed the calibrator if a run is in
// progress, then let the supervisor decide whether this tick counts.
func (d *Daemon) Tick() {
	if d.gyro != nil && d.cal.Calibrating() {
		d.cal.Sample(d.gyro.ReadGyro())
	}
	if !d.sup.Update(d.clock.Millis()) {
		return
	}
	channels := make([]uint16, d.params.GetInt(param.RCNumChannels))
	for i := range channels {
		channels[i] = d.channels.Read(i)
	}
	d.stats.Update(d.sup.Armed(), d.sup.FailsafeActive(), d.errors.Errors().String(), channels)
}

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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openuav/flight/board"
	"github.com/openuav/flight/board/sim"
	"github.com/openuav/flight/daemon"
	"github.com/openuav/flight/ibus"
	"github.com/openuav/flight/param"
)

// stillGyro stands in for the IMU driver in simulator mode: a vehicle
// sitting on the bench with a small constant bias.
type stillGyro struct{}

func (stillGyro) ReadGyro() (x, y, z float64) {
	return 0.0004, -0.0002, 0.0001
}

func main() {
	var (
		cfg     = daemon.DefaultConfig()
		err     error
		cfgPath string
		verbose bool
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "flightd: mode and failsafe supervisor daemon\n\nFlags:\n")
		flag.PrintDefaults()
	}

	flag.StringVar(&cfg.Device, "device", "", "Serial device the iBUS receiver is connected to")
	flag.BoolVar(&cfg.Simulate, "simulate", false, "Run against a simulated board instead of hardware")
	flag.IntVar(&cfg.MonitoringPort, "monitoringport", cfg.MonitoringPort, "Port to serve JSON status and prometheus metrics on")
	flag.DurationVar(&cfg.Interval, "i", cfg.Interval, "Main loop tick interval")
	flag.StringVar(&cfg.ParamFile, "params", "", "Path to firmware parameter overrides (YAML)")

	flag.StringVar(&cfgPath, "cfg", "", "Path to config")
	flag.BoolVar(&verbose, "verbose", false, "Verbose logging")

	flag.Parse()

	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if cfgPath != "" {
		log.Warningf("using config from %s, flag values are ignored", cfgPath)
		cfg, err = daemon.ReadConfig(cfgPath)
		if err != nil {
			log.Fatalf("reading config: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	params := param.NewStore()
	if cfg.ParamFile != "" {
		if err := params.Load(cfg.ParamFile); err != nil {
			log.Fatalf("loading params: %v", err)
		}
	}

	clock := board.NewMonotonicClock()
	led := &board.LogLED{}
	var channels board.ChannelSource
	var gyro daemon.GyroSource
	if cfg.Simulate {
		log.Info("running against simulated board")
		b := sim.NewBoard()
		b.SetChannel(params.GetInt(param.RCThrottleChannel), 1000)
		channels = b
		gyro = stillGyro{}
	} else {
		receiver, err := ibus.Open(cfg.Device)
		if err != nil {
			log.Fatalf("opening receiver: %v", err)
		}
		defer receiver.Close()
		channels = receiver
	}

	d := daemon.New(cfg, clock, channels, led, params, gyro)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	if err := d.Run(ctx); err != nil {
		log.Fatal(err)
	}
	log.Infof("shut down after %s", time.Since(start).Round(time.Second))
}

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

// Package board defines the hardware contracts the supervisory firmware
// runs against. Concrete ports (real receiver hardware, the simulator)
// implement these; the decision logic never touches hardware directly.
package board

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Clock is a monotonic millisecond time source. Values wrap around
// uint32 the way an embedded tick counter does.
type Clock interface {
	Millis() uint32
}

// ChannelSource exposes the latest latched RC channel values, in
// microsecond pulse-width units, nominally within [900, 2100].
type ChannelSource interface {
	// Read returns the raw value of the given channel
	Read(ch int) uint16
	// LinkLost reports whether the link layer lost the carrier
	LinkLost() bool
}

// StatusLED is the arming/failsafe indicator. Calls are fire and forget.
type StatusLED interface {
	On()
	Off()
	Toggle()
}

// Board is what a full hardware port provides
type Board interface {
	Clock
	ChannelSource
	StatusLED
}

type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a Clock backed by the host monotonic clock,
// starting at zero.
func NewMonotonicClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// LogLED is a StatusLED for ports without an indicator GPIO: it logs
// on/off transitions and stays silent on repeats.
type LogLED struct {
	lit bool
}

// On turns the indicator on
func (l *LogLED) On() {
	if !l.lit {
		log.Debug("status LED on")
	}
	l.lit = true
}

// Off turns the indicator off
func (l *LogLED) Off() {
	if l.lit {
		log.Debug("status LED off")
	}
	l.lit = false
}

// Toggle flips the indicator
func (l *LogLED) Toggle() {
	if l.lit {
		l.Off()
	} else {
		l.On()
	}
}

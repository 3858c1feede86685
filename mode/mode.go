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

// Package mode is the mode and failsafe supervisor: on every control
// tick it decides whether the motors are allowed to spin and whether the
// vehicle has lost reliable pilot input. It is the only owner of the
// armed and failsafe flags.
package mode

import (
	log "github.com/sirupsen/logrus"

	"github.com/openuav/flight/board"
	"github.com/openuav/flight/param"
	"github.com/openuav/flight/rc"
	"github.com/openuav/flight/state"
)

const (
	// updateIntervalMs is the minimum spacing between processed ticks.
	// The main loop runs much faster; everything between is skipped.
	updateIntervalMs = 20
	// armGestureHoldMs is how long the sticks must hold the arm or
	// disarm position before it takes effect
	armGestureHoldMs = 500
	// pulseValidMin/Max bound a plausible channel reading, µs. Anything
	// outside means the signal is garbled and we go to failsafe.
	pulseValidMin = 900
	pulseValidMax = 2100
	// blinkIntervalTicks paces the failsafe LED blink: one toggle every
	// blinkIntervalTicks+1 processed ticks, about 1 Hz at 20 ms cadence
	blinkIntervalTicks = 25
)

// Calibrator triggers the on-arm gyro calibration and reports completion
type Calibrator interface {
	StartGyroCalibration()
	GyroCalibrationComplete() bool
}

// Supervisor owns arm state, failsafe state and the gesture/blink
// bookkeeping. Not safe for concurrent use: one instance is driven from
// a single control-flow context, once per firmware tick.
type Supervisor struct {
	channels   board.ChannelSource
	led        board.StatusLED
	params     *param.Store
	input      *rc.Input
	errors     *state.Manager
	calibrator Calibrator

	armed          bool
	failsafeActive bool
	// pendingCalibration is true while an arm attempt kicked off a gyro
	// calibration and arming waits for it to finish
	pendingCalibration bool
	lastUpdateMs       uint32
	gestureHoldMs      uint32
	blinkCount         uint8
}

// Init wires the supervisor to its collaborators and resets all state.
// Must be called before the first Update.
func (s *Supervisor) Init(channels board.ChannelSource, led board.StatusLED, params *param.Store, input *rc.Input, errors *state.Manager, calibrator Calibrator) {
	s.channels = channels
	s.led = led
	s.params = params
	s.input = input
	s.errors = errors
	s.calibrator = calibrator
	s.armed = false
	s.failsafeActive = false
	s.pendingCalibration = false
	s.lastUpdateMs = 0
	s.gestureHoldMs = 0
	s.blinkCount = 0
}

// Armed reports whether motor output is currently permitted
func (s *Supervisor) Armed() bool {
	return s.armed
}

// FailsafeActive reports whether pilot input is currently judged unreliable
func (s *Supervisor) FailsafeActive() bool {
	return s.failsafeActive
}

// Errors returns a snapshot of the fault bitmask, for telemetry
func (s *Supervisor) Errors() state.ErrorCode {
	return s.errors.Errors()
}

// Arm attempts the disarmed->armed transition and reports whether the
// vehicle ended up newly armed. An active fault always refuses; with
// calibrate-on-arm enabled the first attempt starts the calibration and
// arming completes on a later attempt, once the gyro bias is in.
func (s *Supervisor) Arm() bool {
	if s.errors.Errors() != state.ErrorNone {
		log.Warningf("arm refused, active faults: %s", s.errors.Errors())
		return false
	}

	if s.params.GetInt(param.CalibrateGyroOnArm) != 0 {
		if !s.pendingCalibration && !s.armed {
			s.calibrator.StartGyroCalibration()
			s.pendingCalibration = true
			return false
		}
		if s.calibrator.GyroCalibrationComplete() {
			s.pendingCalibration = false
			s.armed = true
			s.led.On()
			log.Info("armed")
			return true
		}
		return false
	}

	if !s.armed {
		s.armed = true
		s.led.On()
		log.Info("armed")
		return true
	}
	return false
}

// Disarm unconditionally cuts motor permission. It cannot fail: the
// vehicle must always be able to go safe, faults or not.
func (s *Supervisor) Disarm() {
	if s.armed {
		log.Info("disarmed")
	}
	s.armed = false
	s.led.Off()
}

// CheckFailsafe evaluates link health for this tick and returns the
// failsafe verdict. Link loss raises the RC-lost fault; a channel value
// outside the valid band forces failsafe without raising the fault bit,
// so "no signal" and "signal present but garbled" stay distinguishable.
func (s *Supervisor) CheckFailsafe() bool {
	failsafe := false

	if s.channels.LinkLost() {
		failsafe = true
		s.errors.Set(state.ErrorRCLost)
	} else {
		for i := 0; i < s.params.GetInt(param.RCNumChannels); i++ {
			v := s.channels.Read(i)
			if v < pulseValidMin || v > pulseValidMax {
				failsafe = true
			}
		}
	}

	if failsafe {
		// slow blink so the user knows we are in failsafe
		if s.blinkCount > blinkIntervalTicks {
			s.led.Toggle()
			s.blinkCount = 0
		}
		s.blinkCount++

		if !s.failsafeActive {
			log.Warning("failsafe activated")
		}
		s.failsafeActive = true
	} else {
		if s.failsafeActive {
			log.Info("failsafe cleared")
		}
		s.failsafeActive = false
		s.errors.Clear(state.ErrorRCLost)

		if s.armed {
			s.led.On()
		} else {
			s.led.Off()
		}
	}
	return failsafe
}

// Update runs one supervisor tick at the given clock reading and reports
// whether the tick was processed. Calls closer than 20 ms to the last
// processed tick do nothing; each processed tick anchors the next dt to
// the actual clock so scheduling jitter does not accumulate.
func (s *Supervisor) Update(nowMs uint32) bool {
	dt := nowMs - s.lastUpdateMs
	if dt < updateIntervalMs {
		return false
	}
	s.lastUpdateMs = nowMs

	if s.CheckFailsafe() {
		// no arm/disarm decisions on unreliable input
		return true
	}

	if !s.input.SwitchMapped(rc.SwitchArm) {
		threshold := s.params.GetFloat(param.ArmThreshold)
		if !s.armed {
			// left stick down and to the right
			if s.input.StickValue(rc.StickF) < threshold &&
				s.input.StickValue(rc.StickZ) > (1.0-threshold) {
				s.gestureHoldMs += dt
			} else {
				s.gestureHoldMs = 0
			}
			if s.gestureHoldMs > armGestureHoldMs {
				if s.Arm() {
					s.gestureHoldMs = 0
				}
			}
		} else {
			// left stick down and to the left
			if s.input.StickValue(rc.StickF) < threshold &&
				s.input.StickValue(rc.StickZ) < -(1.0-threshold) {
				s.gestureHoldMs += dt
			} else {
				s.gestureHoldMs = 0
			}
			if s.gestureHoldMs > armGestureHoldMs {
				s.Disarm()
				s.gestureHoldMs = 0
			}
		}
	} else {
		if s.input.SwitchOn(rc.SwitchArm) {
			if !s.armed {
				s.Arm()
			}
		} else {
			s.Disarm()
		}
	}
	return true
}

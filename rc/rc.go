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

// Package rc maps raw receiver channel values to normalized stick axes
// and named switch functions.
package rc

import (
	"github.com/openuav/flight/board"
	"github.com/openuav/flight/param"
)

// Stick identifies a control axis
type Stick int

// All the stick axes
const (
	StickX Stick = iota // roll
	StickY              // pitch
	StickZ              // yaw
	StickF              // throttle
	numSticks
)

// Switch identifies a switch-mapped function
type Switch int

// All the switch functions
const (
	SwitchArm Switch = iota
	numSwitches
)

const (
	pulseMin    = 1000.0
	pulseCenter = 1500.0
	pulseHalf   = 500.0
	pulseRange  = 1000.0
	switchOnMin = 1500
)

// Input resolves stick and switch reads against a channel source.
// Channel mappings are a configuration-time fact: Init caches them once
// rather than consulting the parameter store on every tick.
type Input struct {
	source     board.ChannelSource
	stickChan  [numSticks]int
	switchChan [numSwitches]int
}

// Init binds the input to its channel source and caches channel mappings
func (in *Input) Init(source board.ChannelSource, params *param.Store) {
	in.source = source
	in.stickChan[StickX] = params.GetInt(param.RCXChannel)
	in.stickChan[StickY] = params.GetInt(param.RCYChannel)
	in.stickChan[StickZ] = params.GetInt(param.RCYawChannel)
	in.stickChan[StickF] = params.GetInt(param.RCThrottleChannel)
	in.switchChan[SwitchArm] = params.GetInt(param.ArmSwitchChannel)
}

// StickValue returns the normalized deflection of an axis: throttle in
// [0, 1], everything else in [-1, 1]. Values outside the nominal pulse
// band extrapolate rather than clamp; failsafe detection judges raw
// values separately.
func (in *Input) StickValue(s Stick) float64 {
	raw := float64(in.source.Read(in.stickChan[s]))
	if s == StickF {
		return (raw - pulseMin) / pulseRange
	}
	return (raw - pulseCenter) / pulseHalf
}

// SwitchMapped reports whether the function has a channel assigned
func (in *Input) SwitchMapped(sw Switch) bool {
	return in.switchChan[sw] >= 0
}

// SwitchOn reports whether a mapped switch reads in its "on" position
func (in *Input) SwitchOn(sw Switch) bool {
	if !in.SwitchMapped(sw) {
		return false
	}
	return in.source.Read(in.switchChan[sw]) >= switchOnMin
}

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

// Package param is the firmware configuration store: named scalar
// parameters with defaults, optionally overridden from a YAML file.
package param

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// ID identifies a single parameter
type ID int

// All the parameters this firmware knows about
const (
	RCNumChannels ID = iota
	RCXChannel
	RCYChannel
	RCThrottleChannel
	RCYawChannel
	ArmThreshold
	ArmSwitchChannel
	CalibrateGyroOnArm
	numParams
)

// Store holds current parameter values. Reads during a control tick are
// plain memory loads; there is no locking because parameters only change
// between ticks.
type Store struct {
	ints   map[ID]int
	floats map[ID]float64
}

// NewStore returns a Store populated with firmware defaults
func NewStore() *Store {
	return &Store{
		ints: map[ID]int{
			RCNumChannels:      8,
			RCXChannel:         0,
			RCYChannel:         1,
			RCThrottleChannel:  2,
			RCYawChannel:       3,
			ArmSwitchChannel:   -1, // unmapped, use stick gesture
			CalibrateGyroOnArm: 0,
		},
		floats: map[ID]float64{
			ArmThreshold: 0.15,
		},
	}
}

// GetInt returns an integer parameter. Unknown IDs return zero, same as
// an uninitialized register would.
func (s *Store) GetInt(id ID) int {
	return s.ints[id]
}

// GetFloat returns a float parameter
func (s *Store) GetFloat(id ID) float64 {
	return s.floats[id]
}

// SetInt overrides an integer parameter
func (s *Store) SetInt(id ID, v int) {
	s.ints[id] = v
}

// SetFloat overrides a float parameter
func (s *Store) SetFloat(id ID, v float64) {
	s.floats[id] = v
}

// fileParams is the YAML shape. Pointer fields so absent keys keep their
// defaults.
type fileParams struct {
	RCNumChannels      *int     `yaml:"rc_num_channels"`
	RCXChannel         *int     `yaml:"rc_x_channel"`
	RCYChannel         *int     `yaml:"rc_y_channel"`
	RCThrottleChannel  *int     `yaml:"rc_throttle_channel"`
	RCYawChannel       *int     `yaml:"rc_yaw_channel"`
	ArmThreshold       *float64 `yaml:"arm_threshold"`
	ArmSwitchChannel   *int     `yaml:"arm_switch_channel"`
	CalibrateGyroOnArm *bool    `yaml:"calibrate_gyro_on_arm"`
}

// Load applies overrides from a YAML file on top of the current values
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fp := fileParams{}
	if err := yaml.UnmarshalStrict(data, &fp); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	intOverrides := map[ID]*int{
		RCNumChannels:     fp.RCNumChannels,
		RCXChannel:        fp.RCXChannel,
		RCYChannel:        fp.RCYChannel,
		RCThrottleChannel: fp.RCThrottleChannel,
		RCYawChannel:      fp.RCYawChannel,
		ArmSwitchChannel:  fp.ArmSwitchChannel,
	}
	for id, v := range intOverrides {
		if v != nil {
			s.ints[id] = *v
		}
	}
	if fp.ArmThreshold != nil {
		s.floats[ArmThreshold] = *fp.ArmThreshold
	}
	if fp.CalibrateGyroOnArm != nil {
		s.ints[CalibrateGyroOnArm] = 0
		if *fp.CalibrateGyroOnArm {
			s.ints[CalibrateGyroOnArm] = 1
		}
	}
	return s.Validate()
}

// Validate makes sure parameter values are usable
func (s *Store) Validate() error {
	if n := s.ints[RCNumChannels]; n < 1 || n > 16 {
		return fmt.Errorf("bad config: 'rc_num_channels' must be within [1, 16], got %d", n)
	}
	if t := s.floats[ArmThreshold]; t < 0 || t > 1 {
		return fmt.Errorf("bad config: 'arm_threshold' must be within [0, 1], got %v", t)
	}
	for _, id := range []ID{RCXChannel, RCYChannel, RCThrottleChannel, RCYawChannel} {
		if ch := s.ints[id]; ch < 0 || ch >= s.ints[RCNumChannels] {
			return fmt.Errorf("bad config: stick channel %d out of range", ch)
		}
	}
	if ch := s.ints[ArmSwitchChannel]; ch >= s.ints[RCNumChannels] {
		return fmt.Errorf("bad config: 'arm_switch_channel' %d out of range", ch)
	}
	return nil
}

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

// Package state tracks firmware fault conditions as a bitmask of named
// error codes. The supervisor reads the mask to gate arming and toggles
// only the RC-lost bit; everything else is set by other subsystems.
package state

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrorCode is a bitmask of active fault conditions
type ErrorCode uint16

// ErrorNone means no active fault
const ErrorNone ErrorCode = 0

// All the fault bits
const (
	ErrorRCLost ErrorCode = 1 << iota
	ErrorTimeGoingBackwards
	ErrorIMUNotResponding
	ErrorUncalibratedIMU
)

var errorNames = []struct {
	bit  ErrorCode
	name string
}{
	{ErrorRCLost, "RC_LOST"},
	{ErrorTimeGoingBackwards, "TIME_GOING_BACKWARDS"},
	{ErrorIMUNotResponding, "IMU_NOT_RESPONDING"},
	{ErrorUncalibratedIMU, "UNCALIBRATED_IMU"},
}

func (e ErrorCode) String() string {
	if e == ErrorNone {
		return "NONE"
	}
	names := []string{}
	for _, en := range errorNames {
		if e&en.bit != 0 {
			names = append(names, en.name)
		}
	}
	return strings.Join(names, "|")
}

// Manager owns the fault bitmask. It is not safe for concurrent use:
// the firmware mutates it from a single control-flow context only.
type Manager struct {
	errors ErrorCode
}

// NewManager returns a Manager with no active faults
func NewManager() *Manager {
	return &Manager{}
}

// Set raises the given fault bits. Transitions are logged once, not on
// every tick the condition persists.
func (m *Manager) Set(code ErrorCode) {
	if m.errors&code == code {
		return
	}
	m.errors |= code
	log.Warningf("fault raised: %s (active: %s)", code, m.errors)
}

// Clear lowers the given fault bits
func (m *Manager) Clear(code ErrorCode) {
	if m.errors&code == 0 {
		return
	}
	m.errors &^= code
	log.Infof("fault cleared: %s (active: %s)", code, m.errors)
}

// Errors returns the current fault bitmask
func (m *Manager) Errors() ErrorCode {
	return m.errors
}

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

// Package sim provides a fully scriptable board: tests and the flightd
// simulator set the clock and channel values and observe the LED.
package sim

import "sync"

// MaxChannels is how many RC channels the simulated receiver exposes
const MaxChannels = 16

// Board implements board.Board with settable state. Safe for concurrent
// use so the simulator can script it from outside the control loop.
type Board struct {
	mu       sync.Mutex
	millis   uint32
	channels [MaxChannels]uint16
	linkLost bool
	ledLit   bool
	toggles  int
}

// NewBoard returns a Board at t=0 with all channels centered at 1500 µs
// and throttle-style low values left to the caller.
func NewBoard() *Board {
	b := &Board{}
	for i := range b.channels {
		b.channels[i] = 1500
	}
	return b
}

// Millis returns the simulated clock
func (b *Board) Millis() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.millis
}

// SetMillis sets the simulated clock
func (b *Board) SetMillis(ms uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.millis = ms
}

// AdvanceMillis moves the simulated clock forward and returns the new value
func (b *Board) AdvanceMillis(ms uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.millis += ms
	return b.millis
}

// Read returns the raw value of the given channel
func (b *Board) Read(ch int) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch < 0 || ch >= MaxChannels {
		return 0
	}
	return b.channels[ch]
}

// SetChannel sets one channel's raw value
func (b *Board) SetChannel(ch int, v uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch < 0 || ch >= MaxChannels {
		return
	}
	b.channels[ch] = v
}

// SetChannels sets the first len(vs) channels at once
func (b *Board) SetChannels(vs []uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.channels[:], vs)
}

// LinkLost reports the scripted carrier state
func (b *Board) LinkLost() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.linkLost
}

// SetLinkLost scripts the carrier state
func (b *Board) SetLinkLost(lost bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.linkLost = lost
}

// On turns the simulated LED on
func (b *Board) On() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledLit = true
}

// Off turns the simulated LED off
func (b *Board) Off() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledLit = false
}

// Toggle flips the simulated LED and counts the flip
func (b *Board) Toggle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ledLit = !b.ledLit
	b.toggles++
}

// LEDLit reports the simulated LED state
func (b *Board) LEDLit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledLit
}

// Toggles returns how many times the LED was toggled (not set) since start
func (b *Board) Toggles() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.toggles
}

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

// Package ibus reads FlySky iBUS frames from a serial RC receiver and
// exposes the latched channel values as a board.ChannelSource.
package ibus

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

const (
	// FrameLength is the full iBUS servo frame: two header bytes,
	// NumChannels little-endian values, two checksum bytes
	FrameLength = 32
	// NumChannels carried in one frame
	NumChannels = 14

	header1 = 0x20
	header2 = 0x40

	// BaudRate of the iBUS servo output
	BaudRate = 115200

	// linkTimeout without a valid frame means the carrier is gone. The
	// receiver sends a frame every 7 ms, so this is very generous.
	linkTimeout = 500 * time.Millisecond
)

type parserState int

const (
	waitHeader1 parserState = iota
	waitHeader2
	readBody
)

// Parser is a byte-at-a-time iBUS frame decoder. Feeding it one byte of
// garbage only costs resynchronization, never a corrupt frame: frames
// with a bad checksum are dropped.
type Parser struct {
	state parserState
	buf   [FrameLength]byte
	idx   int
}

// Feed consumes one byte and returns a decoded frame when the byte
// completed a valid one
func (p *Parser) Feed(b byte) ([NumChannels]uint16, bool) {
	var frame [NumChannels]uint16

	switch p.state {
	case waitHeader1:
		if b == header1 {
			p.buf[0] = b
			p.idx = 1
			p.state = waitHeader2
		}
	case waitHeader2:
		if b == header2 {
			p.buf[1] = b
			p.idx = 2
			p.state = readBody
		} else {
			p.state = waitHeader1
		}
	case readBody:
		p.buf[p.idx] = b
		p.idx++
		if p.idx < FrameLength {
			break
		}
		p.state = waitHeader1
		if !checksumValid(p.buf) {
			return frame, false
		}
		for i := 0; i < NumChannels; i++ {
			frame[i] = uint16(p.buf[2+2*i]) | uint16(p.buf[3+2*i])<<8
		}
		return frame, true
	}
	return frame, false
}

// checksumValid verifies the trailing checksum: 0xFFFF minus the sum of
// every byte before it
func checksumValid(buf [FrameLength]byte) bool {
	sum := uint16(0xFFFF)
	for _, b := range buf[:FrameLength-2] {
		sum -= uint16(b)
	}
	got := uint16(buf[FrameLength-2]) | uint16(buf[FrameLength-1])<<8
	return sum == got
}

// Receiver reads frames from a serial port in the background and latches
// the newest one. Implements board.ChannelSource.
type Receiver struct {
	port serial.Port

	mu        sync.Mutex
	channels  [NumChannels]uint16
	lastFrame time.Time
	gotFrame  bool
}

// Open opens the receiver's serial port and starts reading frames
func Open(device string) (*Receiver, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", device, err)
	}
	r := &Receiver{port: port}
	go r.run()
	return r, nil
}

func (r *Receiver) run() {
	p := &Parser{}
	buf := make([]byte, 64)
	for {
		n, err := r.port.Read(buf)
		if err != nil {
			log.Errorf("ibus: serial read: %v", err)
			return
		}
		for _, b := range buf[:n] {
			frame, ok := p.Feed(b)
			if !ok {
				continue
			}
			r.mu.Lock()
			r.channels = frame
			r.lastFrame = time.Now()
			r.gotFrame = true
			r.mu.Unlock()
		}
	}
}

// Read returns the latest latched value of the given channel
func (r *Receiver) Read(ch int) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch < 0 || ch >= NumChannels {
		return 0
	}
	return r.channels[ch]
}

// LinkLost reports whether no valid frame arrived within the timeout
func (r *Receiver) LinkLost() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.gotFrame || time.Since(r.lastFrame) > linkTimeout
}

// Close stops the receiver and closes the port
func (r *Receiver) Close() error {
	return r.port.Close()
}

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

package ibus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildFrame encodes channels into a valid iBUS frame
func buildFrame(channels [NumChannels]uint16) []byte {
	frame := make([]byte, FrameLength)
	frame[0] = header1
	frame[1] = header2
	for i, ch := range channels {
		frame[2+2*i] = byte(ch)
		frame[3+2*i] = byte(ch >> 8)
	}
	sum := uint16(0xFFFF)
	for _, b := range frame[:FrameLength-2] {
		sum -= uint16(b)
	}
	frame[FrameLength-2] = byte(sum)
	frame[FrameLength-1] = byte(sum >> 8)
	return frame
}

func feedAll(p *Parser, data []byte) ([NumChannels]uint16, bool) {
	var last [NumChannels]uint16
	got := false
	for _, b := range data {
		if frame, ok := p.Feed(b); ok {
			last = frame
			got = true
		}
	}
	return last, got
}

func testChannels() [NumChannels]uint16 {
	ch := [NumChannels]uint16{}
	for i := range ch {
		ch[i] = uint16(1000 + i*50)
	}
	return ch
}

func TestParserDecodesFrame(t *testing.T) {
	want := testChannels()
	frame, ok := feedAll(&Parser{}, buildFrame(want))
	require.True(t, ok)
	require.Equal(t, want, frame)
}

func TestParserRejectsBadChecksum(t *testing.T) {
	data := buildFrame(testChannels())
	data[10] ^= 0xFF
	_, ok := feedAll(&Parser{}, data)
	require.False(t, ok)
}

func TestParserResynchronizes(t *testing.T) {
	want := testChannels()
	// leading garbage, including a stray first header byte
	data := []byte{0x55, header1, 0x00}
	data = append(data, buildFrame(want)...)

	frame, ok := feedAll(&Parser{}, data)
	require.True(t, ok)
	require.Equal(t, want, frame)

	// a second frame decodes with the same parser
	frame, ok = feedAll(&Parser{}, buildFrame(want))
	require.True(t, ok)
	require.Equal(t, want, frame)
}

func TestParserSplitAcrossReads(t *testing.T) {
	want := testChannels()
	data := buildFrame(want)

	p := &Parser{}
	_, ok := feedAll(p, data[:7])
	require.False(t, ok)
	frame, ok := feedAll(p, data[7:])
	require.True(t, ok)
	require.Equal(t, want, frame)
}

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

package mode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openuav/flight/board/sim"
	"github.com/openuav/flight/param"
	"github.com/openuav/flight/rc"
	"github.com/openuav/flight/sensors"
	"github.com/openuav/flight/state"
)

type fixture struct {
	sup    *Supervisor
	board  *sim.Board
	params *param.Store
	errors *state.Manager
	cal    *sensors.Calibrator
}

// newFixture wires a supervisor to a simulated board with centered
// sticks and throttle low, the default transmitter resting position.
func newFixture(setup func(p *param.Store)) *fixture {
	f := &fixture{
		board:  sim.NewBoard(),
		params: param.NewStore(),
		errors: state.NewManager(),
		cal:    sensors.NewCalibrator(),
	}
	f.board.SetChannel(f.params.GetInt(param.RCThrottleChannel), 1000)
	if setup != nil {
		setup(f.params)
	}
	input := &rc.Input{}
	input.Init(f.board, f.params)
	f.sup = &Supervisor{}
	f.sup.Init(f.board, f.board, f.params, input, f.errors, f.cal)
	return f
}

// step advances the simulated clock in 20 ms increments, running one
// processed supervisor tick per increment
func (f *fixture) step(ticks int) {
	for i := 0; i < ticks; i++ {
		f.sup.Update(f.board.AdvanceMillis(20))
	}
}

// holdArmGesture puts the sticks in throttle-low, yaw-full-right
func (f *fixture) holdArmGesture() {
	f.board.SetChannel(f.params.GetInt(param.RCThrottleChannel), 1000)
	f.board.SetChannel(f.params.GetInt(param.RCYawChannel), 2000)
}

// holdDisarmGesture puts the sticks in throttle-low, yaw-full-left
func (f *fixture) holdDisarmGesture() {
	f.board.SetChannel(f.params.GetInt(param.RCThrottleChannel), 1000)
	f.board.SetChannel(f.params.GetInt(param.RCYawChannel), 1000)
}

// completeCalibration feeds a full run of quiet gyro samples
func (f *fixture) completeCalibration() {
	for i := 0; i < 1000; i++ {
		f.cal.Sample(0.001, -0.002, 0.0005)
	}
}

func TestArmRefusedWithActiveFault(t *testing.T) {
	f := newFixture(nil)
	f.errors.Set(state.ErrorIMUNotResponding)

	require.False(t, f.sup.Arm())
	require.False(t, f.sup.Armed())
	require.False(t, f.board.LEDLit())

	// same refusal with calibrate-on-arm enabled, and no calibration started
	f.params.SetInt(param.CalibrateGyroOnArm, 1)
	require.False(t, f.sup.Arm())
	require.False(t, f.sup.Armed())
	require.False(t, f.cal.Calibrating())
}

func TestArmImmediateWithoutCalibration(t *testing.T) {
	f := newFixture(nil)

	require.True(t, f.sup.Arm())
	require.True(t, f.sup.Armed())
	require.True(t, f.board.LEDLit())

	// arming twice is a refused no-op, not a state change
	require.False(t, f.sup.Arm())
	require.True(t, f.sup.Armed())
}

func TestArmWaitsForGyroCalibration(t *testing.T) {
	f := newFixture(func(p *param.Store) {
		p.SetInt(param.CalibrateGyroOnArm, 1)
	})

	// first attempt kicks off the calibration and refuses
	require.False(t, f.sup.Arm())
	require.False(t, f.sup.Armed())
	require.True(t, f.sup.pendingCalibration)
	require.True(t, f.cal.Calibrating())

	// still refusing while the calibration runs
	require.False(t, f.sup.Arm())
	require.False(t, f.sup.Armed())

	f.completeCalibration()
	require.True(t, f.sup.Arm())
	require.True(t, f.sup.Armed())
	require.False(t, f.sup.pendingCalibration)
	require.True(t, f.board.LEDLit())
}

func TestDisarmAlwaysSucceeds(t *testing.T) {
	f := newFixture(nil)

	// disarmed, no faults
	f.sup.Disarm()
	require.False(t, f.sup.Armed())

	// armed with an active fault raised afterwards
	require.True(t, f.sup.Arm())
	f.errors.Set(state.ErrorTimeGoingBackwards)
	f.sup.Disarm()
	require.False(t, f.sup.Armed())
	require.False(t, f.board.LEDLit())
}

func TestUpdateRateGate(t *testing.T) {
	f := newFixture(nil)

	require.True(t, f.sup.Update(25))
	require.Equal(t, uint32(25), f.sup.lastUpdateMs)

	// under 20 ms since the last processed tick: nothing happens
	f.holdArmGesture()
	require.False(t, f.sup.Update(30))
	require.Equal(t, uint32(25), f.sup.lastUpdateMs)
	require.Equal(t, uint32(0), f.sup.gestureHoldMs)

	// exactly 20 ms is enough
	require.True(t, f.sup.Update(45))
	require.Equal(t, uint32(45), f.sup.lastUpdateMs)
	require.Equal(t, uint32(20), f.sup.gestureHoldMs)
}

func TestGestureArmTiming(t *testing.T) {
	f := newFixture(nil)
	f.holdArmGesture()

	// 25 processed ticks accumulate exactly 500 ms, not yet over the bar
	for i := 0; i < 25; i++ {
		f.step(1)
		require.False(t, f.sup.Armed(), "armed before 500 ms hold, tick %d", i)
	}
	f.step(1)
	require.True(t, f.sup.Armed())
	require.Equal(t, uint32(0), f.sup.gestureHoldMs)
	require.True(t, f.board.LEDLit())
}

func TestGestureReleaseResetsHold(t *testing.T) {
	f := newFixture(nil)
	f.holdArmGesture()
	f.step(10)
	require.Equal(t, uint32(200), f.sup.gestureHoldMs)

	// yaw back to center: accumulator resets on the next processed tick
	f.board.SetChannel(f.params.GetInt(param.RCYawChannel), 1500)
	f.step(1)
	require.Equal(t, uint32(0), f.sup.gestureHoldMs)
	require.False(t, f.sup.Armed())

	// starting over needs the full hold again
	f.holdArmGesture()
	f.step(25)
	require.False(t, f.sup.Armed())
	f.step(1)
	require.True(t, f.sup.Armed())
}

func TestGestureDisarm(t *testing.T) {
	f := newFixture(nil)
	require.True(t, f.sup.Arm())

	f.holdDisarmGesture()
	f.step(25)
	require.True(t, f.sup.Armed())
	f.step(1)
	require.False(t, f.sup.Armed())
	require.False(t, f.board.LEDLit())
}

func TestSwitchArmIsImmediate(t *testing.T) {
	const armChannel = 4
	f := newFixture(func(p *param.Store) {
		p.SetInt(param.ArmSwitchChannel, armChannel)
	})

	// switch into the armed position: armed on the very next processed
	// tick, no hold time
	f.board.SetChannel(armChannel, 2000)
	f.step(1)
	require.True(t, f.sup.Armed())

	f.board.SetChannel(armChannel, 1000)
	f.step(1)
	require.False(t, f.sup.Armed())
}

func TestFailsafeDoesNotDisarm(t *testing.T) {
	f := newFixture(nil)
	require.True(t, f.sup.Arm())

	// a garbled channel forces failsafe but leaves arm state alone
	f.board.SetChannel(5, 800)
	f.step(1)
	require.True(t, f.sup.FailsafeActive())
	require.True(t, f.sup.Armed())

	f.board.SetChannel(5, 1500)
	f.step(1)
	require.False(t, f.sup.FailsafeActive())
	require.True(t, f.sup.Armed())
	require.True(t, f.board.LEDLit())
}

func TestFailsafeBlocksArmDispatch(t *testing.T) {
	f := newFixture(nil)
	f.board.SetLinkLost(true)
	f.holdArmGesture()

	f.step(40)
	require.True(t, f.sup.FailsafeActive())
	require.False(t, f.sup.Armed())
}

func TestLinkLostSetsFaultBit(t *testing.T) {
	f := newFixture(nil)
	f.board.SetLinkLost(true)
	f.step(1)
	require.True(t, f.sup.FailsafeActive())
	require.Equal(t, state.ErrorRCLost, f.errors.Errors()&state.ErrorRCLost)

	// fault clears the moment the link is back
	f.board.SetLinkLost(false)
	f.step(1)
	require.False(t, f.sup.FailsafeActive())
	require.Equal(t, state.ErrorNone, f.errors.Errors())
}

func TestOutOfRangeChannelDoesNotSetFaultBit(t *testing.T) {
	f := newFixture(nil)
	f.board.SetChannel(0, 2500)
	f.step(1)

	// garbled signal: failsafe yes, RC-lost fault no
	require.True(t, f.sup.FailsafeActive())
	require.Equal(t, state.ErrorNone, f.errors.Errors())
}

func TestFailsafeBlinkCadence(t *testing.T) {
	f := newFixture(nil)
	f.board.SetLinkLost(true)

	f.step(26)
	require.Equal(t, 0, f.board.Toggles())
	f.step(1)
	require.Equal(t, 1, f.board.Toggles())

	// steady blink: one toggle every 26 processed ticks from here on
	f.step(26)
	require.Equal(t, 2, f.board.Toggles())
}

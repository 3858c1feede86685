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

// Package sensors holds the gyro calibration routine the supervisor
// triggers on arm. Sample capture happens elsewhere (IMU driver); this
// package only accumulates already-latched samples and produces biases.
package sensors

import (
	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"
)

const (
	// calibrationSamples is how many gyro samples make one calibration run
	calibrationSamples = 1000
	// maxGyroStddev is the per-axis noise ceiling, rad/s. A run noisier
	// than this means the vehicle moved and the run is discarded.
	maxGyroStddev = 0.05
)

// Calibrator accumulates gyro samples and computes per-axis bias
type Calibrator struct {
	calibrating bool
	complete    bool
	axes        [3]*welford.Stats
	bias        [3]float64
}

// NewCalibrator returns an idle Calibrator
func NewCalibrator() *Calibrator {
	return &Calibrator{}
}

func (c *Calibrator) reset() {
	for i := range c.axes {
		c.axes[i] = welford.New()
	}
}

// StartGyroCalibration begins a new calibration run, discarding any
// previous result. The supervisor guards against calling this while a
// run is already in progress.
func (c *Calibrator) StartGyroCalibration() {
	c.reset()
	c.calibrating = true
	c.complete = false
	log.Info("gyro calibration started")
}

// Sample feeds one gyro measurement (rad/s) into the current run.
// Ignored while no calibration is in progress.
func (c *Calibrator) Sample(x, y, z float64) {
	if !c.calibrating {
		return
	}
	c.axes[0].Add(x)
	c.axes[1].Add(y)
	c.axes[2].Add(z)
	if c.axes[0].Count() < calibrationSamples {
		return
	}
	for _, axis := range c.axes {
		if axis.Stddev() > maxGyroStddev {
			log.Warning("gyro calibration discarded: too much movement")
			c.reset()
			return
		}
	}
	for i, axis := range c.axes {
		c.bias[i] = axis.Mean()
	}
	c.calibrating = false
	c.complete = true
	log.Infof("gyro calibration complete, bias [%f %f %f]", c.bias[0], c.bias[1], c.bias[2])
}

// GyroCalibrationComplete reports whether the last started run finished
func (c *Calibrator) GyroCalibrationComplete() bool {
	return c.complete
}

// Calibrating reports whether a run is in progress
func (c *Calibrator) Calibrating() bool {
	return c.calibrating
}

// GyroBias returns the result of the last completed run
func (c *Calibrator) GyroBias() [3]float64 {
	return c.bias
}

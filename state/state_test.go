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

package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerSetClear(t *testing.T) {
	m := NewManager()
	require.Equal(t, ErrorNone, m.Errors())

	m.Set(ErrorRCLost)
	require.Equal(t, ErrorRCLost, m.Errors())

	m.Set(ErrorIMUNotResponding)
	require.Equal(t, ErrorRCLost|ErrorIMUNotResponding, m.Errors())

	// clearing one bit leaves the others
	m.Clear(ErrorRCLost)
	require.Equal(t, ErrorIMUNotResponding, m.Errors())

	// clearing a bit that is not set is a no-op
	m.Clear(ErrorRCLost)
	require.Equal(t, ErrorIMUNotResponding, m.Errors())

	m.Clear(ErrorIMUNotResponding)
	require.Equal(t, ErrorNone, m.Errors())
}

func TestErrorCodeString(t *testing.T) {
	require.Equal(t, "NONE", ErrorNone.String())
	require.Equal(t, "RC_LOST", ErrorRCLost.String())
	require.Equal(t, "RC_LOST|UNCALIBRATED_IMU", (ErrorRCLost | ErrorUncalibratedIMU).String())
}

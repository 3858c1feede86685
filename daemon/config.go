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

package daemon

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config represents configuration we expect to read from file
type Config struct {
	Device         string        // serial device the iBUS receiver is on
	Simulate       bool          // drive a simulated board instead of hardware
	MonitoringPort int           // where to serve JSON status and prometheus metrics
	Interval       time.Duration // main loop tick interval
	ParamFile      string        // firmware parameter overrides, optional
}

// DefaultConfig returns config with sane defaults
func DefaultConfig() *Config {
	return &Config{
		MonitoringPort: 9925,
		Interval:       time.Millisecond,
	}
}

// Validate makes sure config is usable
func (c *Config) Validate() error {
	if c.Device == "" && !c.Simulate {
		return fmt.Errorf("bad config: either 'device' or 'simulate' must be set")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("bad config: 'interval' must be positive")
	}
	if c.Interval > 20*time.Millisecond {
		return fmt.Errorf("bad config: 'interval' above 20ms starves the supervisor rate gate")
	}
	if c.MonitoringPort <= 0 || c.MonitoringPort > 65535 {
		return fmt.Errorf("bad config: 'monitoringport' %d is not a valid port", c.MonitoringPort)
	}
	return nil
}

// fileConfig is the YAML shape. Interval is a string so config files can
// say "2ms" rather than nanosecond integers.
type fileConfig struct {
	Device         string `yaml:"device"`
	Simulate       bool   `yaml:"simulate"`
	MonitoringPort int    `yaml:"monitoringport"`
	Interval       string `yaml:"interval"`
	ParamFile      string `yaml:"paramfile"`
}

// ReadConfig reads config and unmarshals it from yaml into Config
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc := fileConfig{}
	if err := yaml.UnmarshalStrict(data, &fc); err != nil {
		return nil, err
	}
	c := DefaultConfig()
	c.Device = fc.Device
	c.Simulate = fc.Simulate
	c.ParamFile = fc.ParamFile
	if fc.MonitoringPort != 0 {
		c.MonitoringPort = fc.MonitoringPort
	}
	if fc.Interval != "" {
		interval, err := time.ParseDuration(fc.Interval)
		if err != nil {
			return nil, fmt.Errorf("bad config: 'interval': %w", err)
		}
		c.Interval = interval
	}
	return c, c.Validate()
}

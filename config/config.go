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

// Package config loads the ppsgpiod configuration file
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/ppsd/ppsgpio/ppsgpio"
)

// DefaultChip is used for device stanzas that don't name a chip
const DefaultChip = "gpiochip0"

// DeviceConfig is one PPS GPIO device stanza
type DeviceConfig struct {
	Chip              string `yaml:"chip"`
	Pin               int    `yaml:"pin"`
	Label             string `yaml:"label"`
	AssertFallingEdge bool   `yaml:"assert_falling_edge"`
	CaptureClear      bool   `yaml:"capture_clear"`
}

// Config specifies ppsgpiod run options
type Config struct {
	MonitoringPort int            `yaml:"monitoringport"`
	MaxSources     int            `yaml:"maxsources"`
	Devices        []DeviceConfig `yaml:"devices"`
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := &Config{MonitoringPort: 8888}
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, &c)
	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("no devices configured")
	}
	seen := map[string]bool{}
	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Chip == "" {
			d.Chip = DefaultChip
		}
		if d.Label == "" {
			d.Label = fmt.Sprintf("pps%d", i)
		}
		if seen[d.Label] {
			return fmt.Errorf("duplicate device label %q", d.Label)
		}
		seen[d.Label] = true
		dc := d.DeviceConfig()
		if err := dc.Validate(); err != nil {
			return fmt.Errorf("device %q: %w", d.Label, err)
		}
	}
	return nil
}

// DeviceConfig converts the stanza into a ppsgpio.Config
func (d DeviceConfig) DeviceConfig() ppsgpio.Config {
	return ppsgpio.Config{
		Chip:              d.Chip,
		Pin:               d.Pin,
		Label:             d.Label,
		AssertFallingEdge: d.AssertFallingEdge,
		CaptureClear:      d.CaptureClear,
	}
}

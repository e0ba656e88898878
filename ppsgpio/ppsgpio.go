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

/*
Package ppsgpio turns a once-per-second GPIO edge into timestamped PPS
events. A Device claims the pin, registers a PPS source and binds an edge
handler; each delivered edge is timestamped, classified as assert or clear
according to the configured polarity and submitted to the source.
*/
package ppsgpio

import (
	"fmt"

	"github.com/ppsd/ppsgpio/gpio"
	"github.com/ppsd/ppsgpio/pps"
)

// Config describes one PPS GPIO device. Immutable once the device is
// created.
type Config struct {
	// Chip is the GPIO device the pin lives on, e.g. "gpiochip0"
	Chip string
	// Pin is the line offset on the chip
	Pin int
	// Label names the consumer and the PPS source
	Label string
	// AssertFallingEdge makes the falling edge the assert edge
	AssertFallingEdge bool
	// CaptureClear also captures the complementary edge as clear events
	CaptureClear bool
}

// Validate checks the config for obvious mistakes
func (c *Config) Validate() error {
	if c.Chip == "" {
		return fmt.Errorf("ppsgpio: no chip configured")
	}
	if c.Pin < 0 {
		return fmt.Errorf("ppsgpio: invalid pin %d", c.Pin)
	}
	if c.Label == "" {
		return fmt.Errorf("ppsgpio: no label configured")
	}
	return nil
}

// Classify decides what event an observed line level produces. The level
// matching the assert polarity produces an assert event; the complementary
// edge produces a clear event only when captureClear is set, otherwise
// nothing. Pure and allocation free, it runs on the edge delivery path.
func Classify(level bool, assertFalling bool, captureClear bool) pps.EventKind {
	if (level && !assertFalling) || (!level && assertFalling) {
		return pps.KindAssert
	}
	if captureClear {
		return pps.KindClear
	}
	return pps.KindNone
}

// TriggerFor derives the interrupt trigger mode: the configured assert
// edge, plus the opposite edge when clear events are captured
func TriggerFor(c Config) gpio.Trigger {
	if c.CaptureClear {
		return gpio.BothEdges
	}
	if c.AssertFallingEdge {
		return gpio.FallingEdge
	}
	return gpio.RisingEdge
}

// SourceMode derives the PPS source capability bitset from the config
func SourceMode(c Config) pps.Mode {
	mode := pps.CaptureAssert | pps.OffsetAssert | pps.EchoAssert | pps.CanWait | pps.TSFmtTSpec
	if c.CaptureClear {
		mode |= pps.CaptureClear | pps.OffsetClear | pps.EchoClear
	}
	return mode
}

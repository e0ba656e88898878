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
Package gpio defines the hardware collaborators the PPS device controller
drives: pin access and edge-triggered interrupt delivery. The Linux
implementation sits on top of the GPIO character device; tests use fakes.
*/
package gpio

// Trigger selects which edges of the line generate interrupts
type Trigger int

// Trigger modes
const (
	RisingEdge Trigger = iota
	FallingEdge
	BothEdges
)

// String representation of a Trigger
func (t Trigger) String() string {
	switch t {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	case BothEdges:
		return "both"
	}
	return "unknown"
}

// IRQ identifies the interrupt line a pin maps to
type IRQ int

// Handler is invoked once per delivered edge. It runs on the event
// delivery goroutine and must not block.
type Handler func()

// Conn gives access to pins on one GPIO device. All pin sharing and mux
// policy lives behind this interface; the controller only requests,
// configures, reads and releases.
type Conn interface {
	// RequestPin claims the pin under the given consumer label
	RequestPin(pin int, label string) error
	// SetInputDirection configures the pin as an input
	SetInputDirection(pin int) error
	// ReadLevel returns true when the line is high
	ReadLevel(pin int) (bool, error)
	// MapToInterruptLine resolves the interrupt line serving the pin
	MapToInterruptLine(pin int) (IRQ, error)
	// ReleasePin gives the pin back
	ReleasePin(pin int)
}

// Binder attaches an edge handler to an interrupt line
type Binder interface {
	Bind(irq IRQ, trigger Trigger, label string, h Handler) (Binding, error)
}

// Binding is an active edge subscription. After Unbind returns the handler
// can never fire again.
type Binding interface {
	Unbind()
}

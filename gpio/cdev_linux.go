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

package gpio

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// Chardev implements Conn and Binder on a Linux GPIO character device
// (/dev/gpiochipN). The chardev delivers edge events only on lines
// requested with edge detection, so Bind re-requests the line with the
// wanted edges and an event handler, and Unbind reverts to a plain input
// request.
type Chardev struct {
	chip string
	// pin -> *gpiocdev.Line; loaded locklessly from the edge path
	lines sync.Map
}

// NewChardev returns a Chardev for the given chip, e.g. "gpiochip0"
func NewChardev(chip string) *Chardev {
	return &Chardev{chip: chip}
}

// Chip returns the chip name
func (c *Chardev) Chip() string {
	return c.chip
}

func (c *Chardev) line(pin int) (*gpiocdev.Line, error) {
	v, ok := c.lines.Load(pin)
	if !ok {
		return nil, fmt.Errorf("gpio: %s line %d not requested", c.chip, pin)
	}
	return v.(*gpiocdev.Line), nil
}

// RequestPin claims the line under the given consumer label
func (c *Chardev) RequestPin(pin int, label string) error {
	if _, ok := c.lines.Load(pin); ok {
		return fmt.Errorf("gpio: %s line %d already requested", c.chip, pin)
	}
	l, err := gpiocdev.RequestLine(c.chip, pin, gpiocdev.WithConsumer(label))
	if err != nil {
		return fmt.Errorf("requesting %s line %d: %w", c.chip, pin, err)
	}
	c.lines.Store(pin, l)
	return nil
}

// SetInputDirection reconfigures the line as an input
func (c *Chardev) SetInputDirection(pin int) error {
	l, err := c.line(pin)
	if err != nil {
		return err
	}
	if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
		return fmt.Errorf("setting %s line %d as input: %w", c.chip, pin, err)
	}
	return nil
}

// ReadLevel returns true when the line is high
func (c *Chardev) ReadLevel(pin int) (bool, error) {
	l, err := c.line(pin)
	if err != nil {
		return false, err
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("reading %s line %d: %w", c.chip, pin, err)
	}
	return v != 0, nil
}

// MapToInterruptLine resolves the interrupt line for the pin. On the
// chardev the line offset doubles as the interrupt identity.
func (c *Chardev) MapToInterruptLine(pin int) (IRQ, error) {
	if _, err := c.line(pin); err != nil {
		return 0, err
	}
	return IRQ(pin), nil
}

// ReleasePin closes whatever request currently holds the line
func (c *Chardev) ReleasePin(pin int) {
	if v, ok := c.lines.LoadAndDelete(pin); ok {
		if err := v.(*gpiocdev.Line).Close(); err != nil {
			log.Errorf("closing %s line %d: %v", c.chip, pin, err)
		}
	}
}

// Bind re-requests the line with edge detection and an event handler
func (c *Chardev) Bind(irq IRQ, trigger Trigger, label string, h Handler) (Binding, error) {
	pin := int(irq)
	old, err := c.line(pin)
	if err != nil {
		return nil, err
	}
	if err := old.Close(); err != nil {
		return nil, fmt.Errorf("closing %s line %d before rebinding: %w", c.chip, pin, err)
	}
	opts := []gpiocdev.LineReqOption{
		gpiocdev.WithConsumer(label),
		gpiocdev.AsInput,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { h() }),
	}
	switch trigger {
	case RisingEdge:
		opts = append(opts, gpiocdev.WithRisingEdge)
	case FallingEdge:
		opts = append(opts, gpiocdev.WithFallingEdge)
	default:
		opts = append(opts, gpiocdev.WithBothEdges)
	}
	l, err := gpiocdev.RequestLine(c.chip, pin, opts...)
	if err != nil {
		c.rerequest(pin, label)
		return nil, fmt.Errorf("binding %s edges on %s line %d: %w", trigger, c.chip, pin, err)
	}
	c.lines.Store(pin, l)
	return &cdevBinding{c: c, pin: pin, label: label}, nil
}

// rerequest restores a plain input request so level reads and release
// keep working after an edge request went away
func (c *Chardev) rerequest(pin int, label string) {
	l, err := gpiocdev.RequestLine(c.chip, pin, gpiocdev.WithConsumer(label), gpiocdev.AsInput)
	if err != nil {
		log.Errorf("re-requesting %s line %d: %v", c.chip, pin, err)
		c.lines.Delete(pin)
		return
	}
	c.lines.Store(pin, l)
}

type cdevBinding struct {
	c     *Chardev
	pin   int
	label string
	once  sync.Once
}

// Unbind closes the edge request. Once the request is closed the chardev
// delivers no further events, so the handler cannot fire again.
func (b *cdevBinding) Unbind() {
	b.once.Do(func() {
		l, err := b.c.line(b.pin)
		if err != nil {
			return
		}
		if err := l.Close(); err != nil {
			log.Errorf("closing %s line %d: %v", b.c.chip, b.pin, err)
		}
		b.c.rerequest(b.pin, b.label)
	})
}

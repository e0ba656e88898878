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

package ppsgpio

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ppsd/ppsgpio/clock"
	"github.com/ppsd/ppsgpio/gpio"
	"github.com/ppsd/ppsgpio/pps"
	"github.com/ppsd/ppsgpio/stats"
)

// SourceRegistry is the part of the PPS registry a device needs
type SourceRegistry interface {
	Register(name string, mode pps.Mode) (*pps.Source, error)
	Unregister(s *pps.Source) error
}

// Device owns the lifecycle of one PPS GPIO device. Probe acquires the
// pin, registers the PPS source and binds the edge handler; Remove
// reverses it all. Resources are strictly owned by the device and
// acquired/released in a fixed order, so the handler can never see a
// half-initialized or half-destroyed device.
type Device struct {
	cfg    Config
	conn   gpio.Conn
	binder gpio.Binder
	clk    clock.EventTimer
	reg    SourceRegistry
	stats  stats.Stats

	pinAcquired bool
	irq         gpio.IRQ
	src         *pps.Source
	binding     gpio.Binding
	removed     bool
}

// New creates a Device over the given collaborators. Nothing is acquired
// until Probe.
func New(cfg Config, conn gpio.Conn, binder gpio.Binder, clk clock.EventTimer, reg SourceRegistry, st stats.Stats) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Device{
		cfg:    cfg,
		conn:   conn,
		binder: binder,
		clk:    clk,
		reg:    reg,
		stats:  st,
	}, nil
}

// Config returns the device configuration
func (d *Device) Config() Config {
	return d.cfg
}

// Source returns the registered PPS source, nil before Probe or after
// Remove
func (d *Device) Source() *pps.Source {
	return d.src
}

// Probe wires the device: request the pin and set it as input, register
// the PPS source, then bind the edge handler. On failure every completed
// step is undone in reverse order and nothing stays acquired.
func (d *Device) Probe() error {
	var rollback []func()
	fail := func(err error) error {
		for i := len(rollback) - 1; i >= 0; i-- {
			rollback[i]()
		}
		return err
	}

	if err := d.conn.RequestPin(d.cfg.Pin, d.cfg.Label); err != nil {
		return fmt.Errorf("requesting GPIO %d: %w", d.cfg.Pin, err)
	}
	d.pinAcquired = true
	rollback = append(rollback, func() {
		d.conn.ReleasePin(d.cfg.Pin)
		d.pinAcquired = false
	})

	if err := d.conn.SetInputDirection(d.cfg.Pin); err != nil {
		return fail(fmt.Errorf("setting GPIO %d direction: %w", d.cfg.Pin, err))
	}

	irq, err := d.conn.MapToInterruptLine(d.cfg.Pin)
	if err != nil {
		return fail(fmt.Errorf("mapping GPIO %d to interrupt line: %w", d.cfg.Pin, err))
	}
	d.irq = irq

	src, err := d.reg.Register(d.cfg.Label, SourceMode(d.cfg))
	if err != nil {
		return fail(fmt.Errorf("registering PPS source %q: %w", d.cfg.Label, err))
	}
	d.src = src
	rollback = append(rollback, func() {
		if err := d.reg.Unregister(src); err != nil {
			log.Errorf("unregistering PPS source %q: %v", d.cfg.Label, err)
		}
		d.src = nil
	})

	binding, err := d.binder.Bind(irq, TriggerFor(d.cfg), d.cfg.Label, d.handleEdge)
	if err != nil {
		return fail(fmt.Errorf("binding interrupt line %d: %w", irq, err))
	}
	d.binding = binding

	log.Infof("Registered interrupt line %d as PPS source %q", irq, d.cfg.Label)
	return nil
}

// Remove tears the device down. The interrupt binding goes first, which
// guarantees the handler can never fire again, only then the source is
// unregistered and the pin released. Remove always completes; failures
// are logged, never returned. Safe to call more than once.
func (d *Device) Remove() {
	if d.removed {
		return
	}
	d.removed = true

	if d.binding != nil {
		d.binding.Unbind()
		d.binding = nil
	}
	if d.src != nil {
		if err := d.reg.Unregister(d.src); err != nil {
			log.Errorf("unregistering PPS source %q: %v", d.cfg.Label, err)
		}
		d.src = nil
	}
	if d.pinAcquired {
		d.conn.ReleasePin(d.cfg.Pin)
		d.pinAcquired = false
	}
	log.Infof("Removed interrupt line %d as PPS source %q", d.irq, d.cfg.Label)
}

// handleEdge is the fixed pipeline run once per delivered edge: capture
// the timestamp pair first, then read the level, classify and submit.
// Runs on the event delivery goroutine; nothing here blocks or takes a
// lock.
func (d *Device) handleEdge() {
	t, err := d.clk.EventTime()
	if err != nil {
		d.stats.IncCaptureError()
		return
	}
	level, err := d.conn.ReadLevel(d.cfg.Pin)
	if err != nil {
		d.stats.IncCaptureError()
		return
	}
	kind := Classify(level, d.cfg.AssertFallingEdge, d.cfg.CaptureClear)
	if kind == pps.KindNone {
		return
	}
	// unbind-before-unregister ordering means src is valid whenever the
	// handler fires; the check catches simulated late edges in tests
	src := d.src
	if src == nil || !src.Submit(kind, t) {
		d.stats.IncDrop(kind)
		return
	}
	d.stats.IncEvent(kind)
}

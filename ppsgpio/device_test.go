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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ppsd/ppsgpio/gpio"
	"github.com/ppsd/ppsgpio/pps"
)

type oplog struct {
	ops []string
}

func (l *oplog) add(op string) {
	l.ops = append(l.ops, op)
}

type fakeConn struct {
	log *oplog

	requestErr   error
	directionErr error
	mapErr       error
	readErr      error

	levels []bool
	level  bool

	requested bool
}

func (c *fakeConn) RequestPin(pin int, label string) error {
	if c.requestErr != nil {
		return c.requestErr
	}
	c.log.add("request")
	c.requested = true
	return nil
}

func (c *fakeConn) SetInputDirection(pin int) error {
	if c.directionErr != nil {
		return c.directionErr
	}
	c.log.add("direction")
	return nil
}

func (c *fakeConn) ReadLevel(pin int) (bool, error) {
	if c.readErr != nil {
		return false, c.readErr
	}
	if len(c.levels) > 0 {
		c.level = c.levels[0]
		c.levels = c.levels[1:]
	}
	return c.level, nil
}

func (c *fakeConn) MapToInterruptLine(pin int) (gpio.IRQ, error) {
	if c.mapErr != nil {
		return 0, c.mapErr
	}
	c.log.add("map")
	return gpio.IRQ(pin), nil
}

func (c *fakeConn) ReleasePin(pin int) {
	c.log.add("release")
	c.requested = false
}

type fakeBinding struct {
	log *oplog
}

func (b *fakeBinding) Unbind() {
	b.log.add("unbind")
}

type fakeBinder struct {
	log *oplog

	err     error
	trigger gpio.Trigger
	handler gpio.Handler
}

func (b *fakeBinder) Bind(irq gpio.IRQ, trigger gpio.Trigger, label string, h gpio.Handler) (gpio.Binding, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.log.add("bind")
	b.trigger = trigger
	b.handler = h
	return &fakeBinding{log: b.log}, nil
}

type recordingRegistry struct {
	log *oplog
	reg *pps.Registry
}

func (r *recordingRegistry) Register(name string, mode pps.Mode) (*pps.Source, error) {
	s, err := r.reg.Register(name, mode)
	if err != nil {
		return nil, err
	}
	r.log.add("register")
	return s, nil
}

func (r *recordingRegistry) Unregister(s *pps.Source) error {
	r.log.add("unregister")
	return r.reg.Unregister(s)
}

type fakeClock struct {
	err error
	sec int64
}

func (c *fakeClock) EventTime() (pps.EventTime, error) {
	if c.err != nil {
		return pps.EventTime{}, c.err
	}
	c.sec++
	return pps.EventTime{
		Realtime: time.Unix(c.sec, 0),
		MonoRaw:  time.Duration(c.sec) * time.Second,
	}, nil
}

type fakeStats struct {
	eventsAssert  int
	eventsClear   int
	dropsAssert   int
	dropsClear    int
	captureErrors int
}

func (s *fakeStats) Start(int) {}
func (s *fakeStats) Snapshot() {}
func (s *fakeStats) Reset()    {}

func (s *fakeStats) IncEvent(kind pps.EventKind) {
	if kind == pps.KindAssert {
		s.eventsAssert++
	} else {
		s.eventsClear++
	}
}

func (s *fakeStats) IncDrop(kind pps.EventKind) {
	if kind == pps.KindAssert {
		s.dropsAssert++
	} else {
		s.dropsClear++
	}
}

func (s *fakeStats) IncCaptureError() {
	s.captureErrors++
}

type env struct {
	log    *oplog
	conn   *fakeConn
	binder *fakeBinder
	clk    *fakeClock
	reg    *recordingRegistry
	stats  *fakeStats
}

func newEnv() *env {
	l := &oplog{}
	return &env{
		log:    l,
		conn:   &fakeConn{log: l},
		binder: &fakeBinder{log: l},
		clk:    &fakeClock{},
		reg:    &recordingRegistry{log: l, reg: pps.NewRegistry(0)},
		stats:  &fakeStats{},
	}
}

func (e *env) device(t *testing.T, cfg Config) *Device {
	d, err := New(cfg, e.conn, e.binder, e.clk, e.reg, e.stats)
	require.NoError(t, err)
	return d
}

func testConfig() Config {
	return Config{Chip: "gpiochip0", Pin: 18, Label: "pps0"}
}

func TestProbe(t *testing.T) {
	e := newEnv()
	d := e.device(t, testConfig())

	require.NoError(t, d.Probe())
	require.Equal(t, []string{"request", "direction", "map", "register", "bind"}, e.log.ops)
	require.Equal(t, gpio.RisingEdge, e.binder.trigger)
	require.NotNil(t, d.Source())
	require.Equal(t, SourceMode(d.Config()), d.Source().Mode())
}

func TestProbeRollback(t *testing.T) {
	testCases := []struct {
		name    string
		prep    func(e *env)
		wantOps []string
	}{
		{
			name:    "request fails",
			prep:    func(e *env) { e.conn.requestErr = errors.New("busy") },
			wantOps: []string{},
		},
		{
			name:    "direction fails",
			prep:    func(e *env) { e.conn.directionErr = errors.New("not an input") },
			wantOps: []string{"request", "release"},
		},
		{
			name:    "irq mapping fails",
			prep:    func(e *env) { e.conn.mapErr = errors.New("no irq") },
			wantOps: []string{"request", "direction", "release"},
		},
		{
			name: "registration fails",
			prep: func(e *env) {
				_, err := e.reg.reg.Register("pps0", pps.CaptureAssert)
				require.NoError(t, err)
			},
			wantOps: []string{"request", "direction", "map", "release"},
		},
		{
			name:    "bind fails",
			prep:    func(e *env) { e.binder.err = errors.New("irq taken") },
			wantOps: []string{"request", "direction", "map", "register", "unregister", "release"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv()
			tc.prep(e)
			d := e.device(t, testConfig())

			require.Error(t, d.Probe())
			require.Equal(t, tc.wantOps, append([]string{}, e.log.ops...))
			require.False(t, e.conn.requested)
			require.Nil(t, d.Source())
		})
	}
}

func TestProbeRollbackFreesName(t *testing.T) {
	e := newEnv()
	e.binder.err = errors.New("irq taken")
	d := e.device(t, testConfig())
	require.Error(t, d.Probe())

	// rollback unregistered the source, so the name can be taken again
	e.binder.err = nil
	e.log.ops = nil
	d = e.device(t, testConfig())
	require.NoError(t, d.Probe())
}

func TestRemoveOrdering(t *testing.T) {
	e := newEnv()
	d := e.device(t, testConfig())
	require.NoError(t, d.Probe())

	e.log.ops = nil
	d.Remove()
	require.Equal(t, []string{"unbind", "unregister", "release"}, e.log.ops)
	require.Nil(t, d.Source())

	// second Remove is a no-op
	e.log.ops = nil
	d.Remove()
	require.Empty(t, e.log.ops)
}

func TestSubmitAfterDetach(t *testing.T) {
	e := newEnv()
	e.conn.level = true
	d := e.device(t, testConfig())
	require.NoError(t, d.Probe())
	src := d.Source()

	d.Remove()

	// simulate an edge delivered after teardown: it must never reach the
	// invalidated handle
	e.binder.handler()
	require.Equal(t, 1, e.stats.dropsAssert)
	require.Equal(t, 0, e.stats.eventsAssert)
	_, ok := src.LastAssert()
	require.False(t, ok)
}

func TestHandleEdgeCaptureError(t *testing.T) {
	e := newEnv()
	e.conn.level = true
	d := e.device(t, testConfig())
	require.NoError(t, d.Probe())

	e.clk.err = errors.New("clock unreadable")
	e.binder.handler()
	require.Equal(t, 1, e.stats.captureErrors)
	require.Equal(t, 0, e.stats.eventsAssert)
	_, ok := d.Source().LastAssert()
	require.False(t, ok)

	e.clk.err = nil
	e.conn.readErr = errors.New("line gone")
	e.binder.handler()
	require.Equal(t, 2, e.stats.captureErrors)
}

// assert on rising edge, clear capture disabled: a high level produces one
// assert event, the complementary edge produces nothing at all
func TestScenarioAssertOnly(t *testing.T) {
	e := newEnv()
	d := e.device(t, testConfig())
	require.NoError(t, d.Probe())
	require.Equal(t, gpio.RisingEdge, e.binder.trigger)

	e.conn.levels = []bool{true, false}
	e.binder.handler()
	e.binder.handler()

	a, ok := d.Source().LastAssert()
	require.True(t, ok)
	require.Equal(t, uint64(1), a.Seq)
	require.Equal(t, time.Unix(1, 0), a.Time.Realtime)

	_, ok = d.Source().LastClear()
	require.False(t, ok)
	require.Equal(t, 1, e.stats.eventsAssert)
	require.Equal(t, 0, e.stats.eventsClear)
	require.Equal(t, 0, e.stats.dropsClear)
}

// assert on falling edge with clear capture: a low level asserts, the
// following high level clears
func TestScenarioFallingAssertWithClear(t *testing.T) {
	e := newEnv()
	cfg := testConfig()
	cfg.AssertFallingEdge = true
	cfg.CaptureClear = true
	d := e.device(t, cfg)
	require.NoError(t, d.Probe())
	require.Equal(t, gpio.BothEdges, e.binder.trigger)

	e.conn.levels = []bool{false, true}
	e.binder.handler()
	e.binder.handler()

	a, ok := d.Source().LastAssert()
	require.True(t, ok)
	require.Equal(t, time.Unix(1, 0), a.Time.Realtime)

	c, ok := d.Source().LastClear()
	require.True(t, ok)
	require.Equal(t, time.Unix(2, 0), c.Time.Realtime)

	require.Equal(t, 1, e.stats.eventsAssert)
	require.Equal(t, 1, e.stats.eventsClear)
}

func TestMonotonicRawNonDecreasing(t *testing.T) {
	e := newEnv()
	e.conn.level = true
	d := e.device(t, testConfig())
	require.NoError(t, d.Probe())

	var prev time.Duration
	for i := 0; i < 10; i++ {
		e.binder.handler()
		a, ok := d.Source().LastAssert()
		require.True(t, ok)
		require.GreaterOrEqual(t, a.Time.MonoRaw, prev)
		prev = a.Time.MonoRaw
	}
}

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
Package stats implements statistics collection and reporting for the PPS
GPIO daemon: edge event counters and the per-source read-out, served over
HTTP as JSON, plus client helpers and a prometheus exporter.
*/
package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/ppsd/ppsgpio/pps"
)

// Stats is a metric collection interface
type Stats interface {
	// Start starts the monitoring http server
	Start(monitoringport int)

	// Snapshot the values so they can be reported atomically
	Snapshot()

	// Reset atomically sets all the counters to 0
	Reset()

	// IncEvent counts one submitted event of the given kind
	IncEvent(kind pps.EventKind)

	// IncDrop counts one dropped submission of the given kind
	IncDrop(kind pps.EventKind)

	// IncCaptureError counts one edge dropped because the timestamp
	// pair could not be captured
	IncCaptureError()
}

type counters struct {
	eventsAssert  atomic.Int64
	eventsClear   atomic.Int64
	dropsAssert   atomic.Int64
	dropsClear    atomic.Int64
	captureErrors atomic.Int64
}

func (c *counters) toMap() map[string]int64 {
	return map[string]int64{
		"ppsgpio.events.assert":  c.eventsAssert.Load(),
		"ppsgpio.events.clear":   c.eventsClear.Load(),
		"ppsgpio.drops.assert":   c.dropsAssert.Load(),
		"ppsgpio.drops.clear":    c.dropsClear.Load(),
		"ppsgpio.capture_errors": c.captureErrors.Load(),
	}
}

func (c *counters) copy(dst *counters) {
	dst.eventsAssert.Store(c.eventsAssert.Load())
	dst.eventsClear.Store(c.eventsClear.Load())
	dst.dropsAssert.Store(c.dropsAssert.Load())
	dst.dropsClear.Store(c.dropsClear.Load())
	dst.captureErrors.Store(c.captureErrors.Load())
}

func (c *counters) reset() {
	c.eventsAssert.Store(0)
	c.eventsClear.Store(0)
	c.dropsAssert.Store(0)
	c.dropsClear.Store(0)
	c.captureErrors.Store(0)
}

// EventStat is the JSON form of one captured event
type EventStat struct {
	Sec       int64  `json:"sec"`
	Nsec      int64  `json:"nsec"`
	MonoRawNs int64  `json:"monoraw_ns"`
	Seq       uint64 `json:"seq"`
}

// SourceStat is the JSON form of the read-out of one registered source
type SourceStat struct {
	Name       string     `json:"name"`
	Mode       uint32     `json:"mode"`
	LastAssert *EventStat `json:"last_assert,omitempty"`
	LastClear  *EventStat `json:"last_clear,omitempty"`
}

func eventStat(e pps.Event) *EventStat {
	return &EventStat{
		Sec:       e.Time.Realtime.Unix(),
		Nsec:      int64(e.Time.Realtime.Nanosecond()),
		MonoRawNs: int64(e.Time.MonoRaw),
		Seq:       e.Seq,
	}
}

// NewSourceStat builds the read-out of one source. Only atomic loads, so
// it never blocks on edge activity.
func NewSourceStat(s *pps.Source) SourceStat {
	res := SourceStat{
		Name: s.Name(),
		Mode: uint32(s.Mode()),
	}
	if e, ok := s.LastAssert(); ok {
		res.LastAssert = eventStat(e)
	}
	if e, ok := s.LastClear(); ok {
		res.LastClear = eventStat(e)
	}
	return res
}

func fetchJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// FetchCounters returns the counters served by a running daemon
func FetchCounters(url string) (map[string]int64, error) {
	counters := map[string]int64{}
	if err := fetchJSON(fmt.Sprintf("%s/counters", url), &counters); err != nil {
		return nil, err
	}
	return counters, nil
}

// FetchSources returns the per-source read-out served by a running daemon
func FetchSources(url string) ([]SourceStat, error) {
	var sources []SourceStat
	if err := fetchJSON(fmt.Sprintf("%s/sources", url), &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

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
Package pps implements the PPS source registry: named sources that accept
timestamped edge events from a device and expose the latest event of each
kind to consumers. Submission is lock-free so it is safe to call from the
edge delivery path.
*/
package pps

import (
	"time"
)

// Mode is the capability bitset of a PPS source. Values match the ones
// consumers of RFC 2783 style APIs expect (linux/pps.h).
type Mode uint32

// Capability bits
const (
	CaptureAssert Mode = 0x0001
	CaptureClear  Mode = 0x0002
	OffsetAssert  Mode = 0x0010
	OffsetClear   Mode = 0x0020
	EchoAssert    Mode = 0x0040
	EchoClear     Mode = 0x0080
	CanWait       Mode = 0x0100
	TSFmtTSpec    Mode = 0x1000
)

// EventKind tells which edge of the pulse an event describes
type EventKind int

// Event kinds. KindNone means the edge produced no event.
const (
	KindNone EventKind = iota
	KindAssert
	KindClear
)

// String representation of an EventKind
func (k EventKind) String() string {
	switch k {
	case KindAssert:
		return "assert"
	case KindClear:
		return "clear"
	}
	return "none"
}

// EventTime is a pair of clock readings taken back to back as close to the
// physical edge as possible. MonoRaw is a free-running monotonic reading,
// there so consumers can tell apart pulse jitter from wall clock steps.
type EventTime struct {
	Realtime time.Time
	MonoRaw  time.Duration
}

// Event is one captured pulse edge. Seq counts events of this kind on this
// source, so consumers can detect missed pulses.
type Event struct {
	Kind EventKind
	Time EventTime
	Seq  uint64
}

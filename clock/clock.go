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
Package clock captures event timestamps for PPS edges: a realtime reading
paired with a free-running monotonic raw reading, taken back to back.
The capture runs at the very start of edge handling to minimize jitter
between the physical edge and the timestamp, so it must not block or
allocate.
*/
package clock

import (
	"github.com/ppsd/ppsgpio/pps"
)

// EventTimer captures the timestamp pair for one edge
type EventTimer interface {
	EventTime() (pps.EventTime, error)
}

// System reads the timestamp pair from the system clocks
type System struct{}

// EventTime returns the current realtime and monotonic raw readings
func (System) EventTime() (pps.EventTime, error) {
	return eventTime()
}

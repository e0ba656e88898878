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

package clock

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ppsd/ppsgpio/pps"
)

// CLOCK_MONOTONIC_RAW is not subject to NTP frequency adjustments,
// which is what makes the pair useful to consumers.
func eventTime() (pps.EventTime, error) {
	var real, raw unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &real); err != nil {
		return pps.EventTime{}, fmt.Errorf("reading CLOCK_REALTIME: %w", err)
	}
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &raw); err != nil {
		return pps.EventTime{}, fmt.Errorf("reading CLOCK_MONOTONIC_RAW: %w", err)
	}
	sec, nsec := real.Unix()
	return pps.EventTime{
		Realtime: time.Unix(sec, nsec),
		MonoRaw:  time.Duration(raw.Nano()),
	}, nil
}

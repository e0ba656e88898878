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

//go:build !linux

package clock

import (
	"time"

	"github.com/ppsd/ppsgpio/pps"
)

var start = time.Now()

// Fallback for platforms without CLOCK_MONOTONIC_RAW: use the monotonic
// reading time.Now carries. Good enough for development and tests.
func eventTime() (pps.EventTime, error) {
	now := time.Now()
	return pps.EventTime{
		Realtime: now,
		MonoRaw:  now.Sub(start),
	}, nil
}

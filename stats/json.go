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

package stats

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ppsd/ppsgpio/pps"
)

// JSONStats is what we want to report as stats via http
type JSONStats struct {
	report counters

	counters

	registry *pps.Registry
}

// NewJSONStats returns a new JSONStats reporting over the given registry
func NewJSONStats(registry *pps.Registry) *JSONStats {
	return &JSONStats{registry: registry}
}

// Start runs the http monitoring server
func (s *JSONStats) Start(monitoringport int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCounters)
	mux.HandleFunc("/counters", s.handleCounters)
	mux.HandleFunc("/sources", s.handleSources)
	addr := fmt.Sprintf(":%d", monitoringport)
	log.Infof("Starting http json server on %s", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil {
		log.Fatalf("Failed to start listener: %v", err)
	}
}

// Snapshot the values so they can be reported atomically
func (s *JSONStats) Snapshot() {
	s.counters.copy(&s.report)
}

// Reset atomically sets all the counters to 0
func (s *JSONStats) Reset() {
	s.counters.reset()
}

// IncEvent counts one submitted event of the given kind
func (s *JSONStats) IncEvent(kind pps.EventKind) {
	switch kind {
	case pps.KindAssert:
		s.eventsAssert.Add(1)
	case pps.KindClear:
		s.eventsClear.Add(1)
	}
}

// IncDrop counts one dropped submission of the given kind
func (s *JSONStats) IncDrop(kind pps.EventKind) {
	switch kind {
	case pps.KindAssert:
		s.dropsAssert.Add(1)
	case pps.KindClear:
		s.dropsClear.Add(1)
	}
}

// IncCaptureError counts one edge dropped on timestamp capture failure
func (s *JSONStats) IncCaptureError() {
	s.captureErrors.Add(1)
}

func (s *JSONStats) handleCounters(w http.ResponseWriter, _ *http.Request) {
	s.reply(w, s.report.toMap())
}

func (s *JSONStats) handleSources(w http.ResponseWriter, _ *http.Request) {
	sources := s.registry.Sources()
	res := make([]SourceStat, 0, len(sources))
	for _, src := range sources {
		res = append(res, NewSourceStat(src))
	}
	s.reply(w, res)
}

func (s *JSONStats) reply(w http.ResponseWriter, v any) {
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

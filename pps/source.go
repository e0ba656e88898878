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

package pps

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
)

// DefaultMaxSources is how many sources a Registry accepts unless configured otherwise
const DefaultMaxSources = 16

// Registration errors
var (
	// ErrDuplicateName means a source with this name is already registered
	ErrDuplicateName = errors.New("pps: source name already registered")
	// ErrExhausted means the registry reached its source limit
	ErrExhausted = errors.New("pps: too many sources")
	// ErrNotRegistered means the handle is not (or no longer) registered
	ErrNotRegistered = errors.New("pps: source not registered")
)

// Source is one registered PPS endpoint. It keeps only the latest event of
// each kind, in independent slots, so reading one kind never disturbs the
// other. Submit and the readers never take a lock; Register and Unregister
// run in ordinary context and serialize on the Registry.
type Source struct {
	name string
	mode Mode

	registered atomic.Bool
	lastAssert atomic.Pointer[Event]
	lastClear  atomic.Pointer[Event]
	assertSeq  atomic.Uint64
	clearSeq   atomic.Uint64
}

// Name returns the name the source was registered under
func (s *Source) Name() string {
	return s.name
}

// Mode returns the source capability bitset
func (s *Source) Mode() Mode {
	return s.mode
}

// Submit records an edge event of the given kind. It is safe to call from
// the edge delivery path: bounded time, no locks, no blocking. Events of a
// kind the source mode does not capture are dropped. The return value tells
// whether the event was stored.
func (s *Source) Submit(kind EventKind, t EventTime) bool {
	if !s.registered.Load() {
		return false
	}
	switch kind {
	case KindAssert:
		if s.mode&CaptureAssert == 0 {
			return false
		}
		s.lastAssert.Store(&Event{Kind: kind, Time: t, Seq: s.assertSeq.Add(1)})
	case KindClear:
		if s.mode&CaptureClear == 0 {
			return false
		}
		s.lastClear.Store(&Event{Kind: kind, Time: t, Seq: s.clearSeq.Add(1)})
	default:
		return false
	}
	return true
}

// LastAssert returns the most recent assert event, if any was captured
func (s *Source) LastAssert() (Event, bool) {
	e := s.lastAssert.Load()
	if e == nil {
		return Event{}, false
	}
	return *e, true
}

// LastClear returns the most recent clear event, if any was captured
func (s *Source) LastClear() (Event, bool) {
	e := s.lastClear.Load()
	if e == nil {
		return Event{}, false
	}
	return *e, true
}

// Registry tracks registered PPS sources by name
type Registry struct {
	mu      sync.Mutex
	max     int
	sources map[string]*Source
}

// NewRegistry returns a Registry accepting up to maxSources sources,
// DefaultMaxSources if maxSources is 0
func NewRegistry(maxSources int) *Registry {
	if maxSources <= 0 {
		maxSources = DefaultMaxSources
	}
	return &Registry{
		max:     maxSources,
		sources: map[string]*Source{},
	}
}

// Register creates a source under the given name with the given capability
// mode. Must be called from ordinary context, never from the edge path.
func (r *Registry) Register(name string, mode Mode) (*Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[name]; ok {
		return nil, ErrDuplicateName
	}
	if len(r.sources) >= r.max {
		return nil, ErrExhausted
	}
	s := &Source{name: name, mode: mode}
	s.registered.Store(true)
	r.sources[name] = s
	return s, nil
}

// Unregister invalidates the source handle. Submissions racing with the
// invalidation are dropped; the caller is expected to have detached the
// event delivery before unregistering, so in practice none occur.
func (r *Registry) Unregister(s *Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sources[s.name]; !ok || cur != s {
		return ErrNotRegistered
	}
	s.registered.Store(false)
	delete(r.sources, s.name)
	return nil
}

// Sources returns the registered sources sorted by name
func (r *Registry) Sources() []*Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*Source, 0, len(r.sources))
	for _, s := range r.sources {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].name < res[j].name })
	return res
}

package event

import (
	"slices"
	"time"
)

// state is an insertion-ordered map of key to event. Mutating operations work
// on a clone and swap it in once persisted.
type state struct {
	keys   []string
	events map[string]Event
}

func newState() *state {
	return &state{events: make(map[string]Event)}
}

func (s *state) clone() *state {
	events := make(map[string]Event, len(s.events))
	for k, v := range s.events {
		events[k] = v
	}
	return &state{keys: slices.Clone(s.keys), events: events}
}

func (s *state) get(key string) (Event, bool) {
	e, ok := s.events[key]
	return e, ok
}

func (s *state) put(key string, e Event) {
	if _, ok := s.events[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.events[key] = e
}

// replace stores e under newKey at the position oldKey occupied.
func (s *state) replace(oldKey, newKey string, e Event) {
	if oldKey == newKey {
		s.events[newKey] = e
		return
	}
	idx := slices.Index(s.keys, oldKey)
	delete(s.events, oldKey)
	if idx < 0 {
		s.put(newKey, e)
		return
	}
	s.keys[idx] = newKey
	s.events[newKey] = e
}

func (s *state) remove(key string) bool {
	if _, ok := s.events[key]; !ok {
		return false
	}
	delete(s.events, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	return true
}

func (s *state) list() []Event {
	events := make([]Event, 0, len(s.keys))
	for _, k := range s.keys {
		events = append(events, s.events[k])
	}
	return events
}

func (s *state) conflicts(start time.Time, duration int, ignoreKey string) []Event {
	end := start.Add(time.Duration(duration) * time.Minute)
	var conflicts []Event
	for _, k := range s.keys {
		if k == ignoreKey {
			continue
		}
		e := s.events[k]
		if overlaps(start, end, e.StartTime, e.End()) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

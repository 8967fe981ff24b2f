package event

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/klokku/scheduler/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// Store holds the scheduled events keyed by start time. It is not safe for
// concurrent use; callers serving parallel requests must serialise access.
type Store struct {
	repo  Repository
	bus   *event_bus.EventBus
	state *state
}

type Option func(*Store)

// WithEventBus publishes created, updated and deleted events to bus after
// every successful save.
func WithEventBus(bus *event_bus.EventBus) Option {
	return func(s *Store) {
		s.bus = bus
	}
}

// NewStore loads the persisted events once.
func NewStore(ctx context.Context, repo Repository, opts ...Option) (*Store, error) {
	s := &Store{repo: repo, state: newState()}
	for _, opt := range opts {
		opt(s)
	}

	events, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	for _, e := range events {
		s.state.put(e.Key(), e)
	}
	log.Debugf("Loaded %d events", len(s.state.keys))
	return s, nil
}

func (s *Store) Create(ctx context.Context, name, category string, startTime time.Time, duration int) (Event, error) {
	e, err := NewEvent(name, category, startTime, duration)
	if err != nil {
		return Event{}, err
	}
	if conflicts := s.state.conflicts(e.StartTime, e.Duration, ""); len(conflicts) > 0 {
		return Event{}, &ConflictError{Conflicts: conflicts}
	}

	next := s.state.clone()
	next.put(e.Key(), e)
	if err := s.commit(ctx, next); err != nil {
		return Event{}, err
	}

	s.publish(ctx, event_bus.EventCreatedType, event_bus.EventCreated{
		Key:       e.Key(),
		Name:      e.Name,
		Category:  e.Category,
		StartTime: e.StartTime,
		Duration:  e.Duration,
	})
	return e, nil
}

type DurationMode int

const (
	DurationAbsolute DurationMode = iota
	DurationIncrement
	DurationDecrement
)

type UpdateRequest struct {
	Keys []string
	// Empty Name or Category leaves the field unchanged.
	Name     string
	Category string
	// NewStart moves the event; honoured only when exactly one key is given.
	NewStart *time.Time
	// Duration is an absolute value or a delta depending on Mode.
	Duration *int
	Mode     DurationMode
}

type OutcomeStatus string

const (
	OutcomeUpdated  OutcomeStatus = "updated"
	OutcomeNotFound OutcomeStatus = "not_found"
)

type UpdateOutcome struct {
	Key    string
	Status OutcomeStatus
	// Event is the stored result when Status is OutcomeUpdated.
	Event Event
	// StartIgnored is set when a new start was requested for a multi-key update.
	StartIgnored bool
}

func (r UpdateRequest) validate() error {
	if len(r.Keys) == 0 {
		return fmt.Errorf("at least one key is required: %w", ErrValidation)
	}
	if r.Duration == nil {
		return nil
	}
	switch r.Mode {
	case DurationAbsolute:
		if *r.Duration <= 0 {
			return fmt.Errorf("duration must be a positive integer, got %d: %w", *r.Duration, ErrValidation)
		}
		if *r.Duration > MaxDuration {
			return fmt.Errorf("duration must not exceed %d minutes, got %d: %w", MaxDuration, *r.Duration, ErrValidation)
		}
	case DurationIncrement, DurationDecrement:
		if *r.Duration < 0 {
			return fmt.Errorf("duration delta must not be negative, got %d: %w", *r.Duration, ErrValidation)
		}
		if *r.Duration > MaxDuration {
			return fmt.Errorf("duration delta must not exceed %d minutes, got %d: %w", MaxDuration, *r.Duration, ErrValidation)
		}
	default:
		return fmt.Errorf("unknown duration mode %d: %w", r.Mode, ErrValidation)
	}
	return nil
}

func (r UpdateRequest) duration(current int) int {
	if r.Duration == nil {
		return current
	}
	switch r.Mode {
	case DurationIncrement:
		return current + *r.Duration
	case DurationDecrement:
		return max(MinDuration, current-*r.Duration)
	default:
		return *r.Duration
	}
}

// Update applies req to every key in order. A missing key is reported in its
// outcome and the batch continues; a conflict aborts the whole batch and leaves
// the store untouched. The store is persisted once, after the last key.
func (s *Store) Update(ctx context.Context, req UpdateRequest) ([]UpdateOutcome, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(req.Keys))
	for _, k := range req.Keys {
		t, err := ParseKey(k)
		if err != nil {
			// no stored key has this form, so it ends up reported as not found
			keys = append(keys, strings.TrimSpace(k))
			continue
		}
		keys = append(keys, Key(t))
	}
	move := req.NewStart != nil && len(keys) == 1

	next := s.state.clone()
	outcomes := make([]UpdateOutcome, 0, len(keys))
	var updates []event_bus.EventUpdated
	for _, key := range keys {
		current, ok := next.get(key)
		if !ok {
			log.Infof("Event starting at %s not found", key)
			outcomes = append(outcomes, UpdateOutcome{Key: key, Status: OutcomeNotFound})
			continue
		}

		updated := current
		updated.Duration = req.duration(current.Duration)
		if updated.Duration > MaxDuration {
			return nil, fmt.Errorf("duration of %s would exceed %d minutes: %w", key, MaxDuration, ErrValidation)
		}
		if req.Name != "" {
			updated.Name = req.Name
		}
		if req.Category != "" {
			updated.Category = req.Category
		}
		outcome := UpdateOutcome{Key: key, Status: OutcomeUpdated}
		if move {
			updated.StartTime = normalize(*req.NewStart)
		} else if req.NewStart != nil {
			log.Infof("Ignoring new start for %s: a new start is not allowed for multiple updates", key)
			outcome.StartIgnored = true
		}

		if move || req.Duration != nil {
			if conflicts := next.conflicts(updated.StartTime, updated.Duration, key); len(conflicts) > 0 {
				return nil, &ConflictError{Conflicts: conflicts}
			}
		}

		next.replace(key, updated.Key(), updated)
		outcome.Event = updated
		outcomes = append(outcomes, outcome)
		updates = append(updates, event_bus.EventUpdated{
			PreviousKey: key,
			Key:         updated.Key(),
			Name:        updated.Name,
			Category:    updated.Category,
			StartTime:   updated.StartTime,
			Duration:    updated.Duration,
		})
	}

	if len(updates) == 0 {
		return outcomes, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	for _, u := range updates {
		s.publish(ctx, event_bus.EventUpdatedType, u)
	}
	return outcomes, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, ok := s.state.get(key); !ok {
		return &NotFoundError{Key: key}
	}
	next := s.state.clone()
	next.remove(key)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.publish(ctx, event_bus.EventDeletedType, event_bus.EventDeleted{Key: key})
	return nil
}

func (s *Store) Get(key string) (Event, bool) {
	return s.state.get(key)
}

func (s *Store) Len() int {
	return len(s.state.keys)
}

// List returns every stored event in insertion order.
func (s *Store) List() []Entry {
	entries := make([]Entry, 0, len(s.state.keys))
	for key, e := range s.All() {
		entries = append(entries, Entry{Key: key, Event: e})
	}
	return entries
}

// All yields every stored event in insertion order. Each range scans anew.
func (s *Store) All() iter.Seq2[string, Event] {
	return func(yield func(string, Event) bool) {
		st := s.state
		for _, k := range st.keys {
			if !yield(k, st.events[k]) {
				return
			}
		}
	}
}

// FilterByCategory yields the events whose category matches, ignoring case.
func (s *Store) FilterByCategory(category string) iter.Seq2[string, Event] {
	return func(yield func(string, Event) bool) {
		for k, e := range s.All() {
			if !strings.EqualFold(e.Category, category) {
				continue
			}
			if !yield(k, e) {
				return
			}
		}
	}
}

// Conflicts returns the events overlapping [start, start+duration), skipping
// the event stored under ignoreKey.
func (s *Store) Conflicts(start time.Time, duration int, ignoreKey string) []Event {
	return s.state.conflicts(normalize(start), duration, ignoreKey)
}

func (s *Store) commit(ctx context.Context, next *state) error {
	if err := s.repo.Save(ctx, next.list()); err != nil {
		log.Errorf("failed to save events: %v", err)
		return fmt.Errorf("failed to save events: %w", err)
	}
	s.state = next
	return nil
}

func (s *Store) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("failed to publish %s: %v", eventType, err)
	}
}

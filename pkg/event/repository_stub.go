package event

import (
	"context"
	"slices"
	"sync"
)

type RepositoryStub struct {
	mu      sync.Mutex
	events  []Event
	saves   int
	saveErr error
}

func NewRepositoryStub(events ...Event) *RepositoryStub {
	return &RepositoryStub{events: events}
}

func (r *RepositoryStub) Load(_ context.Context) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events), nil
}

func (r *RepositoryStub) Save(_ context.Context, events []Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.events = slices.Clone(events)
	r.saves++
	return nil
}

// Helper method to make the next saves fail (for testing rollback)
func (r *RepositoryStub) SetSaveError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// Helper method to get the number of successful saves
func (r *RepositoryStub) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// Helper method to get the last saved events
func (r *RepositoryStub) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

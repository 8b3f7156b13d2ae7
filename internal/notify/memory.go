package notify

import (
	"context"
	"sort"
	"sync"
	"time"
)

// PendingReminder is one registered fire request.
type PendingReminder struct {
	Tag        string
	Fire       FireSpec
	Payload    Payload
	Registered time.Time
}

// MemoryScheduler keeps the pending set in process memory. It backs the
// app when no reminder bus is configured and gives tests a scheduler
// whose state they can inspect.
type MemoryScheduler struct {
	mu      sync.Mutex
	pending map[string]PendingReminder
	now     func() time.Time
}

func NewMemoryScheduler() *MemoryScheduler {
	return &MemoryScheduler{
		pending: make(map[string]PendingReminder),
		now:     time.Now,
	}
}

// Schedule registers a fire request, replacing any request with the same
// tag.
func (s *MemoryScheduler) Schedule(_ context.Context, tag string, fire FireSpec, payload Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[tag] = PendingReminder{
		Tag:        tag,
		Fire:       fire,
		Payload:    payload,
		Registered: s.now(),
	}
	return nil
}

// Cancel removes the given tags; unknown tags are ignored.
func (s *MemoryScheduler) Cancel(_ context.Context, tags ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		delete(s.pending, tag)
	}
	return nil
}

// Pending returns the registered request for a tag, if any.
func (s *MemoryScheduler) Pending(tag string) (PendingReminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[tag]
	return p, ok
}

// PendingCount returns the number of registered requests.
func (s *MemoryScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Tags returns all registered tags in sorted order.
func (s *MemoryScheduler) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]string, 0, len(s.pending))
	for tag := range s.pending {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Due returns the reminders whose fire time has passed, removing them
// from the pending set.
func (s *MemoryScheduler) Due(now time.Time) []PendingReminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []PendingReminder
	for tag, p := range s.pending {
		if !p.Fire.Due(p.Registered).After(now) {
			due = append(due, p)
			delete(s.pending, tag)
		}
	}
	sort.Slice(due, func(a, b int) bool { return due[a].Tag < due[b].Tag })
	return due
}

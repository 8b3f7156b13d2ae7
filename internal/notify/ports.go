// Package notify keeps reminder state consistent with item state. The
// reconciler translates item mutations into cancel-then-schedule calls
// against a Scheduler, the outbound port for whatever actually delivers
// reminders (the AMQP bus in production, an in-memory set in tests and
// in bus-less degraded mode).
package notify

import (
	"context"
	"time"
)

// Category mirrors the notification categories registered by the mobile
// client; the worker includes it so delivery can pick actions per kind.
type Category string

const (
	CategoryLowStock Category = "LOW_STOCK"
	CategoryExpiring Category = "EXPIRING"
)

// FireSpec says when a reminder should fire: either a relative delay or
// an absolute calendar instant. Exactly one of the two is set.
type FireSpec struct {
	At    time.Time
	After time.Duration
}

// FireAfter builds a relative-delay fire spec.
func FireAfter(d time.Duration) FireSpec {
	return FireSpec{After: d}
}

// FireAt builds an absolute calendar-instant fire spec.
func FireAt(t time.Time) FireSpec {
	return FireSpec{At: t}
}

// Relative reports whether the fire time is a delay rather than an instant.
func (f FireSpec) Relative() bool {
	return f.At.IsZero()
}

// Due resolves the request to a concrete fire time, using registered as
// the base for relative delays.
func (f FireSpec) Due(registered time.Time) time.Time {
	if f.Relative() {
		return registered.Add(f.After)
	}
	return f.At
}

// Payload is what a fired reminder shows the user.
type Payload struct {
	ItemID   string   `json:"item_id"`
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
}

// Scheduler registers and cancels fire requests keyed by tag. Scheduling
// an already-registered tag replaces the previous request.
type Scheduler interface {
	Schedule(ctx context.Context, tag string, fire FireSpec, payload Payload) error
	Cancel(ctx context.Context, tags ...string) error
}

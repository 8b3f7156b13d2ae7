package notify

import (
	"context"
	"testing"
	"time"
)

func TestMemorySchedulerReplaceAndCancel(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScheduler()

	if err := s.Schedule(ctx, "tag-a", FireAfter(time.Second), Payload{ItemID: "1"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Schedule(ctx, "tag-a", FireAfter(time.Minute), Payload{ItemID: "1"}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if s.PendingCount() != 1 {
		t.Fatalf("same tag must replace, got %d pending", s.PendingCount())
	}
	p, _ := s.Pending("tag-a")
	if p.Fire.After != time.Minute {
		t.Fatalf("expected replaced fire spec, got %v", p.Fire.After)
	}

	if err := s.Cancel(ctx, "tag-a", "never-registered"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if s.PendingCount() != 0 {
		t.Fatalf("expected empty pending set")
	}
}

func TestMemorySchedulerDue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryScheduler()
	base := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if err := s.Schedule(ctx, "soon", FireAfter(5*time.Second), Payload{}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.Schedule(ctx, "later", FireAt(base.Add(time.Hour)), Payload{}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if due := s.Due(base.Add(time.Second)); len(due) != 0 {
		t.Fatalf("nothing should be due yet, got %d", len(due))
	}
	due := s.Due(base.Add(10 * time.Second))
	if len(due) != 1 || due[0].Tag != "soon" {
		t.Fatalf("expected only the relative reminder due, got %+v", due)
	}
	if s.PendingCount() != 1 {
		t.Fatalf("fired reminder should leave the pending set")
	}
}

// Package feed carries committed-change notifications from the storage
// layer to interested readers. It replaces a broadcast-on-save refresh
// token with an explicit subscription contract: subscribers are invoked
// serially, in registration order, for every published change.
package feed

import "sync"

// Kind classifies what happened to a record.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Record names the record type a change refers to.
type Record string

const (
	RecordList Record = "list"
	RecordItem Record = "item"
)

// Change describes one committed write. For item changes ListID carries
// the owning list so readers can invalidate per-list state.
type Change struct {
	Kind   Kind
	Record Record
	ID     string
	ListID string
}

// Feed is a synchronous change stream. Publish blocks until every
// subscriber has run, which keeps ordering deterministic per subscriber
// and matches the recompute-from-scratch model: consumers drop derived
// state on receipt and rebuild it on the next read.
type Feed struct {
	mu   sync.Mutex
	subs []func(Change)
}

func New() *Feed {
	return &Feed{}
}

// Subscribe registers fn to receive every subsequent change.
func (f *Feed) Subscribe(fn func(Change)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

// Publish delivers c to all subscribers in registration order.
func (f *Feed) Publish(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fn := range f.subs {
		fn(c)
	}
}

package dataset

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Holder publishes the current snapshot. Readers never block.
type Holder struct {
	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	subs   []func(*Snapshot)
	reload sync.Mutex
}

// NewHolder creates a Holder, optionally seeded with a snapshot.
func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	if initial != nil {
		h.current.Store(initial)
	}
	return h
}

// Current returns the published snapshot, or nil before the first load.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Subscribe registers fn to run after every Publish, in registration order.
func (h *Holder) Subscribe(fn func(*Snapshot)) {
	h.mu.Lock()
	h.subs = append(h.subs, fn)
	h.mu.Unlock()
}

// Publish installs s and notifies subscribers.
func (h *Holder) Publish(s *Snapshot) {
	h.mu.Lock()
	h.current.Store(s)
	subs := slices.Clone(h.subs)
	h.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Reload loads a new snapshot and publishes it. On failure the current
// snapshot stays in place. Concurrent reloads are serialized.
func (h *Holder) Reload(ctx context.Context, l SnapshotLoader) (*Snapshot, error) {
	h.reload.Lock()
	defer h.reload.Unlock()

	s, err := l.Load(ctx)
	if err != nil {
		zap.L().Error("dataset: reload failed, keeping current snapshot",
			zap.String("component", "dataset"),
			zap.Error(err),
		)
		return nil, err
	}
	h.Publish(s)
	return s, nil
}

package resource

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
	"github.com/YouWantToPinch/dashboard-api/internal/store/storage"
)

type recordingSink struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recordingSink) Publish(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recordingSink) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Event())
	}
	return out
}

// fakeClock advances one second per reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func patchOf(t *testing.T, body map[string]any) Patch {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	var p Patch
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

// newTestService wires a kind to a fresh memory store with a fake clock.
func newTestService[D model.Document](kind Kind[D], pick func(*storage.Handle) store.Collection[D]) (*Service[D], *recordingSink) {
	h := storage.NewMemory()
	sink := &recordingSink{}
	svc := NewService(kind, pick(h), sink, nil)
	svc.now = newFakeClock().Now
	return svc, sink
}

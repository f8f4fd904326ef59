// Package memstore keeps documents in process memory. It backs tests and
// local development when no database is configured.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
)

type entry struct {
	owner uuid.UUID
	body  []byte
}

// Store holds every collection. Documents are kept as JSON so callers never
// share memory with the store.
type Store struct {
	mu   sync.RWMutex
	docs map[model.Kind]map[uuid.UUID]entry
}

func New() *Store {
	return &Store{docs: make(map[model.Kind]map[uuid.UUID]entry)}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Collection is a typed view over one kind.
type Collection[D model.Document] struct {
	s    *Store
	kind model.Kind
}

func NewCollection[D model.Document](s *Store, kind model.Kind) *Collection[D] {
	return &Collection[D]{s: s, kind: kind}
}

// table must be called with s.mu held for writing.
func (c *Collection[D]) table() map[uuid.UUID]entry {
	t, ok := c.s.docs[c.kind]
	if !ok {
		t = make(map[uuid.UUID]entry)
		c.s.docs[c.kind] = t
	}
	return t
}

func (c *Collection[D]) Insert(_ context.Context, doc D) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("insert %s: %w", c.kind, err)
	}
	meta := doc.Meta()

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	t := c.table()
	if _, ok := t[meta.ID]; ok {
		return fmt.Errorf("insert %s %s: %w", c.kind, meta.ID, store.ErrConflict)
	}
	if err := c.checkUnique(t, meta.ID, body); err != nil {
		return err
	}
	t[meta.ID] = entry{owner: meta.Owner, body: body}
	return nil
}

func (c *Collection[D]) Get(_ context.Context, id uuid.UUID) (D, error) {
	c.s.mu.RLock()
	e, ok := c.s.docs[c.kind][id]
	c.s.mu.RUnlock()

	if !ok {
		var zero D
		return zero, store.ErrNotFound
	}
	return store.Decode[D](e.body)
}

func (c *Collection[D]) ListByOwner(_ context.Context, owner uuid.UUID) ([]D, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	docs := make([]D, 0)
	for _, e := range c.s.docs[c.kind] {
		if e.owner != owner {
			continue
		}
		doc, err := store.Decode[D](e.body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *Collection[D]) FindOne(_ context.Context, field, value string) (D, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var zero D
	for _, e := range c.s.docs[c.kind] {
		if fieldEquals(e.body, field, value) {
			return store.Decode[D](e.body)
		}
	}
	return zero, store.ErrNotFound
}

func (c *Collection[D]) Replace(_ context.Context, doc D) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("replace %s: %w", c.kind, err)
	}
	meta := doc.Meta()

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	t := c.table()
	old, ok := t[meta.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := c.checkUnique(t, meta.ID, body); err != nil {
		return err
	}
	t[meta.ID] = entry{owner: old.owner, body: body}
	return nil
}

func (c *Collection[D]) PatchOwned(_ context.Context, id, owner uuid.UUID, fields map[string]any, at time.Time) (D, error) {
	var zero D

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	t := c.table()
	e, ok := t[id]
	if !ok || e.owner != owner {
		return zero, store.ErrNotFound
	}
	body, err := store.MergeJSON(e.body, store.PatchFields(fields, at))
	if err != nil {
		return zero, err
	}
	doc, err := store.Decode[D](body)
	if err != nil {
		return zero, err
	}
	// re-encode so the stored body only carries known fields
	body, err = json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("patch %s: %w", c.kind, err)
	}
	t[id] = entry{owner: e.owner, body: body}
	return doc, nil
}

func (c *Collection[D]) Delete(_ context.Context, id uuid.UUID) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	t := c.table()
	if _, ok := t[id]; !ok {
		return store.ErrNotFound
	}
	delete(t, id)
	return nil
}

func (c *Collection[D]) DeleteAll(_ context.Context) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	delete(c.s.docs, c.kind)
	return nil
}

func (c *Collection[D]) Count(_ context.Context) (int64, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	return int64(len(c.s.docs[c.kind])), nil
}

func (c *Collection[D]) checkUnique(t map[uuid.UUID]entry, id uuid.UUID, body []byte) error {
	for _, field := range store.UniqueFields[c.kind] {
		value, ok := fieldValue(body, field)
		if !ok {
			continue
		}
		for otherID, e := range t {
			if otherID != id && fieldEquals(e.body, field, value) {
				return fmt.Errorf("%s %s %q: %w", c.kind, field, value, store.ErrConflict)
			}
		}
	}
	return nil
}

func fieldValue(body []byte, field string) (string, bool) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return "", false
	}
	v, ok := m[field].(string)
	return v, ok
}

func fieldEquals(body []byte, field, value string) bool {
	v, ok := fieldValue(body, field)
	return ok && v == value
}

// Package resource implements the ownership-scoped CRUD service shared by
// every dashboard resource kind.
package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
)

// Kind describes one resource kind to the generic Service.
type Kind[D model.Document] struct {
	Name model.Kind
	// New returns an empty document carrying the kind defaults.
	New func() D
	// Apply copies the fields present in p onto doc. Body values for id,
	// owner and the timestamps are never read.
	Apply func(doc D, p Patch, creating bool) []FieldError
	// Filter turns list query parameters into a predicate. A nil Filter
	// accepts every document.
	Filter func(q url.Values) (func(D) bool, []FieldError)
	Less   func(a, b D) bool
	// Notify enables change notifications for the kind.
	Notify bool
}

type Service[D model.Document] struct {
	kind     Kind[D]
	coll     store.Collection[D]
	sink     ChangeSink
	validate *Validator
	now      func() time.Time
}

func NewService[D model.Document](kind Kind[D], coll store.Collection[D], sink ChangeSink, v *Validator) *Service[D] {
	if sink == nil {
		sink = Discard
	}
	if v == nil {
		v = NewValidator()
	}
	return &Service[D]{
		kind:     kind,
		coll:     coll,
		sink:     sink,
		validate: v,
		now:      time.Now,
	}
}

func (s *Service[D]) Kind() model.Kind {
	return s.kind.Name
}

// List returns every document of owner that passes the kind filter, in
// kind order.
func (s *Service[D]) List(ctx context.Context, owner uuid.UUID, q url.Values) ([]D, error) {
	keep := func(D) bool { return true }
	if s.kind.Filter != nil {
		pred, errs := s.kind.Filter(q)
		if len(errs) > 0 {
			return nil, &ValidationError{Fields: errs}
		}
		if pred != nil {
			keep = pred
		}
	}

	docs, err := s.coll.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.Name.Plural(), err)
	}
	out := docs[:0]
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	if s.kind.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return s.kind.Less(out[i], out[j]) })
	}
	return out, nil
}

// Get returns the document if owner owns it.
func (s *Service[D]) Get(ctx context.Context, owner, id uuid.UUID) (D, error) {
	var zero D
	doc, err := s.coll.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("get %s: %w", s.kind.Name, err)
	}
	if doc.Meta().Owner != owner {
		return zero, ErrForbidden
	}
	return doc, nil
}

func (s *Service[D]) Create(ctx context.Context, owner uuid.UUID, p Patch) (D, error) {
	var zero D
	doc := s.kind.New()
	if err := s.check(doc, p, true); err != nil {
		return zero, err
	}

	now := stamp(s.now())
	meta := doc.Meta()
	meta.ID = uuid.New()
	meta.Owner = owner
	meta.CreatedAt = now
	meta.UpdatedAt = now

	if err := s.coll.Insert(ctx, doc); err != nil {
		return zero, fmt.Errorf("create %s: %w", s.kind.Name, err)
	}
	s.publish(OpCreated, doc)
	return doc, nil
}

// Update applies the fields present in p to a document owned by owner.
func (s *Service[D]) Update(ctx context.Context, owner, id uuid.UUID, p Patch) (D, error) {
	var zero D
	doc, err := s.Get(ctx, owner, id)
	if err != nil {
		return zero, err
	}
	if err := s.check(doc, p, false); err != nil {
		return zero, err
	}

	meta := doc.Meta()
	meta.ID, meta.Owner = id, owner
	meta.UpdatedAt = s.bump(meta.UpdatedAt)

	if err := s.coll.Replace(ctx, doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("update %s: %w", s.kind.Name, err)
	}
	s.publish(OpUpdated, doc)
	return doc, nil
}

func (s *Service[D]) Delete(ctx context.Context, owner, id uuid.UUID) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.coll.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", s.kind.Name, err)
	}
	s.publishDelete(owner, id)
	return nil
}

// patchOwned writes fields with a compound (id, owner) match. It reports
// ok=false when no such document exists.
func (s *Service[D]) patchOwned(ctx context.Context, owner, id uuid.UUID, fields map[string]any) (D, bool, error) {
	doc, err := s.coll.PatchOwned(ctx, id, owner, fields, stamp(s.now()))
	if err != nil {
		var zero D
		if errors.Is(err, store.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("patch %s: %w", s.kind.Name, err)
	}
	return doc, true, nil
}

// check applies p and validates the result, reporting every failing field.
func (s *Service[D]) check(doc D, p Patch, creating bool) error {
	var errs fieldErrors = s.kind.Apply(doc, p, creating)
	for _, fe := range s.validate.Struct(doc) {
		if !errs.has(fe.Field) {
			errs = append(errs, fe)
		}
	}
	return errs.err()
}

// bump returns the current time, forced strictly after prev.
func (s *Service[D]) bump(prev time.Time) time.Time {
	now := stamp(s.now())
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (s *Service[D]) publish(op Op, doc D) {
	if !s.kind.Notify {
		return
	}
	meta := doc.Meta()
	s.sink.Publish(Change{Kind: s.kind.Name, Op: op, Owner: meta.Owner, ID: meta.ID, Doc: doc})
}

func (s *Service[D]) publishDelete(owner, id uuid.UUID) {
	if !s.kind.Notify {
		return
	}
	s.sink.Publish(Change{Kind: s.kind.Name, Op: OpDeleted, Owner: owner, ID: id})
}

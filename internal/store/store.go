// Package store defines the document collection contract shared by every
// storage backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document conflicts with an existing one")
)

// Collection persists one kind of document. D is a pointer type such as
// *model.Task. Every method is a single atomic store operation.
type Collection[D model.Document] interface {
	Insert(ctx context.Context, doc D) error
	Get(ctx context.Context, id uuid.UUID) (D, error)
	// ListByOwner returns every document stamped with owner, in no
	// particular order.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]D, error)
	// FindOne matches a top-level field by exact string value.
	FindOne(ctx context.Context, field, value string) (D, error)
	Replace(ctx context.Context, doc D) error
	// PatchOwned sets the given top-level fields plus updatedAt on the
	// document matching both id and owner, returning the result.
	PatchOwned(ctx context.Context, id, owner uuid.UUID, fields map[string]any, at time.Time) (D, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// Decode allocates a fresh document of type D from its JSON form.
func Decode[D model.Document](body []byte) (D, error) {
	var doc D
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// MergeJSON applies top-level fields onto a JSON document body.
func MergeJSON(body []byte, fields map[string]any) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("merge document: %w", err)
	}
	for k, v := range fields {
		m[k] = v
	}
	return json.Marshal(m)
}

// PatchFields copies fields and adds the updatedAt stamp.
func PatchFields(fields map[string]any, at time.Time) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["updatedAt"] = at
	return out
}

// UniqueFields lists the top-level fields each backend must keep unique
// within a kind.
var UniqueFields = map[model.Kind][]string{
	model.KindUser: {"email"},
}

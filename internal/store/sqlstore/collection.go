package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
)

// Collection is a typed view over the rows of one kind.
type Collection[D model.Document] struct {
	db   *DB
	kind model.Kind
}

func NewCollection[D model.Document](db *DB, kind model.Kind) *Collection[D] {
	return &Collection[D]{db: db, kind: kind}
}

func (c *Collection[D]) Insert(ctx context.Context, doc D) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("insert %s: %w", c.kind, err)
	}
	meta := doc.Meta()

	query := c.db.rebind(`INSERT INTO documents (kind, id, owner_id, created_at, updated_at, body)
VALUES (?, ?, ?, ?, ?, ` + c.db.jsonParam() + `)`)
	_, err = c.db.db.ExecContext(ctx, query,
		string(c.kind), meta.ID.String(), meta.Owner.String(),
		meta.CreatedAt, meta.UpdatedAt, string(body))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s %s: %w", c.kind, meta.ID, store.ErrConflict)
		}
		return fmt.Errorf("insert %s: %w", c.kind, err)
	}
	return nil
}

func (c *Collection[D]) Get(ctx context.Context, id uuid.UUID) (D, error) {
	query := c.db.rebind(`SELECT body FROM documents WHERE kind = ? AND id = ?`)
	return c.scanOne(c.db.db.QueryRowContext(ctx, query, string(c.kind), id.String()))
}

func (c *Collection[D]) ListByOwner(ctx context.Context, owner uuid.UUID) ([]D, error) {
	query := c.db.rebind(`SELECT body FROM documents WHERE kind = ? AND owner_id = ?`)
	rows, err := c.db.db.QueryContext(ctx, query, string(c.kind), owner.String())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.kind.Plural(), err)
	}
	defer rows.Close()

	docs := make([]D, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("list %s: %w", c.kind.Plural(), err)
		}
		doc, err := store.Decode[D](body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (c *Collection[D]) FindOne(ctx context.Context, field, value string) (D, error) {
	expr, arg := c.db.fieldExpr(field)
	query := c.db.rebind(`SELECT body FROM documents WHERE kind = ? AND ` + expr + ` = ? LIMIT 1`)
	return c.scanOne(c.db.db.QueryRowContext(ctx, query, string(c.kind), arg, value))
}

func (c *Collection[D]) Replace(ctx context.Context, doc D) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("replace %s: %w", c.kind, err)
	}
	meta := doc.Meta()

	query := c.db.rebind(`UPDATE documents SET body = ` + c.db.jsonParam() + `, updated_at = ?
WHERE kind = ? AND id = ?`)
	res, err := c.db.db.ExecContext(ctx, query, string(body), meta.UpdatedAt, string(c.kind), meta.ID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("replace %s %s: %w", c.kind, meta.ID, store.ErrConflict)
		}
		return fmt.Errorf("replace %s: %w", c.kind, err)
	}
	return expectOneRow(res)
}

// PatchOwned performs a shallow merge in a single UPDATE ... RETURNING so
// ownership is checked and the write applied atomically.
func (c *Collection[D]) PatchOwned(ctx context.Context, id, owner uuid.UUID, fields map[string]any, at time.Time) (D, error) {
	var zero D
	fields = store.PatchFields(fields, at)

	var (
		setBody string
		args    []any
	)
	switch c.db.dialect {
	case postgres:
		patch, err := json.Marshal(fields)
		if err != nil {
			return zero, fmt.Errorf("patch %s: %w", c.kind, err)
		}
		setBody = "body || ?::jsonb"
		args = append(args, string(patch))
	default:
		// json_patch merges nested objects, json_set replaces them
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v, err := json.Marshal(fields[k])
			if err != nil {
				return zero, fmt.Errorf("patch %s.%s: %w", c.kind, k, err)
			}
			parts = append(parts, "?, json(?)")
			args = append(args, "$."+k, string(v))
		}
		setBody = "json_set(body, " + strings.Join(parts, ", ") + ")"
	}
	args = append(args, at, string(c.kind), id.String(), owner.String())

	query := c.db.rebind(`UPDATE documents SET body = ` + setBody + `, updated_at = ?
WHERE kind = ? AND id = ? AND owner_id = ? RETURNING body`)
	return c.scanOne(c.db.db.QueryRowContext(ctx, query, args...))
}

func (c *Collection[D]) Delete(ctx context.Context, id uuid.UUID) error {
	query := c.db.rebind(`DELETE FROM documents WHERE kind = ? AND id = ?`)
	res, err := c.db.db.ExecContext(ctx, query, string(c.kind), id.String())
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.kind, err)
	}
	return expectOneRow(res)
}

func (c *Collection[D]) DeleteAll(ctx context.Context) error {
	query := c.db.rebind(`DELETE FROM documents WHERE kind = ?`)
	if _, err := c.db.db.ExecContext(ctx, query, string(c.kind)); err != nil {
		return fmt.Errorf("delete all %s: %w", c.kind.Plural(), err)
	}
	return nil
}

func (c *Collection[D]) Count(ctx context.Context) (int64, error) {
	var n int64
	query := c.db.rebind(`SELECT COUNT(*) FROM documents WHERE kind = ?`)
	if err := c.db.db.QueryRowContext(ctx, query, string(c.kind)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.kind.Plural(), err)
	}
	return n, nil
}

func (c *Collection[D]) scanOne(row *sql.Row) (D, error) {
	var (
		zero D
		body []byte
	)
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, store.ErrNotFound
		}
		return zero, fmt.Errorf("read %s: %w", c.kind, err)
	}
	return store.Decode[D](body)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

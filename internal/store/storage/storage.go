// Package storage opens the configured backend and exposes typed
// collections for every document kind.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/store"
	"github.com/YouWantToPinch/dashboard-api/internal/store/memstore"
	"github.com/YouWantToPinch/dashboard-api/internal/store/mongostore"
	"github.com/YouWantToPinch/dashboard-api/internal/store/sqlstore"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Options struct {
	Driver   string
	DSN      string
	Database string
	// Attempts bounds connection retries; zero means one attempt.
	Attempts uint
	Logger   *slog.Logger
}

type backend interface {
	Ping(ctx context.Context) error
	Close() error
}

// Handle bundles the collections of one open backend.
type Handle struct {
	Users     store.Collection[*model.User]
	Tasks     store.Collection[*model.Task]
	Notes     store.Collection[*model.Note]
	Bookmarks store.Collection[*model.Bookmark]
	Events    store.Collection[*model.Event]
	Widgets   store.Collection[*model.Widget]

	backend backend
}

func (h *Handle) Ping(ctx context.Context) error { return h.backend.Ping(ctx) }

func (h *Handle) Close() error { return h.backend.Close() }

// Reset drops every document of every kind.
func (h *Handle) Reset(ctx context.Context) error {
	for _, del := range []func(context.Context) error{
		h.Tasks.DeleteAll,
		h.Notes.DeleteAll,
		h.Bookmarks.DeleteAll,
		h.Events.DeleteAll,
		h.Widgets.DeleteAll,
		h.Users.DeleteAll,
	} {
		if err := del(ctx); err != nil {
			return err
		}
	}
	return nil
}

// NewMemory returns a handle over a fresh in-memory store.
func NewMemory() *Handle {
	s := memstore.New()
	return &Handle{
		Users:     memstore.NewCollection[*model.User](s, model.KindUser),
		Tasks:     memstore.NewCollection[*model.Task](s, model.KindTask),
		Notes:     memstore.NewCollection[*model.Note](s, model.KindNote),
		Bookmarks: memstore.NewCollection[*model.Bookmark](s, model.KindBookmark),
		Events:    memstore.NewCollection[*model.Event](s, model.KindEvent),
		Widgets:   memstore.NewCollection[*model.Widget](s, model.KindWidget),
		backend:   s,
	}
}

// NewSQL wraps an already migrated SQL database.
func NewSQL(db *sqlstore.DB) *Handle {
	return &Handle{
		Users:     sqlstore.NewCollection[*model.User](db, model.KindUser),
		Tasks:     sqlstore.NewCollection[*model.Task](db, model.KindTask),
		Notes:     sqlstore.NewCollection[*model.Note](db, model.KindNote),
		Bookmarks: sqlstore.NewCollection[*model.Bookmark](db, model.KindBookmark),
		Events:    sqlstore.NewCollection[*model.Event](db, model.KindEvent),
		Widgets:   sqlstore.NewCollection[*model.Widget](db, model.KindWidget),
		backend:   db,
	}
}

func NewMongo(s *mongostore.Store) *Handle {
	return &Handle{
		Users:     mongostore.NewCollection[*model.User](s, model.KindUser),
		Tasks:     mongostore.NewCollection[*model.Task](s, model.KindTask),
		Notes:     mongostore.NewCollection[*model.Note](s, model.KindNote),
		Bookmarks: mongostore.NewCollection[*model.Bookmark](s, model.KindBookmark),
		Events:    mongostore.NewCollection[*model.Event](s, model.KindEvent),
		Widgets:   mongostore.NewCollection[*model.Widget](s, model.KindWidget),
		backend:   s,
	}
}

// Open connects to the configured driver, retrying while the backend is
// unreachable.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}

	connect := func() (*Handle, error) {
		switch opts.Driver {
		case "", DriverMemory:
			return NewMemory(), nil
		case DriverSQLite, DriverPostgres:
			db, err := sqlstore.Open(ctx, opts.Driver, opts.DSN)
			if err != nil {
				return nil, err
			}
			return NewSQL(db), nil
		case DriverMongo:
			s, err := mongostore.Open(ctx, opts.DSN, opts.Database)
			if err != nil {
				return nil, err
			}
			return NewMongo(s), nil
		default:
			return nil, retry.Unrecoverable(fmt.Errorf("unknown store driver %q", opts.Driver))
		}
	}

	h, err := retry.DoWithData(connect,
		retry.Context(ctx),
		retry.Delay(300*time.Millisecond),
		retry.Attempts(opts.Attempts),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			opts.Logger.Warn("failed to open store",
				slog.String("driver", opts.Driver),
				slog.Any("err", err),
				slog.Uint64("attempt", uint64(attempt)),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Driver, err)
	}
	if err := h.Ping(ctx); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("ping %s store: %w", opts.Driver, err)
	}
	return h, nil
}

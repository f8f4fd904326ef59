package resource

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change records one committed mutation. Doc is the full document for
// creates and updates and nil for deletes.
type Change struct {
	Kind  model.Kind
	Op    Op
	Owner uuid.UUID
	ID    uuid.UUID
	Doc   model.Document
}

// Event is the channel event name, e.g. task:created.
func (c Change) Event() string {
	return string(c.Kind) + ":" + string(c.Op)
}

// Payload is what subscribers receive: the document, or the id string for
// deletes.
func (c Change) Payload() any {
	if c.Op == OpDeleted || c.Doc == nil {
		return c.ID.String()
	}
	return c.Doc
}

// ChangeSink receives changes after the store write has committed.
// Publish must not block.
type ChangeSink interface {
	Publish(Change)
}

// Outbox is a buffered ChangeSink. A full buffer drops the change.
type Outbox struct {
	ch     chan Change
	logger *slog.Logger
}

func NewOutbox(size int, logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{ch: make(chan Change, size), logger: logger}
}

func (o *Outbox) Publish(c Change) {
	select {
	case o.ch <- c:
	default:
		o.logger.Warn("dropped change notification",
			slog.String("event", c.Event()),
			slog.String("owner", c.Owner.String()),
		)
	}
}

// Changes is consumed by the notifier.
func (o *Outbox) Changes() <-chan Change {
	return o.ch
}

type discard struct{}

func (discard) Publish(Change) {}

// Discard drops every change.
var Discard ChangeSink = discard{}

package realtime

import (
	"context"
	"log/slog"

	"github.com/YouWantToPinch/dashboard-api/internal/resource"
)

// Dispatcher forwards committed changes to the owner's room.
type Dispatcher struct {
	hub     *Hub
	changes <-chan resource.Change
	logger  *slog.Logger
}

func NewDispatcher(hub *Hub, changes <-chan resource.Change, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{hub: hub, changes: changes, logger: logger}
}

// Run consumes changes until ctx is done or the channel closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-d.changes:
			if !ok {
				return nil
			}
			n := d.hub.Emit(c.Owner, c.Event(), c.Payload())
			d.logger.Debug("dispatched change",
				slog.String("event", c.Event()),
				slog.String("owner", c.Owner.String()),
				slog.Int("sessions", n),
			)
		}
	}
}

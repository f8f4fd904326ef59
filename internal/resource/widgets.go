package resource

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
)

// Widgets never notify.
var Widgets = Kind[*model.Widget]{
	Name: model.KindWidget,
	New: func() *model.Widget {
		return &model.Widget{
			Size:      model.Size{W: 4, H: 4},
			IsVisible: true,
			Settings:  map[string]any{},
		}
	},
	Apply: func(w *model.Widget, p Patch, _ bool) []FieldError {
		var errs fieldErrors
		setString(p, "type", &w.Type, &errs)
		set(p, "position", &w.Position, &errs)
		set(p, "size", &w.Size, &errs)
		set(p, "isVisible", &w.IsVisible, &errs)
		set(p, "settings", &w.Settings, &errs)
		if w.Settings == nil {
			w.Settings = map[string]any{}
		}
		return errs
	},
	Less: func(a, b *model.Widget) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	},
}

// LayoutItem moves or resizes one widget.
type LayoutItem struct {
	ID       string          `json:"id"`
	Position *model.Position `json:"position"`
	Size     *model.Size     `json:"size"`
}

const batchConcurrency = 8

// BatchLayout applies every item independently, matching on (id, owner).
// The result has one slot per item; a slot is nil when the id is malformed,
// unknown, or owned by someone else. Only a store failure fails the call.
func BatchLayout(ctx context.Context, svc *Service[*model.Widget], owner uuid.UUID, items []LayoutItem) ([]*model.Widget, error) {
	out := make([]*model.Widget, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			continue
		}
		fields := make(map[string]any, 2)
		if item.Position != nil {
			fields["position"] = *item.Position
		}
		if item.Size != nil {
			fields["size"] = *item.Size
		}
		g.Go(func() error {
			w, ok, err := svc.patchOwned(ctx, owner, id, fields)
			if err != nil {
				return err
			}
			if ok {
				out[i] = w
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

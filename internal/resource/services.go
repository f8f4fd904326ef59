package resource

import (
	"github.com/YouWantToPinch/dashboard-api/internal/model"
	"github.com/YouWantToPinch/dashboard-api/internal/store/storage"
)

// Services holds one CRUD service per resource kind.
type Services struct {
	Tasks     *Service[*model.Task]
	Notes     *Service[*model.Note]
	Bookmarks *Service[*model.Bookmark]
	Events    *Service[*model.Event]
	Widgets   *Service[*model.Widget]
}

func NewServices(h *storage.Handle, sink ChangeSink, v *Validator) *Services {
	if v == nil {
		v = NewValidator()
	}
	return &Services{
		Tasks:     NewService(Tasks, h.Tasks, sink, v),
		Notes:     NewService(Notes, h.Notes, sink, v),
		Bookmarks: NewService(Bookmarks, h.Bookmarks, sink, v),
		Events:    NewService(Events, h.Events, sink, v),
		Widgets:   NewService(Widgets, h.Widgets, sink, v),
	}
}

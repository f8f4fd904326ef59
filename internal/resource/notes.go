package resource

import (
	"net/url"
	"strings"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
)

var Notes = Kind[*model.Note]{
	Name: model.KindNote,
	New: func() *model.Note {
		return &model.Note{Color: "#ffffff", Tags: []string{}}
	},
	Apply: func(n *model.Note, p Patch, _ bool) []FieldError {
		var errs fieldErrors
		setString(p, "title", &n.Title, &errs)
		setString(p, "content", &n.Content, &errs)
		setString(p, "color", &n.Color, &errs)
		setTags(p, "tags", &n.Tags, &errs)
		set(p, "isPinned", &n.IsPinned, &errs)
		set(p, "isArchived", &n.IsArchived, &errs)
		return errs
	},
	Filter: func(q url.Values) (func(*model.Note) bool, []FieldError) {
		var errs fieldErrors
		pinned := boolFilter(q, "isPinned", &errs)
		archived := boolFilter(q, "isArchived", &errs)
		if len(errs) > 0 {
			return nil, errs
		}
		search := strings.ToLower(q.Get("search"))
		return func(n *model.Note) bool {
			if pinned != nil && n.IsPinned != *pinned {
				return false
			}
			if archived != nil && n.IsArchived != *archived {
				return false
			}
			return search == "" || containsFold(search, n.Title, n.Content)
		}, nil
	},
	Less: func(a, b *model.Note) bool {
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	},
	Notify: true,
}

// boolFilter reads an optional true/false query parameter.
func boolFilter(q url.Values, key string, errs *fieldErrors) *bool {
	s := q.Get(key)
	if s == "" {
		return nil
	}
	v, err := parseBool(s)
	if err != nil {
		errs.add(key, key+" "+err.Error())
		return nil
	}
	return &v
}

package resource

import (
	"net/url"
	"strings"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
)

var Tasks = Kind[*model.Task]{
	Name: model.KindTask,
	New: func() *model.Task {
		return &model.Task{Priority: "medium", Status: "todo", Tags: []string{}}
	},
	Apply: func(t *model.Task, p Patch, _ bool) []FieldError {
		var errs fieldErrors
		setString(p, "title", &t.Title, &errs)
		set(p, "description", &t.Description, &errs)
		set(p, "priority", &t.Priority, &errs)
		set(p, "status", &t.Status, &errs)
		set(p, "completed", &t.Completed, &errs)
		setOptionalTime(p, "dueDate", &t.DueDate, &errs)
		setTags(p, "tags", &t.Tags, &errs)
		return errs
	},
	Filter: func(q url.Values) (func(*model.Task) bool, []FieldError) {
		status, priority := q.Get("status"), q.Get("priority")
		search := strings.ToLower(q.Get("search"))
		return func(t *model.Task) bool {
			if status != "" && t.Status != status {
				return false
			}
			if priority != "" && t.Priority != priority {
				return false
			}
			return search == "" || containsFold(search, t.Title, t.Description)
		}, nil
	},
	Less: func(a, b *model.Task) bool {
		return a.CreatedAt.After(b.CreatedAt)
	},
	Notify: true,
}

// containsFold reports whether any field contains the lower-cased needle,
// ignoring case.
func containsFold(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

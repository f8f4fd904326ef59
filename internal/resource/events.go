package resource

import (
	"net/url"
	"time"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
)

// Events accepts an end before its start.
var Events = Kind[*model.Event]{
	Name: model.KindEvent,
	New: func() *model.Event {
		return &model.Event{
			Color:    "#3B82F6",
			Category: "General",
			Reminder: model.Reminder{Time: 30},
		}
	},
	Apply: func(e *model.Event, p Patch, _ bool) []FieldError {
		var errs fieldErrors
		setString(p, "title", &e.Title, &errs)
		set(p, "description", &e.Description, &errs)
		setTime(p, "startDate", &e.StartDate, &errs)
		setTime(p, "endDate", &e.EndDate, &errs)
		set(p, "allDay", &e.AllDay, &errs)
		set(p, "location", &e.Location, &errs)
		setString(p, "color", &e.Color, &errs)
		applyReminder(&e.Reminder, p, &errs)
		setString(p, "category", &e.Category, &errs)

		if e.StartDate.IsZero() && !errs.has("startDate") {
			errs.add("startDate", "startDate is required")
		}
		if e.EndDate.IsZero() && !errs.has("endDate") {
			errs.add("endDate", "endDate is required")
		}
		return errs
	},
	Filter: func(q url.Values) (func(*model.Event) bool, []FieldError) {
		var errs fieldErrors
		category := q.Get("category")
		var from, to time.Time
		start, end := q.Get("startDate"), q.Get("endDate")
		ranged := start != "" && end != ""
		if ranged {
			var err error
			if from, err = parseTime(start); err != nil {
				errs.add("startDate", "startDate must be a valid date")
			}
			if to, err = parseTime(end); err != nil {
				errs.add("endDate", "endDate must be a valid date")
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return func(e *model.Event) bool {
			if category != "" && e.Category != category {
				return false
			}
			if ranged && (e.StartDate.Before(from) || e.StartDate.After(to)) {
				return false
			}
			return true
		}, nil
	},
	Less: func(a, b *model.Event) bool {
		return a.StartDate.Before(b.StartDate)
	},
	Notify: true,
}

// applyReminder merges a partial reminder object so {"enabled":true}
// keeps the stored time.
func applyReminder(r *model.Reminder, p Patch, errs *fieldErrors) {
	var inner Patch
	set(p, "reminder", &inner, errs)
	if inner == nil {
		return
	}
	set(inner, "enabled", &r.Enabled, errs)
	set(inner, "time", &r.Time, errs)
	for i := range *errs {
		if f := &(*errs)[i]; f.Field == "enabled" || f.Field == "time" {
			f.Field = "reminder." + f.Field
		}
	}
}

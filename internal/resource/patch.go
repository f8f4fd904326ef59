package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Patch is a decoded JSON object body keyed by field name. Only the keys
// present in the body are applied to a document.
type Patch map[string]json.RawMessage

func (p Patch) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p Patch) isNull(key string) bool {
	raw, ok := p[key]
	return ok && string(raw) == "null"
}

// set decodes key into dst when present. A JSON null leaves dst unchanged.
func set[T any](p Patch, key string, dst *T, errs *fieldErrors) {
	raw, ok := p[key]
	if !ok || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		errs.add(key, fmt.Sprintf("%s has an invalid value", key))
		return
	}
	*dst = v
}

func setString(p Patch, key string, dst *string, errs *fieldErrors) {
	set(p, key, dst, errs)
	*dst = strings.TrimSpace(*dst)
}

func setTags(p Patch, key string, dst *[]string, errs *fieldErrors) {
	if p.isNull(key) {
		*dst = []string{}
		return
	}
	set(p, key, dst, errs)
	tags := make([]string, 0, len(*dst))
	for _, t := range *dst {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	*dst = tags
}

func setTime(p Patch, key string, dst *time.Time, errs *fieldErrors) {
	var s string
	if !p.Has(key) || p.isNull(key) {
		return
	}
	set(p, key, &s, errs)
	if errs.has(key) {
		return
	}
	t, err := parseTime(s)
	if err != nil {
		errs.add(key, fmt.Sprintf("%s must be a valid date", key))
		return
	}
	*dst = t
}

// setOptionalTime is setTime for nullable fields; null or "" clears.
func setOptionalTime(p Patch, key string, dst **time.Time, errs *fieldErrors) {
	if !p.Has(key) {
		return
	}
	if p.isNull(key) {
		*dst = nil
		return
	}
	var s string
	set(p, key, &s, errs)
	if errs.has(key) {
		return
	}
	if s == "" {
		*dst = nil
		return
	}
	t, err := parseTime(s)
	if err != nil {
		errs.add(key, fmt.Sprintf("%s must be a valid date", key))
		return
	}
	*dst = &t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime accepts ISO-8601 instants and dates. Values without a zone
// are read as UTC.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return stamp(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("value '%s' could not be parsed as a date", s)
}

// stamp normalizes a time to what every store round-trips exactly.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.New("must be 'true' or 'false'")
	}
}

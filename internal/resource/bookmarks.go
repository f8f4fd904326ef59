package resource

import (
	"net/url"
	"strings"

	"github.com/YouWantToPinch/dashboard-api/internal/model"
)

var Bookmarks = Kind[*model.Bookmark]{
	Name: model.KindBookmark,
	New: func() *model.Bookmark {
		return &model.Bookmark{Category: "Uncategorized", Tags: []string{}}
	},
	Apply: func(b *model.Bookmark, p Patch, creating bool) []FieldError {
		var errs fieldErrors
		oldURL := b.URL
		setString(p, "title", &b.Title, &errs)
		setString(p, "url", &b.URL, &errs)
		set(p, "description", &b.Description, &errs)
		setString(p, "category", &b.Category, &errs)
		setTags(p, "tags", &b.Tags, &errs)
		set(p, "isFavorite", &b.IsFavorite, &errs)

		if b.URL != "" && (creating || b.URL != oldURL) {
			favicon, ok := faviconFor(b.URL)
			if !ok {
				errs.add("url", "url must be a valid URL")
			} else {
				b.Favicon = favicon
			}
		}
		return errs
	},
	Filter: func(q url.Values) (func(*model.Bookmark) bool, []FieldError) {
		var errs fieldErrors
		favorite := boolFilter(q, "isFavorite", &errs)
		if len(errs) > 0 {
			return nil, errs
		}
		tag, category := q.Get("tag"), q.Get("category")
		search := strings.ToLower(q.Get("search"))
		return func(b *model.Bookmark) bool {
			if tag != "" && !hasTag(b.Tags, tag) {
				return false
			}
			if category != "" && b.Category != category {
				return false
			}
			if favorite != nil && b.IsFavorite != *favorite {
				return false
			}
			return search == "" || containsFold(search, b.Title, b.Description, b.URL)
		}, nil
	},
	Less: func(a, b *model.Bookmark) bool {
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		return a.CreatedAt.After(b.CreatedAt)
	},
	Notify: true,
}

// faviconFor builds {scheme}://{host}/favicon.ico without fetching it.
func faviconFor(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico", true
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

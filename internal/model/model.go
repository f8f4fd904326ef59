// Package model holds the documents persisted by the dashboard store.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a document collection.
type Kind string

const (
	KindUser     Kind = "user"
	KindTask     Kind = "task"
	KindNote     Kind = "note"
	KindBookmark Kind = "bookmark"
	KindEvent    Kind = "event"
	KindWidget   Kind = "widget"
)

// Kinds lists every owned resource kind, users excluded.
var Kinds = []Kind{KindTask, KindNote, KindBookmark, KindEvent, KindWidget}

// Plural is the collection name, also used as the route segment.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Base is embedded by every document.
type Base struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	Owner     uuid.UUID `json:"owner" bson:"owner"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Meta gives stores access to the common fields of any document.
func (b *Base) Meta() *Base {
	return b
}

// Document is satisfied by pointers to every model type.
type Document interface {
	Meta() *Base
}

type Task struct {
	Base        `bson:",inline"`
	Title       string     `json:"title" bson:"title" validate:"required"`
	Description string     `json:"description" bson:"description"`
	Priority    string     `json:"priority" bson:"priority" validate:"oneof=low medium high urgent"`
	Status      string     `json:"status" bson:"status" validate:"oneof=todo in-progress completed"`
	Completed   bool       `json:"completed" bson:"completed"`
	DueDate     *time.Time `json:"dueDate" bson:"dueDate"`
	Tags        []string   `json:"tags" bson:"tags"`
}

type Note struct {
	Base       `bson:",inline"`
	Title      string   `json:"title" bson:"title" validate:"required,max=200"`
	Content    string   `json:"content" bson:"content" validate:"required"`
	Color      string   `json:"color" bson:"color" validate:"hexcolor"`
	Tags       []string `json:"tags" bson:"tags"`
	IsPinned   bool     `json:"isPinned" bson:"isPinned"`
	IsArchived bool     `json:"isArchived" bson:"isArchived"`
}

type Bookmark struct {
	Base        `bson:",inline"`
	Title       string   `json:"title" bson:"title" validate:"required"`
	URL         string   `json:"url" bson:"url" validate:"required,url"`
	Description string   `json:"description" bson:"description" validate:"max=500"`
	Favicon     string   `json:"favicon" bson:"favicon"`
	Category    string   `json:"category" bson:"category"`
	Tags        []string `json:"tags" bson:"tags"`
	IsFavorite  bool     `json:"isFavorite" bson:"isFavorite"`
}

type Reminder struct {
	Enabled bool `json:"enabled" bson:"enabled"`
	Time    int  `json:"time" bson:"time" validate:"min=0"`
}

type Event struct {
	Base        `bson:",inline"`
	Title       string    `json:"title" bson:"title" validate:"required,max=200"`
	Description string    `json:"description" bson:"description" validate:"max=1000"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	EndDate     time.Time `json:"endDate" bson:"endDate"`
	AllDay      bool      `json:"allDay" bson:"allDay"`
	Location    string    `json:"location" bson:"location"`
	Color       string    `json:"color" bson:"color" validate:"hexcolor"`
	Reminder    Reminder  `json:"reminder" bson:"reminder"`
	Category    string    `json:"category" bson:"category"`
}

// WidgetTypes enumerates the dashboard tiles a client can render.
var WidgetTypes = []string{"tasks", "notes", "bookmarks", "calendar", "weather", "clock", "quotes"}

type Position struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

type Size struct {
	W int `json:"w" bson:"w"`
	H int `json:"h" bson:"h"`
}

type Widget struct {
	Base      `bson:",inline"`
	Type      string         `json:"type" bson:"type" validate:"required,oneof=tasks notes bookmarks calendar weather clock quotes"`
	Position  Position       `json:"position" bson:"position"`
	Size      Size           `json:"size" bson:"size"`
	IsVisible bool           `json:"isVisible" bson:"isVisible"`
	Settings  map[string]any `json:"settings" bson:"settings"`
}

// User is the account record. Owner always equals ID.
// PasswordHash is persisted but never rendered to clients.
type User struct {
	Base         `bson:",inline"`
	Name         string         `json:"name" bson:"name"`
	Email        string         `json:"email" bson:"email"`
	PasswordHash string         `json:"passwordHash" bson:"passwordHash"`
	Theme        string         `json:"theme" bson:"theme"`
	Avatar       string         `json:"avatar" bson:"avatar"`
	Preferences  map[string]any `json:"preferences" bson:"preferences"`
}

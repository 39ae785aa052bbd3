package browser

import (
	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/render"
)

// State of the problem listing
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

// EventType identifies a view event
type EventType string

const (
	EventLoading        EventType = "loading"
	EventCleared        EventType = "cleared"
	EventTable          EventType = "table"
	EventError          EventType = "error"
	EventRowPatch       EventType = "row_patch"
	EventTags           EventType = "tags"
	EventProgressReset  EventType = "progress_reset"
	EventDistribution   EventType = "distribution"
	EventProfileLoading EventType = "profile_loading"
	EventProfile        EventType = "profile"
	EventProfileError   EventType = "profile_error"
	EventScroll         EventType = "scroll"
)

// Event is one update pushed to the view
type Event struct {
	Type         EventType            `json:"type"`
	State        State                `json:"state,omitempty"`
	Header       string               `json:"header,omitempty"`
	Stats        string               `json:"stats,omitempty"`
	Session      *Session             `json:"session,omitempty"`
	Table        *render.Table        `json:"table,omitempty"`
	Patch        *render.RowPatch     `json:"patch,omitempty"`
	Distribution *models.Distribution `json:"distribution,omitempty"`
	Profile      *models.UserProfile  `json:"profile,omitempty"`
	Recommended  string               `json:"recommended,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// View receives events. Publish is called with the session lock held, in
// the order events happen; it must not call back into the Browser.
type View interface {
	Publish(Event)
}

// ViewFunc adapts a function to View
type ViewFunc func(Event)

func (f ViewFunc) Publish(e Event) { f(e) }

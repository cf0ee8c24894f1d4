package domain

import (
	"context"
	"time"
)

// Event represents a user-created event.
// Attendees is a denormalized counter of ATTENDING rows; it is mutated only by
// the membership service through the conditional increment/decrement below,
// never by plain writes. The creator is not counted and never has an attendee row.
// swagger:model Event
type Event struct {
	ID           string    `json:"id"`
	CreatorID    string    `json:"creator_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Location     string    `json:"location"`
	InviteOnly   bool      `json:"invite_only"`
	MaxAttendees int       `json:"max_attendees"`
	Attendees    int       `json:"attendees"`
	StartsAt     time.Time `json:"starts_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewEvent returns a new Event. ID is typically set by the repository on create.
func NewEvent(creatorID, title string, maxAttendees int, inviteOnly bool, createdAt, updatedAt time.Time) *Event {
	return &Event{
		CreatorID:    creatorID,
		Title:        title,
		MaxAttendees: maxAttendees,
		InviteOnly:   inviteOnly,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// EventRepository defines the interface for event storage.
//
// IncrementAttendees performs a single conditional update
// (attendees = attendees + 1 only while attendees < max_attendees) and reports
// whether a row was updated. Callers must run it in the same transaction as the
// attendee row mutation; the false return is the only signal that the event is
// full, so two racing joins on the last seat admit exactly one.
// DecrementAttendees floors the counter at zero.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByCreatorID(ctx context.Context, creatorID string) ([]*Event, error)
	Delete(ctx context.Context, id string) error
	IncrementAttendees(ctx context.Context, eventID string) (bool, error)
	DecrementAttendees(ctx context.Context, eventID string) error
}

// EventService defines event CRUD operations outside the membership state machine.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, eventID string) (*Event, error)
	ListEventsByCreator(ctx context.Context, creatorID string) ([]*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string) error
}

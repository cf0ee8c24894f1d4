package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for membership operations.
var (
	// ErrNoJoinRequest is returned when approving or declining a user who has no INVITED row.
	ErrNoJoinRequest = errors.New("no join request found")
	// ErrCreatorMembership is returned when an operation would give the event
	// creator an attendee row (creator status is derived, never stored).
	ErrCreatorMembership = errors.New("creators cannot join their own event")
)

// AttendeeStatus is the stored status of an event attendee row.
type AttendeeStatus string

const (
	AttendeeInvited   AttendeeStatus = "INVITED"
	AttendeeAttending AttendeeStatus = "ATTENDING"
)

// MembershipState is the state of one (event, user) pair as observed by the
// membership state machine. Absence of a row is a valid state, not an error.
type MembershipState string

const (
	MembershipNone      MembershipState = "none"
	MembershipInvited   MembershipState = "invited"
	MembershipAttending MembershipState = "attending"
)

// State maps a stored attendee status to a membership state.
func (s AttendeeStatus) State() MembershipState {
	switch s {
	case AttendeeInvited:
		return MembershipInvited
	case AttendeeAttending:
		return MembershipAttending
	}
	return MembershipNone
}

// EventAttendee is an edge between an event and a user. The (EventID, UserID)
// pair is the identity; the creator of an event is never represented by a row.
// swagger:model EventAttendee
type EventAttendee struct {
	EventID   string         `json:"event_id"`
	UserID    string         `json:"user_id"`
	Status    AttendeeStatus `json:"status"`
	Profile   string         `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// AttendeeWithUser bundles an attendee row with its user for creator-facing listings.
type AttendeeWithUser struct {
	Attendee *EventAttendee `json:"attendee"`
	User     *User          `json:"user"`
}

// EventAttendeeRepository defines storage for event attendee edges.
//
// The conditional writes are the serialization points for the attendees
// counter: callers move the counter only when the reported bool says the row
// actually changed, never based on a prior read.
//
// UpsertIfNotAttending inserts the row or updates its status in one statement,
// leaving an ATTENDING row untouched so an invite can never demote an admitted
// attendee; it reports whether the row was written.
// UpdateStatusIf flips status from one value to another and reports whether a
// row made that exact transition.
// Delete is idempotent; DeleteIf removes the row only when it holds the given
// status. Both report whether a row was removed.
type EventAttendeeRepository interface {
	Get(ctx context.Context, eventID, userID string) (*EventAttendee, error)
	UpsertIfNotAttending(ctx context.Context, eventID, userID string, status AttendeeStatus) (bool, error)
	UpdateStatusIf(ctx context.Context, eventID, userID string, from, to AttendeeStatus) (bool, error)
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	DeleteIf(ctx context.Context, eventID, userID string, status AttendeeStatus) (bool, error)
	ListByEventID(ctx context.Context, eventID string) ([]*EventAttendee, error)
	ListByUserID(ctx context.Context, userID string) ([]*EventAttendee, error)
}

// JoinResult reports the state a join call left the caller in: invited when the
// event is invite-only (a join request), attending when admitted.
type JoinResult struct {
	State MembershipState `json:"state"`
}

// MembershipService owns the event-attendance state machine and the attendees
// counter invariant. All mutating operations run in one storage transaction;
// notifications are dispatched after commit and never affect the outcome.
type MembershipService interface {
	// Invite records an INVITED row for target. Idempotent: re-inviting is a
	// no-op, and an ATTENDING target is never demoted. The creator and the
	// inviter themselves cannot be invited.
	Invite(ctx context.Context, eventID, inviterID, targetID string) error
	// Join admits the caller to an open event (capacity permitting) or records
	// a join request for an invite-only one. Safe to call twice.
	Join(ctx context.Context, eventID, userID string) (*JoinResult, error)
	// Approve admits a user whose row is INVITED. Creator only.
	Approve(ctx context.Context, eventID, approverID, targetID string) error
	// DeclineRequest removes an INVITED row. Creator only.
	DeclineRequest(ctx context.Context, eventID, approverID, targetID string) error
	// AcceptInvite is the invited user accepting their own invite; same
	// capacity rules as Join on an open event.
	AcceptInvite(ctx context.Context, eventID, userID string) error
	// Leave removes the caller's row whatever its status. Idempotent.
	Leave(ctx context.Context, eventID, userID string) error
	// RemoveAttendee is the creator removing a user; Leave semantics for target.
	RemoveAttendee(ctx context.Context, eventID, callerID, targetID string) error
	// GetState reports the membership state of one (event, user) pair.
	GetState(ctx context.Context, eventID, userID string) (MembershipState, error)
	// ListAttendees returns the event's attendee rows with users. Creator only.
	ListAttendees(ctx context.Context, eventID, callerID string) ([]*AttendeeWithUser, error)
}

package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNoPendingRequest is returned when accepting or declining a request that
// does not exist or is no longer pending.
var ErrNoPendingRequest = errors.New("no pending request found")

// ConnectionStatus is the stored status of a directional connection row.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "PENDING"
	ConnectionAccepted ConnectionStatus = "ACCEPTED"
	ConnectionDeclined ConnectionStatus = "DECLINED"
)

// ConnectionState is the state of a user pair as observed by a viewer.
type ConnectionState string

const (
	ConnectionStateNone            ConnectionState = "none"
	ConnectionStatePendingOutgoing ConnectionState = "pending_outgoing"
	ConnectionStatePendingIncoming ConnectionState = "pending_incoming"
	ConnectionStateConnected       ConnectionState = "connected"
	ConnectionStateDeclined        ConnectionState = "declined"
)

// Connection is the directional record of a pairwise relationship request and
// its resolution. At most one open (non-DECLINED) row exists per unordered
// pair; direction encodes who initiated the still-open request.
// swagger:model Connection
type Connection struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	RecipientID string           `json:"recipient_id"`
	Status      ConnectionStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// UserConnection is one direction of the symmetric mirror of an accepted
// connection. Both directions are created together and deleted together.
type UserConnection struct {
	UserID          string    `json:"user_id"`
	ConnectedUserID string    `json:"connected_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ConnectionRepository defines storage for directional connection rows.
//
// GetOpenByPair returns the PENDING or ACCEPTED row between a and b in either
// direction; there is at most one. GetLatestByPair returns the most recent row
// in either direction regardless of status. GetByDirection returns the exact
// requester→recipient row regardless of status.
// UpdateStatusIf is a compare-and-swap: it moves the row from one status to
// another in a single conditional update and reports whether a row changed.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *Connection) error
	GetOpenByPair(ctx context.Context, a, b string) (*Connection, error)
	GetLatestByPair(ctx context.Context, a, b string) (*Connection, error)
	GetByDirection(ctx context.Context, requesterID, recipientID string) (*Connection, error)
	UpdateStatusIf(ctx context.Context, id string, from, to ConnectionStatus) (bool, error)
}

// UserConnectionRepository defines storage for the symmetric mirror edges.
// CreateBoth upserts both directions; DeleteBoth removes both and reports
// whether any row existed.
type UserConnectionRepository interface {
	CreateBoth(ctx context.Context, a, b string) error
	DeleteBoth(ctx context.Context, a, b string) (bool, error)
	ListByUserID(ctx context.Context, userID string) ([]*UserConnection, error)
}

// RemoveResult names the user that was disconnected.
type RemoveResult struct {
	Removed string `json:"removed"`
}

// ConnectionService owns the user-to-user relationship state machine: the
// directional connection rows, the symmetric mirror, and both users'
// connections counters, kept in lock-step inside one transaction per operation.
type ConnectionService interface {
	// GetStatus reports the pair state as seen by the viewer.
	GetStatus(ctx context.Context, viewerID, targetID string) (ConnectionState, error)
	// Request opens a PENDING request from caller to target, re-opening a
	// previously declined request in the same direction when one exists.
	Request(ctx context.Context, callerID, targetID string) error
	// Accept flips the requester's PENDING row to ACCEPTED, creates both mirror
	// rows, and increments both counters, all in one transaction.
	Accept(ctx context.Context, callerID, requesterID string) error
	// Decline flips the requester's PENDING row to DECLINED.
	Decline(ctx context.Context, callerID, requesterID string) error
	// Remove deletes the mirror rows, decrements both counters when the pair
	// was connected, and leaves the pair observed as declined.
	Remove(ctx context.Context, callerID, targetID string) (*RemoveResult, error)
	// ListConnections returns the users the caller is connected with.
	ListConnections(ctx context.Context, callerID string) ([]*User, error)
}

package domain

import "errors"

// Generic sentinel errors shared across the domain.
var (
	// ErrNotFound is returned when a referenced event, user, or relationship row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller lacks the required role for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when the request is structurally invalid.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransient is returned when the underlying transaction could not complete
	// (serialization failure, deadlock, timeout). The operation is safe to retry;
	// no partial state change was committed.
	ErrTransient = errors.New("transient storage conflict, retry")
)

// Conflict sentinels. Each carries enough detail to distinguish the cases a
// client must present differently; none leaks row identifiers.
var (
	// ErrEventFull is returned when joining or approving would exceed the event capacity.
	ErrEventFull = errors.New("event is full")
	// ErrSelfConnection is returned for a connection request targeting the caller.
	ErrSelfConnection = errors.New("cannot connect with yourself")
	// ErrAlreadyConnected is returned when the pair already has an accepted connection.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrRequestAlreadySent is returned when the caller already has an open request to the target.
	ErrRequestAlreadySent = errors.New("request already sent")
	// ErrAwaitingResponse is returned when the target already requested the caller;
	// the caller should respond to that request instead of sending a new one.
	ErrAwaitingResponse = errors.New("they already requested to connect, respond to their request")
)

// IsConflict reports whether err is one of the state-invariant conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrSelfConnection) ||
		errors.Is(err, ErrAlreadyConnected) ||
		errors.Is(err, ErrRequestAlreadySent) ||
		errors.Is(err, ErrAwaitingResponse)
}

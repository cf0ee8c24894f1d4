package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetnet/internal/domain"
)

type connectionService struct {
	store          domain.Store
	notifier       domain.Notifier
	contextTimeout time.Duration
}

// NewConnectionService creates the connection graph engine. The directional
// connection rows, the symmetric mirror, and both connections counters are
// mutated together inside one transaction per operation, never separately.
func NewConnectionService(store domain.Store, notifier domain.Notifier, timeout time.Duration) domain.ConnectionService {
	return &connectionService{
		store:          store,
		notifier:       notifier,
		contextTimeout: timeout,
	}
}

func (s *connectionService) GetStatus(ctx context.Context, viewerID, targetID string) (domain.ConnectionState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if viewerID == targetID {
		return domain.ConnectionStateConnected, nil
	}

	open, err := s.store.Connections().GetOpenByPair(ctx, viewerID, targetID)
	if err == nil {
		if open.Status == domain.ConnectionAccepted {
			return domain.ConnectionStateConnected, nil
		}
		if open.RequesterID == viewerID {
			return domain.ConnectionStatePendingOutgoing, nil
		}
		return domain.ConnectionStatePendingIncoming, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ConnectionStateNone, fmt.Errorf("get open connection: %w", err)
	}

	if _, err := s.store.Connections().GetLatestByPair(ctx, viewerID, targetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ConnectionStateNone, nil
		}
		return domain.ConnectionStateNone, fmt.Errorf("get latest connection: %w", err)
	}
	// Rows exist but none open: the most recent resolution was a decline.
	return domain.ConnectionStateDeclined, nil
}

func (s *connectionService) Request(ctx context.Context, callerID, targetID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if callerID == targetID {
		return domain.ErrSelfConnection
	}
	caller, err := s.store.Users().GetByID(ctx, callerID)
	if err != nil {
		return fmt.Errorf("get caller: %w", err)
	}
	if _, err := s.store.Users().GetByID(ctx, targetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get target: %w", err)
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		// Racing requests for the same pair, whichever direction, queue on the
		// user row locks. The loser then sees the winner's open row below
		// instead of creating a second one.
		if err := tx.Users().LockPair(ctx, callerID, targetID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("lock user pair: %w", err)
		}

		open, err := tx.Connections().GetOpenByPair(ctx, callerID, targetID)
		if err == nil {
			switch {
			case open.Status == domain.ConnectionAccepted:
				return domain.ErrAlreadyConnected
			case open.RequesterID == callerID:
				return domain.ErrRequestAlreadySent
			default:
				return domain.ErrAwaitingResponse
			}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get open connection: %w", err)
		}

		// No open row. A declined row in the caller's direction is re-opened;
		// a declined row the other way never blocks a fresh request.
		prior, err := tx.Connections().GetByDirection(ctx, callerID, targetID)
		if err == nil && prior.Status == domain.ConnectionDeclined {
			ok, err := tx.Connections().UpdateStatusIf(ctx, prior.ID, domain.ConnectionDeclined, domain.ConnectionPending)
			if err != nil {
				return fmt.Errorf("reopen declined request: %w", err)
			}
			if !ok {
				// Lost a race with a concurrent transition on the same row.
				return domain.ErrTransient
			}
			return nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get prior request: %w", err)
		}

		conn := &domain.Connection{
			RequesterID: callerID,
			RecipientID: targetID,
			Status:      domain.ConnectionPending,
		}
		return tx.Connections().Create(ctx, conn)
	})
	if err != nil {
		return err
	}

	actor := caller.DisplayName()
	s.notifier.Notify(targetID, domain.NotificationEventUpdate,
		"Connection Request",
		fmt.Sprintf("%s wants to connect with you.", actor),
		map[string]any{"actor_id": callerID, "actor_username": actor, "kind": "CONNECT_REQUEST"},
	)
	return nil
}

func (s *connectionService) Accept(ctx context.Context, callerID, requesterID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		conn, err := tx.Connections().GetByDirection(ctx, requesterID, callerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoPendingRequest
			}
			return fmt.Errorf("get request: %w", err)
		}
		// CAS guards against a concurrent accept/decline of the same request.
		ok, err := tx.Connections().UpdateStatusIf(ctx, conn.ID, domain.ConnectionPending, domain.ConnectionAccepted)
		if err != nil {
			return fmt.Errorf("accept request: %w", err)
		}
		if !ok {
			return domain.ErrNoPendingRequest
		}
		if err := tx.UserConnections().CreateBoth(ctx, requesterID, callerID); err != nil {
			return fmt.Errorf("create mirror edges: %w", err)
		}
		if err := tx.Users().IncrementConnections(ctx, requesterID); err != nil {
			return fmt.Errorf("increment requester connections: %w", err)
		}
		if err := tx.Users().IncrementConnections(ctx, callerID); err != nil {
			return fmt.Errorf("increment recipient connections: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recipientName, requesterName := s.displayNames(ctx, callerID, requesterID)
	s.notifier.Notify(requesterID, domain.NotificationEventUpdate,
		"Connection Accepted",
		fmt.Sprintf("%s accepted your connection request.", recipientName),
		map[string]any{"actor_id": callerID, "actor_username": recipientName, "kind": "CONNECT_ACCEPTED"},
	)
	s.notifier.Notify(callerID, domain.NotificationEventUpdate,
		"You're Connected",
		fmt.Sprintf("You are now connected with %s.", requesterName),
		map[string]any{"actor_id": requesterID, "actor_username": requesterName, "kind": "CONNECT_ACCEPTED_CONFIRM"},
	)
	return nil
}

func (s *connectionService) Decline(ctx context.Context, callerID, requesterID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		conn, err := tx.Connections().GetByDirection(ctx, requesterID, callerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoPendingRequest
			}
			return fmt.Errorf("get request: %w", err)
		}
		ok, err := tx.Connections().UpdateStatusIf(ctx, conn.ID, domain.ConnectionPending, domain.ConnectionDeclined)
		if err != nil {
			return fmt.Errorf("decline request: %w", err)
		}
		if !ok {
			return domain.ErrNoPendingRequest
		}
		return nil
	})
	if err != nil {
		return err
	}

	recipientName, _ := s.displayNames(ctx, callerID, requesterID)
	s.notifier.Notify(requesterID, domain.NotificationEventUpdate,
		"Connection Declined",
		fmt.Sprintf("%s declined your connection request.", recipientName),
		map[string]any{"actor_id": callerID, "actor_username": recipientName, "kind": "CONNECT_DECLINED"},
	)
	return nil
}

func (s *connectionService) Remove(ctx context.Context, callerID, targetID string) (*domain.RemoveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		existed, err := tx.UserConnections().DeleteBoth(ctx, callerID, targetID)
		if err != nil {
			return fmt.Errorf("delete mirror edges: %w", err)
		}
		if existed {
			// Counters move only when an accepted relationship actually went away,
			// keeping them equal to the number of accepted pairs.
			if err := tx.Users().DecrementConnections(ctx, callerID); err != nil {
				return fmt.Errorf("decrement caller connections: %w", err)
			}
			if err := tx.Users().DecrementConnections(ctx, targetID); err != nil {
				return fmt.Errorf("decrement target connections: %w", err)
			}
		}
		open, err := tx.Connections().GetOpenByPair(ctx, callerID, targetID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("get open connection: %w", err)
		}
		if open.Status == domain.ConnectionAccepted {
			// Flip to DECLINED so a later status query reports declined, not connected.
			if _, err := tx.Connections().UpdateStatusIf(ctx, open.ID, domain.ConnectionAccepted, domain.ConnectionDeclined); err != nil {
				return fmt.Errorf("mark connection declined: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &domain.RemoveResult{Removed: targetID}, nil
}

func (s *connectionService) ListConnections(ctx context.Context, callerID string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	edges, err := s.store.UserConnections().ListByUserID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("list connection edges: %w", err)
	}
	if len(edges) == 0 {
		return []*domain.User{}, nil
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ConnectedUserID)
	}
	users, err := s.store.Users().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// displayNames resolves the display names for notification copy; lookups are
// best-effort since the transition has already committed.
func (s *connectionService) displayNames(ctx context.Context, recipientID, requesterID string) (recipientName, requesterName string) {
	recipientName, requesterName = "User", "User"
	if u, err := s.store.Users().GetByID(ctx, recipientID); err == nil {
		recipientName = u.DisplayName()
	}
	if u, err := s.store.Users().GetByID(ctx, requesterID); err == nil {
		requesterName = u.DisplayName()
	}
	return recipientName, requesterName
}

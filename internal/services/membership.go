package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetnet/internal/domain"
)

type membershipService struct {
	store          domain.Store
	notifier       domain.Notifier
	contextTimeout time.Duration
}

// NewMembershipService creates the event membership engine. Every mutating
// operation runs in one store transaction; notifications go out through the
// notifier only after the transaction has committed.
func NewMembershipService(store domain.Store, notifier domain.Notifier, timeout time.Duration) domain.MembershipService {
	return &membershipService{
		store:          store,
		notifier:       notifier,
		contextTimeout: timeout,
	}
}

func (s *membershipService) Invite(ctx context.Context, eventID, inviterID, targetID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if targetID == event.CreatorID {
		return fmt.Errorf("%w: cannot invite the event creator", domain.ErrForbidden)
	}
	if targetID == inviterID {
		return fmt.Errorf("%w: cannot invite yourself", domain.ErrForbidden)
	}
	if _, err := s.store.Users().GetByID(ctx, targetID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}

	// Idempotent: re-inviting keeps INVITED, and an ATTENDING row is never demoted.
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		_, err := tx.EventAttendees().UpsertIfNotAttending(ctx, eventID, targetID, domain.AttendeeInvited)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert invite: %w", err)
	}

	s.notifier.Notify(targetID, domain.NotificationEventInvite,
		"Event Invitation",
		fmt.Sprintf("You have been invited to %q.", event.Title),
		map[string]any{"event_id": event.ID, "event_title": event.Title},
	)
	return nil
}

func (s *membershipService) Join(ctx context.Context, eventID, userID string) (*domain.JoinResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID == userID {
		return nil, domain.ErrCreatorMembership
	}

	if event.InviteOnly {
		// A join request: record INVITED, counter untouched. An ATTENDING row
		// is left alone, so no write means the caller is already in.
		requested := false
		err := s.store.WithinTx(ctx, func(tx domain.Store) error {
			wrote, err := tx.EventAttendees().UpsertIfNotAttending(ctx, eventID, userID, domain.AttendeeInvited)
			if err != nil {
				return err
			}
			requested = wrote
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("record join request: %w", err)
		}
		if !requested {
			return &domain.JoinResult{State: domain.MembershipAttending}, nil
		}
		s.notifier.Notify(event.CreatorID, domain.NotificationEventUpdate,
			"Join Request",
			"Someone requested to join your invite only event.",
			map[string]any{"event_id": event.ID, "event_title": event.Title},
		)
		return &domain.JoinResult{State: domain.MembershipInvited}, nil
	}

	admitted := false
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		// The row write is the serialization point: concurrent joins for the
		// same user contend on the (event_id, user_id) key, and only the one
		// whose statement actually moved the row into ATTENDING takes a seat.
		moved, err := tx.EventAttendees().UpsertIfNotAttending(ctx, eventID, userID, domain.AttendeeAttending)
		if err != nil {
			return fmt.Errorf("upsert attendee: %w", err)
		}
		if !moved {
			// Idempotent: already in, no double count.
			return nil
		}
		// The conditional increment is the capacity gate; a full event rolls
		// the row write back with the transaction.
		ok, err := tx.Events().IncrementAttendees(ctx, eventID)
		if err != nil {
			return fmt.Errorf("increment attendees: %w", err)
		}
		if !ok {
			return domain.ErrEventFull
		}
		admitted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if admitted {
		s.notifier.Notify(event.CreatorID, domain.NotificationEventJoined,
			"New Attendee",
			"Someone joined your event.",
			map[string]any{"event_id": event.ID, "event_title": event.Title},
		)
	}
	return &domain.JoinResult{State: domain.MembershipAttending}, nil
}

func (s *membershipService) Approve(ctx context.Context, eventID, approverID, targetID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.creatorEvent(ctx, eventID, approverID)
	if err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		attendee, err := tx.EventAttendees().Get(ctx, eventID, targetID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoJoinRequest
			}
			return fmt.Errorf("get attendee: %w", err)
		}
		if attendee.Status == domain.AttendeeAttending {
			return nil
		}
		// Only an actual INVITED to ATTENDING transition earns a seat; a
		// concurrent approve that already flipped the row reports no change.
		moved, err := tx.EventAttendees().UpdateStatusIf(ctx, eventID, targetID, domain.AttendeeInvited, domain.AttendeeAttending)
		if err != nil {
			return fmt.Errorf("promote attendee: %w", err)
		}
		if !moved {
			return nil
		}
		ok, err := tx.Events().IncrementAttendees(ctx, eventID)
		if err != nil {
			return fmt.Errorf("increment attendees: %w", err)
		}
		if !ok {
			return domain.ErrEventFull
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(targetID, domain.NotificationEventUpdate,
		"Request Approved",
		fmt.Sprintf("You have been accepted to %q.", event.Title),
		map[string]any{"event_id": event.ID, "event_title": event.Title},
	)
	return nil
}

func (s *membershipService) DeclineRequest(ctx context.Context, eventID, approverID, targetID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.creatorEvent(ctx, eventID, approverID)
	if err != nil {
		return err
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		attendee, err := tx.EventAttendees().Get(ctx, eventID, targetID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoJoinRequest
			}
			return fmt.Errorf("get attendee: %w", err)
		}
		if attendee.Status != domain.AttendeeInvited {
			return domain.ErrNoJoinRequest
		}
		// INVITED never contributed to the counter, so only the row goes. The
		// status condition keeps a concurrently admitted row out of reach.
		_, err = tx.EventAttendees().DeleteIf(ctx, eventID, targetID, domain.AttendeeInvited)
		return err
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(targetID, domain.NotificationEventUpdate,
		"Request Declined",
		fmt.Sprintf("Your request to join %q was declined.", event.Title),
		map[string]any{"event_id": event.ID, "event_title": event.Title},
	)
	return nil
}

func (s *membershipService) AcceptInvite(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.store.WithinTx(ctx, func(tx domain.Store) error {
		attendee, err := tx.EventAttendees().Get(ctx, eventID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNoJoinRequest
			}
			return fmt.Errorf("get attendee: %w", err)
		}
		if attendee.Status == domain.AttendeeAttending {
			return nil
		}
		moved, err := tx.EventAttendees().UpdateStatusIf(ctx, eventID, userID, domain.AttendeeInvited, domain.AttendeeAttending)
		if err != nil {
			return fmt.Errorf("promote attendee: %w", err)
		}
		if !moved {
			// A concurrent accept or approve already seated the user.
			return nil
		}
		ok, err := tx.Events().IncrementAttendees(ctx, eventID)
		if err != nil {
			return fmt.Errorf("increment attendees: %w", err)
		}
		if !ok {
			return domain.ErrEventFull
		}
		return nil
	})
}

func (s *membershipService) Leave(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.store.WithinTx(ctx, func(tx domain.Store) error {
		// Only a verifiably deleted ATTENDING row releases a seat. Racing
		// leaves for the same user settle here: one deletion, one decrement.
		wasAttending, err := tx.EventAttendees().DeleteIf(ctx, eventID, userID, domain.AttendeeAttending)
		if err != nil {
			return fmt.Errorf("delete attendee: %w", err)
		}
		if wasAttending {
			if err := tx.Events().DecrementAttendees(ctx, eventID); err != nil {
				return fmt.Errorf("decrement attendees: %w", err)
			}
			return nil
		}
		// An INVITED row never counted; drop it if present. No row at all
		// makes leaving a no-op.
		if _, err := tx.EventAttendees().Delete(ctx, eventID, userID); err != nil {
			return fmt.Errorf("delete attendee: %w", err)
		}
		return nil
	})
}

func (s *membershipService) RemoveAttendee(ctx context.Context, eventID, callerID, targetID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.creatorEvent(ctx, eventID, callerID); err != nil {
		return err
	}
	return s.Leave(ctx, eventID, targetID)
}

func (s *membershipService) GetState(ctx context.Context, eventID, userID string) (domain.MembershipState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.MembershipNone, domain.ErrNotFound
		}
		return domain.MembershipNone, fmt.Errorf("get event: %w", err)
	}
	// The creator is a fixed state outside the machine: always attending, never stored.
	if event.CreatorID == userID {
		return domain.MembershipAttending, nil
	}
	attendee, err := s.store.EventAttendees().Get(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.MembershipNone, nil
		}
		return domain.MembershipNone, fmt.Errorf("get attendee: %w", err)
	}
	return attendee.Status.State(), nil
}

func (s *membershipService) ListAttendees(ctx context.Context, eventID, callerID string) ([]*domain.AttendeeWithUser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.creatorEvent(ctx, eventID, callerID); err != nil {
		return nil, err
	}

	attendees, err := s.store.EventAttendees().ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	if len(attendees) == 0 {
		return []*domain.AttendeeWithUser{}, nil
	}

	ids := make([]string, 0, len(attendees))
	for _, a := range attendees {
		ids = append(ids, a.UserID)
	}
	users, err := s.store.Users().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	usersByID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	result := make([]*domain.AttendeeWithUser, 0, len(attendees))
	for _, a := range attendees {
		u, ok := usersByID[a.UserID]
		if !ok {
			// User deleted but edge remains; skip the entry.
			continue
		}
		result = append(result, &domain.AttendeeWithUser{Attendee: a, User: u})
	}
	return result, nil
}

// creatorEvent loads the event and enforces that callerID is its creator.
func (s *membershipService) creatorEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	event, err := s.store.Events().GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != callerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"meetnet/internal/domain"
)

// fakeStore is an in-memory domain.Store for service tests. WithinTx snapshots
// the state maps and restores them when the closure errors, mimicking a
// rollback. beforeTx, when set, runs once at the start of the next transaction
// so a test can interleave a rival operation that committed first. locks
// records every LockPair call as an ordered "a|b" pair.
type fakeStore struct {
	users     map[string]*domain.User
	events    map[string]*domain.Event
	attendees map[string]*domain.EventAttendee
	conns     map[string]*domain.Connection
	connSeq   int
	touch     map[string]int
	touchSeq  int
	mirrors   map[string]bool
	notifs    map[string]*domain.Notification
	notifSeq  int
	locks     []string
	beforeTx  func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]*domain.User),
		events:    make(map[string]*domain.Event),
		attendees: make(map[string]*domain.EventAttendee),
		conns:     make(map[string]*domain.Connection),
		touch:     make(map[string]int),
		mirrors:   make(map[string]bool),
		notifs:    make(map[string]*domain.Notification),
	}
}

func (s *fakeStore) addUser(id, username string) *domain.User {
	u := &domain.User{ID: id, Email: id + "@example.com", Username: username}
	s.users[id] = u
	return u
}

func (s *fakeStore) addEvent(id, creatorID string, maxAttendees int, inviteOnly bool) *domain.Event {
	e := &domain.Event{
		ID:           id,
		CreatorID:    creatorID,
		Title:        "Event " + id,
		MaxAttendees: maxAttendees,
		InviteOnly:   inviteOnly,
	}
	s.events[id] = e
	return e
}

func attendeeKey(eventID, userID string) string { return eventID + "|" + userID }
func mirrorKey(a, b string) string              { return a + "|" + b }

func (s *fakeStore) Users() domain.UserRepository                     { return &fakeUsers{s} }
func (s *fakeStore) Events() domain.EventRepository                   { return &fakeEvents{s} }
func (s *fakeStore) EventAttendees() domain.EventAttendeeRepository   { return &fakeAttendees{s} }
func (s *fakeStore) Connections() domain.ConnectionRepository         { return &fakeConnections{s} }
func (s *fakeStore) UserConnections() domain.UserConnectionRepository { return &fakeMirrors{s} }
func (s *fakeStore) Notifications() domain.NotificationRepository     { return &fakeNotifications{s} }

func (s *fakeStore) WithinTx(_ context.Context, fn func(domain.Store) error) error {
	if s.beforeTx != nil {
		hook := s.beforeTx
		s.beforeTx = nil
		hook()
	}
	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *fakeStore) snapshot() *fakeStore {
	c := newFakeStore()
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, e := range s.events {
		cp := *e
		c.events[id] = &cp
	}
	for key, a := range s.attendees {
		cp := *a
		c.attendees[key] = &cp
	}
	for id, conn := range s.conns {
		cp := *conn
		c.conns[id] = &cp
	}
	for key, seq := range s.touch {
		c.touch[key] = seq
	}
	for key := range s.mirrors {
		c.mirrors[key] = true
	}
	for id, n := range s.notifs {
		cp := *n
		c.notifs[id] = &cp
	}
	c.connSeq, c.touchSeq, c.notifSeq = s.connSeq, s.touchSeq, s.notifSeq
	return c
}

// restore swaps the snapshot's state back in. locks stays untouched: it is an
// audit trail, not table state.
func (s *fakeStore) restore(snap *fakeStore) {
	s.users, s.events, s.attendees = snap.users, snap.events, snap.attendees
	s.conns, s.touch, s.mirrors, s.notifs = snap.conns, snap.touch, snap.mirrors, snap.notifs
	s.connSeq, s.touchSeq, s.notifSeq = snap.connSeq, snap.touchSeq, snap.notifSeq
}

type fakeUsers struct{ s *fakeStore }

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range f.s.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(f.s.users)+1)
	}
	f.s.users[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.s.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeUsers) IncrementConnections(_ context.Context, userID string) error {
	u, ok := f.s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Connections++
	return nil
}

func (f *fakeUsers) DecrementConnections(_ context.Context, userID string) error {
	u, ok := f.s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if u.Connections > 0 {
		u.Connections--
	}
	return nil
}

func (f *fakeUsers) LockPair(_ context.Context, a, b string) error {
	if _, ok := f.s.users[a]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := f.s.users[b]; !ok {
		return domain.ErrNotFound
	}
	if b < a {
		a, b = b, a
	}
	f.s.locks = append(f.s.locks, a+"|"+b)
	return nil
}

type fakeEvents struct{ s *fakeStore }

func (f *fakeEvents) Create(_ context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = fmt.Sprintf("ev-%d", len(f.s.events)+1)
	}
	f.s.events[e.ID] = e
	return nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*domain.Event, error) {
	e, ok := f.s.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeEvents) ListByCreatorID(_ context.Context, creatorID string) ([]*domain.Event, error) {
	events := make([]*domain.Event, 0)
	for _, e := range f.s.events {
		if e.CreatorID == creatorID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	if _, ok := f.s.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.s.events, id)
	return nil
}

func (f *fakeEvents) IncrementAttendees(_ context.Context, eventID string) (bool, error) {
	e, ok := f.s.events[eventID]
	if !ok {
		return false, nil
	}
	if e.Attendees >= e.MaxAttendees {
		return false, nil
	}
	e.Attendees++
	return true, nil
}

func (f *fakeEvents) DecrementAttendees(_ context.Context, eventID string) error {
	e, ok := f.s.events[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	if e.Attendees > 0 {
		e.Attendees--
	}
	return nil
}

type fakeAttendees struct{ s *fakeStore }

func (f *fakeAttendees) Get(_ context.Context, eventID, userID string) (*domain.EventAttendee, error) {
	a, ok := f.s.attendees[attendeeKey(eventID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeAttendees) UpsertIfNotAttending(_ context.Context, eventID, userID string, status domain.AttendeeStatus) (bool, error) {
	key := attendeeKey(eventID, userID)
	if a, ok := f.s.attendees[key]; ok {
		if a.Status == domain.AttendeeAttending {
			return false, nil
		}
		a.Status = status
		return true, nil
	}
	f.s.attendees[key] = &domain.EventAttendee{EventID: eventID, UserID: userID, Status: status}
	return true, nil
}

func (f *fakeAttendees) UpdateStatusIf(_ context.Context, eventID, userID string, from, to domain.AttendeeStatus) (bool, error) {
	a, ok := f.s.attendees[attendeeKey(eventID, userID)]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (f *fakeAttendees) Delete(_ context.Context, eventID, userID string) (bool, error) {
	key := attendeeKey(eventID, userID)
	if _, ok := f.s.attendees[key]; !ok {
		return false, nil
	}
	delete(f.s.attendees, key)
	return true, nil
}

func (f *fakeAttendees) DeleteIf(_ context.Context, eventID, userID string, status domain.AttendeeStatus) (bool, error) {
	key := attendeeKey(eventID, userID)
	a, ok := f.s.attendees[key]
	if !ok || a.Status != status {
		return false, nil
	}
	delete(f.s.attendees, key)
	return true, nil
}

func (f *fakeAttendees) ListByEventID(_ context.Context, eventID string) ([]*domain.EventAttendee, error) {
	attendees := make([]*domain.EventAttendee, 0)
	for _, a := range f.s.attendees {
		if a.EventID == eventID {
			attendees = append(attendees, a)
		}
	}
	return attendees, nil
}

func (f *fakeAttendees) ListByUserID(_ context.Context, userID string) ([]*domain.EventAttendee, error) {
	attendees := make([]*domain.EventAttendee, 0)
	for _, a := range f.s.attendees {
		if a.UserID == userID {
			attendees = append(attendees, a)
		}
	}
	return attendees, nil
}

type fakeConnections struct{ s *fakeStore }

func (f *fakeConnections) Create(_ context.Context, conn *domain.Connection) error {
	f.s.connSeq++
	conn.ID = fmt.Sprintf("conn-%d", f.s.connSeq)
	f.s.conns[conn.ID] = conn
	f.s.touchSeq++
	f.s.touch[conn.ID] = f.s.touchSeq
	return nil
}

func (f *fakeConnections) GetOpenByPair(_ context.Context, a, b string) (*domain.Connection, error) {
	for _, c := range f.s.conns {
		if c.Status != domain.ConnectionPending && c.Status != domain.ConnectionAccepted {
			continue
		}
		if (c.RequesterID == a && c.RecipientID == b) || (c.RequesterID == b && c.RecipientID == a) {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConnections) GetLatestByPair(_ context.Context, a, b string) (*domain.Connection, error) {
	var latest *domain.Connection
	for _, c := range f.s.conns {
		if (c.RequesterID == a && c.RecipientID == b) || (c.RequesterID == b && c.RecipientID == a) {
			if latest == nil || f.s.touch[c.ID] > f.s.touch[latest.ID] {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (f *fakeConnections) GetByDirection(_ context.Context, requesterID, recipientID string) (*domain.Connection, error) {
	for _, c := range f.s.conns {
		if c.RequesterID == requesterID && c.RecipientID == recipientID {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeConnections) UpdateStatusIf(_ context.Context, id string, from, to domain.ConnectionStatus) (bool, error) {
	c, ok := f.s.conns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	f.s.touchSeq++
	f.s.touch[id] = f.s.touchSeq
	return true, nil
}

type fakeMirrors struct{ s *fakeStore }

func (f *fakeMirrors) CreateBoth(_ context.Context, a, b string) error {
	f.s.mirrors[mirrorKey(a, b)] = true
	f.s.mirrors[mirrorKey(b, a)] = true
	return nil
}

func (f *fakeMirrors) DeleteBoth(_ context.Context, a, b string) (bool, error) {
	existed := f.s.mirrors[mirrorKey(a, b)] || f.s.mirrors[mirrorKey(b, a)]
	delete(f.s.mirrors, mirrorKey(a, b))
	delete(f.s.mirrors, mirrorKey(b, a))
	return existed, nil
}

func (f *fakeMirrors) ListByUserID(_ context.Context, userID string) ([]*domain.UserConnection, error) {
	edges := make([]*domain.UserConnection, 0)
	for key := range f.s.mirrors {
		a, b, ok := strings.Cut(key, "|")
		if ok && a == userID {
			edges = append(edges, &domain.UserConnection{UserID: a, ConnectedUserID: b})
		}
	}
	return edges, nil
}

type fakeNotifications struct{ s *fakeStore }

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.s.notifSeq++
	n.ID = fmt.Sprintf("notif-%d", f.s.notifSeq)
	n.CreatedAt = time.Now()
	f.s.notifs[n.ID] = n
	return nil
}

func (f *fakeNotifications) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	n, ok := f.s.notifs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return n, nil
}

func (f *fakeNotifications) ListByUserID(_ context.Context, userID string, onlyUnread bool, limit int) ([]*domain.Notification, error) {
	notifications := make([]*domain.Notification, 0)
	for _, n := range f.s.notifs {
		if n.UserID != userID {
			continue
		}
		if onlyUnread && n.Read {
			continue
		}
		if len(notifications) == limit {
			break
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id string) error {
	n, ok := f.s.notifs[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Read = true
	return nil
}

func (f *fakeNotifications) Delete(_ context.Context, id string) error {
	if _, ok := f.s.notifs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.s.notifs, id)
	return nil
}

// fakeNotifier records Notify calls for assertions.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	userID  string
	kind    string
	title   string
	message string
	data    map[string]any
}

func (f *fakeNotifier) Notify(userID, kind, title, message string, data map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{userID: userID, kind: kind, title: title, message: message, data: data})
}

func (f *fakeNotifier) Wait() {}

func (f *fakeNotifier) callsFor(userID string) []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notifyCall
	for _, c := range f.calls {
		if c.userID == userID {
			out = append(out, c)
		}
	}
	return out
}

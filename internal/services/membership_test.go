package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"meetnet/internal/domain"
)

const testTimeout = 2 * time.Second

func newMembershipFixture() (*fakeStore, *fakeNotifier, domain.MembershipService) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewMembershipService(store, notifier, testTimeout)
	return store, notifier, svc
}

func TestMembership_JoinOpenEvent(t *testing.T) {
	store, notifier, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 2, false)

	result, err := svc.Join(context.Background(), "ev-1", "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.State != domain.MembershipAttending {
		t.Errorf("state = %q, want attending", result.State)
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d, want 1", got)
	}
	if calls := notifier.callsFor("creator"); len(calls) != 1 || calls[0].kind != domain.NotificationEventJoined {
		t.Errorf("creator notifications = %+v, want one EVENT_JOINED", calls)
	}
}

func TestMembership_JoinTwiceCountsOnce(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 5, false)

	for i := 0; i < 2; i++ {
		result, err := svc.Join(context.Background(), "ev-1", "alice")
		if err != nil {
			t.Fatalf("Join #%d: %v", i+1, err)
		}
		if result.State != domain.MembershipAttending {
			t.Errorf("Join #%d state = %q", i+1, result.State)
		}
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d, want 1 after double join", got)
	}
}

func TestMembership_JoinFullEvent(t *testing.T) {
	store, notifier, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addUser("bob", "bob")
	store.addEvent("ev-1", "creator", 1, false)

	if _, err := svc.Join(context.Background(), "ev-1", "alice"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := svc.Join(context.Background(), "ev-1", "bob")
	if !errors.Is(err, domain.ErrEventFull) {
		t.Fatalf("second join err = %v, want ErrEventFull", err)
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d, want 1", got)
	}
	if _, ok := store.attendees[attendeeKey("ev-1", "bob")]; ok {
		t.Error("rejected join left an attendee row")
	}
	if calls := notifier.callsFor("creator"); len(calls) != 1 {
		t.Errorf("creator notified %d times, want 1", len(calls))
	}
}

func TestMembership_JoinRacingDuplicateCountsOnce(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 5, false)

	// A rival join for the same user commits between the event load and the
	// transaction. The row write reports no transition, so no second seat.
	store.beforeTx = func() {
		store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
			EventID: "ev-1", UserID: "alice", Status: domain.AttendeeAttending,
		}
		store.events["ev-1"].Attendees = 1
	}

	result, err := svc.Join(context.Background(), "ev-1", "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.State != domain.MembershipAttending {
		t.Errorf("state = %q, want attending", result.State)
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d, want 1 (one seat per attendee)", got)
	}
	attending := 0
	for _, a := range store.attendees {
		if a.EventID == "ev-1" && a.Status == domain.AttendeeAttending {
			attending++
		}
	}
	if attending != 1 {
		t.Errorf("ATTENDING rows = %d, want 1", attending)
	}
}

func TestMembership_LeaveRacingDuplicateDecrementsOnce(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addUser("bob", "bob")
	ev := store.addEvent("ev-1", "creator", 5, false)
	ev.Attendees = 2
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeAttending,
	}
	store.attendees[attendeeKey("ev-1", "bob")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "bob", Status: domain.AttendeeAttending,
	}

	// A rival leave for alice commits first. The conditional delete then finds
	// no ATTENDING row, so the seat is not released twice.
	store.beforeTx = func() {
		delete(store.attendees, attendeeKey("ev-1", "alice"))
		store.events["ev-1"].Attendees = 1
	}

	if err := svc.Leave(context.Background(), "ev-1", "alice"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d, want 1 (bob still attending)", got)
	}
	if _, ok := store.attendees[attendeeKey("ev-1", "bob")]; !ok {
		t.Error("bob's row is gone")
	}
}

func TestMembership_JoinAsCreator(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addEvent("ev-1", "creator", 5, false)

	_, err := svc.Join(context.Background(), "ev-1", "creator")
	if !errors.Is(err, domain.ErrCreatorMembership) {
		t.Fatalf("err = %v, want ErrCreatorMembership", err)
	}
}

func TestMembership_JoinMissingEvent(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("alice", "alice")

	_, err := svc.Join(context.Background(), "missing", "alice")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMembership_JoinInviteOnlyRecordsRequest(t *testing.T) {
	store, notifier, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 5, true)

	result, err := svc.Join(context.Background(), "ev-1", "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.State != domain.MembershipInvited {
		t.Errorf("state = %q, want invited", result.State)
	}
	if got := store.events["ev-1"].Attendees; got != 0 {
		t.Errorf("attendees counter = %d, want 0 for a pending request", got)
	}
	row := store.attendees[attendeeKey("ev-1", "alice")]
	if row == nil || row.Status != domain.AttendeeInvited {
		t.Errorf("attendee row = %+v, want INVITED", row)
	}
	if calls := notifier.callsFor("creator"); len(calls) != 1 || calls[0].title != "Join Request" {
		t.Errorf("creator notifications = %+v, want one Join Request", calls)
	}
}

func TestMembership_JoinInviteOnlyWhenAlreadyAttending(t *testing.T) {
	store, notifier, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 5, true)
	store.events["ev-1"].Attendees = 1
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeAttending,
	}

	result, err := svc.Join(context.Background(), "ev-1", "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.State != domain.MembershipAttending {
		t.Errorf("state = %q, want attending (never demoted)", result.State)
	}
	if row := store.attendees[attendeeKey("ev-1", "alice")]; row.Status != domain.AttendeeAttending {
		t.Errorf("row status = %q, want ATTENDING", row.Status)
	}
	if calls := notifier.callsFor("creator"); len(calls) != 0 {
		t.Errorf("no-op join notified the creator: %+v", calls)
	}
}

func TestMembership_ApproveAdmits(t *testing.T) {
	store, notifier, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 1, true)
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeInvited,
	}

	if err := svc.Approve(context.Background(), "ev-1", "creator", "alice"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d, want 1", got)
	}
	if row := store.attendees[attendeeKey("ev-1", "alice")]; row.Status != domain.AttendeeAttending {
		t.Errorf("row status = %q, want ATTENDING", row.Status)
	}
	if calls := notifier.callsFor("alice"); len(calls) != 1 || calls[0].title != "Request Approved" {
		t.Errorf("alice notifications = %+v, want Request Approved", calls)
	}
}

func TestMembership_ApproveErrors(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addUser("bob", "bob")
	ev := store.addEvent("ev-1", "creator", 1, true)
	ev.Attendees = 1
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeInvited,
	}

	tests := []struct {
		name     string
		approver string
		target   string
		wantErr  error
	}{
		{"not the creator", "bob", "alice", domain.ErrForbidden},
		{"no request", "creator", "bob", domain.ErrNoJoinRequest},
		{"event full", "creator", "alice", domain.ErrEventFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Approve(context.Background(), "ev-1", tt.approver, tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// The full-event rejection must not flip the row.
	if row := store.attendees[attendeeKey("ev-1", "alice")]; row.Status != domain.AttendeeInvited {
		t.Errorf("row status = %q, want INVITED after rejected approve", row.Status)
	}
}

func TestMembership_DeclineRequest(t *testing.T) {
	store, notifier, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 5, true)
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeInvited,
	}

	if err := svc.DeclineRequest(context.Background(), "ev-1", "creator", "alice"); err != nil {
		t.Fatalf("DeclineRequest: %v", err)
	}
	if _, ok := store.attendees[attendeeKey("ev-1", "alice")]; ok {
		t.Error("declined row still present")
	}
	if got := store.events["ev-1"].Attendees; got != 0 {
		t.Errorf("attendees counter = %d, want 0", got)
	}
	if calls := notifier.callsFor("alice"); len(calls) != 1 || calls[0].title != "Request Declined" {
		t.Errorf("alice notifications = %+v, want Request Declined", calls)
	}

	// Declining an attending user is not a decline of a request.
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeAttending,
	}
	err := svc.DeclineRequest(context.Background(), "ev-1", "creator", "alice")
	if !errors.Is(err, domain.ErrNoJoinRequest) {
		t.Fatalf("err = %v, want ErrNoJoinRequest for ATTENDING row", err)
	}
}

func TestMembership_AcceptInvite(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 1, false)
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeInvited,
	}

	if err := svc.AcceptInvite(context.Background(), "ev-1", "alice"); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d, want 1", got)
	}

	// Accepting again is a no-op, not a second seat.
	if err := svc.AcceptInvite(context.Background(), "ev-1", "alice"); err != nil {
		t.Fatalf("second AcceptInvite: %v", err)
	}
	if got := store.events["ev-1"].Attendees; got != 1 {
		t.Errorf("attendees counter = %d after repeat accept, want 1", got)
	}

	// Without an invite there is nothing to accept.
	err := svc.AcceptInvite(context.Background(), "ev-1", "creator")
	if !errors.Is(err, domain.ErrNoJoinRequest) {
		t.Fatalf("err = %v, want ErrNoJoinRequest", err)
	}
}

func TestMembership_AcceptInviteFullEvent(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	ev := store.addEvent("ev-1", "creator", 1, false)
	ev.Attendees = 1
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeInvited,
	}

	err := svc.AcceptInvite(context.Background(), "ev-1", "alice")
	if !errors.Is(err, domain.ErrEventFull) {
		t.Fatalf("err = %v, want ErrEventFull", err)
	}
	if row := store.attendees[attendeeKey("ev-1", "alice")]; row.Status != domain.AttendeeInvited {
		t.Errorf("row status = %q, want INVITED preserved", row.Status)
	}
}

func TestMembership_LeaveDecrementsOnlyAttending(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addUser("bob", "bob")
	ev := store.addEvent("ev-1", "creator", 5, false)
	ev.Attendees = 1
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeAttending,
	}
	store.attendees[attendeeKey("ev-1", "bob")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "bob", Status: domain.AttendeeInvited,
	}

	if err := svc.Leave(context.Background(), "ev-1", "alice"); err != nil {
		t.Fatalf("Leave attending: %v", err)
	}
	if got := ev.Attendees; got != 0 {
		t.Errorf("attendees counter = %d, want 0", got)
	}

	if err := svc.Leave(context.Background(), "ev-1", "bob"); err != nil {
		t.Fatalf("Leave invited: %v", err)
	}
	if got := ev.Attendees; got != 0 {
		t.Errorf("attendees counter = %d, want 0 (invited never counted)", got)
	}

	// Leaving again with no row is fine.
	if err := svc.Leave(context.Background(), "ev-1", "alice"); err != nil {
		t.Fatalf("repeat Leave: %v", err)
	}
}

func TestMembership_RemoveAttendee(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	ev := store.addEvent("ev-1", "creator", 5, false)
	ev.Attendees = 1
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeAttending,
	}

	if err := svc.RemoveAttendee(context.Background(), "ev-1", "alice", "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-creator remove err = %v, want ErrForbidden", err)
	}
	if err := svc.RemoveAttendee(context.Background(), "ev-1", "creator", "alice"); err != nil {
		t.Fatalf("RemoveAttendee: %v", err)
	}
	if got := ev.Attendees; got != 0 {
		t.Errorf("attendees counter = %d, want 0", got)
	}
}

func TestMembership_Invite(t *testing.T) {
	store, notifier, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addUser("bob", "bob")
	store.addEvent("ev-1", "creator", 5, false)

	if err := svc.Invite(context.Background(), "ev-1", "creator", "alice"); err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if row := store.attendees[attendeeKey("ev-1", "alice")]; row == nil || row.Status != domain.AttendeeInvited {
		t.Errorf("row = %+v, want INVITED", row)
	}
	calls := notifier.callsFor("alice")
	if len(calls) != 1 || calls[0].kind != domain.NotificationEventInvite {
		t.Fatalf("alice notifications = %+v, want one EVENT_INVITE", calls)
	}
	if calls[0].data["event_id"] != "ev-1" {
		t.Errorf("notification data = %+v, want event_id ev-1", calls[0].data)
	}

	// An attending user is never demoted back to invited.
	store.attendees[attendeeKey("ev-1", "bob")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "bob", Status: domain.AttendeeAttending,
	}
	if err := svc.Invite(context.Background(), "ev-1", "creator", "bob"); err != nil {
		t.Fatalf("Invite attending: %v", err)
	}
	if row := store.attendees[attendeeKey("ev-1", "bob")]; row.Status != domain.AttendeeAttending {
		t.Errorf("row status = %q, want ATTENDING preserved", row.Status)
	}
}

func TestMembership_InviteRejections(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 5, false)

	tests := []struct {
		name    string
		inviter string
		target  string
		wantErr error
	}{
		{"creator as target", "alice", "creator", domain.ErrForbidden},
		{"self invite", "alice", "alice", domain.ErrForbidden},
		{"unknown target", "creator", "ghost", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Invite(context.Background(), "ev-1", tt.inviter, tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMembership_GetState(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addUser("bob", "bob")
	store.addEvent("ev-1", "creator", 5, false)
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeInvited,
	}

	tests := []struct {
		name   string
		userID string
		want   domain.MembershipState
	}{
		{"creator is always attending", "creator", domain.MembershipAttending},
		{"invited row", "alice", domain.MembershipInvited},
		{"no row", "bob", domain.MembershipNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := svc.GetState(context.Background(), "ev-1", tt.userID)
			if err != nil {
				t.Fatalf("GetState: %v", err)
			}
			if state != tt.want {
				t.Errorf("state = %q, want %q", state, tt.want)
			}
		})
	}

	if _, err := svc.GetState(context.Background(), "missing", "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing event err = %v, want ErrNotFound", err)
	}
}

func TestMembership_ListAttendees(t *testing.T) {
	store, _, svc := newMembershipFixture()
	store.addUser("creator", "cree")
	store.addUser("alice", "alice")
	store.addEvent("ev-1", "creator", 5, false)
	store.attendees[attendeeKey("ev-1", "alice")] = &domain.EventAttendee{
		EventID: "ev-1", UserID: "alice", Status: domain.AttendeeAttending,
	}

	if _, err := svc.ListAttendees(context.Background(), "ev-1", "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-creator err = %v, want ErrForbidden", err)
	}

	got, err := svc.ListAttendees(context.Background(), "ev-1", "creator")
	if err != nil {
		t.Fatalf("ListAttendees: %v", err)
	}
	if len(got) != 1 || got[0].User.ID != "alice" || got[0].Attendee.Status != domain.AttendeeAttending {
		t.Errorf("attendees = %+v, want alice attending", got)
	}
}

package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"meetnet/internal/delivery/http/helpers"
	"meetnet/internal/delivery/http/middleware"
	"meetnet/internal/domain"
)

// InviteRequest is the request body for POST /events/{eventID}/invites.
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (i InviteRequest) Validate() []string {
	if strings.TrimSpace(i.UserID) == "" {
		return []string{"user_id is required"}
	}
	return nil
}

// MembershipStateResponse is the response body for membership state reads.
type MembershipStateResponse struct {
	State domain.MembershipState `json:"state"`
}

type MembershipController struct {
	Logger     *slog.Logger
	Membership domain.MembershipService
}

func NewMembershipController(logger *slog.Logger, membership domain.MembershipService) *MembershipController {
	return &MembershipController{
		Logger:     logger,
		Membership: membership,
	}
}

// callerID extracts the authenticated user or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// Join godoc
// @Summary Join an event
// @Description Join an open event directly, or record a join request for an invite-only event. Calling twice is safe.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the resulting membership state"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (the creator cannot join)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event is full)"
// @Router /events/{eventID}/join [post]
func (c *MembershipController) Join(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	result, err := c.Membership.Join(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MembershipStateResponse{State: result.State})
}

// Leave godoc
// @Summary Leave an event
// @Description Remove the caller's membership row whatever its status. Calling twice is safe.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/leave [post]
func (c *MembershipController) Leave(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Membership.Leave(r.Context(), eventID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MembershipStateResponse{State: domain.MembershipNone})
}

// GetState godoc
// @Summary Get the caller's membership state for an event
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains state: none, invited, or attending"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/membership [get]
func (c *MembershipController) GetState(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	state, err := c.Membership.GetState(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MembershipStateResponse{State: state})
}

// Invite godoc
// @Summary Invite a user to an event
// @Description Record an INVITED row for the target user. Re-inviting is a no-op and never demotes an admitted attendee.
// @Tags membership
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body InviteRequest true "Target user"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/invites [post]
func (c *MembershipController) Invite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Membership.Invite(r.Context(), eventID, userID, strings.TrimSpace(req.UserID)); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "invited"})
}

// AcceptInvite godoc
// @Summary Accept an event invite
// @Description The invited user accepts their own invite. Subject to capacity; accepting twice is safe.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event is full)"
// @Router /events/{eventID}/invites/accept [post]
func (c *MembershipController) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Membership.AcceptInvite(r.Context(), eventID, userID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MembershipStateResponse{State: domain.MembershipAttending})
}

// Approve godoc
// @Summary Approve a join request
// @Description The event creator admits a user whose row is INVITED. Subject to capacity.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "Target user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event is full)"
// @Router /events/{eventID}/attendees/{userID}/approve [post]
func (c *MembershipController) Approve(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	targetID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Membership.Approve(r.Context(), eventID, userID, targetID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "approved"})
}

// DeclineRequest godoc
// @Summary Decline a join request
// @Description The event creator declines a user whose row is INVITED. The row is removed.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "Target user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/attendees/{userID}/decline [post]
func (c *MembershipController) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	targetID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Membership.DeclineRequest(r.Context(), eventID, userID, targetID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "declined"})
}

// RemoveAttendee godoc
// @Summary Remove an attendee
// @Description The event creator removes a user from the event. Removing an absent user is a no-op.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "Target user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/attendees/{userID} [delete]
func (c *MembershipController) RemoveAttendee(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	targetID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Membership.RemoveAttendee(r.Context(), eventID, userID, targetID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

// ListAttendees godoc
// @Summary List event attendees
// @Description Returns attendee rows with their users. Only the event creator may list them.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains attendee rows with users"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/attendees [get]
func (c *MembershipController) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	attendees, err := c.Membership.ListAttendees(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendees)
}

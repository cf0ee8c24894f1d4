package controllers

import (
	"log/slog"
	"net/http"

	"meetnet/internal/delivery/http/helpers"
	"meetnet/internal/domain"
)

// Inbox actions accepted by POST /notifications/{notificationID}/respond.
const (
	actionAcceptInvite  = "accept_invite"
	actionDeclineInvite = "decline_invite"
)

// RespondRequest is the request body for POST /notifications/{notificationID}/respond.
type RespondRequest struct {
	Action string `json:"action"`
}

// Validate implements Validator.
func (a RespondRequest) Validate() []string {
	if a.Action != actionAcceptInvite && a.Action != actionDeclineInvite {
		return []string{"action must be \"accept_invite\" or \"decline_invite\""}
	}
	return nil
}

type NotificationController struct {
	Logger        *slog.Logger
	Notifications domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, notifications domain.NotificationService) *NotificationController {
	return &NotificationController{
		Logger:        logger,
		Notifications: notifications,
	}
}

// List godoc
// @Summary List the caller's notifications
// @Description Returns the most recent notifications, newest first. Pass unread=true to filter to unread only.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} helpers.APIResponse "data contains the notifications"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /notifications [get]
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	onlyUnread := r.URL.Query().Get("unread") == "true"
	notifications, err := c.Notifications.List(r.Context(), userID, onlyUnread)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, notifications)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "Notification ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /notifications/{notificationID}/read [post]
func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID := r.PathValue("notificationID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Notifications.MarkRead(r.Context(), userID, notificationID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "read"})
}

// Respond godoc
// @Summary Respond to an event invite notification
// @Description Accept or decline the invite carried by the notification. The notification is removed once handled. Accepting is subject to the event capacity.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "Notification ID"
// @Param body body RespondRequest true "accept_invite or decline_invite"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (event is full)"
// @Router /notifications/{notificationID}/respond [post]
func (c *NotificationController) Respond(w http.ResponseWriter, r *http.Request) {
	notificationID := r.PathValue("notificationID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req RespondRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	accept := req.Action == actionAcceptInvite
	if err := c.Notifications.RespondToInvite(r.Context(), userID, notificationID, accept); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": req.Action})
}

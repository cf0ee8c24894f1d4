package controllers

import (
	"log/slog"
	"net/http"

	"meetnet/internal/delivery/http/helpers"
	"meetnet/internal/domain"
)

// ConnectionStateResponse is the response body for connection state reads.
type ConnectionStateResponse struct {
	State domain.ConnectionState `json:"state"`
}

type ConnectionController struct {
	Logger      *slog.Logger
	Connections domain.ConnectionService
}

func NewConnectionController(logger *slog.Logger, connections domain.ConnectionService) *ConnectionController {
	return &ConnectionController{
		Logger:      logger,
		Connections: connections,
	}
}

// GetStatus godoc
// @Summary Get the connection state with another user
// @Description Returns the pair state as seen by the caller: none, pending_outgoing, pending_incoming, connected, or declined.
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Target user ID"
// @Success 200 {object} helpers.APIResponse "data contains the state"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /connections/{userID}/status [get]
func (c *ConnectionController) GetStatus(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	state, err := c.Connections.GetStatus(r.Context(), userID, targetID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ConnectionStateResponse{State: state})
}

// Request godoc
// @Summary Send a connection request
// @Description Open a pending request to the target user. A previously declined request in the same direction is re-opened.
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Target user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already connected, already sent, or awaiting response)"
// @Router /connections/{userID}/request [post]
func (c *ConnectionController) Request(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Connections.Request(r.Context(), userID, targetID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ConnectionStateResponse{State: domain.ConnectionStatePendingOutgoing})
}

// Accept godoc
// @Summary Accept a connection request
// @Description Accept the pending request from the given user. Both connection counters move in the same transaction.
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Requester user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no pending request)"
// @Router /connections/{userID}/accept [post]
func (c *ConnectionController) Accept(w http.ResponseWriter, r *http.Request) {
	requesterID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Connections.Accept(r.Context(), userID, requesterID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ConnectionStateResponse{State: domain.ConnectionStateConnected})
}

// Decline godoc
// @Summary Decline a connection request
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Requester user ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no pending request)"
// @Router /connections/{userID}/decline [post]
func (c *ConnectionController) Decline(w http.ResponseWriter, r *http.Request) {
	requesterID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Connections.Decline(r.Context(), userID, requesterID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ConnectionStateResponse{State: domain.ConnectionStateDeclined})
}

// Remove godoc
// @Summary Remove a connection
// @Description Remove an existing connection with the target user. Removing an absent connection is a no-op.
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Param userID path string true "Target user ID"
// @Success 200 {object} helpers.APIResponse "data contains removed: whether a connection existed"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /connections/{userID} [delete]
func (c *ConnectionController) Remove(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("userID")
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	result, err := c.Connections.Remove(r.Context(), userID, targetID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// List godoc
// @Summary List the caller's connections
// @Tags connections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the connected users"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /connections [get]
func (c *ConnectionController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	users, err := c.Connections.ListConnections(r.Context(), userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, users)
}

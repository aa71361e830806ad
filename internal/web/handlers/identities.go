package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/registry"
	"github.com/kozaktomas/face-attendance/internal/thumbnail"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

// IdentitiesHandler handles enrollment and the enrolled identity list.
type IdentitiesHandler struct {
	orch     *tick.Orchestrator
	registry *registry.Registry
	events   *EventBroadcaster
}

// NewIdentitiesHandler creates a new identities handler
func NewIdentitiesHandler(orch *tick.Orchestrator, reg *registry.Registry, events *EventBroadcaster) *IdentitiesHandler {
	return &IdentitiesHandler{orch: orch, registry: reg, events: events}
}

// EnrollRequest represents an enrollment request. Frame is an optional camera
// image (base64 in JSON) used for the thumbnail.
type EnrollRequest struct {
	Name  string `json:"name"`
	Frame []byte `json:"frame,omitempty"`
}

// IdentityResponse is an enrolled identity without its signature.
type IdentityResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Thumbnail  []byte    `json:"thumbnail,omitempty"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func toIdentityResponse(ident *database.EnrolledIdentity) IdentityResponse {
	return IdentityResponse{
		ID:         ident.ID,
		Name:       ident.Name,
		Thumbnail:  ident.Thumbnail,
		EnrolledAt: ident.EnrolledAt,
	}
}

// Enroll registers the pending capture under a name.
func (h *IdentitiesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxEnrollBody)

	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	capture, ok := h.orch.PendingCapture()
	if !ok {
		respondError(w, http.StatusConflict, "Please capture a face first.")
		return
	}

	var thumb []byte
	if len(req.Frame) > 0 {
		var err error
		thumb, err = thumbnail.Make(req.Frame, &capture.Box)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid frame image")
			return
		}
	}

	ident, err := h.orch.Enroll(r.Context(), req.Name, thumb)
	switch {
	case errors.Is(err, registry.ErrEmptyName):
		respondError(w, http.StatusBadRequest, "Please enter a name.")
		return
	case errors.Is(err, tick.ErrNoCapture):
		respondError(w, http.StatusConflict, "Please capture a face first.")
		return
	case ident == nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		slog.Error("enrollment not saved", "name", sanitizeForLog(ident.Name), "error", err)
	}

	msg := fmt.Sprintf("Face registered for %s!", ident.Name)
	h.events.SendEvent(Event{Type: EventEnrolled, Message: msg, Data: toIdentityResponse(ident)})
	respondMutation(w, http.StatusCreated, map[string]any{
		"status":   msg,
		"identity": toIdentityResponse(ident),
	}, err, tick.MessageSaveFaces)
}

// List returns the enrolled identities in enrollment order.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities := h.registry.List()
	out := make([]IdentityResponse, len(identities))
	for i := range identities {
		out[i] = toIdentityResponse(&identities[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// Delete removes one identity. Its attendance records stay.
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing identity ID")
		return
	}

	err := h.registry.Delete(r.Context(), id)
	if errors.Is(err, registry.ErrNotFound) {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}

	h.events.SendEvent(Event{Type: EventIdentities, Message: "Face deleted."})
	respondMutation(w, http.StatusOK, map[string]any{"status": "Face deleted."}, err, tick.MessageSaveFaces)
}

// Clear removes every identity.
func (h *IdentitiesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.registry.Clear(r.Context())
	h.events.SendEvent(Event{Type: EventIdentities, Message: "All faces cleared."})
	respondMutation(w, http.StatusOK, map[string]any{
		"status":  "All faces cleared.",
		"removed": removed,
	}, err, tick.MessageSaveFaces)
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

const msgNoFaceForCapture = "No face detected. Please face the camera."

// LivenessHandler controls the enrollment liveness check.
type LivenessHandler struct {
	orch   *tick.Orchestrator
	source detector.Source
	events *EventBroadcaster
}

// NewLivenessHandler creates a new liveness handler. source may be nil; it is
// only used for a bypass capture posted without an observation.
func NewLivenessHandler(orch *tick.Orchestrator, source detector.Source, events *EventBroadcaster) *LivenessHandler {
	return &LivenessHandler{orch: orch, source: source, events: events}
}

// LivenessState is the response of Get.
type LivenessState struct {
	Active       bool          `json:"active"`
	Session      any           `json:"session,omitempty"`
	CaptureReady bool          `json:"capture_ready"`
	Capture      *tick.Capture `json:"capture,omitempty"`
}

// Get reports the running check and the pending capture.
func (h *LivenessHandler) Get(w http.ResponseWriter, r *http.Request) {
	state := LivenessState{}
	if u, ok := h.orch.LivenessSnapshot(); ok {
		state.Active = true
		state.Session = u
	}
	if c, ok := h.orch.PendingCapture(); ok {
		state.CaptureReady = true
		state.Capture = &c
	}
	respondJSON(w, http.StatusOK, state)
}

// Start begins a liveness check.
func (h *LivenessHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.StartLiveness(); err != nil {
		if errors.Is(err, tick.ErrLivenessActive) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.events.SendEvent(Event{Type: EventLiveness, Message: tick.MessageLivenessStarted})
	respondJSON(w, http.StatusAccepted, map[string]string{"status": tick.MessageLivenessStarted})
}

// Cancel discards the running check.
func (h *LivenessHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	cancelled := h.orch.CancelLiveness()
	if cancelled {
		h.events.SendEvent(Event{Type: EventLiveness, Message: "Liveness check cancelled."})
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

// Bypass captures the primary face without a liveness check. The body is an
// observation; an empty body asks the detector for the current frame.
func (h *LivenessHandler) Bypass(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxObservationBody)

	var obs detection.Observation
	err := json.NewDecoder(r.Body).Decode(&obs)
	switch {
	case errors.Is(err, io.EOF):
		if h.source == nil {
			respondError(w, http.StatusBadRequest, "observation required")
			return
		}
		obs, err = h.source.Observe(r.Context())
		if err != nil {
			respondError(w, http.StatusBadGateway, "detector unavailable")
			return
		}
	case err != nil:
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	capture, err := h.orch.CaptureDirect(obs)
	switch {
	case errors.Is(err, tick.ErrBypassDisabled):
		respondError(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, tick.ErrLivenessActive):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, tick.ErrNoFace):
		respondError(w, http.StatusUnprocessableEntity, msgNoFaceForCapture)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.events.SendEvent(Event{Type: EventLiveness, Message: tick.MessageCaptured})
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  tick.MessageCaptured,
		"capture": capture,
	})
}

package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/clock"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

// AttendanceHandler serves the attendance ledger.
type AttendanceHandler struct {
	ledger *ledger.Ledger
	clock  clock.Clock
	events *EventBroadcaster
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(l *ledger.Ledger, clk clock.Clock, events *EventBroadcaster) *AttendanceHandler {
	if clk == nil {
		clk = clock.Real()
	}
	return &AttendanceHandler{ledger: l, clock: clk, events: events}
}

// AttendanceResponse lists the records, most recent first, with counts.
type AttendanceResponse struct {
	Records []database.AttendanceRecord `json:"records"`
	Today   int                         `json:"today"`
	Total   int                         `json:"total"`
}

// List returns all records with today's and the total count.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	today, total := h.ledger.Counts(h.clock.Now())
	respondJSON(w, http.StatusOK, AttendanceResponse{
		Records: h.ledger.Records(),
		Today:   today,
		Total:   total,
	})
}

// ClearToday removes today's records.
func (h *AttendanceHandler) ClearToday(w http.ResponseWriter, r *http.Request) {
	removed, err := h.ledger.ClearDay(r.Context(), h.clock.Now())
	h.events.SendEvent(Event{Type: EventAttendance, Message: "Today's attendance cleared."})
	respondMutation(w, http.StatusOK, map[string]any{
		"status":  "Today's attendance cleared.",
		"removed": removed,
	}, err, tick.MessageSaveAttendance)
}

// ClearAll removes every record.
func (h *AttendanceHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	removed, err := h.ledger.ClearAll(r.Context())
	h.events.SendEvent(Event{Type: EventAttendance, Message: "All attendance records cleared."})
	respondMutation(w, http.StatusOK, map[string]any{
		"status":  "All attendance records cleared.",
		"removed": removed,
	}, err, tick.MessageSaveAttendance)
}

// Delete removes one record.
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing record ID")
		return
	}

	err := h.ledger.DeleteRecord(r.Context(), id)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	h.events.SendEvent(Event{Type: EventAttendance, Message: "Record deleted."})
	respondMutation(w, http.StatusOK, map[string]any{"status": "Record deleted."}, err, tick.MessageSaveAttendance)
}

// Export downloads the records as CSV.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.ledger.ExportCSV(&buf); err != nil {
		if errors.Is(err, ledger.ErrNoRecords) {
			respondError(w, http.StatusNotFound, "No attendance records to export.")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := ledger.ExportFileName(h.clock.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

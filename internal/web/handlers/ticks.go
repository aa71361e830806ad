package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/tick"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsWriteWait  = 10 * time.Second
)

// TicksHandler accepts observations and streams tick results.
type TicksHandler struct {
	orch     *tick.Orchestrator
	events   *EventBroadcaster
	upgrader websocket.Upgrader
}

// NewTicksHandler creates a new ticks handler. WebSocket upgrades are accepted
// from clients without an Origin header, from the serving host itself, from
// localhost and from allowedOrigins.
func NewTicksHandler(orch *tick.Orchestrator, events *EventBroadcaster, allowedOrigins []string) *TicksHandler {
	originAllowed := middleware.OriginAllowed(allowedOrigins)
	return &TicksHandler{
		orch:   orch,
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || sameHostOrigin(origin, r.Host) || originAllowed(origin)
			},
		},
	}
}

// sameHostOrigin reports whether origin points at host.
func sameHostOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

// process runs one observation through the orchestrator and broadcasts it.
func (h *TicksHandler) process(r *http.Request, obs detection.Observation) tick.Result {
	res := h.orch.Tick(r.Context(), obs)
	h.events.PublishTick(res)
	return res
}

// Post handles a single observation pushed by a detector.
func (h *TicksHandler) Post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxObservationBody)

	var obs detection.Observation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "observation too large")
			return
		}
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	respondJSON(w, http.StatusOK, h.process(r, obs))
}

// Events streams tick results and state changes via SSE.
func (h *TicksHandler) Events(w http.ResponseWriter, r *http.Request) {
	initial := map[string]any{"liveness_active": h.orch.LivenessActive()}
	if u, ok := h.orch.LivenessSnapshot(); ok {
		initial["liveness"] = u
	}
	streamSSEEvents(w, r, h.events, initial)
}

// WebSocket streams events to the client and accepts observations from it.
// Each text message the client sends is one observation.
func (h *TicksHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(constants.MaxObservationBody)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	eventCh := h.events.AddListener()
	done := make(chan struct{})
	go h.writeEvents(conn, eventCh, done)
	defer func() {
		h.events.RemoveListener(eventCh)
		<-done
	}()

	slog.Debug("websocket client connected", "remote", sanitizeForLog(r.RemoteAddr))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var obs detection.Observation
		if err := json.Unmarshal(msg, &obs); err != nil {
			slog.Debug("ignoring malformed websocket observation", "error", err)
			continue
		}
		h.process(r, obs)
	}
}

// writeEvents owns all writes to conn until eventCh is closed.
func (h *TicksHandler) writeEvents(conn *websocket.Conn, eventCh chan Event, done chan struct{}) {
	defer close(done)
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				slog.Debug("websocket write failed", "error", err)
				conn.Close() // unblocks the read loop
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

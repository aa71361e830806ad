package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

func TestTicksHandler_PostRecordsAttendance(t *testing.T) {
	env := newTestEnv(t, false)
	env.enroll(t, "Alice", 0)
	h := NewTicksHandler(env.orch, env.events, nil)

	listener := env.events.AddListener()
	defer env.events.RemoveListener(listener)

	rec := httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ticks", jsonBody(t, observation(0))))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var res tick.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.FaceCount != 1 {
		t.Errorf("expected 1 face, got %d", res.FaceCount)
	}
	if len(res.Sightings) != 1 || res.Sightings[0].Outcome != ledger.OutcomeRecorded {
		t.Errorf("expected one recorded sighting, got %v", res.Sightings)
	}
	if len(env.ledger.Records()) != 1 {
		t.Error("expected one attendance record")
	}

	select {
	case event := <-listener:
		if event.Type != EventTick {
			t.Errorf("expected %s event, got %s", EventTick, event.Type)
		}
	default:
		t.Error("expected a tick event")
	}
}

func TestTicksHandler_PostInvalid(t *testing.T) {
	env := newTestEnv(t, false)
	h := NewTicksHandler(env.orch, env.events, nil)

	rec := httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ticks", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	big := `{"faces":[],"pad":"` + strings.Repeat("x", constants.MaxObservationBody) + `"}`
	rec = httptest.NewRecorder()
	h.Post(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ticks", strings.NewReader(big)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rec.Code)
	}
}

func TestTicksHandler_EventsSendsInitialStatus(t *testing.T) {
	env := newTestEnv(t, false)
	h := NewTicksHandler(env.orch, env.events, nil)
	server := httptest.NewServer(http.HandlerFunc(h.Events))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "event: status\n" {
		t.Errorf("expected status event, got %q", line)
	}
	line, err = reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(line, `"liveness_active":false`) {
		t.Errorf("expected liveness_active in initial data, got %q", line)
	}
}

func TestTicksHandler_WebSocket(t *testing.T) {
	env := newTestEnv(t, false)
	env.enroll(t, "Alice", 0)
	h := NewTicksHandler(env.orch, env.events, nil)

	r := chi.NewRouter()
	r.Get("/ws", h.WebSocket)
	server := httptest.NewServer(r)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The listener is registered after the upgrade; wait for it before sending.
	deadline := time.Now().Add(2 * time.Second)
	for env.events.ListenerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("listener never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(observation(0)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, buf.Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Type string      `json:"type"`
		Data tick.Result `json:"data"`
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	if event.Type != EventTick {
		t.Errorf("expected %s event, got %s", EventTick, event.Type)
	}
	if event.Data.FaceCount != 1 {
		t.Errorf("expected 1 face, got %d", event.Data.FaceCount)
	}
	if len(env.ledger.Records()) != 1 {
		t.Error("expected one attendance record")
	}
}

func TestTicksHandler_WebSocketOrigin(t *testing.T) {
	env := newTestEnv(t, false)
	h := NewTicksHandler(env.orch, env.events, []string{"https://kiosk.example"})

	r := chi.NewRouter()
	r.Get("/ws", h.WebSocket)
	server := httptest.NewServer(r)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"same host", server.URL, true},
		{"localhost", "http://localhost:5173", true},
		{"listed origin", "https://kiosk.example", true},
		{"foreign origin", "https://evil.example", false},
		{"localhost lookalike", "http://localhost.evil.example", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.origin != "" {
				header.Set("Origin", tc.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
			if tc.want {
				if err != nil {
					t.Fatalf("dial: %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("expected the handshake to be rejected")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("expected status %d, got %v", http.StatusForbidden, resp)
			}
		})
	}
}

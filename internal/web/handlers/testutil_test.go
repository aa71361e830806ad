package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/clock"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/detection/detectiontest"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/liveness"
	"github.com/kozaktomas/face-attendance/internal/registry"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

// testEnv wires real registry, ledger and orchestrator over an in-memory store.
type testEnv struct {
	store    *mock.MockBlobStore
	clock    *clock.FakeClock
	registry *registry.Registry
	ledger   *ledger.Ledger
	orch     *tick.Orchestrator
	events   *EventBroadcaster
}

func newTestEnv(t *testing.T, bypass bool) *testEnv {
	t.Helper()
	store := mock.NewMockBlobStore()
	codec, err := database.CodecByName(database.CodecJSON)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	repo := database.NewRepository(store, codec)
	clk := clock.Fake(time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC))
	reg := registry.New(repo, registry.Options{})
	led := ledger.New(repo, ledger.Options{Location: time.UTC})
	orch := tick.New(liveness.DefaultParams(), reg, led, tick.Options{Clock: clk, AllowLivenessBypass: bypass})
	return &testEnv{
		store:    store,
		clock:    clk,
		registry: reg,
		ledger:   led,
		orch:     orch,
		events:   NewEventBroadcaster(),
	}
}

// enroll adds an identity directly through the registry.
func (e *testEnv) enroll(t *testing.T, name string, v float32) *database.EnrolledIdentity {
	t.Helper()
	ident, err := e.registry.Enroll(context.Background(), name, detectiontest.Signature(v), nil, e.clock.Now())
	if err != nil {
		t.Fatalf("enroll %s: %v", name, err)
	}
	return ident
}

// observation builds a single-face observation.
func observation(v float32) detection.Observation {
	return detection.Observation{Faces: []detection.Detection{
		detectiontest.Face{BoxX: 40, BoxY: 30, Signature: detectiontest.Signature(v)}.Build(),
	}}
}

// jsonBody encodes v as a request body.
func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(data)
}

// decodeBody decodes a JSON response into a map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
	return out
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

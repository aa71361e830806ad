package detector

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const recording = `{"faces":[{"box":{"x":10,"y":20,"width":100,"height":120},"expressions":{"happy":0.9}}],"at":"2026-03-09T08:00:00Z"}

{"faces":[]}
`

func TestReplaySource(t *testing.T) {
	src := NewReplaySource(strings.NewReader(recording))
	ctx := context.Background()

	obs, err := src.Observe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs.Faces) != 1 || obs.Faces[0].Box.X != 10 {
		t.Errorf("unexpected first observation: %+v", obs)
	}
	if obs.At.IsZero() {
		t.Error("expected timestamp to be parsed")
	}

	obs, err = src.Observe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs.Faces) != 0 {
		t.Errorf("expected empty observation, got %d faces", len(obs.Faces))
	}
	if src.Line() != 3 {
		t.Errorf("expected 3 lines consumed, got %d", src.Line())
	}

	if _, err := src.Observe(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReplaySourceBadLine(t *testing.T) {
	src := NewReplaySource(strings.NewReader("{\"faces\":[]}\nnot json\n"))
	ctx := context.Background()

	if _, err := src.Observe(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := src.Observe(ctx)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 error, got %v", err)
	}
}

func TestReplaySourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReplaySource(strings.NewReader(recording)).Observe(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOpenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(recording), 0600); err != nil {
		t.Fatalf("failed to write recording: %v", err)
	}

	src, err := OpenReplay(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	if _, err := src.Observe(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := OpenReplay(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/face-attendance/internal/detection"
)

const maxReplayLine = 4 << 20

// ReplaySource reads recorded observations, one JSON object per line.
type ReplaySource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReplaySource reads observations from r.
func NewReplaySource(r io.Reader) *ReplaySource {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxReplayLine)
	return &ReplaySource{scanner: s}
}

// OpenReplay opens a recording file. Close releases it.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path) //nolint:gosec // path is from the command line
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	src := NewReplaySource(f)
	src.closer = f
	return src, nil
}

// Observe returns the next recorded observation, or io.EOF at the end.
// Blank lines are skipped.
func (s *ReplaySource) Observe(ctx context.Context) (detection.Observation, error) {
	var obs detection.Observation
	for {
		if err := ctx.Err(); err != nil {
			return obs, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return obs, fmt.Errorf("reading recording: %w", err)
			}
			return obs, io.EOF
		}
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &obs); err != nil {
			return obs, fmt.Errorf("line %d: %w", s.line, err)
		}
		return obs, nil
	}
}

// Line returns the number of lines consumed so far.
func (s *ReplaySource) Line() int {
	return s.line
}

// Close closes the underlying file, if any.
func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Package detector feeds face observations into the tick loop.
package detector

import (
	"context"

	"github.com/kozaktomas/face-attendance/internal/detection"
)

// Source produces one observation per call. Implementations return io.EOF
// when no further observations will arrive.
type Source interface {
	Observe(ctx context.Context) (detection.Observation, error)
}

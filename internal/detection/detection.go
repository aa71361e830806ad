// Package detection defines the contract between the external face detector
// and the attendance engine: one Detection per observed face.
package detection

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// Canonical landmark group names.
const (
	GroupLeftEye  = "leftEye"
	GroupRightEye = "rightEye"
	GroupNose     = "nose"
)

// ExpressionHappy is the expression key read by the smile check.
const ExpressionHappy = "happy"

// ErrInvalidDetection is wrapped by Validate for every contract violation.
var ErrInvalidDetection = errors.New("invalid detection")

// Point is a 2-D position in source-frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is an axis-aligned face bounding box in source-frame pixels.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area, zero for degenerate boxes.
func (b Box) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// LandmarkGroup is a named, ordered run of facial landmark points.
type LandmarkGroup struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Signature is a face descriptor; valid signatures have SignatureDim components.
type Signature []float32

// Valid reports whether the signature has the expected dimensionality.
func (s Signature) Valid() bool {
	return len(s) == constants.SignatureDim
}

// Detection is everything the detector reports about one face in one frame.
type Detection struct {
	Box         Box                `json:"box"`
	Landmarks   []LandmarkGroup    `json:"landmarks"`
	Expressions map[string]float64 `json:"expressions"`
	Signature   Signature          `json:"signature"`
}

// Group returns the points of the named landmark group.
func (d *Detection) Group(name string) ([]Point, bool) {
	for _, g := range d.Landmarks {
		if g.Name == name {
			return g.Points, true
		}
	}
	return nil, false
}

// TopExpression returns the highest-scoring expression. Ties resolve to the
// lexicographically first name so output is stable across runs.
func (d *Detection) TopExpression() (string, float64) {
	if len(d.Expressions) == 0 {
		return "", 0
	}
	names := make([]string, 0, len(d.Expressions))
	for name := range d.Expressions {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if d.Expressions[name] > d.Expressions[best] {
			best = name
		}
	}
	return best, d.Expressions[best]
}

// Validate reports contract violations. Callers log these; a malformed
// detection still flows through the engine with degraded signal checks.
func (d *Detection) Validate() error {
	if d.Box.Width < 0 || d.Box.Height < 0 {
		return fmt.Errorf("%w: negative box size %.1fx%.1f", ErrInvalidDetection, d.Box.Width, d.Box.Height)
	}
	for _, name := range []string{GroupLeftEye, GroupRightEye} {
		if pts, ok := d.Group(name); !ok || len(pts) < 6 {
			return fmt.Errorf("%w: landmark group %q needs 6 points", ErrInvalidDetection, name)
		}
	}
	if pts, ok := d.Group(GroupNose); !ok || len(pts) < 4 {
		return fmt.Errorf("%w: landmark group %q needs 4 points", ErrInvalidDetection, GroupNose)
	}
	if _, ok := d.Expressions[ExpressionHappy]; !ok {
		return fmt.Errorf("%w: missing %q expression", ErrInvalidDetection, ExpressionHappy)
	}
	for name, score := range d.Expressions {
		if score < 0 || score > 1 {
			return fmt.Errorf("%w: expression %q score %.3f out of range", ErrInvalidDetection, name, score)
		}
	}
	if !d.Signature.Valid() {
		return fmt.Errorf("%w: signature has %d components, want %d",
			ErrInvalidDetection, len(d.Signature), constants.SignatureDim)
	}
	return nil
}

// Observation is one detector output: every face seen in a single frame.
// Faces[0] is the primary face used for liveness.
type Observation struct {
	Faces []Detection `json:"faces"`
	At    time.Time   `json:"at,omitzero"`
}

// Primary returns the first face, or nil when none was detected.
func (o *Observation) Primary() *Detection {
	if len(o.Faces) == 0 {
		return nil
	}
	return &o.Faces[0]
}

package signals

import (
	"errors"
	"math"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/detection/detectiontest"
)

func TestEyeAspectRatio(t *testing.T) {
	tests := []struct {
		name     string
		eye      []detection.Point
		expected float64
	}{
		{"nil contour", nil, 0.3},
		{"five points", detectiontest.Eye(0, 0, 0.5)[:5], 0.3},
		{"open eye", detectiontest.Eye(50, 50, 0.32), 0.32},
		{"closed eye", detectiontest.Eye(50, 50, 0.1), 0.1},
		{
			name: "square contour",
			eye: []detection.Point{
				{X: 0, Y: 5}, {X: 2, Y: 0}, {X: 8, Y: 0},
				{X: 10, Y: 5}, {X: 8, Y: 10}, {X: 2, Y: 10},
			},
			expected: 1.0,
		},
		{
			name: "collapsed line",
			eye: []detection.Point{
				{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 8, Y: 0},
				{X: 10, Y: 0}, {X: 8, Y: 0}, {X: 2, Y: 0},
			},
			expected: 0,
		},
		{
			name: "zero width",
			eye: []detection.Point{
				{X: 5, Y: 0}, {X: 5, Y: 1}, {X: 5, Y: 2},
				{X: 5, Y: 0}, {X: 5, Y: 2}, {X: 5, Y: 1},
			},
			expected: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EyeAspectRatio(tt.eye)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("EyeAspectRatio() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEyeAspectRatioOpenAboveThreshold(t *testing.T) {
	eye := []detection.Point{
		{X: 0, Y: 5}, {X: 3, Y: 2}, {X: 7, Y: 2},
		{X: 10, Y: 5}, {X: 7, Y: 8}, {X: 3, Y: 8},
	}
	if got := EyeAspectRatio(eye); got <= 0.21 {
		t.Errorf("open contour EAR = %v, want > 0.21", got)
	}
}

func TestAverageEAR(t *testing.T) {
	det := detectiontest.Face{EAR: 0.25}.Build()
	if got := AverageEAR(&det); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("AverageEAR() = %v, want 0.25", got)
	}

	// A missing eye contributes the neutral ratio.
	det.Landmarks = det.Landmarks[1:]
	if got := AverageEAR(&det); math.Abs(got-(0.3+0.25)/2) > 1e-9 {
		t.Errorf("AverageEAR() with one eye = %v", got)
	}
}

func TestSmileScore(t *testing.T) {
	score, err := SmileScore(map[string]float64{"happy": 0.42, "sad": 0.1})
	if err != nil || score != 0.42 {
		t.Errorf("SmileScore() = %v, %v", score, err)
	}

	if _, err := SmileScore(nil); !errors.Is(err, ErrNoExpressions) {
		t.Errorf("SmileScore(nil) error = %v, want ErrNoExpressions", err)
	}
	if _, err := SmileScore(map[string]float64{"sad": 0.9}); !errors.Is(err, ErrNoExpressions) {
		t.Errorf("SmileScore(no happy) error = %v, want ErrNoExpressions", err)
	}
}

func TestNoseTipX(t *testing.T) {
	x, ok := NoseTipX(detectiontest.Nose(112, 0))
	if !ok || x != 112 {
		t.Errorf("NoseTipX() = %v, %v", x, ok)
	}

	if _, ok := NoseTipX(detectiontest.Nose(112, 0)[:3]); ok {
		t.Error("expected short nose group to be rejected")
	}
}

func TestCorner(t *testing.T) {
	p := Corner(detection.Box{X: 12.5, Y: 40, Width: 100, Height: 100})
	if p.X != 12.5 || p.Y != 40 {
		t.Errorf("Corner() = %+v", p)
	}
}

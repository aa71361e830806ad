// Package detectiontest builds synthetic detections for tests.
package detectiontest

import (
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/detection"
)

// Eye returns a six-point eye contour centred at (cx, cy) whose eye aspect
// ratio is exactly ear.
func Eye(cx, cy, ear float64) []detection.Point {
	const width = 10.0
	h := ear * width / 2
	return []detection.Point{
		{X: cx - width/2, Y: cy},
		{X: cx - width/4, Y: cy - h},
		{X: cx + width/4, Y: cy - h},
		{X: cx + width/2, Y: cy},
		{X: cx + width/4, Y: cy + h},
		{X: cx - width/4, Y: cy + h},
	}
}

// Nose returns a nine-point nose contour whose tip (index 3) sits at tipX.
func Nose(tipX, tipY float64) []detection.Point {
	pts := make([]detection.Point, 9)
	for i := range pts {
		pts[i] = detection.Point{X: tipX, Y: tipY - float64(3-i)*4}
	}
	return pts
}

// Signature returns a deterministic 128-d signature with every component set to v.
func Signature(v float32) detection.Signature {
	sig := make(detection.Signature, constants.SignatureDim)
	for i := range sig {
		sig[i] = v
	}
	return sig
}

// Offset returns a copy of base with component i shifted by delta.
func Offset(base detection.Signature, i int, delta float32) detection.Signature {
	sig := make(detection.Signature, len(base))
	copy(sig, base)
	sig[i] += delta
	return sig
}

// Face describes a synthetic face; zero values give a neutral, open-eyed face
// at the origin with no smile.
type Face struct {
	BoxX, BoxY float64
	EAR        float64
	Happy      float64
	NoseX      float64
	Signature  detection.Signature
	NoHappy    bool
	NoNose     bool
}

// Build turns the description into a Detection.
func (f Face) Build() detection.Detection {
	ear := f.EAR
	if ear == 0 {
		ear = 0.3
	}
	noseX := f.NoseX
	if noseX == 0 {
		noseX = f.BoxX + 50
	}
	sig := f.Signature
	if sig == nil {
		sig = Signature(0)
	}

	det := detection.Detection{
		Box: detection.Box{X: f.BoxX, Y: f.BoxY, Width: 100, Height: 120},
		Landmarks: []detection.LandmarkGroup{
			{Name: detection.GroupLeftEye, Points: Eye(f.BoxX+30, f.BoxY+40, ear)},
			{Name: detection.GroupRightEye, Points: Eye(f.BoxX+70, f.BoxY+40, ear)},
		},
		Expressions: map[string]float64{"neutral": 1 - f.Happy},
		Signature:   sig,
	}
	if !f.NoNose {
		det.Landmarks = append(det.Landmarks, detection.LandmarkGroup{
			Name: detection.GroupNose, Points: Nose(noseX, f.BoxY+70),
		})
	}
	if !f.NoHappy {
		det.Expressions[detection.ExpressionHappy] = f.Happy
	}
	return det
}

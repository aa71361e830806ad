// Package signals extracts the scalar liveness signals from a single detection.
// Every function is pure and tolerates missing or short landmark groups.
package signals

import (
	"errors"
	"math"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/detection"
)

// ErrNoExpressions is returned when a detection carries no usable happy score.
var ErrNoExpressions = errors.New("no expression scores")

// noseTipIndex is the position of the nose tip within the nose group.
const noseTipIndex = 3

func dist(a, b detection.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// EyeAspectRatio computes (|p2-p6| + |p3-p5|) / (2|p1-p4|) over a six-point
// eye contour. Short contours and zero-width eyes yield NeutralEAR.
func EyeAspectRatio(eye []detection.Point) float64 {
	if len(eye) < 6 {
		return constants.NeutralEAR
	}
	horizontal := dist(eye[0], eye[3])
	if horizontal < 1e-9 {
		return constants.NeutralEAR
	}
	v1 := dist(eye[1], eye[5])
	v2 := dist(eye[2], eye[4])
	return (v1 + v2) / (2 * horizontal)
}

// AverageEAR is the mean of the left and right eye aspect ratios.
func AverageEAR(det *detection.Detection) float64 {
	left, _ := det.Group(detection.GroupLeftEye)
	right, _ := det.Group(detection.GroupRightEye)
	return (EyeAspectRatio(left) + EyeAspectRatio(right)) / 2
}

// SmileScore returns the happy expression confidence.
func SmileScore(expressions map[string]float64) (float64, error) {
	score, ok := expressions[detection.ExpressionHappy]
	if !ok {
		return 0, ErrNoExpressions
	}
	return score, nil
}

// NoseTipX returns the x coordinate of the nose tip.
func NoseTipX(nose []detection.Point) (float64, bool) {
	if len(nose) <= noseTipIndex {
		return 0, false
	}
	return nose[noseTipIndex].X, true
}

// Corner returns the top-left corner of the bounding box, which is the
// position tracked by the movement check.
func Corner(box detection.Box) detection.Point {
	return detection.Point{X: box.X, Y: box.Y}
}

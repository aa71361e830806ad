// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Liveness constants
const (
	// NeutralEAR is the eye aspect ratio reported when an eye contour is unusable
	NeutralEAR = 0.3

	// EARThreshold is the smoothed EAR below which the eyes count as closed
	EARThreshold = 0.21

	// EARWindow is the number of raw EAR samples averaged for smoothing
	EARWindow = 3

	// SmileThreshold is the happy score a frame must exceed to count as smiling
	SmileThreshold = 0.4

	// SmileFrames is the smile counter value that confirms a smile
	SmileFrames = 5

	// HeadTurnPixels is the nose-tip displacement from the reference that counts as turned
	HeadTurnPixels = 10.0

	// HeadTurnFrames is the number of turned frames that confirms a head turn
	HeadTurnFrames = 3

	// MovementPixels is the per-tick corner displacement that counts as movement
	MovementPixels = 1.0

	// MovementFrames is the number of moving frames that confirms movement
	MovementFrames = 8

	// RequiredSignals is how many of the four signals a session must confirm
	RequiredSignals = 2

	// LivenessTimeout is the session budget after which it fails
	LivenessTimeout = 30 * time.Second

	// LivenessHintAfter is the elapsed time after which hints are shown
	LivenessHintAfter = 20 * time.Second

	// MaxHintSignals is the maximum number of missing signals suggested in a hint
	MaxHintSignals = 2
)

// Face matching constants
const (
	// SignatureDim is the length of a face signature
	SignatureDim = 128

	// DefaultMatchThreshold is the Euclidean distance a match must stay strictly below
	DefaultMatchThreshold = 0.6

	// DefaultIndexMinSize is the enrolled-set size at which the ANN index is consulted
	DefaultIndexMinSize = 256

	// DefaultIndexCandidates is the number of ANN candidates re-ranked exactly
	DefaultIndexCandidates = 16
)

// Attendance constants
const (
	// NotificationThrottle is the minimum gap between two sightings of one identity
	NotificationThrottle = 10 * time.Second

	// DefaultCSVDateLayout formats the Date column of the CSV export
	DefaultCSVDateLayout = "1/2/2006"

	// DefaultCSVTimeLayout formats the Time column of the CSV export
	DefaultCSVTimeLayout = "3:04:05 PM"
)

// Enrollment constants
const (
	// ThumbnailSize is the edge length in pixels of enrollment thumbnails
	ThumbnailSize = 150

	// ThumbnailQuality is the JPEG quality of enrollment thumbnails
	ThumbnailQuality = 80
)

// Tick loop constants
const (
	// DefaultTickInterval is the detection polling cadence
	DefaultTickInterval = 100 * time.Millisecond
)

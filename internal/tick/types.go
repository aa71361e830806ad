package tick

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/liveness"
)

// StatusLevel grades a status message for display.
type StatusLevel string

// StatusLevel values.
const (
	LevelInfo    StatusLevel = "info"
	LevelSuccess StatusLevel = "success"
	LevelWarning StatusLevel = "warning"
	LevelError   StatusLevel = "error"
)

// User-facing status messages.
const (
	MessageNoFaces         = "No faces detected"
	MessageLivenessStarted = "Starting liveness detection... Please look at the camera naturally."
	MessageVerified        = "Real person verified! Enter a name and click Save."
	MessageNoSignature     = "Verified, but the face could not be read. Please try again."
	MessagePhotoDetected   = "⚠️ PHOTO DETECTED! Please use a real person, not a picture."
	MessageCaptured        = "Face captured! Enter a name and click Save."
	MessageRecorded        = "Attendance marked successfully!"
	MessageDuplicateToday  = "Your attendance is already marked for today!"
	MessageSaveAttendance  = "Error saving attendance data."
	MessageSaveFaces       = "Error saving face data."
)

// FaceSummary describes one detected face.
type FaceSummary struct {
	Index           int                    `json:"index"`
	Position        detection.Point        `json:"position"`
	Expression      string                 `json:"expression,omitempty"`
	ExpressionScore float64                `json:"expression_score,omitempty"`
	Match           *facematch.MatchResult `json:"match,omitempty"`
}

// SightingEvent is a ledger decision worth notifying about.
type SightingEvent struct {
	IdentityID string                     `json:"identity_id"`
	Name       string                     `json:"name"`
	Outcome    ledger.Outcome             `json:"outcome"`
	Message    string                     `json:"message"`
	Record     *database.AttendanceRecord `json:"record,omitempty"`
}

// Result is everything a renderer needs after one tick.
type Result struct {
	At           time.Time        `json:"at"`
	FaceCount    int              `json:"face_count"`
	Faces        []FaceSummary    `json:"faces,omitempty"`
	Liveness     *liveness.Update `json:"liveness,omitempty"`
	Sightings    []SightingEvent  `json:"sightings,omitempty"`
	Status       string           `json:"status,omitempty"`
	StatusLevel  StatusLevel      `json:"status_level,omitempty"`
	CaptureReady bool             `json:"capture_ready"`
}

// Capture is a face signature waiting to be enrolled.
type Capture struct {
	Signature detection.Signature `json:"-"`
	Box       detection.Box       `json:"box"`
	At        time.Time           `json:"at"`
	Verified  bool                `json:"verified"` // false for a bypassed capture
}

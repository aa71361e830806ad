package database

import (
	"time"
)

// AttendanceStatus is the recorded status of an attendance entry.
type AttendanceStatus string

// StatusPresent is the only status the kiosk records.
const StatusPresent AttendanceStatus = "Present"

// EnrolledIdentity is a person the matcher can recognize.
type EnrolledIdentity struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Signature  []float32 `json:"signature"`
	Thumbnail  []byte    `json:"thumbnail,omitempty"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// AttendanceRecord is one recorded sighting. Name is frozen at record time and
// IdentityID may refer to an identity that has since been deleted.
type AttendanceRecord struct {
	ID         string           `json:"id"`
	IdentityID string           `json:"identity_id"`
	Name       string           `json:"name"`
	Timestamp  time.Time        `json:"timestamp"`
	Status     AttendanceStatus `json:"status"`
}

// Blob keys of the two persisted collections.
const (
	KeyIdentities = "registeredFaces"
	KeyAttendance = "attendanceRecords"
)

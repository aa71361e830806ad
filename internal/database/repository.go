package database

import (
	"context"
	"errors"
)

// ErrUnknownBackend is returned by Open for an unregistered URL scheme.
var ErrUnknownBackend = errors.New("unknown storage backend")

// BlobStore persists opaque blobs by key. Load returns nil data and no error
// for a key that was never saved.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// IdentityStore persists the enrolled identity collection as a whole.
type IdentityStore interface {
	LoadIdentities(ctx context.Context) ([]EnrolledIdentity, error)
	SaveIdentities(ctx context.Context, identities []EnrolledIdentity) error
}

// AttendanceStore persists the attendance record collection as a whole.
type AttendanceStore interface {
	LoadAttendance(ctx context.Context) ([]AttendanceRecord, error)
	SaveAttendance(ctx context.Context, records []AttendanceRecord) error
}

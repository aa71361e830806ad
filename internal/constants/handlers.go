// Package constants provides shared constants used across the codebase.
package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Request constants
const (
	// MaxObservationBody is the maximum size of a posted observation in bytes (1MB)
	MaxObservationBody = 1 << 20

	// MaxEnrollBody is the maximum size of an enrollment request in bytes (10MB)
	MaxEnrollBody = 10 << 20
)

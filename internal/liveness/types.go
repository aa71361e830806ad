// Package liveness decides whether the face in front of the kiosk belongs to a
// live person by watching for blinks, smiles, head turns and movement over a
// bounded session.
package liveness

import (
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/detection"
)

// Signal identifies one of the four liveness checks.
type Signal int

// Signals in hint order.
const (
	SignalBlink Signal = iota
	SignalSmile
	SignalHeadTurn
	SignalMovement
)

// AllSignals lists every signal in hint order.
var AllSignals = []Signal{SignalBlink, SignalSmile, SignalHeadTurn, SignalMovement}

func (s Signal) String() string {
	switch s {
	case SignalBlink:
		return "blink"
	case SignalSmile:
		return "smile"
	case SignalHeadTurn:
		return "head_turn"
	case SignalMovement:
		return "movement"
	}
	return "unknown"
}

// HintLabel is the instruction shown when the signal is still missing late in a session.
func (s Signal) HintLabel() string {
	switch s {
	case SignalBlink:
		return "BLINK"
	case SignalSmile:
		return "SMILE"
	case SignalHeadTurn:
		return "TURN HEAD"
	case SignalMovement:
		return "MOVE"
	}
	return ""
}

// MarshalText renders the signal by name in JSON output.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Verdict is the outcome of a liveness tick.
type Verdict string

// Verdict values. Pending means the session is still running.
const (
	VerdictPending Verdict = "pending"
	VerdictPassed  Verdict = "passed"
	VerdictFailed  Verdict = "failed"
)

// SignalState is the display state of one check.
type SignalState string

// SignalState values.
const (
	StatePending  SignalState = "pending"
	StateClosing  SignalState = "closing"
	StateProgress SignalState = "progress"
	StateDetected SignalState = "detected"
	StateFailed   SignalState = "failed"
)

// SignalStatus describes one check for the renderer.
type SignalStatus struct {
	Signal   Signal      `json:"signal"`
	State    SignalState `json:"state"`
	Progress int         `json:"progress"`
	Required int         `json:"required,omitempty"`
	Label    string      `json:"label"`
}

// Hint nudges the user toward signals still missing late in the session.
type Hint struct {
	RemainingSeconds int      `json:"remaining_seconds"`
	Try              []Signal `json:"try"`
}

// Text renders the hint as "12s left - Try: BLINK or SMILE".
func (h Hint) Text() string {
	labels := make([]string, len(h.Try))
	for i, s := range h.Try {
		labels[i] = s.HintLabel()
	}
	return fmt.Sprintf("%ds left - Try: %s", h.RemainingSeconds, strings.Join(labels, " or "))
}

// Update is the per-tick report of an evaluated session.
type Update struct {
	Verdict     Verdict             `json:"verdict"`
	Statuses    []SignalStatus      `json:"statuses"`
	PassedCount int                 `json:"passed_count"`
	Required    int                 `json:"required"`
	SmoothedEAR float64             `json:"smoothed_ear"`
	HappyScore  float64             `json:"happy_score"`
	Elapsed     time.Duration       `json:"elapsed"`
	Hint        *Hint               `json:"hint,omitempty"`
	Message     string              `json:"message,omitempty"`
	Skipped     bool                `json:"skipped,omitempty"`
	Signature   detection.Signature `json:"-"`
}

// Status returns the status of a single signal.
func (u *Update) Status(s Signal) SignalStatus {
	for _, st := range u.Statuses {
		if st.Signal == s {
			return st
		}
	}
	return SignalStatus{Signal: s, State: StatePending}
}

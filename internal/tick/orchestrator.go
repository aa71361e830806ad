// Package tick drives liveness, matching and attendance once per detection
// cycle.
package tick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/clock"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/liveness"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/registry"
)

var (
	ErrNoCapture      = errors.New("no face captured")
	ErrLivenessActive = errors.New("liveness check in progress")
	ErrBypassDisabled = errors.New("liveness bypass is disabled")
	ErrNoFace         = errors.New("no usable face in view")
)

// Identities matches signatures and enrolls new identities.
type Identities interface {
	Match(sig detection.Signature) *facematch.MatchResult
	Enroll(ctx context.Context, name string, sig detection.Signature, thumbnail []byte, now time.Time) (*database.EnrolledIdentity, error)
}

// Attendance records recognized sightings.
type Attendance interface {
	RecordSighting(ctx context.Context, identityID, name string, now time.Time) (ledger.Outcome, *database.AttendanceRecord, error)
}

// Options configures an Orchestrator.
type Options struct {
	Clock               clock.Clock
	AllowLivenessBypass bool
	Metrics             *metrics.Metrics
}

// Orchestrator owns the liveness session and the pending capture. Ticks and
// enrollment calls are serialized.
type Orchestrator struct {
	machine    *liveness.Machine
	identities Identities
	attendance Attendance
	clock      clock.Clock
	bypass     bool
	metrics    *metrics.Metrics

	mu      sync.Mutex
	capture *Capture
}

// New creates an orchestrator with an idle liveness machine.
func New(params liveness.Params, identities Identities, attendance Attendance, opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return &Orchestrator{
		machine:    liveness.NewMachine(params, opts.Clock),
		identities: identities,
		attendance: attendance,
		clock:      opts.Clock,
		bypass:     opts.AllowLivenessBypass,
		metrics:    opts.Metrics,
	}
}

// Tick processes one observation.
func (o *Orchestrator) Tick(ctx context.Context, obs detection.Observation) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock.Now()
	res := Result{At: now, FaceCount: len(obs.Faces)}
	o.metrics.ObserveTick(len(obs.Faces))

	if len(obs.Faces) == 0 {
		res.Status = MessageNoFaces
		res.StatusLevel = LevelInfo
		if u, ok := o.machine.Snapshot(); ok {
			res.Liveness = &u
		}
		res.CaptureReady = o.capture != nil
		return res
	}

	res.Faces = make([]FaceSummary, len(obs.Faces))
	for i := range obs.Faces {
		det := &obs.Faces[i]
		if err := det.Validate(); err != nil {
			slog.Debug("degraded detection", "face", i, "error", err)
		}
		expr, score := det.TopExpression()
		res.Faces[i] = FaceSummary{
			Index:           i,
			Position:        detection.Point{X: det.Box.X, Y: det.Box.Y},
			Expression:      expr,
			ExpressionScore: score,
		}
	}

	if o.machine.Active() {
		o.evaluateLiveness(&res, obs.Primary(), now)
	} else {
		o.recognize(ctx, &res, obs.Faces, now)
	}

	res.CaptureReady = o.capture != nil
	return res
}

func (o *Orchestrator) evaluateLiveness(res *Result, det *detection.Detection, now time.Time) {
	u, err := o.machine.Evaluate(det)
	if err != nil {
		slog.Warn("liveness evaluation failed", "error", err)
		return
	}
	res.Liveness = &u

	switch u.Verdict {
	case liveness.VerdictPassed:
		o.metrics.IncrementVerdict(string(liveness.VerdictPassed))
		if !u.Signature.Valid() {
			slog.Warn("liveness passed without a usable signature", "length", len(u.Signature))
			res.Status = MessageNoSignature
			res.StatusLevel = LevelError
			return
		}
		o.capture = &Capture{
			Signature: append(detection.Signature(nil), u.Signature...),
			Box:       det.Box,
			At:        now,
			Verified:  true,
		}
		res.Status = MessageVerified
		res.StatusLevel = LevelSuccess
	case liveness.VerdictFailed:
		o.metrics.IncrementVerdict(string(liveness.VerdictFailed))
		res.Status = MessagePhotoDetected
		res.StatusLevel = LevelError
	default:
		if u.Hint != nil {
			res.Status = u.Hint.Text()
			res.StatusLevel = LevelWarning
		}
	}
}

func (o *Orchestrator) recognize(ctx context.Context, res *Result, faces []detection.Detection, now time.Time) {
	res.Status = fmt.Sprintf("Detected %d face(s)", len(faces))
	res.StatusLevel = LevelInfo

	var saveFailed bool
	for i := range faces {
		det := &faces[i]
		if !det.Signature.Valid() {
			continue
		}
		match := o.identities.Match(det.Signature)
		if match == nil {
			continue
		}
		res.Faces[i].Match = match

		outcome, rec, err := o.attendance.RecordSighting(ctx, match.IdentityID, match.Name, now)
		if err != nil {
			slog.Error("recording sighting", "identity", match.IdentityID, "error", err)
			saveFailed = true
		}
		o.metrics.IncrementSighting(string(outcome))

		ev := SightingEvent{IdentityID: match.IdentityID, Name: match.Name, Outcome: outcome, Record: rec}
		switch outcome {
		case ledger.OutcomeRecorded:
			ev.Message = MessageRecorded
			res.Status = fmt.Sprintf("%s: %s", match.Name, MessageRecorded)
			res.StatusLevel = LevelSuccess
		case ledger.OutcomeDuplicateToday:
			ev.Message = MessageDuplicateToday
			if res.StatusLevel != LevelSuccess {
				res.Status = fmt.Sprintf("%s: %s", match.Name, MessageDuplicateToday)
				res.StatusLevel = LevelWarning
			}
		default:
			continue
		}
		res.Sightings = append(res.Sightings, ev)
	}

	if saveFailed {
		res.Status = MessageSaveAttendance
		res.StatusLevel = LevelError
	}
}

// StartLiveness begins a liveness check and drops any pending capture.
func (o *Orchestrator) StartLiveness() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.machine.Start(); err != nil {
		if errors.Is(err, liveness.ErrAlreadyActive) {
			return ErrLivenessActive
		}
		return err
	}
	o.capture = nil
	return nil
}

// CancelLiveness discards the running check without a verdict. It reports
// whether a check was running.
func (o *Orchestrator) CancelLiveness() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancel()
}

func (o *Orchestrator) cancel() bool {
	if !o.machine.Cancel() {
		return false
	}
	o.metrics.IncrementVerdict("cancelled")
	return true
}

// Stop forces the orchestrator idle, used when the observation loop ends.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel() {
		slog.Info("liveness check cancelled by shutdown")
	}
}

// LivenessActive reports whether a liveness check is running.
func (o *Orchestrator) LivenessActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.Active()
}

// LivenessSnapshot reports the running check without advancing it.
func (o *Orchestrator) LivenessSnapshot() (liveness.Update, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.Snapshot()
}

// PendingCapture returns a copy of the capture waiting for enrollment.
func (o *Orchestrator) PendingCapture() (Capture, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.capture == nil {
		return Capture{}, false
	}
	return *o.capture, true
}

// CaptureDirect captures the primary face of obs without a liveness check.
func (o *Orchestrator) CaptureDirect(obs detection.Observation) (Capture, error) {
	if !o.bypass {
		return Capture{}, ErrBypassDisabled
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.machine.Active() {
		return Capture{}, ErrLivenessActive
	}
	det := obs.Primary()
	if det == nil || !det.Signature.Valid() {
		return Capture{}, ErrNoFace
	}
	o.capture = &Capture{
		Signature: append(detection.Signature(nil), det.Signature...),
		Box:       det.Box,
		At:        o.clock.Now(),
	}
	slog.Warn("face captured without liveness check")
	return *o.capture, nil
}

// Enroll registers the pending capture under name. The capture is consumed
// once the identity exists, even if persisting it failed.
func (o *Orchestrator) Enroll(ctx context.Context, name string, thumbnail []byte) (*database.EnrolledIdentity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, registry.ErrEmptyName
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.capture == nil {
		return nil, ErrNoCapture
	}

	ident, err := o.identities.Enroll(ctx, name, o.capture.Signature, thumbnail, o.clock.Now())
	if ident != nil {
		o.capture = nil
	}
	return ident, err
}

package liveness

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/kozaktomas/face-attendance/internal/clock"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/signals"
)

var (
	// ErrAlreadyActive is returned by Start while a session is running.
	ErrAlreadyActive = errors.New("liveness session already active")
	// ErrNotActive is returned by Evaluate when no session is running.
	ErrNotActive = errors.New("no active liveness session")
)

// Messages reported on terminal verdicts.
const (
	MessagePassed = "Liveness verified! You are a real person."
	MessageFailed = "Liveness check failed! Photo detected or timeout."
)

// session holds the evolving evidence of one liveness attempt.
type session struct {
	startedAt time.Time

	blinkDetected    bool
	smileDetected    bool
	headTurnDetected bool
	movementDetected bool

	ear           *window
	eyesClosed    bool
	blinkCount    int
	smileFrames   int
	headTurnCount int
	movementCount int

	lastCorner *detection.Point
	refNoseX   *float64

	smoothedEAR float64
	happyScore  float64
}

func (s *session) passedCount() int {
	n := 0
	for _, ok := range []bool{s.blinkDetected, s.smileDetected, s.headTurnDetected, s.movementDetected} {
		if ok {
			n++
		}
	}
	return n
}

func (s *session) detected(sig Signal) bool {
	switch sig {
	case SignalBlink:
		return s.blinkDetected
	case SignalSmile:
		return s.smileDetected
	case SignalHeadTurn:
		return s.headTurnDetected
	case SignalMovement:
		return s.movementDetected
	}
	return false
}

// Machine runs at most one liveness session at a time. It is not safe for
// concurrent use; the tick orchestrator serializes access.
type Machine struct {
	params  Params
	clock   clock.Clock
	session *session
}

// NewMachine creates an idle machine.
func NewMachine(params Params, clk clock.Clock) *Machine {
	if clk == nil {
		clk = clock.Real()
	}
	return &Machine{params: params, clock: clk}
}

// Params returns the machine's tuning.
func (m *Machine) Params() Params {
	return m.params
}

// Active reports whether a session is running.
func (m *Machine) Active() bool {
	return m.session != nil
}

// Start begins a fresh session.
func (m *Machine) Start() error {
	if m.session != nil {
		return ErrAlreadyActive
	}
	m.session = &session{
		startedAt: m.clock.Now(),
		ear:       newWindow(m.params.EARWindow),
	}
	slog.Debug("liveness session started")
	return nil
}

// Cancel discards the running session without a verdict. It reports whether
// a session was running.
func (m *Machine) Cancel() bool {
	if m.session == nil {
		return false
	}
	m.session = nil
	slog.Debug("liveness session cancelled")
	return true
}

// Snapshot reports the running session without advancing it.
func (m *Machine) Snapshot() (Update, bool) {
	if m.session == nil {
		return Update{}, false
	}
	return m.report(m.session, VerdictPending, m.clock.Now().Sub(m.session.startedAt)), true
}

// Evaluate feeds one detection of the primary face into the running session.
// A terminal verdict returns the machine to idle.
func (m *Machine) Evaluate(det *detection.Detection) (Update, error) {
	s := m.session
	if s == nil {
		return Update{}, ErrNotActive
	}
	if det == nil {
		return Update{}, fmt.Errorf("evaluate liveness: %w", detection.ErrInvalidDetection)
	}

	happy, err := signals.SmileScore(det.Expressions)
	skipped := err != nil
	if skipped {
		slog.Warn("liveness tick without expression scores, skipping signal checks")
	} else {
		m.checkBlink(s, det)
		m.checkSmile(s, happy)
		m.checkHeadTurn(s, det)
		m.checkMovement(s, det)
	}

	elapsed := m.clock.Now().Sub(s.startedAt)

	if !skipped && s.passedCount() >= m.params.RequiredSignals {
		u := m.report(s, VerdictPassed, elapsed)
		u.Message = MessagePassed
		u.Signature = det.Signature
		m.session = nil
		slog.Info("liveness passed", "signals", u.PassedCount, "elapsed", elapsed)
		return u, nil
	}

	if elapsed > m.params.Timeout {
		u := m.report(s, VerdictFailed, elapsed)
		u.Message = MessageFailed
		u.Skipped = skipped
		m.session = nil
		slog.Info("liveness failed", "signals", u.PassedCount, "elapsed", elapsed)
		return u, nil
	}

	u := m.report(s, VerdictPending, elapsed)
	u.Skipped = skipped
	if elapsed > m.params.HintAfter {
		u.Hint = m.hint(s, elapsed)
	}
	return u, nil
}

func (m *Machine) checkBlink(s *session, det *detection.Detection) {
	s.ear.push(signals.AverageEAR(det))
	s.smoothedEAR = s.ear.mean()

	if s.smoothedEAR < m.params.EARThreshold {
		s.eyesClosed = true
		return
	}
	if s.eyesClosed {
		s.eyesClosed = false
		s.blinkCount++
		s.blinkDetected = true
	}
}

func (m *Machine) checkSmile(s *session, happy float64) {
	s.happyScore = happy
	if happy > m.params.SmileThreshold {
		s.smileFrames++
		if s.smileFrames >= m.params.SmileFrames {
			s.smileDetected = true
		}
		return
	}
	if s.smileFrames > 0 {
		s.smileFrames--
	}
}

func (m *Machine) checkHeadTurn(s *session, det *detection.Detection) {
	nose, _ := det.Group(detection.GroupNose)
	x, ok := signals.NoseTipX(nose)
	if !ok {
		return
	}
	if s.refNoseX == nil {
		s.refNoseX = &x
		return
	}
	if math.Abs(x-*s.refNoseX) > m.params.HeadTurnPixels {
		s.headTurnCount++
		if s.headTurnCount >= m.params.HeadTurnFrames {
			s.headTurnDetected = true
		}
	}
}

func (m *Machine) checkMovement(s *session, det *detection.Detection) {
	corner := signals.Corner(det.Box)
	if prev := s.lastCorner; prev != nil {
		dx := math.Abs(corner.X - prev.X)
		dy := math.Abs(corner.Y - prev.Y)
		if dx > m.params.MovementPixels || dy > m.params.MovementPixels {
			s.movementCount++
			if s.movementCount >= m.params.MovementFrames {
				s.movementDetected = true
			}
		}
	}
	s.lastCorner = &corner
}

func (m *Machine) hint(s *session, elapsed time.Duration) *Hint {
	remaining := int(math.Ceil(float64(m.params.Timeout-elapsed) / float64(time.Second)))
	h := &Hint{RemainingSeconds: remaining}
	for _, sig := range AllSignals {
		if len(h.Try) >= m.params.MaxHintSignals {
			break
		}
		if !s.detected(sig) {
			h.Try = append(h.Try, sig)
		}
	}
	return h
}

func (m *Machine) report(s *session, verdict Verdict, elapsed time.Duration) Update {
	return Update{
		Verdict: verdict,
		Statuses: []SignalStatus{
			m.blinkStatus(s, verdict),
			progressStatus(SignalSmile, s.smileDetected, s.smileFrames, m.params.SmileFrames, verdict),
			progressStatus(SignalHeadTurn, s.headTurnDetected, s.headTurnCount, m.params.HeadTurnFrames, verdict),
			progressStatus(SignalMovement, s.movementDetected, s.movementCount, m.params.MovementFrames, verdict),
		},
		PassedCount: s.passedCount(),
		Required:    m.params.RequiredSignals,
		SmoothedEAR: s.smoothedEAR,
		HappyScore:  s.happyScore,
		Elapsed:     elapsed,
	}
}

func (m *Machine) blinkStatus(s *session, verdict Verdict) SignalStatus {
	st := SignalStatus{Signal: SignalBlink, Progress: s.blinkCount}
	switch {
	case s.blinkDetected:
		st.State = StateDetected
	case verdict == VerdictFailed:
		st.State = StateFailed
	case s.eyesClosed:
		st.State = StateClosing
	default:
		st.State = StatePending
	}
	st.Label = label(SignalBlink, st)
	return st
}

func progressStatus(sig Signal, detected bool, count, required int, verdict Verdict) SignalStatus {
	st := SignalStatus{Signal: sig, Progress: min(count, required), Required: required}
	switch {
	case detected:
		st.State = StateDetected
	case verdict == VerdictFailed:
		st.State = StateFailed
	case count > 0:
		st.State = StateProgress
	default:
		st.State = StatePending
	}
	st.Label = label(sig, st)
	return st
}

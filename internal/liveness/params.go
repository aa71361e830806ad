package liveness

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// Params tunes the four liveness checks and the session budget.
type Params struct {
	EARThreshold    float64       `yaml:"ear_threshold"`
	EARWindow       int           `yaml:"ear_window"`
	SmileThreshold  float64       `yaml:"smile_threshold"`
	SmileFrames     int           `yaml:"smile_frames"`
	HeadTurnPixels  float64       `yaml:"head_turn_pixels"`
	HeadTurnFrames  int           `yaml:"head_turn_frames"`
	MovementPixels  float64       `yaml:"movement_pixels"`
	MovementFrames  int           `yaml:"movement_frames"`
	RequiredSignals int           `yaml:"required_signals"`
	Timeout         time.Duration `yaml:"timeout"`
	HintAfter       time.Duration `yaml:"hint_after"`
	MaxHintSignals  int           `yaml:"max_hint_signals"`
}

// DefaultParams returns the stock kiosk tuning.
func DefaultParams() Params {
	return Params{
		EARThreshold:    constants.EARThreshold,
		EARWindow:       constants.EARWindow,
		SmileThreshold:  constants.SmileThreshold,
		SmileFrames:     constants.SmileFrames,
		HeadTurnPixels:  constants.HeadTurnPixels,
		HeadTurnFrames:  constants.HeadTurnFrames,
		MovementPixels:  constants.MovementPixels,
		MovementFrames:  constants.MovementFrames,
		RequiredSignals: constants.RequiredSignals,
		Timeout:         constants.LivenessTimeout,
		HintAfter:       constants.LivenessHintAfter,
		MaxHintSignals:  constants.MaxHintSignals,
	}
}

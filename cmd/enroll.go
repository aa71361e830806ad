package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/kozaktomas/face-attendance/internal/liveness"
	"github.com/kozaktomas/face-attendance/internal/thumbnail"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll --name <name> <recording.jsonl>",
	Short: "Enroll a person from a recorded liveness session",
	Long: `Runs a liveness check over a recording of detector observations and, if
it passes, enrolls the captured face under --name.

With --bypass (and ALLOW_LIVENESS_BYPASS=true) the first usable face of the
recording is captured without a liveness check.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Name to enroll the face under")
	_ = enrollCmd.MarkFlagRequired("name")
	enrollCmd.Flags().String("frame", "", "Camera image to build the thumbnail from")
	enrollCmd.Flags().Bool("bypass", false, "Capture without a liveness check")
	enrollCmd.Flags().Duration("interval", 0, "Clock step for observations without a timestamp (default DETECTOR_INTERVAL)")
}

var errLivenessNotPassed = errors.New("liveness check did not pass")

func runEnroll(cmd *cobra.Command, args []string) error {
	name, path := mustGetString(cmd, "name"), args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	interval := cfg.Detector.Interval
	if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
		interval = d
	}

	var frame []byte
	if framePath := mustGetString(cmd, "frame"); framePath != "" {
		frame, err = os.ReadFile(framePath)
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
	}

	ctx := cmd.Context()
	src, err := detector.OpenReplay(path)
	if err != nil {
		return err
	}
	defer src.Close()

	eng, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	rc := newReplayClock(interval)
	orch := eng.orchestrator(cfg, rc.clk)

	if mustGetBool(cmd, "bypass") {
		err = captureFirstFace(cmd, src, rc, orch)
	} else {
		err = captureLive(cmd, src, rc, orch)
	}
	if err != nil {
		return err
	}

	capture, _ := orch.PendingCapture()
	var thumb []byte
	if frame != nil {
		thumb, err = thumbnail.Make(frame, &capture.Box)
		if err != nil {
			return fmt.Errorf("building thumbnail: %w", err)
		}
	}

	ident, err := orch.Enroll(ctx, name, thumb)
	if ident == nil {
		return err
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, tick.MessageSaveFaces)
		return err
	}
	fmt.Printf("Face registered for %s! (id %s)\n", ident.Name, ident.ID)
	return nil
}

// captureLive runs a liveness session over the recording.
func captureLive(cmd *cobra.Command, src detector.Source, rc *replayClock, orch *tick.Orchestrator) error {
	if err := orch.StartLiveness(); err != nil {
		return err
	}
	fmt.Println(tick.MessageLivenessStarted)

	var last *liveness.Update
	err := replay(cmd.Context(), src, rc, orch, func(res tick.Result) bool {
		if res.Liveness == nil {
			return true
		}
		last = res.Liveness
		return last.Verdict == liveness.VerdictPending
	})
	if err != nil {
		return err
	}

	switch {
	case last == nil:
		orch.CancelLiveness()
		return fmt.Errorf("%w: no face in the recording", errLivenessNotPassed)
	case last.Verdict == liveness.VerdictPassed:
		fmt.Println(tick.MessageVerified)
		return nil
	case last.Verdict == liveness.VerdictFailed:
		return fmt.Errorf("%w: %s", errLivenessNotPassed, tick.MessagePhotoDetected)
	}
	orch.CancelLiveness()
	return fmt.Errorf("%w: recording ended after %d of %d signals", errLivenessNotPassed, last.PassedCount, last.Required)
}

// captureFirstFace captures the first observation with a usable face.
func captureFirstFace(cmd *cobra.Command, src detector.Source, rc *replayClock, orch *tick.Orchestrator) error {
	for {
		obs, err := src.Observe(cmd.Context())
		if err != nil {
			return fmt.Errorf("no usable face in the recording: %w", err)
		}
		rc.step(obs)
		_, err = orch.CaptureDirect(obs)
		if errors.Is(err, tick.ErrNoFace) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Println(tick.MessageCaptured)
		return nil
	}
}

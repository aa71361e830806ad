package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/clock"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

var replayCmd = &cobra.Command{
	Use:   "replay <recording.jsonl>",
	Short: "Run recorded detector observations through the kiosk",
	Long: `Replays a recording of detector observations, one JSON observation per
line, through recognition and the attendance ledger. Observation timestamps
drive the clock; lines without one advance it by --interval.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Duration("interval", 0, "Clock step for observations without a timestamp (default DETECTOR_INTERVAL)")
	replayCmd.Flags().Bool("quiet", false, "Hide the progress spinner")
}

// replayClock positions a fake clock for each replayed observation.
type replayClock struct {
	clk      *clock.FakeClock
	interval time.Duration
	started  bool
}

func newReplayClock(interval time.Duration) *replayClock {
	return &replayClock{clk: clock.Fake(time.Now()), interval: interval}
}

// step moves the clock to obs.At, or by one interval when obs has no timestamp.
func (c *replayClock) step(obs detection.Observation) {
	switch {
	case !obs.At.IsZero():
		c.clk.Set(obs.At)
	case c.started:
		c.clk.Advance(c.interval)
	}
	c.started = true
}

// replayStats counts what a replay did.
type replayStats struct {
	ticks      int
	faces      int
	recorded   int
	duplicates int
	saveErrors int
}

func (s *replayStats) add(res tick.Result) {
	s.ticks++
	s.faces += res.FaceCount
	for _, ev := range res.Sightings {
		switch ev.Outcome {
		case ledger.OutcomeRecorded:
			s.recorded++
		case ledger.OutcomeDuplicateToday:
			s.duplicates++
		}
	}
	if res.Status == tick.MessageSaveAttendance {
		s.saveErrors++
	}
}

// replay feeds every observation of src through orch until src is exhausted.
// each is called after every tick; returning false stops the replay.
func replay(ctx context.Context, src detector.Source, rc *replayClock, orch *tick.Orchestrator, each func(tick.Result) bool) error {
	for {
		obs, err := src.Observe(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		rc.step(obs)
		if !each(orch.Tick(ctx, obs)) {
			return nil
		}
	}
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	interval := cfg.Detector.Interval
	if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
		interval = d
	}

	ctx := cmd.Context()
	src, err := detector.OpenReplay(args[0])
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

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Replaying observations"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("ticks"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetVisibility(!mustGetBool(cmd, "quiet")),
	)

	var stats replayStats
	err = replay(ctx, src, rc, orch, func(res tick.Result) bool {
		stats.add(res)
		for _, ev := range res.Sightings {
			bar.Clear()
			fmt.Printf("%s  %-24s %s\n", res.At.In(cfg.Location).Format(time.DateTime), ev.Name, ev.Message)
		}
		_ = bar.Add(1)
		return true
	})
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("replay stopped at line %d: %w", src.Line(), err)
	}

	fmt.Printf("\nTicks:       %d\n", stats.ticks)
	fmt.Printf("Faces seen:  %d\n", stats.faces)
	fmt.Printf("Recorded:    %d\n", stats.recorded)
	fmt.Printf("Duplicates:  %d\n", stats.duplicates)
	if stats.saveErrors > 0 {
		fmt.Printf("Save errors: %d\n", stats.saveErrors)
	}
	return nil
}

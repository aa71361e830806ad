package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/ledger"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect and manage the attendance ledger",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runAttendanceList,
}

var attendanceExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export attendance records as CSV",
	Long: `Writes every attendance record as CSV. Without a file argument the output
goes to attendance_<date>.csv in the current directory; "-" writes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAttendanceExport,
}

var attendanceClearTodayCmd = &cobra.Command{
	Use:   "clear-today",
	Short: "Delete today's attendance records",
	Args:  cobra.NoArgs,
	RunE:  runAttendanceClearToday,
}

var attendanceClearAllCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Delete every attendance record",
	Args:  cobra.NoArgs,
	RunE:  runAttendanceClearAll,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceListCmd, attendanceExportCmd, attendanceClearTodayCmd, attendanceClearAllCmd)

	attendanceListCmd.Flags().Bool("today", false, "Only show today's records")
	attendanceClearAllCmd.Flags().Bool("yes", false, "Confirm deleting every record")
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	now := time.Now()
	todayOnly := mustGetBool(cmd, "today")
	y, m, d := now.In(cfg.Location).Date()

	for _, r := range eng.ledger.Records() {
		ts := r.Timestamp.In(cfg.Location)
		if todayOnly {
			if ry, rm, rd := ts.Date(); ry != y || rm != m || rd != d {
				continue
			}
		}
		fmt.Printf("%s  %-24s  %s\n", ts.Format(time.DateTime), r.Name, r.Status)
	}

	today, total := eng.ledger.Counts(now)
	fmt.Printf("\nToday: %d  Total: %d\n", today, total)
	return nil
}

func runAttendanceExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	path := ledger.ExportFileName(time.Now())
	if len(args) == 1 {
		path = args[0]
	}
	if path == "-" {
		return eng.ledger.ExportCSV(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := eng.ledger.ExportCSV(f); err != nil {
		f.Close()
		os.Remove(path)
		if errors.Is(err, ledger.ErrNoRecords) {
			return errors.New("no attendance records to export")
		}
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Printf("Exported %d records to %s\n", len(eng.ledger.Records()), path)
	return nil
}

func runAttendanceClearToday(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	removed, err := eng.ledger.ClearDay(cmd.Context(), time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Today's attendance cleared (%d removed).\n", removed)
	return nil
}

func runAttendanceClearAll(cmd *cobra.Command, args []string) error {
	if !mustGetBool(cmd, "yes") {
		return errors.New("refusing to delete every record without --yes")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := openEngine(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer eng.Close()

	removed, err := eng.ledger.ClearAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("All attendance records cleared (%d removed).\n", removed)
	return nil
}

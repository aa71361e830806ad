package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/clock"
	"github.com/kozaktomas/face-attendance/internal/detector"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/tick"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk web server",
	Long: `Start the Face Attendance web server.

The server exposes the REST API, the event stream and the kiosk page. When
DETECTOR_URL is set it also polls the detector for observations; otherwise
observations are pushed to POST /api/v1/ticks or over the websocket.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("detector", "", "Detector base URL to poll (overrides DETECTOR_URL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if url := mustGetString(cmd, "detector"); url != "" {
		cfg.Detector.URL = url
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	eng, err := openEngine(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer eng.Close()

	clk := clock.Real()
	orch := eng.orchestrator(cfg, clk)
	events := handlers.NewEventBroadcaster()

	var source detector.Source
	if cfg.Detector.URL != "" {
		source = detector.NewClient(cfg.Detector.URL, cfg.Detector.Timeout)
	}

	server := web.NewServer(cfg, web.Deps{
		Orchestrator: orch,
		Registry:     eng.registry,
		Ledger:       eng.ledger,
		Events:       events,
		Clock:        clk,
		Source:       source,
		Gatherer:     prometheus.DefaultGatherer,
	})

	var wg sync.WaitGroup
	if source != nil {
		runner := &tick.Runner{
			Source:       source,
			Orchestrator: orch,
			Interval:     cfg.Detector.Interval,
			Publish:      events.PublishTick,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("polling detector", "url", cfg.Detector.URL, "interval", cfg.Detector.Interval)
			if err := runner.Run(ctx); err != nil {
				slog.Error("tick loop stopped", "error", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	fmt.Printf("Face Attendance kiosk on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err = <-serverErr:
		stop()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			slog.Error("error during shutdown", "error", shutdownErr)
		}
		err = <-serverErr
	}

	wg.Wait()
	orch.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

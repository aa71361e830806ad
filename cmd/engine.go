package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/clock"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/filestore"
	"github.com/kozaktomas/face-attendance/internal/database/mariadb"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/database/sqlite"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/registry"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

// engine is the loaded state shared by every command.
type engine struct {
	store    database.BlobStore
	registry *registry.Registry
	ledger   *ledger.Ledger
	metrics  *metrics.Metrics
}

// registerBackends makes every store URL scheme available to database.Open.
func registerBackends(cfg *config.Config) {
	filestore.Register()
	sqlite.Register()
	postgres.Register(&cfg.Store)
	mariadb.Register(&cfg.Store)
}

// openEngine opens the configured store and loads both collections. A
// collection that fails to load starts empty.
func openEngine(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*engine, error) {
	registerBackends(cfg)

	store, err := database.Open(ctx, cfg.Store.URL)
	if err != nil {
		return nil, err
	}
	codec, err := database.CodecByName(cfg.Store.Codec)
	if err != nil {
		store.Close()
		return nil, err
	}
	repo := database.NewRepository(store, codec)

	th := cfg.Thresholds
	reg := registry.New(repo, registry.Options{
		Match: facematch.MatcherOptions{
			Threshold:       th.Match.Threshold,
			IndexMinSize:    th.Match.IndexMinSize,
			IndexCandidates: th.Match.IndexCandidates,
		},
		Metrics: m,
	})
	led := ledger.New(repo, ledger.Options{
		Throttle:   th.Ledger.Throttle,
		Location:   cfg.Location,
		DateLayout: cfg.Export.DateLayout,
		TimeLayout: cfg.Export.TimeLayout,
		Metrics:    m,
	})

	if err := reg.Load(ctx); err != nil {
		slog.Error("loading enrolled identities failed, starting empty", "error", err)
	}
	if err := led.Load(ctx); err != nil {
		slog.Error("loading attendance records failed, starting empty", "error", err)
	}
	slog.Info("store opened",
		"url", redactStoreURL(cfg.Store.URL),
		"codec", codec.Name(),
		"identities", reg.Count(),
		"records", len(led.Records()))

	return &engine{store: store, registry: reg, ledger: led, metrics: m}, nil
}

// orchestrator builds the tick orchestrator over the engine.
func (e *engine) orchestrator(cfg *config.Config, clk clock.Clock) *tick.Orchestrator {
	return tick.New(cfg.Thresholds.Liveness, e.registry, e.ledger, tick.Options{
		Clock:               clk,
		AllowLivenessBypass: cfg.AllowLivenessBypass,
		Metrics:             e.metrics,
	})
}

func (e *engine) Close() error {
	if err := e.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// redactStoreURL hides credentials in a store URL for logging.
func redactStoreURL(url string) string {
	scheme, dsn, err := database.SplitStoreURL(url)
	if err != nil {
		return url
	}
	if at := strings.LastIndexByte(dsn, '@'); at >= 0 {
		return scheme + "://***" + dsn[at:]
	}
	return url
}

//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.StoreConfig{
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := Open(ctx, dbURL, cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open store: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestBlobStore(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	t.Run("LoadMissing", func(t *testing.T) {
		data, err := pool.Load(ctx, database.KeyIdentities)
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if data != nil {
			t.Errorf("Expected nil data, got %d bytes", len(data))
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		if err := pool.Save(ctx, database.KeyAttendance, []byte(`[{"id":"1"}]`)); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}
		if err := pool.Save(ctx, database.KeyAttendance, []byte(`[]`)); err != nil {
			t.Fatalf("Failed to save: %v", err)
		}

		data, err := pool.Load(ctx, database.KeyAttendance)
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("Expected '[]', got '%s'", data)
		}

		var history int
		if err := pool.DB().QueryRowContext(ctx,
			"SELECT COUNT(*) FROM blob_history WHERE key = $1", database.KeyAttendance).Scan(&history); err != nil {
			t.Fatalf("Failed to count history: %v", err)
		}
		if history != 2 {
			t.Errorf("Expected 2 history rows, got %d", history)
		}
	})

	t.Run("Repository", func(t *testing.T) {
		repo := database.NewRepository(pool, nil)
		identities := []database.EnrolledIdentity{
			{ID: "id-1", Name: "Ada", Signature: make([]float32, 128), EnrolledAt: time.Now().UTC().Truncate(time.Second)},
		}
		if err := repo.SaveIdentities(ctx, identities); err != nil {
			t.Fatalf("Failed to save identities: %v", err)
		}
		got, err := repo.LoadIdentities(ctx)
		if err != nil {
			t.Fatalf("Failed to load identities: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Ada" {
			t.Errorf("Unexpected identities: %+v", got)
		}
	})

	t.Run("MigrationsApplied", func(t *testing.T) {
		versions, err := pool.MigrationsApplied(ctx)
		if err != nil {
			t.Fatalf("Failed to list migrations: %v", err)
		}
		if len(versions) != 2 || versions[0] != "001_blobs.sql" {
			t.Errorf("Unexpected migrations: %v", versions)
		}
	})
}

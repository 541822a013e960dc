package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/config"
	"github.com/nexuscrm/registry/internal/infrastructure/database"
	"github.com/nexuscrm/registry/pkg/constants"
)

// TestdataPath returns the path of a file in the module's testdata directory,
// found by walking up from the working directory to go.mod
func TestdataPath(t testing.TB, name string) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "testdata", name)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above working directory")
		}
		dir = parent
	}
}

// NewTestServiceManager wires services over a fresh in-memory SQLite database
// with the test models registered and migrated
func NewTestServiceManager(t testing.TB) *ServiceManager {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		Database:   config.DatabaseConfig{Driver: constants.DriverSQLite, DSN: "file::memory:"},
		Cache:      config.CacheConfig{TTL: time.Minute, Cleanup: time.Minute},
		ModelsFile: TestdataPath(t, "models.yaml"),
	}
	log := zap.NewNop()

	conn, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	sm, err := NewServiceManager(conn, cfg, log)
	if err != nil {
		t.Fatalf("wiring services: %v", err)
	}
	if err := sm.Migrate(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return sm
}

// SetupIntegrationTest returns services loaded with the registry fixtures
func SetupIntegrationTest(t testing.TB) (*ServiceManager, Identifiers) {
	t.Helper()
	sm := NewTestServiceManager(t)
	ids, err := sm.Fixtures.LoadFiles(context.Background(), TestdataPath(t, "fixtures.yaml"))
	if err != nil {
		t.Fatalf("loading fixtures: %v", err)
	}
	return sm, ids
}

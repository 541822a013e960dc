package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/config"
	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/internal/infrastructure/cache"
	"github.com/nexuscrm/registry/internal/infrastructure/database"
	"github.com/nexuscrm/registry/internal/infrastructure/persistence"
	"github.com/nexuscrm/registry/pkg/expression"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db  *database.Connection
	log *zap.Logger

	Engine   *expression.Engine
	Schema   *persistence.SchemaRepository
	Metadata *MetadataService
	Pages    *PageService
	Registry *RegistryService
	Fixtures *FixtureService
	Import   *ImportService
}

// NewServiceManager wires every service on top of an open connection and
// registers the configured models
func NewServiceManager(db *database.Connection, cfg *config.Config, log *zap.Logger) (*ServiceManager, error) {
	sm := &ServiceManager{db: db, log: log}

	sm.Engine = expression.NewEngine()
	sm.Metadata = NewMetadataService(sm.Engine, log)
	if len(cfg.Models) > 0 {
		if err := sm.Metadata.Register(cfg.Models...); err != nil {
			return nil, fmt.Errorf("registering models: %w", err)
		}
	}
	if cfg.ModelsFile != "" {
		if err := sm.Metadata.LoadFile(cfg.ModelsFile); err != nil {
			return nil, fmt.Errorf("loading models: %w", err)
		}
	}

	records := persistence.NewRecordRepository(db)
	sm.Schema = persistence.NewSchemaRepository(db, db.Driver())

	pageCache := cache.New[*models.RegistryPage](cfg.Cache.TTL, cfg.Cache.Cleanup)
	sm.Pages = NewPageService(persistence.NewPageRepository(records), sm.Metadata, pageCache, log)
	sm.Registry = NewRegistryService(sm.Metadata, records, sm.Engine, cfg.Export.FilenamePrefix, log)
	sm.Fixtures = NewFixtureService(sm.Metadata, records, sm.Pages, log)
	sm.Import = NewImportService(sm.Metadata, records, persistence.NewTransactionManager(db), log)

	return sm, nil
}

// Migrate creates the tables of every registered model
func (sm *ServiceManager) Migrate(ctx context.Context) error {
	for _, schema := range sm.Metadata.GetSchemas() {
		if err := sm.Schema.EnsureTable(ctx, schema); err != nil {
			return fmt.Errorf("migrating %s: %w", schema.APIName, err)
		}
	}
	sm.log.Info("schema migrated", zap.Int("models", len(sm.Metadata.GetSchemas())))
	return nil
}

// DB returns the underlying connection
func (sm *ServiceManager) DB() *database.Connection {
	return sm.db
}

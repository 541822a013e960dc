package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/internal/infrastructure/persistence"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/fieldtypes"
)

// Identifiers maps "Model.identifier" fixture keys to the IDs they were stored under
type Identifiers map[string]int64

// ID returns the ID of a loaded fixture, or 0
func (ids Identifiers) ID(model, identifier string) int64 {
	return ids[model+"."+identifier]
}

// FixtureService loads YAML fixture files: model -> identifier -> field values.
// A value "$Model.identifier" is replaced by the ID of that earlier fixture.
type FixtureService struct {
	metadata *MetadataService
	records  *persistence.RecordRepository
	pages    *PageService
	log      *zap.Logger
}

// NewFixtureService creates a FixtureService
func NewFixtureService(metadata *MetadataService, records *persistence.RecordRepository, pages *PageService, log *zap.Logger) *FixtureService {
	return &FixtureService{metadata: metadata, records: records, pages: pages, log: log}
}

// LoadFiles loads fixture files in order; later files may reference earlier ones
func (fs *FixtureService) LoadFiles(ctx context.Context, paths ...string) (Identifiers, error) {
	ids := make(Identifiers)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading fixtures: %w", err)
		}
		if err := fs.Load(ctx, data, ids); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return ids, nil
}

// Load stores the fixtures of one YAML document, recording their IDs in ids.
// Models and records are stored in document order.
func (fs *FixtureService) Load(ctx context.Context, data []byte, ids Identifiers) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing fixtures: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("fixtures must map model names to records")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		modelName := root.Content[i].Value
		schema, err := fs.metadata.GetSchemaOrError(modelName)
		if err != nil {
			return err
		}

		entries := root.Content[i+1]
		if entries.Kind != yaml.MappingNode {
			return fmt.Errorf("fixtures of %s must map identifiers to fields", modelName)
		}
		for j := 0; j+1 < len(entries.Content); j += 2 {
			identifier := entries.Content[j].Value
			var raw map[string]interface{}
			if err := entries.Content[j+1].Decode(&raw); err != nil {
				return fmt.Errorf("%s.%s: %w", modelName, identifier, err)
			}

			id, err := fs.insert(ctx, schema, raw, ids)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", modelName, identifier, err)
			}
			ids[schema.APIName+"."+identifier] = id
		}
	}
	return nil
}

func (fs *FixtureService) insert(ctx context.Context, schema *models.ObjectMetadata, raw map[string]interface{}, ids Identifiers) (int64, error) {
	registry := fieldtypes.GetRegistry()
	rec := make(models.Record, len(raw))

	for key, value := range raw {
		f := schema.GetField(key)
		if f == nil {
			f = schema.GetRelationship(key)
		}
		if f == nil {
			return 0, fmt.Errorf("unknown field %q", key)
		}

		if ref, ok := value.(string); ok && strings.HasPrefix(ref, "$") {
			id, found := ids[strings.TrimPrefix(ref, "$")]
			if !found {
				return 0, fmt.Errorf("unresolved reference %s", ref)
			}
			value = id
		}

		coerced, err := registry.Coerce(f.Type, value)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", f.APIName, err)
		}
		rec[f.APIName] = coerced
	}

	if schema.APIName == constants.ModelRegistryPage {
		page := models.PageFromRecord(rec)
		if err := fs.pages.Create(ctx, page); err != nil {
			return 0, err
		}
		return page.ID, nil
	}

	id, err := fs.records.Insert(ctx, nil, schema.TableName, rec)
	if err != nil {
		return 0, err
	}
	fs.log.Debug("fixture loaded", zap.String("model", schema.APIName), zap.Int64("id", id))
	return id, nil
}

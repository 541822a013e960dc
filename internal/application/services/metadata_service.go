package services

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/errors"
	"github.com/nexuscrm/registry/pkg/expression"
	"github.com/nexuscrm/registry/pkg/fieldtypes"
	"github.com/nexuscrm/registry/pkg/query"
	"github.com/nexuscrm/registry/pkg/utils"
)

// MetadataService is the registry of models pages can list
type MetadataService struct {
	engine *expression.Engine
	log    *zap.Logger
	mu     sync.RWMutex

	schemas   []*models.ObjectMetadata
	schemaMap map[string]*models.ObjectMetadata // key: lower-cased API name
}

// NewMetadataService creates a MetadataService holding the built-in RegistryPage model
func NewMetadataService(engine *expression.Engine, log *zap.Logger) *MetadataService {
	ms := &MetadataService{
		engine:    engine,
		log:       log,
		schemaMap: make(map[string]*models.ObjectMetadata),
	}
	if err := ms.Register(models.RegistryPageModel()); err != nil {
		panic(fmt.Sprintf("built-in model invalid: %v", err))
	}
	return ms
}

// Register validates and adds models. Models may reference each other and
// any model registered earlier. Nothing is registered when one fails.
func (ms *MetadataService) Register(defs ...models.ObjectMetadata) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	batch := make(map[string]*models.ObjectMetadata, len(defs))
	ordered := make([]*models.ObjectMetadata, 0, len(defs))
	for i := range defs {
		obj := defs[i]
		if !query.IsValidIdentifier(obj.APIName) {
			return errors.NewValidationError("api_name", fmt.Sprintf("invalid model name %q", obj.APIName))
		}
		key := strings.ToLower(obj.APIName)
		if _, dup := batch[key]; dup {
			return errors.NewConflictError("Model", "api_name", obj.APIName)
		}
		if _, exists := ms.schemaMap[key]; exists {
			return errors.NewConflictError("Model", "api_name", obj.APIName)
		}
		applyDefaults(&obj)
		batch[key] = &obj
		ordered = append(ordered, &obj)
	}

	get := func(name string) *models.ObjectMetadata {
		key := strings.ToLower(name)
		if obj, ok := batch[key]; ok {
			return obj
		}
		return ms.schemaMap[key]
	}

	for _, obj := range ordered {
		if err := ms.validate(obj, get); err != nil {
			return err
		}
	}

	for _, obj := range ordered {
		ms.schemaMap[strings.ToLower(obj.APIName)] = obj
		ms.schemas = append(ms.schemas, obj)
		ms.log.Debug("model registered", zap.String("model", obj.APIName), zap.Int("fields", len(obj.Fields)))
	}
	sort.Slice(ms.schemas, func(i, j int) bool { return ms.schemas[i].APIName < ms.schemas[j].APIName })
	return nil
}

// modelsFile is the layout of a standalone model definitions file
type modelsFile struct {
	Models []models.ObjectMetadata `yaml:"models"`
}

// LoadFile registers the models defined in a YAML file
func (ms *MetadataService) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading models file: %w", err)
	}

	var file modelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing models file %s: %w", path, err)
	}
	if err := ms.Register(file.Models...); err != nil {
		return fmt.Errorf("registering models from %s: %w", path, err)
	}

	ms.log.Info("models loaded", zap.String("file", path), zap.Int("count", len(file.Models)))
	return nil
}

// GetSchema returns a model by API name (case-insensitive), or nil
func (ms *MetadataService) GetSchema(apiName string) *models.ObjectMetadata {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.schemaMap[strings.ToLower(apiName)]
}

// GetSchemaOrError returns the schema or a NotFoundError if not found
func (ms *MetadataService) GetSchemaOrError(apiName string) (*models.ObjectMetadata, error) {
	schema := ms.GetSchema(apiName)
	if schema == nil {
		return nil, errors.NewNotFoundError("Model", apiName)
	}
	return schema, nil
}

// GetSchemas returns every model ordered by API name
func (ms *MetadataService) GetSchemas() []*models.ObjectMetadata {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]*models.ObjectMetadata, len(ms.schemas))
	copy(out, ms.schemas)
	return out
}

// ResolvePath resolves a field or Relation.Field path of obj
func (ms *MetadataService) ResolvePath(obj *models.ObjectMetadata, path string) (*ResolvedField, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return resolvePath(obj, path, func(name string) *models.ObjectMetadata {
		return ms.schemaMap[strings.ToLower(name)]
	})
}

// applyDefaults fills labels, table name, sort and the default searchable
// and summary field sets
func applyDefaults(obj *models.ObjectMetadata) {
	registry := fieldtypes.GetRegistry()

	if obj.TableName == "" {
		obj.TableName = obj.APIName
	}
	if obj.Label == "" {
		obj.Label = utils.Humanize(obj.APIName)
	}
	if obj.PluralLabel == "" {
		obj.PluralLabel = obj.Label + "s"
	}

	obj.Fields = append([]models.FieldMetadata(nil), obj.Fields...)
	for i := range obj.Fields {
		f := &obj.Fields[i]
		if f.Label == "" {
			f.Label = utils.Humanize(f.APIName)
		}
		if f.IsLookup() && f.RelationshipName == "" {
			f.RelationshipName = strings.TrimSuffix(f.APIName, constants.FieldID)
			if f.RelationshipName == "" {
				f.RelationshipName = f.APIName
			}
		}
	}

	if len(obj.SearchableFields) == 0 {
		for _, f := range obj.Fields {
			if registry.IsSearchable(f.Type) {
				obj.SearchableFields = append(obj.SearchableFields, models.SearchableField{Name: f.APIName})
			}
		}
	} else {
		obj.SearchableFields = append([]models.SearchableField(nil), obj.SearchableFields...)
	}
	for i := range obj.SearchableFields {
		s := &obj.SearchableFields[i]
		if f := obj.GetField(s.Name); f != nil {
			if s.Label == "" {
				s.Label = f.Label
			}
			if s.Filter == "" {
				s.Filter = registry.DefaultFilter(f.Type)
			}
		}
		if s.Label == "" {
			s.Label = utils.Humanize(s.Name)
		}
		if s.Filter == "" {
			s.Filter = constants.FilterPartial
		}
	}

	if len(obj.SummaryFields) == 0 {
		for _, f := range obj.Fields {
			obj.SummaryFields = append(obj.SummaryFields, models.SummaryField{Name: f.APIName})
		}
	} else {
		obj.SummaryFields = append([]models.SummaryField(nil), obj.SummaryFields...)
	}
	for i := range obj.SummaryFields {
		s := &obj.SummaryFields[i]
		if s.Label != "" {
			continue
		}
		if f := obj.GetField(s.Name); f != nil && !s.IsComputed() {
			s.Label = f.Label
		} else {
			s.Label = utils.Humanize(s.Name)
		}
	}

	if obj.DefaultSort == "" {
		obj.DefaultSort = constants.FieldID
	} else if f := obj.GetField(obj.DefaultSort); f != nil {
		obj.DefaultSort = f.APIName
	}
	obj.DefaultDir, _ = constants.NormalizeSortDirection(obj.DefaultDir)
}

func (ms *MetadataService) validate(obj *models.ObjectMetadata, get func(string) *models.ObjectMetadata) error {
	registry := fieldtypes.GetRegistry()

	if !query.IsValidIdentifier(obj.TableName) {
		return errors.NewValidationError("table_name", fmt.Sprintf("invalid table name %q on %s", obj.TableName, obj.APIName))
	}

	seen := make(map[string]bool, len(obj.Fields))
	for _, f := range obj.Fields {
		if !query.IsValidIdentifier(f.APIName) || strings.EqualFold(f.APIName, constants.FieldID) {
			return errors.NewValidationError("fields", fmt.Sprintf("invalid field name %q on %s", f.APIName, obj.APIName))
		}
		key := strings.ToLower(f.APIName)
		if seen[key] {
			return errors.NewValidationError("fields", fmt.Sprintf("duplicate field %q on %s", f.APIName, obj.APIName))
		}
		seen[key] = true

		if !registry.Exists(f.Type) {
			return errors.NewValidationError("fields", fmt.Sprintf("field %s.%s has unknown type %q", obj.APIName, f.APIName, f.Type))
		}
		if f.IsLookup() {
			if get(f.ReferenceTo) == nil {
				return errors.NewValidationError("fields", fmt.Sprintf("field %s.%s references unknown model %q", obj.APIName, f.APIName, f.ReferenceTo))
			}
			if !query.IsValidIdentifier(f.RelationshipName) || strings.EqualFold(f.RelationshipName, obj.TableName) {
				return errors.NewValidationError("fields", fmt.Sprintf("field %s.%s has invalid relationship name %q", obj.APIName, f.APIName, f.RelationshipName))
			}
		}
	}

	for _, s := range obj.SearchableFields {
		if _, err := resolvePath(obj, s.Name, get); err != nil {
			return errors.NewValidationError("searchable_fields", err.Error())
		}
		if s.Filter != constants.FilterPartial && s.Filter != constants.FilterExact {
			return errors.NewValidationError("searchable_fields", fmt.Sprintf("unknown filter %q for %s", s.Filter, s.Name))
		}
	}

	for _, s := range obj.SummaryFields {
		if s.IsComputed() {
			if s.Name == "" {
				return errors.NewValidationError("summary_fields", "computed summary field needs a name")
			}
			if err := ms.engine.Validate(s.Expression); err != nil {
				return errors.NewValidationError("summary_fields", fmt.Sprintf("expression of %s: %v", s.Name, err))
			}
			continue
		}
		if _, err := resolvePath(obj, s.Name, get); err != nil {
			return errors.NewValidationError("summary_fields", err.Error())
		}
	}

	if obj.TitleExpression != "" {
		if err := ms.engine.Validate(obj.TitleExpression); err != nil {
			return errors.NewValidationError("title_expression", err.Error())
		}
	}

	if obj.DefaultSort != constants.FieldID && obj.GetField(obj.DefaultSort) == nil {
		return errors.NewValidationError("default_sort", fmt.Sprintf("unknown sort field %q on %s", obj.DefaultSort, obj.APIName))
	}
	return nil
}

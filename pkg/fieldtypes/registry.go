package fieldtypes

import (
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/utils"
)

//go:embed fieldTypes.json
var fieldTypesFS embed.FS

// FieldTypeDefinition represents a field type configuration
type FieldTypeDefinition struct {
	Label         string               `json:"label"`
	Description   string               `json:"description"`
	SQLType       map[string]string    `json:"sqlType"`
	IsSearchable  bool                 `json:"isSearchable"`
	IsSortable    bool                 `json:"isSortable"`
	IsFK          bool                 `json:"isFK,omitempty"`
	DefaultFilter constants.FilterType `json:"defaultFilter"`
}

// Registry holds field type definitions
type Registry struct {
	types map[constants.FieldType]FieldTypeDefinition
	mu    sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// GetRegistry returns the singleton field types registry
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = &Registry{
			types: make(map[constants.FieldType]FieldTypeDefinition),
		}
		if err := defaultRegistry.loadFromEmbedded(); err != nil {
			panic(fmt.Sprintf("fieldtypes: invalid embedded definitions: %v", err))
		}
	})
	return defaultRegistry
}

// loadFromEmbedded loads field types from the embedded JSON file
func (r *Registry) loadFromEmbedded() error {
	data, err := fieldTypesFS.ReadFile("fieldTypes.json")
	if err != nil {
		return err
	}

	var types map[constants.FieldType]FieldTypeDefinition
	if err := json.Unmarshal(data, &types); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = types
	return nil
}

// Get returns a field type definition by name
func (r *Registry) Get(typeName constants.FieldType) (FieldTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.types[typeName]
	return def, ok
}

// Exists reports whether typeName is a known field type
func (r *Registry) Exists(typeName constants.FieldType) bool {
	_, ok := r.Get(typeName)
	return ok
}

// GetSQLType returns the column type for a field type in the given dialect
func (r *Registry) GetSQLType(typeName constants.FieldType, driver string) string {
	def, ok := r.Get(typeName)
	if !ok {
		return ""
	}
	return def.SQLType[driver]
}

// IsSearchable returns whether a field type is searchable by default
func (r *Registry) IsSearchable(typeName constants.FieldType) bool {
	def, ok := r.Get(typeName)
	return ok && def.IsSearchable
}

// IsSortable returns whether results can be ordered by a field of this type
func (r *Registry) IsSortable(typeName constants.FieldType) bool {
	def, ok := r.Get(typeName)
	return ok && def.IsSortable
}

// Format renders a stored value of the given type for display. Numbers are
// printed without trailing zeros so DECIMAL and NUMERIC columns agree.
func (r *Registry) Format(typeName constants.FieldType, val interface{}) string {
	if typeName == constants.FieldTypeNumber && val != nil {
		if f, err := utils.ToFloat64(val); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return utils.FormatValue(val)
}

// IsFK returns whether a field type is a foreign key reference
func (r *Registry) IsFK(typeName constants.FieldType) bool {
	def, ok := r.Get(typeName)
	return ok && def.IsFK
}

// DefaultFilter returns the filter a searchable field of this type gets when none is configured
func (r *Registry) DefaultFilter(typeName constants.FieldType) constants.FilterType {
	def, ok := r.Get(typeName)
	if !ok || def.DefaultFilter == "" {
		return constants.FilterPartial
	}
	return def.DefaultFilter
}

// Coerce converts a raw text value (CSV cell, fixture scalar) into the value
// stored for a field of the given type. Blank input is stored as NULL.
func (r *Registry) Coerce(typeName constants.FieldType, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}

	switch typeName {
	case constants.FieldTypeText, constants.FieldTypeLongText:
		return utils.FormatValue(raw), nil
	case constants.FieldTypeNumber:
		if f, ok := raw.(float64); ok && f != math.Trunc(f) {
			return f, nil
		}
		if n, err := utils.ToInt64(raw); err == nil {
			return n, nil
		}
		f, err := utils.ToFloat64(raw)
		if err != nil {
			return nil, fmt.Errorf("%v is not a number", raw)
		}
		return f, nil
	case constants.FieldTypeBoolean:
		if utils.ToBool(raw) {
			return 1, nil
		}
		return 0, nil
	case constants.FieldTypeDate:
		s := utils.FormatValue(raw)
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, fmt.Errorf("%q is not a date (YYYY-MM-DD)", s)
		}
		return s, nil
	case constants.FieldTypeLookup:
		id, err := utils.ToInt64(raw)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%v is not a record id", raw)
		}
		return id, nil
	}
	return nil, fmt.Errorf("unknown field type %q", typeName)
}

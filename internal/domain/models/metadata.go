package models

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/fieldtypes"
)

// FieldMetadata represents a stored column of a model
type FieldMetadata struct {
	APIName          string              `json:"api_name" yaml:"api_name"`
	Label            string              `json:"label" yaml:"label,omitempty"`
	Type             constants.FieldType `json:"type" yaml:"type"`
	Unique           bool                `json:"unique,omitempty" yaml:"unique,omitempty"`
	ReferenceTo      string              `json:"reference_to,omitempty" yaml:"reference_to,omitempty"`           // Lookup target model
	RelationshipName string              `json:"relationship_name,omitempty" yaml:"relationship_name,omitempty"` // Name used in Relation.Field paths
}

// IsLookup reports whether the field references another model
func (f FieldMetadata) IsLookup() bool {
	return fieldtypes.GetRegistry().IsFK(f.Type)
}

// SearchableField is a filter input of the registry form.
// Name is a field of the model or a Relation.Field path.
type SearchableField struct {
	Name   string               `json:"name" yaml:"name"`
	Label  string               `json:"label" yaml:"label,omitempty"`
	Filter constants.FilterType `json:"filter" yaml:"filter,omitempty"`
}

// UnmarshalYAML accepts either a bare field name or a mapping
func (s *SearchableField) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Name = value.Value
		return nil
	}
	type plain SearchableField
	return value.Decode((*plain)(s))
}

// SummaryField is a column of the results table and the CSV export.
// With Expression set the value is computed per record and the column is not sortable.
type SummaryField struct {
	Name       string `json:"name" yaml:"name"`
	Label      string `json:"label" yaml:"label,omitempty"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// UnmarshalYAML accepts either a bare field name or a mapping
func (s *SummaryField) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Name = value.Value
		return nil
	}
	type plain SummaryField
	return value.Decode((*plain)(s))
}

// IsComputed reports whether the column is evaluated rather than read
func (s SummaryField) IsComputed() bool {
	return s.Expression != ""
}

// IsRelation reports whether the column reads through a relation
func (s SummaryField) IsRelation() bool {
	return strings.Contains(s.Name, ".")
}

// ObjectMetadata describes a model (data class) a registry page can list
type ObjectMetadata struct {
	APIName          string            `json:"api_name" yaml:"api_name"`
	Label            string            `json:"label" yaml:"label,omitempty"`
	PluralLabel      string            `json:"plural_label" yaml:"plural_label,omitempty"`
	TableName        string            `json:"table_name" yaml:"table_name,omitempty"`
	Fields           []FieldMetadata   `json:"fields" yaml:"fields"`
	SearchableFields []SearchableField `json:"searchable_fields" yaml:"searchable_fields,omitempty"`
	SummaryFields    []SummaryField    `json:"summary_fields" yaml:"summary_fields,omitempty"`
	DefaultSort      string            `json:"default_sort" yaml:"default_sort,omitempty"`
	DefaultDir       string            `json:"default_dir" yaml:"default_dir,omitempty"`
	TitleExpression  string            `json:"title_expression,omitempty" yaml:"title_expression,omitempty"`
	UseLink          bool              `json:"use_link" yaml:"use_link,omitempty"`
	IsSystem         bool              `json:"is_system,omitempty" yaml:"-"`
}

// GetField finds a stored field by API name (case-insensitive)
func (o *ObjectMetadata) GetField(name string) *FieldMetadata {
	for i := range o.Fields {
		if strings.EqualFold(o.Fields[i].APIName, name) {
			return &o.Fields[i]
		}
	}
	return nil
}

// GetRelationship finds the lookup field exposing the named relationship
func (o *ObjectMetadata) GetRelationship(name string) *FieldMetadata {
	for i := range o.Fields {
		f := &o.Fields[i]
		if f.IsLookup() && strings.EqualFold(f.RelationshipName, name) {
			return f
		}
	}
	return nil
}

// FieldNames lists the stored field names, ID first
func (o *ObjectMetadata) FieldNames() []string {
	names := make([]string, 0, len(o.Fields)+1)
	names = append(names, constants.FieldID)
	for _, f := range o.Fields {
		if f.APIName != constants.FieldID {
			names = append(names, f.APIName)
		}
	}
	return names
}

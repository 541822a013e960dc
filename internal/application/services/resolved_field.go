package services

import (
	"fmt"
	"strings"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/query"
)

// ResolvedField is a field path of a model resolved to its SQL column.
// Relation paths carry the lookup field whose target table must be joined.
type ResolvedField struct {
	Path     string
	Base     *models.ObjectMetadata
	Relation *models.FieldMetadata  // nil for direct fields
	Target   *models.ObjectMetadata // model owning the column
	Field    *models.FieldMetadata  // nil for ID
	Column   string                 // qualified, quoted column
}

// IsRelation reports whether the path goes through a lookup
func (r *ResolvedField) IsRelation() bool {
	return r.Relation != nil
}

// Type returns the field type of the resolved column
func (r *ResolvedField) Type() constants.FieldType {
	if r.Field == nil {
		return constants.FieldTypeNumber
	}
	return r.Field.Type
}

// ApplyJoin adds the LEFT JOIN a relation path needs. Direct fields need none.
func (r *ResolvedField) ApplyJoin(b *query.Builder) {
	if r.Relation == nil {
		return
	}
	alias := r.Relation.RelationshipName
	on := fmt.Sprintf("%s = %s",
		query.Column(alias, constants.FieldID),
		query.Column(r.Base.TableName, r.Relation.APIName))
	b.Join("LEFT", r.Target.TableName, alias, on)
}

// resolvePath resolves "Field" or "Relation.Field". Deeper paths are rejected.
func resolvePath(obj *models.ObjectMetadata, path string, get func(string) *models.ObjectMetadata) (*ResolvedField, error) {
	parts := strings.Split(path, ".")

	switch len(parts) {
	case 1:
		res := &ResolvedField{Path: path, Base: obj, Target: obj}
		if strings.EqualFold(path, constants.FieldID) {
			res.Column = query.Column(obj.TableName, constants.FieldID)
			return res, nil
		}
		f := obj.GetField(path)
		if f == nil {
			return nil, fmt.Errorf("unknown field %q on %s", path, obj.APIName)
		}
		res.Field = f
		res.Column = query.Column(obj.TableName, f.APIName)
		return res, nil

	case 2:
		rel := obj.GetRelationship(parts[0])
		if rel == nil {
			return nil, fmt.Errorf("unknown relation %q on %s", parts[0], obj.APIName)
		}
		target := get(rel.ReferenceTo)
		if target == nil {
			return nil, fmt.Errorf("relation %s.%s targets unknown model %q", obj.APIName, parts[0], rel.ReferenceTo)
		}
		res := &ResolvedField{Path: path, Base: obj, Relation: rel, Target: target}
		if strings.EqualFold(parts[1], constants.FieldID) {
			res.Column = query.Column(rel.RelationshipName, constants.FieldID)
			return res, nil
		}
		f := target.GetField(parts[1])
		if f == nil {
			return nil, fmt.Errorf("unknown field %q on %s", parts[1], target.APIName)
		}
		res.Field = f
		res.Column = query.Column(rel.RelationshipName, f.APIName)
		return res, nil
	}

	return nil, fmt.Errorf("unsupported field path %q", path)
}

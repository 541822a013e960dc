package models

import (
	"path"

	"github.com/nexuscrm/registry/pkg/constants"
)

// RegistryPage is a page listing the records of one model.
// Content is HTML rendered unescaped above the listing; pages are only
// written through the admin API, fixtures and imports run by operators.
type RegistryPage struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	URLSegment string `json:"url_segment"`
	Content    string `json:"content,omitempty"`
	DataClass  string `json:"data_class"`
	PageLength int    `json:"page_length"`
	FilterExpr string `json:"filter_expr,omitempty"`
}

// Link returns the page URL, optionally extended by action segments
func (p *RegistryPage) Link(action ...string) string {
	parts := append([]string{"/", p.URLSegment}, action...)
	link := path.Join(parts...)
	if len(action) == 0 {
		link += "/"
	}
	return link
}

// EffectivePageLength falls back to the default when unset
func (p *RegistryPage) EffectivePageLength() int {
	if p.PageLength <= 0 {
		return constants.DefaultPageLength
	}
	return p.PageLength
}

// ToRecord converts the page to its stored column map
func (p *RegistryPage) ToRecord() Record {
	return Record{
		constants.FieldTitle:      p.Title,
		constants.FieldURLSegment: p.URLSegment,
		constants.FieldContent:    p.Content,
		constants.FieldDataClass:  p.DataClass,
		constants.FieldPageLength: p.EffectivePageLength(),
		constants.FieldFilterExpr: p.FilterExpr,
	}
}

// PageFromRecord builds a page from a scanned row
func PageFromRecord(r Record) *RegistryPage {
	length := int(r.Int64(constants.FieldPageLength))
	return &RegistryPage{
		ID:         r.ID(),
		Title:      r.String(constants.FieldTitle),
		URLSegment: r.String(constants.FieldURLSegment),
		Content:    r.String(constants.FieldContent),
		DataClass:  r.String(constants.FieldDataClass),
		PageLength: length,
		FilterExpr: r.String(constants.FieldFilterExpr),
	}
}

// RegistryPageModel describes registry pages as a model, so records of other
// models can reference pages through lookup fields
func RegistryPageModel() ObjectMetadata {
	return ObjectMetadata{
		APIName:     constants.ModelRegistryPage,
		Label:       "Registry page",
		PluralLabel: "Registry pages",
		TableName:   constants.TableRegistryPages,
		Fields: []FieldMetadata{
			{APIName: constants.FieldTitle, Type: constants.FieldTypeText},
			{APIName: constants.FieldURLSegment, Label: "URL segment", Type: constants.FieldTypeText, Unique: true},
			{APIName: constants.FieldContent, Type: constants.FieldTypeLongText},
			{APIName: constants.FieldDataClass, Label: "Data class", Type: constants.FieldTypeText},
			{APIName: constants.FieldPageLength, Label: "Page length", Type: constants.FieldTypeNumber},
			{APIName: constants.FieldFilterExpr, Label: "Filter expression", Type: constants.FieldTypeText},
		},
		SearchableFields: []SearchableField{{Name: constants.FieldTitle}},
		SummaryFields:    []SummaryField{{Name: constants.FieldTitle}, {Name: constants.FieldURLSegment}},
		DefaultSort:      constants.FieldTitle,
		DefaultDir:       constants.SortASC,
		TitleExpression:  constants.FieldTitle,
		IsSystem:         true,
	}
}

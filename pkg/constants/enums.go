package constants

import "strings"

// FieldType represents the storage type of a field
type FieldType string

const (
	FieldTypeText     FieldType = "Text"
	FieldTypeLongText FieldType = "LongText"
	FieldTypeNumber   FieldType = "Number"
	FieldTypeBoolean  FieldType = "Boolean"
	FieldTypeDate     FieldType = "Date"
	FieldTypeLookup   FieldType = "Lookup"
)

// FilterType selects how a searchable field matches submitted values
type FilterType string

const (
	FilterPartial FilterType = "partial" // LIKE %value%
	FilterExact   FilterType = "exact"   // = value
)

// Sort directions
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)

// Database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// NormalizeSortDirection maps any casing of asc/desc to its canonical form.
// The second return value is false when dir is not a known direction.
func NormalizeSortDirection(dir string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case SortASC:
		return SortASC, true
	case SortDESC:
		return SortDESC, true
	}
	return SortASC, false
}

package constants

// Primary key column present on every registry table
const FieldID = "ID"

// Registry page columns
const (
	FieldTitle      = "Title"
	FieldURLSegment = "URLSegment"
	FieldContent    = "Content"
	FieldDataClass  = "DataClass"
	FieldPageLength = "PageLength"
	FieldFilterExpr = "FilterExpr"
)

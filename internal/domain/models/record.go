package models

import (
	"github.com/nexuscrm/registry/pkg/constants"
	"github.com/nexuscrm/registry/pkg/utils"
)

// Record is a generic row: column name to value
type Record map[string]interface{}

// ID returns the record's primary key, or 0 when absent
func (r Record) ID() int64 {
	return r.Int64(constants.FieldID)
}

// Int64 returns the named value as an integer, or 0
func (r Record) Int64(field string) int64 {
	n, err := utils.ToInt64(r[field])
	if err != nil {
		return 0
	}
	return n
}

// String returns the named value formatted for display
func (r Record) String(field string) string {
	return utils.FormatValue(r[field])
}

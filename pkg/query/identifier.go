package query

import "strings"

// QuoteIdent back-quotes an identifier
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Column returns a table-qualified, quoted column reference
func Column(table, column string) string {
	return QuoteIdent(table) + "." + QuoteIdent(column)
}

// IsValidIdentifier checks if a table, alias or column name is safe to
// interpolate: ASCII letters, digits and underscores, not starting with a digit.
func IsValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && i > 0) {
			return false
		}
	}
	return true
}

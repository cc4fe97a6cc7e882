// Package sql guards the statements sent to the physical schema.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyStatement indicates there was nothing to execute.
	ErrEmptyStatement = errors.New("empty SQL statement")

	// ErrMultipleStatements indicates the string holds more than one statement.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

// ValidateStatement trims whitespace and one trailing semicolon from stmt and
// verifies that what remains is exactly one statement. Semicolons inside
// string literals and quoted identifiers are ignored.
func ValidateStatement(stmt string) (string, error) {
	normalized := strings.TrimSpace(stmt)
	normalized = strings.TrimSuffix(normalized, ";")
	normalized = strings.TrimSpace(normalized)

	if normalized == "" {
		return "", ErrEmptyStatement
	}
	if containsStatementBreak(normalized) {
		return "", ErrMultipleStatements
	}
	return normalized, nil
}

// containsStatementBreak scans for a semicolon outside quotes. A doubled
// quote character closes and immediately reopens the quoted section, which
// keeps escaped quotes ('O''Brien', "a""b") inside it.
func containsStatementBreak(stmt string) bool {
	var quote rune
	for _, r := range stmt {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			return true
		}
	}
	return false
}

// Package sql holds the helpers that sit between caller-supplied names and generated SQL text.
package sql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
)

// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1.
const MaxIdentifierLength = 63

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes and dropping NUL bytes.
func QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// QualifiedTableName returns "schema"."table" with both parts quoted.
func QualifiedTableName(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ValidateIdentifier rejects names that cannot be a real PostgreSQL identifier
// or that look like an injection attempt. kind is used in the error message.
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s name is empty", apperrors.ErrUnsafeIdentifier, kind)
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("%w: %s name exceeds %d bytes", apperrors.ErrUnsafeIdentifier, kind, MaxIdentifierLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %s name contains control characters", apperrors.ErrUnsafeIdentifier, kind)
		}
	}
	if result := CheckIdentifierForInjection(kind, name); result != nil {
		return fmt.Errorf("%w: %s name matches SQL injection pattern %q", apperrors.ErrUnsafeIdentifier, kind, result.Fingerprint)
	}
	return nil
}

// ValidateTarget checks schema, table and column together.
func ValidateTarget(schema, table, column string) error {
	if err := ValidateIdentifier("schema", schema); err != nil {
		return err
	}
	if err := ValidateIdentifier("table", table); err != nil {
		return err
	}
	return ValidateIdentifier("column", column)
}

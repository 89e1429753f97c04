package models

import "strings"

// DefaultSchema is assumed when a table name carries no schema prefix.
const DefaultSchema = "public"

// Target identifies one JSONB column.
type Target struct {
	Schema string `json:"schema" yaml:"schema"`
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// NewTarget builds a Target from a possibly schema-qualified table name.
func NewTarget(table, column string) Target {
	schema, name := ParseTableName(table)
	return Target{Schema: schema, Table: name, Column: column}
}

// FullName returns schema.table.column.
func (t Target) FullName() string {
	return t.Schema + "." + t.Table + "." + t.Column
}

// ParseTableName splits "schema.table" at the first dot. A bare name lands in the public schema.
func ParseTableName(table string) (schema, name string) {
	if s, n, ok := strings.Cut(table, "."); ok {
		return s, n
	}
	return DefaultSchema, table
}

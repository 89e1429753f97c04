package datasource

import "github.com/ekaya-inc/pgdrift/pkg/models"

// JSONBColumn represents a discovered JSONB column.
type JSONBColumn struct {
	Schema        string `json:"schema" yaml:"schema"`
	Table         string `json:"table" yaml:"table"`
	Column        string `json:"column" yaml:"column"`
	EstimatedRows *int64 `json:"estimated_rows,omitempty" yaml:"estimated_rows,omitempty"` // nil when the planner has no statistics
}

// FullName returns schema.table.column.
func (c JSONBColumn) FullName() string {
	return c.Target().FullName()
}

// Target converts the column into an analysis target.
func (c JSONBColumn) Target() models.Target {
	return models.Target{Schema: c.Schema, Table: c.Table, Column: c.Column}
}

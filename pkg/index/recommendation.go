// Package index turns finalized field statistics into JSONB index recommendations with DDL.
package index

import "fmt"

// Type is the kind of index being recommended.
type Type int

const (
	TypeGin Type = iota
	TypePartial
	TypeBTreeExtracted
)

var typeNames = map[Type][2]string{
	TypeGin:            {"gin", "GIN"},
	TypePartial:        {"partial", "Partial GIN"},
	TypeBTreeExtracted: {"btree_extracted", "B-tree (extracted)"},
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n[0]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// DisplayName is the human-facing label.
func (t Type) DisplayName() string {
	if n, ok := typeNames[t]; ok {
		return n[1]
	}
	return t.String()
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Priority orders recommendations. High sorts first.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// DisplayName is the capitalized label.
func (p Priority) DisplayName() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return p.String()
	}
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Recommendation is one suggested index. SQL is advisory and never executed.
type Recommendation struct {
	FieldPath        string   `json:"field_path" yaml:"field_path"`
	IndexType        Type     `json:"index_type" yaml:"index_type"`
	Priority         Priority `json:"priority" yaml:"priority"`
	IndexName        string   `json:"index_name" yaml:"index_name"`
	Reason           string   `json:"reason" yaml:"reason"`
	SQL              string   `json:"sql" yaml:"sql"`
	EstimatedBenefit string   `json:"estimated_benefit" yaml:"estimated_benefit"`
}

// Config holds the recommender thresholds.
type Config struct {
	HighDensityThreshold   float64
	MediumDensityThreshold float64
	MinOccurrences         uint64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		HighDensityThreshold:   0.8,
		MediumDensityThreshold: 0.2,
		MinOccurrences:         100,
	}
}

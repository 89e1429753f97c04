// Package drift classifies finalized field statistics into ranked schema drift issues.
package drift

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/pgdrift/pkg/models"
)

// Severity ranks an issue. Higher is worse.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText renders the lowercase name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Kind names an issue variant. Declaration order is the tie-break order when sorting.
type Kind string

const (
	KindTypeInconsistency Kind = "type_inconsistency"
	KindGhostKey          Kind = "ghost_key"
	KindSparseField       Kind = "sparse_field"
	KindMissingKey        Kind = "missing_key"
	KindSchemaEvolution   Kind = "schema_evolution"
)

var kindOrder = map[Kind]int{
	KindTypeInconsistency: 0,
	KindGhostKey:          1,
	KindSparseField:       2,
	KindMissingKey:        3,
	KindSchemaEvolution:   4,
}

// Issue is one detected drift condition. The variants are TypeInconsistency,
// GhostKey, SparseField, MissingKey and SchemaEvolution.
type Issue interface {
	Kind() Kind
	Path() string
	Severity() Severity
	Description() string

	evidence() any
}

// TypeCount is one bucket of a path's type histogram.
type TypeCount struct {
	Type       models.JSONType `json:"type" yaml:"type"`
	Count      uint64          `json:"count" yaml:"count"`
	Percentage float64         `json:"percentage" yaml:"percentage"`
}

// TypeInconsistency fires when a path carries more than one type and the minority share is significant.
type TypeInconsistency struct {
	FieldPath          string      `json:"path" yaml:"path"`
	Types              []TypeCount `json:"types" yaml:"types"` // sorted by count, largest first
	MinorityPercentage float64     `json:"minority_percentage" yaml:"minority_percentage"`
}

// GhostKey is a field present in a very small fraction of documents.
type GhostKey struct {
	FieldPath    string  `json:"path" yaml:"path"`
	Density      float64 `json:"density" yaml:"density"`
	Occurrences  uint64  `json:"occurrences" yaml:"occurrences"`
	TotalSamples uint64  `json:"total_samples" yaml:"total_samples"`
}

// SparseField is an optional field present in a minority to majority of documents.
type SparseField struct {
	FieldPath    string  `json:"path" yaml:"path"`
	Density      float64 `json:"density" yaml:"density"`
	Occurrences  uint64  `json:"occurrences" yaml:"occurrences"`
	TotalSamples uint64  `json:"total_samples" yaml:"total_samples"`
}

// MissingKey is an expected field with unexplained gaps.
type MissingKey struct {
	FieldPath           string  `json:"path" yaml:"path"`
	Density             float64 `json:"density" yaml:"density"`
	ExpectedOccurrences uint64  `json:"expected_occurrences" yaml:"expected_occurrences"`
	ActualOccurrences   uint64  `json:"actual_occurrences" yaml:"actual_occurrences"`
}

// SchemaEvolution flags paths whose naming suggests the document shape is changing.
type SchemaEvolution struct {
	FieldPath string  `json:"path" yaml:"path"`
	Pattern   Pattern `json:"pattern" yaml:"pattern"`
}

func (TypeInconsistency) Kind() Kind { return KindTypeInconsistency }
func (GhostKey) Kind() Kind          { return KindGhostKey }
func (SparseField) Kind() Kind       { return KindSparseField }
func (MissingKey) Kind() Kind        { return KindMissingKey }
func (SchemaEvolution) Kind() Kind   { return KindSchemaEvolution }

func (i TypeInconsistency) Path() string { return i.FieldPath }
func (i GhostKey) Path() string          { return i.FieldPath }
func (i SparseField) Path() string       { return i.FieldPath }
func (i MissingKey) Path() string        { return i.FieldPath }
func (i SchemaEvolution) Path() string   { return i.FieldPath }

func (i TypeInconsistency) Severity() Severity {
	switch {
	case i.MinorityPercentage >= 10.0:
		return SeverityCritical
	case i.MinorityPercentage >= 5.0:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func (GhostKey) Severity() Severity    { return SeverityInfo }
func (SparseField) Severity() Severity { return SeverityInfo }

func (i MissingKey) Severity() Severity {
	switch {
	case i.Density < 0.90:
		return SeverityCritical
	case i.Density < 0.95:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func (SchemaEvolution) Severity() Severity { return SeverityWarning }

func (i TypeInconsistency) Description() string {
	parts := make([]string, 0, len(i.Types))
	for _, tc := range i.Types {
		parts = append(parts, fmt.Sprintf("%s:%.1f", tc.Type, tc.Percentage))
	}
	return fmt.Sprintf("Type inconsistency (minority: %.1f%%): %s", i.MinorityPercentage, strings.Join(parts, ", "))
}

func (i GhostKey) Description() string {
	return fmt.Sprintf("Ghost key: %.2f%% present (%d/%d samples)", i.Density*100, i.Occurrences, i.TotalSamples)
}

func (i SparseField) Description() string {
	return fmt.Sprintf("Sparse field: %.2f%% present (%d/%d samples)", i.Density*100, i.Occurrences, i.TotalSamples)
}

func (i MissingKey) Description() string {
	var missing uint64
	if i.ExpectedOccurrences > i.ActualOccurrences {
		missing = i.ExpectedOccurrences - i.ActualOccurrences
	}
	return fmt.Sprintf("Missing key: %.2f%% missing (%d/%d samples missing field)",
		(1-i.Density)*100, missing, i.ExpectedOccurrences)
}

func (i SchemaEvolution) Description() string {
	return "Schema evolution: " + i.Pattern.Describe()
}

// Evidence values are the variant structs themselves, converted to a method-less
// type so that marshaling them does not recurse into the envelope below.
type (
	typeInconsistencyEvidence TypeInconsistency
	ghostKeyEvidence          GhostKey
	sparseFieldEvidence       SparseField
	missingKeyEvidence        MissingKey
	schemaEvolutionEvidence   SchemaEvolution
)

func (i TypeInconsistency) evidence() any { return typeInconsistencyEvidence(i) }
func (i GhostKey) evidence() any          { return ghostKeyEvidence(i) }
func (i SparseField) evidence() any       { return sparseFieldEvidence(i) }
func (i MissingKey) evidence() any        { return missingKeyEvidence(i) }
func (i SchemaEvolution) evidence() any   { return schemaEvolutionEvidence(i) }

// Document is the serialized form of an Issue: a kind discriminator, the derived
// severity and description, and the variant's evidence.
type Document struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Path        string   `json:"path" yaml:"path"`
	Description string   `json:"description" yaml:"description"`
	Evidence    any      `json:"evidence" yaml:"evidence"`
}

// ToDocument converts an issue into its serialized form.
func ToDocument(i Issue) Document {
	return Document{
		Kind:        i.Kind(),
		Severity:    i.Severity(),
		Path:        i.Path(),
		Description: i.Description(),
		Evidence:    i.evidence(),
	}
}

// ToDocuments converts a list of issues, keeping order.
func ToDocuments(issues []Issue) []Document {
	docs := make([]Document, 0, len(issues))
	for _, i := range issues {
		docs = append(docs, ToDocument(i))
	}
	return docs
}

func (i TypeInconsistency) MarshalJSON() ([]byte, error) { return json.Marshal(ToDocument(i)) }
func (i GhostKey) MarshalJSON() ([]byte, error)          { return json.Marshal(ToDocument(i)) }
func (i SparseField) MarshalJSON() ([]byte, error)       { return json.Marshal(ToDocument(i)) }
func (i MissingKey) MarshalJSON() ([]byte, error)        { return json.Marshal(ToDocument(i)) }
func (i SchemaEvolution) MarshalJSON() ([]byte, error)   { return json.Marshal(ToDocument(i)) }

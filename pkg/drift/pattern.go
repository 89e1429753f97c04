package drift

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Pattern is the evidence behind a SchemaEvolution issue. The variants are
// VersionMarker, DeprecatedNaming and MutuallyExclusive.
type Pattern interface {
	PatternKind() string
	Describe() string

	sealedPattern()
}

// VersionMarker is a path with a segment such as "version" or "v".
type VersionMarker struct {
	MarkerPath string `json:"marker_path" yaml:"marker_path"`
}

// DeprecatedNaming is an old_/legacy_/deprecated_ path whose unprefixed replacement also exists.
type DeprecatedNaming struct {
	OldPath string `json:"old_path" yaml:"old_path"`
	NewPath string `json:"new_path" yaml:"new_path"`
}

// MutuallyExclusive is a family of sibling paths that rarely appear together.
type MutuallyExclusive struct {
	Paths []string `json:"paths" yaml:"paths"`
}

func (VersionMarker) sealedPattern()     {}
func (DeprecatedNaming) sealedPattern()  {}
func (MutuallyExclusive) sealedPattern() {}

func (VersionMarker) PatternKind() string     { return "version_marker" }
func (DeprecatedNaming) PatternKind() string  { return "deprecated_naming" }
func (MutuallyExclusive) PatternKind() string { return "mutually_exclusive" }

func (p VersionMarker) Describe() string {
	return fmt.Sprintf("version marker '%s'", p.MarkerPath)
}

func (p DeprecatedNaming) Describe() string {
	return fmt.Sprintf("deprecated field '%s' → '%s'", p.OldPath, p.NewPath)
}

func (p MutuallyExclusive) Describe() string {
	return "mutually exclusive fields: " + strings.Join(p.Paths, ", ")
}

type patternDocument struct {
	Kind    string `json:"kind" yaml:"kind"`
	Details any    `json:"details" yaml:"details"`
}

type (
	versionMarkerDetails     VersionMarker
	deprecatedNamingDetails  DeprecatedNaming
	mutuallyExclusiveDetails MutuallyExclusive
)

func (p VersionMarker) MarshalJSON() ([]byte, error) {
	return json.Marshal(patternDocument{Kind: p.PatternKind(), Details: versionMarkerDetails(p)})
}

func (p DeprecatedNaming) MarshalJSON() ([]byte, error) {
	return json.Marshal(patternDocument{Kind: p.PatternKind(), Details: deprecatedNamingDetails(p)})
}

func (p MutuallyExclusive) MarshalJSON() ([]byte, error) {
	return json.Marshal(patternDocument{Kind: p.PatternKind(), Details: mutuallyExclusiveDetails(p)})
}

func (p VersionMarker) MarshalYAML() (any, error) {
	return patternDocument{Kind: p.PatternKind(), Details: versionMarkerDetails(p)}, nil
}

func (p DeprecatedNaming) MarshalYAML() (any, error) {
	return patternDocument{Kind: p.PatternKind(), Details: deprecatedNamingDetails(p)}, nil
}

func (p MutuallyExclusive) MarshalYAML() (any, error) {
	return patternDocument{Kind: p.PatternKind(), Details: mutuallyExclusiveDetails(p)}, nil
}

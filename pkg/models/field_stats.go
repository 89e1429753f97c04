package models

import "sort"

// MaxExamples is the number of example values kept per path.
const MaxExamples = 10

// FieldStats accumulates observations for a single JSON path across one analysis run.
type FieldStats struct {
	Path         string              `json:"path" yaml:"path"`
	Depth        int                 `json:"depth" yaml:"depth"`
	Occurrences  uint64              `json:"occurrences" yaml:"occurrences"`
	TotalSamples uint64              `json:"total_samples" yaml:"total_samples"`
	Density      float64             `json:"density" yaml:"density"`
	NullCount    uint64              `json:"null_count" yaml:"null_count"`
	Types        map[JSONType]uint64 `json:"types" yaml:"types"`
	Examples     []any               `json:"examples" yaml:"examples"`
}

// NewFieldStats creates an empty accumulator for path at depth.
func NewFieldStats(path string, depth int) *FieldStats {
	return &FieldStats{
		Path:     path,
		Depth:    depth,
		Types:    make(map[JSONType]uint64),
		Examples: make([]any, 0, MaxExamples),
	}
}

// Record registers one occurrence of the field carrying value.
func (s *FieldStats) Record(value any) {
	s.Occurrences++

	s.Types[ClassifyValue(value)]++

	if value == nil {
		s.NullCount++
	}

	if len(s.Examples) < MaxExamples {
		s.Examples = append(s.Examples, value)
	}
}

// Finalize sets the sample total and derives density.
func (s *FieldStats) Finalize(totalSamples uint64) {
	s.TotalSamples = totalSamples
	s.Density = 0
	if totalSamples > 0 {
		s.Density = float64(s.Occurrences) / float64(totalSamples)
	}
}

// TotalTyped is the sum of all type buckets. It equals Occurrences for stats built by Record.
func (s *FieldStats) TotalTyped() uint64 {
	var total uint64
	for _, count := range s.Types {
		total += count
	}
	return total
}

// DominantType returns the most frequent kind at this path.
// Ties go to the kind declared later in AllJSONTypes so the answer does not depend on map order.
func (s *FieldStats) DominantType() (JSONType, bool) {
	var (
		best      JSONType
		bestCount uint64
		found     bool
	)
	for _, kind := range AllJSONTypes {
		count, ok := s.Types[kind]
		if !ok || count == 0 {
			continue
		}
		if !found || count >= bestCount {
			best, bestCount, found = kind, count, true
		}
	}
	return best, found
}

// Stats maps a path to its statistics for one analysis run.
type Stats map[string]*FieldStats

// SortedPaths returns every path in ascending order.
func (m Stats) SortedPaths() []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Sorted returns the stats ordered by path.
func (m Stats) Sorted() []*FieldStats {
	out := make([]*FieldStats, 0, len(m))
	for _, path := range m.SortedPaths() {
		out = append(out, m[path])
	}
	return out
}

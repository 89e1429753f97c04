package drift

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/ekaya-inc/pgdrift/pkg/models"
)

// Config holds the classifier thresholds. Densities are fractions, the type threshold is a percentage.
type Config struct {
	TypeInconsistencyThreshold float64
	GhostKeyThreshold          float64
	SparseFieldThreshold       float64
	MissingKeyThreshold        float64
	DetectSchemaEvolution      bool
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		TypeInconsistencyThreshold: 5.0,
		GhostKeyThreshold:          0.10,
		SparseFieldThreshold:       0.80,
		MissingKeyThreshold:        0.95,
		DetectSchemaEvolution:      true,
	}
}

// mutuallyExclusiveTolerance is how close the summed densities of a path family must be to its largest member.
const mutuallyExclusiveTolerance = 0.1

var (
	versionMarkers     = []string{"version", "schema_version", "v", "api_version"}
	deprecatedPrefixes = []string{"old_", "legacy_", "deprecated_"}
)

// Detect runs every heuristic over stats and returns the issues ordered by
// severity (worst first), then path, then kind.
func Detect(stats models.Stats, cfg Config) []Issue {
	var issues []Issue

	for _, path := range stats.SortedPaths() {
		s := stats[path]
		if issue, ok := detectTypeInconsistency(s, cfg); ok {
			issues = append(issues, issue)
		}
		if issue, ok := detectDensity(s, cfg); ok {
			issues = append(issues, issue)
		}
	}

	if cfg.DetectSchemaEvolution {
		issues = append(issues, detectSchemaEvolution(stats)...)
	}

	SortIssues(issues)
	return issues
}

// SortIssues orders issues by severity descending, then path, then kind.
func SortIssues(issues []Issue) {
	slices.SortStableFunc(issues, func(a, b Issue) int {
		if c := cmp.Compare(b.Severity(), a.Severity()); c != 0 {
			return c
		}
		if c := strings.Compare(a.Path(), b.Path()); c != 0 {
			return c
		}
		return cmp.Compare(kindOrder[a.Kind()], kindOrder[b.Kind()])
	})
}

func detectTypeInconsistency(s *models.FieldStats, cfg Config) (Issue, bool) {
	if len(s.Types) < 2 {
		return nil, false
	}

	total := s.TotalTyped()
	if total == 0 {
		return nil, false
	}

	counts := make([]TypeCount, 0, len(s.Types))
	var largest uint64
	for _, kind := range models.AllJSONTypes {
		count, ok := s.Types[kind]
		if !ok {
			continue
		}
		counts = append(counts, TypeCount{
			Type:       kind,
			Count:      count,
			Percentage: float64(count) / float64(total) * 100,
		})
		largest = max(largest, count)
	}
	slices.SortStableFunc(counts, func(a, b TypeCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	minority := float64(total-largest) / float64(total) * 100
	if minority < cfg.TypeInconsistencyThreshold {
		return nil, false
	}

	return TypeInconsistency{
		FieldPath:          s.Path,
		Types:              counts,
		MinorityPercentage: minority,
	}, true
}

// detectDensity places a field in at most one of the ghost, sparse and missing bands.
func detectDensity(s *models.FieldStats, cfg Config) (Issue, bool) {
	d := s.Density
	switch {
	case d > 0 && d <= cfg.GhostKeyThreshold:
		return GhostKey{FieldPath: s.Path, Density: d, Occurrences: s.Occurrences, TotalSamples: s.TotalSamples}, true
	case d > cfg.GhostKeyThreshold && d <= cfg.SparseFieldThreshold:
		return SparseField{FieldPath: s.Path, Density: d, Occurrences: s.Occurrences, TotalSamples: s.TotalSamples}, true
	case d > cfg.SparseFieldThreshold && d < cfg.MissingKeyThreshold:
		return MissingKey{FieldPath: s.Path, Density: d, ExpectedOccurrences: s.TotalSamples, ActualOccurrences: s.Occurrences}, true
	default:
		return nil, false
	}
}

func detectSchemaEvolution(stats models.Stats) []Issue {
	var issues []Issue
	paths := stats.SortedPaths()

	for _, path := range paths {
		if hasVersionMarker(path) {
			issues = append(issues, SchemaEvolution{
				FieldPath: path,
				Pattern:   VersionMarker{MarkerPath: path},
			})
		}
	}

	for _, path := range paths {
		lower := strings.ToLower(path)
		for _, prefix := range deprecatedPrefixes {
			if !strings.HasPrefix(lower, prefix) {
				continue
			}
			newPath := path[len(prefix):]
			if _, ok := stats[newPath]; ok {
				issues = append(issues, SchemaEvolution{
					FieldPath: path,
					Pattern:   DeprecatedNaming{OldPath: path, NewPath: newPath},
				})
			}
			break
		}
	}

	families := make(map[string][]string)
	for _, path := range paths {
		idx := strings.LastIndex(path, "_")
		if idx < 0 {
			continue
		}
		base := path[:idx]
		families[base] = append(families[base], path)
	}

	bases := make([]string, 0, len(families))
	for base := range families {
		bases = append(bases, base)
	}
	slices.Sort(bases)

	for _, base := range bases {
		members := families[base]
		if len(members) < 2 {
			continue
		}
		var sum, largest float64
		for _, p := range members {
			d := stats[p].Density
			sum += d
			largest = math.Max(largest, d)
		}
		if math.Abs(sum-largest) < mutuallyExclusiveTolerance {
			issues = append(issues, SchemaEvolution{
				FieldPath: base,
				Pattern:   MutuallyExclusive{Paths: members},
			})
		}
	}

	return issues
}

func hasVersionMarker(path string) bool {
	for _, segment := range strings.Split(path, ".") {
		if slices.Contains(versionMarkers, strings.ToLower(segment)) {
			return true
		}
	}
	return false
}

// Package output renders discovery, drift, index and scan results as text tables,
// JSON, YAML or Markdown.
package output

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jinzhu/inflection"
)

// Format selects how results are rendered.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format in help order.
var Formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatMarkdown}

// ParseFormat resolves a case-insensitive format name. "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, json, yaml or markdown)", s)
	}
}

// countNoun renders n with thousands separators followed by noun, pluralized unless n is 1.
func countNoun[N ~int | ~int64 | ~uint64](n N, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return formatCount(n) + " " + inflection.Plural(noun)
}

func formatCount[N ~int | ~int64 | ~uint64](n N) string {
	return humanize.Comma(int64(n))
}

func formatEstimate(rows *int64) string {
	if rows == nil {
		return "N/A"
	}
	return humanize.Comma(*rows)
}

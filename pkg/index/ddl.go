package index

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/ekaya-inc/pgdrift/pkg/sql"
)

const (
	maxIndexNameLength = sql.MaxIdentifierLength
	nameHashLength     = 8
	arrayMarker        = "[]"
)

// IndexName builds idx_<table>_<column>[_<path>]_<kind>, restricted to [a-z0-9_].
// When sanitizing alters the input or the name exceeds 63 characters, the name is
// suffixed with a hash of the raw table|column|path|kind so distinct inputs stay distinct.
func IndexName(table, column, path, kind string) string {
	parts := []string{"idx", table, column}
	if path != "" {
		parts = append(parts, path)
	}
	parts = append(parts, kind)

	raw := strings.Join(parts, "_")
	name := sanitizeName(raw)
	if name == raw && len(name) <= maxIndexNameLength {
		return name
	}

	sum := blake3.Sum256([]byte(strings.Join([]string{table, column, path, kind}, "|")))
	suffix := hex.EncodeToString(sum[:])[:nameHashLength]
	if len(name) > maxIndexNameLength-nameHashLength-1 {
		name = name[:maxIndexNameLength-nameHashLength-1]
	}
	return name + "_" + suffix
}

func sanitizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, arrayMarker, "_arr")
	s = strings.ReplaceAll(s, ".", "_")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pathSegment is one object key on a field path and how many array levels follow it.
type pathSegment struct {
	key    string
	arrays int
}

func splitPath(path string) []pathSegment {
	raw := strings.Split(path, ".")
	segments := make([]pathSegment, 0, len(raw))
	for _, part := range raw {
		seg := pathSegment{key: part}
		for strings.HasSuffix(seg.key, arrayMarker) {
			seg.key = strings.TrimSuffix(seg.key, arrayMarker)
			seg.arrays++
		}
		segments = append(segments, seg)
	}
	return segments
}

func traversesArray(segments []pathSegment) bool {
	for _, seg := range segments {
		if seg.arrays > 0 {
			return true
		}
	}
	return false
}

// textArrayLiteral renders keys as a quoted PostgreSQL text[] literal, e.g. '{"a","b"}'.
func textArrayLiteral(segments []pathSegment) string {
	elems := make([]string, 0, len(segments))
	for _, seg := range segments {
		elems = append(elems, `"`+escapeDoubleQuoted(seg.key)+`"`)
	}
	return sql.QuoteLiteral("{" + strings.Join(elems, ",") + "}")
}

// jsonPathLiteral renders segments as a quoted SQL/JSON path, e.g. '$."a"[*]."b"'.
func jsonPathLiteral(segments []pathSegment) string {
	var b strings.Builder
	b.WriteString("$")
	for _, seg := range segments {
		b.WriteString(`."` + escapeDoubleQuoted(seg.key) + `"`)
		for i := 0; i < seg.arrays; i++ {
			b.WriteString("[*]")
		}
	}
	return sql.QuoteLiteral(b.String())
}

func escapeDoubleQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// existencePredicate is true for rows whose document carries path.
func existencePredicate(column string, path string) string {
	segments := splitPath(path)
	if traversesArray(segments) {
		return column + " @? " + jsonPathLiteral(segments)
	}

	last := segments[len(segments)-1]
	if len(segments) == 1 {
		return column + " ? " + sql.QuoteLiteral(last.key)
	}
	return column + " #> " + textArrayLiteral(segments[:len(segments)-1]) + " ? " + sql.QuoteLiteral(last.key)
}

// extractionExpression returns the text value at path. Paths that traverse arrays
// have no single value and must not reach it.
func extractionExpression(column string, path string) string {
	return "(" + column + " #>> " + textArrayLiteral(splitPath(path)) + ")"
}

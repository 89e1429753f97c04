package sql

import (
	"errors"
	"strings"
)

// ErrMultipleStatements indicates a query string holds more than one statement.
var ErrMultipleStatements = errors.New("multiple SQL statements not allowed")

// SingleStatement trims surrounding whitespace and one trailing semicolon from query,
// then rejects it if another semicolon remains outside quotes. Doubled quotes inside a
// literal or quoted identifier are handled by leaving and re-entering the quoted state.
func SingleStatement(query string) (string, error) {
	query = strings.TrimSpace(query)
	if trimmed, ok := strings.CutSuffix(query, ";"); ok {
		query = strings.TrimRight(trimmed, " \t\n\r")
	}

	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			return "", ErrMultipleStatements
		}
	}
	return query, nil
}

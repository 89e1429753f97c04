package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult contains the result of an injection check on a caller-supplied name.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Kind        string // What the value names: schema, table or column
	Value       string // The value that was checked
}

// CheckIdentifierForInjection uses libinjection to detect SQL injection patterns
// in a schema, table or column name before it is interpolated into a query.
//
// Returns nil if no injection is detected.
//
// Example:
//
//	result := CheckIdentifierForInjection("table", "users")
//	// result == nil
//
//	result = CheckIdentifierForInjection("table", "'; DROP TABLE users--")
//	// result.IsSQLi == true
//	// result.Kind == "table"
func CheckIdentifierForInjection(kind, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Kind:        kind,
		Value:       value,
	}
}

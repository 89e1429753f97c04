package sql

import (
	"testing"
)

func TestCheckIdentifierForInjection(t *testing.T) {
	tests := []struct {
		name            string
		kind            string
		value           string
		expectInjection bool
	}{
		// Ordinary identifiers
		{name: "plain table", kind: "table", value: "users", expectInjection: false},
		{name: "snake case column", kind: "column", value: "event_payload", expectInjection: false},
		{name: "schema", kind: "schema", value: "public", expectInjection: false},

		// Injection attempts
		{name: "classic OR injection", kind: "table", value: "' OR '1'='1", expectInjection: true},
		{name: "drop table", kind: "table", value: "'; DROP TABLE users--", expectInjection: true},
		{name: "comment injection", kind: "column", value: "admin'--", expectInjection: true},
		{name: "union select", kind: "column", value: "' UNION SELECT NULL, NULL--", expectInjection: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckIdentifierForInjection(tt.kind, tt.value)

			if tt.expectInjection {
				if result == nil {
					t.Errorf("expected injection detection, got nil")
					return
				}
				if !result.IsSQLi {
					t.Errorf("expected IsSQLi=true, got false")
				}
				if result.Kind != tt.kind {
					t.Errorf("expected Kind=%q, got %q", tt.kind, result.Kind)
				}
				if result.Value != tt.value {
					t.Errorf("expected Value=%q, got %q", tt.value, result.Value)
				}
				return
			}

			if result != nil {
				t.Errorf("expected no injection, got fingerprint %q", result.Fingerprint)
			}
		})
	}
}

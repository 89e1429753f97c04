package tools

import (
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// requireTrimmedString extracts a required, non-blank string argument.
func requireTrimmedString(req mcp.CallToolRequest, key string) (string, error) {
	val, err := req.RequireString(key)
	if err != nil {
		return "", err
	}
	val = trimString(val)
	if val == "" {
		return "", fmt.Errorf("parameter %q must not be empty", key)
	}
	return val, nil
}

// getOptionalPositiveInt extracts an optional integer argument. JSON numbers
// arrive as float64, so whole-valued floats are accepted. ok is false when the
// argument is absent.
func getOptionalPositiveInt(req mcp.CallToolRequest, key string) (val int, ok bool, err error) {
	raw, present := req.GetArguments()[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	f, isNumber := raw.(float64)
	if !isNumber || f != math.Trunc(f) {
		return 0, true, fmt.Errorf("parameter %q must be an integer", key)
	}
	if f < 1 || f > math.MaxInt32 {
		return 0, true, fmt.Errorf("parameter %q must be between 1 and %d", key, math.MaxInt32)
	}
	return int(f), true, nil
}

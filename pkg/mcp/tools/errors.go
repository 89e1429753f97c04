package tools

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Actionable errors are returned as a successful tool result carrying this
// body so that the client sees the details instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for errors the caller can fix (bad parameters, unknown table, empty column).
// System failures such as a lost connection stay Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorResult maps err to a structured result when it is actionable.
// Returns (nil, err) for everything else.
func errorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperrors.ErrUnsafeIdentifier):
		return NewErrorResult("unsafe_identifier", err.Error()), nil
	case errors.Is(err, apperrors.ErrNoSamples):
		return NewErrorResult("no_samples", err.Error()), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error()), nil
	case errors.Is(err, apperrors.ErrInvalidConfig):
		return NewErrorResult("invalid_parameters", err.Error()), nil
	case IsSQLUserError(err):
		return NewErrorResult(SQLUserErrorCode(err), ExtractSQLErrorMessage(err)), nil
	}
	return nil, err
}

// sqlStateRegex matches PostgreSQL SQLSTATE codes in error messages like "(SQLSTATE 42P01)"
var sqlStateRegex = regexp.MustCompile(`\(SQLSTATE ([0-9A-Z]{5})\)`)

// IsSQLUserError reports whether err is something the caller caused, such as a
// missing table or column or a missing privilege, rather than a server failure.
//
// PostgreSQL SQLSTATE classes treated as user errors:
//   - 22xxx: Data Exception
//   - 42xxx: Syntax Error or Access Rule Violation
func IsSQLUserError(err error) bool {
	code := sqlState(err)
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "22", "42":
		return true
	}
	return false
}

// SQLUserErrorCode returns a readable code for a SQL user error, or "" when err is not one.
func SQLUserErrorCode(err error) string {
	if !IsSQLUserError(err) {
		return ""
	}
	switch code := sqlState(err); code {
	case "42P01":
		return "undefined_table"
	case "42703":
		return "undefined_column"
	case "42501":
		return "insufficient_privilege"
	case "42804":
		return "datatype_mismatch"
	case "22P02":
		return "invalid_input"
	default:
		if strings.HasPrefix(code, "22") {
			return "data_exception"
		}
		return "sql_error"
	}
}

// ExtractSQLErrorMessage returns the server's message without the SQLSTATE suffix.
func ExtractSQLErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}

	msg := err.Error()
	if idx := strings.Index(msg, " (SQLSTATE"); idx != -1 {
		msg = msg[:idx]
	}
	return strings.TrimPrefix(msg, "ERROR: ")
}

func sqlState(err error) string {
	if err == nil {
		return ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	if matches := sqlStateRegex.FindStringSubmatch(err.Error()); len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

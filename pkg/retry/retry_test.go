package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// failing returns fn that fails with errs in order, then succeeds with "pool".
func failing(calls *int, errs ...error) func() (string, error) {
	return func() (string, error) {
		*calls++
		if *calls <= len(errs) {
			return "", errs[*calls-1]
		}
		return "pool", nil
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxSameErrorType != 5 {
		t.Errorf("expected MaxSameErrorType=5, got %d", cfg.MaxSameErrorType)
	}
}

func TestApplyJitter(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, base, applyJitter(base, 0))
	for range 50 {
		got := applyJitter(base, 0.1)
		require.GreaterOrEqual(t, got, 90*time.Millisecond)
		require.LessOrEqual(t, got, 110*time.Millisecond)
	}
}

func TestDoWithResultIfRetryable_RecoversFromTransientErrors(t *testing.T) {
	calls := 0
	pool, err := DoWithResultIfRetryable(context.Background(), fastConfig(3), failing(&calls,
		errors.New("dial tcp 127.0.0.1:5432: connection refused"),
		&pgconn.PgError{Code: "57P03", Message: "the database system is starting up"},
	))

	require.NoError(t, err)
	assert.Equal(t, "pool", pool)
	assert.Equal(t, 3, calls)
}

func TestDoWithResultIfRetryable_PermanentErrorReturnsImmediately(t *testing.T) {
	badPassword := &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}
	calls := 0
	_, err := DoWithResultIfRetryable(context.Background(), fastConfig(3), failing(&calls, badPassword))

	assert.Same(t, badPassword, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithResultIfRetryable_RetriesExhausted(t *testing.T) {
	refused := errors.New("connection refused")
	calls := 0
	_, err := DoWithResultIfRetryable(context.Background(), fastConfig(2), failing(&calls, refused, refused, refused, refused))

	assert.Same(t, refused, err)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestDoWithResultIfRetryable_RepeatedErrorEscalates(t *testing.T) {
	cfg := fastConfig(10)
	cfg.MaxSameErrorType = 3

	calls := 0
	_, err := DoWithResultIfRetryable(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &pgconn.PgError{Code: "53300"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "repeated error (3 times, type=sqlstate_53300)")
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
}

func TestDoWithResultIfRetryable_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	calls := 0
	start := time.Now()
	_, err := DoWithResultIfRetryable(ctx, cfg, func() (string, error) {
		calls++
		return "", errors.New("i/o timeout")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 90*time.Millisecond)
}

func TestDoWithResultIfRetryable_NilConfig(t *testing.T) {
	calls := 0
	pool, err := DoWithResultIfRetryable(context.Background(), nil, failing(&calls))

	require.NoError(t, err)
	assert.Equal(t, "pool", pool)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), true},
		{"mixed case", errors.New("Connection Refused"), true},
		{"no such host", errors.New("lookup db: no such host"), true},
		{"server starting", errors.New("FATAL: the database system is starting up"), true},
		{"context deadline", context.DeadlineExceeded, true},
		{"class 08", &pgconn.PgError{Code: "08006"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"wrapped class 08", fmt.Errorf("ping: %w", &pgconn.PgError{Code: "08001"}), true},
		{"bad password", &pgconn.PgError{Code: "28P01"}, false},
		{"unknown database", &pgconn.PgError{Code: "3D000"}, false},
		{"sqlstate wins over message", &pgconn.PgError{Code: "42P01", Message: "relation does not exist, timeout"}, false},
		{"permission denied", errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClassifyErrorType(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, "nil"},
		{&pgconn.PgError{Code: "53300"}, "sqlstate_53300"},
		{errors.New("connection reset by peer"), "connection"},
		{errors.New("i/o timeout"), "timeout"},
		{errors.New("write: broken pipe"), "broken_pipe"},
		{errors.New("temporary failure in name resolution"), "dns"},
		{errors.New("something odd"), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, classifyErrorType(tt.err), "%v", tt.err)
	}
}

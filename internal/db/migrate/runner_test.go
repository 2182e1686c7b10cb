package migrate

import (
	"errors"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run("", Up, 0)
	if err == nil {
		t.Fatal("Run with empty DSN should return error")
	}
	if err.Error() != "DATABASE_URL is not set" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"up", "down"} {
		if d, err := ParseDirection(s); err != nil || string(d) != s {
			t.Errorf("ParseDirection(%q) = %q, %v", s, d, err)
		}
	}
	for _, s := range []string{"", "UP", "Up", "left", "both"} {
		if _, err := ParseDirection(s); err == nil {
			t.Errorf("ParseDirection(%q) should fail", s)
		}
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	if err := Run("postgres://localhost/test", Direction("sideways"), 0); err == nil {
		t.Error("Run with invalid direction should return error")
	}
}

func TestRun_NegativeSteps(t *testing.T) {
	if err := Run("postgres://localhost/test", Up, -1); err == nil {
		t.Error("Run with negative steps should return error")
	}
}

func TestRun_InvalidDSN(t *testing.T) {
	testCases := []struct {
		name string
		dsn  string
	}{
		{"invalid format", "invalid-dsn"},
		{"missing driver", "://localhost/test"},
		{"unreachable host", "postgres://invalid-host-that-does-not-exist:5432/test"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Run(tc.dsn, Up, 0)
			if err == nil {
				t.Fatalf("Run with DSN %q should return error", tc.dsn)
			}
			if errors.Is(err, ErrNoChange) {
				t.Error("connection failure must not look like ErrNoChange")
			}
		})
	}
}

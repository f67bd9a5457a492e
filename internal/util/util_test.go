package util

import (
	"strings"
	"testing"
	"time"
)

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5 seconds"},
		{time.Second, "1 second"},
		{2*time.Minute + 30*time.Second, "2 minutes, 30 seconds"},
		{3*time.Hour + time.Minute + time.Second, "3 hours, 1 minute, 1 second"},
	}
	for _, tc := range cases {
		if got := FormatUptime(tc.d); got != tc.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(0, 2, 24, 6); got != 6 {
		t.Errorf("Zero means absent, expected fallback 6, got %d", got)
	}
	if got := ClampInt(1, 2, 24, 6); got != 2 {
		t.Errorf("Expected clamp to min, got %d", got)
	}
	if got := ClampInt(100, 2, 24, 6); got != 24 {
		t.Errorf("Expected clamp to max, got %d", got)
	}
	if got := ClampInt(10, 2, 24, 6); got != 10 {
		t.Errorf("Expected passthrough, got %d", got)
	}
}

func TestRandomToken(t *testing.T) {
	const alphabet = "AB12"
	token := RandomToken(alphabet, 28)
	if len(token) != 28 {
		t.Fatalf("Expected 28 chars, got %d", len(token))
	}
	for _, c := range token {
		if !strings.ContainsRune(alphabet, c) {
			t.Errorf("Token char %q outside alphabet", c)
		}
	}

	if RandomToken(alphabet, 0) != "" {
		t.Error("Zero length should produce an empty token")
	}
}

func TestRandomInt(t *testing.T) {
	for i := 0; i < 100; i++ {
		if n := RandomInt(5); n < 0 || n >= 5 {
			t.Fatalf("RandomInt(5) out of range: %d", n)
		}
	}
	if RandomInt(0) != 0 {
		t.Error("RandomInt(0) should be 0")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("WS_TEST_DURATION", "90s")
	if got := GetEnvDuration("WS_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("Expected 90s, got %v", got)
	}
	if got := GetEnvDuration("WS_TEST_MISSING", time.Second); got != time.Second {
		t.Errorf("Expected fallback, got %v", got)
	}
	t.Setenv("WS_TEST_DURATION", "junk")
	if got := GetEnvDuration("WS_TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("Expected fallback on junk, got %v", got)
	}

	t.Setenv("WS_TEST_INT", "42")
	if got := GetEnvInt("WS_TEST_INT", 7); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := GetEnvInt("WS_TEST_MISSING", 7); got != 7 {
		t.Errorf("Expected fallback, got %d", got)
	}

	t.Setenv("WS_TEST_STR", "value")
	if got := GetEnvStr("WS_TEST_STR", "fb"); got != "value" {
		t.Errorf("Expected value, got %q", got)
	}
	if got := GetEnvStr("WS_TEST_MISSING", "fb"); got != "fb" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

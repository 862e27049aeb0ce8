package utils

import (
	"testing"
	"time"
)

func TestSafeEnv(t *testing.T) {
	const key = "_SURVEYOR_TEST_SAFEENV"
	t.Setenv(key, "")
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv(key, " value ")
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestEnvBool(t *testing.T) {
	const key = "_SURVEYOR_TEST_BOOL"
	t.Setenv(key, "false")
	if EnvBool(key, true) {
		t.Fatalf("expected false")
	}
	t.Setenv(key, "maybe")
	if !EnvBool(key, true) {
		t.Fatalf("unparsable value should fall back")
	}
}

func TestEnvDuration(t *testing.T) {
	const key = "_SURVEYOR_TEST_DURATION"
	t.Setenv(key, "90s")
	d, err := EnvDuration(key, time.Second)
	if err != nil || d != 90*time.Second {
		t.Fatalf("EnvDuration = %v, %v", d, err)
	}
	t.Setenv(key, "")
	if d, _ := EnvDuration(key, time.Minute); d != time.Minute {
		t.Fatalf("fallback = %v", d)
	}
	t.Setenv(key, "soon")
	if _, err := EnvDuration(key, time.Minute); err == nil {
		t.Fatalf("expected parse error")
	}
}

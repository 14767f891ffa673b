package logger

import "testing"

func TestSanitizeKVsRedactsSensitiveKeys(t *testing.T) {
	out := sanitizeKVs([]interface{}{"username", "ana", "password", "hunter2", "access_token", "abc"})
	if len(out) != 6 {
		t.Fatalf("kv count: want=6 got=%d", len(out))
	}
	if out[1] != "ana" {
		t.Fatalf("username: want=ana got=%v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("password: want=[REDACTED] got=%v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Fatalf("access_token: want=[REDACTED] got=%v", out[5])
	}
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"lemma", "jezik", "orphan"})
	if len(out) != 3 || out[2] != "orphan" {
		t.Fatalf("dangling key: got=%v", out)
	}
}

func TestSanitizeValueRedactsJWTShapedStrings(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	if got := sanitizeValue("header", jwt); got != "[REDACTED]" {
		t.Fatalf("jwt value: want=[REDACTED] got=%v", got)
	}
}

func TestSanitizeKVsLeavesInputUntouched(t *testing.T) {
	in := []interface{}{"secret_key", "s3cr3t"}
	_ = sanitizeKVs(in)
	if in[1] != "s3cr3t" {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestNewHonoursLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	l, err := New("development")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.SugaredLogger.Desugar().Core().Enabled(-1) {
		t.Fatalf("debug must be disabled at LOG_LEVEL=error")
	}

	t.Setenv("LOG_LEVEL", "loud")
	if _, err := New("development"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"estatehub.app/internal/auth"
	"estatehub.app/internal/obs"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(original) })
	return &buf
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"short":            "*****",
		"0123456789abcdef": "0123********cdef",
	}
	for in, want := range cases {
		if got := Mask(in); got != want {
			t.Fatalf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPasswordResetNeverLogsRawToken(t *testing.T) {
	buf := captureLog(t)
	raw := strings.Repeat("ab", 32)
	u := &auth.User{Email: "jane@example.com"}

	if err := NewLogMailer("").SendPasswordReset(context.Background(), u, raw, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	line := buf.String()
	if strings.Contains(line, raw) {
		t.Fatalf("raw token leaked: %s", line)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["to"] != "jane@example.com" || entry["template"] != "password_reset" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["from"] != "no-reply@estatehub.app" {
		t.Fatalf("unexpected sender: %v", entry["from"])
	}
}

package obs

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/metrics": "/metrics",
		"/api/v1/properties/01HV3K8Z9Q2W5X7Y1N4M6P8R0T":       "/api/v1/properties/:id",
		"/api/v1/payments/01HV3K8Z9Q2W5X7Y1N4M6P8R0T/receipt": "/api/v1/payments/:id/receipt",
		"/api/v1/tenants/current":                             "/api/v1/tenants/current",
		"/api/v1/properties/17?limit=10":                      "/api/v1/properties/:id",
		"/api/v1/reports/revenue?group_by=week":               "/api/v1/reports/revenue",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestErrorLogIncludesLevelAndError(t *testing.T) {
	logger := Logger()
	orig := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(orig)

	Error("store failed", errors.New("boom"), map[string]any{"op": "find"})

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log is not valid JSON: %v", err)
	}
	if entry["level"] != "error" || entry["msg"] != "store failed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["error"] != "boom" || entry["op"] != "find" {
		t.Fatalf("fields missing: %v", entry)
	}
}

package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNotificationStreamDeliversOwnEvents(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin@example.com", "admin")
	tenantID, tenant := api.register("tenant@example.com", "tenant")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseURL+"/api/v1/notifications/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+tenant)
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	first, err := reader.ReadString('\n')
	if err != nil || !strings.HasPrefix(first, ": stream started") {
		t.Fatalf("expected stream preamble, got %q (%v)", first, err)
	}

	b := expect(t, api.do(http.MethodPost, "/api/v1/properties", admin, map[string]any{
		"name": "Stream House", "description": "Studio", "location": "Westlands", "city": "Nairobi",
		"bedrooms": 1, "bathrooms": 1, "size": 30, "price": 30000,
	}), http.StatusCreated)
	propertyID := b.Data["property_id"].(string)
	expect(t, api.do(http.MethodPost, "/api/v1/tenants", admin, map[string]any{
		"user_id": tenantID, "property_id": propertyID,
		"lease_start_date": time.Now().UTC().Format("2006-01-02"),
		"lease_end_date":   time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02"),
		"monthly_rent":     30000, "deposit_amount": 30000,
		"emergency_contact_name": "Kin", "emergency_contact_phone": "0733000000",
	}), http.StatusCreated)

	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if rest, ok := strings.CutPrefix(line, "data: "); ok {
			data = strings.TrimSpace(rest)
		}
	}
	var event struct {
		UserID string `json:"user_id"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.UserID != tenantID || event.Title != "Lease created" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestNotificationStreamRequiresToken(t *testing.T) {
	api := newTestAPI(t)
	b := expect(t, api.get("/api/v1/notifications/stream", "", nil), http.StatusUnauthorized)
	if b.Error.Code != CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %s", b.Error.Code)
	}
}

package auth

import "testing"

func TestPermitsPresets(t *testing.T) {
	admin := &Claims{Role: RoleAdmin}
	tenant := &Claims{Role: RoleTenant}

	cases := []struct {
		name    string
		claims  *Claims
		allowed []Role
		want    bool
	}{
		{"admin on admin-only", admin, AdminOnly, true},
		{"tenant on admin-only", tenant, AdminOnly, false},
		{"tenant on tenant-only", tenant, TenantOnly, true},
		{"admin on tenant-only", admin, TenantOnly, false},
		{"admin on either", admin, AdminOrTenant, true},
		{"tenant on either", tenant, AdminOrTenant, true},
		{"nil claims", nil, AdminOrTenant, false},
		{"unknown role", &Claims{Role: "owner"}, AdminOrTenant, false},
	}
	for _, tc := range cases {
		if got := Permits(tc.claims, tc.allowed...); got != tc.want {
			t.Fatalf("%s: Permits=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Admin "); err != nil || r != RoleAdmin {
		t.Fatalf("ParseRole admin: %v %v", r, err)
	}
	if _, err := ParseRole("landlord"); err == nil {
		t.Fatal("expected error for role outside the closed set")
	}
	if _, err := ParseRole(""); err == nil {
		t.Fatal("expected error for empty role")
	}
}

package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokens(t *testing.T, clock *fakeClock) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret", WithTokenTTL(time.Hour), WithTokenClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokens(t, clock)

	id := Identity{Subject: "u-1", Email: "a@b.com", FullName: "A B", Role: RoleTenant}
	token, issued, err := svc.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three segments, got %q", token)
	}

	clock.Advance(30 * time.Minute)
	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Identity() != id {
		t.Fatalf("identity mismatch: %+v vs %+v", got.Identity(), id)
	}
	if !got.IssuedAt.Time.Equal(issued.IssuedAt.Time) || !got.ExpiresAt.Time.Equal(issued.ExpiresAt.Time) {
		t.Fatalf("timestamps mismatch: %v/%v vs %v/%v", got.IssuedAt, got.ExpiresAt, issued.IssuedAt, issued.ExpiresAt)
	}
	if got.ID == "" || got.ID != issued.ID {
		t.Fatalf("jti mismatch: %q vs %q", got.ID, issued.ID)
	}
}

func TestVerifyHonoursLeeway(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokens(t, clock)
	token, _, err := svc.Issue(Identity{Subject: "u-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.Advance(time.Hour + 30*time.Second)
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected token inside leeway to verify, got %v", err)
	}

	clock.Advance(time.Minute)
	if _, err := svc.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after leeway, got %v", err)
	}
}

func TestVerifyRejectsTamperingWithSingleError(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestTokens(t, clock)
	token, _, err := svc.Issue(Identity{Subject: "u-1", Email: "a@b.com", Role: RoleTenant})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(token, ".")

	// Escalate the role in the payload and keep the original signature.
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	forged := strings.Replace(string(payload), `"role":"tenant"`, `"role":"admin"`, 1)
	escalated := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + parts[2]

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	badSig := parts[0] + "." + parts[1] + "." + string(sig)

	other, err := NewTokenService("another-secret", WithTokenClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	foreign, _, err := other.Issue(Identity{Subject: "u-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for name, candidate := range map[string]string{
		"escalated payload": escalated,
		"flipped signature": badSig,
		"foreign secret":    foreign,
		"malformed":         "not.a.token",
		"empty":             "",
		"two segments":      parts[0] + "." + parts[1],
	} {
		if _, err := svc.Verify(candidate); err != ErrInvalidToken {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestTokens(t, clock)

	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   "u-1",
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	for name, tok := range map[string]string{"none": none, "hs512": hs512} {
		if _, err := svc.Verify(tok); err != ErrInvalidToken {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestIssueValidatesIdentity(t *testing.T) {
	svc := newTestTokens(t, &fakeClock{t: time.Now()})
	if _, _, err := svc.Issue(Identity{Subject: "", Role: RoleAdmin}); err == nil {
		t.Fatal("expected error for missing subject")
	}
	if _, _, err := svc.Issue(Identity{Subject: "u-1", Role: "owner"}); err == nil {
		t.Fatal("expected error for role outside the closed set")
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService("  "); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

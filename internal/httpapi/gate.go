package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"estatehub.app/internal/audit"
	"estatehub.app/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var (
	errMissingToken = errors.New("missing bearer token")
	errBadScheme    = errors.New("invalid authorization scheme")
)

// Gate authenticates bearer tokens and enforces role sets.
type Gate struct {
	tokens   *auth.TokenService
	denylist auth.Denylist
}

// NewGate builds a gate. denylist may be nil, which disables revocation.
func NewGate(tokens *auth.TokenService, denylist auth.Denylist) *Gate {
	return &Gate{tokens: tokens, denylist: denylist}
}

func unauthenticated(w http.ResponseWriter, code, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="estatehub"`)
	fail(w, http.StatusUnauthorized, code, msg, nil)
}

// verify resolves the header into claims. It never touches storage.
func (g *Gate) verify(header string) (string, *auth.Claims, error) {
	token, err := extractBearerToken(header)
	if err != nil {
		return "", nil, err
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return token, nil, err
	}
	if g.denylist != nil && g.denylist.Revoked(claims.ID) {
		return token, nil, auth.ErrInvalidToken
	}
	return token, claims, nil
}

// Authenticate requires a valid bearer token and stores its claims in the
// request context.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := g.verify(r.Header.Get(authHeader))
		switch {
		case errors.Is(err, errMissingToken), errors.Is(err, errBadScheme):
			unauthenticated(w, CodeUnauthorized, "authentication required")
			return
		case err != nil:
			unauthenticated(w, CodeInvalidToken, "invalid or expired token")
			return
		}
		ctx := auth.ContextWithClaims(r.Context(), claims)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize admits requests whose claims carry one of roles.
func Authorize(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				unauthenticated(w, CodeUnauthorized, "authentication required")
				return
			}
			if !auth.Permits(claims, roles...) {
				_ = audit.LogEvent(r.Context(), "auth.access.denied", map[string]any{
					"path":    r.URL.Path,
					"allowed": roles,
				})
				fail(w, http.StatusForbidden, CodeForbidden, "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var (
	AdminOnly     = Authorize(auth.AdminOnly...)
	TenantOnly    = Authorize(auth.TenantOnly...)
	AdminOrTenant = Authorize(auth.AdminOrTenant...)
)

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingToken
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errBadScheme
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

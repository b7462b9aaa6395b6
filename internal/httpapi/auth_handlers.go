package httpapi

import (
	"errors"
	"net/http"
	"time"

	"estatehub.app/internal/audit"
	"estatehub.app/internal/auth"
	"estatehub.app/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User    *auth.User `json:"user"`
	Token   string     `json:"token"`
	Message string     `json:"message"`
}

const resetRequestedMessage = "If that email is registered, a password reset link has been sent"

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, token, err := a.svc.Auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	obs.ObserveTokenIssued()
	a.record(r, "auth.register", "user", user.ID, map[string]any{"role": user.Role})
	if a.svc.Welcome != nil {
		if err := a.svc.Welcome.SendWelcome(r.Context(), user); err != nil {
			obs.Error("welcome_mail_failed", err, map[string]any{"user_id": user.ID})
		}
	}
	respond(w, http.StatusCreated, sessionResponse{User: user, Token: token, Message: "Registration successful"})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, token, err := a.svc.Auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		obs.ObserveLogin("invalid")
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{"reason": "invalid_credentials"})
	case errors.Is(err, auth.ErrAccountInactive):
		obs.ObserveLogin("inactive")
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{"reason": "inactive"})
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	obs.ObserveLogin("success")
	obs.ObserveTokenIssued()
	a.record(r, "auth.login", "user", user.ID, nil)
	respond(w, http.StatusOK, sessionResponse{User: user, Token: token, Message: "Login successful"})
}

// logout never fails. A valid token is audited and, with a denylist, revoked.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if _, claims, err := a.gate.verify(r.Header.Get(authHeader)); err == nil {
		ctx := auth.ContextWithClaims(r.Context(), claims)
		revoked := false
		if a.svc.Denylist != nil && claims.ExpiresAt != nil {
			a.svc.Denylist.Revoke(claims.ID, claims.ExpiresAt.Time)
			revoked = true
		}
		a.svc.Trail.Record(ctx, audit.Entry{
			Action:     "auth.logout",
			EntityType: "user",
			EntityID:   claims.Subject,
			Details:    map[string]any{"revoked": revoked},
		})
	}
	respond(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (a *API) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	// The caller always sees the generic answer, even for a blank or
	// malformed email.
	if err := a.svc.Auth.RequestPasswordReset(r.Context(), req.Email); err != nil && !errors.Is(err, auth.ErrInvalidInput) {
		obs.Error("password_reset_request_failed", err, map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
		})
	}
	respond(w, http.StatusOK, map[string]string{"message": resetRequestedMessage})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := a.svc.Auth.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "auth.password_reset", "user", userID, nil)
	respond(w, http.StatusOK, map[string]string{"message": "Password has been reset successfully"})
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	token, issued, err := a.svc.Auth.Refresh(claims)
	if err != nil {
		writeError(w, r, err)
		return
	}
	obs.ObserveTokenIssued()
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"expires_at": issued.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
	respond(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": issued.ExpiresAt.Time.UTC(),
	})
}

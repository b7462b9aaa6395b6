package httpapi

import (
	"errors"
	"net/http"

	"estatehub.app/internal/auth"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, err := a.svc.Auth.Profile(r.Context(), actorOf(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	var upd auth.UserUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	id := actorOf(r).ID
	user, err := a.svc.Auth.UpdateProfile(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "user.update_profile", "user", id, nil)
	respond(w, http.StatusOK, map[string]any{"user": user, "message": "Profile updated successfully"})
}

func (a *API) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id := actorOf(r).ID
	err := a.svc.Auth.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		fail(w, http.StatusUnauthorized, CodeUnauthorized, "current password is incorrect", nil)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.record(r, "user.change_password", "user", id, nil)
	respond(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

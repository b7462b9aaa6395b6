package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	inbox, err := a.svc.Estate.Notifications(r.Context(), actorOf(r), queryOf(r).page())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"notifications": inbox.Items,
		"pagination":    inbox.Pagination,
		"unread_count":  inbox.UnreadCount,
	})
}

func (a *API) unreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Estate.UnreadCount(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"unread_count": n})
}

func (a *API) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Estate.MarkNotificationRead(r.Context(), actorOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (a *API) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := a.svc.Estate.MarkAllNotificationsRead(r.Context(), actorOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"marked_count": n, "message": "All notifications marked as read"})
}

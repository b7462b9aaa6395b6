package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// notificationStream pushes the caller's new notifications as server-sent
// events until the client goes away.
func (a *API) notificationStream(w http.ResponseWriter, r *http.Request) {
	if a.svc.Stream == nil {
		notFound(w, r)
		return
	}
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch := a.svc.Stream.Subscribe(r.Context(), actorOf(r).ID)

	_, _ = w.Write([]byte(": stream started\n\n"))
	if err := rc.Flush(); err != nil {
		return
	}

	for n := range ch {
		payload, err := json.Marshal(n)
		if err != nil {
			continue
		}
		_, _ = w.Write([]byte("event: notification\ndata: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

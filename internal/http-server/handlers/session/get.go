package session

import (
	"IzdatBot/bot/flow"
	"IzdatBot/internal/lib/api/response"
	"IzdatBot/internal/lib/sl"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

func GetSession(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("session lookup not available")
			http.Error(w, "session lookup not available", http.StatusServiceUnavailable)
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "Missing user_id parameter", http.StatusBadRequest)
			return
		}

		sess, err := handler.GetSession(r.Context(), userID)
		if err != nil {
			if errors.Is(err, flow.ErrSessionNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("No active session"))
				return
			}
			log.Error("get session", sl.Err(err))
			http.Error(w, "Lookup failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, sess)
	}
}

package session

import (
	"IzdatBot/internal/lib/api/response"
	"IzdatBot/internal/lib/sl"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

func ExpireSessions(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("session sweep not available")
			http.Error(w, "session sweep not available", http.StatusServiceUnavailable)
			return
		}

		removed, err := handler.ExpireSessions(r.Context())
		if err != nil {
			log.Error("expire sessions", sl.Err(err))
			http.Error(w, "Sweep failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, response.Ok(fmt.Sprintf("Expired %d sessions", removed)))
	}
}

package session

import (
	"IzdatBot/internal/lib/api/response"
	"IzdatBot/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

func ResetConversation(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			log.Error("reset conversation not available")
			http.Error(w, "reset conversation not available", http.StatusServiceUnavailable)
			return
		}

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "Missing user_id parameter", http.StatusBadRequest)
			return
		}

		if err := handler.ResetConversation(r.Context(), userID); err != nil {
			log.Error("reset conversation", sl.Err(err))
			http.Error(w, "Reset failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, response.Ok("Conversation reset successfully"))
	}
}

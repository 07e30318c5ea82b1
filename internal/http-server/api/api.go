package api

import (
	"IzdatBot/internal/config"
	"IzdatBot/internal/http-server/handlers/errors"
	"IzdatBot/internal/http-server/handlers/session"
	"IzdatBot/internal/http-server/middleware/authenticate"
	"IzdatBot/internal/http-server/middleware/timeout"
	"IzdatBot/internal/lib/api/response"
	"IzdatBot/internal/lib/sl"
	"IzdatBot/internal/ws"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler is everything the API needs from the application.
type Handler interface {
	authenticate.Authenticate
	ws.Authenticator
	session.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok("ok"))
	})
	if hub != nil {
		router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWs(hub, handler, log, w, r)
		})
	}

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(timeout.Timeout(5))
		v1.Use(authenticate.New(log, handler))

		v1.Route("/session", func(r chi.Router) {
			r.Get("/", session.GetSession(log, handler))
			r.Post("/reset", session.ResetConversation(log, handler))
			r.Post("/expire", session.ExpireSessions(log, handler))
		})
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}

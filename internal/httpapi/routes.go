package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/planning-poker-backend/internal/hub"
	"github.com/DoyleJ11/planning-poker-backend/internal/session"
	"github.com/DoyleJ11/planning-poker-backend/internal/ws"
)

type Options struct {
	Tracker   session.Tracker
	MaskVotes bool
	WS        ws.Options
	Logger    *zap.Logger
}

func SetupRoutes(h *hub.Hub, opts Options) http.Handler {
	if opts.Tracker == nil {
		opts.Tracker = session.NoTracker{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WS.Logger == nil {
		opts.WS.Logger = opts.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Logger))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", CreateRoom(h, opts.Logger))
		r.Get("/", ListRooms(h))
		r.Get("/{code}", GetRoom(h, opts.MaskVotes))
		r.Delete("/{code}", DeleteRoom(h, opts.WS.DefaultRoom))
	})
	r.Get("/items/{itemID}", GetItem(opts.Tracker, opts.Logger))
	r.Get("/healthz", Healthz(h))
	r.Get("/ws", ws.Handler(h, opts.WS))
	return r
}

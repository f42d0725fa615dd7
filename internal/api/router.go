package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/darkkD11/CardArena/internal/api/apierr"
	"github.com/darkkD11/CardArena/internal/api/handler"
	"github.com/darkkD11/CardArena/internal/api/middleware"
	"github.com/darkkD11/CardArena/internal/dependencies/clock"
	rootmw "github.com/darkkD11/CardArena/internal/middleware"
)

// RouterConfig holds configuration for the HTTP router
type RouterConfig struct {
	Logger    *slog.Logger
	Engine    handler.Engine
	Clock     clock.Clock
	WebSocket http.Handler
	// PublicURL is the address players open to join; used in QR codes
	PublicURL string
	// AdminToken guards /debug/cleanup when set
	AdminToken string
}

// NewRouter creates the HTTP router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	opsHandler := handler.NewOpsHandler(cfg.Engine, cfg.Clock)
	roomHandler := handler.NewRoomHandler(cfg.Engine, cfg.PublicURL)

	r.Use(rootmw.Logging(cfg.Logger))
	r.Use(rootmw.Recovery(cfg.Logger, writeInternalError))

	r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)

	r.HandleFunc("/health", opsHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/stats", opsHandler.Stats).Methods(http.MethodGet)

	debug := r.PathPrefix("/debug").Subrouter()
	debug.Use(middleware.AdminToken(cfg.AdminToken))
	debug.HandleFunc("/cleanup", opsHandler.Cleanup).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}/qr", roomHandler.QR).Methods(http.MethodGet)

	return r
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/mwarzecha/velofit/backend/internal/handler/chat"
	intakehandler "github.com/mwarzecha/velofit/backend/internal/handler/intake"
	middlewarePkg "github.com/mwarzecha/velofit/backend/internal/middleware"
	"github.com/mwarzecha/velofit/backend/internal/store"
	"github.com/mwarzecha/velofit/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(turns chathandler.Turns, extractor intakehandler.Extractor, st store.Store, audioDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS([]string{"*"}))

	chatHandler := chathandler.New(turns)
	wsHandler := chathandler.NewWebSocketHandler(turns)
	intakeHandler := intakehandler.New(extractor, turns)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
		intakeHandler.RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := st.Ping(r.Context()); err != nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	// Synthesized reply audio referenced by turn payloads.
	r.Handle("/audio/*", http.StripPrefix("/audio/", http.FileServer(http.Dir(audioDir))))

	return r
}

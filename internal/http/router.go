package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ilMago8/smart-habit-tracker/internal/auth"
	"github.com/ilMago8/smart-habit-tracker/internal/service"
	"github.com/ilMago8/smart-habit-tracker/web"
)

type API struct {
	Service    *service.Service
	Auth       *auth.Manager
	CORSOrigin string
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", a.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(a.authMiddleware)
			r.Get("/profile", a.handleGetProfile)
			r.Put("/profile", a.handleUpdateProfile)
		})
	})

	r.Route("/habits", func(r chi.Router) {
		r.Use(a.authMiddleware)
		r.Get("/", a.handleListHabits)
		r.Post("/", a.handleCreateHabit)
		r.Put("/update", a.handleUpdateHabit)
		r.Delete("/", a.handleDeleteHabit)
		r.Delete("/all", a.handleDeleteAllHabits)
		r.Post("/check", a.handleToggleCheck)
		r.Get("/stats", a.handleStats)
		r.Post("/reset", a.handleReset)
		r.Post("/manage", a.handleManage)
	})

	// The single-page client is embedded and served from the root.
	r.Handle("/*", http.FileServer(http.FS(web.Assets)))

	return r
}

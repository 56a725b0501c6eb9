// Package http реализует маршрутизацию HTTP-слоя сервера AuthKeeper.
//
// Пакет отвечает за:
//   - регистрацию HTTP-маршрутов и настройку роутера (chi);
//   - CORS, request id, восстановление после паники;
//   - логирование выполнения HTTP-запросов;
//   - требование bearer-токена на защищённых маршрутах.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/api"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/middleware"
)

// RouterOptions — настройки роутера, не относящиеся к хендлерам.
type RouterOptions struct {
	// AllowedOrigins для CORS, пусто значит "*".
	AllowedOrigins []string
}

// NewRouter создаёт и настраивает HTTP-роутер сервера.
//
// Роутер использует chi.Router и регистрирует:
//   - публичные эндпоинты register/login под префиксом /api/auth;
//   - защищённые bearer-токеном verify/profile;
//   - /api/health и /swagger/*;
//   - middleware логирования для всех запросов.
func NewRouter(h *api.Handler, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	// логирование всех запросов
	r.Use(middleware.Logger(h.Log))

	// добавляем swagger
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			// Публичные пути
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)

			// защищены пути
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireBearer())
				r.Get("/verify", h.Verify)
				r.Put("/profile", h.UpdateProfile)
			})
		})
	})

	return r
}

// Package creditservice предоставляет маршруты для основного приложения.
package creditservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/instagrowth/credit-service/internal/aigen"
	"github.com/instagrowth/credit-service/internal/http/handlers/admin/checklow"
	"github.com/instagrowth/credit-service/internal/http/handlers/admin/grant"
	"github.com/instagrowth/credit-service/internal/http/handlers/ai/generate"
	"github.com/instagrowth/credit-service/internal/http/handlers/auth/login"
	"github.com/instagrowth/credit-service/internal/http/handlers/auth/register"
	"github.com/instagrowth/credit-service/internal/http/handlers/credits/costs"
	"github.com/instagrowth/credit-service/internal/http/handlers/credits/get"
	"github.com/instagrowth/credit-service/internal/http/handlers/credits/history"
	"github.com/instagrowth/credit-service/internal/http/handlers/credits/use"
	"github.com/instagrowth/credit-service/internal/http/handlers/health"
	"github.com/instagrowth/credit-service/internal/http/middlewarectx"
	"github.com/instagrowth/credit-service/internal/lib/jwt"
	authservice "github.com/instagrowth/credit-service/internal/services/auth"
	"github.com/instagrowth/credit-service/internal/services/authorize"
	creditsservice "github.com/instagrowth/credit-service/internal/services/credits"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	authService *authservice.Service, creditService *creditsservice.CreditService,
	authorizeService *authorize.Service, generator aigen.Generator) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	serverLimiter := rate.NewLimiter(20, 50)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, serverLimiter))
			r.Get("/credits", get.New(logger, creditService).ServeHTTP)
			r.Get("/credits/costs", costs.New(logger, creditService).ServeHTTP)
			r.Post("/credits/use", use.New(logger, creditService).ServeHTTP)
			r.Get("/credits/history", history.New(logger, creditService).ServeHTTP)
			r.Post("/ai/generate", generate.New(logger, authorizeService, generator, creditService).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))
				r.Post("/admin/credits/grant", grant.New(logger, creditService).ServeHTTP)
				r.Post("/admin/credits/check-low", checklow.New(logger, creditService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

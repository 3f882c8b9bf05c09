package http

import (
	"net/http"

	"github.com/go-api-otp/internal/config"
	"github.com/go-api-otp/internal/transport/http/handler"
	appmiddleware "github.com/go-api-otp/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	// Forwarding headers are client-controlled unless a proxy in front rewrites them.
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on every endpoint that issues a code or checks a password.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	// Code submissions get their own, slower bucket: a wrong guess keeps the code alive.
	verifyRL := appmiddleware.NewRateLimiter(rate.Limit(1), 5)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.AuthService, deps.OTPTTL, cfg.OTP.ExposeCode)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/otp/send", authH.SendOTP)
			r.With(verifyRL.Limit).Post("/otp/verify", authH.VerifyOTP)
			r.With(sensitiveRL.Limit).Post("/register/request", authH.RequestRegistration)
			r.With(verifyRL.Limit).Post("/register/verify", authH.CompleteRegistration)
			r.With(sensitiveRL.Limit).Post("/password/forgot", authH.ForgotPassword)
			r.With(verifyRL.Limit).Post("/password/reset", authH.ResetPassword)
			r.With(sensitiveRL.Limit).Post("/login", authH.Login)

			r.With(appmiddleware.Auth(deps.JWTProvider)).Get("/me", authH.Me)
		})
	})

	return r
}

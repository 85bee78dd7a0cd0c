package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/walletgate/authd/internal/auth"
	"github.com/walletgate/authd/internal/handlers"
	"github.com/walletgate/authd/internal/middleware"
	pkghttp "github.com/walletgate/authd/pkg/http"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	tokenManager *auth.TokenManager,
	ipConfig *pkghttp.IPConfig,
) {
	// All public auth endpoints share one per-IP budget; every one of them
	// either probes credentials or triggers an email.
	limited := middleware.RateLimitByClientIP(middleware.DefaultAuthRateLimit(), ipConfig)

	router.With(limited).Post("/auth/signup", authHandler.Signup)
	router.With(limited).Post("/auth/login", authHandler.Login)
	router.With(limited).Post("/auth/verify-otp", authHandler.VerifyOTP)
	router.With(limited).Post("/auth/resend-otp", authHandler.ResendOTP)
	router.With(limited).Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.With(limited).Post("/auth/reset-password", authHandler.ResetPassword)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))
		r.Post("/auth/logout", authHandler.Logout)
	})
}

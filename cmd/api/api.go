package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bodyshop/docs" // required to register swagger docs
	"bodyshop/internal/audit"
	"bodyshop/internal/auth"
	"bodyshop/internal/authz"
	"bodyshop/internal/domain/storage"
	"bodyshop/internal/mailer"
	"bodyshop/internal/ratelimiter"
	"bodyshop/internal/refcode"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	cld           *cloudinary.Cloudinary
	mailer        mailer.Client
	authenticator auth.Authenticator
	auditor       *audit.Writer
	rateLimiter   ratelimiter.Limiter
	refcodes      *refcode.Generator
}

type config struct {
	addr              string
	env               string
	apiURL            string
	frontendURL       string
	db                dbConfig
	mail              mailConfig
	auth              authConfig
	rateLimiter       ratelimiter.Config
	adminEmails       []string
	protectedPrefixes []string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type mailConfig struct {
	exp       time.Duration
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type basicConfig struct {
	user string
	pass string
}

type tokenConfig struct {
	secret          string
	refreshSecret   string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	iss             string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.RateLimiterMiddleware)

	// Authentication runs before routing: the protected-prefix table decides
	// which paths demand a verified token.
	r.Use(app.SessionMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)

			// Cookie variants for the admin panel and customer site.
			r.Post("/web/token", app.createTokenCookieHandler)
			r.Post("/web/refresh", app.refreshTokenCookieHandler)
			r.Post("/web/logout", app.logoutCookieHandler)

			// Activation must stay reachable before login; /v1/users sits
			// behind the protected-prefix table.
			r.Put("/activate/{token}", app.activateUserHandler)
		})

		r.Get("/services", app.listServicesHandler)
		r.Get("/services/{slug}", app.getServiceHandler)
		r.Get("/reviews", app.listApprovedReviewsHandler)
		r.Get("/gallery", app.listGalleryHandler)
		r.Get("/settings", app.getSettingsHandler)
		r.Get("/bookings/availability", app.availabilityHandler)

		// Any authenticated user
		r.Route("/users", func(r chi.Router) {
			r.Put("/", app.updateProfileHandler)
			r.Post("/logout", app.logoutHandler)
		})

		// Customer area
		r.Route("/client", func(r chi.Router) {
			r.Post("/bookings", app.createBookingHandler)
			r.Get("/bookings", app.listMyBookingsHandler)
			r.Get("/bookings/{bookingID}", app.getBookingHandler)
			r.Post("/bookings/{bookingID}/cancel", app.cancelBookingHandler)
			r.Post("/reviews", app.createReviewHandler)
		})

		// Staff area
		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(app.RequireRoles(authz.RoleStaff, authz.RoleAdmin))

				r.Get("/bookings", app.adminListBookingsHandler)
				r.Put("/bookings/{bookingID}/status", app.updateBookingStatusHandler)
				r.Get("/reviews", app.adminListReviewsHandler)
				r.Put("/reviews/{reviewID}/status", app.updateReviewStatusHandler)
				r.Post("/gallery", app.uploadGalleryPhotoHandler)
				r.Delete("/gallery/{photoID}", app.deleteGalleryPhotoHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(app.RequireRoles(authz.RoleAdmin))

				r.Post("/services", app.createServiceHandler)
				r.Patch("/services/{serviceID}", app.updateServiceHandler)
				r.Delete("/services/{serviceID}", app.deleteServiceHandler)
				r.Delete("/reviews/{reviewID}", app.deleteReviewHandler)
				r.Get("/users", app.adminListUsersHandler)
				r.Patch("/users/{userID}/role", app.updateUserRoleHandler)
				r.Get("/audit-logs", app.listAuditLogsHandler)
				r.Get("/dashboard", app.dashboardHandler)
			})

			// Settings predate the role column; the email allowlist remains
			// an accepted authority alongside the admin role.
			r.With(app.RequireAdminAllowlist).Put("/settings", app.updateSettingsHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())
		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr)
	return nil
}

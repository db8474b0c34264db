package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/dicegame/dice-api/docs"
	"github.com/dicegame/dice-api/internal/api/handler"
	"github.com/dicegame/dice-api/internal/api/middleware"
	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Logger  zerolog.Logger
	Tokens  middleware.TokenVerifier
	Auth    ports.AuthService
	Games   ports.GameService
	Players ports.PlayerService
	// Readiness is optional; /health/ready is not served without it.
	Readiness *handler.HealthDependenciesHandler
}

// RoutePolicy lists every route that is not simply "any authenticated user".
func RoutePolicy() middleware.Policy {
	public := middleware.Rule{Public: true}
	adminOnly := middleware.Rule{Roles: []string{domain.RoleAdmin}}

	return middleware.Policy{
		middleware.Key(http.MethodPost, "/auth/register"):       public,
		middleware.Key(http.MethodPost, "/auth/login"):          public,
		middleware.Key(http.MethodGet, "/health"):               public,
		middleware.Key(http.MethodGet, "/health/ready"):         public,
		middleware.Key(http.MethodGet, "/metrics"):              public,
		middleware.Key(http.MethodGet, "/swagger/*"):            public,
		middleware.Key(http.MethodPost, "/players/:id/disable"): adminOnly,
		middleware.Key(http.MethodPost, "/players/:id/enable"):  adminOnly,
	}
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// Each router gets its own registry so HTTP metrics can be registered more
	// than once per process; /metrics serves it together with the default one.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "dice",
		Registerer: httpMetrics,
	}))
	e.Use(middleware.Auth(middleware.AuthConfig{
		Verifier: deps.Tokens,
		Policy:   RoutePolicy(),
	}))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.PUT("/auth/password", authHandler.ChangePassword)

	// --- Games ---
	gameHandler := handler.NewGameHandler(deps.Games)
	e.GET("/resources", gameHandler.List)
	e.POST("/resources", gameHandler.Create)
	e.GET("/resources/:id", gameHandler.Get)
	e.PUT("/resources/:id", gameHandler.Update)
	e.DELETE("/resources/:id", gameHandler.Delete)

	// --- Players ---
	playerHandler := handler.NewPlayerHandler(deps.Players, deps.Games)
	e.GET("/players", playerHandler.List)
	e.GET("/players/me", playerHandler.Me)
	e.PUT("/players/:id", playerHandler.Rename)
	e.DELETE("/players/:id/resources", playerHandler.DeleteGames)
	e.POST("/players/:id/disable", playerHandler.Disable)
	e.POST("/players/:id/enable", playerHandler.Enable)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness) // liveness  – is the process alive?
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness.Readiness) // readiness – are dependencies up?
	}

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, httpMetrics},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			level := zerolog.InfoLevel
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = zerolog.ErrorLevel
			case v.Status >= http.StatusBadRequest:
				level = zerolog.WarnLevel
			}
			ev := log.WithLevel(level)
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			if p := domain.PrincipalFrom(c.Request().Context()); !p.Anonymous() {
				ev = ev.Str("user_id", p.Subject)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

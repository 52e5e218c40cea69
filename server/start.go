package server

import (
	"context"
	"net/http"
	"os"

	"timer-service/auth"
	cachepackage "timer-service/cache"
	"timer-service/config"
	"timer-service/database"
	"timer-service/handlers"
	"timer-service/media"
	"timer-service/services"

	"github.com/umakantv/go-utils/httpserver"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitLogger configures the shared zap logger.
func InitLogger() {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})
}

// checkAuth returns the bearer check handed to httpserver. Successful checks
// carry the user id in the handlers.UserIDClaim claim.
func checkAuth(authenticator *auth.Authenticator) func(r *http.Request) (bool, httpserver.RequestAuth) {
	return func(r *http.Request) (bool, httpserver.RequestAuth) {
		header := r.Header.Get("Authorization")
		if header == "" {
			return false, httpserver.RequestAuth{}
		}

		identity, err := authenticator.Authenticate(r.Context(), header)
		if err != nil {
			logger.Debug("Rejected bearer token", zap.Error(err))
			return false, httpserver.RequestAuth{}
		}

		return true, httpserver.RequestAuth{
			Type:   "bearer",
			Client: identity.Email,
			Claims: map[string]interface{}{handlers.UserIDClaim: identity.ID},
		}
	}
}

// routes holds what registerRoutes wires. An empty mediaRoot leaves out the
// local media route.
type routes struct {
	timers    *handlers.TimerHandler
	types     *handlers.TimerTypeHandler
	users     *handlers.UserHandler
	mediaRoot string
}

func healthCheck(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "timer-service"}`))
}

func registerRoutes(server *httpserver.Server, rt routes) {
	server.Register(httpserver.Route{
		Name:     "HealthCheck",
		Method:   "GET",
		Path:     "/health",
		AuthType: "none",
	}, httpserver.HandlerFunc(healthCheck))

	// Accounts
	server.Register(httpserver.Route{
		Name:     "Signup",
		Method:   "POST",
		Path:     "/users",
		AuthType: "none",
	}, handlers.ServePublic(rt.users.Signup))

	server.Register(httpserver.Route{
		Name:     "ObtainToken",
		Method:   "POST",
		Path:     "/users/token",
		AuthType: "none",
	}, handlers.ServePublic(rt.users.Token))

	server.Register(httpserver.Route{
		Name:     "GetMe",
		Method:   "GET",
		Path:     "/users/me",
		AuthType: "bearer",
	}, handlers.Serve(rt.users.Me))

	server.Register(httpserver.Route{
		Name:     "UpdateMe",
		Method:   "PUT",
		Path:     "/users/me",
		AuthType: "bearer",
	}, handlers.Serve(rt.users.UpdateMe))

	server.Register(httpserver.Route{
		Name:     "DeleteMe",
		Method:   "DELETE",
		Path:     "/users/me",
		AuthType: "bearer",
	}, handlers.Serve(rt.users.DeleteMe))

	// Timers. The collection answers with and without a trailing slash.
	for _, path := range []string{"/timers", "/timers/"} {
		server.Register(httpserver.Route{
			Name:     "ListTimers",
			Method:   "GET",
			Path:     path,
			AuthType: "bearer",
		}, handlers.Serve(rt.timers.List))

		server.Register(httpserver.Route{
			Name:     "CreateTimer",
			Method:   "POST",
			Path:     path,
			AuthType: "bearer",
		}, handlers.Serve(rt.timers.Create))
	}

	server.Register(httpserver.Route{
		Name:     "GetTimer",
		Method:   "GET",
		Path:     "/timers/{id}",
		AuthType: "bearer",
	}, handlers.Serve(rt.timers.Get))

	server.Register(httpserver.Route{
		Name:     "ReplaceTimer",
		Method:   "PUT",
		Path:     "/timers/{id}",
		AuthType: "bearer",
	}, handlers.Serve(rt.timers.Replace))

	server.Register(httpserver.Route{
		Name:     "DeleteTimer",
		Method:   "DELETE",
		Path:     "/timers/{id}",
		AuthType: "bearer",
	}, handlers.Serve(rt.timers.Delete))

	server.Register(httpserver.Route{
		Name:     "UploadTimerImage",
		Method:   "POST",
		Path:     "/timers/{id}/media-upload",
		AuthType: "bearer",
	}, handlers.Serve(rt.timers.UploadImage))

	if rt.mediaRoot != "" {
		server.Register(httpserver.Route{
			Name:     "TimerImage",
			Method:   "GET",
			Path:     "/media/" + media.UploadDir + "/{name}",
			AuthType: "none",
		}, handlers.MediaFile(rt.mediaRoot))
	}

	// Timer types
	server.Register(httpserver.Route{
		Name:     "ListTimerTypes",
		Method:   "GET",
		Path:     "/timer-types",
		AuthType: "bearer",
	}, handlers.Serve(rt.types.List))

	server.Register(httpserver.Route{
		Name:     "CreateTimerType",
		Method:   "POST",
		Path:     "/timer-types",
		AuthType: "bearer",
	}, handlers.Serve(rt.types.Create))

	server.Register(httpserver.Route{
		Name:     "RenameTimerType",
		Method:   "PUT",
		Path:     "/timer-types/{id}",
		AuthType: "bearer",
	}, handlers.Serve(rt.types.Rename))

	server.Register(httpserver.Route{
		Name:     "DeleteTimerType",
		Method:   "DELETE",
		Path:     "/timer-types/{id}",
		AuthType: "bearer",
	}, handlers.Serve(rt.types.Delete))
}

func StartServer(cfg *config.Config) {
	InitLogger()
	logger.Info("Starting Timer Service...")

	// Initialize database
	dbConn := database.InitializeDatabase(cfg.Database)
	defer dbConn.Close()

	// Initialize cache
	cache := cachepackage.InitializeCache(cfg.Cache)
	defer cache.Close()
	store := cachepackage.New(cache, cfg.Cache.TTL)

	// Initialize media storage
	storage, err := media.New(context.Background(), cfg.Media)
	if err != nil {
		logger.Error("Failed to initialize media storage", zap.Error(err))
		os.Exit(1)
	}

	authenticator := auth.NewAuthenticator(dbConn, store, cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	typeService := services.NewTimerTypeService(dbConn, store)
	timerService := services.NewTimerService(dbConn, typeService, storage)
	userService := services.NewUserService(dbConn, store, authenticator)

	rt := routes{
		timers: handlers.NewTimerHandler(timerService, cfg.Media.MaxUploadSize),
		types:  handlers.NewTimerTypeHandler(typeService),
		users:  handlers.NewUserHandler(userService),
	}
	if cfg.Media.Backend == "local" {
		rt.mediaRoot = cfg.Media.Root
	}

	// Create HTTP server with authentication
	server := httpserver.New(cfg.Server.Port, checkAuth(authenticator))
	registerRoutes(server, rt)

	logger.Info("Timer Service started", zap.String("port", cfg.Server.Port))
	logger.Info("Health check: GET /health")
	logger.Info("API endpoints: /users, /timers, /timer-types")

	// Start server
	if err := server.Start(); err != nil {
		logger.Error("Server failed to start", zap.Error(err))
		os.Exit(1)
	}
}

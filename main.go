package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abubakar312/chat-app-backend/internal/auth"
	"github.com/Abubakar312/chat-app-backend/internal/chat"
	"github.com/Abubakar312/chat-app-backend/internal/config"
	"github.com/Abubakar312/chat-app-backend/internal/handlers"
	"github.com/Abubakar312/chat-app-backend/internal/logging"
	"github.com/Abubakar312/chat-app-backend/internal/middleware"
	"github.com/Abubakar312/chat-app-backend/internal/store"
	"github.com/Abubakar312/chat-app-backend/internal/store/sqlstore"
	"github.com/Abubakar312/chat-app-backend/internal/ws"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var (
	configPath = flag.String("config", "", "directory holding config.yaml")
	addr       = flag.String("addr", "", "http service address, overrides server.addr")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger := logging.L()
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logging.Init(cfg.Log)
	logger := logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := sqlstore.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open store")
	}
	defer st.Close()

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	var limiter middleware.Counter
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unreachable, rate limiting fails open")
		}
		limiter = middleware.NewRedisCounter(rdb)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(cfg, st, hub, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newRouter wires the REST API, the socket endpoint and the operational
// routes. A nil counter disables rate limiting of the auth endpoints.
func newRouter(cfg *config.Config, st store.Store, hub *ws.Hub, counter middleware.Counter) http.Handler {
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	chatService := chat.NewService(st, hub)

	authHandler := &handlers.AuthHandler{Store: st, Tokens: tokens}
	convHandler := &handlers.ConversationHandler{Store: st, Chat: chatService}
	msgHandler := &handlers.MessageHandler{Store: st, Chat: chatService}
	userHandler := &handlers.UserHandler{Store: st, Presence: hub}
	healthHandler := &handlers.HealthHandler{Store: st}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.Metrics)

	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	if counter != nil {
		limiter := middleware.NewRateLimiter(counter, "auth", cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)
		authRoutes.Use(limiter.Middleware)
	}
	authRoutes.HandleFunc("/register", authHandler.Register).Methods("POST")
	authRoutes.HandleFunc("/login", authHandler.Login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(tokens))

	api.HandleFunc("/conversations", convHandler.CreateGroup).Methods("POST")
	api.HandleFunc("/conversations", convHandler.List).Methods("GET")
	api.HandleFunc("/conversations/dm/{recipientId}", convHandler.FindOrCreateDM).Methods("POST")
	api.HandleFunc("/conversations/{id}/members", convHandler.AddMember).Methods("PUT")
	api.HandleFunc("/conversations/{id}", convHandler.Delete).Methods("DELETE")

	api.HandleFunc("/messages/{conversationId}", msgHandler.List).Methods("GET")
	api.HandleFunc("/messages/{id}", msgHandler.Delete).Methods("DELETE")

	api.HandleFunc("/users", userHandler.List).Methods("GET")
	api.HandleFunc("/users/online", userHandler.Online).Methods("GET")

	// WebSocket Endpoint
	r.Handle("/ws", ws.NewHandler(hub, chatService, tokens, cfg.WebSocket, cfg.CORS))

	r.HandleFunc("/healthz", healthHandler.Check).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", auth.HeaderToken},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !cfg.CORS.AllowAllOrigins(),
		MaxAge:           300,
	})(r)
}

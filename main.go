package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"socaPassportAPI/handlers"
	"socaPassportAPI/internal/config"
	"socaPassportAPI/internal/database"
	"socaPassportAPI/internal/logger"
	"socaPassportAPI/internal/metrics"
	"socaPassportAPI/internal/notification"
	"socaPassportAPI/middleware"
	"socaPassportAPI/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	clerk.SetKey(cfg.Auth.ClerkSecretKey)
	zap.L().Info("clerk initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		zap.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		zap.L().Info("closing database connection pool")
		dbPool.Close()
	}()

	if err := database.Migrate(ctx, dbPool); err != nil {
		zap.L().Fatal("failed to migrate schema", zap.Error(err))
	}
	if cfg.Database.SeedEvents {
		if _, err := database.SeedEvents(ctx, dbPool); err != nil {
			zap.L().Warn("failed to seed events", zap.Error(err))
		}
	}

	reg := prometheus.DefaultRegisterer
	middleware.InitPrometheus(reg)
	metrics.Register(reg)

	store := services.NewPgPassportStore(dbPool)
	registry := services.NewBoundedRegistry(services.NewPgEventRegistry(dbPool), cfg.Passport.RegistryTimeout)
	passportService := services.NewPassportService(store, store, registry)
	accountService := services.NewAccountService(store)

	var dispatcher *services.NotificationDispatcher
	if cfg.Notifications.Enabled {
		dispatcher = services.NewNotificationDispatcher(store, pushProvider(ctx, cfg.Notifications),
			cfg.Notifications.Workers, cfg.Notifications.QueueSize)
		passportService.SetNotifier(dispatcher)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.VisitorTTL)
	go limiter.Cleanup(ctx, cfg.RateLimit.CleanupInterval)

	passportHandler := handlers.NewPassportHandler(passportService, cfg.Passport.RequestTimeout)
	webhookHandler, err := handlers.NewWebhookHandler(accountService, cfg.Auth.ClerkWebhookSecret)
	if err != nil {
		zap.L().Fatal("failed to init clerk webhook handler", zap.Error(err))
	}

	r := mux.NewRouter()
	r.Use(limiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.Auth.MetricsUser, cfg.Auth.MetricsPass)(promhttp.Handler()))
	r.HandleFunc("/health", healthHandler(dbPool)).Methods("GET")
	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	protected := r.PathPrefix("/api/v1/passport").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)
	passportHandler.Routes(protected)

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", "Retry-After"}),
		gorillaHandlers.AllowCredentials(),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      corsHandler(r),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zap.L().Info("starting server", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("error starting server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown error", zap.Error(err))
	}
	if dispatcher != nil {
		dispatcher.Stop()
	}

	zap.L().Info("server shutdown complete")
}

// pushProvider falls back to logging pushes when Firebase is not configured.
func pushProvider(ctx context.Context, cfg config.NotificationsConfig) services.PushNotificationProvider {
	fcm, err := notification.NewFCMService(ctx, cfg.CredentialsJSONBase, cfg.CredentialsFile)
	if err != nil {
		zap.L().Warn("could not initialize FCM, push notifications will only be logged", zap.Error(err))
		return services.LogPushProvider{}
	}
	zap.L().Info("FCM push provider initialized")
	return fcm
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "soca-passport-api"}`))
	}
}

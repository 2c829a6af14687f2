package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"google.golang.org/grpc"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/clinidoc-api/shared/auth"
	"github.com/vasapolrittideah/clinidoc-api/shared/logger"
	"github.com/vasapolrittideah/clinidoc-api/shared/metrics"
	"github.com/vasapolrittideah/clinidoc-api/shared/utilities"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.NewAuthServiceConfig()
	if err != nil {
		bootLogger := logger.New("auth-service", "info", "json")
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New("auth-service", cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("store", cfg.StoreDriver).Msg("starting auth service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, ping, closeStore, err := newUserRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize user store")
	}
	defer closeStore()

	jwtAuth, err := auth.NewJWTAuthenticator(cfg.Token.SecretKey, cfg.Token.Audience, cfg.Token.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token codec")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	providers := newProviderRegistry(cfg, m, log)

	authUsecase := usecase.NewAuthUsecase(userRepo, jwtAuth, providers, cfg.Token, log)
	guard := usecase.NewAccessGuard(jwtAuth, userRepo, log)
	authHandler := handler.NewAuthHTTPHandler(authUsecase, guard, m, log)

	httpServer := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: handler.NewRouter(authHandler, log, handler.RouterConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Gatherer:       prometheus.DefaultGatherer,
			Ping:           ping,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(
		handler.NewAuthInterceptor(guard, log, []string{utilities.HealthCheckMethod}),
	))
	healthServer := utilities.RegisterHealthServer(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("failed to listen for gRPC")
	}

	serveErr := make(chan error, 2)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		log.Error().Err(err).Msg("server failed")
	}

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server forced to shutdown")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("auth service stopped")
}

// newUserRepository builds the configured user store. It returns a health
// probe for the store and a cleanup function.
func newUserRepository(
	ctx context.Context,
	cfg *config.AuthServiceConfig,
	log *zerolog.Logger,
) (repository.UserRepository, func(context.Context) error, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory user store; data is lost on restart")
		return repository.NewUserMemoryRepository(), nil, func() {}, nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, nil, err
	}

	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		disconnect()
		return nil, nil, nil, err
	}

	userRepo, err := repository.NewUserMongoRepository(ctx, log, client.Database(cfg.Mongo.Database))
	if err != nil {
		disconnect()
		return nil, nil, nil, err
	}

	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	ping := func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}

	return userRepo, ping, disconnect, nil
}

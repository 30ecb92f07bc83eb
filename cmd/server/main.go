package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/zapsplit/internal/auth"
	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/config"
	"github.com/mmynk/zapsplit/internal/metrics"
	"github.com/mmynk/zapsplit/internal/middleware"
	"github.com/mmynk/zapsplit/internal/payment/stripe"
	"github.com/mmynk/zapsplit/internal/service"
	"github.com/mmynk/zapsplit/internal/storage"
	"github.com/mmynk/zapsplit/internal/storage/postgres"
	"github.com/mmynk/zapsplit/internal/storage/sqlite"
	"github.com/mmynk/zapsplit/pkg/api/apiconnect"
	"github.com/mmynk/zapsplit/pkg/logging"
)

// apiPrefix is the path prefix of every Connect procedure.
const apiPrefix = "/zapsplit.v1."

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Storage.Driver)

	if cfg.Payments.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is not set; payments will fail")
	}
	gateway := stripe.New(cfg.Payments.StripeSecretKey)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	sessions := auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	m := metrics.New()
	policy := calculator.Policy{TaxRatio: cfg.Payments.TaxRatio}

	paySvc := service.NewPayService(store, gateway, service.PayConfig{
		Currency:         cfg.Payments.Currency,
		PlatformFeeCents: cfg.Payments.PlatformFeeCents,
		Policy:           policy,
	}, m, logger)
	splitSvc := service.NewSplitService(store, service.SplitConfig{
		Policy:    policy,
		LinkTTL:   cfg.Links.TTL,
		PublicURL: cfg.Server.PublicURL,
	}, logger)
	authSvc := service.NewAuthService(authenticator, sessions, store, logger)

	// Metrics wrap everything so rejected calls are counted; logging runs
	// inside auth so it sees the caller.
	interceptors := func(authInterceptor connect.Interceptor) connect.HandlerOption {
		return connect.WithInterceptors(
			middleware.MetricsInterceptor(m),
			authInterceptor,
			middleware.LoggingInterceptor(logger),
		)
	}

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(apiconnect.NewPayServiceHandler(paySvc, interceptors(middleware.OptionalAuth(sessions))))
	mux.Handle(apiconnect.NewSplitServiceHandler(splitSvc, interceptors(middleware.RequireAuth(sessions))))
	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc, interceptors(middleware.OptionalAuth(sessions))))

	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	staticHandler, err := newStaticHandler(cfg.Server.StaticPath, logger)
	if err != nil {
		return err
	}
	mux.Handle("/", staticHandler)

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(logger, corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", server.Addr, "public_url", cfg.Server.PublicURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// openStore opens the configured storage backend.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.URL)
	default:
		return sqlite.New(cfg.Path)
	}
}

// newStaticHandler serves the frontend. Unknown paths fall back to
// index.html so client-side routes like /pay/{code} load the app.
func newStaticHandler(staticPath string, logger *slog.Logger) (http.Handler, error) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static path: %w", err)
	}
	logger.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown Connect procedures must not get the app shell.
		if strings.HasPrefix(r.URL.Path, apiPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}), nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

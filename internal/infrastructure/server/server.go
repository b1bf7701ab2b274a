package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/http"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/middleware"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/api/respond"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/agent"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/identity"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/reconcile"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/view"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/chain"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/fetch"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
)

const readHeaderTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	service  *agent.Service
	issuer   chain.Issuer
	unsynced reconcile.Store
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
}

// Options overrides collaborators that are otherwise built from config
type Options struct {
	Logger  *logging.Logger
	APIKeys []string
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing agent registry gateway",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("gateway", logger.Named("tracing").Logger)

	registry := newLedger(cfg.Ledger, logger, metrics)
	issuer := newIssuer(ctx, cfg.Chain, logger, metrics)

	table, err := loadFieldTable(cfg.Fields)
	if err != nil {
		tracer.Close()
		closeIssuer(issuer)
		return nil, err
	}

	unsynced, err := newUnsyncedStore(ctx, cfg.Reconcile, logger)
	if err != nil {
		tracer.Close()
		closeIssuer(issuer)
		return nil, err
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:     cfg.Fetch.Timeout,
		MaxBytes:    cfg.Fetch.MaxBytes,
		IPFSGateway: cfg.Fetch.IPFSGateway,
	}, logger.Named("fetch").Logger).WithMetrics(metrics)

	service := agent.NewService(agent.Deps{
		Registry: registry,
		Fetcher:  fetcher,
		Resolver: identity.NewResolver(registry, issuer, logger.Named("identity").Logger).WithPending(unsynced),
		Mapper:   view.NewMapper(table),
		Unsynced: unsynced,
		Marker:   cfg.Ledger.Marker,
		Logger:   logger.Named("agent").Logger,
	}).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	corsMiddleware, err := middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.Origins))
	if err != nil {
		tracer.Close()
		closeIssuer(issuer)
		_ = unsynced.Close()
		return nil, fmt.Errorf("invalid CORS configuration: %w", err)
	}

	// Add middleware
	router.Use(respond.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(logging.Middleware(logger.Named("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(corsMiddleware)
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	apiKeys := opts.APIKeys
	if apiKeys == nil {
		apiKeys = config.APIKeys()
	}
	if len(apiKeys) == 0 {
		logger.Warn("No API keys configured, protected routes will answer 500")
	}

	handlers := apihttp.NewHandlers(service, issuer.Account(), logger.Named("handlers").Logger)
	handlers.Register(router, apiKeys)
	router.GET("/metrics", gin.WrapH(monitoring.Handler(metrics)))

	var handler http.Handler = router
	if cfg.Server.Compress {
		handler = gzhttp.GzipHandler(router)
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		handler:  handler,
		service:  service,
		issuer:   issuer,
		unsynced: unsynced,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		tracer:   tracer,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", zap.Duration("timeout", s.config.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

// Close releases every collaborator
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	closeIssuer(s.issuer)
	if err := s.unsynced.Close(); err != nil {
		s.logger.Error("Failed to close unsynced store", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close unsynced store: %w", err))
	}
	s.tracer.Close()

	// Sync logger before exit
	_ = s.logger.Sync()

	return errors.Join(errs...)
}

func newLedger(cfg config.LedgerConfig, logger *logging.Logger, metrics *monitoring.Metrics) ledger.Client {
	if cfg.URL == "" {
		logger.Warn("LEDGER_URL not set, using the in-memory registry")
		return ledger.NewMemory()
	}
	logger.Info("Using remote registry", zap.String("url", cfg.URL))
	return ledger.NewHTTPClient(ledger.Config{
		BaseURL:   cfg.URL,
		Token:     cfg.Token,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	}, logger.Named("ledger").Logger).WithMetrics(metrics)
}

// newIssuer dials the identity registry. Without chain settings the gateway
// still serves reads; minting then fails with a configuration error.
func newIssuer(ctx context.Context, cfg config.ChainConfig, logger *logging.Logger, metrics *monitoring.Metrics) chain.Issuer {
	if !cfg.Configured() {
		err := cfg.Validate()
		logger.Warn("Identity minting disabled", zap.Error(err))
		return chain.Disabled{Err: err}
	}

	minter, err := chain.Dial(ctx, cfg, logger.Named("chain").Logger)
	if err != nil {
		logger.Error("Failed to connect to identity registry", zap.Error(err))
		return chain.Disabled{Err: err}
	}
	logger.Info("Connected to identity registry",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("contract", cfg.ContractAddress),
		zap.String("account", minter.Account()),
	)
	return minter.WithMetrics(metrics)
}

func closeIssuer(issuer chain.Issuer) {
	if m, ok := issuer.(*chain.Minter); ok {
		m.Close()
	}
}

func loadFieldTable(cfg config.FieldsConfig) (*view.Table, error) {
	if cfg.TablePath == "" {
		return view.DefaultTable()
	}
	table, err := view.LoadTable(cfg.TablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load field table: %w", err)
	}
	return table, nil
}

func newUnsyncedStore(ctx context.Context, cfg config.ReconcileConfig, logger *logging.Logger) (reconcile.Store, error) {
	if cfg.DatabaseURL == "" {
		return reconcile.NewMemoryStore(), nil
	}
	store, err := reconcile.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open unsynced store: %w", err)
	}
	logger.Info("Unsynced identities stored in PostgreSQL")
	return store, nil
}

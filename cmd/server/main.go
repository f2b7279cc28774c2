package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listkeep-io/listkeep/internal/api"
	"github.com/listkeep-io/listkeep/internal/auth"
	"github.com/listkeep-io/listkeep/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type config struct {
	httpAddr    string
	storeDriver string
	mongoURI    string
	mongoDB     string
	dbDSN       string

	issuer        string
	publicKeyPath string
	authURL       string
	tokenURL      string
	clientID      string
	clientSecret  string
	redirectURI   string
	clientURL     string

	enforceExpiry  bool
	secure         bool
	stateTTL       time.Duration
	sweepInterval  time.Duration
	tokenCookieTTL time.Duration

	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}

	root := &cobra.Command{
		Use:   "listkeep-server",
		Short: "Listkeep server — multi-user todo list backend",
		Long: `Listkeep server exposes a REST API over todo records backed by a
document store. All routes are gated by bearer-token authentication
against an external OAuth2/OIDC identity provider; the OAuth callback
completes the browser login flow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.httpAddr, "http-addr", envOrDefault("LISTKEEP_HTTP_ADDR", ":3000"), "HTTP listen address")
	root.PersistentFlags().StringVar(&cfg.storeDriver, "store-driver", envOrDefault("LISTKEEP_STORE_DRIVER", "mongo"), "Store backend (mongo, sqlite, postgres or memory)")
	root.PersistentFlags().StringVar(&cfg.mongoURI, "mongo-uri", envOrDefault("LISTKEEP_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	root.PersistentFlags().StringVar(&cfg.mongoDB, "mongo-db", envOrDefault("LISTKEEP_MONGO_DB", "todos"), "MongoDB database name")
	root.PersistentFlags().StringVar(&cfg.dbDSN, "db-dsn", envOrDefault("LISTKEEP_DB_DSN", "./listkeep.db"), "SQL DSN or file path for the sqlite/postgres backends")

	root.PersistentFlags().StringVar(&cfg.issuer, "issuer", envOrDefault("LISTKEEP_ISSUER", ""), "Identity provider issuer URL (required)")
	root.PersistentFlags().StringVar(&cfg.publicKeyPath, "public-key", envOrDefault("LISTKEEP_PUBLIC_KEY", ""), "Path to the provider's PEM public key; OIDC discovery is used when empty")
	root.PersistentFlags().StringVar(&cfg.authURL, "auth-url", envOrDefault("LISTKEEP_AUTH_URL", ""), "Authorization endpoint; discovered from the issuer when empty")
	root.PersistentFlags().StringVar(&cfg.tokenURL, "token-url", envOrDefault("LISTKEEP_TOKEN_URL", ""), "Token endpoint; discovered from the issuer when empty")
	root.PersistentFlags().StringVar(&cfg.clientID, "client-id", envOrDefault("LISTKEEP_CLIENT_ID", ""), "OAuth client id (required)")
	root.PersistentFlags().StringVar(&cfg.clientSecret, "client-secret", envOrDefault("LISTKEEP_CLIENT_SECRET", ""), "OAuth client secret")
	root.PersistentFlags().StringVar(&cfg.redirectURI, "redirect-uri", envOrDefault("LISTKEEP_REDIRECT_URI", ""), "Redirect URI registered with the provider (required)")
	root.PersistentFlags().StringVar(&cfg.clientURL, "client-url", envOrDefault("LISTKEEP_CLIENT_URL", "/"), "Page the OAuth callback redirects to after login")

	root.PersistentFlags().BoolVar(&cfg.enforceExpiry, "enforce-token-expiry", envOrDefaultBool("LISTKEEP_ENFORCE_TOKEN_EXPIRY", true), "Reject expired access tokens")
	root.PersistentFlags().BoolVar(&cfg.secure, "secure-cookies", envOrDefaultBool("LISTKEEP_SECURE_COOKIES", false), "Set the Secure flag on cookies (enable behind HTTPS)")
	root.PersistentFlags().DurationVar(&cfg.stateTTL, "state-ttl", envOrDefaultDuration("LISTKEEP_STATE_TTL", 10*time.Minute), "Lifetime of unconsumed login state values")
	root.PersistentFlags().DurationVar(&cfg.sweepInterval, "state-sweep-interval", envOrDefaultDuration("LISTKEEP_STATE_SWEEP_INTERVAL", time.Minute), "How often abandoned login states are evicted")
	root.PersistentFlags().DurationVar(&cfg.tokenCookieTTL, "token-cookie-ttl", envOrDefaultDuration("LISTKEEP_TOKEN_COOKIE_TTL", time.Hour), "Lifetime of the token cookie set after login")

	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("LISTKEEP_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("listkeep-server %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func run(ctx context.Context, cfg *config) error {
	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.issuer == "" {
		return fmt.Errorf("issuer is required — set --issuer or LISTKEEP_ISSUER")
	}
	if cfg.clientID == "" {
		return fmt.Errorf("client id is required — set --client-id or LISTKEEP_CLIENT_ID")
	}
	if cfg.redirectURI == "" {
		return fmt.Errorf("redirect uri is required — set --redirect-uri or LISTKEEP_REDIRECT_URI")
	}
	if !cfg.enforceExpiry {
		logger.Warn("token expiry enforcement is disabled, expired tokens will be accepted")
	}

	logger.Info("starting listkeep server",
		zap.String("version", version),
		zap.String("http_addr", cfg.httpAddr),
		zap.String("store_driver", cfg.storeDriver),
		zap.String("issuer", cfg.issuer),
		zap.String("log_level", cfg.logLevel),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Store connection — fatal on failure, the server must not accept
	// requests without a reachable store.
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("store connection failed: %w", err)
	}
	defer func() {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelClose()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	// Provider endpoints — discovered from the issuer unless configured.
	authURL, tokenURL := cfg.authURL, cfg.tokenURL
	if tokenURL == "" {
		endpoint, err := auth.DiscoverEndpoints(ctx, cfg.issuer)
		if err != nil {
			return fmt.Errorf("endpoint discovery failed: %w", err)
		}
		authURL, tokenURL = endpoint.AuthURL, endpoint.TokenURL
		logger.Info("discovered provider endpoints", zap.String("token_url", tokenURL))
	}

	var verifier auth.TokenVerifier
	if cfg.publicKeyPath != "" {
		verifier, err = auth.NewStaticVerifierFromFile(cfg.publicKeyPath, cfg.issuer, cfg.enforceExpiry)
	} else {
		verifier, err = auth.NewOIDCVerifier(ctx, cfg.issuer, cfg.enforceExpiry)
	}
	if err != nil {
		return fmt.Errorf("building token verifier: %w", err)
	}

	states := auth.NewStateStore(cfg.stateTTL)

	// Periodic eviction of abandoned login states.
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(cfg.sweepInterval),
		gocron.NewTask(func() {
			if n := states.Sweep(); n > 0 {
				logger.Debug("swept expired auth states", zap.Int("count", n))
			}
		}),
	); err != nil {
		return fmt.Errorf("scheduling state sweep: %w", err)
	}
	sched.Start()
	defer sched.Shutdown() //nolint:errcheck

	exchanger := auth.NewExchanger(auth.ExchangerConfig{
		ClientID:     cfg.clientID,
		ClientSecret: cfg.clientSecret,
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		RedirectURL:  cfg.redirectURI,
	})

	handler := api.NewRouter(api.RouterConfig{
		Store:          st,
		Verifier:       verifier,
		States:         states,
		Exchanger:      exchanger,
		Logger:         logger,
		ClientURL:      cfg.clientURL,
		TokenCookieTTL: cfg.tokenCookieTTL,
		StateCookieTTL: cfg.stateTTL,
		Secure:         cfg.secure,
	})

	srv := &http.Server{
		Addr:              cfg.httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.httpAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down listkeep server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// openStore builds the Store for the configured driver.
func openStore(ctx context.Context, cfg *config, logger *zap.Logger) (store.Store, error) {
	switch cfg.storeDriver {
	case "mongo", "":
		return store.OpenMongo(ctx, cfg.mongoURI, cfg.mongoDB)
	case "sqlite", "postgres":
		return store.OpenSQL(store.SQLConfig{
			Driver: cfg.storeDriver,
			DSN:    cfg.dbDSN,
			Logger: logger,
		})
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.storeDriver)
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config

	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envOrDefaultBool parses the environment variable as a bool.
// Unparseable values fall back to the default rather than aborting.
func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// envOrDefaultDuration parses the environment variable in Go duration
// syntax ("10m", "1h30m").
func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

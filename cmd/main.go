package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/levelgate/audit"
	"github.com/ebogdum/levelgate/auth"
	"github.com/ebogdum/levelgate/config"
	"github.com/ebogdum/levelgate/internal/redact"
	"github.com/ebogdum/levelgate/server"
	"github.com/ebogdum/levelgate/session"
	"github.com/ebogdum/levelgate/store"
	"github.com/ebogdum/levelgate/store/postgres"
	"github.com/ebogdum/levelgate/store/s3audit"
	"github.com/ebogdum/levelgate/store/schema"
	"github.com/ebogdum/levelgate/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "levelgate",
	Short: "levelgate - request authentication and access levels for JSON APIs",
	Long: `levelgate resolves who is calling an API and which access level they hold,
answers in a uniform JSON envelope and keeps an audit trail of API requests.`,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the levelgate server",
	RunE:  runServer,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	RunE:  runMigrations,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the levelgate configuration and display the loaded settings",
	RunE:  validateConfig,
}

var configFilePath string

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serverCmd, migrateCmd, configCmd)

	// If no command specified, default to server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "server")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runServer starts the levelgate server
func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			// Log to stderr since logger may not be working
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()
	redact.SetMode(redact.ParseMode(cfg.Log.RedactMode))

	logger.Info("Starting levelgate server",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("store", cfg.Store.Type))

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	deps := server.Dependencies{
		Resolver: auth.NewResolver(st, logger),
	}

	if cfg.Session.Enabled {
		logger.Info("Initializing session lookup", zap.String("redis_addr", cfg.Session.RedisAddr))
		loader, err := session.NewRedisLoader(
			cfg.Session.RedisAddr,
			cfg.Session.RedisPassword,
			cfg.Session.RedisDB,
			cfg.Session.KeyPrefix,
			st,
			logger)
		if err != nil {
			return fmt.Errorf("failed to initialize session lookup: %w", err)
		}
		defer loader.Close()
		deps.Session = session.Middleware(loader, cfg.Session.CookieName, logger)
	} else {
		logger.Info("Session lookup disabled")
	}

	if cfg.Audit.Enabled {
		writer, err := openAuditWriter(cfg, st, logger)
		if err != nil {
			return err
		}
		deps.Auditor = audit.NewAuditor(writer, cfg.Audit.MaxBodyBytes, logger)
	} else {
		logger.Info("Request auditing disabled")
	}

	router := server.NewRouter(deps, &cfg, logger)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		var err error
		if cfg.Server.CertFile != "" {
			logger.Info("Starting HTTPS server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}

// openStore opens the configured user directory, migrating PostgreSQL first
func openStore(cfg config.AppConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Store.Type {
	case "postgres":
		logger.Info("Running database migrations")
		if err := schema.RunMigrations(cfg.Store.DSN); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		st, err := postgres.NewPostgresStore(cfg.Store.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
		}
		return st, nil
	case "sqlite":
		st, err := sqlite.NewSQLiteStore(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.Store.Type)
	}
}

func openAuditWriter(cfg config.AppConfig, st store.Store, logger *zap.Logger) (store.AuditWriter, error) {
	if cfg.Audit.Sink == "s3" {
		logger.Info("Archiving audit records to S3", zap.String("bucket", cfg.Audit.S3BucketName))
		sink, err := s3audit.NewSink(cfg.Audit, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 audit sink: %w", err)
		}
		return sink, nil
	}
	return st, nil
}

// runMigrations applies the PostgreSQL schema without starting the server
func runMigrations(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Store.Type != "postgres" {
		return fmt.Errorf("migrations apply to the postgres store only; the %s store creates its schema on open", cfg.Store.Type)
	}

	if err := schema.RunMigrations(cfg.Store.DSN); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	fmt.Println("Migrations applied")
	return nil
}

// validateConfig validates the levelgate configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		fmt.Printf("❌ Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("✅ Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("Store: %s\n", cfg.Store.Type)
	if cfg.Store.Type == "postgres" {
		fmt.Printf("Store DSN: %s\n", maskDSN(cfg.Store.DSN))
	} else {
		fmt.Printf("SQLite Path: %s\n", cfg.Store.SQLitePath)
	}
	if cfg.Session.Enabled {
		fmt.Printf("Session Redis: %s (cookie %s)\n", cfg.Session.RedisAddr, cfg.Session.CookieName)
	}
	if cfg.Audit.Enabled {
		fmt.Printf("Audit Sink: %s\n", cfg.Audit.Sink)
		if cfg.Audit.Sink == "s3" {
			fmt.Printf("Audit Bucket: %s (%s)\n", cfg.Audit.S3BucketName, cfg.Audit.S3Region)
		}
	}

	return nil
}

// maskDSN masks sensitive parts of the database DSN for display
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if len(dsn) > 20 {
		return dsn[:10] + "***" + dsn[len(dsn)-7:]
	}
	return "***"
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(logCfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = level

	return cfg.Build()
}

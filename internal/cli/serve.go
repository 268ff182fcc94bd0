package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/easyplit/easyplit/internal/api"
	"github.com/easyplit/easyplit/internal/auth"
	"github.com/easyplit/easyplit/internal/config"
	"github.com/easyplit/easyplit/internal/service"
	"github.com/easyplit/easyplit/internal/storage/sqlite"
	"github.com/easyplit/easyplit/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the Easyplit HTTP API server.

Settings come from the optional TOML file given with --config, then .env,
then the environment (EASYPLIT_ADDR, DB_PATH, STATIC_PATH, JWT_SECRET,
TOKEN_TTL, LOG_LEVEL, METRICS_ENABLED, CORS_ORIGINS).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to a TOML config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.Log.Level)

	ttl, err := cfg.TokenTTL()
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.Storage.DBPath)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, ttl)
	authSvc := service.NewAuthService(
		auth.NewPasswordAuthenticator(store, cfg.Auth.BcryptCost),
		jwtManager,
		store,
		logger,
	)
	server := api.NewServer(
		authSvc,
		service.NewGroupService(store),
		service.NewExpenseService(store),
		jwtManager,
		api.Options{
			StaticPath:     cfg.Server.StaticPath,
			CORSOrigins:    cfg.Server.CORSOrigins,
			MetricsEnabled: cfg.Metrics.Enabled,
		},
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", cfg.Server.Addr, "metrics", cfg.Metrics.Enabled)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
		return err
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	errwrap "github.com/miminai/mimin/internal/errors"
	"github.com/miminai/mimin/internal/metrics"
	"github.com/miminai/mimin/internal/observability"
	"github.com/miminai/mimin/internal/server"
	"github.com/miminai/mimin/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

// collaboratorChecker reports a collaborator that failed at startup as
// degraded. The service keeps answering without it.
func collaboratorChecker(available bool, cause error) handlers.CheckFunc {
	return func(context.Context) error {
		if available {
			return nil
		}
		if cause != nil {
			return fmt.Errorf("%w: %v", handlers.ErrDegraded, cause)
		}
		return handlers.ErrDegraded
	}
}

func registerHealthChecks(hm *handlers.HealthManager, svc *services, metricsEnabled bool) {
	identity := GetAppIdentity()
	hm.RegisterChecker("pipeline", handlers.CheckFunc(func(context.Context) error {
		if svc.Pipeline == nil {
			return errwrap.NewInternalError("pipeline not initialized")
		}
		return nil
	}))
	hm.RegisterChecker("model", collaboratorChecker(svc.Capabilities.AIAvailable, svc.ModelErr))
	if svc.Features.Search {
		hm.RegisterChecker("search", collaboratorChecker(svc.Capabilities.SearchAvailable, svc.SearchErr))
	}
	if metricsEnabled {
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
	}
	hm.RegisterChecker("app_identity", identityHealthChecker{
		binaryName: identity.BinaryName,
		envPrefix:  identity.EnvPrefix,
		configName: identity.ConfigName,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

The generative model and the search backend are probed once at startup.
A collaborator that is unavailable stays unavailable until restart; the
service keeps answering with the remaining ones.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: logged; restart to apply configuration changes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "configuration invalid")
		}

		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, cfg.Debug.Enabled, namespace)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(identity.BinaryName, cfg.Metrics.Port, namespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
			metrics.SetServerStartTime(time.Now().Unix())
		}

		logger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", cfg.Metrics.Port))

		svc := buildServices(ctx, cfg, logger)

		hm := handlers.NewHealthManager(versionInfo.Version)
		registerHealthChecks(hm, svc, cfg.Metrics.Enabled)

		handlers.SetAppIdentity(identity)
		srv := server.New(server.Options{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			CORSOrigins:  cfg.Server.CORSOrigins,
			AdminToken:   cfg.Server.AdminToken,
			Health:       hm,
			API: &handlers.API{
				Pipeline:     svc.Pipeline,
				Fetcher:      svc.Fetcher,
				Capabilities: svc.Capabilities,
				Features:     svc.Features,
				Logger:       logger,
			},
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Stopping metrics exporter...")
			return observability.ShutdownMetrics()
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Collaborators are fixed for the process lifetime, so SIGHUP only
		// reports whether the file still parses.
		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: validating config file")
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Config file is invalid",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			logger.Info("Config file is valid; restart to apply changes",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 5000, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

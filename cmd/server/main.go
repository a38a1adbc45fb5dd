// Package main provides the entry point for the analytics API server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/database"
	"github.com/yourusername/quantdesk/internal/forecast"
	"github.com/yourusername/quantdesk/internal/health"
	"github.com/yourusername/quantdesk/internal/ledger"
	applogger "github.com/yourusername/quantdesk/internal/logger"
	"github.com/yourusername/quantdesk/internal/marketdata"
	"github.com/yourusername/quantdesk/internal/metrics"
	"github.com/yourusername/quantdesk/internal/repository"
	"github.com/yourusername/quantdesk/internal/server"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "quantdesk-server",
	Short: "Financial analytics API server",
	Long:  `Serves market data, backtesting, portfolio analytics, signals, forecasts and paper trading over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	appLog := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"build_date":  BuildDate,
		"environment": cfg.App.Environment,
	}).Info("QuantDesk API server starting")

	metrics.InitRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()
	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("initialize repositories: %w", err)
	}

	httpClient := marketdata.NewRateLimitedHTTPClient(marketdata.HTTPClientConfigFromSettings(cfg.MarketData), appLog)
	defer httpClient.Close()
	provider := marketdata.NewYahooProvider(httpClient, cfg.MarketData.BaseURL, appLog)
	market := marketdata.NewService(provider, time.Duration(cfg.MarketData.CacheTTLSeconds)*time.Second, appLog)

	forecaster := forecast.NewCachedClient(cfg.Forecast, appLog)
	paper := ledger.NewService(repos, &quotePriceSource{market: market}, appLog)

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		Probes: []health.Probe{
			health.DatabaseProbe(db),
			{Name: "market_data", Run: func(ctx context.Context) error {
				// served from cache between quote refreshes
				_, err := market.Quote(ctx, "SPY")
				return err
			}},
		},
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("start health server: %w", err)
	}

	handler := server.NewHandler(market, forecaster, paper, cfg, appLog)
	srv := server.New(cfg, handler, appLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	healthServer.SetReady(true)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLog.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			appLog.WithError(err).Error("HTTP server failed")
		}
	}

	healthServer.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("HTTP server shutdown failed")
	}
	cancel()

	appLog.Info("QuantDesk API server stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// quotePriceSource marks ledger positions with live quotes
type quotePriceSource struct {
	market *marketdata.Service
}

func (q *quotePriceSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	quote, err := q.market.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return quote.Price, nil
}

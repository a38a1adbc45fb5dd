// Package main provides the entry point for the daily report generator.
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
	applogger "github.com/yourusername/quantdesk/internal/logger"
	"github.com/yourusername/quantdesk/internal/marketdata"
	"github.com/yourusername/quantdesk/internal/metrics"
	"github.com/yourusername/quantdesk/internal/report"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
	generator  *report.Generator
	httpClient *marketdata.RateLimitedHTTPClient
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(runCmd, daemonCmd)
}

var rootCmd = &cobra.Command{
	Use:   "quantdesk-report",
	Short: "Daily watchlist report generator",
	Long:  `Generates daily watchlist reports with quotes, trailing metrics and market movers, and maintains the report archive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate one report and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer httpClient.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		result, err := generator.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Report generated: %d/%d symbols succeeded\n", result.Stats.Successful, result.Stats.TotalSymbols)
		return nil
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the report job on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer httpClient.Close()

		scheduler := report.NewScheduler(generator, appLog)
		if err := scheduler.Schedule(cfg.Report.Schedule); err != nil {
			return err
		}
		scheduler.Start()
		appLog.WithField("next_run", scheduler.NextRun().Format(time.RFC3339)).Info("Report daemon running")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		appLog.WithField("signal", sig.String()).Info("Shutting down report daemon")

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return scheduler.Stop(stopCtx)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
	}).Info("QuantDesk report generator starting")

	metrics.InitRegistry()

	httpClient = marketdata.NewRateLimitedHTTPClient(marketdata.HTTPClientConfigFromSettings(cfg.MarketData), appLog)
	provider := marketdata.NewYahooProvider(httpClient, cfg.MarketData.BaseURL, appLog)
	market := marketdata.NewService(provider, time.Duration(cfg.MarketData.CacheTTLSeconds)*time.Second, appLog)

	generator = report.NewGenerator(market, cfg.Report, appLog)
	return nil
}

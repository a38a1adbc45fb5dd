// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/backtest"
	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/marketdata"
	"github.com/yourusername/quantdesk/internal/models"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		symbol       = flag.String("symbol", "SPY", "Symbol to backtest")
		strategyName = flag.String("strategy", "buy_and_hold", "Strategy: buy_and_hold, momentum, mean_reversion, ma_crossover")
		period       = flag.String("period", "1y", "History period: 1mo, 3mo, 6mo, 1y, 2y, 5y, max")
		mode         = flag.String("mode", "single", "Mode: single, compare, monte-carlo, walk-forward")
		output       = flag.String("output", "", "Optional output path for JSON results")
		iterations   = flag.Int("iterations", 1000, "Monte Carlo iterations")
		trainBars    = flag.Int("train-bars", 126, "Walk-forward training window in bars")
		testBars     = flag.Int("test-bars", 42, "Walk-forward test window in bars")
	)
	flag.Parse()

	logger := newLogger()
	ctx := context.Background()

	cfg := loadConfigWithSecrets(*configPath, logger)
	if !marketdata.ValidPeriod(*period) {
		logger.Fatalf("Invalid period: %s", *period)
	}

	prices := fetchHistory(ctx, cfg, *symbol, *period, logger)
	engine := backtest.NewEngine(logger)
	params := paramsFromConfig(cfg)

	logger.WithFields(logrus.Fields{
		"symbol":   *symbol,
		"strategy": *strategyName,
		"mode":     *mode,
		"bars":     len(prices),
	}).Info("Starting backtest")

	strategy := backtest.StrategyType(*strategyName)
	switch *mode {
	case "single":
		runSingle(engine, strategy, prices, params, *symbol, *output, logger)
	case "compare":
		runCompare(engine, prices, params, *symbol, *output, logger)
	case "monte-carlo":
		runMonteCarlo(engine, strategy, prices, params, *iterations, *output, logger)
	case "walk-forward":
		runWalkForward(engine, strategy, prices, params, *trainBars, *testBars, *output, logger)
	default:
		logger.Fatalf("Unsupported mode: %s", *mode)
	}
}

func runSingle(engine *backtest.Engine, strategy backtest.StrategyType, prices models.PriceSeries, params backtest.Params, symbol, output string, logger *logrus.Logger) {
	result, err := engine.Run(strategy, prices, params)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}
	fmt.Print(backtest.ConsoleReport(symbol, map[string]*models.StrategyResult{result.StrategyName: result}))
	writeOutput(output, result, logger)
}

func runCompare(engine *backtest.Engine, prices models.PriceSeries, params backtest.Params, symbol, output string, logger *logrus.Logger) {
	configs := map[backtest.StrategyType]backtest.Params{
		backtest.StrategyBuyAndHold:    params,
		backtest.StrategyMomentum:      params,
		backtest.StrategyMeanReversion: params,
		backtest.StrategyMACrossover:   params,
	}
	results := engine.Compare(prices, configs)
	if len(results) == 0 {
		logger.Fatal("Every strategy failed")
	}
	fmt.Print(backtest.ConsoleReport(symbol, results))
	writeOutput(output, results, logger)
}

func runMonteCarlo(engine *backtest.Engine, strategy backtest.StrategyType, prices models.PriceSeries, params backtest.Params, iterations int, output string, logger *logrus.Logger) {
	result, err := engine.Run(strategy, prices, params)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}
	mc, err := backtest.RunMonteCarlo(result, backtest.MonteCarloConfig{Iterations: iterations})
	if err != nil {
		logger.Fatalf("Monte Carlo failed: %v", err)
	}
	fmt.Printf("Monte Carlo (%d paths over %d bars)\n", mc.Iterations, mc.Horizon)
	fmt.Printf("  Mean return:        %8.2f%%\n", mc.MeanReturn*100)
	fmt.Printf("  Median return:      %8.2f%%\n", mc.MedianReturn*100)
	fmt.Printf("  Std of returns:     %8.2f%%\n", mc.StdReturn*100)
	fmt.Printf("  VaR 95 / 99:        %8.2f%% / %.2f%%\n", mc.VaR95*100, mc.VaR99*100)
	fmt.Printf("  P(profit):          %8.2f%%\n", mc.ProbabilityOfProfit*100)
	writeOutput(output, mc, logger)
}

func runWalkForward(engine *backtest.Engine, strategy backtest.StrategyType, prices models.PriceSeries, params backtest.Params, trainBars, testBars int, output string, logger *logrus.Logger) {
	result, err := engine.RunWalkForward(strategy, prices, params, backtest.WalkForwardConfig{
		TrainBars: trainBars,
		TestBars:  testBars,
	})
	if err != nil {
		logger.Fatalf("Walk-forward failed: %v", err)
	}
	fmt.Printf("Walk-Forward: %s (%d windows)\n", result.Strategy, len(result.Windows))
	fmt.Printf("  Mean test return:   %8.2f%%\n", result.MeanTestReturn)
	fmt.Printf("  Mean test Sharpe:   %8.2f\n", result.MeanTestSharpe)
	fmt.Printf("  Worst test DD:      %8.2f%%\n", result.WorstTestDrawdown)
	fmt.Printf("  Consistency:        %8.2f%%\n", result.ConsistencyScore)
	writeOutput(output, result, logger)
}

func writeOutput(path string, v interface{}, logger *logrus.Logger) {
	if path == "" {
		return
	}
	if err := backtest.WriteJSONReport(path, v); err != nil {
		logger.Fatalf("Failed to write output: %v", err)
	}
	logger.WithField("path", path).Info("Results written")
}

func fetchHistory(ctx context.Context, cfg *config.Config, symbol, period string, logger *logrus.Logger) models.PriceSeries {
	httpClient := marketdata.NewRateLimitedHTTPClient(marketdata.HTTPClientConfigFromSettings(cfg.MarketData), logger)
	defer httpClient.Close()
	provider := marketdata.NewYahooProvider(httpClient, cfg.MarketData.BaseURL, logger)
	service := marketdata.NewService(provider, time.Duration(cfg.MarketData.CacheTTLSeconds)*time.Second, logger)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	prices, err := service.History(ctx, symbol, period)
	if err != nil {
		logger.Fatalf("Failed to fetch history for %s: %v", symbol, err)
	}
	return prices
}

func paramsFromConfig(cfg *config.Config) backtest.Params {
	params := backtest.DefaultParams()
	params.TransactionCost = cfg.Backtest.TransactionCost
	params.Slippage = cfg.Backtest.Slippage
	params.RiskFreeRate = cfg.Analytics.RiskFreeRate
	params.PeriodsPerYear = cfg.Analytics.PeriodsPerYear
	return params
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

func loadConfigWithSecrets(path string, logger *logrus.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			logger.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			logger.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

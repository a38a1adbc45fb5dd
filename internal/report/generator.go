// Package report builds the daily watchlist report and manages the
// report archive on disk.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quantdesk/internal/analytics"
	"github.com/yourusername/quantdesk/internal/config"
	"github.com/yourusername/quantdesk/internal/marketdata"
	"github.com/yourusername/quantdesk/internal/metrics"
	"github.com/yourusername/quantdesk/internal/models"
)

const (
	archiveDirName = "archive"
	filePrefix     = "daily_report_"
	// archives are deleted after three retention windows
	archivePurgeMultiplier = 3
)

// MarketSource is the market data surface the generator depends on
type MarketSource interface {
	Quote(ctx context.Context, symbol string) (*marketdata.Quote, error)
	History(ctx context.Context, symbol, period string) (models.PriceSeries, error)
}

// AssetMetrics is the trailing-month risk block of an asset report
type AssetMetrics struct {
	Volatility  float64 `json:"volatility"`
	MaxDrawdown float64 `json:"max_drawdown"`
	TotalReturn float64 `json:"total_return"`
}

// AssetStatistics summarizes the daily return distribution
type AssetStatistics struct {
	MeanDailyReturn float64 `json:"mean_daily_return"`
	StdDailyReturn  float64 `json:"std_daily_return"`
	MinDailyReturn  float64 `json:"min_daily_return"`
	MaxDailyReturn  float64 `json:"max_daily_return"`
	PositiveDays    int     `json:"positive_days"`
	NegativeDays    int     `json:"negative_days"`
}

// AssetReport is the per-symbol section of the daily report
type AssetReport struct {
	Symbol             string           `json:"symbol"`
	Timestamp          time.Time        `json:"timestamp"`
	CurrentPrice       float64          `json:"current_price"`
	DailyChange        float64          `json:"daily_change"`
	DailyChangePercent float64          `json:"daily_change_percent"`
	OpenPrice          float64          `json:"open_price"`
	HighPrice          float64          `json:"high_price"`
	LowPrice           float64          `json:"low_price"`
	ClosePrice         float64          `json:"close_price"`
	Volume             float64          `json:"volume"`
	MonthlyMetrics     *AssetMetrics    `json:"monthly_metrics,omitempty"`
	Statistics         *AssetStatistics `json:"statistics,omitempty"`
}

// MoverEntry is one row of the gainers/losers lists
type MoverEntry struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

// MarketSummary aggregates the watchlist into movers and averages
type MarketSummary struct {
	Date               string       `json:"date"`
	GeneratedAt        time.Time    `json:"generated_at"`
	TotalAssetsTracked int          `json:"total_assets_tracked"`
	Gainers            []MoverEntry `json:"gainers"`
	Losers             []MoverEntry `json:"losers"`
	AverageChangePct   float64      `json:"average_change_percent"`
}

// GenerationStats records per-run bookkeeping
type GenerationStats struct {
	TotalSymbols         int      `json:"total_symbols"`
	Successful           int      `json:"successful"`
	Failed               int      `json:"failed"`
	Errors               []string `json:"errors"`
	ExecutionTimeSeconds float64  `json:"execution_time_seconds"`
}

// DailyReport is the persisted report document
type DailyReport struct {
	ReportType    string                  `json:"report_type"`
	GeneratedAt   time.Time               `json:"generated_at"`
	Assets        map[string]*AssetReport `json:"assets"`
	MarketSummary *MarketSummary          `json:"market_summary"`
	Stats         GenerationStats         `json:"generation_stats"`
}

// Generator produces and archives daily watchlist reports
type Generator struct {
	market MarketSource
	cfg    config.ReportConfig
	log    *logrus.Logger
	now    func() time.Time
}

// NewGenerator wires the report generator
func NewGenerator(market MarketSource, cfg config.ReportConfig, log *logrus.Logger) *Generator {
	return &Generator{
		market: market,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Run archives old reports, generates the daily report for every
// watchlist symbol, and persists it. A partially failed run still
// produces a report; only a save failure is fatal.
func (g *Generator) Run(ctx context.Context) (*DailyReport, error) {
	start := g.now()
	g.log.WithField("watchlist", len(g.cfg.Watchlist)).Info("Starting daily report generation")
	metrics.WatchlistSize.Set(float64(len(g.cfg.Watchlist)))

	if err := g.ensureDirectories(); err != nil {
		return nil, err
	}
	if err := g.ArchiveOldReports(); err != nil {
		g.log.WithError(err).Error("Report archiving failed")
	}

	report := &DailyReport{
		ReportType:  "daily",
		GeneratedAt: start.UTC(),
		Assets:      make(map[string]*AssetReport, len(g.cfg.Watchlist)),
		Stats: GenerationStats{
			TotalSymbols: len(g.cfg.Watchlist),
			Errors:       []string{},
		},
	}

	for _, symbol := range g.cfg.Watchlist {
		asset, err := withRetry(ctx, g.retrySchedule(), func() (*AssetReport, error) {
			return g.assetReport(ctx, symbol)
		})
		if err != nil {
			report.Stats.Failed++
			report.Stats.Errors = append(report.Stats.Errors, fmt.Sprintf("%s: %v", symbol, err))
			g.log.WithFields(logrus.Fields{"symbol": symbol, "error": err}).Error("Asset report failed")
			metrics.RecordMarketDataError()
			continue
		}
		report.Assets[symbol] = asset
		report.Stats.Successful++
	}

	summary, err := withRetry(ctx, g.retrySchedule(), func() (*MarketSummary, error) {
		return g.marketSummary(ctx)
	})
	if err != nil {
		report.Stats.Errors = append(report.Stats.Errors, fmt.Sprintf("market summary: %v", err))
		g.log.WithError(err).Error("Market summary failed")
	} else {
		report.MarketSummary = summary
	}

	elapsed := g.now().Sub(start)
	report.Stats.ExecutionTimeSeconds = models.Round2(elapsed.Seconds())

	path, err := g.save(report)
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	metrics.RecordReport(elapsed.Seconds())

	g.log.WithFields(logrus.Fields{
		"path":       path,
		"successful": report.Stats.Successful,
		"failed":     report.Stats.Failed,
		"duration":   elapsed.String(),
	}).Info("Daily report generated")

	if report.Stats.Failed > len(g.cfg.Watchlist)/2 {
		g.log.WithFields(logrus.Fields{
			"failed": report.Stats.Failed,
			"total":  len(g.cfg.Watchlist),
		}).Warn("High failure rate in daily report")
	}
	return report, nil
}

// assetReport builds the per-symbol section from the live quote, the
// latest bar, and one month of history
func (g *Generator) assetReport(ctx context.Context, symbol string) (*AssetReport, error) {
	quote, err := g.market.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	asset := &AssetReport{
		Symbol:             symbol,
		Timestamp:          g.now().UTC(),
		CurrentPrice:       models.Round2(quote.Price),
		DailyChange:        models.Round2(quote.Change),
		DailyChangePercent: models.Round2(quote.ChangePercent),
	}

	monthly, err := g.market.History(ctx, symbol, "1mo")
	if err != nil {
		g.log.WithFields(logrus.Fields{"symbol": symbol, "error": err}).Warn("No monthly history for report")
		return asset, nil
	}
	if len(monthly) == 0 {
		return asset, nil
	}

	last := monthly[len(monthly)-1]
	asset.OpenPrice = models.Round2(last.Open)
	asset.HighPrice = models.Round2(last.High)
	asset.LowPrice = models.Round2(last.Low)
	asset.ClosePrice = models.Round2(last.Close)
	asset.Volume = last.Volume

	if len(monthly) > 5 {
		summary := analytics.Compute(monthly, nil, analytics.Options{})
		asset.MonthlyMetrics = &AssetMetrics{
			Volatility:  summary.Volatility,
			MaxDrawdown: summary.MaxDrawdown.Value,
			TotalReturn: summary.TotalReturn,
		}
		asset.Statistics = returnStatistics(monthly.Closes())
	}
	return asset, nil
}

// returnStatistics summarizes the daily return distribution in percent
func returnStatistics(closes []float64) *AssetStatistics {
	returns := analytics.SimpleReturns(closes)
	if len(returns) == 0 {
		return nil
	}

	stats := &AssetStatistics{
		MinDailyReturn: math.Inf(1),
		MaxDailyReturn: math.Inf(-1),
	}
	sum := 0.0
	for _, r := range returns {
		sum += r
		if r < stats.MinDailyReturn {
			stats.MinDailyReturn = r
		}
		if r > stats.MaxDailyReturn {
			stats.MaxDailyReturn = r
		}
		if r > 0 {
			stats.PositiveDays++
		} else if r < 0 {
			stats.NegativeDays++
		}
	}
	mean := sum / float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := 0.0
	if len(returns) > 1 {
		std = math.Sqrt(variance / float64(len(returns)-1))
	}

	stats.MeanDailyReturn = models.Round4(mean * 100)
	stats.StdDailyReturn = models.Round4(std * 100)
	stats.MinDailyReturn = models.Round2(stats.MinDailyReturn * 100)
	stats.MaxDailyReturn = models.Round2(stats.MaxDailyReturn * 100)
	return stats
}

// marketSummary ranks the watchlist by daily change; a symbol without a
// quote is skipped rather than failing the summary
func (g *Generator) marketSummary(ctx context.Context) (*MarketSummary, error) {
	now := g.now()
	summary := &MarketSummary{
		Date:               now.Format("2006-01-02"),
		GeneratedAt:        now.UTC(),
		TotalAssetsTracked: len(g.cfg.Watchlist),
		Gainers:            []MoverEntry{},
		Losers:             []MoverEntry{},
	}

	movers := make([]MoverEntry, 0, len(g.cfg.Watchlist))
	for _, symbol := range g.cfg.Watchlist {
		quote, err := g.market.Quote(ctx, symbol)
		if err != nil {
			g.log.WithFields(logrus.Fields{"symbol": symbol, "error": err}).Warn("Skipping symbol in market summary")
			continue
		}
		movers = append(movers, MoverEntry{
			Symbol:        symbol,
			Price:         models.Round2(quote.Price),
			ChangePercent: models.Round2(quote.ChangePercent),
		})
	}
	if len(movers) == 0 {
		return nil, fmt.Errorf("no quotes available for market summary")
	}

	sort.Slice(movers, func(i, j int) bool {
		return movers[i].ChangePercent > movers[j].ChangePercent
	})
	summary.Gainers = topN(movers, 3)
	summary.Losers = bottomN(movers, 3)

	total := 0.0
	for _, m := range movers {
		total += m.ChangePercent
	}
	summary.AverageChangePct = models.Round2(total / float64(len(movers)))
	return summary, nil
}

func topN(movers []MoverEntry, n int) []MoverEntry {
	if len(movers) < n {
		n = len(movers)
	}
	out := make([]MoverEntry, n)
	copy(out, movers[:n])
	return out
}

func bottomN(movers []MoverEntry, n int) []MoverEntry {
	if len(movers) < n {
		n = len(movers)
	}
	out := make([]MoverEntry, n)
	copy(out, movers[len(movers)-n:])
	return out
}

// withRetry retries fn with exponential backoff, honoring ctx between
// attempts
func withRetry[T any](ctx context.Context, schedule []time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt >= len(schedule) {
			return zero, lastErr
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(schedule[attempt]):
		}
	}
}

// retrySchedule doubles the base backoff for each extra attempt
func (g *Generator) retrySchedule() []time.Duration {
	attempts := g.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := time.Duration(g.cfg.RetryBackoffSeconds) * time.Second
	schedule := make([]time.Duration, attempts-1)
	for i := range schedule {
		schedule[i] = base * time.Duration(1<<i)
	}
	return schedule
}

func (g *Generator) ensureDirectories() error {
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(g.cfg.OutputDir, archiveDirName), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	return nil
}

func (g *Generator) save(report *DailyReport) (string, error) {
	filename := fmt.Sprintf("%s%s.json", filePrefix, g.now().Format("2006-01-02"))
	path := filepath.Join(g.cfg.OutputDir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ArchiveOldReports moves reports past the retention window into the
// archive subdir and purges archives past three windows
func (g *Generator) ArchiveOldReports() error {
	archiveDir := filepath.Join(g.cfg.OutputDir, archiveDirName)
	cutoff := g.now().AddDate(0, 0, -g.cfg.ArchiveAfterDays)
	purgeCutoff := g.now().AddDate(0, 0, -g.cfg.ArchiveAfterDays*archivePurgeMultiplier)

	entries, err := os.ReadDir(g.cfg.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	archived := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileDate, ok := reportFileDate(entry.Name())
		if !ok || !fileDate.Before(cutoff) {
			continue
		}
		src := filepath.Join(g.cfg.OutputDir, entry.Name())
		dst := filepath.Join(archiveDir, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			g.log.WithFields(logrus.Fields{"file": entry.Name(), "error": err}).Error("Failed to archive report")
			continue
		}
		archived++
	}

	deleted := 0
	archiveEntries, err := os.ReadDir(archiveDir)
	if err == nil {
		for _, entry := range archiveEntries {
			fileDate, ok := reportFileDate(entry.Name())
			if !ok || !fileDate.Before(purgeCutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(archiveDir, entry.Name())); err != nil {
				g.log.WithFields(logrus.Fields{"file": entry.Name(), "error": err}).Error("Failed to purge archived report")
				continue
			}
			deleted++
		}
	}

	if archived > 0 || deleted > 0 {
		g.log.WithFields(logrus.Fields{"archived": archived, "purged": deleted}).Info("Report archive maintenance complete")
	}
	return nil
}

// reportFileDate parses the date out of daily_report_YYYY-MM-DD.json
func reportFileDate(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".json") {
		return time.Time{}, false
	}
	dateStr := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".json")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

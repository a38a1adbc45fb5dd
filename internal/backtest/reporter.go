package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/quantdesk/internal/models"
)

// ConsoleReport formats a strategy comparison as a terminal table,
// ordered by Sharpe ratio
func ConsoleReport(symbol string, results map[string]*models.StrategyResult) string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return results[names[i]].SharpeRatio > results[names[j]].SharpeRatio
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Backtest Report: %s\n", symbol)
	b.WriteString(strings.Repeat("=", 96) + "\n")
	fmt.Fprintf(&b, "%-28s %10s %10s %10s %8s %10s %8s %8s\n",
		"Strategy", "Return%", "Annual%", "Vol%", "Sharpe", "MaxDD%", "Win%", "Trades")
	b.WriteString(strings.Repeat("-", 96) + "\n")
	for _, name := range names {
		r := results[name]
		fmt.Fprintf(&b, "%-28s %10.2f %10.2f %10.2f %8.2f %10.2f %8.2f %8d\n",
			r.StrategyName, r.TotalReturn, r.AnnualizedReturn, r.Volatility,
			r.SharpeRatio, r.MaxDrawdown, r.WinRate, r.NumTrades)
	}
	return b.String()
}

// WriteJSONReport persists any report document as indented JSON
func WriteJSONReport(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

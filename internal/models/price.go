package models

import (
	"sort"
	"time"
)

// Bar represents a single OHLCV observation
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is a time-ordered sequence of bars for one asset.
// Timestamps are strictly increasing; gaps (non-trading days) are allowed.
type PriceSeries []Bar

// Closes extracts the close column
func (p PriceSeries) Closes() []float64 {
	closes := make([]float64, len(p))
	for i, b := range p {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volume column
func (p PriceSeries) Volumes() []float64 {
	volumes := make([]float64, len(p))
	for i, b := range p {
		volumes[i] = b.Volume
	}
	return volumes
}

// Dates extracts the timestamp column
func (p PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(p))
	for i, b := range p {
		dates[i] = b.Date
	}
	return dates
}

// Returns computes period-over-period simple returns.
// Length is len(p)-1; the first period has no defined return and is dropped.
func (p PriceSeries) Returns() []float64 {
	if len(p) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(p)-1)
	for i := 1; i < len(p); i++ {
		prev := p[i-1].Close
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, p[i].Close/prev-1)
	}
	return returns
}

// AlignedTable maps asset symbols to close-price columns reduced to a common
// strictly increasing timestamp index. Every column has the same length as Index.
type AlignedTable struct {
	Assets  []string             `json:"assets"`
	Index   []time.Time          `json:"index"`
	Columns map[string][]float64 `json:"columns"`
}

// NumAssets returns the number of asset columns
func (t *AlignedTable) NumAssets() int {
	return len(t.Assets)
}

// Column returns the close column for an asset
func (t *AlignedTable) Column(asset string) []float64 {
	return t.Columns[asset]
}

// ReturnRows computes per-bar simple returns for every asset, dropping the
// first row. Row i corresponds to Index[i+1]; row order follows Assets order.
func (t *AlignedTable) ReturnRows() [][]float64 {
	if len(t.Index) < 2 {
		return [][]float64{}
	}
	rows := make([][]float64, len(t.Index)-1)
	for i := range rows {
		row := make([]float64, len(t.Assets))
		for j, asset := range t.Assets {
			col := t.Columns[asset]
			if col[i] == 0 {
				row[j] = 0
				continue
			}
			row[j] = col[i+1]/col[i] - 1
		}
		rows[i] = row
	}
	return rows
}

// AssetReturns computes the return column for a single asset
func (t *AlignedTable) AssetReturns(asset string) []float64 {
	col := t.Columns[asset]
	if len(col) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(col)-1)
	for i := 1; i < len(col); i++ {
		if col[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, col[i]/col[i-1]-1)
	}
	return returns
}

// AlignSeries inner-joins multiple price series on their timestamps,
// keeping only instants present in every series.
func AlignSeries(series map[string]PriceSeries) *AlignedTable {
	assets := make([]string, 0, len(series))
	for asset := range series {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	if len(assets) == 0 {
		return &AlignedTable{Assets: assets, Index: []time.Time{}, Columns: map[string][]float64{}}
	}

	// Count timestamp occurrences across all series; keep those present everywhere.
	counts := make(map[time.Time]int)
	closeAt := make(map[string]map[time.Time]float64, len(assets))
	for _, asset := range assets {
		byTime := make(map[time.Time]float64, len(series[asset]))
		for _, bar := range series[asset] {
			byTime[bar.Date] = bar.Close
			counts[bar.Date]++
		}
		closeAt[asset] = byTime
	}

	index := make([]time.Time, 0)
	for _, bar := range series[assets[0]] {
		if counts[bar.Date] == len(assets) {
			index = append(index, bar.Date)
		}
	}

	columns := make(map[string][]float64, len(assets))
	for _, asset := range assets {
		col := make([]float64, len(index))
		for i, ts := range index {
			col[i] = closeAt[asset][ts]
		}
		columns[asset] = col
	}

	return &AlignedTable{Assets: assets, Index: index, Columns: columns}
}

package server

// supportedAssets is the curated catalog served by /api/assets and
// scanned by /api/market/overview
var supportedAssets = map[string][]string{
	"stocks": {"AAPL", "MSFT", "GOOGL", "TSLA", "AMZN", "META", "NVDA", "JPM"},
	"etfs":   {"SPY", "QQQ", "IWM", "VTI", "EFA"},
	"crypto": {"BTC-USD", "ETH-USD", "SOL-USD"},
	"forex":  {"EURUSD=X", "GBPUSD=X", "USDJPY=X"},
	"french": {"ENGI.PA", "TTE.PA", "BNP.PA", "SAN.PA"},
}

// overviewSymbols is the market overview scan list
var overviewSymbols = []string{
	"SPY", "QQQ", "AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "BTC-USD", "ETH-USD",
}

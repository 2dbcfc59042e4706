package models

// Institution is a monitorable financial entity offered to the dashboard.
type Institution struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Category groups catalog entries for display.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var catalog = []Institution{
	// Traditional banks
	{Name: "Chase", Category: "bank"},
	{Name: "Bank of America", Category: "bank"},
	{Name: "Wells Fargo", Category: "bank"},
	{Name: "Citibank", Category: "bank"},
	{Name: "Capital One", Category: "bank"},
	// Crypto exchanges
	{Name: "Coinbase", Category: "crypto"},
	{Name: "Binance", Category: "crypto"},
	{Name: "Kraken", Category: "crypto"},
	{Name: "Gemini", Category: "crypto"},
	{Name: "Crypto.com", Category: "crypto"},
	// Crypto wallets
	{Name: "MetaMask", Category: "wallet"},
	{Name: "Phantom", Category: "wallet"},
	{Name: "Ledger", Category: "wallet"},
	{Name: "Trust Wallet", Category: "wallet"},
	// Stock trading
	{Name: "Robinhood", Category: "trading"},
	{Name: "Webull", Category: "trading"},
	{Name: "E*TRADE", Category: "trading"},
	{Name: "Fidelity", Category: "trading"},
	{Name: "Charles Schwab", Category: "trading"},
	{Name: "TD Ameritrade", Category: "trading"},
	// Robo-advisors
	{Name: "Wealthfront", Category: "robo"},
	{Name: "Betterment", Category: "robo"},
	{Name: "Acorns", Category: "robo"},
	// Payment apps
	{Name: "Venmo", Category: "payment"},
	{Name: "Cash App", Category: "payment"},
	{Name: "PayPal", Category: "payment"},
	{Name: "Zelle", Category: "payment"},
	// Neobanks
	{Name: "Chime", Category: "neobank"},
	{Name: "SoFi", Category: "neobank"},
	{Name: "Revolut", Category: "neobank"},
	{Name: "Current", Category: "neobank"},
}

var categories = []Category{
	{ID: "bank", Name: "Traditional Banks"},
	{ID: "crypto", Name: "Crypto Exchanges"},
	{ID: "wallet", Name: "Crypto Wallets"},
	{ID: "trading", Name: "Stock Trading"},
	{ID: "robo", Name: "Robo-Advisors"},
	{ID: "payment", Name: "Payment Apps"},
	{ID: "neobank", Name: "Neobanks"},
}

// Catalog returns the institutions available for monitoring.
func Catalog() []Institution {
	out := make([]Institution, len(catalog))
	copy(out, catalog)
	return out
}

// Categories returns the catalog display groups.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// DefaultWatchlist is the out-of-the-box set of monitored institutions.
func DefaultWatchlist() []string {
	return []string{
		"Chase",
		"Bank of America",
		"Wells Fargo",
		"Coinbase",
		"Binance",
		"Kraken",
		"MetaMask",
		"Robinhood",
		"Fidelity",
		"Charles Schwab",
		"Wealthfront",
		"Venmo",
		"Cash App",
		"PayPal",
		"Chime",
		"SoFi",
	}
}

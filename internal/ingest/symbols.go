package ingest

// Nasdaq100Symbols returns the NASDAQ-100 constituents used when the
// Wikipedia table cannot be read.
func Nasdaq100Symbols() []string {
	return []string{
		"AAPL", "ABNB", "ADBE", "ADI", "ADP", "ADSK", "AEP", "AMAT",
		"AMD", "AMGN", "AMZN", "ANSS", "APP", "ARM", "ASML", "AVGO",
		"AXON", "AZN", "BIIB", "BKNG", "BKR", "CCEP", "CDNS", "CDW",
		"CEG", "CHTR", "CMCSA", "COST", "CPRT", "CRWD", "CSCO", "CSGP",
		"CSX", "CTAS", "CTSH", "DASH", "DDOG", "DXCM", "EA", "EXC",
		"FANG", "FAST", "FTNT", "GEHC", "GFS", "GILD", "GOOG", "GOOGL",
		"HON", "IDXX", "INTC", "INTU", "ISRG", "KDP", "KHC", "KLAC",
		"LIN", "LRCX", "LULU", "MAR", "MCHP", "MDB", "MDLZ", "MELI",
		"META", "MNST", "MRVL", "MSFT", "MSTR", "MU", "NFLX", "NVDA",
		"NXPI", "ODFL", "ON", "ORLY", "PANW", "PAYX", "PCAR", "PDD",
		"PEP", "PLTR", "PYPL", "QCOM", "REGN", "ROP", "ROST", "SBUX",
		"SNPS", "TEAM", "TMUS", "TSLA", "TTD", "TTWO", "TXN", "VRSK",
		"VRTX", "WBD", "WDAY", "XEL", "ZS",
	}
}

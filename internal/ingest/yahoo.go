package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; topcap-index/1.0)"
	quoteBatchSize = 50
)

// Close is a daily closing price.
type Close struct {
	Date  time.Time
	Price float64
}

// Quote carries the fields of a Yahoo quote the ingestor needs.
type Quote struct {
	Symbol            string  `json:"symbol"`
	ShortName         string  `json:"shortName"`
	LongName          string  `json:"longName"`
	SharesOutstanding float64 `json:"sharesOutstanding"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []Quote     `json:"result"`
		Error  *yahooError `json:"error"`
	} `json:"quoteResponse"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooClient reads daily history and share counts from the Yahoo Finance
// chart and quote APIs.
type YahooClient struct {
	client  *http.Client
	baseURL string
}

func NewYahooClient(client *http.Client, baseURL string) *YahooClient {
	return &YahooClient{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// History returns daily closes for symbol between from and to. Days without
// a close are left out.
func (c *YahooClient) History(ctx context.Context, symbol string, from, to time.Time) ([]Close, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprint(from.Unix()))
	q.Set("period2", fmt.Sprint(to.Unix()))
	q.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(yahooSymbol(symbol)), q.Encode())

	var resp chartResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := result.Indicators.Quote[0].Close
	zone := time.FixedZone("exchange", result.Meta.GMTOffset)

	var out []Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		y, m, d := time.Unix(ts, 0).In(zone).Date()
		out = append(out, Close{
			Date:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Price: *closes[i],
		})
	}
	return out, nil
}

// Quotes returns quotes keyed by the symbols passed in.
func (c *YahooClient) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	out := make(map[string]Quote, len(symbols))
	bySymbol := make(map[string]string, len(symbols))
	for _, s := range symbols {
		bySymbol[yahooSymbol(s)] = s
	}

	for start := 0; start < len(symbols); start += quoteBatchSize {
		batch := symbols[start:min(start+quoteBatchSize, len(symbols))]
		requested := make([]string, len(batch))
		for i, s := range batch {
			requested[i] = yahooSymbol(s)
		}

		endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(strings.Join(requested, ",")))
		var resp quoteResponse
		if err := c.getJSON(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("yahoo quote: %w", err)
		}
		if resp.QuoteResponse.Error != nil {
			return nil, fmt.Errorf("yahoo quote: %s", resp.QuoteResponse.Error.Description)
		}
		for _, quote := range resp.QuoteResponse.Result {
			if symbol, ok := bySymbol[quote.Symbol]; ok {
				out[symbol] = quote
			}
		}
	}
	return out, nil
}

func (c *YahooClient) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// yahooSymbol maps class-share tickers such as BRK.B to Yahoo's BRK-B.
func yahooSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "-")
}

package ingest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WikipediaUniverse reads index constituents from a Wikipedia page that
// carries a wikitable with a Ticker or Symbol column.
type WikipediaUniverse struct {
	client *http.Client
	url    string
}

func NewWikipediaUniverse(client *http.Client, url string) *WikipediaUniverse {
	return &WikipediaUniverse{client: client, url: url}
}

func (u *WikipediaUniverse) Symbols(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", u.url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents HTML: %w", err)
	}

	symbols := parseConstituents(doc)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no constituents table found at %s", u.url)
	}
	return symbols, nil
}

// parseConstituents returns the sorted, de-duplicated tickers from the
// first wikitable with a Ticker or Symbol header.
func parseConstituents(doc *goquery.Document) []string {
	var symbols []string

	doc.Find("table.wikitable").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		column := -1
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			switch strings.TrimSpace(th.Text()) {
			case "Ticker", "Symbol":
				if column < 0 {
					column = i
				}
			}
		})
		if column < 0 {
			return true
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cell := row.Children().Eq(column)
			if goquery.NodeName(cell) != "td" {
				return
			}
			if symbol := strings.TrimSpace(cell.Text()); symbol != "" {
				symbols = append(symbols, symbol)
			}
		})
		return len(symbols) == 0
	})

	slices.Sort(symbols)
	return slices.Compact(symbols)
}

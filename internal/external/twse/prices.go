package twse

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// STOCK_DAY returns one calendar month of bars per request, so a date
// range fans out into per-month calls.
const pathStockDay = "/exchangeReport/STOCK_DAY"

// FetchPriceBars fetches daily OHLCV bars for symbol between from and
// to inclusive. Bars come back sorted by trade date ascending with
// change and change-percent derived from consecutive closes, so
// re-fetching the same range always produces the same records.
func (c *Client) FetchPriceBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PriceBar, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s before start %s",
			contracts.ErrParse, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	var bars []contracts.PriceBar

	for month := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !month.After(to); month = month.AddDate(0, 1, 0) {
		params := url.Values{}
		params.Set("response", "json")
		params.Set("date", formatDate(month))
		params.Set("stockNo", symbol)

		envelope, err := c.fetchJSON(ctx, pathStockDay, params)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s: %w", symbol, month.Format("2006-01"), err)
		}
		if envelope.Stat != "OK" {
			// Months with no trading data report a non-OK stat
			c.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"month":  month.Format("2006-01"),
				"stat":   envelope.Stat,
			}).Debug("no price data for month")
			continue
		}

		monthBars, err := parsePriceRows(symbol, envelope.Data)
		if err != nil {
			return nil, fmt.Errorf("parse %s %s: %w", symbol, month.Format("2006-01"), err)
		}
		bars = append(bars, monthBars...)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].TradeDate.Before(bars[j].TradeDate)
	})

	// Trim to the requested window after sorting, then derive changes
	// from consecutive closes
	filtered := bars[:0]
	for _, bar := range bars {
		if bar.TradeDate.Before(from) || bar.TradeDate.After(to) {
			continue
		}
		filtered = append(filtered, bar)
	}
	deriveChanges(filtered)

	return filtered, nil
}

// parsePriceRows converts STOCK_DAY rows into price bars. Row layout:
// date, volume, turnover, open, high, low, close, change, transactions.
func parsePriceRows(symbol string, rows [][]string) ([]contracts.PriceBar, error) {
	bars := make([]contracts.PriceBar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 9 {
			return nil, fmt.Errorf("%w: short row, %d cells", contracts.ErrParse, len(row))
		}

		tradeDate, err := parseDate(row[0])
		if err != nil {
			return nil, err
		}

		bar := contracts.PriceBar{
			Symbol:    symbol,
			TradeDate: tradeDate,
			Volume:    parseNumber(row[1]),
			Turnover:  parseNumber(row[2]),
			Open:      parsePrice(row[3]),
			High:      parsePrice(row[4]),
			Low:       parsePrice(row[5]),
			Close:     parsePrice(row[6]),
		}
		// Corporate-action adjustments are applied downstream; the raw
		// feed carries unadjusted closes only
		bar.AdjClose = bar.Close

		// Halted days report dashes for every price; skip them rather
		// than store a zero bar
		if bar.Open == 0 && bar.High == 0 && bar.Low == 0 && bar.Close == 0 {
			continue
		}

		bars = append(bars, bar)
	}
	return bars, nil
}

// deriveChanges fills Change and ChangePct from consecutive closes.
// The first bar in a window has no predecessor and stays at zero.
func deriveChanges(bars []contracts.PriceBar) {
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		bars[i].Change = bars[i].Close - prev
		bars[i].ChangePct = bars[i].Change / prev * 100
	}
}

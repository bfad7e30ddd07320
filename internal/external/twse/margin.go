package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// MI_MARGN reports one day of margin and short balances for every
// listed symbol. Unlike the other reports its per-symbol rows live in
// a separate field from the market summary.
const pathMargin = "/exchangeReport/MI_MARGN"

// marginResponse is the MI_MARGN envelope: summary totals in data,
// per-symbol rows in creditList.
type marginResponse struct {
	Stat       string     `json:"stat"`
	CreditList [][]string `json:"creditList"`
}

// FetchMarginBalances fetches margin-buy and short-sell balances for
// all listed equities on the given trading date.
func (c *Client) FetchMarginBalances(ctx context.Context, date time.Time) ([]contracts.MarginBalance, error) {
	params := url.Values{}
	params.Set("response", "json")
	params.Set("date", formatDate(date))
	params.Set("selectType", "ALL")

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, pathMargin, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch margin balances %s: %w: %v",
			date.Format("2006-01-02"), contracts.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: TWSE throttled %s", contracts.ErrRateLimited, pathMargin)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: TWSE returned %d", contracts.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", contracts.ErrParse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", contracts.ErrSourceUnavailable, err)
	}
	body = []byte(strings.TrimPrefix(string(body), "\ufeff"))

	var envelope marginResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", contracts.ErrParse, err)
	}
	if envelope.Stat != "OK" {
		c.logger.WithField("date", date.Format("2006-01-02")).Debug("no margin data for date")
		return nil, nil
	}

	return parseMarginRows(date, envelope.CreditList)
}

// parseMarginRows converts MI_MARGN credit rows into margin records.
// Row layout: symbol, name, margin buy, margin sell, margin redeemed,
// margin prev balance, margin balance, margin quota, short sell, short
// cover, short redeemed, short prev balance, short balance, short
// quota, offsetting, note.
func parseMarginRows(date time.Time, rows [][]string) ([]contracts.MarginBalance, error) {
	balances := make([]contracts.MarginBalance, 0, len(rows))
	for _, row := range rows {
		if len(row) < 14 {
			return nil, fmt.Errorf("%w: short row, %d cells", contracts.ErrParse, len(row))
		}
		if !isEquitySymbol(row[0]) {
			continue
		}

		balance := contracts.MarginBalance{
			Symbol:    row[0],
			TradeDate: date,

			MarginBuy:     parseNumber(row[2]),
			MarginSell:    parseNumber(row[3]),
			MarginBalance: parseNumber(row[6]),

			// Short columns report sell/cover in the exchange's
			// buy/sell order: cover first, sell second
			ShortCover:   parseNumber(row[8]),
			ShortSell:    parseNumber(row[9]),
			ShortBalance: parseNumber(row[12]),
		}

		if balance.MarginBalance > 0 {
			balance.ShortMarginRatio = float64(balance.ShortBalance) / float64(balance.MarginBalance) * 100
		}

		balances = append(balances, balance)
	}
	return balances, nil
}

package twse

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// T86 reports one day of institutional trading for every listed symbol
// in a single response.
const pathT86 = "/fund/T86"

// FetchInstitutionalFlow fetches institutional buy/sell activity for
// all listed equities on the given trading date.
func (c *Client) FetchInstitutionalFlow(ctx context.Context, date time.Time) ([]contracts.InstitutionalFlow, error) {
	params := url.Values{}
	params.Set("response", "json")
	params.Set("date", formatDate(date))
	params.Set("selectType", "ALLBUT0999")

	envelope, err := c.fetchJSON(ctx, pathT86, params)
	if err != nil {
		return nil, fmt.Errorf("fetch institutional flow %s: %w", date.Format("2006-01-02"), err)
	}
	if envelope.Stat != "OK" {
		// Non-trading days report a non-OK stat with no data
		c.logger.WithField("date", date.Format("2006-01-02")).Debug("no institutional data for date")
		return nil, nil
	}

	return parseFlowRows(date, envelope.Data)
}

// parseFlowRows converts T86 rows into flow records. Row layout:
// symbol, name, foreign buy/sell/net (3), foreign dealer (3), trust
// buy/sell/net (3), dealer net, dealer self buy/sell/net (3), dealer
// hedge buy/sell/net (3), total net.
func parseFlowRows(date time.Time, rows [][]string) ([]contracts.InstitutionalFlow, error) {
	flows := make([]contracts.InstitutionalFlow, 0, len(rows))
	for _, row := range rows {
		if len(row) < 19 {
			return nil, fmt.Errorf("%w: short row, %d cells", contracts.ErrParse, len(row))
		}
		if !isEquitySymbol(row[0]) {
			continue
		}

		flow := contracts.InstitutionalFlow{
			Symbol:    row[0],
			TradeDate: date,

			ForeignBuy:  parseNumber(row[2]),
			ForeignSell: parseNumber(row[3]),
			ForeignNet:  parseNumber(row[4]),

			TrustBuy:  parseNumber(row[8]),
			TrustSell: parseNumber(row[9]),
			TrustNet:  parseNumber(row[10]),
		}

		// Dealer activity splits into self-trading and hedging columns
		flow.DealerBuy = parseNumber(row[12]) + parseNumber(row[15])
		flow.DealerSell = parseNumber(row[13]) + parseNumber(row[16])
		flow.DealerNet = parseNumber(row[11])

		flow.TotalNet = parseNumber(row[18])

		flows = append(flows, flow)
	}
	return flows, nil
}

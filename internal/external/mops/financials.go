package mops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// Statement detail endpoints for consolidated filings.
const (
	pathIncome   = "/mops/web/ajax_t164sb04" // comprehensive income
	pathBalance  = "/mops/web/ajax_t164sb03" // balance sheet
	pathCashFlow = "/mops/web/ajax_t164sb05" // cash flow
)

// fetchedQuarters bounds each fundamental refresh: the four most
// recent filed quarters cover a full trailing year.
const fetchedQuarters = 4

// FetchFinancialStatements fetches the recent quarterly filings for
// one symbol, oldest first. Quarters the issuer has not filed yet are
// skipped silently.
func (c *Client) FetchFinancialStatements(ctx context.Context, symbol string) ([]contracts.FinancialStatement, error) {
	statements := make([]contracts.FinancialStatement, 0, fetchedQuarters)

	for _, q := range recentQuarters(time.Now(), fetchedQuarters) {
		statement, err := c.fetchQuarter(ctx, symbol, q)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %dQ%d: %w", symbol, q.Year, q.Quarter, err)
		}
		if statement == nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol":  symbol,
				"year":    q.Year,
				"quarter": q.Quarter,
			}).Debug("no filing for quarter")
			continue
		}
		statements = append(statements, *statement)
	}

	return statements, nil
}

// fetchQuarter pulls the three statement tables for one filing and
// folds them into a single record. Returns nil when the quarter has no
// filing.
func (c *Client) fetchQuarter(ctx context.Context, symbol string, q quarter) (*contracts.FinancialStatement, error) {
	incomeDoc, err := c.fetchDocument(ctx, pathIncome, statementForm(symbol, q))
	if err != nil {
		return nil, err
	}
	if !hasStatementTable(incomeDoc) {
		return nil, nil
	}

	balanceDoc, err := c.fetchDocument(ctx, pathBalance, statementForm(symbol, q))
	if err != nil {
		return nil, err
	}
	cashFlowDoc, err := c.fetchDocument(ctx, pathCashFlow, statementForm(symbol, q))
	if err != nil {
		return nil, err
	}

	statement := &contracts.FinancialStatement{
		Symbol:     symbol,
		Year:       q.Year,
		Quarter:    q.Quarter,
		ReportType: "consolidated",
		ReportedAt: time.Now().UTC(),
	}
	parseIncome(incomeDoc, statement)
	parseBalance(balanceDoc, statement)
	parseCashFlow(cashFlowDoc, statement)
	deriveRatios(statement)

	return statement, nil
}

// hasStatementTable reports whether the reply carries a statement
// table. MOPS answers unfiled quarters with a bare notice instead.
func hasStatementTable(doc *goquery.Document) bool {
	if doc.Find("table.hasBorder tr").Length() > 0 {
		return true
	}
	return !strings.Contains(doc.Text(), "查無所需資料")
}

// statementValues extracts label -> first-column amount from a
// statement table. The first numeric column is the queried quarter.
func statementValues(doc *goquery.Document) map[string]string {
	values := make(map[string]string)
	doc.Find("table.hasBorder tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := cleanLabel(cells.Eq(0).Text())
		if label == "" {
			return
		}
		if _, seen := values[label]; !seen {
			values[label] = strings.TrimSpace(cells.Eq(1).Text())
		}
	})
	return values
}

// pick returns the first present label's cell.
func pick(values map[string]string, labels ...string) string {
	for _, label := range labels {
		if v, ok := values[label]; ok {
			return v
		}
	}
	return ""
}

func parseIncome(doc *goquery.Document, s *contracts.FinancialStatement) {
	values := statementValues(doc)
	s.Revenue = parseAmount(pick(values, "營業收入合計", "收益合計", "淨收益"))
	s.GrossProfit = parseAmount(pick(values, "營業毛利（毛損）淨額", "營業毛利（毛損）"))
	s.OperatingIncome = parseAmount(pick(values, "營業利益（損失）", "營業利益"))
	s.NetIncome = parseAmount(pick(values, "本期淨利（淨損）", "本期稅後淨利（淨損）"))
	s.EPS = parseDecimal(pick(values, "基本每股盈餘", "基本每股盈餘合計"))
}

func parseBalance(doc *goquery.Document, s *contracts.FinancialStatement) {
	values := statementValues(doc)
	s.TotalAssets = parseAmount(pick(values, "資產總計", "資產總額"))
	s.TotalLiabilities = parseAmount(pick(values, "負債總計", "負債總額"))
	s.ShareholderEquity = parseAmount(pick(values, "權益總計", "權益總額"))
	s.BookValuePerShare = parseDecimal(pick(values, "每股參考淨值"))

	currentAssets := parseAmount(pick(values, "流動資產合計"))
	currentLiabilities := parseAmount(pick(values, "流動負債合計"))
	if currentLiabilities > 0 {
		s.CurrentRatio = float64(currentAssets) / float64(currentLiabilities) * 100
	}
}

func parseCashFlow(doc *goquery.Document, s *contracts.FinancialStatement) {
	values := statementValues(doc)
	s.OperatingCashFlow = parseAmount(pick(values, "營業活動之淨現金流入（流出）"))
	s.InvestingCashFlow = parseAmount(pick(values, "投資活動之淨現金流入（流出）"))
	s.FinancingCashFlow = parseAmount(pick(values, "籌資活動之淨現金流入（流出）"))
}

// deriveRatios fills the ratio fields computable from the raw lines.
func deriveRatios(s *contracts.FinancialStatement) {
	if s.ShareholderEquity > 0 {
		s.ROE = float64(s.NetIncome) / float64(s.ShareholderEquity) * 100
	}
	if s.TotalAssets > 0 {
		s.ROA = float64(s.NetIncome) / float64(s.TotalAssets) * 100
		s.DebtRatio = float64(s.TotalLiabilities) / float64(s.TotalAssets) * 100
	}
}

package mops

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

const sampleIncomeHTML = `
<html><body>
<table class="hasBorder">
<tr><th>會計項目</th><th>113年第1季</th><th>112年第1季</th></tr>
<tr><td>營業收入合計</td><td>592,644,201</td><td>508,632,973</td></tr>
<tr><td>營業毛利（毛損）淨額</td><td>314,505,758</td><td>245,050,606</td></tr>
<tr><td>營業利益（損失）</td><td>249,018,824</td><td>182,709,381</td></tr>
<tr><td>本期淨利（淨損）</td><td>225,485,291</td><td>206,987,871</td></tr>
<tr><td>基本每股盈餘</td><td>8.70</td><td>7.98</td></tr>
</table>
</body></html>`

const sampleBalanceHTML = `
<html><body>
<table class="hasBorder">
<tr><th>會計項目</th><th>113年03月31日</th></tr>
<tr><td>流動資產合計</td><td>2,512,524,172</td></tr>
<tr><td>流動負債合計</td><td>959,703,357</td></tr>
<tr><td>資產總計</td><td>5,743,612,009</td></tr>
<tr><td>負債總計</td><td>2,124,656,946</td></tr>
<tr><td>權益總計</td><td>3,618,955,063</td></tr>
<tr><td>每股參考淨值</td><td>139.55</td></tr>
</table>
</body></html>`

const sampleCashFlowHTML = `
<html><body>
<table class="hasBorder">
<tr><td>營業活動之淨現金流入（流出）</td><td>436,311,327</td></tr>
<tr><td>投資活動之淨現金流入（流出）</td><td>(159,593,406)</td></tr>
<tr><td>籌資活動之淨現金流入（流出）</td><td>(80,022,406)</td></tr>
</table>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseStatementTables(t *testing.T) {
	statement := &contracts.FinancialStatement{Symbol: "2330", Year: 2024, Quarter: 1}

	parseIncome(mustDoc(t, sampleIncomeHTML), statement)
	parseBalance(mustDoc(t, sampleBalanceHTML), statement)
	parseCashFlow(mustDoc(t, sampleCashFlowHTML), statement)
	deriveRatios(statement)

	assert.Equal(t, int64(592644201), statement.Revenue)
	assert.Equal(t, int64(314505758), statement.GrossProfit)
	assert.Equal(t, int64(249018824), statement.OperatingIncome)
	assert.Equal(t, int64(225485291), statement.NetIncome)
	assert.InDelta(t, 8.70, statement.EPS, 1e-9)

	assert.Equal(t, int64(5743612009), statement.TotalAssets)
	assert.Equal(t, int64(2124656946), statement.TotalLiabilities)
	assert.Equal(t, int64(3618955063), statement.ShareholderEquity)
	assert.InDelta(t, 139.55, statement.BookValuePerShare, 1e-9)

	assert.Equal(t, int64(436311327), statement.OperatingCashFlow)
	assert.Equal(t, int64(-159593406), statement.InvestingCashFlow, "parenthesized values are negative")
	assert.Equal(t, int64(-80022406), statement.FinancingCashFlow)

	assert.InDelta(t, 225485291.0/3618955063.0*100, statement.ROE, 1e-9)
	assert.InDelta(t, 225485291.0/5743612009.0*100, statement.ROA, 1e-9)
	assert.InDelta(t, 2124656946.0/5743612009.0*100, statement.DebtRatio, 1e-9)
	assert.InDelta(t, 2512524172.0/959703357.0*100, statement.CurrentRatio, 1e-9)
}

func TestHasStatementTable(t *testing.T) {
	assert.True(t, hasStatementTable(mustDoc(t, sampleIncomeHTML)))
	assert.False(t, hasStatementTable(mustDoc(t, `<html><body><font color="red">查無所需資料！</font></body></html>`)))
}

func TestRecentQuarters(t *testing.T) {
	// Mid-March 2024: Q4 2023 is due but the anchor falls in Q1, so
	// the newest filed quarter is 2023 Q4
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	quarters := recentQuarters(now, 4)

	require.Len(t, quarters, 4)
	assert.Equal(t, quarter{Year: 2023, Quarter: 1}, quarters[0])
	assert.Equal(t, quarter{Year: 2023, Quarter: 4}, quarters[3])
}

func TestRecentQuartersYearBoundary(t *testing.T) {
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	quarters := recentQuarters(now, 2)

	require.Len(t, quarters, 2)
	assert.Equal(t, quarter{Year: 2023, Quarter: 2}, quarters[0])
	assert.Equal(t, quarter{Year: 2023, Quarter: 3}, quarters[1])
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, int64(1234567), parseAmount("1,234,567"))
	assert.Equal(t, int64(-500), parseAmount("(500)"))
	assert.Equal(t, int64(0), parseAmount("--"))
}

func TestStatementForm(t *testing.T) {
	form := statementForm("2330", quarter{Year: 2024, Quarter: 1})
	assert.Equal(t, "2330", form.Get("co_id"))
	assert.Equal(t, "113", form.Get("year"), "MOPS takes ROC years")
	assert.Equal(t, "01", form.Get("season"))
}

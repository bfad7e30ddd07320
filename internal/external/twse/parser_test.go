package twse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{
			name: "roc calendar",
			raw:  "112/01/15",
			want: time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "roc calendar with spaces",
			raw:  " 113/12/31 ",
			want: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "western compact",
			raw:  "20240115",
			want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			raw:     "not-a-date",
			wantErr: true,
		},
		{
			name:    "roc with missing part",
			raw:     "112/01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(1234567), parseNumber("1,234,567"))
	assert.Equal(t, int64(-50000), parseNumber("-50,000"))
	assert.Equal(t, int64(0), parseNumber("--"))
	assert.Equal(t, int64(0), parseNumber(""))
	assert.Equal(t, int64(0), parseNumber("N/A"))
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 593.0, parsePrice("593.00"))
	assert.Equal(t, 1085.0, parsePrice("1,085.00"))
	assert.Equal(t, 0.0, parsePrice("--"))
}

func TestIsEquitySymbol(t *testing.T) {
	assert.True(t, isEquitySymbol("2330"))
	assert.True(t, isEquitySymbol(" 0050 "))
	assert.False(t, isEquitySymbol("2330A"))   // warrant
	assert.False(t, isEquitySymbol("911616"))  // TDR
	assert.False(t, isEquitySymbol("IX0001"))  // index
	assert.False(t, isEquitySymbol(""))
}

func TestParsePriceRows(t *testing.T) {
	rows := [][]string{
		{"113/01/02", "25,033,256", "14,741,662,655", "590.00", "593.00", "586.00", "593.00", "+0.00", "28,098"},
		{"113/01/03", "31,929,448", "18,577,564,280", "584.00", "585.00", "578.00", "578.00", "-15.00", "45,496"},
		{"113/01/04", "--", "--", "--", "--", "--", "--", "--", "0"}, // halted day
	}

	bars, err := parsePriceRows("2330", rows)
	require.NoError(t, err)
	require.Len(t, bars, 2, "halted row should be skipped")

	first := bars[0]
	assert.Equal(t, "2330", first.Symbol)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), first.TradeDate)
	assert.Equal(t, 590.0, first.Open)
	assert.Equal(t, 593.0, first.High)
	assert.Equal(t, 586.0, first.Low)
	assert.Equal(t, 593.0, first.Close)
	assert.Equal(t, 593.0, first.AdjClose)
	assert.Equal(t, int64(25033256), first.Volume)
	assert.Equal(t, int64(14741662655), first.Turnover)
}

func TestParsePriceRowsShortRow(t *testing.T) {
	_, err := parsePriceRows("2330", [][]string{{"113/01/02", "100"}})
	assert.Error(t, err)
}

func TestDeriveChanges(t *testing.T) {
	bars, err := parsePriceRows("2330", [][]string{
		{"113/01/02", "1,000", "593,000", "590.00", "593.00", "586.00", "593.00", "+0.00", "10"},
		{"113/01/03", "1,000", "578,000", "584.00", "585.00", "578.00", "578.00", "-15.00", "10"},
	})
	require.NoError(t, err)
	deriveChanges(bars)

	assert.Equal(t, 0.0, bars[0].Change, "first bar has no predecessor")
	assert.InDelta(t, -15.0, bars[1].Change, 1e-9)
	assert.InDelta(t, -15.0/593.0*100, bars[1].ChangePct, 1e-9)
}

func TestParseFlowRows(t *testing.T) {
	// T86 row: symbol, name, foreign(3), foreign dealer(3), trust(3),
	// dealer net, dealer self(3), dealer hedge(3), total
	rows := [][]string{
		{
			"2330", "台積電",
			"47,286,495", "39,016,622", "8,269,873",
			"0", "0", "0",
			"1,032,000", "180,000", "852,000",
			"601,697",
			"400,000", "100,000", "300,000",
			"500,000", "198,303", "301,697",
			"9,723,570",
		},
		{
			"0099P", "ETN", // non-equity row filtered out
			"0", "0", "0", "0", "0", "0", "0", "0", "0",
			"0", "0", "0", "0", "0", "0", "0", "0",
		},
	}

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	flows, err := parseFlowRows(date, rows)
	require.NoError(t, err)
	require.Len(t, flows, 1)

	flow := flows[0]
	assert.Equal(t, "2330", flow.Symbol)
	assert.Equal(t, date, flow.TradeDate)
	assert.Equal(t, int64(47286495), flow.ForeignBuy)
	assert.Equal(t, int64(39016622), flow.ForeignSell)
	assert.Equal(t, int64(8269873), flow.ForeignNet)
	assert.Equal(t, int64(1032000), flow.TrustBuy)
	assert.Equal(t, int64(852000), flow.TrustNet)
	assert.Equal(t, int64(900000), flow.DealerBuy, "self plus hedge buys")
	assert.Equal(t, int64(298303), flow.DealerSell, "self plus hedge sells")
	assert.Equal(t, int64(601697), flow.DealerNet)
	assert.Equal(t, int64(9723570), flow.TotalNet)
}

func TestParseMarginRows(t *testing.T) {
	rows := [][]string{
		{
			"2330", "台積電",
			"1,234", "5,678", "10", "20,000", "15,546", "6,471,023",
			"321", "654", "5", "3,000", "2,667", "6,471,023",
			"12", "",
		},
		{
			"IX0001", "summary", // filtered
			"0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "0", "",
		},
	}

	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	balances, err := parseMarginRows(date, rows)
	require.NoError(t, err)
	require.Len(t, balances, 1)

	balance := balances[0]
	assert.Equal(t, "2330", balance.Symbol)
	assert.Equal(t, int64(1234), balance.MarginBuy)
	assert.Equal(t, int64(5678), balance.MarginSell)
	assert.Equal(t, int64(15546), balance.MarginBalance)
	assert.Equal(t, int64(321), balance.ShortCover)
	assert.Equal(t, int64(654), balance.ShortSell)
	assert.Equal(t, int64(2667), balance.ShortBalance)
	assert.InDelta(t, 2667.0/15546.0*100, balance.ShortMarginRatio, 1e-9)
}

func TestParseMarginRowsZeroBalance(t *testing.T) {
	rows := [][]string{
		{"1101", "台泥", "0", "0", "0", "0", "0", "100", "0", "0", "0", "0", "50", "100", "0", ""},
	}
	balances, err := parseMarginRows(time.Now(), rows)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, 0.0, balances[0].ShortMarginRatio, "zero margin balance keeps ratio at zero")
}

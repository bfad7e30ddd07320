package mops

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/httputil"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// Client scrapes quarterly filings from the Market Observation Post
// System. MOPS has no JSON API for statement detail, so responses are
// HTML tables parsed with goquery. The observatory throttles harder
// than the exchange, hence the separate rate limit.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new MOPS client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.MOPS.RequestTimeout).
		WithRateLimit(cfg.MOPS.RatePerMinute)

	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", "mops"),
		baseURL:    cfg.MOPS.BaseURL,
	}
}

// fetchDocument POSTs a statement query form and parses the HTML reply.
func (c *Client) fetchDocument(ctx context.Context, path string, form url.Values) (*goquery.Document, error) {
	fullURL := c.baseURL + path

	resp, err := c.httpClient.PostForm(ctx, fullURL, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: MOPS throttled %s", contracts.ErrRateLimited, path)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: MOPS returned %d", contracts.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", contracts.ErrParse, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", contracts.ErrParse, err)
	}
	return doc, nil
}

// quarter identifies one filing period.
type quarter struct {
	Year    int // western calendar
	Quarter int
}

// recentQuarters lists the most recent quarters whose filing deadline
// has passed, newest last. Quarterly filings are due 45 days after the
// quarter closes, so the "current" quarter lags accordingly.
func recentQuarters(now time.Time, count int) []quarter {
	// Step back past the filing lag, then walk whole quarters
	anchor := now.AddDate(0, 0, -45)
	year := anchor.Year()
	q := (int(anchor.Month())-1)/3 + 1

	// The quarter containing the anchor is still open; the latest
	// filed quarter is the one before it
	q--
	if q == 0 {
		q = 4
		year--
	}

	quarters := make([]quarter, count)
	for i := count - 1; i >= 0; i-- {
		quarters[i] = quarter{Year: year, Quarter: q}
		q--
		if q == 0 {
			q = 4
			year--
		}
	}
	return quarters
}

// statementForm builds the common MOPS query form. MOPS takes ROC
// calendar years.
func statementForm(symbol string, q quarter) url.Values {
	form := url.Values{}
	form.Set("encodeURIComponent", "1")
	form.Set("step", "1")
	form.Set("firstin", "1")
	form.Set("off", "1")
	form.Set("co_id", symbol)
	form.Set("year", strconv.Itoa(q.Year-1911))
	form.Set("season", fmt.Sprintf("%02d", q.Quarter))
	return form
}

// cleanLabel normalizes a table header cell for label matching.
func cleanLabel(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}

// parseAmount parses a comma-grouped statement amount in thousands.
// Parenthesized values are negative.
func parseAmount(raw string) int64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" || raw == "--" || raw == "-" {
		return 0
	}
	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -n
	}
	return n
}

// parseDecimal parses a decimal statement cell such as EPS.
func parseDecimal(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" || raw == "--" || raw == "-" {
		return 0
	}
	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -f
	}
	return f
}

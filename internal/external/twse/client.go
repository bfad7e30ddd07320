package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/httputil"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// Client talks to the Taiwan Stock Exchange open endpoints. All TWSE
// calls in the application go through this client, which carries its
// own rate limiter so worker-pool parallelism never exceeds the
// exchange's request ceiling.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new TWSE client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.TWSE.RequestTimeout).
		WithRateLimit(cfg.TWSE.RatePerMinute)

	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", "twse"),
		baseURL:    cfg.TWSE.BaseURL,
	}
}

// response is the envelope every TWSE report endpoint returns.
type response struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// fetchJSON performs a GET and decodes the TWSE envelope, mapping
// transport failures onto the pipeline error taxonomy.
func (c *Client) fetchJSON(ctx context.Context, path string, params url.Values) (*response, error) {
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: TWSE throttled %s", contracts.ErrRateLimited, path)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: TWSE returned %d", contracts.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", contracts.ErrParse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", contracts.ErrSourceUnavailable, err)
	}

	// The exchange sometimes prefixes responses with a BOM
	body = []byte(strings.TrimPrefix(string(body), "\ufeff"))

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", contracts.ErrParse, err)
	}

	return &envelope, nil
}

// formatDate renders a date in the YYYYMMDD form TWSE expects.
func formatDate(date time.Time) string {
	return date.Format("20060102")
}

// parseDate parses both ROC-calendar dates (112/01/15) and western
// YYYYMMDD strings.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	if strings.Contains(raw, "/") {
		parts := strings.Split(raw, "/")
		if len(parts) != 3 {
			return time.Time{}, fmt.Errorf("%w: bad date %q", contracts.ErrParse, raw)
		}
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad date %q", contracts.ErrParse, raw)
		}
		month, err := strconv.Atoi(parts[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad date %q", contracts.ErrParse, raw)
		}
		day, err := strconv.Atoi(parts[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad date %q", contracts.ErrParse, raw)
		}
		// ROC year 112 = 2023
		return time.Date(year+1911, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
	}

	parsed, err := time.Parse("20060102", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", contracts.ErrParse, raw)
	}
	return parsed, nil
}

// parseNumber parses TWSE comma-grouped integers. Dashes and empty
// cells read as zero.
func parseNumber(raw string) int64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" || raw == "--" || raw == "-" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parsePrice parses TWSE decimal price cells. Dashes (halted symbols)
// read as zero.
func parsePrice(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" || raw == "--" || raw == "-" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// isEquitySymbol filters out index and summary rows: listed common
// shares carry four-digit codes.
func isEquitySymbol(symbol string) bool {
	symbol = strings.TrimSpace(symbol)
	if len(symbol) != 4 {
		return false
	}
	for _, r := range symbol {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

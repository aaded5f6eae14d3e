// Package trudvsem downloads vacancies from the opendata.trudvsem.ru API
package trudvsem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vacancy-codes/internal/vacancy"
)

// ErrBadStatus is returned when the API answers with a non-200 status, either
// on the HTTP response or in the JSON envelope
var ErrBadStatus = errors.New("trudvsem: bad status")

// Config configures a Client
type Config struct {
	BaseURL   string
	Region    string
	PageSize  int
	RateLimit float64 // requests per second, 0 disables throttling
	Timeout   time.Duration
}

// Client pages through the regional vacancy listing
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates an API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger.Named("trudvsem"),
	}
}

func (c *Client) pageURL(offset int) string {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	return fmt.Sprintf("%s/api/v1/vacancies/region/%s?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.Region), q.Encode())
}

// FetchPage downloads one page. offset counts pages, not records.
func (c *Client) FetchPage(ctx context.Context, offset int) (*vacancy.Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(offset), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: page %d: http %d", ErrBadStatus, offset, resp.StatusCode)
	}

	var page vacancy.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", offset, err)
	}
	if page.Status != "200" {
		return nil, fmt.Errorf("%w: page %d: api status %q", ErrBadStatus, offset, page.Status)
	}
	return &page, nil
}

// FetchAll downloads pages from startOffset until the API reports a non-200
// status or returns an empty page. A bad status on the first page is an error;
// later it marks the end of the listing.
func (c *Client) FetchAll(ctx context.Context, startOffset int) ([]vacancy.Raw, error) {
	var all []vacancy.Raw
	for offset := startOffset; ; offset++ {
		page, err := c.FetchPage(ctx, offset)
		if err != nil {
			if errors.Is(err, ErrBadStatus) && offset > startOffset {
				c.logger.Debug("listing ended", zap.Int("offset", offset), zap.Error(err))
				break
			}
			return nil, err
		}

		got := page.Results.Vacancies
		c.logger.Info("fetched page", zap.Int("offset", offset), zap.Int("vacancies", len(got)))
		if len(got) == 0 {
			break
		}
		all = append(all, got...)
	}
	return all, nil
}

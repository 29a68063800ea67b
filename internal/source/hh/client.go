// Package hh queries the HH.ru vacancies API, one request per configured
// region, with a politeness delay between requests.
package hh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"hhbot/internal/config"
	"hhbot/pkg/logx"
)

const (
	defaultBaseURL  = "https://api.hh.ru/vacancies"
	defaultPageSize = 100
	// The API rejects requests without a User-Agent.
	userAgent = "hhbot/1.0"
)

type Config struct {
	BaseURL        string
	PageSize       int
	Lookback       time.Duration
	Politeness     time.Duration
	RequestTimeout time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if cfg.Politeness <= 0 {
		cfg.Politeness = time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Every(cfg.Politeness), 1),
		log:     log,
	}
}

// FetchAll queries every region independently and concatenates the
// results, each tagged with its region label. A failed region is logged
// and skipped; it never aborts the other regions.
func (c *Client) FetchAll(ctx context.Context, query string, regions []config.Region) []Result {
	dateFrom := time.Now().Add(-c.cfg.Lookback)

	var out []Result
	for _, region := range regions {
		if err := c.limiter.Wait(ctx); err != nil {
			c.log.Warn("fetch canceled", logx.Err(err))
			return out
		}
		items, err := c.Search(ctx, query, region.Area, dateFrom)
		if err != nil {
			c.log.Warn("region fetch failed, skipping",
				logx.String("region", region.Label),
				logx.String("area", region.Area),
				logx.Err(err))
			continue
		}
		label := region.Label
		if label == "" {
			label = region.Area
		}
		for _, v := range items {
			out = append(out, Result{Region: label, Vacancy: v})
		}
		c.log.Debug("region fetched",
			logx.String("region", label),
			logx.Int("items", len(items)))
	}
	return out
}

// Search issues one query for a single region, newest publications first,
// bounded below by dateFrom.
func (c *Client) Search(ctx context.Context, query, area string, dateFrom time.Time) ([]Vacancy, error) {
	params := url.Values{}
	params.Set("text", query)
	params.Set("area", area)
	params.Set("per_page", strconv.Itoa(c.cfg.PageSize))
	params.Set("date_from", dateFrom.Format(PublishedLayout))
	params.Set("order_by", "publication_time")

	reqURL := c.cfg.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hh returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return sr.Items, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

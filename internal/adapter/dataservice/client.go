package dataservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/observability"
)

// HazardSource describes one hazard collection served by the backend.
type HazardSource struct {
	Tag          string
	Path         string
	Kind         domain.HazardKind
	DefaultLabel string
}

// HazardSources are the collections fetched at session start.
var HazardSources = []HazardSource{
	{Tag: "roadreport", Path: "/roadreport/all", Kind: domain.KindRoadDamage, DefaultLabel: "도로 파손"},
	{Tag: "gg-subsidence", Path: "/gg/subsidence/", Kind: domain.KindSubsidence, DefaultLabel: "지반침하"},
	{Tag: "ss-subsidence", Path: "/api/subsidence/coords/", Kind: domain.KindSubsidence, DefaultLabel: "지하안전정보"},
}

const routePath = "/naver/proxy/"

// Client talks to the backend data service: the route-search proxy and the
// hazard collections.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a data service client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// FetchRoute asks the route proxy for a route between two "lng,lat" points.
// A response without any route option yields an empty Route.
func (c *Client) FetchRoute(ctx context.Context, start, goal string) (domain.Route, error) {
	params := url.Values{
		"start": {start},
		"goal":  {goal},
	}
	body, err := c.doRequest(ctx, "route", routePath, params)
	if err != nil {
		return domain.Route{}, err
	}
	return domain.ParseRoutePayload(body)
}

// FetchHazards fetches every hazard collection concurrently. A collection
// that fails is logged and left out; the rest are returned in source order.
func (c *Client) FetchHazards(ctx context.Context) []domain.RawDataset {
	results := make([]*domain.RawDataset, len(HazardSources))

	var wg sync.WaitGroup
	for i, src := range HazardSources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := c.doRequest(ctx, "hazards", src.Path, nil)
			if err != nil {
				c.logger.Warn("hazard fetch failed, continuing without it", "source", src.Tag, "error", err)
				return
			}
			results[i] = &domain.RawDataset{
				Tag:          src.Tag,
				Kind:         src.Kind,
				DefaultLabel: src.DefaultLabel,
				Payload:      json.RawMessage(body),
			}
		}()
	}
	wg.Wait()

	out := make([]domain.RawDataset, 0, len(results))
	for _, ds := range results {
		if ds != nil {
			out = append(out, *ds)
		}
	}
	return out
}

func (c *Client) doRequest(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	body, err := c.do(req, endpoint)
	c.metrics.DataServiceDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.DataServiceRequests.WithLabelValues(endpoint, outcome).Inc()
	return body, err
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("data service error: %s: status %d: %s", req.URL.Path, resp.StatusCode, body)
	}
	return body, nil
}

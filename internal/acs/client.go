// Package acs fetches tract-level ACS 5-year estimates from the Census
// Bureau API. The API answers with a JSON 2D string array whose first row is
// the header; everything is typed once here at the boundary so downstream
// stages never see raw strings.
package acs

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
)

const defaultBaseURL = "https://api.census.gov/data"

// TractRent is one tract-year observation. Estimate is nil when the source
// value is missing or unparsable; the row itself is kept.
type TractRent struct {
	GeoID    string
	Year     int
	Estimate *float64
}

// Query scopes a fetch: every tract in one state, filtered client-side to a
// county allow-list (the API cannot filter on multiple counties directly).
type Query struct {
	StateFIPS string
	Counties  []string
	Variable  string
}

// Client talks to the ACS5 endpoint. BaseURL is exported so tests can point
// it at a local server.
type Client struct {
	BaseURL    string
	httpClient *http.Client
	key        string
}

func New(key string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		key:        key,
	}
}

// FetchYear pulls one year's worth of tract rows. Any transport failure,
// non-2xx status, or undecodable body is returned as an error for this year
// only; the caller decides whether that dooms the whole run.
func (c *Client) FetchYear(ctx context.Context, year int, q Query) ([]TractRent, error) {
	endpoint := fmt.Sprintf("%s/%d/acs/acs5", c.BaseURL, year)

	params := url.Values{}
	params.Set("get", "NAME,"+q.Variable)
	params.Set("for", "tract:*")
	params.Set("in", "state:"+q.StateFIPS)
	if c.key != "" {
		params.Set("key", c.key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("acs %d: build request: %w", year, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("acs %d: %w", year, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("acs %d: read body: %w", year, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface a body excerpt for diagnosis; the API reports most
		// problems (bad key, unpublished vintage) as plain-text bodies.
		return nil, fmt.Errorf("acs %d: status %d: %s", year, resp.StatusCode, excerpt(body))
	}

	var table [][]string
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("acs %d: decode response: %s: %w", year, excerpt(body), err)
	}
	if len(table) < 1 {
		return nil, fmt.Errorf("acs %d: empty response table", year)
	}

	cols := columnIndex(table[0])
	for _, name := range []string{q.Variable, "state", "county", "tract"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("acs %d: response missing column %q", year, name)
		}
	}

	allowed := make(map[string]bool, len(q.Counties))
	for _, county := range q.Counties {
		allowed[county] = true
	}

	rows := make([]TractRent, 0, len(table)-1)
	for _, raw := range table[1:] {
		if len(raw) != len(table[0]) {
			continue
		}
		county := raw[cols["county"]]
		if !allowed[county] {
			continue
		}
		rows = append(rows, TractRent{
			GeoID:    raw[cols["state"]] + county + raw[cols["tract"]],
			Year:     year,
			Estimate: parseEstimate(raw[cols[q.Variable]]),
		})
	}
	return rows, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return idx
}

// parseEstimate converts the string-typed estimate into a nullable float.
// The ACS encodes suppressed or unavailable values as large negative
// sentinels (e.g. -666666666); those and anything unparsable become nil.
func parseEstimate(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 500 {
		s = s[:500] + "..."
	}
	return s
}

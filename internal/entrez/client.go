// Package entrez implements the two-phase NCBI E-utilities interaction:
// an ESearch establishing a history-server result set, then an EFetch
// pulling the full records as GenBank flat-file text.
package entrez

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seqwell/isosrc/internal/cache"
	"github.com/seqwell/isosrc/internal/echo"
	"github.com/seqwell/isosrc/internal/genbank"
	"github.com/seqwell/isosrc/internal/model"
)

// maxPayloadBytes caps one EFetch response; a batch of 20 full records
// stays far below this.
const maxPayloadBytes = 64 * 1024 * 1024

// Client talks to the E-utilities endpoints for one target database
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	tool       string
	db         model.Database
	limiter    *rate.Limiter
	retrier    *Retrier
	store      cache.Cache // nil disables caching
	log        echo.Sink
}

// NewClient creates a client for cfg.Database. store may be nil.
func NewClient(cfg model.EntrezConfig, store cache.Cache, log echo.Sink) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 3
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		email:   cfg.Email,
		tool:    cfg.Tool,
		db:      cfg.Database,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		retrier: NewRetrier(cfg.Retries, log),
		store:   store,
		log:     log,
	}
}

// searchResult mirrors the eSearchResult XML envelope. WebEnv and
// QueryKey form the continuation context consumed by EFetch.
type searchResult struct {
	XMLName  xml.Name `xml:"eSearchResult"`
	Count    int      `xml:"Count"`
	QueryKey string   `xml:"QueryKey"`
	WebEnv   string   `xml:"WebEnv"`
	IDs      []string `xml:"IdList>Id"`
}

// FetchBatch runs one search+fetch round trip for a slice of accessions
// and parses the returned records. An empty search result and a parse
// failure both yield (nil, nil): the batch is skipped with a diagnostic.
// A terminal failure of either remote phase is returned to the caller.
func (c *Client) FetchBatch(ctx context.Context, ids []string) ([]model.RemoteRecord, error) {
	key := cache.Key(c.db, ids)
	if c.store != nil {
		if payload, found := c.store.Get(key); found {
			c.log.Printf("cache hit for batch of %d identifiers\n", len(ids))
			return c.parsePayload(payload)
		}
	}

	term := buildTerm(ids)

	var sr searchResult
	err := c.retrier.Do("search query failed", func() error {
		var opErr error
		sr, opErr = c.search(ctx, term, len(ids))
		return opErr
	})
	if err != nil {
		return nil, err
	}
	if sr.Count == 0 || len(sr.IDs) == 0 {
		c.log.Printf("no matching identifiers in this batch, skipping\n")
		return nil, nil
	}

	var payload []byte
	err = c.retrier.Do("record fetch failed", func() error {
		var opErr error
		payload, opErr = c.fetchPayload(ctx, sr.WebEnv, sr.QueryKey)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Set(key, payload, 0); err != nil {
			c.log.Printf("cache write failed: %v\n", err)
		}
	}
	return c.parsePayload(payload)
}

func (c *Client) parsePayload(payload []byte) ([]model.RemoteRecord, error) {
	records, err := genbank.Parse(bytes.NewReader(payload))
	if err != nil {
		c.log.Printf("cannot parse fetched records, skipping batch: %v\n", err)
		return nil, nil
	}
	return records, nil
}

// search issues the ESearch phase with usehistory enabled
func (c *Client) search(ctx context.Context, term string, retmax int) (searchResult, error) {
	params := c.params()
	params.Set("term", term)
	params.Set("usehistory", "y")
	params.Set("retmax", strconv.Itoa(retmax))

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return searchResult{}, err
	}
	defer func() { _ = body.Close() }()

	var sr searchResult
	if err := xml.NewDecoder(body).Decode(&sr); err != nil {
		return searchResult{}, fmt.Errorf("decode search result: %w", err)
	}
	return sr, nil
}

// fetchPayload issues the EFetch phase against the history server
func (c *Client) fetchPayload(ctx context.Context, webEnv, queryKey string) ([]byte, error) {
	params := c.params()
	params.Set("WebEnv", webEnv)
	params.Set("query_key", queryKey)
	params.Set("rettype", "gb")
	params.Set("retmode", "text")

	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return payload, nil
}

// get performs one rate-limited round trip and returns the response body.
// The caller owns the body and must close it.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.tool+"/1.0 ("+c.email+")")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected status %d %s", endpoint, resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

// params returns the identification parameters NCBI's usage policy
// requires on every call
func (c *Client) params() url.Values {
	v := url.Values{}
	v.Set("db", string(c.db))
	v.Set("email", c.email)
	v.Set("tool", c.tool)
	return v
}

// buildTerm builds the disjunctive accession query for one batch
func buildTerm(ids []string) string {
	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = id + "[accn]"
	}
	return strings.Join(terms, " OR ")
}

// proxyFunc resolves the proxy for outbound requests, falling back to
// the standard environment variables when nothing is configured.
func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// EstimateQueryTime returns the advisory minimum wall time for n queries
// at the service's request ceiling
func EstimateQueryTime(n int, rps float64) time.Duration {
	if rps <= 0 {
		rps = 3
	}
	return time.Duration(float64(n) / rps * float64(time.Second))
}

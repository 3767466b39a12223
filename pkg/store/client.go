// Package store is a typed gateway to the remote record store (a PostgREST
// compatible REST API). Writes are best-effort and reads degrade to empty
// result sets at the service layer; this package only reports errors.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmkteam/embedlog"
)

func init() {
	// record amounts travel as JSON numbers, matching the remote numeric columns
	decimal.MarshalJSONWithoutQuotes = true
}

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL    string // e.g. https://xxxxx.supabase.co
	ServiceKey string // service role, server-side only
	Timeout    time.Duration
}

// Client talks to the record store REST endpoint.
type Client struct {
	embedlog.Logger
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, sl embedlog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		Logger: sl,
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether the remote store is configured. When false all
// operations are skipped so the bot still answers, just without persistence.
func (c *Client) Enabled() bool {
	return c.cfg.BaseURL != "" && c.cfg.ServiceKey != ""
}

// Filter is a single field=op.value term of a select filter expression.
type Filter struct {
	Field string
	Op    string
	Value string
}

const (
	OpEq  = "eq"
	OpGte = "gte"
)

func (f Filter) term() string {
	return f.Field + "=" + f.Op + "." + url.QueryEscape(f.Value)
}

// Insert writes one row into a collection.
func (c *Client) Insert(ctx context.Context, collection string, row any) error {
	if !c.Enabled() {
		c.Print(ctx, "record store not configured, skipping insert", "collection", collection)
		return nil
	}

	start := time.Now()
	defer func() { requestDuration.WithLabelValues(collection, "insert").Observe(time.Since(start).Seconds()) }()

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal %s row: %w", collection, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/rest/v1/"+collection,
		bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("insert into %s: status %d: %s", collection, resp.StatusCode, strings.TrimSpace(string(text)))
	}

	recordsInserted.WithLabelValues(collection).Inc()
	return nil
}

// Select reads rows from a collection into dest, which must be a pointer to a
// slice of record structs. fields is the comma-separated projection.
func (c *Client) Select(ctx context.Context, collection string, filters []Filter, fields string, limit int, dest any) error {
	if !c.Enabled() {
		c.Print(ctx, "record store not configured, skipping select", "collection", collection)
		return nil
	}

	start := time.Now()
	defer func() { requestDuration.WithLabelValues(collection, "select").Observe(time.Since(start).Seconds()) }()

	u := c.cfg.BaseURL + "/rest/v1/" + collection + "?select=" + url.QueryEscape(fields)
	for _, f := range filters {
		u += "&" + f.term()
	}
	if limit > 0 {
		u += fmt.Sprintf("&limit=%d", limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("select from %s: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("select from %s: status %d: %s", collection, resp.StatusCode, strings.TrimSpace(string(text)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", collection, err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.cfg.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
}

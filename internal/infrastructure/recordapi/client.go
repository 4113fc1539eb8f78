// Package recordapi talks to the hosted record service: a paginated
// query/update API over pages with typed properties.
package recordapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/config"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/ports"
)

const dateLayout = "2006-01-02"

// Client is a reusable HTTP client for the record service. All requests pass
// through a token-bucket limiter so bulk operations respect the service's
// implicit rate limit.
type Client struct {
	baseURL    string
	token      string
	collection string
	sortBy     string
	http       *http.Client
	limiter    *rate.Limiter
}

var _ ports.RecordService = (*Client)(nil)

// New wires a client from service configuration. sortBy names the date
// property the query sorts ascending on.
func New(cfg config.ServiceConfig, sortBy string) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 3
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		collection: cfg.CollectionID,
		sortBy:     sortBy,
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type sortSpec struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryRequest struct {
	PageSize    int        `json:"page_size"`
	StartCursor string     `json:"start_cursor,omitempty"`
	Sorts       []sortSpec `json:"sorts"`
}

type queryResponse struct {
	Results    []recordPayload `json:"results"`
	HasMore    bool            `json:"has_more"`
	NextCursor string          `json:"next_cursor"`
}

type recordPayload struct {
	ID          string                     `json:"id"`
	Archived    bool                       `json:"archived"`
	CreatedTime time.Time                  `json:"created_time"`
	Properties  map[string]propertyPayload `json:"properties"`
}

type propertyPayload struct {
	Type   string   `json:"type"`
	Text   string   `json:"text,omitempty"`
	Date   string   `json:"date,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

type updateRequest struct {
	Archived   *bool                      `json:"archived,omitempty"`
	Properties map[string]propertyPayload `json:"properties,omitempty"`
	Clear      []string                   `json:"clear,omitempty"`
}

// QueryPage fetches one page of the collection, ascending by the configured
// date property.
func (c *Client) QueryPage(ctx context.Context, cursor string, pageSize int) (ports.Page, error) {
	body := queryRequest{
		PageSize:    pageSize,
		StartCursor: cursor,
		Sorts:       []sortSpec{{Property: c.sortBy, Direction: "ascending"}},
	}

	var resp queryResponse
	path := fmt.Sprintf("/collections/%s/query", c.collection)
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return ports.Page{}, fmt.Errorf("query collection: %w", err)
	}

	page := ports.Page{
		Records:    make([]domain.Record, 0, len(resp.Results)),
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}
	for _, raw := range resp.Results {
		page.Records = append(page.Records, toRecord(raw))
	}
	return page, nil
}

// Update applies a patch to a single record.
func (c *Client) Update(ctx context.Context, id string, patch domain.Patch) error {
	body := updateRequest{
		Archived: patch.Archived,
		Clear:    patch.Clear,
	}
	if len(patch.Properties) > 0 {
		body.Properties = make(map[string]propertyPayload, len(patch.Properties))
		for name, prop := range patch.Properties {
			body.Properties[name] = toPayload(prop)
		}
	}

	if err := c.do(ctx, http.MethodPatch, "/pages/"+id, body, nil); err != nil {
		return fmt.Errorf("update page %s: %w", id, err)
	}
	return nil
}

// Archive soft-deletes a single record.
func (c *Client) Archive(ctx context.Context, id string) error {
	return c.Update(ctx, id, domain.ArchivePatch())
}

func (c *Client) do(ctx context.Context, method, path string, payload any, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("service error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toRecord(raw recordPayload) domain.Record {
	rec := domain.Record{
		ID:         raw.ID,
		Archived:   raw.Archived,
		CreatedAt:  raw.CreatedTime,
		Properties: make(map[string]domain.Property, len(raw.Properties)),
	}
	for name, p := range raw.Properties {
		prop := domain.Property{Type: domain.PropertyType(p.Type), Text: p.Text}
		if p.Number != nil {
			prop.Number = *p.Number
		}
		if p.Date != "" {
			if parsed, err := time.Parse(time.RFC3339, p.Date); err == nil {
				prop.Date = parsed
			} else if parsed, err := time.Parse(dateLayout, p.Date); err == nil {
				prop.Date = parsed
			}
		}
		rec.Properties[name] = prop
	}
	return rec
}

func toPayload(prop domain.Property) propertyPayload {
	p := propertyPayload{Type: string(prop.Type), Text: prop.Text}
	if !prop.Date.IsZero() {
		p.Date = prop.Date.UTC().Format(time.RFC3339)
	}
	if prop.Type == domain.PropertyNumber {
		n := prop.Number
		p.Number = &n
	}
	return p
}

// Package rest talks to a PostgREST-style document backend: one table,
// one row per user, the store as a JSON column. Any managed or
// self-hosted backend exposing this shape works.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/remote"
)

const defaultTable = "budget_data"

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	table   string
}

// Ensure interface conformance
var _ remote.StoreClient = (*Client)(nil)

type row struct {
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

func New(baseURL, apiKey, table string) *Client {
	if table == "" {
		table = defaultTable
	}
	return &Client{
		// No request timeout beyond the transport default: a hung call
		// only delays eventual consistency.
		http:    &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
	}
}

// NewFromEnv creates a client from REMOTE_STORE_URL, REMOTE_STORE_API_KEY
// and optional REMOTE_STORE_TABLE.
func NewFromEnv() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("REMOTE_STORE_URL"))
	if baseURL == "" {
		return nil, errors.New("missing REMOTE_STORE_URL")
	}
	apiKey := strings.TrimSpace(os.Getenv("REMOTE_STORE_API_KEY"))
	return New(baseURL, apiKey, strings.TrimSpace(os.Getenv("REMOTE_STORE_TABLE"))), nil
}

func (c *Client) FetchForUser(ctx context.Context, userID string) (core.Store, error) {
	u := fmt.Sprintf("%s/rest/v1/%s?user_id=eq.%s&select=data&limit=1",
		c.baseURL, c.table, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, remote.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch document: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fetch response: %w", err)
	}

	var rows []row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode fetch response: %w", err)
	}
	if len(rows) == 0 {
		return nil, remote.ErrNotFound
	}

	store, err := core.DecodeStore(rows[0].Data)
	if err != nil {
		return nil, fmt.Errorf("decode remote store: %w", err)
	}
	return store, nil
}

func (c *Client) UpsertForUser(ctx context.Context, userID string, store core.Store) error {
	data, err := core.EncodeStore(store)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	payload, err := json.Marshal([]row{{
		UserID:    userID,
		Data:      data,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}})
	if err != nil {
		return fmt.Errorf("encode upsert payload: %w", err)
	}

	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	// Replace on existing user_id; the backend keeps last write by its
	// own updated_at semantics.
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("upsert document: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

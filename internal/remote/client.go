// Package remote implements the HTTP client for the remote document store.
// Documents live in collections addressed by slash-separated paths; per-user
// data sits in sub-collections under users/{userId}.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/pkg/errors"
	"github.com/hashicorp/go-version"
	"github.com/rs/zerolog"
)

const apiTokenHeader = "X-API-Token"

type Client struct {
	log        zerolog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	minVersion *version.Version

	reachable atomic.Bool
}

// NewClient builds a gateway client from the remote section of the app
// config. Reachable starts false; call Probe to establish connectivity.
func NewClient(cfg *domain.Config, log logger.Logger) (*Client, error) {
	if cfg.Remote.BaseURL == "" {
		return nil, errors.New("remote base_url is required but not configured")
	}

	timeout := time.Duration(cfg.Remote.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	var minVer *version.Version
	if cfg.Remote.MinServerVersion != "" {
		v, err := version.NewVersion(cfg.Remote.MinServerVersion)
		if err != nil {
			return nil, errors.Wrap(err, "invalid min_server_version: %s", cfg.Remote.MinServerVersion)
		}
		minVer = v
	}

	return &Client{
		log:        log.With().Str("module", "remote").Logger(),
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.Remote.BaseURL, "/"),
		apiKey:     cfg.Remote.APIKey,
		minVersion: minVer,
	}, nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Probe checks the store's health endpoint and, when a minimum server
// version is configured, its compatibility. The result fixes Reachable for
// the lifetime of the client.
func (c *Client) Probe(ctx context.Context) error {
	var health healthResponse
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/api/healthz", nil, &health); err != nil {
		c.reachable.Store(false)
		return errors.Wrap(err, "connectivity probe failed")
	}

	if c.minVersion != nil {
		serverVer, err := version.NewVersion(health.Version)
		if err != nil {
			c.reachable.Store(false)
			return errors.Wrap(err, "could not parse server version: %s", health.Version)
		}
		if serverVer.LessThan(c.minVersion) {
			c.reachable.Store(false)
			return errors.New("server version %s is below minimum %s", health.Version, c.minVersion)
		}
	}

	c.reachable.Store(true)
	c.log.Debug().Str("server_version", health.Version).Msg("remote reachable")
	return nil
}

// Reachable reports the outcome of the last Probe.
func (c *Client) Reachable() bool {
	return c.reachable.Load()
}

func (c *Client) documentURL(collectionPath, id string) string {
	return fmt.Sprintf("%s/api/v1/%s/%s", c.baseURL, collectionPath, url.PathEscape(id))
}

func (c *Client) collectionURL(collectionPath string) string {
	return fmt.Sprintf("%s/api/v1/%s", c.baseURL, collectionPath)
}

type documentResponse struct {
	ID   string                 `json:"id"`
	Data map[string]interface{} `json:"data"`
}

type collectionResponse struct {
	Documents []documentResponse `json:"documents"`
}

type addResponse struct {
	ID string `json:"id"`
}

// GetDocument fetches a single document. A missing document is (nil, nil).
func (c *Client) GetDocument(ctx context.Context, collectionPath, id string) (*domain.Document, error) {
	var doc documentResponse
	err := c.doJSON(ctx, http.MethodGet, c.documentURL(collectionPath, id), nil, &doc)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Document{ID: doc.ID, Data: doc.Data}, nil
}

// GetCollection fetches all documents of a collection matching the filters.
func (c *Client) GetCollection(ctx context.Context, collectionPath string, filters []domain.Filter) ([]domain.Document, error) {
	u := c.collectionURL(collectionPath)
	if len(filters) > 0 {
		q := url.Values{}
		for _, f := range filters {
			q.Add("where", fmt.Sprintf("%s:%s:%v", f.Field, f.Op, f.Value))
		}
		u += "?" + q.Encode()
	}

	var resp collectionResponse
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		docs = append(docs, domain.Document{ID: d.ID, Data: d.Data})
	}
	return docs, nil
}

// SetDocument creates or replaces a document under a caller-chosen id.
func (c *Client) SetDocument(ctx context.Context, collectionPath, id string, data map[string]interface{}) error {
	return c.doJSON(ctx, http.MethodPut, c.documentURL(collectionPath, id), data, nil)
}

// UpdateDocument applies a partial update to an existing document.
func (c *Client) UpdateDocument(ctx context.Context, collectionPath, id string, partial map[string]interface{}) error {
	return c.doJSON(ctx, http.MethodPatch, c.documentURL(collectionPath, id), partial, nil)
}

// DeleteDocument removes a document. Deleting an absent document succeeds.
func (c *Client) DeleteDocument(ctx context.Context, collectionPath, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, c.documentURL(collectionPath, id), nil, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			return nil
		}
		return err
	}
	return nil
}

// AddDocument creates a document with a server-generated id and returns it.
func (c *Client) AddDocument(ctx context.Context, collectionPath string, data map[string]interface{}) (string, error) {
	var resp addResponse
	if err := c.doJSON(ctx, http.MethodPost, c.collectionURL(collectionPath), data, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "could not encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiTokenHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed: %s %s", method, u)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: u}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "could not decode response body")
		}
	}
	return nil
}

var _ domain.RemoteGateway = (*Client)(nil)

// Client for the GitHub contents API, used as the remote ledger store.

// Package github talks to the GitHub contents API, treating the repository as
// a content-addressed key/value store: reads return content plus its blob
// SHA, and every update must supply the SHA of the object it replaces.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL = "https://api.github.com"
	defaultRawBaseURL = "https://raw.githubusercontent.com"

	userAgent = "MapMyMemories-App"
)

// ErrNotFound is returned by Get when no object exists at the path. Absence
// is a normal outcome for first-time users; any other Get error should be
// treated as transient, not as an empty object.
var ErrNotFound = errors.New("object not found")

// Config holds the settings for a contents-API client. APIBaseURL,
// RawBaseURL and HTTPClient exist so tests can point the client at an
// httptest server.
type Config struct {
	Repo       string // "owner/name"
	Branch     string
	Token      string
	APIBaseURL string
	RawBaseURL string
	HTTPClient *http.Client
}

// Client is a minimal GitHub contents API client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Object is a stored blob together with the content hash required to update it.
type Object struct {
	Content []byte
	SHA     string
}

// NewClient creates a contents-API client for one repository and branch.
func NewClient(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.RawBaseURL == "" {
		cfg.RawBaseURL = defaultRawBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// RawURL returns the deterministic raw-content URL for a path on the
// configured repository and branch. The URL is valid once the object has been
// pushed, whether or not the push has happened yet.
func (c *Client) RawURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.cfg.RawBaseURL, c.cfg.Repo, c.cfg.Branch, path)
}

// contentsURL builds the contents-API endpoint for a path.
func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", c.cfg.APIBaseURL, c.cfg.Repo, path)
}

// Get fetches the object at path along with its SHA. Returns ErrNotFound when
// the path does not exist on the configured branch.
func (c *Client) Get(ctx context.Context, path string) (*Object, error) {
	u := c.contentsURL(path)
	if c.cfg.Branch != "" {
		u += "?ref=" + url.QueryEscape(c.cfg.Branch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error %d fetching %s: %s", resp.StatusCode, path, string(body))
	}

	var result struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
		SHA      string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode contents response: %w", err)
	}

	content := []byte(result.Content)
	if result.Encoding == "base64" {
		// The API wraps base64 content in newlines.
		content, err = base64.StdEncoding.DecodeString(strings.ReplaceAll(result.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode base64 content: %w", err)
		}
	}
	return &Object{Content: content, SHA: result.SHA}, nil
}

// Put creates or updates the object at path. It looks up the current SHA
// first; a missing object simply disables the update precondition and the
// write becomes a create. A SHA conflict on a concurrent update is rejected
// by GitHub and surfaces as an error here.
func (c *Client) Put(ctx context.Context, path string, content []byte, message string) error {
	var sha string
	switch existing, err := c.Get(ctx, path); {
	case err == nil:
		sha = existing.SHA
	case errors.Is(err, ErrNotFound):
		// Create.
	default:
		return fmt.Errorf("lookup current sha: %w", err)
	}

	payload := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	if c.cfg.Branch != "" {
		payload["branch"] = c.cfg.Branch
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GitHub API error %d committing %s: %s", resp.StatusCode, path, string(respBody))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
}

// Package github is a minimal client for the public, unauthenticated GitHub REST API.
package github

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

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"
	// PageSize is the number of items requested per page. A page holding
	// fewer items is the last one.
	PageSize = 30
	// DefaultTimeout bounds every request, so one stuck call cannot stall an import.
	DefaultTimeout = 10 * time.Second

	userAgent = "gitmark"
)

// ErrInvalidFullName is returned for repository names not shaped "owner/repo".
var ErrInvalidFullName = errors.New(`repository name must be "owner/repo"`)

// APIError is a non-2xx answer from GitHub.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("github: %d %s", e.StatusCode, e.Message)
}

// Page is one page of results.
type Page[T any] struct {
	Items []T `json:"items"`
	// TotalCount is only reported by the search endpoints.
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	HasMore    bool `json:"has_more"`
}

type searchResponse[T any] struct {
	IncompleteResults bool `json:"incomplete_results"`
	Items             []T  `json:"items"`
	TotalCount        int  `json:"total_count"`
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
	lookups singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, GitHub Enterprise).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient creates a client for the public API.
func NewClient(log logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRepository looks a repository up by "owner/repo".
// It returns (nil, nil) when GitHub answers 404.
func (c *Client) GetRepository(ctx context.Context, fullName string) (*domain.Repository, error) {
	owner, name, err := SplitFullName(fullName)
	if err != nil {
		return nil, err
	}

	// The shared request outlives any single caller; each caller only
	// stops waiting on its own ctx.
	key := strings.ToLower(owner + "/" + name)
	ch := c.lookups.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout())
		defer cancel()

		var repo domain.Repository
		path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
		if err := c.get(fctx, path, nil, &repo); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				return (*domain.Repository)(nil), nil
			}
			return nil, err
		}
		return &repo, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.Debug("repository lookup shared", logger.String("full_name", key))
	}

	repo, _ := res.Val.(*domain.Repository)
	if repo == nil {
		return nil, nil
	}
	cp := *repo
	return &cp, nil
}

func (c *Client) flightTimeout() time.Duration {
	if c.http.Timeout > 0 {
		return c.http.Timeout
	}
	return DefaultTimeout
}

// SearchRepositories runs a repository search.
func (c *Client) SearchRepositories(ctx context.Context, query string, page int) (*Page[domain.Repository], error) {
	return search[domain.Repository](ctx, c, "/search/repositories", query, page)
}

// SearchUsers runs a user search.
func (c *Client) SearchUsers(ctx context.Context, query string, page int) (*Page[domain.GitHubUser], error) {
	return search[domain.GitHubUser](ctx, c, "/search/users", query, page)
}

// UserRepositories lists a user's repositories, most recently updated first.
func (c *Client) UserRepositories(ctx context.Context, login string, page int) (*Page[domain.Repository], error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("github: empty user login")
	}
	page = normalizePage(page)

	params := url.Values{}
	params.Set("sort", "updated")
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(PageSize))

	var items []domain.Repository
	if err := c.get(ctx, "/users/"+url.PathEscape(login)+"/repos", params, &items); err != nil {
		return nil, fmt.Errorf("failed to fetch repositories of %s: %w", login, err)
	}
	return &Page[domain.Repository]{
		Items:   items,
		Page:    page,
		HasMore: len(items) >= PageSize,
	}, nil
}

func search[T any](ctx context.Context, c *Client, path, query string, page int) (*Page[T], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("github: empty search query")
	}
	page = normalizePage(page)

	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(PageSize))

	var resp searchResponse[T]
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", path, err)
	}
	if resp.IncompleteResults {
		c.logger.Debug("github search returned incomplete results", logger.String("query", query))
	}
	if resp.Items == nil {
		resp.Items = []T{}
	}
	return &Page[T]{
		Items:      resp.Items,
		TotalCount: resp.TotalCount,
		Page:       page,
		HasMore:    len(resp.Items) >= PageSize,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("github request",
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github response: %w", err)
	}
	return nil
}

// SplitFullName splits "owner/repo", trimming surrounding spaces and slashes.
func SplitFullName(fullName string) (owner, name string, err error) {
	s := strings.Trim(strings.TrimSpace(fullName), "/")
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%q: %w", fullName, ErrInvalidFullName)
	}
	return owner, name, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

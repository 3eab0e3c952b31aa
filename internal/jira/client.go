package jira

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/changectx/internal/errors"
)

// ErrNotFound is returned when Jira answers 404 for an issue key
var ErrNotFound = stderrors.New("issue not found")

// maxErrorBody caps how much of an error response is kept in the error message
const maxErrorBody = 512

// Client provides read access to a Jira instance with request rate limiting
type Client struct {
	URL        string
	Email      string
	APIToken   string
	HTTPClient *http.Client

	rateLimiter *rate.Limiter
	logger      logrus.FieldLogger
}

// NewClient creates a new Jira client. requestsPerSecond <= 0 disables limiting.
func NewClient(baseURL, email, apiToken string, requestsPerSecond float64, logger logrus.FieldLogger) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Client{
		URL:      strings.TrimSuffix(baseURL, "/"),
		Email:    email,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// GetIssue fetches a single issue by key (e.g. "PROJ-123")
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s", c.URL, url.PathEscape(key))

	body, err := c.doRequest(ctx, http.MethodGet, apiURL)
	if err != nil {
		return nil, err
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, errors.ExternalErrorf(err, "parse issue %s response", key)
	}
	if issue.Key == "" {
		issue.Key = key
	}

	return &issue, nil
}

func (c *Client) doRequest(ctx context.Context, method, apiURL string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.NetworkErrorf(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return nil, errors.ExternalErrorf(err, "create request")
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "changectx/1.0")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.NetworkErrorf(err, "%s %s", method, apiURL)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NetworkErrorf(err, "read response")
	}

	c.logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"url":      apiURL,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("jira request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.ExternalErrorf(ErrNotFound, "jira API returned 404 for %s", apiURL)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, errors.ExternalErrorf(
			fmt.Errorf("status %d", resp.StatusCode),
			"jira API returned %d: %s", resp.StatusCode, truncate(string(respBody), maxErrorBody))
	}

	return respBody, nil
}

// setAuth uses basic auth with the account email and API token
func (c *Client) setAuth(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.Email + ":" + c.APIToken))
	req.Header.Set("Authorization", "Basic "+auth)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/logging"
	"github.com/renato0307/prtrack/internal/ports"
)

const (
	defaultBaseURL = "https://api.github.com"
	requestTimeout = 20 * time.Second

	// Only the first API page is fetched; repositories with more than 100
	// open PRs are truncated.
	perPage = 100

	maxAttempts      = 3
	baseBackoff      = 500 * time.Millisecond
	maxRetryAfter    = 2 * time.Minute
	approvalsWorkers = 5
)

// Client is a minimal GitHub REST API client for fetching pull requests
// and their review approvals.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Verify interface compliance at compile time
var _ ports.PRFetcher = (*Client)(nil)

// NewClient creates a Client. An empty token means unauthenticated requests
// with stricter rate limits.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, defaultBaseURL)
}

// NewClientWithBaseURL creates a Client against a custom API base URL
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		token:      token,
	}
}

// APIError is a non-retryable error response from the GitHub API
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error: %s returned %d", e.URL, e.StatusCode)
}

// prPayload is the subset of the pulls API response the tracker needs
type prPayload struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	State   string `json:"state"`
	Draft   bool   `json:"draft"`
	Merged  bool   `json:"merged"`
	HTMLURL string `json:"html_url"`
	User    struct {
		Login string `json:"login"`
	} `json:"user"`
	Assignees []struct {
		Login string `json:"login"`
	} `json:"assignees"`
	Head struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

// reviewPayload is one review from the reviews API
type reviewPayload struct {
	State string `json:"state"`
}

// ListOpenPRs implements ports.PRFetcher.ListOpenPRs. Approvals are counted
// with one reviews sub-request per PR, fanned out concurrently; a failed
// sub-request degrades that PR's approvals to zero instead of failing the
// whole listing.
func (c *Client) ListOpenPRs(ctx context.Context, owner, repo string) ([]domain.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls?state=open&per_page=%d", c.baseURL, owner, repo, perPage)

	var payloads []prPayload
	if err := c.get(ctx, url, &payloads); err != nil {
		return nil, fmt.Errorf("failed to list open PRs for %s/%s: %w", owner, repo, err)
	}

	prs := make([]domain.PullRequest, len(payloads))
	for i, p := range payloads {
		prs[i] = payloadToDomain(owner, repo, p)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(approvalsWorkers)
	for i := range prs {
		g.Go(func() error {
			approvals, err := c.countApprovals(gctx, owner, repo, prs[i].Number)
			if err != nil {
				logging.Logger.Debug("approvals count failed",
					"repo", prs[i].Repo,
					"number", prs[i].Number,
					"error", err)
				approvals = 0
			}
			prs[i].Approvals = approvals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return prs, nil
}

// FetchPR implements ports.PRFetcher.FetchPR. The returned PR carries
// whatever state the remote reports, open or not.
func (c *Client) FetchPR(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)

	var payload prPayload
	if err := c.get(ctx, url, &payload); err != nil {
		return domain.PullRequest{}, fmt.Errorf("failed to fetch PR %s/%s#%d: %w", owner, repo, number, err)
	}

	pr := payloadToDomain(owner, repo, payload)
	approvals, err := c.countApprovals(ctx, owner, repo, number)
	if err != nil {
		logging.Logger.Debug("approvals count failed",
			"repo", pr.Repo,
			"number", pr.Number,
			"error", err)
		approvals = 0
	}
	pr.Approvals = approvals
	return pr, nil
}

// countApprovals returns the number of reviews in APPROVED state
func (c *Client) countApprovals(ctx context.Context, owner, repo string, number int) (int, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, number)

	var reviews []reviewPayload
	if err := c.get(ctx, url, &reviews); err != nil {
		return 0, err
	}

	approvals := 0
	for _, r := range reviews {
		if r.State == "APPROVED" {
			approvals++
		}
	}
	return approvals, nil
}

// get performs a GET request with bounded retries. Transient failures
// (network errors, 5xx) back off exponentially; rate limit responses
// (403/429) honor Retry-After. Other 4xx responses fail immediately.
func (c *Client) get(ctx context.Context, url string, out any) error {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, backoffFor(attempt)); err != nil {
				return err
			}
		}

		body, retryable, err := c.doOnce(ctx, url)
		if err == nil {
			return json.Unmarshal(body, out)
		}
		lastErr = err
		if !retryable {
			return err
		}
		logging.Logger.Debug("retrying github request",
			"url", url,
			"attempt", attempt,
			"error", err)
	}

	return fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

// doOnce performs a single request. The bool reports whether the failure is
// worth retrying.
func (c *Client) doOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "prtrack")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, err
		}
		return body, false, nil

	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		// Rate limited. Wait out Retry-After when the server provides it.
		if wait := retryAfter(resp); wait > 0 {
			logging.Logger.Info("github rate limit hit",
				"url", url,
				"retry_after", wait.String())
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, false, err
			}
		}
		return nil, true, &APIError{StatusCode: resp.StatusCode, URL: url}

	case resp.StatusCode >= 500:
		return nil, true, &APIError{StatusCode: resp.StatusCode, URL: url}

	default:
		return nil, false, &APIError{StatusCode: resp.StatusCode, URL: url}
	}
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRetryAfter {
		wait = maxRetryAfter
	}
	return wait
}

func backoffFor(attempt int) time.Duration {
	return baseBackoff * time.Duration(1<<(attempt-2))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func payloadToDomain(owner, repo string, p prPayload) domain.PullRequest {
	assignees := make([]string, len(p.Assignees))
	for i, a := range p.Assignees {
		assignees[i] = a.Login
	}

	state := domain.PRState(p.State)
	if p.Merged {
		state = domain.PRStateMerged
	}

	return domain.PullRequest{
		Assignees: assignees,
		Author:    p.User.Login,
		Branch:    p.Head.Ref,
		Draft:     p.Draft,
		HTMLURL:   p.HTMLURL,
		Number:    p.Number,
		Repo:      owner + "/" + repo,
		State:     state,
		Title:     p.Title,
	}
}

package ports

import (
	"context"

	"github.com/renato0307/prtrack/internal/domain"
)

// PRFetcher fetches live pull request data from the remote API.
//
// Both methods return fully populated records, including the derived
// approvals count. Retries and rate-limit backoff are the implementation's
// concern; callers only need to know a call can fail, and that a failed call
// must not be written to the cache.
type PRFetcher interface {
	// ListOpenPRs returns the repository's full open pull request set.
	ListOpenPRs(ctx context.Context, owner, repo string) ([]domain.PullRequest, error)

	// FetchPR returns a single pull request in whatever state the remote
	// reports, open or not.
	FetchPR(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error)
}

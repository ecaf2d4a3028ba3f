package ports

import (
	"context"

	"github.com/renato0307/prtrack/internal/domain"
)

// CacheStats is a diagnostic aggregate over the cache contents.
type CacheStats struct {
	TotalPRs             int64
	Repositories         int64
	ApproximateSizeBytes int64
}

// PRReader reads cached pull requests.
type PRReader interface {
	GetAll(ctx context.Context) ([]domain.PullRequest, error)
	GetByRepo(ctx context.Context, repo string) ([]domain.PullRequest, error)
	GetByAccount(ctx context.Context, login string) ([]domain.PullRequest, error)
}

// PRWriter mutates cached pull requests.
//
// Upsert inserts or replaces rows by (repo, number) and never deletes;
// it is only correct for targeted single-PR refreshes. SyncRepo atomically
// replaces a repository's entire row set with the given fetch result and is
// the only write that removes PRs no longer reported open.
type PRWriter interface {
	Upsert(ctx context.Context, prs []domain.PullRequest, fetchedAt int64) error
	SyncRepo(ctx context.Context, repo string, prs []domain.PullRequest, fetchedAt int64) error
	DeletePR(ctx context.Context, repo string, number int) error
	DeleteByRepo(ctx context.Context, repo string) error
	DeleteByAccount(ctx context.Context, login, repo string) error
}

// RefreshMetadata records per-scope last refresh timestamps.
type RefreshMetadata interface {
	RecordLastRefresh(ctx context.Context, scope string, ts int64) error
	LastRefresh(ctx context.Context, scope string) (int64, bool, error)
}

// CacheMaintenance covers operations outside the refresh hot path.
type CacheMaintenance interface {
	Stats(ctx context.Context) (CacheStats, error)
	CleanupOld(ctx context.Context, maxAgeDays int) error
}

// PRCache is the composite cache store interface.
type PRCache interface {
	PRReader
	PRWriter
	RefreshMetadata
	CacheMaintenance
	Close() error
}

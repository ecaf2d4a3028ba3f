package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/logging"
	"github.com/renato0307/prtrack/internal/ports"
)

// ErrAllReposFailed is reported when a multi-repository refresh could not
// fetch a single repository successfully.
var ErrAllReposFailed = errors.New("all repository fetches failed")

// ConfigProvider supplies the configuration snapshot a refresh runs against.
// The engine treats it as read-only for the duration of one refresh.
type ConfigProvider func() *config.Config

// RefreshEvent reports the outcome of a background refresh. Err is nil on
// success; FailedRepos lists repositories whose fetch failed during a
// multi-repository refresh (their cached rows were left untouched).
type RefreshEvent struct {
	Scope       domain.Scope
	Err         error
	FailedRepos []string
}

// refreshTask is one in-flight fetch for a scope key. Identity of the
// pointer decides whether a task is still current when it tries to write.
type refreshTask struct {
	cancel context.CancelFunc
}

// RefreshService is the scope engine: it decides staleness, runs at most one
// background fetch per scope key (last request wins), applies the correct
// write strategy per scope, and guarantees a superseded fetch never writes.
//
// Cache writes and metadata updates happen through commit, which holds the
// same mutex used to cancel and replace tasks. A task that was cancelled
// observes the replacement before any of its writes can land.
type RefreshService struct {
	cache      ports.PRCache
	fetcher    ports.PRFetcher
	loadConfig ConfigProvider
	notify     func(RefreshEvent)

	mu    sync.Mutex
	tasks map[string]*refreshTask
	wg    sync.WaitGroup
}

// NewRefreshService creates a RefreshService. notify may be nil; events are
// then only logged.
func NewRefreshService(cache ports.PRCache, fetcher ports.PRFetcher, loadConfig ConfigProvider, notify func(RefreshEvent)) *RefreshService {
	return &RefreshService{
		cache:      cache,
		fetcher:    fetcher,
		loadConfig: loadConfig,
		notify:     notify,
		tasks:      make(map[string]*refreshTask),
	}
}

// IsStale reports whether a scope is due for refresh: no recorded last
// refresh, or one older than the configured threshold.
func (s *RefreshService) IsStale(ctx context.Context, scope domain.Scope) bool {
	last, ok, err := s.cache.LastRefresh(ctx, scope.Key())
	if err != nil {
		logging.Logger.Warn("failed to read last refresh", "scope", scope, "error", err)
		return true
	}
	if !ok {
		return true
	}
	threshold := int64(s.loadConfig().StalenessThreshold())
	return time.Now().Unix()-last > threshold
}

// IsRefreshing reports whether a fetch is currently in flight for the scope
func (s *RefreshService) IsRefreshing(scope domain.Scope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[scope.Key()]
	return ok
}

// Cancel aborts any in-flight refresh for the scope. Returns true when a
// task was cancelled.
func (s *RefreshService) Cancel(scope domain.Scope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[scope.Key()]
	if !ok {
		return false
	}
	task.cancel()
	delete(s.tasks, scope.Key())
	return true
}

// Wait blocks until every in-flight refresh goroutine has finished
func (s *RefreshService) Wait() {
	s.wg.Wait()
}

// Refresh launches a background fetch for the scope, cancelling any prior
// in-flight fetch for the same scope key first. It never blocks on the
// fetch itself and never propagates fetch errors; outcomes are delivered
// through the notify callback.
func (s *RefreshService) Refresh(scope domain.Scope) {
	ctx, cancel := context.WithCancel(context.Background())
	task := &refreshTask{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.tasks[scope.Key()]; ok {
		prev.cancel()
	}
	s.tasks[scope.Key()] = task
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, scope, task)
	}()
}

func (s *RefreshService) run(ctx context.Context, scope domain.Scope, task *refreshTask) {
	var event RefreshEvent
	switch scope.Kind {
	case domain.ScopeRepo:
		event = s.refreshRepo(ctx, scope, task)
	case domain.ScopeAccount, domain.ScopeAll:
		event = s.refreshAllRepos(ctx, scope, task)
	case domain.ScopePR:
		event = s.refreshSinglePR(ctx, scope, task)
	}

	// A superseded task stays silent: its outcome no longer describes the
	// current view, and its map entry now belongs to the newer task.
	s.mu.Lock()
	current := s.tasks[scope.Key()] == task
	if current {
		delete(s.tasks, scope.Key())
	}
	s.mu.Unlock()
	if !current || ctx.Err() != nil {
		logging.Logger.Debug("refresh superseded", "scope", scope)
		return
	}

	if event.Err != nil {
		logging.Logger.Warn("refresh failed", "scope", scope, "error", event.Err)
	} else {
		logging.Logger.Debug("refresh completed", "scope", scope, "failed_repos", event.FailedRepos)
	}
	if s.notify != nil {
		s.notify(event)
	}
}

// refreshRepo fetches one repository and atomically replaces its cached row
// set with the allow-list filtered result.
func (s *RefreshService) refreshRepo(ctx context.Context, scope domain.Scope, task *refreshTask) RefreshEvent {
	cfg := s.loadConfig()

	prs, err := s.fetchRepo(ctx, cfg, scope.Repo)
	if err != nil {
		return RefreshEvent{Scope: scope, Err: err}
	}

	now := time.Now().Unix()
	err = s.commit(ctx, scope.Key(), task, func() error {
		if err := s.cache.SyncRepo(ctx, scope.Repo, prs, now); err != nil {
			return err
		}
		return s.cache.RecordLastRefresh(ctx, scope.Key(), now)
	})
	return RefreshEvent{Scope: scope, Err: err}
}

// refreshAllRepos serves both the all and account scopes: every configured
// repository is fetched concurrently and each successful fetch syncs that
// repository's complete allow-list filtered set. The account filter is a
// read-time concern; syncing the account-filtered subset instead would
// silently delete other users' cached PRs in the repository.
func (s *RefreshService) refreshAllRepos(ctx context.Context, scope domain.Scope, task *refreshTask) RefreshEvent {
	cfg := s.loadConfig()
	if len(cfg.Repositories) == 0 {
		return RefreshEvent{Scope: scope}
	}

	type repoResult struct {
		repo string
		prs  []domain.PullRequest
		err  error
	}

	results := make([]repoResult, len(cfg.Repositories))
	var wg sync.WaitGroup
	for i, rc := range cfg.Repositories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prs, err := s.fetchRepo(ctx, cfg, rc.Name)
			results[i] = repoResult{repo: rc.Name, prs: prs, err: err}
		}()
	}
	wg.Wait()

	// Partial-failure isolation: each successful repository syncs on its
	// own; failed repositories keep their prior cached rows.
	now := time.Now().Unix()
	var failed []string
	succeeded := 0
	for _, res := range results {
		if res.err != nil {
			logging.Logger.Warn("repository fetch failed",
				"scope", scope,
				"repo", res.repo,
				"error", res.err)
			failed = append(failed, res.repo)
			continue
		}
		err := s.commit(ctx, scope.Key(), task, func() error {
			return s.cache.SyncRepo(ctx, res.repo, res.prs, now)
		})
		if err != nil {
			if isCancelled(err) {
				return RefreshEvent{Scope: scope, Err: err}
			}
			failed = append(failed, res.repo)
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return RefreshEvent{Scope: scope, Err: ErrAllReposFailed, FailedRepos: failed}
	}

	err := s.commit(ctx, scope.Key(), task, func() error {
		return s.cache.RecordLastRefresh(ctx, scope.Key(), now)
	})
	if err != nil {
		return RefreshEvent{Scope: scope, Err: err, FailedRepos: failed}
	}
	return RefreshEvent{Scope: scope, FailedRepos: failed}
}

// refreshSinglePR upserts the refreshed row, unless the remote reports the
// PR closed or merged: a single-PR fetch is not authoritative for the rest
// of the repository, so the one row is deleted instead of synced away.
func (s *RefreshService) refreshSinglePR(ctx context.Context, scope domain.Scope, task *refreshTask) RefreshEvent {
	owner, name, ok := splitRepoName(scope.Repo)
	if !ok {
		return RefreshEvent{Scope: scope, Err: errors.New("invalid repository name: " + scope.Repo)}
	}

	pr, err := s.fetcher.FetchPR(ctx, owner, name, scope.Number)
	if err != nil {
		return RefreshEvent{Scope: scope, Err: err}
	}

	now := time.Now().Unix()
	err = s.commit(ctx, scope.Key(), task, func() error {
		if pr.IsOpen() {
			if err := s.cache.Upsert(ctx, []domain.PullRequest{pr}, now); err != nil {
				return err
			}
		} else {
			if err := s.cache.DeletePR(ctx, scope.Repo, scope.Number); err != nil {
				return err
			}
		}
		return s.cache.RecordLastRefresh(ctx, scope.Key(), now)
	})
	return RefreshEvent{Scope: scope, Err: err}
}

// fetchRepo lists a repository's open PRs and applies its allow-list
func (s *RefreshService) fetchRepo(ctx context.Context, cfg *config.Config, repo string) ([]domain.PullRequest, error) {
	owner, name, ok := splitRepoName(repo)
	if !ok {
		return nil, errors.New("invalid repository name: " + repo)
	}

	prs, err := s.fetcher.ListOpenPRs(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	repoCfg, _ := cfg.Repo(repo)
	repoCfg.Name = repo
	return FilterByUsers(prs, ResolveScopeUsers(repoCfg, cfg.GlobalUsers)), nil
}

// commit runs a cache write only while the task is still the current one
// for its scope key. The check and the write share the mutex that Refresh
// and Cancel use to replace tasks, so cancellation happens-before any write
// from the superseded task.
func (s *RefreshService) commit(ctx context.Context, key string, task *refreshTask, write func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[key] != task {
		return context.Canceled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return write()
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// splitRepoName splits "owner/name" into its parts
func splitRepoName(repo string) (owner, name string, ok bool) {
	owner, name, ok = strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", false
	}
	return owner, name, true
}

package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/prtrack/internal/adapters/storage"
	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/ports"
)

// fakeFetcher is a scriptable ports.PRFetcher
type fakeFetcher struct {
	mu      sync.Mutex
	lists   map[string][]domain.PullRequest
	listErr map[string]error
	prs     map[string]domain.PullRequest
	prErr   error

	// When set, the first ListOpenPRs call blocks until the gate closes or
	// its context is cancelled.
	gate      chan struct{}
	listCalls int
}

var _ ports.PRFetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) ListOpenPRs(ctx context.Context, owner, repo string) ([]domain.PullRequest, error) {
	name := owner + "/" + repo

	f.mu.Lock()
	f.listCalls++
	first := f.listCalls == 1
	gate := f.gate
	f.mu.Unlock()

	if gate != nil && first {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.listErr[name]; ok {
		return nil, err
	}
	return f.lists[name], nil
}

func (f *fakeFetcher) FetchPR(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prErr != nil {
		return domain.PullRequest{}, f.prErr
	}
	return f.prs[fmt.Sprintf("%s/%s#%d", owner, repo, number)], nil
}

// eventSink collects refresh events thread-safely
type eventSink struct {
	mu     sync.Mutex
	events []RefreshEvent
}

func (s *eventSink) notify(ev RefreshEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *eventSink) all() []RefreshEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RefreshEvent(nil), s.events...)
}

func newTestCache(t *testing.T) ports.PRCache {
	t.Helper()
	cache, err := storage.NewSQLiteCache(filepath.Join(t.TempDir(), "cache.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testConfig(repos ...string) *config.Config {
	cfg := &config.Config{GlobalUsers: []string{}}
	for _, r := range repos {
		cfg.Repositories = append(cfg.Repositories, config.RepoConfig{Name: r})
	}
	return cfg
}

func openPR(repo string, number int, author string) domain.PullRequest {
	return domain.PullRequest{
		Repo:    repo,
		Number:  number,
		Title:   fmt.Sprintf("PR %d", number),
		Author:  author,
		HTMLURL: fmt.Sprintf("https://github.com/%s/pull/%d", repo, number),
		State:   domain.PRStateOpen,
	}
}

func TestRefreshRepoSyncsCache(t *testing.T) {
	cache := newTestCache(t)
	fetcher := &fakeFetcher{lists: map[string][]domain.PullRequest{
		"acme/api": {openPR("acme/api", 1, "alice"), openPR("acme/api", 2, "bob")},
	}}
	sink := &eventSink{}
	cfg := testConfig("acme/api")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, sink.notify)

	scope := domain.RepoScope("acme/api")
	svc.Refresh(scope)
	svc.Wait()

	events := sink.all()
	require.Len(t, events, 1)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, scope.Key(), events[0].Scope.Key())

	prs, err := cache.GetByRepo(context.Background(), "acme/api")
	require.NoError(t, err)
	assert.Len(t, prs, 2)

	_, ok, err := cache.LastRefresh(context.Background(), scope.Key())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRefreshRepoDropsRowsClosedUpstream(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Upsert(ctx, []domain.PullRequest{
		openPR("acme/api", 1, "alice"),
		openPR("acme/api", 2, "bob"),
	}, 0))

	// The fresh fetch no longer reports PR 1
	fetcher := &fakeFetcher{lists: map[string][]domain.PullRequest{
		"acme/api": {openPR("acme/api", 2, "bob")},
	}}
	cfg := testConfig("acme/api")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, nil)

	svc.Refresh(domain.RepoScope("acme/api"))
	svc.Wait()

	prs, err := cache.GetByRepo(ctx, "acme/api")
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 2, prs[0].Number)
}

func TestRefreshAppliesUserAllowList(t *testing.T) {
	cache := newTestCache(t)
	fetcher := &fakeFetcher{lists: map[string][]domain.PullRequest{
		"acme/api": {openPR("acme/api", 1, "alice"), openPR("acme/api", 2, "mallory")},
	}}
	cfg := testConfig("acme/api")
	cfg.GlobalUsers = []string{"alice"}
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, nil)

	svc.Refresh(domain.RepoScope("acme/api"))
	svc.Wait()

	prs, err := cache.GetByRepo(context.Background(), "acme/api")
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, "alice", prs[0].Author)
}

func TestRefreshAllIsolatesFailedRepos(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	// acme/web has stale cached rows that must survive its failed fetch
	require.NoError(t, cache.Upsert(ctx, []domain.PullRequest{openPR("acme/web", 9, "carol")}, 0))

	fetcher := &fakeFetcher{
		lists:   map[string][]domain.PullRequest{"acme/api": {openPR("acme/api", 1, "alice")}},
		listErr: map[string]error{"acme/web": errors.New("boom")},
	}
	sink := &eventSink{}
	cfg := testConfig("acme/api", "acme/web")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, sink.notify)

	scope := domain.AllScope()
	svc.Refresh(scope)
	svc.Wait()

	events := sink.all()
	require.Len(t, events, 1)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, []string{"acme/web"}, events[0].FailedRepos)

	api, err := cache.GetByRepo(ctx, "acme/api")
	require.NoError(t, err)
	assert.Len(t, api, 1)

	web, err := cache.GetByRepo(ctx, "acme/web")
	require.NoError(t, err)
	assert.Len(t, web, 1, "failed repo keeps its cached rows")

	_, ok, err := cache.LastRefresh(ctx, scope.Key())
	require.NoError(t, err)
	assert.True(t, ok, "partial success still records the refresh")
}

func TestRefreshAllReportsTotalFailure(t *testing.T) {
	cache := newTestCache(t)
	fetcher := &fakeFetcher{listErr: map[string]error{
		"acme/api": errors.New("boom"),
		"acme/web": errors.New("boom"),
	}}
	sink := &eventSink{}
	cfg := testConfig("acme/api", "acme/web")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, sink.notify)

	scope := domain.AllScope()
	svc.Refresh(scope)
	svc.Wait()

	events := sink.all()
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, ErrAllReposFailed)
	assert.Len(t, events[0].FailedRepos, 2)

	_, ok, err := cache.LastRefresh(context.Background(), scope.Key())
	require.NoError(t, err)
	assert.False(t, ok, "total failure must not record a refresh")
}

func TestRefreshSinglePRUpsertsOpenPR(t *testing.T) {
	cache := newTestCache(t)
	pr := openPR("acme/api", 7, "alice")
	pr.Approvals = 2
	fetcher := &fakeFetcher{prs: map[string]domain.PullRequest{"acme/api#7": pr}}
	cfg := testConfig("acme/api")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, nil)

	svc.Refresh(domain.PRScope("acme/api", 7))
	svc.Wait()

	prs, err := cache.GetByRepo(context.Background(), "acme/api")
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 2, prs[0].Approvals)
}

func TestRefreshSinglePRDeletesClosedPR(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Upsert(ctx, []domain.PullRequest{
		openPR("acme/api", 7, "alice"),
		openPR("acme/api", 8, "bob"),
	}, 0))

	closed := openPR("acme/api", 7, "alice")
	closed.State = domain.PRStateMerged
	fetcher := &fakeFetcher{prs: map[string]domain.PullRequest{"acme/api#7": closed}}
	cfg := testConfig("acme/api")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, nil)

	svc.Refresh(domain.PRScope("acme/api", 7))
	svc.Wait()

	prs, err := cache.GetByRepo(ctx, "acme/api")
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 8, prs[0].Number, "only the refreshed PR is removed")
}

func TestIsStale(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	cfg := testConfig("acme/api")
	cfg.StalenessThresholdSeconds = 300
	svc := NewRefreshService(cache, &fakeFetcher{}, func() *config.Config { return cfg }, nil)

	scope := domain.AllScope()
	assert.True(t, svc.IsStale(ctx, scope), "never refreshed means stale")

	require.NoError(t, cache.RecordLastRefresh(ctx, scope.Key(), time.Now().Unix()))
	assert.False(t, svc.IsStale(ctx, scope))

	require.NoError(t, cache.RecordLastRefresh(ctx, scope.Key(), time.Now().Unix()-600))
	assert.True(t, svc.IsStale(ctx, scope))
}

func TestSupersededRefreshStaysSilent(t *testing.T) {
	cache := newTestCache(t)
	gate := make(chan struct{})
	fetcher := &fakeFetcher{
		gate: gate,
		lists: map[string][]domain.PullRequest{
			"acme/api": {openPR("acme/api", 1, "alice")},
		},
	}
	sink := &eventSink{}
	cfg := testConfig("acme/api")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, sink.notify)

	scope := domain.RepoScope("acme/api")
	svc.Refresh(scope) // blocks inside the fetch
	svc.Refresh(scope) // supersedes and cancels the first
	close(gate)
	svc.Wait()

	events := sink.all()
	require.Len(t, events, 1, "superseded refresh must not report")
	assert.NoError(t, events[0].Err)

	prs, err := cache.GetByRepo(context.Background(), "acme/api")
	require.NoError(t, err)
	assert.Len(t, prs, 1)
	assert.False(t, svc.IsRefreshing(scope))
}

func TestCancelStopsInFlightRefresh(t *testing.T) {
	cache := newTestCache(t)
	gate := make(chan struct{})
	fetcher := &fakeFetcher{
		gate: gate,
		lists: map[string][]domain.PullRequest{
			"acme/api": {openPR("acme/api", 1, "alice")},
		},
	}
	sink := &eventSink{}
	cfg := testConfig("acme/api")
	svc := NewRefreshService(cache, fetcher, func() *config.Config { return cfg }, sink.notify)

	scope := domain.RepoScope("acme/api")
	svc.Refresh(scope)
	assert.True(t, svc.IsRefreshing(scope))
	assert.True(t, svc.Cancel(scope))
	close(gate)
	svc.Wait()

	assert.Empty(t, sink.all(), "cancelled refresh must not report")
	prs, err := cache.GetByRepo(context.Background(), "acme/api")
	require.NoError(t, err)
	assert.Empty(t, prs, "cancelled refresh must not write")
	assert.False(t, svc.Cancel(scope), "nothing left to cancel")
}

func TestRefreshInvalidRepoName(t *testing.T) {
	cache := newTestCache(t)
	sink := &eventSink{}
	cfg := testConfig("not-a-repo")
	svc := NewRefreshService(cache, &fakeFetcher{}, func() *config.Config { return cfg }, sink.notify)

	svc.Refresh(domain.RepoScope("not-a-repo"))
	svc.Wait()

	events := sink.all()
	require.Len(t, events, 1)
	assert.Error(t, events[0].Err)
}

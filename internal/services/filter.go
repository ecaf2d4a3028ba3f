package services

import (
	"context"
	"sort"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/ports"
)

// UserSet is a set of GitHub logins used for allow-list filtering
type UserSet map[string]struct{}

// NewUserSet builds a UserSet from a slice of logins
func NewUserSet(users []string) UserSet {
	set := make(UserSet, len(users))
	for _, u := range users {
		set[u] = struct{}{}
	}
	return set
}

// Contains reports whether the login is in the set
func (s UserSet) Contains(login string) bool {
	_, ok := s[login]
	return ok
}

// FilterByUsers keeps PRs whose author or any assignee is in users.
// An empty set is the identity: every PR passes.
func FilterByUsers(prs []domain.PullRequest, users UserSet) []domain.PullRequest {
	if len(users) == 0 {
		return prs
	}

	selected := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if users.Contains(pr.Author) {
			selected = append(selected, pr)
			continue
		}
		for _, a := range pr.Assignees {
			if users.Contains(a) {
				selected = append(selected, pr)
				break
			}
		}
	}
	return selected
}

// ResolveScopeUsers returns the allow-list that applies to a repository:
// the repository's own list when set, otherwise the global list. Both empty
// means no filtering.
func ResolveScopeUsers(repoCfg config.RepoConfig, globalUsers []string) UserSet {
	if len(repoCfg.Users) > 0 {
		return NewUserSet(repoCfg.Users)
	}
	return NewUserSet(globalUsers)
}

// CollectTracked reads the whole cache once and builds the "all tracked PRs"
// view: rows are grouped by repository, each tracked repository's allow-list
// is applied, and the result is merged newest-first. Rows from repositories
// no longer tracked are excluded.
func CollectTracked(ctx context.Context, reader ports.PRReader, cfg *config.Config) ([]domain.PullRequest, error) {
	all, err := reader.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byRepo := make(map[string][]domain.PullRequest)
	for _, pr := range all {
		byRepo[pr.Repo] = append(byRepo[pr.Repo], pr)
	}

	lists := make([][]domain.PullRequest, 0, len(cfg.Repositories))
	for _, rc := range cfg.Repositories {
		lists = append(lists, FilterByUsers(byRepo[rc.Name], ResolveScopeUsers(rc, cfg.GlobalUsers)))
	}
	return MergeAndSort(lists...), nil
}

// MergeAndSort concatenates per-repository result lists and sorts them by
// PR number descending, ties broken by repository name. Number order only
// approximates "newest first": numbers are monotonic per repository, not
// comparable across repositories.
func MergeAndSort(lists ...[]domain.PullRequest) []domain.PullRequest {
	total := 0
	for _, l := range lists {
		total += len(l)
	}

	merged := make([]domain.PullRequest, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Number != merged[j].Number {
			return merged[i].Number > merged[j].Number
		}
		return merged[i].Repo < merged[j].Repo
	})
	return merged
}

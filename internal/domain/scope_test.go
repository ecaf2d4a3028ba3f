package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeKeys(t *testing.T) {
	assert.Equal(t, "all", AllScope().Key())
	assert.Equal(t, "repo:acme/api", RepoScope("acme/api").Key())
	assert.Equal(t, "account:alice", AccountScope("alice").Key())
	assert.Equal(t, "pr:acme/api/42", PRScope("acme/api", 42).Key())
}

func TestScopeKeysAreDistinct(t *testing.T) {
	keys := map[string]bool{}
	for _, s := range []Scope{
		AllScope(),
		RepoScope("acme/api"),
		RepoScope("acme/web"),
		AccountScope("alice"),
		PRScope("acme/api", 1),
		PRScope("acme/api", 2),
	} {
		assert.False(t, keys[s.Key()], "duplicate key %q", s.Key())
		keys[s.Key()] = true
	}
}

func TestPullRequestIsOpen(t *testing.T) {
	assert.True(t, PullRequest{State: PRStateOpen}.IsOpen())
	assert.True(t, PullRequest{}.IsOpen(), "legacy rows without state count as open")
	assert.False(t, PullRequest{State: PRStateClosed}.IsOpen())
	assert.False(t, PullRequest{State: PRStateMerged}.IsOpen())
}

package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/prtrack/internal/domain"
)

const listPayload = `[
	{
		"number": 42,
		"title": "Add rate limiter",
		"state": "open",
		"draft": false,
		"html_url": "https://github.com/acme/api/pull/42",
		"user": {"login": "alice"},
		"assignees": [{"login": "bob"}, {"login": "carol"}],
		"head": {"ref": "rate-limiter"}
	},
	{
		"number": 40,
		"title": "Draft: rework config",
		"state": "open",
		"draft": true,
		"html_url": "https://github.com/acme/api/pull/40",
		"user": {"login": "bob"},
		"assignees": [],
		"head": {"ref": "config-rework"}
	}
]`

func TestListOpenPRs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/api/pulls":
			assert.Equal(t, "open", r.URL.Query().Get("state"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			fmt.Fprint(w, listPayload)
		case "/repos/acme/api/pulls/42/reviews":
			fmt.Fprint(w, `[{"state": "APPROVED"}, {"state": "CHANGES_REQUESTED"}, {"state": "APPROVED"}]`)
		case "/repos/acme/api/pulls/40/reviews":
			fmt.Fprint(w, `[]`)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("tok", srv.URL)
	prs, err := client.ListOpenPRs(context.Background(), "acme", "api")
	require.NoError(t, err)
	require.Len(t, prs, 2)

	assert.Equal(t, domain.PullRequest{
		Repo:      "acme/api",
		Number:    42,
		Title:     "Add rate limiter",
		Author:    "alice",
		Assignees: []string{"bob", "carol"},
		Branch:    "rate-limiter",
		Approvals: 2,
		HTMLURL:   "https://github.com/acme/api/pull/42",
		State:     domain.PRStateOpen,
	}, prs[0])

	assert.True(t, prs[1].Draft)
	assert.Zero(t, prs[1].Approvals)
}

func TestListOpenPRsDegradesFailedApprovals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/api/pulls":
			fmt.Fprint(w, listPayload)
		case "/repos/acme/api/pulls/42/reviews":
			// Permanently broken reviews endpoint
			w.WriteHeader(http.StatusNotFound)
		case "/repos/acme/api/pulls/40/reviews":
			fmt.Fprint(w, `[{"state": "APPROVED"}]`)
		}
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	prs, err := client.ListOpenPRs(context.Background(), "acme", "api")
	require.NoError(t, err, "a failed reviews request must not fail the listing")
	require.Len(t, prs, 2)
	assert.Zero(t, prs[0].Approvals)
	assert.Equal(t, 1, prs[1].Approvals)
}

func TestFetchPRMerged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/api/pulls/7":
			fmt.Fprint(w, `{
				"number": 7,
				"title": "Hotfix",
				"state": "closed",
				"merged": true,
				"html_url": "https://github.com/acme/api/pull/7",
				"user": {"login": "alice"},
				"head": {"ref": "hotfix"}
			}`)
		case "/repos/acme/api/pulls/7/reviews":
			fmt.Fprint(w, `[{"state": "APPROVED"}]`)
		}
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	pr, err := client.FetchPR(context.Background(), "acme", "api", 7)
	require.NoError(t, err)
	assert.Equal(t, domain.PRStateMerged, pr.State)
	assert.False(t, pr.IsOpen())
	assert.Equal(t, 1, pr.Approvals)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"number": 1, "state": "open", "user": {"login": "alice"}, "head": {"ref": "x"}}`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	var out prPayload
	err := client.get(context.Background(), srv.URL+"/repos/acme/api/pulls/1", &out)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, out.Number)
}

func TestGetFailsFastOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	var out prPayload
	err := client.get(context.Background(), srv.URL+"/missing", &out)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are not retried")
}

func TestGetHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	var out []reviewPayload
	err := client.get(context.Background(), srv.URL+"/reviews", &out)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("", srv.URL)
	var out []reviewPayload
	err := client.get(context.Background(), srv.URL+"/reviews", &out)
	require.Error(t, err)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestGetRespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClientWithBaseURL("", srv.URL)
	var out []reviewPayload
	err := client.get(ctx, srv.URL+"/reviews", &out)
	require.Error(t, err)
}

package storage

import (
	"encoding/json"

	"github.com/renato0307/prtrack/internal/domain"
)

// prModelToDomain converts a PRModel (GORM) to domain.PullRequest
func prModelToDomain(m PRModel) domain.PullRequest {
	var assignees []string
	if err := json.Unmarshal([]byte(m.Assignees), &assignees); err != nil {
		assignees = nil
	}

	state := domain.PRState(m.State)
	if state == "" {
		state = domain.PRStateOpen // legacy rows predate the state column
	}

	return domain.PullRequest{
		Approvals: m.Approvals,
		Assignees: assignees,
		Author:    m.Author,
		Branch:    m.Branch,
		Draft:     m.Draft,
		FetchedAt: m.FetchedAt,
		HTMLURL:   m.HTMLURL,
		Number:    m.Number,
		Repo:      m.Repo,
		State:     state,
		Title:     m.Title,
	}
}

// domainToPRModel converts a domain.PullRequest to PRModel (GORM).
// fetchedAt stamps the write; assignees marshal to a JSON array column.
func domainToPRModel(pr domain.PullRequest, fetchedAt int64) PRModel {
	assignees := pr.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	raw, err := json.Marshal(assignees)
	if err != nil {
		raw = []byte("[]")
	}

	state := pr.State
	if state == "" {
		state = domain.PRStateOpen
	}

	return PRModel{
		Approvals: pr.Approvals,
		Assignees: string(raw),
		Author:    pr.Author,
		Branch:    pr.Branch,
		Draft:     pr.Draft,
		FetchedAt: fetchedAt,
		HTMLURL:   pr.HTMLURL,
		Number:    pr.Number,
		Repo:      pr.Repo,
		State:     string(state),
		Title:     pr.Title,
	}
}

package domain

// PRState is the lifecycle state a pull request was last reported in.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
)

// PullRequest is one tracked pull request. (Repo, Number) is the identity;
// at most one cached row exists per pair at any time.
type PullRequest struct {
	Repo      string   // "owner/name"
	Number    int
	Title     string
	Author    string   // author login
	Assignees []string // assignee logins
	Branch    string   // head branch
	Draft     bool
	Approvals int      // count of APPROVED reviews at fetch time (best effort)
	HTMLURL   string
	State     PRState
	FetchedAt int64    // unix seconds of the write that produced this row
}

// IsOpen reports whether the PR was open at fetch time. Legacy rows without
// a recorded state count as open.
func (p PullRequest) IsOpen() bool {
	return p.State == PRStateOpen || p.State == ""
}

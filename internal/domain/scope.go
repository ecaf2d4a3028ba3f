package domain

import "fmt"

// ScopeKind discriminates the refresh scopes the engine understands.
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeRepo
	ScopeAccount
	ScopePR
)

// Scope identifies what the user is viewing and what a refresh applies to:
// every tracked repository, one repository, one account, or a single PR.
// Scopes are values, not persisted state; their Key is the stable identifier
// used for last-refresh metadata and in-flight task tracking.
type Scope struct {
	Kind    ScopeKind
	Repo    string // ScopeRepo, ScopePR
	Account string // ScopeAccount
	Number  int    // ScopePR
}

func AllScope() Scope                 { return Scope{Kind: ScopeAll} }
func RepoScope(repo string) Scope     { return Scope{Kind: ScopeRepo, Repo: repo} }
func AccountScope(login string) Scope { return Scope{Kind: ScopeAccount, Account: login} }
func PRScope(repo string, number int) Scope {
	return Scope{Kind: ScopePR, Repo: repo, Number: number}
}

// Key returns the metadata key for this scope, e.g. "repo:owner/name".
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeRepo:
		return "repo:" + s.Repo
	case ScopeAccount:
		return "account:" + s.Account
	case ScopePR:
		return fmt.Sprintf("pr:%s/%d", s.Repo, s.Number)
	default:
		return "all"
	}
}

// String implements fmt.Stringer for logging.
func (s Scope) String() string { return s.Key() }

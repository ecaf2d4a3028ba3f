package services

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/renato0307/prtrack/internal/domain"
)

// WriteMarkdown writes PRs to a markdown file, one line per PR:
//
//	N. [a/2 Approval] [Title](URL)
//
// Lines are ordered by repository then number so repeated exports of the
// same set produce identical files.
func WriteMarkdown(prs []domain.PullRequest, outfile string) error {
	sorted := make([]domain.PullRequest, len(prs))
	copy(sorted, prs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Repo != sorted[j].Repo {
			return sorted[i].Repo < sorted[j].Repo
		}
		return sorted[i].Number < sorted[j].Number
	})

	var b strings.Builder
	for i, pr := range sorted {
		fmt.Fprintf(&b, "%d. [%d/2 Approval] [%s](%s)\n", i+1, pr.Approvals, pr.Title, pr.HTMLURL)
	}

	if err := os.WriteFile(outfile, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write markdown file: %w", err)
	}
	return nil
}

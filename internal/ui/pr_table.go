package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/theme"
)

// newPRTable builds the pull request table widget
func newPRTable(height int) table.Model {
	columns := []table.Column{
		{Title: "Repo", Width: 24},
		{Title: "#", Width: 6},
		{Title: "Title", Width: 44},
		{Title: "Author", Width: 14},
		{Title: "Assignees", Width: 20},
		{Title: "Appr", Width: 5},
		{Title: "Draft", Width: 5},
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true).
		Foreground(theme.ColorSecondary)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorHighlight).
		Bold(true)

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
		table.WithStyles(styles),
	)
	return t
}

// requiredApprovals is the approval target surfaced in the table and the
// markdown export
const requiredApprovals = 2

// prRows converts PRs to table rows
func prRows(prs []domain.PullRequest) []table.Row {
	rows := make([]table.Row, len(prs))
	for i, pr := range prs {
		draft := ""
		if pr.Draft {
			draft = theme.DraftStyle.Render("yes")
		}

		appr := fmt.Sprintf("%d", pr.Approvals)
		if pr.Approvals >= requiredApprovals {
			appr = theme.ApprovedStyle.Render(appr)
		} else {
			appr = theme.PendingStyle.Render(appr)
		}

		rows[i] = table.Row{
			pr.Repo,
			fmt.Sprintf("#%d", pr.Number),
			pr.Title,
			pr.Author,
			strings.Join(pr.Assignees, ", "),
			appr,
			draft,
		}
	}
	return rows
}

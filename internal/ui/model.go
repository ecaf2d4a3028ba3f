package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"

	"github.com/renato0307/prtrack/internal/config"
	"github.com/renato0307/prtrack/internal/domain"
	"github.com/renato0307/prtrack/internal/logging"
	"github.com/renato0307/prtrack/internal/ports"
	"github.com/renato0307/prtrack/internal/services"
	"github.com/renato0307/prtrack/internal/theme"
)

type uiState int

const (
	stateMenu uiState = iota
	statePickAccount
	statePickRepo
	statePRList
	stateStats
)

const noticeClearDelay = 5 * time.Second

type menuItem struct {
	key   string
	label string
}

var mainMenu = []menuItem{
	{"all", "List tracked PRs"},
	{"repos", "List PRs per repo"},
	{"accounts", "List PRs per account"},
	{"export", "Export to markdown"},
	{"stats", "Cache stats"},
	{"exit", "Exit"},
}

const exportFilename = "prtrack-export.md"

// Model is the bubbletea model for the tracker TUI. Views are cache-first:
// entering a scope renders cached rows immediately and schedules a
// background refresh when the scope is stale. Refresh outcomes arrive as
// RefreshEventMsg and re-render the current scope.
type Model struct {
	cache     ports.PRCache
	cfg       *config.Config
	refresher *services.RefreshService

	cursor     int
	height     int
	keys       KeyMap
	notice     string
	pager      *Pager
	pickItems  []string
	prs        []domain.PullRequest
	refreshing bool
	scope      domain.Scope
	spinner    spinner.Model
	state      uiState
	statsText  string
	table      table.Model
	width      int
}

// NewModel creates the TUI model
func NewModel(cfg *config.Config, cache ports.PRCache, refresher *services.RefreshService) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.NormalStyle.Foreground(theme.ColorSpinner)

	return &Model{
		cache:     cache,
		cfg:       cfg,
		keys:      DefaultKeyMap(),
		pager:     NewPager(cfg.PRPageSize()),
		refresher: refresher,
		spinner:   sp,
		state:     stateMenu,
		table:     newPRTable(15),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 9; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case RefreshEventMsg:
		return m.handleRefreshEvent(msg.Event)

	case clearNoticeMsg:
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.state {
	case stateMenu:
		return m.updateMenu(msg)
	case statePickRepo, statePickAccount:
		return m.updatePicker(msg)
	case statePRList:
		return m.updatePRList(msg)
	case stateStats:
		if key.Matches(msg, m.keys.Back) {
			m.state = stateMenu
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		} else {
			m.cursor = len(mainMenu) - 1 // wrap
		}
	case "down", "j":
		if m.cursor < len(mainMenu)-1 {
			m.cursor++
		} else {
			m.cursor = 0
		}
	case "enter":
		switch mainMenu[m.cursor].key {
		case "all":
			return m, m.enterScope(domain.AllScope())
		case "repos":
			m.pickItems = m.repoNames()
			m.cursor = 0
			m.state = statePickRepo
			return m, nil
		case "accounts":
			m.pickItems = m.accountNames()
			m.cursor = 0
			m.state = statePickAccount
			return m, nil
		case "export":
			return m, m.exportMarkdown()
		case "stats":
			m.loadStats()
			m.state = stateStats
			return m, nil
		case "exit":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.state = stateMenu
		m.cursor = 0
		return m, nil
	}
	if len(m.pickItems) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		} else {
			m.cursor = len(m.pickItems) - 1
		}
	case "down", "j":
		if m.cursor < len(m.pickItems)-1 {
			m.cursor++
		} else {
			m.cursor = 0
		}
	case "enter":
		item := m.pickItems[m.cursor]
		if m.state == statePickRepo {
			return m, m.enterScope(domain.RepoScope(item))
		}
		return m, m.enterScope(domain.AccountScope(item))
	}
	return m, nil
}

func (m *Model) updatePRList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.state = stateMenu
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		m.pager.Next(len(m.prs))
		m.syncTable()
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		m.pager.Prev(len(m.prs))
		m.syncTable()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.refreshing = true
		m.refresher.Refresh(m.scope)
		return m, m.spinner.Tick

	case key.Matches(msg, m.keys.RefreshPR):
		if pr, ok := m.selectedPR(); ok {
			m.refreshing = true
			m.refresher.Refresh(domain.PRScope(pr.Repo, pr.Number))
			return m, m.spinner.Tick
		}
		return m, nil

	case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Select):
		if pr, ok := m.selectedPR(); ok {
			if err := browser.OpenURL(pr.HTMLURL); err != nil {
				logging.Logger.Warn("failed to open browser", "url", pr.HTMLURL, "error", err)
				m.notice = "Failed to open browser"
				return m, clearNoticeAfter()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) handleRefreshEvent(ev services.RefreshEvent) (tea.Model, tea.Cmd) {
	// Single-PR refreshes affect whatever scope is on screen; other events
	// only matter when they are for the current scope.
	if ev.Scope.Kind != domain.ScopePR && ev.Scope.Key() != m.scope.Key() {
		return m, nil
	}

	m.refreshing = false
	m.reloadFromCache()
	m.syncTable()

	switch {
	case ev.Err != nil:
		m.notice = "Refresh failed"
	case len(ev.FailedRepos) > 0:
		m.notice = fmt.Sprintf("Refresh failed for: %s", strings.Join(ev.FailedRepos, ", "))
	case ev.Scope.Kind == domain.ScopePR:
		m.notice = fmt.Sprintf("PR %s#%d refreshed", ev.Scope.Repo, ev.Scope.Number)
	default:
		return m, nil
	}
	return m, clearNoticeAfter()
}

// enterScope shows cached rows for the scope immediately and schedules a
// background refresh when stale.
func (m *Model) enterScope(scope domain.Scope) tea.Cmd {
	m.scope = scope
	m.state = statePRList
	m.pager.Reset()
	m.reloadFromCache()
	m.syncTable()

	if m.refresher.IsStale(context.Background(), scope) {
		m.refreshing = true
		m.refresher.Refresh(scope)
		return m.spinner.Tick
	}
	return nil
}

// reloadFromCache re-reads the current scope's rows from the cache
func (m *Model) reloadFromCache() {
	ctx := context.Background()

	var prs []domain.PullRequest
	var err error
	switch m.scope.Kind {
	case domain.ScopeRepo:
		prs, err = m.cache.GetByRepo(ctx, m.scope.Repo)
	case domain.ScopeAccount:
		prs, err = m.cache.GetByAccount(ctx, m.scope.Account)
	default:
		prs, err = services.CollectTracked(ctx, m.cache, m.cfg)
	}
	if err != nil {
		logging.Logger.Warn("failed to read cache", "scope", m.scope, "error", err)
		m.notice = "Failed to read cache"
		return
	}
	m.prs = prs
}

func (m *Model) syncTable() {
	m.table.SetRows(prRows(m.pager.Slice(m.prs)))
	m.table.SetCursor(0)
}

// selectedPR maps the table cursor back to the PR on the current page
func (m *Model) selectedPR() (domain.PullRequest, bool) {
	page := m.pager.Slice(m.prs)
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(page) {
		return domain.PullRequest{}, false
	}
	return page[idx], true
}

func (m *Model) repoNames() []string {
	names := make([]string, len(m.cfg.Repositories))
	for i, rc := range m.cfg.Repositories {
		names[i] = rc.Name
	}
	return names
}

// accountNames returns global users plus per-repo users, deduplicated
func (m *Model) accountNames() []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(u string) {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			names = append(names, u)
		}
	}
	for _, u := range m.cfg.GlobalUsers {
		add(u)
	}
	for _, rc := range m.cfg.Repositories {
		for _, u := range rc.Users {
			add(u)
		}
	}
	sort.Strings(names)
	return names
}

// exportMarkdown writes the full tracked view to a file in the working
// directory and reports via the transient notice.
func (m *Model) exportMarkdown() tea.Cmd {
	prs, err := services.CollectTracked(context.Background(), m.cache, m.cfg)
	if err == nil {
		err = services.WriteMarkdown(prs, exportFilename)
	}
	if err != nil {
		logging.Logger.Warn("export failed", "error", err)
		m.notice = "Export failed"
	} else {
		m.notice = fmt.Sprintf("Exported %d PRs to %s", len(prs), exportFilename)
	}
	return clearNoticeAfter()
}

func (m *Model) loadStats() {
	stats, err := m.cache.Stats(context.Background())
	if err != nil {
		m.statsText = theme.ErrorStyle.Render(fmt.Sprintf("Failed to read cache stats: %v", err))
		return
	}
	m.statsText = fmt.Sprintf(
		"Cached PRs:        %d\nRepositories:      %d\nApproximate size:  %d bytes",
		stats.TotalPRs, stats.Repositories, stats.ApproximateSizeBytes)
}

// View implements tea.Model
func (m *Model) View() string {
	switch m.state {
	case statePickRepo:
		return m.viewPicker("Repos")
	case statePickAccount:
		return m.viewPicker("Accounts")
	case statePRList:
		return m.viewPRList()
	case stateStats:
		return theme.TitleStyle.Render("Cache stats") + "\n" +
			theme.NormalStyle.Render(m.statsText) + "\n" +
			theme.HelpStyle.Render("esc back • q quit")
	default:
		return m.viewMenu()
	}
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("prtrack — GitHub pull request tracker"))
	b.WriteString("\n")
	for i, item := range mainMenu {
		if i == m.cursor {
			b.WriteString(theme.SelectedStyle.Render("> " + item.label))
		} else {
			b.WriteString(theme.NormalStyle.Render("  " + item.label))
		}
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(theme.StatusStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(theme.HelpStyle.Render("↑/↓ move • enter select • q quit"))
	return b.String()
}

func (m *Model) viewPicker(title string) string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")
	if len(m.pickItems) == 0 {
		b.WriteString(theme.StatusStyle.Render("  (nothing tracked yet)"))
		b.WriteString("\n")
	}
	for i, item := range m.pickItems {
		if i == m.cursor {
			b.WriteString(theme.SelectedStyle.Render("> " + item))
		} else {
			b.WriteString(theme.NormalStyle.Render("  " + item))
		}
		b.WriteString("\n")
	}
	b.WriteString(theme.HelpStyle.Render("↑/↓ move • enter select • esc back"))
	return b.String()
}

func (m *Model) viewPRList() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(m.scopeTitle()))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(theme.StatusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(theme.ErrorStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(theme.HelpStyle.Render("r refresh • u refresh PR • enter/o open • [/] pages • esc back • q quit"))
	return b.String()
}

func (m *Model) scopeTitle() string {
	switch m.scope.Kind {
	case domain.ScopeRepo:
		return "Pull Requests — " + m.scope.Repo
	case domain.ScopeAccount:
		return "Pull Requests — @" + m.scope.Account
	default:
		return "Pull Requests — all tracked repos"
	}
}

// statusLine renders "Last refresh: … • Refreshing… • Page i/n (t PRs)"
func (m *Model) statusLine() string {
	parts := make([]string, 0, 3)

	last, ok, err := m.cache.LastRefresh(context.Background(), m.scope.Key())
	switch {
	case err != nil || !ok:
		parts = append(parts, "Last refresh: never")
	default:
		ago := time.Now().Unix() - last
		if ago < 0 {
			ago = 0
		}
		parts = append(parts, "Last refresh: "+formatTimeAgo(ago))
	}

	if m.refreshing {
		parts = append(parts, m.spinner.View()+"Refreshing…")
	}

	if total := len(m.prs); total > 0 {
		parts = append(parts, fmt.Sprintf("Page %d/%d (%d PRs)",
			m.pager.Page(total), m.pager.PageCount(total), total))
	}

	return strings.Join(parts, " • ")
}

func clearNoticeAfter() tea.Cmd {
	return tea.Tick(noticeClearDelay, func(time.Time) tea.Msg {
		return clearNoticeMsg{}
	})
}

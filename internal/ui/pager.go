package ui

import "github.com/renato0307/prtrack/internal/domain"

// Pager derives page windows over the current in-memory PR list. Pages are
// 1-based; Next and Prev wrap circularly at the boundaries, which is a
// deliberate navigation choice rather than an error condition.
type Pager struct {
	size int
	page int
}

// NewPager creates a Pager with the given page size (minimum 1)
func NewPager(size int) *Pager {
	if size < 1 {
		size = 1
	}
	return &Pager{size: size, page: 1}
}

// PageCount returns the number of pages for total items, at least 1
func (p *Pager) PageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.size - 1) / p.size
}

// Page returns the current page clamped into [1, PageCount(total)]
func (p *Pager) Page(total int) int {
	pages := p.PageCount(total)
	if p.page < 1 {
		return 1
	}
	if p.page > pages {
		return pages
	}
	return p.page
}

// Reset moves back to the first page
func (p *Pager) Reset() { p.page = 1 }

// Next advances one page, wrapping to the first past the last
func (p *Pager) Next(total int) {
	pages := p.PageCount(total)
	current := p.Page(total)
	if current < pages {
		p.page = current + 1
	} else {
		p.page = 1
	}
}

// Prev moves back one page, wrapping to the last before the first
func (p *Pager) Prev(total int) {
	pages := p.PageCount(total)
	current := p.Page(total)
	if current > 1 {
		p.page = current - 1
	} else {
		p.page = pages
	}
}

// Slice returns the PRs on the current page
func (p *Pager) Slice(prs []domain.PullRequest) []domain.PullRequest {
	if len(prs) == 0 {
		return nil
	}
	page := p.Page(len(prs))
	start := (page - 1) * p.size
	end := start + p.size
	if end > len(prs) {
		end = len(prs)
	}
	return prs[start:end]
}

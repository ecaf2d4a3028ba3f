package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renato0307/prtrack/internal/domain"
)

func makePRs(n int) []domain.PullRequest {
	prs := make([]domain.PullRequest, n)
	for i := range prs {
		prs[i] = domain.PullRequest{Repo: "acme/api", Number: i + 1}
	}
	return prs
}

func TestPagerPageCount(t *testing.T) {
	p := NewPager(2)
	assert.Equal(t, 1, p.PageCount(0))
	assert.Equal(t, 1, p.PageCount(2))
	assert.Equal(t, 2, p.PageCount(3))
	assert.Equal(t, 3, p.PageCount(5))
}

func TestPagerNextWrapsToFirstPage(t *testing.T) {
	p := NewPager(2)
	total := 5 // pages 1..3

	p.Next(total)
	assert.Equal(t, 2, p.Page(total))
	p.Next(total)
	assert.Equal(t, 3, p.Page(total))
	p.Next(total)
	assert.Equal(t, 1, p.Page(total), "wraps past the last page")
}

func TestPagerPrevWrapsToLastPage(t *testing.T) {
	p := NewPager(2)
	total := 5

	p.Prev(total)
	assert.Equal(t, 3, p.Page(total), "wraps before the first page")
	p.Prev(total)
	assert.Equal(t, 2, p.Page(total))
}

func TestPagerSlice(t *testing.T) {
	p := NewPager(2)
	prs := makePRs(5)

	page := p.Slice(prs)
	assert.Len(t, page, 2)
	assert.Equal(t, 1, page[0].Number)

	p.Next(len(prs))
	p.Next(len(prs))
	page = p.Slice(prs)
	assert.Len(t, page, 1, "last page holds the remainder")
	assert.Equal(t, 5, page[0].Number)
}

func TestPagerClampsAfterShrink(t *testing.T) {
	p := NewPager(2)
	p.Next(5)
	p.Next(5) // page 3

	// List shrank to a single page; current page clamps
	assert.Equal(t, 1, p.Page(2))
	assert.Len(t, p.Slice(makePRs(2)), 2)
}

func TestPagerEmptyList(t *testing.T) {
	p := NewPager(10)
	assert.Nil(t, p.Slice(nil))
	assert.Equal(t, 1, p.Page(0))
}

func TestPagerMinimumSize(t *testing.T) {
	p := NewPager(0)
	assert.Equal(t, 3, p.PageCount(3), "size clamps to 1")
}

func TestFormatTimeAgo(t *testing.T) {
	assert.Equal(t, "45s ago", formatTimeAgo(45))
	assert.Equal(t, "2m ago", formatTimeAgo(150))
	assert.Equal(t, "3h ago", formatTimeAgo(3*60*60+120))
	assert.Equal(t, "2d ago", formatTimeAgo(2*24*60*60+60))
}

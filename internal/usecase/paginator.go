package usecase

import "github.com/glutenvergelijker/backend/internal/domain"

// DefaultPageSize is the number of products revealed per Next call
const DefaultPageSize = 24

// Paginator reveals a result list incrementally without recomputing filters.
// It is not safe for concurrent use; AppState serializes access.
type Paginator struct {
	items    []domain.Product
	cursor   int
	pageSize int
}

// NewPaginator creates a paginator. A non-positive page size uses DefaultPageSize.
func NewPaginator(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator{pageSize: pageSize}
}

// Reset replaces the backing list and moves the cursor back to the start
func (p *Paginator) Reset(items []domain.Product) {
	p.items = items
	p.cursor = 0
}

// Next returns the next page and advances the cursor by the number of items returned
func (p *Paginator) Next() []domain.Product {
	if !p.HasMore() {
		return []domain.Product{}
	}
	end := min(p.cursor+p.pageSize, len(p.items))
	page := p.items[p.cursor:end:end]
	p.cursor = end
	return page
}

// HasMore reports whether Next would return any products
func (p *Paginator) HasMore() bool {
	return p.cursor < len(p.items)
}

// Revealed returns every product handed out since the last Reset
func (p *Paginator) Revealed() []domain.Product {
	return p.items[:p.cursor:p.cursor]
}

// Total returns the length of the backing list
func (p *Paginator) Total() int {
	return len(p.items)
}

// PageSize returns the configured page size
func (p *Paginator) PageSize() int {
	return p.pageSize
}

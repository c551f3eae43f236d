package browse

// Paginator slices an in-memory list into fixed-size, 1-indexed pages.
// It is not safe for concurrent use; the owning screen synchronizes access.
type Paginator struct {
	size    int
	total   int
	current int
}

// Page is one visible slice of a list
type Page[T any] struct {
	Items  []T
	Number int
	Count  int
	Size   int
	Total  int
}

// HasPrev reports whether a previous page exists
func (p Page[T]) HasPrev() bool {
	return p.Number > 1
}

// HasNext reports whether a next page exists
func (p Page[T]) HasNext() bool {
	return p.Number < p.Count
}

// NewPaginator creates a paginator on page 1
func NewPaginator(pageSize int) *Paginator {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Paginator{size: pageSize, current: 1}
}

// PageCount returns ceil(total/size)
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// PageSize returns the fixed page size
func (p *Paginator) PageSize() int { return p.size }

// Total returns the item count
func (p *Paginator) Total() int { return p.total }

// Current returns the current 1-indexed page
func (p *Paginator) Current() int { return p.current }

// PageCount returns the number of pages, 0 for an empty list
func (p *Paginator) PageCount() int {
	return PageCount(p.total, p.size)
}

func (p *Paginator) lastPage() int {
	if n := p.PageCount(); n > 1 {
		return n
	}
	return 1
}

// SetTotal updates the item count. If the current page falls past the end it goes back to page 1.
func (p *Paginator) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	if p.current > p.lastPage() {
		p.current = 1
	}
}

// Reset updates the item count and goes to page 1, as after a new query or filter
func (p *Paginator) Reset(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	p.current = 1
}

// Next moves one page forward. It is a no-op on the last page.
func (p *Paginator) Next() bool {
	if p.current >= p.lastPage() {
		return false
	}
	p.current++
	return true
}

// Prev moves one page back. It is a no-op on the first page.
func (p *Paginator) Prev() bool {
	if p.current <= 1 {
		return false
	}
	p.current--
	return true
}

// GoTo jumps to page n clamped into [1, max(1, pageCount)]
func (p *Paginator) GoTo(n int) int {
	switch {
	case n < 1:
		n = 1
	case n > p.lastPage():
		n = p.lastPage()
	}
	p.current = n
	return n
}

// First jumps to page 1
func (p *Paginator) First() {
	p.current = 1
}

// Last jumps to the final page
func (p *Paginator) Last() {
	p.current = p.lastPage()
}

// Bounds returns the half-open item range [start, end) of the current page
func (p *Paginator) Bounds() (int, int) {
	start := (p.current - 1) * p.size
	if start > p.total {
		start = p.total
	}
	end := start + p.size
	if end > p.total {
		end = p.total
	}
	return start, end
}

// Slice returns the items of the current page. The paginator total is expected to match len(items);
// a shorter list is cut safely.
func Slice[T any](p *Paginator, items []T) []T {
	start, end := p.Bounds()
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageOf builds the current page of items
func PageOf[T any](p *Paginator, items []T) Page[T] {
	return Page[T]{
		Items:  Slice(p, items),
		Number: p.Current(),
		Count:  p.PageCount(),
		Size:   p.PageSize(),
		Total:  p.Total(),
	}
}

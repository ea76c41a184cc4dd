// Package pagination pages an in-memory list the way the user listing screen does.
package pagination

const (
	DefaultPerPage = 12
	WindowSize     = 5
)

// PerPageOptions are the page sizes offered to the user.
var PerPageOptions = []int{10, 12, 20, 30, 50, 100}

// Paginator tracks the current page over a list of Total records.
type Paginator struct {
	Current int
	PerPage int
	Total   int
}

func New(total int) *Paginator {
	return &Paginator{Current: 1, PerPage: DefaultPerPage, Total: total}
}

// Pages is ceil(Total / PerPage).
func (p *Paginator) Pages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// GoTo moves to page when there is more than one page and page exists.
func (p *Paginator) GoTo(page int) bool {
	n := p.Pages()
	if n <= 1 || page < 1 || page > n {
		return false
	}
	p.Current = page
	return true
}

// SetPerPage changes the page size and returns to the first page.
func (p *Paginator) SetPerPage(perPage int) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	p.PerPage = perPage
	p.Current = 1
}

// Window returns up to WindowSize page numbers around the current page.
// The first pages are shown while Current < 3, the last pages near the end.
func (p *Paginator) Window() []int {
	n := p.Pages()
	if n == 0 {
		return []int{}
	}
	switch {
	case p.Current < 3:
		return pageRange(1, min(WindowSize, n))
	case p.Current+2 >= n && n >= WindowSize:
		return pageRange(n-WindowSize+1, n)
	default:
		return pageRange(max(p.Current-2, 1), min(p.Current+2, n))
	}
}

// Offset is the index of the first record on the current page.
func (p *Paginator) Offset() int {
	if p.Current < 1 {
		return 0
	}
	return (p.Current - 1) * p.PerPage
}

// Page returns the records of the current page.
func Page[T any](p *Paginator, items []T) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}

func pageRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

package crud

// Page is a slice of a filtered, sorted query plus pagination metadata.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Total      int  `json:"total"`
	PageNo     int  `json:"page_no"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPage computes pagination metadata for items fetched at offset/limit out of
// total matching rows. limit must be positive.
func NewPage[T any](items []T, total, offset, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		PageNo:     offset/limit + 1,
		PageSize:   limit,
		TotalPages: (total + limit - 1) / limit,
		HasNext:    offset+limit < total,
		HasPrev:    offset > 0,
	}
}

// MapPage converts the items of a page while keeping its metadata.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	if p == nil {
		return nil
	}
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = fn(item)
	}
	return &Page[U]{
		Items:      items,
		Total:      p.Total,
		PageNo:     p.PageNo,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNext,
		HasPrev:    p.HasPrev,
	}
}

// Map converts a slice of records into their output representation.
func Map[T, U any](items []T, fn func(T) U) []U {
	out := make([]U, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

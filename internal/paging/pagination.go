// Package paging menghitung window halaman dan menyimpan pilihan multi-select
// untuk daftar grup di keyboard Telegram.
package paging

// DefaultPageSize jumlah item per halaman keyboard
const DefaultPageSize = 8

// Window posisi satu halaman atas daftar yang sudah difilter
type Window struct {
	Page       int
	TotalPages int
	StartIndex int
	EndIndex   int
	HasPrev    bool
	HasNext    bool
}

// Paginate menghitung window untuk page (0-based). Page di luar jangkauan
// menghasilkan window kosong, bukan error.
func Paginate(page, total, pageSize int) Window {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	if page < 0 {
		page = 0
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := page * pageSize
	if start > total || start < 0 {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Window{
		Page:       page,
		TotalPages: totalPages,
		StartIndex: start,
		EndIndex:   end,
		HasPrev:    page > 0,
		HasNext:    end < total,
	}
}

// Empty true jika halaman tidak berisi item
func (w Window) Empty() bool {
	return w.StartIndex >= w.EndIndex
}

// PageItems potongan items untuk page tertentu beserta window-nya
func PageItems[T any](items []T, page, pageSize int) ([]T, Window) {
	w := Paginate(page, len(items), pageSize)
	return items[w.StartIndex:w.EndIndex], w
}

package paging

// SelectionSet himpunan id terurut sesuai urutan dipilih
type SelectionSet struct {
	ids []string
}

// NewSelectionSet membuat SelectionSet kosong
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{}
}

// Toggle menghapus id jika sudah ada, atau menambahkannya di akhir.
// Mengembalikan true jika id sekarang terpilih.
func (s *SelectionSet) Toggle(id string) bool {
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

// Contains cek apakah id terpilih
func (s *SelectionSet) Contains(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// IDs salinan id terpilih sesuai urutan pilih
func (s *SelectionSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len jumlah id terpilih
func (s *SelectionSet) Len() int {
	return len(s.ids)
}

// Retain membuang id yang tidak lolos valid, urutan sisanya tetap
func (s *SelectionSet) Retain(valid func(id string) bool) {
	kept := s.ids[:0]
	for _, id := range s.ids {
		if valid(id) {
			kept = append(kept, id)
		}
	}
	s.ids = kept
}

// Package flow menyimpan state workflow multi-langkah per user Telegram.
// Setiap jenis workflow punya struct dan enum step sendiri, dan step hanya
// boleh berpindah mengikuti graf transisi jenis tersebut.
package flow

import (
	"strings"

	"whatsapp-bot/internal/groups"
	"whatsapp-bot/internal/paging"
	"whatsapp-bot/utils"
)

// Kind jenis workflow
type Kind string

const (
	KindAddPromote    Kind = "add_promote"
	KindDemote        Kind = "demote"
	KindRename        Kind = "rename"
	KindContactImport Kind = "contact_import"
)

// Flow state satu workflow aktif milik satu user
type Flow interface {
	Kind() Kind
	StepName() string
	// Executing true setelah batch dimulai; workflow tidak menerima input lagi
	Executing() bool
}

type machine[S comparable] struct {
	kind  Kind
	step  S
	graph map[S][]S
	names map[S]string
}

func (m *machine[S]) advance(to S) error {
	for _, next := range m.graph[m.step] {
		if next == to {
			m.step = to
			return nil
		}
	}
	return utils.NewFlowConsistencyError("%s: transisi %s -> %s tidak diizinkan", m.kind, m.names[m.step], m.names[to])
}

func errNotCandidate(id string) error {
	return utils.NewFlowConsistencyError("grup %s bukan kandidat workflow ini", id)
}

// GroupPicker daftar grup kandidat + pilihan multi-select + pencarian
type GroupPicker struct {
	Groups   []groups.Group
	Selected *paging.SelectionSet
	Query    string
	Page     int
}

// NewGroupPicker membuat picker dari snapshot grup (diurutkan natural by nama)
func NewGroupPicker(gs []groups.Group) GroupPicker {
	sorted := make([]groups.Group, len(gs))
	copy(sorted, gs)
	utils.SortNaturally(sorted, func(g groups.Group) string { return g.Name })
	return GroupPicker{Groups: sorted, Selected: paging.NewSelectionSet()}
}

// Filtered grup yang namanya mengandung Query (case-insensitive)
func (p *GroupPicker) Filtered() []groups.Group {
	if p.Query == "" {
		return p.Groups
	}
	q := strings.ToLower(p.Query)
	var out []groups.Group
	for _, g := range p.Groups {
		if strings.Contains(strings.ToLower(g.Name), q) {
			out = append(out, g)
		}
	}
	return out
}

// SetQuery mengganti kata kunci pencarian dan kembali ke halaman pertama.
// Pilihan yang sudah ada tidak berubah.
func (p *GroupPicker) SetQuery(q string) {
	p.Query = strings.TrimSpace(q)
	p.Page = 0
}

// Find mencari grup kandidat berdasarkan id
func (p *GroupPicker) Find(id string) (groups.Group, bool) {
	for _, g := range p.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return groups.Group{}, false
}

// Toggle memilih/membatalkan grup. Id di luar daftar kandidat ditolak.
func (p *GroupPicker) Toggle(id string) (bool, error) {
	if _, ok := p.Find(id); !ok {
		return false, errNotCandidate(id)
	}
	return p.Selected.Toggle(id), nil
}

// SelectedGroups grup terpilih sesuai urutan pilih
func (p *GroupPicker) SelectedGroups() []groups.Group {
	var out []groups.Group
	for _, id := range p.Selected.IDs() {
		if g, ok := p.Find(id); ok {
			out = append(out, g)
		}
	}
	return out
}

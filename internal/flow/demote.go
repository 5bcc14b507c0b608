package flow

import (
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/internal/paging"
)

// DemoteStep langkah workflow demote admin
type DemoteStep int

const (
	DemoteWaitingAdminNumbers DemoteStep = iota
	DemoteSearchAdminInGroups
	DemoteSelectGroups
	DemoteConfirm
	DemoteExecuting
)

var demoteNames = map[DemoteStep]string{
	DemoteWaitingAdminNumbers: "waiting_admin_numbers",
	DemoteSearchAdminInGroups: "search_admin_in_groups",
	DemoteSelectGroups:        "select_demote_groups",
	DemoteConfirm:             "confirm_demote",
	DemoteExecuting:           "executing",
}

var demoteGraph = map[DemoteStep][]DemoteStep{
	DemoteWaitingAdminNumbers: {DemoteSearchAdminInGroups},
	DemoteSearchAdminInGroups: {DemoteSelectGroups},
	DemoteSelectGroups:        {DemoteConfirm},
	DemoteConfirm:             {DemoteExecuting},
}

func (s DemoteStep) String() string { return demoteNames[s] }

// FoundAdmins nomor admin yang ditemukan di satu grup
type FoundAdmins struct {
	Group   groups.Group
	Numbers []string
}

// DemoteFlow input nomor, cari admin di semua grup, pilih grup, konfirmasi, demote
type DemoteFlow struct {
	machine[DemoteStep]
	Admins     []string
	Duplicates int
	Found      []FoundAdmins
	Selected   *paging.SelectionSet
	Page       int
}

// NewDemote workflow demote baru
func NewDemote() *DemoteFlow {
	return &DemoteFlow{
		machine:  machine[DemoteStep]{kind: KindDemote, step: DemoteWaitingAdminNumbers, graph: demoteGraph, names: demoteNames},
		Selected: paging.NewSelectionSet(),
	}
}

func (f *DemoteFlow) Kind() Kind { return KindDemote }
func (f *DemoteFlow) Step() DemoteStep { return f.step }
func (f *DemoteFlow) StepName() string { return f.step.String() }
func (f *DemoteFlow) Executing() bool { return f.step == DemoteExecuting }
func (f *DemoteFlow) Advance(to DemoteStep) error { return f.advance(to) }

// SetFound menyimpan hasil pencarian admin; pilihan lama yang tidak ada lagi dibuang
func (f *DemoteFlow) SetFound(found []FoundAdmins) {
	f.Found = found
	f.Page = 0
	f.Selected.Retain(func(id string) bool {
		_, ok := f.FindFound(id)
		return ok
	})
}

// FindFound hasil pencarian untuk grup tertentu
func (f *DemoteFlow) FindFound(groupID string) (FoundAdmins, bool) {
	for _, fa := range f.Found {
		if fa.Group.ID == groupID {
			return fa, true
		}
	}
	return FoundAdmins{}, false
}

// Toggle memilih grup hasil pencarian. Grup di luar hasil pencarian ditolak.
func (f *DemoteFlow) Toggle(groupID string) (bool, error) {
	if _, ok := f.FindFound(groupID); !ok {
		return false, errNotCandidate(groupID)
	}
	return f.Selected.Toggle(groupID), nil
}

// SelectedFound hasil pencarian untuk grup terpilih, urut sesuai urutan pilih
func (f *DemoteFlow) SelectedFound() []FoundAdmins {
	var out []FoundAdmins
	for _, id := range f.Selected.IDs() {
		if fa, ok := f.FindFound(id); ok {
			out = append(out, fa)
		}
	}
	return out
}

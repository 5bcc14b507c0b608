package flow

import "whatsapp-bot/internal/groups"

// AddPromoteStep langkah workflow add & promote admin
type AddPromoteStep int

const (
	AddPromoteSelectGroups AddPromoteStep = iota
	AddPromoteWaitingSearchQuery
	AddPromoteWaitingAdminNumbers
	AddPromoteConfirm
	AddPromoteExecuting
)

var addPromoteNames = map[AddPromoteStep]string{
	AddPromoteSelectGroups:        "select_groups",
	AddPromoteWaitingSearchQuery:  "waiting_search_query",
	AddPromoteWaitingAdminNumbers: "waiting_admin_numbers",
	AddPromoteConfirm:             "confirm_add_promote",
	AddPromoteExecuting:           "executing",
}

var addPromoteGraph = map[AddPromoteStep][]AddPromoteStep{
	AddPromoteSelectGroups:        {AddPromoteWaitingSearchQuery, AddPromoteWaitingAdminNumbers},
	AddPromoteWaitingSearchQuery:  {AddPromoteSelectGroups},
	AddPromoteWaitingAdminNumbers: {AddPromoteConfirm},
	AddPromoteConfirm:             {AddPromoteExecuting},
}

func (s AddPromoteStep) String() string { return addPromoteNames[s] }

// AddPromoteFlow pilih grup, input nomor admin, konfirmasi, lalu add + promote
type AddPromoteFlow struct {
	machine[AddPromoteStep]
	Picker GroupPicker
	Admins []string
	// Duplicates jumlah nomor duplikat yang dibuang dari input
	Duplicates int
}

// NewAddPromote workflow baru dengan snapshot grup
func NewAddPromote(gs []groups.Group) *AddPromoteFlow {
	return &AddPromoteFlow{
		machine: machine[AddPromoteStep]{kind: KindAddPromote, step: AddPromoteSelectGroups, graph: addPromoteGraph, names: addPromoteNames},
		Picker:  NewGroupPicker(gs),
	}
}

func (f *AddPromoteFlow) Kind() Kind { return KindAddPromote }
func (f *AddPromoteFlow) Step() AddPromoteStep { return f.step }
func (f *AddPromoteFlow) StepName() string { return f.step.String() }
func (f *AddPromoteFlow) Executing() bool { return f.step == AddPromoteExecuting }
func (f *AddPromoteFlow) Advance(to AddPromoteStep) error { return f.advance(to) }

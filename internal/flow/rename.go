package flow

import (
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/internal/naming"
)

// RenameStep langkah workflow rename grup batch
type RenameStep int

const (
	RenameSelectBase RenameStep = iota
	RenameWaitingStartNumber
	RenameWaitingEndNumber
	RenameWaitingNewName
	RenameWaitingStartNumbering
	RenameConfirm
	RenameExecuting
)

var renameNames = map[RenameStep]string{
	RenameSelectBase:            "select_base",
	RenameWaitingStartNumber:    "waiting_start_number",
	RenameWaitingEndNumber:      "waiting_end_number",
	RenameWaitingNewName:        "waiting_new_name",
	RenameWaitingStartNumbering: "waiting_start_numbering",
	RenameConfirm:               "confirm_rename",
	RenameExecuting:             "executing",
}

var renameGraph = map[RenameStep][]RenameStep{
	RenameSelectBase:            {RenameWaitingStartNumber},
	RenameWaitingStartNumber:    {RenameWaitingEndNumber},
	RenameWaitingEndNumber:      {RenameWaitingNewName},
	RenameWaitingNewName:        {RenameWaitingStartNumbering},
	RenameWaitingStartNumbering: {RenameConfirm},
	RenameConfirm:               {RenameExecuting},
}

func (s RenameStep) String() string { return renameNames[s] }

// RenameFlow pilih nama dasar, range nomor, nama baru, nomor mulai, konfirmasi
type RenameFlow struct {
	machine[RenameStep]
	Clusters []naming.Cluster
	Cluster  naming.Cluster
	Start    int
	End      int
	NewName  string
	Offset   int
}

// NewRename workflow rename dari snapshot grup; hanya cluster >= 2 grup yang ditawarkan
func NewRename(gs []groups.Group) *RenameFlow {
	return &RenameFlow{
		machine:  machine[RenameStep]{kind: KindRename, step: RenameSelectBase, graph: renameGraph, names: renameNames},
		Clusters: naming.Eligible(gs),
	}
}

func (f *RenameFlow) Kind() Kind { return KindRename }
func (f *RenameFlow) Step() RenameStep { return f.step }
func (f *RenameFlow) StepName() string { return f.step.String() }
func (f *RenameFlow) Executing() bool { return f.step == RenameExecuting }
func (f *RenameFlow) Advance(to RenameStep) error { return f.advance(to) }

// SelectBase memilih cluster berdasarkan nama dasar
func (f *RenameFlow) SelectBase(base string) error {
	c, ok := naming.Find(f.Clusters, base)
	if !ok {
		return errNotCandidate(base)
	}
	if err := f.Advance(RenameWaitingStartNumber); err != nil {
		return err
	}
	f.Cluster = c
	return nil
}

// Plan rencana rename sesuai input yang terkumpul
func (f *RenameFlow) Plan() []naming.Rename {
	return naming.Plan(f.Cluster, f.Start, f.End, f.NewName, f.Offset)
}

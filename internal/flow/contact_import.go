package flow

import "whatsapp-bot/internal/groups"

// ContactImportStep langkah workflow tambah kontak ke grup
type ContactImportStep int

const (
	ContactChooseSource ContactImportStep = iota
	ContactWaitingNumbers
	ContactWaitingFile
	ContactConfirmNumbers
	ContactSelectGroups
	ContactWaitingSearchQuery
	ContactConfirm
	ContactExecuting
)

var contactNames = map[ContactImportStep]string{
	ContactChooseSource:       "choose_source",
	ContactWaitingNumbers:     "waiting_numbers",
	ContactWaitingFile:        "waiting_file",
	ContactConfirmNumbers:     "confirm_numbers",
	ContactSelectGroups:       "select_groups",
	ContactWaitingSearchQuery: "waiting_search_query",
	ContactConfirm:            "confirm_add",
	ContactExecuting:          "executing",
}

var contactGraph = map[ContactImportStep][]ContactImportStep{
	ContactChooseSource:       {ContactWaitingNumbers, ContactWaitingFile},
	ContactWaitingNumbers:     {ContactConfirmNumbers},
	ContactWaitingFile:        {ContactConfirmNumbers},
	ContactConfirmNumbers:     {ContactSelectGroups},
	ContactSelectGroups:       {ContactWaitingSearchQuery, ContactConfirm},
	ContactWaitingSearchQuery: {ContactSelectGroups},
	ContactConfirm:            {ContactExecuting},
}

func (s ContactImportStep) String() string { return contactNames[s] }

// ContactImportFlow nomor kontak (chat atau file .txt) ditambahkan ke grup terpilih
type ContactImportFlow struct {
	machine[ContactImportStep]
	Numbers    []string
	Duplicates int
	FromFile   bool
	Picker     GroupPicker
}

// NewContactImport workflow tambah kontak baru
func NewContactImport() *ContactImportFlow {
	return &ContactImportFlow{
		machine: machine[ContactImportStep]{kind: KindContactImport, step: ContactChooseSource, graph: contactGraph, names: contactNames},
	}
}

func (f *ContactImportFlow) Kind() Kind { return KindContactImport }
func (f *ContactImportFlow) Step() ContactImportStep { return f.step }
func (f *ContactImportFlow) StepName() string { return f.step.String() }
func (f *ContactImportFlow) Executing() bool { return f.step == ContactExecuting }
func (f *ContactImportFlow) Advance(to ContactImportStep) error { return f.advance(to) }

// LoadGroups mengisi kandidat grup lalu masuk ke langkah pilih grup
func (f *ContactImportFlow) LoadGroups(gs []groups.Group) error {
	if err := f.Advance(ContactSelectGroups); err != nil {
		return err
	}
	f.Picker = NewGroupPicker(gs)
	return nil
}

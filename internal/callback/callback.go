// Package callback mendefinisikan data tombol inline keyboard dan parsernya.
package callback

import (
	"strconv"
	"strings"
)

// Token tetap
const (
	ConfirmAddPromote     = "confirm_add_promote"
	ConfirmDemote         = "confirm_demote"
	CancelAdminFlow       = "cancel_admin_flow"
	SearchGroups          = "search_groups"
	FinishGroupSelection  = "finish_group_selection"
	StartSearchAdmin      = "start_search_admin"
	FinishDemoteSelection = "finish_demote_selection"
	RenameGroups          = "rename_groups"
	ConfirmRename         = "confirm_rename"
	CancelRename          = "cancel_rename"

	MainMenu        = "main_menu"
	AdminManagement = "admin_management"
	AddPromoteAdmin = "add_promote_admin"
	DemoteAdmin     = "demote_admin"
	Status          = "status"
	ActivityLog     = "activity_log"
	LogoutConfirm   = "logout_confirm"
	LogoutCancel    = "logout_cancel"
	Noop            = "noop"

	AddContact             = "add_ctc"
	AddContactChat         = "add_ctc_chat"
	AddContactFile         = "add_ctc_file"
	ConfirmContactNumbers  = "confirm_ctc_numbers"
	SearchContactGroups    = "search_ctc_groups"
	FinishContactSelection = "finish_ctc_group_selection"
	ConfirmAddContact      = "confirm_add_ctc"
	CancelContactFlow      = "cancel_ctc_flow"
)

// Prefix token berparameter
const (
	ToggleGroupPrefix        = "toggle_group_"
	GroupsPagePrefix         = "groups_page_"
	ToggleDemotePrefix       = "toggle_demote_"
	DemotePagePrefix         = "demote_page_"
	SelectBasePrefix         = "select_base_"
	SelectBaseIndexPrefix    = "select_idx_"
	ToggleContactGroupPrefix = "toggle_ctc_group_"
	ContactGroupsPagePrefix  = "ctc_groups_page_"
)

// MaxDataLength batas callback_data Telegram (byte)
const MaxDataLength = 64

var fixed = map[string]bool{
	ConfirmAddPromote: true, ConfirmDemote: true, CancelAdminFlow: true, SearchGroups: true,
	FinishGroupSelection: true, StartSearchAdmin: true, FinishDemoteSelection: true,
	RenameGroups: true, ConfirmRename: true, CancelRename: true,
	MainMenu: true, AdminManagement: true, AddPromoteAdmin: true, DemoteAdmin: true, Status: true, Noop: true,
	ActivityLog: true, LogoutConfirm: true, LogoutCancel: true,
	AddContact: true, AddContactChat: true, AddContactFile: true, ConfirmContactNumbers: true,
	SearchContactGroups: true, FinishContactSelection: true, ConfirmAddContact: true, CancelContactFlow: true,
}

// urutan penting: prefix yang lebih panjang dulu
var prefixes = []string{
	ToggleContactGroupPrefix,
	ContactGroupsPagePrefix,
	ToggleDemotePrefix,
	DemotePagePrefix,
	ToggleGroupPrefix,
	GroupsPagePrefix,
	SelectBasePrefix,
	SelectBaseIndexPrefix,
}

// argumen berupa angka, disimpan di Data.Page
var numericPrefixes = map[string]bool{
	GroupsPagePrefix:        true,
	DemotePagePrefix:        true,
	ContactGroupsPagePrefix: true,
	SelectBaseIndexPrefix:   true,
}

// Data hasil parse callback_data. Untuk token tetap Action adalah token itu
// sendiri; untuk token berparameter Action adalah prefix-nya.
type Data struct {
	Action string
	Arg    string
	Page   int
}

// Parse mengurai callback_data. ok=false untuk token tak dikenal, argumen
// kosong, atau nomor halaman yang bukan angka >= 0.
func Parse(data string) (Data, bool) {
	if fixed[data] {
		return Data{Action: data}, true
	}
	for _, p := range prefixes {
		if !strings.HasPrefix(data, p) {
			continue
		}
		arg := strings.TrimPrefix(data, p)
		if arg == "" {
			return Data{}, false
		}
		d := Data{Action: p, Arg: arg}
		if numericPrefixes[p] {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				return Data{}, false
			}
			d.Page = n
		}
		return d, true
	}
	return Data{}, false
}

// Page membuat token halaman
func Page(prefix string, page int) string {
	return prefix + strconv.Itoa(page)
}

// SelectBase token pilih nama dasar. Nama yang terlalu panjang untuk
// callback_data diganti token indeks SelectBaseIndexPrefix.
func SelectBase(base string, index int) string {
	data := SelectBasePrefix + base
	if len(data) > MaxDataLength {
		return SelectBaseIndexPrefix + strconv.Itoa(index)
	}
	return data
}

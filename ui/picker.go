package ui

import (
	"fmt"
	"strings"

	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/paging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PickerTokens data tombol untuk satu jenis picker grup
type PickerTokens struct {
	TogglePrefix string
	PagePrefix   string
	Search       string
	Finish       string
	Cancel       string
}

// AdminPickerTokens picker grup workflow add/promote
var AdminPickerTokens = PickerTokens{
	TogglePrefix: callback.ToggleGroupPrefix,
	PagePrefix:   callback.GroupsPagePrefix,
	Search:       callback.SearchGroups,
	Finish:       callback.FinishGroupSelection,
	Cancel:       callback.CancelAdminFlow,
}

// ContactPickerTokens picker grup workflow tambah kontak
var ContactPickerTokens = PickerTokens{
	TogglePrefix: callback.ToggleContactGroupPrefix,
	PagePrefix:   callback.ContactGroupsPagePrefix,
	Search:       callback.SearchContactGroups,
	Finish:       callback.FinishContactSelection,
	Cancel:       callback.CancelContactFlow,
}

// halaman di luar jangkauan menghasilkan daftar kosong
const msgEmptyPage = "📭 Tidak ada grup di halaman ini. Gunakan tombol navigasi untuk kembali."

// GroupPicker teks dan keyboard daftar grup multi-select
func GroupPicker(title string, p *flow.GroupPicker, pageSize int, tokens PickerTokens) (string, tgbotapi.InlineKeyboardMarkup) {
	filtered := p.Filtered()
	items, w := paging.PageItems(filtered, p.Page, pageSize)

	var b strings.Builder
	fmt.Fprintf(&b, "📋 *%s*\n\n", title)
	if p.Query != "" {
		fmt.Fprintf(&b, "🔍 Pencarian: %s\n", Escape(p.Query))
	}
	fmt.Fprintf(&b, "📄 Halaman %d dari %d\n", w.Page+1, w.TotalPages)
	fmt.Fprintf(&b, "✅ Terpilih: %d grup\n\n", p.Selected.Len())
	switch {
	case len(filtered) == 0:
		b.WriteString("❌ Tidak ada grup yang cocok dengan pencarian.")
	case len(items) == 0:
		b.WriteString(msgEmptyPage)
	default:
		b.WriteString("Klik grup untuk memilih/membatalkan:")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range items {
		check := "⭕"
		if p.Selected.Contains(g.ID) {
			check = "✅"
		}
		role := "👤"
		if g.IsAdmin {
			role = "👑"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s %s", check, role, g.Name), tokens.TogglePrefix+g.ID),
		))
	}
	if nav := navRow(w, tokens.PagePrefix); len(nav) > 0 {
		rows = append(rows, nav)
	}

	actions := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔍 Cari Grup", tokens.Search),
	)
	if p.Selected.Len() > 0 {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("✅ Selesai", tokens.Finish))
	}
	rows = append(rows, actions, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Batal", tokens.Cancel),
	))

	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// DemotePicker daftar grup tempat admin ditemukan
func DemotePicker(f *flow.DemoteFlow, pageSize int) (string, tgbotapi.InlineKeyboardMarkup) {
	items, w := paging.PageItems(f.Found, f.Page, pageSize)

	var b strings.Builder
	b.WriteString("📋 *Admin Ditemukan - Pilih Grup untuk Demote*\n\n")
	fmt.Fprintf(&b, "🔍 Ditemukan di %d grup\n", len(f.Found))
	fmt.Fprintf(&b, "📄 Halaman %d dari %d\n", w.Page+1, w.TotalPages)
	fmt.Fprintf(&b, "✅ Terpilih: %d grup\n\n", f.Selected.Len())
	if len(items) == 0 {
		b.WriteString(msgEmptyPage)
	} else {
		b.WriteString("Klik grup untuk memilih/membatalkan:")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, fa := range items {
		check := "⭕"
		if f.Selected.Contains(fa.Group.ID) {
			check = "✅"
		}
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s", check, fa.Group.Name), callback.ToggleDemotePrefix+fa.Group.ID),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("👥 Admin: "+strings.Join(fa.Numbers, ", "), callback.Noop),
			),
		)
	}
	if nav := navRow(w, callback.DemotePagePrefix); len(nav) > 0 {
		rows = append(rows, nav)
	}
	if f.Selected.Len() > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Mulai Demote Admin", callback.FinishDemoteSelection),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("❌ Batal", callback.CancelAdminFlow),
	))

	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func navRow(w paging.Window, prefix string) []tgbotapi.InlineKeyboardButton {
	var row []tgbotapi.InlineKeyboardButton
	if w.HasPrev {
		prev := min(w.Page-1, w.TotalPages-1)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("◀️ Prev", callback.Page(prefix, prev)))
	}
	if w.HasNext {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", callback.Page(prefix, w.Page+1)))
	}
	return row
}

package ui

import (
	"fmt"
	"sort"
	"strings"

	"whatsapp-bot/internal/callback"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Dashboard data yang ditampilkan di menu utama dan layar status
type Dashboard struct {
	Connected bool
	Number    string
	Stats     *utils.ActivityStats
}

// Escape nama grup/nomor agar aman untuk ParseMode Markdown
func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func (d Dashboard) statusLines() string {
	statusIcon, status, number := "🔴", "❌ Belum Terhubung", "-"
	if d.Connected {
		statusIcon, status = "🟢", "✅ Terhubung"
		if d.Number != "" {
			number = "+" + d.Number
		}
	}

	total, success, failed := 0, 0, 0
	if d.Stats != nil {
		total, success, failed = d.Stats.Total, d.Stats.Success, d.Stats.Failed
	}

	return fmt.Sprintf(`%s *WhatsApp:* %s
%s *Nomor:* %s
🟢 *Telegram Bot:* Aktif

📈 *Aktivitas (7 Hari)*
📋 Total: %d aktivitas
✅ Berhasil: %d
❌ Gagal: %d`, statusIcon, status, statusIcon, Escape(number), total, success, failed)
}

// MainMenu dashboard utama
func MainMenu(d Dashboard) (string, tgbotapi.InlineKeyboardMarkup) {
	text := fmt.Sprintf("🎯 *DASHBOARD UTAMA*\n%s\n\n%s\n\n%s\n👇 Pilih menu di bawah:", separator, d.statusLines(), separator)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Admin Management", callback.AdminManagement),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Rename Groups", callback.RenameGroups),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📇 Add Contact", callback.AddContact),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Status", callback.Status),
		),
	)
	return text, keyboard
}

// AdminMenu submenu admin management
func AdminMenu() (string, tgbotapi.InlineKeyboardMarkup) {
	text := "👥 *Admin Management*\n\nPilih aksi:\n\n" +
		"➕ *Add & Promote Admin*\nTambahkan nomor ke grup lalu jadikan admin\n\n" +
		"➖ *Demote Admin*\nCari nomor admin di semua grup lalu turunkan"

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add & Promote Admin", callback.AddPromoteAdmin),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Demote Admin", callback.DemoteAdmin),
		),
		BackRow(),
	)
	return text, keyboard
}

// StatusScreen layar /status
func StatusScreen(d Dashboard) (string, tgbotapi.InlineKeyboardMarkup) {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *STATUS BOT*\n%s\n\n%s\n", separator, d.statusLines())

	if d.Stats != nil && len(d.Stats.TopActions) > 0 {
		b.WriteString("\n*Aksi terbanyak:*\n")
		actions := make([]string, 0, len(d.Stats.TopActions))
		for action := range d.Stats.TopActions {
			actions = append(actions, action)
		}
		sort.Slice(actions, func(i, j int) bool {
			ci, cj := d.Stats.TopActions[actions[i]], d.Stats.TopActions[actions[j]]
			if ci != cj {
				return ci > cj
			}
			return actions[i] < actions[j]
		})
		for _, action := range actions {
			fmt.Fprintf(&b, "• %s: %d\n", ActionName(action), d.Stats.TopActions[action])
		}
	}
	b.WriteString("\n" + separator)

	return b.String(), tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📜 Activity Log", callback.ActivityLog),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", callback.Status),
		),
		BackRow(),
	)
}

// BackRow tombol kembali ke menu utama
func BackRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🏠 Menu Utama", callback.MainMenu),
	)
}

// AdminDoneKeyboard tombol setelah batch admin selesai
func AdminDoneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Admin Management", callback.AdminManagement),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Menu Utama", callback.MainMenu),
		),
	)
}

// RenameDoneKeyboard tombol setelah rename selesai
func RenameDoneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Rename Lagi", callback.RenameGroups),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Menu Utama", callback.MainMenu),
		),
	)
}

// ContactDoneKeyboard tombol setelah import kontak selesai
func ContactDoneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📇 Tambah Kontak Lagi", callback.AddContact),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Menu Utama", callback.MainMenu),
		),
	)
}

// ConfirmKeyboard tombol lanjut + batal
func ConfirmKeyboard(confirmText, confirmData, cancelData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(confirmText, confirmData),
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", cancelData),
		),
	)
}

// CancelKeyboard satu tombol batal
func CancelKeyboard(cancelData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", cancelData),
		),
	)
}

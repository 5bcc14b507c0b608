package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"whatsapp-bot/internal/callback"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var actionNames = map[string]string{
	utils.ActionAddPromote:    "Add/Promote Admin",
	utils.ActionDemote:        "Demote Admin",
	utils.ActionRename:        "Rename Grup",
	utils.ActionContactImport: "Tambah Kontak",
	utils.ActionOperationFail: "Operasi Gagal",
	utils.ActionPairing:       "Pairing Device",
	utils.ActionLogout:        "Logout",
}

// ActionName nama aksi activity log untuk ditampilkan
func ActionName(action string) string {
	if name, ok := actionNames[action]; ok {
		return name
	}
	return Escape(action)
}

// ActivityLog daftar aktivitas terakhir
func ActivityLog(logs []utils.ActivityLog) (string, tgbotapi.InlineKeyboardMarkup) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", callback.ActivityLog),
			tgbotapi.NewInlineKeyboardButtonData("📊 Status", callback.Status),
		),
		BackRow(),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "📜 *ACTIVITY LOG*\n%s\n\n", separator)
	if len(logs) == 0 {
		b.WriteString("📭 Belum ada aktivitas yang tercatat.\n\n" + separator)
		return b.String(), keyboard
	}

	fmt.Fprintf(&b, "📊 *Menampilkan %d aktivitas terakhir*\n\n", len(logs))
	for _, entry := range logs {
		icon := "✅"
		if !entry.Success {
			icon = "❌"
		}
		fmt.Fprintf(&b, "%s *%s*\n", icon, ActionName(entry.Action))
		if entry.Description != "" {
			fmt.Fprintf(&b, "   %s\n", Escape(truncate(entry.Description, 50)))
		}
		fmt.Fprintf(&b, "   🕐 %s\n\n", entry.CreatedAt.Format("02/01 15:04"))
	}
	b.WriteString(separator)
	return b.String(), keyboard
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

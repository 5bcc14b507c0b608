package handlers

import (
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"
)

// activityLogLimit jumlah aktivitas yang ditampilkan
const activityLogLimit = 20

// showActivityLog aktivitas terakhir milik chat ini
func (b *Bot) showActivityLog(ev event) error {
	logs, err := utils.GetActivityLogs(ev.chatID, activityLogLimit)
	if err != nil {
		return utils.WrapError(err, utils.KindUnexpected, "gagal memuat activity log")
	}
	text, keyboard := ui.ActivityLog(logs)
	b.render(ev, text, &keyboard)
	return nil
}

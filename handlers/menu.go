package handlers

import (
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"
)

// AccountInfo diimplementasikan service yang tahu nomor akun WhatsApp aktif
type AccountInfo interface {
	AccountNumber(owner int64) string
}

func (b *Bot) dashboard(ev event) ui.Dashboard {
	d := ui.Dashboard{Connected: b.groups != nil && b.groups.IsConnected(ev.userID)}
	if info, ok := b.groups.(AccountInfo); ok && d.Connected {
		d.Number = info.AccountNumber(ev.userID)
	}
	stats, err := utils.GetActivityStats(ev.chatID, 7)
	if err != nil {
		utils.GetLogger().Debug("Statistik aktivitas tidak tersedia: %v", err)
	}
	d.Stats = stats
	return d
}

func (b *Bot) showMainMenu(ev event) error {
	d := b.dashboard(ev)
	if !d.Connected {
		b.render(ev, ui.LoginPrompt(), nil)
		return nil
	}
	text, keyboard := ui.MainMenu(d)
	id := b.render(ev, text, &keyboard)

	u := b.flows.Lock(ev.userID)
	u.Session().MenuMessageID = id
	u.Unlock()
	return nil
}

func (b *Bot) showAdminMenu(ev event) error {
	text, keyboard := ui.AdminMenu()
	b.render(ev, text, &keyboard)
	return nil
}

func (b *Bot) showStatus(ev event) error {
	text, keyboard := ui.StatusScreen(b.dashboard(ev))
	b.render(ev, text, &keyboard)
	return nil
}

func (b *Bot) showHelp(ev event) error {
	b.send(ev.chatID, ui.HelpText(), nil)
	return nil
}

// cancelCommand /cancel: hapus workflow yang belum dieksekusi
func (b *Bot) cancelCommand(ev event) error {
	u := b.flows.Lock(ev.userID)
	defer u.Unlock()

	f := u.Flow()
	switch {
	case f == nil:
		b.send(ev.chatID, "ℹ️ Tidak ada proses yang aktif.", nil)
	case f.Executing():
		b.send(ev.chatID, msgBatchNotStopped, nil)
	default:
		u.ClearFlow()
		b.send(ev.chatID, "✅ Proses dibatalkan.", nil)
	}
	return nil
}

// cancelFlow menghapus workflow jenis tertentu yang belum dieksekusi.
// false jika tidak ada workflow yang cocok (event diabaikan).
func (b *Bot) cancelFlow(ev event, kinds ...flow.Kind) bool {
	u := b.flows.Lock(ev.userID)
	defer u.Unlock()

	f := u.Flow()
	if f == nil || f.Executing() {
		return false
	}
	for _, k := range kinds {
		if f.Kind() == k {
			u.ClearFlow()
			return true
		}
	}
	return false
}

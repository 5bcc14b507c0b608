package handlers

import (
	"context"
	"fmt"

	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"
)

// Logouter diimplementasikan service yang bisa logout akun WhatsApp
type Logouter interface {
	Logout(ctx context.Context, owner int64) error
}

// logoutCommand /logout: minta konfirmasi dulu
func (b *Bot) logoutCommand(ev event) error {
	if _, ok := b.groups.(Logouter); !ok || !b.groups.IsConnected(ev.userID) {
		return groups.ErrNotConnected
	}
	number := ""
	if info, ok := b.groups.(AccountInfo); ok {
		number = info.AccountNumber(ev.userID)
	}

	text := fmt.Sprintf("⚠️ *KONFIRMASI LOGOUT*\n\n"+
		"Anda akan logout dari WhatsApp.\n\n"+
		"*Nomor:* %s\n\n"+
		"⚠️ Batch yang sedang berjalan akan gagal dan Anda perlu pairing ulang untuk login kembali.", number)
	keyboard := ui.ConfirmKeyboard("✅ Ya, Logout", callback.LogoutConfirm, callback.LogoutCancel)
	b.send(ev.chatID, text, &keyboard)
	return nil
}

func (b *Bot) confirmLogout(ev event) error {
	lo, ok := b.groups.(Logouter)
	if !ok {
		return groups.ErrNotConnected
	}
	number := ""
	if info, ok := b.groups.(AccountInfo); ok {
		number = info.AccountNumber(ev.userID)
	}

	b.render(ev, "🔄 Memproses logout...", nil)
	if err := lo.Logout(b.ctx, ev.userID); err != nil {
		return err
	}
	b.flows.Clear(ev.userID)
	if err := utils.LogActivity(utils.ActionLogout, "Logout "+number, ev.chatID); err != nil {
		utils.GetLogger().Debug("Gagal mencatat logout: %v", err)
	}
	utils.GetLogger().Info("Logout WhatsApp oleh user %d (%s)", ev.userID, number)

	b.render(ev, fmt.Sprintf("✅ *LOGOUT BERHASIL!*\n\nNomor: %s\n\nGunakan `/pair <nomor>` untuk login kembali.", number), nil)
	return nil
}

func (b *Bot) cancelLogout(ev event) error {
	b.render(ev, "✅ Logout dibatalkan.", nil)
	return nil
}

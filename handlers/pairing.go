package handlers

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"whatsapp-bot/internal/whatsapp"
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"

	"go.mau.fi/whatsmeow"
)

// pairProgressInterval jeda update pesan progress pairing
const pairProgressInterval = 10 * time.Second

// Pairer menghubungkan akun WhatsApp lewat kode pairing
type Pairer interface {
	RequestCode(ctx context.Context, number string) (string, error)
	// WaitPaired menunggu user memasukkan kode; tick dipanggil berkala
	WaitPaired(ctx context.Context, tick func(elapsed time.Duration)) bool
}

// WhatsAppPairer Pairer di atas client whatsmeow aktif
type WhatsAppPairer struct {
	Client func() *whatsmeow.Client
}

func (p *WhatsAppPairer) RequestCode(ctx context.Context, number string) (string, error) {
	return whatsapp.RequestPairingCode(ctx, p.Client(), number)
}

func (p *WhatsAppPairer) WaitPaired(ctx context.Context, tick func(elapsed time.Duration)) bool {
	client := p.Client()
	if client == nil {
		return false
	}
	return whatsapp.WaitPaired(ctx, client, pairProgressInterval, tick)
}

// startPairing /pair <nomor>: minta kode pairing lalu tunggu di background
func (b *Bot) startPairing(ev event, args string) error {
	if b.groups != nil && b.groups.IsConnected(ev.userID) {
		b.send(ev.chatID, "✅ WhatsApp sudah terhubung.", nil)
		return nil
	}
	if b.pairer == nil {
		return fmt.Errorf("pairing tidak tersedia")
	}
	if args == "" {
		return utils.NewValidationError("Nomor belum diisi!", "Format: `/pair 628123456789`")
	}
	number, err := whatsapp.NormalizePairNumber(args)
	if err != nil {
		return utils.NewValidationError("Nomor tidak valid!", "Format: `/pair 628123456789` (10-15 digit, dengan kode negara)")
	}
	if !b.pairing.CompareAndSwap(false, true) {
		b.send(ev.chatID, "⏳ Pairing sedang berjalan. Tunggu sampai selesai ya.", nil)
		return nil
	}

	msgID := b.send(ev.chatID, "🔄 *Mempersiapkan pairing...*\n\nMemastikan koneksi ke server WhatsApp...", nil)

	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		defer b.pairing.Store(false)
		defer func() {
			if r := recover(); r != nil {
				utils.GetLogger().Error("Panic saat pairing: %v\n%s", r, debug.Stack())
				b.send(ev.chatID, msgGenericError, nil)
			}
		}()
		b.runPairing(ev, number, msgID)
	}()
	return nil
}

func (b *Bot) runPairing(ev event, number string, msgID int) {
	update := func(text string) {
		if msgID == 0 || b.msg.Edit(ev.chatID, msgID, text, nil) != nil {
			msgID = b.send(ev.chatID, text, nil)
		}
	}

	utils.GetLogger().Info("Pairing dimulai: TelegramID=%d, Phone=%s", ev.userID, number)
	code, err := b.pairer.RequestCode(b.ctx, number)
	if err != nil {
		utils.GetLogger().Error("Pairing gagal untuk %s: %v", number, err)
		update(fmt.Sprintf("❌ *Gagal generate pairing code*\n\n%s\n\nSilakan coba lagi dalam beberapa saat.", ui.Escape(err.Error())))
		return
	}
	update(ui.PairingInstructions(code, number))

	progressID := b.send(ev.chatID, ui.PairingProgress(0, whatsapp.PairTimeout), nil)
	paired := b.pairer.WaitPaired(b.ctx, func(elapsed time.Duration) {
		if progressID != 0 {
			_ = b.msg.Edit(ev.chatID, progressID, ui.PairingProgress(elapsed, whatsapp.PairTimeout), nil)
		}
	})
	if progressID != 0 {
		_ = b.msg.Delete(ev.chatID, progressID)
	}

	if !paired {
		utils.GetLogger().Warn("Pairing timeout untuk %s", number)
		b.send(ev.chatID, ui.PairingTimeout(number), nil)
		return
	}
	utils.GetLogger().Info("Pairing berhasil: TelegramID=%d, Phone=%s", ev.userID, number)
	b.send(ev.chatID, ui.PairingSuccess(), nil)
	if err := utils.LogActivity(utils.ActionPairing, "Pairing "+number, ev.chatID); err != nil {
		utils.GetLogger().Debug("Gagal mencatat pairing: %v", err)
	}
	if err := b.showMainMenu(event{userID: ev.userID, chatID: ev.chatID}); err != nil {
		b.report(ev, err)
	}
}

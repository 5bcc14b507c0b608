package core

import (
	"context"
	"time"

	"whatsapp-bot/handlers"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.mau.fi/whatsmeow"
)

// ShutdownManager mengelola proses shutdown aplikasi
type ShutdownManager struct {
	waClient    *whatsmeow.Client
	telegramBot *tgbotapi.BotAPI
	bot         *handlers.Bot
	logger      *utils.AppLogger
}

// NewShutdownManager membuat ShutdownManager baru
func NewShutdownManager(waClient *whatsmeow.Client, telegramBot *tgbotapi.BotAPI, bot *handlers.Bot) *ShutdownManager {
	return &ShutdownManager{
		waClient:    waClient,
		telegramBot: telegramBot,
		bot:         bot,
		logger:      utils.GetLogger(),
	}
}

// Shutdown melakukan graceful shutdown aplikasi. Batch yang masih berjalan
// dibatalkan dan ditunggu sampai ctx habis.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	sm.logger.Phase("Initiating graceful shutdown...")

	if sm.telegramBot != nil {
		sm.logger.Info("Stopping Telegram bot updates...")
		sm.telegramBot.StopReceivingUpdates()
		sm.logger.Success("Telegram bot stopped")
	}

	if sm.bot != nil {
		sm.bot.Notify("👋 Menutup bot...")
		wait := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			wait = time.Until(deadline) / 2
		}
		if !sm.bot.Stop(wait) {
			sm.logger.Warn("Masih ada batch yang belum selesai setelah %v", wait)
		}
	}

	if sm.waClient != nil {
		sm.logger.Info("Disconnecting WhatsApp client...")
		sm.waClient.Disconnect()
		sm.logger.Success("WhatsApp client disconnected")
	}

	if err := utils.CloseBotDB(); err != nil {
		sm.logger.Warn("Gagal menutup bot database: %v", err)
	}

	sm.logger.Success("Shutdown completed")
	return ctx.Err()
}

// ShutdownWithTimeout melakukan shutdown dengan timeout
func (sm *ShutdownManager) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return sm.Shutdown(ctx)
}

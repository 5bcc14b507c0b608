package core

import (
	"sync"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"

	"whatsapp-bot/handlers"
	"whatsapp-bot/utils"
)

var (
	globalClient      *whatsmeow.Client
	globalBot         *handlers.Bot
	globalClientMutex sync.RWMutex
)

// SetGlobalClients mengatur client WhatsApp dan dispatcher yang dipakai event handler
func SetGlobalClients(client *whatsmeow.Client, bot *handlers.Bot) {
	globalClientMutex.Lock()
	defer globalClientMutex.Unlock()
	globalClient = client
	globalBot = bot
}

// GetGlobalClient client WhatsApp aktif (bisa nil)
func GetGlobalClient() *whatsmeow.Client {
	globalClientMutex.RLock()
	defer globalClientMutex.RUnlock()
	return globalClient
}

func notify(text string) {
	globalClientMutex.RLock()
	bot := globalBot
	globalClientMutex.RUnlock()
	if bot != nil {
		bot.Notify(text)
	}
}

// EventHandler adalah event handler untuk WhatsApp events
func EventHandler(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		utils.GetLogger().Debug("WhatsApp client connected")
	case *events.Disconnected:
		utils.GetLogger().Warn("WhatsApp client disconnected")
		notify("❌ Terputus dari WhatsApp! Bot akan mencoba reconnect otomatis.")
	case *events.LoggedOut:
		utils.GetLogger().Warn("WhatsApp client logged out: %v", v.Reason)
		notify("🚪 WhatsApp logout!\n\nKirim `/pair 628xxxxxxxxxx` untuk login ulang.")
	case *events.PairSuccess:
		utils.GetLogger().Info("Pairing berhasil: %s (%s)", v.ID.String(), v.Platform)
	}
}

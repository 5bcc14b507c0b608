package core

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"whatsapp-bot/handlers"
	"whatsapp-bot/internal/whatsapp"
	"whatsapp-bot/utils"
)

// StartupManager mengelola proses startup aplikasi
type StartupManager struct {
	configPath   string
	config       *utils.TelegramConfig
	logger       *utils.AppLogger
	telegramBot  *tgbotapi.BotAPI
	waClient     *whatsmeow.Client
	bot          *handlers.Bot
	eventHandler func(interface{})
}

// NewStartupManager membuat StartupManager baru. configPath kosong berarti
// config/config.json (fallback akses.json).
func NewStartupManager(configPath string) *StartupManager {
	return &StartupManager{
		configPath: configPath,
		logger:     utils.GetLogger(),
	}
}

// SetEventHandler mengatur event handler untuk WhatsApp
func (sm *StartupManager) SetEventHandler(handler func(interface{})) {
	sm.eventHandler = handler
}

// Initialize melakukan inisialisasi awal aplikasi
func (sm *StartupManager) Initialize() error {
	sm.logger.Phase("Initializing Application...")

	if err := sm.loadConfiguration(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := sm.initializeTelegram(); err != nil {
		return fmt.Errorf("failed to initialize Telegram: %w", err)
	}
	if err := sm.initializeDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := sm.initializeWhatsApp(); err != nil {
		return fmt.Errorf("failed to initialize WhatsApp: %w", err)
	}
	if err := sm.finalizeSetup(); err != nil {
		return fmt.Errorf("failed to finalize setup: %w", err)
	}

	sm.logger.Success("Application initialized successfully")
	return nil
}

func (sm *StartupManager) loadConfiguration() error {
	sm.logger.Phase("Loading configuration...")

	config, err := utils.LoadTelegramConfigFrom(sm.configPath)
	if err != nil {
		return err
	}
	sm.config = config

	s := config.Settings
	sm.logger.Info("Settings: page_size=%d, max_attempts=%d, retry=%ds, delay=%ds, cooldown=%ds",
		s.PageSize, s.MaxAttempts, s.RetryDelaySeconds, s.OperationDelaySeconds, s.RateLimitCooldownSeconds)
	sm.logger.Success("Configuration loaded (%d admin, %d allowed user)", len(config.AdminIDs), len(config.AllowedUserIDs))
	return nil
}

func (sm *StartupManager) initializeTelegram() error {
	sm.logger.Phase("Initializing Telegram bot...")

	telegramBot, err := tgbotapi.NewBotAPI(sm.config.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	sm.telegramBot = telegramBot

	sm.logger.Success("Telegram bot initialized: @%s", telegramBot.Self.UserName)
	return nil
}

// initializeDatabase membuka bot_data.db untuk activity log. Gagal di sini tidak
// menghentikan bot, hanya log aktivitas yang tidak tercatat.
func (sm *StartupManager) initializeDatabase() error {
	sm.logger.Phase("Initializing database...")

	if _, err := utils.OpenBotDB(sm.config.Settings.BotDataDBPath); err != nil {
		sm.logger.Warn("Failed to setup bot database: %v", err)
		return nil
	}

	sm.logger.Success("Database initialized")
	return nil
}

func (sm *StartupManager) initializeWhatsApp() error {
	sm.logger.Phase("Initializing WhatsApp client...")

	dbLog := waLog.Stdout("Database", "ERROR", true)
	dbConnectionString := fmt.Sprintf("file:%s?_foreign_keys=on&mode=rwc&_journal_mode=DELETE&cache=shared&_busy_timeout=10000&_sync=1&_locking_mode=EXCLUSIVE",
		sm.config.Settings.WhatsAppDBPath)

	container, err := sqlstore.New(context.Background(), "sqlite3", dbConnectionString, dbLog)
	if err != nil {
		return fmt.Errorf("failed to create SQL store: %w", err)
	}
	deviceStore, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get device store: %w", err)
	}

	baseLog := waLog.Stdout("Client", "ERROR", true)
	clientLog := &utils.FilteredLogger{Logger: baseLog}
	waClient := whatsmeow.NewClient(deviceStore, clientLog)
	sm.waClient = waClient

	if sm.eventHandler != nil {
		waClient.AddEventHandler(sm.eventHandler)
	}

	if waClient.Store.ID == nil {
		sm.logger.Info("WhatsApp belum login, gunakan /pair <nomor> dari Telegram")
		return nil
	}

	sm.logger.Info("Connecting to WhatsApp as %s...", waClient.Store.ID.User)
	if err := waClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if err := sm.waitForConnection(); err != nil {
		return fmt.Errorf("connection timeout: %w", err)
	}

	sm.logger.Success("WhatsApp client connected")
	return nil
}

// waitForConnection menunggu koneksi WhatsApp established
func (sm *StartupManager) waitForConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := whatsapp.WaitConnected(ctx, sm.waClient, 15*time.Second); err != nil {
		return err
	}
	// whatsmeow menyarankan jeda sebentar setelah Connect
	time.Sleep(1 * time.Second)
	return nil
}

// finalizeSetup merakit dispatcher Telegram dan mendaftarkan client global
func (sm *StartupManager) finalizeSetup() error {
	sm.logger.Phase("Finalizing setup...")

	clients := func(int64) *whatsmeow.Client { return GetGlobalClient() }
	sm.bot = handlers.NewBot(handlers.Options{
		Config:    sm.config,
		Messenger: handlers.NewTelegramMessenger(sm.telegramBot),
		Groups:    whatsapp.NewService(clients, sm.config.Settings.APITimeout()),
		Pairer:    &handlers.WhatsAppPairer{Client: GetGlobalClient},
	})
	SetGlobalClients(sm.waClient, sm.bot)

	status := "❌ WhatsApp belum login. Kirim `/pair 628xxxxxxxxxx` untuk login."
	if sm.waClient != nil && sm.waClient.IsConnected() {
		status = "✅ WhatsApp terhubung."
	}
	sm.bot.Notify("🤖 *Bot aktif!*\n\n" + status + "\n\nGunakan /menu untuk membuka menu utama.")

	sm.logger.Success("Setup finalized")
	return nil
}

// Start mulai menerima update Telegram di background
func (sm *StartupManager) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := sm.telegramBot.GetUpdatesChan(u)

	go sm.bot.Run(updates)
	sm.logger.Success("Telegram bot handler active")
}

// GetConfig config yang sudah dimuat
func (sm *StartupManager) GetConfig() *utils.TelegramConfig {
	return sm.config
}

// GetTelegramBot Telegram bot API
func (sm *StartupManager) GetTelegramBot() *tgbotapi.BotAPI {
	return sm.telegramBot
}

// GetWhatsAppClient client WhatsApp
func (sm *StartupManager) GetWhatsAppClient() *whatsmeow.Client {
	return sm.waClient
}

// GetBot dispatcher Telegram
func (sm *StartupManager) GetBot() *handlers.Bot {
	return sm.bot
}

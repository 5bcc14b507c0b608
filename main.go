package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"whatsapp-bot/core"
	"whatsapp-bot/utils"

	"github.com/spf13/cobra"
)

// Version info, bisa di-set lewat ldflags:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:           "whatsapp-bot",
	Short:         "Bot Telegram untuk admin grup WhatsApp secara massal",
	Long:          "Bot Telegram untuk add/promote admin, demote admin, rename grup, dan tambah kontak ke banyak grup WhatsApp sekaligus.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Tampilkan versi",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("whatsapp-bot %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validasi file config tanpa menjalankan bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := utils.LoadTelegramConfigFrom(configPath)
		if err != nil {
			return err
		}
		s := config.Settings
		fmt.Printf("✅ Config valid\n")
		fmt.Printf("Admin: %v\nAllowed: %v\n", config.AdminIDs, config.AllowedUserIDs)
		fmt.Printf("page_size=%d max_attempts=%d retry=%ds delay=%ds cooldown=%ds\n",
			s.PageSize, s.MaxAttempts, s.RetryDelaySeconds, s.OperationDelaySeconds, s.RateLimitCooldownSeconds)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path config JSON (default config/config.json, fallback akses.json)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "tampilkan log debug")
	rootCmd.AddCommand(versionCmd, checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func run() error {
	utils.InitLogger(debugMode)
	utils.InitBatchLogger(debugMode)

	logger := utils.GetLogger()
	logger.Phase("Starting WhatsApp Bot with Telegram Integration...")
	logger.Info("Version: %s", version)

	startupManager := core.NewStartupManager(configPath)
	startupManager.SetEventHandler(core.EventHandler)

	if err := startupManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if !debugMode {
		level := startupManager.GetConfig().Settings.LogLevel
		utils.InitLoggerFromLevel(level)
		utils.InitBatchLogger(level == "debug")
	}

	startupManager.Start()

	logger = utils.GetLogger()
	logger.Success("Application started successfully")
	logger.Info("Press Ctrl+C to stop...")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)
	<-shutdownChan

	logger.Phase("Shutting down...")
	shutdownManager := core.NewShutdownManager(
		startupManager.GetWhatsAppClient(),
		startupManager.GetTelegramBot(),
		startupManager.GetBot(),
	)
	if err := shutdownManager.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	logger.Success("Application stopped")
	return nil
}

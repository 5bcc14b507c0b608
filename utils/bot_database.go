package utils

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	botDBPool        *sql.DB
	botDBMutex       sync.Mutex
	currentBotDBPath string
)

// OpenBotDB membuka (atau membuka ulang) pool bot_data.db lalu memastikan tabel tersedia
func OpenBotDB(path string) (*sql.DB, error) {
	botDBMutex.Lock()
	defer botDBMutex.Unlock()

	if botDBPool != nil && currentBotDBPath == path {
		return botDBPool, nil
	}

	if botDBPool != nil {
		GetLogger().Info("OpenBotDB: Database path changed from '%s' to '%s', rebuilding pool", currentBotDBPath, path)
		if err := botDBPool.Close(); err != nil {
			GetLogger().Warn("OpenBotDB: Error closing old pool: %v", err)
		}
		botDBPool = nil
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_cache=shared&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("gagal membuka database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("gagal ping database: %w", err)
	}

	if err := setupBotDB(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	botDBPool = db
	currentBotDBPath = path
	GetLogger().Info("OpenBotDB: Pool ready with path: %s", path)
	return botDBPool, nil
}

// GetBotDBPool pool yang sudah dibuka oleh OpenBotDB
func GetBotDBPool() (*sql.DB, error) {
	botDBMutex.Lock()
	defer botDBMutex.Unlock()
	if botDBPool == nil {
		return nil, fmt.Errorf("bot database belum dibuka")
	}
	return botDBPool, nil
}

// CloseBotDB menutup pool (dipanggil saat shutdown)
func CloseBotDB() error {
	botDBMutex.Lock()
	defer botDBMutex.Unlock()
	if botDBPool == nil {
		return nil
	}
	err := botDBPool.Close()
	botDBPool = nil
	currentBotDBPath = ""
	return err
}

func setupBotDB(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			description TEXT,
			telegram_chat_id INTEGER NOT NULL,
			success INTEGER NOT NULL DEFAULT 1,
			error_message TEXT,
			metadata TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_logs_chat ON activity_logs(telegram_chat_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("gagal setup tabel bot database: %w", err)
		}
	}
	return nil
}

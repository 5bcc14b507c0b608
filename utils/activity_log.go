package utils

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Action yang dicatat di activity_logs
const (
	ActionAddPromote    = "add_promote_admin"
	ActionDemote        = "demote_admin"
	ActionRename        = "rename_groups"
	ActionContactImport = "add_contact"
	ActionOperationFail = "operation_failed"
	ActionPairing       = "pairing"
	ActionLogout        = "logout"
)

// ActivityLog satu baris activity_logs
type ActivityLog struct {
	ID             int
	Action         string
	Description    string
	TelegramChatID int64
	Success        bool
	ErrorMessage   string
	Metadata       map[string]interface{}
	CreatedAt      time.Time
}

// ActivityStats ringkasan aktivitas per user
type ActivityStats struct {
	Total      int
	Success    int
	Failed     int
	TopActions map[string]int
}

// LogActivity mencatat aktivitas sukses
func LogActivity(action, description string, chatID int64) error {
	return LogActivityWithMetadata(action, description, chatID, nil, true, "")
}

// LogActivityError mencatat aktivitas yang gagal
func LogActivityError(action, description string, chatID int64, err error, metadata map[string]interface{}) error {
	var errMsg string
	if err != nil {
		errMsg = err.Error()
		if len(errMsg) > 200 {
			errMsg = errMsg[:200] + "..."
		}
	}
	return LogActivityWithMetadata(action, description, chatID, metadata, false, errMsg)
}

// LogActivityWithMetadata mencatat aktivitas dengan metadata JSON
func LogActivityWithMetadata(action, description string, chatID int64, metadata map[string]interface{}, success bool, errMsg string) error {
	db, err := GetBotDBPool()
	if err != nil {
		return err
	}

	var metadataJSON string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	successInt := 0
	if success {
		successInt = 1
	}

	if len(description) > 500 {
		description = description[:500] + "..."
	}

	_, err = db.Exec(`
		INSERT INTO activity_logs (action, description, telegram_chat_id, success, error_message, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, action, description, chatID, successInt, errMsg, metadataJSON)
	return err
}

// GetActivityLogs log terbaru milik satu user
func GetActivityLogs(telegramChatID int64, limit int) ([]ActivityLog, error) {
	db, err := GetBotDBPool()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`SELECT id, action, description, telegram_chat_id, success, error_message, metadata, created_at
		FROM activity_logs WHERE telegram_chat_id = ? ORDER BY id DESC LIMIT ?`, telegramChatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []ActivityLog
	for rows.Next() {
		var entry ActivityLog
		var description, errMsg, metadataJSON sql.NullString
		var success int
		if err := rows.Scan(&entry.ID, &entry.Action, &description, &entry.TelegramChatID, &success, &errMsg, &metadataJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Description = description.String
		entry.ErrorMessage = errMsg.String
		entry.Success = success == 1
		if metadataJSON.Valid && metadataJSON.String != "" {
			_ = json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// GetActivityStats statistik aktivitas user dalam N hari terakhir
func GetActivityStats(telegramChatID int64, days int) (*ActivityStats, error) {
	db, err := GetBotDBPool()
	if err != nil {
		return nil, err
	}

	stats := &ActivityStats{TopActions: make(map[string]int)}
	err = db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(success), 0) FROM activity_logs
		WHERE telegram_chat_id = ? AND created_at >= datetime('now', '-' || ? || ' days')`,
		telegramChatID, days).Scan(&stats.Total, &stats.Success)
	if err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Success

	rows, err := db.Query(`SELECT action, COUNT(*) AS count FROM activity_logs
		WHERE telegram_chat_id = ? AND created_at >= datetime('now', '-' || ? || ' days')
		GROUP BY action ORDER BY count DESC LIMIT 10`, telegramChatID, days)
	if err != nil {
		return stats, nil
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err == nil {
			stats.TopActions[action] = count
		}
	}
	return stats, nil
}

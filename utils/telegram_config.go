package utils

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultConfigPath = "config/config.json"
	legacyConfigPath  = "akses.json"
	envPrefix         = "WABOT"
)

type TelegramConfig struct {
	TelegramToken  string          `json:"telegram_token" mapstructure:"telegram_token"`
	UserAllowedID  int64           `json:"user_allowed_id" mapstructure:"user_allowed_id"` // DEPRECATED: Gunakan AllowedUserIDs
	AdminIDs       []int64         `json:"admin_ids" mapstructure:"admin_ids"`
	AllowedUserIDs []int64         `json:"allowed_user_ids" mapstructure:"allowed_user_ids"`
	Settings       *ConfigSettings `json:"settings,omitempty" mapstructure:"settings"`
}

// ConfigSettings pengaturan batch, pagination dan database
type ConfigSettings struct {
	PageSize                 int    `json:"page_size,omitempty" mapstructure:"page_size"`
	MaxAttempts              int    `json:"max_attempts,omitempty" mapstructure:"max_attempts"`
	RetryDelaySeconds        int    `json:"retry_delay_seconds,omitempty" mapstructure:"retry_delay_seconds"`
	OperationDelaySeconds    int    `json:"operation_delay_seconds,omitempty" mapstructure:"operation_delay_seconds"`
	RateLimitCooldownSeconds int    `json:"rate_limit_cooldown_seconds,omitempty" mapstructure:"rate_limit_cooldown_seconds"`
	AddSettleSeconds         int    `json:"add_settle_seconds,omitempty" mapstructure:"add_settle_seconds"`
	RenameDelaySeconds       int    `json:"rename_delay_seconds,omitempty" mapstructure:"rename_delay_seconds"`
	TimeoutSeconds           int    `json:"timeout_seconds,omitempty" mapstructure:"timeout_seconds"`
	MaxUploadMB              int    `json:"max_upload_mb,omitempty" mapstructure:"max_upload_mb"`
	LogLevel                 string `json:"log_level,omitempty" mapstructure:"log_level"`
	WhatsAppDBPath           string `json:"whatsapp_db_path,omitempty" mapstructure:"whatsapp_db_path"`
	BotDataDBPath            string `json:"bot_data_db_path,omitempty" mapstructure:"bot_data_db_path"`
}

// DefaultSettings nilai bawaan jika config tidak mengisi
func DefaultSettings() *ConfigSettings {
	return &ConfigSettings{
		PageSize:                 8,
		MaxAttempts:              3,
		RetryDelaySeconds:        3,
		OperationDelaySeconds:    3,
		RateLimitCooldownSeconds: 10,
		AddSettleSeconds:         8,
		RenameDelaySeconds:       5,
		TimeoutSeconds:           15,
		MaxUploadMB:              5,
		LogLevel:                 "info",
		WhatsAppDBPath:           "whatsapp.db",
		BotDataDBPath:            "bot_data.db",
	}
}

func setSettingDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("settings.page_size", d.PageSize)
	v.SetDefault("settings.max_attempts", d.MaxAttempts)
	v.SetDefault("settings.retry_delay_seconds", d.RetryDelaySeconds)
	v.SetDefault("settings.operation_delay_seconds", d.OperationDelaySeconds)
	v.SetDefault("settings.rate_limit_cooldown_seconds", d.RateLimitCooldownSeconds)
	v.SetDefault("settings.add_settle_seconds", d.AddSettleSeconds)
	v.SetDefault("settings.rename_delay_seconds", d.RenameDelaySeconds)
	v.SetDefault("settings.timeout_seconds", d.TimeoutSeconds)
	v.SetDefault("settings.max_upload_mb", d.MaxUploadMB)
	v.SetDefault("settings.log_level", d.LogLevel)
	v.SetDefault("settings.whatsapp_db_path", d.WhatsAppDBPath)
	v.SetDefault("settings.bot_data_db_path", d.BotDataDBPath)
}

// LoadTelegramConfig memuat config dari config/config.json (fallback akses.json)
func LoadTelegramConfig() (*TelegramConfig, error) {
	return LoadTelegramConfigFrom("")
}

// LoadTelegramConfigFrom memuat config dari path tertentu. Path kosong berarti
// config/config.json lalu akses.json. Env WABOT_* menimpa isi file,
// contoh WABOT_TELEGRAM_TOKEN.
func LoadTelegramConfigFrom(path string) (*TelegramConfig, error) {
	if path == "" {
		path = DefaultConfigPath
		if _, err := os.Stat(path); err != nil {
			path = legacyConfigPath
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setSettingDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, WrapError(err, KindValidation, fmt.Sprintf("gagal membaca config %s", path))
	}

	var config TelegramConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, WrapError(err, KindValidation, fmt.Sprintf("format config %s tidak valid", path))
	}
	// AutomaticEnv hanya berlaku lewat Get, jadi token dibaca ulang
	if token := v.GetString("telegram_token"); token != "" {
		config.TelegramToken = token
	}

	config.normalize()

	if config.TelegramToken == "" {
		return nil, NewValidationError("telegram_token kosong", "Isi telegram_token di "+path+" atau set WABOT_TELEGRAM_TOKEN")
	}

	return &config, nil
}

func (tc *TelegramConfig) normalize() {
	if tc.UserAllowedID != 0 && len(tc.AllowedUserIDs) == 0 {
		tc.AllowedUserIDs = []int64{tc.UserAllowedID}
	}
	if len(tc.AdminIDs) == 0 && len(tc.AllowedUserIDs) > 0 {
		tc.AdminIDs = tc.AllowedUserIDs
	}

	defaults := DefaultSettings()
	if tc.Settings == nil {
		tc.Settings = defaults
		return
	}
	s := tc.Settings
	if s.PageSize <= 0 {
		s.PageSize = defaults.PageSize
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = defaults.MaxAttempts
	}
	if s.MaxUploadMB <= 0 {
		s.MaxUploadMB = defaults.MaxUploadMB
	}
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if s.WhatsAppDBPath == "" {
		s.WhatsAppDBPath = defaults.WhatsAppDBPath
	}
	if s.BotDataDBPath == "" {
		s.BotDataDBPath = defaults.BotDataDBPath
	}
}

// IsAdmin mengecek apakah user adalah admin
func (tc *TelegramConfig) IsAdmin(userID int64) bool {
	for _, adminID := range tc.AdminIDs {
		if adminID == userID {
			return true
		}
	}
	return false
}

// IsAllowed mengecek apakah user boleh memakai bot
func (tc *TelegramConfig) IsAllowed(userID int64) bool {
	for _, allowedID := range tc.AllowedUserIDs {
		if allowedID == userID {
			return true
		}
	}
	return false
}

// CheckAccess admin atau allowed user
func (tc *TelegramConfig) CheckAccess(userID int64) bool {
	return tc.IsAdmin(userID) || tc.IsAllowed(userID)
}

// NotifyTargets semua user yang menerima notifikasi bot (admin dulu, tanpa duplikat)
func (tc *TelegramConfig) NotifyTargets() []int64 {
	seen := make(map[int64]bool)
	var targets []int64
	for _, ids := range [][]int64{tc.AdminIDs, tc.AllowedUserIDs} {
		for _, id := range ids {
			if id != 0 && !seen[id] {
				seen[id] = true
				targets = append(targets, id)
			}
		}
	}
	return targets
}

func seconds(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Second
}

// RetryDelay jeda antar percobaan ulang
func (s *ConfigSettings) RetryDelay() time.Duration { return seconds(s.RetryDelaySeconds) }

// OperationDelay jeda antar operasi batch
func (s *ConfigSettings) OperationDelay() time.Duration { return seconds(s.OperationDelaySeconds) }

// RateLimitCooldown jeda setelah operasi terkena rate limit
func (s *ConfigSettings) RateLimitCooldown() time.Duration {
	return seconds(s.RateLimitCooldownSeconds)
}

// AddSettle jeda setelah add member sebelum promote
func (s *ConfigSettings) AddSettle() time.Duration { return seconds(s.AddSettleSeconds) }

// RenameDelay jeda antar rename grup
func (s *ConfigSettings) RenameDelay() time.Duration { return seconds(s.RenameDelaySeconds) }

// APITimeout batas waktu satu panggilan API WhatsApp
func (s *ConfigSettings) APITimeout() time.Duration { return seconds(s.TimeoutSeconds) }

// MaxUploadBytes batas ukuran file .txt
func (s *ConfigSettings) MaxUploadBytes() int64 { return int64(s.MaxUploadMB) * 1024 * 1024 }

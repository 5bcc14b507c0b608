package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger operasi Telegram yang dipakai handler
type Messenger interface {
	Send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error)
	// Edit tidak mengembalikan error untuk "message is not modified"
	Edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error
	Delete(chatID int64, messageID int) error
	AnswerCallback(callbackID, text string, alert bool) error
	DownloadFile(fileID string, maxBytes int64) ([]byte, error)
}

// TelegramMessenger Messenger di atas tgbotapi.BotAPI
type TelegramMessenger struct {
	Bot  *tgbotapi.BotAPI
	HTTP *http.Client
}

// NewTelegramMessenger membuat messenger dengan HTTP client ber-timeout untuk download file
func NewTelegramMessenger(bot *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{Bot: bot, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func isParseError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "can't parse entities")
}

// Send mengirim pesan Markdown; jika Markdown gagal di-parse, kirim ulang sebagai teks biasa
func (m *TelegramMessenger) Send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := m.Bot.Send(msg)
	if isParseError(err) {
		msg.ParseMode = ""
		sent, err = m.Bot.Send(msg)
	}
	if err != nil {
		return 0, fmt.Errorf("gagal mengirim pesan: %w", err)
	}
	return sent.MessageID, nil
}

// Edit mengubah isi pesan
func (m *TelegramMessenger) Edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = markup
	_, err := m.Bot.Request(edit)
	if isParseError(err) {
		edit.ParseMode = ""
		_, err = m.Bot.Request(edit)
	}
	if err != nil && !isNotModified(err) {
		return fmt.Errorf("gagal edit pesan: %w", err)
	}
	return nil
}

// Delete menghapus pesan
func (m *TelegramMessenger) Delete(chatID int64, messageID int) error {
	_, err := m.Bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// AnswerCallback menjawab callback query (menghentikan loading di tombol)
func (m *TelegramMessenger) AnswerCallback(callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	_, err := m.Bot.Request(cb)
	return err
}

// DownloadFile mengunduh dokumen yang dikirim user, maksimal maxBytes
func (m *TelegramMessenger) DownloadFile(fileID string, maxBytes int64) ([]byte, error) {
	url, err := m.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("gagal mendapatkan URL file: %w", err)
	}
	resp, err := m.HTTP.Get(url)
	if err != nil {
		return nil, fmt.Errorf("gagal download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gagal download file: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("gagal membaca file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, utils.NewValidationError("File terlalu besar!", fmt.Sprintf("Maksimal %dMB.", maxBytes/(1024*1024)))
	}
	return data, nil
}

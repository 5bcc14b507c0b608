package utils

import (
	"fmt"
	"strings"
)

// ErrorType jenis error yang ditampilkan ke user Telegram
type ErrorType int

const (
	ErrorDatabase ErrorType = iota
	ErrorConnection
	ErrorPermission
	ErrorTimeout
	ErrorValidation
	ErrorRateLimit
	ErrorUnknown
)

const messageSeparator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// FormatUserError memformat error menjadi pesan Markdown yang ramah user
func FormatUserError(errType ErrorType, err error, context string) string {
	var icon, title, description, solutions string

	switch errType {
	case ErrorDatabase:
		icon = "💾"
		title = "MASALAH DATABASE"
		description = "Terjadi kesalahan saat mencatat log aktivitas."
		solutions = "*Solusi:*\n• Restart bot jika masalah berlanjut\n• Pastikan folder bot bisa ditulis"

	case ErrorConnection:
		icon = "🔌"
		title = "MASALAH KONEKSI"
		description = "Koneksi ke WhatsApp terputus atau bermasalah."
		solutions = "*Solusi:*\n• Periksa koneksi internet\n• Tunggu beberapa saat lalu coba lagi\n• Jika belum login, pairing dulu dengan /pair"

	case ErrorPermission:
		icon = "🔒"
		title = "AKSES DITOLAK"
		description = "Akun WhatsApp bukan admin di grup ini."
		solutions = "*Solusi:*\n• Pastikan akun bot adalah admin grup\n• Pilih grup dengan ikon 👑"

	case ErrorTimeout:
		icon = "⏱️"
		title = "TIMEOUT"
		description = "Server WhatsApp terlalu lama merespons."
		solutions = "*Solusi:*\n• Koneksi internet mungkin lambat\n• Coba lagi dalam beberapa saat"

	case ErrorValidation:
		icon = "⚠️"
		title = "INPUT TIDAK VALID"
		description = "Data yang dikirim tidak sesuai format."
		solutions = "*Solusi:*\n• Periksa kembali format input\n• Satu nomor per baris, 10-15 digit, tanpa + atau spasi"

	case ErrorRateLimit:
		icon = "🐢"
		title = "TERKENA RATE LIMIT"
		description = "WhatsApp membatasi jumlah request sementara."
		solutions = "*Solusi:*\n• Tunggu beberapa menit sebelum mencoba lagi\n• Kurangi jumlah grup per batch"

	default:
		icon = "❌"
		title = "TERJADI KESALAHAN"
		description = "Terjadi kesalahan yang tidak diketahui."
		solutions = "*Solusi:*\n• Coba operasi kembali\n• Restart bot jika perlu"
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("%s *%s*\n\n", icon, title))
	msg.WriteString(messageSeparator + "\n\n")
	msg.WriteString(description + "\n\n")

	if context != "" {
		msg.WriteString(fmt.Sprintf("*Konteks:* %s\n\n", context))
	}

	if err != nil {
		detail := err.Error()
		if len(detail) > 100 {
			detail = detail[:100] + "..."
		}
		msg.WriteString(fmt.Sprintf("*Detail:* `%s`\n\n", detail))
	}

	msg.WriteString(messageSeparator + "\n")
	msg.WriteString(solutions + "\n")
	msg.WriteString(messageSeparator + "\n\n")
	msg.WriteString("💡 Gunakan /help untuk bantuan lebih lanjut")

	return msg.String()
}

// DetectErrorType menebak ErrorType dari isi error
func DetectErrorType(err error) ErrorType {
	if err == nil {
		return ErrorUnknown
	}
	if IsKind(err, KindValidation) {
		return ErrorValidation
	}
	if IsKind(err, KindRateLimit) {
		return ErrorRateLimit
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "rate-overlimit") || strings.Contains(errStr, "rate limit"):
		return ErrorRateLimit
	case strings.Contains(errStr, "database") || strings.Contains(errStr, "sql"):
		return ErrorDatabase
	case strings.Contains(errStr, "not connected") || strings.Contains(errStr, "connection") || strings.Contains(errStr, "disconnect"):
		return ErrorConnection
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return ErrorTimeout
	case strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "not-authorized") || strings.Contains(errStr, "403"):
		return ErrorPermission
	}
	return ErrorUnknown
}

// FormatError memformat error dengan tipe yang dideteksi otomatis
func FormatError(err error) string {
	if err == nil {
		return "Terjadi kesalahan yang tidak diketahui"
	}
	return FormatUserError(DetectErrorType(err), err, "")
}

var whatsappErrorMessages = []struct {
	key string
	msg string
}{
	{"rate-overlimit", "terkena rate limit"},
	{"context deadline exceeded", "waktu habis, server tidak merespons"},
	{"not connected", "WhatsApp belum terhubung"},
	{"not-authorized", "bot bukan admin grup"},
	{"forbidden", "bot bukan admin grup"},
	{"item-not-found", "grup atau nomor tidak ditemukan"},
	{"not on whatsapp", "nomor tidak terdaftar di WhatsApp"},
	{"timeout", "proses terlalu lama"},
}

// ErrorMsg menerjemahkan error WhatsApp menjadi teks singkat bahasa Indonesia
// untuk baris transcript batch
func ErrorMsg(err error) string {
	if err == nil {
		return "tidak ada error"
	}
	errStr := strings.ToLower(err.Error())
	for _, e := range whatsappErrorMessages {
		if strings.Contains(errStr, e.key) {
			return e.msg
		}
	}
	return err.Error()
}

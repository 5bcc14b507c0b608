package ui

import (
	"fmt"
	"strings"
	"time"
)

// LoginPrompt ditampilkan saat WhatsApp belum terhubung
func LoginPrompt() string {
	return `🔐 *LOGIN REQUIRED*

` + separator + `

❌ WhatsApp Bot: Belum Terhubung
✅ Telegram Bot: Terhubung

Untuk menggunakan bot, lakukan pairing terlebih dahulu:

` + "`/pair 628123456789`" + `

⚠️ *Format nomor:*
• Gunakan kode negara (tanpa + atau 0)
• Contoh: 628123456789 (Indonesia)`
}

// HelpText daftar perintah
func HelpText() string {
	return `❓ *BANTUAN*

` + separator + `

/menu - Menu utama
/status - Status koneksi dan aktivitas
/cancel - Batalkan proses yang sedang berjalan
/pair <nomor> - Login WhatsApp dengan kode pairing
/logout - Logout akun WhatsApp
/log - Activity log terakhir
/help - Bantuan ini

*Fitur:*
• Add & Promote Admin ke banyak grup
• Demote Admin dari banyak grup
• Rename grup berurutan (contoh: HK 1..HK 10 → MK 1..MK 10)
• Tambah kontak ke banyak grup (chat atau file .txt)

` + separator
}

// PairingInstructions instruksi memasukkan kode pairing
func PairingInstructions(code, number string) string {
	return fmt.Sprintf(`🔗 *PAIRING WHATSAPP*

%s

*Nomor:* %s

1️⃣ Buka WhatsApp di HP
2️⃣ *Settings* → *Linked Devices*
3️⃣ Ketuk *Link a Device*
4️⃣ Pilih *Link with phone number instead*
5️⃣ Masukkan kode berikut:

🔑 *KODE PAIRING:* `+"`%s`"+`

⏱️ Kode berlaku 2 menit`, separator, number, strings.ToUpper(code))
}

// PairingProgress pesan menunggu pairing
func PairingProgress(elapsed, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	remaining := timeout - elapsed
	if remaining < 0 {
		remaining = 0
	}
	filled := int(elapsed * 20 / timeout)
	if filled > 20 {
		filled = 20
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
	return fmt.Sprintf("⏳ *Menunggu pairing...*\n\n%s\n\n⏱️ Waktu tersisa: %d detik", bar, int(remaining.Seconds()))
}

// PairingSuccess pesan pairing berhasil
func PairingSuccess() string {
	return "✅ *PAIRING BERHASIL!*\n\n" + separator + "\n\n🎉 Bot WhatsApp sudah terhubung dan siap digunakan!\n\nGunakan /menu untuk melihat menu utama."
}

// PairingTimeout pesan pairing gagal karena waktu habis
func PairingTimeout(number string) string {
	return fmt.Sprintf("❌ *PAIRING TIMEOUT*\n\n%s\n\n⏱️ Waktu pairing telah habis (2 menit)\n\nSilakan coba lagi:\n`/pair %s`", separator, number)
}

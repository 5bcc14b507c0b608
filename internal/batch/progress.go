package batch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"whatsapp-bot/utils"
)

// Batas panjang pesan Telegram
const telegramMessageLimit = 4096

const progressBarCells = 20

// Reporter memformat pesan progress dan ringkasan batch
type Reporter struct {
	Title string
}

// ProgressBar bar 20 sel dengan persentase
func ProgressBar(current, total int) string {
	if total <= 0 {
		return strings.Repeat("░", progressBarCells) + " 0%"
	}
	if current > total {
		current = total
	}
	filled := current * progressBarCells / total
	percent := current * 100 / total
	return strings.Repeat("█", filled) + strings.Repeat("░", progressBarCells-filled) + fmt.Sprintf(" %d%%", percent)
}

// FormatProgress pesan progress yang di-edit setiap operasi selesai
func (r Reporter) FormatProgress(current, total int, transcript []string) string {
	header := fmt.Sprintf("⏳ *Proses %s*\n\n%s\n📊 Progress: %d/%d\n\n", r.Title, ProgressBar(current, total), current, total)
	return header + fitTranscript(transcript, telegramMessageLimit-utf8.RuneCountInString(header))
}

// FormatSummary pesan akhir setelah batch selesai
func (r Reporter) FormatSummary(s Summary) string {
	header := fmt.Sprintf("🎉 *Proses %s Selesai!*\n\n✅ Berhasil: %d\n❌ Gagal: %d\n\n*Detail:*\n", r.Title, s.Succeeded, s.Failed)
	return header + fitTranscript(s.Transcript, telegramMessageLimit-utf8.RuneCountInString(header))
}

// fitTranscript mengambil baris terakhir yang muat dalam budget karakter
func fitTranscript(lines []string, budget int) string {
	if budget <= 0 || len(lines) == 0 {
		return ""
	}
	used := 0
	first := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(lines[i]) + 1
		if used+n > budget-40 {
			break
		}
		used += n
		first = i
	}

	var b strings.Builder
	if first > 0 {
		fmt.Fprintf(&b, "... (%d baris sebelumnya)\n", first)
	}
	for _, line := range lines[first:] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// DefaultLine baris transcript standar per operasi
func DefaultLine(o Outcome) string {
	switch {
	case o.AlreadyDone:
		return fmt.Sprintf("ℹ️ %s: %s (sudah sesuai)", o.GroupName, o.Target)
	case o.Succeeded:
		return fmt.Sprintf("✅ %s: %s", o.GroupName, o.Target)
	default:
		return fmt.Sprintf("❌ %s: %s - %s", o.GroupName, o.Target, utils.ErrorMsg(o.Err))
	}
}

// AddPromoteLine baris transcript add/promote, mencatat langkah add dan promote
func AddPromoteLine(o Outcome) string {
	var parts []string
	switch o.Prereq {
	case PrereqPerformed:
		parts = append(parts, "➕ ditambahkan")
	case PrereqSatisfied, PrereqAlready:
		parts = append(parts, "sudah di grup")
	}

	switch {
	case o.AlreadyDone:
		parts = append(parts, "sudah admin")
	case o.Succeeded:
		parts = append(parts, "👑 dipromote")
	}

	if !o.Succeeded {
		step := "promote"
		if o.Prereq == PrereqFailed {
			step = "add"
		}
		return fmt.Sprintf("❌ %s: %s gagal %s - %s", o.GroupName, o.Target, step, utils.ErrorMsg(o.Err))
	}
	return fmt.Sprintf("✅ %s: %s (%s)", o.GroupName, o.Target, strings.Join(parts, ", "))
}

// DemoteLine baris transcript demote
func DemoteLine(o Outcome) string {
	switch {
	case o.AlreadyDone:
		return fmt.Sprintf("ℹ️ %s: %s sudah bukan admin", o.GroupName, o.Target)
	case o.Succeeded:
		return fmt.Sprintf("⬇️ %s: %s didemote", o.GroupName, o.Target)
	default:
		return fmt.Sprintf("❌ %s: %s - %s", o.GroupName, o.Target, utils.ErrorMsg(o.Err))
	}
}

// RenameLine baris transcript rename, Target berisi nama baru
func RenameLine(o Outcome) string {
	if o.Succeeded {
		return fmt.Sprintf("✅ %s → %s", o.GroupName, o.Target)
	}
	return fmt.Sprintf("❌ %s → %s - %s", o.GroupName, o.Target, utils.ErrorMsg(o.Err))
}

// MemberLine baris transcript import kontak
func MemberLine(o Outcome) string {
	switch {
	case o.AlreadyDone:
		return fmt.Sprintf("ℹ️ %s: %s sudah ada di grup", o.GroupName, o.Target)
	case o.Succeeded:
		return fmt.Sprintf("✅ %s: %s ditambahkan", o.GroupName, o.Target)
	default:
		return fmt.Sprintf("❌ %s: %s - %s", o.GroupName, o.Target, utils.ErrorMsg(o.Err))
	}
}

// Package phone memvalidasi daftar nomor WhatsApp yang dikirim user,
// satu nomor per baris.
package phone

import (
	"fmt"
	"strings"
)

const (
	MinDigits = 10
	MaxDigits = 15

	// FileDiagnosticLimit jumlah error maksimal yang ditampilkan untuk file .txt
	FileDiagnosticLimit = 10
)

// Rule aturan yang dilanggar satu baris
type Rule int

const (
	RuleNonNumeric Rule = iota + 1
	RuleLength
)

// Diagnostic satu baris yang tidak valid
type Diagnostic struct {
	Line  int
	Value string
	Rule  Rule
}

func (d Diagnostic) String() string {
	switch d.Rule {
	case RuleNonNumeric:
		return fmt.Sprintf("Baris %d: \"%s\" bukan angka", d.Line, d.Value)
	default:
		return fmt.Sprintf("Baris %d: \"%s\" harus %d-%d digit (sekarang %d)", d.Line, d.Value, MinDigits, MaxDigits, len(d.Value))
	}
}

// Result hasil parsing. Numbers bisa berisi duplikat.
type Result struct {
	Numbers     []string
	Diagnostics []Diagnostic
}

// OK true jika tidak ada baris invalid. Batch dengan satu error pun harus ditolak.
func (r Result) OK() bool {
	return len(r.Diagnostics) == 0
}

// Summary daftar error, maksimal limit baris (limit <= 0 berarti semua)
// ditambah jumlah sisanya
func (r Result) Summary(limit int) string {
	lines := make([]string, 0, len(r.Diagnostics))
	shown := r.Diagnostics
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, d := range shown {
		lines = append(lines, d.String())
	}
	if rest := len(r.Diagnostics) - len(shown); rest > 0 {
		lines = append(lines, fmt.Sprintf("... dan %d error lainnya", rest))
	}
	return strings.Join(lines, "\n")
}

// Parse memecah teks per baris, trim, lewati baris kosong, lalu validasi:
// hanya digit dan panjang 10-15
func Parse(text string) Result {
	var res Result
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !allDigits(line) {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: i + 1, Value: line, Rule: RuleNonNumeric})
			continue
		}
		if len(line) < MinDigits || len(line) > MaxDigits {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: i + 1, Value: line, Rule: RuleLength})
			continue
		}
		res.Numbers = append(res.Numbers, line)
	}
	return res
}

// ParseFile sama dengan Parse untuk isi file .txt (BOM UTF-8 dibuang)
func ParseFile(content []byte) Result {
	return Parse(strings.TrimPrefix(string(content), "\ufeff"))
}

// Dedup membuang nomor duplikat, urutan kemunculan pertama dipertahankan.
// Mengembalikan jumlah duplikat yang dibuang.
func Dedup(numbers []string) ([]string, int) {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, len(numbers) - len(out)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

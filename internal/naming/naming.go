// Package naming mengelompokkan grup berdasarkan nama dasar ("HK 1", "HK 2" -> "HK")
// dan menyusun rencana rename berurutan.
package naming

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"whatsapp-bot/internal/groups"
	"whatsapp-bot/utils"
)

var (
	trailingNumber = regexp.MustCompile(`\s*\d+\s*$`)
	suffixNumber   = regexp.MustCompile(`(\d+)\s*$`)
)

// BaseName nama grup tanpa angka di akhir. Jika sisanya kosong (nama hanya angka),
// nama asli dipakai.
func BaseName(name string) string {
	base := strings.TrimSpace(trailingNumber.ReplaceAllString(name, ""))
	if base == "" {
		return name
	}
	return base
}

// Suffix angka di akhir nama grup. ok=false jika tidak ada.
func Suffix(name string) (int, bool) {
	m := suffixNumber.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Member grup di dalam satu cluster
type Member struct {
	Group     groups.Group
	Suffix    int
	HasSuffix bool
}

// Cluster grup-grup dengan nama dasar yang sama, urut naik berdasarkan suffix.
// Grup tanpa suffix berada di depan dan tidak pernah masuk range rename.
type Cluster struct {
	Base    string
	Members []Member
}

// Rename satu langkah rename dalam rencana
type Rename struct {
	Group     groups.Group
	OldSuffix int
	NewName   string
}

// Clusters mengelompokkan semua grup per nama dasar
func Clusters(gs []groups.Group) []Cluster {
	index := make(map[string]int)
	var clusters []Cluster
	for _, g := range gs {
		base := BaseName(g.Name)
		i, ok := index[base]
		if !ok {
			i = len(clusters)
			index[base] = i
			clusters = append(clusters, Cluster{Base: base})
		}
		suffix, has := Suffix(g.Name)
		clusters[i].Members = append(clusters[i].Members, Member{Group: g, Suffix: suffix, HasSuffix: has})
	}

	for i := range clusters {
		members := clusters[i].Members
		sort.SliceStable(members, func(a, b int) bool {
			if members[a].HasSuffix != members[b].HasSuffix {
				return !members[a].HasSuffix
			}
			return members[a].Suffix < members[b].Suffix
		})
	}
	utils.SortNaturally(clusters, func(c Cluster) string { return c.Base })
	return clusters
}

// Eligible cluster yang boleh di-rename batch (minimal 2 grup)
func Eligible(gs []groups.Group) []Cluster {
	var out []Cluster
	for _, c := range Clusters(gs) {
		if len(c.Members) >= 2 {
			out = append(out, c)
		}
	}
	return out
}

// Find mencari cluster berdasarkan nama dasar
func Find(clusters []Cluster, base string) (Cluster, bool) {
	for _, c := range clusters {
		if c.Base == base {
			return c, true
		}
	}
	return Cluster{}, false
}

// Suffixes nomor yang tersedia di cluster, urut naik
func (c Cluster) Suffixes() []int {
	var out []int
	for _, m := range c.Members {
		if m.HasSuffix {
			out = append(out, m.Suffix)
		}
	}
	return out
}

// HasNumber true jika ada grup dengan suffix n
func (c Cluster) HasNumber(n int) bool {
	for _, m := range c.Members {
		if m.HasSuffix && m.Suffix == n {
			return true
		}
	}
	return false
}

// InRange member dengan suffix di [start, end], urut naik
func (c Cluster) InRange(start, end int) []Member {
	var out []Member
	for _, m := range c.Members {
		if m.HasSuffix && m.Suffix >= start && m.Suffix <= end {
			out = append(out, m)
		}
	}
	return out
}

// FormatSuffixes "1, 2, 5" untuk pesan ke user
func FormatSuffixes(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// Plan menyusun rename untuk member di range [start, end]: member ke-i (urut suffix)
// menjadi "<newBase> <offset+i>", tanpa mengikuti celah nomor lama
func Plan(c Cluster, start, end int, newBase string, offset int) []Rename {
	newBase = strings.TrimSpace(newBase)
	members := c.InRange(start, end)
	plan := make([]Rename, 0, len(members))
	for i, m := range members {
		plan = append(plan, Rename{
			Group:     m.Group,
			OldSuffix: m.Suffix,
			NewName:   fmt.Sprintf("%s %d", newBase, offset+i),
		})
	}
	return plan
}

// ParseStart memvalidasi nomor awal: angka >= 1 dan ada di cluster
func ParseStart(c Cluster, text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, utils.NewValidationError("Nomor tidak valid! Kirim angka yang benar.", "")
	}
	if !c.HasNumber(n) {
		return 0, utils.NewValidationError(
			fmt.Sprintf("Nomor grup %d tidak ditemukan!", n),
			"Nomor yang tersedia: "+FormatSuffixes(c.Suffixes()))
	}
	return n, nil
}

// ParseEnd memvalidasi nomor akhir: >= start dan ada di cluster
func ParseEnd(c Cluster, start int, text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < start {
		return 0, utils.NewValidationError(
			fmt.Sprintf("Nomor tidak valid! Harus lebih besar atau sama dengan %d.", start), "")
	}
	if !c.HasNumber(n) {
		return 0, utils.NewValidationError(
			fmt.Sprintf("Nomor grup %d tidak ditemukan!", n),
			"Nomor yang tersedia: "+FormatSuffixes(c.Suffixes()))
	}
	return n, nil
}

// ParseNewName memvalidasi nama dasar baru (tidak boleh kosong)
func ParseNewName(text string) (string, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return "", utils.NewValidationError("Nama grup tidak boleh kosong!", "")
	}
	return name, nil
}

// ParseOffset memvalidasi nomor mulai penomoran baru (>= 1)
func ParseOffset(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, utils.NewValidationError("Nomor tidak valid! Kirim angka yang benar.", "")
	}
	return n, nil
}

package utils

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Natural sort: "HK 2" sebelum "HK 10"

type token struct {
	isNumber bool
	number   int64
	text     string
}

func splitIntoTokens(s string) []token {
	var tokens []token
	var current strings.Builder
	inNumber := false

	flush := func() {
		if current.Len() == 0 {
			return
		}
		t := token{isNumber: inNumber, text: current.String()}
		if inNumber {
			t.number, _ = strconv.ParseInt(t.text, 10, 64)
		}
		tokens = append(tokens, t)
		current.Reset()
	}

	for _, r := range s {
		digit := unicode.IsDigit(r)
		if digit != inNumber {
			flush()
			inNumber = digit
		}
		current.WriteRune(r)
	}
	flush()

	return tokens
}

// NaturalLess membandingkan dua string secara natural dan case-insensitive
func NaturalLess(s1, s2 string) bool {
	tokens1 := splitIntoTokens(strings.ToLower(s1))
	tokens2 := splitIntoTokens(strings.ToLower(s2))

	for i := 0; i < len(tokens1) && i < len(tokens2); i++ {
		t1, t2 := tokens1[i], tokens2[i]

		switch {
		case t1.isNumber && t2.isNumber:
			if t1.number != t2.number {
				return t1.number < t2.number
			}
		case !t1.isNumber && !t2.isNumber:
			if t1.text != t2.text {
				return t1.text < t2.text
			}
		default:
			// angka lebih dulu dari teks
			return t1.isNumber
		}
	}

	return len(tokens1) < len(tokens2)
}

// SortNaturally mengurutkan items berdasarkan nama secara natural (stabil)
func SortNaturally[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return NaturalLess(name(items[i]), name(items[j]))
	})
}

// CompareNames -1, 0, atau 1 sesuai urutan natural
func CompareNames(name1, name2 string) int {
	if NaturalLess(name1, name2) {
		return -1
	}
	if NaturalLess(name2, name1) {
		return 1
	}
	return 0
}

package phone

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMixedInput(t *testing.T) {
	res := Parse("6281234567\n\nabc\n628111111111111111111")

	assert.Equal(t, []string{"6281234567"}, res.Numbers)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, Diagnostic{Line: 3, Value: "abc", Rule: RuleNonNumeric}, res.Diagnostics[0])
	assert.Equal(t, Diagnostic{Line: 4, Value: "628111111111111111111", Rule: RuleLength}, res.Diagnostics[1])
	assert.False(t, res.OK())
}

func TestParseRules(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid []string
		wantRules []Rule
	}{
		{"trims whitespace", "  6281234567  \r\n", []string{"6281234567"}, nil},
		{"min length", "1234567890", []string{"1234567890"}, nil},
		{"max length", "123456789012345", []string{"123456789012345"}, nil},
		{"too short", "123456789", nil, []Rule{RuleLength}},
		{"too long", "1234567890123456", nil, []Rule{RuleLength}},
		{"plus sign", "+6281234567", nil, []Rule{RuleNonNumeric}},
		{"inner space", "62812 34567", nil, []Rule{RuleNonNumeric}},
		{"only blanks", "\n \n\t\n", nil, nil},
		{"duplicates kept", "6281234567\n6281234567", []string{"6281234567", "6281234567"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.input)
			assert.Equal(t, tt.wantValid, res.Numbers)

			var rules []Rule
			for _, d := range res.Diagnostics {
				rules = append(rules, d.Rule)
			}
			assert.Equal(t, tt.wantRules, rules)
			assert.Equal(t, len(tt.wantRules) == 0, res.OK())
		})
	}
}

func TestDiagnosticString(t *testing.T) {
	assert.Equal(t, `Baris 2: "abc" bukan angka`, Diagnostic{Line: 2, Value: "abc", Rule: RuleNonNumeric}.String())
	assert.Contains(t, Diagnostic{Line: 1, Value: "123", Rule: RuleLength}.String(), "10-15 digit")
}

func TestFileSummaryTruncates(t *testing.T) {
	var lines []string
	for i := 0; i < 13; i++ {
		lines = append(lines, fmt.Sprintf("bad%d", i))
	}
	lines = append(lines, "6281234567")

	res := ParseFile([]byte("\ufeff" + strings.Join(lines, "\n")))
	require.Len(t, res.Diagnostics, 13)
	assert.Equal(t, []string{"6281234567"}, res.Numbers)

	summary := res.Summary(FileDiagnosticLimit)
	assert.Equal(t, 11, len(strings.Split(summary, "\n")))
	assert.True(t, strings.HasSuffix(summary, "... dan 3 error lainnya"))
	assert.NotContains(t, summary, "bad10")
}

func TestSummaryWithoutLimit(t *testing.T) {
	res := Parse("a\nb")
	assert.Equal(t, "Baris 1: \"a\" bukan angka\nBaris 2: \"b\" bukan angka", res.Summary(0))
}

func TestDedup(t *testing.T) {
	out, removed := Dedup([]string{"6281234567", "6289999999", "6281234567"})
	assert.Equal(t, []string{"6281234567", "6289999999"}, out)
	assert.Equal(t, 1, removed)
}

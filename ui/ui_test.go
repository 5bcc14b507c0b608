package ui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callbackData(markup tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

func countPrefix(data []string, prefix string) int {
	n := 0
	for _, d := range data {
		if strings.HasPrefix(d, prefix) {
			n++
		}
	}
	return n
}

func testGroups(n int) []groups.Group {
	gs := make([]groups.Group, n)
	for i := range gs {
		gs[i] = groups.Group{ID: fmt.Sprintf("g%d", i+1), Name: fmt.Sprintf("Grup %d", i+1), IsAdmin: i%2 == 0}
	}
	return gs
}

func TestGroupPickerPagination(t *testing.T) {
	p := flow.NewGroupPicker(testGroups(10))

	text, kb := GroupPicker("Pilih Grup", &p, 8, AdminPickerTokens)
	data := callbackData(kb)
	assert.Contains(t, text, "Halaman 1 dari 2")
	assert.Equal(t, 8, countPrefix(data, callback.ToggleGroupPrefix))
	assert.Contains(t, data, callback.GroupsPagePrefix+"1")
	assert.NotContains(t, data, callback.GroupsPagePrefix+"0")
	assert.NotContains(t, data, callback.FinishGroupSelection)

	p.Page = 1
	text, kb = GroupPicker("Pilih Grup", &p, 8, AdminPickerTokens)
	data = callbackData(kb)
	assert.Contains(t, text, "Halaman 2 dari 2")
	assert.Equal(t, 2, countPrefix(data, callback.ToggleGroupPrefix))
	assert.Contains(t, data, callback.GroupsPagePrefix+"0")
	assert.Contains(t, data, callback.ToggleGroupPrefix+"g10")
}

func TestGroupPickerPagePastEnd(t *testing.T) {
	p := flow.NewGroupPicker(testGroups(10))
	p.Page = 5

	text, kb := GroupPicker("Pilih Grup", &p, 8, AdminPickerTokens)
	data := callbackData(kb)
	assert.Contains(t, text, msgEmptyPage)
	assert.NotContains(t, text, "Klik grup")
	assert.Zero(t, countPrefix(data, callback.ToggleGroupPrefix))
	assert.Contains(t, data, callback.GroupsPagePrefix+"1")
	assert.NotContains(t, data, callback.GroupsPagePrefix+"4")
}

func TestDemotePickerPagePastEnd(t *testing.T) {
	f := flow.NewDemote()
	f.SetFound([]flow.FoundAdmins{
		{Group: groups.Group{ID: "g1", Name: "Alpha"}, Numbers: []string{"628111111111"}},
	})
	f.Page = 3

	text, kb := DemotePicker(f, 8)
	assert.Contains(t, text, msgEmptyPage)
	assert.Zero(t, countPrefix(callbackData(kb), callback.ToggleDemotePrefix))
	assert.Contains(t, callbackData(kb), callback.DemotePagePrefix+"0")
}

func TestGroupPickerMarksSelection(t *testing.T) {
	p := flow.NewGroupPicker(testGroups(2))
	_, err := p.Toggle("g2")
	require.NoError(t, err)

	text, kb := GroupPicker("Pilih Grup", &p, 8, ContactPickerTokens)
	assert.Contains(t, text, "Terpilih: 1 grup")
	assert.Equal(t, "⭕ 👑 Grup 1", kb.InlineKeyboard[0][0].Text)
	assert.Equal(t, "✅ 👤 Grup 2", kb.InlineKeyboard[1][0].Text)
	assert.Contains(t, callbackData(kb), callback.FinishContactSelection)
	assert.Contains(t, callbackData(kb), callback.ToggleContactGroupPrefix+"g2")
}

func TestGroupPickerEmptySearch(t *testing.T) {
	p := flow.NewGroupPicker(testGroups(3))
	p.SetQuery("tidak ada")

	text, kb := GroupPicker("Pilih Grup", &p, 8, AdminPickerTokens)
	assert.Contains(t, text, "Tidak ada grup yang cocok")
	assert.Contains(t, text, "Halaman 1 dari 1")
	assert.Zero(t, countPrefix(callbackData(kb), callback.ToggleGroupPrefix))
	assert.Contains(t, callbackData(kb), callback.SearchGroups)
}

func TestDemotePicker(t *testing.T) {
	f := flow.NewDemote()
	f.SetFound([]flow.FoundAdmins{
		{Group: groups.Group{ID: "g1", Name: "Alpha"}, Numbers: []string{"628111111111", "628122222222"}},
	})

	text, kb := DemotePicker(f, 8)
	assert.Contains(t, text, "Ditemukan di 1 grup")
	assert.Equal(t, "👥 Admin: 628111111111, 628122222222", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, callback.Noop, *kb.InlineKeyboard[1][0].CallbackData)
	assert.NotContains(t, callbackData(kb), callback.FinishDemoteSelection)

	_, err := f.Toggle("g1")
	require.NoError(t, err)
	_, kb = DemotePicker(f, 8)
	assert.Contains(t, callbackData(kb), callback.FinishDemoteSelection)
}

func TestActionName(t *testing.T) {
	assert.Equal(t, "Rename Grup", ActionName(utils.ActionRename))
	assert.Equal(t, `aksi\_baru`, ActionName("aksi_baru"))
}

func TestActivityLogScreen(t *testing.T) {
	text, kb := ActivityLog(nil)
	assert.Contains(t, text, "Belum ada aktivitas")
	assert.Contains(t, callbackData(kb), callback.ActivityLog)

	logs := []utils.ActivityLog{
		{Action: utils.ActionOperationFail, Description: strings.Repeat("a", 60), CreatedAt: time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)},
		{Action: utils.ActionRename, Description: "Rename Grup: 2 berhasil, 0 gagal", Success: true},
	}
	text, _ = ActivityLog(logs)
	assert.Contains(t, text, "Menampilkan 2 aktivitas terakhir")
	assert.Contains(t, text, "❌ *Operasi Gagal*")
	assert.Contains(t, text, strings.Repeat("a", 50)+"...")
	assert.Contains(t, text, "04/03 05:06")
	assert.Contains(t, text, "✅ *Rename Grup*")
}

func TestStatusScreen(t *testing.T) {
	text, kb := StatusScreen(Dashboard{
		Connected: true,
		Number:    "628111111111",
		Stats: &utils.ActivityStats{Total: 4, Success: 3, Failed: 1, TopActions: map[string]int{
			utils.ActionRename: 1,
			utils.ActionDemote: 3,
		}},
	})

	assert.Contains(t, text, "+628111111111")
	assert.Contains(t, text, "Total: 4 aktivitas")
	assert.Less(t, strings.Index(text, "Demote Admin: 3"), strings.Index(text, "Rename Grup: 1"))
	assert.Equal(t, []string{callback.ActivityLog, callback.Status, callback.MainMenu}, callbackData(kb))
}

func TestStatusScreenDisconnected(t *testing.T) {
	text, _ := StatusScreen(Dashboard{})
	assert.Contains(t, text, "Belum Terhubung")
	assert.Contains(t, text, "Total: 0 aktivitas")
}

func TestPairingProgress(t *testing.T) {
	msg := PairingProgress(60*time.Second, 2*time.Minute)
	assert.Contains(t, msg, strings.Repeat("█", 10)+strings.Repeat("░", 10))
	assert.Contains(t, msg, "60 detik")
	assert.Contains(t, PairingProgress(5*time.Minute, 2*time.Minute), "0 detik")
}

package handlers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/groups"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPromoteFlow(t *testing.T) {
	h := newHarness(t, alpha, beta)

	h.callback(callback.AddPromoteAdmin)
	picker := h.msg.last()
	assert.True(t, picker.edit)
	assert.Contains(t, picker.text, "Pilih Grup untuk Add/Promote Admin")
	assert.Contains(t, buttons(picker.markup), callback.ToggleGroupPrefix+alpha.ID)
	assert.NotContains(t, buttons(picker.markup), callback.FinishGroupSelection)

	h.callback(callback.ToggleGroupPrefix + alpha.ID)
	picker = h.msg.last()
	assert.Contains(t, picker.text, "Terpilih: 1 grup")
	assert.Contains(t, buttons(picker.markup), callback.FinishGroupSelection)

	h.callback(callback.FinishGroupSelection)
	assert.Contains(t, h.msg.last().text, "Input Nomor Admin")

	h.text("628111111111\n628111111111")
	confirm := h.msg.last()
	assert.Contains(t, confirm.text, "Konfirmasi Add/Promote Admin")
	assert.Contains(t, confirm.text, "1 nomor duplikat diabaikan")
	assert.Contains(t, confirm.text, "Total operasi: 1")
	assert.Equal(t, []string{callback.ConfirmAddPromote, callback.CancelAdminFlow}, buttons(confirm.markup))

	h.callback(callback.ConfirmAddPromote)
	h.bot.Wait()

	assert.Equal(t, []string{
		"is_member:g1@g.us:628111111111",
		"add:g1@g.us:628111111111",
		"promote:g1@g.us:628111111111",
	}, h.groups.callLog())

	summary := h.msg.last()
	assert.True(t, summary.edit)
	assert.Contains(t, summary.text, "Proses Add/Promote Admin Selesai")
	assert.Contains(t, summary.text, "Berhasil: 1")
	assert.Contains(t, summary.text, "ditambahkan")
	assert.Contains(t, summary.text, "dipromote")
	assert.Contains(t, buttons(summary.markup), callback.AdminManagement)

	assert.Nil(t, h.current())
	assert.Equal(t, "batch-test", h.bot.flows.SessionOf(testUser).LastBatchID)
	assert.Contains(t, h.sleeps, 8*time.Second)
}

func TestAddPromoteSkipsAddForExistingMember(t *testing.T) {
	h := newHarness(t, alpha)
	h.groups.members[alpha.ID] = map[string]bool{"628111111111": true}

	h.callback(callback.AddPromoteAdmin)
	h.callback(callback.ToggleGroupPrefix + alpha.ID)
	h.callback(callback.FinishGroupSelection)
	h.text("628111111111")
	h.callback(callback.ConfirmAddPromote)
	h.bot.Wait()

	assert.Equal(t, []string{
		"is_member:g1@g.us:628111111111",
		"promote:g1@g.us:628111111111",
	}, h.groups.callLog())
	assert.Contains(t, h.msg.last().text, "sudah di grup")
}

func TestAddPromoteRejectsInvalidNumbers(t *testing.T) {
	h := newHarness(t, alpha)
	h.callback(callback.AddPromoteAdmin)
	h.callback(callback.ToggleGroupPrefix + alpha.ID)
	h.callback(callback.FinishGroupSelection)

	h.text("628111111111\nabc\n123")
	msg := h.msg.last().text
	assert.True(t, strings.HasPrefix(msg, "❌ Ada nomor yang tidak valid"), msg)
	assert.Contains(t, msg, `Baris 2: "abc" bukan angka`)
	assert.Contains(t, msg, `Baris 3: "123" harus 10-15 digit`)

	f := h.current().(*flow.AddPromoteFlow)
	assert.Equal(t, flow.AddPromoteWaitingAdminNumbers, f.Step())
	assert.Empty(t, f.Admins)

	h.text("628111111111")
	assert.Equal(t, flow.AddPromoteConfirm, f.Step())
}

func TestAddPromoteSearchKeepsSelection(t *testing.T) {
	h := newHarness(t, alpha, beta)
	h.callback(callback.AddPromoteAdmin)
	h.callback(callback.ToggleGroupPrefix + alpha.ID)

	h.callback(callback.SearchGroups)
	assert.Contains(t, h.msg.last().text, "Cari Grup")

	h.text("bet")
	picker := h.msg.last()
	assert.Contains(t, picker.text, "Pencarian: bet")
	assert.Contains(t, picker.text, "Terpilih: 1 grup")
	assert.Contains(t, buttons(picker.markup), callback.ToggleGroupPrefix+beta.ID)
	assert.NotContains(t, buttons(picker.markup), callback.ToggleGroupPrefix+alpha.ID)

	h.callback(callback.SearchGroups)
	h.text("-")
	assert.Contains(t, buttons(h.msg.last().markup), callback.ToggleGroupPrefix+alpha.ID)
}

func TestAddPromoteToggleUnknownGroupIsIgnored(t *testing.T) {
	h := newHarness(t, alpha)
	h.callback(callback.AddPromoteAdmin)
	h.msg.reset()

	h.callback(callback.ToggleGroupPrefix + "stale@g.us")
	assert.Empty(t, h.msg.all())
	assert.Equal(t, 0, h.current().(*flow.AddPromoteFlow).Picker.Selected.Len())
}

func TestBatchReportsProgressOncePerOperation(t *testing.T) {
	h := newHarness(t, alpha, beta)
	h.groups.members[alpha.ID] = map[string]bool{"628111111111": true}
	h.groups.members[beta.ID] = map[string]bool{"628111111111": true}

	h.callback(callback.AddPromoteAdmin)
	h.callback(callback.ToggleGroupPrefix + alpha.ID)
	h.callback(callback.ToggleGroupPrefix + beta.ID)
	h.callback(callback.FinishGroupSelection)
	h.text("628111111111")
	h.callback(callback.ConfirmAddPromote)
	h.bot.Wait()

	for i := 0; i <= 2; i++ {
		assert.Len(t, h.msg.containing(fmt.Sprintf("Progress: %d/2", i)), 1, "progress %d", i)
	}
	assert.Contains(t, h.sleeps, 3*time.Second)
}

func TestBatchRetriesAndCoolsDownAfterRateLimit(t *testing.T) {
	h := newHarness(t, alpha, beta)
	h.groups.members[alpha.ID] = map[string]bool{"628111111111": true}
	h.groups.members[beta.ID] = map[string]bool{"628111111111": true}
	h.groups.failures["promote:g1@g.us:628111111111"] = []error{groups.ErrRateLimited, groups.ErrRateLimited, groups.ErrRateLimited}

	h.callback(callback.AddPromoteAdmin)
	h.callback(callback.ToggleGroupPrefix + alpha.ID)
	h.callback(callback.ToggleGroupPrefix + beta.ID)
	h.callback(callback.FinishGroupSelection)
	h.text("628111111111")
	h.callback(callback.ConfirmAddPromote)
	h.bot.Wait()

	promotes := 0
	for _, c := range h.groups.callLog() {
		if strings.HasPrefix(c, "promote:g1@g.us") {
			promotes++
		}
	}
	assert.Equal(t, 3, promotes)
	assert.Contains(t, h.sleeps, 10*time.Second)

	summary := h.msg.last().text
	assert.Contains(t, summary, "Berhasil: 1")
	assert.Contains(t, summary, "Gagal: 1")
	assert.Nil(t, h.current())
}

func TestCancelAdminFlow(t *testing.T) {
	h := newHarness(t, alpha)
	h.callback(callback.AddPromoteAdmin)

	h.callback(callback.CancelAdminFlow)
	assert.Len(t, h.msg.containing("Proses admin management dibatalkan"), 1)
	assert.Contains(t, h.msg.last().text, "Admin Management")
	assert.Nil(t, h.current())
}

func TestDemoteFlow(t *testing.T) {
	h := newHarness(t, alpha, beta, gamma)
	h.groups.admins[alpha.ID] = []groups.Member{{ID: "628222222222@s.whatsapp.net", IsAdmin: true}}
	h.groups.admins[beta.ID] = []groups.Member{{ID: "628222222222@s.whatsapp.net", IsAdmin: false}}
	h.groups.admins[gamma.ID] = []groups.Member{{ID: "628222222222@s.whatsapp.net", IsAdmin: true}}

	h.callback(callback.DemoteAdmin)
	assert.Contains(t, h.msg.last().text, "Input Nomor Admin untuk Demote")

	h.text("628222222222")
	assert.Contains(t, buttons(h.msg.last().markup), callback.StartSearchAdmin)

	h.callback(callback.StartSearchAdmin)
	h.bot.Wait()
	picker := h.msg.last()
	assert.Contains(t, picker.text, "Ditemukan di 1 grup")
	assert.Contains(t, buttons(picker.markup), callback.ToggleDemotePrefix+alpha.ID)
	assert.NotContains(t, buttons(picker.markup), callback.ToggleDemotePrefix+gamma.ID)

	h.callback(callback.ToggleDemotePrefix + alpha.ID)
	h.callback(callback.FinishDemoteSelection)
	assert.Contains(t, h.msg.last().text, "Konfirmasi Demote Admin")

	h.callback(callback.ConfirmDemote)
	h.bot.Wait()

	assert.Equal(t, []string{"demote:g1@g.us:628222222222"}, h.groups.callLog())
	assert.Contains(t, h.msg.last().text, "Proses Demote Admin Selesai")
	assert.Nil(t, h.current())
}

func TestDemoteSearchFindsNothing(t *testing.T) {
	h := newHarness(t, alpha)
	h.groups.admins[alpha.ID] = []groups.Member{{ID: "628222222222@s.whatsapp.net", IsAdmin: true}}

	h.callback(callback.DemoteAdmin)
	h.text("628999999999")
	h.callback(callback.StartSearchAdmin)
	h.bot.Wait()

	assert.Contains(t, h.msg.last().text, "Admin tidak ditemukan di grup manapun")
	assert.Nil(t, h.current())
}

func TestDemoteSearchResultDroppedAfterCancel(t *testing.T) {
	h := newHarness(t, alpha)
	f := flow.NewDemote()
	f.Admins = []string{"628222222222"}
	require.NoError(t, f.Advance(flow.DemoteSearchAdminInGroups))
	h.bot.flows.Start(testUser, flow.NewContactImport())

	h.bot.finishSearchAdmin(event{userID: testUser, chatID: testUser}, f, []flow.FoundAdmins{{Group: alpha, Numbers: []string{"628222222222"}}}, nil)

	assert.Empty(t, h.msg.all())
	assert.IsType(t, &flow.ContactImportFlow{}, h.current())
}

func TestMatchAdmins(t *testing.T) {
	members := []groups.Member{
		{ID: "628111111111@s.whatsapp.net", IsAdmin: true},
		{ID: "99887766@lid", Phone: "628222222222", IsAdmin: true},
		{ID: "628333333333@s.whatsapp.net", IsAdmin: false},
	}
	got := matchAdmins(members, []string{"628222222222", "628333333333", "628111111111"})
	assert.Equal(t, []string{"628222222222", "628111111111"}, got)
}

func renameGroups() []groups.Group {
	return []groups.Group{
		{ID: "h1", Name: "HK 1"},
		{ID: "h2", Name: "HK 2"},
		{ID: "h3", Name: "HK 3"},
		{ID: "s1", Name: "Solo"},
	}
}

func TestRenameFlow(t *testing.T) {
	h := newHarness(t, renameGroups()...)

	h.callback(callback.RenameGroups)
	assert.Equal(t, []string{callback.SelectBasePrefix + "HK", callback.CancelRename}, buttons(h.msg.last().markup))

	h.callback(callback.SelectBasePrefix + "HK")
	assert.Contains(t, h.msg.last().text, "Nomor yang tersedia: 1, 2, 3")

	h.text("9")
	assert.Contains(t, h.msg.last().text, "Nomor grup 9 tidak ditemukan!")
	f := h.current().(*flow.RenameFlow)
	assert.Equal(t, flow.RenameWaitingStartNumber, f.Step())

	h.text("1")
	assert.Contains(t, h.msg.last().text, "contoh: 3")
	h.text("2")
	h.text("MK")
	h.text("5")

	confirm := h.msg.last().text
	assert.Contains(t, confirm, "Konfirmasi Rename")
	assert.Contains(t, confirm, "HK 1 → MK 5")
	assert.Contains(t, confirm, "HK 2 → MK 6")
	assert.NotContains(t, confirm, "HK 3 →")

	h.callback(callback.ConfirmRename)
	h.bot.Wait()

	assert.Equal(t, []string{"rename:h1:MK 5", "rename:h2:MK 6"}, h.groups.callLog())
	assert.Contains(t, h.sleeps, 5*time.Second)
	assert.Contains(t, h.msg.last().text, "Proses Rename Grup Selesai")
	assert.Nil(t, h.current())
}

func TestRenameRejectsEndBeforeStart(t *testing.T) {
	h := newHarness(t, renameGroups()...)
	h.callback(callback.RenameGroups)
	h.callback(callback.SelectBasePrefix + "HK")
	h.text("2")

	h.text("1")
	assert.Contains(t, h.msg.last().text, "Harus lebih besar atau sama dengan 2")
	assert.Equal(t, flow.RenameWaitingEndNumber, h.current().(*flow.RenameFlow).Step())
}

func TestRenameWithoutClusters(t *testing.T) {
	h := newHarness(t, alpha, beta)

	h.callback(callback.RenameGroups)
	assert.Contains(t, h.msg.last().text, "Tidak ada grup dengan nama dasar yang sama")
	assert.Nil(t, h.current())
}

func TestRenameUnknownBaseIsIgnored(t *testing.T) {
	h := newHarness(t, renameGroups()...)
	h.callback(callback.RenameGroups)
	h.msg.reset()

	h.callback(callback.SelectBasePrefix + "Solo")
	assert.Empty(t, h.msg.all())
	assert.Equal(t, flow.RenameSelectBase, h.current().(*flow.RenameFlow).Step())
}

func TestRenameBaseThatLooksLikeIndex(t *testing.T) {
	h := newHarness(t,
		groups.Group{ID: "n1", Name: "#1 1"},
		groups.Group{ID: "n2", Name: "#1 2"},
		groups.Group{ID: "a1", Name: "Alpha 1"},
		groups.Group{ID: "a2", Name: "Alpha 2"},
	)
	h.callback(callback.RenameGroups)
	assert.Equal(t, []string{callback.SelectBasePrefix + "#1", callback.SelectBasePrefix + "Alpha", callback.CancelRename}, buttons(h.msg.last().markup))

	h.callback(callback.SelectBasePrefix + "#1")
	f := h.current().(*flow.RenameFlow)
	assert.Equal(t, flow.RenameWaitingStartNumber, f.Step())
	assert.Equal(t, "#1", f.Cluster.Base)
	assert.Contains(t, h.msg.last().text, "#1 2")
	assert.NotContains(t, h.msg.last().text, "Alpha")
}

func TestRenameLongBaseSelectedByIndex(t *testing.T) {
	long := strings.Repeat("Kelas Panjang ", 5)
	h := newHarness(t,
		groups.Group{ID: "k1", Name: long + "1"},
		groups.Group{ID: "k2", Name: long + "2"},
	)
	h.callback(callback.RenameGroups)
	assert.Equal(t, []string{callback.SelectBaseIndexPrefix + "0", callback.CancelRename}, buttons(h.msg.last().markup))

	h.msg.reset()
	h.callback(callback.SelectBaseIndexPrefix + "3")
	assert.Empty(t, h.msg.all())
	assert.Equal(t, flow.RenameSelectBase, h.current().(*flow.RenameFlow).Step())

	h.callback(callback.SelectBaseIndexPrefix + "0")
	f := h.current().(*flow.RenameFlow)
	assert.Equal(t, flow.RenameWaitingStartNumber, f.Step())
	assert.Equal(t, strings.TrimSpace(long), f.Cluster.Base)
}

func TestCancelRename(t *testing.T) {
	h := newHarness(t, renameGroups()...)
	h.callback(callback.RenameGroups)

	h.callback(callback.CancelRename)
	assert.Len(t, h.msg.containing("Rename dibatalkan"), 1)
	assert.Nil(t, h.current())
}

func startContactFile(h *harness) {
	h.callback(callback.AddContact)
	h.callback(callback.AddContactFile)
}

func TestContactImportFromFile(t *testing.T) {
	h := newHarness(t, alpha, beta)
	h.msg.files["f1"] = []byte("628111111111\r\n\n628122222222\n628111111111\n")
	h.groups.failures["add:g1@g.us:628122222222"] = []error{groups.ErrAlreadyMember}

	startContactFile(h)
	assert.Contains(t, h.msg.last().text, "Upload File .txt")

	h.document("f1", "nomor.txt", 64)
	assert.Len(t, h.msg.containing("Memproses file"), 1)
	accepted := h.msg.last().text
	assert.Contains(t, accepted, "2 nomor valid ditemukan")
	assert.Contains(t, accepted, "1 nomor duplikat diabaikan")

	h.callback(callback.ConfirmContactNumbers)
	assert.Contains(t, h.msg.last().text, "Pilih Grup untuk Tambah Kontak")

	h.callback(callback.ToggleContactGroupPrefix + alpha.ID)
	h.callback(callback.FinishContactSelection)
	assert.Contains(t, h.msg.last().text, "Total operasi: 2")

	h.callback(callback.ConfirmAddContact)
	h.bot.Wait()

	assert.Equal(t, []string{"add:g1@g.us:628111111111", "add:g1@g.us:628122222222"}, h.groups.callLog())
	summary := h.msg.last().text
	assert.Contains(t, summary, "Berhasil: 2")
	assert.Contains(t, summary, "Gagal: 0")
	assert.Contains(t, summary, "628122222222 sudah ada di grup")
	assert.Nil(t, h.current())
}

func TestContactImportFromChat(t *testing.T) {
	h := newHarness(t, alpha)
	h.callback(callback.AddContact)
	h.callback(callback.AddContactChat)

	h.text("628111111111")
	assert.Contains(t, h.msg.last().text, "1 nomor valid ditemukan")
	assert.Equal(t, flow.ContactConfirmNumbers, h.current().(*flow.ContactImportFlow).Step())
}

func TestContactFileValidation(t *testing.T) {
	h := newHarness(t, alpha)
	startContactFile(h)

	h.document("f1", "nomor.csv", 64)
	assert.Contains(t, h.msg.last().text, "File harus berformat .txt!")

	h.document("f1", "nomor.txt", 6*1024*1024)
	assert.Contains(t, h.msg.last().text, "File terlalu besar! Maksimal 5MB.")

	h.text("628111111111")
	assert.Contains(t, h.msg.last().text, "Kirim file .txt ya")

	assert.Equal(t, flow.ContactWaitingFile, h.current().(*flow.ContactImportFlow).Step())
}

func TestContactFileErrorsAreTruncated(t *testing.T) {
	h := newHarness(t, alpha)
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("x%d", i))
	}
	h.msg.files["bad"] = []byte(strings.Join(lines, "\n"))
	startContactFile(h)

	h.document("bad", "nomor.txt", 64)
	msg := h.msg.last().text
	assert.Contains(t, msg, "Ada error dalam file")
	assert.Contains(t, msg, "Baris 10:")
	assert.NotContains(t, msg, "Baris 11:")
	assert.Contains(t, msg, "... dan 2 error lainnya")
	assert.Equal(t, flow.ContactWaitingFile, h.current().(*flow.ContactImportFlow).Step())
}

func TestContactFileDownloadRunsOffUpdateLoop(t *testing.T) {
	h := newHarness(t, alpha)
	h.msg.files["f1"] = []byte("628111111111\n")
	startContactFile(h)
	gate := make(chan struct{})
	h.msg.gate = gate

	h.bot.HandleUpdate(documentUpdate("f1", "nomor.txt", 64))
	assert.Contains(t, h.msg.last().text, "Memproses file")
	assert.Equal(t, flow.ContactWaitingFile, h.current().(*flow.ContactImportFlow).Step())

	close(gate)
	h.bot.Wait()
	assert.Equal(t, flow.ContactConfirmNumbers, h.current().(*flow.ContactImportFlow).Step())
	assert.Contains(t, h.msg.last().text, "1 nomor valid ditemukan")
}

func TestContactFileDroppedAfterCancel(t *testing.T) {
	h := newHarness(t, alpha)
	h.msg.files["f1"] = []byte("628111111111\n")
	startContactFile(h)
	gate := make(chan struct{})
	h.msg.gate = gate

	h.bot.HandleUpdate(documentUpdate("f1", "nomor.txt", 64))
	h.bot.HandleUpdate(callbackUpdate(callback.CancelContactFlow))
	assert.Nil(t, h.current())

	close(gate)
	h.bot.Wait()
	assert.Nil(t, h.current())
	assert.Empty(t, h.msg.containing("nomor valid ditemukan"))
}

func TestContactFileWithoutNumbers(t *testing.T) {
	h := newHarness(t, alpha)
	h.msg.files["empty"] = []byte("\n\n")
	startContactFile(h)

	h.document("empty", "nomor.txt", 2)
	assert.Contains(t, h.msg.last().text, "Tidak ada nomor valid yang ditemukan dalam file!")
}

func TestDocumentWithoutWorkflow(t *testing.T) {
	h := newHarness(t, alpha)

	h.document("f1", "nomor.txt", 64)
	assert.Equal(t, msgUseMenu, h.msg.last().text)
}

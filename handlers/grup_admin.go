package handlers

import (
	"context"
	"fmt"
	"strings"

	"whatsapp-bot/internal/batch"
	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/phone"
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"
)

const addPromoteTitle = "Pilih Grup untuk Add/Promote Admin"

// lockAddPromote mengunci user dan mengambil workflow add/promote aktif
func (b *Bot) lockAddPromote(ev event) (*flow.UserState, *flow.AddPromoteFlow, error) {
	u := b.flows.Lock(ev.userID)
	f, ok := flow.Lookup[*flow.AddPromoteFlow](u)
	if !ok {
		u.Unlock()
		return nil, nil, utils.NewFlowConsistencyError("tidak ada workflow add/promote")
	}
	return u, f, nil
}

func (b *Bot) renderAdminPicker(ev event, f *flow.AddPromoteFlow) {
	text, keyboard := ui.GroupPicker(addPromoteTitle, &f.Picker, b.settings.PageSize, ui.AdminPickerTokens)
	b.render(ev, text, &keyboard)
}

func (b *Bot) startAddPromote(ev event) error {
	if !b.requireConnected(ev) {
		return nil
	}
	prev := b.flows.Current(ev.userID)
	b.background(ev, "memuat grup add/promote", func() error {
		gs, ok, err := b.loadGroups(&ev)
		if err != nil || !ok {
			return err
		}

		f := flow.NewAddPromote(gs)
		u, err := b.lockUnchanged(ev.userID, prev)
		if err != nil {
			return err
		}
		defer u.Unlock()
		u.SetFlow(f)
		b.renderAdminPicker(ev, f)
		return nil
	})
	return nil
}

func (b *Bot) toggleAdminGroup(ev event, groupID string) error {
	u, f, err := b.lockAddPromote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Step() != flow.AddPromoteSelectGroups {
		return utils.NewFlowConsistencyError("toggle grup di step %s", f.StepName())
	}
	if _, err := f.Picker.Toggle(groupID); err != nil {
		return err
	}
	b.renderAdminPicker(ev, f)
	return nil
}

func (b *Bot) adminGroupsPage(ev event, page int) error {
	u, f, err := b.lockAddPromote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Step() != flow.AddPromoteSelectGroups {
		return utils.NewFlowConsistencyError("pindah halaman di step %s", f.StepName())
	}
	f.Picker.Page = page
	b.renderAdminPicker(ev, f)
	return nil
}

func (b *Bot) searchAdminGroups(ev event) error {
	u, f, err := b.lockAddPromote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if err := f.Advance(flow.AddPromoteWaitingSearchQuery); err != nil {
		return err
	}
	keyboard := ui.CancelKeyboard(callback.CancelAdminFlow)
	b.render(ev, searchPrompt, &keyboard)
	return nil
}

const searchPrompt = "🔍 *Cari Grup*\n\n" +
	"Kirim kata kunci nama grup yang dicari.\n" +
	"Kirim `-` untuk menampilkan semua grup lagi.\n\n" +
	"ℹ️ Grup yang sudah dipilih tetap tersimpan."

// applySearch mengembalikan picker ke langkah pilih grup dengan query baru
func applySearch(p *flow.GroupPicker, text string) {
	if text == "-" {
		text = ""
	}
	p.SetQuery(text)
}

func (b *Bot) finishAdminGroupSelection(ev event) error {
	u, f, err := b.lockAddPromote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Picker.Selected.Len() == 0 {
		return utils.NewFlowConsistencyError("selesai tanpa grup terpilih")
	}
	if err := f.Advance(flow.AddPromoteWaitingAdminNumbers); err != nil {
		return err
	}

	text := fmt.Sprintf("📝 *Input Nomor Admin*\n\n"+
		"✅ Grup terpilih: %d\n\n"+
		"Kirim nomor admin, satu nomor per baris:\n"+
		"```\n628123456789\n628987654321\n```\n"+
		"ℹ️ Nomor harus angka saja, %d-%d digit.", f.Picker.Selected.Len(), phone.MinDigits, phone.MaxDigits)
	keyboard := ui.CancelKeyboard(callback.CancelAdminFlow)
	b.render(ev, text, &keyboard)
	return nil
}

func (b *Bot) addPromoteText(ev event, text string) error {
	u, f, err := b.lockAddPromote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()

	switch f.Step() {
	case flow.AddPromoteWaitingSearchQuery:
		if err := f.Advance(flow.AddPromoteSelectGroups); err != nil {
			return err
		}
		applySearch(&f.Picker, text)
		b.renderAdminPicker(ev, f)
		return nil

	case flow.AddPromoteWaitingAdminNumbers:
		numbers, dups, err := parseNumbers(text)
		if err != nil {
			return err
		}
		if err := f.Advance(flow.AddPromoteConfirm); err != nil {
			return err
		}
		f.Admins, f.Duplicates = numbers, dups

		keyboard := ui.ConfirmKeyboard("✅ Lanjutkan Add/Promote", callback.ConfirmAddPromote, callback.CancelAdminFlow)
		b.send(ev.chatID, addPromoteConfirmation(f), &keyboard)
		return nil
	}
	return errTextOutOfStep(f.Step())
}

// errTextOutOfStep teks di step yang hanya menerima tombol
func errTextOutOfStep(step fmt.Stringer) error {
	return utils.NewFlowConsistencyError("teks tidak diharapkan di step %s", step)
}

// parseNumbers validasi semua-atau-tidak-sama-sekali lalu buang duplikat
func parseNumbers(text string) ([]string, int, error) {
	res := phone.Parse(text)
	if !res.OK() {
		return nil, 0, utils.NewValidationError("Ada nomor yang tidak valid:\n\n"+res.Summary(0), "Perbaiki lalu kirim ulang semua nomor.")
	}
	if len(res.Numbers) == 0 {
		return nil, 0, utils.NewValidationError("Tidak ada nomor yang dikirim!", "Kirim minimal satu nomor.")
	}
	numbers, dups := phone.Dedup(res.Numbers)
	return numbers, dups, nil
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("• " + ui.Escape(it) + "\n")
	}
	return b.String()
}

func addPromoteConfirmation(f *flow.AddPromoteFlow) string {
	selected := f.Picker.SelectedGroups()
	names := make([]string, len(selected))
	for i, g := range selected {
		names[i] = g.Name
	}

	var b strings.Builder
	b.WriteString("🔍 *Konfirmasi Add/Promote Admin*\n\n")
	fmt.Fprintf(&b, "📋 *Grup (%d):*\n%s\n", len(selected), bulletList(names))
	fmt.Fprintf(&b, "👤 *Admin (%d):*\n%s\n", len(f.Admins), bulletList(f.Admins))
	if f.Duplicates > 0 {
		fmt.Fprintf(&b, "ℹ️ %d nomor duplikat diabaikan.\n", f.Duplicates)
	}
	fmt.Fprintf(&b, "📊 Total operasi: %d\n\n", len(selected)*len(f.Admins))
	b.WriteString("⚠️ Proses ini tidak bisa dibatalkan!\n")
	b.WriteString("ℹ️ Jika admin belum ada di grup, akan di-add dulu kemudian di-promote.")
	return b.String()
}

func (b *Bot) confirmAddPromote(ev event) error {
	u, f, err := b.lockAddPromote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if !b.requireConnected(ev) {
		return nil
	}
	if err := f.Advance(flow.AddPromoteExecuting); err != nil {
		return err
	}

	var ops []batch.Operation
	for _, g := range f.Picker.SelectedGroups() {
		for _, admin := range f.Admins {
			ops = append(ops, batch.Operation{GroupID: g.ID, GroupName: g.Name, Target: admin, Kind: batch.KindAddPromote})
		}
	}

	owner := ev.userID
	exec := b.newExecutor(func(ctx context.Context, op batch.Operation) error {
		return b.groups.PromoteMember(ctx, owner, op.GroupID, op.Target)
	}, batch.AddPromoteLine)
	exec.Precheck = func(ctx context.Context, op batch.Operation) (bool, error) {
		return b.groups.IsMember(ctx, owner, op.GroupID, op.Target)
	}
	exec.Prerequisite = func(ctx context.Context, op batch.Operation) error {
		return b.groups.AddMember(ctx, owner, op.GroupID, op.Target)
	}
	exec.PrerequisiteSettle = b.settings.AddSettle()

	b.startBatch(u, ev, batchJob{
		flow:   f,
		title:  "Add/Promote Admin",
		action: utils.ActionAddPromote,
		ops:    ops,
		exec:   exec,
		done:   ui.AdminDoneKeyboard(),
	})
	return nil
}

// cancelAdminFlow tombol batal untuk workflow add/promote dan demote
func (b *Bot) cancelAdminFlow(ev event) error {
	if !b.cancelFlow(ev, flow.KindAddPromote, flow.KindDemote) {
		return utils.NewFlowConsistencyError("tidak ada workflow admin yang bisa dibatalkan")
	}
	b.render(ev, "✅ Proses admin management dibatalkan!", nil)
	ev.isCallback = false
	return b.showAdminMenu(ev)
}

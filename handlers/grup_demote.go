package handlers

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"whatsapp-bot/internal/batch"
	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/internal/phone"
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// searchConcurrency jumlah grup yang dicek bersamaan saat mencari admin
const searchConcurrency = 3

func (b *Bot) lockDemote(ev event) (*flow.UserState, *flow.DemoteFlow, error) {
	u := b.flows.Lock(ev.userID)
	f, ok := flow.Lookup[*flow.DemoteFlow](u)
	if !ok {
		u.Unlock()
		return nil, nil, utils.NewFlowConsistencyError("tidak ada workflow demote")
	}
	return u, f, nil
}

func (b *Bot) startDemote(ev event) error {
	if !b.requireConnected(ev) {
		return nil
	}
	b.flows.Start(ev.userID, flow.NewDemote())

	text := fmt.Sprintf("📝 *Input Nomor Admin untuk Demote*\n\n"+
		"Kirim nomor admin yang mau di-demote, satu nomor per baris:\n"+
		"```\n628123456789\n628987654321\n```\n"+
		"ℹ️ Bot akan mencari admin tersebut di semua grup (%d-%d digit, angka saja).", phone.MinDigits, phone.MaxDigits)
	keyboard := ui.CancelKeyboard(callback.CancelAdminFlow)
	b.render(ev, text, &keyboard)
	return nil
}

func (b *Bot) demoteText(ev event, text string) error {
	u, f, err := b.lockDemote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Step() != flow.DemoteWaitingAdminNumbers {
		return errTextOutOfStep(f.Step())
	}

	numbers, dups, err := parseNumbers(text)
	if err != nil {
		return err
	}
	f.Admins, f.Duplicates = numbers, dups

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ *%d nomor admin diterima:*\n%s\n", len(numbers), bulletList(numbers))
	if dups > 0 {
		fmt.Fprintf(&sb, "ℹ️ %d nomor duplikat diabaikan.\n\n", dups)
	}
	sb.WriteString("Klik tombol di bawah untuk mencari admin di semua grup.")
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Mulai Cari Admin", callback.StartSearchAdmin),
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", callback.CancelAdminFlow),
		),
	)
	b.send(ev.chatID, sb.String(), &keyboard)
	return nil
}

// startSearchAdmin pindah ke step pencarian lalu mencari di background supaya
// dispatcher tidak tertahan selama pencarian berjalan
func (b *Bot) startSearchAdmin(ev event) error {
	u, f, err := b.lockDemote(ev)
	if err != nil {
		return err
	}
	if len(f.Admins) == 0 {
		u.Unlock()
		return utils.NewFlowConsistencyError("cari admin tanpa nomor")
	}
	if err := f.Advance(flow.DemoteSearchAdminInGroups); err != nil {
		u.Unlock()
		return err
	}
	admins := append([]string(nil), f.Admins...)
	u.Unlock()

	b.render(ev, "⏳ Mencari admin di semua grup...", nil)

	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.GetLogger().Error("Panic saat mencari admin: %v\n%s", r, debug.Stack())
				b.flows.ClearIf(ev.userID, f)
				b.send(ev.chatID, msgGenericError, nil)
			}
		}()
		found, err := b.searchAdmins(ev.userID, admins)
		b.finishSearchAdmin(ev, f, found, err)
	}()
	return nil
}

// searchAdmins mencari nomor admin di setiap grup tempat akun bot menjadi admin.
// Grup yang gagal dicek dilewati.
func (b *Bot) searchAdmins(owner int64, admins []string) ([]flow.FoundAdmins, error) {
	gs, err := b.groups.ListGroups(b.ctx, owner)
	if err != nil {
		return nil, err
	}
	utils.SortNaturally(gs, func(g groups.Group) string { return g.Name })

	results := make([][]string, len(gs))
	g, ctx := errgroup.WithContext(b.ctx)
	g.SetLimit(searchConcurrency)
	for i, group := range gs {
		if !group.IsAdmin {
			continue
		}
		g.Go(func() error {
			members, err := b.groups.ListGroupAdmins(ctx, owner, group.ID)
			if err != nil {
				if errors.Is(err, groups.ErrNotConnected) || ctx.Err() != nil {
					return err
				}
				utils.GetLogger().Warn("Gagal cek admin grup %s: %v", group.Name, err)
				return nil
			}
			results[i] = matchAdmins(members, admins)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var found []flow.FoundAdmins
	for i, numbers := range results {
		if len(numbers) > 0 {
			found = append(found, flow.FoundAdmins{Group: gs[i], Numbers: numbers})
		}
	}
	return found, nil
}

// matchAdmins nomor input yang menjadi admin, urut sesuai input
func matchAdmins(members []groups.Member, admins []string) []string {
	var out []string
	for _, n := range admins {
		for _, m := range members {
			if m.IsAdmin && m.MatchesNumber(n) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func (b *Bot) finishSearchAdmin(ev event, f *flow.DemoteFlow, found []flow.FoundAdmins, searchErr error) {
	u := b.flows.Lock(ev.userID)
	defer u.Unlock()
	if u.Flow() != f || f.Step() != flow.DemoteSearchAdminInGroups {
		utils.GetLogger().Debug("Hasil pencarian admin user %d dibuang, workflow sudah berubah", ev.userID)
		return
	}

	if searchErr != nil {
		u.ClearFlow()
		b.report(ev, searchErr)
		return
	}
	if len(found) == 0 {
		u.ClearFlow()
		keyboard := ui.AdminDoneKeyboard()
		b.render(ev, "❌ Admin tidak ditemukan di grup manapun!", &keyboard)
		return
	}

	if err := f.Advance(flow.DemoteSelectGroups); err != nil {
		b.report(ev, err)
		return
	}
	f.SetFound(found)
	b.renderDemotePicker(ev, f)
}

func (b *Bot) renderDemotePicker(ev event, f *flow.DemoteFlow) {
	text, keyboard := ui.DemotePicker(f, b.settings.PageSize)
	b.render(ev, text, &keyboard)
}

func (b *Bot) toggleDemoteGroup(ev event, groupID string) error {
	u, f, err := b.lockDemote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Step() != flow.DemoteSelectGroups {
		return utils.NewFlowConsistencyError("toggle grup demote di step %s", f.StepName())
	}
	if _, err := f.Toggle(groupID); err != nil {
		return err
	}
	b.renderDemotePicker(ev, f)
	return nil
}

func (b *Bot) demotePage(ev event, page int) error {
	u, f, err := b.lockDemote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Step() != flow.DemoteSelectGroups {
		return utils.NewFlowConsistencyError("pindah halaman demote di step %s", f.StepName())
	}
	f.Page = page
	b.renderDemotePicker(ev, f)
	return nil
}

func (b *Bot) finishDemoteSelection(ev event) error {
	u, f, err := b.lockDemote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Selected.Len() == 0 {
		return utils.NewFlowConsistencyError("demote tanpa grup terpilih")
	}
	if err := f.Advance(flow.DemoteConfirm); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("🔍 *Konfirmasi Demote Admin*\n\n")
	total := 0
	selected := f.SelectedFound()
	fmt.Fprintf(&sb, "📋 *Grup (%d):*\n", len(selected))
	for _, fa := range selected {
		fmt.Fprintf(&sb, "• %s: %s\n", ui.Escape(fa.Group.Name), strings.Join(fa.Numbers, ", "))
		total += len(fa.Numbers)
	}
	fmt.Fprintf(&sb, "\n📊 Total operasi: %d\n\n", total)
	sb.WriteString("⚠️ Proses ini tidak bisa dibatalkan!")

	keyboard := ui.ConfirmKeyboard("✅ Lanjutkan Demote", callback.ConfirmDemote, callback.CancelAdminFlow)
	b.render(ev, sb.String(), &keyboard)
	return nil
}

func (b *Bot) confirmDemote(ev event) error {
	u, f, err := b.lockDemote(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if !b.requireConnected(ev) {
		return nil
	}
	if err := f.Advance(flow.DemoteExecuting); err != nil {
		return err
	}

	var ops []batch.Operation
	for _, fa := range f.SelectedFound() {
		for _, n := range fa.Numbers {
			ops = append(ops, batch.Operation{GroupID: fa.Group.ID, GroupName: fa.Group.Name, Target: n, Kind: batch.KindDemote})
		}
	}

	owner := ev.userID
	exec := b.newExecutor(func(ctx context.Context, op batch.Operation) error {
		return b.groups.DemoteMember(ctx, owner, op.GroupID, op.Target)
	}, batch.DemoteLine)

	b.startBatch(u, ev, batchJob{
		flow:   f,
		title:  "Demote Admin",
		action: utils.ActionDemote,
		ops:    ops,
		exec:   exec,
		done:   ui.AdminDoneKeyboard(),
	})
	return nil
}

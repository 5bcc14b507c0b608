package handlers

import (
	"context"
	"fmt"
	"strings"

	"whatsapp-bot/internal/batch"
	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/naming"
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// renamePreviewLimit baris preview maksimal di pesan konfirmasi
const renamePreviewLimit = 20

func (b *Bot) lockRename(ev event) (*flow.UserState, *flow.RenameFlow, error) {
	u := b.flows.Lock(ev.userID)
	f, ok := flow.Lookup[*flow.RenameFlow](u)
	if !ok {
		u.Unlock()
		return nil, nil, utils.NewFlowConsistencyError("tidak ada workflow rename")
	}
	return u, f, nil
}

func (b *Bot) startRename(ev event) error {
	if !b.requireConnected(ev) {
		return nil
	}
	prev := b.flows.Current(ev.userID)
	b.background(ev, "memuat grup rename", func() error {
		gs, ok, err := b.loadGroups(&ev)
		if err != nil || !ok {
			return err
		}

		f := flow.NewRename(gs)
		u, err := b.lockUnchanged(ev.userID, prev)
		if err != nil {
			return err
		}
		defer u.Unlock()
		if len(f.Clusters) == 0 {
			keyboard := tgbotapi.NewInlineKeyboardMarkup(ui.BackRow())
			b.render(ev, "❌ Tidak ada grup dengan nama dasar yang sama!\n\nContoh: \"HK 1\", \"HK 2\" akan dikelompokkan sebagai \"HK\"", &keyboard)
			return nil
		}
		u.SetFlow(f)

		var rows [][]tgbotapi.InlineKeyboardButton
		for i, c := range f.Clusters {
			label := fmt.Sprintf("%s (%d grup)", c.Base, len(c.Members))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, callback.SelectBase(c.Base, i)),
			))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", callback.CancelRename),
		))
		keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
		b.render(ev, "📝 *Pilih kelompok grup yang mau di-rename:*", &keyboard)
		return nil
	})
	return nil
}

func (b *Bot) selectRenameBase(ev event, base string) error {
	return b.chooseRenameBase(ev, func(*flow.RenameFlow) (string, bool) { return base, true })
}

// selectRenameBaseIndex pilihan lewat token indeks untuk nama dasar yang panjang
func (b *Bot) selectRenameBaseIndex(ev event, index int) error {
	return b.chooseRenameBase(ev, func(f *flow.RenameFlow) (string, bool) {
		if index < 0 || index >= len(f.Clusters) {
			return "", false
		}
		return f.Clusters[index].Base, true
	})
}

func (b *Bot) chooseRenameBase(ev event, pick func(*flow.RenameFlow) (string, bool)) error {
	u, f, err := b.lockRename(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	base, ok := pick(f)
	if !ok {
		return utils.NewFlowConsistencyError("indeks kelompok tidak dikenal")
	}
	if err := f.SelectBase(base); err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *Grup \"%s\":*\n", ui.Escape(f.Cluster.Base))
	for _, m := range f.Cluster.Members {
		sb.WriteString("• " + ui.Escape(m.Group.Name) + "\n")
	}
	fmt.Fprintf(&sb, "\n🔢 Nomor yang tersedia: %s\n\n", naming.FormatSuffixes(f.Cluster.Suffixes()))
	sb.WriteString("📝 Kirim nomor awal grup yang mau di-rename (contoh: 1):")
	keyboard := ui.CancelKeyboard(callback.CancelRename)
	b.render(ev, sb.String(), &keyboard)
	return nil
}

func (b *Bot) renameText(ev event, text string) error {
	u, f, err := b.lockRename(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	cancel := ui.CancelKeyboard(callback.CancelRename)

	switch f.Step() {
	case flow.RenameWaitingStartNumber:
		n, err := naming.ParseStart(f.Cluster, text)
		if err != nil {
			return err
		}
		if err := f.Advance(flow.RenameWaitingEndNumber); err != nil {
			return err
		}
		f.Start = n
		b.send(ev.chatID, fmt.Sprintf("📝 Kirim nomor akhir (contoh: %d):", lastSuffix(f.Cluster, n)), &cancel)

	case flow.RenameWaitingEndNumber:
		n, err := naming.ParseEnd(f.Cluster, f.Start, text)
		if err != nil {
			return err
		}
		if err := f.Advance(flow.RenameWaitingNewName); err != nil {
			return err
		}
		f.End = n
		b.send(ev.chatID, "💬 Kirim nama grup baru (tanpa nomor, contoh: \"MK\"):", &cancel)

	case flow.RenameWaitingNewName:
		name, err := naming.ParseNewName(text)
		if err != nil {
			return err
		}
		if err := f.Advance(flow.RenameWaitingStartNumbering); err != nil {
			return err
		}
		f.NewName = name
		b.send(ev.chatID, "🔢 Kirim nomor mulai penomoran baru (contoh: 1):", &cancel)

	case flow.RenameWaitingStartNumbering:
		n, err := naming.ParseOffset(text)
		if err != nil {
			return err
		}
		if err := f.Advance(flow.RenameConfirm); err != nil {
			return err
		}
		f.Offset = n
		keyboard := ui.ConfirmKeyboard("✅ Lanjutkan Rename", callback.ConfirmRename, callback.CancelRename)
		b.send(ev.chatID, renameConfirmation(f), &keyboard)

	default:
		return errTextOutOfStep(f.Step())
	}
	return nil
}

// lastSuffix suffix terbesar di cluster, minimal start
func lastSuffix(c naming.Cluster, start int) int {
	last := start
	for _, n := range c.Suffixes() {
		if n > last {
			last = n
		}
	}
	return last
}

func renameConfirmation(f *flow.RenameFlow) string {
	plan := f.Plan()

	var sb strings.Builder
	sb.WriteString("🔄 *Konfirmasi Rename:*\n\n")
	fmt.Fprintf(&sb, "📋 Base Name: %s\n", ui.Escape(f.Cluster.Base))
	fmt.Fprintf(&sb, "🔢 Range: %d - %d\n", f.Start, f.End)
	fmt.Fprintf(&sb, "📊 Total: %d grup\n", len(plan))
	fmt.Fprintf(&sb, "💬 Nama Baru: %s\n", ui.Escape(f.NewName))
	fmt.Fprintf(&sb, "🔢 Mulai Numbering: %d\n\n", f.Offset)
	sb.WriteString("*Preview:*\n")
	for i, r := range plan {
		if i == renamePreviewLimit {
			fmt.Fprintf(&sb, "... dan %d grup lainnya\n", len(plan)-i)
			break
		}
		fmt.Fprintf(&sb, "• %s → %s\n", ui.Escape(r.Group.Name), ui.Escape(r.NewName))
	}
	sb.WriteString("\n⚠️ Proses ini tidak bisa dibatalkan!")
	return sb.String()
}

func (b *Bot) confirmRename(ev event) error {
	u, f, err := b.lockRename(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if !b.requireConnected(ev) {
		return nil
	}
	if err := f.Advance(flow.RenameExecuting); err != nil {
		return err
	}

	plan := f.Plan()
	ops := make([]batch.Operation, 0, len(plan))
	for _, r := range plan {
		ops = append(ops, batch.Operation{GroupID: r.Group.ID, GroupName: r.Group.Name, Target: r.NewName, Kind: batch.KindRename})
	}

	owner := ev.userID
	exec := b.newExecutor(func(ctx context.Context, op batch.Operation) error {
		return b.groups.RenameGroup(ctx, owner, op.GroupID, op.Target)
	}, batch.RenameLine)
	exec.OperationDelay = b.settings.RenameDelay()

	b.startBatch(u, ev, batchJob{
		flow:   f,
		title:  "Rename Grup",
		action: utils.ActionRename,
		ops:    ops,
		exec:   exec,
		done:   ui.RenameDoneKeyboard(),
	})
	return nil
}

func (b *Bot) cancelRename(ev event) error {
	if !b.cancelFlow(ev, flow.KindRename) {
		return utils.NewFlowConsistencyError("tidak ada workflow rename yang bisa dibatalkan")
	}
	b.render(ev, "✅ Rename dibatalkan!", nil)
	ev.isCallback = false
	return b.showMainMenu(ev)
}

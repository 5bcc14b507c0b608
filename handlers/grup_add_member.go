package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"whatsapp-bot/internal/batch"
	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/phone"
	"whatsapp-bot/ui"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	contactPickerTitle = "Pilih Grup untuk Tambah Kontak"
	// contactPreviewLimit nomor maksimal yang ditampilkan di pesan konfirmasi
	contactPreviewLimit = 20
)

func (b *Bot) lockContact(ev event) (*flow.UserState, *flow.ContactImportFlow, error) {
	u := b.flows.Lock(ev.userID)
	f, ok := flow.Lookup[*flow.ContactImportFlow](u)
	if !ok {
		u.Unlock()
		return nil, nil, utils.NewFlowConsistencyError("tidak ada workflow tambah kontak")
	}
	return u, f, nil
}

func (b *Bot) startContactImport(ev event) error {
	if !b.requireConnected(ev) {
		return nil
	}
	b.flows.Start(ev.userID, flow.NewContactImport())

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Kirim via Chat", callback.AddContactChat),
			tgbotapi.NewInlineKeyboardButtonData("📄 Upload File .txt", callback.AddContactFile),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", callback.CancelContactFlow),
		),
	)
	b.render(ev, "📇 *Tambah Kontak ke Grup*\n\nPilih cara input nomor kontak:", &keyboard)
	return nil
}

func (b *Bot) chooseContactSource(ev event, fromFile bool) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()

	next := flow.ContactWaitingNumbers
	if fromFile {
		next = flow.ContactWaitingFile
	}
	if err := f.Advance(next); err != nil {
		return err
	}
	f.FromFile = fromFile

	var text string
	if fromFile {
		text = fmt.Sprintf("📄 *Upload File .txt*\n\n"+
			"Kirim file .txt berisi nomor, satu nomor per baris.\n"+
			"ℹ️ Maksimal %dMB, nomor %d-%d digit angka saja.", b.settings.MaxUploadMB, phone.MinDigits, phone.MaxDigits)
	} else {
		text = fmt.Sprintf("💬 *Kirim Nomor Kontak*\n\n"+
			"Kirim nomor, satu nomor per baris:\n"+
			"```\n628123456789\n628987654321\n```\n"+
			"ℹ️ Nomor harus angka saja, %d-%d digit.", phone.MinDigits, phone.MaxDigits)
	}
	keyboard := ui.CancelKeyboard(callback.CancelContactFlow)
	b.render(ev, text, &keyboard)
	return nil
}

func (b *Bot) contactText(ev event, text string) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()

	switch f.Step() {
	case flow.ContactWaitingNumbers:
		numbers, dups, err := parseNumbers(text)
		if err != nil {
			return err
		}
		return b.acceptContactNumbers(ev, f, numbers, dups)

	case flow.ContactWaitingSearchQuery:
		if err := f.Advance(flow.ContactSelectGroups); err != nil {
			return err
		}
		applySearch(&f.Picker, text)
		b.renderContactPicker(ev, f)
		return nil

	case flow.ContactWaitingFile:
		b.send(ev.chatID, "📄 Kirim file .txt ya, bukan teks.", nil)
		return nil
	}
	return errTextOutOfStep(f.Step())
}

// contactFile memproses file .txt. Download berjalan di background tanpa
// memegang kunci user, lalu workflow dicek ulang sebelum hasilnya dipakai.
func (b *Bot) contactFile(ev event, doc *tgbotapi.Document) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	if f.Step() != flow.ContactWaitingFile {
		step := f.Step()
		u.Unlock()
		return utils.NewFlowConsistencyError("file tidak diharapkan di step %s", step)
	}
	u.Unlock()

	if !strings.EqualFold(filepath.Ext(doc.FileName), ".txt") {
		return utils.NewValidationError("File harus berformat .txt!", "")
	}
	maxBytes := b.settings.MaxUploadBytes()
	tooBig := utils.NewValidationError(fmt.Sprintf("File terlalu besar! Maksimal %dMB.", b.settings.MaxUploadMB), "")
	if int64(doc.FileSize) > maxBytes {
		return tooBig
	}

	b.send(ev.chatID, "⏳ Memproses file...", nil)
	b.background(ev, "memproses file kontak", func() error {
		content, err := b.msg.DownloadFile(doc.FileID, maxBytes)
		if err != nil {
			if utils.IsKind(err, utils.KindValidation) {
				return tooBig
			}
			return utils.WrapError(err, utils.KindTransient, "gagal download file")
		}
		res := phone.ParseFile(content)

		u := b.flows.Lock(ev.userID)
		defer u.Unlock()
		if u.Flow() != f || f.Step() != flow.ContactWaitingFile {
			return utils.NewFlowConsistencyError("workflow berubah saat memproses file")
		}
		if !res.OK() {
			return utils.NewValidationError("Ada error dalam file:\n\n"+res.Summary(phone.FileDiagnosticLimit), "Perbaiki file lalu upload ulang.")
		}
		if len(res.Numbers) == 0 {
			return utils.NewValidationError("Tidak ada nomor valid yang ditemukan dalam file!", "")
		}
		numbers, dups := phone.Dedup(res.Numbers)
		return b.acceptContactNumbers(ev, f, numbers, dups)
	})
	return nil
}

// acceptContactNumbers menyimpan nomor lalu meminta konfirmasi. u harus terkunci.
func (b *Bot) acceptContactNumbers(ev event, f *flow.ContactImportFlow, numbers []string, dups int) error {
	if err := f.Advance(flow.ContactConfirmNumbers); err != nil {
		return err
	}
	f.Numbers, f.Duplicates = numbers, dups

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ *%d nomor valid ditemukan:*\n", len(numbers))
	shown := numbers
	if len(shown) > contactPreviewLimit {
		shown = shown[:contactPreviewLimit]
	}
	sb.WriteString(bulletList(shown))
	if rest := len(numbers) - len(shown); rest > 0 {
		fmt.Fprintf(&sb, "... dan %d nomor lainnya\n", rest)
	}
	if dups > 0 {
		fmt.Fprintf(&sb, "\nℹ️ %d nomor duplikat diabaikan.\n", dups)
	}
	sb.WriteString("\nLanjut pilih grup tujuan?")

	keyboard := ui.ConfirmKeyboard("✅ Lanjut Pilih Grup", callback.ConfirmContactNumbers, callback.CancelContactFlow)
	b.send(ev.chatID, sb.String(), &keyboard)
	return nil
}

func (b *Bot) confirmContactNumbers(ev event) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	step := f.Step()
	u.Unlock()
	if step != flow.ContactConfirmNumbers {
		return utils.NewFlowConsistencyError("konfirmasi nomor di step %s", step)
	}

	b.background(ev, "memuat grup tujuan kontak", func() error {
		gs, ok, err := b.loadGroups(&ev)
		if err != nil || !ok {
			b.flows.ClearIf(ev.userID, f)
			return err
		}

		u, err := b.lockUnchanged(ev.userID, f)
		if err != nil {
			return err
		}
		defer u.Unlock()
		if err := f.LoadGroups(gs); err != nil {
			return err
		}
		b.renderContactPicker(ev, f)
		return nil
	})
	return nil
}

func (b *Bot) renderContactPicker(ev event, f *flow.ContactImportFlow) {
	text, keyboard := ui.GroupPicker(contactPickerTitle, &f.Picker, b.settings.PageSize, ui.ContactPickerTokens)
	b.render(ev, text, &keyboard)
}

func (b *Bot) toggleContactGroup(ev event, groupID string) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Step() != flow.ContactSelectGroups {
		return utils.NewFlowConsistencyError("toggle grup kontak di step %s", f.StepName())
	}
	if _, err := f.Picker.Toggle(groupID); err != nil {
		return err
	}
	b.renderContactPicker(ev, f)
	return nil
}

func (b *Bot) contactGroupsPage(ev event, page int) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Step() != flow.ContactSelectGroups {
		return utils.NewFlowConsistencyError("pindah halaman kontak di step %s", f.StepName())
	}
	f.Picker.Page = page
	b.renderContactPicker(ev, f)
	return nil
}

func (b *Bot) searchContactGroups(ev event) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if err := f.Advance(flow.ContactWaitingSearchQuery); err != nil {
		return err
	}
	keyboard := ui.CancelKeyboard(callback.CancelContactFlow)
	b.render(ev, searchPrompt, &keyboard)
	return nil
}

func (b *Bot) finishContactSelection(ev event) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if f.Picker.Selected.Len() == 0 {
		return utils.NewFlowConsistencyError("selesai tanpa grup terpilih")
	}
	if err := f.Advance(flow.ContactConfirm); err != nil {
		return err
	}

	selected := f.Picker.SelectedGroups()
	names := make([]string, len(selected))
	for i, g := range selected {
		names[i] = g.Name
	}
	var sb strings.Builder
	sb.WriteString("🔍 *Konfirmasi Tambah Kontak*\n\n")
	fmt.Fprintf(&sb, "📋 *Grup (%d):*\n%s\n", len(selected), bulletList(names))
	fmt.Fprintf(&sb, "👤 Kontak: %d nomor\n", len(f.Numbers))
	fmt.Fprintf(&sb, "📊 Total operasi: %d\n\n", len(selected)*len(f.Numbers))
	sb.WriteString("⚠️ Proses ini tidak bisa dibatalkan!")

	keyboard := ui.ConfirmKeyboard("✅ Lanjutkan Tambah Kontak", callback.ConfirmAddContact, callback.CancelContactFlow)
	b.render(ev, sb.String(), &keyboard)
	return nil
}

func (b *Bot) confirmAddContact(ev event) error {
	u, f, err := b.lockContact(ev)
	if err != nil {
		return err
	}
	defer u.Unlock()
	if !b.requireConnected(ev) {
		return nil
	}
	if err := f.Advance(flow.ContactExecuting); err != nil {
		return err
	}

	var ops []batch.Operation
	for _, g := range f.Picker.SelectedGroups() {
		for _, n := range f.Numbers {
			ops = append(ops, batch.Operation{GroupID: g.ID, GroupName: g.Name, Target: n, Kind: batch.KindAddMember})
		}
	}

	owner := ev.userID
	exec := b.newExecutor(func(ctx context.Context, op batch.Operation) error {
		return b.groups.AddMember(ctx, owner, op.GroupID, op.Target)
	}, batch.MemberLine)

	b.startBatch(u, ev, batchJob{
		flow:   f,
		title:  "Tambah Kontak",
		action: utils.ActionContactImport,
		ops:    ops,
		exec:   exec,
		done:   ui.ContactDoneKeyboard(),
	})
	return nil
}

func (b *Bot) cancelContactFlow(ev event) error {
	if !b.cancelFlow(ev, flow.KindContactImport) {
		return utils.NewFlowConsistencyError("tidak ada workflow tambah kontak yang bisa dibatalkan")
	}
	b.render(ev, "✅ Tambah kontak dibatalkan!", nil)
	ev.isCallback = false
	return b.showMainMenu(ev)
}

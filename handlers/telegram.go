package handlers

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"whatsapp-bot/internal/batch"
	"whatsapp-bot/internal/callback"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	msgNoAccess        = "❌ Anda tidak memiliki akses untuk menggunakan bot ini."
	msgNoAccessShort   = "❌ Anda tidak memiliki akses."
	msgNotConnected    = "❌ WhatsApp belum terhubung! Login dulu ya."
	msgGenericError    = "❌ Terjadi error saat memproses perintah. Coba lagi ya!"
	msgUnknownCommand  = "❌ Command tidak dikenal. Coba lagi ya!"
	msgLoadingGroups   = "⏳ Mengambil daftar grup..."
	msgNoGroups        = "❌ Tidak ada grup yang ditemukan!"
	msgUseMenu         = "ℹ️ Gunakan /menu untuk membuka menu utama."
	msgBatchNotStopped = "⚠️ Proses batch sedang berjalan dan tidak bisa dibatalkan. Tunggu sampai selesai ya."
)

// Options dependensi Bot
type Options struct {
	Config    *utils.TelegramConfig
	Messenger Messenger
	Groups    groups.Service
	Pairer    Pairer
	Flows     *flow.Store
	// Sleep dipakai executor batch; nil berarti timer biasa
	Sleep batch.SleepFunc
	// NewBatchID pembuat id batch; nil berarti uuid
	NewBatchID func() string
}

// Bot dispatcher update Telegram ke workflow
type Bot struct {
	cfg      *utils.TelegramConfig
	settings *utils.ConfigSettings
	msg      Messenger
	groups   groups.Service
	pairer   Pairer
	flows    *flow.Store
	sleep    batch.SleepFunc
	newID    func() string

	ctx     context.Context
	cancel  context.CancelFunc
	jobs    sync.WaitGroup
	pairing atomic.Bool
}

// event konteks satu update
type event struct {
	userID     int64
	chatID     int64
	messageID  int // pesan yang di-edit untuk callback
	isCallback bool
}

// NewBot membuat Bot
func NewBot(opts Options) *Bot {
	settings := utils.DefaultSettings()
	if opts.Config != nil && opts.Config.Settings != nil {
		settings = opts.Config.Settings
	}
	flows := opts.Flows
	if flows == nil {
		flows = flow.NewStore()
	}
	newID := opts.NewBatchID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Bot{
		cfg:      opts.Config,
		settings: settings,
		msg:      opts.Messenger,
		groups:   opts.Groups,
		pairer:   opts.Pairer,
		flows:    flows,
		sleep:    opts.Sleep,
		newID:    newID,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Wait menunggu batch/pencarian/pairing yang berjalan selesai
func (b *Bot) Wait() {
	b.jobs.Wait()
}

// Stop membatalkan semua job lalu menunggu maksimal timeout
func (b *Bot) Stop(timeout time.Duration) bool {
	b.cancel()
	done := make(chan struct{})
	go func() {
		b.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Run membaca update sampai channel ditutup. Update diproses berurutan;
// batch berjalan di goroutine sendiri.
func (b *Bot) Run(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		b.HandleUpdate(update)
	}
}

// HandleUpdate memproses satu update. Panic dipulihkan di sini.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	var chatID int64
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
	case update.Message != nil:
		chatID = update.Message.Chat.ID
	}
	defer b.recoverPanic(chatID)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(update.Message)
	}
}

func (b *Bot) recoverPanic(chatID int64) {
	if r := recover(); r != nil {
		utils.GetLogger().Error("Panic saat memproses update: %v\n%s", r, debug.Stack())
		if chatID != 0 {
			b.send(chatID, msgGenericError, nil)
		}
	}
}

func (b *Bot) allowed(userID int64) bool {
	return b.cfg != nil && b.cfg.CheckAccess(userID)
}

func (b *Bot) handleCallback(q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil {
		return
	}
	userID := q.From.ID
	utils.GetLogger().Debug("CallbackQuery dari userID=%d, data=%s", userID, q.Data)

	if !b.allowed(userID) {
		b.answer(q.ID, msgNoAccessShort, true)
		return
	}

	data, ok := callback.Parse(q.Data)
	if !ok {
		b.answer(q.ID, msgUnknownCommand, false)
		return
	}
	b.answer(q.ID, "", false)

	ev := event{userID: userID, chatID: q.Message.Chat.ID, messageID: q.Message.MessageID, isCallback: true}
	b.report(ev, b.routeCallback(ev, data))
}

func (b *Bot) routeCallback(ev event, data callback.Data) error {
	switch data.Action {
	case callback.Noop:
		return nil
	case callback.MainMenu:
		return b.showMainMenu(ev)
	case callback.AdminManagement:
		return b.showAdminMenu(ev)
	case callback.Status:
		return b.showStatus(ev)
	case callback.ActivityLog:
		return b.showActivityLog(ev)
	case callback.LogoutConfirm:
		return b.confirmLogout(ev)
	case callback.LogoutCancel:
		return b.cancelLogout(ev)

	case callback.AddPromoteAdmin:
		return b.startAddPromote(ev)
	case callback.ToggleGroupPrefix:
		return b.toggleAdminGroup(ev, data.Arg)
	case callback.GroupsPagePrefix:
		return b.adminGroupsPage(ev, data.Page)
	case callback.SearchGroups:
		return b.searchAdminGroups(ev)
	case callback.FinishGroupSelection:
		return b.finishAdminGroupSelection(ev)
	case callback.ConfirmAddPromote:
		return b.confirmAddPromote(ev)
	case callback.CancelAdminFlow:
		return b.cancelAdminFlow(ev)

	case callback.DemoteAdmin:
		return b.startDemote(ev)
	case callback.StartSearchAdmin:
		return b.startSearchAdmin(ev)
	case callback.ToggleDemotePrefix:
		return b.toggleDemoteGroup(ev, data.Arg)
	case callback.DemotePagePrefix:
		return b.demotePage(ev, data.Page)
	case callback.FinishDemoteSelection:
		return b.finishDemoteSelection(ev)
	case callback.ConfirmDemote:
		return b.confirmDemote(ev)

	case callback.RenameGroups:
		return b.startRename(ev)
	case callback.SelectBasePrefix:
		return b.selectRenameBase(ev, data.Arg)
	case callback.SelectBaseIndexPrefix:
		return b.selectRenameBaseIndex(ev, data.Page)
	case callback.ConfirmRename:
		return b.confirmRename(ev)
	case callback.CancelRename:
		return b.cancelRename(ev)

	case callback.AddContact:
		return b.startContactImport(ev)
	case callback.AddContactChat:
		return b.chooseContactSource(ev, false)
	case callback.AddContactFile:
		return b.chooseContactSource(ev, true)
	case callback.ConfirmContactNumbers:
		return b.confirmContactNumbers(ev)
	case callback.ToggleContactGroupPrefix:
		return b.toggleContactGroup(ev, data.Arg)
	case callback.ContactGroupsPagePrefix:
		return b.contactGroupsPage(ev, data.Page)
	case callback.SearchContactGroups:
		return b.searchContactGroups(ev)
	case callback.FinishContactSelection:
		return b.finishContactSelection(ev)
	case callback.ConfirmAddContact:
		return b.confirmAddContact(ev)
	case callback.CancelContactFlow:
		return b.cancelContactFlow(ev)
	}
	return nil
}

func (b *Bot) handleMessage(m *tgbotapi.Message) {
	if m.From == nil {
		return
	}
	ev := event{userID: m.From.ID, chatID: m.Chat.ID}

	if !b.allowed(ev.userID) {
		b.send(ev.chatID, msgNoAccess, nil)
		return
	}

	switch {
	case m.IsCommand():
		b.report(ev, b.handleCommand(ev, m.Command(), strings.TrimSpace(m.CommandArguments())))
	case m.Document != nil:
		b.report(ev, b.handleDocument(ev, m.Document))
	default:
		b.report(ev, b.handleText(ev, strings.TrimSpace(m.Text)))
	}
}

func (b *Bot) handleCommand(ev event, command, args string) error {
	switch command {
	case "start", "menu":
		return b.showMainMenu(ev)
	case "status":
		return b.showStatus(ev)
	case "help":
		return b.showHelp(ev)
	case "cancel":
		return b.cancelCommand(ev)
	case "pair":
		return b.startPairing(ev, args)
	case "logout":
		return b.logoutCommand(ev)
	case "log":
		return b.showActivityLog(ev)
	}
	b.send(ev.chatID, msgUnknownCommand, nil)
	return nil
}

// handleText meneruskan teks ke step workflow yang sedang menunggu input
func (b *Bot) handleText(ev event, text string) error {
	if text == "" {
		return nil
	}
	switch b.flows.Current(ev.userID).(type) {
	case *flow.AddPromoteFlow:
		return b.addPromoteText(ev, text)
	case *flow.DemoteFlow:
		return b.demoteText(ev, text)
	case *flow.RenameFlow:
		return b.renameText(ev, text)
	case *flow.ContactImportFlow:
		return b.contactText(ev, text)
	}
	b.send(ev.chatID, msgUseMenu, nil)
	return nil
}

func (b *Bot) handleDocument(ev event, doc *tgbotapi.Document) error {
	if _, ok := b.flows.Current(ev.userID).(*flow.ContactImportFlow); ok {
		return b.contactFile(ev, doc)
	}
	b.send(ev.chatID, msgUseMenu, nil)
	return nil
}

// report menerjemahkan error handler ke respon user
func (b *Bot) report(ev event, err error) {
	if err == nil {
		return
	}
	var botErr *utils.BotError
	switch {
	case utils.IsKind(err, utils.KindFlowConsistency):
		utils.GetLogger().Debug("Event diabaikan untuk user %d: %v", ev.userID, err)
	case errors.Is(err, groups.ErrNotConnected):
		b.send(ev.chatID, msgNotConnected, nil)
	case errors.As(err, &botErr) && botErr.Kind == utils.KindValidation:
		b.send(ev.chatID, botErr.UserText(), nil)
	default:
		utils.GetLogger().Error("Gagal memproses update user %d: %v", ev.userID, err)
		b.send(ev.chatID, utils.FormatError(err), nil)
	}
}

// background menjalankan fn di luar loop update. Error dilaporkan seperti
// error handler biasa.
func (b *Bot) background(ev event, name string, fn func() error) {
	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.GetLogger().Error("Panic saat %s: %v\n%s", name, r, debug.Stack())
				b.send(ev.chatID, msgGenericError, nil)
			}
		}()
		b.report(ev, fn())
	}()
}

func (b *Bot) send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	id, err := b.msg.Send(chatID, text, markup)
	if err != nil {
		utils.GetLogger().Warn("Gagal mengirim pesan ke %d: %v", chatID, err)
	}
	return id
}

// Notify mengirim pesan ke semua admin dan allowed user
func (b *Bot) Notify(text string) {
	if b.cfg == nil {
		return
	}
	for _, id := range b.cfg.NotifyTargets() {
		b.send(id, text, nil)
	}
}

// render mengedit pesan callback, atau mengirim pesan baru untuk input teks
func (b *Bot) render(ev event, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	if ev.isCallback && ev.messageID != 0 {
		err := b.msg.Edit(ev.chatID, ev.messageID, text, markup)
		if err == nil {
			return ev.messageID
		}
		utils.GetLogger().Debug("Edit pesan %d gagal, kirim pesan baru: %v", ev.messageID, err)
	}
	return b.send(ev.chatID, text, markup)
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	if err := b.msg.AnswerCallback(callbackID, text, alert); err != nil {
		utils.GetLogger().Debug("Gagal menjawab callback: %v", err)
	}
}

// requireConnected mengirim pesan belum login jika WhatsApp belum terhubung
func (b *Bot) requireConnected(ev event) bool {
	if b.groups != nil && b.groups.IsConnected(ev.userID) {
		return true
	}
	b.render(ev, msgNotConnected, nil)
	return false
}

// loadGroups mengambil snapshot grup sambil menampilkan pesan loading. ev
// diarahkan ke pesan loading supaya hasilnya menggantikan pesan tersebut.
// Dipanggil dari background.
func (b *Bot) loadGroups(ev *event) ([]groups.Group, bool, error) {
	if loading := b.render(*ev, msgLoadingGroups, nil); loading != 0 {
		ev.messageID, ev.isCallback = loading, true
	}

	gs, err := b.groups.ListGroups(b.ctx, ev.userID)
	if err != nil {
		return nil, false, err
	}
	if len(gs) == 0 {
		b.render(*ev, msgNoGroups, nil)
		return nil, false, nil
	}
	return gs, true, nil
}

// lockUnchanged mengunci user jika workflow aktif masih prev, yaitu workflow
// saat pemuatan dimulai. Selain itu hasil pemuatan sudah basi.
func (b *Bot) lockUnchanged(userID int64, prev flow.Flow) (*flow.UserState, error) {
	u := b.flows.Lock(userID)
	if u.Flow() != prev {
		u.Unlock()
		return nil, utils.NewFlowConsistencyError("workflow berubah saat memuat grup")
	}
	return u, nil
}

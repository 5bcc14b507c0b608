package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const testUser int64 = 1001

type sentMessage struct {
	chatID    int64
	messageID int
	text      string
	markup    *tgbotapi.InlineKeyboardMarkup
	edit      bool
}

type fakeMessenger struct {
	mu       sync.Mutex
	nextID   int
	messages []sentMessage
	answers  []string
	files    map[string][]byte
	// gate menahan DownloadFile sampai ditutup
	gate chan struct{}
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 100, files: make(map[string][]byte)}
}

func (m *fakeMessenger) Send(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.messages = append(m.messages, sentMessage{chatID: chatID, messageID: m.nextID, text: text, markup: markup})
	return m.nextID, nil
}

func (m *fakeMessenger) Edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{chatID: chatID, messageID: messageID, text: text, markup: markup, edit: true})
	return nil
}

func (m *fakeMessenger) Delete(chatID int64, messageID int) error { return nil }

func (m *fakeMessenger) AnswerCallback(callbackID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, text)
	return nil
}

func (m *fakeMessenger) DownloadFile(fileID string, maxBytes int64) ([]byte, error) {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *fakeMessenger) all() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *fakeMessenger) last() sentMessage {
	msgs := m.all()
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (m *fakeMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	m.answers = nil
}

// containing pesan yang teksnya mengandung s
func (m *fakeMessenger) containing(s string) []sentMessage {
	var out []sentMessage
	for _, msg := range m.all() {
		if strings.Contains(msg.text, s) {
			out = append(out, msg)
		}
	}
	return out
}

// buttons semua callback_data di markup
func buttons(markup *tgbotapi.InlineKeyboardMarkup) []string {
	if markup == nil {
		return nil
	}
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

type fakeGroups struct {
	mu        sync.Mutex
	connected bool
	groups    []groups.Group
	admins    map[string][]groups.Member
	members   map[string]map[string]bool
	// failures error berurutan per kunci "aksi:grup:target"
	failures map[string][]error
	calls    []string
	// gate menahan ListGroups sampai ditutup
	gate chan struct{}
}

func newFakeGroups(gs ...groups.Group) *fakeGroups {
	return &fakeGroups{
		connected: true,
		groups:    gs,
		admins:    make(map[string][]groups.Member),
		members:   make(map[string]map[string]bool),
		failures:  make(map[string][]error),
	}
}

func (f *fakeGroups) record(action, groupID, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s:%s:%s", action, groupID, target)
	f.calls = append(f.calls, key)
	if errs := f.failures[key]; len(errs) > 0 {
		f.failures[key] = errs[1:]
		return errs[0]
	}
	return nil
}

func (f *fakeGroups) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGroups) IsConnected(owner int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeGroups) AccountNumber(owner int64) string { return "628000000000" }

func (f *fakeGroups) ListGroups(ctx context.Context, owner int64) ([]groups.Group, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if !f.IsConnected(owner) {
		return nil, groups.ErrNotConnected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]groups.Group(nil), f.groups...), nil
}

func (f *fakeGroups) ListGroupAdmins(ctx context.Context, owner int64, groupID string) ([]groups.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admins[groupID], nil
}

func (f *fakeGroups) IsMember(ctx context.Context, owner int64, groupID, target string) (bool, error) {
	if err := f.record("is_member", groupID, target); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[groupID][target], nil
}

func (f *fakeGroups) AddMember(ctx context.Context, owner int64, groupID, target string) error {
	return f.record("add", groupID, target)
}

func (f *fakeGroups) PromoteMember(ctx context.Context, owner int64, groupID, target string) error {
	return f.record("promote", groupID, target)
}

func (f *fakeGroups) DemoteMember(ctx context.Context, owner int64, groupID, target string) error {
	return f.record("demote", groupID, target)
}

func (f *fakeGroups) RenameGroup(ctx context.Context, owner int64, groupID, newName string) error {
	return f.record("rename", groupID, newName)
}

type harness struct {
	t      *testing.T
	bot    *Bot
	msg    *fakeMessenger
	groups *fakeGroups
	sleeps []time.Duration
	mu     sync.Mutex
}

func newHarness(t *testing.T, gs ...groups.Group) *harness {
	t.Helper()
	h := &harness{t: t, msg: newFakeMessenger(), groups: newFakeGroups(gs...)}
	h.bot = NewBot(Options{
		Config: &utils.TelegramConfig{
			AdminIDs:       []int64{testUser},
			AllowedUserIDs: []int64{testUser},
			Settings:       utils.DefaultSettings(),
		},
		Messenger: h.msg,
		Groups:    h.groups,
		Flows:     flow.NewStore(),
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.sleeps = append(h.sleeps, d)
			return ctx.Err()
		},
		NewBatchID: func() string { return "batch-test" },
	})
	t.Cleanup(func() { h.bot.Stop(time.Second) })
	return h
}

// dispatch memproses update lalu menunggu pekerjaan background selesai
func (h *harness) dispatch(update tgbotapi.Update) {
	h.bot.HandleUpdate(update)
	h.bot.Wait()
}

func (h *harness) callback(data string) {
	h.callbackFrom(testUser, data)
}

func (h *harness) callbackFrom(userID int64, data string) {
	h.dispatch(callbackUpdateFrom(userID, data))
}

func callbackUpdate(data string) tgbotapi.Update {
	return callbackUpdateFrom(testUser, data)
}

func callbackUpdateFrom(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 500, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}}
}

func (h *harness) text(text string) {
	h.dispatch(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 600,
		From:      &tgbotapi.User{ID: testUser},
		Chat:      &tgbotapi.Chat{ID: testUser},
		Text:      text,
	}})
}

func (h *harness) command(cmd string) {
	name := strings.Fields(cmd)[0]
	h.dispatch(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 601,
		From:      &tgbotapi.User{ID: testUser},
		Chat:      &tgbotapi.Chat{ID: testUser},
		Text:      cmd,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}})
}

func (h *harness) document(fileID, name string, size int) {
	h.dispatch(documentUpdate(fileID, name, size))
}

func documentUpdate(fileID, name string, size int) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 602,
		From:      &tgbotapi.User{ID: testUser},
		Chat:      &tgbotapi.Chat{ID: testUser},
		Document:  &tgbotapi.Document{FileID: fileID, FileName: name, FileSize: size},
	}}
}

func (h *harness) current() flow.Flow {
	return h.bot.flows.Current(testUser)
}

func (f *fakeGroups) Logout(ctx context.Context, owner int64) error {
	if err := f.record("logout", "", ""); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

type fakePairer struct {
	code    string
	err     error
	paired  bool
	groups  *fakeGroups
	numbers []string
}

func (p *fakePairer) RequestCode(ctx context.Context, number string) (string, error) {
	p.numbers = append(p.numbers, number)
	return p.code, p.err
}

func (p *fakePairer) WaitPaired(ctx context.Context, tick func(elapsed time.Duration)) bool {
	tick(10 * time.Second)
	if p.paired && p.groups != nil {
		p.groups.mu.Lock()
		p.groups.connected = true
		p.groups.mu.Unlock()
	}
	return p.paired
}

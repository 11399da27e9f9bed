package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"tokenbot/internal/adapters/tokens"
	"tokenbot/internal/application/edittoken"
	"tokenbot/internal/application/ratelimiter"
	tokenService "tokenbot/internal/application/token"
	domainToken "tokenbot/internal/domain/token"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	adminChat   = int64(1001)
	strangerID  = int64(2002)
	menuMessage = 77

	addrCake = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	addrBusd = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	addrWbnb = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
	addrAlpa = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) messages() []tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.Chattable(nil), f.sent...)
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	f.sent = nil
	f.requests = nil
	f.mu.Unlock()
}

type fixture struct {
	api    *fakeAPI
	bot    *Bot
	dialog *edittoken.Dialog
	tokens *tokenService.Service
	repo   *tokens.MemoryRepository
}

func newFixture(t *testing.T, updateMessages bool) *fixture {
	t.Helper()
	repo := tokens.NewMemoryRepository(
		domainToken.NewRecord("", addrCake, "CAKE", 18, 5),
		domainToken.NewRecord("", addrBusd, "BUSD", 18, 1),
		domainToken.NewRecord("", addrWbnb, "WBNB", 18, 2),
		domainToken.NewRecord("", addrAlpa, "alpa", 18, 3),
	)
	svc := tokenService.NewService(repo, nil)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	dialog := edittoken.NewDialog(svc, repo, updateMessages, nil)
	api := newFakeAPI()
	cfg := Config{AdminChatID: adminChat, UpdateMessages: updateMessages}
	bot := NewBot(api, cfg, dialog, svc, ratelimiter.NewRateLimiter(100, time.Second), nil)
	return &fixture{api: api, bot: bot, dialog: dialog, tokens: svc, repo: repo}
}

func commandUpdate(chatID int64, name string) tgbotapi.Update {
	text := "/" + name
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		},
	}
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			MessageID: 11,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 3,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: menuMessage,
				Chat:      &tgbotapi.Chat{ID: chatID},
			},
		},
	}
}

func TestBot_RefusesForeignChat(t *testing.T) {
	f := newFixture(t, true)

	f.bot.HandleUpdate(context.Background(), callbackUpdate(strangerID, edittoken.CallbackPrefix+addrCake))

	sent := f.api.messages()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sent))
	}
	admin, ok := sent[0].(tgbotapi.MessageConfig)
	if !ok || admin.ChatID != adminChat || !strings.Contains(admin.Text, "2002") {
		t.Errorf("first message = %#v, want admin notification", sent[0])
	}
	stranger, ok := sent[1].(tgbotapi.MessageConfig)
	if !ok || stranger.ChatID != strangerID || !strings.Contains(stranger.Text, "not public") {
		t.Errorf("second message = %#v, want refusal to stranger", sent[1])
	}
	if got := f.dialog.State(strangerID); got != edittoken.StateEnd {
		t.Errorf("stranger dialog state = %s, want END", got)
	}
}

func TestBot_EditTokenKeyboard(t *testing.T) {
	f := newFixture(t, true)

	f.bot.HandleUpdate(context.Background(), commandUpdate(adminChat, CommandEditToken))

	sent := f.api.messages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	msg, ok := sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("message type = %T, want MessageConfig", sent[0])
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("reply markup type = %T, want InlineKeyboardMarkup", msg.ReplyMarkup)
	}
	rows := markup.InlineKeyboard
	if len(rows) != 2 || len(rows[0]) != 3 || len(rows[1]) != 1 {
		t.Fatalf("keyboard shape = %d rows, want 3+1", len(rows))
	}

	wantOrder := []string{"alpa", "BUSD", "CAKE", "WBNB"}
	var got []string
	for _, row := range rows {
		for _, btn := range row {
			got = append(got, btn.Text)
			if btn.CallbackData == nil || !strings.HasPrefix(*btn.CallbackData, edittoken.CallbackPrefix) {
				t.Errorf("button %q callback data = %v, want %q prefix", btn.Text, btn.CallbackData, edittoken.CallbackPrefix)
			}
		}
	}
	if strings.Join(got, ",") != strings.Join(wantOrder, ",") {
		t.Errorf("button order = %v, want %v", got, wantOrder)
	}
}

func TestBot_EditSlippageFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	f.bot.HandleUpdate(ctx, callbackUpdate(adminChat, edittoken.CallbackPrefix+addrCake))
	if got := f.dialog.State(adminChat); got != edittoken.StateActionChoice {
		t.Fatalf("state after entry = %s, want ACTION_CHOICE", got)
	}
	if len(f.api.requests) != 1 {
		t.Errorf("answered %d callbacks, want 1", len(f.api.requests))
	}
	edit, ok := f.api.messages()[0].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("entry reply type = %T, want EditMessageTextConfig", f.api.messages()[0])
	}
	if edit.MessageID != menuMessage || edit.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("entry edit = message %d mode %q, want %d HTML", edit.MessageID, edit.ParseMode, menuMessage)
	}
	if edit.ReplyMarkup == nil || len(edit.ReplyMarkup.InlineKeyboard) != 2 {
		t.Errorf("entry edit keyboard = %+v, want 2 rows", edit.ReplyMarkup)
	}

	f.bot.HandleUpdate(ctx, callbackUpdate(adminChat, edittoken.CallbackSlippage))
	if got := f.dialog.State(adminChat); got != edittoken.StateSlippage {
		t.Fatalf("state after slippage choice = %s, want SLIPPAGE", got)
	}

	f.api.reset()
	f.bot.HandleUpdate(ctx, textUpdate(adminChat, "7"))
	if got := f.dialog.State(adminChat); got != edittoken.StateEnd {
		t.Fatalf("state after commit = %s, want END", got)
	}

	sent := f.api.messages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	msg, ok := sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("confirmation type = %T, want MessageConfig for a text event", sent[0])
	}
	if !strings.Contains(msg.Text, "<b>7%</b>") {
		t.Errorf("confirmation = %q, want slippage 7%%", msg.Text)
	}

	rec, err := f.repo.GetByAddress(ctx, addrCake)
	if err != nil {
		t.Fatalf("GetByAddress() error = %v", err)
	}
	if rec.DefaultSlippage != 7 {
		t.Errorf("stored slippage = %d, want 7", rec.DefaultSlippage)
	}
	w, _ := f.tokens.Snapshot(ctx, addrCake)
	if w.DefaultSlippage != 7 {
		t.Errorf("watcher slippage = %d, want 7", w.DefaultSlippage)
	}
}

func TestBot_SendsFreshMessagesWhenEditingDisabled(t *testing.T) {
	f := newFixture(t, false)

	f.bot.HandleUpdate(context.Background(), callbackUpdate(adminChat, edittoken.CallbackPrefix+addrCake))

	sent := f.api.messages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if _, ok := sent[0].(tgbotapi.MessageConfig); !ok {
		t.Errorf("entry reply type = %T, want MessageConfig", sent[0])
	}
}

func TestBot_CancelCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	f.bot.HandleUpdate(ctx, callbackUpdate(adminChat, edittoken.CallbackPrefix+addrCake))
	f.api.reset()
	f.bot.HandleUpdate(ctx, commandUpdate(adminChat, CommandCancel))

	if got := f.dialog.State(adminChat); got != edittoken.StateEnd {
		t.Errorf("state after /cancel = %s, want END", got)
	}
	sent := f.api.messages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if msg, ok := sent[0].(tgbotapi.MessageConfig); !ok || !strings.Contains(msg.Text, "cancelling") {
		t.Errorf("cancel reply = %#v", sent[0])
	}
}

func TestBot_Address(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "known token", data: addressPrefix + addrCake, want: "<code>" + addrCake + "</code>"},
		{name: "lowercase address", data: addressPrefix + strings.ToLower(addrCake), want: "⛔️ Invalid token address."},
		{name: "unknown token", data: addressPrefix + "0x52908400098527886E0F7030069857D2E4169EE7", want: "⛔️ Token not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			f.bot.HandleUpdate(context.Background(), callbackUpdate(adminChat, tt.data))

			sent := f.api.messages()
			if len(sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(sent))
			}
			msg := sent[0].(tgbotapi.MessageConfig)
			if !strings.Contains(msg.Text, tt.want) {
				t.Errorf("reply = %q, want it to contain %q", msg.Text, tt.want)
			}
		})
	}
}

func TestBot_RemoveToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	f.bot.HandleUpdate(ctx, callbackUpdate(adminChat, removeTokenPrefix+addrBusd))

	if _, ok := f.tokens.Snapshot(ctx, addrBusd); ok {
		t.Error("watcher still registered after removal")
	}
	if exists, _ := f.repo.Exists(ctx, addrBusd); exists {
		t.Error("record still stored after removal")
	}
	edit, ok := f.api.messages()[0].(tgbotapi.EditMessageTextConfig)
	if !ok || !strings.Contains(edit.Text, `<b>"BUSD"</b> was removed`) {
		t.Errorf("removal reply = %#v", f.api.messages()[0])
	}

	// removing it again surfaces the error to the admin
	f.api.reset()
	f.bot.HandleUpdate(ctx, callbackUpdate(adminChat, removeTokenPrefix+addrBusd))
	sent := f.api.messages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if msg, ok := sent[0].(tgbotapi.MessageConfig); !ok || !strings.HasPrefix(msg.Text, "⛔️ Exception while handling an update\n") {
		t.Errorf("error reply = %#v", sent[0])
	}
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	f.api.updates <- commandUpdate(adminChat, CommandStart)

	deadline := time.After(2 * time.Second)
	for len(f.api.messages()) < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for replies")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	sent := f.api.messages()
	if first, ok := sent[0].(tgbotapi.MessageConfig); !ok || first.Text != "🤖 Bot started" {
		t.Errorf("first message = %#v, want startup notice", sent[0])
	}
	f.api.mu.Lock()
	stopped := f.api.stopped
	f.api.mu.Unlock()
	if !stopped {
		t.Error("StopReceivingUpdates() not called")
	}
}

func TestTokensKeyboard_Empty(t *testing.T) {
	if rows := tokensKeyboard(nil, addressPrefix); len(rows) != 0 {
		t.Errorf("tokensKeyboard(nil) = %v, want no rows", rows)
	}
}

package telegram

import (
	"context"
	"fmt"
	"time"

	loggeradapter "tokenbot/internal/adapters/logger"
	"tokenbot/internal/application/edittoken"
	"tokenbot/internal/domain"
	"tokenbot/internal/domain/watcher"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dialog consumes chat events, the edit token conversation implements it.
type Dialog interface {
	Handle(ctx context.Context, ev edittoken.Event) edittoken.Outcome
}

// Tokens is the watcher registry as seen from the chat.
type Tokens interface {
	List(ctx context.Context) []watcher.TokenWatcher
	Snapshot(ctx context.Context, address string) (watcher.TokenWatcher, bool)
	Remove(ctx context.Context, address string) (watcher.TokenWatcher, error)
}

type Config struct {
	AdminChatID    int64
	UpdateMessages bool
	PollTimeout    time.Duration
}

// Bot routes Telegram updates of the admin chat to the dialog and the bot commands.
// Updates are handled one at a time in arrival order.
type Bot struct {
	api     API
	config  Config
	dialog  Dialog
	tokens  Tokens
	limiter domain.RateLimiterService
	logger  *loggeradapter.Logger
}

func NewBot(api API, cfg Config, dialog Dialog, tokens Tokens, limiter domain.RateLimiterService, logger *loggeradapter.Logger) *Bot {
	if logger == nil {
		logger = loggeradapter.NewNopLogger()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60 * time.Second
	}
	return &Bot{
		api:     api,
		config:  cfg,
		dialog:  dialog,
		tokens:  tokens,
		limiter: limiter,
		logger:  logger.Named("telegram"),
	}
}

// Run registers the command menu, greets the admin and consumes updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.registerCommands(ctx); err != nil {
		b.logger.Warn("Failed to register bot commands", zap.Error(err))
	}

	if _, err := b.send(ctx, tgbotapi.NewMessage(b.config.AdminChatID, "🤖 Bot started")); err != nil {
		b.logger.Info("Chat with admin does not exist yet", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.config.PollTimeout.Seconds())
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started", zap.Int64("admin_chat_id", b.config.AdminChatID))
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("updates channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update to completion.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	chatID, ok := chatOf(update)
	if !ok {
		b.logger.Debug("Update without chat", zap.Int("update_id", update.UpdateID))
		return
	}

	if chatID != b.config.AdminChatID {
		b.refuse(ctx, chatID)
		return
	}

	var (
		ev        edittoken.Event
		messageID int
	)
	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		if _, err := b.request(ctx, tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
		if query.Message != nil {
			messageID = query.Message.MessageID
		}
		ev = edittoken.Event{ChatID: chatID, Kind: edittoken.EventCallback, Data: query.Data}
	case update.Message != nil && update.Message.IsCommand():
		ev = edittoken.Event{ChatID: chatID, Kind: edittoken.EventCommand, Data: update.Message.Command()}
	case update.Message != nil && update.Message.Text != "":
		ev = edittoken.Event{ChatID: chatID, Kind: edittoken.EventText, Data: update.Message.Text}
	default:
		return
	}

	if err := b.dispatch(ctx, ev, messageID); err != nil {
		b.logger.Error("Exception while handling an update", zap.Int("update_id", update.UpdateID), zap.Error(err))
		b.reply(ctx, chatID, 0, edittoken.Reply{Text: fmt.Sprintf("⛔️ Exception while handling an update\n%v", err)})
	}
}

func (b *Bot) dispatch(ctx context.Context, ev edittoken.Event, messageID int) error {
	out := b.dialog.Handle(ctx, ev)
	if out.Handled {
		for _, r := range out.Replies {
			b.reply(ctx, ev.ChatID, messageID, r)
		}
		return nil
	}

	switch ev.Kind {
	case edittoken.EventCommand:
		return b.command(ctx, ev.ChatID, ev.Data)
	case edittoken.EventCallback:
		return b.callback(ctx, ev.ChatID, messageID, ev.Data)
	}
	return nil
}

// refuse turns away any chat but the admin's and lets the admin know.
func (b *Bot) refuse(ctx context.Context, chatID int64) {
	b.logger.Warn("Prevented user to interact", zap.Int64("chat_id", chatID))
	b.reply(ctx, b.config.AdminChatID, 0, edittoken.Reply{Text: fmt.Sprintf("Prevented user %d to interact.", chatID)})
	b.reply(ctx, chatID, 0, edittoken.Reply{Text: "This bot is not public, you are not allowed to use it."})
}

func (b *Bot) registerCommands(ctx context.Context) error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: CommandEditToken, Description: "change emoji or default slippage of a token"},
		tgbotapi.BotCommand{Command: CommandAddress, Description: "get the contract address for a token"},
		tgbotapi.BotCommand{Command: CommandRemoveToken, Description: "remove a token that you added"},
		tgbotapi.BotCommand{Command: CommandCancel, Description: "cancel the current dialog"},
	)
	_, err := b.request(ctx, cfg)
	return err
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return tgbotapi.Message{}, err
		}
	}
	return b.api.Send(c)
}

func (b *Bot) request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return b.api.Request(c)
}

func chatOf(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}

package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"tokenbot/internal/application/edittoken"
	"tokenbot/internal/domain/chain"
	"tokenbot/internal/domain/watcher"

	"go.uber.org/zap"
)

const (
	CommandStart       = "start"
	CommandEditToken   = "edittoken"
	CommandAddress     = "address"
	CommandRemoveToken = "removetoken"
	CommandCancel      = edittoken.CommandCancel

	addressPrefix     = "address:"
	removeTokenPrefix = "removetoken:"
	removeTokenCancel = removeTokenPrefix + "cancel"

	keyboardColumns = 3
)

func (b *Bot) command(ctx context.Context, chatID int64, name string) error {
	switch name {
	case CommandStart:
		b.reply(ctx, chatID, 0, edittoken.Reply{
			Text: "Hi! Use /edittoken to change how a token is shown or traded.",
		})
	case CommandEditToken:
		b.tokenMenu(ctx, chatID, "Which token do you want to edit?", edittoken.CallbackPrefix, false)
	case CommandAddress:
		b.tokenMenu(ctx, chatID, "Which token do you want the address for?", addressPrefix, false)
	case CommandRemoveToken:
		b.tokenMenu(ctx, chatID, "Which token do you want to remove?", removeTokenPrefix, true)
	}
	return nil
}

func (b *Bot) callback(ctx context.Context, chatID int64, messageID int, data string) error {
	switch {
	case strings.HasPrefix(data, addressPrefix):
		return b.address(ctx, chatID, messageID, strings.TrimPrefix(data, addressPrefix))
	case data == removeTokenCancel:
		b.reply(ctx, chatID, messageID, edittoken.Reply{Text: "⚠️ OK, I'm cancelling this command.", Edit: b.config.UpdateMessages})
		return nil
	case strings.HasPrefix(data, removeTokenPrefix):
		return b.removeToken(ctx, chatID, messageID, strings.TrimPrefix(data, removeTokenPrefix))
	}
	b.logger.Debug("Unhandled callback", zap.Int64("chat_id", chatID), zap.String("data", data))
	return nil
}

func (b *Bot) address(ctx context.Context, chatID int64, messageID int, address string) error {
	if !chain.IsChecksumAddress(address) {
		b.reply(ctx, chatID, 0, edittoken.Reply{Text: "⛔️ Invalid token address."})
		return nil
	}
	w, ok := b.tokens.Snapshot(ctx, address)
	if !ok {
		b.reply(ctx, chatID, 0, edittoken.Reply{Text: "⛔️ Token not found."})
		return nil
	}
	b.reply(ctx, chatID, messageID, edittoken.Reply{
		Text: fmt.Sprintf("%s\n<code>%s</code>", html.EscapeString(w.Name), w.Address),
		Edit: b.config.UpdateMessages,
	})
	return nil
}

func (b *Bot) removeToken(ctx context.Context, chatID int64, messageID int, address string) error {
	if !chain.IsChecksumAddress(address) {
		b.reply(ctx, chatID, 0, edittoken.Reply{Text: "⛔️ Invalid token address."})
		return nil
	}
	w, err := b.tokens.Remove(ctx, address)
	if err != nil {
		return fmt.Errorf("remove token %s: %w", address, err)
	}
	b.reply(ctx, chatID, messageID, edittoken.Reply{
		Text: fmt.Sprintf(`✅ Alright, the token <b>"%s"</b> was removed.`, html.EscapeString(w.Name)),
		Edit: b.config.UpdateMessages,
	})
	return nil
}

func (b *Bot) tokenMenu(ctx context.Context, chatID int64, text, prefix string, withCancel bool) {
	watchers := b.tokens.List(ctx)
	if len(watchers) == 0 {
		b.reply(ctx, chatID, 0, edittoken.Reply{Text: "You don't have any token yet."})
		return
	}
	buttons := tokensKeyboard(watchers, prefix)
	if withCancel {
		buttons = append(buttons, []edittoken.Button{{Text: "❌ Cancel", Data: removeTokenCancel}})
	}
	b.reply(ctx, chatID, 0, edittoken.Reply{Text: text, Buttons: buttons})
}

// tokensKeyboard lays watchers out in rows of keyboardColumns, keeping their order.
func tokensKeyboard(watchers []watcher.TokenWatcher, prefix string) [][]edittoken.Button {
	rows := make([][]edittoken.Button, 0, (len(watchers)+keyboardColumns-1)/keyboardColumns)
	for i := 0; i < len(watchers); i += keyboardColumns {
		end := min(i+keyboardColumns, len(watchers))
		row := make([]edittoken.Button, 0, end-i)
		for _, w := range watchers[i:end] {
			row = append(row, edittoken.Button{Text: w.Name, Data: prefix + w.Address})
		}
		rows = append(rows, row)
	}
	return rows
}

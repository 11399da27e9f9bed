package telegram

import (
	"context"

	"tokenbot/internal/application/edittoken"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// reply shows r in the chat. The message messageID is edited in place when r asks
// for it and the event came from a button, otherwise a new message is sent.
func (b *Bot) reply(ctx context.Context, chatID int64, messageID int, r edittoken.Reply) {
	var c tgbotapi.Chattable
	if r.Edit && messageID != 0 {
		c = editMessage(chatID, messageID, r)
	} else {
		c = newMessage(chatID, r)
	}
	if _, err := b.send(ctx, c); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func newMessage(chatID int64, r edittoken.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(r.Buttons) > 0 {
		msg.ReplyMarkup = inlineKeyboard(r.Buttons)
	}
	return msg
}

func editMessage(chatID int64, messageID int, r edittoken.Reply) tgbotapi.EditMessageTextConfig {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(r.Buttons) > 0 {
		markup := inlineKeyboard(r.Buttons)
		msg.ReplyMarkup = &markup
	}
	return msg
}

func inlineKeyboard(buttons [][]edittoken.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

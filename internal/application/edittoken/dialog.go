package edittoken

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	loggeradapter "tokenbot/internal/adapters/logger"
	"tokenbot/internal/domain/chain"
	"tokenbot/internal/domain/token"
	"tokenbot/internal/domain/watcher"

	"go.uber.org/zap"
)

var (
	entryPattern  = regexp.MustCompile(`^edittoken:0x[a-fA-F0-9]{40}$`)
	buttonPattern = regexp.MustCompile(`^[^:]*$`)
)

const (
	cancelText      = "⚠️ OK, I'm cancelling this command."
	errorPrefix     = "⛔️ "
	invalidAddress  = "Invalid token address."
	unknownToken    = "Token not found."
	invalidSlippage = "Invalid default slippage."
	retryNotInteger = "⚠️ This is not a valid slippage value. Please enter an integer number for percentage " +
		"(without percent sign). Try again:"
	retryNotPositive = "⚠️ This is not a valid slippage value. Please enter a positive integer number for percentage. " +
		"Try again:"
)

// Watchers is the registry the dialog reads tokens from and reflects commits into.
type Watchers interface {
	Get(ctx context.Context, address string) (*watcher.TokenWatcher, bool)
	Update(ctx context.Context, address string, fn func(w *watcher.TokenWatcher)) bool
}

// RecordStore persists a token record transactionally.
type RecordStore interface {
	Save(ctx context.Context, record *token.Record) error
}

// Dialog lets the operator change a token's emoji or default slippage.
// Events of one chat must be handled sequentially.
type Dialog struct {
	watchers       Watchers
	store          RecordStore
	sessions       *SessionStore
	updateMessages bool
	logger         *loggeradapter.Logger
}

func NewDialog(watchers Watchers, store RecordStore, updateMessages bool, logger *loggeradapter.Logger) *Dialog {
	if logger == nil {
		logger = loggeradapter.NewNopLogger()
	}
	return &Dialog{
		watchers:       watchers,
		store:          store,
		sessions:       NewSessionStore(),
		updateMessages: updateMessages,
		logger:         logger.Named("edittoken"),
	}
}

// State returns the dialog state of a chat, StateEnd when no session is open.
func (d *Dialog) State(chatID int64) State {
	if s, ok := d.sessions.Get(chatID); ok {
		return s.State
	}
	return StateEnd
}

// Session returns a copy of the chat's pending session.
func (d *Dialog) Session(chatID int64) (Session, bool) {
	s, ok := d.sessions.Get(chatID)
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Handle feeds one event to the dialog and returns the resulting state and replies.
func (d *Dialog) Handle(ctx context.Context, ev Event) Outcome {
	if ev.Kind == EventCallback && entryPattern.MatchString(ev.Data) {
		return d.enter(ctx, ev)
	}

	s, ok := d.sessions.Get(ev.ChatID)
	if !ok {
		return Outcome{State: StateEnd}
	}

	if ev.Kind == EventCommand {
		if ev.Data == CommandCancel {
			return d.cancel(s)
		}
		return Outcome{State: s.State}
	}

	switch s.State {
	case StateActionChoice:
		if ev.Kind != EventCallback {
			break
		}
		return d.action(ctx, s, ev.Data)
	case StateEmoji:
		if ev.Kind == EventCallback && !buttonPattern.MatchString(ev.Data) {
			break
		}
		return d.emoji(ctx, s, ev)
	case StateSlippage:
		if ev.Kind == EventCallback && !buttonPattern.MatchString(ev.Data) {
			break
		}
		return d.slippage(ctx, s, ev)
	}

	return Outcome{State: s.State}
}

func (d *Dialog) enter(ctx context.Context, ev Event) Outcome {
	address := strings.TrimPrefix(ev.Data, CallbackPrefix)
	if !chain.IsChecksumAddress(address) {
		d.logger.Warn("Rejected malformed token address", zap.Int64("chat_id", ev.ChatID), zap.String("address", address))
		return d.fail(ev.ChatID, invalidAddress)
	}

	w, ok := d.watchers.Get(ctx, address)
	if !ok {
		d.logger.Warn("Unknown token address", zap.Int64("chat_id", ev.ChatID), zap.String("address", address))
		return d.fail(ev.ChatID, unknownToken)
	}

	s := newSession(ev.ChatID, address)
	d.sessions.Put(s)
	d.trace(s, "dialog started")

	buttons := [][]Button{
		{
			{Text: w.Emoji + "Edit emoji", Data: CallbackEmoji},
			{Text: "Edit default slippage", Data: CallbackSlippage},
		},
		{
			{Text: "Edit buy price", Data: CallbackBuyPrice},
			{Text: "❌ Cancel", Data: CallbackCancel},
		},
	}
	return d.next(s, StateActionChoice, Reply{
		Text:    fmt.Sprintf("What do you want to edit for token %s?", html.EscapeString(w.Name)),
		Buttons: buttons,
		Edit:    d.updateMessages,
	})
}

func (d *Dialog) action(ctx context.Context, s *Session, data string) Outcome {
	switch data {
	case CallbackCancel:
		return d.cancel(s)
	case CallbackBuyPrice:
		// not implemented: the press is swallowed and the menu stays open
		d.trace(s, "buy price edit requested")
		return Outcome{Handled: true, State: s.State}
	case CallbackEmoji, CallbackSlippage:
	default:
		return Outcome{State: s.State}
	}

	w, ok := d.watchers.Get(ctx, s.TokenAddress)
	if !ok {
		return d.fail(s.ChatID, unknownToken)
	}

	if data == CallbackEmoji {
		buttons := [][]Button{{
			{Text: "🙅‍♂️ No emoji", Data: CallbackNoEmoji},
			{Text: "❌ Cancel", Data: CallbackCancel},
		}}
		return d.next(s, StateEmoji, Reply{
			Text: fmt.Sprintf("Please send me an EMOJI you would like to associate with %s for easy spotting, "+
				"or click the buttons below.", html.EscapeString(w.Symbol)),
			Buttons: buttons,
			Edit:    d.updateMessages,
		})
	}

	buttons := [][]Button{{
		{Text: fmt.Sprintf("%d%%", w.DefaultSlippage), Data: strconv.Itoa(w.DefaultSlippage)},
		{Text: "❌ Cancel", Data: CallbackCancel},
	}}
	return d.next(s, StateSlippage, Reply{
		Text: fmt.Sprintf("What is the default slippage in %% to use for swapping %s on PancakeSwap?",
			html.EscapeString(w.Name)),
		Buttons: buttons,
		Edit:    d.updateMessages,
	})
}

func (d *Dialog) emoji(ctx context.Context, s *Session, ev Event) Outcome {
	var icon *string
	if ev.Kind == EventText {
		v := strings.TrimSpace(ev.Data)
		icon = &v
	} else {
		switch ev.Data {
		case CallbackCancel:
			return d.cancel(s)
		case CallbackNoEmoji:
			icon = nil
		default:
			v := ev.Data
			icon = &v
		}
	}
	s.Icon = icon

	w, ok := d.watchers.Get(ctx, s.TokenAddress)
	if !ok {
		return d.fail(s.ChatID, unknownToken)
	}

	staged := w.Record.Clone()
	staged.Icon = s.Icon
	err := d.store.Save(ctx, staged)
	d.sessions.Delete(s.ChatID)
	if err != nil {
		d.logger.Error("Failed to save token icon",
			zap.Int64("chat_id", s.ChatID), zap.String("session_id", s.ID),
			zap.String("address", s.TokenAddress), zap.Error(err))
		return d.fail(s.ChatID, fmt.Sprintf("Failed to update database record: %v", err))
	}

	var name string
	d.watchers.Update(ctx, s.TokenAddress, func(w *watcher.TokenWatcher) {
		w.ApplyIcon(staged)
		name = w.Name
	})
	d.logger.Info("Token icon updated", zap.String("address", s.TokenAddress), zap.String("name", name))

	return d.end(s, Reply{
		Text: fmt.Sprintf(`Alright, the token will show as <b>"%s"</b>. `, html.EscapeString(name)),
		Edit: d.updateMessages,
	})
}

func (d *Dialog) slippage(ctx context.Context, s *Session, ev Event) Outcome {
	var slippage int
	if ev.Kind == EventText {
		v, err := strconv.Atoi(strings.TrimSpace(ev.Data))
		if err != nil {
			d.trace(s, "slippage text is not an integer")
			return d.retry(s, retryNotInteger)
		}
		slippage = v
	} else {
		if ev.Data == CallbackCancel {
			return d.cancel(s)
		}
		v, err := strconv.Atoi(ev.Data)
		if err != nil {
			return d.fail(s.ChatID, invalidSlippage)
		}
		slippage = v
	}

	if slippage < 1 {
		d.trace(s, "slippage below minimum")
		return d.retry(s, retryNotPositive)
	}
	s.DefaultSlippage = slippage

	w, ok := d.watchers.Get(ctx, s.TokenAddress)
	if !ok {
		return d.fail(s.ChatID, unknownToken)
	}

	staged := w.Record.Clone()
	staged.DefaultSlippage = s.DefaultSlippage
	err := d.store.Save(ctx, staged)
	d.sessions.Delete(s.ChatID)
	if err != nil {
		d.logger.Error("Failed to save default slippage",
			zap.Int64("chat_id", s.ChatID), zap.String("session_id", s.ID),
			zap.String("address", s.TokenAddress), zap.Error(err))
		return d.fail(s.ChatID, fmt.Sprintf("Failed to update database record: %v", err))
	}

	var name string
	d.watchers.Update(ctx, s.TokenAddress, func(w *watcher.TokenWatcher) {
		w.ApplySlippage(staged)
		name = w.Name
	})
	d.logger.Info("Token default slippage updated",
		zap.String("address", s.TokenAddress), zap.Int("default_slippage", s.DefaultSlippage))

	return d.end(s, Reply{
		Text: fmt.Sprintf("Alright, the token %s will use <b>%d%%</b> slippage by default.",
			html.EscapeString(name), s.DefaultSlippage),
		Edit: d.updateMessages,
	})
}

// cancel discards the session without writing anything.
func (d *Dialog) cancel(s *Session) Outcome {
	d.sessions.Delete(s.ChatID)
	d.trace(s, "dialog cancelled")
	return Outcome{
		Handled: true,
		State:   StateEnd,
		Replies: []Reply{{Text: cancelText}},
	}
}

// fail discards the chat's session and reports text as an error.
func (d *Dialog) fail(chatID int64, text string) Outcome {
	d.sessions.Delete(chatID)
	d.logger.Debug("dialog aborted", zap.Int64("chat_id", chatID), zap.String("reason", text))
	return Outcome{
		Handled: true,
		State:   StateEnd,
		Replies: []Reply{{Text: errorPrefix + text}},
	}
}

func (d *Dialog) retry(s *Session, text string) Outcome {
	return Outcome{
		Handled: true,
		State:   s.State,
		Replies: []Reply{{Text: text}},
	}
}

func (d *Dialog) next(s *Session, state State, reply Reply) Outcome {
	s.State = state
	d.trace(s, "transition")
	return Outcome{Handled: true, State: state, Replies: []Reply{reply}}
}

func (d *Dialog) end(s *Session, reply Reply) Outcome {
	s.State = StateEnd
	d.trace(s, "dialog completed")
	return Outcome{Handled: true, State: StateEnd, Replies: []Reply{reply}}
}

func (d *Dialog) trace(s *Session, msg string) {
	d.logger.Debug(msg,
		zap.Int64("chat_id", s.ChatID),
		zap.String("session_id", s.ID),
		zap.String("state", s.State.String()),
		zap.String("address", s.TokenAddress),
	)
}

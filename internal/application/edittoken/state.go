package edittoken

// State is a step of the edit token dialog.
type State int

const (
	StateEnd State = iota
	StateActionChoice
	StateEmoji
	StateSlippage
)

func (s State) String() string {
	switch s {
	case StateEnd:
		return "END"
	case StateActionChoice:
		return "ACTION_CHOICE"
	case StateEmoji:
		return "EMOJI"
	case StateSlippage:
		return "SLIPPAGE"
	default:
		return "UNKNOWN"
	}
}

// Callback payloads understood by the dialog.
const (
	CallbackPrefix   = "edittoken:"
	CallbackEmoji    = "emoji"
	CallbackSlippage = "slippage"
	CallbackBuyPrice = "buyprice"
	CallbackCancel   = "cancel"
	CallbackNoEmoji  = "None"

	CommandCancel = "cancel"
)

// EventKind tells how the operator produced an event.
type EventKind int

const (
	EventCallback EventKind = iota // inline button press
	EventText                      // free-text message
	EventCommand                   // slash command, Data holds the name without "/"
)

// Event is one inbound chat interaction.
type Event struct {
	ChatID int64
	Kind   EventKind
	Data   string
}

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Reply is a message the dialog wants shown in the chat.
// Edit asks the transport to replace the message that triggered the event.
type Reply struct {
	Text    string
	Buttons [][]Button
	Edit    bool
}

// Outcome is the result of feeding one event to the dialog.
// Handled is false when the event does not belong to the dialog.
type Outcome struct {
	Handled bool
	State   State
	Replies []Reply
}

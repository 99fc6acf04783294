package domain

// UserID is the chat platform's numeric user identifier.
type UserID int64

// ChatID identifies the chat an outbound message is delivered to.
// For direct conversations it equals the user id.
type ChatID int64

// Flow is a top-level user-initiated activity. At most one flow is
// active per user at a time.
type Flow string

const (
	FlowNone	Flow = ""
	FlowHabits	Flow = "habits"
	FlowManual	Flow = "manual"
	FlowDream	Flow = "dream"
	FlowThoughts	Flow = "thoughts"
	FlowConfig	Flow = "config"
)

// Phase is the flow-specific sub-state of a session.
type Phase string

const (
	PhaseNone		Phase = ""
	PhaseSelectingDate	Phase = "selecting_date"
	PhaseAwaitingCustomDate	Phase = "awaiting_custom_date"
	PhaseAwaitingInput	Phase = "awaiting_input"
	PhaseConfirming		Phase = "confirming"
	PhaseEditing		Phase = "editing"
	PhaseAwaitingManualJSON	Phase = "awaiting_manual_json"
	PhaseAwaitingText	Phase = "awaiting_text"
	PhaseAwaitingConfigJSON	Phase = "awaiting_config_json"
)

// Date and datetime layouts used everywhere a record touches the table.
// DateTimeLayout is zero-padded, so lexicographic order on formatted
// values equals chronological order.
const (
	DateLayout	= "2006-01-02"
	DateTimeLayout	= "2006-01-02 15:04:05"
)

package domain

// UserSession is the in-flight, unconfirmed state of one user's current
// flow. It is never persisted: a process restart loses drafts and the
// user simply restarts the flow.
type UserSession struct {
	UserID UserID
	ChatID ChatID

	Flow  Flow
	Phase Phase

	// NoteKind parametrizes the dream/thoughts flow; empty otherwise.
	NoteKind NoteKind

	// Draft accumulated while the flow runs.
	DraftDate string
	RawInput  string
	Extracted map[string]any
}

// Reset returns the session to idle and clears the draft.
func (s *UserSession) Reset() {
	s.Flow = FlowNone
	s.Phase = PhaseNone
	s.NoteKind = ""
	s.DraftDate = ""
	s.RawInput = ""
	s.Extracted = nil
}

// Idle reports whether no flow is active.
func (s *UserSession) Idle() bool {
	return s.Flow == FlowNone && s.Phase == PhaseNone
}

// NoteKind selects one of the free-text note flows. Dream and thoughts
// are the same state machine over a different worksheet and column.
type NoteKind string

const (
	NoteDream    NoteKind = "dream"
	NoteThoughts NoteKind = "thoughts"
)

// NoteSpec describes where a note kind lands and how prompts name it.
type NoteSpec struct {
	Worksheet string
	Column    string
	Noun      string
}

func (k NoteKind) Spec() NoteSpec {
	switch k {
	case NoteThoughts:
		return NoteSpec{Worksheet: "Thoughts", Column: "thought", Noun: "thoughts"}
	default:
		return NoteSpec{Worksheet: "Dreams", Column: "dream", Noun: "dream"}
	}
}

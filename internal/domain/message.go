package domain

// VoiceRef points at a voice attachment on the chat platform. The
// transport adapter knows how to fetch the audio behind it.
type VoiceRef struct {
	FileID string
}

// InboundMessage is one event delivered by the chat transport.
// Exactly one of Text / Voice carries the payload.
type InboundMessage struct {
	UserID UserID
	ChatID ChatID
	Text   string
	Voice  *VoiceRef
}

// HasVoice reports whether the message carries a voice attachment.
func (m InboundMessage) HasVoice() bool {
	return m.Voice != nil && m.Voice.FileID != ""
}

// OutboundMessage is what the engine emits. Keyboard rows are
// presentation hints only; transports without button support may
// ignore them.
type OutboundMessage struct {
	ChatID   ChatID
	Text     string
	Keyboard [][]string
}

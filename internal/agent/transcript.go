package agent

import "github.com/ppiankov/geoagent/internal/llm"

// Transcript is the append-only conversation of one run. Append returns a
// new transcript and never modifies the receiver's backing array.
type Transcript struct {
	msgs []llm.Message
}

// NewTranscript starts a conversation with the user goal
func NewTranscript(goal string) Transcript {
	return Transcript{msgs: []llm.Message{{Role: llm.RoleUser, Content: goal}}}
}

// Append returns the transcript extended by msgs
func (t Transcript) Append(msgs ...llm.Message) Transcript {
	out := make([]llm.Message, len(t.msgs), len(t.msgs)+len(msgs))
	copy(out, t.msgs)
	return Transcript{msgs: append(out, msgs...)}
}

// Messages returns a copy of the conversation
func (t Transcript) Messages() []llm.Message {
	out := make([]llm.Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

func (t Transcript) Len() int { return len(t.msgs) }

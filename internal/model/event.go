package model

// Phase is the coarse workflow stage a tool call belongs to
type Phase string

const (
	PhaseResearch Phase = "research"
	PhaseConnect  Phase = "connect"
	PhaseGenerate Phase = "generate"
)

// EventType classifies an agent progress event
type EventType string

const (
	EventPhase       EventType = "phase"
	EventToolCall    EventType = "tool_call"
	EventToolResult  EventType = "tool_result"
	EventThinking    EventType = "thinking"
	EventGraphUpdate EventType = "graph_update"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// Event is one observation emitted by a run. Only the fields that belong to
// Type are set.
type Event struct {
	Type       EventType      `json:"type"`
	Phase      Phase          `json:"phase,omitempty"`
	Name       string         `json:"name,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Summary    string         `json:"summary,omitempty"`
	Content    string         `json:"content,omitempty"`
	NodesAdded int            `json:"nodesAdded,omitempty"`
	EdgesAdded int            `json:"edgesAdded,omitempty"`
	Brief      *ContentBrief  `json:"brief,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// EventSink receives the events of a run in emission order
type EventSink func(Event)

func PhaseEvent(p Phase) Event {
	return Event{Type: EventPhase, Phase: p}
}

func ToolCallEvent(name string, args map[string]any) Event {
	return Event{Type: EventToolCall, Name: name, Args: args}
}

func ToolResultEvent(name, summary string) Event {
	return Event{Type: EventToolResult, Name: name, Summary: summary}
}

func ThinkingEvent(content string) Event {
	return Event{Type: EventThinking, Content: content}
}

// GraphUpdateEvent reports graph writes; every write counts as one node and one edge
func GraphUpdateEvent(nodes int) Event {
	return Event{Type: EventGraphUpdate, NodesAdded: nodes, EdgesAdded: nodes}
}

func CompleteEvent(b *ContentBrief) Event {
	return Event{Type: EventComplete, Brief: b}
}

func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

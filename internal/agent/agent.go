// Package agent drives a tool-calling model through research, graph updates
// and brief generation under a fixed iteration budget.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/geoagent/internal/llm"
	"github.com/ppiankov/geoagent/internal/model"
)

// ErrNoBrief is returned when the iteration budget runs out before a brief is generated
var ErrNoBrief = errors.New("agent failed to generate a content brief after maximum iterations")

// Agent runs one brief-generation conversation per Run call. It holds no
// per-run state and is safe for concurrent use.
type Agent struct {
	caller  llm.ToolCaller
	tools   *Registry
	history ContextSource
	cfg     model.AgentConfig
	logger  *slog.Logger
}

// New creates an agent. history may be nil, in which case no dynamic context is added.
func New(caller llm.ToolCaller, tools *Registry, history ContextSource, cfg model.AgentConfig, logger *slog.Logger) *Agent {
	def := model.DefaultConfig().Agent
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.ForcedTail < 0 {
		cfg.ForcedTail = 0
	}
	if cfg.ResultCharLimit <= 0 {
		cfg.ResultCharLimit = def.ResultCharLimit
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Agent{caller: caller, tools: tools, history: history, cfg: cfg, logger: logger}
}

// Run drives one request to a finished brief. Events are delivered to sink
// synchronously in emission order. On success the last event is complete.
func (a *Agent) Run(ctx context.Context, req model.RunRequest, sink model.EventSink) (*model.ContentBrief, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = func(model.Event) {}
	}

	system := SystemPrompt(DynamicContext(ctx, a.history, a.logger))
	transcript := NewTranscript(UserGoal(req))
	specs := a.tools.Specs()
	log := a.logger.With("location", req.Location, "topic", req.Topic)

	var (
		final      *model.ContentBrief
		nodesAdded int
	)

	for i := 0; i < a.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chat := llm.ChatRequest{System: system, Messages: transcript.Messages(), Tools: specs}
		if i >= a.cfg.MaxIterations-a.cfg.ForcedTail {
			chat.ForceTool = ToolGenerateContentBrief
		}
		log.Debug("agent iteration", "iteration", i+1, "forced", chat.ForceTool != "")

		resp, err := a.caller.Chat(ctx, chat)
		if err != nil {
			log.Warn("model turn failed", "iteration", i+1, "error", err)
			sink(model.ErrorEvent(err.Error()))
			continue
		}

		transcript = transcript.Append(llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			if resp.Content != "" {
				sink(model.ThinkingEvent(resp.Content))
			}
			if final != nil {
				break
			}
			continue
		}

		for _, call := range resp.ToolCalls {
			msg, b, n := a.dispatch(ctx, call, sink)
			transcript = transcript.Append(msg)
			nodesAdded += n
			if b != nil {
				final = b
			}
		}

		if final != nil {
			break
		}
	}

	if final == nil {
		return nil, ErrNoBrief
	}
	log.Info("brief generated", "id", final.ID, "geo_score", final.GeoScore.Overall, "nodes_added", nodesAdded)
	sink(model.CompleteEvent(final))
	return final, nil
}

// dispatch executes one tool call, emitting its events, and returns the tool
// message for the transcript with the number of graph nodes written.
func (a *Agent) dispatch(ctx context.Context, call llm.ToolCall, sink model.EventSink) (llm.Message, *model.ContentBrief, int) {
	sink(model.PhaseEvent(a.tools.PhaseOf(call.Name)))

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			a.logger.Debug("tool arguments are not an object", "tool", call.Name, "error", err)
		}
	}
	sink(model.ToolCallEvent(call.Name, args))

	outcome, err := a.execute(ctx, call)
	if err != nil {
		a.logger.Warn("tool failed", "tool", call.Name, "error", err)
		sink(model.ErrorEvent(fmt.Sprintf("%s: %v", call.Name, err)))
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		return llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: string(payload)}, nil, 0
	}

	if outcome.NodesAdded > 0 {
		sink(model.GraphUpdateEvent(outcome.NodesAdded))
	}

	tool, _ := a.tools.Lookup(call.Name)
	summary := "No result"
	if outcome.Result != nil {
		summary = "Completed"
		if tool.Summarize != nil {
			summary = tool.Summarize(outcome)
		}
	}
	sink(model.ToolResultEvent(call.Name, summary))

	return llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: a.serialize(outcome.Result)}, outcome.Brief, outcome.NodesAdded
}

func (a *Agent) execute(ctx context.Context, call llm.ToolCall) (Outcome, error) {
	tool, ok := a.tools.Lookup(call.Name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	if call.Arguments != "" && !json.Valid([]byte(call.Arguments)) {
		return Outcome{}, errors.New("invalid arguments: malformed JSON")
	}
	return tool.Execute(ctx, json.RawMessage(call.Arguments))
}

func (a *Agent) serialize(result any) string {
	data, err := json.Marshal(result)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": "unserializable result: " + err.Error()})
	}
	return truncateRunes(string(data), a.cfg.ResultCharLimit)
}

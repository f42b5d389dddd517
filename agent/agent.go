// Package agent implements the agent execution loop: system prompt plus
// chat history plus user input go to the model; requested tool calls are
// executed (or short-circuited by the duplicate guard) and fed back; the
// loop ends when the model answers without tool calls or the iteration
// limit is hit. Progress is reported through lifecycle events on the bus.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/logging"
	"github.com/hupe1980/agentflow/model"
	"github.com/hupe1980/agentflow/tool"
)

// DefaultMaxIterations bounds the tool loop when no limit is configured.
const DefaultMaxIterations = 10

// ErrMaxIterations is returned when the model keeps requesting tool calls
// past the iteration limit. Distinct from model or tool failures so callers
// can treat non-convergence separately.
var ErrMaxIterations = errors.New("maximum tool iterations exceeded")

// Options configure an Agent.
type Options struct {
	SystemPrompt  string
	Tools         *tool.Registry
	MaxIterations int
	Guard         GuardConfig
	Temperature   float64
	MaxTokens     int
	Logger        logging.Logger
}

// Agent runs a model in a tool-calling loop.
type Agent struct {
	name  string
	model model.Model
	opts  Options
}

// Input carries the user input and prior chat history into an execution.
// Data may be empty when the history alone drives the turn.
type Input struct {
	Data    string
	History []core.Message
}

// Metadata summarizes an execution.
type Metadata struct {
	AgentName   string        `json:"agent_name"`
	Duration    time.Duration `json:"duration_ns"`
	LLMCalls    int           `json:"llm_calls"`
	ToolCalls   int           `json:"tool_calls_count"`
	TotalTokens int           `json:"token_count"`
}

// Output is the result of a successful execution. History is the working
// history including the assistant and tool messages this execution produced,
// but excluding the agent's own system prompt so histories can be shared
// between agents without prompts accumulating.
type Output struct {
	Data     string
	History  []core.Message
	Metadata Metadata
}

// New creates an agent for the given model.
func New(name string, m model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Guard:         DefaultGuardConfig(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Agent{name: name, model: m, opts: opts}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Execute runs the loop without event emission.
func (a *Agent) Execute(ctx context.Context, input Input) (Output, error) {
	return a.ExecuteWithEvents(ctx, input, nil)
}

// ExecuteWithEvents runs the loop, emitting lifecycle events through the
// given emitter. A nil emitter disables emission.
func (a *Agent) ExecuteWithEvents(ctx context.Context, input Input, emitter *core.Emitter) (Output, error) {
	start := time.Now()
	_ = emitter.AgentStarted(a.name)

	out, err := a.run(ctx, input, emitter, start)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			_ = emitter.AgentCanceled(a.name)
		default:
			_ = emitter.AgentFailed(a.name, err)
		}
		return Output{}, err
	}

	_ = emitter.AgentCompleted(a.name, map[string]any{
		"execution_time_ms": out.Metadata.Duration.Milliseconds(),
		"llm_calls":         out.Metadata.LLMCalls,
		"tool_calls_count":  out.Metadata.ToolCalls,
		"token_count":       out.Metadata.TotalTokens,
	})
	return out, nil
}

func (a *Agent) run(ctx context.Context, input Input, emitter *core.Emitter, start time.Time) (Output, error) {
	messages := a.composeMessages(input)
	tracker := newCallTracker()

	var toolDefs []model.ToolDefinition
	if a.opts.Tools != nil {
		toolDefs = a.opts.Tools.Definitions()
	}

	meta := Metadata{AgentName: a.name}

	for iteration := 1; iteration <= a.opts.MaxIterations; iteration++ {
		// Cancellation is cooperative: checked between iterations, never
		// mid tool execution.
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}

		resp, err := a.completeOnce(ctx, messages, toolDefs, emitter, iteration)
		if err != nil {
			return Output{}, err
		}

		meta.LLMCalls++
		if resp.Usage != nil {
			meta.TotalTokens += resp.Usage.TotalTokens
		} else {
			meta.TotalTokens += len(resp.Content) / 4
		}

		messages = append(messages, core.Message{
			Role:      core.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			meta.Duration = time.Since(start)
			history := messages
			if a.opts.SystemPrompt != "" {
				history = history[1:]
			}
			return Output{Data: resp.Content, History: history, Metadata: meta}, nil
		}

		for _, tc := range resp.ToolCalls {
			toolMsg, executed := a.handleToolCall(ctx, tc, tracker, emitter)
			messages = append(messages, toolMsg)
			if executed {
				meta.ToolCalls++
			}
		}
	}

	return Output{}, fmt.Errorf("%w: agent %s did not converge within %d iterations", ErrMaxIterations, a.name, a.opts.MaxIterations)
}

// composeMessages builds the working history: system prompt first, then the
// incoming history, then the user input.
func (a *Agent) composeMessages(input Input) []core.Message {
	messages := make([]core.Message, 0, len(input.History)+2)
	if a.opts.SystemPrompt != "" {
		messages = append(messages, core.SystemMessage(a.opts.SystemPrompt))
	}
	messages = append(messages, core.CopyMessages(input.History)...)
	if input.Data != "" {
		messages = append(messages, core.UserMessage(input.Data))
	}
	return messages
}

// completeOnce performs one model turn, streaming when the model supports
// it, and emits the llm request lifecycle events.
func (a *Agent) completeOnce(ctx context.Context, messages []core.Message, toolDefs []model.ToolDefinition, emitter *core.Emitter, iteration int) (*model.Response, error) {
	_ = emitter.LLMStarted(a.name, iteration)
	llmStart := time.Now()

	req := model.Request{
		Messages:    messages,
		Tools:       toolDefs,
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	}

	var resp *model.Response
	var err error
	if sm, ok := a.model.(model.StreamingModel); ok {
		resp, err = sm.CompleteStream(ctx, req, func(chunk string) {
			_ = emitter.LLMProgress(a.name, iteration, chunk)
		})
	} else {
		resp, err = a.model.Complete(ctx, req)
	}

	if logger, ok := a.opts.Logger.(*logging.AgentFlowLogger); ok {
		logger.LogLLMCall(a.name, iteration, time.Since(llmStart), err)
	}

	if err != nil {
		_ = emitter.LLMFailed(a.name, iteration, err)
		return nil, fmt.Errorf("llm request failed for agent %s: %w", a.name, err)
	}

	data := map[string]any{"duration_ms": time.Since(llmStart).Milliseconds()}
	if resp.Usage != nil {
		data["prompt_tokens"] = resp.Usage.PromptTokens
		data["completion_tokens"] = resp.Usage.CompletionTokens
		data["total_tokens"] = resp.Usage.TotalTokens
	}
	_ = emitter.LLMCompleted(a.name, iteration, data)

	return resp, nil
}

// handleToolCall runs one requested tool call through guard check and
// execution, returning the tool message to append and whether the tool
// actually ran.
func (a *Agent) handleToolCall(ctx context.Context, tc core.ToolCall, tracker *callTracker, emitter *core.Emitter) (core.Message, bool) {
	if a.opts.Guard.Enabled {
		if prev, repeats, dup := tracker.Check(tc.Name, tc.Arguments); dup {
			msg := a.opts.Guard.Message(tc.Name, prev)
			_ = emitter.SystemProgress("loop-guard",
				fmt.Sprintf("duplicate call to %s short-circuited", tc.Name),
				map[string]any{
					"tool":            tc.Name,
					"agent":           a.name,
					"arguments":       tc.Arguments,
					"previous_result": prev,
					"repeat_count":    repeats,
				},
			)
			a.opts.Logger.Warn("agent.tool.duplicate", "agent", a.name, "tool", tc.Name, "repeat_count", repeats)
			return core.ToolMessage(tc.ID, msg), false
		}
	}

	resultText := a.executeTool(ctx, tc, emitter)
	tracker.Record(tc.Name, tc.Arguments, resultText)
	return core.ToolMessage(tc.ID, resultText), true
}

// executeTool resolves, validates and runs a tool, emitting tool lifecycle
// events. Failures are rendered as text so the model can recover.
func (a *Agent) executeTool(ctx context.Context, tc core.ToolCall, emitter *core.Emitter) string {
	_ = emitter.ToolStarted(tc.Name)
	start := time.Now()

	fail := func(err error) string {
		_ = emitter.ToolFailed(tc.Name, err)
		if logger, ok := a.opts.Logger.(*logging.AgentFlowLogger); ok {
			logger.LogToolCall(a.name, tc.Name, time.Since(start), err)
		}
		return fmt.Sprintf("error: %s", err)
	}

	if a.opts.Tools == nil {
		return fail(fmt.Errorf("agent %s has no tools registered", a.name))
	}
	t, ok := a.opts.Tools.Get(tc.Name)
	if !ok {
		return fail(fmt.Errorf("unknown tool %q", tc.Name))
	}

	args := map[string]any{}
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return fail(fmt.Errorf("invalid tool arguments: %w", err))
		}
	}

	result, err := t.Execute(ctx, args)
	duration := time.Since(start)
	if err != nil {
		return fail(err)
	}

	if logger, ok := a.opts.Logger.(*logging.AgentFlowLogger); ok {
		logger.LogToolCall(a.name, tc.Name, duration, nil)
	}

	if result.Status == tool.StatusError {
		_ = emitter.ToolFailed(tc.Name, errors.New(result.Message))
	} else {
		_ = emitter.ToolCompleted(tc.Name, map[string]any{
			"status":      string(result.Status),
			"duration_ms": duration.Milliseconds(),
		})
	}
	return result.Text()
}

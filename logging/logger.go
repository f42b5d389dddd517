// Package logging provides the minimal logging abstraction used across
// agentflow. Components depend on the small Logger interface; applications
// plug in slog via SlogAdapter or stay silent with NoOpLogger.
package logging

import (
	"log/slog"
	"os"
	"time"
)

// Logger is the minimal structured logging interface. Args are alternating
// key/value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter adapts a *slog.Logger to the Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps an existing slog logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// NewDefaultLogger returns a text slog logger writing to stderr at the given
// level.
func NewDefaultLogger(level slog.Level) *SlogAdapter {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &SlogAdapter{logger: slog.New(handler)}
}

// Debug implements Logger.
func (a *SlogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }

// Info implements Logger.
func (a *SlogAdapter) Info(msg string, args ...any) { a.logger.Info(msg, args...) }

// Warn implements Logger.
func (a *SlogAdapter) Warn(msg string, args ...any) { a.logger.Warn(msg, args...) }

// Error implements Logger.
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }

// NoOpLogger discards everything. The zero value is ready to use and is the
// default logger throughout agentflow.
type NoOpLogger struct{}

// Debug implements Logger.
func (NoOpLogger) Debug(msg string, args ...any) {}

// Info implements Logger.
func (NoOpLogger) Info(msg string, args ...any) {}

// Warn implements Logger.
func (NoOpLogger) Warn(msg string, args ...any) {}

// Error implements Logger.
func (NoOpLogger) Error(msg string, args ...any) {}

// AgentFlowLogger decorates a Logger with sticky context fields and domain
// helpers for the runtime's main surfaces.
type AgentFlowLogger struct {
	logger Logger
	fields []any
}

// NewAgentFlowLogger wraps a base logger.
func NewAgentFlowLogger(logger Logger) *AgentFlowLogger {
	if logger == nil {
		logger = NoOpLogger{}
	}
	return &AgentFlowLogger{logger: logger}
}

// WithWorkflow returns a logger carrying the workflow id on every record.
func (l *AgentFlowLogger) WithWorkflow(workflowID string) *AgentFlowLogger {
	return l.with("workflow_id", workflowID)
}

// WithComponent returns a logger carrying a component name on every record.
func (l *AgentFlowLogger) WithComponent(component string) *AgentFlowLogger {
	return l.with("component", component)
}

func (l *AgentFlowLogger) with(args ...any) *AgentFlowLogger {
	fields := make([]any, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &AgentFlowLogger{logger: l.logger, fields: fields}
}

func (l *AgentFlowLogger) merge(args []any) []any {
	if len(l.fields) == 0 {
		return args
	}
	out := make([]any, 0, len(l.fields)+len(args))
	out = append(out, l.fields...)
	out = append(out, args...)
	return out
}

// Debug implements Logger.
func (l *AgentFlowLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, l.merge(args)...) }

// Info implements Logger.
func (l *AgentFlowLogger) Info(msg string, args ...any) { l.logger.Info(msg, l.merge(args)...) }

// Warn implements Logger.
func (l *AgentFlowLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, l.merge(args)...) }

// Error implements Logger.
func (l *AgentFlowLogger) Error(msg string, args ...any) { l.logger.Error(msg, l.merge(args)...) }

// LogLLMCall records a completed model call.
func (l *AgentFlowLogger) LogLLMCall(agentName string, iteration int, duration time.Duration, err error) {
	args := []any{"agent", agentName, "iteration", iteration, "duration_ms", duration.Milliseconds()}
	if err != nil {
		l.Error("llm.call.failed", append(args, "error", err.Error())...)
		return
	}
	l.Debug("llm.call.completed", args...)
}

// LogToolCall records a completed tool execution.
func (l *AgentFlowLogger) LogToolCall(agentName, toolName string, duration time.Duration, err error) {
	args := []any{"agent", agentName, "tool", toolName, "duration_ms", duration.Milliseconds()}
	if err != nil {
		l.Error("tool.call.failed", append(args, "error", err.Error())...)
		return
	}
	l.Debug("tool.call.completed", args...)
}

// LogStepExecution records a completed workflow step.
func (l *AgentFlowLogger) LogStepExecution(workflowID, stepName string, index int, duration time.Duration, err error) {
	args := []any{"workflow_id", workflowID, "step", stepName, "index", index, "duration_ms", duration.Milliseconds()}
	if err != nil {
		l.Error("step.execution.failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("step.execution.completed", args...)
}

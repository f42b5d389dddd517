package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// DefaultGuardMessage is the synthesized tool result injected when a
// duplicate tool call is short-circuited. The {tool_name} and
// {previous_result} placeholders are substituted at injection time.
const DefaultGuardMessage = "I notice I'm calling {tool_name} again with the same parameters. " +
	"The previous result was: {previous_result}. " +
	"I should use this result instead of calling the tool again."

// GuardConfig controls duplicate tool call detection. When enabled, a tool
// call repeating an earlier call with the same name and semantically equal
// arguments is not executed; the previous result is replayed through a
// synthesized tool message instead.
type GuardConfig struct {
	Enabled         bool
	MessageTemplate string
}

// DefaultGuardConfig returns the guard in its default enabled state.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Enabled:         true,
		MessageTemplate: DefaultGuardMessage,
	}
}

// Message renders the short-circuit message for a duplicate call.
func (c GuardConfig) Message(toolName, previousResult string) string {
	tmpl := c.MessageTemplate
	if tmpl == "" {
		tmpl = DefaultGuardMessage
	}
	msg := strings.ReplaceAll(tmpl, "{tool_name}", toolName)
	return strings.ReplaceAll(msg, "{previous_result}", previousResult)
}

// trackedCall is one executed tool call and how often it has been repeated.
type trackedCall struct {
	result  string
	repeats int
}

// callTracker remembers executed tool calls by fingerprint within a single
// agent execution.
type callTracker struct {
	calls map[string]*trackedCall
}

func newCallTracker() *callTracker {
	return &callTracker{calls: make(map[string]*trackedCall)}
}

// fingerprint derives a canonical identity for a tool call. The raw argument
// JSON is decoded and re-encoded so key order does not matter: {"a":1,"b":2}
// and {"b":2,"a":1} produce the same fingerprint. Arguments that are not
// valid JSON are hashed as-is.
func fingerprint(toolName, rawArgs string) string {
	canonical := rawArgs
	var decoded any
	if err := json.Unmarshal([]byte(rawArgs), &decoded); err == nil {
		if encoded, err := json.Marshal(decoded); err == nil {
			canonical = string(encoded)
		}
	}

	sum := sha256.Sum256([]byte(toolName + "\x00" + canonical))
	return toolName + ":" + hex.EncodeToString(sum[:])
}

// Check returns the previous result and the repeat count if this call
// duplicates a recorded one. Each hit bumps the count, so the first repeat
// reports 1.
func (t *callTracker) Check(toolName, rawArgs string) (string, int, bool) {
	rec, ok := t.calls[fingerprint(toolName, rawArgs)]
	if !ok {
		return "", 0, false
	}
	rec.repeats++
	return rec.result, rec.repeats, true
}

// Record stores the result of an executed call.
func (t *callTracker) Record(toolName, rawArgs, result string) {
	t.calls[fingerprint(toolName, rawArgs)] = &trackedCall{result: result}
}

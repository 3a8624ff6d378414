package nudge

import (
	"fmt"
	"strings"
)

// Action identifies what a user response asks the scheduler to do.
type Action string

const (
	ActionView       Action = "view"
	ActionReplay     Action = "replay"
	ActionSaveMemory Action = "save_memory"
	ActionDismiss    Action = "dismiss"
	// ActionNone marks a delivery record awaiting its first (and only) response.
	ActionNone Action = "none"
)

// ParseAction converts a string into a known response Action. ActionNone is
// not a valid wire action and is rejected.
func ParseAction(value string) (Action, bool) {
	normalized := Action(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case ActionView, ActionReplay, ActionSaveMemory, ActionDismiss:
		return normalized, true
	default:
		return "", false
	}
}

// Payload is the decoded form of the notification payload string.
type Payload struct {
	TemplateID string
	Action     Action
}

// EncodePayload builds the "<templateId>:<action>" wire payload. The wire
// format is ASCII-safe and colon-delimited; template identifiers containing
// colons cannot round-trip and are rejected.
func EncodePayload(templateID string, action Action) (string, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return "", fmt.Errorf("payload template id is required")
	}
	if strings.Contains(templateID, ":") {
		return "", fmt.Errorf("template id %q must not contain a colon", templateID)
	}
	if _, ok := ParseAction(string(action)); !ok {
		return "", fmt.Errorf("unknown payload action %q", action)
	}
	return templateID + ":" + string(action), nil
}

// DecodePayload parses a wire payload back into its parts.
func DecodePayload(raw string) (Payload, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Payload{}, fmt.Errorf("empty notification payload")
	}
	idx := strings.LastIndex(trimmed, ":")
	if idx <= 0 || idx == len(trimmed)-1 {
		return Payload{}, fmt.Errorf("malformed notification payload %q", raw)
	}
	templateID := trimmed[:idx]
	if strings.Contains(templateID, ":") {
		return Payload{}, fmt.Errorf("malformed notification payload %q", raw)
	}
	action, ok := ParseAction(trimmed[idx+1:])
	if !ok {
		return Payload{}, fmt.Errorf("unknown action in notification payload %q", raw)
	}
	return Payload{TemplateID: templateID, Action: action}, nil
}

package contextwindow

import (
	"fmt"
	"strings"
	"time"

	"github.com/craftlane/chatbridge/core"
)

// Summarize compresses everything but the most recent PreserveRecent turns
// into a single synthetic summary turn prepended to the preserved tail. The
// summary quotes the first few user requests, truncated to excerpt length,
// and lists the first few distinct tool actions in the order they appeared.
//
// Inputs at or below the preserve horizon are returned unchanged, so the
// operation is idempotent: summarizing an already-summarized history is a
// no-op.
func (m *Manager) Summarize(messages []core.Message) []core.Message {
	if len(messages) <= m.config.PreserveRecent {
		return messages
	}

	split := len(messages) - m.config.PreserveRecent
	old := messages[:split]
	recent := messages[split:]

	summary := m.buildSummary(old)

	ts := time.Now().UTC()
	if len(old) > 0 {
		ts = old[len(old)-1].Timestamp
	}
	summaryTurn := core.Message{
		ID:        core.SummaryMessageID,
		Role:      core.RoleAssistant,
		Content:   summary,
		Timestamp: ts,
		Metadata:  map[string]any{core.MetaIsSummary: true},
	}

	m.logger.Info("summarized conversation history",
		"compressed", len(old), "preserved", len(recent))

	out := make([]core.Message, 0, len(recent)+1)
	out = append(out, summaryTurn)
	out = append(out, recent...)
	return out
}

func (m *Manager) buildSummary(old []core.Message) string {
	parts := []string{"Summary of earlier conversation:"}

	var requests []string
	var actions []string
	seenActions := make(map[string]struct{})

	for _, msg := range old {
		switch msg.Role {
		case core.RoleUser:
			requests = append(requests, excerpt(msg.Content, m.config.ExcerptLen))
		case core.RoleAssistant:
			for _, name := range toolCallNames(msg.Metadata) {
				action := name + " action"
				if _, seen := seenActions[action]; seen {
					continue
				}
				seenActions[action] = struct{}{}
				actions = append(actions, action)
			}
		}
	}

	if len(requests) > m.config.MaxUserExcerpts {
		requests = requests[:m.config.MaxUserExcerpts]
	}
	if len(actions) > m.config.MaxActions {
		actions = actions[:m.config.MaxActions]
	}

	if len(requests) > 0 {
		parts = append(parts, fmt.Sprintf("User asked about: %s", strings.Join(requests, ", ")))
	}
	if len(actions) > 0 {
		parts = append(parts, fmt.Sprintf("Actions taken: %s", strings.Join(actions, ", ")))
	}

	return strings.Join(parts, "\n")
}

// excerpt truncates content to max characters, appending an ellipsis when
// anything was cut. Truncation counts runes so multi-byte text is never
// split mid-character.
func excerpt(content string, max int) string {
	runes := []rune(content)
	if len(runes) < max {
		return content
	}
	return string(runes[:max]) + "..."
}

// toolCallNames extracts tool names from an assistant turn's metadata. The
// toolCalls entry may arrive as []map[string]any from in-process callers or
// as []any of map[string]any after a JSON round trip.
func toolCallNames(metadata map[string]any) []string {
	if metadata == nil {
		return nil
	}
	raw, ok := metadata[core.MetaToolCalls]
	if !ok {
		return nil
	}

	var names []string
	appendName := func(call map[string]any) {
		name := "unknown"
		if n, ok := call["name"].(string); ok && n != "" {
			name = n
		}
		names = append(names, name)
	}

	switch calls := raw.(type) {
	case []map[string]any:
		for _, call := range calls {
			appendName(call)
		}
	case []any:
		for _, entry := range calls {
			if call, ok := entry.(map[string]any); ok {
				appendName(call)
			}
		}
	}
	return names
}

package assistant

import (
	"github.com/tripmate/tripmate-backend/internal/types"
)

// Normalize converts a UI transcript into the flat role/content form the
// model consumes. Only user and assistant messages survive: the system
// prompt is server-owned, so a client-supplied system role is dropped rather
// than forwarded. Assistant messages with unresolved tool calls are dropped
// entirely: they encode an interrupted streaming turn and would produce a
// malformed transcript on the provider side. All other messages have their
// text parts concatenated in order; file and tool parts are not resent to
// the model. A message whose text collapses to "" is kept with empty
// content — it is still a valid turn boundary.
func Normalize(messages []types.ChatMessage) []types.ModelMessage {
	normalized := make([]types.ModelMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != types.RoleUser && msg.Role != types.RoleAssistant {
			continue
		}
		if !msg.Complete() {
			continue
		}
		normalized = append(normalized, types.ModelMessage{
			Role:    msg.Role,
			Content: msg.Text(),
		})
	}
	return normalized
}

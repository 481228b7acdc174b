package core

import (
	"context"
	"encoding/json"
)

// BuildConversation reconstructs the message sequence for a user: one leading
// instruction message followed by the persisted history in insertion order.
// The instruction role depends on the configured backend (see
// InstructionRoleFor); the replayed roles map one to one, with unknown roles
// replayed as user turns so a foreign record cannot break a session.
func BuildConversation(ctx context.Context, store MessageStore, user User, instructionRole, systemPrompt string) ([]Message, error) {
	history, err := store.MessagesForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, Message{Role: instructionRole, Content: systemPrompt})

	for _, stored := range history {
		switch stored.Role {
		case RoleAssistant:
			msgs = append(msgs, Message{
				Role:      RoleAssistant,
				Content:   stored.Content,
				ToolCalls: wireToolCalls(stored.ToolCalls),
			})
		case RoleTool:
			var result ToolResult
			if err := json.Unmarshal([]byte(stored.Content), &result); err != nil {
				// The model saw this result; a context rebuilt without it
				// would silently diverge from the record.
				return nil, &ReconstructionError{MessageID: stored.ID, Err: err}
			}
			msgs = append(msgs, toolMessage(result))
		default:
			// RoleUser and anything unrecognized.
			msgs = append(msgs, Message{Role: RoleUser, Content: stored.Content})
		}
	}
	return msgs, nil
}

// wireToolCalls rebuilds the API representation of persisted tool calls.
func wireToolCalls(stored []StoredToolCall) []ToolCall {
	if len(stored) == 0 {
		return nil
	}
	calls := make([]ToolCall, 0, len(stored))
	for _, call := range stored {
		args, _ := json.Marshal(call.Arguments)
		calls = append(calls, ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: FunctionCall{
				Name:      call.Name,
				Arguments: string(args),
			},
		})
	}
	return calls
}

// toolMessage renders a tool result as the wire message the model consumes.
func toolMessage(result ToolResult) Message {
	payload, _ := json.Marshal(result.Result)
	return Message{
		Role:       RoleTool,
		ToolCallID: result.ToolCallID,
		Content:    string(payload),
	}
}

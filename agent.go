package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Agent owns the live message sequence for one user session and resolves
// tool calls until the model produces a plain answer.
type Agent struct {
	config   Config
	client   *Client
	registry *Registry
	store    MessageStore
	logger   *slog.Logger

	user User
	msgs []Message

	// Optional hooks - nil means no output.

	// OnToolCall is called before a tool executes.
	OnToolCall func(name string, args map[string]string)

	// OnToolDone is called after a tool executes, with its full result.
	OnToolDone func(result ToolResult)
}

// NewAgent creates an agent bound to a store and tool registry. Call Resume
// before Chat to load a user's history.
func NewAgent(config Config, client *Client, registry *Registry, store MessageStore, logger *slog.Logger) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		config:   config,
		client:   client,
		registry: registry,
		store:    store,
		logger:   logger,
	}, nil
}

// Resume binds the agent to a user and rebuilds their conversation sequence
// from the store: the instruction message first, then the replayed history.
func (a *Agent) Resume(ctx context.Context, user User, systemPrompt string) error {
	role := InstructionRoleFor(a.config.Model)
	msgs, err := BuildConversation(ctx, a.store, user, role, systemPrompt)
	if err != nil {
		return err
	}
	a.user = user
	a.msgs = msgs
	a.logger.Debug("conversation resumed", "user", user.Email, "messages", len(msgs)-1)
	return nil
}

// Chat processes one user turn: it persists the input, then alternates model
// calls and tool execution until the model answers without requesting tools.
// Every message is persisted before the next model call is issued, so a
// crash never loses a turn the model already saw.
//
// The loop is bounded by MaxToolRounds; a model that keeps requesting tools
// gets ErrToolRoundsExceeded instead of looping forever.
func (a *Agent) Chat(ctx context.Context, input string) (string, error) {
	if err := a.persist(ctx, StoredMessage{Role: RoleUser, Content: input}); err != nil {
		return "", err
	}
	a.msgs = append(a.msgs, Message{Role: RoleUser, Content: input})

	specs := a.registry.Specs()
	for rounds := 0; ; rounds++ {
		msg, err := a.client.ChatCompletion(ctx, a.msgs, specs)
		if err != nil {
			return "", err
		}

		// No tool calls = the answer is final.
		if len(msg.ToolCalls) == 0 {
			if err := a.persist(ctx, StoredMessage{Role: RoleAssistant, Content: msg.Content}); err != nil {
				return "", err
			}
			a.msgs = append(a.msgs, Message{Role: RoleAssistant, Content: msg.Content})
			return msg.Content, nil
		}

		if rounds >= a.config.MaxToolRounds {
			return "", fmt.Errorf("%w after %d rounds", ErrToolRoundsExceeded, rounds)
		}

		// The call batch is authoritative; the text at this point is
		// typically empty. Persist the turn with its calls attached before
		// executing any of them.
		if err := a.persist(ctx, StoredMessage{
			Role:      RoleAssistant,
			Content:   msg.Content,
			ToolCalls: storedToolCalls(msg.ToolCalls),
		}); err != nil {
			return "", err
		}
		a.msgs = append(a.msgs, Message{Role: RoleAssistant, Content: msg.Content, ToolCalls: msg.ToolCalls})

		for _, call := range msg.ToolCalls {
			if a.OnToolCall != nil {
				a.OnToolCall(call.Function.Name, decodeArgs(call.Function.Arguments))
			}
			result := a.registry.Execute(ctx, call)
			if a.OnToolDone != nil {
				a.OnToolDone(result)
			}
			a.logger.Debug("tool executed", "tool", result.ToolName, "call_id", result.ToolCallID)

			payload, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("encode tool result: %w", err)
			}
			if err := a.persist(ctx, StoredMessage{Role: RoleTool, Content: string(payload)}); err != nil {
				return "", err
			}
			a.msgs = append(a.msgs, toolMessage(result))
		}
	}
}

// Messages returns the live conversation sequence.
func (a *Agent) Messages() []Message {
	return a.msgs
}

func (a *Agent) persist(ctx context.Context, msg StoredMessage) error {
	msg.UserID = a.user.ID
	if _, err := a.store.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("persist %s message: %w", msg.Role, err)
	}
	return nil
}

// storedToolCalls converts wire tool calls into their persisted form.
func storedToolCalls(calls []ToolCall) []StoredToolCall {
	stored := make([]StoredToolCall, 0, len(calls))
	for _, call := range calls {
		stored = append(stored, StoredToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: decodeArgs(call.Function.Arguments),
		})
	}
	return stored
}

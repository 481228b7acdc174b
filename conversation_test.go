package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, store *memStore, userID int64) {
	t.Helper()
	ctx := context.Background()
	records := []StoredMessage{
		{UserID: userID, Role: RoleUser, Content: "What's the weather in London?"},
		{UserID: userID, Role: RoleAssistant, Content: "", ToolCalls: []StoredToolCall{
			{ID: "call_1", Name: "get_coordinates", Arguments: map[string]string{"place": "London"}},
		}},
		{UserID: userID, Role: RoleTool, Content: `{"toolCallId":"call_1","toolName":"get_coordinates","args":{"place":"London"},"result":{"latitude":"51.5","longitude":"-0.12"}}`},
		{UserID: userID, Role: RoleAssistant, Content: "It is mild in London."},
	}
	for _, record := range records {
		_, err := store.AppendMessage(ctx, record)
		require.NoError(t, err)
	}
}

func TestBuildConversationRoundTrip(t *testing.T) {
	store := newMemStore()
	user := User{ID: 7, Email: "ana@example.com", Name: "Ana"}
	seedHistory(t, store, user.ID)

	msgs, err := BuildConversation(context.Background(), store, user, RoleUser, "instructions")
	require.NoError(t, err)
	require.Len(t, msgs, 5)

	assert.Equal(t, Message{Role: RoleUser, Content: "instructions"}, msgs[0])
	assert.Equal(t, Message{Role: RoleUser, Content: "What's the weather in London?"}, msgs[1])

	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, "call_1", msgs[2].ToolCalls[0].ID)
	assert.Equal(t, "get_coordinates", msgs[2].ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"place":"London"}`, msgs[2].ToolCalls[0].Function.Arguments)

	assert.Equal(t, RoleTool, msgs[3].Role)
	assert.Equal(t, "call_1", msgs[3].ToolCallID)
	assert.JSONEq(t, `{"latitude":"51.5","longitude":"-0.12"}`, msgs[3].Content)

	assert.Equal(t, Message{Role: RoleAssistant, Content: "It is mild in London."}, msgs[4])
}

func TestBuildConversationIsIdempotent(t *testing.T) {
	store := newMemStore()
	user := User{ID: 7, Email: "ana@example.com", Name: "Ana"}
	seedHistory(t, store, user.ID)

	first, err := BuildConversation(context.Background(), store, user, RoleSystem, "instructions")
	require.NoError(t, err)
	second, err := BuildConversation(context.Background(), store, user, RoleSystem, "instructions")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildConversationInstructionFraming(t *testing.T) {
	store := newMemStore()
	user := User{ID: 1}

	msgs, err := BuildConversation(context.Background(), store, user, RoleSystem, "instructions")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleSystem, msgs[0].Role)
}

func TestBuildConversationUnknownRoleFallsBackToUser(t *testing.T) {
	store := newMemStore()
	user := User{ID: 1}
	_, err := store.AppendMessage(context.Background(), StoredMessage{UserID: 1, Role: "moderator", Content: "hi"})
	require.NoError(t, err)

	msgs, err := BuildConversation(context.Background(), store, user, RoleSystem, "instructions")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "hi", msgs[1].Content)
}

func TestBuildConversationRejectsMalformedToolPayload(t *testing.T) {
	store := newMemStore()
	user := User{ID: 1}
	_, err := store.AppendMessage(context.Background(), StoredMessage{UserID: 1, Role: RoleTool, Content: "{not json"})
	require.NoError(t, err)

	_, err = BuildConversation(context.Background(), store, user, RoleSystem, "instructions")
	var reconstructionErr *ReconstructionError
	require.ErrorAs(t, err, &reconstructionErr)
	assert.Equal(t, int64(1), reconstructionErr.MessageID)
}

func TestBuildConversationSkipsOtherUsersMessages(t *testing.T) {
	store := newMemStore()
	seedHistory(t, store, 7)
	_, err := store.AppendMessage(context.Background(), StoredMessage{UserID: 8, Role: RoleUser, Content: "someone else"})
	require.NoError(t, err)

	msgs, err := BuildConversation(context.Background(), store, User{ID: 7}, RoleSystem, "instructions")
	require.NoError(t, err)
	assert.Len(t, msgs, 5)
}

package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// memStore is an in-memory MessageStore for resolver and session tests.
type memStore struct {
	mu     sync.Mutex
	users  map[string]User
	msgs   []StoredMessage
	nextID int64
}

func newMemStore(users ...User) *memStore {
	m := &memStore{users: make(map[string]User)}
	for _, u := range users {
		m.users[u.Email] = u
	}
	return m
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memStore) AppendMessage(_ context.Context, msg StoredMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg.ID = m.nextID
	m.msgs = append(m.msgs, msg)
	return msg.ID, nil
}

func (m *memStore) MessagesForUser(_ context.Context, userID int64) ([]StoredMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StoredMessage
	for _, msg := range m.msgs {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) roles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.msgs))
	for _, msg := range m.msgs {
		out = append(out, msg.Role)
	}
	return out
}

// modelScript serves scripted chat-completion responses in order and records
// every request it receives.
type modelScript struct {
	t         *testing.T
	mu        sync.Mutex
	responses []Message
	requests  []ChatRequest
	server    *httptest.Server
}

func newModelScript(t *testing.T, responses ...Message) *modelScript {
	t.Helper()
	script := &modelScript{t: t, responses: responses}
	script.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		script.mu.Lock()
		defer script.mu.Unlock()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode chat request: %v", err)
		}
		script.requests = append(script.requests, req)

		if len(script.responses) == 0 {
			t.Error("model called past end of script")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		next := script.responses[0]
		script.responses = script.responses[1:]
		json.NewEncoder(w).Encode(ChatResponse{Choices: []Choice{{Message: next}}})
	}))
	t.Cleanup(script.server.Close)
	return script
}

func (s *modelScript) recorded() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatRequest(nil), s.requests...)
}

// callMessage builds an assistant response requesting the named tool.
func callMessage(id, name string, args map[string]string) Message {
	encoded, _ := json.Marshal(args)
	return Message{
		Role: RoleAssistant,
		ToolCalls: []ToolCall{{
			ID:       id,
			Type:     "function",
			Function: FunctionCall{Name: name, Arguments: string(encoded)},
		}},
	}
}

// geoServer serves a fixed geocoding response.
func geoServer(t *testing.T, latitude, longitude float64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"latitude": latitude, "longitude": longitude}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// weatherServer serves a fixed current-conditions response.
func weatherServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"current": map[string]any{
				"temperature_2m":       18.2,
				"relative_humidity_2m": 61,
				"apparent_temperature": 17.4,
				"precipitation":        0,
				"wind_speed_10m":       11.5,
				"wind_direction_10m":   240,
			},
			"current_units": map[string]string{
				"temperature_2m":       "°C",
				"relative_humidity_2m": "%",
				"apparent_temperature": "°C",
				"precipitation":        "mm",
				"wind_speed_10m":       "km/h",
				"wind_direction_10m":   "°",
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// failingServer always answers with the given status code.
func failingServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

// testConfig returns a config pointed at the given model endpoint.
func testConfig(modelURL string) Config {
	return Config{
		APIKey:  "test-key",
		BaseURL: modelURL,
		Model:   "anthropic/claude-3.5-sonnet",
	}
}

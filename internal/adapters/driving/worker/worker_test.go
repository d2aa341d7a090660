package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	answer   string
	chatErr  error
	pingErr  error
	panicMsg string
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	closed   bool
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.messages = messages
	m.opts = opts
	return m.answer, m.chatErr
}

func (m *mockLLMService) ModelName() string { return "mock" }

func (m *mockLLMService) Ping(_ context.Context) error { return m.pingErr }

func (m *mockLLMService) Close() error {
	m.closed = true
	return nil
}

func factoryFor(llm *mockLLMService) LLMFactory {
	return func(string) (driven.LLMService, error) { return llm, nil }
}

func TestHandle_Check(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		llm := &mockLLMService{}
		resp := Handle(context.Background(), Request{Check: true}, factoryFor(llm))
		assert.Equal(t, domain.WorkerResponse{OK: true}, resp)
		assert.True(t, llm.closed)
	})

	t.Run("unreachable", func(t *testing.T) {
		llm := &mockLLMService{pingErr: errors.New("connection refused")}
		resp := Handle(context.Background(), Request{Check: true}, factoryFor(llm))
		assert.Equal(t, domain.WorkerResponse{OK: false, Error: "connection refused"}, resp)
	})

	t.Run("factory fails", func(t *testing.T) {
		resp := Handle(context.Background(), Request{Check: true}, func(string) (driven.LLMService, error) {
			return nil, errors.New("openai: API key is required")
		})
		assert.False(t, resp.OK)
		assert.Equal(t, "openai: API key is required", resp.Error)
	})

	t.Run("no factory", func(t *testing.T) {
		resp := Handle(context.Background(), Request{Check: true}, nil)
		assert.False(t, resp.OK)
		assert.NotEmpty(t, resp.Error)
	})
}

func TestHandle_Generate(t *testing.T) {
	llm := &mockLLMService{answer: "forty-two"}
	var gotModel string
	factory := func(model string) (driven.LLMService, error) {
		gotModel = model
		return llm, nil
	}

	resp := Handle(context.Background(), Request{
		Mode:        domain.GenerationModeSummary,
		Model:       "llama3.1:8b",
		System:      "be brief",
		User:        "summarise this",
		Temperature: 0.5,
		NumPredict:  200,
	}, factory)

	assert.Equal(t, domain.WorkerResponse{OK: true, Answer: "forty-two"}, resp)
	assert.Equal(t, "llama3.1:8b", gotModel)
	assert.Equal(t, []driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "summarise this"},
	}, llm.messages)
	assert.Equal(t, driven.ChatOptions{Model: "llama3.1:8b", MaxTokens: 200, Temperature: 0.5}, llm.opts)
}

func TestHandle_GenerateOmitsEmptySystem(t *testing.T) {
	llm := &mockLLMService{answer: "ok"}

	resp := Handle(context.Background(), Request{User: "hi"}, factoryFor(llm))

	assert.True(t, resp.OK)
	assert.Equal(t, []driven.ChatMessage{{Role: "user", Content: "hi"}}, llm.messages)
}

func TestHandle_GenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		llm     *mockLLMService
		wantErr string
	}{
		{
			name:    "chat error",
			req:     Request{User: "q"},
			llm:     &mockLLMService{chatErr: errors.New("model not found")},
			wantErr: "model not found",
		},
		{
			name:    "invalid mode",
			req:     Request{Mode: "poem", User: "q"},
			llm:     &mockLLMService{},
			wantErr: "mode must be chat or summary",
		},
		{
			name:    "empty prompt",
			req:     Request{},
			llm:     &mockLLMService{},
			wantErr: "empty prompt",
		},
		{
			name:    "panic",
			req:     Request{User: "q"},
			llm:     &mockLLMService{panicMsg: "boom"},
			wantErr: "worker panic: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Handle(context.Background(), tt.req, factoryFor(tt.llm))
			assert.False(t, resp.OK)
			assert.Empty(t, resp.Answer)
			assert.Contains(t, resp.Error, tt.wantErr)
		})
	}
}

func TestServe_WritesSingleJSONObject(t *testing.T) {
	var out bytes.Buffer

	err := Serve(context.Background(), Request{User: "q"}, factoryFor(&mockLLMService{answer: "a"}), &out)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &resp))
	assert.Equal(t, map[string]any{"ok": true, "answer": "a"}, resp)
}

func TestServe_CheckOmitsAnswer(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, Serve(context.Background(), Request{Check: true}, factoryFor(&mockLLMService{}), &out))

	assert.JSONEq(t, `{"ok":true}`, out.String())
}

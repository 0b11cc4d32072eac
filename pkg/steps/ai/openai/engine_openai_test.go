package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

const toolCallResponse = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "geocode_address", "arguments": "{\"address\":\"Paris\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
}`

type geocodeIn struct {
	Address string `json:"address"`
}

func newTestEngine(t *testing.T, url string, maxRetries int) *OpenAIEngine {
	s := settings.NewStepSettings()
	s.API.APIKeys[settings.APIKeyName(settings.KeyOpenAI)] = "sk-test"
	s.API.BaseUrls[settings.BaseURLName(settings.KeyOpenAI)] = url
	s.Chat.MaxRetries = maxRetries
	e, err := NewOpenAIEngine(s, WithBackOff(func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}))
	require.NoError(t, err)
	return e
}

func TestOpenAIEngine_ParsesToolCalls(t *testing.T) {
	var got go_openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toolCallResponse))
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL, 0)
	assert.Equal(t, "gpt-4o", e.Model())

	geocode, err := tools.NewToolFromFunc("geocode_address", "Geocode an address", func(in geocodeIn) map[string]any {
		return nil
	})
	require.NoError(t, err)
	reg := tools.NewInMemoryToolRegistry()
	require.NoError(t, reg.Register(geocode))

	ctx := tools.WithRegistry(context.Background(), reg)
	ctx = engine.WithInferenceConfig(ctx, engine.InferenceConfig{ToolChoice: engine.ToolChoiceRequired})

	in := turns.NewTurnBuilder().WithSystemPrompt("You plan trips.").WithUserPrompt("Where is Paris?").Build()
	out, err := e.RunInference(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, go_openai.ChatMessageRoleSystem, got.Messages[0].Role)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "geocode_address", got.Tools[0].Function.Name)
	assert.Equal(t, "required", got.ToolChoice)

	require.Len(t, out.Blocks, 3)
	assert.Len(t, in.Blocks, 2)
	call := out.Blocks[2]
	assert.Equal(t, turns.BlockKindToolCall, call.Kind)
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, map[string]any{"address": "Paris"}, call.Payload[turns.PayloadKeyArgs])
}

func TestOpenAIEngine_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Bonjour"}}]}`))
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL, 3)
	out, err := e.RunInference(context.Background(), turns.NewTurnBuilder().WithUserPrompt("hi").Build())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	txt, ok := turns.LastAssistantText(out)
	require.True(t, ok)
	assert.Equal(t, "Bonjour", txt)
}

func TestOpenAIEngine_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	e := newTestEngine(t, srv.URL, 3)
	_, err := e.RunInference(context.Background(), turns.NewTurnBuilder().WithUserPrompt("hi").Build())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMakeCompletionRequestFromTurn_GroupsToolCalls(t *testing.T) {
	s := settings.NewStepSettings()
	in := turns.NewTurnBuilder().WithUserPrompt("plan").Build()
	turns.AppendBlocks(in,
		turns.NewAssistantTextBlock("Looking up"),
		turns.NewToolCallBlock("a", "geocode_address", map[string]any{"address": "Paris"}),
		turns.NewToolCallBlock("b", "search_web", map[string]any{"query": "Paris"}),
		turns.NewToolUseBlock("a", "geocode_address", map[string]any{"lat": 48.85}),
		turns.NewToolErrorBlock("b", "search_web", "timeout"),
	)

	req, err := MakeCompletionRequestFromTurn(s, "gpt-4o", in, nil, engine.InferenceConfig{})
	require.NoError(t, err)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "Looking up", req.Messages[1].Content)
	assert.Len(t, req.Messages[1].ToolCalls, 2)
	assert.Equal(t, "a", req.Messages[2].ToolCallID)
	assert.JSONEq(t, `{"lat":48.85}`, req.Messages[2].Content)
	assert.JSONEq(t, `{"error":"timeout"}`, req.Messages[3].Content)
	assert.Nil(t, req.ToolChoice)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&go_openai.APIError{HTTPStatusCode: 429}))
	assert.True(t, isRetryable(&go_openai.APIError{HTTPStatusCode: 503}))
	assert.False(t, isRetryable(&go_openai.APIError{HTTPStatusCode: 401}))
	assert.False(t, isRetryable(context.Canceled))
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/itinerant/pkg/events"
	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
	ai_types "github.com/go-go-golems/itinerant/pkg/steps/ai/types"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// OpenAIEngine implements engine.Engine over the chat completions API of any
// OpenAI-compatible provider.
type OpenAIEngine struct {
	settings   *settings.StepSettings
	apiType    ai_types.ApiType
	model      string
	client     *go_openai.Client
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

type Option func(*OpenAIEngine)

// WithHTTPClient replaces the pooled HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *OpenAIEngine) {
		e.httpClient = c
	}
}

// WithBackOff sets the retry schedule of completion calls. The number of
// retries stays bounded by ChatSettings.MaxRetries.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(e *OpenAIEngine) {
		e.newBackOff = f
	}
}

// NewOpenAIEngine creates an engine for the model configured in s. The model
// identifier may carry a provider prefix such as "openai:".
func NewOpenAIEngine(s *settings.StepSettings, options ...Option) (*OpenAIEngine, error) {
	if s == nil || s.Chat == nil || s.API == nil {
		return nil, errors.New("incomplete settings")
	}
	if s.Chat.Engine == nil || *s.Chat.Engine == "" {
		return nil, errors.New("no chat engine specified")
	}
	defaultType := ai_types.ApiTypeOpenAI
	if s.Chat.ApiType != nil {
		defaultType = *s.Chat.ApiType
	}
	apiType, model := ai_types.ParseModel(*s.Chat.Engine, defaultType)

	e := &OpenAIEngine{
		settings: s,
		apiType:  apiType,
		model:    model,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 8 * time.Second
			return b
		},
	}
	for _, o := range options {
		o(e)
	}

	client, err := MakeClient(s.API, apiType, e.httpClient)
	if err != nil {
		return nil, err
	}
	e.client = client
	return e, nil
}

func (e *OpenAIEngine) Model() string {
	return e.model
}

// RunInference sends the turn to the provider and appends the response as
// llm_text and tool_call blocks on a copy of t.
func (e *OpenAIEngine) RunInference(ctx context.Context, t *turns.Turn) (*turns.Turn, error) {
	var toolDefs []tools.ToolDefinition
	if reg, ok := tools.RegistryFrom(ctx); ok {
		toolDefs = reg.ListTools()
	}
	cfg, _ := engine.InferenceConfigFrom(ctx)

	req, err := MakeCompletionRequestFromTurn(e.settings, e.model, t, toolDefs, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := e.createWithRetry(ctx, *req)
	if err != nil {
		events.PublishEventToContext(ctx, events.NewErrorEvent(events.MetadataFromContext(ctx), err))
		return nil, errors.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion returned no choices")
	}
	msg := resp.Choices[0].Message

	out := t.Clone()
	if out == nil {
		out = &turns.Turn{}
	}
	if text := strings.TrimSpace(msg.Content); text != "" {
		turns.AppendBlock(out, turns.NewAssistantTextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		var args any = map[string]any{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				// keep the raw string so the executor reports the malformed input
				args = tc.Function.Arguments
			}
		}
		turns.AppendBlock(out, turns.NewToolCallBlock(tc.ID, tc.Function.Name, args))
	}

	log.Debug().
		Str("model", e.model).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Int("tool_call_count", len(msg.ToolCalls)).
		Msg("OpenAI RunInference completed")

	return out, nil
}

func (e *OpenAIEngine) createWithRetry(ctx context.Context, req go_openai.ChatCompletionRequest) (go_openai.ChatCompletionResponse, error) {
	maxRetries := e.settings.Chat.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), uint64(maxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotifyWithData(func() (go_openai.ChatCompletionResponse, error) {
		attempt++
		resp, err := e.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return resp, backoff.Permanent(err)
		}
		return resp, err
	}, b, func(err error, d time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", d).Msg("OpenAI completion failed, retrying")
	})
}

// isRetryable reports whether err is a transport failure, a rate limit or a
// server error.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *go_openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || retryableStatus(reqErr.HTTPStatusCode)
	}
	// no HTTP status: the request never completed
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

var _ engine.Engine = (*OpenAIEngine)(nil)

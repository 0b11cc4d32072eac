package openai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/itinerant/pkg/inference/engine"
	"github.com/go-go-golems/itinerant/pkg/inference/tools"
	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
	ai_types "github.com/go-go-golems/itinerant/pkg/steps/ai/types"
	"github.com/go-go-golems/itinerant/pkg/turns"
)

// MakeClient builds a chat-completions client for apiType. A nil httpClient
// selects a pooled client.
func MakeClient(apiSettings *settings.APISettings, apiType ai_types.ApiType, httpClient *http.Client) (*go_openai.Client, error) {
	apiKey := apiSettings.APIKey(string(apiType))
	if apiKey == "" {
		return nil, errors.Errorf("no API key for %s", apiType)
	}
	baseURL := apiSettings.BaseURL(string(apiType))
	if baseURL == "" {
		return nil, errors.Errorf("no base URL for %s", apiType)
	}
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	config := go_openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = httpClient
	return go_openai.NewClientWithConfig(config), nil
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "o1") ||
		strings.HasPrefix(m, "o3") ||
		strings.HasPrefix(m, "o4") ||
		strings.HasPrefix(m, "gpt-5")
}

// MakeCompletionRequestFromTurn builds a ChatCompletionRequest from the blocks
// of t. Tool calls of one response are grouped into a single assistant message
// and each tool_use block becomes a "tool" message carrying its call id.
func MakeCompletionRequestFromTurn(
	s *settings.StepSettings,
	model string,
	t *turns.Turn,
	toolDefs []tools.ToolDefinition,
	cfg engine.InferenceConfig,
) (*go_openai.ChatCompletionRequest, error) {
	if s == nil || s.Chat == nil {
		return nil, errors.New("no chat settings")
	}
	if model == "" {
		return nil, errors.New("no engine specified")
	}

	var msgs []go_openai.ChatCompletionMessage
	// index of the assistant message still accepting tool calls, -1 if none
	openAssistant := -1

	if t != nil {
		for _, b := range t.Blocks {
			switch b.Kind {
			case turns.BlockKindSystem, turns.BlockKindUser, turns.BlockKindLLMText:
				text := strings.TrimSpace(payloadString(b.Payload[turns.PayloadKeyText]))
				if text == "" {
					log.Debug().Str("kind", b.Kind.String()).Msg("OpenAI request: skipping empty text block")
					continue
				}
				role := go_openai.ChatMessageRoleUser
				switch b.Kind {
				case turns.BlockKindSystem:
					role = go_openai.ChatMessageRoleSystem
				case turns.BlockKindLLMText:
					role = go_openai.ChatMessageRoleAssistant
				case turns.BlockKindUser, turns.BlockKindToolCall, turns.BlockKindToolUse,
					turns.BlockKindReasoning, turns.BlockKindOther:
				}
				msgs = append(msgs, go_openai.ChatCompletionMessage{Role: role, Content: text})
				openAssistant = -1
				if role == go_openai.ChatMessageRoleAssistant {
					openAssistant = len(msgs) - 1
				}

			case turns.BlockKindToolCall:
				id := payloadString(b.Payload[turns.PayloadKeyID])
				name := payloadString(b.Payload[turns.PayloadKeyName])
				args := "{}"
				if v, ok := b.Payload[turns.PayloadKeyArgs]; ok && v != nil {
					switch tv := v.(type) {
					case string:
						if strings.TrimSpace(tv) != "" {
							args = tv
						}
					case json.RawMessage:
						if len(tv) > 0 {
							args = string(tv)
						}
					default:
						bb, err := json.Marshal(v)
						if err != nil {
							return nil, errors.Wrapf(err, "marshal arguments of tool call %s", id)
						}
						args = string(bb)
					}
				}
				call := go_openai.ToolCall{
					ID:       id,
					Type:     go_openai.ToolTypeFunction,
					Function: go_openai.FunctionCall{Name: name, Arguments: args},
				}
				if openAssistant < 0 {
					msgs = append(msgs, go_openai.ChatCompletionMessage{Role: go_openai.ChatMessageRoleAssistant})
					openAssistant = len(msgs) - 1
				}
				msgs[openAssistant].ToolCalls = append(msgs[openAssistant].ToolCalls, call)

			case turns.BlockKindToolUse:
				msgs = append(msgs, go_openai.ChatCompletionMessage{
					Role:       go_openai.ChatMessageRoleTool,
					Content:    toolUseContent(b.Payload),
					ToolCallID: payloadString(b.Payload[turns.PayloadKeyID]),
				})
				openAssistant = -1

			case turns.BlockKindReasoning, turns.BlockKindOther:
				// not understood by chat completions
				continue
			}
		}
	}

	maxTokens := 0
	if s.Chat.MaxResponseTokens != nil {
		maxTokens = *s.Chat.MaxResponseTokens
	}
	if cfg.MaxResponseTokens != nil {
		maxTokens = *cfg.MaxResponseTokens
	}
	temperature := 0.0
	if s.Chat.Temperature != nil {
		temperature = *s.Chat.Temperature
	}
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	req := &go_openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: float32(temperature),
	}
	if isReasoningModel(model) {
		req.MaxCompletionTokens = maxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = maxTokens
	}

	if len(toolDefs) > 0 {
		for _, td := range toolDefs {
			req.Tools = append(req.Tools, go_openai.Tool{
				Type: go_openai.ToolTypeFunction,
				Function: &go_openai.FunctionDefinition{
					Name:        td.Name,
					Description: td.Description,
					Parameters:  td.Parameters,
				},
			})
		}
		switch cfg.ToolChoice {
		case engine.ToolChoiceNone:
			req.ToolChoice = "none"
		case engine.ToolChoiceRequired:
			req.ToolChoice = "required"
		case engine.ToolChoiceAuto:
			req.ToolChoice = "auto"
		default:
			req.ToolChoice = "auto"
		}
	}

	log.Debug().
		Str("model", model).
		Int("messages", len(msgs)).
		Int("tools", len(req.Tools)).
		Interface("tool_choice", req.ToolChoice).
		Msg("Making request to openai from turn blocks")

	return req, nil
}

func payloadString(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case []byte:
		return string(tv)
	default:
		bb, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bb)
	}
}

// toolUseContent renders a tool_use payload as the content of a tool message.
// Failed executions are sent as {"error": ...}.
func toolUseContent(payload map[string]any) string {
	if errStr, _ := payload[turns.PayloadKeyError].(string); errStr != "" {
		b, err := json.Marshal(map[string]any{"error": errStr})
		if err != nil {
			return fmt.Sprintf(`{"error":%q}`, errStr)
		}
		return string(b)
	}
	return payloadString(payload[turns.PayloadKeyResult])
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/itinerant/pkg/events"
)

// ToolExecutor handles the execution of tool calls
type ToolExecutor interface {
	ExecuteToolCall(ctx context.Context, toolCall ToolCall, registry ToolRegistry) (*ToolResult, error)
	ExecuteToolCalls(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry) ([]*ToolResult, error)
}

// DefaultToolExecutor runs tool calls against a registry, publishing execute
// and result events to the sinks attached to the context.
//
// Failures of the tool itself (unknown tool, invalid arguments, returned
// errors) are reported in ToolResult.Error. Only context cancellation and the
// abort policy surface as a returned error.
type DefaultToolExecutor struct {
	config ToolConfig
}

var _ ToolExecutor = (*DefaultToolExecutor)(nil)

func NewDefaultToolExecutor(config ToolConfig) *DefaultToolExecutor {
	return &DefaultToolExecutor{config: config}
}

func (e *DefaultToolExecutor) ExecuteToolCall(ctx context.Context, toolCall ToolCall, registry ToolRegistry) (*ToolResult, error) {
	start := time.Now()
	result := &ToolResult{ID: toolCall.ID, Name: toolCall.Name}

	events.PublishEventToContext(ctx, events.NewToolCallExecuteEvent(
		events.MetadataFromContext(ctx),
		events.ToolCall{ID: toolCall.ID, Name: toolCall.Name, Input: compactJSON(toolCall.Arguments)},
	))
	defer func() {
		result.Duration = time.Since(start)
		events.PublishEventToContext(ctx, events.NewToolCallExecutionResultEvent(
			events.MetadataFromContext(ctx),
			events.ToolResult{ID: toolCall.ID, Name: toolCall.Name, Result: resultPayload(result), Error: result.Error},
		))
	}()

	if registry == nil {
		result.Error = fmt.Sprintf("tool not found: %s", toolCall.Name)
		return result, nil
	}
	toolDef, err := registry.GetTool(toolCall.Name)
	if err != nil {
		result.Error = fmt.Sprintf("tool not found: %s", toolCall.Name)
		return result, nil
	}
	if !e.config.IsToolAllowed(toolCall.Name) {
		result.Error = fmt.Sprintf("tool not allowed: %s", toolCall.Name)
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		result.Error = "execution cancelled"
		return result, err
	}

	execCtx := ctx
	if e.config.ExecutionTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.config.ExecutionTimeout)
		defer cancel()
	}

	out, err := toolDef.Function.ExecuteWithContext(execCtx, toolCall.Arguments)
	if err != nil {
		log.Debug().Err(err).Str("tool", toolCall.Name).Str("id", toolCall.ID).Msg("tool execution failed")
		result.Error = err.Error()
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, nil
	}
	result.Result = out
	return result, nil
}

// ExecuteToolCalls executes a batch of tool calls. Results are returned in the
// order of the calls even when they run in parallel.
func (e *DefaultToolExecutor) ExecuteToolCalls(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry) ([]*ToolResult, error) {
	if len(toolCalls) == 0 {
		return nil, nil
	}
	if e.config.MaxParallelTools <= 1 || len(toolCalls) == 1 {
		return e.executeSequentially(ctx, toolCalls, registry)
	}
	return e.executeInParallel(ctx, toolCalls, registry, e.config.MaxParallelTools)
}

func (e *DefaultToolExecutor) executeSequentially(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry) ([]*ToolResult, error) {
	results := make([]*ToolResult, len(toolCalls))
	for i, toolCall := range toolCalls {
		result, err := e.ExecuteToolCall(ctx, toolCall, registry)
		results[i] = result
		if err != nil {
			return results, err
		}
		if err := e.checkAbort(toolCall, result); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (e *DefaultToolExecutor) executeInParallel(ctx context.Context, toolCalls []ToolCall, registry ToolRegistry, maxParallel int) ([]*ToolResult, error) {
	results := make([]*ToolResult, len(toolCalls))
	errs := make([]error, len(toolCalls))

	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup
	for i, toolCall := range toolCalls {
		wg.Add(1)
		go func(index int, tc ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[index], errs[index] = e.ExecuteToolCall(ctx, tc, registry)
		}(i, toolCall)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, err
		}
		if err := e.checkAbort(toolCalls[i], results[i]); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (e *DefaultToolExecutor) checkAbort(call ToolCall, result *ToolResult) error {
	if result != nil && result.Error != "" && e.config.ErrorHandling == ToolErrorAbort {
		return errors.Errorf("tool execution aborted due to error in %s: %s", call.Name, result.Error)
	}
	return nil
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var tmp interface{}
	if err := json.Unmarshal(raw, &tmp); err == nil {
		if b, err := json.Marshal(tmp); err == nil {
			return string(b)
		}
	}
	return string(raw)
}

func resultPayload(res *ToolResult) string {
	if res == nil || res.Result == nil {
		return ""
	}
	b, err := json.Marshal(res.Result)
	if err != nil {
		return fmt.Sprintf("%v", res.Result)
	}
	return string(b)
}

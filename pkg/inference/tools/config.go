package tools

import "time"

// ToolConfig specifies how tools are executed during a tool loop.
type ToolConfig struct {
	MaxIterations    int               `json:"max_iterations" yaml:"max_iterations"`
	ExecutionTimeout time.Duration     `json:"execution_timeout" yaml:"execution_timeout"`
	MaxParallelTools int               `json:"max_parallel_tools" yaml:"max_parallel_tools"`
	AllowedTools     []string          `json:"allowed_tools" yaml:"allowed_tools"`
	ErrorHandling    ToolErrorHandling `json:"error_handling" yaml:"error_handling"`
}

// ToolErrorHandling defines how tool execution errors affect the loop.
type ToolErrorHandling string

const (
	// ToolErrorContinue reports the error to the model as the tool result.
	ToolErrorContinue ToolErrorHandling = "continue"
	// ToolErrorAbort stops the loop on the first failed tool call.
	ToolErrorAbort ToolErrorHandling = "abort"
)

func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		MaxIterations:    10,
		ExecutionTimeout: 30 * time.Second,
		MaxParallelTools: 4,
		ErrorHandling:    ToolErrorContinue,
	}
}

func (tc ToolConfig) WithMaxIterations(maxIterations int) ToolConfig {
	tc.MaxIterations = maxIterations
	return tc
}

func (tc ToolConfig) WithExecutionTimeout(timeout time.Duration) ToolConfig {
	tc.ExecutionTimeout = timeout
	return tc
}

func (tc ToolConfig) WithMaxParallelTools(maxParallel int) ToolConfig {
	tc.MaxParallelTools = maxParallel
	return tc
}

func (tc ToolConfig) WithAllowedTools(toolNames []string) ToolConfig {
	tc.AllowedTools = toolNames
	return tc
}

func (tc ToolConfig) WithErrorHandling(handling ToolErrorHandling) ToolConfig {
	tc.ErrorHandling = handling
	return tc
}

// IsToolAllowed checks if a tool is allowed based on the configuration.
// A nil AllowedTools list allows every tool.
func (tc *ToolConfig) IsToolAllowed(toolName string) bool {
	if tc.AllowedTools == nil {
		return true
	}
	for _, allowed := range tc.AllowedTools {
		if allowed == toolName {
			return true
		}
	}
	return false
}

// FilterTools returns only the tools that are allowed by this configuration
func (tc *ToolConfig) FilterTools(tools []ToolDefinition) []ToolDefinition {
	if tc.AllowedTools == nil {
		return tools
	}
	filtered := make([]ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		if tc.IsToolAllowed(tool.Name) {
			filtered = append(filtered, tool)
		}
	}
	return filtered
}

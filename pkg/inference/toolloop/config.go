package toolloop

// LoopConfig bounds the inference ⇄ tool execution cycle.
type LoopConfig struct {
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{MaxIterations: 10}
}

func (c LoopConfig) WithMaxIterations(maxIterations int) LoopConfig {
	c.MaxIterations = maxIterations
	return c
}

// Acknowledgements written as tool_use results when the model calls an output tool.
const (
	OutputToolAck     = "Final result processed."
	OutputToolSkipped = "Tool not executed - a final result was already processed."
)

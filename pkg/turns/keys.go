package turns

// Standard keys used in Block.Payload maps
const (
	PayloadKeyText   = "text"
	PayloadKeyID     = "id"
	PayloadKeyName   = "name"
	PayloadKeyArgs   = "args"
	PayloadKeyResult = "result"
	PayloadKeyError  = "error"
)

// Turn and block metadata keys
const (
	MetaKeyAgent   = "agent"
	MetaKeyModel   = "model"
	MetaKeyRunID   = "run_id"
	MetaKeyMessage = "message"
	// MetaKeyOutputTool marks a tool_use block acknowledging a structured output call.
	MetaKeyOutputTool = "output_tool"
)

// Message sides recorded under MetaKeyMessage by SplitMessages.
const (
	MessageRequest  = "request"
	MessageResponse = "response"
)

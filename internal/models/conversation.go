// Package models contains shared types for the agentcore orchestrator project.
package models

// ConversationItemType represents the type of a conversation item.
type ConversationItemType string

const (
	ItemTypeUserMessage        ConversationItemType = "user_message"
	ItemTypeAssistantMessage   ConversationItemType = "assistant_message"
	ItemTypeFunctionCall       ConversationItemType = "function_call"
	ItemTypeFunctionCallOutput ConversationItemType = "function_call_output"
	ItemTypeToolResult         ConversationItemType = "tool_result"
	ItemTypeTurnStarted        ConversationItemType = "turn_started"
	ItemTypeTurnComplete       ConversationItemType = "turn_complete"
	ItemTypeModelSwitch        ConversationItemType = "model_switch"
)

// FunctionCallOutputPayload carries the result of executing a function call.
type FunctionCallOutputPayload struct {
	Content string `json:"content"`
	Success *bool  `json:"success,omitempty"`
}

// ConversationItem represents a single item in the conversation history.
//
// A function call and its eventual output are two separate items, linked by
// CallID. Arguments is the raw JSON string the model produced, not a decoded
// map — handlers decode it lazily with json.Unmarshal.
type ConversationItem struct {
	Type    ConversationItemType `json:"type"`
	Content string               `json:"content,omitempty"`

	// TurnID associates turn-lifecycle markers (and the items between them)
	// with the turn that produced them.
	TurnID string `json:"turn_id,omitempty"`

	// Seq is a monotonic index assigned by the history store on insertion.
	Seq int `json:"seq"`

	// CallID, Name, Arguments describe a function_call item.
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// Output carries the result for a function_call_output item.
	Output *FunctionCallOutputPayload `json:"output,omitempty"`
}

// FinishReason indicates why the LLM stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"           // Natural completion
	FinishReasonToolCalls     FinishReason = "tool_calls"      // LLM wants to call tools
	FinishReasonLength        FinishReason = "length"          // Hit token limit
	FinishReasonContentFilter FinishReason = "content_filter"  // Content filtered
)

// TokenUsage tracks token consumption, including prompt cache accounting.
type TokenUsage struct {
	PromptTokens        int `json:"prompt_tokens"`
	CompletionTokens    int `json:"completion_tokens"`
	TotalTokens         int `json:"total_tokens"`
	CachedTokens        int `json:"cached_tokens,omitempty"`
	CacheCreationTokens int `json:"cache_creation_tokens,omitempty"`
}

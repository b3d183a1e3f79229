package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/tools"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements LLMClient using OpenAI's API
//
// Maps to: codex-rs/core/src/client.rs OpenAI implementation
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates an OpenAI client
func NewOpenAIClient() *OpenAIClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIClient{
		client: client,
	}
}

// Call sends a request to OpenAI and returns the complete response
func (c *OpenAIClient) Call(ctx context.Context, request LLMRequest) (LLMResponse, error) {
	messages := c.buildMessages(request)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(request.ModelConfig.Model),
		Messages: messages,
	}

	if request.ModelConfig.Temperature != 0 {
		params.Temperature = param.NewOpt(request.ModelConfig.Temperature)
	}
	if request.ModelConfig.MaxTokens != 0 {
		params.MaxTokens = param.NewOpt(int64(request.ModelConfig.MaxTokens))
	}

	if len(request.ToolSpecs) > 0 {
		params.Tools = c.buildToolDefinitions(request.ToolSpecs)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return LLMResponse{}, classifyError(err)
	}

	if len(completion.Choices) == 0 {
		return LLMResponse{}, fmt.Errorf("no choices in response")
	}

	choice := completion.Choices[0]

	response := LLMResponse{
		FinishReason: models.FinishReasonStop,
		TokenUsage: models.TokenUsage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	if choice.Message.Content != "" {
		response.Items = append(response.Items, models.ConversationItem{
			Type:    models.ItemTypeAssistantMessage,
			Content: choice.Message.Content,
		})
	}

	if len(choice.Message.ToolCalls) > 0 {
		response.FinishReason = models.FinishReasonToolCalls
		for _, tc := range choice.Message.ToolCalls {
			response.Items = append(response.Items, models.ConversationItem{
				Type:      models.ItemTypeFunctionCall,
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	} else if len(response.Items) == 0 {
		response.Items = append(response.Items, models.ConversationItem{Type: models.ItemTypeAssistantMessage})
	}

	switch choice.FinishReason {
	case "length":
		response.FinishReason = models.FinishReasonLength
	case "content_filter":
		response.FinishReason = models.FinishReasonContentFilter
	}

	return response, nil
}

// buildMessages assembles the full message list for a request: a merged
// system message (base + user instructions), a developer message, then the
// converted conversation history. Instruction fields that are empty produce
// no message at all.
func (c *OpenAIClient) buildMessages(request LLMRequest) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(request.History)+2)

	var systemParts []string
	if request.BaseInstructions != "" {
		systemParts = append(systemParts, request.BaseInstructions)
	}
	if request.UserInstructions != "" {
		systemParts = append(systemParts, request.UserInstructions)
	}
	if len(systemParts) > 0 {
		messages = append(messages, openai.SystemMessage(strings.Join(systemParts, "\n\n")))
	}
	if request.DeveloperInstructions != "" {
		messages = append(messages, openai.DeveloperMessage(request.DeveloperInstructions))
	}

	return append(messages, c.convertHistoryToMessages(request.History)...)
}

// convertHistoryToMessages converts conversation history into OpenAI messages
// format.
//
// OpenAI requires that tool result messages are preceded by an assistant
// message containing the corresponding tool_calls, so a run of adjacent
// function_call items is folded into one assistant message.
func (c *OpenAIClient) convertHistoryToMessages(history []models.ConversationItem) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))

	i := 0
	for i < len(history) {
		item := history[i]

		switch item.Type {
		case models.ItemTypeUserMessage:
			messages = append(messages, openai.UserMessage(item.Content))
			i++

		case models.ItemTypeAssistantMessage, models.ItemTypeFunctionCall:
			j := i + 1
			if item.Type == models.ItemTypeFunctionCall {
				j = i // orphaned calls: no preceding assistant message
			}
			var calls []models.ConversationItem
			for j < len(history) && history[j].Type == models.ItemTypeFunctionCall {
				calls = append(calls, history[j])
				j++
			}

			if len(calls) > 0 {
				toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))
				for _, tc := range calls {
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
						ID: tc.CallID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					})
				}
				assistantMsg := &openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
				if item.Content != "" {
					assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: param.NewOpt(item.Content),
					}
				}
				messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistantMsg})
			} else {
				messages = append(messages, openai.AssistantMessage(item.Content))
			}
			i = j

		case models.ItemTypeFunctionCallOutput:
			content := ""
			if item.Output != nil {
				content = item.Output.Content
				if item.Output.Success != nil && !*item.Output.Success {
					content = fmt.Sprintf("Error: %s", item.Output.Content)
				}
			}
			messages = append(messages, openai.ToolMessage(content, item.CallID))
			i++

		default:
			i++
		}
	}

	return messages
}

// buildToolDefinitions converts ToolSpecs to OpenAI tool definitions
func (c *OpenAIClient) buildToolDefinitions(specs []tools.ToolSpec) []openai.ChatCompletionToolParam {
	toolDefs := make([]openai.ChatCompletionToolParam, 0, len(specs))

	for _, spec := range specs {
		// Convert parameters to JSON schema
		properties := make(map[string]interface{})
		required := make([]string, 0)

		for _, p := range spec.Parameters {
			properties[p.Name] = map[string]interface{}{
				"type":        p.Type,
				"description": p.Description,
			}

			if p.Required {
				required = append(required, p.Name)
			}
		}

		funcDef := shared.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: param.NewOpt(spec.Description),
			Parameters: shared.FunctionParameters{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		}

		toolDefs = append(toolDefs, openai.ChatCompletionToolParam{
			Function: funcDef,
		})
	}

	return toolDefs
}

// classifyError categorizes an OpenAI API error
func classifyError(err error) error {
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "context_length") || strings.Contains(errMsg, "maximum context length") {
		return models.NewContextOverflowError(err.Error())
	}
	if apiErr, ok := err.(*openai.Error); ok {
		return classifyByStatusCode(apiErr.StatusCode, err)
	}
	if strings.Contains(errMsg, "rate_limit") || strings.Contains(errMsg, "rate limit") {
		return models.NewAPILimitError(err.Error())
	}
	return models.NewTransientError(fmt.Sprintf("OpenAI API error: %v", err))
}

package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"klasboek/internal/domain/redaction"
	"klasboek/internal/ports"
)

const systemPrompt = "You summarize class-management change events for school staff. " +
	"The payload is anonymized: aliases such as phone_1 stand in for personal data and must " +
	"be kept verbatim. Write one short plain-language paragraph describing what changed."

// OpenAISummarizer generates event summaries through the chat completions
// API. It only ever receives the anonymized EmailContext shape.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

var _ ports.Summarizer = (*OpenAISummarizer)(nil)

func NewOpenAISummarizer(apiKey string, model string) *OpenAISummarizer {
	return &OpenAISummarizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  strings.TrimSpace(model),
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, emailContext redaction.EmailContext, eventLabel string) (ports.SummaryOutput, error) {
	if ctx == nil {
		return ports.SummaryOutput{}, errors.New("context is required")
	}

	payload, err := json.Marshal(emailContext)
	if err != nil {
		return ports.SummaryOutput{}, &ports.SummarizerError{
			Code:    ports.SummarizerErrAPIError,
			Message: "encode email context: " + err.Error(),
		}
	}

	prompt := fmt.Sprintf("Event: %s\nAnonymized change context:\n%s", eventLabel, payload)

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		code := ports.SummarizerErrAPIError
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			code = ports.SummarizerErrTimeout
		}
		return ports.SummaryOutput{}, &ports.SummarizerError{Code: code, Message: err.Error()}
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return ports.SummaryOutput{}, &ports.SummarizerError{
			Code:    ports.SummarizerErrEmptyResponse,
			Message: "completion contained no summary text",
		}
	}

	return ports.SummaryOutput{
		Summary:    strings.TrimSpace(completion.Choices[0].Message.Content),
		Model:      string(completion.Model),
		TokensUsed: int(completion.Usage.TotalTokens),
	}, nil
}

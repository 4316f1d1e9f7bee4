package flow

import (
	"context"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/ClevensDigital/LeadAdvisor/internal/extract"
	"github.com/ClevensDigital/LeadAdvisor/internal/genai"
	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// StreamErrorMessage is sent to the visitor when the provider stream fails.
const StreamErrorMessage = "Sorry, I encountered an issue. Please try again."

// Callbacks receive the advisor's streaming output. OnChunk fires for every
// provider delta; then exactly one of OnComplete or OnError fires.
type Callbacks struct {
	// OnChunk receives each raw token chunk and the accumulation so far.
	// Directive blocks are not stripped from chunks; callers display the
	// accumulating text as provisional.
	OnChunk func(text, fullText string)
	// OnComplete receives the cleaned display text, the mapped citation
	// titles (never nil), and the extracted directives (nil when absent).
	OnComplete func(cleanText string, citations []string, gallery *models.GalleryDirective, nextStage *models.Stage)
	// OnError receives a user-facing failure message.
	OnError func(message string)
}

// Advisor relays a conversation turn through the LLM provider and runs
// directive extraction and citation mapping over the completed response.
type Advisor struct {
	client   genai.ClientInterface
	directed bool
}

// NewAdvisor creates an advisor on top of the given provider client.
// directed controls whether the system prompt asks the model to emit
// next_state directives.
func NewAdvisor(client genai.ClientInterface, directed bool) *Advisor {
	return &Advisor{client: client, directed: directed}
}

// buildMessages converts caller history into provider message params with
// the system prompt for the current stage at the front. Gallery events have
// no text and are skipped.
func (a *Advisor) buildMessages(stage models.Stage, history []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(BuildSystemPrompt(stage, a.directed)))
	for _, m := range history {
		switch m.Role {
		case models.MessageRoleUser:
			messages = append(messages, openai.UserMessage(m.Text))
		case models.MessageRoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Text))
		}
	}
	return messages
}

// StreamReply streams one assistant turn for the given stage and history.
// The final history entry is expected to be the visitor's latest message.
// Exactly one of cb.OnComplete or cb.OnError is invoked; a transport
// failure mid-stream produces no partial completion.
func (a *Advisor) StreamReply(ctx context.Context, stage models.Stage, history []models.ChatMessage, cb Callbacks) {
	messages := a.buildMessages(stage, history)
	slog.Debug("Advisor.StreamReply: starting stream", "stage", stage, "historyLen", len(history))

	fullText, err := a.client.StreamWithMessages(ctx, messages, func(delta, accumulated string) {
		if cb.OnChunk != nil {
			cb.OnChunk(delta, accumulated)
		}
	})
	if err != nil {
		slog.Error("Advisor.StreamReply: stream failed", "error", err, "stage", stage)
		if cb.OnError != nil {
			cb.OnError(StreamErrorMessage)
		}
		return
	}

	result := extract.Directives(fullText)
	citations := extract.Citations(result.CleanText)
	if citations == nil {
		citations = []string{}
	}
	slog.Debug("Advisor.StreamReply: stream complete", "stage", stage,
		"chars", len(fullText), "citations", len(citations),
		"galleryDirective", result.Gallery != nil, "stateDirective", result.NextStage != nil)

	if cb.OnComplete != nil {
		cb.OnComplete(result.CleanText, citations, result.Gallery, result.NextStage)
	}
}

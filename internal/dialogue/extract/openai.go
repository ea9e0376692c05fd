package extract

import (
	"context"
	"errors"
	"strings"

	"SalonAssistant/pkg/openai"

	jsoniter "github.com/json-iterator/go"
)

const jsonInstructions = `
Cevabı SADECE geçerli JSON olarak ver, başka hiçbir şey yazma. Biçim:
{"intent":"booking","confidence":0.9,"phone":"","service":"","expert_name":"","date":"","time":"","appointment_code":"","name":"","confirmation":"none"}`

type openAIExtractor struct {
	client openai.IChatGPT
}

// NewOpenAIExtractor uses the JSON object response format.
func NewOpenAIExtractor(client openai.IChatGPT) Extractor {
	return &openAIExtractor{client: client}
}

func (o *openAIExtractor) Extract(ctx context.Context, req Request) (Result, error) {
	history := make([]openai.ConversationMessage, 0, len(req.History))
	for _, m := range lastMessages(req.History) {
		history = append(history, openai.ConversationMessage{Role: m.Role, Content: m.Text})
	}

	raw, err := o.client.CompleteJSON(ctx, SystemPrompt(req)+jsonInstructions, history, req.Utterance)
	if err != nil {
		return Fallback(), &ExtractionError{Provider: "openai", Err: err}
	}

	var args map[string]any
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal([]byte(strings.TrimSpace(raw)), &args); err != nil {
		return Fallback(), &ExtractionError{Provider: "openai", Err: err}
	}
	if args == nil {
		return Fallback(), &ExtractionError{Provider: "openai", Err: errors.New("empty JSON object")}
	}

	return Normalize(args, req), nil
}

func lastMessages(history []Message) []Message {
	if len(history) > historyWindow {
		return history[len(history)-historyWindow:]
	}
	return history
}

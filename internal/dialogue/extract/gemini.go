package extract

import (
	"context"

	"SalonAssistant/pkg/gemini"

	"github.com/google/generative-ai-go/genai"
)

const functionName = "extract_intent_entities"

type geminiExtractor struct {
	client gemini.IGemini
	decl   *genai.FunctionDeclaration
}

// NewGeminiExtractor asks Gemini for a forced function call whose arguments
// are the structured extraction.
func NewGeminiExtractor(client gemini.IGemini) Extractor {
	return &geminiExtractor{client: client, decl: FunctionDeclaration()}
}

func (g *geminiExtractor) Extract(ctx context.Context, req Request) (Result, error) {
	args, err := g.client.CallFunction(ctx, gemini.FunctionRequest{
		System:      SystemPrompt(req),
		Prompt:      UserPrompt(req),
		Function:    g.decl,
		Temperature: 0,
	})
	if err != nil {
		return Fallback(), &ExtractionError{Provider: "gemini", Err: err}
	}
	return Normalize(args, req), nil
}

func FunctionDeclaration() *genai.FunctionDeclaration {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}

	return &genai.FunctionDeclaration{
		Name:        functionName,
		Description: "Kullanıcı mesajından niyet ve randevu bilgilerini çıkarır.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"intent": {
					Type:        genai.TypeString,
					Description: "Kullanıcının niyeti",
					Enum:        []string{"booking", "query_appointment", "cancel", "campaign_inquiry", "chat"},
				},
				"phone":            str("Telefon numarası, sadece rakamlar"),
				"service":          str("İstenen hizmet"),
				"expert_name":      str("İstenen uzmanın adı"),
				"date":             str("Tarih, YYYY-MM-DD"),
				"time":             str("Saat, HH:MM"),
				"appointment_code": str("6 karakterlik randevu kodu"),
				"name":             str("Müşterinin adı soyadı"),
				"confirmation": {
					Type:        genai.TypeString,
					Description: "Kullanıcı bir soruyu onaylıyor mu",
					Enum:        []string{"yes", "no", "none"},
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "0 ile 1 arasında güven skoru",
				},
			},
			Required: []string{"intent", "confidence"},
		},
	}
}

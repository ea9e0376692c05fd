package compose

import (
	"context"
	"fmt"

	"SalonAssistant/pkg/gemini"
	"SalonAssistant/pkg/openai"
)

const (
	phraserTemperature = 0.7
	phraserMaxTokens   = 150
)

const phraserSystemPrompt = `Sen bir güzellik salonunun WhatsApp asistanısın.
Sana verilen bilgiyi müşteriye kısa, sıcak ve doğal bir Türkçe ile ilet.
Kurallar:
- En fazla iki cümle yaz.
- Bilgide olmayan hiçbir tarih, saat, isim, fiyat veya kod ekleme.
- Randevu kodu varsa aynen koru.
- Sadece mesaj metnini yaz, JSON veya açıklama ekleme.`

func phraserPrompt(toolName, summary string) string {
	return fmt.Sprintf("İşlem: %s\nBilgi: %s\nMüşteriye gönderilecek mesaj:", toolName, summary)
}

type geminiPhraser struct {
	client gemini.IGemini
}

func NewGeminiPhraser(client gemini.IGemini) Phraser {
	return &geminiPhraser{client: client}
}

func (p *geminiPhraser) Phrase(ctx context.Context, toolName, summary string) (string, error) {
	return p.client.GenerateText(ctx, gemini.TextRequest{
		System:          phraserSystemPrompt,
		Prompt:          phraserPrompt(toolName, summary),
		Temperature:     phraserTemperature,
		MaxOutputTokens: phraserMaxTokens,
	})
}

type openAIPhraser struct {
	client openai.IChatGPT
}

func NewOpenAIPhraser(client openai.IChatGPT) Phraser {
	return &openAIPhraser{client: client}
}

func (p *openAIPhraser) Phrase(ctx context.Context, toolName, summary string) (string, error) {
	return p.client.Complete(ctx, phraserSystemPrompt, phraserPrompt(toolName, summary), phraserTemperature, phraserMaxTokens)
}

package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/pkg/gemini"
	"SalonAssistant/pkg/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioDate = time.Date(2025, 11, 30, 9, 0, 0, 0, time.UTC)

func request(utterance string) Request {
	return Request{
		Utterance:     utterance,
		CurrentDate:   scenarioDate,
		KnownServices: []string{"Saç Kesimi", "Saç Boyama", "Manikür"},
		KnownExperts:  []string{"Ayşe Yılmaz", "Mehmet Kaya"},
	}
}

type fakeGemini struct {
	args map[string]any
	err  error
	got  gemini.FunctionRequest
}

func (f *fakeGemini) CallFunction(_ context.Context, req gemini.FunctionRequest) (map[string]any, error) {
	f.got = req
	return f.args, f.err
}

func (f *fakeGemini) GenerateText(context.Context, gemini.TextRequest) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeGemini) Close() error { return nil }

type fakeChatGPT struct {
	raw string
	err error
}

func (f *fakeChatGPT) CompleteJSON(context.Context, string, []openai.ConversationMessage, string) (string, error) {
	return f.raw, f.err
}

func (f *fakeChatGPT) Complete(context.Context, string, string, float32, int) (string, error) {
	return "", errors.New("not used")
}

func TestGeminiExtractor_BookingUtterance(t *testing.T) {
	fake := &fakeGemini{args: map[string]any{
		"intent":     "booking",
		"service":    "saç kesimi",
		"date":       "yarın",
		"time":       "14:00",
		"confidence": 0.92,
	}}
	ex := NewGeminiExtractor(fake)

	res, err := ex.Extract(context.Background(), request("yarın saat 14:00'te saç kesimi randevusu almak istiyorum"))
	require.NoError(t, err)

	assert.Equal(t, flow.Booking, res.Intent)
	assert.Equal(t, map[string]string{
		"service": "Saç Kesimi",
		"date":    "2025-12-01",
		"time":    "14:00",
	}, res.Entities)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.Nil(t, res.Confirmed)
	assert.Equal(t, SourceLLM, res.Source)

	require.NotNil(t, fake.got.Function)
	assert.Equal(t, "extract_intent_entities", fake.got.Function.Name)
	assert.Equal(t, float32(0), fake.got.Temperature)
	assert.Contains(t, fake.got.System, "2025-11-30")
	assert.Contains(t, fake.got.System, "2025-12-01")
}

func TestGeminiExtractor_ErrorIsExtractionError(t *testing.T) {
	ex := NewGeminiExtractor(&fakeGemini{err: context.DeadlineExceeded})

	res, err := ex.Extract(context.Background(), request("merhaba"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, flow.Chat, res.Intent)
	assert.Equal(t, SourceFallback, res.Source)
}

func TestOpenAIExtractor(t *testing.T) {
	ex := NewOpenAIExtractor(&fakeChatGPT{raw: `{"intent":"cancel","confidence":"0.8","phone":"0532 123 45 67","confirmation":"none"}`})
	res, err := ex.Extract(context.Background(), request("randevumu iptal etmek istiyorum"))
	require.NoError(t, err)
	assert.Equal(t, flow.Cancel, res.Intent)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.Equal(t, "0532 123 45 67", res.Entities["phone"])

	ex = NewOpenAIExtractor(&fakeChatGPT{raw: "Sure! here is the answer"})
	_, err = ex.Extract(context.Background(), request("x"))
	assert.ErrorIs(t, err, ErrExtraction)

	ex = NewOpenAIExtractor(&fakeChatGPT{err: errors.New("429")})
	_, err = ex.Extract(context.Background(), request("x"))
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestNormalize(t *testing.T) {
	t.Run("unknown intent is chat and confidence defaults", func(t *testing.T) {
		res := Normalize(map[string]any{"intent": "order_pizza"}, request(""))
		assert.Equal(t, flow.Chat, res.Intent)
		assert.Equal(t, DefaultConfidence, res.Confidence)
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		assert.Equal(t, 1.0, Normalize(map[string]any{"confidence": 7.0}, request("")).Confidence)
		assert.Equal(t, 0.0, Normalize(map[string]any{"confidence": -1.0}, request("")).Confidence)
		assert.Equal(t, DefaultConfidence, Normalize(map[string]any{"confidence": "çok"}, request("")).Confidence)
		assert.Equal(t, DefaultConfidence, Normalize(map[string]any{"confidence": "NaN"}, request("")).Confidence)
		assert.Equal(t, DefaultConfidence, Normalize(map[string]any{"confidence": "+Inf"}, request("")).Confidence)
	})

	t.Run("unknown service is dropped", func(t *testing.T) {
		res := Normalize(map[string]any{"intent": "booking", "service": "oto yıkama"}, request(""))
		_, ok := res.Entities["service"]
		assert.False(t, ok)
	})

	t.Run("service passes through without a reference list", func(t *testing.T) {
		req := request("")
		req.KnownServices = nil
		res := Normalize(map[string]any{"service": "Kaş Alma"}, req)
		assert.Equal(t, "Kaş Alma", res.Entities["service"])
	})

	t.Run("expert honorific and misspelling", func(t *testing.T) {
		res := Normalize(map[string]any{"expert_name": "Ayşe Hanım"}, request(""))
		assert.Equal(t, "Ayşe Yılmaz", res.Entities["expert_name"])
	})

	t.Run("empty markers and nested entities", func(t *testing.T) {
		res := Normalize(map[string]any{
			"intent":   "booking",
			"phone":    "null",
			"entities": map[string]any{"time": "saat 3", "date": "cuma"},
		}, request(""))
		assert.Equal(t, map[string]string{"time": "15:00", "date": "2025-12-05"}, res.Entities)
	})

	t.Run("unresolvable date is kept for the validator", func(t *testing.T) {
		res := Normalize(map[string]any{"date": "bir ara"}, request(""))
		assert.Equal(t, "bir ara", res.Entities["date"])
	})

	t.Run("confirmation", func(t *testing.T) {
		res := Normalize(map[string]any{"confirmation": "yes"}, request(""))
		require.NotNil(t, res.Confirmed)
		assert.True(t, *res.Confirmed)

		res = Normalize(map[string]any{"confirmation": "none"}, request(""))
		assert.Nil(t, res.Confirmed)
	})
}

func TestConfirmationRouter(t *testing.T) {
	r := NewConfirmationRouter()

	yes := []string{"evet", "Evet, onaylıyorum", "tamam", "olur", "doğru", "eminim"}
	for _, in := range yes {
		res, ok := r.Route(in, flow.Booking)
		require.True(t, ok, in)
		require.NotNil(t, res.Confirmed, in)
		assert.True(t, *res.Confirmed, in)
		assert.Equal(t, flow.Booking, res.Intent)
		assert.Equal(t, 1.0, res.Confidence)
	}

	no := []string{"hayır", "hayir istemiyorum", "kalsın", "vazgeçtim"}
	for _, in := range no {
		res, ok := r.Route(in, flow.Booking)
		require.True(t, ok, in)
		assert.False(t, *res.Confirmed, in)
	}

	res, ok := r.Route("evet iptal et", flow.Cancel)
	require.True(t, ok)
	assert.True(t, *res.Confirmed)

	_, ok = r.Route("evet iptal et", flow.Booking)
	assert.False(t, ok, "mixed answer outside a cancel flow")

	for _, in := range []string{"", "yarın saat 15:00 olur mu acaba bilmiyorum", "belki", "onaylamıyorum"} {
		_, ok := r.Route(in, flow.Booking)
		assert.False(t, ok, in)
	}
}

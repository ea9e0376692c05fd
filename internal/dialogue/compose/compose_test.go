package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/tool"

	"github.com/stretchr/testify/assert"
)

type fakePhraser struct {
	out   string
	err   error
	calls int
	delay time.Duration
}

func (f *fakePhraser) Phrase(ctx context.Context, _, _ string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func created() tool.Result {
	return tool.Success(tool.CreateAppointment, map[string]any{
		"success":          true,
		"appointment_code": "AB12CD",
		"date":             "2025-12-01",
		"time":             "14:00",
	})
}

func TestCompose_AskSlot(t *testing.T) {
	c := New(nil, nil, 0)
	out := c.Compose(context.Background(), Input{
		Kind:   KindAction,
		Action: flow.Action{Kind: flow.AskSlot, Slot: "phone"},
		View:   View{Flow: flow.Booking},
	})
	assert.Equal(t, "Telefon numaranızı alabilir miyim?", out)
}

func TestCompose_NotesPrecedeQuestion(t *testing.T) {
	c := New(nil, nil, 0)
	view := View{
		Flow:      flow.Booking,
		Collected: flow.Collected{"service": "Saç Kesimi"},
		Facts:     flow.Facts{Experts: []string{"Ayşe Yılmaz", "Mehmet Kaya"}},
	}
	out := c.Compose(context.Background(), Input{
		Kind:   KindAction,
		Action: flow.Action{Kind: flow.AskSlot, Slot: "expert_name"},
		Steps: []tool.Result{
			tool.Success(tool.CheckCustomer, map[string]any{"found": true, "name": "Elif Demir"}),
			tool.Success(tool.ListExperts, map[string]any{}),
		},
		View: view,
	})
	assert.Equal(t, "Hoş geldiniz Elif Demir. Saç Kesimi için uzmanlarımız: Ayşe Yılmaz, Mehmet Kaya. Hangi uzmanımızdan randevu almak istersiniz?", out)
}

func TestCompose_AvailabilityNotes(t *testing.T) {
	c := New(nil, nil, 0)
	offer := flow.Action{Kind: flow.OfferAlternatives, Message: flow.OfferAlternativesText}

	busy := c.Compose(context.Background(), Input{
		Kind:   KindAction,
		Action: offer,
		Steps:  []tool.Result{tool.Success(tool.CheckAvailability, map[string]any{"available": false})},
		View:   View{Flow: flow.Booking},
	})
	assert.Equal(t, "Maalesef bu saat dolu. "+flow.OfferAlternativesText, busy)

	failed := c.Compose(context.Background(), Input{
		Kind:   KindAction,
		Action: offer,
		Steps:  []tool.Result{tool.Failure(tool.CheckAvailability, tool.ReasonExecutionError, "db down")},
		View:   View{Flow: flow.Booking},
	})
	assert.True(t, strings.HasPrefix(failed, "Üzgünüm, müsaitlik kontrolü"))
	assert.NotContains(t, failed, "db down")
}

func TestCompose_TerminalSuccessDeterministic(t *testing.T) {
	c := New(nil, nil, 0)
	out := c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{created()}})
	assert.Equal(t, "Randevunuz 01.12.2025 saat 14:00 için oluşturuldu. Kod: AB12CD. Sizi bekliyoruz!", out)
}

func TestCompose_PhraserKeepsCode(t *testing.T) {
	p := &fakePhraser{out: `{"message": "Harika! Randevunuz hazır, kodunuz AB12CD."}`}
	c := New(nil, p, time.Second)

	out := c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{created()}})
	assert.Equal(t, "Harika! Randevunuz hazır, kodunuz AB12CD.", out)
	assert.Equal(t, 1, p.calls)
}

func TestCompose_PhraserWithoutCodeIsRejected(t *testing.T) {
	p := &fakePhraser{out: "Randevunuz hazır, görüşmek üzere!"}
	c := New(nil, p, time.Second)

	out := c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{created()}})
	assert.Contains(t, out, "AB12CD")
	assert.True(t, strings.HasPrefix(out, "Randevunuz 01.12.2025"))
}

func TestCompose_PhraserErrorAndTimeout(t *testing.T) {
	c := New(nil, &fakePhraser{err: errors.New("quota")}, time.Second)
	out := c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{created()}})
	assert.Contains(t, out, "Kod: AB12CD")

	slow := &fakePhraser{out: "AB12CD", delay: time.Second}
	c = New(nil, slow, 10*time.Millisecond)
	out = c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{created()}})
	assert.Contains(t, out, "Kod: AB12CD")
}

func TestCompose_FailuresAreNeverPhrased(t *testing.T) {
	p := &fakePhraser{out: "should not be used"}
	c := New(nil, p, time.Second)

	out := c.Compose(context.Background(), Input{
		Kind:  KindResult,
		Steps: []tool.Result{tool.Failure(tool.CreateAppointment, tool.ReasonExecutionError, "pq: connection refused")},
	})
	assert.Equal(t, RetryReply, out)

	out = c.Compose(context.Background(), Input{
		Kind:  KindResult,
		Steps: []tool.Result{tool.Failure(tool.CancelAppointment, tool.ReasonRejected, "appointment not found")},
	})
	assert.Contains(t, out, "randevu bulamadım")
	assert.Equal(t, 0, p.calls)
}

func TestCompose_Summaries(t *testing.T) {
	c := New(nil, nil, 0)

	out := c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{
		tool.Success(tool.GetCustomerAppointments, map[string]any{"appointments": []any{
			map[string]any{"date": "2025-12-01", "time": "14:00", "service": "Saç Kesimi", "expert_name": "Ayşe Yılmaz"},
		}}),
	}})
	assert.Equal(t, "Randevularınız: 01.12.2025 14:00 Saç Kesimi (Ayşe Yılmaz).", out)

	out = c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{
		tool.Success(tool.CheckCampaigns, map[string]any{"campaigns": []any{
			map[string]any{"title": "Kış İndirimi", "discount": 20.0, "end_date": "2025-12-31"},
		}}),
	}})
	assert.Equal(t, "Güncel kampanyalarımız: Kış İndirimi (%20 indirim, 31.12.2025 tarihine kadar).", out)

	out = c.Compose(context.Background(), Input{Kind: KindResult, Steps: []tool.Result{
		tool.Success(tool.CheckCampaigns, map[string]any{"campaigns": []any{}}),
	}})
	assert.Equal(t, "Şu an aktif bir kampanyamız bulunmuyor.", out)
}

func TestCompose_FixedReplies(t *testing.T) {
	c := New(nil, nil, 0)
	ctx := context.Background()

	assert.Equal(t, ChatReply, c.Compose(ctx, Input{Kind: KindChat}))
	assert.Equal(t, ClarifyReply, c.Compose(ctx, Input{Kind: KindClarify}))
	assert.Equal(t, CancelledReply, c.Compose(ctx, Input{Kind: KindCancelled}))
	assert.Equal(t, ErrorReply, c.Compose(ctx, Input{Kind: KindError}))
	assert.Equal(t, NoAppointmentReply, c.Compose(ctx, Input{
		Kind:   KindAction,
		Action: flow.Action{Kind: flow.Finalize, Reason: flow.ReasonNoAppointment},
	}))
	assert.Equal(t, ClarifyReply, c.Compose(ctx, Input{
		Kind:   KindClarify,
		Action: flow.Action{Kind: flow.InvokeTool, Tool: "check_customer"},
		View:   View{Flow: flow.Booking},
	}))
	assert.Equal(t, "Anlayamadım. Saat kaçta uygun?", c.Compose(ctx, Input{
		Kind:   KindClarify,
		Action: flow.Action{Kind: flow.AskSlot, Slot: "time"},
		View:   View{Flow: flow.Booking},
	}))
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Merhaba!", Clean("```json\n{\"reply\": \"Merhaba!\"}\n```"))
	assert.Equal(t, "Merhaba dünya", Clean("  \"Merhaba   dünya\" "))
	assert.Equal(t, "", Clean(`{"foo": 1}`))

	long := strings.Repeat("kelime ", 100)
	out := Clean(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), MaxReplyRunes)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestCompose_UnavailableReason(t *testing.T) {
	c := New(nil, nil, 0)
	offer := flow.Action{Kind: flow.OfferAlternatives, Message: flow.OfferAlternativesText}

	out := c.Compose(context.Background(), Input{
		Kind:   KindAction,
		Action: offer,
		Steps: []tool.Result{tool.Success(tool.CheckAvailability, map[string]any{
			"available": false,
			"reason":    "outside_business_hours",
		})},
		View: View{Flow: flow.Booking},
	})
	assert.Equal(t, "Bu saat çalışma saatlerimizin dışında kalıyor. "+flow.OfferAlternativesText, out)
}

package dialogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SalonAssistant/internal/dialogue/compose"
	"SalonAssistant/internal/dialogue/extract"
	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/quickpattern"
	"SalonAssistant/internal/dialogue/session"
	"SalonAssistant/internal/dialogue/tool"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 11, 30, 10, 0, 0, 0, time.UTC)

type scriptedExtractor struct {
	mu       sync.Mutex
	results  map[string]extract.Result
	err      error
	delay    time.Duration
	calls    int
	inflight atomic.Int32
	maxSeen  atomic.Int32
	onCall   func()
}

func (s *scriptedExtractor) Extract(ctx context.Context, req extract.Request) (extract.Result, error) {
	s.mu.Lock()
	s.calls++
	res, ok := s.results[req.Utterance]
	hook := s.onCall
	s.mu.Unlock()

	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		cur := s.maxSeen.Load()
		if n <= cur || s.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	if hook != nil {
		hook()
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return extract.Fallback(), &extract.ExtractionError{Provider: "fake", Err: ctx.Err()}
		}
	}
	if s.err != nil {
		return extract.Fallback(), &extract.ExtractionError{Provider: "fake", Err: s.err}
	}
	if !ok {
		return extract.Result{Intent: flow.Chat, Entities: map[string]string{}, Confidence: 0.5, Source: extract.SourceLLM}, nil
	}
	res.Source = extract.SourceLLM
	return res, nil
}

func (s *scriptedExtractor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeSalon is an in-memory tool provider with call counters.
type fakeSalon struct {
	mu           sync.Mutex
	calls        map[string]int
	busy         map[string]bool
	appointments []any
	createErrs   int
	failCustomer bool
	mutatingRead bool
}

func newFakeSalon() *fakeSalon {
	return &fakeSalon{
		calls: map[string]int{},
		busy:  map[string]bool{},
		appointments: []any{
			map[string]any{"code": "AB12CD", "date": "2025-12-01", "time": "14:00", "service": "Saç Kesimi", "expert_name": "Ayşe Yılmaz"},
		},
	}
}

func (f *fakeSalon) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSalon) fn(name string, required []string, mutates bool, body func(p tool.Params) (map[string]any, error)) tool.Tool {
	return tool.Func{
		ToolName: name,
		Required: required,
		Mutates:  mutates,
		Fn: func(_ context.Context, p tool.Params) (map[string]any, error) {
			f.mu.Lock()
			f.calls[name]++
			f.mu.Unlock()
			return body(p)
		},
	}
}

func (f *fakeSalon) tools() []tool.Tool {
	return []tool.Tool{
		f.fn(tool.CheckCustomer, []string{"phone"}, false, func(tool.Params) (map[string]any, error) {
			if f.failCustomer {
				return nil, errors.New("connection refused")
			}
			return map[string]any{"success": true, "found": true, "customer_id": 7.0, "name": "Elif Demir"}, nil
		}),
		f.fn(tool.ListExperts, nil, false, func(tool.Params) (map[string]any, error) {
			return map[string]any{"success": true, "experts": []any{
				map[string]any{"name": "Ayşe Yılmaz"},
				map[string]any{"name": "Mehmet Kaya"},
			}}, nil
		}),
		f.fn(tool.CheckAvailability, []string{"service_type", "date"}, false, func(p tool.Params) (map[string]any, error) {
			return map[string]any{"success": true, "available": !f.busy[p.String("date")+" "+p.String("time")]}, nil
		}),
		f.fn(tool.SuggestAlternativeTimes, []string{"service_type", "date"}, false, func(tool.Params) (map[string]any, error) {
			return map[string]any{"success": true, "alternatives": []any{
				map[string]any{"date": "2025-12-01", "time": "15:00", "expert_name": "Ayşe Yılmaz"},
			}}, nil
		}),
		f.fn(tool.CreateAppointment, []string{"phone", "service_type", "date", "time"}, true, func(p tool.Params) (map[string]any, error) {
			f.mu.Lock()
			fail := f.createErrs > 0
			if fail {
				f.createErrs--
			}
			f.mu.Unlock()
			if fail {
				return nil, errors.New("pq: connection reset")
			}
			return map[string]any{"success": true, "appointment_code": "AB12CD", "date": p.String("date"), "time": p.String("time")}, nil
		}),
		f.fn(tool.GetCustomerAppointments, []string{"phone"}, f.mutatingRead, func(tool.Params) (map[string]any, error) {
			return map[string]any{"success": true, "appointments": f.appointments}, nil
		}),
		f.fn(tool.CancelAppointment, []string{"appointment_code"}, true, func(p tool.Params) (map[string]any, error) {
			return map[string]any{"success": true, "appointment_code": p.String("appointment_code")}, nil
		}),
		f.fn(tool.CheckCampaigns, nil, false, func(tool.Params) (map[string]any, error) {
			return map[string]any{"success": true, "campaigns": []any{
				map[string]any{"title": "Kış İndirimi", "discount": 20.0, "end_date": "2025-12-31"},
			}}, nil
		}),
	}
}

type harness struct {
	orch  *orchestrator
	store *session.MemoryStore
	ext   *scriptedExtractor
	salon *fakeSalon
}

func newHarness(t *testing.T, tweak ...func(*fakeSalon, *Config)) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	salon := newFakeSalon()
	cfg := DefaultConfig()
	cfg.ExtractorTimeout = time.Second
	cfg.Location = time.UTC
	for _, fn := range tweak {
		fn(salon, cfg)
	}

	store := session.NewMemoryStore(0)
	ext := &scriptedExtractor{results: map[string]extract.Result{}}

	o := NewOrchestrator(log, Deps{
		Store:     store,
		Matcher:   quickpattern.New(quickpattern.Info{}),
		Extractor: ext,
		Executor:  tool.NewExecutor(log, time.Second, salon.tools()...),
		Composer:  compose.New(log, nil, 0),
	}, cfg).(*orchestrator)
	o.now = func() time.Time { return testNow }

	return &harness{orch: o, store: store, ext: ext, salon: salon}
}

func (h *harness) script(utterance string, intent flow.Type, confidence float64, entities map[string]string) {
	h.ext.mu.Lock()
	defer h.ext.mu.Unlock()
	if entities == nil {
		entities = map[string]string{}
	}
	h.ext.results[utterance] = extract.Result{Intent: intent, Entities: entities, Confidence: confidence}
}

func (h *harness) say(t *testing.T, id, utterance string) Reply {
	t.Helper()
	reply, err := h.orch.HandleTurn(context.Background(), id, utterance)
	require.NoError(t, err)
	return reply
}

func (h *harness) state(t *testing.T, id string) *session.State {
	t.Helper()
	st, err := h.store.Load(context.Background(), id)
	require.NoError(t, err)
	return st
}

func (h *harness) seed(t *testing.T, st *session.State) {
	t.Helper()
	require.NoError(t, h.store.Save(context.Background(), st))
}

func bookingState(id string) *session.State {
	st := session.New(id, testNow)
	st.FlowType = flow.Booking
	st.Collected = flow.Collected{
		"phone":       "05321234567",
		"service":     "Saç Kesimi",
		"expert_name": "Ayşe Yılmaz",
		"date":        "2025-12-01",
		"time":        "14:00",
	}
	st.Markers = flow.Markers{flow.CustomerChecked: true, flow.ExpertsListed: true}
	st.Facts = flow.Facts{CustomerID: 7, CustomerName: "Elif Demir", Experts: []string{"Ayşe Yılmaz", "Mehmet Kaya"}}
	return st
}

func TestHandleTurn_GreetingShortCircuits(t *testing.T) {
	h := newHarness(t)

	reply := h.say(t, "s1", "merhaba")

	assert.Equal(t, "İyi günler! Size nasıl yardımcı olabilirim?", reply.Text)
	assert.Equal(t, SourceQuickPattern, reply.Source)
	assert.Equal(t, quickpattern.Greeting, reply.Pattern)
	assert.Equal(t, 0, h.ext.Calls())
	assert.Empty(t, h.salon.calls)

	st := h.state(t, "s1")
	assert.Equal(t, flow.None, st.FlowType)
	require.Len(t, st.History, 2)
}

func TestHandleTurn_BookingStartAsksPhone(t *testing.T) {
	h := newHarness(t)
	utterance := "yarın saat 14:00'te saç kesimi randevusu almak istiyorum"
	h.script(utterance, flow.Booking, 0.92, map[string]string{
		"service": "Saç Kesimi", "date": "2025-12-01", "time": "14:00",
	})

	reply := h.say(t, "s1", utterance)

	assert.Equal(t, "Telefon numaranızı alabilir miyim?", reply.Text)
	assert.Equal(t, flow.Booking, reply.Flow)
	assert.Equal(t, "ask_slot", reply.Action)

	st := h.state(t, "s1")
	assert.Equal(t, flow.Collected{"service": "Saç Kesimi", "date": "2025-12-01", "time": "14:00"}, st.Collected)
	assert.Empty(t, h.salon.calls)
}

func TestHandleTurn_FullBookingFiresCreateOnce(t *testing.T) {
	h := newHarness(t)
	first := "yarın saat 14:00'te saç kesimi randevusu almak istiyorum"
	h.script(first, flow.Booking, 0.92, map[string]string{"service": "Saç Kesimi", "date": "2025-12-01", "time": "14:00"})
	h.script("0532 123 45 67", flow.Booking, 0.9, map[string]string{"phone": "0532 123 45 67"})
	h.script("Ayşe Hanım olsun", flow.Booking, 0.9, map[string]string{"expert_name": "Ayşe Yılmaz"})

	h.say(t, "s1", first)

	reply := h.say(t, "s1", "0532 123 45 67")
	assert.Equal(t, "Hoş geldiniz Elif Demir. Saç Kesimi için uzmanlarımız: Ayşe Yılmaz, Mehmet Kaya. Hangi uzmanımızdan randevu almak istersiniz?", reply.Text)
	st := h.state(t, "s1")
	assert.True(t, st.Markers.Has(flow.CustomerChecked))
	assert.True(t, st.Markers.Has(flow.ExpertsListed))
	assert.Equal(t, "05321234567", st.Collected["phone"])

	reply = h.say(t, "s1", "Ayşe Hanım olsun")
	assert.Equal(t, "01.12.2025 tarihinde saat 14:00'te Ayşe Yılmaz uzmanımızdan Saç Kesimi randevusu oluşturulsun mu?", reply.Text)
	assert.True(t, h.state(t, "s1").Markers.Has(flow.ConfirmationPending))

	reply = h.say(t, "s1", "evet")
	assert.Equal(t, "Randevunuz 01.12.2025 saat 14:00 için oluşturuldu. Kod: AB12CD. Sizi bekliyoruz!", reply.Text)
	assert.Equal(t, SourceRouter, reply.Source)
	assert.Equal(t, flow.None, reply.Flow)

	st = h.state(t, "s1")
	assert.Equal(t, flow.None, st.FlowType)
	assert.Empty(t, st.Collected)
	assert.Empty(t, st.Markers)
	assert.Equal(t, "Elif Demir", st.Facts.CustomerName)

	// a duplicate confirmation is just chat now
	reply = h.say(t, "s1", "evet")
	assert.Equal(t, compose.ChatReply, reply.Text)

	assert.Equal(t, 1, h.salon.count(tool.CreateAppointment))
	assert.Equal(t, 1, h.salon.count(tool.CheckCustomer))
	assert.Equal(t, 1, h.salon.count(tool.CheckAvailability))
	assert.Equal(t, 4, h.ext.Calls())
}

func TestHandleTurn_PhoneRunsCustomerCheck(t *testing.T) {
	h := newHarness(t)
	st := session.New("s1", testNow)
	st.FlowType = flow.Booking
	st.Collected = flow.Collected{"phone": "05321234567"}
	h.seed(t, st)

	reply := h.say(t, "s1", "randevu için yazıyorum")

	assert.Equal(t, 1, h.salon.count(tool.CheckCustomer))
	assert.Equal(t, "Hoş geldiniz Elif Demir. Hangi hizmetimizden yararlanmak istersiniz?", reply.Text)
	got := h.state(t, "s1")
	assert.True(t, got.Markers.Has(flow.CustomerChecked))
	assert.Equal(t, int64(7), got.Facts.CustomerID)
}

func TestHandleTurn_BusySlotOffersAlternatives(t *testing.T) {
	h := newHarness(t, func(s *fakeSalon, _ *Config) {
		s.busy["2025-12-01 14:00"] = true
	})
	h.seed(t, bookingState("s1"))

	reply := h.say(t, "s1", "müsait mi")
	assert.Equal(t, "Maalesef bu saat dolu. "+flow.OfferAlternativesText, reply.Text)
	assert.Equal(t, flow.Booking, reply.Flow)

	st := h.state(t, "s1")
	assert.False(t, st.Collected.Has("date"))
	assert.False(t, st.Collected.Has("time"))
	assert.Equal(t, "Saç Kesimi", st.Collected["service"])
	assert.True(t, st.Markers.Has(flow.AlternativesOffered))
	assert.Equal(t, "2025-12-01", st.Facts.RejectedDate)

	reply = h.say(t, "s1", "evet")
	assert.Equal(t, "Uygun saatler: 01.12.2025 15:00 (Ayşe Yılmaz). Hangi tarih sizin için uygun?", reply.Text)
	assert.Equal(t, 1, h.salon.count(tool.SuggestAlternativeTimes))
	assert.Equal(t, flow.Booking, h.state(t, "s1").FlowType)
	assert.Equal(t, 0, h.salon.count(tool.CreateAppointment))
}

func TestHandleTurn_ExtractorTimeoutKeepsFlow(t *testing.T) {
	h := newHarness(t, func(_ *fakeSalon, c *Config) {
		c.ExtractorTimeout = 20 * time.Millisecond
	})
	h.ext.delay = time.Second

	st := session.New("s1", testNow)
	st.FlowType = flow.Booking
	st.Collected = flow.Collected{"phone": "05321234567"}
	st.Markers = flow.Markers{flow.CustomerChecked: true}
	h.seed(t, st)

	reply := h.say(t, "s1", "şey ne diyordum")
	assert.Equal(t, "Anlayamadım. Hangi hizmetimizden yararlanmak istersiniz?", reply.Text)
	assert.Equal(t, SourceFallback, reply.Source)
	assert.Equal(t, flow.Chat, reply.Intent)

	got := h.state(t, "s1")
	assert.Equal(t, flow.Booking, got.FlowType)
	assert.Equal(t, flow.Collected{"phone": "05321234567"}, got.Collected)

	reply = h.say(t, "s2", "şey ne diyordum")
	assert.Equal(t, compose.ClarifyReply, reply.Text)
	assert.Equal(t, flow.None, h.state(t, "s2").FlowType)
}

func TestHandleTurn_ExtractorFailureWithPendingGateAsksSlot(t *testing.T) {
	h := newHarness(t, func(_ *fakeSalon, c *Config) {
		c.ExtractorTimeout = 20 * time.Millisecond
	})
	h.ext.delay = time.Second

	// phone is known but the customer lookup has not succeeded yet
	st := session.New("s1", testNow)
	st.FlowType = flow.Booking
	st.Collected = flow.Collected{"phone": "05321234567"}
	h.seed(t, st)

	reply := h.say(t, "s1", "şey ne diyordum")
	assert.Equal(t, "Anlayamadım. Hangi hizmetimizden yararlanmak istersiniz?", reply.Text)
	assert.NotContains(t, reply.Text, compose.ChatReply)
	assert.Equal(t, flow.Booking, h.state(t, "s1").FlowType)
	assert.Zero(t, h.salon.count("check_customer"))
}

func TestHandleTurn_DeclinedConfirmationResets(t *testing.T) {
	h := newHarness(t)
	st := bookingState("s1")
	st.Markers[flow.AvailabilityChecked] = true
	st.Markers[flow.Available] = true
	st.Markers[flow.ConfirmationPending] = true
	h.seed(t, st)

	reply := h.say(t, "s1", "hayır")

	assert.Equal(t, compose.CancelledReply, reply.Text)
	assert.Equal(t, flow.None, h.state(t, "s1").FlowType)
	assert.Equal(t, 0, h.salon.count(tool.CreateAppointment))
	assert.Equal(t, 0, h.ext.Calls())
}

func TestHandleTurn_TerminalFailureKeepsConfirmation(t *testing.T) {
	h := newHarness(t, func(s *fakeSalon, _ *Config) { s.createErrs = 1 })
	st := bookingState("s1")
	st.Markers[flow.AvailabilityChecked] = true
	st.Markers[flow.Available] = true
	st.Markers[flow.ConfirmationPending] = true
	h.seed(t, st)

	reply := h.say(t, "s1", "evet")
	assert.Equal(t, compose.RetryReply, reply.Text)
	assert.NotContains(t, reply.Text, "pq")

	got := h.state(t, "s1")
	assert.Equal(t, flow.Booking, got.FlowType)
	assert.True(t, got.Markers.Has(flow.ConfirmationPending))
	assert.False(t, got.Markers.Has(flow.Confirmed))
	assert.Len(t, got.Collected, 5)

	reply = h.say(t, "s1", "evet")
	assert.Contains(t, reply.Text, "AB12CD")
	assert.Equal(t, flow.None, h.state(t, "s1").FlowType)
	assert.Equal(t, 2, h.salon.count(tool.CreateAppointment))
}

func TestHandleTurn_PersistedConfirmationIsReset(t *testing.T) {
	h := newHarness(t)
	st := bookingState("s1")
	st.Markers[flow.Confirmed] = true
	h.seed(t, st)

	reply := h.say(t, "s1", "bilgi alabilir miyim")

	assert.Equal(t, compose.ChatReply, reply.Text)
	assert.Equal(t, flow.None, h.state(t, "s1").FlowType)
	assert.Equal(t, 0, h.salon.count(tool.CreateAppointment))
}

func TestHandleTurn_InvalidStoredSlotIsReset(t *testing.T) {
	h := newHarness(t)
	st := session.New("s1", testNow)
	st.FlowType = flow.Booking
	st.Collected = flow.Collected{"phone": "123"}
	h.seed(t, st)

	h.say(t, "s1", "bilgi alabilir miyim")

	got := h.state(t, "s1")
	assert.Equal(t, flow.None, got.FlowType)
	assert.Empty(t, got.Collected)
	assert.Equal(t, 0, h.salon.count(tool.CheckCustomer))
}

func TestHandleTurn_SideEffectWithoutConfirmation(t *testing.T) {
	h := newHarness(t, func(s *fakeSalon, _ *Config) { s.mutatingRead = true })
	h.script("randevularım ne zaman", flow.Query, 0.9, map[string]string{"phone": "05321234567"})

	reply := h.say(t, "s1", "randevularım ne zaman")

	assert.Equal(t, compose.ErrorReply, reply.Text)
	assert.Equal(t, 0, h.salon.count(tool.GetCustomerAppointments))
	assert.Equal(t, flow.None, h.state(t, "s1").FlowType)
}

func TestHandleTurn_AbortPatternMidFlow(t *testing.T) {
	h := newHarness(t)
	h.seed(t, bookingState("s1"))

	reply := h.say(t, "s1", "vazgeçtim")

	assert.Equal(t, compose.CancelledReply, reply.Text)
	assert.Equal(t, quickpattern.Abort, reply.Pattern)
	assert.Equal(t, flow.None, h.state(t, "s1").FlowType)
	assert.Equal(t, 0, h.ext.Calls())
}

func TestHandleTurn_ThanksIgnoredMidFlow(t *testing.T) {
	h := newHarness(t)
	st := session.New("s1", testNow)
	st.FlowType = flow.Booking
	st.Collected = flow.Collected{"phone": "05321234567"}
	st.Markers = flow.Markers{flow.CustomerChecked: true}
	h.seed(t, st)

	reply := h.say(t, "s1", "teşekkürler")

	assert.Equal(t, 1, h.ext.Calls())
	assert.Equal(t, "Hangi hizmetimizden yararlanmak istersiniz?", reply.Text)
}

func TestHandleTurn_FlowSwitchNeedsHighConfidence(t *testing.T) {
	h := newHarness(t)
	st := session.New("s1", testNow)
	st.FlowType = flow.Booking
	st.Collected = flow.Collected{"phone": "05321234567"}
	st.Markers = flow.Markers{flow.CustomerChecked: true}
	h.seed(t, st)

	h.script("belki iptal", flow.Cancel, 0.6, nil)
	h.say(t, "s1", "belki iptal")
	assert.Equal(t, flow.Booking, h.state(t, "s1").FlowType)

	h.script("randevumu iptal etmek istiyorum", flow.Cancel, 0.95, nil)
	reply := h.say(t, "s1", "randevumu iptal etmek istiyorum")
	assert.Equal(t, flow.Cancel, reply.Flow)
	assert.Equal(t, "Telefon numaranızı alabilir miyim?", reply.Text)
}

func TestHandleTurn_CancelFlow(t *testing.T) {
	h := newHarness(t)
	h.script("randevumu iptal etmek istiyorum", flow.Cancel, 0.9, map[string]string{"phone": "05321234567"})

	reply := h.say(t, "s1", "randevumu iptal etmek istiyorum")
	assert.Equal(t, "01.12.2025 tarihli Saç Kesimi randevunuzu iptal etmek istediğinize emin misiniz?", reply.Text)
	assert.Equal(t, 1, h.salon.count(tool.GetCustomerAppointments))

	reply = h.say(t, "s1", "iptal")
	assert.Equal(t, "AB12CD kodlu randevunuz iptal edildi. Başka bir konuda yardımcı olabilir miyim?", reply.Text)
	assert.Equal(t, 1, h.salon.count(tool.CancelAppointment))
	assert.Equal(t, flow.None, h.state(t, "s1").FlowType)
}

func TestHandleTurn_CancelWithoutAppointments(t *testing.T) {
	h := newHarness(t, func(s *fakeSalon, _ *Config) { s.appointments = []any{} })
	h.script("randevumu iptal etmek istiyorum", flow.Cancel, 0.9, map[string]string{"phone": "05321234567"})

	reply := h.say(t, "s1", "randevumu iptal etmek istiyorum")

	assert.Equal(t, compose.NoAppointmentReply, reply.Text)
	assert.Equal(t, flow.None, h.state(t, "s1").FlowType)
	assert.Equal(t, 0, h.salon.count(tool.CancelAppointment))
}

func TestHandleTurn_CampaignInquiry(t *testing.T) {
	h := newHarness(t)
	h.script("kampanya var mı", flow.CampaignInquiry, 0.9, nil)

	reply := h.say(t, "s1", "kampanya var mı")

	assert.Equal(t, "Güncel kampanyalarımız: Kış İndirimi (%20 indirim, 31.12.2025 tarihine kadar).", reply.Text)
	assert.Equal(t, flow.None, reply.Flow)
}

func TestHandleTurn_CustomerLookupFailure(t *testing.T) {
	h := newHarness(t, func(s *fakeSalon, _ *Config) { s.failCustomer = true })
	h.script("randevu 05321234567", flow.Booking, 0.9, map[string]string{"phone": "05321234567"})

	reply := h.say(t, "s1", "randevu 05321234567")

	assert.Equal(t, compose.TemporaryErrReply, reply.Text)
	st := h.state(t, "s1")
	assert.Equal(t, flow.Booking, st.FlowType)
	assert.False(t, st.Markers.Has(flow.CustomerChecked))
}

func TestHandleTurn_DisconnectDoesNotAbortTurn(t *testing.T) {
	h := newHarness(t)
	h.script("0532 123 45 67", flow.Booking, 0.9, map[string]string{"phone": "0532 123 45 67"})

	ctx, cancel := context.WithCancel(context.Background())
	h.ext.onCall = cancel

	reply, err := h.orch.HandleTurn(ctx, "s1", "0532 123 45 67")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
	assert.Equal(t, 1, h.salon.count(tool.CheckCustomer))
	assert.True(t, h.state(t, "s1").Markers.Has(flow.CustomerChecked))
}

func TestHandleTurn_SameSessionIsSerialized(t *testing.T) {
	h := newHarness(t)
	h.ext.delay = 2 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.orch.HandleTurn(context.Background(), "s1", fmt.Sprintf("soru %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st := h.state(t, "s1")
	require.Len(t, st.History, 20)
	for i, turn := range st.History {
		if i%2 == 0 {
			assert.Equal(t, session.SpeakerUser, turn.Speaker)
		} else {
			assert.Equal(t, session.SpeakerAssistant, turn.Speaker)
		}
	}
	assert.Equal(t, int32(1), h.ext.maxSeen.Load())
}

func TestHandleTurn_ConcurrencyIsBounded(t *testing.T) {
	h := newHarness(t, func(_ *fakeSalon, c *Config) { c.MaxConcurrent = 2 })
	h.ext.delay = 10 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.orch.HandleTurn(context.Background(), fmt.Sprintf("s%d", i), "bilgi alabilir miyim")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, h.ext.maxSeen.Load(), int32(2))
	assert.Equal(t, 6, h.store.Len())
}

type recordingLogger struct {
	mu   sync.Mutex
	recs []TurnRecord
}

func (r *recordingLogger) LogTurn(_ context.Context, rec TurnRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
}

func TestHandleTurn_TurnLoggerAndEndSession(t *testing.T) {
	h := newHarness(t)
	rec := &recordingLogger{}
	h.orch.deps.TurnLogger = rec

	h.say(t, "s1", "merhaba")
	require.Len(t, rec.recs, 1)
	assert.Equal(t, "merhaba", rec.recs[0].Utterance)
	assert.Equal(t, SourceQuickPattern, rec.recs[0].Source)

	st, err := h.orch.EndSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, st.History, 2)

	_, err = h.orch.Session(context.Background(), "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

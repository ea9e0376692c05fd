package salonService

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"SalonAssistant/database"
	"SalonAssistant/internal/api/salon"
	salonRepository "SalonAssistant/internal/api/salon/repository"
	"SalonAssistant/internal/dialogue/tool"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday morning, 09:00.
var fixedNow = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

type sentMessage struct {
	phone, text string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeNotifier) SendMessage(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{phone: phone, text: text})
	return nil
}

func newTestService(t *testing.T) (*salonService, *fakeNotifier) {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db, fixedNow))

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := DefaultConfig()
	cfg.Location = time.UTC

	notifier := &fakeNotifier{}
	svc := newService(log, salonRepository.New(db, log), nil, notifier, cfg)
	svc.now = func() time.Time { return fixedNow }
	return svc, notifier
}

func book(t *testing.T, svc *salonService, req salon.CreateAppointmentRequest) salon.AppointmentResponse {
	t.Helper()
	res, err := svc.CreateAppointment(context.Background(), req)
	require.NoError(t, err)
	return res
}

func TestCheckAvailability_SpecificTime(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.CheckAvailability(context.Background(), salon.AvailabilityRequest{
		ServiceType: "saç kesimi",
		Date:        "2025-12-02",
		Time:        "14:00",
		ExpertName:  "ayse",
	})
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, "Ayşe Yılmaz", res.ExpertName)
	assert.Equal(t, "14:00", res.Time)
}

func TestCreateAppointment_BlocksOverlappingSlots(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := book(t, svc, salon.CreateAppointmentRequest{
		Phone:        "0532 111 22 33",
		ServiceType:  "Saç Kesimi",
		ExpertName:   "Ayşe Yılmaz",
		Date:         "2025-12-02",
		Time:         "14:00",
		CustomerName: "Elif Demir",
	})
	assert.Len(t, res.Code, 6)
	assert.Equal(t, "confirmed", res.Status)
	assert.Equal(t, "14:45", res.EndTime)
	assert.Equal(t, "Elif Demir", res.CustomerName)

	check := func(hour, expert string) salon.AvailabilityResponse {
		out, err := svc.CheckAvailability(ctx, salon.AvailabilityRequest{
			ServiceType: "Saç Kesimi", Date: "2025-12-02", Time: hour, ExpertName: expert,
		})
		require.NoError(t, err)
		return out
	}

	busy := check("14:30", "Ayşe Yılmaz")
	assert.False(t, busy.Available)
	assert.Equal(t, ReasonBusy, busy.Reason)

	assert.True(t, check("14:45", "Ayşe Yılmaz").Available)
	assert.True(t, check("13:15", "Ayşe Yılmaz").Available)

	other := check("14:00", "")
	assert.True(t, other.Available)
	assert.Equal(t, "Mehmet Kaya", other.ExpertName)

	_, err := svc.CreateAppointment(ctx, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Saç Kesimi", ExpertName: "Ayşe", Date: "2025-12-02", Time: "14:15",
	})
	assert.ErrorIs(t, err, salon.ErrSlotTaken)

	lookup, err := svc.CheckCustomer(ctx, "+90 532 111 22 33")
	require.NoError(t, err)
	assert.True(t, lookup.Found)
	assert.Equal(t, "Elif Demir", lookup.Name)
	assert.Equal(t, 1, lookup.TotalAppointments)
}

func TestCreateAppointment_AssignsFreeExpert(t *testing.T) {
	svc, _ := newTestService(t)

	first := book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Fön", Date: "2025-12-03", Time: "11:00", CustomerName: "Elif Demir",
	})
	second := book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05329998877", ServiceType: "Fön", Date: "2025-12-03", Time: "11:00", CustomerName: "Can Aksoy",
	})
	assert.Equal(t, "Ayşe Yılmaz", first.ExpertName)
	assert.Equal(t, "Mehmet Kaya", second.ExpertName)

	_, err := svc.CreateAppointment(context.Background(), salon.CreateAppointmentRequest{
		Phone: "05324445566", ServiceType: "Fön", Date: "2025-12-03", Time: "11:15", CustomerName: "Deniz Acar",
	})
	assert.ErrorIs(t, err, salon.ErrNoExpertAvailable)
}

func TestCreateAppointment_Rules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAppointment(ctx, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Saç Kesimi", Date: "2025-12-02", Time: "14:00",
	})
	assert.ErrorIs(t, err, salon.ErrCustomerNameRequired)

	_, err = svc.CreateAppointment(ctx, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Saç Kesimi", Date: "2025-12-02", Time: "16:30", CustomerName: "Elif",
	})
	assert.ErrorIs(t, err, salon.ErrOutsideBusinessHours)

	_, err = svc.CreateAppointment(ctx, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Saç Kesimi", Date: "2025-12-01", Time: "08:30", CustomerName: "Elif",
	})
	assert.ErrorIs(t, err, salon.ErrDateInPast)

	_, err = svc.CreateAppointment(ctx, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Saç Kesimi", ExpertName: "Zeynep Demir", Date: "2025-12-02", Time: "10:00", CustomerName: "Elif",
	})
	assert.ErrorIs(t, err, salon.ErrExpertNotQualified)

	_, err = svc.CreateAppointment(ctx, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Lazer Epilasyon", Date: "2025-12-02", Time: "10:00", CustomerName: "Elif",
	})
	assert.ErrorIs(t, err, salon.ErrServiceNotFound)
}

func TestCheckAvailability_Reasons(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  salon.AvailabilityRequest
		want string
	}{
		{"outside hours", salon.AvailabilityRequest{ServiceType: "Saç Kesimi", Date: "2025-12-02", Time: "16:30"}, ReasonOutsideHours},
		{"earlier today", salon.AvailabilityRequest{ServiceType: "Saç Kesimi", Date: "2025-12-01", Time: "08:30"}, ReasonPast},
		{"yesterday", salon.AvailabilityRequest{ServiceType: "Saç Kesimi", Date: "2025-11-30"}, ReasonPast},
		{"not qualified", salon.AvailabilityRequest{ServiceType: "Saç Kesimi", Date: "2025-12-02", Time: "10:00", ExpertName: "Zeynep"}, ReasonNotQualified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.CheckAvailability(ctx, tc.req)
			require.NoError(t, err)
			assert.False(t, res.Available)
			assert.Equal(t, tc.want, res.Reason)
		})
	}

	_, err := svc.CheckAvailability(ctx, salon.AvailabilityRequest{ServiceType: "Saç Kesimi", Date: "02/12/2025"})
	assert.ErrorIs(t, err, salon.ErrInvalidDate)

	_, err = svc.CheckAvailability(ctx, salon.AvailabilityRequest{ServiceType: "Saç Kesimi", Date: "2025-12-02", ExpertName: "Fatma Çelik"})
	assert.ErrorIs(t, err, salon.ErrExpertNotFound)
}

func TestCheckAvailability_WholeDay(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.CheckAvailability(context.Background(), salon.AvailabilityRequest{
		ServiceType: "Manikür",
		Date:        "2025-12-01",
	})
	require.NoError(t, err)
	require.True(t, res.Available)
	assert.Equal(t, "09:00", res.Slots[0].Time)
	assert.Equal(t, []string{"Zeynep Demir"}, res.Slots[0].Experts)
	assert.Equal(t, "16:15", res.Slots[len(res.Slots)-1].Time)
}

func TestSuggestAlternatives(t *testing.T) {
	svc, _ := newTestService(t)

	book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Manikür", ExpertName: "Zeynep Demir",
		Date: "2025-12-02", Time: "10:00", CustomerName: "Elif Demir",
	})

	alts, err := svc.SuggestAlternatives(context.Background(), salon.AvailabilityRequest{
		ServiceType: "Manikür", Date: "2025-12-02", Time: "10:00", ExpertName: "Zeynep Demir",
	})
	require.NoError(t, err)
	require.Len(t, alts, 9)

	assert.Equal(t, salon.Alternative{Date: "2025-12-02", Time: "09:00", ExpertName: "Zeynep Demir"}, alts[0])
	assert.Equal(t, "09:15", alts[1].Time)
	assert.Equal(t, "10:45", alts[2].Time)
	assert.Equal(t, salon.Alternative{Date: "2025-12-03", Time: "08:00", ExpertName: "Zeynep Demir"}, alts[3])
	assert.Equal(t, "08:15", alts[4].Time)
	assert.Equal(t, "2025-12-05", alts[8].Date)
}

func TestCancelAppointment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Pedikür", Date: "2025-12-04", Time: "15:00", CustomerName: "Elif Demir",
	})

	cancelled, err := svc.CancelAppointment(ctx, salon.CancelAppointmentRequest{AppointmentCode: res.Code, Reason: "plan değişti"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "Pedikür", cancelled.Service)

	_, err = svc.CancelAppointment(ctx, salon.CancelAppointmentRequest{AppointmentCode: res.Code})
	assert.ErrorIs(t, err, salon.ErrAppointmentCancelled)

	free, err := svc.CheckAvailability(ctx, salon.AvailabilityRequest{ServiceType: "Pedikür", Date: "2025-12-04", Time: "15:00"})
	require.NoError(t, err)
	assert.True(t, free.Available)

	_, err = svc.CancelAppointment(ctx, salon.CancelAppointmentRequest{AppointmentCode: "ZZZZZZ"})
	assert.ErrorIs(t, err, salon.ErrAppointmentNotFound)
}

func TestCancelAppointment_ByPhone(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Kaş Tasarımı", Date: "2025-12-05", Time: "10:00", CustomerName: "Elif Demir",
	})

	cancelled, err := svc.CancelAppointment(ctx, salon.CancelAppointmentRequest{Phone: "05321112233"})
	require.NoError(t, err)
	assert.Equal(t, res.Code, cancelled.Code)

	_, err = svc.CancelAppointment(ctx, salon.CancelAppointmentRequest{Phone: "05321112233"})
	assert.ErrorIs(t, err, salon.ErrAppointmentNotFound)
}

func TestGetCustomerAppointments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	none, err := svc.GetCustomerAppointments(ctx, "05321112233")
	require.NoError(t, err)
	assert.Empty(t, none)

	book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Saç Kesimi", Date: "2025-12-02", Time: "10:00", CustomerName: "Elif Demir",
	})
	later := book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Cilt Bakımı", Date: "2025-12-09", Time: "13:00",
	})

	items, err := svc.GetCustomerAppointments(ctx, "05321112233")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, later.Code, items[0].Code)
	assert.Equal(t, "Elif Şahin", items[0].ExpertName)
	assert.Equal(t, "Saç Kesimi", items[1].Service)
}

func TestCheckCampaigns(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	all, err := svc.CheckCampaigns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Fön", Date: "2025-12-02", Time: "10:00", CustomerName: "Elif Demir",
	})
	lookup, err := svc.CheckCustomer(ctx, "05321112233")
	require.NoError(t, err)

	returning, err := svc.CheckCampaigns(ctx, lookup.CustomerID)
	require.NoError(t, err)
	require.Len(t, returning, 1)
	assert.Equal(t, "Kış Bakım Kampanyası", returning[0].Title)
	assert.Equal(t, 20.0, returning[0].Discount)
}

func TestCreateAppointment_Notifies(t *testing.T) {
	svc, notifier := newTestService(t)

	res := book(t, svc, salon.CreateAppointmentRequest{
		Phone: "05321112233", ServiceType: "Fön", Date: "2025-12-02", Time: "10:00", CustomerName: "Elif Demir",
	})
	svc.notifyWG.Wait()

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "05321112233", notifier.sent[0].phone)
	assert.Contains(t, notifier.sent[0].text, res.Code)
	assert.Contains(t, notifier.sent[0].text, "02.12.2025")
}

func TestTools_PayloadContract(t *testing.T) {
	svc, _ := newTestService(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	exec := tool.NewExecutor(log, 5*time.Second, Tools(svc)...)
	ctx := context.Background()

	assert.Len(t, exec.Names(), 10)

	res := exec.Execute(ctx, tool.CheckCustomer, tool.Params{"phone": "05321112233"})
	require.True(t, res.Success)
	assert.False(t, res.Bool("found"))

	res = exec.Execute(ctx, tool.ListExperts, tool.Params{"service_type": "saç kesimi"})
	require.True(t, res.Success)
	experts := res.List("experts")
	require.Len(t, experts, 2)
	assert.Equal(t, "Ayşe Yılmaz", experts[0]["name"])

	params := tool.Params{
		"phone": "05321112233", "service_type": "Saç Kesimi", "expert_name": "Ayşe Yılmaz",
		"date": "2025-12-02", "time": "14:00", "customer_name": "Elif Demir",
	}
	res = exec.Execute(ctx, tool.CreateAppointment, params)
	require.True(t, res.Success, res.Message)
	code := res.String("appointment_code")
	assert.Len(t, code, 6)
	assert.Equal(t, "2025-12-02", res.String("date"))
	assert.Equal(t, "Ayşe Yılmaz", res.String("expert_name"))

	res = exec.Execute(ctx, tool.CreateAppointment, params)
	assert.False(t, res.Success)
	assert.Equal(t, tool.ReasonRejected, res.Reason)

	res = exec.Execute(ctx, tool.CheckAvailability, tool.Params{
		"service_type": "Saç Kesimi", "date": "2025-12-02", "time": "14:00", "expert_name": "Ayşe Yılmaz",
	})
	require.True(t, res.Success)
	assert.False(t, res.Bool("available"))
	assert.Equal(t, ReasonBusy, res.String("reason"))

	res = exec.Execute(ctx, tool.GetCustomerAppointments, tool.Params{"phone": "05321112233"})
	require.True(t, res.Success)
	items := res.List("appointments")
	require.Len(t, items, 1)
	assert.Equal(t, code, items[0]["code"])

	res = exec.Execute(ctx, tool.CheckCustomer, tool.Params{"phone": "05321112233"})
	require.True(t, res.Success)
	assert.True(t, res.Bool("found"))
	assert.NotZero(t, res.Payload["customer_id"])

	res = exec.Execute(ctx, tool.CancelAppointment, tool.Params{"appointment_code": code})
	require.True(t, res.Success)
	assert.Equal(t, code, res.String("appointment_code"))

	res = exec.Execute(ctx, tool.CancelAppointment, tool.Params{"appointment_code": code})
	assert.Equal(t, tool.ReasonRejected, res.Reason)

	res = exec.Execute(ctx, tool.CheckAvailability, tool.Params{"service_type": "Masaj", "date": "2025-12-02"})
	assert.Equal(t, tool.ReasonRejected, res.Reason)

	res = exec.Execute(ctx, tool.CheckCampaigns, tool.Params{})
	require.True(t, res.Success)
	assert.Len(t, res.List("campaigns"), 2)

	res = exec.Execute(ctx, tool.SuggestAlternativeTimes, tool.Params{"service_type": "Fön", "date": "2025-12-02"})
	require.True(t, res.Success)
	assert.NotEmpty(t, res.List("alternatives"))
}

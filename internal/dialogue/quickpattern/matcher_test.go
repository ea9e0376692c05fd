package quickpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_IdleSession(t *testing.T) {
	m := New(Info{OpeningHours: "09:00 - 19:00", Address: "İstanbul, Şişli"})

	tests := []struct {
		in      string
		pattern string
	}{
		{"merhaba", Greeting},
		{"Merhaba!", Greeting},
		{"GÜNAYDIN", Greeting},
		{"gunaydin", Greeting},
		{"kaça kadar açıksınız?", WorkingHours},
		{"adresiniz nedir", Location},
		{"teşekkürler görüşürüz", Goodbye},
		{"çok teşekkür ederim", ThankYou},
	}
	for _, tt := range tests {
		got, ok := m.Match(tt.in, false)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.pattern, got.Pattern, tt.in)
	}

	hours, _ := m.Match("kaça kadar açıksınız", false)
	assert.Equal(t, "09:00 - 19:00 arası hizmetinizdeyiz.", hours.Text)
}

func TestMatch_NoMatch(t *testing.T) {
	m := New(Info{})

	for _, in := range []string{
		"",
		"a",
		"yarın saat 14:00'te saç kesimi randevusu almak istiyorum",
		"saç kesimi hizmeti var mı",
		"merhaba yarın saç kesimi için randevu almak istiyorum",
		// abort keywords only apply to a running flow
		"vazgeçtim",
	} {
		_, ok := m.Match(in, false)
		assert.False(t, ok, in)
	}
}

func TestMatch_ActiveFlowOnlyAllowsGoodbyeAndAbort(t *testing.T) {
	m := New(Info{})

	_, ok := m.Match("teşekkürler", true)
	assert.False(t, ok)
	_, ok = m.Match("merhaba", true)
	assert.False(t, ok)

	got, ok := m.Match("görüşürüz", true)
	require.True(t, ok)
	assert.Equal(t, Goodbye, got.Pattern)

	got, ok = m.Match("boş ver", true)
	require.True(t, ok)
	assert.Equal(t, Abort, got.Pattern)
	assert.Equal(t, "Tamam, işlemi iptal ettim. Başka bir konuda yardımcı olabilir miyim?", got.Text)
}

func TestMatch_PriorityAndTableOrder(t *testing.T) {
	m := New(Info{})

	// greeting (1) beats thank_you (3)
	got, ok := m.Match("merhaba teşekkürler", false)
	require.True(t, ok)
	assert.Equal(t, Greeting, got.Pattern)

	// same priority: working_hours is listed before location
	got, ok = m.Match("adres ve çalışma saati", false)
	require.True(t, ok)
	assert.Equal(t, WorkingHours, got.Pattern)
}

func TestMatch_IsPure(t *testing.T) {
	m := New(Info{})
	for _, in := range []string{"merhaba", "randevu", "görüşürüz"} {
		a, okA := m.Match(in, false)
		b, okB := m.Match(in, false)
		assert.Equal(t, okA, okB)
		assert.Equal(t, a, b)
	}
}

func TestAddRemove(t *testing.T) {
	m := New(Info{})

	m.Add(Pattern{Name: "price", Priority: 2, Keywords: []string{"fiyat"}, Reply: "Fiyatlarımız hizmete göre değişir."})
	got, ok := m.Match("fiyatlar nedir", false)
	require.True(t, ok)
	assert.Equal(t, "price", got.Pattern)

	m.Remove("price")
	_, ok = m.Match("fiyatlar nedir", false)
	assert.False(t, ok)

	m.Remove(Greeting)
	_, ok = m.Match("merhaba", false)
	assert.False(t, ok)
}

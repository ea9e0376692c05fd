package merge

import (
	"math/rand"
	"testing"

	"SalonAssistant/internal/dialogue/extract"
	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/slot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(intent flow.Type, conf float64, entities map[string]string) extract.Result {
	return extract.Result{Intent: intent, Confidence: conf, Entities: entities}
}

func TestMerge_StartsFlowFromNone(t *testing.T) {
	out := Merge(flow.None, flow.Collected{}, flow.Markers{}, result(flow.Booking, 0.9, map[string]string{
		"service": "Saç Kesimi",
		"date":    "2025-12-01",
		"time":    "14:00",
	}), DefaultSwitchThreshold)

	assert.Equal(t, Start, out.Decision)
	assert.Equal(t, flow.Booking, out.Flow)
	assert.Equal(t, flow.Collected{"service": "Saç Kesimi", "date": "2025-12-01", "time": "14:00"}, out.Collected)
}

func TestMerge_ChatWithoutFlowKeepsStateEmpty(t *testing.T) {
	out := Merge(flow.None, flow.Collected{}, flow.Markers{}, result(flow.Chat, 0.9, map[string]string{"date": "2025-12-01"}), DefaultSwitchThreshold)

	assert.Equal(t, Tangent, out.Decision)
	assert.Equal(t, flow.None, out.Flow)
	assert.Empty(t, out.Collected)
	assert.Empty(t, out.Markers)
}

func TestMerge_FirstWriteWins(t *testing.T) {
	prior := flow.Collected{"service": "Saç Kesimi", "phone": "05321234567"}
	out := Merge(flow.Booking, prior, flow.Markers{flow.CustomerChecked: true},
		result(flow.Booking, 0.95, map[string]string{"service": "Manikür", "time": "15:30"}), DefaultSwitchThreshold)

	assert.Equal(t, Keep, out.Decision)
	assert.Equal(t, "Saç Kesimi", out.Collected["service"])
	assert.Equal(t, "15:30", out.Collected["time"])
	assert.Equal(t, []string{"service"}, out.Ignored)
	assert.True(t, out.Markers.Has(flow.CustomerChecked))
}

func TestMerge_InvalidValuesAreRejected(t *testing.T) {
	out := Merge(flow.Booking, flow.Collected{}, flow.Markers{},
		result(flow.Booking, 0.9, map[string]string{"phone": "123", "date": "yarın", "time": "9:00"}), DefaultSwitchThreshold)

	assert.Equal(t, flow.Collected{"time": "09:00"}, out.Collected)
	require.Len(t, out.Rejected, 2)
	assert.ErrorIs(t, out.Rejected["phone"], slot.ErrValidation)
	assert.ErrorIs(t, out.Rejected["date"], slot.ErrValidation)
}

func TestMerge_FlowSwitch(t *testing.T) {
	prior := flow.Collected{"phone": "05321234567", "service": "Saç Kesimi"}
	markers := flow.Markers{flow.CustomerChecked: true}

	t.Run("high confidence different intent switches", func(t *testing.T) {
		out := Merge(flow.Booking, prior, markers, result(flow.Cancel, 0.9, map[string]string{"appointment_code": "abc123"}), DefaultSwitchThreshold)
		assert.Equal(t, Switch, out.Decision)
		assert.Equal(t, flow.Cancel, out.Flow)
		assert.Equal(t, flow.Collected{"appointment_code": "ABC123"}, out.Collected)
		assert.Empty(t, out.Markers)
	})

	t.Run("confidence at the threshold does not switch", func(t *testing.T) {
		out := Merge(flow.Booking, prior, markers, result(flow.Cancel, DefaultSwitchThreshold, nil), DefaultSwitchThreshold)
		assert.Equal(t, Keep, out.Decision)
		assert.Equal(t, flow.Booking, out.Flow)
		assert.Equal(t, prior, out.Collected)
	})

	t.Run("chat mid flow is a tangent that still fills slots", func(t *testing.T) {
		out := Merge(flow.Booking, prior, markers, result(flow.Chat, 0.99, map[string]string{"date": "2025-12-02"}), DefaultSwitchThreshold)
		assert.Equal(t, Tangent, out.Decision)
		assert.Equal(t, flow.Booking, out.Flow)
		assert.Equal(t, "2025-12-02", out.Collected["date"])
	})
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	prior := flow.Collected{"phone": "05321234567"}
	markers := flow.Markers{flow.CustomerChecked: true}

	_ = Merge(flow.Booking, prior, markers, result(flow.Booking, 0.9, map[string]string{"service": "Manikür"}), DefaultSwitchThreshold)
	_ = Merge(flow.Booking, prior, markers, result(flow.Cancel, 0.99, nil), DefaultSwitchThreshold)

	assert.Equal(t, flow.Collected{"phone": "05321234567"}, prior)
	assert.Equal(t, flow.Markers{flow.CustomerChecked: true}, markers)
}

// Re-merging an extraction whose slots are already present never changes
// them, and nothing invalid ever lands in Collected.
func TestMerge_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	candidates := map[string][]string{
		"phone":   {"05321234567", "0532 999 88 77", "12", "abc", "+905551112233"},
		"date":    {"2025-12-01", "2025-13-01", "yarın", "2026-02-28"},
		"time":    {"14:00", "9:15", "25:00", "öğlen"},
		"service": {"Saç Kesimi", "Manikür", "x", ""},
	}

	for i := 0; i < 500; i++ {
		entities := map[string]string{}
		for k, vals := range candidates {
			if rng.Intn(2) == 0 {
				entities[k] = vals[rng.Intn(len(vals))]
			}
		}
		res := result(flow.Booking, rng.Float64(), entities)

		first := Merge(flow.Booking, flow.Collected{}, flow.Markers{}, res, DefaultSwitchThreshold)
		for name, value := range first.Collected {
			canonical, err := slot.Validate(name, value)
			require.NoError(t, err)
			require.Equal(t, canonical, value)
		}

		other := map[string]string{}
		for k, vals := range candidates {
			other[k] = vals[rng.Intn(len(vals))]
		}
		second := Merge(flow.Booking, first.Collected, first.Markers, result(flow.Booking, rng.Float64(), other), DefaultSwitchThreshold)
		for name, value := range first.Collected {
			assert.Equal(t, value, second.Collected[name])
		}
	}
}

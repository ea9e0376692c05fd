package merge

import (
	"sort"

	"SalonAssistant/internal/dialogue/extract"
	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/slot"
)

// DefaultSwitchThreshold is the confidence a different transactional intent
// needs to abandon the running flow.
const DefaultSwitchThreshold = 0.85

type Decision int

const (
	// Tangent keeps the current flow (or none) and treats the turn as chat.
	Tangent Decision = iota
	Start
	Keep
	Switch
)

func (d Decision) String() string {
	switch d {
	case Start:
		return "start"
	case Keep:
		return "keep"
	case Switch:
		return "switch"
	default:
		return "tangent"
	}
}

type Outcome struct {
	Flow      flow.Type
	Decision  Decision
	Collected flow.Collected
	Markers   flow.Markers
	// Rejected lists entities dropped by their validator.
	Rejected map[string]error
	// Ignored lists slots whose new value lost to an existing one.
	Ignored []string
}

// Merge reconciles the prior flow state with one extraction. Existing slot
// values always win; an invalid value never enters Collected. The inputs
// are not modified.
func Merge(prior flow.Type, collected flow.Collected, markers flow.Markers, res extract.Result, threshold float64) Outcome {
	out := Outcome{
		Flow:      prior,
		Decision:  Keep,
		Collected: collected.Clone(),
		Markers:   markers.Clone(),
		Rejected:  map[string]error{},
	}

	switch {
	case prior == flow.None && res.Intent.Transactional():
		out.Flow = res.Intent
		out.Decision = Start
		out.Collected = flow.Collected{}
		out.Markers = flow.Markers{}
	case prior == flow.None:
		out.Decision = Tangent
		out.Collected = flow.Collected{}
		out.Markers = flow.Markers{}
		return out
	case res.Intent.Transactional() && res.Intent != prior && res.Confidence > threshold:
		out.Flow = res.Intent
		out.Decision = Switch
		out.Collected = flow.Collected{}
		out.Markers = flow.Markers{}
	case !res.Intent.Transactional():
		out.Decision = Tangent
	}

	keys := make([]string, 0, len(res.Entities))
	for k := range res.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		value, err := slot.Validate(name, res.Entities[name])
		if err != nil {
			out.Rejected[name] = err
			continue
		}
		if existing, ok := out.Collected[name]; ok && existing != "" {
			if existing != value {
				out.Ignored = append(out.Ignored, name)
			}
			continue
		}
		out.Collected[name] = value
	}

	return out
}

package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/slot"
	"SalonAssistant/pkg/nlp"
)

const fuzzyThreshold = 0.75

// EntityKeys are the entities the extractor may return.
var EntityKeys = []string{
	slot.Phone, slot.Service, slot.ExpertName, slot.Date, slot.Time, slot.AppointmentCode, slot.Name,
}

var (
	emptyValues = map[string]bool{"": true, "null": true, "none": true, "nil": true, "yok": true, "unknown": true, "-": true}
	honorifics  = map[string]bool{"hanim": true, "bey": true, "usta": true, "hoca": true}
)

// Normalize turns raw model arguments into a Result: closed intent set,
// clamped confidence, resolved dates and times, canonical names.
func Normalize(args map[string]any, req Request) Result {
	res := Result{
		Intent:     flow.ParseIntent(stringOf(args["intent"])),
		Entities:   map[string]string{},
		Confidence: confidenceOf(args["confidence"]),
		Source:     SourceLLM,
	}

	values := map[string]any{}
	if nested, ok := args["entities"].(map[string]any); ok {
		for k, v := range nested {
			values[k] = v
		}
	}
	for _, k := range EntityKeys {
		if v, ok := args[k]; ok {
			values[k] = v
		}
	}

	for _, key := range EntityKeys {
		raw := strings.TrimSpace(stringOf(values[key]))
		if emptyValues[strings.ToLower(raw)] {
			continue
		}
		if v, ok := normalizeEntity(key, raw, req); ok {
			res.Entities[key] = v
		}
	}

	switch strings.ToLower(stringOf(args["confirmation"])) {
	case "yes", "evet", "true":
		yes := true
		res.Confirmed = &yes
	case "no", "hayir", "hayır", "false":
		no := false
		res.Confirmed = &no
	}

	return res
}

func normalizeEntity(key, raw string, req Request) (string, bool) {
	switch key {
	case slot.Date:
		if d, ok := nlp.ResolveDate(raw, req.CurrentDate); ok {
			return d, true
		}
		return raw, true
	case slot.Time:
		if t, ok := nlp.NormalizeTime(raw); ok {
			return t, true
		}
		return raw, true
	case slot.Service:
		return canonicalName(raw, req.KnownServices)
	case slot.ExpertName:
		return canonicalName(stripHonorifics(raw), req.KnownExperts)
	}
	return raw, true
}

// canonicalName maps raw onto the closest reference entry. With an empty
// reference list the value passes through untouched.
func canonicalName(raw string, known []string) (string, bool) {
	if len(known) == 0 {
		return raw, true
	}
	m, ok := nlp.BestMatch(raw, known, fuzzyThreshold)
	if !ok {
		return "", false
	}
	return m.Value, true
}

func stripHonorifics(raw string) string {
	words := strings.Fields(raw)
	kept := words[:0]
	for _, w := range words {
		if !honorifics[nlp.Fold(w)] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return raw
	}
	return strings.Join(kept, " ")
}

func confidenceOf(v any) float64 {
	var c float64
	switch n := v.(type) {
	case float64:
		c = n
	case float32:
		c = float64(n)
	case int:
		c = float64(n)
	case int64:
		c = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return DefaultConfidence
		}
		c = parsed
	default:
		return DefaultConfidence
	}

	switch {
	case math.IsNaN(c) || math.IsInf(c, 0):
		return DefaultConfidence
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

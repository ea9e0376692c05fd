package quickpattern

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"SalonAssistant/pkg/nlp"
)

// Pattern names with special handling in the orchestrator.
const (
	Abort        = "abort"
	Greeting     = "greeting"
	WorkingHours = "working_hours"
	Location     = "location"
	Goodbye      = "goodbye"
	ThankYou     = "thank_you"
)

type Pattern struct {
	Name     string
	Priority int
	Keywords []string
	Reply    string
	// AlwaysAllowed patterns fire even while a flow is collecting slots.
	AlwaysAllowed bool
	// ActiveOnly patterns fire only while a flow is active.
	ActiveOnly bool
	// MaxWords skips the pattern for longer utterances, which usually carry
	// a request after the pleasantry. Zero means no limit.
	MaxWords int

	folded []string
}

type Reply struct {
	Pattern string
	Text    string
}

type Info struct {
	OpeningHours string
	Address      string
}

// Matcher answers a small set of utterances without the extractor. Match is
// pure and safe for concurrent use.
type Matcher struct {
	mu       sync.RWMutex
	patterns []Pattern
}

func New(info Info) *Matcher {
	m := &Matcher{}
	for _, p := range DefaultPatterns(info) {
		m.Add(p)
	}
	return m
}

func DefaultPatterns(info Info) []Pattern {
	if info.OpeningHours == "" {
		info.OpeningHours = "09:00 - 19:00"
	}
	if info.Address == "" {
		info.Address = "İstanbul, Şişli"
	}

	return []Pattern{
		{
			Name:          Abort,
			Priority:      0,
			Keywords:      []string{"vazgeçtim", "boşver", "boş ver", "işlemi iptal et", "işlemi durdur"},
			Reply:         "Tamam, işlemi iptal ettim. Başka bir konuda yardımcı olabilir miyim?",
			AlwaysAllowed: true,
			ActiveOnly:    true,
		},
		{
			Name:     Greeting,
			Priority: 1,
			Keywords: []string{"merhaba", "selam", "selamun aleyküm", "aleykum selam", "iyi günler",
				"günaydın", "iyi akşamlar", "iyi sabahlar", "hey", "hi", "hello"},
			Reply:    "İyi günler! Size nasıl yardımcı olabilirim?",
			MaxWords: 5,
		},
		{
			Name:     WorkingHours,
			Priority: 2,
			Keywords: []string{"saat kaç", "kaça kadar", "ne zaman açık", "çalışma saati", "açılış",
				"kapanış", "kaçta açılıyor", "kaçta kapanıyor", "mesai saati", "açık mı"},
			Reply: fmt.Sprintf("%s arası hizmetinizdeyiz.", info.OpeningHours),
		},
		{
			Name:     Location,
			Priority: 2,
			Keywords: []string{"nerede", "adres", "konum", "nasıl gidilir", "nasıl gelirim", "harita",
				"yol tarifi", "neredesiniz"},
			Reply: fmt.Sprintf("Adresimiz: %s. Size yol tarifi gönderebilirim.", info.Address),
		},
		{
			Name:     Goodbye,
			Priority: 3,
			Keywords: []string{"hoşça kal", "görüşürüz", "güle güle", "bay bay",
				"teşekkürler görüşürüz", "sağ ol görüşürüz"},
			Reply:         "İyi günler! Sizi bekleriz.",
			AlwaysAllowed: true,
		},
		{
			Name:     ThankYou,
			Priority: 3,
			Keywords: []string{"teşekkür", "sağ ol", "çok teşekkür", "teşekkürler", "ellerine sağlık",
				"allah razı olsun"},
			Reply:    "Rica ederim! Başka bir konuda yardımcı olabilir miyim?",
			MaxWords: 5,
		},
	}
}

// Add inserts p, replacing a pattern with the same name. Table order is
// insertion order.
func (m *Matcher) Add(p Pattern) {
	p.folded = make([]string, 0, len(p.Keywords))
	for _, k := range p.Keywords {
		if f := nlp.Fold(k); f != "" {
			p.folded = append(p.folded, f)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.patterns {
		if m.patterns[i].Name == p.Name {
			m.patterns[i] = p
			return
		}
	}
	m.patterns = append(m.patterns, p)
}

func (m *Matcher) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.patterns {
		if m.patterns[i].Name == name {
			m.patterns = append(m.patterns[:i], m.patterns[i+1:]...)
			return
		}
	}
}

// Match returns the reply of the highest priority pattern found in text.
// While a flow is active only AlwaysAllowed patterns are considered.
func (m *Matcher) Match(text string, flowActive bool) (Reply, bool) {
	cleaned := nlp.Clean(text)
	if utf8.RuneCountInString(cleaned) < 2 {
		return Reply{}, false
	}
	folded := nlp.Fold(cleaned)
	words := len(strings.Fields(folded))

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []*Pattern
	for i := range m.patterns {
		p := &m.patterns[i]
		if flowActive && !p.AlwaysAllowed {
			continue
		}
		if !flowActive && p.ActiveOnly {
			continue
		}
		if p.MaxWords > 0 && words > p.MaxWords {
			continue
		}
		for _, k := range p.folded {
			if nlp.ContainsWord(folded, k) {
				hits = append(hits, p)
				break
			}
		}
	}
	if len(hits) == 0 {
		return Reply{}, false
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Priority < hits[j].Priority
	})
	return Reply{Pattern: hits[0].Name, Text: hits[0].Reply}, true
}

package extract

import (
	"strings"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/pkg/nlp"
)

const maxRoutedWords = 5

// ConfirmationRouter answers short yes/no replies to a pending question
// without calling the model.
type ConfirmationRouter struct {
	affirmative []string
	negative    []string
}

func NewConfirmationRouter() *ConfirmationRouter {
	return &ConfirmationRouter{
		affirmative: foldAll("evet", "onaylıyorum", "eminim", "doğru", "onayla", "tamam", "olur"),
		negative:    foldAll("hayır", "hayir", "iptal", "vazgeçtim", "istemiyorum", "kalsın"),
	}
}

// Route returns a Result with Confirmed set when utterance is a plain yes or
// no. Inside a cancel flow "iptal" agrees with the question being asked.
// Mixed or long answers are left to the model.
func (r *ConfirmationRouter) Route(utterance string, active flow.Type) (Result, bool) {
	folded := nlp.Fold(utterance)
	words := strings.Fields(folded)
	if len(words) == 0 || len(words) > maxRoutedWords {
		return Result{}, false
	}

	yes := containsAny(words, r.affirmative)
	no := containsAny(words, r.negative)
	if active == flow.Cancel && containsAny(words, []string{"iptal"}) {
		yes = true
		no = containsAny(words, without(r.negative, "iptal"))
	}
	if yes == no {
		return Result{}, false
	}

	confirmed := yes
	return Result{
		Intent:     active,
		Entities:   map[string]string{},
		Confidence: 1.0,
		Confirmed:  &confirmed,
		Source:     SourceRouter,
	}, true
}

func containsAny(words, keywords []string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}

func without(list []string, drop string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}

func foldAll(words ...string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = nlp.Fold(w)
	}
	return out
}

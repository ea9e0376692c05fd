package compose

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/tool"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// MaxReplyRunes bounds every phrased reply.
const MaxReplyRunes = 300

// Kind tells the composer what ended the turn.
type Kind int

const (
	// KindAction renders the final flow action.
	KindAction Kind = iota
	// KindResult renders the terminal tool result.
	KindResult
	KindChat
	// KindClarify is used after a failed extraction.
	KindClarify
	KindCancelled
	KindError
	// KindUnavailable is a gating lookup that could not be completed.
	KindUnavailable
)

// View is the read-only part of the session the composer may use.
type View struct {
	Flow      flow.Type
	Collected flow.Collected
	Facts     flow.Facts
}

type Input struct {
	Kind   Kind
	Action flow.Action
	// Steps are the tool results applied during the turn, in order. For
	// KindResult the last one is the terminal result.
	Steps []tool.Result
	View  View
}

// Phraser rewrites a deterministic summary into a friendlier sentence.
type Phraser interface {
	Phrase(ctx context.Context, toolName, summary string) (string, error)
}

type Composer struct {
	log     *logrus.Logger
	phraser Phraser
	timeout time.Duration
}

// New returns a composer. phraser may be nil, in which case every reply is
// the deterministic text.
func New(log *logrus.Logger, phraser Phraser, timeout time.Duration) *Composer {
	if log == nil {
		log = logrus.New()
	}
	return &Composer{log: log, phraser: phraser, timeout: timeout}
}

// Compose builds the reply for one turn. It never modifies the session.
func (c *Composer) Compose(ctx context.Context, in Input) string {
	var notes []string
	steps := in.Steps
	if in.Kind == KindResult && len(steps) > 0 {
		steps = steps[:len(steps)-1]
	}
	for _, s := range steps {
		if n := note(s, in.View); n != "" {
			notes = append(notes, n)
		}
	}

	var main string
	switch in.Kind {
	case KindAction:
		main = c.actionText(in.Action)
	case KindResult:
		main = c.resultText(ctx, in.Steps)
	case KindChat:
		main = ChatReply
	case KindClarify:
		switch {
		case in.View.Flow == flow.None, !asksUser(in.Action):
			main = ClarifyReply
		default:
			main = ClarifyPrefix + " " + c.actionText(in.Action)
		}
	case KindCancelled:
		main = CancelledReply
	case KindUnavailable:
		main = TemporaryErrReply
	default:
		main = ErrorReply
	}

	return strings.TrimSpace(strings.Join(append(notes, main), " "))
}

// asksUser reports whether act is a question the customer can answer.
func asksUser(act flow.Action) bool {
	switch act.Kind {
	case flow.AskSlot, flow.RequestConfirmation, flow.OfferAlternatives:
		return true
	}
	return false
}

func (c *Composer) actionText(act flow.Action) string {
	switch act.Kind {
	case flow.AskSlot:
		return flow.SlotQuestion(act.Slot)
	case flow.RequestConfirmation, flow.OfferAlternatives:
		return act.Message
	case flow.Finalize:
		if act.Reason == flow.ReasonNoAppointment {
			return NoAppointmentReply
		}
		return ChatReply
	}
	return ChatReply
}

func (c *Composer) resultText(ctx context.Context, steps []tool.Result) string {
	if len(steps) == 0 {
		return ErrorReply
	}
	res := steps[len(steps)-1]
	if !res.Success {
		if res.Reason == tool.ReasonRejected {
			return rejection(res)
		}
		return RetryReply
	}

	text := summary(res)
	if c.phraser == nil {
		return text
	}

	phrased, ok := c.phrase(ctx, res, text)
	if !ok {
		return text
	}
	return phrased
}

func (c *Composer) phrase(ctx context.Context, res tool.Result, text string) (string, bool) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.phraser.Phrase(ctx, res.Tool, text)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"tool":  res.Tool,
			"error": err.Error(),
		}).Warn("phraser failed, using deterministic reply")
		return "", false
	}

	out = Clean(out)
	if out == "" {
		return "", false
	}
	if res.Tool == tool.CreateAppointment {
		code := res.String("appointment_code")
		if code != "" && !strings.Contains(out, code) {
			c.log.WithField("tool", res.Tool).Warn("phrased reply dropped the appointment code")
			return "", false
		}
	}
	return out, true
}

var replyKeys = []string{"message", "reply", "response", "text"}

// Clean unwraps JSON-looking model output, strips code fences and quotes and
// truncates to MaxReplyRunes.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{") {
		var obj map[string]any
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(s, &obj); err == nil {
			s = ""
			for _, k := range replyKeys {
				if v, ok := obj[k].(string); ok && v != "" {
					s = strings.TrimSpace(v)
					break
				}
			}
		}
	}

	s = strings.Trim(s, "\"")
	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, MaxReplyRunes)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit-3])
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;") + "..."
}

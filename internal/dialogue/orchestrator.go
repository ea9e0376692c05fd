package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SalonAssistant/internal/dialogue/compose"
	"SalonAssistant/internal/dialogue/extract"
	"SalonAssistant/internal/dialogue/flow"
	"SalonAssistant/internal/dialogue/merge"
	"SalonAssistant/internal/dialogue/quickpattern"
	"SalonAssistant/internal/dialogue/session"
	"SalonAssistant/internal/dialogue/tool"
	contextPkg "SalonAssistant/pkg/context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Reply sources.
const (
	SourceQuickPattern = "quick_pattern"
	SourceRouter       = extract.SourceRouter
	SourceLLM          = extract.SourceLLM
	SourceFallback     = extract.SourceFallback
)

type IOrchestrator interface {
	// HandleTurn runs one utterance through the dialogue pipeline. The
	// returned error is reserved for session store failures and for a ctx
	// that ends before the turn could start; everything else is answered
	// with a reply.
	HandleTurn(ctx context.Context, sessionID, utterance string) (Reply, error)
	EndSession(ctx context.Context, sessionID string) (*session.State, error)
	Session(ctx context.Context, sessionID string) (*session.State, error)
}

type Reply struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"reply"`
	Flow      flow.Type `json:"flow"`
	Intent    flow.Type `json:"intent"`
	Action    string    `json:"action"`
	Source    string    `json:"source"`
	Pattern   string    `json:"pattern,omitempty"`
}

type Config struct {
	HistoryLimit     int
	SwitchThreshold  float64
	ExtractorTimeout time.Duration
	MaxConcurrent    int64
	MaxSteps         int
	Location         *time.Location
}

func DefaultConfig() *Config {
	return &Config{
		HistoryLimit:     session.DefaultHistoryLimit,
		SwitchThreshold:  merge.DefaultSwitchThreshold,
		ExtractorTimeout: 8 * time.Second,
		MaxConcurrent:    64,
		MaxSteps:         5,
		Location:         time.Local,
	}
}

// Knowledge supplies the reference lists and salon summary handed to the
// extractor.
type Knowledge interface {
	Services(ctx context.Context) []string
	Experts(ctx context.Context) []string
	Summary(ctx context.Context) string
}

// TurnRecord is what a TurnLogger receives after each committed turn.
type TurnRecord struct {
	SessionID string
	RequestID string
	Utterance string
	Reply     string
	Intent    string
	Flow      string
	Action    string
	Source    string
	Latency   time.Duration
	At        time.Time
}

type TurnLogger interface {
	LogTurn(ctx context.Context, rec TurnRecord)
}

// Deps are the collaborators of the orchestrator. Knowledge and TurnLogger
// may be nil.
type Deps struct {
	Store      session.Store
	Matcher    *quickpattern.Matcher
	Extractor  extract.Extractor
	Router     *extract.ConfirmationRouter
	Manager    *flow.Manager
	Executor   *tool.Executor
	Composer   *compose.Composer
	Knowledge  Knowledge
	TurnLogger TurnLogger
}

type orchestrator struct {
	log    *logrus.Logger
	deps   Deps
	config *Config
	locker *session.Locker
	sem    *semaphore.Weighted
	now    func() time.Time
}

func NewOrchestrator(log *logrus.Logger, deps Deps, config *Config) IOrchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultConfig().MaxSteps
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if deps.Store == nil {
		deps.Store = session.NewMemoryStore(0)
	}
	if deps.Matcher == nil {
		deps.Matcher = quickpattern.New(quickpattern.Info{})
	}
	if deps.Executor == nil {
		deps.Executor = tool.NewExecutor(log, 0)
	}
	if deps.Router == nil {
		deps.Router = extract.NewConfirmationRouter()
	}
	if deps.Manager == nil {
		deps.Manager = flow.NewManager(flow.NewCatalog())
	}
	if deps.Composer == nil {
		deps.Composer = compose.New(log, nil, 0)
	}

	return &orchestrator{
		log:    log,
		deps:   deps,
		config: config,
		locker: session.NewLocker(),
		sem:    semaphore.NewWeighted(config.MaxConcurrent),
		now:    time.Now,
	}
}

// turn carries the working state of one HandleTurn call.
type turn struct {
	st        *session.State
	utterance string
	reply     Reply
	steps     []tool.Result
	action    flow.Action
	kind      compose.Kind
	// reset drops the flow after the reply has been composed.
	reset bool
}

func (o *orchestrator) HandleTurn(ctx context.Context, sessionID, utterance string) (Reply, error) {
	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	defer unlock()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return Reply{}, err
	}
	defer o.sem.Release(1)

	// A disconnect must not abort a turn halfway through its tool calls.
	ctx = contextPkg.WithSessionID(context.WithoutCancel(ctx), sessionID)
	start := o.now()

	st, err := o.load(ctx, sessionID, start)
	if err != nil {
		return Reply{}, err
	}

	t := &turn{
		st:        st,
		utterance: strings.TrimSpace(utterance),
		reply:     Reply{SessionID: sessionID},
	}
	o.run(ctx, t)

	if t.reply.Text == "" {
		t.reply.Text = o.deps.Composer.Compose(ctx, compose.Input{
			Kind:   t.kind,
			Action: t.action,
			Steps:  t.steps,
			View:   compose.View{Flow: st.FlowType, Collected: st.Collected, Facts: st.Facts},
		})
	}
	if t.reset {
		st.ResetFlow()
	}
	t.reply.Flow = st.FlowType

	now := o.now()
	st.AppendHistory(session.SpeakerUser, t.utterance, start, o.config.HistoryLimit)
	st.AppendHistory(session.SpeakerAssistant, t.reply.Text, now, o.config.HistoryLimit)
	st.UpdatedAt = now

	if err := o.deps.Store.Save(ctx, st); err != nil {
		return Reply{}, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	o.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": sessionID,
		"intent":     t.reply.Intent.String(),
		"flow":       t.reply.Flow.String(),
		"action":     t.reply.Action,
		"source":     t.reply.Source,
		"steps":      len(t.steps),
		"latency":    now.Sub(start).String(),
	}).Info("[dialogue.HandleTurn] turn completed")

	if o.deps.TurnLogger != nil {
		o.deps.TurnLogger.LogTurn(ctx, TurnRecord{
			SessionID: sessionID,
			RequestID: contextPkg.GetRequestID(ctx),
			Utterance: t.utterance,
			Reply:     t.reply.Text,
			Intent:    t.reply.Intent.String(),
			Flow:      t.reply.Flow.String(),
			Action:    t.reply.Action,
			Source:    t.reply.Source,
			Latency:   now.Sub(start),
			At:        now,
		})
	}

	return t.reply, nil
}

func (o *orchestrator) load(ctx context.Context, id string, now time.Time) (*session.State, error) {
	st, err := o.deps.Store.Load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return session.New(id, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	if err := o.checkInvariants(st); err != nil {
		o.log.WithFields(logrus.Fields{
			"session_id": id,
			"error":      err.Error(),
		}).Error("[dialogue.load] session state corrupted, resetting flow")
		st.ResetFlow()
	}
	return st, nil
}

// checkInvariants validates a loaded state. A stored confirmation is always
// corrupt because confirmations are consumed within the turn that sets them.
func (o *orchestrator) checkInvariants(st *session.State) error {
	if st.Markers.Has(flow.Confirmed) {
		return &flow.StateCorruptionError{Flow: st.FlowType, Detail: "confirmation persisted across turns"}
	}
	if st.FlowType == flow.None && !st.Facts.IsZero() {
		st.Facts = flow.Facts{CustomerID: st.Facts.CustomerID, CustomerName: st.Facts.CustomerName}
	}
	return o.deps.Manager.CheckInvariants(st.FlowType, st.Collected, st.Markers, st.Facts)
}

func (o *orchestrator) run(ctx context.Context, t *turn) {
	st := t.st
	flowActive := st.FlowType != flow.None

	if t.utterance == "" {
		t.kind = compose.KindClarify
		t.action = o.currentAction(st)
		t.reply.Source = SourceFallback
		return
	}

	if hit, ok := o.deps.Matcher.Match(t.utterance, flowActive); ok {
		t.reply.Source = SourceQuickPattern
		t.reply.Pattern = hit.Pattern
		t.reply.Action = "quick_reply"
		t.reply.Text = hit.Text
		if hit.Pattern == quickpattern.Abort || hit.Pattern == quickpattern.Goodbye {
			t.reset = true
		}
		return
	}

	res, extractFailed := o.extract(ctx, st, t.utterance)
	t.reply.Intent = res.Intent
	t.reply.Source = res.Source

	if cancelled := o.resolvePending(st, res); cancelled {
		t.kind = compose.KindCancelled
		t.reply.Action = "cancelled"
		t.reset = true
		return
	}

	if extractFailed {
		t.kind = compose.KindClarify
		t.action = o.currentAction(st)
		t.reply.Action = t.action.Kind.String()
		return
	}

	out := merge.Merge(st.FlowType, st.Collected, st.Markers, res, o.config.SwitchThreshold)
	o.logMerge(ctx, st, out)

	switch out.Decision {
	case merge.Switch:
		st.ResetFlow()
		fallthrough
	case merge.Start:
		st.FlowType = out.Flow
	}
	st.Collected = out.Collected
	st.Markers = out.Markers

	if st.FlowType == flow.None {
		t.kind = compose.KindChat
		t.reply.Action = flow.Respond.String()
		return
	}

	o.step(ctx, t)
}

// extract classifies the utterance. Short yes/no answers to a pending
// question are routed without the model.
func (o *orchestrator) extract(ctx context.Context, st *session.State, utterance string) (extract.Result, bool) {
	if st.Markers.Has(flow.ConfirmationPending) || st.Markers.AlternativesPending() {
		if res, ok := o.deps.Router.Route(utterance, st.FlowType); ok {
			return res, false
		}
	}

	if o.deps.Extractor == nil {
		return extract.Fallback(), true
	}

	req := extract.Request{
		Utterance:   utterance,
		Flow:        st.FlowType,
		Collected:   st.Collected.Clone(),
		CurrentDate: o.now().In(o.config.Location),
	}
	for _, h := range st.History {
		req.History = append(req.History, extract.Message{Role: h.Speaker, Text: h.Text})
	}
	if k := o.deps.Knowledge; k != nil {
		req.KnownServices = k.Services(ctx)
		req.KnownExperts = k.Experts(ctx)
		req.Knowledge = k.Summary(ctx)
	}

	callCtx := ctx
	if o.config.ExtractorTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.config.ExtractorTimeout)
		defer cancel()
	}

	res, err := o.deps.Extractor.Extract(callCtx, req)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": st.SessionID,
			"error":      err.Error(),
		}).Warn("[dialogue.extract] extraction failed, falling back to chat")
		return extract.Fallback(), true
	}
	return res, false
}

// resolvePending applies a yes/no answer to the question asked on the
// previous turn. It reports true when the user declined a confirmation.
func (o *orchestrator) resolvePending(st *session.State, res extract.Result) bool {
	switch {
	case st.Markers.Has(flow.ConfirmationPending):
		if res.Confirmed == nil {
			return false
		}
		delete(st.Markers, flow.ConfirmationPending)
		if !*res.Confirmed {
			return true
		}
		st.Markers[flow.Confirmed] = true

	case st.Markers.AlternativesPending():
		if res.Confirmed != nil && *res.Confirmed {
			st.Markers[flow.AlternativesAccepted] = true
		} else {
			st.Markers[flow.AlternativesShown] = true
		}
	}
	return false
}

// step runs the decide/execute loop until the flow needs the user again.
func (o *orchestrator) step(ctx context.Context, t *turn) {
	st := t.st
	def, ok := o.deps.Manager.Catalog().Get(st.FlowType)
	if !ok {
		o.corrupt(ctx, t, &flow.StateCorruptionError{Flow: st.FlowType, Detail: "flow is not in the catalog"})
		return
	}

	for i := 0; ; i++ {
		if i == o.config.MaxSteps {
			o.log.WithFields(logrus.Fields{
				"session_id": st.SessionID,
				"flow":       st.FlowType.String(),
			}).Warn("[dialogue.step] step limit reached")
			t.kind = compose.KindError
			t.reset = true
			return
		}

		act := o.deps.Manager.Decide(def, st.Collected, st.Markers, st.Facts)
		t.action = act
		t.reply.Action = act.Kind.String()

		if act.Kind != flow.InvokeTool {
			o.settle(t, act)
			return
		}

		if tl, ok := o.deps.Executor.Lookup(act.Tool); ok && tl.SideEffect() && !st.Markers.Has(flow.Confirmed) {
			o.corrupt(ctx, t, &flow.StateCorruptionError{
				Flow:   st.FlowType,
				Detail: fmt.Sprintf("%s requested without confirmation", act.Tool),
			})
			return
		}
		if act.Terminal {
			// The confirmation is spent by this dispatch.
			delete(st.Markers, flow.Confirmed)
		}

		res := o.deps.Executor.Execute(ctx, act.Tool, act.Params)
		t.steps = append(t.steps, res)
		st.LastToolResult = &res

		if done := o.apply(t, def, act, res); done {
			return
		}
	}
}

// settle records what the question asked this turn is waiting for.
func (o *orchestrator) settle(t *turn, act flow.Action) {
	t.kind = compose.KindAction
	switch act.Kind {
	case flow.RequestConfirmation:
		t.st.Markers[flow.ConfirmationPending] = true
	case flow.OfferAlternatives:
		t.st.Markers[flow.AlternativesOffered] = true
	case flow.Finalize:
		t.reset = true
	}
}

func (o *orchestrator) corrupt(ctx context.Context, t *turn, err error) {
	o.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": t.st.SessionID,
		"error":      err.Error(),
	}).Error("[dialogue.step] state corruption, resetting flow")
	t.kind = compose.KindError
	t.reply.Action = "reset"
	t.reset = true
}

// currentAction is the question the flow is waiting on, used to re-ask
// after an utterance that could not be understood.
func (o *orchestrator) currentAction(st *session.State) flow.Action {
	def, ok := o.deps.Manager.Catalog().Get(st.FlowType)
	if !ok {
		return flow.Action{Kind: flow.Respond}
	}
	act := o.deps.Manager.Decide(def, st.Collected, st.Markers, st.Facts)
	if act.Kind != flow.InvokeTool {
		return act
	}
	for _, s := range def.RequiredSlots(st.Collected, st.Facts) {
		if !st.Collected.Has(s) {
			return flow.Action{Kind: flow.AskSlot, Slot: s}
		}
	}
	return act
}

func (o *orchestrator) logMerge(ctx context.Context, st *session.State, out merge.Outcome) {
	if len(out.Rejected) == 0 && len(out.Ignored) == 0 && out.Decision != merge.Switch {
		return
	}
	fields := logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": st.SessionID,
		"decision":   out.Decision.String(),
		"flow":       out.Flow.String(),
	}
	if len(out.Rejected) > 0 {
		rejected := make([]string, 0, len(out.Rejected))
		for name := range out.Rejected {
			rejected = append(rejected, name)
		}
		fields["rejected"] = rejected
	}
	if len(out.Ignored) > 0 {
		fields["ignored"] = out.Ignored
	}
	o.log.WithFields(fields).Debug("[dialogue.merge] merge outcome")
}

func (o *orchestrator) Session(ctx context.Context, sessionID string) (*session.State, error) {
	return o.deps.Store.Load(ctx, sessionID)
}

// EndSession removes the session and returns its last state.
func (o *orchestrator) EndSession(ctx context.Context, sessionID string) (*session.State, error) {
	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st, err := o.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := o.deps.Store.Delete(ctx, sessionID); err != nil {
		return nil, err
	}
	return st, nil
}

package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	contextPkg "SalonAssistant/pkg/context"

	"github.com/sirupsen/logrus"
)

// Executor dispatches tool calls by name. It validates required parameters
// before dispatch, bounds every call with a timeout and never retries.
type Executor struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	timeout time.Duration
	log     *logrus.Logger
}

func NewExecutor(log *logrus.Logger, timeout time.Duration, tools ...Tool) *Executor {
	e := &Executor{
		tools:   make(map[string]Tool),
		timeout: timeout,
		log:     log,
	}
	for _, t := range tools {
		_ = e.Register(t)
	}
	return e
}

func (e *Executor) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	e.tools[name] = t
	return nil
}

func (e *Executor) Lookup(name string) (Tool, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tools[name]
	return t, ok
}

func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.tools))
	for name := range e.tools {
		names = append(names, name)
	}
	return names
}

func (e *Executor) Execute(ctx context.Context, name string, params Params) Result {
	start := time.Now()
	res := e.execute(ctx, name, params)

	fields := logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"tool":       name,
		"duration":   time.Since(start).String(),
		"success":    res.Success,
	}
	if !res.Success {
		fields["reason"] = res.Reason
		fields["error"] = res.Message
		e.log.WithFields(fields).Warn("[tool.Execute] tool call failed")
	} else {
		e.log.WithFields(fields).Debug("[tool.Execute] tool call completed")
	}

	return res
}

func (e *Executor) execute(ctx context.Context, name string, params Params) Result {
	t, ok := e.Lookup(name)
	if !ok {
		return Failure(name, ReasonUnknownTool, "tool is not registered")
	}

	var missing []string
	for _, key := range t.RequiredParams() {
		if !params.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Failure(name, ReasonInvalidParams, fmt.Sprintf("missing required params: %v", missing))
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type outcome struct {
		payload map[string]any
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		payload, err := t.Invoke(callCtx, params)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Failure(name, ReasonExecutionError, "tool call timed out")
		}
		return Failure(name, ReasonExecutionError, callCtx.Err().Error())
	case out := <-done:
		if out.err != nil {
			return Failure(name, ReasonExecutionError, out.err.Error())
		}
		if ok, present := out.payload["success"].(bool); present && !ok {
			msg, _ := out.payload["error"].(string)
			if msg == "" {
				msg = "operation rejected"
			}
			return Result{Tool: name, Reason: ReasonRejected, Message: msg, Payload: out.payload}
		}
		return Success(name, out.payload)
	}
}

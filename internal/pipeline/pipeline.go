// Package pipeline implements the interceptor contract and the ordered
// composition that evaluates it, per spec.md §4.D and §4.E.
package pipeline

import (
	"log/slog"

	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// ActionKind identifies which of the five rewrite actions an interceptor
// hook produced.
type ActionKind int

const (
	// Continue leaves the message as-is and proceeds to the next
	// interceptor.
	Continue ActionKind = iota
	// Block drops the message; remaining interceptors do not run, but any
	// injections already accumulated are still emitted.
	Block
	// Replace substitutes the in-flight message; subsequent interceptors
	// see the replacement.
	Replace
	// Inject emits additional messages alongside the current one, queued
	// for delivery in the current direction.
	Inject
	// RespondAndContinue emits a side response in the current direction
	// while the current message continues down the chain.
	RespondAndContinue
)

// Action is an interceptor hook's verdict on one in-flight message.
type Action struct {
	Kind     ActionKind
	Replace  protocol.Message   // set when Kind == Replace
	Injected []protocol.Message // set when Kind == Inject or RespondAndContinue
}

// ActionContinue is the default, no-op action.
var ActionContinue = Action{Kind: Continue}

// ActionBlock drops the current message.
var ActionBlock = Action{Kind: Block}

// ActionReplace substitutes the current message with m.
func ActionReplace(m protocol.Message) Action {
	return Action{Kind: Replace, Replace: m}
}

// ActionInject queues ms for delivery alongside the current message.
func ActionInject(ms ...protocol.Message) Action {
	return Action{Kind: Inject, Injected: ms}
}

// ActionRespondAndContinue emits m as a side response while letting the
// current message continue down the chain.
func ActionRespondAndContinue(m protocol.Message) Action {
	return Action{Kind: RespondAndContinue, Injected: []protocol.Message{m}}
}

// Interceptor is a named, stateful stage in the pipeline. Implementations
// must be side-effect-free on the message itself; transformations go
// through Replace/Inject (spec.md §4.D). A hook must not suspend — no
// blocking I/O or channel receive — per spec.md §5; interceptor-owned state
// must use non-suspending synchronization.
type Interceptor interface {
	Name() string
	// ClientHook processes a message flowing client -> server. The default
	// behavior (when an interceptor doesn't care about this direction) is
	// to return ActionContinue.
	ClientHook(msg protocol.Message) (Action, error)
	// ServerHook processes a message flowing server -> client.
	ServerHook(msg protocol.Message) (Action, error)
}

// BaseInterceptor implements both hooks as ActionContinue so concrete
// interceptors can embed it and only override the direction they care
// about — mirroring the Rust original's default trait methods without
// needing inheritance.
type BaseInterceptor struct{}

func (BaseInterceptor) ClientHook(protocol.Message) (Action, error) { return ActionContinue, nil }
func (BaseInterceptor) ServerHook(protocol.Message) (Action, error) { return ActionContinue, nil }

// Pipeline is the ordered sequence of interceptors evaluated per message
// per direction (spec.md §4.E).
type Pipeline struct {
	interceptors []Interceptor
	log          *slog.Logger
}

// New builds a Pipeline over interceptors, evaluated in the given order.
func New(log *slog.Logger, interceptors ...Interceptor) *Pipeline {
	return &Pipeline{interceptors: interceptors, log: log}
}

// Result is the outcome of running a message through every interceptor in
// one direction: the (possibly replaced) message, or none if blocked, plus
// any injected messages in insertion order.
type Result struct {
	Message  protocol.Message
	Blocked  bool
	Injected []protocol.Message
}

// ProcessClient runs msg through every interceptor's ClientHook in order.
func (p *Pipeline) ProcessClient(msg protocol.Message) Result {
	return p.run(msg, func(i Interceptor, m protocol.Message) (Action, error) {
		return i.ClientHook(m)
	})
}

// ProcessServer runs msg through every interceptor's ServerHook in order.
func (p *Pipeline) ProcessServer(msg protocol.Message) Result {
	return p.run(msg, func(i Interceptor, m protocol.Message) (Action, error) {
		return i.ServerHook(m)
	})
}

func (p *Pipeline) run(msg protocol.Message, call func(Interceptor, protocol.Message) (Action, error)) Result {
	current := msg
	var injected []protocol.Message

	for _, ic := range p.interceptors {
		action, err := call(ic, current)
		if err != nil {
			// spec.md §7: interceptor exceptions are logged and treated as
			// Continue with the original message.
			if p.log != nil {
				p.log.Warn("interceptor error, continuing with original message",
					"interceptor", ic.Name(), "error", err)
			}
			continue
		}

		switch action.Kind {
		case Continue:
			// no change
		case Block:
			return Result{Blocked: true, Injected: injected}
		case Replace:
			current = action.Replace
		case Inject, RespondAndContinue:
			injected = append(injected, action.Injected...)
		}
	}

	return Result{Message: current, Injected: injected}
}

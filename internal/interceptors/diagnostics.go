package interceptors

import (
	"encoding/json"
	"sync"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// Diagnostics null-fills textDocument/diagnostic responses: Roslyn
// sometimes answers a pull-diagnostics request with an empty result
// instead of an explicit empty report, which some clients treat as "no
// diagnostics support" rather than "no diagnostics right now"
// (spec.md §4.G.7).
type Diagnostics struct {
	pipeline.BaseInterceptor

	mu       sync.Mutex
	inFlight map[protocol.MessageID]struct{}
}

// NewDiagnostics constructs the interceptor with empty tracking state.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{inFlight: make(map[protocol.MessageID]struct{})}
}

func (d *Diagnostics) Name() string { return "diagnostics" }

func (d *Diagnostics) ClientHook(msg protocol.Message) (pipeline.Action, error) {
	req := msg.Request
	if req != nil && req.Method == "textDocument/diagnostic" {
		d.mu.Lock()
		d.inFlight[req.ID] = struct{}{}
		d.mu.Unlock()
	}
	return pipeline.ActionContinue, nil
}

func (d *Diagnostics) ServerHook(msg protocol.Message) (pipeline.Action, error) {
	resp := msg.Response
	if resp == nil {
		return pipeline.ActionContinue, nil
	}

	d.mu.Lock()
	_, tracked := d.inFlight[resp.ID]
	if tracked {
		delete(d.inFlight, resp.ID)
	}
	d.mu.Unlock()

	if !tracked {
		return pipeline.ActionContinue, nil
	}

	if len(resp.Result) > 0 && string(resp.Result) != "null" {
		return pipeline.ActionContinue, nil
	}

	filled, err := json.Marshal(protocol.DiagnosticReport{Kind: "full", Items: []interface{}{}})
	if err != nil {
		return pipeline.ActionContinue, nil
	}

	return pipeline.ActionReplace(protocol.NewResponseMessage(protocol.Response{
		ID: resp.ID, Result: filled,
	})), nil
}

package interceptors

import (
	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// refreshMethods are the server-initiated pull-refresh requests/notifications
// that LSP defines without params; Roslyn sometimes sends an array or null
// params value for them, which Refresh removes. Object params are left as-is.
var refreshMethods = map[string]struct{}{
	"workspace/diagnostic/refresh":     {},
	"workspace/codeLens/refresh":       {},
	"workspace/inlayHint/refresh":      {},
	"workspace/semanticTokens/refresh": {},
}

// Refresh strips params from workspace/*/refresh messages when Roslyn sends
// an array or explicit null instead of omitting the field entirely
// (spec.md §4.G.8).
type Refresh struct {
	pipeline.BaseInterceptor
}

// NewRefresh constructs the interceptor.
func NewRefresh() *Refresh { return &Refresh{} }

func (r *Refresh) Name() string { return "refresh" }

func shouldStripParams(params []byte) bool {
	if len(params) == 0 {
		return false
	}
	switch params[0] {
	case '[':
		return true
	default:
		return string(params) == "null"
	}
}

func (r *Refresh) ServerHook(msg protocol.Message) (pipeline.Action, error) {
	switch {
	case msg.Request != nil:
		req := msg.Request
		if _, ok := refreshMethods[req.Method]; ok && shouldStripParams(req.Params) {
			stripped := *req
			stripped.Params = nil
			return pipeline.ActionReplace(protocol.NewRequestMessage(stripped)), nil
		}
	case msg.Notification != nil:
		notif := msg.Notification
		if _, ok := refreshMethods[notif.Method]; ok && shouldStripParams(notif.Params) {
			stripped := *notif
			stripped.Params = nil
			return pipeline.ActionReplace(protocol.NewNotificationMessage(stripped)), nil
		}
	}
	return pipeline.ActionContinue, nil
}

package interceptors

import (
	"encoding/json"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// CapabilityRegistration acknowledges client/registerCapability locally
// with a null result, since the client side of this proxy never ran the
// dynamic-registration handshake the real editor would (spec.md §4.G.5).
type CapabilityRegistration struct {
	pipeline.BaseInterceptor
}

// NewCapabilityRegistration constructs the interceptor.
func NewCapabilityRegistration() *CapabilityRegistration { return &CapabilityRegistration{} }

func (c *CapabilityRegistration) Name() string { return "capability-registration" }

func (c *CapabilityRegistration) ServerHook(msg protocol.Message) (pipeline.Action, error) {
	req := msg.Request
	if req == nil || req.Method != "client/registerCapability" {
		return pipeline.ActionContinue, nil
	}

	return pipeline.ActionReplace(protocol.NewResponseMessage(protocol.Response{
		ID:     req.ID,
		Result: json.RawMessage("null"),
	})), nil
}

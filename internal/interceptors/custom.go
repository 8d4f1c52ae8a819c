package interceptors

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// CustomNotifications handles Roslyn's workspace/_roslyn_* and roslyn/*
// extension methods that fall outside the standard LSP surface
// (spec.md §4.G.6): it blocks the ones already answered by
// ProjectRestore so they don't leak to the client as unknown methods,
// logs metadata-as-source navigation for observability, and rewrites
// workspace/_roslyn_openDocument into a standard textDocument/didOpen the
// client-side editor understands.
type CustomNotifications struct {
	pipeline.BaseInterceptor
	log *slog.Logger
}

// NewCustomNotifications constructs the interceptor.
func NewCustomNotifications(log *slog.Logger) *CustomNotifications {
	return &CustomNotifications{log: log}
}

func (c *CustomNotifications) Name() string { return "custom-notifications" }

func isRoslynCustomMethod(method string) bool {
	return strings.HasPrefix(method, "workspace/_roslyn_") ||
		strings.HasPrefix(method, "roslyn/") ||
		method == "workspace/projectInitializationComplete"
}

func (c *CustomNotifications) ServerHook(msg protocol.Message) (pipeline.Action, error) {
	switch {
	case msg.Request != nil:
		method := msg.Request.Method
		if isRoslynCustomMethod(method) && method == "workspace/_roslyn_projectNeedsRestore" {
			return pipeline.ActionBlock, nil
		}
		return pipeline.ActionContinue, nil

	case msg.Notification != nil:
		return c.handleNotification(msg.Notification)
	}
	return pipeline.ActionContinue, nil
}

func (c *CustomNotifications) handleNotification(notif *protocol.Notification) (pipeline.Action, error) {
	if !isRoslynCustomMethod(notif.Method) {
		return pipeline.ActionContinue, nil
	}

	if notif.Method == "workspace/_roslyn_projectNeedsRestore" {
		return pipeline.ActionBlock, nil
	}

	if notif.Method == "roslyn/beginMetadataAsSource" || notif.Method == "roslyn/endMetadataAsSource" {
		c.logMetadataNavigation(notif)
		return pipeline.ActionContinue, nil
	}

	if notif.Method == "workspace/_roslyn_openDocument" {
		converted, ok := convertOpenDocument(notif)
		if !ok {
			if c.log != nil {
				c.log.Warn("failed to convert _roslyn_openDocument, blocking instead")
			}
			return pipeline.ActionBlock, nil
		}
		return pipeline.ActionReplace(protocol.NewNotificationMessage(converted)), nil
	}

	return pipeline.ActionContinue, nil
}

func (c *CustomNotifications) logMetadataNavigation(notif *protocol.Notification) {
	if c.log == nil {
		return
	}
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(notif.Params, &params); err != nil {
		return
	}
	action := "ended"
	if notif.Method == "roslyn/beginMetadataAsSource" {
		action = "started"
	}
	c.log.Debug("BCL navigation", "action", action, "uri", params.URI)
}

func convertOpenDocument(notif *protocol.Notification) (protocol.Notification, bool) {
	var params struct {
		URI  string `json:"uri"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(notif.Params, &params); err != nil || params.URI == "" || params.Text == "" {
		return protocol.Notification{}, false
	}

	didOpenParams, err := json.Marshal(protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        params.URI,
			LanguageID: "csharp",
			Version:    1,
			Text:       params.Text,
		},
	})
	if err != nil {
		return protocol.Notification{}, false
	}

	return protocol.Notification{Method: "textDocument/didOpen", Params: didOpenParams}, true
}

package interceptors

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// DocumentLifecycle synthesizes a textDocument/didOpen notification ahead
// of any client request that touches a .cs document the client never
// explicitly opened (spec.md §4.G.1). It tracks open URIs itself so it can
// clear them again on textDocument/didClose.
type DocumentLifecycle struct {
	pipeline.BaseInterceptor

	log  *slog.Logger
	mu   sync.Mutex
	open map[string]struct{}
}

// NewDocumentLifecycle constructs the interceptor with empty open-document
// state.
func NewDocumentLifecycle(log *slog.Logger) *DocumentLifecycle {
	return &DocumentLifecycle{log: log, open: make(map[string]struct{})}
}

func (d *DocumentLifecycle) Name() string { return "document-lifecycle" }

type textDocumentParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
}

func (d *DocumentLifecycle) ClientHook(msg protocol.Message) (pipeline.Action, error) {
	if notif := msg.Notification; notif != nil {
		switch notif.Method {
		case "textDocument/didOpen":
			var params protocol.DidOpenTextDocumentParams
			if err := json.Unmarshal(notif.Params, &params); err == nil {
				d.mu.Lock()
				d.open[params.TextDocument.URI] = struct{}{}
				d.mu.Unlock()
			}
		case "textDocument/didClose":
			var params protocol.DidCloseTextDocumentParams
			if err := json.Unmarshal(notif.Params, &params); err == nil {
				d.mu.Lock()
				delete(d.open, params.TextDocument.URI)
				d.mu.Unlock()
			}
		}
		return pipeline.ActionContinue, nil
	}

	req := msg.Request
	if req == nil || len(req.Params) == 0 {
		return pipeline.ActionContinue, nil
	}

	var params textDocumentParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return pipeline.ActionContinue, nil
	}
	uri := params.TextDocument.URI
	if uri == "" || !strings.HasSuffix(uri, ".cs") {
		return pipeline.ActionContinue, nil
	}

	d.mu.Lock()
	_, alreadyOpen := d.open[uri]
	d.mu.Unlock()
	if alreadyOpen {
		return pipeline.ActionContinue, nil
	}

	didOpen, ok := d.synthesizeDidOpen(uri)
	if !ok {
		// spec.md §7: synthesis failure falls through to Continue; the
		// server will return a real error the proxy forwards as-is.
		return pipeline.ActionContinue, nil
	}

	d.mu.Lock()
	d.open[uri] = struct{}{}
	d.mu.Unlock()

	return pipeline.ActionInject(didOpen), nil
}

func (d *DocumentLifecycle) synthesizeDidOpen(uri string) (protocol.Message, bool) {
	path, err := filePathFromURI(uri)
	if err != nil {
		if d.log != nil {
			d.log.Debug("cannot synthesize didOpen: bad uri", "uri", uri, "error", err)
		}
		return protocol.Message{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if d.log != nil {
			d.log.Debug("cannot synthesize didOpen: read failed", "uri", uri, "error", err)
		}
		return protocol.Message{}, false
	}

	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "csharp",
			Version:    0,
			Text:       string(content),
		},
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return protocol.Message{}, false
	}

	return protocol.NewNotificationMessage(protocol.Notification{
		Method: "textDocument/didOpen",
		Params: raw,
	}), true
}

// filePathFromURI converts a file:// URI to a local filesystem path,
// tolerating Windows-style paths the way url.Parse + Path handling does
// not by itself.
func filePathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	path := u.Path
	if path == "" {
		path = strings.TrimPrefix(uri, "file://")
	}
	// Windows paths come through as "/C:/foo/bar.cs"; strip the leading
	// slash in front of a drive letter.
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path, nil
}

package protocol

// A handful of LSP payload shapes the interceptors need to build or read.
// Kept intentionally small: the proxy forwards opaque params for every
// method it doesn't specifically adapt.

// TextDocumentItem is the payload LSP uses to announce a document's full
// content, as sent on textDocument/didOpen.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// DidOpenTextDocumentParams is the params shape of textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentIdentifier names a document by URI alone.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// DidCloseTextDocumentParams is the params shape of textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DiagnosticReport is the null-filled result interceptor 7 substitutes
// when Roslyn answers a pull-diagnostics request with an empty result.
type DiagnosticReport struct {
	Kind  string        `json:"kind"`
	Items []interface{} `json:"items"`
}

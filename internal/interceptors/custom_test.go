package interceptors

import (
	"encoding/json"
	"testing"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomNotificationsBlocksProjectNeedsRestore(t *testing.T) {
	c := NewCustomNotifications(nil)
	params, _ := json.Marshal(map[string]string{"projectFilePath": "/tmp/x.csproj"})
	action, err := c.ServerHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "workspace/_roslyn_projectNeedsRestore", Params: params,
	}))
	require.NoError(t, err)
	assert.Equal(t, pipeline.Block, action.Kind)
}

func TestCustomNotificationsPassesThroughMetadataNotifications(t *testing.T) {
	c := NewCustomNotifications(nil)
	for _, method := range []string{"roslyn/beginMetadataAsSource", "roslyn/endMetadataAsSource"} {
		params, _ := json.Marshal(map[string]string{"uri": "file:///tmp/System.String.cs"})
		action, err := c.ServerHook(protocol.NewNotificationMessage(protocol.Notification{Method: method, Params: params}))
		require.NoError(t, err)
		assert.Equal(t, pipeline.Continue, action.Kind, method)
	}
}

func TestCustomNotificationsConvertsOpenDocument(t *testing.T) {
	c := NewCustomNotifications(nil)
	params, _ := json.Marshal(map[string]string{"uri": "file:///tmp/System.String.cs", "text": "namespace System {}"})
	action, err := c.ServerHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "workspace/_roslyn_openDocument", Params: params,
	}))
	require.NoError(t, err)
	require.Equal(t, pipeline.Replace, action.Kind)
	assert.Equal(t, "textDocument/didOpen", action.Replace.Notification.Method)

	var docParams protocol.DidOpenTextDocumentParams
	require.NoError(t, json.Unmarshal(action.Replace.Notification.Params, &docParams))
	assert.Equal(t, "file:///tmp/System.String.cs", docParams.TextDocument.URI)
	assert.Equal(t, "csharp", docParams.TextDocument.LanguageID)
}

func TestCustomNotificationsBlocksMalformedOpenDocument(t *testing.T) {
	c := NewCustomNotifications(nil)
	params, _ := json.Marshal(map[string]string{"invalid": "params"})
	action, err := c.ServerHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "workspace/_roslyn_openDocument", Params: params,
	}))
	require.NoError(t, err)
	assert.Equal(t, pipeline.Block, action.Kind)
}

func TestCustomNotificationsPassesThroughStandardNotifications(t *testing.T) {
	c := NewCustomNotifications(nil)
	action, err := c.ServerHook(protocol.NewNotificationMessage(protocol.Notification{Method: "textDocument/publishDiagnostics"}))
	require.NoError(t, err)
	assert.Equal(t, pipeline.Continue, action.Kind)
}

package interceptors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSolutionWorkspace(t *testing.T) (root, slnPath string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "App"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "App", "App.csproj"), []byte("<Project/>"), 0o644))

	sln := `
Microsoft Visual Studio Solution File, Format Version 12.00
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App", "App\App.csproj", "{11111111-1111-1111-1111-111111111111}"
EndProject
`
	slnPath = filepath.Join(root, "App.sln")
	require.NoError(t, os.WriteFile(slnPath, []byte(sln), 0o644))
	return root, slnPath
}

func initializeRequest(root string) protocol.Message {
	params, _ := json.Marshal(map[string]string{"rootUri": "file://" + root})
	return protocol.NewRequestMessage(protocol.Request{
		ID: protocol.NewIntID(1), Method: "initialize", Params: params,
	})
}

func TestSolutionLoaderDiscoversAndOpensSolution(t *testing.T) {
	root, slnPath := writeSolutionWorkspace(t)

	s := NewSolutionLoader(nil)
	_, err := s.ClientHook(initializeRequest(root))
	require.NoError(t, err)

	action, err := s.ClientHook(protocol.NewNotificationMessage(protocol.Notification{Method: "initialized"}))
	require.NoError(t, err)

	require.Len(t, action.Injected, 2)
	assert.Equal(t, "solution/open", action.Injected[0].Method())
	assert.Equal(t, "project/open", action.Injected[1].Method())

	var solParams map[string]string
	require.NoError(t, json.Unmarshal(action.Injected[0].Params(), &solParams))
	assert.Equal(t, "file://"+slnPath, solParams["solution"])
}

func TestSolutionLoaderHoldsBackDidOpenUntilProjectInitComplete(t *testing.T) {
	root, _ := writeSolutionWorkspace(t)

	s := NewSolutionLoader(nil)
	_, err := s.ClientHook(initializeRequest(root))
	require.NoError(t, err)

	openParams, _ := json.Marshal(protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///tmp/x.cs"},
	})
	action, err := s.ClientHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "textDocument/didOpen", Params: openParams,
	}))
	require.NoError(t, err)
	assert.Equal(t, pipeline.Block, action.Kind)

	serverAction, err := s.ServerHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "workspace/projectInitializationComplete",
	}))
	require.NoError(t, err)
	require.Len(t, serverAction.Injected, 1)
	assert.Equal(t, "textDocument/didOpen", serverAction.Injected[0].Method())
}

func TestSolutionLoaderNoSolutionFallsThroughToContinue(t *testing.T) {
	root := t.TempDir()
	s := NewSolutionLoader(nil)
	_, err := s.ClientHook(initializeRequest(root))
	require.NoError(t, err)

	action, err := s.ClientHook(protocol.NewNotificationMessage(protocol.Notification{Method: "initialized"}))
	require.NoError(t, err)
	assert.Empty(t, action.Injected)
}

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

func restoreNeededRequest(id int64, uuid string) protocol.Message {
	params, _ := json.Marshal(map[string]string{"UUID": uuid})
	return protocol.NewRequestMessage(protocol.Request{
		ID: protocol.NewIntID(id), Method: "workspace/_roslyn_projectNeedsRestore", Params: params,
	})
}

func TestProjectRestoreRequestFirstCallNeedsRestore(t *testing.T) {
	p := NewProjectRestore()
	action, err := p.ServerHook(restoreNeededRequest(1, "uuid-a"))
	require.NoError(t, err)
	require.Equal(t, pipeline.Replace, action.Kind)

	var result map[string]bool
	require.NoError(t, json.Unmarshal(action.Replace.Response.Result, &result))
	assert.True(t, result["needed_restore"])
}

func TestProjectRestoreDuplicateUUIDReturnsFalse(t *testing.T) {
	p := NewProjectRestore()
	_, err := p.ServerHook(restoreNeededRequest(1, "uuid-a"))
	require.NoError(t, err)

	action, err := p.ServerHook(restoreNeededRequest(2, "uuid-a"))
	require.NoError(t, err)

	var result map[string]bool
	require.NoError(t, json.Unmarshal(action.Replace.Response.Result, &result))
	assert.False(t, result["needed_restore"])
}

func TestProjectRestoreInProgressBlocksConcurrentNotification(t *testing.T) {
	p := NewProjectRestore()
	_, err := p.ServerHook(restoreNeededRequest(1, "uuid-a"))
	require.NoError(t, err)

	notifParams, _ := json.Marshal(map[string]string{"UUID": "uuid-b"})
	action, err := p.ServerHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "workspace/_roslyn_projectNeedsRestore", Params: notifParams,
	}))
	require.NoError(t, err)
	assert.Equal(t, pipeline.Block, action.Kind)
}

func TestProjectRestoreNotificationInjectsRestoreRequest(t *testing.T) {
	p := NewProjectRestore()
	notifParams, _ := json.Marshal(map[string]any{"UUID": "uuid-a", "projectFilePaths": []string{"/tmp/Foo.cs"}})

	action, err := p.ServerHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "workspace/_roslyn_projectNeedsRestore", Params: notifParams,
	}))
	require.NoError(t, err)
	require.Len(t, action.Injected, 1)
	assert.Equal(t, "workspace/_roslyn_restore", action.Injected[0].Method())
}

func TestProjectRestoreCompleteResetsInProgressAndUUID(t *testing.T) {
	p := NewProjectRestore()
	_, err := p.ServerHook(restoreNeededRequest(1, "uuid-a"))
	require.NoError(t, err)
	assert.True(t, p.inProgress.Load())

	completeParams, _ := json.Marshal(map[string]string{"UUID": "uuid-a"})
	_, err = p.ServerHook(protocol.NewNotificationMessage(protocol.Notification{
		Method: "workspace/_roslyn_restoreComplete", Params: completeParams,
	}))
	require.NoError(t, err)
	assert.False(t, p.inProgress.Load())

	// UUID cleared: a subsequent request for it is treated as fresh again.
	action, err := p.ServerHook(restoreNeededRequest(2, "uuid-a"))
	require.NoError(t, err)
	var result map[string]bool
	require.NoError(t, json.Unmarshal(action.Replace.Response.Result, &result))
	assert.True(t, result["needed_restore"])
}

func TestFindProjectFileWalksAncestorsForCsproj(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src", "Nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "App.csproj"), []byte("<Project/>"), 0o644))

	found := findProjectFile(filepath.Join(sub, "Foo.cs"))
	assert.Equal(t, filepath.Join(root, "src", "App.csproj"), found)
}

func TestFindProjectFileReturnsEmptyWhenNoneFound(t *testing.T) {
	root := t.TempDir()
	found := findProjectFile(filepath.Join(root, "Foo.cs"))
	assert.Empty(t, found)
}

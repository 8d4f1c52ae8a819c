package interceptors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// ProjectRestore answers Roslyn's workspace/_roslyn_projectNeedsRestore
// probe locally and coordinates the actual restore as a single
// workspace/_roslyn_restore request injected toward the server, so that
// concurrent restore probes for the same UUID collapse into one restore
// instead of each triggering its own (spec.md §4.G.3).
type ProjectRestore struct {
	pipeline.BaseInterceptor

	nextRequestID int64 // starts at 90000, mirroring the original's private id space
	inProgress    atomic.Bool

	mu           sync.Mutex
	pendingUUIDs map[string]struct{}
}

// NewProjectRestore constructs the interceptor with empty pending state.
func NewProjectRestore() *ProjectRestore {
	return &ProjectRestore{
		nextRequestID: 90000,
		pendingUUIDs:  make(map[string]struct{}),
	}
}

func (p *ProjectRestore) Name() string { return "project-restore" }

func (p *ProjectRestore) nextID() protocol.MessageID {
	id := atomic.AddInt64(&p.nextRequestID, 1) - 1
	return protocol.NewIntID(id)
}

type projectNeedsRestoreParams struct {
	UUID              string   `json:"UUID"`
	ProjectFilePaths  []string `json:"projectFilePaths"`
}

func needsRestoreResult(needed bool) json.RawMessage {
	raw, _ := json.Marshal(map[string]bool{"needed_restore": needed})
	return raw
}

func (p *ProjectRestore) ServerHook(msg protocol.Message) (pipeline.Action, error) {
	switch {
	case msg.Request != nil && msg.Request.Method == "workspace/_roslyn_projectNeedsRestore":
		return p.handleRestoreRequest(msg.Request)
	case msg.Notification != nil && msg.Notification.Method == "workspace/_roslyn_projectNeedsRestore":
		return p.handleRestoreNotification(msg.Notification)
	case msg.Notification != nil && msg.Notification.Method == "workspace/_roslyn_restoreComplete":
		return p.handleRestoreComplete(msg.Notification)
	}
	return pipeline.ActionContinue, nil
}

func (p *ProjectRestore) handleRestoreRequest(req *protocol.Request) (pipeline.Action, error) {
	var params projectNeedsRestoreParams
	_ = json.Unmarshal(req.Params, &params)

	if params.UUID != "" {
		p.mu.Lock()
		_, seen := p.pendingUUIDs[params.UUID]
		if !seen {
			p.pendingUUIDs[params.UUID] = struct{}{}
		}
		p.mu.Unlock()
		if seen {
			return pipeline.ActionReplace(protocol.NewResponseMessage(protocol.Response{
				ID: req.ID, Result: needsRestoreResult(false),
			})), nil
		}
	}

	if p.inProgress.Load() {
		return pipeline.ActionReplace(protocol.NewResponseMessage(protocol.Response{
			ID: req.ID, Result: needsRestoreResult(false),
		})), nil
	}

	p.inProgress.Store(true)
	return pipeline.ActionReplace(protocol.NewResponseMessage(protocol.Response{
		ID: req.ID, Result: needsRestoreResult(true),
	})), nil
}

func (p *ProjectRestore) handleRestoreNotification(notif *protocol.Notification) (pipeline.Action, error) {
	var params projectNeedsRestoreParams
	_ = json.Unmarshal(notif.Params, &params)

	if params.UUID != "" {
		p.mu.Lock()
		_, seen := p.pendingUUIDs[params.UUID]
		if !seen {
			p.pendingUUIDs[params.UUID] = struct{}{}
		}
		p.mu.Unlock()
		if seen {
			return pipeline.ActionBlock, nil
		}
	}

	if p.inProgress.Load() {
		return pipeline.ActionBlock, nil
	}
	p.inProgress.Store(true)

	transformed := p.transformProjectPaths(notif.Params, params.ProjectFilePaths)

	restoreReq := protocol.NewRequestMessage(protocol.Request{
		ID:     p.nextID(),
		Method: "workspace/_roslyn_restore",
		Params: transformed,
	})
	return pipeline.ActionInject(restoreReq), nil
}

func (p *ProjectRestore) handleRestoreComplete(notif *protocol.Notification) (pipeline.Action, error) {
	var params projectNeedsRestoreParams
	_ = json.Unmarshal(notif.Params, &params)

	p.inProgress.Store(false)
	if params.UUID != "" {
		p.mu.Lock()
		delete(p.pendingUUIDs, params.UUID)
		p.mu.Unlock()
	}
	return pipeline.ActionContinue, nil
}

// transformProjectPaths resolves each source-file path to its owning
// .csproj by walking ancestor directories, falling back to the original
// path when no project file can be found. Returns the original raw params
// unchanged if there's nothing to transform.
func (p *ProjectRestore) transformProjectPaths(original json.RawMessage, paths []string) json.RawMessage {
	if len(paths) == 0 {
		return original
	}

	transformed := make([]string, len(paths))
	for i, path := range paths {
		if found := findProjectFile(path); found != "" {
			transformed[i] = found
		} else {
			transformed[i] = path
		}
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(original, &asMap); err != nil {
		raw, _ := json.Marshal(map[string][]string{"projectFilePaths": transformed})
		return raw
	}

	pathsRaw, _ := json.Marshal(transformed)
	asMap["projectFilePaths"] = pathsRaw

	raw, err := json.Marshal(asMap)
	if err != nil {
		return original
	}
	return raw
}

// findProjectFile locates the .csproj owning sourceFile: itself if it
// already is one, otherwise the nearest .csproj found by walking up through
// ancestor directories.
func findProjectFile(sourceFile string) string {
	if strings.EqualFold(filepath.Ext(sourceFile), ".csproj") {
		return sourceFile
	}

	dir := filepath.Dir(sourceFile)
	for {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csproj") {
					return filepath.Join(dir, e.Name())
				}
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

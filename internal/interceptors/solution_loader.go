package interceptors

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/firi/roslyn-lsp-proxy/internal/pipeline"
	"github.com/firi/roslyn-lsp-proxy/internal/protocol"
)

// SolutionLoader discovers a .sln solution file in the client's workspace
// root and opens it (plus its referenced projects) proactively, instead of
// waiting for Roslyn's own slower auto-discovery. It also holds back any
// .cs didOpen notifications that arrive before the solution finishes
// opening, replaying them once Roslyn reports project initialization is
// complete.
type SolutionLoader struct {
	pipeline.BaseInterceptor

	log *slog.Logger

	mu             sync.Mutex
	workspaceRoot  string
	solutionOpened bool
	pendingCSFiles []protocol.Message
}

// NewSolutionLoader constructs the interceptor with no known workspace yet.
func NewSolutionLoader(log *slog.Logger) *SolutionLoader {
	return &SolutionLoader{log: log}
}

func (s *SolutionLoader) Name() string { return "solution-loader" }

type initializeParams struct {
	RootURI               string          `json:"rootUri"`
	RootPath              string          `json:"rootPath"`
	InitializationOptions json.RawMessage `json:"initializationOptions"`
}

type initializationOptions struct {
	Solution string `json:"solution"`
}

func (s *SolutionLoader) ClientHook(msg protocol.Message) (pipeline.Action, error) {
	if req := msg.Request; req != nil && req.Method == "initialize" {
		s.recordWorkspaceRoot(req.Params)
		return pipeline.ActionContinue, nil
	}

	notif := msg.Notification
	if notif == nil {
		return pipeline.ActionContinue, nil
	}

	switch notif.Method {
	case "initialized":
		return s.discoverSolution()
	case "textDocument/didOpen":
		return s.holdBackIfNotOpened(msg, notif)
	}

	return pipeline.ActionContinue, nil
}

func (s *SolutionLoader) ServerHook(msg protocol.Message) (pipeline.Action, error) {
	notif := msg.Notification
	if notif == nil || notif.Method != "workspace/projectInitializationComplete" {
		return pipeline.ActionContinue, nil
	}

	s.mu.Lock()
	pending := s.pendingCSFiles
	s.pendingCSFiles = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return pipeline.ActionContinue, nil
	}
	return pipeline.ActionInject(pending...), nil
}

func (s *SolutionLoader) recordWorkspaceRoot(params json.RawMessage) {
	if len(params) == 0 {
		return
	}
	var p initializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return
	}

	// initializationOptions.solution, when present, is an explicit override
	// and takes priority over auto-discovery from rootUri/rootPath.
	if len(p.InitializationOptions) > 0 {
		var opts initializationOptions
		if err := json.Unmarshal(p.InitializationOptions, &opts); err == nil && opts.Solution != "" {
			s.mu.Lock()
			s.workspaceRoot = opts.Solution
			s.mu.Unlock()
			return
		}
	}

	root := ""
	if strings.HasPrefix(p.RootURI, "file://") {
		if path, err := filePathFromURI(p.RootURI); err == nil {
			root = path
		}
	} else if p.RootPath != "" {
		root = p.RootPath
	}
	if root == "" {
		return
	}

	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
}

func (s *SolutionLoader) discoverSolution() (pipeline.Action, error) {
	s.mu.Lock()
	root := s.workspaceRoot
	s.mu.Unlock()

	if root == "" {
		if s.log != nil {
			s.log.Warn("no workspace root available, skipping solution discovery")
		}
		return pipeline.ActionContinue, nil
	}

	// root may itself already be an explicit .sln path from
	// initializationOptions.solution.
	solutionPath := root
	if !strings.HasSuffix(strings.ToLower(root), ".sln") {
		found, err := findSolutionFile(root)
		if err != nil || found == "" {
			if s.log != nil {
				s.log.Info("no solution file found, Roslyn will auto-discover projects", "workspaceRoot", root)
			}
			return pipeline.ActionContinue, nil
		}
		solutionPath = found
	}

	projects, err := extractProjectFiles(solutionPath)
	if err != nil {
		if s.log != nil {
			s.log.Warn("solution validation failed", "solution", solutionPath, "error", err)
		}
		return pipeline.ActionContinue, nil
	}

	notifications := buildSolutionOpenNotifications(solutionPath, projects)
	if len(notifications) == 0 {
		return pipeline.ActionContinue, nil
	}

	s.mu.Lock()
	s.solutionOpened = true
	s.mu.Unlock()

	return pipeline.ActionInject(notifications...), nil
}

// findSolutionFile looks for a .sln file at the workspace root, then in its
// immediate subdirectories.
func findSolutionFile(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".sln") {
			return filepath.Join(root, e.Name()), nil
		}
	}

	for _, d := range subdirs {
		sub := filepath.Join(root, d)
		subEntries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, e := range subEntries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".sln") {
				return filepath.Join(sub, e.Name()), nil
			}
		}
	}

	return "", nil
}

// extractProjectFiles parses the "Project(...)" lines of a .sln file for
// referenced .csproj paths. It errors only if the file has no "Project(...)"
// lines at all; a solution whose projects are all non-.csproj returns an
// empty list without error.
func extractProjectFiles(solutionPath string) ([]string, error) {
	content, err := os.ReadFile(solutionPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(solutionPath)
	var projects []string
	projectLines := 0

	for _, line := range strings.Split(string(content), "\n") {
		if !strings.Contains(line, `Project("`) {
			continue
		}
		projectLines++

		parts := strings.Split(line, `"`)
		if len(parts) < 6 {
			continue
		}
		rel := strings.ReplaceAll(parts[5], `\`, "/")
		if strings.HasSuffix(strings.ToLower(rel), ".csproj") {
			projects = append(projects, filepath.Join(dir, filepath.FromSlash(rel)))
		}
	}

	if projectLines == 0 {
		return nil, errNoProjectsInSolution
	}
	return projects, nil
}

var errNoProjectsInSolution = jsonError("no projects found in solution")

type jsonError string

func (e jsonError) Error() string { return string(e) }

func buildSolutionOpenNotifications(solutionPath string, projects []string) []protocol.Message {
	var notifications []protocol.Message

	solutionParams, _ := json.Marshal(map[string]string{"solution": "file://" + solutionPath})
	notifications = append(notifications, protocol.NewNotificationMessage(protocol.Notification{
		Method: "solution/open",
		Params: solutionParams,
	}))

	if len(projects) > 0 {
		uris := make([]string, len(projects))
		for i, p := range projects {
			uris[i] = "file://" + p
		}
		projectParams, _ := json.Marshal(map[string][]string{"projects": uris})
		notifications = append(notifications, protocol.NewNotificationMessage(protocol.Notification{
			Method: "project/open",
			Params: projectParams,
		}))
	}

	return notifications
}

func (s *SolutionLoader) holdBackIfNotOpened(msg protocol.Message, notif *protocol.Notification) (pipeline.Action, error) {
	var params textDocumentParams
	if err := json.Unmarshal(notif.Params, &params); err != nil {
		return pipeline.ActionContinue, nil
	}
	if !strings.HasSuffix(params.TextDocument.URI, ".cs") {
		return pipeline.ActionContinue, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.solutionOpened {
		return pipeline.ActionContinue, nil
	}

	s.pendingCSFiles = append(s.pendingCSFiles, msg)
	return pipeline.ActionBlock, nil
}

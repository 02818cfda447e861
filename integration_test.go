package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-projects/cmd"
	"github.com/mattsolo1/grove-projects/cmd/config"
	"github.com/mattsolo1/grove-projects/pkg/bus"
	"github.com/mattsolo1/grove-projects/pkg/intent"
	"github.com/mattsolo1/grove-projects/pkg/models"
	"github.com/mattsolo1/grove-projects/pkg/tree"
)

// backend imitates the workspace and publisher endpoints.
type backend struct {
	mu       gosync.Mutex
	requests []string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	req := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		req += "?" + r.URL.RawQuery
	}
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	switch {
	case r.URL.Path == "/services/ide/workspaces":
		_ = json.NewEncoder(w).Encode([]string{"workspace", "other"})
	case r.URL.Path == "/services/ide/workspaces/workspace":
		_ = json.NewEncoder(w).Encode(&models.Workspace{
			Name:     "workspace",
			RootPath: "/workspace",
			Projects: []*models.Project{{
				Name:              "proj1",
				Type:              "project",
				GitTracked:        true,
				GitRepositoryName: "proj1-repo",
				Path:              "/workspace/proj1",
				Folders: []*models.Entry{{
					Name: "src",
					Type: models.EntryFolder,
					Path: "/workspace/proj1/src",
					Files: []*models.Entry{{
						Name:        "a.js",
						Type:        models.EntryFile,
						Path:        "/workspace/proj1/src/a.js",
						ContentType: "text/javascript",
					}},
				}},
			}},
		})
	case r.URL.Path == "/services/ide/workspaces/other":
		_ = json.NewEncoder(w).Encode(&models.Workspace{Name: "other", RootPath: "/other"})
	case strings.HasPrefix(r.URL.Path, "/services/ide/publisher/request"):
		w.WriteHeader(http.StatusCreated)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) seen(prefix string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, r := range b.requests {
		if strings.HasPrefix(r, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func newTestApp(t *testing.T) (*config.App, *backend) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	v := viper.New()
	config.SetDefaults(v)
	v.Set("api.base_url", srv.URL)
	v.Set("api.rate_limit", 0)
	v.Set("data_dir", t.TempDir())
	v.Set("log.level", "error")

	app, err := config.NewApp(v, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, b
}

func TestIntegrationLoadTree(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.Engine.Start(t.Context()))
	snap := app.Engine.Snapshot()

	assert.Equal(t, "workspace", snap.Workspace)
	assert.Equal(t, []string{"workspace", "other"}, snap.WorkspaceNames)
	require.Len(t, snap.Forest, 1)

	proj := snap.Forest[0]
	assert.Equal(t, "/proj1", proj.Path)
	require.NotNil(t, proj.Git)
	assert.Equal(t, "proj1-repo", proj.Git.RepositoryName)

	src := proj.Children[0]
	assert.Equal(t, "/proj1/src", src.Path)
	file := src.Children[0]
	assert.Equal(t, "/proj1/src/a.js", file.Path)
	assert.Equal(t, tree.IconCode, file.Icon)
	assert.Equal(t, tree.NodeID("workspace", "/proj1/src/a.js"), file.ID)
}

func TestIntegrationWorkspaceChangedPublishes(t *testing.T) {
	app, b := newTestApp(t)
	require.NoError(t, app.Engine.Start(t.Context()))

	var messages []string
	defer app.Hub.Subscribe(bus.TopicStatusMessage, func(m bus.Message) {
		messages = append(messages, m.Data.(string))
	})()

	app.Hub.Publish(bus.TopicWorkspaceChanged, map[string]any{
		"name":    "workspace",
		"publish": map[string]any{"path": "/proj1"},
	})

	assert.Equal(t, []string{"POST /services/ide/publisher/request/proj1?workspace=workspace"},
		b.seen("POST"))
	assert.Contains(t, messages, "Published '/proj1'")
	// one load from Start, one from the change notification
	assert.Len(t, b.seen("GET /services/ide/workspaces/workspace"), 2)
}

func TestIntegrationWorkspaceChangedPublishesWholeWorkspace(t *testing.T) {
	app, b := newTestApp(t)
	require.NoError(t, app.Engine.Start(t.Context()))

	var messages []string
	defer app.Hub.Subscribe(bus.TopicStatusMessage, func(m bus.Message) {
		messages = append(messages, m.Data.(string))
	})()

	app.Hub.Publish(bus.TopicWorkspaceChanged, map[string]any{
		"name":    "workspace",
		"publish": map[string]any{"workspace": true},
	})

	assert.Equal(t, []string{"POST /services/ide/publisher/request/workspace/*"}, b.seen("POST"))
	assert.Equal(t, []string{"Published '/workspace/*'"}, messages)
}

func TestIntegrationPublishAll(t *testing.T) {
	app, b := newTestApp(t)

	out := app.Dispatcher.UnpublishWorkspace(t.Context(), "workspace")
	require.NoError(t, out.Err)
	assert.Equal(t, intent.PhaseSucceeded, out.Phase)
	assert.Equal(t, []string{"DELETE /services/ide/publisher/request/workspace/*"}, b.seen("DELETE"))
}

func TestIntegrationContextMenuDiff(t *testing.T) {
	app, _ := newTestApp(t)
	require.NoError(t, app.Engine.Start(t.Context()))

	var got []intent.DiffRequest
	defer app.Hub.Subscribe(bus.TopicDiffOpen, func(m bus.Message) {
		req, err := bus.Decode[intent.DiffRequest](m.Data)
		require.NoError(t, err)
		got = append(got, req)
	})()

	app.Hub.Publish(bus.TopicContextMenu, map[string]any{
		"itemId": intent.ItemShowDiff,
		"data":   map[string]any{"id": tree.NodeID("workspace", "/proj1/src/a.js")},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "a.js", got[0].Name)
	assert.Equal(t, "/proj1/src/a.js", got[0].Path)
	assert.Equal(t, "proj1", got[0].Project)
	assert.Equal(t, "proj1-repo", got[0].GitName)
}

func TestIntegrationSwitchPersists(t *testing.T) {
	app, b := newTestApp(t)
	require.NoError(t, app.Engine.Start(t.Context()))
	require.NoError(t, app.Engine.SwitchWorkspace(t.Context(), "other"))

	assert.Equal(t, "other", app.Engine.Snapshot().Workspace)
	assert.Empty(t, app.Engine.Snapshot().Forest)
	assert.NotEmpty(t, b.seen("GET /services/ide/workspaces/other"))
	assert.Equal(t, "other", app.Engine.Restore().Name)
}

func TestIntegrationTreeCommand(t *testing.T) {
	app, _ := newTestApp(t)

	for _, tc := range []struct {
		format string
		want   []string
	}{
		{"text", []string{"workspace", "└── proj1/ (git: proj1-repo)", "    └── src/", "        └── a.js [code]"}},
		{"json", []string{`"workspace": "workspace"`, `"path": "/proj1/src/a.js"`}},
		{"yaml", []string{"workspace: workspace", "path: /proj1/src/a.js"}},
	} {
		t.Run(tc.format, func(t *testing.T) {
			c := cmd.NewTreeCmd(&app)
			var out bytes.Buffer
			c.SetOut(&out)
			c.SetArgs([]string{"--format", tc.format})
			c.SetContext(t.Context())
			require.NoError(t, c.Execute())
			for _, w := range tc.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestIntegrationVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"version"`)
}

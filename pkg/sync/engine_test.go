package sync

import (
	"context"
	"errors"
	"net/http"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-projects/pkg/bus"
	"github.com/mattsolo1/grove-projects/pkg/intent"
	"github.com/mattsolo1/grove-projects/pkg/models"
	"github.com/mattsolo1/grove-projects/pkg/workspace"
)

type fakeService struct {
	mu       gosync.Mutex
	loads    []string
	names    []string
	namesErr error
	loadFn   func(ctx context.Context, name string) (*models.Workspace, error)
}

func (f *fakeService) ListNames(context.Context) ([]string, error) {
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	return f.names, nil
}

func (f *fakeService) Load(ctx context.Context, name string) (*models.Workspace, error) {
	f.mu.Lock()
	f.loads = append(f.loads, name)
	fn := f.loadFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, name)
	}
	return describe(name), nil
}

func (f *fakeService) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func describe(name string) *models.Workspace {
	root := "/" + name
	return &models.Workspace{
		Name:     name,
		RootPath: root,
		Projects: []*models.Project{{
			Name: "proj1",
			Path: root + "/proj1",
			Files: []*models.Entry{{
				Name: "a.js", Type: models.EntryFile, Path: root + "/proj1/a.js",
			}},
		}},
	}
}

type errorLog struct {
	mu     gosync.Mutex
	errors []string
}

func (e *errorLog) ShowBusy(string)      {}
func (e *errorLog) HideBusy()            {}
func (e *errorLog) ReportMessage(string) {}
func (e *errorLog) ReportError(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors = append(e.errors, text)
}

type intentCall struct {
	path, workspace string
}

type fakeIntents struct {
	calls []intentCall
}

func (f *fakeIntents) Publish(_ context.Context, path, ws string, _ func()) intent.Outcome {
	f.calls = append(f.calls, intentCall{path: path, workspace: ws})
	return intent.Outcome{Phase: intent.PhaseSucceeded, Code: http.StatusCreated}
}

func TestStartRestoresDefaultAndLoads(t *testing.T) {
	svc := &fakeService{names: []string{"workspace", "dev"}}
	store := workspace.NewMemoryStore(nil)
	e := New(svc, WithStore(store))

	var snaps []Snapshot
	e.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	require.NoError(t, e.Start(context.Background()))

	stored, err := store.Selected()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "workspace", stored.Name)

	snap := e.Snapshot()
	assert.Equal(t, "workspace", snap.Workspace)
	assert.False(t, snap.Loading)
	assert.True(t, snap.Initial)
	assert.Equal(t, []string{"workspace", "dev"}, snap.WorkspaceNames)
	require.Len(t, snap.Forest, 1)
	assert.Equal(t, "/proj1", snap.Forest[0].Path)
	assert.Equal(t, "/proj1/a.js", snap.Forest[0].Children[0].Path)

	require.NotEmpty(t, snaps)
	assert.True(t, snaps[0].Loading)
	assert.True(t, snap.IsSelected("workspace"))
	assert.False(t, snap.IsSelected("dev"))
}

func TestStartUsesStoredWorkspace(t *testing.T) {
	svc := &fakeService{}
	e := New(svc, WithStore(workspace.NewMemoryStore(&workspace.Ref{Name: "dev"})))

	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, []string{"dev"}, svc.loads)
	assert.Equal(t, "dev", e.Selected().Name)
}

func TestSwitchWorkspace(t *testing.T) {
	svc := &fakeService{}
	store := workspace.NewMemoryStore(nil)
	e := New(svc, WithStore(store))
	require.NoError(t, e.Start(context.Background()))
	require.Equal(t, 1, svc.loadCount())

	require.NoError(t, e.SwitchWorkspace(context.Background(), "workspace"))
	assert.Equal(t, 1, svc.loadCount(), "switching to the selected workspace is a no-op")

	require.NoError(t, e.SwitchWorkspace(context.Background(), "dev"))
	assert.Equal(t, []string{"workspace", "dev"}, svc.loads)

	stored, err := store.Selected()
	require.NoError(t, err)
	assert.Equal(t, "dev", stored.Name)

	snap := e.Snapshot()
	assert.False(t, snap.Initial)
	for _, n := range snap.Forest {
		assert.Equal(t, "dev", n.Workspace)
	}

	assert.Error(t, e.SwitchWorkspace(context.Background(), ""))
	assert.Error(t, e.SwitchWorkspace(context.Background(), "a/b"))
}

type brokenStore struct{}

func (brokenStore) Selected() (*workspace.Ref, error) { return nil, nil }
func (brokenStore) SetSelected(workspace.Ref) error  { return errors.New("disk full") }

func TestSwitchWorkspacePersistFailureStillSwitches(t *testing.T) {
	svc := &fakeService{}
	reporter := &errorLog{}
	e := New(svc, WithStore(brokenStore{}), WithReporter(reporter))

	require.NoError(t, e.SwitchWorkspace(context.Background(), "dev"))
	assert.Equal(t, "dev", e.Selected().Name)
	assert.Equal(t, []string{"dev"}, svc.loads)
	assert.Equal(t, []string{"Unable to save selected workspace 'dev'"}, reporter.errors)
}

func TestReloadFailureEmptiesForest(t *testing.T) {
	svc := &fakeService{}
	reporter := &errorLog{}
	e := New(svc, WithReporter(reporter))
	require.NoError(t, e.ReloadWorkspace(context.Background(), true))
	require.Len(t, e.Snapshot().Forest, 1)

	svc.loadFn = func(context.Context, string) (*models.Workspace, error) {
		return nil, errors.New("backend down")
	}
	err := e.ReloadWorkspace(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")

	snap := e.Snapshot()
	assert.NotNil(t, snap.Forest)
	assert.Empty(t, snap.Forest)
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"Unable to load workspace data"}, reporter.errors)
}

func TestReloadNamesFailureKeepsList(t *testing.T) {
	svc := &fakeService{names: []string{"a", "b"}}
	reporter := &errorLog{}
	e := New(svc, WithReporter(reporter))
	require.NoError(t, e.ReloadWorkspaceNames(context.Background()))

	svc.namesErr = errors.New("nope")
	assert.Error(t, e.ReloadWorkspaceNames(context.Background()))
	assert.Equal(t, []string{"a", "b"}, e.Snapshot().WorkspaceNames)
	assert.Equal(t, []string{"Unable to load workspace list"}, reporter.errors)
}

func TestSupersededReloadNeverPublishes(t *testing.T) {
	started := make(chan struct{})
	svc := &fakeService{}
	first := true
	svc.loadFn = func(ctx context.Context, name string) (*models.Workspace, error) {
		if first {
			first = false
			close(started)
			<-ctx.Done()
			return describe("stale"), ctx.Err()
		}
		return describe(name), nil
	}
	e := New(svc)

	var mu gosync.Mutex
	var committed []Snapshot
	e.Subscribe(func(s Snapshot) {
		if s.Loading {
			return
		}
		mu.Lock()
		committed = append(committed, s)
		mu.Unlock()
	})

	done := make(chan error, 1)
	go func() { done <- e.ReloadWorkspace(context.Background(), false) }()
	<-started

	require.NoError(t, e.ReloadWorkspace(context.Background(), false))
	assert.ErrorIs(t, <-done, ErrSuperseded)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, committed, 1)
	assert.Equal(t, uint64(2), committed[0].Generation)
	assert.Equal(t, "workspace", committed[0].Forest[0].Workspace)
	assert.Equal(t, uint64(2), e.Snapshot().Generation)
}

func TestSlowSubscriberEndsOnLatestGeneration(t *testing.T) {
	e := New(&fakeService{})

	blocked := make(chan struct{})
	release := make(chan struct{})
	var once gosync.Once
	var mu gosync.Mutex
	var last Snapshot
	e.Subscribe(func(s Snapshot) {
		if s.Generation == 1 && !s.Loading {
			once.Do(func() {
				close(blocked)
				<-release
			})
		}
		mu.Lock()
		last = s
		mu.Unlock()
	})

	reloaded := make(chan error, 1)
	go func() { reloaded <- e.ReloadWorkspace(context.Background(), false) }()
	<-blocked

	switched := make(chan error, 1)
	go func() { switched <- e.SwitchWorkspace(context.Background(), "other") }()
	require.Eventually(t, func() bool { return e.Selected().Name == "other" }, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-reloaded)
	require.NoError(t, <-switched)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "other", last.Workspace)
	assert.Equal(t, uint64(2), last.Generation)
	assert.False(t, last.Loading)
	require.Len(t, last.Forest, 1)
	assert.Equal(t, "other", last.Forest[0].Workspace)
}

func TestOnWorkspaceChanged(t *testing.T) {
	tests := []struct {
		name        string
		event       bus.WorkspaceChanged
		wantReloads int
		wantIntents []intentCall
	}{
		{
			name:        "selected workspace reloads",
			event:       bus.WorkspaceChanged{WorkspaceName: "workspace"},
			wantReloads: 1,
		},
		{
			name:  "unrelated workspace is ignored",
			event: bus.WorkspaceChanged{WorkspaceName: "other"},
		},
		{
			name: "foreign workspace still publishes a path",
			event: bus.WorkspaceChanged{
				WorkspaceName: "other",
				Publish:       &bus.PublishIntent{Path: "/proj2/x.js"},
			},
			wantIntents: []intentCall{{path: "/proj2/x.js", workspace: "other"}},
		},
		{
			name: "reload and whole workspace publish together",
			event: bus.WorkspaceChanged{
				WorkspaceName: "workspace",
				Publish:       &bus.PublishIntent{Workspace: true, Path: "/ignored"},
			},
			wantReloads: 1,
			wantIntents: []intentCall{{path: "/workspace/*"}},
		},
		{
			name: "empty intent does nothing",
			event: bus.WorkspaceChanged{
				WorkspaceName: "other",
				Publish:       &bus.PublishIntent{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			sink := &fakeIntents{}
			e := New(svc, WithIntents(sink))

			require.NoError(t, e.OnWorkspaceChanged(context.Background(), tt.event))
			assert.Equal(t, tt.wantReloads, svc.loadCount())
			assert.Equal(t, tt.wantIntents, sink.calls)
		})
	}
}

func TestAttach(t *testing.T) {
	svc := &fakeService{}
	sink := &fakeIntents{}
	e := New(svc)
	e.SetIntents(sink)
	hub := bus.NewHub(nil)

	detach := e.Attach(hub)
	hub.Publish(bus.TopicWorkspaceChanged, map[string]any{
		"name":    "workspace",
		"publish": map[string]any{"path": "/proj1/a.js"},
	})
	hub.Publish(bus.TopicWorkspaceChanged, "garbage")
	detach()
	hub.Publish(bus.TopicWorkspaceChanged, bus.WorkspaceChanged{WorkspaceName: "workspace"})

	assert.Equal(t, 1, svc.loadCount())
	assert.Equal(t, []intentCall{{path: "/proj1/a.js", workspace: "workspace"}}, sink.calls)
}

func TestFindAndUnsubscribe(t *testing.T) {
	e := New(&fakeService{})
	calls := 0
	unsubscribe := e.Subscribe(func(Snapshot) { calls++ })

	require.NoError(t, e.ReloadWorkspace(context.Background(), true))
	assert.Equal(t, 2, calls)

	snap := e.Snapshot()
	file := snap.Forest[0].Children[0]
	assert.Same(t, file, e.Find(file.ID))
	assert.Same(t, file, snap.Find(file.ID))
	assert.Nil(t, e.Find("missing"))

	unsubscribe()
	require.NoError(t, e.ReloadWorkspace(context.Background(), false))
	assert.Equal(t, 2, calls)
}

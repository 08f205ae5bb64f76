package config

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"inventory-analytics/filter"
)

var ErrWorkspaceNotFound = errors.New("workspace not found")

// Workspace is one client's in-memory session: its collection and filter.
type Workspace struct {
	ID       uuid.UUID
	Engine   *filter.Engine
	lastSeen atomic.Int64
}

func (workspace *Workspace) touch(now time.Time) {
	workspace.lastSeen.Store(now.UnixNano())
}

func (workspace *Workspace) LastSeen() time.Time {
	return time.Unix(0, workspace.lastSeen.Load())
}

type WorkspaceStore struct {
	workspaces sync.Map
	ttl        time.Duration
	count      atomic.Int64
}

func NewWorkspaceStore(ttl time.Duration) *WorkspaceStore {
	return &WorkspaceStore{ttl: ttl}
}

func (store *WorkspaceStore) Create(now time.Time) *Workspace {
	workspace := &Workspace{ID: uuid.New(), Engine: filter.NewEngine(nil)}
	workspace.touch(now)
	store.workspaces.Store(workspace.ID, workspace)
	store.count.Add(1)
	return workspace
}

// Get returns the live workspace for id and marks it as used.
func (store *WorkspaceStore) Get(id uuid.UUID, now time.Time) (*Workspace, error) {
	value, ok := store.workspaces.Load(id)
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	workspace, ok := value.(*Workspace)
	if !ok {
		store.Delete(id)
		return nil, ErrWorkspaceNotFound
	}
	if store.ttl > 0 && now.Sub(workspace.LastSeen()) > store.ttl {
		store.Delete(id)
		return nil, ErrWorkspaceNotFound
	}
	workspace.touch(now)
	return workspace, nil
}

func (store *WorkspaceStore) Delete(id uuid.UUID) {
	if _, loaded := store.workspaces.LoadAndDelete(id); loaded {
		store.count.Add(-1)
	}
}

// Cleanup removes workspaces idle for longer than the TTL.
func (store *WorkspaceStore) Cleanup(now time.Time) int64 {
	if store.ttl <= 0 {
		return 0
	}
	var removed int64
	store.workspaces.Range(func(key, value any) bool {
		workspace, ok := value.(*Workspace)
		if !ok || now.Sub(workspace.LastSeen()) > store.ttl {
			if _, loaded := store.workspaces.LoadAndDelete(key); loaded {
				store.count.Add(-1)
				removed++
			}
		}
		return true
	})
	return removed
}

func (store *WorkspaceStore) Count() int64 {
	return store.count.Load()
}

func GetWorkspaces() (*WorkspaceStore, error) {
	appState, err := GetAppState()
	if err != nil {
		return nil, errors.New("error getting app state in GetWorkspaces: " + err.Error())
	}
	store := appState.workspaces.Load()
	if store == nil {
		return nil, errors.New("workspace store is not initialized")
	}
	return store, nil
}

func CleanupWorkspaces(now time.Time) (int64, error) {
	store, err := GetWorkspaces()
	if err != nil {
		return 0, err
	}
	return store.Cleanup(now), nil
}

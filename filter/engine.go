package filter

import (
	"sync"
	"time"

	"inventory-analytics/inventory"
	"inventory-analytics/types"
)

type Transition string

const (
	TransitionApplied  Transition = "applied"
	TransitionReplaced Transition = "replaced"
	TransitionToggled  Transition = "toggled_off"
	TransitionCleared  Transition = "cleared"
)

// Next is the filter state machine. Applying the active pair turns the filter
// off, any other pair replaces whatever was active.
func Next(state types.FilterState, dim types.FilterDimension, value string) (types.FilterState, Transition) {
	if state.Matches(dim, value) {
		return types.FilterState{}, TransitionToggled
	}
	next := types.FilterState{Dimension: &dim, Value: &value}
	if state.Active() {
		return next, TransitionReplaced
	}
	return next, TransitionApplied
}

// Snapshot is a consistent read of the engine: the collection, the filter that
// was active, and the subset it selects.
type Snapshot struct {
	Collection *inventory.Collection
	State      types.FilterState
	Devices    []types.Device
}

// Engine owns the working collection and the single active filter. The
// collection is replaced wholesale by Load, which also clears the filter.
type Engine struct {
	mu         sync.Mutex
	collection *inventory.Collection
	state      types.FilterState
}

func NewEngine(collection *inventory.Collection) *Engine {
	return &Engine{collection: collection}
}

func (engine *Engine) Load(collection *inventory.Collection) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.collection = collection
	engine.state = types.FilterState{}
}

// ApplyFilter runs one transition and returns the resulting subset.
func (engine *Engine) ApplyFilter(dim types.FilterDimension, value string, now time.Time) (Snapshot, Transition, error) {
	if !dim.IsValid() {
		return Snapshot{}, "", types.ErrUnknownDimension
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	next, transition := Next(engine.state, dim, value)
	engine.state = next
	return engine.snapshotLocked(now), transition, nil
}

func (engine *Engine) ClearFilter(now time.Time) Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.state = types.FilterState{}
	return engine.snapshotLocked(now)
}

func (engine *Engine) State() types.FilterState {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.state
}

func (engine *Engine) Collection() *inventory.Collection {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.collection
}

func (engine *Engine) Snapshot(now time.Time) Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.snapshotLocked(now)
}

func (engine *Engine) snapshotLocked(now time.Time) Snapshot {
	return Snapshot{
		Collection: engine.collection,
		State:      engine.state,
		Devices:    Apply(engine.collection.Devices(), engine.state, now),
	}
}

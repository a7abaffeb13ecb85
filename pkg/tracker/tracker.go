// Package tracker owns the authoritative mapping from chunk position
// to loaded chunk state and from entity key to tracked entity, for
// every (world, dimension) pair. All operations are meant to run on a
// single tick thread; nothing here takes a lock.
package tracker

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/StoreStation/vibecraft/pkg/world"
)

// EntityViewRadius is the fixed Chebyshev radius within which two
// tracked entities are mutually visible, independent of any loader's
// own chunk-load radius.
const EntityViewRadius = 8

var (
	ErrChunkNotLoaded = errors.New("tracker: chunk not loaded")
	ErrUnknownEntity  = errors.New("tracker: unknown entity key")
)

// EntityKey identifies a tracked entity. Zero is never issued.
type EntityKey int64

// TrackedEntity is the tracker's view of one entity: its carried
// payload is opaque to the tracker (the game layer interprets it).
type TrackedEntity struct {
	Key           EntityKey
	Payload       any
	Loc           world.ChunkLocation
	LoadRadius    *int32 // nil unless this entity is a chunk loader
	KnownEntities map[EntityKey]struct{}
}

// IsLoader reports whether this entity pulls chunks into memory.
func (e *TrackedEntity) IsLoader() bool { return e.LoadRadius != nil }

// EventKind distinguishes the outward events the tracker emits.
type EventKind int

const (
	EvUnloadChunk EventKind = iota
	EvUnloadEntity
	EvRequestLoad
	EvEntityViewsChunks
	EvEntityNoLongerViewsChunks
	EvEntityViewsEntities
	EvEntityNoLongerViewsEntities
)

// Event is the sole outward interface of the tracker; events are
// appended during an operation and drained once per tick.
type Event struct {
	Kind     EventKind
	Location world.Location
	Chunks   []world.ChunkPosition
	Entity   EntityKey
	Entities []EntityKey
	Payloads []any // UnloadChunk: payloads of entities evicted with the chunk
	Payload  any   // UnloadEntity: payload of the removed entity
}

type chunkState struct {
	loaded bool

	// residents are entities physically present once the chunk is loaded.
	residents map[EntityKey]struct{}
	// ticketHolders are loaders with this chunk currently in view; its
	// size is the chunk's ticket_count once loaded.
	ticketHolders map[EntityKey]struct{}
	// loadWaiting is the subset of ticketHolders not yet notified that
	// the chunk arrived; emptied the moment the chunk loads.
	loadWaiting map[EntityKey]struct{}
	// residentAwaiting holds loaders whose own position is this chunk,
	// landed before the chunk itself was loaded.
	residentAwaiting map[EntityKey]struct{}
}

func newChunkState() *chunkState {
	return &chunkState{
		residents:        make(map[EntityKey]struct{}),
		ticketHolders:    make(map[EntityKey]struct{}),
		loadWaiting:      make(map[EntityKey]struct{}),
		residentAwaiting: make(map[EntityKey]struct{}),
	}
}

func (cs *chunkState) empty() bool {
	return len(cs.residents) == 0 && len(cs.ticketHolders) == 0 &&
		len(cs.loadWaiting) == 0 && len(cs.residentAwaiting) == 0
}

type worldState struct {
	chunks          map[world.ChunkPosition]*chunkState
	residentEntities map[EntityKey]struct{}
}

func newWorldState() *worldState {
	return &worldState{
		chunks:           make(map[world.ChunkPosition]*chunkState),
		residentEntities: make(map[EntityKey]struct{}),
	}
}

func (ws *worldState) chunk(pos world.ChunkPosition) *chunkState {
	cs, ok := ws.chunks[pos]
	if !ok {
		cs = newChunkState()
		ws.chunks[pos] = cs
	}
	return cs
}

// Tracker is the chunk and entity tracker for every world/dimension
// the server hosts. It is not safe for concurrent use.
type Tracker struct {
	worlds  map[world.Location]*worldState
	entities map[EntityKey]*TrackedEntity
	nextKey  EntityKey
	events   []Event
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		worlds:   make(map[world.Location]*worldState),
		entities: make(map[EntityKey]*TrackedEntity),
		nextKey:  1,
	}
}

func (t *Tracker) worldFor(loc world.Location) *worldState {
	ws, ok := t.worlds[loc]
	if !ok {
		ws = newWorldState()
		t.worlds[loc] = ws
	}
	return ws
}

func (t *Tracker) emit(e Event) { t.events = append(t.events, e) }

// DrainEvents returns and clears the events accumulated since the
// last drain, in emission order.
func (t *Tracker) DrainEvents() []Event {
	ev := t.events
	t.events = nil
	return ev
}

// loaderViewChunks returns the square of chunks a loader of the given
// radius at center wants loaded: offsets in [-radius, radius), so a
// radius of 2 yields a 4x4 square.
func loaderViewChunks(center world.ChunkPosition, radius int32) []world.ChunkPosition {
	out := make([]world.ChunkPosition, 0, (2*radius)*(2*radius))
	for dx := -radius; dx < radius; dx++ {
		for dz := -radius; dz < radius; dz++ {
			out = append(out, world.ChunkPosition{X: center.X + dx, Z: center.Z + dz})
		}
	}
	return out
}

func chebyshev(a, b world.ChunkPosition) int32 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	if dx > dz {
		return dx
	}
	return dz
}

func sortPositions(ps []world.ChunkPosition) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].X != ps[j].X {
			return ps[i].X < ps[j].X
		}
		return ps[i].Z < ps[j].Z
	})
}

// AddEntity places payload at `at` in the given world/dimension. A
// non-nil loadRadius makes the entity a loader, which immediately
// requests every chunk in its view. A non-loader landing in an
// unloaded chunk is rejected.
func (t *Tracker) AddEntity(locWorld world.Location, at world.ChunkPosition, payload any, loadRadius *int32) (EntityKey, error) {
	loc := world.ChunkLocation{Location: locWorld, Position: at}
	ws := t.worldFor(locWorld)
	cs := ws.chunk(at)

	if loadRadius == nil && !cs.loaded {
		return 0, fmt.Errorf("add entity at %+v: %w", at, ErrChunkNotLoaded)
	}

	key := t.nextKey
	t.nextKey++
	e := &TrackedEntity{
		Key:           key,
		Payload:       payload,
		Loc:           loc,
		LoadRadius:    loadRadius,
		KnownEntities: make(map[EntityKey]struct{}),
	}
	t.entities[key] = e

	if loadRadius != nil {
		t.requestView(locWorld, key, loaderViewChunks(at, *loadRadius))
		if cs.loaded {
			cs.residents[key] = struct{}{}
			ws.residentEntities[key] = struct{}{}
		} else {
			cs.residentAwaiting[key] = struct{}{}
		}
	} else {
		cs.residents[key] = struct{}{}
		ws.residentEntities[key] = struct{}{}
	}

	if _, resident := ws.residentEntities[key]; resident {
		t.recomputeVisibility(locWorld, key)
	}
	return key, nil
}

// requestView registers key as a ticket holder on every chunk in
// view, emitting RequestLoad on the first waiter for an unloaded
// chunk and EntityViewsChunks immediately for an already-loaded one.
func (t *Tracker) requestView(locWorld world.Location, key EntityKey, view []world.ChunkPosition) {
	ws := t.worldFor(locWorld)
	for _, pos := range view {
		cs := ws.chunk(pos)
		cs.ticketHolders[key] = struct{}{}
		if cs.loaded {
			t.emit(Event{Kind: EvEntityViewsChunks, Location: locWorld, Entity: key, Chunks: []world.ChunkPosition{pos}})
			continue
		}
		firstWaiter := len(cs.loadWaiting) == 0
		cs.loadWaiting[key] = struct{}{}
		if firstWaiter {
			t.emit(Event{Kind: EvRequestLoad, Location: locWorld, Chunks: []world.ChunkPosition{pos}})
		}
	}
}

// releaseView drops key's ticket on every chunk in view, unloading
// chunks whose ticket count reaches zero.
func (t *Tracker) releaseView(locWorld world.Location, key EntityKey, view []world.ChunkPosition) {
	ws := t.worldFor(locWorld)
	sortPositions(view)
	for _, pos := range view {
		cs, ok := ws.chunks[pos]
		if !ok {
			continue
		}
		delete(cs.ticketHolders, key)
		delete(cs.loadWaiting, key)
		if !cs.loaded {
			if cs.empty() {
				delete(ws.chunks, pos)
			}
			continue
		}
		if len(cs.ticketHolders) == 0 {
			t.evictChunk(locWorld, pos)
			continue
		}
		t.emit(Event{Kind: EvEntityNoLongerViewsChunks, Location: locWorld, Entity: key, Chunks: []world.ChunkPosition{pos}})
	}
}

func (t *Tracker) evictChunk(locWorld world.Location, pos world.ChunkPosition) {
	ws := t.worldFor(locWorld)
	cs, ok := ws.chunks[pos]
	if !ok {
		return
	}
	residents := make([]EntityKey, 0, len(cs.residents))
	for rk := range cs.residents {
		residents = append(residents, rk)
	}
	sort.Slice(residents, func(i, j int) bool { return residents[i] < residents[j] })

	payloads := make([]any, 0, len(residents))
	for _, rk := range residents {
		ent := t.entities[rk]
		payloads = append(payloads, ent.Payload)
		delete(ws.residentEntities, rk)
		t.clearKnownBy(locWorld, rk)
		delete(t.entities, rk)
	}
	delete(ws.chunks, pos)
	t.emit(Event{Kind: EvUnloadChunk, Location: locWorld, Chunks: []world.ChunkPosition{pos}, Payloads: payloads})
}

// clearKnownBy removes key from every loader's KnownEntities set in
// locWorld, emitting EntityNoLongerViewsEntities for each.
func (t *Tracker) clearKnownBy(locWorld world.Location, key EntityKey) {
	ws := t.worldFor(locWorld)
	others := make([]EntityKey, 0, len(ws.residentEntities))
	for ok := range ws.residentEntities {
		others = append(others, ok)
	}
	sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })
	for _, ok := range others {
		other := t.entities[ok]
		if other == nil || !other.IsLoader() {
			continue
		}
		if _, known := other.KnownEntities[key]; known {
			delete(other.KnownEntities, key)
			t.emit(Event{Kind: EvEntityNoLongerViewsEntities, Location: locWorld, Entity: other.Key, Entities: []EntityKey{key}})
		}
	}
}

// recomputeVisibility re-evaluates mutual visibility between key and
// every other resident entity in locWorld, emitting gain/loss events.
func (t *Tracker) recomputeVisibility(locWorld world.Location, key EntityKey) {
	ws := t.worldFor(locWorld)
	e := t.entities[key]
	if e == nil {
		return
	}
	others := make([]EntityKey, 0, len(ws.residentEntities))
	for ok := range ws.residentEntities {
		others = append(others, ok)
	}
	sort.Slice(others, func(i, j int) bool { return others[i] < others[j] })

	for _, ok := range others {
		if ok == key {
			continue
		}
		other := t.entities[ok]
		if other == nil {
			continue
		}
		within := chebyshev(e.Loc.Position, other.Loc.Position) <= EntityViewRadius

		if e.IsLoader() {
			t.updateKnowledge(locWorld, e, ok, within)
		}
		if other.IsLoader() {
			t.updateKnowledge(locWorld, other, key, within)
		}
	}
}

// dropVisibility clears every visibility relation key participates
// in without removing the entity itself: used when an entity stops
// being resident (e.g. it moves into a chunk that hasn't loaded yet)
// but isn't being unloaded outright.
func (t *Tracker) dropVisibility(locWorld world.Location, key EntityKey) {
	e := t.entities[key]
	if e != nil && e.IsLoader() {
		known := make([]EntityKey, 0, len(e.KnownEntities))
		for target := range e.KnownEntities {
			known = append(known, target)
		}
		sort.Slice(known, func(i, j int) bool { return known[i] < known[j] })
		for _, target := range known {
			delete(e.KnownEntities, target)
			t.emit(Event{Kind: EvEntityNoLongerViewsEntities, Location: locWorld, Entity: key, Entities: []EntityKey{target}})
		}
	}
	t.clearKnownBy(locWorld, key)
}

func (t *Tracker) updateKnowledge(locWorld world.Location, viewer *TrackedEntity, target EntityKey, within bool) {
	_, already := viewer.KnownEntities[target]
	switch {
	case within && !already:
		viewer.KnownEntities[target] = struct{}{}
		t.emit(Event{Kind: EvEntityViewsEntities, Location: locWorld, Entity: viewer.Key, Entities: []EntityKey{target}})
	case !within && already:
		delete(viewer.KnownEntities, target)
		t.emit(Event{Kind: EvEntityNoLongerViewsEntities, Location: locWorld, Entity: viewer.Key, Entities: []EntityKey{target}})
	}
}

// MoveEntity relocates key to newPos within the same world/dimension
// as its current location.
func (t *Tracker) MoveEntity(key EntityKey, newPos world.ChunkPosition) error {
	e, ok := t.entities[key]
	if !ok {
		return ErrUnknownEntity
	}
	oldPos := e.Loc.Position
	if oldPos == newPos {
		return nil
	}
	locWorld := e.Loc.Location
	ws := t.worldFor(locWorld)

	if oldCS, ok := ws.chunks[oldPos]; ok {
		delete(oldCS.residents, key)
	}
	delete(ws.residentEntities, key)

	if e.IsLoader() {
		radius := *e.LoadRadius
		oldView := loaderViewChunks(oldPos, radius)
		newView := loaderViewChunks(newPos, radius)
		newSet := make(map[world.ChunkPosition]struct{}, len(newView))
		for _, p := range newView {
			newSet[p] = struct{}{}
		}
		oldSet := make(map[world.ChunkPosition]struct{}, len(oldView))
		for _, p := range oldView {
			oldSet[p] = struct{}{}
		}

		var leaving, entering []world.ChunkPosition
		for _, p := range oldView {
			if _, stillIn := newSet[p]; !stillIn {
				leaving = append(leaving, p)
			}
		}
		for _, p := range newView {
			if _, wasIn := oldSet[p]; !wasIn {
				entering = append(entering, p)
			}
		}
		sortPositions(leaving)
		sortPositions(entering)
		t.releaseView(locWorld, key, leaving)
		t.requestView(locWorld, key, entering)
	}

	newCS := ws.chunk(newPos)
	e.Loc = world.ChunkLocation{Location: locWorld, Position: newPos}

	switch {
	case newCS.loaded:
		newCS.residents[key] = struct{}{}
		ws.residentEntities[key] = struct{}{}
		t.recomputeVisibility(locWorld, key)
	case e.IsLoader():
		newCS.residentAwaiting[key] = struct{}{}
		t.dropVisibility(locWorld, key)
	default:
		// A non-loader moving into an unloaded chunk is unloaded outright.
		t.unloadEntityLocked(key, false)
	}
	return nil
}

// UnloadEntity removes key entirely, notifying every loader that had
// it in view.
func (t *Tracker) UnloadEntity(key EntityKey) error {
	if _, ok := t.entities[key]; !ok {
		return ErrUnknownEntity
	}
	t.unloadEntityLocked(key, true)
	return nil
}

func (t *Tracker) unloadEntityLocked(key EntityKey, emitEvent bool) {
	e := t.entities[key]
	if e == nil {
		return
	}
	locWorld := e.Loc.Location
	ws := t.worldFor(locWorld)

	if cs, ok := ws.chunks[e.Loc.Position]; ok {
		delete(cs.residents, key)
		delete(cs.residentAwaiting, key)
	}
	delete(ws.residentEntities, key)
	t.clearKnownBy(locWorld, key)

	if e.IsLoader() {
		t.releaseView(locWorld, key, loaderViewChunks(e.Loc.Position, *e.LoadRadius))
	}

	delete(t.entities, key)
	if emitEvent {
		t.emit(Event{Kind: EvUnloadEntity, Location: locWorld, Payload: e.Payload})
	}
}

// AddChunk attaches waiting loaders and resident-awaiting entities
// for loc, discarding the arrival if nobody wants it.
func (t *Tracker) AddChunk(locWorld world.Location, pos world.ChunkPosition) {
	ws := t.worldFor(locWorld)
	cs, ok := ws.chunks[pos]
	if !ok || cs.empty() {
		log.Printf("tracker: discarding chunk %+v in %+v, no waiters", pos, locWorld)
		delete(ws.chunks, pos)
		return
	}

	cs.loaded = true

	waiters := make([]EntityKey, 0, len(cs.loadWaiting))
	for wk := range cs.loadWaiting {
		waiters = append(waiters, wk)
	}
	sort.Slice(waiters, func(i, j int) bool { return waiters[i] < waiters[j] })
	for _, wk := range waiters {
		t.emit(Event{Kind: EvEntityViewsChunks, Location: locWorld, Entity: wk, Chunks: []world.ChunkPosition{pos}})
	}
	cs.loadWaiting = make(map[EntityKey]struct{})

	attached := make([]EntityKey, 0, len(cs.residentAwaiting))
	for rk := range cs.residentAwaiting {
		attached = append(attached, rk)
	}
	sort.Slice(attached, func(i, j int) bool { return attached[i] < attached[j] })
	cs.residentAwaiting = make(map[EntityKey]struct{})
	for _, rk := range attached {
		cs.residents[rk] = struct{}{}
		ws.residentEntities[rk] = struct{}{}
		if ent := t.entities[rk]; ent != nil {
			ent.Loc = world.ChunkLocation{Location: locWorld, Position: pos}
		}
	}
	for _, rk := range attached {
		t.recomputeVisibility(locWorld, rk)
	}
}

// Entity returns the tracked entity for key, or nil if unknown.
func (t *Tracker) Entity(key EntityKey) *TrackedEntity { return t.entities[key] }

// TicketCount reports the current ticket count of a loaded chunk (0
// if unloaded or absent).
func (t *Tracker) TicketCount(locWorld world.Location, pos world.ChunkPosition) int {
	ws, ok := t.worlds[locWorld]
	if !ok {
		return 0
	}
	cs, ok := ws.chunks[pos]
	if !ok || !cs.loaded {
		return 0
	}
	return len(cs.ticketHolders)
}

// Package regionio runs one worker goroutine per dimension, each
// owning that dimension's region.Manager exclusively, so chunk load
// and save never block the tick thread. All interaction between the
// tick thread and a worker happens over channels — no mutable state
// is shared.
package regionio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/StoreStation/vibecraft/pkg/region"
	"github.com/StoreStation/vibecraft/pkg/world"
)

// ErrDimensionNotLoaded is returned when a command names a dimension
// the pool hasn't been told to load via AddDimension.
var ErrDimensionNotLoaded = errors.New("regionio: dimension not loaded")

// Command is one request sent to a dimension's worker.
type Command struct {
	Dimension world.Dimension
	Position  world.ChunkPosition

	// Save is nil for a LoadChunk command, non-nil for a SaveChunk
	// command.
	Save *world.Chunk
}

// Result is a response routed back over the shared response channel,
// tagged with the dimension so callers can demultiplex.
type Result struct {
	Dimension world.Dimension
	Position  world.ChunkPosition

	// Exactly one of Chunk, NeedsGeneration, or Err is set.
	Chunk           *world.Chunk
	NeedsGeneration bool
	Err             error
}

// Pool owns one worker per loaded dimension plus the shared response
// channel those workers publish to.
type Pool struct {
	worldRoot string
	compress  region.CompressionType

	results chan Result

	commands map[world.Dimension]chan Command
	managers map[world.Dimension]*region.Manager

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Pool rooted at worldRoot. Results are delivered on
// the channel Results returns until every worker has shut down, at
// which point it is closed.
func New(worldRoot string, compress region.CompressionType) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	return &Pool{
		worldRoot: worldRoot,
		compress:  compress,
		results:   make(chan Result, 64),
		commands:  make(map[world.Dimension]chan Command),
		managers:  make(map[world.Dimension]*region.Manager),
		group:     group,
		ctx:       gctx,
		cancel:    cancel,
	}
}

// Results returns the shared, dimension-tagged response channel.
func (p *Pool) Results() <-chan Result { return p.results }

// AddDimension starts a worker for dim if one isn't already running.
func (p *Pool) AddDimension(dim world.Dimension) {
	if _, ok := p.commands[dim]; ok {
		return
	}
	cmds := make(chan Command, 256)
	mgr := region.NewManager(p.worldRoot, dim, p.compress)
	p.commands[dim] = cmds
	p.managers[dim] = mgr

	p.group.Go(func() error {
		return p.runWorker(dim, mgr, cmds)
	})
}

// LoadChunk enqueues a load request for (dim, pos). The response
// arrives asynchronously on Results().
func (p *Pool) LoadChunk(dim world.Dimension, pos world.ChunkPosition) error {
	ch, ok := p.commands[dim]
	if !ok {
		return fmt.Errorf("%w: dimension %d", ErrDimensionNotLoaded, dim)
	}
	ch <- Command{Dimension: dim, Position: pos}
	return nil
}

// SaveChunk enqueues a save request for (dim, pos, chunk).
func (p *Pool) SaveChunk(dim world.Dimension, pos world.ChunkPosition, chunk *world.Chunk) error {
	ch, ok := p.commands[dim]
	if !ok {
		return fmt.Errorf("%w: dimension %d", ErrDimensionNotLoaded, dim)
	}
	ch <- Command{Dimension: dim, Position: pos, Save: chunk}
	return nil
}

// Shutdown signals every worker to stop after draining its queue,
// waits for them, and closes the result channel.
func (p *Pool) Shutdown() error {
	for _, ch := range p.commands {
		close(ch)
	}
	err := p.group.Wait()
	p.cancel()
	for dim, mgr := range p.managers {
		if cerr := mgr.Close(); cerr != nil {
			log.Printf("regionio: error closing dimension %d: %v", dim, cerr)
		}
	}
	close(p.results)
	return err
}

func (p *Pool) runWorker(dim world.Dimension, mgr *region.Manager, cmds <-chan Command) error {
	for cmd := range cmds {
		if cmd.Save != nil {
			p.handleSave(dim, mgr, cmd)
		} else {
			p.handleLoad(dim, mgr, cmd)
		}
	}
	return nil
}

func (p *Pool) handleLoad(dim world.Dimension, mgr *region.Manager, cmd Command) {
	chunk, _, err := mgr.LoadChunk(cmd.Position)
	switch {
	case err == nil:
		p.results <- Result{Dimension: dim, Position: cmd.Position, Chunk: chunk}
	case errors.Is(err, region.ErrChunkNotPresent):
		p.results <- Result{Dimension: dim, Position: cmd.Position, NeedsGeneration: true}
	default:
		p.results <- Result{Dimension: dim, Position: cmd.Position, Err: err}
	}
}

func (p *Pool) handleSave(dim world.Dimension, mgr *region.Manager, cmd Command) {
	if err := mgr.SaveChunk(cmd.Position, cmd.Save, time.Now()); err != nil {
		p.results <- Result{Dimension: dim, Position: cmd.Position, Err: err}
	}
}

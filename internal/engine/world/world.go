// Package world owns the entities and drives their per-tick updates.
package world

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/ga-engine/internal/engine/entity"
	"github.com/Faultbox/ga-engine/internal/engine/frame"
	"github.com/Faultbox/ga-engine/internal/logger"
)

// World is a set of entities sharing one static draw list.
type World struct {
	mu       sync.RWMutex
	entities []*entity.Entity
	workers  int
	frame    uint64
	list     *frame.DrawList
}

// New returns an empty world that updates at most workers entities at once.
// workers < 1 means one.
func New(workers int) *World {
	if workers < 1 {
		workers = 1
	}
	return &World{
		workers: workers,
		list:    frame.NewDrawList(64),
	}
}

// Spawn creates and adds a new entity.
func (w *World) Spawn(name string) *entity.Entity {
	e := entity.New(name)
	w.Add(e)
	return e
}

// Add inserts an existing entity.
func (w *World) Add(e *entity.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = append(w.entities, e)
}

// Entities returns the current entities.
func (w *World) Entities() []*entity.Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*entity.Entity(nil), w.entities...)
}

// DrawList returns the list every tick appends to.
func (w *World) DrawList() *frame.DrawList { return w.list }

// Tick runs one update of every entity concurrently and returns the frame parameters.
// The draw list is not cleared; the renderer drains it.
func (w *World) Tick(ctx context.Context, dt time.Duration) (*frame.Params, error) {
	w.mu.Lock()
	w.frame++
	n := w.frame
	w.mu.Unlock()

	params := frame.NewParams(n, dt, w.list)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, e := range w.Entities() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.Update(params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return params, err
	}
	return params, nil
}

// Close closes every entity and empties the world.
func (w *World) Close() {
	w.mu.Lock()
	ents := w.entities
	w.entities = nil
	w.mu.Unlock()

	for _, e := range ents {
		e.Close()
	}
	w.list.Reset()
	logger.Debug("world closed", zap.Int("entities", len(ents)))
}

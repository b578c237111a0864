package nodestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// Logger is the logging interface used by the persister.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Persister writes changed nodes of a world to a Repository.
//
// It implements bus.ChangeListener and bus.BlockListener. Flush must run
// on the bus loop so that block state is read consistently.
type Persister struct {
	world  *bus.World
	repo   Repository
	logger Logger
	now    func() time.Time

	mu      sync.Mutex
	dirty   map[grid.Pos]struct{}
	removed map[grid.Pos]struct{}
}

// NewPersister creates a persister for world and registers it as a
// listener.
func NewPersister(world *bus.World, repo Repository) *Persister {
	p := &Persister{
		world:   world,
		repo:    repo,
		logger:  noopLogger{},
		now:     time.Now,
		dirty:   make(map[grid.Pos]struct{}),
		removed: make(map[grid.Pos]struct{}),
	}
	world.AddBlockListener(p)
	world.AddChangeListener(p)
	return p
}

// SetLogger sets the logger.
func (p *Persister) SetLogger(l Logger) {
	if l != nil {
		p.logger = l
	}
}

// BlockChanged implements bus.ChangeListener.
func (p *Persister) BlockChanged(pos grid.Pos) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty[pos] = struct{}{}
}

// BlockAdded implements bus.BlockListener.
func (p *Persister) BlockAdded(pos grid.Pos, b bus.Block) {
	if _, ok := b.(Persistable); !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.removed, pos)
	p.dirty[pos] = struct{}{}
}

// BlockRemoved implements bus.BlockListener.
func (p *Persister) BlockRemoved(pos grid.Pos, b bus.Block) {
	if _, ok := b.(Persistable); !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.dirty, pos)
	p.removed[pos] = struct{}{}
}

// Pending returns the number of positions waiting to be written.
func (p *Persister) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dirty) + len(p.removed)
}

// Flush saves every changed node and deletes the records of removed ones.
// Positions that fail stay pending for the next flush.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	dirty, removed := p.dirty, p.removed
	p.dirty = make(map[grid.Pos]struct{})
	p.removed = make(map[grid.Pos]struct{})
	p.mu.Unlock()

	var errs error
	for _, pos := range sortedKeys(removed) {
		err := p.repo.Delete(ctx, pos)
		if err != nil && !errors.Is(err, ErrRecordNotFound) {
			errs = multierr.Append(errs, err)
			p.retry(pos, true)
		}
	}

	for _, pos := range sortedKeys(dirty) {
		if err := p.save(ctx, pos); err != nil {
			errs = multierr.Append(errs, err)
			p.retry(pos, false)
		}
	}

	if errs != nil {
		p.logger.Warn("flushing node state", "error", errs)
	}
	return errs
}

func (p *Persister) save(ctx context.Context, pos grid.Pos) error {
	block, ok := p.world.Block(pos).(Persistable)
	if !ok {
		return nil
	}
	state, err := block.SaveState()
	if err != nil {
		return fmt.Errorf("encoding node %s: %w", pos, err)
	}
	return p.repo.Save(ctx, &Record{
		Pos:       pos,
		Kind:      block.Kind(),
		State:     state,
		UpdatedAt: p.now().UTC(),
	})
}

func (p *Persister) retry(pos grid.Pos, removed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if removed {
		if _, readded := p.dirty[pos]; !readded {
			p.removed[pos] = struct{}{}
		}
		return
	}
	if _, gone := p.removed[pos]; !gone {
		p.dirty[pos] = struct{}{}
	}
}

// Restore loads stored records into the persistable blocks placed in the
// world and returns how many were restored. Records whose position holds no
// block of the same kind are skipped.
func (p *Persister) Restore(ctx context.Context) (int, error) {
	records, err := p.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing node records: %w", err)
	}

	restored := 0
	var errs error
	for _, rec := range records {
		block, ok := p.world.Block(rec.Pos).(Persistable)
		if !ok || block.Kind() != rec.Kind {
			p.logger.Debug("skipping stored node", "pos", rec.Pos.String(), "kind", rec.Kind)
			continue
		}
		if err := block.LoadState(rec.State); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("restoring node %s: %w", rec.Pos, err))
			continue
		}
		restored++
	}
	return restored, errs
}

func sortedKeys(m map[grid.Pos]struct{}) []grid.Pos {
	out := make([]grid.Pos, 0, len(m))
	for pos := range m {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

package bus

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultTickInterval is the scheduling window of the bus loop.
const DefaultTickInterval = 50 * time.Millisecond

// Loop is the authoritative execution context of a network.
//
// One goroutine runs submitted tasks and ticks the network. It implements
// rpc.Executor, so synchronised RPC methods run serialised with scans and
// topology mutations.
type Loop struct {
	net      *Network
	interval time.Duration
	logger   Logger

	tasks   chan task
	stopped chan struct{}
	stop    sync.Once

	mu        sync.Mutex
	afterTick []func(ctx context.Context)
}

type task struct {
	fn   func()
	done chan error
}

type loopKey struct{}

// NewLoop creates a loop ticking net every interval.
func NewLoop(net *Network, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Loop{
		net:      net,
		interval: interval,
		logger:   noopLogger{},
		tasks:    make(chan task),
		stopped:  make(chan struct{}),
	}
}

// SetLogger sets the logger.
func (l *Loop) SetLogger(logger Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// AfterTick registers fn to run on the loop after every tick that committed
// at least one scan, and after every task.
func (l *Loop) AfterTick(fn func(ctx context.Context)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.afterTick = append(l.afterTick, fn)
}

// Run processes tasks and ticks until ctx is cancelled. Hooks run once more
// before Run returns so late changes are not lost.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop.Do(func() { close(l.stopped) })

	loopCtx := context.WithValue(ctx, loopKey{}, l)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("bus loop started", "interval", l.interval.String())
	for {
		select {
		case <-ctx.Done():
			l.runHooks(context.WithoutCancel(loopCtx))
			l.logger.Info("bus loop stopped")
			return nil

		case t := <-l.tasks:
			t.done <- l.runTask(t.fn)
			l.runHooks(loopCtx)

		case <-ticker.C:
			if l.net.Tick() > 0 {
				l.runHooks(loopCtx)
			}
		}
	}
}

func (l *Loop) runTask(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in bus task", "panic", r)
			err = fmt.Errorf("bus task panicked: %v", r)
		}
	}()
	fn()
	return nil
}

func (l *Loop) runHooks(ctx context.Context) {
	l.mu.Lock()
	hooks := append(([]func(context.Context))(nil), l.afterTick...)
	l.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx)
	}
}

// Execute runs fn on the loop and waits for it. Called from the loop itself
// (with a context derived from the loop's), fn runs inline.
//
// Once fn has been handed over, Execute waits for it to finish even if ctx
// is cancelled, so fn never outlives the call.
func (l *Loop) Execute(ctx context.Context, fn func()) error {
	if owner, _ := ctx.Value(loopKey{}).(*Loop); owner == l {
		return l.runTask(fn)
	}

	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case l.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrLoopStopped
	}
	return <-t.done
}

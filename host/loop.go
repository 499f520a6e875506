package host

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultTickInterval matches the host's scheduler resolution
const DefaultTickInterval = 100 * time.Millisecond

type timer struct {
	at int
	fn func()
}

// Loop serializes every event touching the song and the surface onto one
// goroutine. It also implements surface.Scheduler with ticks of a fixed
// interval.
type Loop struct {
	posts    chan func()
	done     chan struct{}
	interval time.Duration
	log      *zap.Logger

	now     int
	pending []timer
}

// NewLoop creates a loop; call Run to start processing
func NewLoop(interval time.Duration, log *zap.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		posts:    make(chan func(), 256),
		done:     make(chan struct{}),
		interval: interval,
		log:      log,
	}
}

// Post queues fn to run on the loop goroutine. It is safe to call from any
// goroutine and returns ErrLoopStopped once Run has returned.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.posts <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Schedule runs fn after the given number of ticks. Loop goroutine only.
func (l *Loop) Schedule(ticks int, fn func()) {
	if ticks < 1 {
		ticks = 1
	}
	l.pending = append(l.pending, timer{at: l.now + ticks, fn: fn})
}

// Advance moves the loop forward by one tick and fires due timers in the
// order they were scheduled.
func (l *Loop) Advance() {
	l.now++
	due := l.pending[:0:0]
	keep := l.pending[:0]
	for _, t := range l.pending {
		if t.at <= l.now {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	l.pending = keep
	for _, t := range due {
		l.run("timer", t.fn)
	}
}

// Pending reports how many timers have not fired yet
func (l *Loop) Pending() int { return len(l.pending) }

// Flush runs every queued post without blocking
func (l *Loop) Flush() {
	for {
		select {
		case fn := <-l.posts:
			l.run("post", fn)
		default:
			return
		}
	}
}

// Run processes posts and ticks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Flush()
			return ctx.Err()
		case <-ticker.C:
			l.Advance()
		case fn := <-l.posts:
			l.run("post", fn)
		}
	}
}

func (l *Loop) run(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("loop callback failed", zap.String("kind", kind), zap.Any("panic", r))
		}
	}()
	fn()
}

// internal/game/loop.go
//
// Loop drives an Engine in real time.
// Responsibilities:
//   - Chain ticks: each tick schedules the next one after the engine's
//     current speed, so speed changes apply from the following tick.
//   - Serialize ticks, turn requests and control calls behind one mutex so
//     a half-applied tick is never observed.
//   - Cancel the outstanding tick on pause/reset/close; a tick that fires
//     after cancellation is dropped via a generation token.
//   - On game over, hand the final score to the ScoreReporter in its own
//     goroutine; failures are logged and otherwise ignored.
//   - Push a Snapshot to the observer after each tick and transition.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Timer is a cancellable scheduled callback. Stop must be safe to call
// more than once and after the callback has fired.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealScheduler schedules on the runtime timer heap.
func RealScheduler() Scheduler { return realScheduler{} }

// ScoreReporter receives the final score of every finished run.
type ScoreReporter interface {
	ReportScore(ctx context.Context, score int) error
}

// ReporterFunc adapts a function to ScoreReporter.
type ReporterFunc func(ctx context.Context, score int) error

func (f ReporterFunc) ReportScore(ctx context.Context, score int) error { return f(ctx, score) }

const defaultReportTimeout = 5 * time.Second

// Loop owns an Engine and its tick schedule.
type Loop struct {
	mu       sync.Mutex
	engine   *Engine
	sched    Scheduler
	reporter ScoreReporter
	observer func(Snapshot)
	timeout  time.Duration

	pending Timer  // outstanding tick, nil when none
	gen     uint64 // bumped on every schedule/cancel
	closed  bool

	reports sync.WaitGroup
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithScheduler replaces the real timer scheduler (tests use a manual one).
func WithScheduler(s Scheduler) LoopOption { return func(l *Loop) { l.sched = s } }

// WithReporter sets the game-over score reporter.
func WithReporter(r ScoreReporter) LoopOption { return func(l *Loop) { l.reporter = r } }

// WithObserver sets the render sink. It is called outside the loop's lock.
func WithObserver(fn func(Snapshot)) LoopOption { return func(l *Loop) { l.observer = fn } }

// WithReportTimeout bounds each score report.
func WithReportTimeout(d time.Duration) LoopOption { return func(l *Loop) { l.timeout = d } }

// NewLoop wraps e. The engine must not be used directly afterwards.
func NewLoop(e *Engine, opts ...LoopOption) *Loop {
	l := &Loop{engine: e, sched: RealScheduler(), timeout: defaultReportTimeout}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Start begins or resumes ticking. No-op while running.
func (l *Loop) Start() {
	l.mu.Lock()
	changed := l.startLocked()
	snap := l.engine.Snapshot()
	l.mu.Unlock()
	if changed {
		l.notify(snap)
	}
}

// Pause toggles running and paused.
func (l *Loop) Pause() {
	l.mu.Lock()
	changed := l.pauseLocked()
	snap := l.engine.Snapshot()
	l.mu.Unlock()
	if changed {
		l.notify(snap)
	}
}

// Toggle is the combined pause/start input: pause while running,
// otherwise start.
func (l *Loop) Toggle() {
	l.mu.Lock()
	var changed bool
	if l.engine.State() == StateRunning {
		changed = l.pauseLocked()
	} else {
		changed = l.startLocked()
	}
	snap := l.engine.Snapshot()
	l.mu.Unlock()
	if changed {
		l.notify(snap)
	}
}

// Reset cancels any pending tick and returns the engine to a fresh idle run.
func (l *Loop) Reset() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.cancelLocked()
	l.engine.Reset()
	snap := l.engine.Snapshot()
	l.mu.Unlock()
	l.notify(snap)
}

// Turn forwards a direction request to the engine.
func (l *Loop) Turn(d Direction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.RequestTurn(d)
}

// Snapshot returns a copy of the current engine state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.Snapshot()
}

// Close stops ticking for good and waits for in-flight score reports.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.cancelLocked()
	l.mu.Unlock()
	l.reports.Wait()
}

// Wait blocks until in-flight score reports have finished.
func (l *Loop) Wait() { l.reports.Wait() }

func (l *Loop) startLocked() bool {
	if l.closed || !l.engine.Start() {
		return false
	}
	l.scheduleLocked()
	return true
}

func (l *Loop) pauseLocked() bool {
	if l.closed || !l.engine.Pause() {
		return false
	}
	if l.engine.State() == StatePaused {
		l.cancelLocked()
	} else {
		l.scheduleLocked()
	}
	return true
}

// scheduleLocked replaces any pending tick with one after the current speed.
func (l *Loop) scheduleLocked() {
	l.cancelLocked()
	gen := l.gen
	delay := time.Duration(l.engine.Speed()) * time.Millisecond
	l.pending = l.sched.AfterFunc(delay, func() { l.tick(gen) })
}

// cancelLocked stops the pending tick and invalidates any that already fired.
func (l *Loop) cancelLocked() {
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
	l.gen++
}

func (l *Loop) tick(gen uint64) {
	l.mu.Lock()
	if gen != l.gen || l.closed || l.engine.State() != StateRunning {
		l.mu.Unlock()
		return
	}
	l.pending = nil
	over := l.engine.Step()
	if !over {
		l.scheduleLocked()
	}
	send := over && l.reporter != nil
	if send {
		// Counted under the lock so Close cannot miss it.
		l.reports.Add(1)
	}
	snap := l.engine.Snapshot()
	l.mu.Unlock()

	if over {
		log.Info().Int("score", snap.FinalScore).Int("highScore", snap.HighScore).Msg("game over")
	}
	if send {
		l.report(snap.FinalScore)
	}
	l.notify(snap)
}

// report sends score fire-and-forget. The caller has already added to
// l.reports.
func (l *Loop) report(score int) {
	go func() {
		defer l.reports.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Int("score", score).Msg("score reporter panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		if err := l.reporter.ReportScore(ctx, score); err != nil {
			log.Warn().Err(err).Int("score", score).Msg("report score")
		}
	}()
}

func (l *Loop) notify(s Snapshot) {
	if l.observer != nil {
		l.observer(s)
	}
}

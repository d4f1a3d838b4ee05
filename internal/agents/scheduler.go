// Timer-driven agent message scheduler
package agents

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"netenergy-sim/internal/logging"
)

// DefaultInterval is the reference delay between two messages.
const DefaultInterval = 3 * time.Second

// State is the lifecycle state of a Scheduler.
type State int

// Scheduler states.
const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

var (
	// ErrRunning is returned by Start when the scheduler is already running.
	ErrRunning = errors.New("agents: scheduler already running")
	// ErrInvalidInterval is returned by Start for a non-positive interval.
	ErrInvalidInterval = errors.New("agents: interval must be positive")
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithHistoryCapacity overrides the number of retained messages.
func WithHistoryCapacity(n int) Option {
	return func(s *Scheduler) { s.history = NewHistory(n) }
}

// Scheduler cycles through a fixed script, emitting one message per tick
// into a bounded most-recent-first history.
type Scheduler struct {
	mu      sync.Mutex
	script  []Template
	counter uint64
	history *History
	now     func() time.Time
	hooks   []func(Message)

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler validates script and returns an idle scheduler.
func NewScheduler(script []Template, opts ...Option) (*Scheduler, error) {
	if err := ValidateScript(script); err != nil {
		return nil, err
	}
	s := &Scheduler{
		script:  append([]Template(nil), script...),
		history: NewHistory(DefaultHistoryCapacity),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OnTick registers fn to receive every emitted message. Hooks run on the
// ticking goroutine after the history is updated and must not call Stop.
func (s *Scheduler) OnTick(fn func(Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Tick advances the counter and emits the next scripted message.
func (s *Scheduler) Tick() Message {
	s.mu.Lock()
	tpl := s.script[s.counter%uint64(len(s.script))]
	s.counter++
	msg := Message{
		ID:        "msg-" + uuid.NewString(),
		From:      tpl.From,
		To:        tpl.To,
		Content:   tpl.Content,
		Timestamp: s.now().UTC(),
	}
	s.history.Push(msg)
	hooks := s.hooks
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(msg)
	}
	return msg
}

// History returns the retained messages, most recent first.
func (s *Scheduler) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Recent()
}

// Counter returns the number of ticks so far.
func (s *Scheduler) Counter() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Position returns the script index the next tick will emit.
func (s *Scheduler) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.counter % uint64(len(s.script)))
}

// CurrentAgent returns the agent highlighted at the current counter.
func (s *Scheduler) CurrentAgent() Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Agents[s.counter%uint64(len(Agents))]
}

// State reports whether the timer loop is running.
func (s *Scheduler) State() State {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.done == nil {
		return Idle
	}
	select {
	case <-s.done:
		return Idle
	default:
		return Running
	}
}

// Start begins ticking every interval until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.done != nil {
		select {
		case <-s.done:
			s.cancel()
		default:
			return ErrRunning
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.loop(ctx, interval, done)
	return nil
}

// Stop halts the timer loop and waits for it to exit. No tick runs after
// Stop returns. Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.done == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

// Run starts the scheduler and blocks until ctx is done, then stops it.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if err := s.Start(ctx, interval); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	log := logging.FromContext(ctx)
	log.Info("starting agent scheduler", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// a fire selected together with cancellation is dropped
			if ctx.Err() != nil {
				return
			}
			msg := s.Tick()
			log.Debug("agent message", "from", msg.From, "to", msg.To, "content", msg.Content)
		case <-ctx.Done():
			log.Info("stopping agent scheduler")
			return
		}
	}
}

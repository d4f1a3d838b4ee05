package agents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewSchedulerRejectsEmptyScript(t *testing.T) {
	if _, err := NewScheduler(nil); !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("expected ErrEmptyScript, got %v", err)
	}
}

func TestNewSchedulerRejectsUnknownAgent(t *testing.T) {
	script := []Template{{From: AgentIngest, To: "planner", Content: "x"}}
	if _, err := NewScheduler(script); !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestTickFollowsScriptModuloLength(t *testing.T) {
	s, err := NewScheduler(DefaultScript)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	for n := 1; n <= 20; n++ {
		msg := s.Tick()
		want := DefaultScript[(n-1)%len(DefaultScript)]
		if msg.From != want.From || msg.To != want.To || msg.Content != want.Content {
			t.Fatalf("tick %d emitted %+v, want %+v", n, msg, want)
		}
		if got := s.History()[0]; got.ID != msg.ID {
			t.Fatalf("tick %d: newest history entry %s, want %s", n, got.ID, msg.ID)
		}
	}
}

func TestSeventhTickWrapsToFirstTemplate(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	var msg Message
	for i := 0; i < 7; i++ {
		msg = s.Tick()
	}
	if msg.Content != DefaultScript[0].Content {
		t.Errorf("7th message = %q, want %q", msg.Content, DefaultScript[0].Content)
	}
	if s.Position() != 1 {
		t.Errorf("position = %d, want 1", s.Position())
	}
}

func TestHistoryBoundedMostRecentFirst(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	var emitted []Message
	for i := 0; i < 20; i++ {
		emitted = append(emitted, s.Tick())
		if n := len(s.History()); n > DefaultHistoryCapacity {
			t.Fatalf("history has %d entries", n)
		}
	}
	h := s.History()
	if len(h) != DefaultHistoryCapacity {
		t.Fatalf("history len = %d, want %d", len(h), DefaultHistoryCapacity)
	}
	for i, m := range h {
		if want := emitted[len(emitted)-1-i]; m.ID != want.ID {
			t.Errorf("history[%d] = %s, want %s", i, m.ID, want.ID)
		}
	}
}

func TestCurrentAgentProjection(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	for n := 0; n < 10; n++ {
		if got, want := s.CurrentAgent(), Agents[n%len(Agents)]; got != want {
			t.Errorf("after %d ticks current agent = %s, want %s", n, got, want)
		}
		s.Tick()
	}
}

func TestTickUsesClock(t *testing.T) {
	ts := time.Date(2025, 1, 11, 10, 30, 0, 0, time.UTC)
	s, _ := NewScheduler(DefaultScript, WithClock(func() time.Time { return ts }))
	if msg := s.Tick(); !msg.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", msg.Timestamp, ts)
	}
}

func TestOnTickHook(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	var got []Message
	s.OnTick(func(m Message) { got = append(got, m) })
	s.Tick()
	s.Tick()
	if len(got) != 2 || got[1].Content != DefaultScript[1].Content {
		t.Errorf("unexpected hook messages: %+v", got)
	}
}

func TestConcurrentTicksSerialized(t *testing.T) {
	s, _ := NewScheduler(DefaultScript, WithHistoryCapacity(4))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Tick()
		}()
	}
	wg.Wait()
	if s.Counter() != 50 {
		t.Errorf("counter = %d, want 50", s.Counter())
	}
	if len(s.History()) != 4 {
		t.Errorf("history len = %d, want 4", len(s.History()))
	}
}

func TestStartStopNoTickAfterStop(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	for round := 0; round < 5; round++ {
		if err := s.Start(context.Background(), time.Millisecond); err != nil {
			t.Fatalf("round %d Start: %v", round, err)
		}
		if s.State() != Running {
			t.Fatalf("round %d: expected running", round)
		}
		time.Sleep(5 * time.Millisecond)
		s.Stop()
		if s.State() != Idle {
			t.Fatalf("round %d: expected idle", round)
		}
		counter := s.Counter()
		history := s.History()
		time.Sleep(10 * time.Millisecond)
		if s.Counter() != counter {
			t.Fatalf("round %d: counter moved after Stop: %d -> %d", round, counter, s.Counter())
		}
		after := s.History()
		if len(after) != len(history) || (len(after) > 0 && after[0].ID != history[0].ID) {
			t.Fatalf("round %d: history changed after Stop", round)
		}
	}
	if s.Counter() == 0 {
		t.Error("expected the timer to tick at least once")
	}
}

func TestStartTwiceFails(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	if err := s.Start(context.Background(), time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if err := s.Start(context.Background(), time.Hour); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning, got %v", err)
	}
}

func TestStartInvalidInterval(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	if err := s.Start(context.Background(), 0); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestStopIdleIsNoop(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	s.Stop()
	if s.State() != Idle {
		t.Error("expected idle")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	s, _ := NewScheduler(DefaultScript)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if s.State() != Idle {
		t.Error("expected idle after Run returned")
	}
}

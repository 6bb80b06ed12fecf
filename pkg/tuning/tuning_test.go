package tuning

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMonitorEdges(t *testing.T) {
	t.Run("Counts Rising Edges Only", func(t *testing.T) {
		m := NewMonitor(nil)
		m.Edge(true, true)
		m.Edge(false, true)
		m.Edge(true, true)

		if m.Pulses() != 2 {
			t.Errorf("Expected 2 pulses, got %d", m.Pulses())
		}
	})

	t.Run("Direction From Phase B", func(t *testing.T) {
		m := NewMonitor(nil)

		m.Edge(true, true)
		_, dir, ok := m.Consume()
		if !ok || dir != 1 {
			t.Errorf("Expected clockwise +1, got %d (ok=%t)", dir, ok)
		}

		m.Edge(true, false)
		_, dir, ok = m.Consume()
		if !ok || dir != -1 {
			t.Errorf("Expected counter-clockwise -1, got %d (ok=%t)", dir, ok)
		}
	})

	t.Run("Edge Callback", func(t *testing.T) {
		count := 0
		m := NewMonitor(func() { count++ })
		m.Edge(true, true)
		m.Edge(false, false)
		m.Edge(true, false)

		if count != 2 {
			t.Errorf("Expected callback twice, got %d", count)
		}
		if m.Edges() != 2 {
			t.Errorf("Expected 2 edges, got %d", m.Edges())
		}
	})
}

func TestMonitorConsume(t *testing.T) {
	m := NewMonitor(nil)

	if _, _, ok := m.Consume(); ok {
		t.Error("Expected nothing to consume on a fresh monitor")
	}

	for i := 0; i < 4; i++ {
		m.Edge(true, true)
	}

	pulses, dir, ok := m.Consume()
	if !ok {
		t.Fatal("Expected pending movement")
	}
	if pulses != 4 || dir != 1 {
		t.Errorf("Expected 4 pulses +1, got %d %d", pulses, dir)
	}

	if _, _, ok := m.Consume(); ok {
		t.Error("Expected direction to be cleared after consume")
	}

	// The window keeps counting until the time base clears it
	m.Edge(true, true)
	pulses, _, _ = m.Consume()
	if pulses != 5 {
		t.Errorf("Expected window to hold 5 pulses, got %d", pulses)
	}
}

func TestDelta(t *testing.T) {
	cases := []struct {
		pulses int64
		dir    int
		delta  int64
	}{
		{1, 1, 1},
		{3, 1, 9},
		{3, -1, -9},
		{10, -1, -100},
	}
	for _, c := range cases {
		if got := Delta(c.pulses, c.dir); got != c.delta {
			t.Errorf("Delta(%d, %d): expected %d, got %d", c.pulses, c.dir, c.delta, got)
		}
	}
}

func TestMonitorInject(t *testing.T) {
	m := NewMonitor(nil)

	m.Inject(0, 1)
	m.Inject(3, 0)
	if _, _, ok := m.Consume(); ok {
		t.Error("Expected empty injections to be ignored")
	}

	m.Inject(3, -5)
	pulses, dir, ok := m.Consume()
	if !ok || pulses != 3 || dir != -1 {
		t.Errorf("Expected 3 pulses -1, got %d %d (ok=%t)", pulses, dir, ok)
	}
}

func TestMonitorConcurrentEdges(t *testing.T) {
	m := NewMonitor(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Edge(true, true)
		}
	}()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, dir, ok := m.Consume(); ok {
			if dir != 1 {
				t.Fatalf("Expected direction +1, got %d", dir)
			}
		}
		if m.Pulses() == 1000 {
			break
		}
	}
	wg.Wait()

	if m.Pulses() != 1000 {
		t.Errorf("Expected 1000 pulses, got %d", m.Pulses())
	}
}

func TestTimeBase(t *testing.T) {
	t.Run("Fire Resets Window", func(t *testing.T) {
		m := NewMonitor(nil)
		tb := NewTimeBase(m, time.Second, 3)

		m.Edge(true, true)
		m.Edge(true, true)
		tb.Fire()

		if m.Pulses() != 0 {
			t.Errorf("Expected pulses reset, got %d", m.Pulses())
		}
	})

	t.Run("Elapsed Counter", func(t *testing.T) {
		tb := NewTimeBase(NewMonitor(nil), time.Second, 3)

		for i := 0; i < 8; i++ {
			tb.Fire()
		}
		if tb.Elapsed() != 2 {
			t.Errorf("Expected 2 elapsed counts after 8 fires, got %d", tb.Elapsed())
		}
		if tb.Fires() != 8 {
			t.Errorf("Expected 8 fires, got %d", tb.Fires())
		}
	})

	t.Run("Clamped Divider", func(t *testing.T) {
		tb := NewTimeBase(NewMonitor(nil), time.Second, 0)
		tb.Fire()
		if tb.Elapsed() != 1 {
			t.Errorf("Expected 1 elapsed count, got %d", tb.Elapsed())
		}
	})

	t.Run("Run", func(t *testing.T) {
		tb := NewTimeBase(NewMonitor(nil), time.Millisecond, 1)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			tb.Run(ctx)
			close(done)
		}()

		deadline := time.Now().Add(2 * time.Second)
		for tb.Fires() < 3 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		cancel()
		<-done

		if tb.Fires() < 3 {
			t.Errorf("Expected at least 3 fires, got %d", tb.Fires())
		}
		if tb.Elapsed() != tb.Fires() {
			t.Errorf("Expected elapsed to follow fires, got %d vs %d", tb.Elapsed(), tb.Fires())
		}
	})
}

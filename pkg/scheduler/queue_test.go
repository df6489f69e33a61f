package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQueueDrainsByPriority(t *testing.T) {
	loop := NewLoop()
	q := NewQueue(loop)

	var order []string
	q.Add(func() { order = append(order, "low") }, Low)
	q.Add(func() { order = append(order, "medium") }, Medium)
	q.Add(func() { order = append(order, "high") }, High)

	if len(order) != 0 {
		t.Fatal("Add must not run callbacks synchronously")
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"high", "medium", "low"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestQueueSchedulesOneTickForManyAdds(t *testing.T) {
	loop := NewLoop()
	q := NewQueue(loop)

	for i := 0; i < 5; i++ {
		q.Add(func() {}, Medium)
	}
	queued, _ := loop.Pending()
	if queued != 1 {
		t.Errorf("queued ticks = %d, want 1", queued)
	}
	loop.Run(context.Background())
	if q.Flushes() != 1 {
		t.Errorf("flushes = %d, want 1", q.Flushes())
	}
}

func TestQueueWorkAddedDuringFlushRunsNextTick(t *testing.T) {
	loop := NewLoop()
	q := NewQueue(loop)

	var order []string
	q.Add(func() {
		order = append(order, "first")
		q.Add(func() { order = append(order, "nested-high") }, High)
	}, Medium)

	if !loop.RunOnce() {
		t.Fatal("expected one tick to run")
	}
	if len(order) != 1 {
		t.Fatalf("after first tick order = %v, want [first]", order)
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}

	loop.Run(context.Background())
	if len(order) != 2 || order[1] != "nested-high" {
		t.Errorf("order = %v", order)
	}
}

func TestQueueExplicitFlushDrainsImmediately(t *testing.T) {
	loop := NewLoop()
	q := NewQueue(loop)

	ran := false
	q.Add(func() { ran = true }, Low)
	q.Flush()
	if !ran {
		t.Error("explicit Flush should drain within the same turn")
	}
	// The tick posted by Add finds nothing left to do.
	loop.Run(context.Background())
	if q.Len() != 0 {
		t.Errorf("Len = %d, want 0", q.Len())
	}
}

func TestLoopAsyncResolvesOnLoop(t *testing.T) {
	loop := NewLoop()
	done := make(chan struct{})

	var got any
	loop.Post(func() {
		task := loop.Async(func() (any, error) {
			<-done
			return "read", nil
		})
		task.Then(func(v any, err error) { got = v })
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	}()

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "read" {
		t.Errorf("got %v, want read", got)
	}
}

func TestLoopRunUntilStalls(t *testing.T) {
	loop := NewLoop()
	err := loop.RunUntil(context.Background(), func() bool { return false })
	if !errors.Is(err, ErrStalled) {
		t.Errorf("err = %v, want ErrStalled", err)
	}
}

func TestLoopRunUntilHonoursContext(t *testing.T) {
	loop := NewLoop()
	block := make(chan struct{})
	defer close(block)
	loop.Post(func() {
		loop.Async(func() (any, error) {
			<-block
			return nil, nil
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := loop.RunUntil(ctx, func() bool { return false })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

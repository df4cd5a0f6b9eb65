package lane

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLanePreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := make(chan int, 16)
	sem := make(chan struct{}, 4)
	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	Start(Options[int]{
		Ctx:  ctx,
		Sem:  sem,
		Jobs: jobs,
		Handle: func(_ context.Context, j int) {
			mu.Lock()
			got = append(got, j)
			if len(got) == 10 {
				close(done)
			}
			mu.Unlock()
		},
	})

	for i := 0; i < 10; i++ {
		if err := Enqueue(ctx, ctx, jobs, i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, j := range got {
		if j != i {
			t.Fatalf("job %d ran out of order: got %v", i, got)
		}
	}
}

func TestLaneStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	jobs := make(chan int)
	sem := make(chan struct{}, 1)
	ran := make(chan int, 1)

	Start(Options[int]{
		Ctx:  ctx,
		Sem:  sem,
		Jobs: jobs,
		Handle: func(_ context.Context, j int) {
			ran <- j
		},
	})

	cancel()
	// Let the lane goroutine observe the cancel and exit, so the send side
	// of Enqueue can never win the race.
	time.Sleep(20 * time.Millisecond)
	if err := Enqueue(ctx, ctx, jobs, 1); err == nil {
		t.Fatal("enqueue after cancel should fail")
	}
	select {
	case j := <-ran:
		t.Fatalf("job %d ran after cancel", j)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEnqueueNilContextFallsBack(t *testing.T) {
	lanesCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := make(chan int, 1)
	if err := Enqueue(nil, lanesCtx, jobs, 7); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if got := <-jobs; got != 7 {
		t.Fatalf("job = %d, want 7", got)
	}
}

package proactor

import (
	"sync"
	"testing"
	"time"

	"gitlab.com/streamkit/asyncio/persist"
)

func TestExecutorSerializesJobs(t *testing.T) {
	e := NewEngine(persist.Discard())
	defer e.Close()

	x, err := e.NewExecutor("test")
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		i := i
		if !x.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			time.Sleep(time.Millisecond)
		}) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("jobs executed out of submission order: %v", order)
		}
	}
}

func TestExecutorRejectsAfterStop(t *testing.T) {
	e := NewEngine(persist.Discard())
	defer e.Close()

	x, err := e.NewExecutor("test")
	if err != nil {
		t.Fatal(err)
	}
	x.Stop()

	if x.Submit(func() {}) {
		t.Fatal("expected submit to be rejected after Stop")
	}
}

func TestExecutorDeliverRunsAfterStop(t *testing.T) {
	e := NewEngine(persist.Discard())
	defer e.Close()

	x, err := e.NewExecutor("test")
	if err != nil {
		t.Fatal(err)
	}
	x.Stop()

	var ran bool
	x.Deliver(func() { ran = true })
	if !ran {
		t.Fatal("Deliver dropped fn after Stop; completions must never be dropped")
	}
}

func TestExecutorSchedule(t *testing.T) {
	e := NewEngine(persist.Discard())
	defer e.Close()

	x, err := e.NewExecutor("test")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	start := time.Now()
	x.Schedule(20*time.Millisecond, func() { close(done) })

	select {
	case <-done:
		if time.Since(start) < 10*time.Millisecond {
			t.Fatal("scheduled job ran too early")
		}
	case <-time.After(time.Second):
		t.Fatal("scheduled job never ran")
	}
}

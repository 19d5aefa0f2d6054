// Unit tests for task.go

package threadpool_internal

import (
	"context"
	"testing"
	"time"
)

func TestTaskStateString(t *testing.T) {
	for _, tc := range []struct {
		state TaskState
		want  string
	}{
		{TaskCreated, "Created"},
		{TaskSubmitted, "Submitted"},
		{TaskInExecution, "InExecution"},
		{TaskExecuted, "Executed"},
		{TaskCanceled, "Canceled"},
		{TaskState(99), "Undefined"},
	} {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("String(): want: %q, got: %q", tc.want, got)
		}
	}
}

func TestCalculateBurstTime(t *testing.T) {
	const short, medium = 50 * time.Millisecond, 500 * time.Millisecond
	for _, tc := range []struct {
		name      string
		estimated time.Duration
		want      BurstTime
	}{
		{"undefined", 0, BurstLong},
		{"negative", -time.Second, BurstLong},
		{"at-short-ceiling", short, BurstShort},
		{"just-over-short", short + time.Millisecond, BurstMedium},
		{"at-medium-ceiling", medium, BurstMedium},
		{"over-medium", medium + time.Millisecond, BurstLong},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := calculateBurstTime(tc.estimated, short, medium); got != tc.want {
				t.Errorf("calculateBurstTime(%s): want: %s, got: %s", tc.estimated, tc.want, got)
			}
		})
	}
}

func TestTaskBaseLifecycle(t *testing.T) {
	ran := false
	task := newPlainTask(func() { ran = true })

	if task.State() != TaskCreated {
		t.Fatalf("State() before submit: want: Created, got: %s", task.State())
	}

	task.markSubmitted()
	if task.State() != TaskSubmitted {
		t.Fatalf("State() after markSubmitted: want: Submitted, got: %s", task.State())
	}

	if r := task.run(); r != Ok {
		t.Errorf("run(): want: Ok, got: %s", r)
	}
	if !ran {
		t.Error("run() did not invoke the action")
	}
	if task.State() != TaskExecuted {
		t.Fatalf("State() after run: want: Executed, got: %s", task.State())
	}

	// A second run() is a no-op: the action must not fire twice, and the
	// task is no longer Submitted so run() reports Error.
	ran = false
	if r := task.run(); r != Error {
		t.Errorf("second run(): want: Error, got: %s", r)
	}
	if ran {
		t.Error("run() fired the action a second time after the task had already executed")
	}
}

func TestTaskCancelBeforeExecution(t *testing.T) {
	task := newPlainTask(func() {})
	task.markSubmitted()
	if r := task.cancel(); r != Ok {
		t.Fatalf("cancel() before execution: want: Ok, got: %s", r)
	}
	if task.State() != TaskCanceled {
		t.Fatalf("State(): want: Canceled, got: %s", task.State())
	}
}

func TestTaskCancelAfterExecutionIsDeferred(t *testing.T) {
	task := newPlainTask(func() {})
	task.markSubmitted()
	task.run()
	if r := task.cancel(); r != Ok {
		t.Errorf("cancel() after execution: want: Ok, got: %s", r)
	}
	if task.State() != TaskCanceled {
		t.Errorf("State() after cancel(): want: Canceled, got: %s", task.State())
	}
	if r := task.cancel(); r != Canceled {
		t.Errorf("second cancel(): want: Canceled, got: %s", r)
	}
}

func TestFutureWaitForResult(t *testing.T) {
	task := newPlainTask(func() {})
	future := newFuture[int](task)

	go func() {
		time.Sleep(10 * time.Millisecond)
		future.complete(42, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	val, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait(): unexpected error: %v", err)
	}
	if val != 42 {
		t.Errorf("Wait(): want: 42, got: %d", val)
	}
}

func TestFutureWaitContextCanceled(t *testing.T) {
	task := newPlainTask(func() {})
	future := newFuture[int](task)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := future.Wait(ctx)
	if err == nil {
		t.Error("Wait(): want: an error when ctx expires before the task completes")
	}
}

func TestFutureTryGet(t *testing.T) {
	task := newPlainTask(func() {})
	future := newFuture[string](task)

	if _, _, ok := future.TryGet(); ok {
		t.Fatal("TryGet(): want: ok=false before completion")
	}
	future.complete("done", nil)
	val, err, ok := future.TryGet()
	if !ok || err != nil || val != "done" {
		t.Errorf("TryGet(): want: (\"done\", nil, true), got: (%q, %v, %v)", val, err, ok)
	}
}

func TestBuildTaskDispatchesOnKind(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts TaskOptions
		want TaskKind
	}{
		{"fcfs", TaskOptions{Kind: KindFCFS}, KindFCFS},
		{"priority", TaskOptions{Kind: KindPriority, Priority: PriorityHigh}, KindPriority},
		{"sjf", TaskOptions{Kind: KindBurstTime, EstimatedDuration: time.Millisecond}, KindBurstTime},
	} {
		t.Run(tc.name, func(t *testing.T) {
			task := buildTask(tc.opts, func() {})
			if got := task.Kind(); got != tc.want {
				t.Errorf("Kind(): want: %s, got: %s", tc.want, got)
			}
		})
	}
}

func TestSubmitOneMatchesPoolKind(t *testing.T) {
	pool, err := NewPool(NewPoolConfigBuilder().WithSchedulerType("priority").Build())
	if err != nil {
		t.Fatal(err)
	}
	pool.Start()
	defer pool.Shutdown()

	future, r := submitOne(pool, func() int { return 7 }, TaskOptions{Kind: KindFCFS, Priority: PriorityHigh})
	if r != Ok {
		t.Fatalf("submitOne(): want: Ok, got: %s", r)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	val, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait(): unexpected error: %v", err)
	}
	if val != 7 {
		t.Errorf("Wait(): want: 7, got: %d", val)
	}
}

func TestSubmitRepeatedZeroReturnsEmptyNonNilSlice(t *testing.T) {
	pool, err := NewPool(DefaultPoolConfig())
	if err != nil {
		t.Fatal(err)
	}
	pool.Start()
	defer pool.Shutdown()

	futures, r := submitRepeated(pool, func() int { return 1 }, 0, TaskOptions{})
	if r != Ok {
		t.Fatalf("submitRepeated(n=0): want: Ok, got: %s", r)
	}
	if futures == nil {
		t.Fatal("submitRepeated(n=0): want: non-nil slice")
	}
	if len(futures) != 0 {
		t.Errorf("submitRepeated(n=0): want: len 0, got: %d", len(futures))
	}
}

func TestSubmitRepeated(t *testing.T) {
	pool, err := NewPool(DefaultPoolConfig())
	if err != nil {
		t.Fatal(err)
	}
	pool.Start()
	defer pool.Shutdown()

	const n = 10
	futures, r := submitRepeated(pool, func() int { return 1 }, n, TaskOptions{})
	if r != Ok {
		t.Fatalf("submitRepeated(): want: Ok, got: %s", r)
	}
	if len(futures) != n {
		t.Fatalf("submitRepeated(): want: %d futures, got: %d", n, len(futures))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sum := 0
	for _, f := range futures {
		val, err := f.Wait(ctx)
		if err != nil {
			t.Fatalf("Wait(): unexpected error: %v", err)
		}
		sum += val
	}
	if sum != n {
		t.Errorf("sum of results: want: %d, got: %d", n, sum)
	}
}

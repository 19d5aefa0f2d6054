// Unit tests for worker.go

package threadpool_internal

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerExecutesQueuedTasks(t *testing.T) {
	scheduler := NewFCFSScheduler()
	worker := NewWorker(scheduler, nil)
	worker.waitMicros = 5_000 // keep the idle-wait loop short for the test

	if r := worker.Start(); r != Ok {
		t.Fatalf("Start(): want: Ok, got: %s", r)
	}
	defer worker.Stop()

	var ran atomic.Int64
	task := newPlainTask(func() { ran.Add(1) })
	task.markSubmitted()
	scheduler.Add(task)

	deadline := time.Now().Add(time.Second)
	for ran.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ran.Load() != 1 {
		t.Fatalf("task did not execute within the deadline")
	}
	if worker.Stats().ExecutedCount != 1 {
		t.Errorf("Stats().ExecutedCount: want: 1, got: %d", worker.Stats().ExecutedCount)
	}
}

func TestWorkerReportsWaitingWhenQueueEmpty(t *testing.T) {
	scheduler := NewFCFSScheduler()
	monitor := NewMonitor()
	worker := NewWorker(scheduler, monitor)
	worker.waitMicros = 5_000

	worker.Start()
	defer worker.Stop()

	deadline := time.Now().Add(time.Second)
	for worker.State() != WorkerWaiting && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if worker.State() != WorkerWaiting {
		t.Fatalf("State(): want: Waiting once the queue has drained, got: %s", worker.State())
	}
}

func TestWorkerPauseResume(t *testing.T) {
	scheduler := NewFCFSScheduler()
	worker := NewWorker(scheduler, nil)
	worker.Start()
	defer worker.Stop()

	if r := worker.Pause(); r != Ok {
		t.Fatalf("Pause(): want: Ok, got: %s", r)
	}

	var ran atomic.Bool
	task := newPlainTask(func() { ran.Store(true) })
	task.markSubmitted()
	scheduler.Add(task)

	time.Sleep(30 * time.Millisecond)
	if ran.Load() {
		t.Error("task ran while the worker was paused")
	}

	worker.Resume()
	deadline := time.Now().Add(time.Second)
	for !ran.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !ran.Load() {
		t.Error("task did not run after Resume()")
	}
}

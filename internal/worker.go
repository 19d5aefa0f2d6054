// Worker owns a local scheduler and runs a managed loop: pull a task from
// its own queue, run it; if the queue is empty, announce itself as
// Waiting (so the dispatcher can hand it new work or steal into it) and
// block for a bounded interval before checking again.

package threadpool_internal

import (
	"sync"
	"time"
)

const (
	// How long a worker waits on its own, empty scheduler before checking
	// again. 5 seconds, the same bound the original ThreadPoolWorker uses.
	WORKER_WAIT_TIMEOUT_MICROS = 5_000_000
)

type WorkerState int

const (
	WorkerCreated WorkerState = iota
	WorkerWaiting
	WorkerRunning
	WorkerPaused
	WorkerStopped
)

var workerStateNames = map[WorkerState]string{
	WorkerCreated: "Created",
	WorkerWaiting: "Waiting",
	WorkerRunning: "Running",
	WorkerPaused:  "Paused",
	WorkerStopped: "Stopped",
}

func (s WorkerState) String() string {
	if name, ok := workerStateNames[s]; ok {
		return name
	}
	return "Undefined"
}

type WorkerStats struct {
	ExecutedCount uint64
	WaitCycles    uint64
}

var workerLog = NewCompLogger("worker")

type Worker struct {
	id        uint64
	scheduler Scheduler

	// freeStateMonitor is notified every time this worker transitions into
	// the Waiting state, i.e. its local queue just went empty. The pool's
	// WaitAllTasksExecutionFinished waits on it (across every worker) to
	// notice when the fleet has drained.
	freeStateMonitor *Monitor

	state       WorkerState
	stateMu     sync.Mutex
	waitMicros  int64
	stats       WorkerStats
	statsMu     sync.Mutex
	thread      *ManagedThread
	lastChanged time.Time
}

func NewWorker(scheduler Scheduler, freeStateMonitor *Monitor) *Worker {
	w := &Worker{
		id:               nextWorkerID(),
		scheduler:        scheduler,
		freeStateMonitor: freeStateMonitor,
		state:            WorkerCreated,
		waitMicros:       WORKER_WAIT_TIMEOUT_MICROS,
		lastChanged:      time.Now(),
	}
	w.thread = NewManagedThread(w.iterate)
	return w
}

func (w *Worker) ID() uint64 { return w.id }

func (w *Worker) Scheduler() Scheduler { return w.scheduler }

func (w *Worker) State() WorkerState {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return w.state
}

func (w *Worker) setState(s WorkerState) {
	w.stateMu.Lock()
	if w.state != s {
		w.state = s
		w.lastChanged = time.Now()
	}
	w.stateMu.Unlock()
}

func (w *Worker) Size() int { return w.scheduler.Size() }

// Stats snapshots worker-local execution counters.
func (w *Worker) Stats() WorkerStats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

// WaitingSince reports how long the worker has been in its current state.
func (w *Worker) WaitingSince() time.Duration {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	return time.Since(w.lastChanged)
}

func (w *Worker) Start() Result {
	if w.thread.Start() != Ok {
		return Error
	}
	w.setState(WorkerWaiting)
	return Ok
}

func (w *Worker) Pause() Result  { return w.thread.Pause() }
func (w *Worker) Resume() Result { return w.thread.Resume() }

func (w *Worker) Stop() Result {
	r := w.thread.Stop()
	w.setState(WorkerStopped)
	return r
}

// iterate is the ManagedThread's single-iteration body, called repeatedly
// by its goroutine until Stop.
func (w *Worker) iterate() {
	task := w.scheduler.GetTaskForExecution()
	if task == nil {
		w.setState(WorkerWaiting)
		if w.freeStateMonitor != nil {
			w.freeStateMonitor.NotifyOne()
		}
		w.scheduler.Wait(w.waitMicros, nil)
		return
	}

	w.setState(WorkerRunning)
	if r := task.run(); r == Ok {
		w.statsMu.Lock()
		w.stats.ExecutedCount++
		w.statsMu.Unlock()
	}
}

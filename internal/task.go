// Task state machine and the three task flavors the schedulers understand:
// a plain (FCFS) task, a PriorityTask and a BurstTimeTask. A task moves
// through CREATED -> SUBMITTED -> IN_EXECUTION -> EXECUTED, or into CANCELED
// from any state; a task canceled before IN_EXECUTION never runs, one
// canceled during IN_EXECUTION ends CANCELED once its action returns.

package threadpool_internal

import (
	"fmt"
	"sync"
	"time"
)

type TaskState int

const (
	TaskCreated TaskState = iota
	TaskSubmitted
	TaskInExecution
	TaskExecuted
	TaskCanceled
)

var taskStateNames = map[TaskState]string{
	TaskCreated:     "Created",
	TaskSubmitted:   "Submitted",
	TaskInExecution: "InExecution",
	TaskExecuted:    "Executed",
	TaskCanceled:    "Canceled",
}

func (s TaskState) String() string {
	if name, ok := taskStateNames[s]; ok {
		return name
	}
	return "Undefined"
}

// TaskKind tells a Scheduler whether it knows how to order this task. A
// scheduler that receives a task of the wrong kind rejects it with Error,
// mirroring the original's dynamic_cast-based rejection.
type TaskKind int

const (
	KindFCFS TaskKind = iota
	KindPriority
	KindBurstTime
)

func (k TaskKind) String() string {
	switch k {
	case KindFCFS:
		return "FCFS"
	case KindPriority:
		return "Priority"
	case KindBurstTime:
		return "BurstTime"
	default:
		return "Undefined"
	}
}

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh

	FirstPriorityPosition = PriorityHigh
	LastPriorityPosition  = PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return "Undefined"
	}
}

type BurstTime int

const (
	BurstShort BurstTime = iota
	BurstMedium
	BurstLong

	FirstBurstTimePosition = BurstShort
	LastBurstTimePosition  = BurstLong
)

func (b BurstTime) String() string {
	switch b {
	case BurstShort:
		return "Short"
	case BurstMedium:
		return "Medium"
	case BurstLong:
		return "Long"
	default:
		return "Undefined"
	}
}

// calculateBurstTime normalizes an estimated run duration into one of the
// three burst buckets. Anything undefined/non-positive is treated as Long,
// matching the original's UNDEFINED -> LONG normalization: an estimate the
// caller could not supply is the pessimistic case, not the optimistic one.
func calculateBurstTime(estimated time.Duration, short, medium time.Duration) BurstTime {
	switch {
	case estimated <= 0:
		return BurstLong
	case estimated <= short:
		return BurstShort
	case estimated <= medium:
		return BurstMedium
	default:
		return BurstLong
	}
}

// Task is the scheduler-facing view of a unit of work. Concrete task types
// (plainTask, priorityTask, burstTimeTask) all embed *taskBase and satisfy this
// interface.
type Task interface {
	ID() uint64
	State() TaskState
	Kind() TaskKind
	// markSubmitted transitions CREATED -> SUBMITTED, the step that makes
	// the task eligible for run(). Called once by submitOne before the
	// task reaches the pool.
	markSubmitted()
	// run executes the task's action exactly once, transitioning
	// SUBMITTED -> IN_EXECUTION -> EXECUTED (CANCELED instead, if cancel was
	// called while the action ran), and reports Ok. If the task is
	// already Canceled it reports Canceled without running the action; any
	// other state (not yet Submitted) reports Error. Called only by a
	// Worker.
	run() Result
	// cancel transitions the task to CANCELED from any state other than
	// CANCELED; only a task that has not started executing is kept from
	// running.
	cancel() Result
}

type taskBase struct {
	id     uint64
	mu     sync.Mutex
	state  TaskState
	action func()
}

func newTaskBase(action func()) *taskBase {
	return &taskBase{id: nextTaskID(), state: TaskCreated, action: action}
}

func (t *taskBase) ID() uint64 { return t.id }

func (t *taskBase) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *taskBase) markSubmitted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TaskCreated {
		t.state = TaskSubmitted
	}
}

func (t *taskBase) run() Result {
	t.mu.Lock()
	switch t.state {
	case TaskCanceled:
		t.mu.Unlock()
		return Canceled
	case TaskSubmitted:
		t.state = TaskInExecution
		t.mu.Unlock()
	default:
		t.mu.Unlock()
		return Error
	}

	if t.action != nil {
		t.action()
	}

	t.mu.Lock()
	if t.state != TaskCanceled {
		t.state = TaskExecuted
	}
	t.mu.Unlock()
	return Ok
}

// cancel marks the task Canceled from any non-Canceled state, including
// one already InExecution/Executed: cancellation of an in-flight task is
// deferred, not refused (the action runs to completion and run() then
// leaves the task Canceled).
func (t *taskBase) cancel() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TaskCanceled {
		return Canceled
	}
	t.state = TaskCanceled
	return Ok
}

// plainTask is an FCFS task: no ordering key beyond arrival order.
type plainTask struct {
	*taskBase
}

func newPlainTask(action func()) *plainTask {
	return &plainTask{taskBase: newTaskBase(action)}
}

func (t *plainTask) Kind() TaskKind { return KindFCFS }

// priorityTask is ordered by an explicit Priority.
type priorityTask struct {
	*taskBase
	priority Priority
}

func newPriorityTask(priority Priority, action func()) *priorityTask {
	return &priorityTask{taskBase: newTaskBase(action), priority: priority}
}

func (t *priorityTask) Kind() TaskKind { return KindPriority }
func (t *priorityTask) Priority() Priority { return t.priority }

// burstTimeTask is ordered by an estimated execution duration bucket,
// shortest first.
type burstTimeTask struct {
	*taskBase
	burstTime BurstTime
}

func newBurstTimeTask(estimated, short, medium time.Duration, action func()) *burstTimeTask {
	return &burstTimeTask{
		taskBase:  newTaskBase(action),
		burstTime: calculateBurstTime(estimated, short, medium),
	}
}

func (t *burstTimeTask) Kind() TaskKind     { return KindBurstTime }
func (t *burstTimeTask) BurstTime() BurstTime { return t.burstTime }

// Future is the caller-facing handle returned by submitOne/submitRepeated:
// it carries the result of fn once the task has run.
type Future[T any] struct {
	task Task
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any](task Task) *Future[T] {
	return &Future[T]{task: task, done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

// Wait blocks until the task has executed, or the context is canceled.
func (f *Future[T]) Wait(ctx ContextLike) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns immediately; ok is false if the task has not finished.
func (f *Future[T]) TryGet() (val T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// State reports the underlying task's lifecycle state.
func (f *Future[T]) State() TaskState { return f.task.State() }

// Cancel attempts to cancel the underlying task before it starts executing.
func (f *Future[T]) Cancel() Result { return f.task.cancel() }

// ContextLike is the minimal subset of context.Context Future.Wait needs;
// satisfied by context.Context so callers can pass one directly.
type ContextLike interface {
	Done() <-chan struct{}
	Err() error
}

// submitOne wraps fn into a task of the given kind/opts, adds it to the
// pool, and returns a Future for its result.
func submitOne[T any](pool *Pool, fn func() T, opts TaskOptions) (*Future[T], Result) {
	if fn == nil {
		return nil, Error
	}

	var future *Future[T]
	action := func() {
		val := fn()
		future.complete(val, nil)
	}

	opts.Kind = pool.kind
	task := buildTask(opts, action)
	future = newFuture[T](task)
	task.markSubmitted()

	result := pool.addTask(task)
	if result != Ok {
		future.complete(*new(T), fmt.Errorf("submitOne: %s", result))
	}
	return future, result
}

// submitRepeated submits the same action n times (each its own task/future).
// n == 0 returns a non-nil, empty slice.
func submitRepeated[T any](pool *Pool, fn func() T, n int, opts TaskOptions) ([]*Future[T], Result) {
	futures := make([]*Future[T], 0, n)
	if n == 0 {
		return futures, Ok
	}
	result := Ok
	for i := 0; i < n; i++ {
		future, r := submitOne(pool, fn, opts)
		futures = append(futures, future)
		result = result.Accumulate(r)
	}
	return futures, result
}

// TaskOptions selects which flavor of task buildTask should construct.
type TaskOptions struct {
	Kind               TaskKind
	Priority           Priority
	EstimatedDuration  time.Duration
	ShortBurstCeiling  time.Duration
	MediumBurstCeiling time.Duration
}

func buildTask(opts TaskOptions, action func()) Task {
	switch opts.Kind {
	case KindPriority:
		return newPriorityTask(opts.Priority, action)
	case KindBurstTime:
		short, medium := opts.ShortBurstCeiling, opts.MediumBurstCeiling
		if short == 0 {
			short = 50 * time.Millisecond
		}
		if medium == 0 {
			medium = 500 * time.Millisecond
		}
		return newBurstTimeTask(opts.EstimatedDuration, short, medium, action)
	default:
		return newPlainTask(action)
	}
}

// SubmitOne submits fn to pool as a single task and returns a Future for
// its eventual result. opts.Kind is ignored: the task is built to match
// the pool's own scheduling policy.
func SubmitOne[T any](pool *Pool, fn func() T, opts TaskOptions) (*Future[T], Result) {
	return submitOne(pool, fn, opts)
}

// SubmitRepeated submits fn as n independent tasks, each with its own
// Future. n == 0 returns a non-nil, empty slice.
func SubmitRepeated[T any](pool *Pool, fn func() T, n int, opts TaskOptions) ([]*Future[T], Result) {
	return submitRepeated(pool, fn, n, opts)
}

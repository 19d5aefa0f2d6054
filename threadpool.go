// Package threadpool is the public face of an in-process, general-purpose
// thread pool: submit units of work under one of three scheduling
// policies (first-come-first-served, priority, shortest-job-first) and
// let a self-balancing fleet of workers run them.
package threadpool

import (
	"context"

	"github.com/sirupsen/logrus"

	threadpool_internal "github.com/bgp59/threadpool/internal"
)

// Result codes returned by every pool/task/scheduler operation.
type Result = threadpool_internal.Result

const (
	Ok            = threadpool_internal.Ok
	Error         = threadpool_internal.Error
	Canceled      = threadpool_internal.Canceled
	Timeout       = threadpool_internal.Timeout
	Unimplemented = threadpool_internal.Unimplemented
	Undefined     = threadpool_internal.Undefined
)

type TaskState = threadpool_internal.TaskState

const (
	TaskCreated     = threadpool_internal.TaskCreated
	TaskSubmitted   = threadpool_internal.TaskSubmitted
	TaskInExecution = threadpool_internal.TaskInExecution
	TaskExecuted    = threadpool_internal.TaskExecuted
	TaskCanceled    = threadpool_internal.TaskCanceled
)

type WorkerState = threadpool_internal.WorkerState

const (
	WorkerCreated = threadpool_internal.WorkerCreated
	WorkerWaiting = threadpool_internal.WorkerWaiting
	WorkerRunning = threadpool_internal.WorkerRunning
	WorkerPaused  = threadpool_internal.WorkerPaused
	WorkerStopped = threadpool_internal.WorkerStopped
)

type PoolState = threadpool_internal.PoolState

const (
	PoolCreated = threadpool_internal.PoolCreated
	PoolRunning = threadpool_internal.PoolRunning
	PoolPaused  = threadpool_internal.PoolPaused
	PoolStopped = threadpool_internal.PoolStopped
)

type Priority = threadpool_internal.Priority

const (
	PriorityLow    = threadpool_internal.PriorityLow
	PriorityMedium = threadpool_internal.PriorityMedium
	PriorityHigh   = threadpool_internal.PriorityHigh
)

type BurstTime = threadpool_internal.BurstTime

const (
	BurstShort  = threadpool_internal.BurstShort
	BurstMedium = threadpool_internal.BurstMedium
	BurstLong   = threadpool_internal.BurstLong
)

type (
	Pool              = threadpool_internal.Pool
	PoolConfig        = threadpool_internal.PoolConfig
	PoolConfigBuilder = threadpool_internal.PoolConfigBuilder
	PoolStatistics    = threadpool_internal.PoolStatistics
	WorkerSnapshot    = threadpool_internal.WorkerSnapshot
	WorkerStats       = threadpool_internal.WorkerStats
	SchedulerStats    = threadpool_internal.SchedulerStats
	LoggerConfig      = threadpool_internal.LoggerConfig
	TaskOptions       = threadpool_internal.TaskOptions
)

func NewPool(cfg *PoolConfig) (*Pool, error) { return threadpool_internal.NewPool(cfg) }

func DefaultPoolConfig() *PoolConfig { return threadpool_internal.DefaultPoolConfig() }

func NewPoolConfigBuilder() *PoolConfigBuilder { return threadpool_internal.NewPoolConfigBuilder() }

// LoadConfig loads a PoolConfig (and, optionally, an embedder-specific
// section) from a YAML config file.
func LoadConfig(cfgFile string, embedderConfig any) (*PoolConfig, error) {
	return threadpool_internal.LoadConfig(cfgFile, embedderConfig, nil)
}

// Future is the caller-facing handle for a submitted task's eventual
// result. It wraps the internal future rather than aliasing it directly.
type Future[T any] struct {
	inner *threadpool_internal.Future[T]
}

// Wait blocks until the task has executed, or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) { return f.inner.Wait(ctx) }

// TryGet returns immediately; ok is false if the task has not finished.
func (f *Future[T]) TryGet() (val T, err error, ok bool) { return f.inner.TryGet() }

// State reports the underlying task's lifecycle state.
func (f *Future[T]) State() TaskState { return f.inner.State() }

// Cancel attempts to cancel the underlying task before it starts executing.
func (f *Future[T]) Cancel() Result { return f.inner.Cancel() }

// SubmitOne submits fn as a single task to pool, returning a Future for its
// result. The task is built to match pool's own scheduling policy; opts
// supplies the ordering key that policy needs (Priority or
// EstimatedDuration).
func SubmitOne[T any](pool *Pool, fn func() T, opts TaskOptions) (*Future[T], Result) {
	inner, result := threadpool_internal.SubmitOne(pool, fn, opts)
	return &Future[T]{inner: inner}, result
}

// SubmitRepeated submits fn as n independent tasks, each with its own
// Future.
func SubmitRepeated[T any](pool *Pool, fn func() T, n int, opts TaskOptions) ([]*Future[T], Result) {
	inners, result := threadpool_internal.SubmitRepeated(pool, fn, n, opts)
	futures := make([]*Future[T], len(inners))
	for i, inner := range inners {
		futures[i] = &Future[T]{inner: inner}
	}
	return futures, result
}

// SetTaskIDSource overrides the id source used to assign task ids across
// the whole process; must be called before any task is submitted.
func SetTaskIDSource(src threadpool_internal.IDSource) {
	threadpool_internal.SetTaskIDSource(src)
}

func NewSnowflakeIDSource(nodeID int64) (threadpool_internal.IDSource, error) {
	return threadpool_internal.NewSnowflakeIDSource(nodeID)
}

// GetRootLogger returns the package's root logger, needed only for tests
// that want to capture logging output (see the testutils package).
func GetRootLogger() any { return threadpool_internal.RootLogger }

// NewCompLogger creates a component logger tagged comp=compName.
func NewCompLogger(compName string) *logrus.Entry {
	return threadpool_internal.NewCompLogger(compName)
}

// Run is the process entry point for an executable built around a Pool:
// see threadpool_internal.Run.
func Run(embedderConfig any, buildTasks func(*Pool) error) int {
	return threadpool_internal.Run(embedderConfig, buildTasks)
}

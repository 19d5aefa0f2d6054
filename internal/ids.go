// Id generation for tasks, schedulers, workers and pools.
//
// Global mutable state calls for "an atomic counter initialized to 1" and
// that is the default source used everywhere in this package. A second
// source, backed by bwmarrin/snowflake, is available for embedders that run
// more than one process against shared external state (e.g. a metrics
// exporter keyed by task id) and need ids that stay unique across processes,
// not just within one.

package threadpool_internal

import (
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
)

// IDSource hands out process-wide unique ids (AtomicIDSource starts at 1;
// SnowflakeIDSource does not).
type IDSource interface {
	NextID() uint64
}

// AtomicIDSource is a plain atomic counter initialized to 1. This is the
// default for every id domain (task, scheduler, worker, pool).
type AtomicIDSource struct {
	counter atomic.Uint64
}

func NewAtomicIDSource() *AtomicIDSource {
	src := &AtomicIDSource{}
	src.counter.Store(0)
	return src
}

func (src *AtomicIDSource) NextID() uint64 {
	return src.counter.Add(1)
}

// SnowflakeIDSource generates ids via a snowflake node, so that ids remain
// unique across multiple processes of the same embedder, at the cost of no
// longer being a tight 1, 2, 3, ... sequence.
type SnowflakeIDSource struct {
	node *snowflake.Node
}

func NewSnowflakeIDSource(nodeID int64) (*SnowflakeIDSource, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &SnowflakeIDSource{node: node}, nil
}

func (src *SnowflakeIDSource) NextID() uint64 {
	return uint64(src.node.Generate().Int64())
}

var (
	taskIDSource      IDSource = NewAtomicIDSource()
	schedulerIDSource IDSource = NewAtomicIDSource()
	workerIDSource    IDSource = NewAtomicIDSource()
	poolIDSource      IDSource = NewAtomicIDSource()
)

// SetTaskIDSource overrides the id source used to assign task ids; intended
// for embedders wiring in a SnowflakeIDSource before creating any pool.
func SetTaskIDSource(src IDSource) { taskIDSource = src }

func nextTaskID() uint64      { return taskIDSource.NextID() }
func nextSchedulerID() uint64 { return schedulerIDSource.NextID() }
func nextWorkerID() uint64    { return workerIDSource.NextID() }
func nextPoolID() uint64      { return poolIDSource.NextID() }

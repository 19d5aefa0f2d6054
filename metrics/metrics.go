// Package threadpoolmetrics exposes a Pool's observable statistics as
// Prometheus collectors: gauges for worker-state counts and queue depths,
// counters for scheduled/unscheduled/stolen/dequeued tasks.

package threadpoolmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	threadpool_internal "github.com/bgp59/threadpool/internal"
)

type PoolCollector struct {
	pool *threadpool_internal.Pool

	numWorkers       *prometheus.Desc
	centralQueue     *prometheus.Desc
	workersQueue     *prometheus.Desc
	tasksAdded       *prometheus.Desc
	tasksRejected    *prometheus.Desc
	workerStateGauge *prometheus.Desc
	workerQueueGauge *prometheus.Desc
	workerExecuted   *prometheus.Desc

	schedulerCounters *prometheus.Desc
}

// NewPoolCollector wraps pool for registration with a prometheus.Registry.
func NewPoolCollector(pool *threadpool_internal.Pool) *PoolCollector {
	return &PoolCollector{
		pool: pool,
		numWorkers: prometheus.NewDesc(
			"threadpool_workers", "Current number of workers in the fleet.", nil, nil,
		),
		centralQueue: prometheus.NewDesc(
			"threadpool_central_queue_size", "Number of tasks waiting in the central scheduler.", nil, nil,
		),
		workersQueue: prometheus.NewDesc(
			"threadpool_workers_queue_size", "Summed number of tasks waiting across all worker-local queues.", nil, nil,
		),
		tasksAdded: prometheus.NewDesc(
			"threadpool_tasks_added_total", "Total tasks accepted by the pool.", nil, nil,
		),
		tasksRejected: prometheus.NewDesc(
			"threadpool_tasks_rejected_total", "Total tasks rejected (wrong kind or rate-limited).", nil, nil,
		),
		workerStateGauge: prometheus.NewDesc(
			"threadpool_worker_state", "1 if the given worker is currently in this state.",
			[]string{"worker_id", "state"}, nil,
		),
		workerQueueGauge: prometheus.NewDesc(
			"threadpool_worker_queue_size", "Number of tasks waiting in a given worker's local queue.",
			[]string{"worker_id"}, nil,
		),
		workerExecuted: prometheus.NewDesc(
			"threadpool_worker_executed_total", "Total tasks executed by a given worker.",
			[]string{"worker_id"}, nil,
		),
		schedulerCounters: prometheus.NewDesc(
			"threadpool_scheduler_events_total", "Scheduler event counters, by queue and event kind.",
			[]string{"queue", "event"}, nil,
		),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.numWorkers
	ch <- c.centralQueue
	ch <- c.workersQueue
	ch <- c.tasksAdded
	ch <- c.tasksRejected
	ch <- c.workerStateGauge
	ch <- c.workerQueueGauge
	ch <- c.workerExecuted
	ch <- c.schedulerCounters
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Statistics()

	ch <- prometheus.MustNewConstMetric(c.numWorkers, prometheus.GaugeValue, float64(stats.NumWorkers))
	ch <- prometheus.MustNewConstMetric(c.centralQueue, prometheus.GaugeValue, float64(c.pool.GetTasksSize(false)))
	ch <- prometheus.MustNewConstMetric(c.tasksAdded, prometheus.CounterValue, float64(stats.TasksAdded))
	ch <- prometheus.MustNewConstMetric(c.tasksRejected, prometheus.CounterValue, float64(stats.TasksRejected))

	var workersQueueSize uint64
	for _, w := range stats.WorkerSnapshot {
		workersQueueSize += uint64(w.QueueSize)
	}
	ch <- prometheus.MustNewConstMetric(c.workersQueue, prometheus.GaugeValue, float64(workersQueueSize))

	for _, w := range stats.WorkerSnapshot {
		workerID := formatWorkerID(w.ID)
		ch <- prometheus.MustNewConstMetric(
			c.workerStateGauge, prometheus.GaugeValue, 1, workerID, w.State.String(),
		)
		ch <- prometheus.MustNewConstMetric(
			c.workerQueueGauge, prometheus.GaugeValue, float64(w.QueueSize), workerID,
		)
		ch <- prometheus.MustNewConstMetric(
			c.workerExecuted, prometheus.CounterValue, float64(w.Stats.ExecutedCount), workerID,
		)
	}

	emitSchedulerCounters(ch, c.schedulerCounters, "central", stats.CentralQueue)
	emitSchedulerCounters(ch, c.schedulerCounters, "workers", stats.WorkersQueue)
}

func emitSchedulerCounters(
	ch chan<- prometheus.Metric, desc *prometheus.Desc, queue string,
	s threadpool_internal.SchedulerStats,
) {
	ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(s.ScheduledCount), queue, "scheduled")
	ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(s.UnscheduledCount), queue, "unscheduled")
	ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(s.StolenCount), queue, "stolen")
	ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(s.DequeuedCount), queue, "dequeued")
}

func formatWorkerID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

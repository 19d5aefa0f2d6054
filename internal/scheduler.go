// Task schedulers: FCFS, Priority and Shortest-Job-First. Each Worker owns
// one scheduler instance for its local queue, and the Pool owns a separate
// instance of the same kind for its central queue; both are built from the
// same constructors so the ordering semantics are identical everywhere.
//
// Priority and SJF share nearly all of their logic (bucket by an ordered
// key, scan buckets in a fixed order for execution, scan them in the
// opposite order for stealing) so they are both instances of the generic
// orderedBucketScheduler, parameterized by their respective key type. FCFS
// has no bucketing key at all and is kept as a flat deque.

package threadpool_internal

import (
	"sync"
	"time"
)

func durationFromMicros(micros int64) time.Duration {
	return time.Duration(micros) * time.Microsecond
}

type SchedulerStats struct {
	ScheduledCount   uint64
	UnscheduledCount uint64
	StolenCount      uint64
	DequeuedCount    uint64
}

// Scheduler is the ordering policy shared by the Pool's central queue and
// every Worker's local queue.
type Scheduler interface {
	ID() uint64
	Kind() TaskKind

	// Add inserts task for execution. It returns Error if task is not of
	// the kind this scheduler understands.
	Add(task Task) Result

	// GetTaskForExecution removes and returns the next task to run
	// according to the scheduler's policy, or nil if empty.
	GetTaskForExecution() Task

	// Steal removes and returns the least urgent task it holds, for the
	// pool's load balancer to move to a less loaded worker. Returns nil if
	// empty.
	Steal() Task

	Size() int

	// Unschedule removes a specific, not-yet-executing task. Returns Error
	// if the task is not present.
	Unschedule(task Task) Result

	// UnscheduleByID removes and returns the task with the given id, or
	// nil if it is not present.
	UnscheduleByID(id uint64) Task

	// UnscheduleAll removes and returns every pending task, in no
	// particular order.
	UnscheduleAll() []Task

	IsScheduled(task Task) bool

	// Wait blocks until a task is available or the timeout/done fires,
	// returning true if a task is (probably) now available.
	Wait(timeoutMicros int64, done <-chan struct{}) bool

	Stats() SchedulerStats
}

// ---- FCFS ----

type fcfsScheduler struct {
	id      uint64
	mu      sync.Mutex
	monitor *Monitor
	q       []Task
	stats   SchedulerStats
}

func NewFCFSScheduler() Scheduler {
	return &fcfsScheduler{id: nextSchedulerID(), monitor: NewMonitor()}
}

func (s *fcfsScheduler) ID() uint64      { return s.id }
func (s *fcfsScheduler) Kind() TaskKind { return KindFCFS }

func (s *fcfsScheduler) Add(task Task) Result {
	if task == nil || task.Kind() != KindFCFS {
		return Error
	}
	s.mu.Lock()
	s.q = append(s.q, task)
	s.stats.ScheduledCount++
	s.mu.Unlock()
	s.monitor.NotifyOne()
	return Ok
}

func (s *fcfsScheduler) GetTaskForExecution() Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.q) == 0 {
		return nil
	}
	task := s.q[0]
	s.q = s.q[1:]
	s.stats.DequeuedCount++
	return task
}

func (s *fcfsScheduler) Steal() Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.q)
	if n == 0 {
		return nil
	}
	task := s.q[n-1]
	s.q = s.q[:n-1]
	s.stats.StolenCount++
	return task
}

func (s *fcfsScheduler) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.q)
}

func (s *fcfsScheduler) Unschedule(task Task) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.q {
		if t.ID() == task.ID() {
			s.q = append(s.q[:i], s.q[i+1:]...)
			s.stats.UnscheduledCount++
			return Ok
		}
	}
	return Error
}

func (s *fcfsScheduler) UnscheduleByID(id uint64) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.q {
		if t.ID() == id {
			s.q = append(s.q[:i], s.q[i+1:]...)
			s.stats.UnscheduledCount++
			return t
		}
	}
	return nil
}

func (s *fcfsScheduler) UnscheduleAll() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.q
	s.q = nil
	s.stats.UnscheduledCount += uint64(len(all))
	return all
}

func (s *fcfsScheduler) IsScheduled(task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.q {
		if t.ID() == task.ID() {
			return true
		}
	}
	return false
}

func (s *fcfsScheduler) Wait(timeoutMicros int64, done <-chan struct{}) bool {
	return waitWithMicros(s.monitor, timeoutMicros, done)
}

func (s *fcfsScheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// ---- Priority and SJF, via a shared generic bucket scheduler ----

// orderedBucketScheduler buckets tasks by a comparable key K, scanning
// buckets in `order` (most urgent first) for execution and in reverse for
// stealing.
type orderedBucketScheduler[K comparable] struct {
	id      uint64
	kind    TaskKind
	mu      sync.Mutex
	monitor *Monitor
	buckets map[K][]Task
	order   []K // most urgent first
	keyOf   func(Task) (K, bool)
	stats   SchedulerStats
}

func newOrderedBucketScheduler[K comparable](
	kind TaskKind, order []K, keyOf func(Task) (K, bool),
) *orderedBucketScheduler[K] {
	return &orderedBucketScheduler[K]{
		id:      nextSchedulerID(),
		kind:    kind,
		monitor: NewMonitor(),
		buckets: make(map[K][]Task),
		order:   order,
		keyOf:   keyOf,
	}
}

func (s *orderedBucketScheduler[K]) ID() uint64      { return s.id }
func (s *orderedBucketScheduler[K]) Kind() TaskKind { return s.kind }

func (s *orderedBucketScheduler[K]) Add(task Task) Result {
	if task == nil {
		return Error
	}
	key, ok := s.keyOf(task)
	if !ok {
		return Error
	}
	s.mu.Lock()
	s.buckets[key] = append(s.buckets[key], task)
	s.stats.ScheduledCount++
	s.mu.Unlock()
	s.monitor.NotifyOne()
	return Ok
}

func (s *orderedBucketScheduler[K]) GetTaskForExecution() Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.order {
		bucket := s.buckets[key]
		if len(bucket) == 0 {
			continue
		}
		task := bucket[0]
		s.buckets[key] = bucket[1:]
		s.stats.DequeuedCount++
		return task
	}
	return nil
}

// Steal takes the least urgent task available, scanning buckets from the
// tail of order towards the head and popping from the back of the bucket,
// so a stealing worker never takes work the owner would have run next.
func (s *orderedBucketScheduler[K]) Steal() Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		key := s.order[i]
		bucket := s.buckets[key]
		n := len(bucket)
		if n == 0 {
			continue
		}
		task := bucket[n-1]
		s.buckets[key] = bucket[:n-1]
		s.stats.StolenCount++
		return task
	}
	return nil
}

func (s *orderedBucketScheduler[K]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, bucket := range s.buckets {
		total += len(bucket)
	}
	return total
}

func (s *orderedBucketScheduler[K]) Unschedule(task Task) Result {
	key, ok := s.keyOf(task)
	if !ok {
		return Error
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.buckets[key]
	for i, t := range bucket {
		if t.ID() == task.ID() {
			s.buckets[key] = append(bucket[:i], bucket[i+1:]...)
			s.stats.UnscheduledCount++
			return Ok
		}
	}
	return Error
}

// UnscheduleByID scans buckets in `order` since the caller has no key to
// go to directly; the id alone does not tell us which bucket holds it.
func (s *orderedBucketScheduler[K]) UnscheduleByID(id uint64) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.order {
		bucket := s.buckets[key]
		for i, t := range bucket {
			if t.ID() == id {
				s.buckets[key] = append(bucket[:i], bucket[i+1:]...)
				s.stats.UnscheduledCount++
				return t
			}
		}
	}
	return nil
}

func (s *orderedBucketScheduler[K]) UnscheduleAll() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]Task, 0)
	for _, key := range s.order {
		all = append(all, s.buckets[key]...)
		s.buckets[key] = nil
	}
	s.stats.UnscheduledCount += uint64(len(all))
	return all
}

func (s *orderedBucketScheduler[K]) IsScheduled(task Task) bool {
	key, ok := s.keyOf(task)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.buckets[key] {
		if t.ID() == task.ID() {
			return true
		}
	}
	return false
}

func (s *orderedBucketScheduler[K]) Wait(timeoutMicros int64, done <-chan struct{}) bool {
	return waitWithMicros(s.monitor, timeoutMicros, done)
}

func (s *orderedBucketScheduler[K]) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func NewPriorityScheduler() Scheduler {
	order := []Priority{PriorityHigh, PriorityMedium, PriorityLow}
	return newOrderedBucketScheduler(KindPriority, order, func(t Task) (Priority, bool) {
		pt, ok := t.(*priorityTask)
		if !ok {
			return 0, false
		}
		return pt.Priority(), true
	})
}

func NewSJFScheduler() Scheduler {
	order := []BurstTime{BurstShort, BurstMedium, BurstLong}
	return newOrderedBucketScheduler(KindBurstTime, order, func(t Task) (BurstTime, bool) {
		bt, ok := t.(*burstTimeTask)
		if !ok {
			return 0, false
		}
		return bt.BurstTime(), true
	})
}

func waitWithMicros(m *Monitor, timeoutMicros int64, done <-chan struct{}) bool {
	if timeoutMicros <= 0 {
		return m.Wait(0, done)
	}
	return m.Wait(durationFromMicros(timeoutMicros), done)
}

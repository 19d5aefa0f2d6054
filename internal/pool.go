// Pool is the dispatcher-fronted fleet of workers: tasks arrive at a
// central scheduler, the dispatcher hands each one to an available worker,
// and a load balancer steals work from an overloaded worker into an idle
// one. The fleet can grow and shrink between MinWorkers and MaxWorkers.
//
//               +------------------+
//               | Central Scheduler|
//               +------------------+
//                  ^            | task
//       AddTask    |            v
//       ---------->+      +------------+
//                          | Dispatcher |
//                          +------------+
//                        task |      | task
//                    +--------+      +----------+
//                    v                          v
//              +------------+              +------------+
//              |  Worker 0  |   ...        |  Worker N  |
//              | (local Q)  |   steal <->  | (local Q)  |
//              +------------+              +------------+

package threadpool_internal

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"
)

type PoolState int

const (
	PoolCreated PoolState = iota
	PoolRunning
	PoolPaused
	PoolStopped
)

var poolStateNames = map[PoolState]string{
	PoolCreated: "Created",
	PoolRunning: "Running",
	PoolPaused:  "Paused",
	PoolStopped: "Stopped",
}

func (s PoolState) String() string {
	if name, ok := poolStateNames[s]; ok {
		return name
	}
	return "Undefined"
}

// WorkerSnapshot is a read-only view into one worker, supplementing the
// aggregate PoolStatistics the original only exposes in total.
type WorkerSnapshot struct {
	ID           uint64
	State        WorkerState
	QueueSize    int
	WaitingSince time.Duration
	Stats        WorkerStats
}

type PoolStatistics struct {
	NumWorkers     int
	CentralQueue   SchedulerStats
	WorkersQueue   SchedulerStats // summed across all workers
	TasksAdded     uint64
	TasksRejected  uint64
	WorkerSnapshot []WorkerSnapshot
}

var poolLog = NewCompLogger("pool")

type Pool struct {
	id   uint64
	kind TaskKind

	mu      sync.Mutex
	cfg     *PoolConfig
	workers []*Worker
	state   PoolState

	central          Scheduler
	freeStateMonitor *Monitor
	pauseMonitor     *Monitor
	taskIndex        *xsync.Map[uint64, struct{}]
	rateLimiter      *rate.Limiter

	tasksAdded    uint64
	tasksRejected uint64
	statsMu       sync.Mutex

	ctx               context.Context
	cancelFn          context.CancelFunc
	wg                sync.WaitGroup
	loadBalanceEvery  time.Duration
}

// NewPool builds a pool from cfg (a clone is taken so later mutation of the
// caller's config object has no effect). Unless cfg.PostponeExecution is
// set, the pool starts execution immediately; otherwise workers are
// created but left unstarted until the caller calls Start.
func NewPool(cfg *PoolConfig) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultPoolConfig()
	}
	cfg = cfg.Clone()

	if cfg.MinWorkers < 1 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}

	initialWorkers := cfg.InitialWorkers
	if initialWorkers < 0 {
		initialWorkers = GetAvailableCPUCount()
	}
	if initialWorkers < cfg.MinWorkers {
		initialWorkers = cfg.MinWorkers
	}
	if initialWorkers > cfg.MaxWorkers {
		initialWorkers = cfg.MaxWorkers
	}

	kind := cfg.schedulerKind()

	loadBalanceEvery, err := time.ParseDuration(cfg.LoadBalanceInterval)
	if err != nil || loadBalanceEvery <= 0 {
		loadBalanceEvery = 100 * time.Millisecond
	}

	limiter, err := parseRateLimitSpec(cfg.SubmitRateLimit)
	if err != nil {
		return nil, err
	}

	ctx, cancelFn := context.WithCancel(context.Background())

	pool := &Pool{
		id:               nextPoolID(),
		kind:             kind,
		cfg:              cfg,
		state:            PoolCreated,
		central:          newSchedulerForKind(kind),
		freeStateMonitor: NewMonitor(),
		pauseMonitor:     NewMonitor(),
		taskIndex:        xsync.NewMap[uint64, struct{}](),
		rateLimiter:      limiter,
		ctx:              ctx,
		cancelFn:         cancelFn,
		loadBalanceEvery: loadBalanceEvery,
	}

	for i := 0; i < initialWorkers; i++ {
		pool.workers = append(pool.workers, NewWorker(newSchedulerForKind(kind), pool.freeStateMonitor))
	}

	poolLog.Infof("pool %d: kind=%s workers=%d min=%d max=%d", pool.id, kind, initialWorkers, cfg.MinWorkers, cfg.MaxWorkers)

	if !cfg.PostponeExecution {
		pool.Start()
	}

	return pool, nil
}

// parseRateLimitSpec parses "N/s", "N/ms" etc; empty disables the limiter.
func parseRateLimitSpec(spec string) (*rate.Limiter, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.SplitN(spec, "/", 2)
	n, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, err
	}
	interval := time.Second
	if len(parts) == 2 {
		switch parts[1] {
		case "s":
			interval = time.Second
		case "ms":
			interval = time.Millisecond
		default:
			d, err := time.ParseDuration(parts[1])
			if err != nil {
				return nil, err
			}
			interval = d
		}
	}
	limit := rate.Limit(n / interval.Seconds())
	burst := int(n)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(limit, burst), nil
}

func (p *Pool) ID() uint64 { return p.id }

func (p *Pool) State() PoolState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pool) NumWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func (p *Pool) Start() Result {
	p.mu.Lock()
	if p.state != PoolCreated {
		p.mu.Unlock()
		return Error
	}
	p.state = PoolRunning
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	for _, w := range workers {
		w.Start()
	}

	p.wg.Add(2)
	go p.dispatcherLoop()
	go p.loadBalancerLoop()

	poolLog.Infof("pool %d started", p.id)
	return Ok
}

func (p *Pool) Shutdown() Result {
	p.mu.Lock()
	if p.state == PoolStopped {
		p.mu.Unlock()
		return Error
	}
	waitForDrain := p.cfg.WaitAllTasksExecutionFinished
	p.mu.Unlock()

	if waitForDrain {
		p.WaitAllTasksExecutionFinished(0)
	}

	p.mu.Lock()
	if p.state == PoolStopped {
		p.mu.Unlock()
		return Error
	}
	p.state = PoolStopped
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	p.cancelFn()
	p.wg.Wait()

	for _, w := range workers {
		w.Stop()
	}

	poolLog.Infof("pool %d stopped", p.id)
	return Ok
}

// PauseExecution pauses the dispatcher and every worker, preserving all
// queued and in-flight work. Permitted only from Running.
func (p *Pool) PauseExecution() Result {
	p.mu.Lock()
	if p.state != PoolRunning {
		p.mu.Unlock()
		return Error
	}
	p.state = PoolPaused
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	for _, w := range workers {
		w.Pause()
	}

	poolLog.Infof("pool %d paused", p.id)
	return Ok
}

// ResumeExecution resumes the dispatcher and every worker. Permitted only
// from Paused.
func (p *Pool) ResumeExecution() Result {
	p.mu.Lock()
	if p.state != PoolPaused {
		p.mu.Unlock()
		return Error
	}
	p.state = PoolRunning
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	for _, w := range workers {
		w.Resume()
	}
	p.pauseMonitor.NotifyAll()

	poolLog.Infof("pool %d resumed", p.id)
	return Ok
}

func (p *Pool) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == PoolPaused
}

// AddTask submits a single task to the pool's central scheduler. It is
// rejected with Error if it is the wrong kind for this pool, or if a
// submission rate limit is in effect and currently exhausted.
func (p *Pool) AddTask(task Task) Result {
	if task == nil || task.Kind() != p.kind {
		p.bumpRejected()
		return Error
	}
	if p.rateLimiter != nil && !p.rateLimiter.Allow() {
		p.bumpRejected()
		return Error
	}
	if r := p.central.Add(task); r != Ok {
		p.bumpRejected()
		return r
	}
	p.taskIndex.Store(task.ID(), struct{}{})
	p.statsMu.Lock()
	p.tasksAdded++
	p.statsMu.Unlock()
	return Ok
}

// AddTasks submits every task. The returned Result tracks only the running
// fold's starting value (Ok): Accumulate is a no-op, so a later per-task
// failure never turns a successful call into Error, matching the original.
// Rejects an empty slice with Error, matching addTask's null rejection.
func (p *Pool) AddTasks(tasks []Task) Result {
	if len(tasks) == 0 {
		return Error
	}
	result := Ok
	for _, task := range tasks {
		result = result.Accumulate(p.AddTask(task))
	}
	return result
}

// AddTaskToEveryWorker distributes tasks round-robin across the worker
// fleet by insertion order (tasks[i] -> workers[i % numWorkers]), skipping
// nil elements without advancing the round-robin cursor. Tasks placed
// this way bypass the central scheduler and are not tracked by
// IsTaskAdded. Rejects an empty input slice or an empty worker set.
func (p *Pool) AddTaskToEveryWorker(tasks []Task) Result {
	if len(tasks) == 0 {
		return Error
	}

	p.mu.Lock()
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	if len(workers) == 0 {
		return Error
	}
	numWorkers := len(workers)

	placed := 0
	for _, task := range tasks {
		if task == nil {
			poolLog.Warnf("pool %d: can't add nil task to worker", p.id)
			continue
		}
		workers[placed%numWorkers].Scheduler().Add(task)
		placed++
	}

	if placed == 0 {
		return Error
	}

	p.statsMu.Lock()
	p.tasksAdded += uint64(placed)
	p.statsMu.Unlock()
	return Ok
}

func (p *Pool) bumpRejected() {
	p.statsMu.Lock()
	p.tasksRejected++
	p.statsMu.Unlock()
}

// dispatcherLoop moves tasks from the central scheduler onto worker queues,
// preferring an idle worker with an empty queue.
func (p *Pool) dispatcherLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		if p.isPaused() {
			p.pauseMonitor.Wait(0, p.ctx.Done())
			continue
		}

		task := p.central.GetTaskForExecution()
		if task == nil {
			p.central.Wait(50_000, p.ctx.Done())
			continue
		}

		worker := p.getAvailableWorker()
		if worker == nil {
			// No workers at all; park the task back on the central
			// scheduler rather than dropping it.
			p.central.Add(task)
			p.central.Wait(50_000, p.ctx.Done())
			continue
		}
		worker.Scheduler().Add(task)
		p.taskIndex.Delete(task.ID())
	}
}

// getAvailableWorker prefers a worker that is Waiting with an empty queue;
// failing that, it falls back to a plain linear scan for the worker with
// the smallest queue. This is deliberately not sort.Interface-based: worker
// queue sizes are live, concurrently-mutating values, and sorting them
// would assume a strict weak ordering that can change mid-comparison.
func (p *Pool) getAvailableWorker() *Worker {
	p.mu.Lock()
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	if len(workers) == 0 {
		return nil
	}

	for _, w := range workers {
		if w.State() == WorkerWaiting && w.Size() == 0 {
			return w
		}
	}

	best := workers[0]
	bestSize := best.Size()
	for _, w := range workers[1:] {
		if size := w.Size(); size < bestSize {
			best, bestSize = w, size
		}
	}
	return best
}

// loadBalancerLoop periodically steals a single task from the most loaded
// worker into the least loaded one, when the gap exceeds one task.
func (p *Pool) loadBalancerLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.loadBalanceEvery)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.isPaused() {
				continue
			}
			p.loadBalanceOnce()
		}
	}
}

func (p *Pool) loadBalanceOnce() {
	p.mu.Lock()
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	if len(workers) < 2 {
		return
	}

	hi, lo := workers[0], workers[0]
	hiSize, loSize := hi.Size(), lo.Size()
	for _, w := range workers[1:] {
		size := w.Size()
		if size > hiSize {
			hi, hiSize = w, size
		}
		if size < loSize {
			lo, loSize = w, size
		}
	}

	if hiSize > loSize+1 {
		if task := hi.Scheduler().Steal(); task != nil {
			lo.Scheduler().Add(task)
		}
	}
}

// IncreaseWorkers adds n workers, clamped so the fleet never exceeds
// MaxWorkers. It returns the number actually added.
func (p *Pool) IncreaseWorkers(n int) int {
	if n <= 0 {
		return 0
	}

	p.mu.Lock()
	room := p.cfg.MaxWorkers - len(p.workers)
	if n > room {
		n = room
	}
	if n <= 0 {
		p.mu.Unlock()
		return 0
	}
	started := p.state == PoolRunning || p.state == PoolPaused
	paused := p.state == PoolPaused
	added := make([]*Worker, 0, n)
	for i := 0; i < n; i++ {
		w := NewWorker(newSchedulerForKind(p.kind), p.freeStateMonitor)
		added = append(added, w)
	}
	p.workers = append(p.workers, added...)
	p.mu.Unlock()

	if started {
		for _, w := range added {
			w.Start()
			if paused {
				w.Pause()
			}
		}
	}
	return len(added)
}

// DecreaseWorkers removes up to n workers, never going below MinWorkers.
// Workers with an empty local queue are removed first; if more removals
// are still required, workers with pending tasks are removed too, and
// their undispatched tasks are rescued back onto the central scheduler
// before the worker is stopped.
func (p *Pool) DecreaseWorkers(n int) int {
	if n <= 0 {
		return 0
	}

	p.mu.Lock()
	room := len(p.workers) - p.cfg.MinWorkers
	if n > room {
		n = room
	}
	if n <= 0 {
		p.mu.Unlock()
		return 0
	}

	var empty, busy []*Worker
	for _, w := range p.workers {
		if w.Size() == 0 {
			empty = append(empty, w)
		} else {
			busy = append(busy, w)
		}
	}

	toRemove := make([]*Worker, 0, n)
	toRemove = append(toRemove, empty...)
	if len(toRemove) > n {
		toRemove = toRemove[:n]
	} else if len(toRemove) < n {
		need := n - len(toRemove)
		if need > len(busy) {
			need = len(busy)
		}
		toRemove = append(toRemove, busy[:need]...)
	}

	removeSet := make(map[uint64]bool, len(toRemove))
	for _, w := range toRemove {
		removeSet[w.ID()] = true
	}
	remaining := p.workers[:0:0]
	for _, w := range p.workers {
		if !removeSet[w.ID()] {
			remaining = append(remaining, w)
		}
	}
	p.workers = remaining
	p.mu.Unlock()

	for _, w := range toRemove {
		for _, task := range w.Scheduler().UnscheduleAll() {
			if p.central.Add(task) == Ok {
				p.taskIndex.Store(task.ID(), struct{}{})
			}
		}
		w.Stop()
	}
	return len(toRemove)
}

// WaitAllTasksExecutionFinished blocks until the central scheduler and
// every worker's local scheduler are empty and no worker is mid-execution,
// or timeout elapses (<=0 means wait indefinitely). It waits on
// freeStateMonitor, the same monitor every worker notifies on its
// Running -> Waiting transition, instead of spin-polling.
func (p *Pool) WaitAllTasksExecutionFinished(timeout time.Duration) Result {
	to := NewTimeout(timeout)
	for {
		if p.central.Size() == 0 && p.allWorkersIdle() {
			return Ok
		}
		if to.Expired() {
			return Timeout
		}
		// Re-check periodically even without a notification: a worker
		// transitioning Waiting -> Running carries no signal of its own,
		// and the central scheduler draining doesn't notify this monitor
		// either.
		wait := to.Remaining()
		if wait > 20*time.Millisecond {
			wait = 20 * time.Millisecond
		}
		p.freeStateMonitor.Wait(wait, p.ctx.Done())
	}
}

func (p *Pool) allWorkersIdle() bool {
	p.mu.Lock()
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()
	for _, w := range workers {
		if w.Size() > 0 || w.State() == WorkerRunning {
			return false
		}
	}
	return true
}

// RemoveOneTask looks up and removes a task with the given id from the
// central scheduler, returning it, or nil if not found there. Tasks that
// have already reached a worker are only reachable via
// RemoveAllTasks(true).
func (p *Pool) RemoveOneTask(id uint64) Task {
	task := p.central.UnscheduleByID(id)
	if task != nil {
		p.taskIndex.Delete(id)
	}
	return task
}

// RemoveAllTasks drains the central scheduler and, if alsoFromWorkers is
// set, every worker's local scheduler too, returning every removed task.
func (p *Pool) RemoveAllTasks(alsoFromWorkers bool) []Task {
	all := p.central.UnscheduleAll()
	for _, t := range all {
		p.taskIndex.Delete(t.ID())
	}

	if alsoFromWorkers {
		p.mu.Lock()
		workers := append([]*Worker(nil), p.workers...)
		p.mu.Unlock()
		for _, w := range workers {
			all = append(all, w.Scheduler().UnscheduleAll()...)
		}
	}
	return all
}

// ClearAllTasks is RemoveAllTasks without returning the removed tasks.
// Result is Error iff nothing was cleared anywhere.
func (p *Pool) ClearAllTasks(alsoFromWorkers bool) Result {
	if len(p.RemoveAllTasks(alsoFromWorkers)) == 0 {
		return Error
	}
	return Ok
}

// IsTaskAdded reports whether id is currently scheduled on the central
// scheduler; tasks placed via AddTaskToEveryWorker are not tracked here.
func (p *Pool) IsTaskAdded(id uint64) bool {
	_, ok := p.taskIndex.Load(id)
	return ok
}

// GetTasksSize reports the central scheduler's size, plus the sum of every
// worker's local scheduler size when alsoFromWorkers is set.
func (p *Pool) GetTasksSize(alsoFromWorkers bool) int {
	size := p.central.Size()
	if alsoFromWorkers {
		p.mu.Lock()
		workers := append([]*Worker(nil), p.workers...)
		p.mu.Unlock()
		for _, w := range workers {
			size += w.Size()
		}
	}
	return size
}

// WorkerSnapshots returns a read-only view of every worker's current state.
func (p *Pool) WorkerSnapshots() []WorkerSnapshot {
	p.mu.Lock()
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	snaps := make([]WorkerSnapshot, 0, len(workers))
	for _, w := range workers {
		snaps = append(snaps, WorkerSnapshot{
			ID:           w.ID(),
			State:        w.State(),
			QueueSize:    w.Size(),
			WaitingSince: w.WaitingSince(),
			Stats:        w.Stats(),
		})
	}
	return snaps
}

// Statistics aggregates the pool's observable counters.
func (p *Pool) Statistics() PoolStatistics {
	p.mu.Lock()
	workers := append([]*Worker(nil), p.workers...)
	p.mu.Unlock()

	var workersQueue SchedulerStats
	for _, w := range workers {
		s := w.Scheduler().Stats()
		workersQueue.ScheduledCount += s.ScheduledCount
		workersQueue.UnscheduledCount += s.UnscheduledCount
		workersQueue.StolenCount += s.StolenCount
		workersQueue.DequeuedCount += s.DequeuedCount
	}

	p.statsMu.Lock()
	tasksAdded, tasksRejected := p.tasksAdded, p.tasksRejected
	p.statsMu.Unlock()

	return PoolStatistics{
		NumWorkers:     len(workers),
		CentralQueue:   p.central.Stats(),
		WorkersQueue:   workersQueue,
		TasksAdded:     tasksAdded,
		TasksRejected:  tasksRejected,
		WorkerSnapshot: p.WorkerSnapshots(),
	}
}

func (p *Pool) addTask(task Task) Result { return p.AddTask(task) }

// Fluent builder for PoolConfig, mirroring the original's
// ThreadPoolOptionsBuilder.

package threadpool_internal

type PoolConfigBuilder struct {
	cfg *PoolConfig
}

func NewPoolConfigBuilder() *PoolConfigBuilder {
	return &PoolConfigBuilder{cfg: DefaultPoolConfig()}
}

func (b *PoolConfigBuilder) WithSchedulerType(schedulerType string) *PoolConfigBuilder {
	b.cfg.SchedulerType = schedulerType
	return b
}

func (b *PoolConfigBuilder) WithMinWorkers(n int) *PoolConfigBuilder {
	b.cfg.SetMinWorkers(n)
	return b
}

func (b *PoolConfigBuilder) WithMaxWorkers(n int) *PoolConfigBuilder {
	b.cfg.SetMaxWorkers(n)
	return b
}

func (b *PoolConfigBuilder) WithInitialWorkers(n int) *PoolConfigBuilder {
	b.cfg.SetInitialWorkers(n)
	return b
}

func (b *PoolConfigBuilder) WithTaskQueueMemoryBudget(budget string) *PoolConfigBuilder {
	b.cfg.TaskQueueMemoryBudget = budget
	return b
}

func (b *PoolConfigBuilder) WithSubmitRateLimit(spec string) *PoolConfigBuilder {
	b.cfg.SubmitRateLimit = spec
	return b
}

func (b *PoolConfigBuilder) WithLoadBalanceInterval(d string) *PoolConfigBuilder {
	b.cfg.LoadBalanceInterval = d
	return b
}

func (b *PoolConfigBuilder) WithPostponeExecution(postpone bool) *PoolConfigBuilder {
	b.cfg.PostponeExecution = postpone
	return b
}

func (b *PoolConfigBuilder) WithWaitAllTasksExecutionFinished(wait bool) *PoolConfigBuilder {
	b.cfg.WaitAllTasksExecutionFinished = wait
	return b
}

func (b *PoolConfigBuilder) Build() *PoolConfig {
	return b.cfg.Clone()
}

// Pool configuration.
//
// The configuration is loaded from a YAML file, with the following
// structure:
//
//  threadpool_config:
//    scheduler_type: priority
//    min_workers: 1
//    max_workers: 16
//    initial_workers: -1
//    task_queue_memory_budget: 64MiB
//    submit_rate_limit: ""
//    log_config:
//      ...
//
//  embedder:
//     ...
//
// The "threadpool_config" section maps to the PoolConfig structure defined
// in this package. The "embedder" section is specific to whatever process
// embeds this pool and is not defined here, mirroring the teacher's
// generators section.

package threadpool_internal

import (
	"fmt"
	"io"
	"os"

	units "github.com/docker/go-units"
	clone "github.com/huandu/go-clone"
	"gopkg.in/yaml.v3"
)

const (
	THREADPOOL_CONFIG_SECTION_NAME = "threadpool_config"
	EMBEDDER_SECTION_NAME          = "embedder"

	POOL_CONFIG_SCHEDULER_TYPE_DEFAULT           = "fcfs"
	POOL_CONFIG_MIN_WORKERS_DEFAULT              = 1
	POOL_CONFIG_MAX_WORKERS_DEFAULT              = 64
	POOL_CONFIG_INITIAL_WORKERS_DEFAULT          = -1 // -1: match available CPU count
	POOL_CONFIG_TASK_QUEUE_MEMORY_BUDGET_DEFAULT = "64MiB"
	POOL_CONFIG_LOAD_BALANCE_INTERVAL_DEFAULT    = "100ms"
)

type PoolConfig struct {
	// Scheduling policy: "fcfs", "priority" or "sjf":
	SchedulerType string `yaml:"scheduler_type"`

	// Worker fleet bounds:
	MinWorkers     int `yaml:"min_workers"`
	MaxWorkers     int `yaml:"max_workers"`
	InitialWorkers int `yaml:"initial_workers"`

	// Advisory cap on the central scheduler's in-flight payload size,
	// human-readable (e.g. "64MiB"), parsed by TaskQueueMemoryBudgetBytes.
	// Nothing in the pool checks submissions against it or logs when it is
	// exceeded.
	TaskQueueMemoryBudget string `yaml:"task_queue_memory_budget"`

	// How often the dispatcher re-examines worker queue sizes for
	// load-balancing, human-readable duration.
	LoadBalanceInterval string `yaml:"load_balance_interval"`

	// Optional submission rate limit, e.g. "100/s"; empty disables it.
	SubmitRateLimit string `yaml:"submit_rate_limit"`

	// If true, NewPool does not start the dispatcher or worker threads;
	// the caller must call Start explicitly. Default false.
	PostponeExecution bool `yaml:"postpone_execution"`

	// If true, Shutdown blocks until WaitAllTasksExecutionFinished drains
	// before stopping the dispatcher and workers. Default false.
	WaitAllTasksExecutionFinished bool `yaml:"wait_all_tasks_execution_finished"`

	LoggerConfig *LoggerConfig `yaml:"log_config"`
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		SchedulerType:         POOL_CONFIG_SCHEDULER_TYPE_DEFAULT,
		MinWorkers:            POOL_CONFIG_MIN_WORKERS_DEFAULT,
		MaxWorkers:            POOL_CONFIG_MAX_WORKERS_DEFAULT,
		InitialWorkers:        POOL_CONFIG_INITIAL_WORKERS_DEFAULT,
		TaskQueueMemoryBudget: POOL_CONFIG_TASK_QUEUE_MEMORY_BUDGET_DEFAULT,
		LoadBalanceInterval:   POOL_CONFIG_LOAD_BALANCE_INTERVAL_DEFAULT,
		LoggerConfig:          DefaultLoggerConfig(),
	}
}

// Clone deep-copies the config, used before deriving per-worker state from
// it so that later mutation of the original (e.g. via Set* methods) cannot
// retroactively change a worker that has already started.
func (c *PoolConfig) Clone() *PoolConfig {
	return clone.Clone(c).(*PoolConfig)
}

// TaskQueueMemoryBudgetBytes parses TaskQueueMemoryBudget, defaulting to 0
// (no budget) if unset or invalid.
func (c *PoolConfig) TaskQueueMemoryBudgetBytes() int64 {
	if c.TaskQueueMemoryBudget == "" {
		return 0
	}
	n, err := units.RAMInBytes(c.TaskQueueMemoryBudget)
	if err != nil {
		return 0
	}
	return n
}

// SetMinWorkers clamps to >= 1 and to <= MaxWorkers (raising MaxWorkers if
// necessary).
func (c *PoolConfig) SetMinWorkers(n int) {
	if n < 1 {
		n = 1
	}
	c.MinWorkers = n
	if c.MaxWorkers < c.MinWorkers {
		c.MaxWorkers = c.MinWorkers
	}
}

// SetMaxWorkers clamps to >= MinWorkers.
func (c *PoolConfig) SetMaxWorkers(n int) {
	if n < c.MinWorkers {
		n = c.MinWorkers
	}
	c.MaxWorkers = n
}

// SetInitialWorkers clamps into [MinWorkers, MaxWorkers]; a negative value
// defers to hardware concurrency at pool-construction time.
func (c *PoolConfig) SetInitialWorkers(n int) {
	if n < 0 {
		c.InitialWorkers = n
		return
	}
	if n < c.MinWorkers {
		n = c.MinWorkers
	}
	if n > c.MaxWorkers {
		n = c.MaxWorkers
	}
	c.InitialWorkers = n
}

func (c *PoolConfig) schedulerKind() TaskKind {
	switch c.SchedulerType {
	case "priority":
		return KindPriority
	case "sjf":
		return KindBurstTime
	default:
		return KindFCFS
	}
}

func newSchedulerForKind(kind TaskKind) Scheduler {
	switch kind {
	case KindPriority:
		return NewPriorityScheduler()
	case KindBurstTime:
		return NewSJFScheduler()
	default:
		return NewFCFSScheduler()
	}
}

// LoadConfig loads the configuration from the specified YAML file (or
// buffer, for testing):
//   - the threadpool_config section is returned as a *PoolConfig
//   - the embedder section is decoded into embedderConfig, which is
//     expected to have been primed with defaults.
func LoadConfig(cfgFile string, embedderConfig any, buf []byte) (*PoolConfig, error) {
	if buf == nil {
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	err := yaml.Unmarshal(buf, &docNode)
	if err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	poolConfig := DefaultPoolConfig()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		var toCfg any = nil
		for _, n := range rootNode.Content {
			if n.Kind == yaml.ScalarNode {
				switch n.Value {
				case THREADPOOL_CONFIG_SECTION_NAME:
					toCfg = poolConfig
				case EMBEDDER_SECTION_NAME:
					toCfg = embedderConfig
				}
				continue
			}
			if n.Kind == yaml.MappingNode && toCfg != nil {
				if err = n.Decode(toCfg); err != nil {
					return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
				}
			}
			toCfg = nil
		}
	}

	return poolConfig, nil
}

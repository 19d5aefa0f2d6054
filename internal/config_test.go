// Unit tests for config.go

package threadpool_internal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	if cfg.SchedulerType != POOL_CONFIG_SCHEDULER_TYPE_DEFAULT {
		t.Errorf("SchedulerType: want: %q, got: %q", POOL_CONFIG_SCHEDULER_TYPE_DEFAULT, cfg.SchedulerType)
	}
	if cfg.schedulerKind() != KindFCFS {
		t.Errorf("schedulerKind(): want: KindFCFS, got: %s", cfg.schedulerKind())
	}
}

func TestPoolConfigClampingSetters(t *testing.T) {
	cfg := DefaultPoolConfig()

	cfg.SetMaxWorkers(8)
	cfg.SetMinWorkers(4)
	if cfg.MinWorkers != 4 || cfg.MaxWorkers != 8 {
		t.Fatalf("after SetMaxWorkers(8)+SetMinWorkers(4): want: min=4 max=8, got: min=%d max=%d", cfg.MinWorkers, cfg.MaxWorkers)
	}

	// Raising MinWorkers above the current MaxWorkers pulls MaxWorkers up too.
	cfg.SetMinWorkers(20)
	if cfg.MaxWorkers != 20 {
		t.Errorf("SetMinWorkers(20) above MaxWorkers: want: MaxWorkers raised to 20, got: %d", cfg.MaxWorkers)
	}

	// SetMaxWorkers below MinWorkers clamps up to MinWorkers.
	cfg.SetMaxWorkers(1)
	if cfg.MaxWorkers != cfg.MinWorkers {
		t.Errorf("SetMaxWorkers(1) below MinWorkers: want: clamped to %d, got: %d", cfg.MinWorkers, cfg.MaxWorkers)
	}

	cfg.SetInitialWorkers(-1)
	if cfg.InitialWorkers != -1 {
		t.Errorf("SetInitialWorkers(-1): want: -1 preserved, got: %d", cfg.InitialWorkers)
	}

	cfg.SetMinWorkers(2)
	cfg.SetMaxWorkers(6)
	cfg.SetInitialWorkers(100)
	if cfg.InitialWorkers != 6 {
		t.Errorf("SetInitialWorkers(100) above MaxWorkers: want: clamped to 6, got: %d", cfg.InitialWorkers)
	}
}

func TestPoolConfigTaskQueueMemoryBudgetBytes(t *testing.T) {
	for _, tc := range []struct {
		name   string
		budget string
		want   int64
	}{
		{"empty", "", 0},
		{"invalid", "not-a-size", 0},
		{"valid", "1KiB", 1024},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPoolConfig()
			cfg.TaskQueueMemoryBudget = tc.budget
			if got := cfg.TaskQueueMemoryBudgetBytes(); got != tc.want {
				t.Errorf("TaskQueueMemoryBudgetBytes(): want: %d, got: %d", tc.want, got)
			}
		})
	}
}

func TestPoolConfigCloneIsIndependent(t *testing.T) {
	cfg := DefaultPoolConfig()
	clone := cfg.Clone()
	clone.SchedulerType = "priority"
	clone.MaxWorkers = 999

	if cfg.SchedulerType == clone.SchedulerType {
		t.Error("Clone(): mutating the clone's SchedulerType affected the original")
	}
	if cfg.MaxWorkers == clone.MaxWorkers {
		t.Error("Clone(): mutating the clone's MaxWorkers affected the original")
	}
}

func TestLoadConfigSections(t *testing.T) {
	type embedderConfig struct {
		Name string `yaml:"name"`
	}
	buf := []byte(`
threadpool_config:
  scheduler_type: priority
  min_workers: 2
  max_workers: 10
embedder:
  name: test-embedder
`)
	embedder := &embedderConfig{}
	cfg, err := LoadConfig("", embedder, buf)
	if err != nil {
		t.Fatal(err)
	}

	wantCfg := DefaultPoolConfig()
	wantCfg.SchedulerType = "priority"
	wantCfg.MinWorkers = 2
	wantCfg.MaxWorkers = 10
	if diff := cmp.Diff(wantCfg, cfg); diff != "" {
		t.Errorf("PoolConfig mismatch (-want +got):\n%s", diff)
	}

	wantEmbedder := &embedderConfig{Name: "test-embedder"}
	if diff := cmp.Diff(wantEmbedder, embedder); diff != "" {
		t.Errorf("embedder config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEmptyBufferYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil, []byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SchedulerType != POOL_CONFIG_SCHEDULER_TYPE_DEFAULT {
		t.Errorf("SchedulerType: want: default %q, got: %q", POOL_CONFIG_SCHEDULER_TYPE_DEFAULT, cfg.SchedulerType)
	}
}

func TestPoolConfigBuilder(t *testing.T) {
	cfg := NewPoolConfigBuilder().
		WithSchedulerType("sjf").
		WithMinWorkers(2).
		WithMaxWorkers(4).
		WithInitialWorkers(3).
		WithSubmitRateLimit("50/s").
		WithLoadBalanceInterval("200ms").
		Build()

	if cfg.SchedulerType != "sjf" {
		t.Errorf("SchedulerType: want: sjf, got: %q", cfg.SchedulerType)
	}
	if cfg.MinWorkers != 2 || cfg.MaxWorkers != 4 || cfg.InitialWorkers != 3 {
		t.Errorf("worker bounds: want: min=2 max=4 initial=3, got: min=%d max=%d initial=%d",
			cfg.MinWorkers, cfg.MaxWorkers, cfg.InitialWorkers)
	}
	if cfg.SubmitRateLimit != "50/s" {
		t.Errorf("SubmitRateLimit: want: 50/s, got: %q", cfg.SubmitRateLimit)
	}
	if cfg.LoadBalanceInterval != "200ms" {
		t.Errorf("LoadBalanceInterval: want: 200ms, got: %q", cfg.LoadBalanceInterval)
	}
}

// Process entry point for an executable built around this pool: parse
// flags, load config, build and start a Pool, block for a shutdown signal,
// drain outstanding tasks within a grace period.

package threadpool_internal

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	CONFIG_FLAG_NAME          = "config"
	INSTANCE_DEFAULT          = "threadpool"
	RUNNER_SHUTDOWN_MAX_WAIT  = 5 * time.Second
)

var (
	// Build info, normally set via init() by the embedder.
	Version string
	GitInfo string

	pool *Pool
)

var (
	versionArg = flag.Bool(
		"version",
		false,
		`Print the version and exit`,
	)

	configFileArg = flag.String(
		CONFIG_FLAG_NAME,
		fmt.Sprintf("%s-config.yaml", INSTANCE_DEFAULT),
		`Config file to load`,
	)

	logLevelArg = flag.String(
		"log-level",
		"",
		`Override the "threadpool_config.log_config.level" config setting`,
	)

	schedulerTypeArg = flag.String(
		"scheduler-type",
		"",
		`Override the "threadpool_config.scheduler_type" config setting: fcfs, priority or sjf`,
	)

	workersArg = flag.Int(
		"workers",
		-1,
		`Override the "threadpool_config.initial_workers" config setting`,
	)

	shutdownMaxWaitArg = flag.Duration(
		"shutdown-max-wait",
		RUNNER_SHUTDOWN_MAX_WAIT,
		`How long to wait for outstanding tasks to finish before a forced exit`,
	)
)

var runnerLog = NewCompLogger("runner")

// GetPool returns the pool built and started by Run, once Run has reached
// that point; nil beforehand.
func GetPool() *Pool { return pool }

// Run loads configuration (optionally overridden by command line args),
// builds and starts a Pool, and blocks until a termination signal arrives.
// embedderConfig is decoded from the YAML "embedder" section, primed with
// whatever defaults the embedder already set on it; buildTasks, if
// non-nil, is invoked once the pool is running so the embedder can submit
// its own initial workload. The return value is meant to be used as the
// process exit status.
func Run(embedderConfig any, buildTasks func(*Pool) error) int {
	if !flag.Parsed() {
		flag.Parse()
	}

	if *versionArg {
		fmt.Fprintf(os.Stderr, "Version: %s, GitInfo: %s\n", Version, GitInfo)
		return 0
	}

	cfg, err := LoadConfig(*configFileArg, embedderConfig, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
		return 1
	}

	if *logLevelArg != "" {
		cfg.LoggerConfig.Level = *logLevelArg
	}
	if *schedulerTypeArg != "" {
		cfg.SchedulerType = *schedulerTypeArg
	}
	if *workersArg >= 0 {
		cfg.SetInitialWorkers(*workersArg)
	}

	if err := SetLogger(cfg.LoggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting the logger: %v\n", err)
		return 1
	}

	pool, err = NewPool(cfg)
	if err != nil {
		runnerLog.Errorf("error creating pool: %v", err)
		return 1
	}
	pool.Start()
	defer pool.Shutdown()

	if buildTasks != nil {
		if err := buildTasks(pool); err != nil {
			runnerLog.Errorf("error building initial tasks: %v", err)
			return 1
		}
	}

	runnerLog.Infof("pool %d running, scheduler=%s workers=%d", pool.ID(), pool.kind, pool.NumWorkers())

	shutdownMaxWait := *shutdownMaxWaitArg

	var shutdownTimer *time.Timer
	if shutdownMaxWait > 0 {
		shutdownTimer = time.NewTimer(1 * time.Hour)
		shutdownTimer.Stop()
		defer shutdownTimer.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	if shutdownMaxWait == 0 {
		runnerLog.Fatalf("%s signal received, force exit", sig)
	} else {
		runnerLog.Warnf("%s signal received, shutting down", sig)
	}

	if shutdownTimer != nil {
		go func() {
			shutdownTimer.Reset(shutdownMaxWait)
			<-shutdownTimer.C
			runnerLog.Fatalf("shutdown timed out after %s, force exit", shutdownMaxWait)
		}()
	}

	pool.WaitAllTasksExecutionFinished(shutdownMaxWait)

	return 0
}

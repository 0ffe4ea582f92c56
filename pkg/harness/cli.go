package harness

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dbpulse/dbpulse/internal/logging"
)

// CLIConfig allows developers to customize their own load testing tool.
type CLIConfig struct {
	AppName      string
	AppShortDesc string
	AppLongDesc  string

	// BuildResourcePool constructs the pooled external resource and the unit
	// of work to execute against it.
	BuildResourcePool func(ctx context.Context, cfg *Config) (ResourcePool, UnitOfWork, error)
}

var (
	flagVerbose bool

	flagPattern   string
	flagRate      float64
	flagStartRate float64
	flagEndRate   float64
	flagBaseRate  float64
	flagAmplitude float64
	flagDuration  time.Duration
	flagPeriod    time.Duration
)

func buildCLI(cli *CLIConfig, logger logging.Logger) *cobra.Command {
	cobra.OnInitialize(func() { initLogLevel(logger) })
	var cfg Config
	rootCmd := &cobra.Command{
		Use:   cli.AppName,
		Short: cli.AppShortDesc,
		Long:  cli.AppLongDesc,
		Run: func(cmd *cobra.Command, args []string) {
			if len(cfg.DatabaseURL) == 0 {
				cfg.DatabaseURL = os.Getenv("DATABASE_URL")
			}
			if cfg.Workers < 1 {
				cfg.Workers = runtime.NumCPU()
			}
			if cfg.QueueCapacity < 1 {
				cfg.QueueCapacity = cfg.Workers * 100
			}
			cfg.Pattern = patternFromFlags()
			if err := cfg.Validate(); err != nil {
				logger.Error(err.Error())
				os.Exit(1)
			}

			if err := executeLoadTest(cli, &cfg, logger); err != nil {
				os.Exit(1)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", "", "The connection string for the target database (defaults to the DATABASE_URL environment variable)")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "w", 0, "The number of workers to spawn - defaults to the number of CPUs")
	rootCmd.PersistentFlags().IntVar(&cfg.QueueCapacity, "queue-capacity", 0, "The fixed capacity of the work queue - defaults to workers*100")
	rootCmd.PersistentFlags().Uint64VarP(&cfg.Count, "count", "N", 1000, "The total number of requests to generate")
	rootCmd.PersistentFlags().StringVar(&cfg.Table, "table", "load_test", "The table the unit of work writes into")
	rootCmd.PersistentFlags().StringVar(&cfg.MetricsAddr, "metrics-addr", "", "An optional host:port on which to serve Prometheus metrics during the run")
	rootCmd.PersistentFlags().StringVar(&flagPattern, "pattern", "constant", "The pacing pattern to use - can be constant, burst, ramp or sine")
	rootCmd.PersistentFlags().Float64VarP(&flagRate, "rate", "r", 100, "The send rate (requests/sec) for the constant and burst patterns")
	rootCmd.PersistentFlags().Float64Var(&flagStartRate, "start-rate", 10, "The initial send rate (requests/sec) for the ramp pattern")
	rootCmd.PersistentFlags().Float64Var(&flagEndRate, "end-rate", 200, "The final send rate (requests/sec) for the ramp pattern")
	rootCmd.PersistentFlags().Float64Var(&flagBaseRate, "base-rate", 100, "The midline send rate (requests/sec) for the sine pattern")
	rootCmd.PersistentFlags().Float64Var(&flagAmplitude, "amplitude", 50, "The rate amplitude (requests/sec) for the sine pattern")
	rootCmd.PersistentFlags().DurationVarP(&flagDuration, "duration", "T", 10*time.Second, "The time cutoff for the burst and ramp patterns")
	rootCmd.PersistentFlags().DurationVar(&flagPeriod, "period", 20*time.Second, "The oscillation period for the sine pattern")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Increase output logging verbosity to DEBUG level")
	return rootCmd
}

func patternFromFlags() Pattern {
	switch PatternKind(flagPattern) {
	case PatternConstant:
		return ConstantPattern(flagRate)
	case PatternBurst:
		return BurstPattern(flagRate, flagDuration)
	case PatternRamp:
		return RampPattern(flagStartRate, flagEndRate, flagDuration)
	case PatternSine:
		return SinePattern(flagBaseRate, flagAmplitude, flagPeriod)
	default:
		// let Validate report the unrecognized pattern
		return Pattern{Kind: PatternKind(flagPattern)}
	}
}

func executeLoadTest(cli *CLIConfig, cfg *Config, logger logging.Logger) error {
	ctx := context.Background()
	pool, work, err := cli.BuildResourcePool(ctx, cfg)
	if err != nil {
		logger.Error("Failed to construct resource pool", "err", err)
		return err
	}

	runner := NewRunner(cfg, pool, work)

	// we want to know if the user hits Ctrl+Break
	cancelTrap := trapInterrupts(func() { runner.Kill() }, logger)
	defer close(cancelTrap)

	summary, err := runner.Run()
	if err != nil {
		logger.Error("Load test execution failed", "err", err)
		return err
	}

	WriteBenchmarkReport(os.Stdout, summary.Stats, summary.Metrics)
	summary.Log(logger)
	return nil
}

func initLogLevel(logger logging.Logger) {
	if flagVerbose {
		logrus.SetLevel(logrus.DebugLevel)
		logger.Debug("Set logging level to DEBUG")
	}
}

// Run must be executed from your `main` function in your Go code. This can
// be used to fast-track the construction of your own load testing tool for
// your own schema and unit of work.
func Run(cli *CLIConfig) {
	logger := logging.NewLogrusLogger("main")
	if err := buildCLI(cli, logger).Execute(); err != nil {
		logger.Error("Error", "err", err)
	}
}

func trapInterrupts(onKill func(), logger logging.Logger) chan struct{} {
	sigc := make(chan os.Signal, 1)
	cancelTrap := make(chan struct{})
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigc:
			logger.Info(fmt.Sprintf("Caught signal: %s", sig.String()))
			onKill()
		case <-cancelTrap:
			return
		}
	}()
	return cancelTrap
}

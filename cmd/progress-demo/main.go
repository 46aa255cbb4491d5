package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"time"

	logrusr "github.com/bombsimon/logrusr/v3"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/konveyor/progress-logger/progress"
	"github.com/konveyor/progress-logger/progress/sink"
	"github.com/konveyor/progress-logger/tracing"
)

const (
	logMaxSizeMB  = 5
	logMaxAgeDays = 14
	logMaxBackups = 5

	// reportBatch is the number of items a worker processes before handing
	// its count to the goroutine that owns the logger.
	reportBatch = 1024
)

var (
	configFile     string
	items          uint64
	work           time.Duration
	workers        int
	light          bool
	sinkName       string
	logFile        string
	logLevel       int
	enableJaeger   bool
	jaegerEndpoint string
)

var sinkNames = []string{"logr", "logrus", "zerolog", "stdr", "text"}

func main() {
	if err := DemoCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// DemoCmd drives a synthetic workload through a progress logger
func DemoCmd() *cobra.Command {
	var errLog logr.Logger
	progressConfig := &progress.Config{}

	rootCmd := &cobra.Command{
		Use:          "progress-demo",
		Short:        "Process synthetic items while logging progress",
		SilenceUsage: true,
		PreRunE: func(c *cobra.Command, args []string) error {
			logrusErrLog := logrus.New()
			logrusErrLog.SetOutput(os.Stderr)
			errLog = logrusr.New(logrusErrLog)
			err := validateFlags()
			if err != nil {
				errLog.Error(err, "failed to validate flags")

				return err
			}

			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			out := io.Writer(os.Stdout)
			if logFile != "" {
				rotating := &lumberjack.Logger{
					Filename:   logFile,
					MaxSize:    logMaxSizeMB,
					MaxAge:     logMaxAgeDays,
					MaxBackups: logMaxBackups,
				}
				defer rotating.Close()
				out = rotating
			}

			logrusLog := logrus.New()
			logrusLog.SetOutput(out)
			logrusLog.SetFormatter(&logrus.TextFormatter{})
			// verbose 0 -> info, 1 -> V(1) logs show up
			logrusLog.SetLevel(logrus.Level(logLevel + 4))
			log := logrusr.New(logrusLog)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			tp, err := tracing.InitTracerProvider(log, tracing.Options{
				ServiceName:    "progress-demo",
				EnableJaeger:   enableJaeger,
				JaegerEndpoint: jaegerEndpoint,
			})
			if err != nil {
				errLog.Error(err, "failed to initialize tracing")
				return err
			}
			defer tracing.Shutdown(context.Background(), log, tp)

			ctx, activity := tracing.StartActivity(ctx, "progress-demo", items,
				attribute.Int("workers", workers))

			config := *progressConfig
			if configFile != "" {
				fileConfig, err := progress.LoadConfig(configFile)
				if err != nil {
					errLog.Error(err, "unable to load progress config", "file", configFile)
					activity.End(0, err)
					return err
				}
				config = fileConfig.Merge(config)
			}
			opts, err := config.ToOptions()
			if err != nil {
				errLog.Error(err, "invalid progress config")
				activity.End(0, err)
				return err
			}
			if config.ExpectedUpdates == 0 {
				opts = append(opts, progress.WithExpectedUpdates(items))
			}
			opts = append(opts,
				progress.WithSink(sink.Multi(newSink(sinkName, out, logrusLog, log), activity.Sink())),
				progress.WithLogger(log.WithName("progress")),
			)

			pl := progress.New(opts...)
			log.V(1).Info("starting workload", "items", items, "workers", workers, "work", work, "light", light)

			pl.Start(fmt.Sprintf("Processing %d synthetic items...", items))
			var processed uint64
			if workers == 1 {
				processed, err = runSequential(ctx, pl, items, work, light)
			} else {
				processed, err = runParallel(ctx, pl, items, workers, work)
			}
			pl.DoneWithCount(processed)
			activity.End(processed, err)

			if err != nil {
				errLog.Error(err, "workload interrupted", "processed", processed)
				return err
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML progress config; flags override its values")
	rootCmd.Flags().Uint64Var(&items, "items", 1_000_000, "number of items to process")
	rootCmd.Flags().DurationVar(&work, "work", 0, "simulated cost of one item")
	rootCmd.Flags().IntVar(&workers, "workers", 1, "number of concurrent workers")
	rootCmd.Flags().BoolVar(&light, "light", false, "use light updates (sequential only)")
	rootCmd.Flags().StringVar(&sinkName, "sink", "logr", "destination of progress lines: logr, logrus, zerolog, stdr or text")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to a rotating file instead of stdout")
	rootCmd.Flags().IntVar(&logLevel, "verbose", 0, "level for logging output")
	rootCmd.Flags().BoolVar(&enableJaeger, "enable-jaeger", false, "enable tracer exports to jaeger endpoint")
	rootCmd.Flags().StringVar(&jaegerEndpoint, "jaeger-endpoint", "http://localhost:14268/api/traces", "jaeger endpoint to collect tracing data")
	progressConfig.AddFlags(rootCmd)

	return rootCmd
}

func validateFlags() error {
	if workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", workers)
	}
	if light && workers != 1 {
		return fmt.Errorf("light updates need a single worker")
	}
	if logLevel < 0 {
		return fmt.Errorf("verbose must not be negative")
	}
	for _, name := range sinkNames {
		if name == sinkName {
			return nil
		}
	}
	return fmt.Errorf("unknown sink %q, expected one of %v", sinkName, sinkNames)
}

func newSink(name string, out io.Writer, logrusLog *logrus.Logger, log logr.Logger) progress.Sink {
	switch name {
	case "logrus":
		return sink.Logrus(logrusLog)
	case "zerolog":
		return sink.Zerolog(zerolog.New(out).With().Timestamp().Logger())
	case "stdr":
		return sink.Logr(stdr.New(stdlog.New(out, "", stdlog.LstdFlags)))
	case "text":
		return sink.Writer(out)
	default:
		return sink.Logr(log)
	}
}

// doItem simulates the work on one item.
func doItem(ctx context.Context, work time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if work > 0 {
		time.Sleep(work)
	}
	return nil
}

func runSequential(ctx context.Context, pl *progress.ProgressLogger, items uint64, work time.Duration, light bool) (uint64, error) {
	update := pl.Update
	if light {
		update = pl.LightUpdate
	}
	for i := uint64(0); i < items; i++ {
		if err := doItem(ctx, work); err != nil {
			return i, err
		}
		update()
	}
	return items, nil
}

// runParallel splits items among workers. Workers hand batch counts to this
// goroutine, the only one touching the logger.
func runParallel(ctx context.Context, pl *progress.ProgressLogger, items uint64, workers int, work time.Duration) (uint64, error) {
	counts := make(chan uint64, workers)
	g, ctx := errgroup.WithContext(ctx)

	share := items / uint64(workers)
	for w := 0; w < workers; w++ {
		n := share
		if w == workers-1 {
			n = items - share*uint64(workers-1)
		}
		g.Go(func() error {
			var batch uint64
			defer func() {
				if batch > 0 {
					counts <- batch
				}
			}()
			for i := uint64(0); i < n; i++ {
				if err := doItem(ctx, work); err != nil {
					return err
				}
				batch++
				if batch == reportBatch {
					counts <- batch
					batch = 0
				}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(counts)
	}()

	var processed uint64
	for n := range counts {
		processed += n
		pl.UpdateWithCount(n)
	}
	return processed, <-waitErr
}

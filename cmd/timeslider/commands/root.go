package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/knadh/koanf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"timeslider/internal/config"
	"timeslider/internal/core"
)

// errDumped stops the command after --conf.dump printed the configuration.
var errDumped = errors.New("configuration dumped")

// app carries the process-wide state built from configuration before any
// subcommand runs.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg      config.Config
	k        *koanf.Koanf
	logger   *slog.Logger
	closeLog func() error
	metrics  core.MetricsRecorder
	expvar   *core.ExpvarMetricsRecorder
	server   *http.Server
}

// Execute runs the command line in args.
func Execute(args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	a.shutdown()
	if errors.Is(err, errDumped) {
		return nil
	}
	if err != nil {
		fmt.Fprintf(stderr, "timeslider: %v\n", err)
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "timeslider",
		Short:         "Temporal extent slider engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	config.AddOptions(root.PersistentFlags())

	root.AddCommand(
		a.stepsCmd(),
		a.divideCmd(),
		a.snapCmd(),
		a.ticksCmd(),
		a.dragCmd(),
		a.playCmd(),
		a.stateCmd(),
		a.exportCmd(),
		a.layerCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, k, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg, a.k = cfg, k
	if cfg.Conf.Dump {
		out, err := config.Dump(k)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(a.stdout, string(out)); err != nil {
			return err
		}
		return errDumped
	}

	logger, closeLog, err := config.NewLogger(cfg.Log, a.stderr)
	if err != nil {
		return err
	}
	a.logger, a.closeLog = logger, closeLog
	return a.setupMetrics(cfg.Metrics)
}

func (a *app) setupMetrics(c config.MetricsConfig) error {
	switch c.Backend {
	case "expvar":
		rec := core.NewExpvarMetricsRecorder("")
		a.metrics, a.expvar = rec, rec
	case "prometheus":
		reg := prometheus.NewRegistry()
		rec, err := core.NewPrometheusMetricsRecorder(reg, c.Namespace)
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", c.Listen)
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
		a.logger.Debug("serving metrics", "addr", ln.Addr().String())
		a.metrics = rec
	}
	return nil
}

func (a *app) shutdown() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.server.Shutdown(ctx)
		cancel()
	}
	if a.expvar != nil && a.logger != nil {
		snap := a.expvar.Snapshot()
		a.logger.Debug("operation metrics", "durations_ms", snap.DurationsMS, "results", snap.Results)
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// sliderOptions wires the configured logger and metrics into a new slider.
func (a *app) sliderOptions(sched core.Scheduler) []core.Option {
	opts := append(a.cfg.Slider.Options(), core.WithLogger(a.logger))
	if a.metrics != nil {
		opts = append(opts, core.WithMetricsRecorder(a.metrics))
	}
	if sched != nil {
		opts = append(opts, core.WithScheduler(sched))
	}
	return opts
}

// Package main is the entry point for the rewind script runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/history"
	"github.com/dshills/rewind/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the command-line flags.
type options struct {
	ConfigPath  string
	LogLevel    string
	MetricsAddr string
	MaxFrames   int
	Watch       bool
	Script      string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	applyFlags(&cfg, opts)

	logger, err := config.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Handle signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
	}

	r := &runner{
		cfg:     cfg,
		logger:  logger,
		metrics: history.NewMetrics(reg),
		out:     os.Stdout,
	}

	err = r.runOnce(ctx, opts.Script)
	if !opts.Watch {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if err != nil {
		logger.Error("script failed", "error", err)
	}

	w, err := watch.New(opts.Script,
		watch.WithDebounce(time.Duration(cfg.Script.WatchDebounceMS)*time.Millisecond),
		watch.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to watch %s: %v\n", opts.Script, err)
		return 1
	}
	defer w.Close()

	logger.Info("watching", "script", w.Path())
	err = w.Run(ctx, func() {
		if err := r.runOnce(ctx, opts.Script); err != nil {
			logger.Error("script failed", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: metrics server: %v\n", err)
		}
	}()
	return srv
}

// applyFlags overrides cfg with flags the user set.
func applyFlags(cfg *config.Config, opts options) {
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	if opts.MaxFrames >= 0 {
		cfg.History.MaxFrames = opts.MaxFrames
	}
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.IntVar(&opts.MaxFrames, "max-frames", -1, "Maximum saved frames, 0 for unlimited")
	flag.BoolVar(&opts.Watch, "watch", false, "Re-run the script when it changes")
	flag.BoolVar(&opts.Watch, "w", false, "Re-run the script when it changes (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rewind - run Lua scripts against an undoable object store\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rewind [options] script.lua\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  rewind demo.lua                     Run once and print the history\n")
		fmt.Fprintf(os.Stderr, "  rewind -w demo.lua                  Re-run on every save\n")
		fmt.Fprintf(os.Stderr, "  rewind -metrics-addr :9100 demo.lua Expose /metrics\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("rewind %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	if opts.LogLevel != "" {
		if _, err := config.ParseLevel(opts.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.Script = flag.Arg(0)

	return opts
}

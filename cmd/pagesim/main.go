package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sibexico/pagesim/commentary"
	"github.com/sibexico/pagesim/replacement"
	"github.com/sibexico/pagesim/timeline"
)

type options struct {
	refs       string
	frames     int
	framesSet  bool
	algorithm  string
	play       bool
	interval   time.Duration
	compare    bool
	configPath string
	serve      bool
	noColor    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("pagesim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.refs, "refs", "", "Page reference sequence, e.g. \"7 0 1 2 0 3\"")
	fs.IntVar(&opts.frames, "frames", 0, "Number of physical frames (default from config)")
	fs.StringVar(&opts.algorithm, "algorithm", "", "FIFO, ModifiedFIFO, LRU, or Optimal (default from config)")
	fs.BoolVar(&opts.play, "play", false, "Auto-play the timeline instead of printing it at once")
	fs.DurationVar(&opts.interval, "interval", 0, "Auto-play step interval (default from config)")
	fs.BoolVar(&opts.compare, "compare", false, "Compare fault counts of all algorithms")
	fs.StringVar(&opts.configPath, "config", "", "JSON configuration file (default: PAGESIM_* environment)")
	fs.BoolVar(&opts.serve, "serve", false, "Run the HTTP/WebSocket host")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "frames" {
			opts.framesSet = true
		}
	})
	if opts.refs == "" && fs.NArg() > 0 {
		opts.refs = fs.Arg(0)
	}
	return opts, nil
}

func loadConfig(path string) (*replacement.Config, error) {
	if path != "" {
		return replacement.LoadConfigFromFile(path)
	}
	cfg := replacement.LoadConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color := isTerminal(os.Stdout.Fd())
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, color); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, color bool) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger := NewLogger(stderr, cfg.LogLevel, "pagesim")
	metrics := replacement.NewMetrics()

	clientOpts := commentary.OptionsFromConfig(cfg)
	clientOpts.Logger = logger.With("component", "commentary")
	clientOpts.Metrics = metrics
	client := commentary.NewClient(clientOpts)

	if opts.serve {
		ws, err := NewWebServer(cfg, metrics, client, logger)
		if err != nil {
			return err
		}
		err = ws.ListenAndServe(ctx)
		if cfg.EnableMetrics {
			metrics.LogMetrics(logger)
		}
		return err
	}

	return runCLI(ctx, opts, cfg, client, metrics, logger, stdout, color && !opts.noColor)
}

func runCLI(ctx context.Context, opts *options, cfg *replacement.Config, client *commentary.Client,
	metrics *replacement.Metrics, logger *slog.Logger, out io.Writer, color bool) error {

	frames := opts.frames
	if !opts.framesSet {
		frames = cfg.DefaultFrameCount
	}
	algorithm := opts.algorithm
	if algorithm == "" {
		algorithm = cfg.DefaultAlgorithm
	}

	result, err := startSimulation(metrics, opts.refs, frames, algorithm)
	if err != nil {
		return err
	}

	presenter := newTextPresenter(out, color)
	nav := timeline.New(presenter, timeline.WithLogger(logger))
	defer nav.Close()
	nav.Reset(result)

	if opts.play {
		interval := opts.interval
		if interval <= 0 {
			interval = cfg.AutoPlayInterval()
		}
		nav.TogglePlay(interval)
		select {
		case <-presenter.Done():
		case <-ctx.Done():
			nav.Stop()
			fmt.Fprintln(out, "Interrupted.")
			return ctx.Err()
		}
	} else {
		for nav.Advance() {
		}
	}

	printSummary(out, result)

	var cmp *replacement.Comparison
	if opts.compare {
		c, err := replacement.CompareAlgorithms(result.References, result.FrameCount)
		if err != nil {
			return err
		}
		cmp = &c
		printComparison(out, c, result.Algorithm)
	}

	if client.Enabled() {
		req := commentary.RequestFromResult(result)
		req.Comparison = cmp

		feedback := make(chan commentary.Result, 1)
		client.RequestAsync(ctx, req, func(res commentary.Result) { feedback <- res })

		select {
		case res := <-feedback:
			fmt.Fprintf(out, "Commentary: %s\n", res.Text)
		case <-ctx.Done():
		}
	}

	if cfg.EnableMetrics {
		metrics.LogMetrics(logger)
	}
	return nil
}

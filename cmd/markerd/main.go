// Command markerd runs the off-screen marker service for a host over stdin/stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/overlaykit/markers/internal/config"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"
)

const ServiceName = "markerd"

const (
	modeServe = "serve"
	modeDemo  = "demo"
)

type cliOptions struct {
	ConfigDir string
	Mode      string
	Entities  string
}

func parseArgs(args []string, stderr io.Writer) (cliOptions, error) {
	flags := pflag.NewFlagSet(ServiceName, pflag.ContinueOnError)
	flags.SetOutput(stderr)

	var opts cliOptions
	flags.StringVarP(&opts.ConfigDir, "config", "c", ".", "directory containing "+config.FileName)
	flags.StringVar(&opts.Entities, "entities", "", `demo entity positions as JSON, e.g. "[[0,300],[2500,-400,10]]"`)
	logLevel := flags.String("log-level", "", "overrides logLevel from the config file")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [serve|demo]\n", ServiceName)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if *logLevel != "" {
		viper.Set("logLevel", *logLevel)
	}

	switch flags.NArg() {
	case 0:
		opts.Mode = modeServe
	case 1:
		opts.Mode = flags.Arg(0)
	default:
		return opts, fmt.Errorf("expected one command, got %v", flags.Args())
	}
	if opts.Mode != modeServe && opts.Mode != modeDemo {
		return opts, fmt.Errorf("unknown command %q", opts.Mode)
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := config.Load(opts.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config, using defaults: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.Mode {
	case modeDemo:
		err = runDemo(os.Stdout, opts.Entities)
	default:
		err = runServe(ctx, os.Stdin, os.Stdout)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServe answers host calls read from r until r closes or ctx is cancelled.
func runServe(ctx context.Context, r io.Reader, w io.Writer) error {
	a, err := newApp(appOptions{LoopHandlers: true})
	if err != nil {
		return err
	}

	loopCtx, cancelLoop := context.WithCancel(ctx)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := a.loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("Scheduler loop stopped", "error", err)
		}
	}()

	if err := a.monitor.Start(); err != nil {
		a.logger.Warn("Failed to start status monitor", "error", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.host.Serve(ctx, r, w)
	}()

	select {
	case err = <-serveErr:
		a.logger.Info("Input closed, shutting down")
	case <-ctx.Done():
		err = ctx.Err()
		a.logger.Info("Interrupted, shutting down")
	}

	cancelLoop()
	<-loopDone

	return errors.Join(err, a.close())
}

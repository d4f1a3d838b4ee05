package main

import (
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/term"

	"netenergy-sim/internal/config"
	"netenergy-sim/internal/logging"
	"netenergy-sim/internal/sim"
)

type writerOptions struct {
	printOnly bool
	tui       bool
}

// isTerminal reports whether STDOUT is a TTY. Overridden in tests.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// newWriters assembles the sinks selected by cfg and opts. It returns a
// single fan-out writer and a cleanup function closing every sink.
func newWriters(ctx context.Context, cfg *config.OptimizerConfig, opts writerOptions) (sim.Writer, func(), error) {
	var (
		snaps   []sim.SnapshotWriter
		msgs    []sim.MessageWriter
		closers []io.Closer
	)
	add := func(w sim.Writer) {
		snaps = append(snaps, w)
		msgs = append(msgs, w)
		if c, ok := w.(io.Closer); ok {
			closers = append(closers, c)
		}
	}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}
	fail := func(err error) (sim.Writer, func(), error) {
		cleanup()
		return nil, nil, err
	}
	log := logging.FromContext(ctx)

	add(baseWriter(opts))

	if cfg.Sinks.LogFile != "" {
		fw, err := sim.NewFileWriter(cfg.Sinks.LogFile, cfg.Sinks.LogFile+".messages")
		if err != nil {
			return fail(err)
		}
		add(fw)
	}

	if !opts.printOnly {
		if g := cfg.Sinks.Greptime; g.Endpoint != "" {
			w, err := sim.NewGreptimeDBWriter(g.Endpoint, g.Database, log)
			if err != nil {
				return fail(err)
			}
			log.Info("writing to GreptimeDB", "endpoint", g.Endpoint, "database", g.Database)
			add(w)
		}
		if in := cfg.Sinks.Influx; in.URL != "" {
			if in.Org == "" || in.Bucket == "" {
				return fail(errors.New("influx sink requires org and bucket"))
			}
			w, err := sim.NewInfluxWriter(ctx, in.URL, in.Token, in.Org, in.Bucket)
			if err != nil {
				return fail(err)
			}
			log.Info("writing to InfluxDB", "url", in.URL, "bucket", in.Bucket)
			add(w)
		}
	}

	return sim.NewMultiWriter(snaps, msgs), cleanup, nil
}

// baseWriter picks the console sink: the TUI when requested, colored text
// on a terminal, JSON lines otherwise.
func baseWriter(opts writerOptions) sim.Writer {
	switch {
	case opts.tui:
		return sim.NewTUIWriter()
	case isTerminal():
		return sim.NewColorStdoutWriter()
	default:
		return sim.NewJSONStdoutWriter()
	}
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atikulmunna/grokline/internal/aggregator"
	"github.com/atikulmunna/grokline/internal/config"
	"github.com/atikulmunna/grokline/internal/errs"
	"github.com/atikulmunna/grokline/internal/input"
	"github.com/atikulmunna/grokline/internal/output"
	"github.com/atikulmunna/grokline/internal/parser"
	"github.com/atikulmunna/grokline/internal/pipeline"
	"github.com/atikulmunna/grokline/internal/rules"
)

func runParse(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errs.Config("bind flags", err)
	}
	opts, err := config.Load(v, args)
	if err != nil {
		return err
	}
	configureLogging(opts.LogLevel)

	// --- Set up context with graceful shutdown ---
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// a second signal terminates immediately
		stop()
	}()

	_, err = Run(ctx, opts)
	return err
}

// Run executes one parse with validated options. Nothing is written until
// the pattern has compiled and the inputs have been resolved.
func Run(ctx context.Context, opts *config.Options) (aggregator.Stats, error) {
	// --- Compile ---
	defs, err := rules.LoadFiles(opts.Rules...)
	if err != nil {
		return aggregator.Stats{}, err
	}
	m, err := parser.Compile(opts.Pattern, parser.CompileOptions{
		PatternsDir: opts.PatternsDir,
		NoDefaults:  opts.NoPatterns,
		Rules:       defs,
	})
	if err != nil {
		return aggregator.Stats{}, err
	}

	// --- Resolve inputs ---
	src, err := input.Open(opts.Inputs)
	if err != nil {
		return aggregator.Stats{}, err
	}
	defer src.Close()

	// --- Open output ---
	sink, err := output.OpenSink(opts.Output, opts.Overwrite)
	if err != nil {
		return aggregator.Stats{}, err
	}
	enc, err := output.New(opts.Format(), sink)
	if err != nil {
		sink.Close()
		return aggregator.Stats{}, err
	}

	log := logrus.WithFields(logrus.Fields{
		"format": opts.Format(),
		"output": sink.Name(),
	})
	log.WithFields(logrus.Fields{
		"pattern": m.Pattern(),
		"fields":  m.Fields(),
		"inputs":  src.Paths(),
	}).Debug("Starting run")

	return pipeline.New(m, enc, log).Run(ctx, src, opts.Stats)
}

func configureLogging(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(lvl)
}

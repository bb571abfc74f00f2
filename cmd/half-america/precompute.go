package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stevenfazzio/half-america/sweep"
)

func newPrecomputeCmd(a *app) *cobra.Command {
	var (
		in           inputFlags
		skipFailures bool
		metricsOut   string
	)
	cmd := &cobra.Command{
		Use:   "precompute",
		Short: "Run the lambda sweep and cache the result",
		Long: `Precompute builds the tract graph, runs the mu search for every lambda
of the configured grid and writes the sweep to the cache directory.

An existing cache file for the same dataset and lambda step is reused unless
--force is given, which also rebuilds the cached graph. By default the first
lambda that fails to converge aborts the run; --skip-failures records it as unconverged instead.`,
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.validate(); err != nil {
				return err
			}
			if skipFailures {
				a.v.Set("sweep.policy", sweep.BestEffort.String())
			}
			cfg, log, err := a.setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			path := sweep.CachePath(cfg.Data.CacheDir, in.datasetID(a, cfg), cfg.Sweep.LambdaStep)
			if !in.force {
				res, err := sweep.Load(path)
				switch {
				case err == nil:
					log.Info("using cached sweep", zap.String("path", path), zap.String("run_id", res.RunID))
					return printSweep(cmd.OutOrStdout(), path, res)
				case !errors.Is(err, fs.ErrNotExist):
					return err
				}
			}

			g, err := in.load(a, cfg, log)
			if err != nil {
				return err
			}
			log.Info("graph attributes", zap.Any("summary", g.attrs.Summary()))

			opts, err := cfg.SweepOptions(log)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			opts = append(opts, sweep.WithMetrics(sweep.NewMetrics(reg)))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			res, err := sweep.Run(ctx, g.attrs, opts...)
			if err != nil {
				return err
			}
			if err := sweep.Save(path, res); err != nil {
				return err
			}
			log.Info("saved sweep", zap.String("path", path))

			if metricsOut != "" {
				if err := prometheus.WriteToTextfile(metricsOut, reg); err != nil {
					return err
				}
			}
			return printSweep(cmd.OutOrStdout(), path, res)
		},
	}

	f := cmd.Flags()
	in.register(f)
	f.Float64("lambda-step", 0.1, "spacing of the lambda grid")
	f.Float64("lambda-max", 0.99, "exclusive upper bound of the lambda grid")
	f.Int("workers", 0, "concurrent lambda searches (0 = GOMAXPROCS)")
	f.String("algorithm", "dinic", "max-flow algorithm: dinic or edmonds-karp")
	f.Float64("target", 0.5, "target population fraction")
	f.Float64("tolerance", 0.01, "accepted deviation from the target fraction")
	f.BoolVar(&skipFailures, "skip-failures", false, "record non-converged lambdas instead of aborting")
	f.StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics in text format to this file")
	return cmd
}

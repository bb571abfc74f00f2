package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stevenfazzio/half-america/sweep"
)

func newInspectCmd(a *app) *cobra.Command {
	var lambda float64
	cmd := &cobra.Command{
		Use:   "inspect [sweep-file]",
		Short: "Print a cached sweep",
		Long: `Inspect loads a sweep written by precompute and prints one row per lambda.
Without an argument the cache path of the configured dataset is used.
With --lambda the selected node indices of that lambda are listed instead.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			path := sweep.CachePath(cfg.Data.CacheDir, cfg.Data.DatasetID, cfg.Sweep.LambdaStep)
			if len(args) == 1 {
				path = args[0]
			}
			res, err := sweep.Load(path)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("lambda") {
				return printSweep(cmd.OutOrStdout(), path, res)
			}
			lr, ok := res.Results[lambda]
			if !ok {
				return fmt.Errorf("lambda %g not in sweep %s", lambda, path)
			}
			return printSelection(cmd.OutOrStdout(), lr)
		},
	}
	f := cmd.Flags()
	f.String("dataset-id", "", "dataset identifier used in the cache file name")
	f.String("cache-dir", "", "directory holding cached sweeps")
	f.Float64("lambda-step", 0.1, "lambda step of the cached sweep")
	f.Float64Var(&lambda, "lambda", 0, "list the selected nodes of this lambda")
	return cmd
}

func printSweep(w io.Writer, path string, res *sweep.Result) error {
	fmt.Fprintf(w, "sweep %s\nrun %s: %d lambdas, %d iterations, %s, all converged: %t\n\n",
		path, res.RunID, len(res.Lambdas), res.TotalIterations, res.TotalElapsed, res.AllConverged)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAMBDA\tMU\tITER\tNODES\tPOPULATION\tFRACTION\tENERGY\tCONVERGED\tELAPSED")
	for _, lr := range res.Ordered() {
		r := lr.Search.Result
		fmt.Fprintf(tw, "%s\t%.6g\t%d\t%d\t%d\t%.4f\t%.6g\t%t\t%s\n",
			strconv.FormatFloat(lr.Lambda, 'f', -1, 64), r.Mu, lr.Search.Iterations,
			r.SelectedCount(), r.SelectedPopulation, r.PopulationFraction, r.Energy,
			lr.Search.Converged, lr.Elapsed)
	}
	return tw.Flush()
}

func printSelection(w io.Writer, lr sweep.LambdaResult) error {
	r := lr.Search.Result
	fmt.Fprintf(w, "lambda %g mu %.6g: %d of %d nodes, population %d of %d (%.4f)\n",
		lr.Lambda, r.Mu, r.SelectedCount(), len(r.Partition),
		r.SelectedPopulation, r.TotalPopulation, r.PopulationFraction)
	for i, sel := range r.Partition {
		if sel {
			if _, err := fmt.Fprintln(w, i); err != nil {
				return err
			}
		}
	}
	return nil
}

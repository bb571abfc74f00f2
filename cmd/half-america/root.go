package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stevenfazzio/half-america/config"
)

// EnvPrefix prefixes environment overrides, e.g. HALF_AMERICA_SWEEP_WORKERS.
const EnvPrefix = "HALF_AMERICA"

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"dataset-id":  "data.dataset_id",
	"cache-dir":   "data.cache_dir",
	"contiguity":  "graph.contiguity",
	"algorithm":   "search.algorithm",
	"target":      "search.target_fraction",
	"tolerance":   "search.tolerance",
	"lambda-step": "sweep.lambda_step",
	"lambda-max":  "sweep.lambda_max",
	"workers":     "sweep.workers",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

type app struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "half-america",
		Short:         "half-america partitions regions into two halves of equal population",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "f", "", "YAML configuration file")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "production", "production (JSON) or development (console)")

	root.AddCommand(newPrecomputeCmd(a), newInspectCmd(a), newGraphCmd(a))
	return root
}

// preRun binds the flags of the executing command to their configuration keys.
func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// setup loads the configuration, applies flag and environment overrides and
// builds the logger.
func (a *app) setup() (config.Config, *zap.Logger, error) {
	cfg := config.Default()
	if a.configFile != "" {
		var err error
		if cfg, err = config.Load(a.configFile); err != nil {
			return cfg, nil, err
		}
	}

	v := a.v
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *float64) {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	str("data.dataset_id", &cfg.Data.DatasetID)
	str("data.cache_dir", &cfg.Data.CacheDir)
	str("graph.contiguity", &cfg.Graph.Contiguity)
	str("search.algorithm", &cfg.Search.Algorithm)
	num("search.target_fraction", &cfg.Search.TargetFraction)
	num("search.tolerance", &cfg.Search.Tolerance)
	num("sweep.lambda_step", &cfg.Sweep.LambdaStep)
	num("sweep.lambda_max", &cfg.Sweep.LambdaMax)
	if v.IsSet("sweep.workers") {
		cfg.Sweep.Workers = v.GetInt("sweep.workers")
	}
	str("sweep.policy", &cfg.Sweep.Policy)
	str("log.level", &cfg.Log.Level)
	str("log.format", &cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	log, err := cfg.Log.Build()
	if err != nil {
		return cfg, nil, err
	}
	if a.configFile != "" {
		log.Info("read config", zap.String("file", a.configFile))
	}
	return cfg, log, nil
}

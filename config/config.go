// Package config loads the YAML run configuration of the half-america
// tools and translates it into package options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/stevenfazzio/half-america/adjacency"
	"github.com/stevenfazzio/half-america/dataset"
	"github.com/stevenfazzio/half-america/flow"
	"github.com/stevenfazzio/half-america/optimize"
	"github.com/stevenfazzio/half-america/sweep"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

var validate = validator.New()

// Config is the root of the YAML document.
type Config struct {
	Data   DataConfig   `yaml:"data"`
	Graph  GraphConfig  `yaml:"graph"`
	Search SearchConfig `yaml:"search"`
	Sweep  SweepConfig  `yaml:"sweep"`
	Log    LogConfig    `yaml:"log"`
}

// DataConfig locates the input and the sweep cache.
type DataConfig struct {
	DatasetID          string `yaml:"dataset_id" validate:"required"`
	CacheDir           string `yaml:"cache_dir" validate:"required"`
	IDProperty         string `yaml:"id_property"`
	PopulationProperty string `yaml:"population_property" validate:"required"`
	AreaProperty       string `yaml:"area_property"`
}

// GraphConfig controls adjacency construction.
type GraphConfig struct {
	Contiguity    string  `yaml:"contiguity" validate:"oneof=queen rook"`
	Snap          float64 `yaml:"snap" validate:"gte=0"`
	AttachIslands bool    `yaml:"attach_islands"`
}

// SearchConfig controls the μ search of every λ.
type SearchConfig struct {
	TargetFraction float64 `yaml:"target_fraction" validate:"gt=0,lte=1"`
	Tolerance      float64 `yaml:"tolerance" validate:"gte=0"`
	MaxIterations  int     `yaml:"max_iterations" validate:"gte=1"`
	Algorithm      string  `yaml:"algorithm" validate:"oneof=dinic edmonds-karp"`
	Epsilon        float64 `yaml:"epsilon" validate:"gt=0"`
}

// SweepConfig controls the λ grid and the worker pool.
type SweepConfig struct {
	LambdaStep float64 `yaml:"lambda_step" validate:"gt=0,lte=1"`
	LambdaMax  float64 `yaml:"lambda_max" validate:"gt=0,lte=1"`
	Workers    int     `yaml:"workers" validate:"gte=0"`
	Policy     string  `yaml:"policy" validate:"oneof=fail-fast best-effort"`
}

// LogConfig selects the zap preset and level.
type LogConfig struct {
	Format string `yaml:"format" validate:"oneof=production development"`
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	lo := dataset.DefaultLoadOptions()
	return Config{
		Data: DataConfig{
			DatasetID:          "default",
			CacheDir:           "data/cache",
			IDProperty:         lo.IDProperty,
			PopulationProperty: lo.PopulationProperty,
			AreaProperty:       lo.AreaProperty,
		},
		Graph: GraphConfig{
			Contiguity:    adjacency.Queen.String(),
			AttachIslands: true,
		},
		Search: SearchConfig{
			TargetFraction: optimize.DefaultTargetFraction,
			Tolerance:      optimize.DefaultTolerance,
			MaxIterations:  optimize.DefaultMaxIterations,
			Algorithm:      string(flow.AlgorithmDinic),
			Epsilon:        flow.DefaultOptions().Epsilon,
		},
		Sweep: SweepConfig{
			LambdaStep: 0.1,
			LambdaMax:  0.99,
			Policy:     sweep.FailFast.String(),
		},
		Log: LogConfig{
			Format: "production",
			Level:  "info",
		},
	}
}

// Load reads path over Default and validates the result. Keys absent from
// the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s failed %q (%s=%v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

// Build constructs the zap logger.
func (l LogConfig) Build() (*zap.Logger, error) {
	var zc zap.Config
	if l.Format == "development" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	lvl, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// LoadOptions maps DataConfig onto the GeoJSON loader.
func (d DataConfig) LoadOptions() dataset.LoadOptions {
	return dataset.LoadOptions{
		IDProperty:         d.IDProperty,
		PopulationProperty: d.PopulationProperty,
		AreaProperty:       d.AreaProperty,
	}
}

// AdjacencyOptions maps GraphConfig onto adjacency.Build options.
func (g GraphConfig) AdjacencyOptions(log *zap.Logger) ([]adjacency.Option, error) {
	c, err := adjacency.ParseContiguity(g.Contiguity)
	if err != nil {
		return nil, err
	}
	opts := []adjacency.Option{
		adjacency.WithContiguity(c),
		adjacency.WithSnap(g.Snap),
		adjacency.WithLogger(log),
	}
	if !g.AttachIslands {
		opts = append(opts, adjacency.WithoutIslandAttachment())
	}
	return opts, nil
}

// SweepOptions maps the search and sweep sections onto sweep.Run options.
func (c Config) SweepOptions(log *zap.Logger) ([]sweep.Option, error) {
	lambdas, err := sweep.Lambdas(c.Sweep.LambdaStep, c.Sweep.LambdaMax)
	if err != nil {
		return nil, err
	}
	policy, err := sweep.ParsePolicy(c.Sweep.Policy)
	if err != nil {
		return nil, err
	}
	alg, err := flow.ParseAlgorithm(c.Search.Algorithm)
	if err != nil {
		return nil, err
	}
	return []sweep.Option{
		sweep.WithLambdas(lambdas),
		sweep.WithWorkers(c.Sweep.Workers),
		sweep.WithPolicy(policy),
		sweep.WithTarget(c.Search.TargetFraction),
		sweep.WithTolerance(c.Search.Tolerance),
		sweep.WithMaxIterations(c.Search.MaxIterations),
		sweep.WithLogger(log),
		sweep.WithSearchOptions(
			optimize.WithAlgorithm(alg),
			optimize.WithEpsilon(c.Search.Epsilon),
		),
	}, nil
}

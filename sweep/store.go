package sweep

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stevenfazzio/half-america/internal/artifact"
	"github.com/stevenfazzio/half-america/optimize"
)

// FormatVersion is written into every saved sweep.
const FormatVersion = 1

// ErrFormat indicates a sweep file that cannot be decoded.
var ErrFormat = artifact.ErrFormat

type fileEnvelope struct {
	Version         int            `json:"version"`
	RunID           string         `json:"run_id"`
	Lambdas         []float64      `json:"lambdas"`
	TotalIterations int            `json:"total_iterations"`
	TotalElapsedNS  int64          `json:"total_elapsed_ns"`
	AllConverged    bool           `json:"all_converged"`
	TargetFraction  float64        `json:"target_fraction"`
	Tolerance       float64        `json:"tolerance"`
	Results         []lambdaRecord `json:"results"`
}

type lambdaRecord struct {
	Lambda     float64   `json:"lambda"`
	ElapsedNS  int64     `json:"elapsed_ns"`
	Iterations int       `json:"iterations"`
	MuHistory  []float64 `json:"mu_history"`
	Converged  bool      `json:"converged"`

	Nodes     int    `json:"nodes"`
	Partition []byte `json:"partition"`

	SelectedPopulation int64   `json:"selected_population"`
	SelectedArea       float64 `json:"selected_area"`
	TotalPopulation    int64   `json:"total_population"`
	TotalArea          float64 `json:"total_area"`
	PopulationFraction float64 `json:"population_fraction"`
	Energy             float64 `json:"energy"`
	FlowValue          float64 `json:"flow_value"`
	Mu                 float64 `json:"mu"`
	SatisfiedTarget    bool    `json:"satisfied_target"`
}

// CachePath returns dir/sweep_<datasetID>_<step>.json.zst.
func CachePath(dir, datasetID string, step float64) string {
	name := fmt.Sprintf("sweep_%s_%s.json.zst", datasetID, strconv.FormatFloat(step, 'g', -1, 64))
	return filepath.Join(dir, name)
}

// Save writes r to path as zstd-compressed JSON. Parent directories are
// created; the file is replaced atomically.
func Save(path string, r *Result) error {
	if r == nil {
		return errors.New("sweep: nil result")
	}
	if err := artifact.Write(path, toEnvelope(r)); err != nil {
		return fmt.Errorf("sweep: save: %w", err)
	}
	return nil
}

// Load reads a sweep written by Save. A missing file yields an error
// matching fs.ErrNotExist.
func Load(path string) (*Result, error) {
	var env fileEnvelope
	if err := artifact.Read(path, &env); err != nil {
		return nil, fmt.Errorf("sweep: load: %w", err)
	}
	r, err := fromEnvelope(&env)
	if err != nil {
		return nil, fmt.Errorf("sweep: load %s: %w", path, err)
	}
	return r, nil
}

func toEnvelope(r *Result) *fileEnvelope {
	env := &fileEnvelope{
		Version:         FormatVersion,
		RunID:           r.RunID,
		Lambdas:         r.Lambdas,
		TotalIterations: r.TotalIterations,
		TotalElapsedNS:  int64(r.TotalElapsed),
		AllConverged:    r.AllConverged,
		TargetFraction:  r.TargetFraction,
		Tolerance:       r.Tolerance,
		Results:         make([]lambdaRecord, 0, len(r.Lambdas)),
	}
	for _, lr := range r.Ordered() {
		res := lr.Search.Result
		env.Results = append(env.Results, lambdaRecord{
			Lambda:             lr.Lambda,
			ElapsedNS:          int64(lr.Elapsed),
			Iterations:         lr.Search.Iterations,
			MuHistory:          lr.Search.MuHistory,
			Converged:          lr.Search.Converged,
			Nodes:              len(res.Partition),
			Partition:          packBits(res.Partition),
			SelectedPopulation: res.SelectedPopulation,
			SelectedArea:       res.SelectedArea,
			TotalPopulation:    res.TotalPopulation,
			TotalArea:          res.TotalArea,
			PopulationFraction: res.PopulationFraction,
			Energy:             res.Energy,
			FlowValue:          res.FlowValue,
			Mu:                 res.Mu,
			SatisfiedTarget:    res.SatisfiedTarget,
		})
	}
	return env
}

func fromEnvelope(env *fileEnvelope) (*Result, error) {
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrFormat, env.Version)
	}
	if len(env.Results) != len(env.Lambdas) {
		return nil, fmt.Errorf("%w: %d results for %d lambdas", ErrFormat, len(env.Results), len(env.Lambdas))
	}

	r := &Result{
		RunID:           env.RunID,
		Lambdas:         env.Lambdas,
		Results:         make(map[float64]LambdaResult, len(env.Results)),
		TotalIterations: env.TotalIterations,
		TotalElapsed:    time.Duration(env.TotalElapsedNS),
		AllConverged:    env.AllConverged,
		TargetFraction:  env.TargetFraction,
		Tolerance:       env.Tolerance,
	}
	for k, rec := range env.Results {
		if rec.Lambda != env.Lambdas[k] {
			return nil, fmt.Errorf("%w: result %d is lambda %g, want %g", ErrFormat, k, rec.Lambda, env.Lambdas[k])
		}
		part, err := unpackBits(rec.Partition, rec.Nodes)
		if err != nil {
			return nil, err
		}
		r.Results[rec.Lambda] = LambdaResult{
			Lambda:  rec.Lambda,
			Elapsed: time.Duration(rec.ElapsedNS),
			Search: optimize.SearchResult{
				Result: optimize.Result{
					Partition:          part,
					SelectedPopulation: rec.SelectedPopulation,
					SelectedArea:       rec.SelectedArea,
					TotalPopulation:    rec.TotalPopulation,
					TotalArea:          rec.TotalArea,
					PopulationFraction: rec.PopulationFraction,
					Energy:             rec.Energy,
					FlowValue:          rec.FlowValue,
					Lambda:             rec.Lambda,
					Mu:                 rec.Mu,
					SatisfiedTarget:    rec.SatisfiedTarget,
				},
				Iterations: rec.Iterations,
				MuHistory:  rec.MuHistory,
				Converged:  rec.Converged,
			},
		}
	}
	return r, nil
}

// packBits stores b[i] in bit i%8 of byte i/8.
func packBits(b []bool) []byte {
	out := make([]byte, (len(b)+7)/8)
	for i, v := range b {
		if v {
			out[i>>3] |= 1 << (i & 7)
		}
	}
	return out
}

func unpackBits(p []byte, n int) ([]bool, error) {
	if n < 0 || len(p) != (n+7)/8 {
		return nil, fmt.Errorf("%w: partition of %d bytes for %d nodes", ErrFormat, len(p), n)
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = p[i>>3]&(1<<(i&7)) != 0
	}
	return out, nil
}

package attributes

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/stevenfazzio/half-america/internal/artifact"
)

// SnapshotVersion is the on-disk format version written by SaveSnapshot.
const SnapshotVersion = 1

// ErrFormat indicates a graph cache file that cannot be decoded.
var ErrFormat = artifact.ErrFormat

// Snapshot is a built graph together with the settings that produced it.
// Settings is an opaque string chosen by the caller; a cached snapshot is
// only valid for the same settings.
type Snapshot struct {
	Attrs              *GraphAttributes
	Settings           string
	NumComponents      int
	NumIslandsAttached int
}

type snapshotEnvelope struct {
	Version            int       `json:"version"`
	Settings           string    `json:"settings"`
	NumComponents      int       `json:"num_components"`
	NumIslandsAttached int       `json:"num_islands_attached"`
	Population         []int64   `json:"population"`
	Area               []float64 `json:"area"`
	Rho                float64   `json:"rho"`
	Edges              []Edge    `json:"edges"`
}

// SnapshotPath returns dir/graph_<datasetID>.json.zst.
func SnapshotPath(dir, datasetID string) string {
	return filepath.Join(dir, fmt.Sprintf("graph_%s.json.zst", datasetID))
}

// SaveSnapshot writes s to path as zstd-compressed JSON, replacing any
// existing file atomically.
func SaveSnapshot(path string, s *Snapshot) error {
	if s == nil || s.Attrs == nil {
		return errors.New("attributes: nil snapshot")
	}
	env := snapshotEnvelope{
		Version:            SnapshotVersion,
		Settings:           s.Settings,
		NumComponents:      s.NumComponents,
		NumIslandsAttached: s.NumIslandsAttached,
		Population:         s.Attrs.Population,
		Area:               s.Attrs.Area,
		Rho:                s.Attrs.Rho,
		Edges:              s.Attrs.Edges,
	}
	if err := artifact.Write(path, &env); err != nil {
		return fmt.Errorf("attributes: save: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot and validates it
// through New. A missing file yields an error matching fs.ErrNotExist.
func LoadSnapshot(path string) (*Snapshot, error) {
	var env snapshotEnvelope
	if err := artifact.Read(path, &env); err != nil {
		return nil, fmt.Errorf("attributes: load: %w", err)
	}
	if env.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %s: version %d", ErrFormat, path, env.Version)
	}
	ga, err := New(env.Population, env.Area, env.Edges, WithRho(env.Rho))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	return &Snapshot{
		Attrs:              ga,
		Settings:           env.Settings,
		NumComponents:      env.NumComponents,
		NumIslandsAttached: env.NumIslandsAttached,
	}, nil
}

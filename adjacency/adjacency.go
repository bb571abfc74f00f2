// Package adjacency builds the symmetric neighbor graph of a set of polygons.
//
// Two polygons are neighbors under Queen contiguity when their boundaries
// share at least one vertex, and under Rook contiguity when they share at
// least one boundary segment. Nodes left without neighbors ("islands") are
// attached to their nearest node by centroid distance, so every node takes
// part in at least one boundary term of the partition energy.
//
// Complexity:
//
//   - Contiguity: O(V + P) where V is the total vertex (or segment) count and
//     P the number of polygon pairs sharing a key.
//   - Island attachment: O(N log N) to index centroids, plus one nearest
//     query per island.
//   - Components: O(N + E).
//
// Determinism: edges are emitted sorted by (I, J); equidistant nearest
// neighbor candidates resolve to the lowest index. Re-running Build on the
// same input yields an identical edge set.
package adjacency

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/stevenfazzio/half-america/geometry"
)

// Sentinel errors returned by Build.
var (
	// ErrEmptyInput indicates Build was called without geometries.
	ErrEmptyInput = errors.New("adjacency: no geometries")

	// ErrEmptyGeometry indicates a geometry with no rings.
	ErrEmptyGeometry = errors.New("adjacency: empty geometry")
)

// Contiguity selects the neighbor rule.
type Contiguity int

const (
	// Queen: boundaries share an edge or a single point.
	Queen Contiguity = iota
	// Rook: boundaries share an edge.
	Rook
)

// String implements fmt.Stringer.
func (c Contiguity) String() string {
	switch c {
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	}
	return fmt.Sprintf("Contiguity(%d)", int(c))
}

// ParseContiguity maps "queen" / "rook" to a Contiguity.
func ParseContiguity(s string) (Contiguity, error) {
	switch s {
	case "queen", "":
		return Queen, nil
	case "rook":
		return Rook, nil
	}
	return Queen, fmt.Errorf("adjacency: unknown contiguity %q", s)
}

// Edge is an undirected neighbor pair with I < J.
type Edge struct {
	I, J int
}

// Result is the output of Build.
type Result struct {
	// Edges holds unique neighbor pairs, I < J, sorted ascending.
	Edges []Edge
	// Neighbors[i] lists the neighbors of node i in ascending order.
	Neighbors [][]int

	NumNodes           int
	NumEdges           int
	NumIslandsAttached int
	NumComponents      int
}

// Options configures Build.
type Options struct {
	Contiguity Contiguity
	// Snap quantizes vertex coordinates before matching; 0 matches exactly.
	Snap float64
	// AttachIslands connects neighborless nodes to their nearest node.
	AttachIslands bool
	Logger        *zap.Logger
}

// Option is a functional option for Build.
type Option func(*Options)

// WithContiguity selects Queen (default) or Rook contiguity.
func WithContiguity(c Contiguity) Option {
	return func(o *Options) { o.Contiguity = c }
}

// WithSnap sets the vertex quantization grid size.
func WithSnap(q float64) Option {
	return func(o *Options) { o.Snap = q }
}

// WithoutIslandAttachment leaves islands unconnected.
func WithoutIslandAttachment() Option {
	return func(o *Options) { o.AttachIslands = false }
}

// WithLogger sets the logger used for build statistics.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// DefaultOptions returns Queen contiguity, exact matching and island attachment.
func DefaultOptions() Options {
	return Options{
		Contiguity:    Queen,
		AttachIslands: true,
		Logger:        zap.NewNop(),
	}
}

// Build computes the contiguity graph of geoms. Node i corresponds to geoms[i].
func Build(geoms []orb.MultiPolygon, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	n := len(geoms)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	for i, g := range geoms {
		if len(g) == 0 || len(g[0]) == 0 {
			return nil, fmt.Errorf("geometry %d: %w", i, ErrEmptyGeometry)
		}
	}
	o.Logger.Info("building adjacency graph",
		zap.Int("nodes", n),
		zap.Stringer("contiguity", o.Contiguity))

	pairs := contiguousPairs(geoms, o)

	neighbors := make([][]int, n)
	for e := range pairs {
		neighbors[e.I] = append(neighbors[e.I], e.J)
		neighbors[e.J] = append(neighbors[e.J], e.I)
	}

	var islands []int
	for i := range neighbors {
		if len(neighbors[i]) == 0 {
			islands = append(islands, i)
		}
	}

	attached := 0
	if o.AttachIslands && len(islands) > 0 && n > 1 {
		o.Logger.Info("attaching islands to nearest neighbors", zap.Int("islands", len(islands)))
		nearest, err := nearestNeighbors(geoms, islands)
		if err != nil {
			return nil, err
		}
		for k, i := range islands {
			j := nearest[k]
			if j < 0 {
				continue
			}
			e := newEdge(i, j)
			if _, ok := pairs[e]; !ok {
				pairs[e] = struct{}{}
				neighbors[i] = append(neighbors[i], j)
				neighbors[j] = append(neighbors[j], i)
			}
			attached++
		}
	}

	edges := make([]Edge, 0, len(pairs))
	for e := range pairs {
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.I != b.I {
			return a.I - b.I
		}
		return a.J - b.J
	})
	for i := range neighbors {
		slices.Sort(neighbors[i])
	}

	res := &Result{
		Edges:              edges,
		Neighbors:          neighbors,
		NumNodes:           n,
		NumEdges:           len(edges),
		NumIslandsAttached: attached,
		NumComponents:      countComponents(n, edges),
	}
	o.Logger.Info("adjacency graph built",
		zap.Int("nodes", res.NumNodes),
		zap.Int("edges", res.NumEdges),
		zap.Int("islands_attached", res.NumIslandsAttached),
		zap.Int("components", res.NumComponents))

	return res, nil
}

func newEdge(i, j int) Edge {
	if i > j {
		i, j = j, i
	}
	return Edge{I: i, J: j}
}

// contiguousPairs indexes every polygon by its boundary keys and emits a
// pair for each two polygons sharing a key.
func contiguousPairs(geoms []orb.MultiPolygon, o Options) map[Edge]struct{} {
	pairs := make(map[Edge]struct{})
	switch o.Contiguity {
	case Rook:
		owners := make(map[geometry.Segment][]int)
		for i, g := range geoms {
			for _, s := range geometry.SegmentKeys(g, o.Snap) {
				owners[s] = append(owners[s], i)
			}
		}
		for _, ids := range owners {
			addPairs(pairs, ids)
		}
	default:
		owners := make(map[orb.Point][]int)
		for i, g := range geoms {
			for _, p := range geometry.VertexKeys(g, o.Snap) {
				owners[p] = append(owners[p], i)
			}
		}
		for _, ids := range owners {
			addPairs(pairs, ids)
		}
	}
	return pairs
}

// addPairs adds all pairs among ids, which are ascending and distinct
// because each polygon contributes a key at most once, in index order.
func addPairs(pairs map[Edge]struct{}, ids []int) {
	for a := 0; a < len(ids); a++ {
		for b := a + 1; b < len(ids); b++ {
			pairs[Edge{I: ids[a], J: ids[b]}] = struct{}{}
		}
	}
}

// site is a centroid stored in the quadtree.
type site struct {
	p   orb.Point
	idx int
}

func (s site) Point() orb.Point { return s.p }

// nearestNeighbors returns, for each island, the index of the closest other
// node by centroid distance, or -1 when there is none. Equidistant
// candidates resolve to the lowest index.
func nearestNeighbors(geoms []orb.MultiPolygon, islands []int) ([]int, error) {
	sites := make([]site, len(geoms))
	var bound orb.Bound
	for i, g := range geoms {
		sites[i] = site{p: geometry.Centroid(g), idx: i}
		if i == 0 {
			bound = orb.Bound{Min: sites[i].p, Max: sites[i].p}
		} else {
			bound = bound.Extend(sites[i].p)
		}
	}

	qt := quadtree.New(bound.Pad(1))
	for _, s := range sites {
		if err := qt.Add(s); err != nil {
			return nil, fmt.Errorf("adjacency: index centroid %d: %w", s.idx, err)
		}
	}

	out := make([]int, len(islands))
	for k, i := range islands {
		c := sites[i].p
		notSelf := func(p orb.Pointer) bool { return p.(site).idx != i }

		hit := qt.Matching(c, notSelf)
		if hit == nil {
			out[k] = -1
			continue
		}
		d := planar.Distance(c, hit.Point())
		pad := d*(1+1e-9) + 1e-9
		cands := qt.InBoundMatching(nil, orb.Bound{Min: c, Max: c}.Pad(pad), notSelf)

		best, bestD := hit.(site).idx, d
		for _, cand := range cands {
			s := cand.(site)
			dd := planar.Distance(c, s.p)
			if dd < bestD || (dd == bestD && s.idx < best) {
				best, bestD = s.idx, dd
			}
		}
		out[k] = best
	}
	return out, nil
}

// countComponents counts connected components with gonum's topo package.
func countComponents(n int, edges []Edge) int {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		g.SetEdge(simple.Edge{F: simple.Node(e.I), T: simple.Node(e.J)})
	}
	return len(topo.ConnectedComponents(g))
}

package flow

import (
	"math"

	"go.uber.org/zap"
)

// Dinic computes the maximum s–t flow of net using Dinic’s algorithm
// (level graph + blocking flows) and returns the minimum cut.
//
// Steps:
//  1. Normalize options (O(1)).
//  2. Copy residual capacities and pre-push terminal flow (O(V + E)).
//  3. Repeat until the sink is unreachable:
//     a. Check for cancellation (O(1)).
//     b. BFS to build the level graph (O(V + E)).
//     c. If sink unreachable, break.
//     d. One multi-path DFS from the source pushes a blocking flow,
//     stopping early after LevelRebuildInterval augmenting paths when set.
//  4. Mark the nodes reachable from the source in the final residual (O(V + E)).
//
// net is not modified; it may be solved again, or concurrently.
// On cancellation the context error is returned and no cut.
//
// Complexity:
//
//	Time:   O(V² · E) worst case; far less on the shallow networks produced by planar graphs.
//	Memory: O(V + E) for residual capacities, levels and arc iterators.
func Dinic(net *Network, opts FlowOptions) (*Cut, error) {
	// 1) Normalize options
	opts.normalize()
	ctx := opts.Ctx
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2) Residual copy with terminal pre-push
	r := net.newResidual(opts.Epsilon)
	d := &dinicState{
		residual: r,
		level:    make([]int32, net.n+2),
		iter:     make([]int32, net.n+2),
		s:        net.source(),
		t:        net.sink(),
	}

	// 3) Main loop: level graph + blocking flows
	phases := 0
	for {
		// 3a) Cancellation check before BFS
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 3b, 3c) BFS levels; stop when sink unreachable
		if !d.buildLevels() {
			break
		}
		phases++

		// 3d) One DFS from the source saturates the level graph
		copy(d.iter, net.first[:net.n+2])
		if opts.LevelRebuildInterval > 0 {
			d.limit = d.paths + opts.LevelRebuildInterval
		}
		pushed := d.push(d.s, math.Inf(1))
		r.value += pushed
		if ce := opts.Logger.Check(zap.DebugLevel, "dinic blocking flow"); ce != nil {
			ce.Write(zap.Int("phase", phases), zap.Float64("pushed", pushed),
				zap.Int("paths", d.paths), zap.Float64("total", r.value))
		}
	}

	// 4) Minimum cut
	return &Cut{
		Value:         r.value,
		Source:        r.sourceSide(),
		Augmentations: d.paths,
		Phases:        phases,
	}, nil
}

type dinicState struct {
	*residual
	level []int32
	iter  []int32
	s, t  int32
	paths int // augmenting paths that reached t
	limit int // stop the phase once paths reaches limit; 0 disables
}

// buildLevels assigns BFS distances from s over arcs with residual capacity
// above eps and reports whether t was reached.
func (d *dinicState) buildLevels() bool {
	net := d.net
	for i := range d.level {
		d.level[i] = -1
	}
	d.level[d.s] = 0
	queue := []int32{d.s}
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		for k := net.first[u]; k < net.first[u+1]; k++ {
			a := net.adj[k]
			v := net.to[a]
			if d.level[v] < 0 && d.res[a] > d.eps {
				d.level[v] = d.level[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return d.level[d.t] >= 0
}

// push sends up to available from u along the level graph, following as many
// paths as it can, and returns the amount sent. An arc is only skipped once it
// is saturated or leads to a dead end, so the iterators stay valid for the
// rest of the phase.
func (d *dinicState) push(u int32, available float64) float64 {
	if u == d.t {
		d.paths++
		return available
	}
	net := d.net
	sent := 0.0
	for ; d.iter[u] < net.first[u+1]; d.iter[u]++ {
		a := net.adj[d.iter[u]]
		v := net.to[a]
		capUV := d.res[a]
		if capUV <= d.eps || d.level[v] != d.level[u]+1 {
			continue
		}
		pushed := d.push(v, math.Min(available, capUV))
		if pushed <= 0 {
			continue
		}
		d.res[a] -= pushed
		d.res[a^1] += pushed
		sent += pushed
		available -= pushed
		if available <= d.eps || (d.limit > 0 && d.paths >= d.limit) {
			return sent
		}
	}
	return sent
}

package flow

import (
	"math"

	"go.uber.org/zap"
)

// EdmondsKarp computes the maximum s–t flow of net using the Edmonds–Karp
// algorithm (BFS for shortest augmenting paths) and returns the minimum cut.
//
// It produces the same Value and Source partition as Dinic: the partition is
// the set of nodes reachable from the source in the final residual, which is
// unique for a given network regardless of the augmentation order.
//
// Options:
//   - Epsilon: residual capacities ≤ Epsilon treated as zero (default 1e-9)
//   - Ctx: checked before every BFS
//   - Logger: one debug entry per augmentation
//
// Complexity: O(V · E²)
// Memory:     O(V + E)
func EdmondsKarp(net *Network, opts FlowOptions) (*Cut, error) {
	opts.normalize()
	ctx := opts.Ctx

	r := net.newResidual(opts.Epsilon)
	parent := make([]int32, net.n+2)
	augmentCount := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bottle, ok := r.augmentingPath(parent)
		if !ok {
			break
		}

		// Augment along the path, walking parent arcs back from the sink
		for v := net.sink(); v != net.source(); {
			a := parent[v]
			r.res[a] -= bottle
			r.res[a^1] += bottle
			v = net.to[a^1]
		}
		r.value += bottle
		augmentCount++
		if ce := opts.Logger.Check(zap.DebugLevel, "edmonds-karp augmentation"); ce != nil {
			ce.Write(zap.Float64("pushed", bottle), zap.Float64("total", r.value))
		}
	}

	return &Cut{
		Value:         r.value,
		Source:        r.sourceSide(),
		Augmentations: augmentCount,
	}, nil
}

// augmentingPath finds the shortest (fewest-arcs) s→t path with residual
// capacity above eps. parent[v] receives the arc used to enter v. It returns
// the bottleneck capacity and whether a path exists.
func (r *residual) augmentingPath(parent []int32) (float64, bool) {
	net := r.net
	s, t := net.source(), net.sink()
	for i := range parent {
		parent[i] = -1
	}
	bottle := make([]float64, len(parent))
	bottle[s] = math.Inf(1)

	queue := []int32{s}
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		for k := net.first[u]; k < net.first[u+1]; k++ {
			a := net.adj[k]
			v := net.to[a]
			if v == s || parent[v] >= 0 || r.res[a] <= r.eps {
				continue
			}
			parent[v] = a
			bottle[v] = math.Min(bottle[u], r.res[a])
			if v == t {
				return bottle[t], true
			}
			queue = append(queue, v)
		}
	}
	return 0, false
}

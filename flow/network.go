package flow

import (
	"math"
	"sync"
)

// Network is an s–t flow network over nodes 0..N-1 plus an implicit source
// and sink. Storage is an arena of parallel arrays indexed by int32; arcs
// come in pairs (a, a^1) where each is the residual reverse of the other.
//
// Arc layout:
//
//	4i, 4i+1   s→i and its reverse
//	4i+2, 4i+3 i→t and its reverse
//	4N+2k, 4N+2k+1 the k-th AddEdge pair
//
// The adjacency index (CSR) is compiled once, on the first solve. After that
// the network is read-only and can be solved any number of times, including
// concurrently.
type Network struct {
	n int

	srcCap  []float64
	sinkCap []float64

	// n-link arcs, appended in insertion order
	tail []int32
	head []int32
	caps []float64

	once   sync.Once
	frozen bool

	// compiled arc arrays covering terminal and n-link arcs
	to     []int32
	arcCap []float64
	first  []int32 // CSR offsets, len V+1
	adj    []int32 // arc ids grouped by tail
}

// NewNetwork allocates a network of n nodes; edgeHint preallocates room for
// that many AddEdge calls.
func NewNetwork(n, edgeHint int) *Network {
	if edgeHint < 0 {
		edgeHint = 0
	}
	return &Network{
		n:       n,
		srcCap:  make([]float64, n),
		sinkCap: make([]float64, n),
		tail:    make([]int32, 0, 2*edgeHint),
		head:    make([]int32, 0, 2*edgeHint),
		caps:    make([]float64, 0, 2*edgeHint),
	}
}

// NumNodes returns N, excluding the two terminals.
func (net *Network) NumNodes() int { return net.n }

// NumEdges returns the number of AddEdge pairs.
func (net *Network) NumEdges() int { return len(net.caps) / 2 }

// TerminalCaps returns the accumulated source and sink capacities of node i.
func (net *Network) TerminalCaps(i int) (source, sink float64) {
	return net.srcCap[i], net.sinkCap[i]
}

// AddTerminal adds source→i and i→sink capacity. Repeated calls accumulate.
func (net *Network) AddTerminal(i int, source, sink float64) error {
	if net.frozen {
		return ErrFrozen
	}
	if i < 0 || i >= net.n {
		return ErrNodeIndex
	}
	if !validCap(source) {
		return EdgeError{From: Source, To: i, Cap: source}
	}
	if !validCap(sink) {
		return EdgeError{From: i, To: Sink, Cap: sink}
	}
	net.srcCap[i] += source
	net.sinkCap[i] += sink
	return nil
}

// AddEdge adds the arc pair i→j with capacity capIJ and j→i with capacity capJI.
// Parallel edges are kept as separate pairs; their capacities add up.
func (net *Network) AddEdge(i, j int, capIJ, capJI float64) error {
	if net.frozen {
		return ErrFrozen
	}
	if i < 0 || i >= net.n || j < 0 || j >= net.n {
		return ErrNodeIndex
	}
	if i == j {
		return ErrSelfLoop
	}
	if !validCap(capIJ) {
		return EdgeError{From: i, To: j, Cap: capIJ}
	}
	if !validCap(capJI) {
		return EdgeError{From: j, To: i, Cap: capJI}
	}
	net.tail = append(net.tail, int32(i), int32(j))
	net.head = append(net.head, int32(j), int32(i))
	net.caps = append(net.caps, capIJ, capJI)
	return nil
}

func validCap(c float64) bool {
	return c >= 0 && !math.IsInf(c, 0)
}

func (net *Network) source() int32 { return int32(net.n) }
func (net *Network) sink() int32 { return int32(net.n + 1) }

// compile builds the arc arrays and CSR index exactly once.
func (net *Network) compile() {
	net.once.Do(func() {
		net.frozen = true
		n := net.n
		v := n + 2
		arcs := 4*n + len(net.caps)
		tails := make([]int32, arcs)
		net.to = make([]int32, arcs)
		net.arcCap = make([]float64, arcs)

		s, t := net.source(), net.sink()
		for i := 0; i < n; i++ {
			a := 4 * i
			tails[a], net.to[a], net.arcCap[a] = s, int32(i), net.srcCap[i]
			tails[a+1], net.to[a+1] = int32(i), s
			tails[a+2], net.to[a+2], net.arcCap[a+2] = int32(i), t, net.sinkCap[i]
			tails[a+3], net.to[a+3] = t, int32(i)
		}
		off := 4 * n
		for k := range net.caps {
			tails[off+k] = net.tail[k]
			net.to[off+k] = net.head[k]
			net.arcCap[off+k] = net.caps[k]
		}

		net.first = make([]int32, v+1)
		for _, u := range tails {
			net.first[u+1]++
		}
		for u := 0; u < v; u++ {
			net.first[u+1] += net.first[u]
		}
		net.adj = make([]int32, arcs)
		fill := make([]int32, v)
		copy(fill, net.first[:v])
		for a, u := range tails {
			net.adj[fill[u]] = int32(a)
			fill[u]++
		}
	})
}

// residual is the per-solve mutable state.
type residual struct {
	net   *Network
	res   []float64
	value float64
	eps   float64
}

// newResidual copies arc capacities and pre-pushes min(source_i, sink_i)
// through every node, which the flow value receives directly.
func (net *Network) newResidual(eps float64) *residual {
	net.compile()
	r := &residual{
		net: net,
		res: make([]float64, len(net.arcCap)),
		eps: eps,
	}
	copy(r.res, net.arcCap)
	for i := 0; i < net.n; i++ {
		a := 4 * i
		f := math.Min(r.res[a], r.res[a+2])
		if f <= 0 {
			continue
		}
		r.res[a] -= f
		r.res[a+1] += f
		r.res[a+2] -= f
		r.res[a+3] += f
		r.value += f
	}
	return r
}

// sourceSide marks the nodes reachable from s through arcs with residual
// capacity above eps.
func (r *residual) sourceSide() []bool {
	net := r.net
	seen := make([]bool, net.n+2)
	s := net.source()
	seen[s] = true
	queue := []int32{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for k := net.first[u]; k < net.first[u+1]; k++ {
			a := net.adj[k]
			v := net.to[a]
			if !seen[v] && r.res[a] > r.eps {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}
	return seen[:net.n:net.n]
}

// Package flow implements exact maximum-flow / minimum-cut algorithms on an
// s–t network whose non-terminal nodes are indexed 0..N-1.
//
// The network is the graph-cut encoding of a binary labeling energy: every
// node carries a source capacity and a sink capacity (its t-links), and
// neighboring nodes are joined by arc pairs (n-links). After a solve, the
// nodes still reachable from the source in the residual network form the
// source side of the minimum cut.
//
// The key algorithms offered are:
//
//   - Dinic (default)
//
//   - Method: level graph construction + blocking-flow via DFS.
//
//   - Time:   O(V² · E) worst case, near-linear on shallow planar networks.
//
//   - Memory: O(V + E) for residual capacities, levels and arc iterators.
//
//   - Edmonds–Karp
//
//   - Method: breadth-first search for shortest (fewest-arc) augmenting paths.
//
//   - Time:   O(V · E²).
//
//   - Memory: O(V + E).
//
//   - Kept as a cross-check for Dinic.
//
// # Network
//
// Network stores arcs in an arena of parallel int32/float64 slices. Arcs come
// in pairs (a, a^1), each the residual reverse of the other. Before any
// augmentation, every node pushes min(source_i, sink_i) directly from source
// to sink; this terminal pre-push removes most of the work on energy networks
// where both t-links are positive.
//
//	net := flow.NewNetwork(n, len(edges))
//	_ = net.AddTerminal(i, source, sink)
//	_ = net.AddEdge(i, j, capIJ, capJI)
//	cut, err := flow.Dinic(net, flow.DefaultOptions())
//
// The network itself is never mutated by a solve: residual capacities live in
// a per-solve copy. Its adjacency index is compiled on the first solve, after
// which AddTerminal and AddEdge return ErrFrozen.
//
// # Ties
//
// A node whose source and sink capacities are equal and that has no
// residual path from the source lands on the sink side. The returned source
// set is the smallest minimum cut.
//
// # Errors
//
//	ErrNodeIndex        - node index out of range.
//	ErrSelfLoop         - AddEdge with i == j.
//	ErrFrozen           - modification after the first solve.
//	EdgeError           - negative, NaN or infinite capacity.
//	ErrUnknownAlgorithm - Solve / ParseAlgorithm with an unknown name.
//	context.Canceled / context.DeadlineExceeded - if opts.Ctx is canceled.
package flow

// Package cluster groups co-occurring tags into communities and
// derives stable colors from the grouping.
//
// Community detection is asynchronous label propagation: near-linear
// cost, no cluster-count parameter, deterministic under the tie rules
// below. A hysteresis policy keeps assignments stable across syncs so
// tag colors do not shuffle on trivial library edits.
package cluster

import "sort"

// MaxIterations caps label propagation passes.
const MaxIterations = 20

// MinEdgeWeight is the minimum distinct-file co-occurrence for an
// edge to count.
const MinEdgeWeight = 2

// Edge is one weighted undirected edge between two tag ids.
type Edge struct {
	A      int64
	B      int64
	Weight int
}

// Propagate runs label propagation over the given nodes and edges and
// returns node id -> cluster label. Every label is the id of some
// member node. Isolated nodes keep their own id as label.
//
// Each pass visits nodes in ascending id order and reassigns each node
// to the label with the highest weighted neighbor sum, ties broken by
// the lowest numeric label, so identical inputs always converge to
// identical labelings.
func Propagate(nodes []int64, edges []Edge) map[int64]int64 {
	labels := make(map[int64]int64, len(nodes))
	for _, n := range nodes {
		labels[n] = n
	}

	neighbors := buildAdjacency(edges)

	order := make([]int64, len(nodes))
	copy(order, nodes)
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for iter := 0; iter < MaxIterations; iter++ {
		changed := false
		for _, n := range order {
			best, ok := dominantLabel(neighbors[n], labels)
			if !ok {
				continue
			}
			if best != labels[n] {
				labels[n] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return labels
}

// Attach resolves cluster membership for brand-new nodes against an
// existing labeling: each new node joins whichever existing cluster
// its neighbors most strongly connect to, or becomes a singleton
// cluster (its own id) with no scored neighbors. labels is mutated.
func Attach(labels map[int64]int64, newNodes []int64, edges []Edge) {
	neighbors := buildAdjacency(edges)

	order := make([]int64, len(newNodes))
	copy(order, newNodes)
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, n := range order {
		if best, ok := dominantLabel(neighbors[n], labels); ok {
			labels[n] = best
		} else {
			labels[n] = n
		}
	}
}

type weightedNeighbor struct {
	node   int64
	weight int
}

// buildAdjacency expands undirected edges into per-node neighbor
// lists.
func buildAdjacency(edges []Edge) map[int64][]weightedNeighbor {
	adj := make(map[int64][]weightedNeighbor)
	for _, e := range edges {
		adj[e.A] = append(adj[e.A], weightedNeighbor{node: e.B, weight: e.Weight})
		adj[e.B] = append(adj[e.B], weightedNeighbor{node: e.A, weight: e.Weight})
	}
	return adj
}

// dominantLabel sums edge weights grouped by the neighbors' current
// labels and returns the heaviest, lowest-id-on-tie. ok is false when
// no neighbor carries a label.
func dominantLabel(neigh []weightedNeighbor, labels map[int64]int64) (int64, bool) {
	if len(neigh) == 0 {
		return 0, false
	}

	scores := make(map[int64]int)
	for _, wn := range neigh {
		label, ok := labels[wn.node]
		if !ok {
			continue
		}
		scores[label] += wn.weight
	}
	if len(scores) == 0 {
		return 0, false
	}

	var best int64
	bestScore := -1
	for label, score := range scores {
		if score > bestScore || (score == bestScore && label < best) {
			best = label
			bestScore = score
		}
	}
	return best, true
}

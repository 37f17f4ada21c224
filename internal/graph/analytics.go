// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package graph

import (
	"math"
	"sort"
)

// PageRank parameters.
const (
	pagerankDamping    = 0.85
	pagerankIterations = 20
	pagerankEpsilon    = 1e-4
)

// PageRank computes node centrality over strength-weighted outgoing edges:
// damping 0.85, at most 20 iterations, early exit when the L1 delta drops
// below 1e-4. Returns entity ID -> rank; ranks sum to ~1.
func (g *Graph) PageRank() map[string]float64 {
	n := len(g.nodes)
	if n == 0 {
		return map[string]float64{}
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}

	outWeight := make([]float64, n)
	for i := range g.nodes {
		for _, ei := range g.out[i] {
			outWeight[i] += g.edges[ei].Strength
		}
	}

	base := (1 - pagerankDamping) / float64(n)
	for iter := 0; iter < pagerankIterations; iter++ {
		// Dangling mass (no outgoing weight) redistributes uniformly so
		// ranks keep summing to one.
		dangling := 0.0
		for i := range next {
			next[i] = base
			if outWeight[i] == 0 {
				dangling += rank[i]
			}
		}
		share := pagerankDamping * dangling / float64(n)
		for i := range next {
			next[i] += share
		}

		for i := range g.nodes {
			if outWeight[i] == 0 {
				continue
			}
			for _, ei := range g.out[i] {
				e := g.edges[ei]
				next[e.Dst] += pagerankDamping * rank[i] * e.Strength / outWeight[i]
			}
		}

		delta := 0.0
		for i := range rank {
			delta += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if delta < pagerankEpsilon {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, node := range g.nodes {
		out[node.EntityID] = rank[i]
	}
	return out
}

// DegreeCentrality returns per-entity degree (in+out) normalized by
// 2*(n-1), so a node connected to every other in both directions scores 1.
func (g *Graph) DegreeCentrality() map[string]float64 {
	n := len(g.nodes)
	out := make(map[string]float64, n)
	if n < 2 {
		for _, node := range g.nodes {
			out[node.EntityID] = 0
		}
		return out
	}

	norm := float64(2 * (n - 1))
	for i, node := range g.nodes {
		out[node.EntityID] = float64(len(g.out[i])+len(g.in[i])) / norm
	}
	return out
}

// betweennessSampleThreshold is the node count above which betweenness
// switches from exact all-pairs to sampled single-source BFS.
const betweennessSampleThreshold = 1000

// BetweennessCentrality computes Brandes betweenness over the directed
// graph, normalized by (n-1)(n-2). Above 1000 nodes it samples sqrt(n)
// evenly spaced source nodes and scales the credit accordingly.
func (g *Graph) BetweennessCentrality() map[string]float64 {
	n := len(g.nodes)
	out := make(map[string]float64, n)
	if n < 3 {
		for _, node := range g.nodes {
			out[node.EntityID] = 0
		}
		return out
	}

	sources := make([]int, 0, n)
	scale := 1.0
	if n > betweennessSampleThreshold {
		k := int(math.Sqrt(float64(n)))
		step := n / k
		for i := 0; i < n; i += step {
			sources = append(sources, i)
		}
		scale = float64(n) / float64(len(sources))
	} else {
		for i := 0; i < n; i++ {
			sources = append(sources, i)
		}
	}

	centrality := make([]float64, n)
	for _, s := range sources {
		g.accumulateBrandes(s, centrality)
	}

	norm := float64((n - 1) * (n - 2))
	for i, node := range g.nodes {
		out[node.EntityID] = centrality[i] * scale / norm
	}
	return out
}

// accumulateBrandes runs one single-source pass of Brandes' algorithm.
func (g *Graph) accumulateBrandes(s int, centrality []float64) {
	n := len(g.nodes)
	sigma := make([]float64, n) // shortest path counts
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	for i := range dist {
		dist[i] = -1
	}
	sigma[s] = 1
	dist[s] = 0

	var stack []int
	queue := []int{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		stack = append(stack, v)
		for _, ei := range g.out[v] {
			w := g.edges[ei].Dst
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			if dist[w] == dist[v]+1 {
				sigma[w] += sigma[v]
				preds[w] = append(preds[w], v)
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		for _, v := range preds[w] {
			delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
		}
		if w != s {
			centrality[w] += delta[w]
		}
	}
}

// Communities returns connected components over the symmetrized graph,
// each component a sorted list of entity IDs, components ordered by their
// first member. Label propagation is deliberately not implemented; the
// component view is what the report consumes.
func (g *Graph) Communities() [][]string {
	n := len(g.nodes)
	if n == 0 {
		return nil
	}

	assigned := make([]int, n)
	for i := range assigned {
		assigned[i] = -1
	}

	var components [][]string
	for start := 0; start < n; start++ {
		if assigned[start] >= 0 {
			continue
		}
		id := len(components)
		var members []string
		queue := []int{start}
		assigned[start] = id
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, g.nodes[cur].EntityID)
			for _, nb := range g.neighbors(cur) {
				if assigned[nb] < 0 {
					assigned[nb] = id
					queue = append(queue, nb)
				}
			}
		}
		sort.Strings(members)
		components = append(components, members)
	}
	return components
}

// TopCentral returns the k highest-PageRank entity IDs, most central
// first, ties broken by entity ID for determinism.
func (g *Graph) TopCentral(k int) []string {
	ranks := g.PageRank()
	ids := make([]string, 0, len(ranks))
	for id := range ranks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ranks[ids[i]] != ranks[ids[j]] {
			return ranks[ids[i]] > ranks[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if k > len(ids) {
		k = len(ids)
	}
	return ids[:k]
}

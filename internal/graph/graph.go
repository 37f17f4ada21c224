// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package graph maintains the per-investigation entity relationship graph.
//
// Storage is an arena: nodes and edges live in flat slices and refer to
// each other by index, never by pointer. Entity IDs map to node indices
// through a lookup table. This keeps cycles trivially representable and
// makes the GraphML export a linear walk.
//
// A Graph is owned by one investigation's resolver and is not safe for
// concurrent mutation; reads behind the API surface go through the
// coordinator's snapshot.
package graph

import (
	"math"
	"sort"

	"github.com/tomtom215/vestigium/internal/models"
)

// RelationshipType labels an edge.
type RelationshipType string

// Relationship types.
const (
	RelSameIdentity RelationshipType = "same_identity"
	RelWorksWith    RelationshipType = "works_with"
	RelKnows        RelationshipType = "knows"
	RelFamily       RelationshipType = "family"
	RelOwns         RelationshipType = "owns"
	RelRegistered   RelationshipType = "registered"
	RelLocatedAt    RelationshipType = "located_at"
	RelAuthored     RelationshipType = "authored"
	RelCites        RelationshipType = "cites"
	RelCoOccurs     RelationshipType = "co_occurs"
)

// EdgeClass states how an edge was derived.
type EdgeClass string

// Edge classes.
const (
	EdgeDirect     EdgeClass = "direct"
	EdgeInferred   EdgeClass = "inferred"
	EdgeTransitive EdgeClass = "transitive"
)

// Node is one resolved entity in the arena.
type Node struct {
	EntityID   string            `json:"entity_id"`
	Type       models.EntityType `json:"type"`
	Label      string            `json:"label"`
	Confidence float64           `json:"confidence"` // 0-1
	Sources    []string          `json:"sources"`
}

// Edge is one typed relationship between two nodes, by arena index.
type Edge struct {
	Src          int              `json:"src"`
	Dst          int              `json:"dst"`
	Relationship RelationshipType `json:"relationship"`
	Class        EdgeClass        `json:"class"`
	Strength     float64          `json:"strength"`   // 0-1
	Confidence   float64          `json:"confidence"` // 0-1
	Sources      []string         `json:"sources"`
}

type edgeKey struct {
	src, dst int
	rel      RelationshipType
}

// Graph is the arena. The zero value is not usable; call New.
type Graph struct {
	nodes []Node
	edges []Edge

	byEntity  map[string]int
	edgeIndex map[edgeKey]int

	// out holds outgoing edge indices per node; in the incoming ones.
	out [][]int
	in  [][]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byEntity:  make(map[string]int),
		edgeIndex: make(map[edgeKey]int),
	}
}

// AddNode inserts or merges a node and returns its index. Merging keeps
// the maximum confidence, unions sources, and fills a missing label.
func (g *Graph) AddNode(entityID string, typ models.EntityType, label string, confidence float64, sources ...string) int {
	confidence = clamp01(confidence)

	if idx, ok := g.byEntity[entityID]; ok {
		n := &g.nodes[idx]
		if confidence > n.Confidence {
			n.Confidence = confidence
		}
		if n.Label == "" {
			n.Label = label
		}
		n.Sources = unionSorted(n.Sources, sources)
		return idx
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, Node{
		EntityID:   entityID,
		Type:       typ,
		Label:      label,
		Confidence: confidence,
		Sources:    unionSorted(nil, sources),
	})
	g.byEntity[entityID] = idx
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return idx
}

// AddEdge inserts or merges an edge between two known entities. Self-edges
// are rejected unless the relationship is same_identity. Duplicate
// (src, dst, relationship) edges merge: strength combines as
// 1-(1-s1)(1-s2), confidence takes the max, sources union. Both merge
// rules are monotone, so strength and confidence never decrease.
//
// Returns false when either endpoint is unknown or the edge is a rejected
// self-edge.
func (g *Graph) AddEdge(srcEntity, dstEntity string, rel RelationshipType, class EdgeClass, strength, confidence float64, sources ...string) bool {
	src, ok := g.byEntity[srcEntity]
	if !ok {
		return false
	}
	dst, ok := g.byEntity[dstEntity]
	if !ok {
		return false
	}
	if src == dst && rel != RelSameIdentity {
		return false
	}

	strength = clamp01(strength)
	confidence = clamp01(confidence)

	key := edgeKey{src: src, dst: dst, rel: rel}
	if idx, ok := g.edgeIndex[key]; ok {
		e := &g.edges[idx]
		e.Strength = 1 - (1-e.Strength)*(1-strength)
		if confidence > e.Confidence {
			e.Confidence = confidence
		}
		// A direct observation upgrades an inferred edge.
		if class == EdgeDirect {
			e.Class = EdgeDirect
		}
		e.Sources = unionSorted(e.Sources, sources)
		return true
	}

	idx := len(g.edges)
	g.edges = append(g.edges, Edge{
		Src:          src,
		Dst:          dst,
		Relationship: rel,
		Class:        class,
		Strength:     strength,
		Confidence:   confidence,
		Sources:      unionSorted(nil, sources),
	})
	g.edgeIndex[key] = idx
	g.out[src] = append(g.out[src], idx)
	g.in[dst] = append(g.in[dst], idx)
	return true
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node for an entity ID.
func (g *Graph) Node(entityID string) (Node, bool) {
	idx, ok := g.byEntity[entityID]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// Nodes returns a copy of the node arena.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the edge arena.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EntityID returns the entity ID at a node index.
func (g *Graph) EntityID(idx int) string {
	return g.nodes[idx].EntityID
}

// Subgraph is the result of an ego-network query: the contained entity
// IDs and the edges among them.
type Subgraph struct {
	Center   string   `json:"center"`
	Depth    int      `json:"depth"`
	Entities []string `json:"entities"`
	Edges    []Edge   `json:"edges"`
}

// Ego network depth bounds.
const (
	MinEgoDepth = 1
	MaxEgoDepth = 5
)

// EgoNetwork returns the BFS subgraph around an entity, following edges in
// both directions, depth-capped to 1-5.
func (g *Graph) EgoNetwork(entityID string, depth int) (Subgraph, bool) {
	center, ok := g.byEntity[entityID]
	if !ok {
		return Subgraph{}, false
	}
	if depth < MinEgoDepth {
		depth = MinEgoDepth
	}
	if depth > MaxEgoDepth {
		depth = MaxEgoDepth
	}

	dist := map[int]int{center: 0}
	queue := []int{center}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if dist[cur] == depth {
			continue
		}
		for _, nb := range g.neighbors(cur) {
			if _, seen := dist[nb]; !seen {
				dist[nb] = dist[cur] + 1
				queue = append(queue, nb)
			}
		}
	}

	members := make([]int, 0, len(dist))
	for idx := range dist {
		members = append(members, idx)
	}
	sort.Ints(members)

	sub := Subgraph{Center: entityID, Depth: depth}
	for _, idx := range members {
		sub.Entities = append(sub.Entities, g.nodes[idx].EntityID)
	}
	for _, e := range g.edges {
		if _, okS := dist[e.Src]; !okS {
			continue
		}
		if _, okD := dist[e.Dst]; !okD {
			continue
		}
		sub.Edges = append(sub.Edges, e)
	}
	return sub, true
}

// Path is a shortest-path result: entity IDs from src to dst inclusive
// and the product of edge confidences along it.
type Path struct {
	Entities   []string `json:"entities"`
	Confidence float64  `json:"confidence"`
}

// ShortestPath finds a minimum-hop path from src to dst over directed
// edges. Among equal-length paths the one with the higher confidence
// product wins. Returns false when no path exists.
func (g *Graph) ShortestPath(srcEntity, dstEntity string) (Path, bool) {
	src, ok := g.byEntity[srcEntity]
	if !ok {
		return Path{}, false
	}
	dst, ok := g.byEntity[dstEntity]
	if !ok {
		return Path{}, false
	}
	if src == dst {
		return Path{Entities: []string{srcEntity}, Confidence: 1}, true
	}

	// BFS layer by layer, keeping for each reached node the best
	// confidence product and its predecessor at the shortest distance.
	type state struct {
		dist int
		conf float64
		prev int
	}
	best := map[int]state{src: {dist: 0, conf: 1, prev: -1}}
	frontier := []int{src}

	for len(frontier) > 0 && best[dst].conf == 0 {
		var next []int
		for _, cur := range frontier {
			cs := best[cur]
			for _, ei := range g.out[cur] {
				e := g.edges[ei]
				conf := cs.conf * bestEdgeConfidence(g, cur, e.Dst)
				if s, seen := best[e.Dst]; !seen {
					best[e.Dst] = state{dist: cs.dist + 1, conf: conf, prev: cur}
					next = append(next, e.Dst)
				} else if s.dist == cs.dist+1 && conf > s.conf {
					best[e.Dst] = state{dist: s.dist, conf: conf, prev: cur}
				}
			}
		}
		frontier = next
	}

	end, ok := best[dst]
	if !ok {
		return Path{}, false
	}

	var indices []int
	for cur := dst; cur != -1; cur = best[cur].prev {
		indices = append(indices, cur)
	}
	path := Path{Confidence: end.conf}
	for i := len(indices) - 1; i >= 0; i-- {
		path.Entities = append(path.Entities, g.nodes[indices[i]].EntityID)
	}
	return path, true
}

// bestEdgeConfidence returns the highest confidence among parallel edges
// from src to dst; multiple relationships may connect the same pair.
func bestEdgeConfidence(g *Graph, src, dst int) float64 {
	best := 0.0
	for _, ei := range g.out[src] {
		e := g.edges[ei]
		if e.Dst == dst && e.Confidence > best {
			best = e.Confidence
		}
	}
	return best
}

// transitiveDecay is the confidence penalty applied per inferred hop.
const transitiveDecay = 0.9

// TransitiveClosure adds inferred A->C edges wherever A->B and B->C share
// the relationship, iterating up to maxDepth rounds. Inferred strength is
// the product of the contributing strengths; confidence the product times
// a 0.9 penalty per hop. Returns the number of edges added.
func (g *Graph) TransitiveClosure(rel RelationshipType, maxDepth int) int {
	if maxDepth < 1 {
		maxDepth = 1
	}

	added := 0
	for round := 0; round < maxDepth; round++ {
		type inferred struct {
			src, dst             int
			strength, confidence float64
		}
		var found []inferred

		for _, ei := range g.relEdges(rel) {
			ab := g.edges[ei]
			for _, ej := range g.out[ab.Dst] {
				bc := g.edges[ej]
				if bc.Relationship != rel || bc.Dst == ab.Src {
					continue
				}
				key := edgeKey{src: ab.Src, dst: bc.Dst, rel: rel}
				if _, exists := g.edgeIndex[key]; exists {
					continue
				}
				found = append(found, inferred{
					src:        ab.Src,
					dst:        bc.Dst,
					strength:   ab.Strength * bc.Strength,
					confidence: ab.Confidence * bc.Confidence * transitiveDecay,
				})
			}
		}

		if len(found) == 0 {
			break
		}
		for _, f := range found {
			if g.AddEdge(g.nodes[f.src].EntityID, g.nodes[f.dst].EntityID, rel, EdgeTransitive, f.strength, f.confidence) {
				added++
			}
		}
	}
	return added
}

func (g *Graph) relEdges(rel RelationshipType) []int {
	var out []int
	for i, e := range g.edges {
		if e.Relationship == rel {
			out = append(out, i)
		}
	}
	return out
}

// neighbors returns the distinct nodes adjacent to idx in either
// direction, ascending.
func (g *Graph) neighbors(idx int) []int {
	seen := make(map[int]struct{})
	for _, ei := range g.out[idx] {
		seen[g.edges[ei].Dst] = struct{}{}
	}
	for _, ei := range g.in[idx] {
		seen[g.edges[ei].Src] = struct{}{}
	}
	delete(seen, idx)

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Statistics summarizes the graph for reports and the API.
type Statistics struct {
	Nodes          int     `json:"nodes"`
	Edges          int     `json:"edges"`
	Density        float64 `json:"density"`
	MeanDegree     float64 `json:"mean_degree"`
	Components     int     `json:"components"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Stats computes summary statistics. Density is directed:
// edges / (n * (n-1)).
func (g *Graph) Stats() Statistics {
	s := Statistics{Nodes: len(g.nodes), Edges: len(g.edges)}
	if s.Nodes > 1 {
		s.Density = float64(s.Edges) / float64(s.Nodes*(s.Nodes-1))
	}
	if s.Nodes > 0 {
		s.MeanDegree = float64(2*s.Edges) / float64(s.Nodes)
		s.Components = len(g.Communities())
	}
	if s.Edges > 0 {
		sum := 0.0
		for _, e := range g.edges {
			sum += e.Confidence
		}
		s.MeanConfidence = sum / float64(s.Edges)
	}
	return s
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func unionSorted(existing, add []string) []string {
	if len(add) == 0 {
		return existing
	}
	set := make(map[string]struct{}, len(existing)+len(add))
	for _, s := range existing {
		set[s] = struct{}{}
	}
	for _, s := range add {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

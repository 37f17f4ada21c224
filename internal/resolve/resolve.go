// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package resolve clusters normalized entity candidates into resolved
// entities.
//
// Candidates are blocked on shared compare keys, scored pairwise by the
// fuzzy matcher, and clustered with union-find. Resolution is
// order-independent: candidate IDs are sorted before pairing and union
// roots are chosen deterministically, so any arrival order of the same
// candidate set yields the same clusters, the same winners, and the same
// resolved entity IDs.
package resolve

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vestigium/internal/graph"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/match"
	"github.com/tomtom215/vestigium/internal/metrics"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/timeline"
)

// Confidence bands. Pairs scoring in [ambiguousFloor, threshold) are
// annotated and left unmerged; no cluster can be held together by a link
// weaker than ambiguousFloor.
const (
	ambiguousFloor   = 60.0
	DefaultThreshold = 75.0

	defaultSourceConfidence = 0.5
)

// Config parameterizes a Resolver.
type Config struct {
	Matcher *match.Matcher

	// Threshold is the minimum pairwise score that merges two candidates,
	// clamped to at least the ambiguous floor.
	Threshold float64

	// SourceConfidence maps source name to connector base confidence,
	// used for conflict precedence. Unknown sources score 0.5.
	SourceConfidence map[string]float64
}

// AmbiguousPair records two candidates that scored close enough to
// suspect a link but not enough to merge.
type AmbiguousPair struct {
	CandidateA string   `json:"candidate_a"`
	CandidateB string   `json:"candidate_b"`
	Score      float64  `json:"score"`
	Reasoning  []string `json:"reasoning,omitempty"`
}

// Result is one resolution pass over a candidate set. Graph and Timeline
// are projections of the resolved entities, rebuilt on every pass.
type Result struct {
	Entities  []models.ResolvedEntity
	Ambiguous []AmbiguousPair
	Graph     *graph.Graph
	Timeline  *timeline.Builder

	// ByCandidate maps candidate ID to the resolved entity that absorbed it.
	ByCandidate map[string]string
}

// Resolver clusters candidates. Safe for sequential reuse; each Resolve
// call is independent.
type Resolver struct {
	matcher    *match.Matcher
	threshold  float64
	sourceConf map[string]float64
	log        zerolog.Logger
}

// New builds a Resolver, applying defaults for zero-valued config.
func New(cfg Config) *Resolver {
	m := cfg.Matcher
	if m == nil {
		m = match.New(match.DefaultWeights())
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < ambiguousFloor {
		threshold = ambiguousFloor
	}
	return &Resolver{
		matcher:    m,
		threshold:  threshold,
		sourceConf: cfg.SourceConfidence,
		log:        logging.WithComponent("resolve"),
	}
}

// Resolve runs one full pass: block, score, cluster, merge, project.
func (r *Resolver) Resolve(candidates []models.NormalizedEntity) Result {
	ordered := make([]models.NormalizedEntity, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	uf := newUnionFind(len(ordered))
	ambiguous := r.scorePairs(ordered, uf)

	clusters := uf.clusters()
	result := Result{
		Ambiguous:   ambiguous,
		ByCandidate: make(map[string]string, len(ordered)),
	}
	for _, members := range clusters {
		entity := r.merge(ordered, members, uf.linkConfidence[members[0]])
		result.Entities = append(result.Entities, entity)
		for _, idx := range members {
			result.ByCandidate[ordered[idx].ID] = entity.ID
		}
		metrics.EntitiesResolved.WithLabelValues(string(entity.Verification)).Inc()
	}
	sort.SliceStable(result.Entities, func(i, j int) bool {
		return result.Entities[i].ID < result.Entities[j].ID
	})

	result.Graph = r.projectGraph(result.Entities, ordered, result.ByCandidate)
	result.Timeline = r.projectTimeline(result.Entities)

	r.log.Info().
		Int("candidates", len(ordered)).
		Int("resolved", len(result.Entities)).
		Int("ambiguous", len(result.Ambiguous)).
		Msg("resolution pass complete")
	return result
}

// scorePairs compares every blocked pair once, merging at the threshold
// and recording the ambiguous band.
func (r *Resolver) scorePairs(ordered []models.NormalizedEntity, uf *unionFind) []AmbiguousPair {
	blocks := buildBlocks(ordered)

	var ambiguous []AmbiguousPair
	seen := make(map[[2]int]struct{})

	keys := make([]string, 0, len(blocks))
	for k := range blocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		members := blocks[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				pair := [2]int{a, b}
				if _, done := seen[pair]; done {
					continue
				}
				seen[pair] = struct{}{}

				scored := r.matcher.Match(&ordered[a], &ordered[b])
				switch {
				case scored.Score >= r.threshold:
					uf.union(a, b, scored.Score)
				case scored.Score >= ambiguousFloor:
					metrics.AmbiguousPairs.Inc()
					ambiguous = append(ambiguous, AmbiguousPair{
						CandidateA: ordered[a].ID,
						CandidateB: ordered[b].ID,
						Score:      scored.Score,
						Reasoning:  scored.Reasoning,
					})
					r.log.Debug().
						Str("candidate_a", ordered[a].ID).
						Str("candidate_b", ordered[b].ID).
						Float64("score", scored.Score).
						Msg("ambiguous pair left unmerged")
				}
			}
		}
	}

	sort.SliceStable(ambiguous, func(i, j int) bool {
		if ambiguous[i].CandidateA != ambiguous[j].CandidateA {
			return ambiguous[i].CandidateA < ambiguous[j].CandidateA
		}
		return ambiguous[i].CandidateB < ambiguous[j].CandidateB
	})
	return ambiguous
}

// buildBlocks indexes candidates by each blocking key they carry. Only
// candidates sharing at least one block are ever compared.
func buildBlocks(ordered []models.NormalizedEntity) map[string][]int {
	blocks := make(map[string][]int)
	add := func(kind, value string, idx int) {
		if value == "" {
			return
		}
		key := kind + ":" + value
		blocks[key] = append(blocks[key], idx)
	}

	for i, c := range ordered {
		add(models.KeyDeliverableEmail, c.CompareKeys[models.KeyDeliverableEmail], i)
		add(models.KeyE164, c.CompareKeys[models.KeyE164], i)
		add(models.KeyDomain, c.CompareKeys[models.KeyDomain], i)
		add(models.KeyNamePhonetic, c.CompareKeys[models.KeyNamePhonetic], i)
		add("user", c.CompareKeys[models.KeyCanonicalUser], i)
		for _, variant := range c.UsernameVariants {
			add("user", variant, i)
		}
	}
	return blocks
}

// merge coalesces one cluster into a resolved entity. Attribute conflicts
// prefer higher source confidence, then higher extraction confidence,
// then recency; losing values land in Disputed.
func (r *Resolver) merge(ordered []models.NormalizedEntity, members []int, clusterConf float64) models.ResolvedEntity {
	ranked := make([]int, len(members))
	copy(ranked, members)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ordered[ranked[i]], &ordered[ranked[j]]
		if ca, cb := r.confOf(a.Source), r.confOf(b.Source); ca != cb {
			return ca > cb
		}
		if a.ExtractionConfidence != b.ExtractionConfidence {
			return a.ExtractionConfidence > b.ExtractionConfidence
		}
		if !a.ExtractedAt.Equal(b.ExtractedAt) {
			return a.ExtractedAt.After(b.ExtractedAt)
		}
		return a.ID < b.ID
	})

	entity := models.ResolvedEntity{
		Attributes: make(map[string]string),
		MergedFrom: len(members),
	}

	ids := make([]string, 0, len(members))
	for _, idx := range members {
		ids = append(ids, ordered[idx].ID)
	}
	sort.Strings(ids)
	entity.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("vestigium/entity:"+strings.Join(ids, ","))).String()

	for _, idx := range ranked {
		c := &ordered[idx]
		if entity.Type == "" || (c.Type == models.EntityPerson && entity.Type != models.EntityPerson) {
			entity.Type = c.Type
		}

		for _, key := range sortedAttrKeys(c) {
			value := c.Canonical[key]
			if value == "" {
				value = c.Attributes[key]
			}
			if value == "" {
				continue
			}
			current, exists := entity.Attributes[key]
			switch {
			case !exists:
				entity.Attributes[key] = value
			case current != value:
				entity.Disputed = appendDisputed(entity.Disputed, key, models.DisputedValue{
					Value:            value,
					Source:           c.Source,
					SourceConfidence: r.confOf(c.Source),
					ObservedAt:       c.ExtractedAt,
				})
			}
		}

		entity.Sources = append(entity.Sources, models.SourceRef{
			CandidateID: c.ID,
			Source:      c.Source,
			URL:         urlOf(c),
			RetrievedAt: c.ExtractedAt,
		})
		if entity.CreatedAt.IsZero() || c.ExtractedAt.Before(entity.CreatedAt) {
			entity.CreatedAt = c.ExtractedAt
		}
		if c.ExtractedAt.After(entity.UpdatedAt) {
			entity.UpdatedAt = c.ExtractedAt
		}
	}

	sort.SliceStable(entity.Sources, func(i, j int) bool {
		return entity.Sources[i].CandidateID < entity.Sources[j].CandidateID
	})

	if len(members) == 1 {
		// Extraction confidence is 0-1; entity confidence is 0-100.
		entity.Confidence = 100 * ordered[members[0]].ExtractionConfidence
	} else {
		entity.Confidence = clusterConf
	}
	if entity.Confidence > 100 {
		entity.Confidence = 100
	}
	entity.Verification = models.VerificationStatusFor(entity.Confidence)
	return entity
}

func (r *Resolver) confOf(source string) float64 {
	if c, ok := r.sourceConf[source]; ok {
		return c
	}
	return defaultSourceConfidence
}

func sortedAttrKeys(c *models.NormalizedEntity) []string {
	set := make(map[string]struct{}, len(c.Attributes)+len(c.Canonical))
	for k := range c.Attributes {
		set[k] = struct{}{}
	}
	for k := range c.Canonical {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendDisputed(disputed map[string][]models.DisputedValue, key string, v models.DisputedValue) map[string][]models.DisputedValue {
	if disputed == nil {
		disputed = make(map[string][]models.DisputedValue)
	}
	for _, existing := range disputed[key] {
		if existing.Value == v.Value && existing.Source == v.Source {
			return disputed
		}
	}
	disputed[key] = append(disputed[key], v)
	return disputed
}

func urlOf(c *models.NormalizedEntity) string {
	if u := c.Attributes[models.AttrProfileURL]; u != "" {
		return u
	}
	return c.Attributes[models.AttrURL]
}

// unionFind clusters candidate indices. Roots are always the smallest
// index in a set, which makes cluster identity independent of union
// order. linkConfidence[root] is the weakest score that joined the set.
type unionFind struct {
	parent         []int
	linkConfidence []float64
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent:         make([]int, n),
		linkConfidence: make([]float64, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.linkConfidence[i] = 100
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int, score float64) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		if score < uf.linkConfidence[ra] {
			uf.linkConfidence[ra] = score
		}
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	merged := uf.linkConfidence[ra]
	if uf.linkConfidence[rb] < merged {
		merged = uf.linkConfidence[rb]
	}
	if score < merged {
		merged = score
	}
	uf.parent[rb] = ra
	uf.linkConfidence[ra] = merged
}

// clusters returns members grouped by root, each group ascending, groups
// ordered by root index. linkConfidence is reachable via members[0],
// which is always the root.
func (uf *unionFind) clusters() [][]int {
	groups := make(map[int][]int)
	for i := range uf.parent {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	roots := make([]int, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	out := make([][]int, 0, len(roots))
	for _, root := range roots {
		members := groups[root]
		sort.Ints(members)
		out = append(out, members)
	}
	return out
}

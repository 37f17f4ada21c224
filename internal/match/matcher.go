// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package match

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/vestigium/internal/models"
)

// Weights apportion the pairwise score across fields. Only fields present
// on both entities participate; their weights are renormalized so missing
// data never drags a score down.
type Weights struct {
	Name         float64 `json:"name"`
	Email        float64 `json:"email"`
	Phone        float64 `json:"phone"`
	Username     float64 `json:"username"`
	Biographical float64 `json:"biographical"`
}

// DefaultWeights returns the standard field weighting.
func DefaultWeights() Weights {
	return Weights{Name: 25, Email: 25, Phone: 15, Username: 15, Biographical: 20}
}

// Result is one pairwise comparison: the weighted score in [0,100], the
// per-field breakdown, and human-readable reasoning for audit trails.
type Result struct {
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
	Reasoning []string           `json:"reasoning"`
}

// Matcher scores pairs of normalized entities. It is pure: no clock, no
// I/O, identical inputs always produce identical results.
type Matcher struct {
	w Weights
}

// New returns a Matcher with the given weights. Zero-valued weights fall
// back to the defaults.
func New(w Weights) *Matcher {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Matcher{w: w}
}

// Match scores a against b. Fields missing from either side are inactive;
// the remaining weights renormalize. No active field yields score 0.
func (m *Matcher) Match(a, b *models.NormalizedEntity) Result {
	res := Result{Breakdown: make(map[string]float64)}

	type field struct {
		name   string
		weight float64
		score  func(a, b *models.NormalizedEntity) (float64, string, bool)
	}
	fields := []field{
		{"name", m.w.Name, scoreName},
		{"email", m.w.Email, scoreEmail},
		{"phone", m.w.Phone, scorePhone},
		{"username", m.w.Username, scoreUsername},
		{"biographical", m.w.Biographical, scoreBiographical},
	}

	var weighted, totalWeight float64
	for _, f := range fields {
		score, reason, active := f.score(a, b)
		if !active {
			continue
		}
		res.Breakdown[f.name] = score
		res.Reasoning = append(res.Reasoning, f.name+": "+reason)
		weighted += score * f.weight
		totalWeight += f.weight
	}

	if totalWeight > 0 {
		res.Score = clampScore(weighted / totalWeight)
	}
	return res
}

func scoreName(a, b *models.NormalizedEntity) (float64, string, bool) {
	na, nb := a.Canonical[models.AttrFullName], b.Canonical[models.AttrFullName]
	if na == "" || nb == "" {
		return 0, "", false
	}
	if na == nb {
		return 100, "canonical names identical", true
	}

	ta, tb := strings.Fields(na), strings.Fields(nb)
	jaccard := tokenSetJaccard(ta, tb)
	lev := LevenshteinRatio(na, nb)
	jw := JaroWinkler(na, nb)

	best := math.Max(jaccard, math.Max(lev, jw))
	reason := fmt.Sprintf("token jaccard %.2f, levenshtein %.2f, jaro-winkler %.2f", jaccard, lev, jw)

	pa, pb := a.CompareKeys[models.KeyNamePhonetic], b.CompareKeys[models.KeyNamePhonetic]
	if pa != "" && pa == pb && best < 0.85 {
		best = 0.85
		reason = "phonetic codes match, " + reason
	}
	return clampScore(best * 100), reason, true
}

func scoreEmail(a, b *models.NormalizedEntity) (float64, string, bool) {
	ka, kb := a.CompareKeys[models.KeyDeliverableEmail], b.CompareKeys[models.KeyDeliverableEmail]
	if ka == "" || kb == "" {
		return 0, "", false
	}

	ea, eb := a.Canonical[models.AttrEmail], b.Canonical[models.AttrEmail]
	if ea == eb {
		return 100, "addresses identical", true
	}
	if ka == kb {
		return 90, "addresses equivalent after provider alias folding", true
	}

	la, da := splitEmail(ea)
	lb, db := splitEmail(eb)
	if da != "" && da == db {
		jw := JaroWinkler(la, lb)
		return clampScore(jw * 100), fmt.Sprintf("same domain, local-part jaro-winkler %.2f", jw), true
	}
	return 0, "different providers", true
}

func scorePhone(a, b *models.NormalizedEntity) (float64, string, bool) {
	ea, eb := a.CompareKeys[models.KeyE164], b.CompareKeys[models.KeyE164]
	la, lb := a.CompareKeys[models.KeyLast7], b.CompareKeys[models.KeyLast7]
	if (ea == "" && la == "") || (eb == "" && lb == "") {
		return 0, "", false
	}

	if ea != "" && ea == eb {
		return 100, "E.164 numbers identical", true
	}
	if la != "" && la == lb {
		return 80, "last 7 digits match", true
	}

	// Below the partial-match tier regardless of raw similarity.
	jw := JaroWinkler(digitsOf(ea+la), digitsOf(eb+lb))
	score := math.Min(jw*100, 70)
	return clampScore(score), fmt.Sprintf("digit jaro-winkler %.2f", jw), true
}

func scoreUsername(a, b *models.NormalizedEntity) (float64, string, bool) {
	ca, cb := a.CompareKeys[models.KeyCanonicalUser], b.CompareKeys[models.KeyCanonicalUser]
	if ca == "" || cb == "" {
		return 0, "", false
	}

	if ca == cb {
		return 100, "canonical usernames identical", true
	}
	if variantOverlap(a, cb) || variantOverlap(b, ca) {
		return 90, "username variant match", true
	}

	ratio := LevenshteinRatio(ca, cb)
	return clampScore(ratio * 100), fmt.Sprintf("edit ratio %.2f", ratio), true
}

// scoreBiographical combines date-of-birth, city, and employer signals
// linearly: achieved points over the maximum the shared signals allow.
func scoreBiographical(a, b *models.NormalizedEntity) (float64, string, bool) {
	var achieved, possible float64
	var reasons []string

	if da, db := a.Canonical[models.AttrDateOfBirth], b.Canonical[models.AttrDateOfBirth]; da != "" && db != "" {
		possible += 70
		if dobWithinYear(da, db) {
			achieved += 70
			reasons = append(reasons, "date of birth within a year")
		} else {
			reasons = append(reasons, "date of birth differs")
		}
	}

	if ca, cb := a.Canonical[models.AttrCity], b.Canonical[models.AttrCity]; ca != "" && cb != "" {
		possible += 60
		if ca == cb {
			achieved += 60
			reasons = append(reasons, "same city")
		} else {
			reasons = append(reasons, "different cities")
		}
	}

	ea := employerOf(a)
	eb := employerOf(b)
	if ea != "" && eb != "" {
		possible += 80
		overlap := tokenSetJaccard(strings.Fields(ea), strings.Fields(eb))
		achieved += overlap * 80
		reasons = append(reasons, fmt.Sprintf("employer token overlap %.2f", overlap))
	}

	if possible == 0 {
		return 0, "", false
	}
	return clampScore(achieved / possible * 100), strings.Join(reasons, "; "), true
}

func employerOf(e *models.NormalizedEntity) string {
	if v := e.Canonical[models.AttrEmployer]; v != "" {
		return v
	}
	return e.Canonical[models.AttrCompany]
}

func variantOverlap(e *models.NormalizedEntity, canonical string) bool {
	for _, v := range e.UsernameVariants {
		if v == canonical {
			return true
		}
	}
	return false
}

func splitEmail(addr string) (local, domain string) {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return addr, ""
	}
	return addr[:at], addr[at+1:]
}

func digitsOf(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// dobWithinYear compares two ISO dates (or bare years) with a one-year
// tolerance, absorbing off-by-one birth years across sources.
func dobWithinYear(a, b string) bool {
	ya, oka := yearOf(a)
	yb, okb := yearOf(b)
	if !oka || !okb {
		return a == b
	}
	diff := ya - yb
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

func yearOf(date string) (int, bool) {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Year(), true
	}
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil && y > 1000 {
			return y, true
		}
	}
	return 0, false
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

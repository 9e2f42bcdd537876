// Package disambig selects the correct real-world entity among several
// same-named search results.
package disambig

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/prospect-cli/internal/model"
)

// DefaultMinRelevance is the token-overlap score below which no candidate
// is selected. Guessing a wrong company poisons every later field, so the
// bar errs toward returning nothing.
const DefaultMinRelevance = 0.5

var fold = cases.Fold()

// Disambiguator picks the best candidate for a query using auxiliary
// signals. Pick is pure and deterministic given identical inputs.
type Disambiguator struct {
	// MinRelevance overrides DefaultMinRelevance when positive.
	MinRelevance float64
}

// Pick selects the best match for query among candidates.
//
// Tie-break policy, in order: a candidate whose declared website matches
// the already-known company domain wins outright; otherwise candidates
// matching the location hint are preferred; otherwise the best
// source-assigned rank wins. Candidates that do not clear the relevance
// threshold are never selected.
func (d Disambiguator) Pick(query string, candidates []model.SearchCandidate, locationHint, knownDomain string) (model.SearchCandidate, bool) {
	if len(candidates) == 0 {
		return model.SearchCandidate{}, false
	}

	// Exact domain corroboration beats every other signal.
	if knownDomain != "" {
		for _, c := range candidates {
			if c.Website != "" && domainOf(c.Website) == domainOf(knownDomain) {
				return c, true
			}
		}
	}

	threshold := d.MinRelevance
	if threshold <= 0 {
		threshold = DefaultMinRelevance
	}

	best := -1
	bestKey := pickKey{}
	for i, c := range candidates {
		rel := relevance(query, c.Name)
		if rel < threshold {
			continue
		}
		key := pickKey{
			locationMatch: locationHint != "" && locationMatches(c.Location, locationHint),
			rank:          c.Rank,
			index:         i,
		}
		if best < 0 || key.better(bestKey) {
			best = i
			bestKey = key
		}
	}

	if best < 0 {
		zap.L().Debug("disambig: no candidate above threshold",
			zap.String("query", query),
			zap.Int("candidates", len(candidates)),
		)
		return model.SearchCandidate{}, false
	}
	return candidates[best], true
}

type pickKey struct {
	locationMatch bool
	rank          int
	index         int
}

// better orders keys: location match first, then source rank, then input
// order.
func (k pickKey) better(other pickKey) bool {
	if k.locationMatch != other.locationMatch {
		return k.locationMatch
	}
	if k.rank != other.rank {
		return k.rank < other.rank
	}
	return k.index < other.index
}

// relevance scores how much of the query survives in the candidate name,
// as case-folded token overlap in [0, 1].
func relevance(query, name string) float64 {
	qTokens := tokens(query)
	if len(qTokens) == 0 {
		return 0
	}
	nTokens := map[string]bool{}
	for _, t := range tokens(name) {
		nTokens[t] = true
	}

	matched := 0
	for _, t := range qTokens {
		if nTokens[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(qTokens))
}

func tokens(s string) []string {
	return strings.FieldsFunc(fold.String(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

func locationMatches(candidate, hint string) bool {
	c := fold.String(strings.TrimSpace(candidate))
	h := fold.String(strings.TrimSpace(hint))
	if c == "" || h == "" {
		return false
	}
	return strings.Contains(c, h) || strings.Contains(h, c)
}

// domainOf extracts the bare host from a URL or domain string.
func domainOf(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

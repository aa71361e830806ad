package facematch

import (
	"log/slog"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Match scans the enrolled identities in order and returns the closest one
// whose distance is strictly below threshold. On equal distances the earlier
// identity wins. Returns nil when nothing is close enough.
func Match(query []float32, enrolled []database.EnrolledIdentity, threshold float64) *MatchResult {
	return scan(query, enrolled, threshold, nil)
}

func scan(query []float32, enrolled []database.EnrolledIdentity, threshold float64, only map[string]struct{}) *MatchResult {
	best := -1
	bestDist := threshold
	for i := range enrolled {
		if only != nil {
			if _, ok := only[enrolled[i].ID]; !ok {
				continue
			}
		}
		d := EuclideanDistance(query, enrolled[i].Signature)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return nil
	}
	return &MatchResult{
		IdentityID: enrolled[best].ID,
		Name:       enrolled[best].Name,
		Distance:   bestDist,
		Similarity: 1 - bestDist,
	}
}

// MatcherOptions tunes a Matcher.
type MatcherOptions struct {
	Threshold       float64
	IndexMinSize    int
	IndexCandidates int
	Index           CandidateIndex
}

// Matcher matches signatures with an optional approximate candidate index
// for large enrolled sets.
type Matcher struct {
	threshold  float64
	minSize    int
	candidates int
	index      CandidateIndex
}

// NewMatcher creates a matcher. Zero options fall back to the defaults.
func NewMatcher(opts MatcherOptions) *Matcher {
	m := &Matcher{
		threshold:  opts.Threshold,
		minSize:    opts.IndexMinSize,
		candidates: opts.IndexCandidates,
		index:      opts.Index,
	}
	if m.threshold <= 0 {
		m.threshold = constants.DefaultMatchThreshold
	}
	if m.minSize <= 0 {
		m.minSize = constants.DefaultIndexMinSize
	}
	if m.candidates <= 0 {
		m.candidates = constants.DefaultIndexCandidates
	}
	return m
}

// Threshold returns the acceptance distance.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match finds the closest enrolled identity. Below the index size the scan is
// exhaustive. Above it, the index candidates are re-scanned exactly in
// enrollment order, so the cutoff and tie-break are the same as the full scan.
func (m *Matcher) Match(query []float32, enrolled []database.EnrolledIdentity) *MatchResult {
	if m.index == nil || len(enrolled) < m.minSize || m.index.Count() == 0 {
		return scan(query, enrolled, m.threshold, nil)
	}

	ids, err := m.index.Search(query, m.candidates)
	if err != nil || len(ids) == 0 {
		slog.Warn("candidate index search failed, scanning all identities", "error", err)
		return scan(query, enrolled, m.threshold, nil)
	}

	only := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		only[id] = struct{}{}
	}
	return scan(query, enrolled, m.threshold, only)
}

// Package facematch matches face signatures against the enrolled identities.
package facematch

// MatchResult is the enrolled identity closest to a query signature.
type MatchResult struct {
	IdentityID string  `json:"identity_id"`
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"` // 1 - Distance
}

// CandidateIndex proposes approximate nearest identity IDs for a signature.
type CandidateIndex interface {
	Search(query []float32, k int) ([]string, error)
	Count() int
}

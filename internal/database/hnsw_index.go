package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// ErrIndexEmpty is returned when searching an index with no signatures.
var ErrIndexEmpty = errors.New("index not initialized")

// SignatureIndex wraps an HNSW graph over enrolled signatures keyed by
// identity ID. It only proposes candidates; exact distances are computed by
// the caller.
type SignatureIndex struct {
	graph *hnsw.Graph[string]
	count int
	mu    sync.RWMutex
}

// NewSignatureIndex creates a new empty index.
func NewSignatureIndex() *SignatureIndex {
	return &SignatureIndex{}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// Build replaces the index contents with the given identities. Identities
// whose signature is not constants.SignatureDim long are skipped.
func (x *SignatureIndex) Build(identities []EnrolledIdentity) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(identities) == 0 {
		x.graph = nil
		x.count = 0
		return
	}

	g := newGraph()
	count := 0
	for i := range identities {
		id := &identities[i]
		if len(id.Signature) != constants.SignatureDim {
			continue
		}
		g.Add(hnsw.MakeNode(id.ID, id.Signature))
		count++
	}

	x.graph = g
	x.count = count
}

// Search returns the IDs of up to k approximate nearest neighbours.
func (x *SignatureIndex) Search(query []float32, k int) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil || x.count == 0 {
		return nil, ErrIndexEmpty
	}

	neighbors := x.graph.Search(query, k)
	ids := make([]string, len(neighbors))
	for i, n := range neighbors {
		ids[i] = n.Key
	}
	return ids, nil
}

// Count returns the number of indexed signatures.
func (x *SignatureIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Package registry manages the enrolled identities and matches signatures
// against them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/detection"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

var (
	ErrEmptyName        = errors.New("name must not be empty")
	ErrInvalidSignature = errors.New("invalid face signature")
	ErrNotFound         = errors.New("identity not found")
)

// Options configures a Registry.
type Options struct {
	Match   facematch.MatcherOptions
	Metrics *metrics.Metrics
}

// Registry holds the enrolled identities in enrollment order.
type Registry struct {
	store   database.IdentityStore
	index   *database.SignatureIndex
	matcher *facematch.Matcher
	metrics *metrics.Metrics

	mu         sync.RWMutex
	identities []database.EnrolledIdentity
}

// New creates an empty registry backed by store.
func New(store database.IdentityStore, opts Options) *Registry {
	index := database.NewSignatureIndex()
	if opts.Match.Index == nil {
		opts.Match.Index = index
	}
	return &Registry{
		store:   store,
		index:   index,
		matcher: facematch.NewMatcher(opts.Match),
		metrics: opts.Metrics,
	}
}

// Load replaces the in-memory identities with the persisted collection.
func (r *Registry) Load(ctx context.Context) error {
	identities, err := r.store.LoadIdentities(ctx)
	if err != nil {
		return fmt.Errorf("loading identities: %w", err)
	}
	r.mu.Lock()
	r.identities = identities
	r.reindex()
	r.mu.Unlock()
	slog.Info("identities loaded", "count", len(identities))
	return nil
}

// reindex rebuilds the signature index. Callers hold r.mu.
func (r *Registry) reindex() {
	r.index.Build(r.identities)
	r.metrics.SetEnrolled(len(r.identities))
}

// persist writes the full collection. Callers hold r.mu.
func (r *Registry) persist(ctx context.Context) error {
	if err := r.store.SaveIdentities(ctx, r.identities); err != nil {
		r.metrics.IncrementPersistFailure(database.KeyIdentities)
		slog.Error("failed to persist identities", "error", err)
		return fmt.Errorf("saving identities: %w", err)
	}
	return nil
}

// Count returns the number of enrolled identities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities)
}

// List returns a copy of the identities in enrollment order.
func (r *Registry) List() []database.EnrolledIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]database.EnrolledIdentity, len(r.identities))
	copy(out, r.identities)
	return out
}

// Get returns the identity with the given id.
func (r *Registry) Get(id string) (database.EnrolledIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ident := range r.identities {
		if ident.ID == id {
			return ident, nil
		}
	}
	return database.EnrolledIdentity{}, ErrNotFound
}

// FindByName returns every identity whose normalized name equals name's.
func (r *Registry) FindByName(name string) []database.EnrolledIdentity {
	want := facematch.NormalizePersonName(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []database.EnrolledIdentity
	for _, ident := range r.identities {
		if facematch.NormalizePersonName(ident.Name) == want {
			out = append(out, ident)
		}
	}
	return out
}

// Match returns the closest enrolled identity under the match threshold.
func (r *Registry) Match(sig detection.Signature) *facematch.MatchResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matcher.Match(sig, r.identities)
}

// Enroll appends a new identity. Names are not unique; an existing identity
// with the same normalized name is only logged. A persistence failure keeps
// the enrolled identity and returns the error.
func (r *Registry) Enroll(ctx context.Context, name string, sig detection.Signature, thumbnail []byte, now time.Time) (*database.EnrolledIdentity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !sig.Valid() {
		return nil, fmt.Errorf("%w: %d components", ErrInvalidSignature, len(sig))
	}
	if dups := r.FindByName(name); len(dups) > 0 {
		slog.Warn("enrolling a name that already exists", "name", name, "existing", len(dups))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating identity id: %w", err)
	}
	ident := database.EnrolledIdentity{
		ID:         id.String(),
		Name:       name,
		Signature:  append([]float32(nil), sig...),
		Thumbnail:  thumbnail,
		EnrolledAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities = append(r.identities, ident)
	r.reindex()
	slog.Info("identity enrolled", "id", ident.ID, "name", name)
	return &ident, r.persist(ctx)
}

// Delete removes one identity. Its attendance records are kept.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.identities {
		if r.identities[i].ID == id {
			r.identities = append(r.identities[:i:i], r.identities[i+1:]...)
			r.reindex()
			return r.persist(ctx)
		}
	}
	return ErrNotFound
}

// Clear removes every identity and returns how many were removed.
func (r *Registry) Clear(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := len(r.identities)
	r.identities = nil
	r.reindex()
	return removed, r.persist(ctx)
}

package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/detection/detectiontest"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

var now = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, opts Options) (*Registry, *database.Repository, *mock.MockBlobStore) {
	t.Helper()
	store := mock.NewMockBlobStore()
	codec, err := database.CodecByName(database.CodecJSON)
	require.NoError(t, err)
	repo := database.NewRepository(store, codec)
	return New(repo, opts), repo, store
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	r, repo, _ := newTestRegistry(t, Options{})

	ident, err := r.Enroll(ctx, "  Alice  ", detectiontest.Signature(0.1), []byte{0xFF, 0xD8}, now)
	require.NoError(t, err)
	assert.Equal(t, "Alice", ident.Name)
	assert.NotEmpty(t, ident.ID)
	assert.Equal(t, now, ident.EnrolledAt)
	assert.Equal(t, 1, r.Count())

	persisted, err := repo.LoadIdentities(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, ident.ID, persisted[0].ID)

	got, err := r.Get(ident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestEnrollValidation(t *testing.T) {
	ctx := context.Background()
	r, _, store := newTestRegistry(t, Options{})

	_, err := r.Enroll(ctx, "   ", detectiontest.Signature(0.1), nil, now)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = r.Enroll(ctx, "Alice", make([]float32, 3), nil, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	assert.Zero(t, r.Count())
	assert.Zero(t, store.SaveCount(database.KeyIdentities))
}

func TestEnrollPersistFailureKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	r, _, store := newTestRegistry(t, Options{})
	store.SaveError = errors.New("read-only")

	ident, err := r.Enroll(ctx, "Alice", detectiontest.Signature(0.1), nil, now)
	require.Error(t, err)
	require.NotNil(t, ident)
	assert.Equal(t, 1, r.Count())
}

func TestMatch(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestRegistry(t, Options{})

	base := detectiontest.Signature(0)
	_, err := r.Enroll(ctx, "Alice", detectiontest.Offset(base, 0, 0.3), nil, now)
	require.NoError(t, err)
	_, err = r.Enroll(ctx, "Bob", detectiontest.Offset(base, 0, 0.5), nil, now)
	require.NoError(t, err)

	res := r.Match(base)
	require.NotNil(t, res)
	assert.Equal(t, "Alice", res.Name)
	assert.InDelta(t, 0.3, res.Distance, 1e-6)

	assert.Nil(t, r.Match(detectiontest.Signature(1)))
}

func TestMatchUsesIndexForLargeSets(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestRegistry(t, Options{Match: facematch.MatcherOptions{IndexMinSize: 4, IndexCandidates: 4}})

	base := detectiontest.Signature(0)
	for i := range 10 {
		_, err := r.Enroll(ctx, string(rune('A'+i)), detectiontest.Offset(base, i, 0.2+float32(i)*0.01), nil, now)
		require.NoError(t, err)
	}
	require.Equal(t, 10, r.index.Count())

	res := r.Match(detectiontest.Offset(base, 0, 0.2))
	require.NotNil(t, res)
	assert.Equal(t, "A", res.Name)
}

func TestFindByName(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestRegistry(t, Options{})

	_, err := r.Enroll(ctx, "Jiří Novák", detectiontest.Signature(0.1), nil, now)
	require.NoError(t, err)
	_, err = r.Enroll(ctx, "Ada", detectiontest.Signature(0.2), nil, now)
	require.NoError(t, err)

	found := r.FindByName("jiri novak")
	require.Len(t, found, 1)
	assert.Equal(t, "Jiří Novák", found[0].Name)
	assert.Empty(t, r.FindByName("Grace"))
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	r, repo, _ := newTestRegistry(t, Options{})

	a, err := r.Enroll(ctx, "Alice", detectiontest.Signature(0.1), nil, now)
	require.NoError(t, err)
	_, err = r.Enroll(ctx, "Bob", detectiontest.Signature(0.2), nil, now)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, a.ID))
	_, err = r.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, a.ID), ErrNotFound)
	assert.Nil(t, r.Match(detectiontest.Signature(0.1)), "deleted identity no longer matches")

	removed, err := r.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, r.List())

	persisted, err := repo.LoadIdentities(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	r, repo, store := newTestRegistry(t, Options{})
	_, err := r.Enroll(ctx, "Alice", detectiontest.Signature(0.1), nil, now)
	require.NoError(t, err)

	reloaded := New(repo, Options{})
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 1, reloaded.Count())
	assert.NotNil(t, reloaded.Match(detectiontest.Signature(0.1)))

	store.LoadError = errors.New("offline")
	assert.Error(t, reloaded.Load(ctx))
}

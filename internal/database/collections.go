package database

import (
	"context"
	"fmt"
)

// Repository stores both collections in a BlobStore, rewriting the whole
// collection on every save.
type Repository struct {
	store BlobStore
	codec Codec
}

// NewRepository creates a repository. A nil codec selects JSON.
func NewRepository(store BlobStore, codec Codec) *Repository {
	if codec == nil {
		codec = jsonCodec{}
	}
	return &Repository{store: store, codec: codec}
}

// Store returns the underlying blob store.
func (r *Repository) Store() BlobStore {
	return r.store
}

func (r *Repository) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.store.Load(ctx, key)
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := r.codec.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	data, err := r.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := r.store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// LoadIdentities reads the enrolled identities in enrollment order.
func (r *Repository) LoadIdentities(ctx context.Context) ([]EnrolledIdentity, error) {
	var identities []EnrolledIdentity
	if _, err := r.load(ctx, KeyIdentities, &identities); err != nil {
		return nil, err
	}
	return identities, nil
}

// SaveIdentities replaces the stored identity collection.
func (r *Repository) SaveIdentities(ctx context.Context, identities []EnrolledIdentity) error {
	if identities == nil {
		identities = []EnrolledIdentity{}
	}
	return r.save(ctx, KeyIdentities, identities)
}

// LoadAttendance reads the attendance records, most recent first.
func (r *Repository) LoadAttendance(ctx context.Context) ([]AttendanceRecord, error) {
	var records []AttendanceRecord
	if _, err := r.load(ctx, KeyAttendance, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveAttendance replaces the stored attendance collection.
func (r *Repository) SaveAttendance(ctx context.Context, records []AttendanceRecord) error {
	if records == nil {
		records = []AttendanceRecord{}
	}
	return r.save(ctx, KeyAttendance, records)
}

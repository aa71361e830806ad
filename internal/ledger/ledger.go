// Package ledger records attendance sightings, at most one per identity per
// local calendar day.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/metrics"
)

var (
	// ErrNoRecords is returned when exporting an empty ledger.
	ErrNoRecords = errors.New("no attendance records to export")
	// ErrRecordNotFound is returned when deleting an unknown record.
	ErrRecordNotFound = errors.New("attendance record not found")
)

// Outcome is the ledger's decision for one sighting.
type Outcome string

// Outcome values.
const (
	OutcomeRecorded       Outcome = "recorded"
	OutcomeDuplicateToday Outcome = "duplicate_today"
	OutcomeSuppressed     Outcome = "suppressed"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"No", "Name", "Date", "Time", "Status"}

// Options configures a Ledger. Zero values fall back to the defaults.
type Options struct {
	Throttle   time.Duration
	Location   *time.Location
	DateLayout string
	TimeLayout string
	Metrics    *metrics.Metrics
}

// Ledger holds the attendance records, most recent first.
type Ledger struct {
	store    database.AttendanceStore
	throttle *Throttle
	loc      *time.Location
	dateFmt  string
	timeFmt  string
	metrics  *metrics.Metrics

	mu      sync.Mutex
	records []database.AttendanceRecord
}

// New creates an empty ledger backed by store.
func New(store database.AttendanceStore, opts Options) *Ledger {
	if opts.Throttle == 0 {
		opts.Throttle = constants.NotificationThrottle
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DateLayout == "" {
		opts.DateLayout = constants.DefaultCSVDateLayout
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = constants.DefaultCSVTimeLayout
	}
	return &Ledger{
		store:    store,
		throttle: NewThrottle(opts.Throttle),
		loc:      opts.Location,
		dateFmt:  opts.DateLayout,
		timeFmt:  opts.TimeLayout,
		metrics:  opts.Metrics,
	}
}

// Load replaces the in-memory records with the persisted collection.
func (l *Ledger) Load(ctx context.Context) error {
	records, err := l.store.LoadAttendance(ctx)
	if err != nil {
		return fmt.Errorf("loading attendance: %w", err)
	}
	l.mu.Lock()
	l.records = records
	l.mu.Unlock()
	slog.Info("attendance loaded", "records", len(records))
	return nil
}

// sameDay reports whether a and b fall on the same calendar day in loc.
func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// RecordSighting applies a recognized sighting. A throttled sighting changes
// nothing. Otherwise the throttle is refreshed and, unless the identity was
// already recorded on now's local day, a Present record is prepended and the
// collection persisted. A persistence failure keeps the in-memory record and
// is returned alongside OutcomeRecorded.
func (l *Ledger) RecordSighting(ctx context.Context, identityID, name string, now time.Time) (Outcome, *database.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.throttle.Allow(identityID, now) {
		return OutcomeSuppressed, nil, nil
	}

	for i := range l.records {
		if l.records[i].IdentityID == identityID && sameDay(l.records[i].Timestamp, now, l.loc) {
			return OutcomeDuplicateToday, nil, nil
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return OutcomeSuppressed, nil, fmt.Errorf("generating record id: %w", err)
	}
	rec := database.AttendanceRecord{
		ID:         id.String(),
		IdentityID: identityID,
		Name:       name,
		Timestamp:  now,
		Status:     database.StatusPresent,
	}
	l.records = append([]database.AttendanceRecord{rec}, l.records...)
	slog.Info("attendance recorded", "identity", identityID, "name", name)

	return OutcomeRecorded, &rec, l.persist(ctx)
}

// persist writes the full collection. Callers hold l.mu.
func (l *Ledger) persist(ctx context.Context) error {
	if err := l.store.SaveAttendance(ctx, l.records); err != nil {
		l.metrics.IncrementPersistFailure(database.KeyAttendance)
		slog.Error("failed to persist attendance", "error", err)
		return fmt.Errorf("saving attendance: %w", err)
	}
	return nil
}

// Records returns a copy of all records, most recent first.
func (l *Ledger) Records() []database.AttendanceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]database.AttendanceRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Counts returns the number of records on now's local day and in total.
func (l *Ledger) Counts(now time.Time) (today, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if sameDay(l.records[i].Timestamp, now, l.loc) {
			today++
		}
	}
	return today, len(l.records)
}

// ClearDay removes every record on day's local calendar day and returns how
// many were removed. The throttle is left alone.
func (l *Ledger) ClearDay(ctx context.Context, day time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0:0]
	for _, r := range l.records {
		if !sameDay(r.Timestamp, day, l.loc) {
			kept = append(kept, r)
		}
	}
	removed := len(l.records) - len(kept)
	l.records = kept
	return removed, l.persist(ctx)
}

// ClearAll removes every record. The throttle keeps its history.
func (l *Ledger) ClearAll(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := len(l.records)
	l.records = nil
	return removed, l.persist(ctx)
}

// DeleteRecord removes a single record by id.
func (l *Ledger) DeleteRecord(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.records {
		if l.records[i].ID == id {
			l.records = append(l.records[:i:i], l.records[i+1:]...)
			return l.persist(ctx)
		}
	}
	return ErrRecordNotFound
}

// ExportCSV writes all records in their current order.
func (l *Ledger) ExportCSV(w io.Writer) error {
	records := l.Records()
	if len(records) == 0 {
		return ErrNoRecords
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i, r := range records {
		ts := r.Timestamp.In(l.loc)
		row := []string{
			strconv.Itoa(i + 1),
			r.Name,
			ts.Format(l.dateFmt),
			ts.Format(l.timeFmt),
			string(r.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// ExportFileName names an export made at now, dated in UTC.
func ExportFileName(now time.Time) string {
	return "attendance_" + now.UTC().Format("2006-01-02") + ".csv"
}

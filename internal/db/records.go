package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"hearsay/internal/models"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("record not found")

const recordColumns = `id, input_url, fingerprint, metadata, audio_url, transcription, summary, title, dispatch_attempts, created_at, updated_at`

// RecordStore reads and writes the records table.
type RecordStore struct {
	db *sqlx.DB
}

func NewRecordStore(db *sqlx.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) GetRecordByID(ctx context.Context, id int64) (*models.Record, error) {
	record := &models.Record{}
	err := s.db.GetContext(ctx, record, "SELECT "+recordColumns+" FROM records WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}
	return record, nil
}

// FindDuplicate returns the record whose input URL or fingerprint matches,
// or nil if there is none.
func (s *RecordStore) FindDuplicate(ctx context.Context, inputURL, fingerprint string) (*models.Record, error) {
	record := &models.Record{}
	err := s.db.GetContext(ctx, record,
		"SELECT "+recordColumns+" FROM records WHERE input_url = $1 OR fingerprint = $2 ORDER BY id LIMIT 1",
		inputURL, fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up duplicates: %w", err)
	}
	return record, nil
}

// InsertIfAbsent creates a NOT_STARTED record unless one with the same input
// URL or fingerprint already exists. created is false when a concurrent
// submission won the insert; id is then the existing record's.
func (s *RecordStore) InsertIfAbsent(ctx context.Context, rec models.NewRecord) (id int64, created bool, err error) {
	query := `
		INSERT INTO records (input_url, fingerprint, metadata, transcription, dispatch_attempts)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT DO NOTHING
		RETURNING id
	`
	err = s.db.GetContext(ctx, &id, query, rec.InputURL, rec.Fingerprint, rec.Metadata, models.NewJob(models.NotStarted{}))
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("Error inserting record for %s: %v", rec.InputURL, err)
		return 0, false, fmt.Errorf("failed to insert record: %w", err)
	}

	existing, err := s.FindDuplicate(ctx, rec.InputURL, rec.Fingerprint)
	if err != nil {
		return 0, false, err
	}
	if existing == nil {
		return 0, false, errors.New("insert conflicted but no existing record was found")
	}
	return existing.ID, false, nil
}

// ListStale returns NOT_STARTED records created before cutoff that have been
// dispatched fewer than maxAttempts times.
func (s *RecordStore) ListStale(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]models.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM records
		WHERE transcription->>'status' = 'NOT_STARTED' AND created_at < $1 AND dispatch_attempts < $2
		ORDER BY id
		LIMIT $3
	`
	var records []models.Record
	if err := s.db.SelectContext(ctx, &records, query, cutoff, maxAttempts, limit); err != nil {
		log.Printf("Error listing stale records: %v", err)
		return nil, err
	}
	return records, nil
}

func (s *RecordStore) IncrementDispatchAttempts(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE records SET dispatch_attempts = dispatch_attempts + 1, updated_at = NOW() WHERE id = $1", id)
	return err
}

// ApplyWorkerUpdate writes upd only if the stored job is still in status
// from. It reports false when another writer changed the job first.
func (s *RecordStore) ApplyWorkerUpdate(ctx context.Context, id int64, from models.JobStatus, upd models.WorkerUpdate) (bool, error) {
	query := `
		UPDATE records
		SET transcription = $1,
			audio_url = COALESCE($2, audio_url),
			summary = COALESCE($3, summary),
			title = COALESCE($4, title),
			updated_at = NOW()
		WHERE id = $5 AND transcription->>'status' = $6
	`
	res, err := s.db.ExecContext(ctx, query, upd.Transcription, upd.AudioURL, upd.Summary, upd.Title, id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

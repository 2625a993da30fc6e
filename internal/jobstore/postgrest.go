package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"

	"framegrab/models"
)

// DefaultTable is the Supabase table holding job records.
//
//	create table extraction_jobs (
//	  job_id     text primary key,
//	  status     text not null,
//	  revision   integer not null default 0,
//	  record     jsonb not null,
//	  created_at timestamptz not null default now(),
//	  updated_at timestamptz not null default now()
//	);
//	create index on extraction_jobs (status);
const DefaultTable = "extraction_jobs"

// uniqueViolation is the Postgres error code PostgREST reports for a
// duplicate primary key.
const uniqueViolation = "23505"

// jobRow maps to a row of the job table. status and revision duplicate
// fields of record so they can be filtered on.
type jobRow struct {
	JobID     string          `json:"job_id"`
	Status    string          `json:"status,omitempty"`
	Revision  int             `json:"revision"`
	Record    json.RawMessage `json:"record"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func newJobRow(job models.Job) (jobRow, error) {
	record, err := json.Marshal(job)
	if err != nil {
		return jobRow{}, fmt.Errorf("encode job %s: %w", job.JobID, err)
	}
	row := jobRow{
		JobID:    job.JobID,
		Status:   string(job.Status),
		Revision: job.Revision,
		Record:   record,
	}
	if !job.CreatedAt.IsZero() {
		row.CreatedAt = &job.CreatedAt
	}
	if !job.UpdatedAt.IsZero() {
		row.UpdatedAt = &job.UpdatedAt
	}
	return row, nil
}

// PostgrestStore keeps job records in a Supabase table. It has no queue of
// its own; pair it with a Queue through Sequential.
type PostgrestStore struct {
	client *postgrest.Client
	table  string
}

// NewPostgrestStore uses table, or DefaultTable when empty.
func NewPostgrestStore(client *postgrest.Client, table string) *PostgrestStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgrestStore{client: client, table: table}
}

func (s *PostgrestStore) Get(ctx context.Context, jobID string) (models.Job, error) {
	if err := ctx.Err(); err != nil {
		return models.Job{}, err
	}
	var rows []jobRow
	_, err := s.client.From(s.table).
		Select("job_id,record", "", false).
		Eq("job_id", jobID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return models.Job{}, fmt.Errorf("fetch job %s: %w", jobID, err)
	}
	if len(rows) == 0 {
		return models.Job{}, ErrNotFound
	}
	return decode(jobID, rows[0].Record)
}

func (s *PostgrestStore) Create(ctx context.Context, job models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := newJobRow(job)
	if err != nil {
		return err
	}
	var results []jobRow
	_, err = s.client.From(s.table).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&results)
	if err != nil {
		if strings.Contains(err.Error(), uniqueViolation) {
			return ErrDuplicateJob
		}
		return fmt.Errorf("insert job %s: %w", job.JobID, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no record returned after insert, job_id: %s", job.JobID)
	}
	return nil
}

func (s *PostgrestStore) Put(ctx context.Context, job models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := newJobRow(job)
	if err != nil {
		return err
	}
	_, _, err = s.client.From(s.table).
		Insert(row, true, "job_id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.JobID, err)
	}
	return nil
}

// CompareAndSwap issues a PATCH filtered on status and revision; an empty
// result means another writer got there first.
func (s *PostgrestStore) CompareAndSwap(ctx context.Context, current, next models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := newJobRow(next)
	if err != nil {
		return err
	}
	var results []jobRow
	_, err = s.client.From(s.table).
		Update(row, "representation", "").
		Eq("job_id", current.JobID).
		Eq("status", string(current.Status)).
		Eq("revision", strconv.Itoa(current.Revision)).
		ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("update job %s: %w", current.JobID, err)
	}
	if len(results) > 0 {
		return nil
	}
	if _, err := s.Get(ctx, current.JobID); errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return ErrConflict
}

func (s *PostgrestStore) ListByStatus(ctx context.Context, status models.JobStatus) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []jobRow
	_, err := s.client.From(s.table).
		Select("job_id,record", "", false).
		Eq("status", string(status)).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list %s jobs: %w", status, err)
	}
	out := make([]models.Job, 0, len(rows))
	var corrupt []string
	for _, row := range rows {
		job, err := decode(row.JobID, row.Record)
		if err != nil {
			corrupt = append(corrupt, row.JobID)
			continue
		}
		out = append(out, job)
	}
	if len(corrupt) > 0 {
		return out, &CorruptRecordsError{JobIDs: corrupt}
	}
	return out, nil
}

func (s *PostgrestStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.client.From(s.table).
		Select("job_id", "", false).
		Limit(1, "").
		Execute()
	return err
}

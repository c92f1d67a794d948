package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// RunRepo provides Postgres-backed persistence for run traces. A run is
// created when an execution attempt begins and finalized exactly once.
type RunRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB, tp TimeProvider) *RunRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &RunRepo{DB: db, timeProvider: tp}
}

const runColumns = `
  id,
  job_id,
  user_id,
  order_id,
  steps,
  duration_ms,
  cost,
  success,
  error_message,
  created_at,
  updated_at
`

// Create opens a new run trace for a job attempt with an empty step log.
func (r *RunRepo) Create(ctx context.Context, req *model.CreateRunRequest) (*model.Run, error) {
	if req == nil {
		return nil, errors.New("create run request is required")
	}
	if req.JobID == "" || req.UserID == "" {
		return nil, errors.New("job id and user id are required")
	}

	row := r.DB.QueryRowContext(ctx, `
      INSERT INTO runs(job_id, user_id, steps, duration_ms, cost, success)
      VALUES ($1, $2, '[]'::jsonb, 0, 0, false)
      RETURNING `+runColumns,
		req.JobID, req.UserID,
	)
	run, err := scanRunFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finalize writes the step log, duration, cost, and outcome for a run.
// Calling it again on an already finalized run is rejected so a retried job
// can never overwrite an earlier attempt's trace.
func (r *RunRepo) Finalize(ctx context.Context, req *model.FinalizeRunRequest) error {
	if req == nil {
		return errors.New("finalize run request is required")
	}
	if req.RunID == "" {
		return errors.New("run id is required")
	}

	steps, err := json.Marshal(req.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	if req.Steps == nil {
		steps = []byte(`[]`)
	}

	var errMsg *string
	if req.ErrorMessage != "" {
		errMsg = &req.ErrorMessage
	}

	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
      UPDATE runs
      SET steps = $2,
          duration_ms = $3,
          cost = $4,
          success = $5,
          order_id = COALESCE($6, order_id),
          error_message = $7,
          finalized_at = $8,
          updated_at = $8
      WHERE id = $1 AND finalized_at IS NULL
    `, req.RunID, steps, req.DurationMs, req.Cost, req.Success, req.OrderID, errMsg, now)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("finalize run %s: %w", req.RunID, ErrRunNotFound)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepo) GetByID(ctx context.Context, id string) (*model.Run, error) {
	row := r.DB.QueryRowContext(ctx, `
      SELECT `+runColumns+`
      FROM runs
      WHERE id = $1
    `, id)
	run, err := scanRunFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListByJob returns all runs for a job, newest first. Every claim attempt
// leaves exactly one run behind.
func (r *RunRepo) ListByJob(ctx context.Context, jobID string) ([]*model.Run, error) {
	rows, err := r.DB.QueryContext(ctx, `
      SELECT `+runColumns+`
      FROM runs
      WHERE job_id = $1
      ORDER BY created_at DESC
    `, jobID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var runs []*model.Run
	for rows.Next() {
		run, serr := scanRunFromRow(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan run: %w", serr)
		}
		runs = append(runs, run)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return runs, nil
}

type runRowScanner interface {
	Scan(dest ...any) error
}

func scanRunFromRow(scanner runRowScanner) (*model.Run, error) {
	run := &model.Run{}
	var (
		orderID, errorMessage sql.NullString
		steps                 []byte
	)

	if err := scanner.Scan(
		&run.ID,
		&run.JobID,
		&run.UserID,
		&orderID,
		&steps,
		&run.DurationMs,
		&run.Cost,
		&run.Success,
		&errorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &run.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	run.OrderID = cloneNullableString(orderID)
	run.ErrorMessage = cloneNullableString(errorMessage)
	return run, nil
}

package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data/pgxutil"
	"github.com/draftforge/pipeline-api/internal/domain/model"
)

const (
	defaultRetryDelaySeconds  = 30
	defaultMaxAttempts        = 3
	defaultClaimBatchSize     = 5
	// Advisory lock namespace for requeueExpired so overlapping dispatchers
	// do not race the lease sweep.
	advisoryLockRequeue int64 = 2101
)

func (r *JobRepo) retryDelay() int {
	if r.cfg.RetryDelaySeconds > 0 {
		return r.cfg.RetryDelaySeconds
	}
	return defaultRetryDelaySeconds
}

func (r *JobRepo) maxAttempts() int {
	if r.cfg.DefaultMaxAttempts > 0 {
		return r.cfg.DefaultMaxAttempts
	}
	return defaultMaxAttempts
}

// SQL used by ClaimBatch to atomically claim pending jobs. The claim is a
// single conditional update, so two overlapping dispatchers can never select
// the same job.
const claimBatchSQL = `
  WITH cte AS (
    SELECT id FROM jobs
    WHERE status = 'pending' AND run_at <= $1
    ORDER BY run_at ASC, created_at ASC
    LIMIT $2
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET
    status = 'processing',
    attempts = j.attempts + 1,
    started_at = COALESCE(j.started_at, $3),
    lease_expires_at = $4,
    updated_at = $5
  FROM cte
  WHERE j.id = cte.id
  RETURNING ` + jobColumns

// Create inserts a new pending job and notifies listeners for its type.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = r.maxAttempts()
	}

	runAt := r.timeProvider.Now().UTC()
	if req.RunAt != nil {
		runAt = req.RunAt.UTC()
	}

	var job *model.Job
	txErr := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, `
              INSERT INTO jobs(type, status, payload, user_id, run_at, max_attempts)
              VALUES ($1, 'pending', $2, $3, $4, $5)
              RETURNING `+jobColumns,
				req.Type, payload, req.UserID, runAt, maxAttempts,
			)
			if qerr != nil {
				return fmt.Errorf("insert job: %w", qerr)
			}
			j, cerr := collectJobFromRows(rows)
			rows.Close()
			if cerr != nil {
				return fmt.Errorf("collect job: %w", cerr)
			}

			channel := "job_added_" + string(req.Type)
			if _, nerr := tx.Exec(ctx, `SELECT pg_notify($1::text, $2::text)`, channel, j.ID); nerr != nil {
				return fmt.Errorf("send job notification: %w", nerr)
			}
			job = j
			return nil
		},
	})
	if txErr != nil {
		return nil, txErr
	}
	return job, nil
}

// requeueExpired moves processing jobs with expired leases back to pending
// so a crashed worker cannot strand them. Attempts are not touched; they
// were already counted at claim time.
func (r *JobRepo) requeueExpired(ctx context.Context) (int64, error) {
	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx,
				"SELECT pg_try_advisory_xact_lock($1::bigint)", advisoryLockRequeue,
			).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			now := r.timeProvider.Now().UTC()
			res, err := tx.ExecContext(ctx, `
              UPDATE jobs
              SET status = 'pending', lease_expires_at = NULL
              WHERE status = 'processing'
                AND lease_expires_at IS NOT NULL
                AND lease_expires_at < $1
            `, now)
			if err != nil {
				return fmt.Errorf("requeue expired: %w", err)
			}
			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

// ClaimBatch atomically claims up to MaxJobs eligible pending jobs.
func (r *JobRepo) ClaimBatch(ctx context.Context, params core.ClaimBatchParams) ([]*model.Job, error) {
	maxJobs := params.MaxJobs
	if maxJobs <= 0 {
		maxJobs = defaultClaimBatchSize
	}
	leaseSeconds := params.LeaseSeconds
	if leaseSeconds <= 0 {
		return nil, errors.New("lease seconds must be positive")
	}

	if _, err := r.requeueExpired(ctx); err != nil {
		return nil, fmt.Errorf("requeue expired jobs: %w", err)
	}

	var jobs []*model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			now := r.timeProvider.Now()
			leaseExpiresAt := now.Add(time.Duration(leaseSeconds) * time.Second)

			rows, qerr := tx.Query(ctx, claimBatchSQL,
				now.UTC(), maxJobs, now.UTC(), leaseExpiresAt.UTC(), now.UTC())
			if qerr != nil {
				return fmt.Errorf("claim jobs: %w", qerr)
			}
			defer rows.Close()

			for rows.Next() {
				j, serr := scanJobFromRow(rows)
				if serr != nil {
					return fmt.Errorf("scan claimed job: %w", serr)
				}
				jobs = append(jobs, j)
			}
			return rows.Err()
		},
	})
	if err != nil {
		return nil, err
	}

	// UPDATE ... RETURNING does not preserve the CTE order.
	sort.Slice(jobs, func(i, k int) bool {
		if jobs[i].RunAt.Equal(jobs[k].RunAt) {
			return jobs[i].CreatedAt.Before(jobs[k].CreatedAt)
		}
		return jobs[i].RunAt.Before(jobs[k].RunAt)
	})
	return jobs, nil
}

// ClaimByID claims one specific job for execution regardless of its current
// status. Used by single-job dispatch; a completed job claimed again gets a
// fresh attempt and a fresh run.
func (r *JobRepo) ClaimByID(ctx context.Context, id string, leaseSeconds int) (*model.Job, error) {
	if leaseSeconds <= 0 {
		return nil, errors.New("lease seconds must be positive")
	}

	now := r.timeProvider.Now()
	leaseExpiresAt := now.Add(time.Duration(leaseSeconds) * time.Second)

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
          UPDATE jobs
          SET status = 'processing',
              attempts = attempts + 1,
              started_at = COALESCE(started_at, $2),
              completed_at = NULL,
              error_message = NULL,
              lease_expires_at = $3,
              updated_at = $4
          WHERE id = $1
          RETURNING `+jobColumns,
			id, now.UTC(), leaseExpiresAt.UTC(), now.UTC(),
		)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		j, cerr := collectJobFromRows(rows)
		if cerr != nil {
			return cerr
		}
		job = j
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claim job %s: %w", id, err)
	}
	return job, nil
}

// Complete marks a processing job as completed.
func (r *JobRepo) Complete(ctx context.Context, id string) (bool, error) {
	now := r.timeProvider.Now().UTC()

	res, err := r.DB.ExecContext(ctx, `
      UPDATE jobs
      SET status = 'completed',
          completed_at = $2,
          updated_at = $2,
          lease_expires_at = NULL,
          error_message = NULL
      WHERE id = $1 AND status = 'processing'
    `, id, now)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete rows affected: %w", err)
	}
	return ra > 0, nil
}

// Fail records the error message on a processing job. The job requeues with
// a retry delay until attempts reach max_attempts, then fails terminally.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.timeProvider.Now()
	retryAt := now.Add(time.Duration(r.retryDelay()) * time.Second)

	query := `
      UPDATE jobs
      SET
        error_message = $2,
        status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
        completed_at = CASE WHEN attempts >= max_attempts THEN $3::timestamptz ELSE NULL END,
        run_at = CASE WHEN attempts >= max_attempts THEN run_at ELSE $4::timestamptz END,
        lease_expires_at = NULL,
        updated_at = $5
      WHERE id = $1 AND status = 'processing'
      RETURNING status
    `

	var status string
	if err := r.DB.QueryRowContext(ctx, query,
		id, errMsg, now.UTC(), retryAt.UTC(), now.UTC(),
	).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("fail job: %w", err)
	}

	if r.logger != nil && status == string(model.JobStatusPending) {
		r.logger.InfoContext(ctx, "job requeued for retry", "job_id", id, "run_at", retryAt.UTC())
	}
	return true, nil
}

// Stats returns counts of jobs of the given type in each state.
func (r *JobRepo) Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')    AS pending,
    count(*) FILTER (WHERE status = 'processing') AS processing,
    count(*) FILTER (WHERE status = 'completed')  AS completed,
    count(*) FILTER (WHERE status = 'failed')     AS failed
  FROM jobs
  WHERE type = $1
  `, jobType).Scan(&s.Pending, &s.Processing, &s.Completed, &s.Failed)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return &s, nil
}

// WaitForNotification blocks until Postgres signals a new job of the given type.
func (r *JobRepo) WaitForNotification(ctx context.Context, jobType model.JobType) error {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	channel := "job_added_" + string(jobType)
	quoted := pgx.Identifier{channel}.Sanitize()

	if _, execErr := conn.ExecContext(ctx, "LISTEN "+quoted); execErr != nil {
		return fmt.Errorf("listen %s: %w", channel, execErr)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "UNLISTEN "+quoted)
	}()

	return conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, notifyErr := sc.Conn().WaitForNotification(ctx)
		return notifyErr
	})
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
          SELECT `+jobColumns+`
          FROM jobs
          WHERE id = $1
        `, id)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		j, cerr := collectJobFromRows(rows)
		if cerr != nil {
			return cerr
		}
		job = j
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return job, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var (
		payload                                []byte
		errorMessage                           sql.NullString
		startedAt, completedAt, leaseExpiresAt sql.NullTime
	)

	if err := scanner.Scan(
		&job.ID,
		&job.Type,
		&job.Status,
		&payload,
		&job.UserID,
		&job.RunAt,
		&job.Attempts,
		&job.MaxAttempts,
		&startedAt,
		&completedAt,
		&errorMessage,
		&leaseExpiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	job.Payload = cloneJSON(payload)
	job.ErrorMessage = cloneNullableString(errorMessage)
	job.StartedAt = cloneNullableTime(startedAt)
	job.CompletedAt = cloneNullableTime(completedAt)
	job.LeaseExpiresAt = cloneNullableTime(leaseExpiresAt)
	return job, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/domain/model"
)

const scheduleColumns = `id, user_id, frequency, selected_days, preferred_time,
	enabled, next_fire_at, active_fire_key, last_fired_at, created_at, updated_at`

// ScheduleRepo provides pacing schedule access backed by PostgreSQL.
type ScheduleRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewScheduleRepo creates a new ScheduleRepo.
func NewScheduleRepo(db *sql.DB, logger *slog.Logger) *ScheduleRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleRepo{DB: db, logger: logger}
}

// FindDue returns enabled schedules whose next_fire_at has passed and which
// have no active fire key, oldest first.
func (r *ScheduleRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.PacingSchedule, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
      SELECT %s
      FROM pacing_schedules
      WHERE enabled = TRUE
        AND next_fire_at <= $1
        AND active_fire_key IS NULL
      ORDER BY next_fire_at ASC
      LIMIT $2
    `, scheduleColumns), now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*model.PacingSchedule
	for rows.Next() {
		schedule, serr := scanScheduleFromRows(rows)
		if serr != nil {
			return nil, serr
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due schedules: %w", err)
	}
	return schedules, nil
}

// MarkFired claims a due schedule for a single fire by setting its active
// fire key. The WHERE clause re-checks the due conditions so a concurrent
// scheduler tick that already claimed the row makes this a no-op, reported
// via the false return.
func (r *ScheduleRepo) MarkFired(ctx context.Context, params core.MarkScheduleFiredParams) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `
      UPDATE pacing_schedules
      SET active_fire_key = $2,
          next_fire_at = $3,
          last_fired_at = $4,
          updated_at = $4
      WHERE id = $1
        AND enabled = TRUE
        AND active_fire_key IS NULL
        AND next_fire_at <= $4
    `, params.ScheduleID, params.FireKey, params.NextFireAt, params.Now)
	if err != nil {
		return false, fmt.Errorf("mark schedule fired: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark schedule fired rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFireKey releases a schedule's active fire key once the enqueued job
// has finished. Only the matching key clears, so a stale executor cannot
// release a newer fire.
func (r *ScheduleRepo) ClearFireKey(ctx context.Context, scheduleID, fireKey string) error {
	result, err := r.DB.ExecContext(ctx, `
      UPDATE pacing_schedules
      SET active_fire_key = NULL,
          updated_at = NOW()
      WHERE id = $1 AND active_fire_key = $2
    `, scheduleID, fireKey)
	if err != nil {
		return fmt.Errorf("clear schedule fire key: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear schedule fire key rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.WarnContext(ctx, "schedule fire key already cleared or replaced",
			"schedule_id", scheduleID, "fire_key", fireKey)
	}
	return nil
}

func scanScheduleFromRows(rows *sql.Rows) (*model.PacingSchedule, error) {
	var (
		schedule     model.PacingSchedule
		selectedDays []byte
		fireKey      sql.NullString
		lastFiredAt  sql.NullTime
	)

	err := rows.Scan(
		&schedule.ID,
		&schedule.UserID,
		&schedule.Frequency,
		&selectedDays,
		&schedule.PreferredTime,
		&schedule.Enabled,
		&schedule.NextFireAt,
		&fireKey,
		&lastFiredAt,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	if len(selectedDays) > 0 {
		if uerr := json.Unmarshal(selectedDays, &schedule.SelectedDays); uerr != nil {
			return nil, fmt.Errorf("unmarshal selected days: %w", uerr)
		}
	}
	schedule.ActiveFireKey = cloneNullableString(fireKey)
	schedule.LastFiredAt = cloneNullableTime(lastFiredAt)
	return &schedule, nil
}

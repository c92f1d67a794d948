package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// OrderRepo provides Postgres-backed access to content orders. The executor
// reads orders for process_order jobs and creates them for pacing jobs.
type OrderRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *sql.DB, tp TimeProvider) *OrderRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &OrderRepo{DB: db, timeProvider: tp}
}

const orderColumns = `
  id,
  user_id,
  status,
  topic,
  platform,
  angle,
  tone,
  length,
  enrichment,
  schedule_id,
  created_at,
  updated_at
`

// GetByID retrieves a content order by its ID.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.ContentOrder, error) {
	row := r.DB.QueryRowContext(ctx, `
      SELECT `+orderColumns+`
      FROM content_orders
      WHERE id = $1
    `, id)
	order, err := scanOrderFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content order: %w", err)
	}
	return order, nil
}

// Create persists a new content order.
func (r *OrderRepo) Create(ctx context.Context, req *model.CreateOrderRequest) (*model.ContentOrder, error) {
	if req == nil {
		return nil, errors.New("create order request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	enrichment := req.Enrichment
	if len(enrichment) == 0 {
		enrichment = []byte(`{}`)
	}

	row := r.DB.QueryRowContext(ctx, `
      INSERT INTO content_orders(user_id, status, topic, platform, angle, tone, length, enrichment, schedule_id)
      VALUES ($1, 'open', $2, $3, $4, $5, $6, $7, $8)
      RETURNING `+orderColumns,
		req.UserID, req.Topic, req.Platform, req.Angle, req.Tone, req.Length, enrichment, req.ScheduleID,
	)
	order, err := scanOrderFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("insert content order: %w", err)
	}
	return order, nil
}

// MarkDrafted flips an order to drafted once a draft has been persisted.
func (r *OrderRepo) MarkDrafted(ctx context.Context, id string) error {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
      UPDATE content_orders
      SET status = 'drafted', updated_at = $2
      WHERE id = $1
    `, id, now)
	if err != nil {
		return fmt.Errorf("mark order drafted: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark drafted rows affected: %w", err)
	}
	if ra == 0 {
		return ErrOrderNotFound
	}
	return nil
}

type orderRowScanner interface {
	Scan(dest ...any) error
}

func scanOrderFromRow(scanner orderRowScanner) (*model.ContentOrder, error) {
	order := &model.ContentOrder{}
	var (
		enrichment []byte
		scheduleID sql.NullString
	)

	if err := scanner.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Topic,
		&order.Platform,
		&order.Angle,
		&order.Tone,
		&order.Length,
		&enrichment,
		&scheduleID,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}

	order.Enrichment = cloneJSON(enrichment)
	order.ScheduleID = cloneNullableString(scheduleID)
	return order, nil
}

package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// DraftRepo provides Postgres-backed persistence for generated drafts.
type DraftRepo struct {
	DB *sql.DB
}

// NewDraftRepo creates a new DraftRepo.
func NewDraftRepo(db *sql.DB) *DraftRepo {
	return &DraftRepo{DB: db}
}

const draftColumns = `
  id,
  order_id,
  user_id,
  title,
  content,
  quality_score,
  citations,
  created_at
`

// Create persists an edited draft with its citations.
func (r *DraftRepo) Create(ctx context.Context, req *model.CreateDraftRequest) (*model.Draft, error) {
	if req == nil {
		return nil, errors.New("create draft request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	citations := req.Citations
	if citations == nil {
		citations = []model.Citation{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return nil, fmt.Errorf("marshal citations: %w", err)
	}

	row := r.DB.QueryRowContext(ctx, `
      INSERT INTO drafts(order_id, user_id, title, content, quality_score, citations)
      VALUES ($1, $2, $3, $4, $5, $6)
      RETURNING `+draftColumns,
		req.OrderID, req.UserID, req.Title, req.Content, req.QualityScore, citationsJSON,
	)
	draft, err := scanDraftFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("insert draft: %w", err)
	}
	return draft, nil
}

// GetByID retrieves a draft by its ID.
func (r *DraftRepo) GetByID(ctx context.Context, id string) (*model.Draft, error) {
	row := r.DB.QueryRowContext(ctx, `
      SELECT `+draftColumns+`
      FROM drafts
      WHERE id = $1
    `, id)
	draft, err := scanDraftFromRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return draft, nil
}

type draftRowScanner interface {
	Scan(dest ...any) error
}

func scanDraftFromRow(scanner draftRowScanner) (*model.Draft, error) {
	draft := &model.Draft{}
	var (
		qualityScore sql.NullFloat64
		citations    []byte
	)

	if err := scanner.Scan(
		&draft.ID,
		&draft.OrderID,
		&draft.UserID,
		&draft.Title,
		&draft.Content,
		&qualityScore,
		&citations,
		&draft.CreatedAt,
	); err != nil {
		return nil, err
	}

	if qualityScore.Valid {
		qs := qualityScore.Float64
		draft.QualityScore = &qs
	}
	if len(citations) > 0 {
		if err := json.Unmarshal(citations, &draft.Citations); err != nil {
			return nil, fmt.Errorf("unmarshal citations: %w", err)
		}
	}
	return draft, nil
}

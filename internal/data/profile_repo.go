package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// ProfileRepo reads creator profiles for personalization. This subsystem
// never writes profiles; they are owned by the account service.
type ProfileRepo struct {
	DB *sql.DB
}

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db}
}

// GetByUserID retrieves the creator profile for a user.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.CreatorProfile, error) {
	var (
		profile model.CreatorProfile
		skills  []byte
		pillars []byte
	)

	err := r.DB.QueryRowContext(ctx, `
      SELECT user_id, role, primary_goal, skills, pillars, updated_at
      FROM creator_profiles
      WHERE user_id = $1
    `, userID).Scan(
		&profile.UserID,
		&profile.Role,
		&profile.PrimaryGoal,
		&skills,
		&pillars,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get creator profile: %w", err)
	}

	if len(skills) > 0 {
		if uerr := json.Unmarshal(skills, &profile.Skills); uerr != nil {
			return nil, fmt.Errorf("unmarshal skills: %w", uerr)
		}
	}
	if len(pillars) > 0 {
		if uerr := json.Unmarshal(pillars, &profile.Pillars); uerr != nil {
			return nil, fmt.Errorf("unmarshal pillars: %w", uerr)
		}
	}
	return &profile, nil
}

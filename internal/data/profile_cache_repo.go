package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/domain/model"
)

const defaultProfileCacheTTL = 5 * time.Minute

// CachedProfileRepo is a read-through Redis cache in front of a
// ProfileRepository. Cache failures degrade to direct DB reads; a broken
// Redis never blocks personalization.
type CachedProfileRepo struct {
	inner  core.ProfileRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProfileRepo wraps inner with a Redis read-through cache.
// A non-positive ttl falls back to defaultProfileCacheTTL.
func NewCachedProfileRepo(
	inner core.ProfileRepository,
	client redis.UniversalClient,
	ttl time.Duration,
	logger *slog.Logger,
) *CachedProfileRepo {
	if ttl <= 0 {
		ttl = defaultProfileCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProfileRepo{inner: inner, client: client, ttl: ttl, logger: logger}
}

func profileCacheKey(userID string) string {
	return fmt.Sprintf("creator_profile:%s", userID)
}

// GetByUserID returns the cached profile when present, otherwise reads from
// the inner repository and populates the cache.
func (r *CachedProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.CreatorProfile, error) {
	key := profileCacheKey(userID)

	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var profile model.CreatorProfile
		if uerr := json.Unmarshal(cached, &profile); uerr == nil {
			return &profile, nil
		}
		// Corrupt entry: drop it and fall through to the DB.
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		r.logger.WarnContext(ctx, "profile cache read failed, falling back to database",
			"user_id", userID, "error", err)
	}

	profile, err := r.inner.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if encoded, merr := json.Marshal(profile); merr == nil {
		if serr := r.client.Set(ctx, key, encoded, r.ttl).Err(); serr != nil {
			r.logger.WarnContext(ctx, "profile cache write failed",
				"user_id", userID, "error", serr)
		}
	}
	return profile, nil
}

// Invalidate removes a user's cached profile. Callers use it after profile
// updates land elsewhere.
func (r *CachedProfileRepo) Invalidate(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, profileCacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("profile cache invalidate: %w", err)
	}
	return nil
}

package model

import "time"

// ContentPillar is one configured content theme on a creator profile.
type ContentPillar struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreatorProfile is the read-only slice of a user profile the personalizer
// consumes. It is never mutated by this subsystem.
type CreatorProfile struct {
	UserID      string          `json:"user_id"      db:"user_id"`
	Role        string          `json:"role"         db:"role"`
	PrimaryGoal string          `json:"primary_goal" db:"primary_goal"`
	Skills      []string        `json:"skills"       db:"skills"`
	Pillars     []ContentPillar `json:"pillars"      db:"pillars"`
	UpdatedAt   time.Time       `json:"updated_at"   db:"updated_at"`
}

// TopSkills returns up to n leading skills.
func (p *CreatorProfile) TopSkills(n int) []string {
	if p == nil || n <= 0 || len(p.Skills) == 0 {
		return nil
	}
	if len(p.Skills) < n {
		n = len(p.Skills)
	}
	return p.Skills[:n]
}

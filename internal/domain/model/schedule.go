package model

import "time"

// PacingSchedule describes a recurring content-generation cadence. The
// scheduler scans due schedules and enqueues pacing_content_generation jobs.
type PacingSchedule struct {
	ID            string     `json:"id"             db:"id"`
	UserID        string     `json:"user_id"        db:"user_id"`
	Frequency     string     `json:"frequency"      db:"frequency"`
	SelectedDays  []string   `json:"selected_days"  db:"selected_days"`
	PreferredTime string     `json:"preferred_time" db:"preferred_time"`
	Enabled       bool       `json:"enabled"        db:"enabled"`
	NextFireAt    time.Time  `json:"next_fire_at"   db:"next_fire_at"`
	ActiveFireKey *string    `json:"active_fire_key,omitempty" db:"active_fire_key"`
	LastFiredAt   *time.Time `json:"last_fired_at,omitempty"   db:"last_fired_at"`
	CreatedAt     time.Time  `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"     db:"updated_at"`
}

// Due reports whether the schedule should fire at the given instant.
func (s *PacingSchedule) Due(now time.Time) bool {
	return s != nil && s.Enabled && !s.NextFireAt.After(now)
}

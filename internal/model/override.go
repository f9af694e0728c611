package model

import "time"

// SchedulerOverride forces a state for a site over [StartTime, EndTime).
// Overrides are the highest-priority resolution source.
type SchedulerOverride struct {
	ID        int       `db:"id" json:"id"`
	SiteID    int       `db:"site_id" json:"site_id"`
	State     SiteState `db:"state" json:"state"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the override window contains at. The window is
// half-open, so an override ending at 10:00 no longer covers 10:00.
func (o SchedulerOverride) Covers(at time.Time) bool {
	return o.IsActive && !o.StartTime.After(at) && o.EndTime.After(at)
}

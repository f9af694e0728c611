package model

import "time"

// SchedulerExecution is one append-only audit row per resolution. At most
// one of ScriptID/OverrideID is set; both nil means the default path.
// Rows are never updated, only pruned by age.
type SchedulerExecution struct {
	ID                  int       `db:"id" json:"id"`
	SiteID              int       `db:"site_id" json:"site_id"`
	ScriptID            *int      `db:"script_id" json:"script_id,omitempty"`
	OverrideID          *int      `db:"override_id" json:"override_id,omitempty"`
	ExecutionTime       time.Time `db:"execution_time" json:"execution_time"`
	StateResult         SiteState `db:"state_result" json:"state_result"`
	ExecutionDurationMS *int      `db:"execution_duration_ms" json:"execution_duration_ms,omitempty"`
	ErrorMessage        *string   `db:"error_message" json:"error_message,omitempty"`
}

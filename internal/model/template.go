package model

import "time"

// ScheduleTemplate is a named, site-scoped schedule ("library item" in the
// UI). Exactly one template per site carries IsDefault, and that one can
// never be deleted.
type ScheduleTemplate struct {
	ID          int       `db:"id" json:"id"`
	SiteID      int       `db:"site_id" json:"site_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsDefault   bool      `db:"is_default" json:"is_default"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleTemplateEntry binds a time-of-day offset to a schedule command.
// Offsets are plain seconds since local midnight, [0, 86400).
type ScheduleTemplateEntry struct {
	ID                     int  `db:"id" json:"id"`
	TemplateID             int  `db:"template_id" json:"template_id"`
	ExecutionOffsetSeconds int  `db:"execution_offset_seconds" json:"execution_offset_seconds"`
	ScheduleCommandID      int  `db:"schedule_command_id" json:"schedule_command_id"`
	IsActive               bool `db:"is_active" json:"is_active"`
}

// ScheduleCommand is the lighter-weight scheduler-scoped action referenced
// by template entries (distinct from the equipment Command catalog).
type ScheduleCommand struct {
	ID         int                 `db:"id" json:"id"`
	SiteID     int                 `db:"site_id" json:"site_id"`
	Type       ScheduleCommandType `db:"type" json:"type"`
	Parameters *string             `db:"parameters" json:"parameters,omitempty"`
	IsActive   bool                `db:"is_active" json:"is_active"`
}

// LibraryCommand is the read model for one entry of a library item: the
// entry's offset joined with its command's type.
type LibraryCommand struct {
	ID                     int                 `json:"id"`
	ExecutionOffsetSeconds int                 `json:"execution_offset_seconds"`
	CommandType            ScheduleCommandType `json:"command_type"`
}

// LibraryItem is a template together with its ordered commands, sorted by
// execution offset.
type LibraryItem struct {
	ID          int              `json:"id"`
	SiteID      int              `json:"site_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	IsDefault   bool             `json:"is_default"`
	Commands    []LibraryCommand `json:"commands"`
	CreatedAt   time.Time        `json:"created_at"`
}

// CommandSpec is the caller-supplied shape of one template entry on
// create/update/clone.
type CommandSpec struct {
	ExecutionOffsetSeconds int                 `json:"execution_offset_seconds"`
	CommandType            ScheduleCommandType `json:"command_type"`
}

package model

import "time"

// Command is an atomic equipment action in the catalog.
type Command struct {
	ID          int       `db:"id" json:"id"`
	SiteID      int       `db:"site_id" json:"site_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Payload     *string   `db:"payload" json:"payload,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CommandSet is an ordered composite of commands dispatched sequentially.
type CommandSet struct {
	ID          int       `db:"id" json:"id"`
	SiteID      int       `db:"site_id" json:"site_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CommandSetCommand is one ordered member of a set. DelayMS is waited
// before dispatching the member; Condition is an opaque predicate string
// evaluated by the external equipment executor.
type CommandSetCommand struct {
	ID             int     `db:"id" json:"id"`
	CommandSetID   int     `db:"command_set_id" json:"command_set_id"`
	CommandID      int     `db:"command_id" json:"command_id"`
	ExecutionOrder int     `db:"execution_order" json:"execution_order"`
	DelayMS        *int    `db:"delay_ms" json:"delay_ms,omitempty"`
	Condition      *string `db:"condition" json:"condition,omitempty"`
}

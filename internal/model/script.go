package model

import "time"

// SchedulerScript is a versioned, site-scoped Lua script. There is no
// stored "current script" pointer: the latest active script for a site is
// the highest version among rows with is_active, computed per read.
type SchedulerScript struct {
	ID            int       `db:"id" json:"id"`
	SiteID        int       `db:"site_id" json:"site_id"`
	Name          string    `db:"name" json:"name"`
	ScriptContent string    `db:"script_content" json:"script_content"`
	Language      string    `db:"language" json:"language"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	Version       int       `db:"version" json:"version"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

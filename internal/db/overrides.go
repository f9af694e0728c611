package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const overrideColumns = `id, site_id, state, start_time, end_time, created_by, reason, is_active, created_at`

// overrideLockClass namespaces the per-site advisory lock taken while
// checking override windows, so it cannot collide with other advisory
// lock users keyed on the same integer.
const overrideLockClass = 7201

// lockSiteOverrides serializes override writers for one site within the
// current transaction. Row locks alone cannot prevent two concurrent
// inserts into an empty window, so every write path that checks for
// overlaps takes this lock first. Released automatically at commit or
// rollback.
func lockSiteOverrides(tx *sqlx.Tx, siteID int) error {
	_, err := tx.Exec(`SELECT pg_advisory_xact_lock($1, $2);`, overrideLockClass, siteID)
	return err
}

// countOverlappingOverrides counts active overrides for the site whose
// half-open window intersects [start, end): new.start < existing.end AND
// new.end > existing.start. excludeID skips the row being updated; pass
// 0 when creating.
func countOverlappingOverrides(tx *sqlx.Tx, siteID int, start, end time.Time, excludeID int) (int, error) {
	var conflicts int
	const q = `
	SELECT count(*)
	  FROM scheduler_overrides
	 WHERE site_id = $1
	   AND id <> $4
	   AND is_active = true
	   AND start_time < $3
	   AND end_time > $2;`
	err := tx.Get(&conflicts, q, siteID, start, end, excludeID)
	return conflicts, err
}

// CreateOverride validates the window and inserts the row. The overlap
// check and the insert run in one transaction under the site's advisory
// lock so two concurrent creators cannot both pass validation.
func (s *pgStore) CreateOverride(siteID int, state model.SiteState, start, end time.Time, createdBy int, reason *string) (*model.SchedulerOverride, error) {
	if !start.Before(end) {
		return nil, ErrInvalidRange
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := lockSiteOverrides(tx, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("override site lock failed")
		return nil, err
	}
	conflicts, err := countOverlappingOverrides(tx, siteID, start, end, 0)
	if err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("override overlap check failed")
		return nil, err
	}
	if conflicts > 0 {
		return nil, ErrOverrideOverlap
	}

	var o model.SchedulerOverride
	const insertQ = `
	INSERT INTO scheduler_overrides (site_id, state, start_time, end_time, created_by, reason, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, true, now())
	RETURNING ` + overrideColumns + `;`
	if err := tx.Get(&o, insertQ, siteID, state, start, end, createdBy, reason); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("CreateOverride failed")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) GetOverrideByID(id int) (*model.SchedulerOverride, error) {
	var o model.SchedulerOverride
	err := s.db.Get(&o, `SELECT `+overrideColumns+` FROM scheduler_overrides WHERE id = $1;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("override_id", id).Msg("GetOverrideByID failed")
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) ListOverridesForSite(siteID int) ([]model.SchedulerOverride, error) {
	out := []model.SchedulerOverride{}
	const q = `SELECT ` + overrideColumns + ` FROM scheduler_overrides WHERE site_id = $1 ORDER BY id;`
	if err := s.db.Select(&out, q, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListOverridesForSite failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListActiveOverridesForSite(siteID int) ([]model.SchedulerOverride, error) {
	out := []model.SchedulerOverride{}
	const q = `
	SELECT ` + overrideColumns + `
	  FROM scheduler_overrides
	 WHERE site_id = $1 AND is_active = true
	 ORDER BY start_time;`
	if err := s.db.Select(&out, q, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListActiveOverridesForSite failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListUpcomingOverridesForSite(siteID int, from time.Time, limit int) ([]model.SchedulerOverride, error) {
	out := []model.SchedulerOverride{}
	const q = `
	SELECT ` + overrideColumns + `
	  FROM scheduler_overrides
	 WHERE site_id = $1 AND is_active = true AND start_time > $2
	 ORDER BY start_time
	 LIMIT $3;`
	if err := s.db.Select(&out, q, siteID, from, limit); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListUpcomingOverridesForSite failed")
		return nil, err
	}
	return out, nil
}

// CurrentOverrideForSite returns the override covering at, if any. When
// pre-enforcement data contains overlapping windows the most recently
// started one wins.
func (s *pgStore) CurrentOverrideForSite(siteID int, at time.Time) (*model.SchedulerOverride, error) {
	var o model.SchedulerOverride
	const q = `
	SELECT ` + overrideColumns + `
	  FROM scheduler_overrides
	 WHERE site_id = $1
	   AND is_active = true
	   AND start_time <= $2
	   AND end_time > $2
	 ORDER BY start_time DESC
	 LIMIT 1;`
	err := s.db.Get(&o, q, siteID, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("CurrentOverrideForSite failed")
		return nil, err
	}
	return &o, nil
}

// UpdateOverride applies partial changes. Shifting the window or
// re-activating a deactivated override re-runs the overlap check against
// the site's other active overrides, under the same per-site lock the
// create path takes.
func (s *pgStore) UpdateOverride(id int, state *model.SiteState, start, end *time.Time, reason *string, isActive *bool) (*model.SchedulerOverride, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current model.SchedulerOverride
	err = tx.Get(&current, `SELECT `+overrideColumns+` FROM scheduler_overrides WHERE id = $1 FOR UPDATE;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("override_id", id).Msg("UpdateOverride lookup failed")
		return nil, err
	}

	newStart, newEnd := current.StartTime, current.EndTime
	if start != nil {
		newStart = *start
	}
	if end != nil {
		newEnd = *end
	}
	if !newStart.Before(newEnd) {
		return nil, ErrInvalidRange
	}
	newActive := current.IsActive
	if isActive != nil {
		newActive = *isActive
	}

	windowChanged := !newStart.Equal(current.StartTime) || !newEnd.Equal(current.EndTime)
	if newActive && (windowChanged || !current.IsActive) {
		if err := lockSiteOverrides(tx, current.SiteID); err != nil {
			log.Error().Err(err).Int("site_id", current.SiteID).Msg("override site lock failed")
			return nil, err
		}
		conflicts, err := countOverlappingOverrides(tx, current.SiteID, newStart, newEnd, id)
		if err != nil {
			log.Error().Err(err).Int("site_id", current.SiteID).Msg("override overlap check failed")
			return nil, err
		}
		if conflicts > 0 {
			return nil, ErrOverrideOverlap
		}
	}

	var o model.SchedulerOverride
	const q = `
	UPDATE scheduler_overrides
	   SET state      = COALESCE($2, state),
	       start_time = $3,
	       end_time   = $4,
	       reason     = COALESCE($5, reason),
	       is_active  = $6
	 WHERE id = $1
	 RETURNING ` + overrideColumns + `;`
	if err := tx.Get(&o, q, id, state, newStart, newEnd, reason, newActive); err != nil {
		log.Error().Err(err).Int("override_id", id).Msg("UpdateOverride failed")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *pgStore) DeleteOverride(id int) error {
	res, err := s.db.Exec(`DELETE FROM scheduler_overrides WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("override_id", id).Msg("DeleteOverride failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireEndedOverrides flips is_active off for every override whose window
// has fully ended. Idempotent. The bulk flip intentionally writes no audit
// rows; only the affected count is logged.
func (s *pgStore) ExpireEndedOverrides(now time.Time) (int, error) {
	res, err := s.db.Exec(`
	UPDATE scheduler_overrides
	   SET is_active = false
	 WHERE is_active = true AND end_time < $1;`, now)
	if err != nil {
		log.Error().Err(err).Msg("ExpireEndedOverrides failed")
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info().Int64("expired", n).Msg("expired ended scheduler overrides")
	}
	return int(n), nil
}

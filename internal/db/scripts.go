package db

import (
	"database/sql"
	"errors"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/rs/zerolog/log"
)

const scriptColumns = `id, site_id, name, script_content, language, is_active, version, created_at, updated_at`

func (s *pgStore) CreateScript(siteID int, name, content, language string, version int, isActive bool) (*model.SchedulerScript, error) {
	var sc model.SchedulerScript
	const q = `
	INSERT INTO scheduler_scripts (site_id, name, script_content, language, is_active, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	RETURNING ` + scriptColumns + `;`
	if err := s.db.Get(&sc, q, siteID, name, content, language, isActive, version); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateScriptName
		}
		log.Error().Err(err).Int("site_id", siteID).Msg("CreateScript failed")
		return nil, err
	}
	return &sc, nil
}

func (s *pgStore) GetScriptByID(id int) (*model.SchedulerScript, error) {
	var sc model.SchedulerScript
	err := s.db.Get(&sc, `SELECT `+scriptColumns+` FROM scheduler_scripts WHERE id = $1;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("script_id", id).Msg("GetScriptByID failed")
		return nil, err
	}
	return &sc, nil
}

func (s *pgStore) ListScriptsForSite(siteID int) ([]model.SchedulerScript, error) {
	out := []model.SchedulerScript{}
	const q = `SELECT ` + scriptColumns + ` FROM scheduler_scripts WHERE site_id = $1 ORDER BY id;`
	if err := s.db.Select(&out, q, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListScriptsForSite failed")
		return nil, err
	}
	return out, nil
}

// LatestActiveScriptForSite is the invariant-bearing read behind script
// resolution: the current script is always the highest version with
// is_active, never a stored pointer that could go stale.
func (s *pgStore) LatestActiveScriptForSite(siteID int) (*model.SchedulerScript, error) {
	var sc model.SchedulerScript
	const q = `
	SELECT ` + scriptColumns + `
	  FROM scheduler_scripts
	 WHERE site_id = $1 AND is_active = true
	 ORDER BY version DESC
	 LIMIT 1;`
	err := s.db.Get(&sc, q, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("LatestActiveScriptForSite failed")
		return nil, err
	}
	return &sc, nil
}

func (s *pgStore) UpdateScript(id int, name, content, language *string, isActive *bool, version *int) (*model.SchedulerScript, error) {
	var sc model.SchedulerScript
	const q = `
	UPDATE scheduler_scripts
	   SET name           = COALESCE($2, name),
	       script_content = COALESCE($3, script_content),
	       language       = COALESCE($4, language),
	       is_active      = COALESCE($5, is_active),
	       version        = COALESCE($6, version),
	       updated_at     = now()
	 WHERE id = $1
	 RETURNING ` + scriptColumns + `;`
	err := s.db.Get(&sc, q, id, name, content, language, isActive, version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateScriptName
		}
		log.Error().Err(err).Int("script_id", id).Msg("UpdateScript failed")
		return nil, err
	}
	return &sc, nil
}

func (s *pgStore) DeleteScript(id int) error {
	res, err := s.db.Exec(`DELETE FROM scheduler_scripts WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("script_id", id).Msg("DeleteScript failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteScript makes the script the sole active one for its site.
// Activation and the deactivation of its siblings commit together, so a
// crash mid-promote never leaves two active scripts behind.
func (s *pgStore) PromoteScript(id int) (*model.SchedulerScript, int, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var sc model.SchedulerScript
	const activateQ = `
	UPDATE scheduler_scripts
	   SET is_active = true, updated_at = now()
	 WHERE id = $1
	 RETURNING ` + scriptColumns + `;`
	if err := tx.Get(&sc, activateQ, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		log.Error().Err(err).Int("script_id", id).Msg("PromoteScript failed")
		return nil, 0, err
	}

	res, err := tx.Exec(`
	UPDATE scheduler_scripts
	   SET is_active = false, updated_at = now()
	 WHERE site_id = $1 AND id <> $2 AND is_active = true;`, sc.SiteID, id)
	if err != nil {
		log.Error().Err(err).Int("site_id", sc.SiteID).Msg("PromoteScript deactivation failed")
		return nil, 0, err
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return &sc, int(n), nil
}

func (s *pgStore) ScriptNameUnique(siteID int, name string, excludeID *int) (bool, error) {
	var count int
	const q = `
	SELECT count(*)
	  FROM scheduler_scripts
	 WHERE site_id = $1
	   AND lower(name) = lower($2)
	   AND ($3::int IS NULL OR id <> $3);`
	if err := s.db.Get(&count, q, siteID, name, excludeID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ScriptNameUnique failed")
		return false, err
	}
	return count == 0, nil
}

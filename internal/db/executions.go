package db

import (
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/rs/zerolog/log"
)

const executionColumns = `id, site_id, script_id, override_id, execution_time, state_result, execution_duration_ms, error_message`

// InsertExecution appends one audit row. The log is append-only: there is
// no update path, only age-based pruning.
func (s *pgStore) InsertExecution(siteID int, scriptID, overrideID *int, at time.Time, state model.SiteState, durationMS *int, errMsg *string) (*model.SchedulerExecution, error) {
	var e model.SchedulerExecution
	const q = `
	INSERT INTO scheduler_executions (site_id, script_id, override_id, execution_time, state_result, execution_duration_ms, error_message)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + executionColumns + `;`
	if err := s.db.Get(&e, q, siteID, scriptID, overrideID, at, state, durationMS, errMsg); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("InsertExecution failed")
		return nil, err
	}
	return &e, nil
}

func (s *pgStore) ListExecutionsForSite(siteID int, limit int) ([]model.SchedulerExecution, error) {
	out := []model.SchedulerExecution{}
	const q = `
	SELECT ` + executionColumns + `
	  FROM scheduler_executions
	 WHERE site_id = $1
	 ORDER BY execution_time DESC
	 LIMIT $2;`
	if err := s.db.Select(&out, q, siteID, limit); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListExecutionsForSite failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListExecutionsInRange(siteID int, from, to time.Time) ([]model.SchedulerExecution, error) {
	out := []model.SchedulerExecution{}
	const q = `
	SELECT ` + executionColumns + `
	  FROM scheduler_executions
	 WHERE site_id = $1 AND execution_time >= $2 AND execution_time <= $3
	 ORDER BY execution_time;`
	if err := s.db.Select(&out, q, siteID, from, to); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListExecutionsInRange failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) ListFailedExecutionsForSite(siteID int, limit int) ([]model.SchedulerExecution, error) {
	out := []model.SchedulerExecution{}
	const q = `
	SELECT ` + executionColumns + `
	  FROM scheduler_executions
	 WHERE site_id = $1 AND error_message IS NOT NULL
	 ORDER BY execution_time DESC
	 LIMIT $2;`
	if err := s.db.Select(&out, q, siteID, limit); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListFailedExecutionsForSite failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) PruneExecutionsBefore(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM scheduler_executions WHERE execution_time < $1;`, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("PruneExecutionsBefore failed")
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info().Int64("pruned", n).Time("cutoff", cutoff).Msg("pruned scheduler executions")
	}
	return int(n), nil
}

package db

import (
	"database/sql"
	"errors"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/rs/zerolog/log"
)

func (s *pgStore) GetSiteByID(id int) (*model.Site, error) {
	var site model.Site
	const q = `SELECT id, name, company_id, latitude, longitude FROM sites WHERE id = $1;`
	if err := s.db.Get(&site, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("site_id", id).Msg("GetSiteByID failed")
		return nil, err
	}
	return &site, nil
}

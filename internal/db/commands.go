package db

import (
	"database/sql"
	"errors"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/rs/zerolog/log"
)

const commandColumns = `id, site_id, name, description, payload, is_active, created_at, updated_at`
const commandSetColumns = `id, site_id, name, description, is_active, created_at, updated_at`

func (s *pgStore) CreateCommand(siteID int, name string, description, payload *string) (*model.Command, error) {
	var c model.Command
	const q = `
	INSERT INTO commands (site_id, name, description, payload, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, true, now(), now())
	RETURNING ` + commandColumns + `;`
	if err := s.db.Get(&c, q, siteID, name, description, payload); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("CreateCommand failed")
		return nil, err
	}
	return &c, nil
}

func (s *pgStore) GetCommandByID(id int) (*model.Command, error) {
	var c model.Command
	err := s.db.Get(&c, `SELECT `+commandColumns+` FROM commands WHERE id = $1;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("command_id", id).Msg("GetCommandByID failed")
		return nil, err
	}
	return &c, nil
}

func (s *pgStore) ListCommandsForSite(siteID int) ([]model.Command, error) {
	out := []model.Command{}
	const q = `SELECT ` + commandColumns + ` FROM commands WHERE site_id = $1 ORDER BY name;`
	if err := s.db.Select(&out, q, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListCommandsForSite failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) DeleteCommand(id int) error {
	res, err := s.db.Exec(`DELETE FROM commands WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("command_id", id).Msg("DeleteCommand failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) CreateCommandSet(siteID int, name string, description *string) (*model.CommandSet, error) {
	var cs model.CommandSet
	const q = `
	INSERT INTO command_sets (site_id, name, description, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, true, now(), now())
	RETURNING ` + commandSetColumns + `;`
	if err := s.db.Get(&cs, q, siteID, name, description); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("CreateCommandSet failed")
		return nil, err
	}
	return &cs, nil
}

func (s *pgStore) GetCommandSetByID(id int) (*model.CommandSet, error) {
	var cs model.CommandSet
	err := s.db.Get(&cs, `SELECT `+commandSetColumns+` FROM command_sets WHERE id = $1;`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("command_set_id", id).Msg("GetCommandSetByID failed")
		return nil, err
	}
	return &cs, nil
}

func (s *pgStore) ListCommandSetsForSite(siteID int) ([]model.CommandSet, error) {
	out := []model.CommandSet{}
	const q = `SELECT ` + commandSetColumns + ` FROM command_sets WHERE site_id = $1 ORDER BY name;`
	if err := s.db.Select(&out, q, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListCommandSetsForSite failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) DeleteCommandSet(id int) error {
	res, err := s.db.Exec(`DELETE FROM command_sets WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("command_set_id", id).Msg("DeleteCommandSet failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) AddCommandToSet(setID, commandID, executionOrder int, delayMS *int, condition *string) (*model.CommandSetCommand, error) {
	var m model.CommandSetCommand
	const q = `
	INSERT INTO command_set_commands (command_set_id, command_id, execution_order, delay_ms, condition)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, command_set_id, command_id, execution_order, delay_ms, condition;`
	if err := s.db.Get(&m, q, setID, commandID, executionOrder, delayMS, condition); err != nil {
		log.Error().Err(err).Int("command_set_id", setID).Int("command_id", commandID).Msg("AddCommandToSet failed")
		return nil, err
	}
	return &m, nil
}

// ListSetCommands returns the set's members in dispatch order.
func (s *pgStore) ListSetCommands(setID int) ([]model.CommandSetCommand, error) {
	out := []model.CommandSetCommand{}
	const q = `
	SELECT id, command_set_id, command_id, execution_order, delay_ms, condition
	  FROM command_set_commands
	 WHERE command_set_id = $1
	 ORDER BY execution_order;`
	if err := s.db.Select(&out, q, setID); err != nil {
		log.Error().Err(err).Int("command_set_id", setID).Msg("ListSetCommands failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) RemoveCommandFromSet(setID, commandID int) error {
	res, err := s.db.Exec(`DELETE FROM command_set_commands WHERE command_set_id = $1 AND command_id = $2;`, setID, commandID)
	if err != nil {
		log.Error().Err(err).Int("command_set_id", setID).Int("command_id", commandID).Msg("RemoveCommandFromSet failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

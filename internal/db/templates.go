package db

import (
	"database/sql"
	"errors"
	"sort"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const templateColumns = `id, site_id, name, description, is_default, is_active, created_at, updated_at`

// validateCommandSpecs checks offsets are within one day and pairwise
// distinct before any row is written.
func validateCommandSpecs(commands []model.CommandSpec) error {
	offsets := make([]int, 0, len(commands))
	for _, c := range commands {
		if c.ExecutionOffsetSeconds < 0 || c.ExecutionOffsetSeconds >= 86400 {
			return ErrInvalidOffset
		}
		offsets = append(offsets, c.ExecutionOffsetSeconds)
	}
	sort.Ints(offsets)
	for i := 1; i < len(offsets); i++ {
		if offsets[i] == offsets[i-1] {
			return ErrDuplicateOffset
		}
	}
	return nil
}

// validateTemplateName enforces case-insensitive name uniqueness per site.
// Runs inside the caller's transaction so concurrent creators serialize.
func validateTemplateName(ext sqlx.Ext, siteID int, name string, excludeID *int) error {
	var count int
	const q = `
	SELECT count(*)
	  FROM schedule_templates
	 WHERE site_id = $1
	   AND lower(name) = lower($2)
	   AND is_active = true
	   AND ($3::int IS NULL OR id <> $3);`
	if err := sqlx.Get(ext, &count, q, siteID, name, excludeID); err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateName
	}
	return nil
}

// insertTemplateCommands creates one ScheduleCommand plus its linking
// entry for each supplied CommandSpec.
func insertTemplateCommands(ext sqlx.Ext, siteID, templateID int, commands []model.CommandSpec) error {
	for _, c := range commands {
		var cmdID int
		const cmdQ = `
		INSERT INTO schedule_commands (site_id, type, parameters, is_active)
		VALUES ($1, $2, NULL, true)
		RETURNING id;`
		if err := sqlx.Get(ext, &cmdID, cmdQ, siteID, c.CommandType); err != nil {
			return err
		}

		const entryQ = `
		INSERT INTO schedule_template_entries (template_id, execution_offset_seconds, schedule_command_id, is_active)
		VALUES ($1, $2, $3, true);`
		if _, err := ext.Exec(entryQ, templateID, c.ExecutionOffsetSeconds, cmdID); err != nil {
			return err
		}
	}
	return nil
}

func getLibraryItem(ext sqlx.Ext, id int) (*model.LibraryItem, error) {
	var t model.ScheduleTemplate
	if err := sqlx.Get(ext, &t, `SELECT `+templateColumns+` FROM schedule_templates WHERE id = $1;`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	commands := []model.LibraryCommand{}
	const q = `
	SELECT e.id, e.execution_offset_seconds, c.type AS command_type
	  FROM schedule_template_entries e
	  JOIN schedule_commands c ON c.id = e.schedule_command_id
	 WHERE e.template_id = $1 AND e.is_active = true
	 ORDER BY e.execution_offset_seconds;`
	if err := sqlx.Select(ext, &commands, q, id); err != nil {
		return nil, err
	}

	return &model.LibraryItem{
		ID:          t.ID,
		SiteID:      t.SiteID,
		Name:        t.Name,
		Description: t.Description,
		IsDefault:   t.IsDefault,
		Commands:    commands,
		CreatedAt:   t.CreatedAt,
	}, nil
}

// CreateLibraryItem creates the template and all its commands in one
// transaction; any failure rolls the whole item back.
func (s *pgStore) CreateLibraryItem(siteID int, name string, description *string, commands []model.CommandSpec, actingUserID *int) (*model.LibraryItem, error) {
	if err := validateCommandSpecs(commands); err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := createLibraryItemTx(tx, siteID, name, description, commands, false)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().Int("site_id", siteID).Int("template_id", item.ID).
		Interface("acting_user", actingUserID).Msg("created library item")
	return item, nil
}

func createLibraryItemTx(tx *sqlx.Tx, siteID int, name string, description *string, commands []model.CommandSpec, isDefault bool) (*model.LibraryItem, error) {
	if err := validateTemplateName(tx, siteID, name, nil); err != nil {
		return nil, err
	}

	var templateID int
	const q = `
	INSERT INTO schedule_templates (site_id, name, description, is_default, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, true, now(), now())
	RETURNING id;`
	if err := tx.Get(&templateID, q, siteID, name, description, isDefault); err != nil {
		return nil, err
	}

	if err := insertTemplateCommands(tx, siteID, templateID, commands); err != nil {
		return nil, err
	}

	return getLibraryItem(tx, templateID)
}

func (s *pgStore) GetLibraryItem(id int) (*model.LibraryItem, error) {
	item, err := getLibraryItem(s.db, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Int("template_id", id).Msg("GetLibraryItem failed")
	}
	return item, err
}

// ListLibraryItemsForSite returns the site's active templates, lazily
// creating the default one so every site always has a schedule to fall
// back on.
func (s *pgStore) ListLibraryItemsForSite(siteID int) ([]model.LibraryItem, error) {
	if _, err := s.EnsureDefaultSchedule(siteID, nil); err != nil {
		return nil, err
	}

	ids := []int{}
	const q = `
	SELECT id FROM schedule_templates
	 WHERE site_id = $1 AND is_active = true
	 ORDER BY name;`
	if err := s.db.Select(&ids, q, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListLibraryItemsForSite failed")
		return nil, err
	}

	items := make([]model.LibraryItem, 0, len(ids))
	for _, id := range ids {
		item, err := getLibraryItem(s.db, id)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// UpdateLibraryItem renames/redescribes the template and, when commands
// are supplied, replaces every entry and its owned command in the same
// transaction (replace-all semantics). The is_default flag is immutable.
func (s *pgStore) UpdateLibraryItem(id int, name, description *string, commands []model.CommandSpec, actingUserID *int) (*model.LibraryItem, error) {
	if commands != nil {
		if err := validateCommandSpecs(commands); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var current model.ScheduleTemplate
	if err := tx.Get(&current, `SELECT `+templateColumns+` FROM schedule_templates WHERE id = $1 FOR UPDATE;`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if name != nil {
		if err := validateTemplateName(tx, current.SiteID, *name, &id); err != nil {
			return nil, err
		}
	}

	const updQ = `
	UPDATE schedule_templates
	   SET name        = COALESCE($2, name),
	       description = COALESCE($3, description),
	       updated_at  = now()
	 WHERE id = $1;`
	if _, err := tx.Exec(updQ, id, name, description); err != nil {
		return nil, err
	}

	if commands != nil {
		// delete the owned commands first, while the entries that point at
		// them still exist; the entries themselves go away via the FK
		// cascade on schedule_command_id
		const delCmdsQ = `
		DELETE FROM schedule_commands
		 WHERE id IN (SELECT schedule_command_id FROM schedule_template_entries WHERE template_id = $1);`
		if _, err := tx.Exec(delCmdsQ, id); err != nil {
			return nil, err
		}
		if err := insertTemplateCommands(tx, current.SiteID, id, commands); err != nil {
			return nil, err
		}
	}

	item, err := getLibraryItem(tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().Int("template_id", id).Interface("acting_user", actingUserID).Msg("updated library item")
	return item, nil
}

// DeleteLibraryItem removes a template and cascades to its entries,
// owned commands and application rules. The default template is
// protected.
func (s *pgStore) DeleteLibraryItem(id int, actingUserID *int) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var t model.ScheduleTemplate
	if err := tx.Get(&t, `SELECT `+templateColumns+` FROM schedule_templates WHERE id = $1;`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if t.IsDefault {
		return ErrCannotDeleteDefault
	}

	// owned schedule commands are not FK-cascaded from the template, so
	// remove them explicitly before the template row
	const delCmdsQ = `
	DELETE FROM schedule_commands
	 WHERE id IN (SELECT schedule_command_id FROM schedule_template_entries WHERE template_id = $1);`
	if _, err := tx.Exec(delCmdsQ, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM schedule_templates WHERE id = $1;`, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().Int("template_id", id).Interface("acting_user", actingUserID).Msg("deleted library item")
	return nil
}

// CloneLibraryItem re-creates the source's command set under a new name
// with fresh ids.
func (s *pgStore) CloneLibraryItem(id int, newName string, newDescription *string, actingUserID *int) (*model.LibraryItem, error) {
	original, err := s.GetLibraryItem(id)
	if err != nil {
		return nil, err
	}

	commands := make([]model.CommandSpec, 0, len(original.Commands))
	for _, c := range original.Commands {
		commands = append(commands, model.CommandSpec{
			ExecutionOffsetSeconds: c.ExecutionOffsetSeconds,
			CommandType:            c.CommandType,
		})
	}

	return s.CreateLibraryItem(original.SiteID, newName, newDescription, commands, actingUserID)
}

// EnsureDefaultSchedule returns the site's default template, creating a
// "Default" one (with its default application rule) when absent. Two
// callers can race past the lookup for a new site; the loser hits the
// one-default-per-site unique index and falls back to the winner's row.
func (s *pgStore) EnsureDefaultSchedule(siteID int, actingUserID *int) (*model.LibraryItem, error) {
	item, err := s.lookupDefaultSchedule(siteID)
	if err != nil || item != nil {
		return item, err
	}

	item, err = s.createDefaultSchedule(siteID)
	if isUniqueViolation(err) || errors.Is(err, ErrDuplicateName) {
		return s.lookupDefaultSchedule(siteID)
	}
	return item, err
}

func (s *pgStore) lookupDefaultSchedule(siteID int) (*model.LibraryItem, error) {
	var existingID int
	const q = `
	SELECT id FROM schedule_templates
	 WHERE site_id = $1 AND is_default = true AND is_active = true
	 LIMIT 1;`
	err := s.db.Get(&existingID, q, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("default schedule lookup failed")
		return nil, err
	}
	return s.GetLibraryItem(existingID)
}

func (s *pgStore) createDefaultSchedule(siteID int) (*model.LibraryItem, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	desc := "Default schedule"
	item, err := createLibraryItemTx(tx, siteID, "Default", &desc, nil, true)
	if err != nil {
		return nil, err
	}

	// the default template carries the site's default application rule
	const ruleQ = `
	INSERT INTO application_rules (template_id, rule_type, days_of_week, specific_dates, override_reason, created_at)
	VALUES ($1, 'default', NULL, NULL, NULL, now());`
	if _, err := tx.Exec(ruleQ, item.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().Int("site_id", siteID).Int("template_id", item.ID).Msg("created default schedule for site")
	return item, nil
}

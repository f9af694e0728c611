package db

import (
	"encoding/json"
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/rs/zerolog/log"
)

// applicationRuleRow is the persisted shape: calendar conditions are kept
// as JSON text, decoded at the edge.
type applicationRuleRow struct {
	ID             int       `db:"id"`
	TemplateID     int       `db:"template_id"`
	RuleType       string    `db:"rule_type"`
	DaysOfWeek     *string   `db:"days_of_week"`
	SpecificDates  *string   `db:"specific_dates"`
	OverrideReason *string   `db:"override_reason"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r applicationRuleRow) toModel() (model.ApplicationRule, error) {
	rule := model.ApplicationRule{
		ID:             r.ID,
		TemplateID:     r.TemplateID,
		RuleType:       model.RuleType(r.RuleType),
		OverrideReason: r.OverrideReason,
		CreatedAt:      r.CreatedAt,
	}
	if r.DaysOfWeek != nil {
		if err := json.Unmarshal([]byte(*r.DaysOfWeek), &rule.DaysOfWeek); err != nil {
			return rule, err
		}
	}
	if r.SpecificDates != nil {
		if err := json.Unmarshal([]byte(*r.SpecificDates), &rule.SpecificDates); err != nil {
			return rule, err
		}
	}
	return rule, nil
}

const ruleColumns = `id, template_id, rule_type, days_of_week, specific_dates, override_reason, created_at`

// CreateApplicationRule inserts a rule for a template. Creating a default
// rule replaces any existing default rule across the whole site, inside
// one transaction.
func (s *pgStore) CreateApplicationRule(templateID int, ruleType model.RuleType, daysOfWeek []int, specificDates []string, overrideReason *string, actingUserID *int) (*model.ApplicationRule, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if ruleType == model.RuleDefault {
		const delQ = `
		DELETE FROM application_rules
		 WHERE rule_type = 'default'
		   AND template_id IN (
		       SELECT id FROM schedule_templates
		        WHERE site_id = (SELECT site_id FROM schedule_templates WHERE id = $1));`
		if _, err := tx.Exec(delQ, templateID); err != nil {
			log.Error().Err(err).Int("template_id", templateID).Msg("default rule cleanup failed")
			return nil, err
		}
	}

	var daysJSON, datesJSON *string
	if daysOfWeek != nil {
		b, _ := json.Marshal(daysOfWeek)
		v := string(b)
		daysJSON = &v
	}
	if specificDates != nil {
		b, _ := json.Marshal(specificDates)
		v := string(b)
		datesJSON = &v
	}

	var row applicationRuleRow
	const q = `
	INSERT INTO application_rules (template_id, rule_type, days_of_week, specific_dates, override_reason, created_at)
	VALUES ($1, $2, $3, $4, $5, now())
	RETURNING ` + ruleColumns + `;`
	if err := tx.Get(&row, q, templateID, ruleType, daysJSON, datesJSON, overrideReason); err != nil {
		log.Error().Err(err).Int("template_id", templateID).Msg("CreateApplicationRule failed")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	rule, err := row.toModel()
	if err != nil {
		return nil, err
	}
	log.Info().Int("rule_id", rule.ID).Int("template_id", templateID).
		Interface("acting_user", actingUserID).Msg("created application rule")
	return &rule, nil
}

func (s *pgStore) ListApplicationRulesForTemplate(templateID int) ([]model.ApplicationRule, error) {
	rows := []applicationRuleRow{}
	const q = `
	SELECT ` + ruleColumns + `
	  FROM application_rules
	 WHERE template_id = $1
	 ORDER BY created_at DESC;`
	if err := s.db.Select(&rows, q, templateID); err != nil {
		log.Error().Err(err).Int("template_id", templateID).Msg("ListApplicationRulesForTemplate failed")
		return nil, err
	}
	return rowsToRules(rows)
}

func (s *pgStore) ListApplicationRulesForSite(siteID int) ([]model.ApplicationRule, error) {
	rows := []applicationRuleRow{}
	const q = `
	SELECT ` + ruleColumns + `
	  FROM application_rules
	 WHERE template_id IN (SELECT id FROM schedule_templates WHERE site_id = $1)
	 ORDER BY created_at DESC;`
	if err := s.db.Select(&rows, q, siteID); err != nil {
		log.Error().Err(err).Int("site_id", siteID).Msg("ListApplicationRulesForSite failed")
		return nil, err
	}
	return rowsToRules(rows)
}

func rowsToRules(rows []applicationRuleRow) ([]model.ApplicationRule, error) {
	out := make([]model.ApplicationRule, 0, len(rows))
	for _, r := range rows {
		rule, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func (s *pgStore) DeleteApplicationRule(id int, actingUserID *int) error {
	res, err := s.db.Exec(`DELETE FROM application_rules WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("rule_id", id).Msg("DeleteApplicationRule failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	log.Info().Int("rule_id", id).Interface("acting_user", actingUserID).Msg("deleted application rule")
	return nil
}

package model

import "time"

// RuleType orders application rules by specificity: a specific-date rule
// beats a day-of-week rule, which beats the default rule.
type RuleType string

const (
	RuleSpecificDate RuleType = "specific_date"
	RuleDayOfWeek    RuleType = "day_of_week"
	RuleDefault      RuleType = "default"
)

// Specificity is the numeric rank used when selecting the effective
// schedule for a date. Higher wins.
func (t RuleType) Specificity() int {
	switch t {
	case RuleSpecificDate:
		return 2
	case RuleDayOfWeek:
		return 1
	default:
		return 0
	}
}

// ApplicationRule binds a schedule template to calendar conditions.
// DaysOfWeek uses 0=Sunday..6=Saturday; SpecificDates are "YYYY-MM-DD".
type ApplicationRule struct {
	ID             int       `db:"id" json:"id"`
	TemplateID     int       `db:"template_id" json:"template_id"`
	RuleType       RuleType  `db:"rule_type" json:"rule_type"`
	DaysOfWeek     []int     `db:"-" json:"days_of_week,omitempty"`
	SpecificDates  []string  `db:"-" json:"specific_dates,omitempty"`
	OverrideReason *string   `db:"override_reason" json:"override_reason,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ScheduleMatch is one rule that applied to a calendar day, kept for rule
// conflict diagnostics in the UI.
type ScheduleMatch struct {
	TemplateID     int      `json:"template_id"`
	TemplateName   string   `json:"template_name"`
	Specificity    int      `json:"specificity"`
	RuleID         int      `json:"rule_id"`
	RuleType       RuleType `json:"rule_type"`
	OverrideReason *string  `json:"override_reason,omitempty"`
}

// DayMatches is the winning match plus every other rule that also applied
// to the same day.
type DayMatches struct {
	Winner ScheduleMatch   `json:"winner"`
	Others []ScheduleMatch `json:"others"`
}

// EffectiveSchedule is the template selected for a site+date after rule
// evaluation.
type EffectiveSchedule struct {
	Item        LibraryItem     `json:"library_item"`
	Specificity int             `json:"specificity"`
	Rule        ApplicationRule `json:"rule"`
}

// Package rules selects the effective schedule for a site and date by
// applying application rules: specific-date beats day-of-week beats the
// default rule, ties broken by most recent creation.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
)

var (
	// ErrNoSchedule is returned when a site has no template matching a date.
	ErrNoSchedule = errors.New("no schedule applies to this date")

	// ErrInvalidMonth is returned for month values outside 1..12.
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
)

const dateLayout = "2006-01-02"

// Store is the slice of persistence the calendar engine needs.
// Satisfied by db.Store.
type Store interface {
	ListLibraryItemsForSite(siteID int) ([]model.LibraryItem, error)
	ListApplicationRulesForSite(siteID int) ([]model.ApplicationRule, error)
}

type match struct {
	rule        model.ApplicationRule
	specificity int
}

// matchRule reports whether the rule applies to date and at what
// specificity. Day-of-week numbering is 0=Sunday.
func matchRule(rule model.ApplicationRule, date time.Time) (int, bool) {
	switch rule.RuleType {
	case model.RuleSpecificDate:
		want := date.Format(dateLayout)
		for _, d := range rule.SpecificDates {
			if d == want {
				return rule.RuleType.Specificity(), true
			}
		}
	case model.RuleDayOfWeek:
		weekday := int(date.Weekday())
		for _, d := range rule.DaysOfWeek {
			if d == weekday {
				return rule.RuleType.Specificity(), true
			}
		}
	case model.RuleDefault:
		return rule.RuleType.Specificity(), true
	}
	return 0, false
}

// matchesForDate returns every rule applying to date, best first.
func matchesForDate(rulesIn []model.ApplicationRule, date time.Time) []match {
	var out []match
	for _, r := range rulesIn {
		if spec, ok := matchRule(r, date); ok {
			out = append(out, match{rule: r, specificity: spec})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].specificity != out[j].specificity {
			return out[i].specificity > out[j].specificity
		}
		return out[i].rule.CreatedAt.After(out[j].rule.CreatedAt)
	})
	return out
}

// Effective selects the winning template for a date from already-loaded
// items and rules. Pure policy; no persistence involved.
func Effective(items []model.LibraryItem, rulesIn []model.ApplicationRule, date time.Time) (*model.EffectiveSchedule, error) {
	matches := matchesForDate(rulesIn, date)
	for _, m := range matches {
		for _, item := range items {
			if item.ID == m.rule.TemplateID {
				return &model.EffectiveSchedule{
					Item:        item,
					Specificity: m.specificity,
					Rule:        m.rule,
				}, nil
			}
		}
	}
	return nil, ErrNoSchedule
}

// AllMatches returns the winner plus every other rule that also applied,
// deduplicated by template: when one template has several applicable
// rules only its highest-priority one is reported.
func AllMatches(items []model.LibraryItem, rulesIn []model.ApplicationRule, date time.Time) (*model.DayMatches, error) {
	byID := make(map[int]model.LibraryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	seen := make(map[int]bool)
	var all []model.ScheduleMatch
	for _, m := range matchesForDate(rulesIn, date) {
		item, ok := byID[m.rule.TemplateID]
		if !ok || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		all = append(all, model.ScheduleMatch{
			TemplateID:     item.ID,
			TemplateName:   item.Name,
			Specificity:    m.specificity,
			RuleID:         m.rule.ID,
			RuleType:       m.rule.RuleType,
			OverrideReason: m.rule.OverrideReason,
		})
	}

	if len(all) == 0 {
		return nil, ErrNoSchedule
	}
	return &model.DayMatches{Winner: all[0], Others: all[1:]}, nil
}

// Engine binds the pure policy to the store and guarantees a default
// schedule exists before any calendar read.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) load(siteID int) ([]model.LibraryItem, []model.ApplicationRule, error) {
	// ListLibraryItemsForSite lazily creates the default template, so a
	// site always has at least the default rule to fall back on.
	items, err := e.store.ListLibraryItemsForSite(siteID)
	if err != nil {
		return nil, nil, err
	}
	rulesIn, err := e.store.ListApplicationRulesForSite(siteID)
	if err != nil {
		return nil, nil, err
	}
	return items, rulesIn, nil
}

// EffectiveSchedule returns the template in effect for a site on a date.
func (e *Engine) EffectiveSchedule(siteID int, date time.Time) (*model.EffectiveSchedule, error) {
	items, rulesIn, err := e.load(siteID)
	if err != nil {
		return nil, err
	}
	return Effective(items, rulesIn, date)
}

// DayMatches returns all rules applying to a site on a date, winner first.
func (e *Engine) DayMatches(siteID int, date time.Time) (*model.DayMatches, error) {
	items, rulesIn, err := e.load(siteID)
	if err != nil {
		return nil, err
	}
	return AllMatches(items, rulesIn, date)
}

// CalendarForMonth maps every day of the month ("YYYY-MM-DD") to the
// winning schedule for that day.
func (e *Engine) CalendarForMonth(siteID, year, month int) (map[string]model.ScheduleMatch, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	items, rulesIn, err := e.load(siteID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.ScheduleMatch)
	forEachDay(year, month, func(day time.Time) {
		eff, err := Effective(items, rulesIn, day)
		if err != nil {
			return // no schedule for this day
		}
		out[day.Format(dateLayout)] = model.ScheduleMatch{
			TemplateID:     eff.Item.ID,
			TemplateName:   eff.Item.Name,
			Specificity:    eff.Specificity,
			RuleID:         eff.Rule.ID,
			RuleType:       eff.Rule.RuleType,
			OverrideReason: eff.Rule.OverrideReason,
		}
	})
	return out, nil
}

// CalendarWithMatches is the diagnostics variant: every day maps to the
// full list of rules that matched, not just the winner.
func (e *Engine) CalendarWithMatches(siteID, year, month int) (map[string]model.DayMatches, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	items, rulesIn, err := e.load(siteID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.DayMatches)
	forEachDay(year, month, func(day time.Time) {
		matches, err := AllMatches(items, rulesIn, day)
		if err != nil {
			return
		}
		out[day.Format(dateLayout)] = *matches
	})
	return out, nil
}

func forEachDay(year, month int, fn func(day time.Time)) {
	day := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == time.Month(month) {
		fn(day)
		day = day.AddDate(0, 0, 1)
	}
}

// ParseDate parses the wire date format used across the calendar API.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

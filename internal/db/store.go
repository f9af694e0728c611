// exposes a Store interface that is passed to API calls and services
package db

import (
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/jmoiron/sqlx"
)

type Store interface {
	// site functions (read-only, identity is owned externally)
	GetSiteByID(id int) (*model.Site, error)

	// schedule library functions
	CreateLibraryItem(siteID int, name string, description *string, commands []model.CommandSpec, actingUserID *int) (*model.LibraryItem, error)
	GetLibraryItem(id int) (*model.LibraryItem, error)
	ListLibraryItemsForSite(siteID int) ([]model.LibraryItem, error)
	UpdateLibraryItem(id int, name, description *string, commands []model.CommandSpec, actingUserID *int) (*model.LibraryItem, error)
	DeleteLibraryItem(id int, actingUserID *int) error
	CloneLibraryItem(id int, newName string, newDescription *string, actingUserID *int) (*model.LibraryItem, error)
	EnsureDefaultSchedule(siteID int, actingUserID *int) (*model.LibraryItem, error)

	// application rule functions
	CreateApplicationRule(templateID int, ruleType model.RuleType, daysOfWeek []int, specificDates []string, overrideReason *string, actingUserID *int) (*model.ApplicationRule, error)
	ListApplicationRulesForTemplate(templateID int) ([]model.ApplicationRule, error)
	ListApplicationRulesForSite(siteID int) ([]model.ApplicationRule, error)
	DeleteApplicationRule(id int, actingUserID *int) error

	// override functions
	CreateOverride(siteID int, state model.SiteState, start, end time.Time, createdBy int, reason *string) (*model.SchedulerOverride, error)
	GetOverrideByID(id int) (*model.SchedulerOverride, error)
	ListOverridesForSite(siteID int) ([]model.SchedulerOverride, error)
	ListActiveOverridesForSite(siteID int) ([]model.SchedulerOverride, error)
	ListUpcomingOverridesForSite(siteID int, from time.Time, limit int) ([]model.SchedulerOverride, error)
	CurrentOverrideForSite(siteID int, at time.Time) (*model.SchedulerOverride, error)
	UpdateOverride(id int, state *model.SiteState, start, end *time.Time, reason *string, isActive *bool) (*model.SchedulerOverride, error)
	DeleteOverride(id int) error
	ExpireEndedOverrides(now time.Time) (int, error)

	// script functions
	CreateScript(siteID int, name, content, language string, version int, isActive bool) (*model.SchedulerScript, error)
	GetScriptByID(id int) (*model.SchedulerScript, error)
	ListScriptsForSite(siteID int) ([]model.SchedulerScript, error)
	LatestActiveScriptForSite(siteID int) (*model.SchedulerScript, error)
	UpdateScript(id int, name, content, language *string, isActive *bool, version *int) (*model.SchedulerScript, error)
	DeleteScript(id int) error
	PromoteScript(id int) (*model.SchedulerScript, int, error)
	ScriptNameUnique(siteID int, name string, excludeID *int) (bool, error)

	// execution log functions
	InsertExecution(siteID int, scriptID, overrideID *int, at time.Time, state model.SiteState, durationMS *int, errMsg *string) (*model.SchedulerExecution, error)
	ListExecutionsForSite(siteID int, limit int) ([]model.SchedulerExecution, error)
	ListExecutionsInRange(siteID int, from, to time.Time) ([]model.SchedulerExecution, error)
	ListFailedExecutionsForSite(siteID int, limit int) ([]model.SchedulerExecution, error)
	PruneExecutionsBefore(cutoff time.Time) (int, error)

	// equipment command catalog functions
	CreateCommand(siteID int, name string, description, payload *string) (*model.Command, error)
	GetCommandByID(id int) (*model.Command, error)
	ListCommandsForSite(siteID int) ([]model.Command, error)
	DeleteCommand(id int) error
	CreateCommandSet(siteID int, name string, description *string) (*model.CommandSet, error)
	GetCommandSetByID(id int) (*model.CommandSet, error)
	ListCommandSetsForSite(siteID int) ([]model.CommandSet, error)
	DeleteCommandSet(id int) error
	AddCommandToSet(setID, commandID, executionOrder int, delayMS *int, condition *string) (*model.CommandSetCommand, error)
	ListSetCommands(setID int) ([]model.CommandSetCommand, error)
	RemoveCommandFromSet(setID, commandID int) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore() Store {
	return &pgStore{db: DB}
}

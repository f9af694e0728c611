package scheduler

import (
	"context"
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/rs/zerolog/log"
)

// Store is the slice of persistence the resolution engine needs.
// Satisfied by db.Store.
type Store interface {
	GetSiteByID(id int) (*model.Site, error)
	CurrentOverrideForSite(siteID int, at time.Time) (*model.SchedulerOverride, error)
	LatestActiveScriptForSite(siteID int) (*model.SchedulerScript, error)
	InsertExecution(siteID int, scriptID, overrideID *int, at time.Time, state model.SiteState, durationMS *int, errMsg *string) (*model.SchedulerExecution, error)
}

// StateCache keeps the last resolved state per site for cheap reads.
type StateCache interface {
	SetSiteState(ctx context.Context, siteID int, state model.SiteState) error
}

// StatePublisher pushes resolved states out to the site's equipment.
type StatePublisher interface {
	PublishSiteState(siteID int, state model.SiteState) error
}

// SourceKind names where a resolved state came from.
type SourceKind string

const (
	SourceOverride SourceKind = "override"
	SourceScript   SourceKind = "script"
	SourceDefault  SourceKind = "default"
)

// Source identifies the winning resolution layer; ID is the override or
// script row id, zero for the default path.
type Source struct {
	Kind SourceKind `json:"kind"`
	ID   int        `json:"id,omitempty"`
}

// SiteStateResult is the outcome of one resolution.
type SiteStateResult struct {
	State           model.SiteState `json:"state"`
	Source          Source          `json:"source"`
	ExecutionTimeMS int             `json:"execution_time_ms"`
	Error           *string         `json:"error,omitempty"`
}

// ValidationResult is the outcome of validating a script: the syntactic
// verdict plus a smoke-test run against live site data.
type ValidationResult struct {
	IsValid       bool             `json:"is_valid"`
	Error         *string          `json:"error,omitempty"`
	TestExecution *SiteStateResult `json:"test_execution,omitempty"`
}

// Service is the resolution engine: override wins over script, script
// over the idle default. It holds no mutable state of its own, so
// concurrent resolutions for any mix of sites are safe.
type Service struct {
	store     Store
	executor  *Executor
	cache     StateCache     // optional
	publisher StatePublisher // optional
}

func NewService(store Store, cache StateCache, publisher StatePublisher) *Service {
	return &Service{
		store:     store,
		executor:  NewExecutor(),
		cache:     cache,
		publisher: publisher,
	}
}

// GetSiteState resolves the state for a site at a given instant.
// The layering is fixed: an active override returns immediately without
// touching the script registry; only when neither layer applies does the
// idle default win.
func (s *Service) GetSiteState(siteID int, at time.Time) (*SiteStateResult, error) {
	override, err := s.store.CurrentOverrideForSite(siteID, at)
	if err != nil {
		return nil, err
	}
	if override != nil {
		return &SiteStateResult{
			State:           override.State,
			Source:          Source{Kind: SourceOverride, ID: override.ID},
			ExecutionTimeMS: 0,
		}, nil
	}

	script, err := s.store.LatestActiveScriptForSite(siteID)
	if err != nil {
		return nil, err
	}
	if script != nil {
		site, err := s.store.GetSiteByID(siteID)
		if err != nil {
			return nil, err
		}

		exec := s.executor.Execute(*script, at, *site)
		result := &SiteStateResult{
			State:           exec.State,
			Source:          Source{Kind: SourceScript, ID: script.ID},
			ExecutionTimeMS: exec.ExecutionTimeMS,
		}
		if exec.Err != nil {
			msg := exec.Err.Error()
			result.Error = &msg
		}
		return result, nil
	}

	return &SiteStateResult{
		State:  model.StateIdle,
		Source: Source{Kind: SourceDefault},
	}, nil
}

// ExecuteSchedulerForSite resolves the state and unconditionally appends
// an execution log row. Audit, cache and publish failures are reported as
// warnings only; the resolved state is still returned.
func (s *Service) ExecuteSchedulerForSite(siteID int, at time.Time) (*SiteStateResult, error) {
	result, err := s.GetSiteState(siteID, at)
	if err != nil {
		return nil, err
	}

	var scriptID, overrideID *int
	switch result.Source.Kind {
	case SourceScript:
		id := result.Source.ID
		scriptID = &id
	case SourceOverride:
		id := result.Source.ID
		overrideID = &id
	}

	duration := result.ExecutionTimeMS
	if _, err := s.store.InsertExecution(siteID, scriptID, overrideID, at, result.State, &duration, result.Error); err != nil {
		log.Warn().Err(err).Int("site_id", siteID).Msg("failed to log scheduler execution")
	}

	if s.cache != nil {
		if err := s.cache.SetSiteState(context.Background(), siteID, result.State); err != nil {
			log.Warn().Err(err).Int("site_id", siteID).Msg("failed to cache site state")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSiteState(siteID, result.State); err != nil {
			log.Warn().Err(err).Int("site_id", siteID).Msg("failed to publish site state")
		}
	}

	return result, nil
}

// ValidateScript runs the syntactic check and, when it passes, one real
// execution against the current time and the site's data as a smoke test.
func (s *Service) ValidateScript(script model.SchedulerScript, siteID int) (*ValidationResult, error) {
	if err := s.executor.Validate(script); err != nil {
		msg := err.Error()
		return &ValidationResult{IsValid: false, Error: &msg}, nil
	}

	site, err := s.store.GetSiteByID(siteID)
	if err != nil {
		return nil, err
	}

	exec := s.executor.Execute(script, time.Now().UTC(), *site)
	test := &SiteStateResult{
		State:           exec.State,
		Source:          Source{Kind: SourceScript, ID: script.ID},
		ExecutionTimeMS: exec.ExecutionTimeMS,
	}
	result := &ValidationResult{IsValid: exec.Err == nil, TestExecution: test}
	if exec.Err != nil {
		msg := exec.Err.Error()
		result.Error = &msg
		test.Error = &msg
	}
	return result, nil
}

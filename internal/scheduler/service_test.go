package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Voltair-Energy/voltair/internal/model"
)

// fakeStore is an in-memory Store for exercising the resolution layering
// without a database.
type fakeStore struct {
	site      *model.Site
	override  *model.SchedulerOverride
	script    *model.SchedulerScript
	insertErr error

	executions []model.SchedulerExecution
}

func (f *fakeStore) GetSiteByID(id int) (*model.Site, error) {
	if f.site == nil || f.site.ID != id {
		return nil, errors.New("site not found")
	}
	return f.site, nil
}

func (f *fakeStore) CurrentOverrideForSite(siteID int, at time.Time) (*model.SchedulerOverride, error) {
	if f.override != nil && f.override.SiteID == siteID && f.override.Covers(at) {
		return f.override, nil
	}
	return nil, nil
}

func (f *fakeStore) LatestActiveScriptForSite(siteID int) (*model.SchedulerScript, error) {
	if f.script != nil && f.script.SiteID == siteID && f.script.IsActive {
		return f.script, nil
	}
	return nil, nil
}

func (f *fakeStore) InsertExecution(siteID int, scriptID, overrideID *int, at time.Time, state model.SiteState, durationMS *int, errMsg *string) (*model.SchedulerExecution, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	row := model.SchedulerExecution{
		ID:                  len(f.executions) + 1,
		SiteID:              siteID,
		ScriptID:            scriptID,
		OverrideID:          overrideID,
		ExecutionTime:       at,
		StateResult:         state,
		ExecutionDurationMS: durationMS,
		ErrorMessage:        errMsg,
	}
	f.executions = append(f.executions, row)
	return &row, nil
}

type fakeCache struct {
	states map[int]model.SiteState
}

func (f *fakeCache) SetSiteState(_ context.Context, siteID int, state model.SiteState) error {
	if f.states == nil {
		f.states = map[int]model.SiteState{}
	}
	f.states[siteID] = state
	return nil
}

func fakeSite() *model.Site {
	return &model.Site{ID: 1, Name: "Harbor Site", CompanyID: 2}
}

func activeScript(content string) *model.SchedulerScript {
	return &model.SchedulerScript{
		ID: 11, SiteID: 1, Name: "custom",
		ScriptContent: content, Language: "lua",
		IsActive: true, Version: 3,
	}
}

func TestGetSiteState_DefaultPath(t *testing.T) {
	store := &fakeStore{site: fakeSite()}
	svc := NewService(store, nil, nil)

	result, err := svc.GetSiteState(1, time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, model.StateIdle, result.State)
	assert.Equal(t, SourceDefault, result.Source.Kind)
	assert.Equal(t, 0, result.ExecutionTimeMS)
	assert.Nil(t, result.Error)
}

func TestGetSiteState_ScriptPath(t *testing.T) {
	store := &fakeStore{
		site:   fakeSite(),
		script: activeScript(`return 'discharge'`),
	}
	svc := NewService(store, nil, nil)

	result, err := svc.GetSiteState(1, time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, model.StateDischarge, result.State)
	assert.Equal(t, SourceScript, result.Source.Kind)
	assert.Equal(t, 11, result.Source.ID)
}

func TestGetSiteState_OverrideBeatsScript(t *testing.T) {
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		site:   fakeSite(),
		script: activeScript(`return 'discharge'`),
		override: &model.SchedulerOverride{
			ID: 5, SiteID: 1, State: model.StateCharge,
			StartTime: at.Add(-time.Hour),
			EndTime:   at.Add(time.Hour),
			IsActive:  true,
		},
	}
	svc := NewService(store, nil, nil)

	result, err := svc.GetSiteState(1, at)
	assert.NoError(t, err)
	assert.Equal(t, model.StateCharge, result.State)
	assert.Equal(t, SourceOverride, result.Source.Kind)
	assert.Equal(t, 5, result.Source.ID)
}

func TestGetSiteState_ExpiredOverrideFallsThrough(t *testing.T) {
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		site:   fakeSite(),
		script: activeScript(`return 'discharge'`),
		override: &model.SchedulerOverride{
			ID: 5, SiteID: 1, State: model.StateCharge,
			StartTime: at.Add(-2 * time.Hour),
			EndTime:   at, // half-open window: ended exactly now
			IsActive:  true,
		},
	}
	svc := NewService(store, nil, nil)

	result, err := svc.GetSiteState(1, at)
	assert.NoError(t, err)
	assert.Equal(t, model.StateDischarge, result.State)
	assert.Equal(t, SourceScript, result.Source.Kind)
}

func TestGetSiteState_ScriptErrorSurfacesIdle(t *testing.T) {
	store := &fakeStore{
		site:   fakeSite(),
		script: activeScript(`error('bad input')`),
	}
	svc := NewService(store, nil, nil)

	result, err := svc.GetSiteState(1, time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, model.StateIdle, result.State)
	assert.Equal(t, SourceScript, result.Source.Kind)
	assert.NotNil(t, result.Error)
}

func TestExecuteScheduler_WritesAuditRow(t *testing.T) {
	store := &fakeStore{
		site:   fakeSite(),
		script: activeScript(`return 'charge'`),
	}
	svc := NewService(store, nil, nil)

	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	result, err := svc.ExecuteSchedulerForSite(1, at)
	assert.NoError(t, err)
	assert.Equal(t, model.StateCharge, result.State)

	assert.Len(t, store.executions, 1)
	row := store.executions[0]
	assert.Equal(t, 1, row.SiteID)
	assert.NotNil(t, row.ScriptID)
	assert.Equal(t, 11, *row.ScriptID)
	assert.Nil(t, row.OverrideID)
	assert.Equal(t, model.StateCharge, row.StateResult)
	assert.True(t, row.ExecutionTime.Equal(at))
}

func TestExecuteScheduler_OverridePathLogsOverrideID(t *testing.T) {
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		site: fakeSite(),
		override: &model.SchedulerOverride{
			ID: 9, SiteID: 1, State: model.StateDischarge,
			StartTime: at.Add(-time.Minute),
			EndTime:   at.Add(time.Minute),
			IsActive:  true,
		},
	}
	svc := NewService(store, nil, nil)

	_, err := svc.ExecuteSchedulerForSite(1, at)
	assert.NoError(t, err)
	assert.Len(t, store.executions, 1)
	row := store.executions[0]
	assert.Nil(t, row.ScriptID)
	assert.NotNil(t, row.OverrideID)
	assert.Equal(t, 9, *row.OverrideID)
}

func TestExecuteScheduler_AuditFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{
		site:      fakeSite(),
		insertErr: errors.New("disk full"),
	}
	svc := NewService(store, nil, nil)

	result, err := svc.ExecuteSchedulerForSite(1, time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecuteScheduler_UpdatesCache(t *testing.T) {
	store := &fakeStore{
		site:   fakeSite(),
		script: activeScript(`return 'charge'`),
	}
	c := &fakeCache{}
	svc := NewService(store, c, nil)

	_, err := svc.ExecuteSchedulerForSite(1, time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, model.StateCharge, c.states[1])
}

func TestValidateScript(t *testing.T) {
	store := &fakeStore{site: fakeSite()}
	svc := NewService(store, nil, nil)

	good := model.SchedulerScript{ID: 1, ScriptContent: `return 'idle'`, Language: "lua"}
	result, err := svc.ValidateScript(good, 1)
	assert.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.NotNil(t, result.TestExecution)
	assert.Equal(t, model.StateIdle, result.TestExecution.State)

	broken := model.SchedulerScript{ID: 2, ScriptContent: `return 'idle`, Language: "lua"}
	result, err = svc.ValidateScript(broken, 1)
	assert.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.NotNil(t, result.Error)
	assert.Nil(t, result.TestExecution)
}

func TestValidateScript_RuntimeFailureInSmokeTest(t *testing.T) {
	store := &fakeStore{site: fakeSite()}
	svc := NewService(store, nil, nil)

	// compiles fine but fails at runtime
	script := model.SchedulerScript{ID: 3, ScriptContent: `error('nope')`, Language: "lua"}
	result, err := svc.ValidateScript(script, 1)
	assert.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.NotNil(t, result.Error)
	assert.NotNil(t, result.TestExecution)
	assert.Equal(t, model.StateIdle, result.TestExecution.State)
}

package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/Voltair-Energy/voltair/internal/scheduler"
)

// stubStore overrides only the methods the scheduler routes touch; the
// embedded interface panics on anything unexpected, which is what we want
// in a test.
type stubStore struct {
	db.Store

	site       *model.Site
	override   *model.SchedulerOverride
	script     *model.SchedulerScript
	executions []model.SchedulerExecution
}

func (s *stubStore) GetSiteByID(id int) (*model.Site, error) {
	if s.site == nil || s.site.ID != id {
		return nil, db.ErrNotFound
	}
	return s.site, nil
}

func (s *stubStore) CurrentOverrideForSite(siteID int, at time.Time) (*model.SchedulerOverride, error) {
	if s.override != nil && s.override.SiteID == siteID && s.override.Covers(at) {
		return s.override, nil
	}
	return nil, nil
}

func (s *stubStore) LatestActiveScriptForSite(siteID int) (*model.SchedulerScript, error) {
	if s.script != nil && s.script.SiteID == siteID && s.script.IsActive {
		return s.script, nil
	}
	return nil, nil
}

func (s *stubStore) InsertExecution(siteID int, scriptID, overrideID *int, at time.Time, state model.SiteState, durationMS *int, errMsg *string) (*model.SchedulerExecution, error) {
	row := model.SchedulerExecution{
		ID:            len(s.executions) + 1,
		SiteID:        siteID,
		ScriptID:      scriptID,
		OverrideID:    overrideID,
		ExecutionTime: at,
		StateResult:   state,
	}
	s.executions = append(s.executions, row)
	return &row, nil
}

func (s *stubStore) ListExecutionsForSite(siteID int, limit int) ([]model.SchedulerExecution, error) {
	if limit > len(s.executions) {
		limit = len(s.executions)
	}
	return s.executions[:limit], nil
}

func (s *stubStore) ListFailedExecutionsForSite(siteID int, limit int) ([]model.SchedulerExecution, error) {
	var failed []model.SchedulerExecution
	for _, e := range s.executions {
		if e.ErrorMessage != nil {
			failed = append(failed, e)
		}
	}
	return failed, nil
}

func newTestRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := scheduler.NewService(store, nil, nil)
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		SchedulerModule(store, svc),
	)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestGetSiteState_Override(t *testing.T) {
	now := time.Now().UTC()
	store := &stubStore{
		site: &model.Site{ID: 1, Name: "Plant", CompanyID: 1},
		override: &model.SchedulerOverride{
			ID: 4, SiteID: 1, State: model.StateCharge,
			StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
			IsActive: true,
		},
	}
	r := newTestRouter(store)

	var resp scheduler.SiteStateResult
	w := doJSON(t, r, http.MethodGet, "/api/admin/sites/1/state", &resp)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StateCharge, resp.State)
	assert.Equal(t, scheduler.SourceOverride, resp.Source.Kind)
	assert.Equal(t, 4, resp.Source.ID)
}

func TestGetSiteState_DefaultWhenNothingApplies(t *testing.T) {
	store := &stubStore{site: &model.Site{ID: 1, Name: "Plant", CompanyID: 1}}
	r := newTestRouter(store)

	var resp scheduler.SiteStateResult
	w := doJSON(t, r, http.MethodGet, "/api/admin/sites/1/state", &resp)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StateIdle, resp.State)
	assert.Equal(t, scheduler.SourceDefault, resp.Source.Kind)
}

func TestGetSiteState_AtParameter(t *testing.T) {
	store := &stubStore{
		site: &model.Site{ID: 1, Name: "Plant", CompanyID: 1},
		script: &model.SchedulerScript{
			ID: 8, SiteID: 1, Language: "lua", IsActive: true, Version: 1,
			ScriptContent: `
if datetime.hour >= 16 and datetime.hour < 20 then
    return 'discharge'
end
return 'idle'
`,
		},
	}
	r := newTestRouter(store)

	var resp scheduler.SiteStateResult
	w := doJSON(t, r, http.MethodGet, "/api/admin/sites/1/state?at=2026-06-01T17:00:00Z", &resp)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StateDischarge, resp.State)

	w = doJSON(t, r, http.MethodGet, "/api/admin/sites/1/state?at=not-a-time", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSiteState_InvalidSiteID(t *testing.T) {
	store := &stubStore{}
	r := newTestRouter(store)

	w := doJSON(t, r, http.MethodGet, "/api/admin/sites/abc/state", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteScheduler_AppendsAuditRow(t *testing.T) {
	store := &stubStore{site: &model.Site{ID: 1, Name: "Plant", CompanyID: 1}}
	r := newTestRouter(store)

	var resp scheduler.SiteStateResult
	w := doJSON(t, r, http.MethodPost, "/api/admin/sites/1/scheduler/execute", &resp)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StateIdle, resp.State)
	assert.Len(t, store.executions, 1)
}

func TestListExecutions(t *testing.T) {
	now := time.Now().UTC()
	msg := "script execution error"
	store := &stubStore{
		site: &model.Site{ID: 1, Name: "Plant", CompanyID: 1},
		executions: []model.SchedulerExecution{
			{ID: 1, SiteID: 1, ExecutionTime: now, StateResult: model.StateIdle},
			{ID: 2, SiteID: 1, ExecutionTime: now, StateResult: model.StateIdle, ErrorMessage: &msg},
		},
	}
	r := newTestRouter(store)

	var list []model.SchedulerExecution
	w := doJSON(t, r, http.MethodGet, "/api/admin/sites/1/executions", &list)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list, 2)

	list = nil
	w = doJSON(t, r, http.MethodGet, "/api/admin/sites/1/executions?limit=1", &list)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list, 1)

	w = doJSON(t, r, http.MethodGet, "/api/admin/sites/1/executions?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	list = nil
	w = doJSON(t, r, http.MethodGet, "/api/admin/sites/1/executions/failed", &list)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ID)
}

func TestStoreErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{db.ErrNotFound, http.StatusNotFound},
		{db.ErrOverrideOverlap, http.StatusConflict},
		{db.ErrDuplicateName, http.StatusConflict},
		{db.ErrCannotDeleteDefault, http.StatusForbidden},
		{db.ErrInvalidRange, http.StatusBadRequest},
		{db.ErrInvalidOffset, http.StatusBadRequest},
		{db.ErrDuplicateOffset, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, storeError(tc.err).Code, tc.err.Error())
	}
}

package scheduler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Voltair-Energy/voltair/internal/model"
)

func testSite() model.Site {
	lat := 51.5
	lon := -0.12
	return model.Site{
		ID:        7,
		Name:      "Riverside Plant",
		CompanyID: 3,
		Latitude:  &lat,
		Longitude: &lon,
	}
}

func luaScript(content string) model.SchedulerScript {
	return model.SchedulerScript{
		ID:            1,
		SiteID:        7,
		Name:          "test",
		ScriptContent: content,
		Language:      "lua",
		IsActive:      true,
		Version:       1,
	}
}

func TestDefaultScript(t *testing.T) {
	e := NewExecutor()
	script := luaScript(e.DefaultScript())
	site := testSite()

	cases := []struct {
		hour int
		want model.SiteState
	}{
		{0, model.StateCharge},
		{8, model.StateCharge},
		{12, model.StateCharge},
		{13, model.StateIdle},
		{15, model.StateIdle},
		{16, model.StateDischarge},
		{19, model.StateDischarge},
		{20, model.StateCharge},
		{23, model.StateCharge},
	}
	for _, tc := range cases {
		at := time.Date(2026, 3, 10, tc.hour, 30, 0, 0, time.UTC)
		result := e.Execute(script, at, site)
		assert.NoError(t, result.Err, "hour %d", tc.hour)
		assert.Equal(t, tc.want, result.State, "hour %d", tc.hour)
	}
}

func TestExecute_DatetimeGlobals(t *testing.T) {
	e := NewExecutor()
	// 2026-03-09 is a Monday; the script contract numbers Monday as 1
	at := time.Date(2026, 3, 9, 14, 45, 30, 0, time.UTC)
	script := luaScript(`
if datetime.year == 2026 and datetime.month == 3 and datetime.day == 9
    and datetime.hour == 14 and datetime.minute == 45 and datetime.second == 30
    and datetime.weekday == 1 then
    return 'charge'
end
return 'idle'
`)
	result := e.Execute(script, at, testSite())
	assert.NoError(t, result.Err)
	assert.Equal(t, model.StateCharge, result.State)
}

func TestExecute_SundayWeekdaySeven(t *testing.T) {
	e := NewExecutor()
	// 2026-03-08 is a Sunday
	at := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	script := luaScript(`
if datetime.weekday == 7 then
    return 'discharge'
end
return 'idle'
`)
	result := e.Execute(script, at, testSite())
	assert.NoError(t, result.Err)
	assert.Equal(t, model.StateDischarge, result.State)
}

func TestExecute_SiteData(t *testing.T) {
	e := NewExecutor()
	script := luaScript(`
if site_data.id == 7 and site_data.company_id == 3
    and site_data.name == 'Riverside Plant'
    and site_data.latitude ~= nil then
    return 'charge'
end
return 'idle'
`)
	result := e.Execute(script, time.Now().UTC(), testSite())
	assert.NoError(t, result.Err)
	assert.Equal(t, model.StateCharge, result.State)
}

func TestExecute_SiteDataWithoutCoordinates(t *testing.T) {
	e := NewExecutor()
	site := model.Site{ID: 2, Name: "Depot", CompanyID: 1}
	script := luaScript(`
if site_data.latitude == nil and site_data.longitude == nil then
    return 'idle'
end
return 'charge'
`)
	result := e.Execute(script, time.Now().UTC(), site)
	assert.NoError(t, result.Err)
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_SandboxRemovesDangerousGlobals(t *testing.T) {
	e := NewExecutor()
	script := luaScript(`
if io == nil and os == nil and package == nil and debug == nil
    and require == nil and loadfile == nil and dofile == nil
    and load == nil and loadstring == nil then
    return 'idle'
end
return 'charge'
`)
	result := e.Execute(script, time.Now().UTC(), testSite())
	assert.NoError(t, result.Err)
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_InfiniteLoopTimesOut(t *testing.T) {
	e := NewExecutor()
	result := e.Execute(luaScript(`while true do end`), time.Now().UTC(), testSite())
	assert.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "timed out")
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_SyntaxError(t *testing.T) {
	e := NewExecutor()
	result := e.Execute(luaScript(`return 'charge`), time.Now().UTC(), testSite())
	assert.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "compilation failed")
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_RuntimeError(t *testing.T) {
	e := NewExecutor()
	result := e.Execute(luaScript(`error('boom')`), time.Now().UTC(), testSite())
	assert.Error(t, result.Err)
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_InvalidStateString(t *testing.T) {
	e := NewExecutor()
	result := e.Execute(luaScript(`return 'explode'`), time.Now().UTC(), testSite())
	assert.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "invalid site state")
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_NonStringReturn(t *testing.T) {
	e := NewExecutor()
	result := e.Execute(luaScript(`return 42`), time.Now().UTC(), testSite())
	assert.Error(t, result.Err)
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_NilReturnMeansIdle(t *testing.T) {
	e := NewExecutor()
	result := e.Execute(luaScript(`return nil`), time.Now().UTC(), testSite())
	assert.NoError(t, result.Err)
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_OversizedScriptRejected(t *testing.T) {
	e := NewExecutor()
	big := "-- " + strings.Repeat("x", scriptMaxSize) + "\nreturn 'charge'"
	result := e.Execute(luaScript(big), time.Now().UTC(), testSite())
	assert.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "exceeds maximum")
	assert.Equal(t, model.StateIdle, result.State)
}

func TestExecute_UnsupportedLanguage(t *testing.T) {
	e := NewExecutor()
	script := luaScript(`return 'charge'`)
	script.Language = "python"
	result := e.Execute(script, time.Now().UTC(), testSite())
	assert.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "unsupported script language")
}

func TestExecute_Deterministic(t *testing.T) {
	e := NewExecutor()
	at := time.Date(2026, 6, 1, 17, 0, 0, 0, time.UTC)
	script := luaScript(e.DefaultScript())
	first := e.Execute(script, at, testSite())
	for i := 0; i < 5; i++ {
		again := e.Execute(script, at, testSite())
		assert.Equal(t, first.State, again.State)
	}
}

func TestValidate(t *testing.T) {
	e := NewExecutor()

	assert.NoError(t, e.Validate(luaScript(`return 'charge'`)))
	assert.NoError(t, e.Validate(luaScript(e.DefaultScript())))

	err := e.Validate(luaScript(`return 'charge`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compilation failed")

	bad := luaScript(`return 'charge'`)
	bad.Language = "javascript"
	assert.Error(t, e.Validate(bad))

	huge := luaScript(strings.Repeat("x", scriptMaxSize+1))
	assert.Error(t, e.Validate(huge))
}

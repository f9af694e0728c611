package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
	lua "github.com/yuin/gopher-lua"
)

const (
	scriptTimeout = 100 * time.Millisecond
	scriptMaxSize = 10 * 1024 // 10KB
)

// defaultScript implements the stock time-based charging logic:
// discharge 4pm-8pm, charge 8pm-1pm (crossing midnight), idle otherwise.
const defaultScript = `
-- Default scheduler script
-- Discharge: 4pm-8pm, Charge: 8pm-1pm, Idle: otherwise

if datetime.hour >= 16 and datetime.hour < 20 then
    return 'discharge'  -- 4pm to 8pm
elseif datetime.hour >= 20 or datetime.hour < 13 then
    return 'charge'     -- 8pm to 1pm (crosses midnight)
else
    return 'idle'       -- 1pm to 4pm
end
`

// ExecutionResult is what one sandboxed run produced. Failures never
// escape the executor: they come back in Err with State forced to idle.
type ExecutionResult struct {
	State           model.SiteState
	ExecutionTimeMS int
	Err             error
}

// Executor evaluates scheduler scripts in a sandboxed Lua state. A fresh
// state is built per run so a script can never observe another run's
// globals, which keeps results deterministic for fixed inputs.
type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

// DefaultScript returns the built-in fallback script content used by
// admin tooling when no custom script has been supplied.
func (e *Executor) DefaultScript() string {
	return defaultScript
}

// Validate checks size, language and syntax without executing anything.
func (e *Executor) Validate(script model.SchedulerScript) error {
	if len(script.ScriptContent) > scriptMaxSize {
		return fmt.Errorf("script size %d bytes exceeds maximum allowed size of %d bytes",
			len(script.ScriptContent), scriptMaxSize)
	}
	if script.Language != "lua" {
		return fmt.Errorf("unsupported script language: %s", script.Language)
	}

	L := newSandbox()
	defer L.Close()
	if _, err := L.LoadString(script.ScriptContent); err != nil {
		return fmt.Errorf("script compilation failed: %w", err)
	}
	return nil
}

// Execute runs the script against (at, site) under a hard wall-clock
// timeout. The returned state is idle whenever Err is set.
func (e *Executor) Execute(script model.SchedulerScript, at time.Time, site model.Site) ExecutionResult {
	start := time.Now()

	state, err := e.run(script, at, site)

	result := ExecutionResult{
		State:           state,
		ExecutionTimeMS: int(time.Since(start).Milliseconds()),
		Err:             err,
	}
	if err != nil {
		result.State = model.StateIdle
	}
	return result
}

func (e *Executor) run(script model.SchedulerScript, at time.Time, site model.Site) (model.SiteState, error) {
	if len(script.ScriptContent) > scriptMaxSize {
		return model.StateIdle, fmt.Errorf("script size %d bytes exceeds maximum allowed size of %d bytes",
			len(script.ScriptContent), scriptMaxSize)
	}
	if script.Language != "lua" {
		return model.StateIdle, fmt.Errorf("unsupported script language: %s", script.Language)
	}

	L := newSandbox()
	defer L.Close()

	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	L.SetContext(ctx)

	L.SetGlobal("datetime", datetimeTable(L, at))
	L.SetGlobal("site_data", siteTable(L, site))

	fn, err := L.LoadString(script.ScriptContent)
	if err != nil {
		return model.StateIdle, fmt.Errorf("script compilation failed: %w", err)
	}

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.StateIdle, errors.New("script execution timed out")
		}
		return model.StateIdle, fmt.Errorf("script execution error: %w", err)
	}

	value := L.Get(-1)
	L.Pop(1)

	switch v := value.(type) {
	case lua.LString:
		state, err := model.ParseSiteState(string(v))
		if err != nil {
			return model.StateIdle, fmt.Errorf("invalid state returned by script: %w", err)
		}
		return state, nil
	case *lua.LNilType:
		return model.StateIdle, nil
	default:
		return model.StateIdle, errors.New("script must return a string value (charge, discharge, or idle)")
	}
}

// newSandbox builds a Lua state with the dangerous stdlib surface
// removed: no filesystem, no process access, no dynamic loading.
func newSandbox() *lua.LState {
	L := lua.NewState()
	for _, name := range []string{
		"io", "os", "package", "debug",
		"require", "loadfile", "dofile", "load", "loadstring",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func datetimeTable(L *lua.LState, at time.Time) *lua.LTable {
	// weekday numbering matches the script contract: 1=Monday .. 7=Sunday
	weekday := int(at.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	tbl := L.NewTable()
	L.SetField(tbl, "year", lua.LNumber(at.Year()))
	L.SetField(tbl, "month", lua.LNumber(int(at.Month())))
	L.SetField(tbl, "day", lua.LNumber(at.Day()))
	L.SetField(tbl, "hour", lua.LNumber(at.Hour()))
	L.SetField(tbl, "minute", lua.LNumber(at.Minute()))
	L.SetField(tbl, "second", lua.LNumber(at.Second()))
	L.SetField(tbl, "weekday", lua.LNumber(weekday))
	L.SetField(tbl, "timestamp", lua.LNumber(at.Unix()))
	return tbl
}

func siteTable(L *lua.LState, site model.Site) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "id", lua.LNumber(site.ID))
	L.SetField(tbl, "name", lua.LString(site.Name))
	L.SetField(tbl, "company_id", lua.LNumber(site.CompanyID))
	if site.Latitude != nil {
		L.SetField(tbl, "latitude", lua.LNumber(*site.Latitude))
	}
	if site.Longitude != nil {
		L.SetField(tbl, "longitude", lua.LNumber(*site.Longitude))
	}
	return tbl
}

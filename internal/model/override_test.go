package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverrideCovers(t *testing.T) {
	start := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	o := SchedulerOverride{StartTime: start, EndTime: end, IsActive: true}

	assert.True(t, o.Covers(start), "window includes its start")
	assert.True(t, o.Covers(start.Add(time.Hour)))
	assert.False(t, o.Covers(end), "half-open window excludes its end")
	assert.False(t, o.Covers(start.Add(-time.Second)))
	assert.False(t, o.Covers(end.Add(time.Hour)))

	o.IsActive = false
	assert.False(t, o.Covers(start.Add(time.Hour)), "inactive override never covers")
}

func TestParseSiteState(t *testing.T) {
	for _, s := range []string{"charge", "discharge", "idle"} {
		state, err := ParseSiteState(s)
		assert.NoError(t, err)
		assert.Equal(t, s, state.String())
	}
	_, err := ParseSiteState("Charge")
	assert.Error(t, err)
	_, err = ParseSiteState("")
	assert.Error(t, err)
}

func TestParseScheduleCommandType(t *testing.T) {
	for _, s := range []string{"charge", "discharge", "trickle_charge"} {
		ct, err := ParseScheduleCommandType(s)
		assert.NoError(t, err)
		assert.Equal(t, s, ct.String())
	}
	_, err := ParseScheduleCommandType("idle")
	assert.Error(t, err)
}

package db

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Voltair-Energy/voltair/internal/model"
)

// newTestStore skips the test unless TEST_DATABASE_URL points at a live
// database, initializing the shared connection on first use and clearing
// the schedule tables so each test starts empty.
func newTestStore(t *testing.T) Store {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	if TestStore == nil {
		if err := InitTestDB("../../migrations"); err != nil {
			t.Fatalf("init test database: %v", err)
		}
	}
	_, err := DB.Exec(`
	TRUNCATE sites, schedule_templates, schedule_commands, schedule_template_entries,
	         application_rules, scheduler_overrides, scheduler_scripts,
	         scheduler_executions, commands, command_sets, command_set_commands
	RESTART IDENTITY CASCADE;`)
	if err != nil {
		t.Fatalf("reset test tables: %v", err)
	}
	return TestStore
}

func createTestSite(t *testing.T, name string) int {
	t.Helper()
	var id int
	if err := DB.Get(&id, `INSERT INTO sites (name, company_id) VALUES ($1, 1) RETURNING id;`, name); err != nil {
		t.Fatalf("create test site: %v", err)
	}
	return id
}

func hour(h int) time.Time {
	return time.Date(2026, time.March, 3, h, 0, 0, 0, time.UTC)
}

func TestCreateOverrideWindows(t *testing.T) {
	store := newTestStore(t)
	siteID := createTestSite(t, "Depot A")

	first, err := store.CreateOverride(siteID, model.StateCharge, hour(10), hour(12), 1, nil)
	assert.NoError(t, err)
	assert.True(t, first.IsActive)

	t.Run("overlapping window is rejected", func(t *testing.T) {
		_, err := store.CreateOverride(siteID, model.StateDischarge, hour(11), hour(13), 1, nil)
		assert.ErrorIs(t, err, ErrOverrideOverlap)
	})

	t.Run("adjacent windows may touch", func(t *testing.T) {
		// half-open windows: the first ends the instant the second starts
		second, err := store.CreateOverride(siteID, model.StateDischarge, hour(12), hour(14), 1, nil)
		assert.NoError(t, err)
		assert.NotNil(t, second)
	})

	t.Run("other sites are unaffected", func(t *testing.T) {
		otherSite := createTestSite(t, "Depot B")
		_, err := store.CreateOverride(otherSite, model.StateIdle, hour(10), hour(12), 1, nil)
		assert.NoError(t, err)
	})
}

func TestUpdateOverrideKeepsWindowsDisjoint(t *testing.T) {
	store := newTestStore(t)
	siteID := createTestSite(t, "Depot A")

	_, err := store.CreateOverride(siteID, model.StateCharge, hour(10), hour(12), 1, nil)
	assert.NoError(t, err)
	second, err := store.CreateOverride(siteID, model.StateDischarge, hour(14), hour(16), 1, nil)
	assert.NoError(t, err)

	t.Run("shifting into a neighbour is rejected", func(t *testing.T) {
		start := hour(11)
		_, err := store.UpdateOverride(second.ID, nil, &start, nil, nil, nil)
		assert.ErrorIs(t, err, ErrOverrideOverlap)
	})

	t.Run("non-window fields update freely", func(t *testing.T) {
		reason := "planned maintenance"
		updated, err := store.UpdateOverride(second.ID, nil, nil, nil, &reason, nil)
		assert.NoError(t, err)
		assert.Equal(t, "planned maintenance", *updated.Reason)
	})

	t.Run("re-activation re-checks the window", func(t *testing.T) {
		inactive := false
		_, err := store.UpdateOverride(second.ID, nil, nil, nil, nil, &inactive)
		assert.NoError(t, err)

		// while it is deactivated another override can take its slot
		_, err = store.CreateOverride(siteID, model.StateIdle, hour(14), hour(16), 1, nil)
		assert.NoError(t, err)

		active := true
		_, err = store.UpdateOverride(second.ID, nil, nil, nil, nil, &active)
		assert.ErrorIs(t, err, ErrOverrideOverlap)
	})
}

func TestUpdateLibraryItemReplacesCommands(t *testing.T) {
	store := newTestStore(t)
	siteID := createTestSite(t, "Depot A")

	item, err := store.CreateLibraryItem(siteID, "Weekday", nil, []model.CommandSpec{
		spec(3600, model.CommandCharge),
		spec(7200, model.CommandDischarge),
	}, nil)
	assert.NoError(t, err)
	assert.Len(t, item.Commands, 2)

	replacement := []model.CommandSpec{
		spec(1800, model.CommandCharge),
		spec(5400, model.CommandTrickleCharge),
		spec(9000, model.CommandDischarge),
	}
	updated, err := store.UpdateLibraryItem(item.ID, nil, nil, replacement, nil)
	assert.NoError(t, err)
	assert.Len(t, updated.Commands, 3)

	// replacing with the same set again is idempotent
	updated, err = store.UpdateLibraryItem(item.ID, nil, nil, replacement, nil)
	assert.NoError(t, err)
	assert.Len(t, updated.Commands, 3)

	// the replaced commands are gone, not orphaned
	var commandCount int
	err = DB.Get(&commandCount, `SELECT count(*) FROM schedule_commands WHERE site_id = $1;`, siteID)
	assert.NoError(t, err)
	assert.Equal(t, 3, commandCount)

	var entryCount int
	err = DB.Get(&entryCount, `SELECT count(*) FROM schedule_template_entries WHERE template_id = $1;`, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, 3, entryCount)
}

func TestCloneLibraryItem(t *testing.T) {
	store := newTestStore(t)
	siteID := createTestSite(t, "Depot A")

	desc := "weekday shape"
	original, err := store.CreateLibraryItem(siteID, "Weekday", &desc, []model.CommandSpec{
		spec(3600, model.CommandCharge),
		spec(7200, model.CommandDischarge),
	}, nil)
	assert.NoError(t, err)

	clone, err := store.CloneLibraryItem(original.ID, "Weekend", nil, nil)
	assert.NoError(t, err)
	assert.NotEqual(t, original.ID, clone.ID)
	assert.Equal(t, "Weekend", clone.Name)
	assert.Len(t, clone.Commands, len(original.Commands))
	for i, c := range clone.Commands {
		assert.Equal(t, original.Commands[i].ExecutionOffsetSeconds, c.ExecutionOffsetSeconds)
		assert.Equal(t, original.Commands[i].CommandType, c.CommandType)
		assert.NotEqual(t, original.Commands[i].ID, c.ID)
	}

	t.Run("clone name must be free", func(t *testing.T) {
		_, err := store.CloneLibraryItem(original.ID, "weekday", nil, nil)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})
}

func TestEnsureDefaultSchedule(t *testing.T) {
	store := newTestStore(t)
	siteID := createTestSite(t, "Depot A")

	first, err := store.EnsureDefaultSchedule(siteID, nil)
	assert.NoError(t, err)
	assert.True(t, first.IsDefault)

	again, err := store.EnsureDefaultSchedule(siteID, nil)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	t.Run("default cannot be deleted", func(t *testing.T) {
		err := store.DeleteLibraryItem(first.ID, nil)
		assert.ErrorIs(t, err, ErrCannotDeleteDefault)
	})
}

func TestScriptNamesUniquePerSite(t *testing.T) {
	store := newTestStore(t)
	siteID := createTestSite(t, "Depot A")

	_, err := store.CreateScript(siteID, "peak-shaver", "return 'idle'", "lua", 1, true)
	assert.NoError(t, err)

	// case-insensitive, enforced by the database rather than a pre-check
	_, err = store.CreateScript(siteID, "Peak-Shaver", "return 'idle'", "lua", 1, true)
	assert.ErrorIs(t, err, ErrDuplicateScriptName)

	otherSite := createTestSite(t, "Depot B")
	_, err = store.CreateScript(otherSite, "peak-shaver", "return 'idle'", "lua", 1, true)
	assert.NoError(t, err)
}

func TestPromoteScript(t *testing.T) {
	store := newTestStore(t)
	siteID := createTestSite(t, "Depot A")

	_, err := store.CreateScript(siteID, "v1", "return 'idle'", "lua", 1, true)
	assert.NoError(t, err)
	_, err = store.CreateScript(siteID, "v2", "return 'idle'", "lua", 2, true)
	assert.NoError(t, err)
	candidate, err := store.CreateScript(siteID, "v3", "return 'charge'", "lua", 3, false)
	assert.NoError(t, err)

	promoted, deactivated, err := store.PromoteScript(candidate.ID)
	assert.NoError(t, err)
	assert.True(t, promoted.IsActive)
	assert.Equal(t, 2, deactivated)

	list, err := store.ListScriptsForSite(siteID)
	assert.NoError(t, err)
	assert.Len(t, list, 3)
	for _, sc := range list {
		assert.Equal(t, sc.ID == candidate.ID, sc.IsActive)
	}

	_, _, err = store.PromoteScript(999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

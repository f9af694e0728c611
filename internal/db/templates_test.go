package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Voltair-Energy/voltair/internal/model"
)

func spec(offset int, t model.ScheduleCommandType) model.CommandSpec {
	return model.CommandSpec{ExecutionOffsetSeconds: offset, CommandType: t}
}

func TestValidateCommandSpecs(t *testing.T) {
	assert.NoError(t, validateCommandSpecs(nil))
	assert.NoError(t, validateCommandSpecs([]model.CommandSpec{
		spec(0, model.CommandCharge),
		spec(3600, model.CommandDischarge),
		spec(86399, model.CommandTrickleCharge),
	}))
}

func TestValidateCommandSpecs_OffsetBounds(t *testing.T) {
	err := validateCommandSpecs([]model.CommandSpec{spec(-1, model.CommandCharge)})
	assert.ErrorIs(t, err, ErrInvalidOffset)

	// exactly one day is out of range; the last valid second is 86399
	err = validateCommandSpecs([]model.CommandSpec{spec(86400, model.CommandCharge)})
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestValidateCommandSpecs_DuplicateOffsets(t *testing.T) {
	err := validateCommandSpecs([]model.CommandSpec{
		spec(7200, model.CommandCharge),
		spec(3600, model.CommandDischarge),
		spec(7200, model.CommandTrickleCharge),
	})
	assert.ErrorIs(t, err, ErrDuplicateOffset)
}

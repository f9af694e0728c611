package model

import "fmt"

// SiteState is the operational command state resolved for a site at an
// instant in time.
type SiteState string

const (
	StateCharge    SiteState = "charge"
	StateDischarge SiteState = "discharge"
	StateIdle      SiteState = "idle"
)

func ParseSiteState(s string) (SiteState, error) {
	switch SiteState(s) {
	case StateCharge, StateDischarge, StateIdle:
		return SiteState(s), nil
	}
	return "", fmt.Errorf("invalid site state %q (expected charge, discharge or idle)", s)
}

func (s SiteState) String() string { return string(s) }

// ScheduleCommandType is the action kind referenced by a template entry.
// Distinct from SiteState: trickle_charge is a command, not a resolved state.
type ScheduleCommandType string

const (
	CommandCharge        ScheduleCommandType = "charge"
	CommandDischarge     ScheduleCommandType = "discharge"
	CommandTrickleCharge ScheduleCommandType = "trickle_charge"
)

func ParseScheduleCommandType(s string) (ScheduleCommandType, error) {
	switch ScheduleCommandType(s) {
	case CommandCharge, CommandDischarge, CommandTrickleCharge:
		return ScheduleCommandType(s), nil
	}
	return "", fmt.Errorf("invalid command type %q (expected charge, discharge or trickle_charge)", s)
}

func (t ScheduleCommandType) String() string { return string(t) }

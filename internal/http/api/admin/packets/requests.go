package packets

// CommandSpecRequest is one template entry in a create/update/clone call.
type CommandSpecRequest struct {
	ExecutionOffsetSeconds int    `json:"execution_offset_seconds"`
	CommandType            string `json:"command_type" binding:"required"`
}

type CreateLibraryItemRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description *string              `json:"description"`
	Commands    []CommandSpecRequest `json:"commands"`
}

type UpdateLibraryItemRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Commands    []CommandSpecRequest `json:"commands"`
}

type CloneLibraryItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type CreateApplicationRuleRequest struct {
	RuleType       string   `json:"rule_type" binding:"required"`
	DaysOfWeek     []int    `json:"days_of_week"`
	SpecificDates  []string `json:"specific_dates"`
	OverrideReason *string  `json:"override_reason"`
}

type CreateOverrideRequest struct {
	State     string  `json:"state" binding:"required"`
	StartTime string  `json:"start_time" binding:"required"` // RFC 3339
	EndTime   string  `json:"end_time" binding:"required"`   // RFC 3339
	Reason    *string `json:"reason"`
}

type UpdateOverrideRequest struct {
	State     *string `json:"state"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Reason    *string `json:"reason"`
	IsActive  *bool   `json:"is_active"`
}

type CreateScriptRequest struct {
	Name          string `json:"name" binding:"required"`
	ScriptContent string `json:"script_content"`
	Language      string `json:"language"`
	Version       int    `json:"version"`
	IsActive      *bool  `json:"is_active"`
}

type UpdateScriptRequest struct {
	Name          *string `json:"name"`
	ScriptContent *string `json:"script_content"`
	Language      *string `json:"language"`
	IsActive      *bool   `json:"is_active"`
	Version       *int    `json:"version"`
}

type ValidateScriptRequest struct {
	ScriptContent string `json:"script_content" binding:"required"`
	Language      string `json:"language"`
}

type ExecuteSchedulerRequest struct {
	At *string `json:"at"` // RFC 3339, defaults to now
}

type PruneExecutionsRequest struct {
	Before string `json:"before" binding:"required"` // RFC 3339
}

type CreateCommandRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Payload     *string `json:"payload"`
}

type CreateCommandSetRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type AddSetCommandRequest struct {
	CommandID      int     `json:"command_id" binding:"required"`
	ExecutionOrder int     `json:"execution_order"`
	DelayMS        *int    `json:"delay_ms"`
	Condition      *string `json:"condition"`
}

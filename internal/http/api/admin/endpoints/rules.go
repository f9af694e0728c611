package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	"github.com/Voltair-Energy/voltair/internal/http/api/admin/packets"
	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/Voltair-Energy/voltair/internal/rules"
)

type RuleController struct {
	store  db.Store
	engine *rules.Engine
}

func NewRuleController(store db.Store, engine *rules.Engine) *RuleController {
	return &RuleController{store: store, engine: engine}
}

func RuleModule(store db.Store, engine *rules.Engine) api.Module {
	ctl := NewRuleController(store, engine)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/library/:id/rules", ctl.listRules)
		c.POST("/library/:id/rules", ctl.createRule)
		c.DELETE("/rules/:id", ctl.deleteRule)

		c.GET("/sites/:id/effective-schedule", ctl.effectiveSchedule)
		c.GET("/sites/:id/calendar", ctl.calendar)
	})
}

func (r *RuleController) listRules(ctx *gin.Context) (any, *api.APIError) {
	templateID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	list, err := r.store.ListApplicationRulesForTemplate(templateID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

func (r *RuleController) createRule(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	templateID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CreateApplicationRuleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	ruleType := model.RuleType(request.RuleType)
	switch ruleType {
	case model.RuleSpecificDate:
		if len(request.SpecificDates) == 0 {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "specific_dates is required for a specific_date rule"}
		}
		for _, d := range request.SpecificDates {
			if _, err := rules.ParseDate(d); err != nil {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
			}
		}
	case model.RuleDayOfWeek:
		if len(request.DaysOfWeek) == 0 {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "days_of_week is required for a day_of_week rule"}
		}
		for _, d := range request.DaysOfWeek {
			if d < 0 || d > 6 {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: "days_of_week values must be 0 (Sunday) through 6 (Saturday)"}
			}
		}
	case model.RuleDefault:
		// no condition payload
	default:
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid rule_type"}
	}

	rule, err := r.store.CreateApplicationRule(templateID, ruleType, request.DaysOfWeek, request.SpecificDates, request.OverrideReason, actingUserID)
	if err != nil {
		return nil, storeError(err)
	}
	return rule, nil
}

func (r *RuleController) deleteRule(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := r.store.DeleteApplicationRule(id, actingUserID); err != nil {
		return nil, storeError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

func (r *RuleController) effectiveSchedule(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	date, err := rules.ParseDate(ctx.Query("date"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	effective, err := r.engine.EffectiveSchedule(siteID, date)
	if err != nil {
		if err == rules.ErrNoSchedule {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: err.Error()}
		}
		return nil, storeError(err)
	}
	return effective, nil
}

// calendar returns day -> winning schedule for a month; with
// ?matches=true each day carries every rule that applied, for rule
// conflict debugging.
func (r *RuleController) calendar(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	year, err := strconv.Atoi(ctx.Query("year"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid year"}
	}
	month, err := strconv.Atoi(ctx.Query("month"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid month"}
	}

	if ctx.Query("matches") == "true" {
		cal, err := r.engine.CalendarWithMatches(siteID, year, month)
		if err != nil {
			if err == rules.ErrInvalidMonth {
				return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
			}
			return nil, storeError(err)
		}
		return cal, nil
	}

	cal, err := r.engine.CalendarForMonth(siteID, year, month)
	if err != nil {
		if err == rules.ErrInvalidMonth {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		return nil, storeError(err)
	}
	return cal, nil
}

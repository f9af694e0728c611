package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	"github.com/Voltair-Energy/voltair/internal/http/api/admin/packets"
	"github.com/Voltair-Energy/voltair/internal/scheduler"
)

type SchedulerController struct {
	store   db.Store
	service *scheduler.Service
}

func NewSchedulerController(store db.Store, service *scheduler.Service) *SchedulerController {
	return &SchedulerController{store: store, service: service}
}

func SchedulerModule(store db.Store, service *scheduler.Service) api.Module {
	ctl := NewSchedulerController(store, service)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/sites/:id/state", ctl.getSiteState)
		c.POST("/sites/:id/scheduler/execute", ctl.executeScheduler)

		// execution audit log
		c.GET("/sites/:id/executions", ctl.listExecutions)
		c.GET("/sites/:id/executions/failed", ctl.listFailedExecutions)
		c.POST("/executions/prune", ctl.pruneExecutions)
	})
}

func pathID(ctx *gin.Context, name string) (int, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, &api.APIError{Code: http.StatusBadRequest, Message: "invalid " + name}
	}
	return id, nil
}

// parseAt reads an optional RFC 3339 "at" query parameter, defaulting to
// the current time.
func parseAt(ctx *gin.Context) (time.Time, *api.APIError) {
	raw := ctx.Query("at")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &api.APIError{Code: http.StatusBadRequest, Message: "invalid timestamp (expected RFC 3339)"}
	}
	return at, nil
}

func (s *SchedulerController) getSiteState(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	at, apiErr := parseAt(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	result, err := s.service.GetSiteState(siteID, at)
	if err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

func (s *SchedulerController) executeScheduler(ctx *gin.Context, _ *int) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	at := time.Now().UTC()
	var request packets.ExecuteSchedulerRequest
	if err := ctx.ShouldBindJSON(&request); err == nil && request.At != nil {
		parsed, err := time.Parse(time.RFC3339, *request.At)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid timestamp (expected RFC 3339)"}
		}
		at = parsed
	}

	result, err := s.service.ExecuteSchedulerForSite(siteID, at)
	if err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

func (s *SchedulerController) listExecutions(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	// time-range listing when from/to are supplied, otherwise most recent
	if fromRaw := ctx.Query("from"); fromRaw != "" {
		from, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid from timestamp"}
		}
		to, err := time.Parse(time.RFC3339, ctx.Query("to"))
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid to timestamp"}
		}
		list, err := s.store.ListExecutionsInRange(siteID, from, to)
		if err != nil {
			return nil, storeError(err)
		}
		return list, nil
	}

	limit := 100
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid limit"}
		}
		limit = parsed
	}
	list, err := s.store.ListExecutionsForSite(siteID, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

// pruneExecutions drops audit rows older than the cutoff. Rows are never
// updated, so age-based pruning is the only mutation the log allows.
func (s *SchedulerController) pruneExecutions(ctx *gin.Context, _ *int) (any, *api.APIError) {
	var request packets.PruneExecutionsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	cutoff, err := time.Parse(time.RFC3339, request.Before)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid before timestamp (expected RFC 3339)"}
	}

	pruned, err := s.store.PruneExecutionsBefore(cutoff)
	if err != nil {
		return nil, storeError(err)
	}
	return gin.H{"pruned": pruned}, nil
}

func (s *SchedulerController) listFailedExecutions(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	list, err := s.store.ListFailedExecutionsForSite(siteID, 100)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

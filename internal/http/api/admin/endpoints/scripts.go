package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	"github.com/Voltair-Energy/voltair/internal/http/api/admin/packets"
	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/Voltair-Energy/voltair/internal/scheduler"
)

type ScriptController struct {
	store   db.Store
	service *scheduler.Service
}

func NewScriptController(store db.Store, service *scheduler.Service) *ScriptController {
	return &ScriptController{store: store, service: service}
}

func ScriptModule(store db.Store, service *scheduler.Service) api.Module {
	ctl := NewScriptController(store, service)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/sites/:id/scripts", ctl.listScripts)
		c.POST("/sites/:id/scripts", ctl.createScript)
		c.POST("/sites/:id/scripts/validate", ctl.validateScript)
		c.GET("/scripts/:id", ctl.getScript)
		c.PUT("/scripts/:id", ctl.updateScript)
		c.DELETE("/scripts/:id", ctl.deleteScript)
		c.POST("/scripts/:id/promote", ctl.promoteScript)
		c.GET("/scheduler/default-script", ctl.defaultScript)
	})
}

func (s *ScriptController) listScripts(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	list, err := s.store.ListScriptsForSite(siteID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

func (s *ScriptController) createScript(ctx *gin.Context, _ *int) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CreateScriptRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	unique, err := s.store.ScriptNameUnique(siteID, request.Name, nil)
	if err != nil {
		return nil, storeError(err)
	}
	if !unique {
		return nil, &api.APIError{Code: http.StatusConflict, Message: "a script with this name already exists for the site"}
	}

	language := request.Language
	if language == "" {
		language = "lua"
	}
	content := request.ScriptContent
	if content == "" {
		content = scheduler.NewExecutor().DefaultScript()
	}
	version := request.Version
	if version == 0 {
		version = 1
	}
	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}

	candidate := model.SchedulerScript{SiteID: siteID, Name: request.Name, ScriptContent: content, Language: language}
	if err := scheduler.NewExecutor().Validate(candidate); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	script, err := s.store.CreateScript(siteID, request.Name, content, language, version, isActive)
	if err != nil {
		return nil, storeError(err)
	}
	return script, nil
}

// validateScript checks syntax and smoke-runs the candidate against the
// site's live data without persisting anything.
func (s *ScriptController) validateScript(ctx *gin.Context, _ *int) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.ValidateScriptRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	language := request.Language
	if language == "" {
		language = "lua"
	}
	candidate := model.SchedulerScript{SiteID: siteID, ScriptContent: request.ScriptContent, Language: language}

	result, err := s.service.ValidateScript(candidate, siteID)
	if err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

func (s *ScriptController) getScript(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	script, err := s.store.GetScriptByID(id)
	if err != nil {
		return nil, storeError(err)
	}
	return script, nil
}

func (s *ScriptController) updateScript(ctx *gin.Context, _ *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateScriptRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if request.ScriptContent != nil {
		language := "lua"
		if request.Language != nil {
			language = *request.Language
		}
		candidate := model.SchedulerScript{ScriptContent: *request.ScriptContent, Language: language}
		if err := scheduler.NewExecutor().Validate(candidate); err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
	}

	script, err := s.store.UpdateScript(id, request.Name, request.ScriptContent, request.Language, request.IsActive, request.Version)
	if err != nil {
		return nil, storeError(err)
	}
	return script, nil
}

func (s *ScriptController) deleteScript(ctx *gin.Context, _ *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.store.DeleteScript(id); err != nil {
		return nil, storeError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

// promoteScript makes the script the sole active one for its site.
func (s *ScriptController) promoteScript(ctx *gin.Context, _ *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	script, deactivated, err := s.store.PromoteScript(id)
	if err != nil {
		return nil, storeError(err)
	}
	return gin.H{"promoted": script.ID, "deactivated": deactivated}, nil
}

func (s *ScriptController) defaultScript(ctx *gin.Context) (any, *api.APIError) {
	return gin.H{"script_content": scheduler.NewExecutor().DefaultScript(), "language": "lua"}, nil
}

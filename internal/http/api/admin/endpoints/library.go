package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	"github.com/Voltair-Energy/voltair/internal/http/api/admin/packets"
	"github.com/Voltair-Energy/voltair/internal/model"
)

type LibraryController struct {
	store db.Store
}

func NewLibraryController(store db.Store) *LibraryController {
	return &LibraryController{store: store}
}

func LibraryModule(store db.Store) api.Module {
	ctl := NewLibraryController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/sites/:id/library", ctl.listItems)
		c.POST("/sites/:id/library", ctl.createItem)
		c.GET("/library/:id", ctl.getItem)
		c.PUT("/library/:id", ctl.updateItem)
		c.DELETE("/library/:id", ctl.deleteItem)
		c.POST("/library/:id/clone", ctl.cloneItem)
	})
}

func commandSpecs(in []packets.CommandSpecRequest) ([]model.CommandSpec, *api.APIError) {
	out := make([]model.CommandSpec, 0, len(in))
	for _, c := range in {
		commandType, err := model.ParseScheduleCommandType(c.CommandType)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		out = append(out, model.CommandSpec{
			ExecutionOffsetSeconds: c.ExecutionOffsetSeconds,
			CommandType:            commandType,
		})
	}
	return out, nil
}

func (l *LibraryController) listItems(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	items, err := l.store.ListLibraryItemsForSite(siteID)
	if err != nil {
		return nil, storeError(err)
	}
	return items, nil
}

func (l *LibraryController) createItem(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CreateLibraryItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	commands, apiErr := commandSpecs(request.Commands)
	if apiErr != nil {
		return nil, apiErr
	}

	item, err := l.store.CreateLibraryItem(siteID, request.Name, request.Description, commands, actingUserID)
	if err != nil {
		return nil, storeError(err)
	}
	return item, nil
}

func (l *LibraryController) getItem(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	item, err := l.store.GetLibraryItem(id)
	if err != nil {
		return nil, storeError(err)
	}
	return item, nil
}

func (l *LibraryController) updateItem(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateLibraryItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	// commands == nil means "leave entries alone"; an empty list replaces
	// everything with nothing
	var commands []model.CommandSpec
	if request.Commands != nil {
		parsed, apiErr := commandSpecs(request.Commands)
		if apiErr != nil {
			return nil, apiErr
		}
		commands = parsed
		if commands == nil {
			commands = []model.CommandSpec{}
		}
	}

	item, err := l.store.UpdateLibraryItem(id, request.Name, request.Description, commands, actingUserID)
	if err != nil {
		return nil, storeError(err)
	}
	return item, nil
}

func (l *LibraryController) deleteItem(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := l.store.DeleteLibraryItem(id, actingUserID); err != nil {
		return nil, storeError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

func (l *LibraryController) cloneItem(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.CloneLibraryItemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	item, err := l.store.CloneLibraryItem(id, request.Name, request.Description, actingUserID)
	if err != nil {
		return nil, storeError(err)
	}
	return item, nil
}

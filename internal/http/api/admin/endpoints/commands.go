package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
	"github.com/Voltair-Energy/voltair/internal/http/api/admin/packets"
	"github.com/Voltair-Energy/voltair/internal/mqttpub"
)

type CommandController struct {
	store     db.Store
	publisher *mqttpub.Publisher
}

func NewCommandController(store db.Store, publisher *mqttpub.Publisher) *CommandController {
	return &CommandController{store: store, publisher: publisher}
}

func CommandModule(store db.Store, publisher *mqttpub.Publisher) api.Module {
	ctl := NewCommandController(store, publisher)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/sites/:id/commands", ctl.listCommands)
		c.POST("/sites/:id/commands", ctl.createCommand)
		c.GET("/commands/:id", ctl.getCommand)
		c.DELETE("/commands/:id", ctl.deleteCommand)

		c.GET("/sites/:id/command-sets", ctl.listCommandSets)
		c.POST("/sites/:id/command-sets", ctl.createCommandSet)
		c.GET("/command-sets/:id", ctl.getCommandSet)
		c.DELETE("/command-sets/:id", ctl.deleteCommandSet)

		c.GET("/command-sets/:id/commands", ctl.listSetCommands)
		c.POST("/command-sets/:id/commands", ctl.addSetCommand)
		c.DELETE("/command-sets/:id/commands/:commandId", ctl.removeSetCommand)

		c.POST("/command-sets/:id/dispatch", ctl.dispatchCommandSet)
	})
}

func (cc *CommandController) listCommands(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	list, err := cc.store.ListCommandsForSite(siteID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

func (cc *CommandController) createCommand(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.CreateCommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	cmd, err := cc.store.CreateCommand(siteID, request.Name, request.Description, request.Payload)
	if err != nil {
		return nil, storeError(err)
	}
	return cmd, nil
}

func (cc *CommandController) getCommand(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	cmd, err := cc.store.GetCommandByID(id)
	if err != nil {
		return nil, storeError(err)
	}
	return cmd, nil
}

func (cc *CommandController) deleteCommand(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := cc.store.DeleteCommand(id); err != nil {
		return nil, storeError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

func (cc *CommandController) listCommandSets(ctx *gin.Context) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	list, err := cc.store.ListCommandSetsForSite(siteID)
	if err != nil {
		return nil, storeError(err)
	}
	return list, nil
}

func (cc *CommandController) createCommandSet(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	siteID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.CreateCommandSetRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	set, err := cc.store.CreateCommandSet(siteID, request.Name, request.Description)
	if err != nil {
		return nil, storeError(err)
	}
	return set, nil
}

func (cc *CommandController) getCommandSet(ctx *gin.Context) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	set, err := cc.store.GetCommandSetByID(id)
	if err != nil {
		return nil, storeError(err)
	}
	return set, nil
}

func (cc *CommandController) deleteCommandSet(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := cc.store.DeleteCommandSet(id); err != nil {
		return nil, storeError(err)
	}
	return gin.H{"message": "deleted"}, nil
}

func (cc *CommandController) listSetCommands(ctx *gin.Context) (any, *api.APIError) {
	setID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	members, err := cc.store.ListSetCommands(setID)
	if err != nil {
		return nil, storeError(err)
	}
	return members, nil
}

func (cc *CommandController) addSetCommand(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	setID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	var request packets.AddSetCommandRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	member, err := cc.store.AddCommandToSet(setID, request.CommandID, request.ExecutionOrder, request.DelayMS, request.Condition)
	if err != nil {
		return nil, storeError(err)
	}
	return member, nil
}

func (cc *CommandController) removeSetCommand(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	setID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	commandID, apiErr := pathID(ctx, "commandId")
	if apiErr != nil {
		return nil, apiErr
	}
	if err := cc.store.RemoveCommandFromSet(setID, commandID); err != nil {
		return nil, storeError(err)
	}
	return gin.H{"message": "removed"}, nil
}

// dispatchCommandSet pushes every member of the set over MQTT in
// execution order. The set's site owns the commands it references.
func (cc *CommandController) dispatchCommandSet(ctx *gin.Context, actingUserID *int) (any, *api.APIError) {
	if cc.publisher == nil {
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "mqtt publisher is not configured"}
	}

	setID, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	set, err := cc.store.GetCommandSetByID(setID)
	if err != nil {
		return nil, storeError(err)
	}
	members, err := cc.store.ListSetCommands(setID)
	if err != nil {
		return nil, storeError(err)
	}
	commands, err := cc.store.ListCommandsForSite(set.SiteID)
	if err != nil {
		return nil, storeError(err)
	}

	if err := cc.publisher.DispatchCommandSet(set.SiteID, commands, members); err != nil {
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: err.Error()}
	}
	return gin.H{"dispatched": len(members), "site_id": set.SiteID}, nil
}

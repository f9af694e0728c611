package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Voltair-Energy/voltair/internal/http/middleware"
)

// APIError carries the status code and user-facing message for a failed
// handler.
type APIError struct {
	Code    int
	Message string
}

// HandlerFunc is a typed endpoint handler: it returns a response body or
// an APIError, and the wrapper does the JSON plumbing.
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// HandlerFuncWithActor additionally receives the acting user id extracted
// by the auth middleware, used for audit attribution on mutating calls.
type HandlerFuncWithActor func(ctx *gin.Context, actingUserID *int) (any, *APIError)

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpointWithActor(h HandlerFuncWithActor) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor := middleware.GetActingUser(ctx)
		result, apiErr := h(ctx, actor)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

// Controller is the gin group endpoints attach to.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFunc) { c.Group.GET(path, ResolveEndpoint(h)) }
func (c *Controller) POST(path string, h HandlerFuncWithActor) {
	c.Group.POST(path, ResolveEndpointWithActor(h))
}
func (c *Controller) PUT(path string, h HandlerFuncWithActor) {
	c.Group.PUT(path, ResolveEndpointWithActor(h))
}
func (c *Controller) DELETE(path string, h HandlerFuncWithActor) {
	c.Group.DELETE(path, ResolveEndpointWithActor(h))
}

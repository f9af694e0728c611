package endpoints

import (
	"errors"
	"net/http"

	"github.com/Voltair-Energy/voltair/internal/db"
	"github.com/Voltair-Energy/voltair/internal/http/api"
)

// storeError maps the store's closed error set onto status codes so the
// UI can tell validation, conflict and forbidden-operation failures apart.
func storeError(err error) *api.APIError {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.Is(err, db.ErrOverrideOverlap), errors.Is(err, db.ErrDuplicateName), errors.Is(err, db.ErrDuplicateScriptName):
		return &api.APIError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, db.ErrCannotDeleteDefault):
		return &api.APIError{Code: http.StatusForbidden, Message: err.Error()}
	case errors.Is(err, db.ErrInvalidRange), errors.Is(err, db.ErrInvalidOffset), errors.Is(err, db.ErrDuplicateOffset):
		return &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	default:
		return &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
}

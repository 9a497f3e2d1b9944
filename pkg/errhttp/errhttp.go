// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/logger"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
)

// Writer renders errors as JSON responses. Production hides the cause of
// 5xx responses behind the fallback message; 5xx errors are always logged
// and handed to Report when it is set.
type Writer struct {
	Production bool
	Log        logger.Logger
	Report     func(*http.Request, error)
}

// Write maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 with fallback as the client message.
func (e Writer) Write(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *itemdomain.ValidationError
	if errors.As(err, &verr) {
		httpx.JSONFieldErrors(w, verr.Summary(), verr.Fields)
		return
	}

	status := mapErrorToStatus(err)
	switch status {
	case http.StatusNotFound:
		httpx.JSONError(w, status, "Item not found")
		return
	case http.StatusConflict:
		httpx.JSONError(w, status, "Item already exists")
		return
	case http.StatusInternalServerError:
		if e.Log != nil {
			e.Log.ErrorContext(r.Context(), fallback,
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
			)
		}
		if e.Report != nil {
			e.Report(r, err)
		}
	}
	httpx.JSONError(w, status, httpx.SafeError(err, status, e.Production, fallback))
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, itemdomain.ErrItemNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, itemdomain.ErrItemAlreadyExists):
		return http.StatusConflict // 409
	case errors.Is(err, itemdomain.ErrInvalidItem):
		return http.StatusBadRequest // 400
	default:
		return http.StatusInternalServerError // 500
	}
}

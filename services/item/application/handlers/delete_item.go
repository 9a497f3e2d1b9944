package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/httpx"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
)

// DeleteItemHandler handles DELETE /items/{id} requests.
type DeleteItemHandler struct {
	svc  *appsvcs.Services
	errs errhttp.Writer
}

func NewDeleteItemHandler(svc *appsvcs.Services, errs errhttp.Writer) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc, errs: errs}
}

// Execute deletes an item permanently.
//
//	@Summary	Delete item
//	@Tags		items
//	@Param		id	path	string	true	"Item ID"	format(uuid)
//	@Success	204
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Failure	500	{object}	httpx.ErrorResponse
//	@Router		/items/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Item.Delete(context.WithoutCancel(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.errs.Write(w, r, err, "Failed to delete item")
		return
	}
	httpx.NoContent(w)
}

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/httpx"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
)

// GetItemHandler handles GET /items/{id} requests.
type GetItemHandler struct {
	svc  *appsvcs.Services
	errs errhttp.Writer
}

func NewGetItemHandler(svc *appsvcs.Services, errs errhttp.Writer) *GetItemHandler {
	return &GetItemHandler{svc: svc, errs: errs}
}

// Execute returns one item.
//
//	@Summary	Get item
//	@Tags		items
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"	format(uuid)
//	@Success	200	{object}	ItemResponse
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Failure	500	{object}	httpx.ErrorResponse
//	@Router		/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Item.Get(context.WithoutCancel(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, err, "Failed to fetch item")
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

package handlers

import (
	"context"
	"net/http"

	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/httpx"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
)

// ListItemsHandler handles GET /items requests.
type ListItemsHandler struct {
	svc  *appsvcs.Services
	errs errhttp.Writer
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services, errs errhttp.Writer) *ListItemsHandler {
	return &ListItemsHandler{svc: svc, errs: errs}
}

// Execute lists all items.
//
//	@Summary		List items
//	@Description	Returns every item, newest first
//	@Tags			items
//	@Produce		json
//	@Success		200	{array}		ItemResponse
//	@Failure		500	{object}	httpx.ErrorResponse
//	@Router			/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Item.List(context.WithoutCancel(r.Context()))
	if err != nil {
		h.errs.Write(w, r, err, "Failed to fetch items")
		return
	}

	resp := make([]ItemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

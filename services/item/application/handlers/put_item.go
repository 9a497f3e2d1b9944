package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/httpx"
	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
)

// PutItemHandler handles PUT /items/{id} requests.
type PutItemHandler struct {
	svc  *appsvcs.Services
	errs errhttp.Writer
}

func NewPutItemHandler(svc *appsvcs.Services, errs errhttp.Writer) *PutItemHandler {
	return &PutItemHandler{svc: svc, errs: errs}
}

// Execute applies a partial update. Fields left out of the body are not changed.
//
//	@Summary		Update item
//	@Description	Updates only the supplied fields and refreshes updated_at
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item ID"	format(uuid)
//	@Param			request	body		UpdateItemRequest	true	"Fields to change"
//	@Success		200		{object}	ItemResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Failure		500		{object}	httpx.ErrorResponse
//	@Router			/items/{id} [put]
func (h *PutItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	// Field validation happens in the service, after the existence check.
	req, ok := pkgvalidator.DecodeJSON[UpdateItemRequest](w, r)
	if !ok {
		return
	}

	item, err := h.svc.Item.Update(context.WithoutCancel(r.Context()), chi.URLParam(r, "id"), appsvcs.UpdateItemCommand{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.errs.Write(w, r, err, "Failed to update item")
		return
	}
	httpx.JSON(w, http.StatusOK, toItemResponse(item))
}

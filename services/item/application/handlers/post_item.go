package handlers

import (
	"context"
	"net/http"

	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/httpx"
	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
)

// PostItemHandler handles POST /items requests.
type PostItemHandler struct {
	svc  *appsvcs.Services
	errs errhttp.Writer
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services, errs errhttp.Writer) *PostItemHandler {
	return &PostItemHandler{svc: svc, errs: errs}
}

// Execute creates a new item.
//
//	@Summary		Create item
//	@Description	Creates an item. Title and description are trimmed and must not be blank.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateItemRequest	true	"Item creation request"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		500		{object}	httpx.ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateItemRequest](w, r)
	if !ok {
		return
	}

	cmd := appsvcs.CreateItemCommand{
		Title:       *req.Title,
		Description: *req.Description,
	}
	if req.Completed != nil {
		cmd.Completed = *req.Completed
	}

	item, err := h.svc.Item.Create(context.WithoutCancel(r.Context()), cmd)
	if err != nil {
		h.errs.Write(w, r, err, "Failed to create item")
		return
	}
	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}

package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemsapi/pkg/app"
	"github.com/ghuser/itemsapi/pkg/errhttp"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	"github.com/ghuser/itemsapi/services/item/application/handlers"
	appsvcs "github.com/ghuser/itemsapi/services/item/application/services"
)

// ItemRoutes registers item endpoints on the provided chi router.
func ItemRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	errs := errhttp.Writer{
		Production: a.IsProduction(),
		Log:        a.Logger,
		Report:     telemetry.ReportError,
	}

	r.Route("/items", func(r chi.Router) {
		r.Get("/", handlers.NewListItemsHandler(svcs, errs).Execute)
		r.Post("/", handlers.NewPostItemHandler(svcs, errs).Execute)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.NewGetItemHandler(svcs, errs).Execute)
			r.Put("/", handlers.NewPutItemHandler(svcs, errs).Execute)
			r.Delete("/", handlers.NewDeleteItemHandler(svcs, errs).Execute)
		})
	})
}

package api

import (
	"net/http"

	"github.com/JaimeStill/docent/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) []string {
	return routes.Register(
		mux,
		domain.Intake.Handler(runtime.MaxEventSize).Routes(),
		domain.Documents.Handler().Routes(),
		domain.Batches.Handler().Routes(),
		domain.Thresholds.Handler().Routes(),
		domain.Training.Handler().Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger, runtime.MaxListSize).routes(),
	)
}

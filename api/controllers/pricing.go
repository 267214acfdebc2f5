package controllers

import (
	"net/http"

	"github.com/angelmondragon/salesdesk-backend/api/responses"
	"github.com/angelmondragon/salesdesk-backend/api/validators"
	"github.com/angelmondragon/salesdesk-backend/internal/quotes"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
)

type pricingPreviewRequest struct {
	Items []lineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PricingPreview prices an unsaved list of lines and returns the totals a
// quote holding them would carry.
func PricingPreview(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload pricingPreviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Preview(r.Context(), quotes.PreviewInput{Items: toLineInputs(payload.Items)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

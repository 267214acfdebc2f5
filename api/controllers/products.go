package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/salesdesk-backend/api/responses"
	"github.com/angelmondragon/salesdesk-backend/api/validators"
	productsvc "github.com/angelmondragon/salesdesk-backend/internal/products"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
)

type priceTierRequest struct {
	UpToQuantity int             `json:"up_to_quantity"`
	Price        decimal.Decimal `json:"price"`
}

type createProductRequest struct {
	SKU         *string            `json:"sku,omitempty"`
	Name        string             `json:"name" validate:"required,max=200"`
	Category    string             `json:"category" validate:"required"`
	Description *string            `json:"description,omitempty"`
	PriceTiers  []priceTierRequest `json:"price_tiers" validate:"required,min=1"`
}

type updateProductRequest struct {
	SKU         *string             `json:"sku,omitempty"`
	Name        *string             `json:"name,omitempty" validate:"omitempty,max=200"`
	Category    *string             `json:"category,omitempty"`
	Description *string             `json:"description,omitempty"`
	PriceTiers  *[]priceTierRequest `json:"price_tiers,omitempty"`
}

func toTierInputs(tiers []priceTierRequest) []productsvc.PriceTierInput {
	out := make([]productsvc.PriceTierInput, 0, len(tiers))
	for _, tier := range tiers {
		out = append(out, productsvc.PriceTierInput{UpToQuantity: tier.UpToQuantity, Price: tier.Price})
	}
	return out
}

func parseCategory(raw string) (enums.ProductCategory, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(raw))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").WithDetails(map[string]any{"field": "category"})
	}
	return category, nil
}

func (r createProductRequest) toInput() (productsvc.CreateProductInput, error) {
	category, err := parseCategory(r.Category)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}
	return productsvc.CreateProductInput{
		SKU:         r.SKU,
		Name:        r.Name,
		Category:    category,
		Description: r.Description,
		PriceTiers:  toTierInputs(r.PriceTiers),
	}, nil
}

func (r updateProductRequest) toInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
	}
	if r.Category != nil {
		category, err := parseCategory(*r.Category)
		if err != nil {
			return productsvc.UpdateProductInput{}, err
		}
		input.Category = &category
	}
	if r.PriceTiers != nil {
		tiers := toTierInputs(*r.PriceTiers)
		input.PriceTiers = &tiers
	}
	return input, nil
}

// CreateProduct adds a catalog entry with its price tiers.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ListProducts supports ?category=, ?q=, ?limit= and ?cursor=.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := productsvc.ListProductsInput{
			Query:      validators.SanitizeString(r.URL.Query().Get("q"), 100),
			Pagination: page,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := parseCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Category = &category
		}

		list, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductPrice resolves the tier price for ?quantity=.
func ProductPrice(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(r.URL.Query().Get("quantity")) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "quantity is required").WithDetails(map[string]any{"field": "quantity"}))
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 0, 1, 1_000_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := svc.PriceForQuantity(r.Context(), productID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, price)
	}
}
